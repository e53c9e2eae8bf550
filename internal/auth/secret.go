package auth

import (
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	defaultCost = 12

	// bcrypt ignores everything past 72 bytes; longer secrets are refused
	// rather than silently truncated.
	maxSecretBytes = 72
)

var ErrSecretMismatch = errors.New("auth: client secret does not match")

// SecretHasher hashes and checks API client secrets with bcrypt.
type SecretHasher struct {
	cost int
}

func NewSecretHasher() *SecretHasher {
	return &SecretHasher{cost: defaultCost}
}

// NewSecretHasherWithCost lets tests use bcrypt.MinCost so hashing stays fast.
func NewSecretHasherWithCost(cost int) *SecretHasher {
	return &SecretHasher{cost: cost}
}

func (h *SecretHasher) Hash(secret string) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("auth: client secret must not be empty")
	}
	if len(secret) > maxSecretBytes {
		return "", fmt.Errorf("auth: client secret must be %d bytes or fewer", maxSecretBytes)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing client secret: %w", err)
	}
	return string(hashed), nil
}

// Verify returns nil when secret matches hash and ErrSecretMismatch when
// it does not. Other errors mean the stored hash is malformed.
func (h *SecretHasher) Verify(hash, secret string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrSecretMismatch
		}
		return fmt.Errorf("auth: comparing client secret hash: %w", err)
	}
	return nil
}

// GenerateSecret returns a fresh random client secret (26 base32 characters,
// 128 bits of entropy).
func GenerateSecret() string {
	return rand.Text()
}
