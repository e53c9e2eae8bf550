package auth

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func newTestHasher() *SecretHasher {
	return NewSecretHasherWithCost(bcrypt.MinCost)
}

func TestHash_LooksBcrypt(t *testing.T) {
	hash, err := newTestHasher().Hash("s3cret")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if !strings.HasPrefix(hash, "$2") {
		t.Errorf("Hash() does not look like a bcrypt hash: %q", hash)
	}
}

func TestHash_Salted(t *testing.T) {
	h := newTestHasher()
	a, _ := h.Hash("same")
	b, _ := h.Hash("same")
	if a == b {
		t.Error("Hash() produced identical hashes for the same secret")
	}
}

func TestHash_RejectsEmptyAndLong(t *testing.T) {
	h := newTestHasher()
	if _, err := h.Hash(""); err == nil {
		t.Error("Hash(\"\") should fail")
	}
	if _, err := h.Hash(strings.Repeat("a", 73)); err == nil {
		t.Error("Hash() should reject secrets over 72 bytes")
	}
	if _, err := h.Hash(strings.Repeat("a", 72)); err != nil {
		t.Errorf("Hash() of exactly 72 bytes error = %v", err)
	}
}

func TestVerify(t *testing.T) {
	h := newTestHasher()
	hash, err := h.Hash("correct horse")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	if err := h.Verify(hash, "correct horse"); err != nil {
		t.Errorf("Verify() with the right secret error = %v", err)
	}
	if err := h.Verify(hash, "battery staple"); !errors.Is(err, ErrSecretMismatch) {
		t.Errorf("Verify() with the wrong secret error = %v, want ErrSecretMismatch", err)
	}
	if err := h.Verify("not-a-hash", "x"); err == nil || errors.Is(err, ErrSecretMismatch) {
		t.Errorf("Verify() with a malformed hash error = %v, want a non-mismatch error", err)
	}
}

func TestGenerateSecret(t *testing.T) {
	a, b := GenerateSecret(), GenerateSecret()
	if len(a) < 26 {
		t.Errorf("GenerateSecret() = %q, want at least 26 chars", a)
	}
	if a == b {
		t.Error("GenerateSecret() returned the same value twice")
	}
	if _, err := newTestHasher().Hash(a); err != nil {
		t.Errorf("generated secret cannot be hashed: %v", err)
	}
}
