package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/code-compiler/internal/apperror"
	"github.com/sakif/code-compiler/internal/auth"
	"github.com/sakif/code-compiler/internal/model"
	"github.com/sakif/code-compiler/internal/repository"
)

// TokenGrant is the successful client-credentials response body.
type TokenGrant struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// ClientService manages API clients and trades their credentials for
// access tokens.
type ClientService struct {
	clients repository.ClientRepository
	hasher  *auth.SecretHasher
	tokens  *auth.TokenService
	logger  *slog.Logger
}

func NewClientService(
	clients repository.ClientRepository,
	hasher *auth.SecretHasher,
	tokens *auth.TokenService,
	logger *slog.Logger,
) *ClientService {
	return &ClientService{
		clients: clients,
		hasher:  hasher,
		tokens:  tokens,
		logger:  logger,
	}
}

// Register creates a client with a generated ID and secret. The secret is
// returned once and only its hash is stored.
func (s *ClientService) Register(ctx context.Context, name string) (*model.Client, string, error) {
	secret := auth.GenerateSecret()
	hash, err := s.hasher.Hash(secret)
	if err != nil {
		return nil, "", err
	}

	client := &model.Client{Name: strings.TrimSpace(name), SecretHash: hash}
	if err := s.clients.Create(ctx, client); err != nil {
		return nil, "", fmt.Errorf("service/client: registering client: %w", err)
	}

	s.logger.Info("client registered", slog.String("clientID", client.ID))
	return client, secret, nil
}

// EnsureClient makes id/secret valid credentials, creating the client or
// replacing its secret. The server calls it at startup for the bootstrap
// client from CLIENT_ID and CLIENT_SECRET.
func (s *ClientService) EnsureClient(ctx context.Context, id, secret string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("client_id", "client ID is required")
	}
	hash, err := s.hasher.Hash(secret)
	if err != nil {
		return apperror.ValidationFailed("client_secret", err.Error())
	}

	if err := s.clients.Upsert(ctx, &model.Client{ID: id, Name: id, SecretHash: hash}); err != nil {
		return fmt.Errorf("service/client: ensuring client %s: %w", id, err)
	}

	s.logger.Info("bootstrap client ready", slog.String("clientID", id))
	return nil
}

// Authenticate checks a client's credentials. Unknown clients and wrong
// secrets produce the same Unauthorized error so callers cannot probe IDs.
func (s *ClientService) Authenticate(ctx context.Context, id, secret string) (*model.Client, error) {
	if id == "" || secret == "" {
		return nil, apperror.Unauthorized("client credentials are required")
	}

	client, err := s.clients.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("invalid client credentials")
		}
		return nil, fmt.Errorf("service/client: loading client %s: %w", id, err)
	}

	if err := s.hasher.Verify(client.SecretHash, secret); err != nil {
		if errors.Is(err, auth.ErrSecretMismatch) {
			s.logger.Warn("client secret mismatch", slog.String("clientID", id))
			return nil, apperror.Unauthorized("invalid client credentials")
		}
		return nil, fmt.Errorf("service/client: %w", err)
	}
	return client, nil
}

// IssueToken authenticates the client and signs an access token for it.
func (s *ClientService) IssueToken(ctx context.Context, id, secret string) (*TokenGrant, error) {
	client, err := s.Authenticate(ctx, id, secret)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Generate(client.ID)
	if err != nil {
		return nil, fmt.Errorf("service/client: issuing token for %s: %w", client.ID, err)
	}

	s.logger.Info("token issued", slog.String("clientID", client.ID))
	return &TokenGrant{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.tokens.TTL().Seconds()),
	}, nil
}
