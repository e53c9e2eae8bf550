// Package service holds the business rules between the HTTP handlers and
// storage: validation, ownership and orchestration of executions.
//
//	handler (HTTP) → service (rules) → repository (SQL)
//	                             ↘ executor (toolchains)
//
// Services take interfaces so tests swap in in-memory fakes, and they speak
// in plain Go values and apperror kinds so a CLI could drive them as well.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/code-compiler/internal/apperror"
	"github.com/sakif/code-compiler/internal/executor"
	"github.com/sakif/code-compiler/internal/model"
	"github.com/sakif/code-compiler/internal/repository"
)

const (
	MaxSnippetNameLength = 100
	MaxCodeLength        = 100000
	DefaultListLimit     = 20
	MaxListLimit         = 100
)

// SnippetInput carries the user-editable fields of a snippet.
type SnippetInput struct {
	Name        string
	Language    string
	Code        string
	Description string
}

type SnippetService struct {
	repo   repository.SnippetRepository
	exec   executor.Executor
	logger *slog.Logger
}

func NewSnippetService(repo repository.SnippetRepository, exec executor.Executor, logger *slog.Logger) *SnippetService {
	return &SnippetService{
		repo:   repo,
		exec:   exec,
		logger: logger,
	}
}

// Create validates in and stores it owned by clientID ("" when the server
// runs without authentication).
func (s *SnippetService) Create(ctx context.Context, in SnippetInput, clientID string) (*model.Snippet, error) {
	name, err := validateName(in.Name)
	if err != nil {
		return nil, err
	}
	lang, err := validateLanguage(in.Language)
	if err != nil {
		return nil, err
	}
	if err := validateCode(in.Code); err != nil {
		return nil, err
	}

	snippet := &model.Snippet{
		Name:        name,
		Language:    string(lang),
		Code:        in.Code,
		Description: strings.TrimSpace(in.Description),
		ClientID:    clientID,
	}
	if err := s.repo.Create(ctx, snippet); err != nil {
		s.logger.Error("failed to create snippet",
			slog.String("name", name),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating snippet: %w", err)
	}

	s.logger.Info("snippet created",
		slog.String("id", snippet.ID),
		slog.String("language", snippet.Language),
	)
	return snippet, nil
}

func (s *SnippetService) GetByID(ctx context.Context, id string) (*model.Snippet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "snippet ID is required")
	}
	// NotFound passes through untouched; the handler maps it to 404.
	return s.repo.GetByID(ctx, id)
}

// List pages through snippets, newest first. An empty language lists all.
func (s *SnippetService) List(ctx context.Context, limit, offset int, language string) ([]model.Snippet, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	opts := repository.ListOptions{Limit: limit, Offset: offset}
	if language != "" {
		lang, err := validateLanguage(language)
		if err != nil {
			return nil, err
		}
		opts.Language = string(lang)
	}

	snippets, err := s.repo.List(ctx, opts)
	if err != nil {
		s.logger.Error("failed to list snippets", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing snippets: %w", err)
	}
	return snippets, nil
}

// Update applies in to the snippet. Empty Name and Language keep the stored
// values; Code and Description are always replaced.
func (s *SnippetService) Update(ctx context.Context, id string, in SnippetInput, clientID string) (*model.Snippet, error) {
	snippet, err := s.owned(ctx, id, clientID)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(in.Name) != "" {
		name, err := validateName(in.Name)
		if err != nil {
			return nil, err
		}
		snippet.Name = name
	}
	if in.Language != "" {
		lang, err := validateLanguage(in.Language)
		if err != nil {
			return nil, err
		}
		snippet.Language = string(lang)
	}
	if err := validateCode(in.Code); err != nil {
		return nil, err
	}
	snippet.Code = in.Code
	snippet.Description = strings.TrimSpace(in.Description)

	if err := s.repo.Update(ctx, snippet); err != nil {
		s.logger.Error("failed to update snippet",
			slog.String("id", snippet.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating snippet: %w", err)
	}

	s.logger.Info("snippet updated", slog.String("id", snippet.ID))
	return snippet, nil
}

func (s *SnippetService) Delete(ctx context.Context, id, clientID string) error {
	snippet, err := s.owned(ctx, id, clientID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, snippet.ID); err != nil {
		return err
	}
	s.logger.Info("snippet deleted", slog.String("id", snippet.ID))
	return nil
}

// Run executes a stored snippet with the given input lines. Anyone who can
// read a snippet may run it. Failures of the submitted code come back inside
// the result; the error is reserved for lookup problems.
func (s *SnippetService) Run(ctx context.Context, id string, input []string) (*executor.ExecutionResult, error) {
	snippet, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	res, err := s.exec.Execute(ctx, executor.ExecutionRequest{
		Language: snippet.Language,
		Code:     snippet.Code,
		Input:    input,
	})
	if err != nil {
		// Stored languages are validated on write, so this only happens
		// after a language is dropped from the server.
		if errors.Is(err, executor.ErrUnsupportedLanguage) {
			return nil, apperror.ValidationFailed("language", err.Error())
		}
		return nil, fmt.Errorf("running snippet %s: %w", snippet.ID, err)
	}

	s.logger.Info("snippet run",
		slog.String("id", snippet.ID),
		slog.String("kind", string(res.Kind)),
	)
	return res, nil
}

// owned loads a snippet and checks that clientID may modify it. Snippets
// saved without an owner are editable by anyone.
func (s *SnippetService) owned(ctx context.Context, id, clientID string) (*model.Snippet, error) {
	snippet, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if snippet.ClientID != "" && snippet.ClientID != clientID {
		return nil, apperror.Forbidden("snippet belongs to another client")
	}
	return snippet, nil
}

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperror.ValidationFailed("name", "snippet name is required")
	}
	if len(name) > MaxSnippetNameLength {
		return "", apperror.ValidationFailed("name",
			fmt.Sprintf("snippet name must be %d characters or less", MaxSnippetNameLength))
	}
	return name, nil
}

func validateLanguage(language string) (executor.Language, error) {
	lang, err := executor.ParseLanguage(language)
	if err != nil {
		return "", apperror.ValidationFailed("language", err.Error())
	}
	return lang, nil
}

func validateCode(code string) error {
	if len(code) > MaxCodeLength {
		return apperror.ValidationFailed("code",
			fmt.Sprintf("code must be %d characters or less", MaxCodeLength))
	}
	return nil
}
