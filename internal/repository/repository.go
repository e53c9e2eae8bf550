// Package repository declares the storage interfaces the service layer
// depends on. Implementations live in subpackages (see repository/sqlite).
package repository

import (
	"context"

	"github.com/sakif/code-compiler/internal/model"
)

// ListOptions controls snippet listing. Zero values mean "no filter" and the
// default page size.
type ListOptions struct {
	Limit    int
	Offset   int
	Language string
	ClientID string
}

type SnippetRepository interface {
	Create(ctx context.Context, snippet *model.Snippet) error
	GetByID(ctx context.Context, id string) (*model.Snippet, error)
	List(ctx context.Context, opts ListOptions) ([]model.Snippet, error)
	Update(ctx context.Context, snippet *model.Snippet) error
	Delete(ctx context.Context, id string) error
}

type ClientRepository interface {
	// Create stores a new client under client.ID, generating one when empty.
	Create(ctx context.Context, client *model.Client) error
	// Upsert creates the client or replaces the name and secret hash of the
	// existing row with the same ID.
	Upsert(ctx context.Context, client *model.Client) error
	GetByID(ctx context.Context, id string) (*model.Client, error)
}
