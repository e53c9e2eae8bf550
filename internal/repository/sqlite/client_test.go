package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/code-compiler/internal/apperror"
	"github.com/sakif/code-compiler/internal/model"
)

func TestClientCreate_GeneratesID(t *testing.T) {
	clients := newTestDB(t).Clients()

	client := &model.Client{Name: "grader", SecretHash: "hash"}
	if err := clients.Create(context.Background(), client); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if client.ID == "" {
		t.Error("Create() did not set client.ID")
	}
	if client.CreatedAt.IsZero() {
		t.Error("Create() did not set client.CreatedAt")
	}
}

func TestClientCreate_Duplicate(t *testing.T) {
	clients := newTestDB(t).Clients()
	ctx := context.Background()

	if err := clients.Create(ctx, &model.Client{ID: "dup", SecretHash: "a"}); err != nil {
		t.Fatalf("first Create() error = %v", err)
	}
	err := clients.Create(ctx, &model.Client{ID: "dup", SecretHash: "b"})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("second Create() error = %v, want ErrConflict", err)
	}
}

func TestClientGetByID(t *testing.T) {
	clients := newTestDB(t).Clients()
	ctx := context.Background()

	if err := clients.Create(ctx, &model.Client{ID: "grader", Name: "Grader", SecretHash: "hash"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	found, err := clients.GetByID(ctx, "grader")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if found.Name != "Grader" || found.SecretHash != "hash" {
		t.Errorf("GetByID() = %+v", found)
	}
}

func TestClientGetByID_NotFound(t *testing.T) {
	clients := newTestDB(t).Clients()

	_, err := clients.GetByID(context.Background(), "nobody")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestClientUpsert(t *testing.T) {
	clients := newTestDB(t).Clients()
	ctx := context.Background()

	first := &model.Client{ID: "bootstrap", Name: "v1", SecretHash: "old"}
	if err := clients.Upsert(ctx, first); err != nil {
		t.Fatalf("Upsert() insert error = %v", err)
	}

	second := &model.Client{ID: "bootstrap", Name: "v2", SecretHash: "new"}
	if err := clients.Upsert(ctx, second); err != nil {
		t.Fatalf("Upsert() update error = %v", err)
	}

	found, err := clients.GetByID(ctx, "bootstrap")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if found.SecretHash != "new" || found.Name != "v2" {
		t.Errorf("after upsert got %+v, want name v2 and the new hash", found)
	}
	if !second.CreatedAt.Equal(found.CreatedAt) {
		t.Errorf("CreatedAt = %v, want original %v", second.CreatedAt, found.CreatedAt)
	}
}

func TestClientUpsert_RequiresID(t *testing.T) {
	clients := newTestDB(t).Clients()

	if err := clients.Upsert(context.Background(), &model.Client{SecretHash: "x"}); err == nil {
		t.Fatal("Upsert() without an ID should fail")
	}
}
