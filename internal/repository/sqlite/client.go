package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/code-compiler/internal/apperror"
	"github.com/sakif/code-compiler/internal/model"
	"github.com/sakif/code-compiler/internal/repository"
)

var _ repository.ClientRepository = (*ClientDB)(nil)

// ClientDB is the clients table view of DB. It shares the connection pool.
type ClientDB struct {
	conn *sql.DB
}

func (db *DB) Clients() *ClientDB {
	return &ClientDB{conn: db.conn}
}

// Create inserts a new client. A duplicate ID is reported as a conflict.
func (c *ClientDB) Create(ctx context.Context, client *model.Client) error {
	if client.ID == "" {
		client.ID = xid.New().String()
	}
	now := time.Now().UTC()
	client.CreatedAt = now
	client.UpdatedAt = now

	_, err := c.conn.ExecContext(ctx,
		`INSERT INTO clients (id, name, secret_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		client.ID,
		client.Name,
		client.SecretHash,
		client.CreatedAt,
		client.UpdatedAt,
	)
	if err != nil {
		// modernc reports constraint violations as plain errors; matching the
		// message keeps us off the driver's internal error codes.
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return apperror.Conflict("client", client.ID)
		}
		return fmt.Errorf("sqlite: creating client %s: %w", client.ID, err)
	}
	return nil
}

// Upsert inserts client or, when the ID exists, refreshes its name and
// secret hash. CreatedAt keeps the original value.
func (c *ClientDB) Upsert(ctx context.Context, client *model.Client) error {
	if client.ID == "" {
		return fmt.Errorf("sqlite: upserting client: empty id")
	}
	now := time.Now().UTC()
	client.UpdatedAt = now

	_, err := c.conn.ExecContext(ctx,
		`INSERT INTO clients (id, name, secret_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			secret_hash = excluded.secret_hash,
			updated_at = excluded.updated_at`,
		client.ID,
		client.Name,
		client.SecretHash,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("sqlite: upserting client %s: %w", client.ID, err)
	}

	err = c.conn.QueryRowContext(ctx,
		`SELECT created_at FROM clients WHERE id = ?`, client.ID,
	).Scan(&client.CreatedAt)
	if err != nil {
		return fmt.Errorf("sqlite: reading back client %s: %w", client.ID, err)
	}
	return nil
}

func (c *ClientDB) GetByID(ctx context.Context, id string) (*model.Client, error) {
	var client model.Client
	err := c.conn.QueryRowContext(ctx,
		`SELECT id, name, secret_hash, created_at, updated_at FROM clients WHERE id = ?`,
		id,
	).Scan(
		&client.ID,
		&client.Name,
		&client.SecretHash,
		&client.CreatedAt,
		&client.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("client", id)
		}
		return nil, fmt.Errorf("sqlite: getting client %s: %w", id, err)
	}
	return &client, nil
}
