// Package postgres implements store.Store on a PostgreSQL items table.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/open-kbs/ai-invoice/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS items (
    seq        BIGSERIAL,
    item_type  TEXT        NOT NULL,
    id         TEXT        NOT NULL,
    body       TEXT        NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (item_type, id)
)`

const uniqueViolation = "23505"

// Store keeps items in Postgres. Storage order is insertion order (seq).
type Store struct {
	pool *pgxpool.Pool
}

// NewPool connects to dsn and pings the server.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn not set")
	}

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to parse dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return pool, nil
}

// New returns a Store on pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Migrate creates the items table if needed.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("creating items table: %w", err)
	}
	return nil
}

// FetchItems returns up to limit items of itemType. A limit <= 0 means no limit.
func (s *Store) FetchItems(ctx context.Context, itemType string, limit int) ([]store.Item, error) {
	q := `SELECT id, body, created_at, updated_at FROM items WHERE item_type = $1 ORDER BY seq ASC`
	args := []any{itemType}
	if limit > 0 {
		q += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	var items []store.Item
	for rows.Next() {
		var it store.Item
		if err := rows.Scan(&it.ID, &it.Body, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("item row iteration error: %w", err)
	}
	return items, nil
}

// CreateItem inserts a new item.
func (s *Store) CreateItem(ctx context.Context, itemType, id, body string) (store.Item, error) {
	it := store.Item{ID: id, Body: body}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO items (item_type, id, body)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at
	`, itemType, id, body).Scan(&it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return store.Item{}, fmt.Errorf("%s %q: %w", itemType, id, store.ErrDuplicateID)
		}
		return store.Item{}, fmt.Errorf("failed to insert item: %w", err)
	}
	return it, nil
}

// DeleteItem removes an item.
func (s *Store) DeleteItem(ctx context.Context, itemType, id string) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM items WHERE item_type = $1 AND id = $2", itemType, id)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s %q: %w", itemType, id, store.ErrNotFound)
	}
	return nil
}
