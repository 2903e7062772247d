package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const createDocumentsTable = `
CREATE TABLE IF NOT EXISTS documents (
	key  TEXT PRIMARY KEY,
	doc  JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresKV persists documents in a single key/document table. Every Save is
// a full-document upsert, keeping the same contract as the other backends.
type PostgresKV struct {
	Pool *pgxpool.Pool
}

// NewPostgresKV ensures the documents table exists before use.
func NewPostgresKV(ctx context.Context, pool *pgxpool.Pool) (*PostgresKV, error) {
	if pool == nil {
		return nil, errors.New("store: pgx pool is required")
	}
	if _, err := pool.Exec(ctx, createDocumentsTable); err != nil {
		return nil, fmt.Errorf("store: ensure documents table: %w", err)
	}
	return &PostgresKV{Pool: pool}, nil
}

// Load reads the full document for key.
func (s *PostgresKV) Load(ctx context.Context, key string) ([]byte, error) {
	var doc []byte
	err := s.Pool.QueryRow(ctx, `SELECT doc FROM documents WHERE key = $1`, key).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("store: pg select %s: %w", key, err)
	}
	return doc, nil
}

// Save overwrites the document for key.
func (s *PostgresKV) Save(ctx context.Context, key string, doc []byte) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO documents (key, doc, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()`,
		key, doc)
	if err != nil {
		return fmt.Errorf("store: pg upsert %s: %w", key, err)
	}
	return nil
}

// Ping probes the database connection.
func (s *PostgresKV) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}
