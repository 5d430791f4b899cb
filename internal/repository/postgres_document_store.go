package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresDocumentStore keeps the document as one row of ticket_documents.
// The table is created by migrations/001_ticket_documents.sql.
type PostgresDocumentStore struct {
	pool *pgxpool.Pool
	name string
}

// NewPostgresDocumentStore returns a store for the row identified by name.
func NewPostgresDocumentStore(pool *pgxpool.Pool, name string) *PostgresDocumentStore {
	return &PostgresDocumentStore{pool: pool, name: name}
}

func (s *PostgresDocumentStore) Init(ctx context.Context) error {
	const query = `
        INSERT INTO ticket_documents (name, body)
        VALUES ($1, $2)
        ON CONFLICT (name) DO NOTHING`
	if _, err := s.pool.Exec(ctx, query, s.name, string(emptyDocument)); err != nil {
		return fmt.Errorf("init postgres document %s: %w", s.name, err)
	}
	return nil
}

func (s *PostgresDocumentStore) Read(ctx context.Context) ([]byte, error) {
	const query = `SELECT body FROM ticket_documents WHERE name=$1`
	var body string
	err := s.pool.QueryRow(ctx, query, s.name).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read postgres document %s: %w", s.name, err)
	}
	return []byte(body), nil
}

func (s *PostgresDocumentStore) Write(ctx context.Context, data []byte) error {
	const query = `
        INSERT INTO ticket_documents (name, body, updated_at)
        VALUES ($1, $2, NOW())
        ON CONFLICT (name) DO UPDATE SET body=EXCLUDED.body, updated_at=NOW()`
	if _, err := s.pool.Exec(ctx, query, s.name, string(data)); err != nil {
		return fmt.Errorf("write postgres document %s: %w", s.name, err)
	}
	return nil
}
