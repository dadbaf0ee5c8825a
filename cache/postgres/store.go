// Package postgres implements cache.Store on a single PostgreSQL table.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/MrEthical07/recipeauth/cache"
	"github.com/MrEthical07/recipeauth/cache/postgres/migrations"
)

type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store keeps cache values in the kv_cache table.
type Store struct {
	q pgxQuerier
}

var _ cache.Store = (*Store)(nil)

// New wraps a pgx pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{q: pool}
}

// NewWithQuerier wraps any pgx-compatible querier (pool, conn, tx or mock).
func NewWithQuerier(q pgxQuerier) *Store {
	return &Store{q: q}
}

// Migrate applies the embedded schema migrations to the database at dsn.
func Migrate(ctx context.Context, dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

// Get reads the value for key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	const q = `SELECT value FROM kv_cache WHERE key=$1`
	var v []byte
	err := s.q.QueryRow(ctx, q, key).Scan(&v)
	switch {
	case err == nil:
		return v, nil
	case errors.Is(err, pgx.ErrNoRows):
		return nil, cache.ErrNotFound
	default:
		return nil, fmt.Errorf("%w: %v", cache.ErrUnavailable, err)
	}
}

// Set upserts key.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	const q = `
INSERT INTO kv_cache (key, value, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (key)
DO UPDATE SET value=EXCLUDED.value, updated_at=now()`
	if _, err := s.q.Exec(ctx, q, key, value); err != nil {
		return fmt.Errorf("%w: %v", cache.ErrUnavailable, err)
	}
	return nil
}

// Delete removes key.
func (s *Store) Delete(ctx context.Context, key string) error {
	const q = `DELETE FROM kv_cache WHERE key=$1`
	if _, err := s.q.Exec(ctx, q, key); err != nil {
		return fmt.Errorf("%w: %v", cache.ErrUnavailable, err)
	}
	return nil
}
