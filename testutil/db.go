// Package testutil provides shared helpers for integration tests. Every
// helper skips the calling test when its backing service is not configured,
// so `go test ./...` passes on a machine without Postgres or Redis.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pressly/goose/v3"

	"github.com/pkordes/formflow/migrations"
)

// DatabaseEnv names the variable holding the Postgres DSN used by tests.
const DatabaseEnv = "TEST_DATABASE_URL"

// NewPool returns a pgx pool on the test database, closed at cleanup.
func NewPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	pool, err := pgxpool.New(context.Background(), dsn(t))
	if err != nil {
		t.Fatalf("testutil.NewPool: %v", err)
	}
	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		t.Fatalf("testutil.NewPool: ping: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

// NewTx begins a transaction that is rolled back when the test finishes.
// Repositories built on it see their own writes and leave nothing behind.
func NewTx(t *testing.T) pgx.Tx {
	t.Helper()

	tx, err := NewPool(t).Begin(context.Background())
	if err != nil {
		t.Fatalf("testutil.NewTx: %v", err)
	}
	t.Cleanup(func() { _ = tx.Rollback(context.Background()) })
	return tx
}

// NewMigrator returns a goose provider and its database/sql handle for
// tests that drive migrations directly.
func NewMigrator(t *testing.T) (*goose.Provider, *sql.DB) {
	t.Helper()

	p, db, err := migrations.Open(context.Background(), dsn(t))
	if err != nil {
		t.Fatalf("testutil.NewMigrator: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return p, db
}

// Migrate applies pending migrations when DatabaseEnv is set and does
// nothing otherwise. Meant for TestMain, where no *testing.T exists.
func Migrate(ctx context.Context) error {
	url := os.Getenv(DatabaseEnv)
	if url == "" {
		return nil
	}
	p, db, err := migrations.Open(ctx, url)
	if err != nil {
		return fmt.Errorf("testutil.Migrate: %w", err)
	}
	defer db.Close()

	if _, err := p.Up(ctx); err != nil {
		return fmt.Errorf("testutil.Migrate: %w", err)
	}
	return nil
}

func dsn(t *testing.T) string {
	t.Helper()
	v := os.Getenv(DatabaseEnv)
	if v == "" {
		t.Skip(DatabaseEnv + " not set; skipping integration test")
	}
	return v
}
