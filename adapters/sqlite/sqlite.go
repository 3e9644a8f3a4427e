// Package sqlite is the SQLite storage adapter, built on database/sql with
// the modernc.org/sqlite driver. Use ":memory:" as the path for an
// in-memory store (useful for testing).
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/toriiauth/torii/core"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

type Adapter struct {
	db *sql.DB
}

var _ core.Storage = (*Adapter)(nil)

func New(ctx context.Context, dbPath string) (*Adapter, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// SQLite in WAL mode supports many readers but only one writer; a
	// single connection also keeps ":memory:" databases coherent.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
		"PRAGMA foreign_keys = ON;",
		"PRAGMA busy_timeout = 5000;",
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	adapter := &Adapter{db: db}

	if err := adapter.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return adapter, nil
}

func (a *Adapter) Close() error {
	return a.db.Close()
}

func (a *Adapter) runMigrations() error {
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}

	goose.SetBaseFS(embedMigrations)

	if err := goose.Up(a.db, "migrations"); err != nil {
		return fmt.Errorf("goose up failed: %w", err)
	}

	return nil
}

// uniqueViolation maps the driver's unique-constraint message onto the
// conflict sentinels. The modernc driver exposes no typed error for this.
// Other constraint failures (foreign keys, checks) are not conflicts and
// must surface as-is.
func uniqueViolation(err error) error {
	msg := err.Error()
	if !strings.Contains(msg, "UNIQUE constraint failed") {
		return nil
	}
	switch {
	case strings.Contains(msg, "users.email"):
		return core.ErrUserExists
	case strings.Contains(msg, "accounts.provider"):
		return core.ErrAccountExists
	case strings.Contains(msg, "sessions.token_hash"):
		return core.ErrSessionExists
	default:
		return core.ErrConflict
	}
}
