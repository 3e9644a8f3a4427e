package pgx_test

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	pgxadapter "github.com/toriiauth/torii/adapters/pgx"
	"github.com/toriiauth/torii/adapters/storagetest"
	"github.com/toriiauth/torii/core"
)

// TestConformance needs a real Postgres instance; point TORII_TEST_DATABASE_URL
// at one to run it.
func TestConformance(t *testing.T) {
	dsn := os.Getenv("TORII_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TORII_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	require.NoError(t, pgxadapter.Migrate(ctx, dsn))

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	storagetest.Run(t, func(t *testing.T) core.Storage {
		// Each subtest starts from empty tables.
		_, err := pool.Exec(ctx, `TRUNCATE users, accounts, sessions, verification_tokens CASCADE`)
		require.NoError(t, err)
		return pgxadapter.New(pool)
	})
}
