package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/toriiauth/torii/adapters/sqlite"
	"github.com/toriiauth/torii/adapters/storagetest"
	"github.com/toriiauth/torii/core"
)

func TestConformance(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) core.Storage {
		adapter, err := sqlite.New(context.Background(), filepath.Join(t.TempDir(), "torii.db"))
		require.NoError(t, err)
		t.Cleanup(func() { adapter.Close() })
		return adapter
	})
}

// A foreign key failure is a backend integrity error, not a uniqueness
// conflict; it must not be dressed up as one.
func TestForeignKeyViolationIsNotConflict(t *testing.T) {
	adapter, err := sqlite.New(context.Background(), filepath.Join(t.TempDir(), "torii.db"))
	require.NoError(t, err)
	defer adapter.Close()

	session := &core.Session{
		ID:        "s-orphan",
		UserID:    "no-such-user",
		TokenHash: "hash-orphan",
		ExpiresAt: time.Now().UTC().Add(time.Hour),
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	err = adapter.CreateSession(context.Background(), session)
	require.Error(t, err)
	require.False(t, errors.Is(err, core.ErrConflict), "foreign key failure reported as conflict")
}

func TestInMemory(t *testing.T) {
	adapter, err := sqlite.New(context.Background(), ":memory:")
	require.NoError(t, err)
	defer adapter.Close()

	user := &core.User{ID: "u1", Name: "In Memory"}
	require.NoError(t, adapter.CreateUser(context.Background(), user))

	got, err := adapter.GetUserByID(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, "In Memory", got.Name)
}
