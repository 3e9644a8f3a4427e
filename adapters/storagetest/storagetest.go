// Package storagetest is a conformance suite run against every storage
// adapter. A new backend passes Run or it is not an adapter.
package storagetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toriiauth/torii/core"
	"github.com/toriiauth/torii/pkg/crypto"
)

// Factory returns a fresh, empty storage for each subtest. Cleanup goes
// through t.Cleanup inside the factory.
type Factory func(t *testing.T) core.Storage

// Run exercises the full storage contract against the adapter under test.
func Run(t *testing.T, factory Factory) {
	t.Run("Users", func(t *testing.T) { testUsers(t, factory) })
	t.Run("UserUpdate", func(t *testing.T) { testUserUpdate(t, factory) })
	t.Run("UserEmailClear", func(t *testing.T) { testUserEmailClear(t, factory) })
	t.Run("Accounts", func(t *testing.T) { testAccounts(t, factory) })
	t.Run("DeleteUserCascades", func(t *testing.T) { testDeleteUserCascades(t, factory) })
	t.Run("Sessions", func(t *testing.T) { testSessions(t, factory) })
	t.Run("ExpiredSessionSweep", func(t *testing.T) { testExpiredSessionSweep(t, factory) })
	t.Run("VerificationTokens", func(t *testing.T) { testVerificationTokens(t, factory) })
	t.Run("ConcurrentConsume", func(t *testing.T) { testConcurrentConsume(t, factory) })
	t.Run("TimestampRoundTrip", func(t *testing.T) { testTimestampRoundTrip(t, factory) })
}

func newUser(email string) *core.User {
	now := time.Now().UTC()
	return &core.User{
		ID:        uuid.NewString(),
		Name:      "Test User",
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func newAccount(userID, provider, providerAccountID string) *core.Account {
	now := time.Now().UTC()
	return &core.Account{
		ID:                uuid.NewString(),
		UserID:            userID,
		Type:              "oauth",
		Provider:          provider,
		ProviderAccountID: providerAccountID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func newSession(userID string, expires time.Time) *core.Session {
	now := time.Now().UTC()
	return &core.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		TokenHash: crypto.HashToken(uuid.NewString()),
		ExpiresAt: expires,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func testUsers(t *testing.T, factory Factory) {
	storage := factory(t)
	ctx := context.Background()

	user := newUser("alice@example.com")
	require.NoError(t, storage.CreateUser(ctx, user))

	got, err := storage.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, user.Email, got.Email)
	assert.Equal(t, user.Name, got.Name)

	got, err = storage.GetUserByEmail(ctx, user.Email)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = storage.GetUserByID(ctx, "no-such-user")
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = storage.GetUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, core.ErrNotFound)

	dup := newUser("alice@example.com")
	err = storage.CreateUser(ctx, dup)
	assert.ErrorIs(t, err, core.ErrConflict)

	require.NoError(t, storage.DeleteUser(ctx, user.ID))
	_, err = storage.GetUserByID(ctx, user.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	// Deleting an absent user is a no-op.
	assert.NoError(t, storage.DeleteUser(ctx, user.ID))
}

func testUserUpdate(t *testing.T, factory Factory) {
	storage := factory(t)
	ctx := context.Background()

	user := newUser("bob@example.com")
	require.NoError(t, storage.CreateUser(ctx, user))

	name := "Bob Renamed"
	verified := time.Now().UTC().Truncate(time.Millisecond)
	got, err := storage.UpdateUser(ctx, user.ID, core.UserPatch{
		Name:          &name,
		EmailVerified: &verified,
	})
	require.NoError(t, err)
	assert.Equal(t, name, got.Name)
	require.NotNil(t, got.EmailVerified)
	assert.WithinDuration(t, verified, *got.EmailVerified, time.Millisecond)
	// Untouched fields survive a partial patch.
	assert.Equal(t, "bob@example.com", got.Email)

	email := "bob-new@example.com"
	got, err = storage.UpdateUser(ctx, user.ID, core.UserPatch{Email: &email})
	require.NoError(t, err)
	assert.Equal(t, email, got.Email)

	// The old email is released, the new one resolves.
	_, err = storage.GetUserByEmail(ctx, "bob@example.com")
	assert.ErrorIs(t, err, core.ErrNotFound)
	found, err := storage.GetUserByEmail(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	// Moving onto a taken email is a conflict.
	other := newUser("carol@example.com")
	require.NoError(t, storage.CreateUser(ctx, other))
	taken := "carol@example.com"
	_, err = storage.UpdateUser(ctx, user.ID, core.UserPatch{Email: &taken})
	assert.ErrorIs(t, err, core.ErrConflict)

	_, err = storage.UpdateUser(ctx, "no-such-user", core.UserPatch{Name: &name})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func testUserEmailClear(t *testing.T, factory Factory) {
	storage := factory(t)
	ctx := context.Background()

	first := newUser("leaving@example.com")
	require.NoError(t, storage.CreateUser(ctx, first))
	second := newUser("staying@example.com")
	require.NoError(t, storage.CreateUser(ctx, second))

	empty := ""
	got, err := storage.UpdateUser(ctx, first.ID, core.UserPatch{Email: &empty})
	require.NoError(t, err)
	assert.Equal(t, "", got.Email)

	// The cleared address is released.
	_, err = storage.GetUserByEmail(ctx, "leaving@example.com")
	assert.ErrorIs(t, err, core.ErrNotFound)

	// Users without an email never conflict with each other.
	_, err = storage.UpdateUser(ctx, second.ID, core.UserPatch{Email: &empty})
	require.NoError(t, err)

	// A released address can be claimed again.
	reclaimed := "leaving@example.com"
	_, err = storage.UpdateUser(ctx, second.ID, core.UserPatch{Email: &reclaimed})
	require.NoError(t, err)
	found, err := storage.GetUserByEmail(ctx, "leaving@example.com")
	require.NoError(t, err)
	assert.Equal(t, second.ID, found.ID)
}

func testAccounts(t *testing.T, factory Factory) {
	storage := factory(t)
	ctx := context.Background()

	user := newUser("dave@example.com")
	require.NoError(t, storage.CreateUser(ctx, user))

	account := newAccount(user.ID, "github", "gh-1234")
	require.NoError(t, storage.CreateAccount(ctx, account))

	got, err := storage.GetAccountByProvider(ctx, "github", "gh-1234")
	require.NoError(t, err)
	assert.Equal(t, account.ID, got.ID)
	assert.Equal(t, user.ID, got.UserID)

	found, err := storage.GetUserByAccount(ctx, "github", "gh-1234")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	_, err = storage.GetUserByAccount(ctx, "github", "gh-other")
	assert.ErrorIs(t, err, core.ErrNotFound)

	// Same provider pair, even for another user, is a conflict.
	other := newUser("erin@example.com")
	require.NoError(t, storage.CreateUser(ctx, other))
	err = storage.CreateAccount(ctx, newAccount(other.ID, "github", "gh-1234"))
	assert.ErrorIs(t, err, core.ErrConflict)

	require.NoError(t, storage.DeleteAccount(ctx, "github", "gh-1234"))
	_, err = storage.GetAccountByProvider(ctx, "github", "gh-1234")
	assert.ErrorIs(t, err, core.ErrNotFound)

	// Unlinking an absent account is a no-op.
	assert.NoError(t, storage.DeleteAccount(ctx, "github", "gh-1234"))
}

func testDeleteUserCascades(t *testing.T, factory Factory) {
	storage := factory(t)
	ctx := context.Background()

	user := newUser("frank@example.com")
	require.NoError(t, storage.CreateUser(ctx, user))
	require.NoError(t, storage.CreateAccount(ctx, newAccount(user.ID, "google", "g-99")))
	session := newSession(user.ID, time.Now().UTC().Add(time.Hour))
	require.NoError(t, storage.CreateSession(ctx, session))

	// An unrelated user's rows must survive the cascade.
	bystander := newUser("grace@example.com")
	require.NoError(t, storage.CreateUser(ctx, bystander))
	bystanderSession := newSession(bystander.ID, time.Now().UTC().Add(time.Hour))
	require.NoError(t, storage.CreateSession(ctx, bystanderSession))

	require.NoError(t, storage.DeleteUser(ctx, user.ID))

	_, err := storage.GetUserByID(ctx, user.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = storage.GetAccountByProvider(ctx, "google", "g-99")
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = storage.GetSessionByHash(ctx, session.TokenHash)
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = storage.GetSessionByHash(ctx, bystanderSession.TokenHash)
	assert.NoError(t, err)
}

func testSessions(t *testing.T, factory Factory) {
	storage := factory(t)
	ctx := context.Background()

	user := newUser("heidi@example.com")
	require.NoError(t, storage.CreateUser(ctx, user))

	session := newSession(user.ID, time.Now().UTC().Add(time.Hour))
	require.NoError(t, storage.CreateSession(ctx, session))

	got, err := storage.GetSessionByHash(ctx, session.TokenHash)
	require.NoError(t, err)
	assert.Equal(t, session.ID, got.ID)
	assert.Equal(t, user.ID, got.UserID)

	err = storage.CreateSession(ctx, newSession(user.ID, time.Now().UTC().Add(time.Hour)))
	require.NoError(t, err)

	dup := newSession(user.ID, time.Now().UTC().Add(time.Hour))
	dup.TokenHash = session.TokenHash
	err = storage.CreateSession(ctx, dup)
	assert.ErrorIs(t, err, core.ErrConflict)

	renewed := *got
	renewed.ExpiresAt = time.Now().UTC().Add(2 * time.Hour)
	renewed.UpdatedAt = time.Now().UTC()
	require.NoError(t, storage.UpdateSession(ctx, &renewed))

	got, err = storage.GetSessionByHash(ctx, session.TokenHash)
	require.NoError(t, err)
	assert.WithinDuration(t, renewed.ExpiresAt, got.ExpiresAt, time.Millisecond)

	missing := newSession(user.ID, time.Now().UTC().Add(time.Hour))
	err = storage.UpdateSession(ctx, missing)
	assert.ErrorIs(t, err, core.ErrNotFound)

	require.NoError(t, storage.DeleteSessionByHash(ctx, session.TokenHash))
	_, err = storage.GetSessionByHash(ctx, session.TokenHash)
	assert.ErrorIs(t, err, core.ErrNotFound)

	// Idempotent delete.
	assert.NoError(t, storage.DeleteSessionByHash(ctx, session.TokenHash))

	second := newSession(user.ID, time.Now().UTC().Add(time.Hour))
	third := newSession(user.ID, time.Now().UTC().Add(time.Hour))
	require.NoError(t, storage.CreateSession(ctx, second))
	require.NoError(t, storage.CreateSession(ctx, third))
	require.NoError(t, storage.DeleteUserSessions(ctx, user.ID))
	_, err = storage.GetSessionByHash(ctx, second.TokenHash)
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = storage.GetSessionByHash(ctx, third.TokenHash)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func testExpiredSessionSweep(t *testing.T, factory Factory) {
	storage := factory(t)
	ctx := context.Background()

	user := newUser("ivan@example.com")
	require.NoError(t, storage.CreateUser(ctx, user))

	// Some backends expire records server-side and refuse to store an
	// already-dead session; either way the sweep post-condition is the same.
	expired := newSession(user.ID, time.Now().UTC().Add(-time.Hour))
	require.NoError(t, storage.CreateSession(ctx, expired))
	live := newSession(user.ID, time.Now().UTC().Add(time.Hour))
	require.NoError(t, storage.CreateSession(ctx, live))

	_, err := storage.DeleteExpiredSessions(ctx, time.Now().UTC())
	require.NoError(t, err)

	_, err = storage.GetSessionByHash(ctx, expired.TokenHash)
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = storage.GetSessionByHash(ctx, live.TokenHash)
	assert.NoError(t, err)
}

func testVerificationTokens(t *testing.T, factory Factory) {
	storage := factory(t)
	ctx := context.Background()

	now := time.Now().UTC()
	token := &core.VerificationToken{
		Identifier: "judy@example.com",
		TokenHash:  crypto.HashToken(uuid.NewString()),
		ExpiresAt:  now.Add(time.Hour),
		CreatedAt:  now,
	}
	require.NoError(t, storage.CreateVerificationToken(ctx, token))

	got, err := storage.ConsumeVerificationToken(ctx, token.Identifier, token.TokenHash)
	require.NoError(t, err)
	assert.Equal(t, token.Identifier, got.Identifier)
	assert.Equal(t, token.TokenHash, got.TokenHash)

	// Second consume of the same pair fails: single use.
	_, err = storage.ConsumeVerificationToken(ctx, token.Identifier, token.TokenHash)
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = storage.ConsumeVerificationToken(ctx, "nobody@example.com", token.TokenHash)
	assert.ErrorIs(t, err, core.ErrNotFound)

	// Same identifier may hold several outstanding tokens at once.
	first := &core.VerificationToken{
		Identifier: "multi@example.com",
		TokenHash:  crypto.HashToken(uuid.NewString()),
		ExpiresAt:  now.Add(time.Hour),
		CreatedAt:  now,
	}
	second := &core.VerificationToken{
		Identifier: "multi@example.com",
		TokenHash:  crypto.HashToken(uuid.NewString()),
		ExpiresAt:  now.Add(time.Hour),
		CreatedAt:  now,
	}
	require.NoError(t, storage.CreateVerificationToken(ctx, first))
	require.NoError(t, storage.CreateVerificationToken(ctx, second))

	_, err = storage.ConsumeVerificationToken(ctx, first.Identifier, first.TokenHash)
	require.NoError(t, err)
	_, err = storage.ConsumeVerificationToken(ctx, second.Identifier, second.TokenHash)
	require.NoError(t, err)
}

func testConcurrentConsume(t *testing.T, factory Factory) {
	storage := factory(t)
	ctx := context.Background()

	now := time.Now().UTC()
	token := &core.VerificationToken{
		Identifier: "race@example.com",
		TokenHash:  crypto.HashToken(uuid.NewString()),
		ExpiresAt:  now.Add(time.Hour),
		CreatedAt:  now,
	}
	require.NoError(t, storage.CreateVerificationToken(ctx, token))

	const consumers = 8
	var wg sync.WaitGroup
	results := make(chan error, consumers)
	for i := 0; i < consumers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := storage.ConsumeVerificationToken(ctx, token.Identifier, token.TokenHash)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	wins := 0
	for err := range results {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, core.ErrNotFound)
		}
	}
	assert.Equal(t, 1, wins, "exactly one consumer must win")
}

func testTimestampRoundTrip(t *testing.T, factory Factory) {
	storage := factory(t)
	ctx := context.Background()

	created := time.Now().UTC().Truncate(time.Millisecond)
	user := newUser(fmt.Sprintf("ts-%s@example.com", uuid.NewString()))
	user.CreatedAt = created
	user.UpdatedAt = created
	require.NoError(t, storage.CreateUser(ctx, user))

	got, err := storage.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.WithinDuration(t, created, got.CreatedAt, time.Millisecond)
	assert.WithinDuration(t, created, got.UpdatedAt, time.Millisecond)

	expires := time.Now().UTC().Add(time.Hour).Truncate(time.Millisecond)
	session := newSession(user.ID, expires)
	require.NoError(t, storage.CreateSession(ctx, session))

	gotSession, err := storage.GetSessionByHash(ctx, session.TokenHash)
	require.NoError(t, err)
	assert.WithinDuration(t, expires, gotSession.ExpiresAt, time.Millisecond)
}
