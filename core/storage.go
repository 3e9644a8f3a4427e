package core

import (
	"context"
	"time"
)

// Storage is the contract every backend adapter implements. Adapters are a
// mechanical mapping between these operations and one vendor's query syntax;
// all protocol logic (expiry, renewal throttling, token hashing) lives above
// this seam.
//
// Absence is reported with the ErrNotFound sentinel family, never invented
// defaults. Failures must surface to the caller; adapters never retry
// silently.

// UserStorage defines user-related database operations
type UserStorage interface {
	CreateUser(ctx context.Context, user *User) error

	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	// GetUserByAccount resolves a user through the account linkage.
	GetUserByAccount(ctx context.Context, provider, providerAccountID string) (*User, error)

	// UpdateUser applies a partial update; nil patch fields are left
	// unchanged. Returns the stored user after the update.
	UpdateUser(ctx context.Context, id string, patch UserPatch) (*User, error)

	// DeleteUser removes the user and cascades to their accounts and
	// sessions, atomically.
	DeleteUser(ctx context.Context, id string) error
}

// AccountStorage defines provider-linkage database operations
type AccountStorage interface {
	CreateAccount(ctx context.Context, account *Account) error

	GetAccountByProvider(ctx context.Context, provider, providerAccountID string) (*Account, error)

	// DeleteAccount is a no-op when the pair does not exist.
	DeleteAccount(ctx context.Context, provider, providerAccountID string) error
}

// SessionStorage defines session-related database operations. Sessions are
// keyed by the hash of their token; raw tokens never reach an adapter.
type SessionStorage interface {
	CreateSession(ctx context.Context, session *Session) error

	GetSessionByHash(ctx context.Context, tokenHash string) (*Session, error)

	UpdateSession(ctx context.Context, session *Session) error

	// DeleteSessionByHash is idempotent: deleting an absent session is nil.
	DeleteSessionByHash(ctx context.Context, tokenHash string) error
	DeleteUserSessions(ctx context.Context, userID string) error

	// DeleteExpiredSessions sweeps sessions expired at now and reports how
	// many were removed. Backends that expire records server-side may
	// report 0.
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error)
}

// VerificationTokenStorage defines single-use token operations.
type VerificationTokenStorage interface {
	CreateVerificationToken(ctx context.Context, token *VerificationToken) error

	// ConsumeVerificationToken atomically finds and deletes the token.
	// Two concurrent consumers of the same (identifier, tokenHash) pair
	// must observe exactly one success; the loser gets ErrNotFound.
	ConsumeVerificationToken(ctx context.Context, identifier, tokenHash string) (*VerificationToken, error)
}

type Storage interface {
	UserStorage
	AccountStorage
	SessionStorage
	VerificationTokenStorage
}
