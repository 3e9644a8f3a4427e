package core

import (
	"errors"
	"fmt"
)

// Absence errors. Callers of the storage contract treat these as a normal
// control-flow outcome, not as failures; the services layer translates them
// into nil results.
var (
	ErrNotFound = errors.New("record not found")

	ErrUserNotFound              = fmt.Errorf("user: %w", ErrNotFound)
	ErrAccountNotFound           = fmt.Errorf("account: %w", ErrNotFound)
	ErrSessionNotFound           = fmt.Errorf("session: %w", ErrNotFound)
	ErrVerificationTokenNotFound = fmt.Errorf("verification token: %w", ErrNotFound)
)

// Conflict errors - a uniqueness constraint was violated.
var (
	ErrConflict = errors.New("uniqueness conflict")

	ErrUserExists    = fmt.Errorf("user with email already exists: %w", ErrConflict)
	ErrAccountExists = fmt.Errorf("provider account already linked: %w", ErrConflict)
	ErrSessionExists = fmt.Errorf("session token already exists: %w", ErrConflict)
)

// Cache errors
var (
	ErrCacheNotFound = errors.New("session not found in cache")
)

// Config errors (server-side configuration)
var (
	ErrStorageRequired = errors.New("storage adapter is required") // 500
	ErrSecretRequired  = errors.New("secret is required")          // 500
	ErrSecretTooShort  = errors.New("secret too short")            // 500
)
