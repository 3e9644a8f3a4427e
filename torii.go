// Package torii is an authentication persistence core: one storage contract,
// many backends. It implements the session lifecycle (lazy expiry, throttled
// renewal) and the single-use verification token protocol on top of any
// adapter under adapters/.
package torii

import (
	"fmt"
	"time"

	"github.com/toriiauth/torii/core"
	"github.com/toriiauth/torii/pkg/crypto"
	"github.com/toriiauth/torii/services"
)

// interfaces
type (
	Storage = core.Storage
	Cache   = core.Cache

	PasswordHandler = crypto.PasswordHandler
)

// structs
type (
	Store         = services.Store
	Config        = core.Config
	SessionConfig = core.SessionConfig
	CacheConfig   = core.CacheConfig
)

type (
	User               = core.User
	UserPatch          = core.UserPatch
	Account            = core.Account
	Session            = core.Session
	SessionData        = core.SessionData
	VerificationToken  = core.VerificationToken
	CacheStats         = core.CacheStats
	StartSessionResult = services.StartSessionResult
)

const (
	defaultSecretLen = 32
)

// Constructors & helpers (convenience re-exports)
var (
	NewInMemoryCache     = core.NewInMemoryCache
	NewArgon2            = crypto.NewArgon2
	DefaultSessionConfig = core.DefaultSessionConfig
	GenerateToken        = crypto.GenerateToken
)

var (
	ErrNotFound                  = core.ErrNotFound
	ErrUserNotFound              = core.ErrUserNotFound
	ErrAccountNotFound           = core.ErrAccountNotFound
	ErrSessionNotFound           = core.ErrSessionNotFound
	ErrVerificationTokenNotFound = core.ErrVerificationTokenNotFound
)

var (
	ErrConflict      = core.ErrConflict
	ErrUserExists    = core.ErrUserExists
	ErrAccountExists = core.ErrAccountExists
	ErrSessionExists = core.ErrSessionExists
	ErrCacheNotFound = core.ErrCacheNotFound
)

var (
	ErrStorageRequired = core.ErrStorageRequired
	ErrSecretRequired  = core.ErrSecretRequired
	ErrSecretTooShort  = core.ErrSecretTooShort
)

// New validates the configuration and builds a Store. Multiple stores with
// different secrets and session settings can coexist; nothing here is
// global.
func New(config Config) (*Store, error) {
	if config.Secret == "" {
		return nil, ErrSecretRequired
	}
	if len(config.Secret) < defaultSecretLen {
		return nil, fmt.Errorf("%w - minimum of %d characters", ErrSecretTooShort, defaultSecretLen)
	}
	if config.Storage == nil {
		return nil, ErrStorageRequired
	}

	// Set Defaults

	cache := config.Cache
	if cache == nil && !config.DisableCache {
		cache = NewInMemoryCache(CacheConfig{
			TTL:     5 * time.Minute,
			MaxSize: 500,
		})
	}

	// Explicit presence check: a supplied config with zero durations is
	// honored ("always renew"), only a missing config selects defaults.
	session := DefaultSessionConfig()
	if config.Session != nil {
		session = *config.Session
	}

	passwords := config.PasswordHasher
	if passwords == nil {
		passwords = crypto.NewArgon2()
	}

	return services.NewStore(config.Secret, session, config.Storage, cache, passwords), nil
}
