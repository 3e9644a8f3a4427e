// Package services implements the storage contract consumed by an
// authentication core: user, account, session and verification-token
// lifecycle over any core.Storage backend.
//
// Absence is a normal outcome here. Lookup operations return (nil, nil) when
// the record does not exist, is expired, or was already consumed - these
// cases are deliberately indistinguishable to the caller.
package services

import (
	"errors"

	"github.com/toriiauth/torii/core"
	"github.com/toriiauth/torii/pkg/crypto"
)

// Store layers the session expiry policy and the verification token protocol
// on top of whatever core.Storage returns, independent of which physical
// database is behind it.
type Store struct {
	session   core.SessionConfig
	storage   core.Storage
	cache     core.Cache // optional, can be nil if caching is disabled
	secret    string
	passwords crypto.PasswordHandler // optional, can be nil
	nanoid    *crypto.NanoIDGenerator
}

func NewStore(secret string, session core.SessionConfig, storage core.Storage, cache core.Cache, passwords crypto.PasswordHandler) *Store {
	return &Store{
		session:   session,
		storage:   storage,
		cache:     cache,
		secret:    secret,
		passwords: passwords,
		nanoid:    crypto.NewNanoID(),
	}
}

// absent reports whether a storage error is one of the not-found sentinels.
func absent(err error) bool {
	return errors.Is(err, core.ErrNotFound)
}
