package services

import (
	"context"
	"fmt"
	"time"

	"github.com/toriiauth/torii/core"
	"github.com/toriiauth/torii/pkg/crypto"
)

// CreateVerificationToken persists a single-use token for the identifier.
// The caller supplies the random raw token it is about to send out of band;
// only the keyed hash reaches storage.
func (s *Store) CreateVerificationToken(ctx context.Context, identifier, rawToken string, expires time.Time) (*core.VerificationToken, error) {
	token := &core.VerificationToken{
		Identifier: identifier,
		TokenHash:  crypto.HashTokenWithSecret(rawToken, s.secret),
		ExpiresAt:  expires,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.storage.CreateVerificationToken(ctx, token); err != nil {
		return nil, fmt.Errorf("failed to create verification token: %w", err)
	}

	return token, nil
}

// UseVerificationToken consumes a token, enforcing single use. The result is
// nil when the token is absent, already consumed, expired, or hashed under a
// different secret - the caller cannot tell which, on purpose.
func (s *Store) UseVerificationToken(ctx context.Context, identifier, rawToken string) (*core.VerificationToken, error) {
	tokenHash := crypto.HashTokenWithSecret(rawToken, s.secret)

	token, err := s.storage.ConsumeVerificationToken(ctx, identifier, tokenHash)
	if err != nil {
		if absent(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to consume verification token: %w", err)
	}

	// Lazy expiry: the consume already removed the row, so an expired token
	// simply reports as absent.
	if core.Expired(token.ExpiresAt, time.Now()) {
		return nil, nil
	}

	return token, nil
}
