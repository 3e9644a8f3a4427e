package services

import (
	"context"
	"fmt"
	"time"

	"github.com/toriiauth/torii/core"
	"github.com/toriiauth/torii/pkg/crypto"
)

type StartSessionResult struct {
	Session *core.Session `json:"session"`
	Token   string        `json:"token"` // The raw token (not the hash)
}

// StartSession generates a fresh session token for the user and persists the
// session. The raw token is returned exactly once and never stored.
func (s *Store) StartSession(ctx context.Context, userID string) (*StartSessionResult, error) {
	pair, err := crypto.GenerateHashedToken(crypto.DefaultTokenLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	session, err := s.createSession(ctx, pair.Hash, userID, s.session.Renewed(time.Now().UTC()))
	if err != nil {
		return nil, err
	}

	return &StartSessionResult{Session: session, Token: pair.Token}, nil
}

// CreateSession persists a session for a caller-supplied token, hashing the
// token on the way in.
func (s *Store) CreateSession(ctx context.Context, token, userID string, expires time.Time) (*core.Session, error) {
	return s.createSession(ctx, crypto.HashToken(token), userID, expires)
}

func (s *Store) createSession(ctx context.Context, tokenHash, userID string, expires time.Time) (*core.Session, error) {
	id, err := s.nanoid.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate ID: %w", err)
	}

	now := time.Now().UTC()
	session := &core.Session{
		ID:        id,
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: expires,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.storage.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return session, nil
}

// GetSessionAndUser looks up a session by its raw token and returns it with
// its user. An expired session is deleted on read and reported as nil,
// indistinguishable from one that never existed. A read never renews the
// expiry; renewal is explicit via UpdateSession.
func (s *Store) GetSessionAndUser(ctx context.Context, token string) (*core.SessionData, error) {
	if token == "" {
		return nil, nil
	}

	tokenHash := crypto.HashToken(token)
	now := time.Now()

	// Try cache first if caching is enabled. A cached session still honors
	// the expiry check.
	if s.cache != nil {
		if data, err := s.cache.Get(tokenHash); err == nil && data != nil {
			if core.Expired(data.Session.ExpiresAt, now) {
				_ = s.cache.Delete(tokenHash)
				if err := s.storage.DeleteSessionByHash(ctx, tokenHash); err != nil && !absent(err) {
					return nil, fmt.Errorf("failed to delete expired session: %w", err)
				}
				return nil, nil
			}
			return data, nil
		}
		// Cache miss - fall through to storage
	}

	session, err := s.storage.GetSessionByHash(ctx, tokenHash)
	if err != nil {
		if absent(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if core.Expired(session.ExpiresAt, now) {
		if err := s.storage.DeleteSessionByHash(ctx, tokenHash); err != nil && !absent(err) {
			return nil, fmt.Errorf("failed to delete expired session: %w", err)
		}
		return nil, nil
	}

	user, err := s.storage.GetUserByID(ctx, session.UserID)
	if err != nil {
		if absent(err) {
			// Orphaned session; its user is gone.
			_ = s.storage.DeleteSessionByHash(ctx, tokenHash)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session user: %w", err)
	}

	data := &core.SessionData{User: user, Session: session}

	if s.cache != nil {
		// We don't fail the request if caching fails
		_ = s.cache.Set(tokenHash, data)
	}

	return data, nil
}

// UpdateSession extends a session's expiry using the throttled-renewal
// policy. The write only happens once the session's age in the current
// MaxAge window exceeds UpdateAge, or when force is set; when the throttle
// declines, the result is (nil, nil) and the stored expiry is untouched.
// Expiries never move backward here.
func (s *Store) UpdateSession(ctx context.Context, token string, force bool) (*core.Session, error) {
	if token == "" {
		return nil, nil
	}

	tokenHash := crypto.HashToken(token)

	session, err := s.storage.GetSessionByHash(ctx, tokenHash)
	if err != nil {
		if absent(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	now := time.Now()

	// Expired is a terminal state; an expired session is removed, never
	// resurrected.
	if core.Expired(session.ExpiresAt, now) {
		if s.cache != nil {
			_ = s.cache.Delete(tokenHash)
		}
		if err := s.storage.DeleteSessionByHash(ctx, tokenHash); err != nil && !absent(err) {
			return nil, fmt.Errorf("failed to delete expired session: %w", err)
		}
		return nil, nil
	}

	if !force && !s.session.RenewalDue(session.ExpiresAt, now) {
		return nil, nil
	}

	session.ExpiresAt = s.session.Renewed(now.UTC())
	session.UpdatedAt = now.UTC()

	if err := s.storage.UpdateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}

	if s.cache != nil {
		// Invalidate; the next read repopulates with the new expiry.
		_ = s.cache.Delete(tokenHash)
	}

	return session, nil
}

// DeleteSession is idempotent: deleting an absent session is not an error.
func (s *Store) DeleteSession(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	tokenHash := crypto.HashToken(token)

	if s.cache != nil {
		_ = s.cache.Delete(tokenHash)
	}

	if err := s.storage.DeleteSessionByHash(ctx, tokenHash); err != nil && !absent(err) {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteUserSessions signs the user out everywhere.
func (s *Store) DeleteUserSessions(ctx context.Context, userID string) error {
	if s.cache != nil {
		_ = s.cache.Clear()
	}

	if err := s.storage.DeleteUserSessions(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete user sessions: %w", err)
	}
	return nil
}

// DeleteExpiredSessions sweeps sessions already past their expiry and
// reports how many were removed.
func (s *Store) DeleteExpiredSessions(ctx context.Context) (int, error) {
	n, err := s.storage.DeleteExpiredSessions(ctx, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return n, nil
}
