package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/toriiauth/torii/core"
)

// Sessions carry a server-side TTL derived from their expiry, so Redis
// removes them on its own and the sweep operation has nothing to do.

func (a *Adapter) CreateSession(ctx context.Context, session *core.Session) error {
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		// Session already expired; an unstored session reads as absent,
		// which is what the expiry protocol reports anyway.
		return nil
	}

	data, err := marshal(toSessionRecord(session))
	if err != nil {
		return err
	}

	ok, err := a.client.SetNX(ctx, sessionKey(session.TokenHash), data, ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	if !ok {
		return core.ErrSessionExists
	}

	// The index set carries no TTL of its own: session keys expire
	// individually, and the cascade deletes tolerate members whose session
	// key is already gone. An index that expires before its sessions would
	// break sign-out-everywhere.
	if err := a.client.SAdd(ctx, userSessionsKey(session.UserID), session.TokenHash).Err(); err != nil {
		return fmt.Errorf("failed to index session: %w", err)
	}
	return nil
}

func (a *Adapter) GetSessionByHash(ctx context.Context, tokenHash string) (*core.Session, error) {
	data, err := a.client.Get(ctx, sessionKey(tokenHash)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, core.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var rec sessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return rec.toSession(), nil
}

func (a *Adapter) UpdateSession(ctx context.Context, session *core.Session) error {
	exists, err := a.client.Exists(ctx, sessionKey(session.TokenHash)).Result()
	if err != nil {
		return fmt.Errorf("failed to check session: %w", err)
	}
	if exists == 0 {
		return core.ErrSessionNotFound
	}

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return a.DeleteSessionByHash(ctx, session.TokenHash)
	}

	data, err := marshal(toSessionRecord(session))
	if err != nil {
		return err
	}

	if err := a.client.Set(ctx, sessionKey(session.TokenHash), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	return nil
}

func (a *Adapter) DeleteSessionByHash(ctx context.Context, tokenHash string) error {
	session, err := a.GetSessionByHash(ctx, tokenHash)
	if errors.Is(err, core.ErrSessionNotFound) {
		return nil // Already deleted
	}
	if err != nil {
		return err
	}

	pipe := a.client.TxPipeline()
	pipe.Del(ctx, sessionKey(tokenHash))
	pipe.SRem(ctx, userSessionsKey(session.UserID), tokenHash)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (a *Adapter) DeleteUserSessions(ctx context.Context, userID string) error {
	hashes, err := a.client.SMembers(ctx, userSessionsKey(userID)).Result()
	if err != nil {
		return fmt.Errorf("failed to list user sessions: %w", err)
	}

	pipe := a.client.TxPipeline()
	for _, hash := range hashes {
		pipe.Del(ctx, sessionKey(hash))
	}
	pipe.Del(ctx, userSessionsKey(userID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete user sessions: %w", err)
	}
	return nil
}

func (a *Adapter) DeleteExpiredSessions(_ context.Context, _ time.Time) (int, error) {
	// Redis already expired them via TTL.
	return 0, nil
}
