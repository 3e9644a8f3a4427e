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

func (a *Adapter) getUserRecord(ctx context.Context, id string) (*userRecord, error) {
	data, err := a.client.Get(ctx, userKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, core.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	var rec userRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}
	return &rec, nil
}

func (a *Adapter) setUserRecord(ctx context.Context, rec *userRecord) error {
	data, err := marshal(rec)
	if err != nil {
		return err
	}
	if err := a.client.Set(ctx, userKey(rec.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

func (a *Adapter) CreateUser(ctx context.Context, user *core.User) error {
	// The email index key doubles as the uniqueness guard.
	if user.Email != "" {
		ok, err := a.client.SetNX(ctx, userEmailKey(user.Email), user.ID, 0).Result()
		if err != nil {
			return fmt.Errorf("failed to reserve email: %w", err)
		}
		if !ok {
			return core.ErrUserExists
		}
	}

	return a.setUserRecord(ctx, toUserRecord(user))
}

func (a *Adapter) GetUserByID(ctx context.Context, id string) (*core.User, error) {
	rec, err := a.getUserRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	return rec.toUser(), nil
}

func (a *Adapter) GetUserByEmail(ctx context.Context, email string) (*core.User, error) {
	id, err := a.client.Get(ctx, userEmailKey(email)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, core.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return a.GetUserByID(ctx, id)
}

func (a *Adapter) GetUserByAccount(ctx context.Context, provider, providerAccountID string) (*core.User, error) {
	rec, err := a.getAccountRecord(ctx, provider, providerAccountID)
	if err != nil {
		if errors.Is(err, core.ErrAccountNotFound) {
			return nil, core.ErrUserNotFound
		}
		return nil, err
	}

	return a.GetUserByID(ctx, rec.UserID)
}

func (a *Adapter) UpdateUser(ctx context.Context, id string, patch core.UserPatch) (*core.User, error) {
	rec, err := a.getUserRecord(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Email != nil && *patch.Email != rec.Email {
		if *patch.Email != "" {
			ok, err := a.client.SetNX(ctx, userEmailKey(*patch.Email), id, 0).Result()
			if err != nil {
				return nil, fmt.Errorf("failed to reserve email: %w", err)
			}
			if !ok {
				return nil, core.ErrUserExists
			}
		}
		if rec.Email != "" {
			_ = a.client.Del(ctx, userEmailKey(rec.Email)).Err()
		}
		rec.Email = *patch.Email
	}
	if patch.Name != nil {
		rec.Name = *patch.Name
	}
	if patch.Image != nil {
		rec.Image = patch.Image
	}
	if patch.EmailVerified != nil {
		rec.EmailVerified = patch.EmailVerified
	}
	rec.UpdatedAt = time.Now().UTC()

	if err := a.setUserRecord(ctx, rec); err != nil {
		return nil, err
	}
	return rec.toUser(), nil
}

func (a *Adapter) DeleteUser(ctx context.Context, id string) error {
	rec, err := a.getUserRecord(ctx, id)
	if errors.Is(err, core.ErrUserNotFound) {
		return nil // Already deleted
	}
	if err != nil {
		return err
	}

	accountKeys, err := a.client.SMembers(ctx, userAccountsKey(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to list user accounts: %w", err)
	}
	sessionHashes, err := a.client.SMembers(ctx, userSessionsKey(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to list user sessions: %w", err)
	}

	// Cascade in one pipeline: the user, their email index, accounts and
	// sessions all go together.
	pipe := a.client.TxPipeline()
	pipe.Del(ctx, userKey(id))
	if rec.Email != "" {
		pipe.Del(ctx, userEmailKey(rec.Email))
	}
	for _, key := range accountKeys {
		pipe.Del(ctx, key)
	}
	for _, hash := range sessionHashes {
		pipe.Del(ctx, sessionKey(hash))
	}
	pipe.Del(ctx, userAccountsKey(id))
	pipe.Del(ctx, userSessionsKey(id))

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}
