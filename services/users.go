package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/toriiauth/torii/core"
)

// CreateUser persists a new identity record. The ID is pre-generated so a
// timed-out create is safe to retry with the same input.
func (s *Store) CreateUser(ctx context.Context, user *core.User) (*core.User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	if err := s.storage.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*core.User, error) {
	user, err := s.storage.GetUserByID(ctx, id)
	if err != nil {
		if absent(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetUserByEmail returns nil for an empty email without touching the
// backend; an absent email can never match a user.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*core.User, error) {
	if email == "" {
		return nil, nil
	}

	user, err := s.storage.GetUserByEmail(ctx, email)
	if err != nil {
		if absent(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

// GetUserByAccount resolves the user behind a provider linkage. Returns nil
// when either the linkage or the user is missing.
func (s *Store) GetUserByAccount(ctx context.Context, provider, providerAccountID string) (*core.User, error) {
	user, err := s.storage.GetUserByAccount(ctx, provider, providerAccountID)
	if err != nil {
		if absent(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by account: %w", err)
	}
	return user, nil
}

// UpdateUser applies a partial update. Unlike lookups, updating a missing
// user is an error.
func (s *Store) UpdateUser(ctx context.Context, id string, patch core.UserPatch) (*core.User, error) {
	user, err := s.storage.UpdateUser(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	if s.cache != nil {
		// Cached session data embeds the user; drop it so the next read
		// sees the updated record.
		_ = s.cache.Clear()
	}

	return user, nil
}

// DeleteUser removes the user and, through the adapter, their accounts and
// sessions in one atomic operation.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	if s.cache != nil {
		// Sessions cached for this user are about to disappear.
		_ = s.cache.Clear()
	}

	if err := s.storage.DeleteUser(ctx, id); err != nil {
		if absent(err) {
			return nil
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}
