package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/toriiauth/torii/core"
)

const credentialsProvider = "credentials"

// LinkAccount attaches a provider identity to a user. For credentials
// accounts the plaintext password is hashed before it reaches storage.
func (s *Store) LinkAccount(ctx context.Context, account *core.Account) (*core.Account, error) {
	if account.ID == "" {
		account.ID = uuid.NewString()
	}

	if account.Type == credentialsProvider && account.Password != nil && s.passwords != nil {
		hashed, err := s.passwords.Hash(*account.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		account.Password = &hashed
	}

	now := time.Now().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now

	if err := s.storage.CreateAccount(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to link account: %w", err)
	}

	return account, nil
}

// UnlinkAccount removes a provider linkage. Unlinking a pair that does not
// exist is a no-op, not an error.
func (s *Store) UnlinkAccount(ctx context.Context, provider, providerAccountID string) error {
	if err := s.storage.DeleteAccount(ctx, provider, providerAccountID); err != nil {
		if absent(err) {
			return nil
		}
		return fmt.Errorf("failed to unlink account: %w", err)
	}
	return nil
}
