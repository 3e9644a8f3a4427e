package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/toriiauth/torii/core"
)

func (a *Adapter) CreateAccount(ctx context.Context, account *core.Account) error {
	query := `
		INSERT INTO accounts (id, user_id, type, provider, provider_account_id, password,
			access_token, refresh_token, id_token, expires_at, token_type, scope, session_state,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := a.db.ExecContext(ctx, query,
		account.ID, account.UserID, account.Type, account.Provider, account.ProviderAccountID,
		account.Password, account.AccessToken, account.RefreshToken, account.IDToken,
		account.ExpiresAt, account.TokenType, account.Scope, account.SessionState,
		account.CreatedAt, account.UpdatedAt)
	if err != nil {
		if conflict := uniqueViolation(err); conflict != nil {
			return conflict
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

func (a *Adapter) GetAccountByProvider(ctx context.Context, provider, providerAccountID string) (*core.Account, error) {
	query := `
		SELECT id, user_id, type, provider, provider_account_id, password,
			access_token, refresh_token, id_token, expires_at, token_type, scope, session_state,
			created_at, updated_at
		FROM accounts
		WHERE provider = ? AND provider_account_id = ?
	`

	acc := &core.Account{}
	err := a.db.QueryRowContext(ctx, query, provider, providerAccountID).Scan(
		&acc.ID, &acc.UserID, &acc.Type, &acc.Provider, &acc.ProviderAccountID, &acc.Password,
		&acc.AccessToken, &acc.RefreshToken, &acc.IDToken, &acc.ExpiresAt, &acc.TokenType,
		&acc.Scope, &acc.SessionState, &acc.CreatedAt, &acc.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return acc, nil
}

func (a *Adapter) DeleteAccount(ctx context.Context, provider, providerAccountID string) error {
	// Deleting an absent pair is a no-op.
	query := `DELETE FROM accounts WHERE provider = ? AND provider_account_id = ?`
	if _, err := a.db.ExecContext(ctx, query, provider, providerAccountID); err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return nil
}
