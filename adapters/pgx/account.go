package pgx

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/toriiauth/torii/core"
)

const accountColumns = `id, user_id, type, provider, provider_account_id, password,
	access_token, refresh_token, id_token, expires_at, token_type, scope, session_state,
	created_at, updated_at`

func scanAccount(row pgx.Row) (*core.Account, error) {
	acc := &core.Account{}
	err := row.Scan(
		&acc.ID, &acc.UserID, &acc.Type, &acc.Provider, &acc.ProviderAccountID, &acc.Password,
		&acc.AccessToken, &acc.RefreshToken, &acc.IDToken, &acc.ExpiresAt, &acc.TokenType,
		&acc.Scope, &acc.SessionState, &acc.CreatedAt, &acc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return acc, nil
}

func (a *Adapter) CreateAccount(ctx context.Context, account *core.Account) error {
	query := `INSERT INTO accounts (id, user_id, type, provider, provider_account_id, password,
	            access_token, refresh_token, id_token, expires_at, token_type, scope, session_state,
	            created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err := a.pool.Exec(ctx, query,
		account.ID, account.UserID, account.Type, account.Provider, account.ProviderAccountID,
		account.Password, account.AccessToken, account.RefreshToken, account.IDToken,
		account.ExpiresAt, account.TokenType, account.Scope, account.SessionState,
		account.CreatedAt, account.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return core.ErrAccountExists
		}
		return err
	}
	return nil
}

func (a *Adapter) GetAccountByProvider(ctx context.Context, provider, providerAccountID string) (*core.Account, error) {
	query := `SELECT ` + accountColumns + `
	          FROM accounts WHERE provider = $1 AND provider_account_id = $2`

	acc, err := scanAccount(a.pool.QueryRow(ctx, query, provider, providerAccountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrAccountNotFound
		}
		return nil, err
	}
	return acc, nil
}

func (a *Adapter) DeleteAccount(ctx context.Context, provider, providerAccountID string) error {
	// Deleting an absent pair is a no-op.
	_, err := a.pool.Exec(ctx,
		`DELETE FROM accounts WHERE provider = $1 AND provider_account_id = $2`,
		provider, providerAccountID)
	return err
}
