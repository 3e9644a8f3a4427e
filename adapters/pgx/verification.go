package pgx

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/toriiauth/torii/core"
)

func (a *Adapter) CreateVerificationToken(ctx context.Context, token *core.VerificationToken) error {
	query := `INSERT INTO verification_tokens (identifier, token_hash, expires, created_at)
	          VALUES ($1, $2, $3, $4)`

	_, err := a.pool.Exec(ctx, query,
		token.Identifier, token.TokenHash, token.ExpiresAt, token.CreatedAt)
	return err
}

// ConsumeVerificationToken is a single conditional delete returning the
// deleted row, so two racing consumers cannot both win.
func (a *Adapter) ConsumeVerificationToken(ctx context.Context, identifier, tokenHash string) (*core.VerificationToken, error) {
	query := `DELETE FROM verification_tokens
	          WHERE identifier = $1 AND token_hash = $2
	          RETURNING identifier, token_hash, expires, created_at`

	token := &core.VerificationToken{}
	err := a.pool.QueryRow(ctx, query, identifier, tokenHash).Scan(
		&token.Identifier, &token.TokenHash, &token.ExpiresAt, &token.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrVerificationTokenNotFound
		}
		return nil, err
	}
	return token, nil
}
