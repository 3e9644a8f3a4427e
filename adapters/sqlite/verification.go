package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/toriiauth/torii/core"
)

func (a *Adapter) CreateVerificationToken(ctx context.Context, token *core.VerificationToken) error {
	query := `
		INSERT INTO verification_tokens (identifier, token_hash, expires, created_at)
		VALUES (?, ?, ?, ?)
	`

	_, err := a.db.ExecContext(ctx, query,
		token.Identifier, token.TokenHash, token.ExpiresAt, token.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create verification token: %w", err)
	}
	return nil
}

// ConsumeVerificationToken reads and deletes the token in one transaction;
// with SQLite's single writer the find-and-delete cannot interleave with a
// concurrent consume of the same pair.
func (a *Adapter) ConsumeVerificationToken(ctx context.Context, identifier, tokenHash string) (*core.VerificationToken, error) {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		SELECT identifier, token_hash, expires, created_at
		FROM verification_tokens
		WHERE identifier = ? AND token_hash = ?
	`

	token := &core.VerificationToken{}
	err = tx.QueryRowContext(ctx, query, identifier, tokenHash).Scan(
		&token.Identifier, &token.TokenHash, &token.ExpiresAt, &token.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrVerificationTokenNotFound
		}
		return nil, fmt.Errorf("failed to get verification token: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM verification_tokens WHERE identifier = ? AND token_hash = ?`,
		identifier, tokenHash)
	if err != nil {
		return nil, fmt.Errorf("failed to delete verification token: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit consume: %w", err)
	}

	return token, nil
}
