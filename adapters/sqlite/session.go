package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/toriiauth/torii/core"
)

func (a *Adapter) CreateSession(ctx context.Context, session *core.Session) error {
	query := `
		INSERT INTO sessions (id, user_id, token_hash, expires, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := a.db.ExecContext(ctx, query,
		session.ID, session.UserID, session.TokenHash, session.ExpiresAt,
		session.CreatedAt, session.UpdatedAt)
	if err != nil {
		if conflict := uniqueViolation(err); conflict != nil {
			return conflict
		}
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (a *Adapter) GetSessionByHash(ctx context.Context, tokenHash string) (*core.Session, error) {
	query := `
		SELECT id, user_id, token_hash, expires, created_at, updated_at
		FROM sessions
		WHERE token_hash = ?
	`

	s := &core.Session{}
	err := a.db.QueryRowContext(ctx, query, tokenHash).Scan(
		&s.ID, &s.UserID, &s.TokenHash, &s.ExpiresAt, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return s, nil
}

func (a *Adapter) UpdateSession(ctx context.Context, session *core.Session) error {
	query := `UPDATE sessions SET expires = ?, updated_at = ? WHERE token_hash = ?`

	res, err := a.db.ExecContext(ctx, query, session.ExpiresAt, session.UpdatedAt, session.TokenHash)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return core.ErrSessionNotFound
	}
	return nil
}

func (a *Adapter) DeleteSessionByHash(ctx context.Context, tokenHash string) error {
	if _, err := a.db.ExecContext(ctx, `DELETE FROM sessions WHERE token_hash = ?`, tokenHash); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (a *Adapter) DeleteUserSessions(ctx context.Context, userID string) error {
	if _, err := a.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to delete user sessions: %w", err)
	}
	return nil
}

func (a *Adapter) DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error) {
	res, err := a.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires < ?`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}
