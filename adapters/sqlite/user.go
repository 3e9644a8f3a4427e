package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/toriiauth/torii/core"
)

func toStoreEmail(email string) any {
	if email == "" {
		return nil
	}
	return email
}

const userColumns = `id, name, email, email_verified, image, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*core.User, error) {
	user := &core.User{}
	var email sql.NullString
	var verified sql.NullTime

	err := row.Scan(&user.ID, &user.Name, &email, &verified, &user.Image, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if email.Valid {
		user.Email = email.String
	}
	if verified.Valid {
		t := verified.Time
		user.EmailVerified = &t
	}
	return user, nil
}

func (a *Adapter) CreateUser(ctx context.Context, user *core.User) error {
	query := `
		INSERT INTO users (id, name, email, email_verified, image, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := a.db.ExecContext(ctx, query,
		user.ID, user.Name, toStoreEmail(user.Email), user.EmailVerified, user.Image,
		user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if conflict := uniqueViolation(err); conflict != nil {
			return conflict
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (a *Adapter) GetUserByID(ctx context.Context, id string) (*core.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`

	user, err := scanUser(a.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (a *Adapter) GetUserByEmail(ctx context.Context, email string) (*core.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`

	user, err := scanUser(a.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

func (a *Adapter) GetUserByAccount(ctx context.Context, provider, providerAccountID string) (*core.User, error) {
	query := `
		SELECT u.id, u.name, u.email, u.email_verified, u.image, u.created_at, u.updated_at
		FROM users u
		JOIN accounts a ON a.user_id = u.id
		WHERE a.provider = ? AND a.provider_account_id = ?
	`

	user, err := scanUser(a.db.QueryRowContext(ctx, query, provider, providerAccountID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by account: %w", err)
	}
	return user, nil
}

func (a *Adapter) UpdateUser(ctx context.Context, id string, patch core.UserPatch) (*core.User, error) {
	// Email needs a CASE rather than COALESCE: clearing it maps "" to NULL,
	// which COALESCE cannot express.
	query := `
		UPDATE users SET
			name = COALESCE(?, name),
			email = CASE WHEN ? THEN ? ELSE email END,
			image = COALESCE(?, image),
			email_verified = COALESCE(?, email_verified),
			updated_at = ?
		WHERE id = ?
	`

	var email any
	if patch.Email != nil {
		email = toStoreEmail(*patch.Email)
	}

	res, err := a.db.ExecContext(ctx, query,
		patch.Name, patch.Email != nil, email, patch.Image, patch.EmailVerified, time.Now().UTC(), id)
	if err != nil {
		if conflict := uniqueViolation(err); conflict != nil {
			return nil, conflict
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, core.ErrUserNotFound
	}

	return a.GetUserByID(ctx, id)
}

func (a *Adapter) DeleteUser(ctx context.Context, id string) error {
	// Accounts and sessions cascade via the schema's foreign keys.
	if _, err := a.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}
