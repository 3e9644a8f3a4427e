package pgx

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/toriiauth/torii/core"
)

// toStoreEmail maps the canonical "absent" email (empty string) to SQL NULL
// so the partial unique index never fires for users without an email.
func toStoreEmail(email string) *string {
	if email == "" {
		return nil
	}
	return &email
}

func fromStoreEmail(email *string) string {
	if email == nil {
		return ""
	}
	return *email
}

const userColumns = `id, name, email, email_verified, image, created_at, updated_at`

func scanUser(row pgx.Row) (*core.User, error) {
	user := &core.User{}
	var email *string
	err := row.Scan(&user.ID, &user.Name, &email, &user.EmailVerified, &user.Image, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	user.Email = fromStoreEmail(email)
	return user, nil
}

func (a *Adapter) CreateUser(ctx context.Context, user *core.User) error {
	query := `INSERT INTO users (id, name, email, email_verified, image, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := a.pool.Exec(ctx, query,
		user.ID, user.Name, toStoreEmail(user.Email), user.EmailVerified, user.Image, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return core.ErrUserExists
		}
		return err
	}
	return nil
}

func (a *Adapter) GetUserByID(ctx context.Context, id string) (*core.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(a.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (a *Adapter) GetUserByEmail(ctx context.Context, email string) (*core.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(a.pool.QueryRow(ctx, q, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (a *Adapter) GetUserByAccount(ctx context.Context, provider, providerAccountID string) (*core.User, error) {
	q := `SELECT u.id, u.name, u.email, u.email_verified, u.image, u.created_at, u.updated_at
	      FROM users u
	      JOIN accounts a ON a.user_id = u.id
	      WHERE a.provider = $1 AND a.provider_account_id = $2`

	user, err := scanUser(a.pool.QueryRow(ctx, q, provider, providerAccountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (a *Adapter) UpdateUser(ctx context.Context, id string, patch core.UserPatch) (*core.User, error) {
	// Email needs a CASE rather than COALESCE: clearing it maps "" to NULL,
	// which COALESCE cannot express.
	q := `UPDATE users SET
	        name = COALESCE($2, name),
	        email = CASE WHEN $3 THEN $4 ELSE email END,
	        image = COALESCE($5, image),
	        email_verified = COALESCE($6, email_verified),
	        updated_at = $7
	      WHERE id = $1
	      RETURNING ` + userColumns

	var email *string
	if patch.Email != nil {
		email = toStoreEmail(*patch.Email)
	}

	user, err := scanUser(a.pool.QueryRow(ctx, q,
		id, patch.Name, patch.Email != nil, email, patch.Image, patch.EmailVerified, time.Now().UTC()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrUserNotFound
		}
		if isUniqueViolation(err) {
			return nil, core.ErrUserExists
		}
		return nil, err
	}
	return user, nil
}

func (a *Adapter) DeleteUser(ctx context.Context, id string) error {
	// Accounts and sessions go through ON DELETE CASCADE in one statement.
	_, err := a.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	return err
}
