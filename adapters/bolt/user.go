package bolt

import (
	"context"
	"time"

	"go.etcd.io/bbolt"

	"github.com/toriiauth/torii/core"
)

func (a *Adapter) CreateUser(_ context.Context, user *core.User) error {
	return a.db.Update(func(tx *bbolt.Tx) error {
		if user.Email != "" {
			emails := tx.Bucket(bucketEmails)
			if emails.Get([]byte(user.Email)) != nil {
				return core.ErrUserExists
			}
			if err := emails.Put([]byte(user.Email), []byte(user.ID)); err != nil {
				return err
			}
		}

		data, err := encode(toUserRecord(user))
		if err != nil {
			return err
		}
		return tx.Bucket(bucketUsers).Put([]byte(user.ID), data)
	})
}

func (a *Adapter) GetUserByID(_ context.Context, id string) (*core.User, error) {
	var user *core.User
	err := a.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketUsers).Get([]byte(id))
		if data == nil {
			return core.ErrUserNotFound
		}
		var rec userRecord
		if err := decode(data, &rec); err != nil {
			return err
		}
		user = rec.toUser()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (a *Adapter) GetUserByEmail(_ context.Context, email string) (*core.User, error) {
	var user *core.User
	err := a.db.View(func(tx *bbolt.Tx) error {
		id := tx.Bucket(bucketEmails).Get([]byte(email))
		if id == nil {
			return core.ErrUserNotFound
		}
		data := tx.Bucket(bucketUsers).Get(id)
		if data == nil {
			return core.ErrUserNotFound
		}
		var rec userRecord
		if err := decode(data, &rec); err != nil {
			return err
		}
		user = rec.toUser()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (a *Adapter) GetUserByAccount(_ context.Context, provider, providerAccountID string) (*core.User, error) {
	var user *core.User
	err := a.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketAccounts).Get(pairKey(provider, providerAccountID))
		if data == nil {
			return core.ErrUserNotFound
		}
		var acc accountRecord
		if err := decode(data, &acc); err != nil {
			return err
		}

		userData := tx.Bucket(bucketUsers).Get([]byte(acc.UserID))
		if userData == nil {
			return core.ErrUserNotFound
		}
		var rec userRecord
		if err := decode(userData, &rec); err != nil {
			return err
		}
		user = rec.toUser()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (a *Adapter) UpdateUser(_ context.Context, id string, patch core.UserPatch) (*core.User, error) {
	var user *core.User
	err := a.db.Update(func(tx *bbolt.Tx) error {
		users := tx.Bucket(bucketUsers)
		data := users.Get([]byte(id))
		if data == nil {
			return core.ErrUserNotFound
		}
		var rec userRecord
		if err := decode(data, &rec); err != nil {
			return err
		}

		if patch.Email != nil && *patch.Email != rec.Email {
			emails := tx.Bucket(bucketEmails)
			if *patch.Email != "" {
				if emails.Get([]byte(*patch.Email)) != nil {
					return core.ErrUserExists
				}
				if err := emails.Put([]byte(*patch.Email), []byte(id)); err != nil {
					return err
				}
			}
			if rec.Email != "" {
				if err := emails.Delete([]byte(rec.Email)); err != nil {
					return err
				}
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

		updated, err := encode(&rec)
		if err != nil {
			return err
		}
		if err := users.Put([]byte(id), updated); err != nil {
			return err
		}

		user = rec.toUser()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteUser removes the user and scans the account and session buckets for
// dependents; the whole cascade commits in one transaction.
func (a *Adapter) DeleteUser(_ context.Context, id string) error {
	return a.db.Update(func(tx *bbolt.Tx) error {
		users := tx.Bucket(bucketUsers)
		data := users.Get([]byte(id))
		if data == nil {
			return nil // Already deleted
		}
		var rec userRecord
		if err := decode(data, &rec); err != nil {
			return err
		}

		if err := users.Delete([]byte(id)); err != nil {
			return err
		}
		if rec.Email != "" {
			if err := tx.Bucket(bucketEmails).Delete([]byte(rec.Email)); err != nil {
				return err
			}
		}

		accounts := tx.Bucket(bucketAccounts)
		cursor := accounts.Cursor()
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			var acc accountRecord
			if err := decode(v, &acc); err != nil {
				return err
			}
			if acc.UserID == id {
				if err := cursor.Delete(); err != nil {
					return err
				}
			}
		}

		sessions := tx.Bucket(bucketSessions)
		cursor = sessions.Cursor()
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			var s sessionRecord
			if err := decode(v, &s); err != nil {
				return err
			}
			if s.UserID == id {
				if err := cursor.Delete(); err != nil {
					return err
				}
			}
		}

		return nil
	})
}
