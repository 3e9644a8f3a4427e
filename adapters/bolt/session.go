package bolt

import (
	"context"
	"time"

	"go.etcd.io/bbolt"

	"github.com/toriiauth/torii/core"
)

func (a *Adapter) CreateSession(_ context.Context, session *core.Session) error {
	return a.db.Update(func(tx *bbolt.Tx) error {
		sessions := tx.Bucket(bucketSessions)
		key := []byte(session.TokenHash)
		if sessions.Get(key) != nil {
			return core.ErrSessionExists
		}

		data, err := encode(toSessionRecord(session))
		if err != nil {
			return err
		}
		return sessions.Put(key, data)
	})
}

func (a *Adapter) GetSessionByHash(_ context.Context, tokenHash string) (*core.Session, error) {
	var session *core.Session
	err := a.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketSessions).Get([]byte(tokenHash))
		if data == nil {
			return core.ErrSessionNotFound
		}
		var rec sessionRecord
		if err := decode(data, &rec); err != nil {
			return err
		}
		session = rec.toSession()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (a *Adapter) UpdateSession(_ context.Context, session *core.Session) error {
	return a.db.Update(func(tx *bbolt.Tx) error {
		sessions := tx.Bucket(bucketSessions)
		key := []byte(session.TokenHash)
		if sessions.Get(key) == nil {
			return core.ErrSessionNotFound
		}

		data, err := encode(toSessionRecord(session))
		if err != nil {
			return err
		}
		return sessions.Put(key, data)
	})
}

func (a *Adapter) DeleteSessionByHash(_ context.Context, tokenHash string) error {
	return a.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSessions).Delete([]byte(tokenHash))
	})
}

func (a *Adapter) DeleteUserSessions(_ context.Context, userID string) error {
	return a.db.Update(func(tx *bbolt.Tx) error {
		cursor := tx.Bucket(bucketSessions).Cursor()
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			var rec sessionRecord
			if err := decode(v, &rec); err != nil {
				return err
			}
			if rec.UserID == userID {
				if err := cursor.Delete(); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (a *Adapter) DeleteExpiredSessions(_ context.Context, now time.Time) (int, error) {
	count := 0
	err := a.db.Update(func(tx *bbolt.Tx) error {
		cursor := tx.Bucket(bucketSessions).Cursor()
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			var rec sessionRecord
			if err := decode(v, &rec); err != nil {
				return err
			}
			if now.After(rec.ExpiresAt) {
				if err := cursor.Delete(); err != nil {
					return err
				}
				count++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}
