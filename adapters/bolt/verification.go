package bolt

import (
	"context"

	"go.etcd.io/bbolt"

	"github.com/toriiauth/torii/core"
)

func (a *Adapter) CreateVerificationToken(_ context.Context, token *core.VerificationToken) error {
	return a.db.Update(func(tx *bbolt.Tx) error {
		data, err := encode(toVerificationRecord(token))
		if err != nil {
			return err
		}
		return tx.Bucket(bucketVerifications).Put(pairKey(token.Identifier, token.TokenHash), data)
	})
}

// ConsumeVerificationToken reads and deletes inside one update transaction;
// bbolt allows a single writer, so two concurrent consumers of the same pair
// get exactly one success.
func (a *Adapter) ConsumeVerificationToken(_ context.Context, identifier, tokenHash string) (*core.VerificationToken, error) {
	var token *core.VerificationToken
	err := a.db.Update(func(tx *bbolt.Tx) error {
		verifications := tx.Bucket(bucketVerifications)
		key := pairKey(identifier, tokenHash)
		data := verifications.Get(key)
		if data == nil {
			return core.ErrVerificationTokenNotFound
		}

		var rec verificationRecord
		if err := decode(data, &rec); err != nil {
			return err
		}
		if err := verifications.Delete(key); err != nil {
			return err
		}

		token = rec.toToken()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return token, nil
}
