package bolt

import (
	"context"

	"go.etcd.io/bbolt"

	"github.com/toriiauth/torii/core"
)

func (a *Adapter) CreateAccount(_ context.Context, account *core.Account) error {
	return a.db.Update(func(tx *bbolt.Tx) error {
		accounts := tx.Bucket(bucketAccounts)
		key := pairKey(account.Provider, account.ProviderAccountID)
		if accounts.Get(key) != nil {
			return core.ErrAccountExists
		}

		data, err := encode(toAccountRecord(account))
		if err != nil {
			return err
		}
		return accounts.Put(key, data)
	})
}

func (a *Adapter) GetAccountByProvider(_ context.Context, provider, providerAccountID string) (*core.Account, error) {
	var account *core.Account
	err := a.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketAccounts).Get(pairKey(provider, providerAccountID))
		if data == nil {
			return core.ErrAccountNotFound
		}
		var rec accountRecord
		if err := decode(data, &rec); err != nil {
			return err
		}
		account = rec.toAccount()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (a *Adapter) DeleteAccount(_ context.Context, provider, providerAccountID string) error {
	return a.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketAccounts).Delete(pairKey(provider, providerAccountID))
	})
}
