package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/toriiauth/torii/core"
)

func (a *Adapter) getAccountRecord(ctx context.Context, provider, providerAccountID string) (*accountRecord, error) {
	data, err := a.client.Get(ctx, accountKey(provider, providerAccountID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, core.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	var rec accountRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal account: %w", err)
	}
	return &rec, nil
}

func (a *Adapter) CreateAccount(ctx context.Context, account *core.Account) error {
	data, err := marshal(toAccountRecord(account))
	if err != nil {
		return err
	}

	key := accountKey(account.Provider, account.ProviderAccountID)

	// SETNX is the uniqueness guard for the (provider, providerAccountId)
	// pair.
	ok, err := a.client.SetNX(ctx, key, data, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}
	if !ok {
		return core.ErrAccountExists
	}

	if err := a.client.SAdd(ctx, userAccountsKey(account.UserID), key).Err(); err != nil {
		return fmt.Errorf("failed to index account: %w", err)
	}
	return nil
}

func (a *Adapter) GetAccountByProvider(ctx context.Context, provider, providerAccountID string) (*core.Account, error) {
	rec, err := a.getAccountRecord(ctx, provider, providerAccountID)
	if err != nil {
		return nil, err
	}
	return rec.toAccount(), nil
}

func (a *Adapter) DeleteAccount(ctx context.Context, provider, providerAccountID string) error {
	rec, err := a.getAccountRecord(ctx, provider, providerAccountID)
	if errors.Is(err, core.ErrAccountNotFound) {
		return nil // no-op
	}
	if err != nil {
		return err
	}

	key := accountKey(provider, providerAccountID)

	pipe := a.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.SRem(ctx, userAccountsKey(rec.UserID), key)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return nil
}
