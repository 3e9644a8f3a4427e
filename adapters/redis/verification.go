package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/toriiauth/torii/core"
)

func (a *Adapter) CreateVerificationToken(ctx context.Context, token *core.VerificationToken) error {
	ttl := time.Until(token.ExpiresAt)
	if ttl <= 0 {
		// Born expired; consuming it must report absent either way.
		return nil
	}

	data, err := marshal(toVerificationRecord(token))
	if err != nil {
		return err
	}

	key := verificationKey(token.Identifier, token.TokenHash)
	if err := a.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save verification token: %w", err)
	}
	return nil
}

// ConsumeVerificationToken uses GETDEL, a single atomic command, so two
// concurrent consumers of the same pair get exactly one success.
func (a *Adapter) ConsumeVerificationToken(ctx context.Context, identifier, tokenHash string) (*core.VerificationToken, error) {
	data, err := a.client.GetDel(ctx, verificationKey(identifier, tokenHash)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, core.ErrVerificationTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to consume verification token: %w", err)
	}

	var rec verificationRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal verification token: %w", err)
	}
	return rec.toToken(), nil
}
