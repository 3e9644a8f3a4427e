// Package redis is the Redis storage adapter. Records are stored as JSON
// under prefixed keys, uniqueness is enforced with SETNX index keys, and
// sessions and verification tokens carry a server-side TTL so Redis expires
// them on its own; the lazy-expiry protocol reads an auto-expired record as
// absent, which is the same observable outcome.
package redis

import (
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/toriiauth/torii/core"
)

const (
	userPrefix         = "torii:user:"
	userEmailPrefix    = "torii:email:"
	userAccountsPrefix = "torii:user-accounts:"
	userSessionsPrefix = "torii:user-sessions:"
	accountPrefix      = "torii:account:"
	sessionPrefix      = "torii:session:"
	verificationPrefix = "torii:verification:"
)

type Adapter struct {
	client *redis.Client
}

var _ core.Storage = (*Adapter)(nil)

func New(client *redis.Client) *Adapter {
	return &Adapter{client: client}
}

func userKey(id string) string            { return userPrefix + id }
func userEmailKey(email string) string    { return userEmailPrefix + email }
func userAccountsKey(id string) string    { return userAccountsPrefix + id }
func userSessionsKey(id string) string    { return userSessionsPrefix + id }
func sessionKey(tokenHash string) string  { return sessionPrefix + tokenHash }

func accountKey(provider, providerAccountID string) string {
	return accountPrefix + provider + ":" + providerAccountID
}

func verificationKey(identifier, tokenHash string) string {
	return verificationPrefix + identifier + ":" + tokenHash
}

func marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record: %w", err)
	}
	return data, nil
}
