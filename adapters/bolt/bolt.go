// Package bolt is the BoltDB storage adapter: one bucket per entity,
// JSON-encoded records, every write inside a single update transaction so
// cascades and token consumption are atomic by construction.
package bolt

import (
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/toriiauth/torii/core"
)

var (
	bucketUsers         = []byte("users")
	bucketEmails        = []byte("emails") // email -> user ID
	bucketAccounts      = []byte("accounts")
	bucketSessions      = []byte("sessions")
	bucketVerifications = []byte("verifications")
)

type Adapter struct {
	db *bbolt.DB
}

var _ core.Storage = (*Adapter)(nil)

func New(dbPath string) (*Adapter, error) {
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb: %w", err)
	}

	adapter := &Adapter{db: db}

	if err := adapter.initBuckets(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	return adapter, nil
}

func (a *Adapter) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

func (a *Adapter) initBuckets() error {
	return a.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketUsers, bucketEmails, bucketAccounts, bucketSessions, bucketVerifications} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", name, err)
			}
		}
		return nil
	})
}

// pairKey builds composite bucket keys for (provider, providerAccountId)
// and (identifier, tokenHash) pairs.
func pairKey(a, b string) []byte {
	return []byte(a + "\x00" + b)
}
