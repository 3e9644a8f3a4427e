// Package memory is the reference storage adapter: the whole store lives in
// process memory behind one lock. It backs the protocol test suites and
// works as a real adapter for single-process deployments that can afford to
// lose sessions on restart.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/toriiauth/torii/core"
)

type Adapter struct {
	mu            sync.RWMutex
	users         map[string]*core.User              // key: user ID
	accounts      map[string]*core.Account           // key: provider + "\x00" + providerAccountID
	sessions      map[string]*core.Session           // key: token hash
	verifications map[string]*core.VerificationToken // key: identifier + "\x00" + token hash
}

var _ core.Storage = (*Adapter)(nil)

func New() *Adapter {
	return &Adapter{
		users:         make(map[string]*core.User),
		accounts:      make(map[string]*core.Account),
		sessions:      make(map[string]*core.Session),
		verifications: make(map[string]*core.VerificationToken),
	}
}

func pairKey(a, b string) string {
	return a + "\x00" + b
}

// ============================================
// UserStorage
// ============================================

func (a *Adapter) CreateUser(_ context.Context, user *core.User) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if user.Email != "" {
		for _, u := range a.users {
			if u.Email == user.Email {
				return core.ErrUserExists
			}
		}
	}

	clone := *user
	a.users[user.ID] = &clone
	return nil
}

func (a *Adapter) GetUserByID(_ context.Context, id string) (*core.User, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	u, ok := a.users[id]
	if !ok {
		return nil, core.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (a *Adapter) GetUserByEmail(_ context.Context, email string) (*core.User, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	for _, u := range a.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, core.ErrUserNotFound
}

func (a *Adapter) GetUserByAccount(_ context.Context, provider, providerAccountID string) (*core.User, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	acc, ok := a.accounts[pairKey(provider, providerAccountID)]
	if !ok {
		return nil, core.ErrUserNotFound
	}
	u, ok := a.users[acc.UserID]
	if !ok {
		return nil, core.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (a *Adapter) UpdateUser(_ context.Context, id string, patch core.UserPatch) (*core.User, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	u, ok := a.users[id]
	if !ok {
		return nil, core.ErrUserNotFound
	}

	if patch.Email != nil && *patch.Email != u.Email {
		// Only a real address can collide; many users may have none.
		if *patch.Email != "" {
			for otherID, other := range a.users {
				if otherID != id && other.Email == *patch.Email {
					return nil, core.ErrUserExists
				}
			}
		}
		u.Email = *patch.Email
	}
	if patch.Name != nil {
		u.Name = *patch.Name
	}
	if patch.Image != nil {
		u.Image = patch.Image
	}
	if patch.EmailVerified != nil {
		u.EmailVerified = patch.EmailVerified
	}
	u.UpdatedAt = time.Now().UTC()

	clone := *u
	return &clone, nil
}

func (a *Adapter) DeleteUser(_ context.Context, id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	delete(a.users, id)

	// Cascade: the user's accounts and sessions go with them.
	for k, acc := range a.accounts {
		if acc.UserID == id {
			delete(a.accounts, k)
		}
	}
	for k, s := range a.sessions {
		if s.UserID == id {
			delete(a.sessions, k)
		}
	}
	return nil
}

// ============================================
// AccountStorage
// ============================================

func (a *Adapter) CreateAccount(_ context.Context, account *core.Account) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	key := pairKey(account.Provider, account.ProviderAccountID)
	if _, exists := a.accounts[key]; exists {
		return core.ErrAccountExists
	}

	clone := *account
	a.accounts[key] = &clone
	return nil
}

func (a *Adapter) GetAccountByProvider(_ context.Context, provider, providerAccountID string) (*core.Account, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	acc, ok := a.accounts[pairKey(provider, providerAccountID)]
	if !ok {
		return nil, core.ErrAccountNotFound
	}
	clone := *acc
	return &clone, nil
}

func (a *Adapter) DeleteAccount(_ context.Context, provider, providerAccountID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	delete(a.accounts, pairKey(provider, providerAccountID))
	return nil
}

// ============================================
// SessionStorage
// ============================================

func (a *Adapter) CreateSession(_ context.Context, session *core.Session) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.sessions[session.TokenHash]; exists {
		return core.ErrSessionExists
	}

	clone := *session
	a.sessions[session.TokenHash] = &clone
	return nil
}

func (a *Adapter) GetSessionByHash(_ context.Context, tokenHash string) (*core.Session, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	s, ok := a.sessions[tokenHash]
	if !ok {
		return nil, core.ErrSessionNotFound
	}
	clone := *s
	return &clone, nil
}

func (a *Adapter) UpdateSession(_ context.Context, session *core.Session) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.sessions[session.TokenHash]; !ok {
		return core.ErrSessionNotFound
	}

	clone := *session
	a.sessions[session.TokenHash] = &clone
	return nil
}

func (a *Adapter) DeleteSessionByHash(_ context.Context, tokenHash string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	delete(a.sessions, tokenHash)
	return nil
}

func (a *Adapter) DeleteUserSessions(_ context.Context, userID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for k, s := range a.sessions {
		if s.UserID == userID {
			delete(a.sessions, k)
		}
	}
	return nil
}

func (a *Adapter) DeleteExpiredSessions(_ context.Context, now time.Time) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	count := 0
	for k, s := range a.sessions {
		if now.After(s.ExpiresAt) {
			delete(a.sessions, k)
			count++
		}
	}
	return count, nil
}

// ============================================
// VerificationTokenStorage
// ============================================

func (a *Adapter) CreateVerificationToken(_ context.Context, token *core.VerificationToken) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	clone := *token
	a.verifications[pairKey(token.Identifier, token.TokenHash)] = &clone
	return nil
}

// ConsumeVerificationToken removes and returns the token under one lock, so
// concurrent consumers of the same pair see exactly one success.
func (a *Adapter) ConsumeVerificationToken(_ context.Context, identifier, tokenHash string) (*core.VerificationToken, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	key := pairKey(identifier, tokenHash)
	token, ok := a.verifications[key]
	if !ok {
		return nil, core.ErrVerificationTokenNotFound
	}
	delete(a.verifications, key)

	clone := *token
	return &clone, nil
}
