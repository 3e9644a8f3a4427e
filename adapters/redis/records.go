package redis

import (
	"time"

	"github.com/toriiauth/torii/core"
)

// The core models hide secret material from JSON on purpose, so the adapter
// keeps its own fully-serializable record shapes. Redis is trusted storage
// here; the hashes have to round-trip.

type userRecord struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	EmailVerified *time.Time `json:"emailVerified"`
	Image         *string    `json:"image"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

func toUserRecord(u *core.User) *userRecord {
	return &userRecord{
		ID: u.ID, Name: u.Name, Email: u.Email, EmailVerified: u.EmailVerified,
		Image: u.Image, CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt,
	}
}

func (r *userRecord) toUser() *core.User {
	return &core.User{
		ID: r.ID, Name: r.Name, Email: r.Email, EmailVerified: r.EmailVerified,
		Image: r.Image, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

type accountRecord struct {
	ID                string    `json:"id"`
	UserID            string    `json:"userId"`
	Type              string    `json:"type"`
	Provider          string    `json:"provider"`
	ProviderAccountID string    `json:"providerAccountId"`
	Password          *string   `json:"password"`
	AccessToken       *string   `json:"accessToken"`
	RefreshToken      *string   `json:"refreshToken"`
	IDToken           *string   `json:"idToken"`
	ExpiresAt         *int64    `json:"expiresAt"`
	TokenType         *string   `json:"tokenType"`
	Scope             *string   `json:"scope"`
	SessionState      *string   `json:"sessionState"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

func toAccountRecord(a *core.Account) *accountRecord {
	return &accountRecord{
		ID: a.ID, UserID: a.UserID, Type: a.Type, Provider: a.Provider,
		ProviderAccountID: a.ProviderAccountID, Password: a.Password,
		AccessToken: a.AccessToken, RefreshToken: a.RefreshToken, IDToken: a.IDToken,
		ExpiresAt: a.ExpiresAt, TokenType: a.TokenType, Scope: a.Scope,
		SessionState: a.SessionState, CreatedAt: a.CreatedAt, UpdatedAt: a.UpdatedAt,
	}
}

func (r *accountRecord) toAccount() *core.Account {
	return &core.Account{
		ID: r.ID, UserID: r.UserID, Type: r.Type, Provider: r.Provider,
		ProviderAccountID: r.ProviderAccountID, Password: r.Password,
		AccessToken: r.AccessToken, RefreshToken: r.RefreshToken, IDToken: r.IDToken,
		ExpiresAt: r.ExpiresAt, TokenType: r.TokenType, Scope: r.Scope,
		SessionState: r.SessionState, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

type sessionRecord struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	TokenHash string    `json:"tokenHash"`
	ExpiresAt time.Time `json:"expires"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toSessionRecord(s *core.Session) *sessionRecord {
	return &sessionRecord{
		ID: s.ID, UserID: s.UserID, TokenHash: s.TokenHash,
		ExpiresAt: s.ExpiresAt, CreatedAt: s.CreatedAt, UpdatedAt: s.UpdatedAt,
	}
}

func (r *sessionRecord) toSession() *core.Session {
	return &core.Session{
		ID: r.ID, UserID: r.UserID, TokenHash: r.TokenHash,
		ExpiresAt: r.ExpiresAt, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

type verificationRecord struct {
	Identifier string    `json:"identifier"`
	TokenHash  string    `json:"tokenHash"`
	ExpiresAt  time.Time `json:"expires"`
	CreatedAt  time.Time `json:"createdAt"`
}

func toVerificationRecord(t *core.VerificationToken) *verificationRecord {
	return &verificationRecord{
		Identifier: t.Identifier, TokenHash: t.TokenHash,
		ExpiresAt: t.ExpiresAt, CreatedAt: t.CreatedAt,
	}
}

func (r *verificationRecord) toToken() *core.VerificationToken {
	return &core.VerificationToken{
		Identifier: r.Identifier, TokenHash: r.TokenHash,
		ExpiresAt: r.ExpiresAt, CreatedAt: r.CreatedAt,
	}
}
