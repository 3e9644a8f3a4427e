package core

import "time"

// User is the canonical identity record.
//
// This is the "identity" - who someone is. The ID is an opaque, stable
// string assigned at creation time and never reused.
type User struct {
	ID            string     `json:"id"`
	Name          string     `json:"name,omitempty"`
	Email         string     `json:"email,omitempty"`
	EmailVerified *time.Time `json:"emailVerified,omitempty"`
	Image         *string    `json:"image,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// UserPatch is a partial update of a User. Nil fields are left unchanged.
type UserPatch struct {
	Name          *string
	Email         *string
	Image         *string
	EmailVerified *time.Time
}

// Account links a User to an external identity provider.
//
// This is the "credential" - how someone proves who they are. The pair
// (Provider, ProviderAccountID) is unique across the whole store.
type Account struct {
	ID                string    `json:"id"`
	UserID            string    `json:"userId"`
	Type              string    `json:"type"` // "oauth", "email" or "credentials"
	Provider          string    `json:"provider"`
	ProviderAccountID string    `json:"providerAccountId"`
	Password          *string   `json:"-"` // Never expose in JSON
	AccessToken       *string   `json:"-"` // Never expose in JSON
	RefreshToken      *string   `json:"-"` // Never expose in JSON
	IDToken           *string   `json:"-"` // Never expose in JSON
	ExpiresAt         *int64    `json:"expiresAt,omitempty"` // provider token expiry, epoch seconds
	TokenType         *string   `json:"tokenType,omitempty"`
	Scope             *string   `json:"scope,omitempty"`
	SessionState      *string   `json:"sessionState,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// Session represents an active login session. Only the SHA-256 hash of the
// session token is persisted; the raw token lives in the caller's cookie.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	TokenHash string    `json:"-"` // Never expose in JSON (security!)
	ExpiresAt time.Time `json:"expires"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SessionData combines user and session info
// The model returned to clients
type SessionData struct {
	User    *User    `json:"user"`
	Session *Session `json:"session"`
}

// VerificationToken is a single-use, time-boxed credential for email and
// passwordless flows. TokenHash is a keyed hash of the secret sent to the
// user; the raw secret is never stored.
type VerificationToken struct {
	Identifier string    `json:"identifier"`
	TokenHash  string    `json:"-"` // Never expose in JSON (security!)
	ExpiresAt  time.Time `json:"expires"`
	CreatedAt  time.Time `json:"createdAt"`
}
