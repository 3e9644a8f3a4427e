package torii_test

import (
	"context"
	"errors"
	"testing"
	"time"

	torii "github.com/toriiauth/torii"
	"github.com/toriiauth/torii/adapters/memory"
)

const testSecret = "an-adequately-long-testing-secret!"

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name    string
		config  torii.Config
		wantErr error
	}{
		{
			name:    "missing secret",
			config:  torii.Config{Storage: memory.New()},
			wantErr: torii.ErrSecretRequired,
		},
		{
			name:    "short secret",
			config:  torii.Config{Secret: "too-short", Storage: memory.New()},
			wantErr: torii.ErrSecretTooShort,
		},
		{
			name:    "missing storage",
			config:  torii.Config{Secret: testSecret},
			wantErr: torii.ErrStorageRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := torii.New(tt.config)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("New() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewDefaults(t *testing.T) {
	store, err := torii.New(torii.Config{
		Secret:  testSecret,
		Storage: memory.New(),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if store == nil {
		t.Fatal("New() returned nil store")
	}
}

func TestNewHonorsZeroSessionConfig(t *testing.T) {
	// A supplied config with zero durations means "always renew", not "use
	// defaults".
	store, err := torii.New(torii.Config{
		Secret:  testSecret,
		Storage: memory.New(),
		Session: &torii.SessionConfig{MaxAge: time.Hour},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx := context.Background()
	user, err := store.CreateUser(ctx, &torii.User{Email: "zero@example.com"})
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	result, err := store.StartSession(ctx, user.ID)
	if err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}

	session, err := store.UpdateSession(ctx, result.Token, false)
	if err != nil {
		t.Fatalf("UpdateSession() error = %v", err)
	}
	if session == nil {
		t.Error("zero UpdateAge did not renew; defaults were applied over a supplied config")
	}
}

// TestFullFlow walks a user through the whole lifecycle: sign-up,
// verification, provider link, session issue, renewal and sign-out.
func TestFullFlow(t *testing.T) {
	store, err := torii.New(torii.Config{
		Secret:  testSecret,
		Storage: memory.New(),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx := context.Background()

	user, err := store.CreateUser(ctx, &torii.User{
		Name:  "Alice",
		Email: "alice@example.com",
	})
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	// Email verification: issue a token, send it out of band, consume it.
	raw, err := torii.GenerateToken(32)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	if _, err := store.CreateVerificationToken(ctx, user.Email, raw, time.Now().UTC().Add(time.Hour)); err != nil {
		t.Fatalf("CreateVerificationToken() error = %v", err)
	}
	used, err := store.UseVerificationToken(ctx, user.Email, raw)
	if err != nil {
		t.Fatalf("UseVerificationToken() error = %v", err)
	}
	if used == nil {
		t.Fatal("verification token rejected")
	}
	verified := time.Now().UTC()
	if _, err := store.UpdateUser(ctx, user.ID, torii.UserPatch{EmailVerified: &verified}); err != nil {
		t.Fatalf("UpdateUser() error = %v", err)
	}

	if _, err := store.LinkAccount(ctx, &torii.Account{
		UserID:            user.ID,
		Type:              "oauth",
		Provider:          "github",
		ProviderAccountID: "gh-alice",
	}); err != nil {
		t.Fatalf("LinkAccount() error = %v", err)
	}

	result, err := store.StartSession(ctx, user.ID)
	if err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}

	data, err := store.GetSessionAndUser(ctx, result.Token)
	if err != nil {
		t.Fatalf("GetSessionAndUser() error = %v", err)
	}
	if data == nil || data.User.ID != user.ID {
		t.Fatalf("GetSessionAndUser() = %+v, want user %q", data, user.ID)
	}
	if data.User.EmailVerified == nil {
		t.Error("EmailVerified not set after verification flow")
	}

	renewed, err := store.UpdateSession(ctx, result.Token, true)
	if err != nil {
		t.Fatalf("UpdateSession() error = %v", err)
	}
	if renewed == nil {
		t.Fatal("forced renewal returned nil")
	}
	if !renewed.ExpiresAt.After(result.Session.ExpiresAt.Add(-time.Second)) {
		t.Error("renewal did not extend the expiry")
	}

	if err := store.DeleteSession(ctx, result.Token); err != nil {
		t.Fatalf("DeleteSession() error = %v", err)
	}
	data, err = store.GetSessionAndUser(ctx, result.Token)
	if err != nil {
		t.Fatalf("GetSessionAndUser() error = %v", err)
	}
	if data != nil {
		t.Error("session still resolves after sign-out")
	}
}
