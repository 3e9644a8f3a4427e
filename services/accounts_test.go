package services_test

import (
	"context"
	"strings"
	"testing"

	"github.com/toriiauth/torii/adapters/memory"
	"github.com/toriiauth/torii/core"
	"github.com/toriiauth/torii/pkg/crypto"
	"github.com/toriiauth/torii/services"
)

func TestLinkAccount(t *testing.T) {
	store, _ := newTestStore(t, nil)
	ctx := context.Background()
	user := mustCreateUser(t, store)

	account, err := store.LinkAccount(ctx, &core.Account{
		UserID:            user.ID,
		Type:              "oauth",
		Provider:          "github",
		ProviderAccountID: "gh-42",
	})
	if err != nil {
		t.Fatalf("LinkAccount() error = %v", err)
	}
	if account.ID == "" {
		t.Error("LinkAccount() left ID empty")
	}

	got, err := store.GetUserByAccount(ctx, "github", "gh-42")
	if err != nil {
		t.Fatalf("GetUserByAccount() error = %v", err)
	}
	if got == nil || got.ID != user.ID {
		t.Errorf("GetUserByAccount() = %+v, want user %q", got, user.ID)
	}

	got, err = store.GetUserByAccount(ctx, "github", "gh-unknown")
	if err != nil {
		t.Fatalf("GetUserByAccount() error = %v", err)
	}
	if got != nil {
		t.Errorf("GetUserByAccount() = %+v, want nil for unknown linkage", got)
	}
}

func TestLinkAccountHashesCredentialsPassword(t *testing.T) {
	hasher := crypto.NewArgon2()
	storage := memory.New()
	store := services.NewStore(testSecret, core.DefaultSessionConfig(), storage, nil, hasher)
	ctx := context.Background()

	user, err := store.CreateUser(ctx, &core.User{Email: "creds@example.com"})
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	plaintext := "hunter2hunter2"
	password := plaintext
	account, err := store.LinkAccount(ctx, &core.Account{
		UserID:            user.ID,
		Type:              "credentials",
		Provider:          "credentials",
		ProviderAccountID: user.ID,
		Password:          &password,
	})
	if err != nil {
		t.Fatalf("LinkAccount() error = %v", err)
	}

	stored, err := storage.GetAccountByProvider(ctx, "credentials", user.ID)
	if err != nil {
		t.Fatalf("GetAccountByProvider() error = %v", err)
	}
	if stored.Password == nil || *stored.Password == plaintext {
		t.Fatal("plaintext password reached storage")
	}
	if !strings.HasPrefix(*stored.Password, "$argon2id$") {
		t.Errorf("stored password %q is not an argon2id hash", *stored.Password)
	}

	ok, err := hasher.Verify(plaintext, *account.Password)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if !ok {
		t.Error("stored hash does not verify against the original password")
	}
}

func TestLinkAccountLeavesOAuthTokensAlone(t *testing.T) {
	store, storage := newTestStore(t, nil)
	ctx := context.Background()
	user := mustCreateUser(t, store)

	accessToken := "provider-access-token"
	if _, err := store.LinkAccount(ctx, &core.Account{
		UserID:            user.ID,
		Type:              "oauth",
		Provider:          "google",
		ProviderAccountID: "g-7",
		AccessToken:       &accessToken,
	}); err != nil {
		t.Fatalf("LinkAccount() error = %v", err)
	}

	stored, err := storage.Storage.GetAccountByProvider(ctx, "google", "g-7")
	if err != nil {
		t.Fatalf("GetAccountByProvider() error = %v", err)
	}
	if stored.AccessToken == nil || *stored.AccessToken != accessToken {
		t.Error("oauth access token was altered on the way to storage")
	}
}

func TestUnlinkAccount(t *testing.T) {
	store, _ := newTestStore(t, nil)
	ctx := context.Background()
	user := mustCreateUser(t, store)

	if _, err := store.LinkAccount(ctx, &core.Account{
		UserID:            user.ID,
		Type:              "oauth",
		Provider:          "github",
		ProviderAccountID: "gh-42",
	}); err != nil {
		t.Fatalf("LinkAccount() error = %v", err)
	}

	if err := store.UnlinkAccount(ctx, "github", "gh-42"); err != nil {
		t.Fatalf("UnlinkAccount() error = %v", err)
	}
	got, err := store.GetUserByAccount(ctx, "github", "gh-42")
	if err != nil {
		t.Fatalf("GetUserByAccount() error = %v", err)
	}
	if got != nil {
		t.Error("linkage still resolves after UnlinkAccount")
	}

	// Unlinking an absent pair is a no-op.
	if err := store.UnlinkAccount(ctx, "github", "gh-42"); err != nil {
		t.Errorf("second UnlinkAccount() error = %v", err)
	}
}
