package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/toriiauth/torii/adapters/memory"
	"github.com/toriiauth/torii/core"
	"github.com/toriiauth/torii/pkg/crypto"
	"github.com/toriiauth/torii/services"
)

func TestVerificationTokenRoundTrip(t *testing.T) {
	store, _ := newTestStore(t, nil)
	ctx := context.Background()

	raw, err := crypto.GenerateToken(32)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	created, err := store.CreateVerificationToken(ctx, "judy@example.com", raw, time.Now().UTC().Add(time.Hour))
	if err != nil {
		t.Fatalf("CreateVerificationToken() error = %v", err)
	}
	if created.TokenHash == raw {
		t.Fatal("raw token stored instead of its keyed hash")
	}

	used, err := store.UseVerificationToken(ctx, "judy@example.com", raw)
	if err != nil {
		t.Fatalf("UseVerificationToken() error = %v", err)
	}
	if used == nil {
		t.Fatal("UseVerificationToken() = nil for a valid token")
	}
	if used.Identifier != "judy@example.com" {
		t.Errorf("Identifier = %q", used.Identifier)
	}

	// Single use: the second attempt reports absent.
	used, err = store.UseVerificationToken(ctx, "judy@example.com", raw)
	if err != nil {
		t.Fatalf("second UseVerificationToken() error = %v", err)
	}
	if used != nil {
		t.Error("token was consumable twice")
	}
}

func TestVerificationTokenWrongSecret(t *testing.T) {
	storage := memory.New()
	storeA := services.NewStore("secret-aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", core.DefaultSessionConfig(), storage, nil, nil)
	storeB := services.NewStore("secret-bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", core.DefaultSessionConfig(), storage, nil, nil)
	ctx := context.Background()

	raw, err := crypto.GenerateToken(32)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	if _, err := storeA.CreateVerificationToken(ctx, "judy@example.com", raw, time.Now().UTC().Add(time.Hour)); err != nil {
		t.Fatalf("CreateVerificationToken() error = %v", err)
	}

	// Under a different secret the same raw token hashes elsewhere, so the
	// lookup misses; indistinguishable from a token that never existed.
	used, err := storeB.UseVerificationToken(ctx, "judy@example.com", raw)
	if err != nil {
		t.Fatalf("UseVerificationToken() error = %v", err)
	}
	if used != nil {
		t.Error("token created under one secret was consumed under another")
	}

	// The original store can still consume it.
	used, err = storeA.UseVerificationToken(ctx, "judy@example.com", raw)
	if err != nil {
		t.Fatalf("UseVerificationToken() error = %v", err)
	}
	if used == nil {
		t.Error("wrong-secret attempt destroyed the token")
	}
}

func TestVerificationTokenExpired(t *testing.T) {
	store, _ := newTestStore(t, nil)
	ctx := context.Background()

	raw, err := crypto.GenerateToken(32)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	if _, err := store.CreateVerificationToken(ctx, "judy@example.com", raw, time.Now().UTC().Add(-time.Minute)); err != nil {
		t.Fatalf("CreateVerificationToken() error = %v", err)
	}

	used, err := store.UseVerificationToken(ctx, "judy@example.com", raw)
	if err != nil {
		t.Fatalf("UseVerificationToken() error = %v", err)
	}
	if used != nil {
		t.Error("expired token was accepted")
	}

	// The expired token was consumed on the failed attempt; a retry is still
	// absent.
	used, err = store.UseVerificationToken(ctx, "judy@example.com", raw)
	if err != nil {
		t.Fatalf("UseVerificationToken() error = %v", err)
	}
	if used != nil {
		t.Error("expired token still present after a consume attempt")
	}
}

func TestVerificationTokenWrongIdentifier(t *testing.T) {
	store, _ := newTestStore(t, nil)
	ctx := context.Background()

	raw, err := crypto.GenerateToken(32)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	if _, err := store.CreateVerificationToken(ctx, "judy@example.com", raw, time.Now().UTC().Add(time.Hour)); err != nil {
		t.Fatalf("CreateVerificationToken() error = %v", err)
	}

	used, err := store.UseVerificationToken(ctx, "mallory@example.com", raw)
	if err != nil {
		t.Fatalf("UseVerificationToken() error = %v", err)
	}
	if used != nil {
		t.Error("token consumed under the wrong identifier")
	}
}
