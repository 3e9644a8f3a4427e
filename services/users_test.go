package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/toriiauth/torii/core"
)

func TestCreateUserGeneratesID(t *testing.T) {
	store, _ := newTestStore(t, nil)
	ctx := context.Background()

	user := mustCreateUser(t, store)
	if user.ID == "" {
		t.Fatal("CreateUser() left ID empty")
	}
	if user.CreatedAt.IsZero() || user.UpdatedAt.IsZero() {
		t.Error("CreateUser() left timestamps zero")
	}

	got, err := store.GetUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	if got == nil || got.Email != user.Email {
		t.Errorf("GetUser() = %+v, want email %q", got, user.Email)
	}
}

func TestGetUserAbsent(t *testing.T) {
	store, _ := newTestStore(t, nil)
	ctx := context.Background()

	got, err := store.GetUser(ctx, "no-such-user")
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	if got != nil {
		t.Errorf("GetUser() = %+v, want nil", got)
	}
}

func TestGetUserByEmailEmptySkipsBackend(t *testing.T) {
	store, storage := newTestStore(t, nil)
	ctx := context.Background()

	got, err := store.GetUserByEmail(ctx, "")
	if err != nil {
		t.Fatalf("GetUserByEmail(\"\") error = %v", err)
	}
	if got != nil {
		t.Errorf("GetUserByEmail(\"\") = %+v, want nil", got)
	}
	// An empty email can never match; the backend must not even be asked.
	if storage.emailReads != 0 {
		t.Errorf("backend saw %d email lookups, want 0", storage.emailReads)
	}
}

func TestGetUserByEmail(t *testing.T) {
	store, _ := newTestStore(t, nil)
	ctx := context.Background()
	user := mustCreateUser(t, store)

	got, err := store.GetUserByEmail(ctx, user.Email)
	if err != nil {
		t.Fatalf("GetUserByEmail() error = %v", err)
	}
	if got == nil || got.ID != user.ID {
		t.Errorf("GetUserByEmail() = %+v, want ID %q", got, user.ID)
	}

	got, err = store.GetUserByEmail(ctx, "stranger@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail() error = %v", err)
	}
	if got != nil {
		t.Errorf("GetUserByEmail() = %+v, want nil for unknown email", got)
	}
}

func TestUpdateUser(t *testing.T) {
	store, _ := newTestStore(t, nil)
	ctx := context.Background()
	user := mustCreateUser(t, store)

	name := "Renamed"
	got, err := store.UpdateUser(ctx, user.ID, core.UserPatch{Name: &name})
	if err != nil {
		t.Fatalf("UpdateUser() error = %v", err)
	}
	if got.Name != name {
		t.Errorf("Name = %q, want %q", got.Name, name)
	}
	// Fields absent from the patch are untouched.
	if got.Email != user.Email {
		t.Errorf("Email = %q, want %q", got.Email, user.Email)
	}

	// Updating a missing user is an error, unlike lookups.
	if _, err := store.UpdateUser(ctx, "no-such-user", core.UserPatch{Name: &name}); err == nil {
		t.Error("UpdateUser() on a missing user should error")
	}
}

func TestUpdateUserInvalidatesSessionCache(t *testing.T) {
	cache := core.NewInMemoryCache(core.CacheConfig{})
	store, _ := newTestStore(t, cache)
	ctx := context.Background()
	user := mustCreateUser(t, store)

	result, err := store.StartSession(ctx, user.ID)
	if err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}
	// Populate the cache with the pre-update user.
	if _, err := store.GetSessionAndUser(ctx, result.Token); err != nil {
		t.Fatalf("GetSessionAndUser() error = %v", err)
	}

	name := "Renamed After Caching"
	verified := time.Now().UTC()
	if _, err := store.UpdateUser(ctx, user.ID, core.UserPatch{Name: &name, EmailVerified: &verified}); err != nil {
		t.Fatalf("UpdateUser() error = %v", err)
	}

	data, err := store.GetSessionAndUser(ctx, result.Token)
	if err != nil {
		t.Fatalf("GetSessionAndUser() error = %v", err)
	}
	if data == nil {
		t.Fatal("GetSessionAndUser() = nil for a live session")
	}
	if data.User.Name != name {
		t.Errorf("Name = %q after UpdateUser, want %q; stale user served", data.User.Name, name)
	}
	if data.User.EmailVerified == nil {
		t.Error("EmailVerified still unset after UpdateUser; stale user served")
	}
}

func TestDeleteUser(t *testing.T) {
	store, _ := newTestStore(t, nil)
	ctx := context.Background()
	user := mustCreateUser(t, store)

	result, err := store.StartSession(ctx, user.ID)
	if err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}

	if err := store.DeleteUser(ctx, user.ID); err != nil {
		t.Fatalf("DeleteUser() error = %v", err)
	}

	got, err := store.GetUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	if got != nil {
		t.Error("user still present after DeleteUser")
	}

	// The cascade took the session with it.
	data, err := store.GetSessionAndUser(ctx, result.Token)
	if err != nil {
		t.Fatalf("GetSessionAndUser() error = %v", err)
	}
	if data != nil {
		t.Error("session survived DeleteUser")
	}

	// Deleting an absent user is a no-op.
	if err := store.DeleteUser(ctx, user.ID); err != nil {
		t.Errorf("second DeleteUser() error = %v", err)
	}
}
