package core

import (
	"fmt"
	"testing"
	"time"
)

func sessionData(id string) *SessionData {
	return &SessionData{
		User:    &User{ID: "user-" + id},
		Session: &Session{ID: id, TokenHash: "hash-" + id},
	}
}

func TestCacheSetGet(t *testing.T) {
	cache := NewInMemoryCache(CacheConfig{})

	data := sessionData("s1")
	if err := cache.Set("hash-s1", data); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, err := cache.Get("hash-s1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Session.ID != "s1" {
		t.Errorf("Get() session ID = %q, want %q", got.Session.ID, "s1")
	}
}

func TestCacheMiss(t *testing.T) {
	cache := NewInMemoryCache(CacheConfig{})

	if _, err := cache.Get("absent"); err != ErrCacheNotFound {
		t.Errorf("Get() error = %v, want ErrCacheNotFound", err)
	}
}

func TestCacheTTLExpiry(t *testing.T) {
	cache := NewInMemoryCache(CacheConfig{TTL: time.Millisecond})

	if err := cache.Set("hash-s1", sessionData("s1")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	time.Sleep(5 * time.Millisecond)

	if _, err := cache.Get("hash-s1"); err != ErrCacheNotFound {
		t.Errorf("Get() after TTL error = %v, want ErrCacheNotFound", err)
	}
	if cache.Len() != 0 {
		t.Errorf("Len() after TTL expiry = %d, want 0", cache.Len())
	}
}

func TestCacheDelete(t *testing.T) {
	cache := NewInMemoryCache(CacheConfig{})

	cache.Set("hash-s1", sessionData("s1"))
	if err := cache.Delete("hash-s1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := cache.Get("hash-s1"); err != ErrCacheNotFound {
		t.Errorf("Get() after Delete error = %v, want ErrCacheNotFound", err)
	}

	// Deleting an absent entry is fine.
	if err := cache.Delete("hash-s1"); err != nil {
		t.Errorf("Delete() absent error = %v", err)
	}
}

func TestCacheClear(t *testing.T) {
	cache := NewInMemoryCache(CacheConfig{})

	for i := 0; i < 10; i++ {
		cache.Set(fmt.Sprintf("hash-%d", i), sessionData(fmt.Sprintf("s%d", i)))
	}
	if err := cache.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if cache.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", cache.Len())
	}
}

func TestCacheEviction(t *testing.T) {
	cache := NewInMemoryCache(CacheConfig{MaxSize: 3})

	for i := 0; i < 5; i++ {
		cache.Set(fmt.Sprintf("hash-%d", i), sessionData(fmt.Sprintf("s%d", i)))
	}

	if cache.Len() > 3 {
		t.Errorf("Len() = %d, want at most 3", cache.Len())
	}
	if stats := cache.Stats(); stats.Evictions == 0 {
		t.Error("Stats().Evictions = 0, want > 0")
	}
}

func TestCacheStats(t *testing.T) {
	cache := NewInMemoryCache(CacheConfig{})

	cache.Set("hash-s1", sessionData("s1"))
	cache.Get("hash-s1")
	cache.Get("absent")
	cache.Delete("hash-s1")

	stats := cache.Stats()
	if stats.Hits != 1 {
		t.Errorf("Hits = %d, want 1", stats.Hits)
	}
	if stats.Misses != 1 {
		t.Errorf("Misses = %d, want 1", stats.Misses)
	}
	if stats.Sets != 1 {
		t.Errorf("Sets = %d, want 1", stats.Sets)
	}
	if stats.Deletes != 1 {
		t.Errorf("Deletes = %d, want 1", stats.Deletes)
	}
}
