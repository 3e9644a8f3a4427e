package crypto

import (
	"strings"
	"testing"
)

func TestArgon2HashAndVerify(t *testing.T) {
	hasher := NewArgon2()

	hash, err := hasher.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Errorf("hash %q does not carry the argon2id prefix", hash)
	}

	ok, err := hasher.Verify("correct horse battery staple", hash)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if !ok {
		t.Error("Verify() = false for the right password")
	}

	ok, err = hasher.Verify("wrong password", hash)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if ok {
		t.Error("Verify() = true for the wrong password")
	}
}

func TestArgon2HashesAreSalted(t *testing.T) {
	hasher := NewArgon2()

	h1, err := hasher.Hash("same password")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	h2, err := hasher.Hash("same password")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if h1 == h2 {
		t.Error("two hashes of the same password are identical; salt missing")
	}
}

func TestArgon2VerifyMalformedHash(t *testing.T) {
	hasher := NewArgon2()

	tests := []struct {
		name string
		hash string
	}{
		{"empty", ""},
		{"garbage", "not-a-hash"},
		{"wrong algorithm", "$bcrypt$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA"},
		{"truncated", "$argon2id$v=19$m=65536,t=3,p=2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := hasher.Verify("password", tt.hash); err == nil {
				t.Error("Verify() with malformed hash should error")
			}
		})
	}
}
