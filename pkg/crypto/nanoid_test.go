package crypto

import (
	"strings"
	"testing"
)

func TestNanoIDLengthAndAlphabet(t *testing.T) {
	gen := NewNanoID()

	id, err := gen.Generate()
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(id) != nanoidSize {
		t.Errorf("len(id) = %d, want %d", len(id), nanoidSize)
	}
	for _, c := range id {
		if !strings.ContainsRune(nanoidAlphabet, c) {
			t.Errorf("id contains %q, not in alphabet", c)
		}
	}
}

func TestNanoIDUniqueness(t *testing.T) {
	gen := NewNanoID()

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id, err := gen.Generate()
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q after %d generations", id, i)
		}
		seen[id] = true
	}
}
