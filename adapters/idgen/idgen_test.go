package idgen

import (
	"testing"
)

func TestUUIDUnique(t *testing.T) {
	g := UUID{}
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := g.New()
		if len(id) != 36 {
			t.Fatalf("unexpected UUID format: %q", id)
		}
		if seen[id] {
			t.Fatalf("duplicate ID: %q", id)
		}
		seen[id] = true
	}
}

func TestSequential(t *testing.T) {
	g := NewSequential("user-")
	if got := g.New(); got != "user-1" {
		t.Errorf("first ID = %q", got)
	}
	if got := g.New(); got != "user-2" {
		t.Errorf("second ID = %q", got)
	}
}
