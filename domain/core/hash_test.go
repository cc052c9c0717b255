package core

import "testing"

func TestNewHashIsStable(t *testing.T) {
	a := NewHash([]byte("bakery rules v1"))
	b := NewHash([]byte("bakery rules v1"))
	if !a.Equals(b) {
		t.Error("Expected identical input to hash identically")
	}
	if a.Equals(NewHash([]byte("bakery rules v2"))) {
		t.Error("Expected different input to hash differently")
	}
	if a.IsEmpty() {
		t.Error("Expected non-empty hash")
	}
	if len(a.String()) != 64 {
		t.Errorf("Expected 64 hex characters, got %d", len(a.String()))
	}
}

func TestHashShort(t *testing.T) {
	h := NewHash([]byte("anything"))
	if len(h.Short()) != 12 {
		t.Errorf("Expected 12-character short form, got %q", h.Short())
	}
	if Hash("abc").Short() != "abc" {
		t.Error("Expected short hashes returned whole")
	}
}
