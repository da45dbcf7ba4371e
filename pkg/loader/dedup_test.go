package loader

import "testing"

func TestSeenSet(t *testing.T) {
	s := newSeenSet(3)
	for _, k := range []string{"a", "b", "c"} {
		if !s.Add(k) {
			t.Fatalf("Add(%q) = false for a new key", k)
		}
	}
	if s.Add("b") {
		t.Error("Add(b) = true for a duplicate")
	}

	// A fourth key evicts the oldest; the others stay.
	s.Add("d")
	for _, k := range []string{"b", "c", "d"} {
		if s.Add(k) {
			t.Errorf("Add(%q) = true, key was forgotten", k)
		}
	}
	if !s.Add("a") {
		t.Fatal("oldest key a was not evicted")
	}

	// Re-adding a pushed out b, the next oldest, and kept c.
	if s.Add("c") {
		t.Error("c was evicted before b")
	}
	if !s.Add("b") {
		t.Error("eviction is not first-in first-out")
	}
}

func TestSeenSetMinimumCapacity(t *testing.T) {
	s := newSeenSet(0)
	s.Add("a")
	if !s.Add("b") {
		t.Fatal("Add(b) = false")
	}
	if s.Add("b") {
		t.Error("capacity-1 set forgot its only key")
	}
	if !s.Add("a") {
		t.Error("capacity-1 set kept an evicted key")
	}
}
