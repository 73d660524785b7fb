package core

import (
	"testing"
)

// TestNewIDUniqueness tests that NewID generates unique identifiers
func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 10000

	ids := make(map[ID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewID()
		if id.IsEmpty() {
			t.Errorf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}

	if len(ids) != numIDs {
		t.Errorf("Expected %d unique IDs, got %d", numIDs, len(ids))
	}
}

// TestNewSourceIDStable tests that a source key always maps to the same ID
func TestNewSourceIDStable(t *testing.T) {
	a := NewSourceID("path:/data/credit.csv")
	b := NewSourceID("path:/data/credit.csv")
	c := NewSourceID("sha256:abc")

	if a != b {
		t.Errorf("Expected identical IDs for identical keys, got %s and %s", a, b)
	}
	if a == c {
		t.Errorf("Expected different IDs for different keys, both were %s", a)
	}
}

// TestIDIsEmpty tests ID emptiness check
func TestIDIsEmpty(t *testing.T) {
	emptyID := ID("")
	if !emptyID.IsEmpty() {
		t.Error("Expected empty ID to be empty")
	}

	nonEmptyID := ID("not-empty")
	if nonEmptyID.IsEmpty() {
		t.Error("Expected non-empty ID to not be empty")
	}
}

// TestParseSessionID tests session ID parsing
func TestParseSessionID(t *testing.T) {
	if _, err := ParseSessionID(""); err == nil {
		t.Error("Expected error for empty session ID")
	}
	if _, err := ParseSessionID("not-a-uuid"); err == nil {
		t.Error("Expected error for malformed session ID")
	}

	id := NewID()
	parsed, err := ParseSessionID(id.String())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if parsed.String() != id.String() {
		t.Errorf("Expected %s, got %s", id, parsed)
	}
}
