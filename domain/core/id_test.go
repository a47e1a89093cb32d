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

// TestIDIsEmpty tests ID emptiness check
func TestIDIsEmpty(t *testing.T) {
	if !ID("").IsEmpty() {
		t.Error("Expected empty ID to be empty")
	}
	if ID("not-empty").IsEmpty() {
		t.Error("Expected non-empty ID to not be empty")
	}
}

// TestParseRunID tests run ID parsing
func TestParseRunID(t *testing.T) {
	valid := NewRunID()
	tests := []struct {
		input    string
		expected RunID
		hasError bool
	}{
		{valid.String(), valid, false},
		{"  " + valid.String() + " ", valid, false},
		{"", "", true},
		{"run-123", "", true},
	}

	for _, test := range tests {
		result, err := ParseRunID(test.input)
		if test.hasError && err == nil {
			t.Errorf("Expected error for input '%s', but got none", test.input)
		}
		if !test.hasError && err != nil {
			t.Errorf("Unexpected error for input '%s': %v", test.input, err)
		}
		if result != test.expected {
			t.Errorf("Expected %s, got %s", test.expected, result)
		}
	}
}

func TestRequestFingerprint_DomainOrderIrrelevant(t *testing.T) {
	a := RequestFingerprint("task", "goal", "", []string{"Физика", "Математика"})
	b := RequestFingerprint("task", "goal", "", []string{"Математика", "Физика"})
	if a != b {
		t.Errorf("fingerprints differ for permuted domains: %s vs %s", a, b)
	}

	c := RequestFingerprint("task", "other goal", "", []string{"Физика", "Математика"})
	if a == c {
		t.Error("different goals must produce different fingerprints")
	}
	if len(a.Short()) != 12 {
		t.Errorf("expected 12-char short hash, got %q", a.Short())
	}
}
