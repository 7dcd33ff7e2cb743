package utils

import (
	"strings"
	"testing"
)

func TestGeneratedIDPrefixes(t *testing.T) {
	tests := []struct {
		name   string
		gen    func() string
		prefix string
	}{
		{"consent", GenerateConsentID, "CONSENT-"},
		{"auth", GenerateAuthID, "AUTH-"},
		{"mapping", GenerateMappingID, "MAPPING-"},
		{"history", GenerateHistoryID, "HISTORY-"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := tt.gen()
			if !strings.HasPrefix(id, tt.prefix) {
				t.Errorf("Expected prefix %q, got %q", tt.prefix, id)
			}
			if !IsValidUUID(strings.TrimPrefix(id, tt.prefix)) {
				t.Errorf("Suffix of %q is not a UUID", id)
			}
		})
	}
}

func TestGenerateIDUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := GenerateID()
		if seen[id] {
			t.Fatalf("Duplicate ID generated: %s", id)
		}
		seen[id] = true
	}
}
