package tui

import (
	"testing"
)

func TestFuzzyMatch(t *testing.T) {
	tests := []struct {
		text   string
		query  string
		expect bool
	}{
		{"kathaṃ jñānam avāpsyati", "jñāna", true},
		{"kathaṃ jñānam avāpsyati", "jnnm", false},
		{"kathaṃ jñānam avāpsyati", "jñnm", true},
		{"jñānam", "jñm", true},
		{"kathaṃ jñānam avāpsyati", "kth", true},
		{"1.12 mukto 'si", "1.12", true},
		{"1.12 mukto 'si", "112", true},
		{"1.12 mukto 'si", "121", false},
		{"Aṣṭāvakra", "aṣṭa", true},
		{"lambda", "lmbdx", false},
		{"", "a", false},
		{"abc", "", true},
	}
	for _, tt := range tests {
		got := fuzzyMatch(tt.text, tt.query)
		if got != tt.expect {
			t.Errorf("fuzzyMatch(%q, %q) = %v, want %v", tt.text, tt.query, got, tt.expect)
		}
	}
}
