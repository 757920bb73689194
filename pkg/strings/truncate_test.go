package strings

import (
	"testing"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxLen   int
		expected string
	}{
		{
			name:     "short string unchanged",
			input:    "hello",
			maxLen:   10,
			expected: "hello",
		},
		{
			name:     "exact length unchanged",
			input:    "hello",
			maxLen:   5,
			expected: "hello",
		},
		{
			name:     "long title cut",
			input:    "Close obsolete issues automatically",
			maxLen:   14,
			expected: "Close obsolet…",
		},
		{
			name:     "no trailing space before the ellipsis",
			input:    "hello world again",
			maxLen:   7,
			expected: "hello…",
		},
		{
			name:     "newlines and tabs collapsed",
			input:    "hello\n\n\tworld",
			maxLen:   20,
			expected: "hello world",
		},
		{
			name:     "unicode safe",
			input:    "Überprüfung der Rückmeldungen",
			maxLen:   6,
			expected: "Überp…",
		},
		{
			name:     "tiny limit clamped",
			input:    "abcdef",
			maxLen:   0,
			expected: "a…",
		},
		{
			name:     "empty",
			input:    "",
			maxLen:   5,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.input, tt.maxLen); got != tt.expected {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.expected)
			}
		})
	}
}
