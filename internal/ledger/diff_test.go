package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiffSummary(t *testing.T) {
	tests := []struct {
		name      string
		published string
		rendered  string
		expected  string
	}{
		{
			name:      "equal",
			published: "a\nb\n",
			rendered:  "a\nb\n",
			expected:  "",
		},
		{
			name:      "changed line",
			published: "a\nb\n",
			rendered:  "a\nc\n",
			expected:  "  a\n- b\n+ c\n",
		},
		{
			name:     "nothing published",
			rendered: "a\n",
			expected: "+ a\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DiffSummary(tt.published, tt.rendered))
		})
	}
}
