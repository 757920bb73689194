package formatting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/giantswarm/housekeep/internal/orchestrator"
)

func TestPrettyJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    interface{}
		expected string
	}{
		{
			name:     "issue changes",
			input:    map[string]interface{}{"labels_added": []string{"confidential"}, "assignee": "#7"},
			expected: "{\n  \"assignee\": \"#7\",\n  \"labels_added\": [\n    \"confidential\"\n  ]\n}",
		},
		{
			name:     "label list",
			input:    []string{"public", "obsolete"},
			expected: "[\n  \"public\",\n  \"obsolete\"\n]",
		},
		{
			name:     "issue id",
			input:    42,
			expected: "42",
		},
		{
			name:     "nil",
			input:    nil,
			expected: "null",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, PrettyJSON(tt.input))
		})
	}
}

func TestPrettyJSON_Report(t *testing.T) {
	out := PrettyJSON(orchestrator.Report{IID: 3, Title: "Old incident"})
	assert.Contains(t, out, "\n  ")
	assert.Contains(t, out, "Old incident")
}

func TestPrettyJSON_Unmarshalable(t *testing.T) {
	out := PrettyJSON(map[string]interface{}{"tick": make(chan time.Time)})
	assert.NotEmpty(t, out)
	assert.Contains(t, out, "map[tick:")
}
