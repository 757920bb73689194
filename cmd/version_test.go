package cmd

import (
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCmd(t *testing.T) {
	original := GetVersion()
	t.Cleanup(func() { SetVersion(original) })
	SetVersion("1.2.3-test")

	tests := []struct {
		name  string
		args  []string
		lines []string
	}{
		{
			name:  "full",
			lines: []string{"housekeep version 1.2.3-test", "built with " + runtime.Version()},
		},
		{
			name:  "short",
			args:  []string{"--short"},
			lines: []string{"1.2.3-test"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(newVersionCmd(), tt.args...)
			require.NoError(t, err)

			got := strings.Split(strings.TrimSpace(out), "\n")
			require.Len(t, got, len(tt.lines))
			for i, prefix := range tt.lines {
				assert.True(t, strings.HasPrefix(got[i], prefix), "line %d: %q", i, got[i])
			}
		})
	}
}

func TestVersionCmd_RejectsArgs(t *testing.T) {
	_, _, err := execute(newVersionCmd(), "extra")
	assert.Error(t, err)
}
