package cmd

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giantswarm/housekeep/internal/orchestrator"
	"github.com/giantswarm/housekeep/internal/testing/mock"
	"github.com/giantswarm/housekeep/internal/tracker"
)

func decodeSummary(t *testing.T, out string) orchestrator.RunSummary {
	t.Helper()
	var summary orchestrator.RunSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	return summary
}

func TestRunCommand_AppliesRules(t *testing.T) {
	tr := mock.NewTracker(nil)
	tr.AddIssue(obsoleteIssue(1))
	useTracker(t, tr)

	out, _, err := execute(newRunCmd(), "--config", writeConfig(t, testConfig), "-o", "json")
	require.NoError(t, err)

	summary := decodeSummary(t, out)
	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 1, summary.Changed)
	require.Len(t, summary.Reports, 1)
	assert.Equal(t, []string{
		"state=closed",
		"label_add=confidential",
		"label_remove=public",
		"discussion_locked=true",
		"confidential=true",
	}, summary.Reports[0].Strings())

	stored := tr.Issue(1)
	assert.Equal(t, tracker.StateClosed, stored.State)
	assert.True(t, stored.Confidential)
}

func TestRunCommand_DryRunWritesNothing(t *testing.T) {
	tr := mock.NewTracker(nil)
	tr.AddIssue(obsoleteIssue(1))
	useTracker(t, tr)

	out, _, err := execute(newRunCmd(), "--config", writeConfig(t, testConfig), "--dry-run", "-o", "console")
	require.NoError(t, err)

	assert.Contains(t, out, "#1 state=closed")
	assert.Equal(t, 0, tr.MutationCount())
	assert.Equal(t, tracker.StateOpened, tr.Issue(1).State)
}

func TestRunCommand_IssueFilter(t *testing.T) {
	tr := mock.NewTracker(nil)
	tr.AddIssue(obsoleteIssue(1))
	tr.AddIssue(obsoleteIssue(2))
	useTracker(t, tr)

	out, _, err := execute(newRunCmd(), "--config", writeConfig(t, testConfig), "--issue", "2", "-o", "json")
	require.NoError(t, err)

	summary := decodeSummary(t, out)
	require.Len(t, summary.Reports, 1)
	assert.Equal(t, 2, summary.Reports[0].IID)
	assert.Equal(t, tracker.StateOpened, tr.Issue(1).State)
}

func TestRunCommand_WhereFilter(t *testing.T) {
	tr := mock.NewTracker(nil)
	tr.AddIssue(obsoleteIssue(1))
	tr.AddIssue(obsoleteIssue(2))
	useTracker(t, tr)

	out, _, err := execute(newRunCmd(), "--config", writeConfig(t, testConfig), "--where", "iid == 1", "-o", "json")
	require.NoError(t, err)

	summary := decodeSummary(t, out)
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 1, summary.Filtered)
}

func TestRunCommand_ExitCodes(t *testing.T) {
	tests := []struct {
		name     string
		config   string
		args     []string
		failOn   string
		expected int
	}{
		{
			name:     "failing issue",
			config:   testConfig,
			failOn:   "UpdateIssue",
			expected: ExitCodeIssuesFailed,
		},
		{
			name:     "invalid state flag",
			config:   testConfig,
			args:     []string{"--state", "bogus"},
			expected: ExitCodeConfigError,
		},
		{
			name:     "unknown configuration key",
			config:   testConfig + "unknown: true\n",
			expected: ExitCodeConfigError,
		},
		{
			name:     "unknown output format",
			config:   testConfig,
			args:     []string{"-o", "xml"},
			expected: ExitCodeError,
		},
		{
			name:     "listing fails",
			config:   testConfig,
			failOn:   "ListIssues",
			expected: ExitCodeError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := mock.NewTracker(nil)
			tr.AddIssue(obsoleteIssue(1))
			if tt.failOn != "" {
				tr.FailOn(tt.failOn, errors.New("tracker down"))
			}
			useTracker(t, tr)

			args := append([]string{"--config", writeConfig(t, tt.config), "-o", "console"}, tt.args...)
			_, _, err := execute(newRunCmd(), args...)
			require.Error(t, err)
			assert.Equal(t, tt.expected, getExitCode(err))
		})
	}
}

func TestParseUpdatedAfter(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		value     string
		expected  time.Time
		expectErr bool
	}{
		{value: "2024-05-01T00:00:00Z", expected: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
		{value: "72h", expected: now.Add(-72 * time.Hour)},
		{value: "-1h", expectErr: true},
		{value: "yesterday", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, err := parseUpdatedAfter(tt.value, now)
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.expected.Equal(got))
		})
	}
}
