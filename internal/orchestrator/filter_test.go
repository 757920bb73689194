package orchestrator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giantswarm/housekeep/internal/tracker"
)

func TestWhereFilter(t *testing.T) {
	due := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	issue := tracker.Issue{
		IID:       7,
		Title:     "Flaky test",
		State:     tracker.StateOpened,
		Labels:    []string{"bug", "ci"},
		Assignees: []tracker.User{{ID: 1, Username: "alice"}},
		DueDate:   &due,
		UpdatedAt: now.Add(-72 * time.Hour),
	}

	tests := []struct {
		name     string
		where    string
		expected bool
	}{
		{name: "label membership", where: `"bug" in labels`, expected: true},
		{name: "missing label", where: `"feature" in labels`, expected: false},
		{name: "state and idle time", where: `state == "opened" && idleHours > 48`, expected: true},
		{name: "assignee", where: `"alice" in assignees`, expected: true},
		{name: "due date string", where: `dueDate != "" && dueDate < "2024-06-10"`, expected: true},
		{name: "no milestone", where: `milestone == ""`, expected: true},
		{name: "iid range", where: `iid > 10`, expected: false},
		{name: "title match", where: `title contains "Flaky"`, expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := CompileWhere(tt.where)
			require.NoError(t, err)
			assert.Equal(t, tt.where, f.String())

			matched, err := f.Match(issue, now)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, matched)
		})
	}
}

func TestCompileWhere_Empty(t *testing.T) {
	f, err := CompileWhere("  ")
	require.NoError(t, err)
	assert.Nil(t, f)

	matched, err := f.Match(tracker.Issue{IID: 1}, now)
	require.NoError(t, err)
	assert.True(t, matched)
	assert.Empty(t, f.String())
}

func TestCompileWhere_Invalid(t *testing.T) {
	for _, source := range []string{`state ==`, `unknownField == 1`, `iid + 1`} {
		_, err := CompileWhere(source)
		assert.Error(t, err, source)
	}
}
