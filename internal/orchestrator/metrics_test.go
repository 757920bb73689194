package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	m := NewMetrics()

	m.RecordChange(RuleLock)
	m.RecordChange(RuleLabels)
	m.RecordChange(RuleLabels)
	m.RecordFailure(RuleLabels, 3, "conflict")
	m.RecordIssue(true, false)
	m.RecordIssue(false, true)

	summary := m.GetSummary()
	assert.Equal(t, int64(2), summary.TotalIssues)
	assert.Equal(t, int64(1), summary.TotalChanged)
	assert.Equal(t, int64(1), summary.TotalFailed)
	assert.Equal(t, int64(3), summary.TotalChanges)
	assert.Equal(t, int64(1), summary.TotalFailures)

	require.Len(t, summary.PerRule, 2)
	assert.Equal(t, RuleLabels, summary.PerRule[0].Rule)
	assert.Equal(t, RuleLock, summary.PerRule[1].Rule)

	rm, ok := m.GetRuleMetrics(RuleLabels)
	require.True(t, ok)
	assert.Equal(t, int64(2), rm.Changes)
	assert.Equal(t, int64(1), rm.Failures)
	assert.False(t, rm.LastChangeAt.IsZero())
	assert.False(t, rm.LastFailureAt.IsZero())

	_, ok = m.GetRuleMetrics(RuleMilestone)
	assert.False(t, ok)

	m.Reset()
	assert.Equal(t, MetricsSummary{PerRule: []RuleMetricView{}}, m.GetSummary())
}
