package orchestrator

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/giantswarm/housekeep/pkg/logging"
)

// Rule names used for metrics.
const (
	RuleObsolete     = "obsolete"
	RuleLabels       = "labels"
	RuleLock         = "lock"
	RuleConfidential = "confidential"
	RuleAssignee     = "assignee"
	RuleMilestone    = "milestone"
	RuleLedger       = "ledger"
	RulePastDue      = "past_due"
)

// Metrics tracks rule activity across runs.
//
// Counters are kept per rule so a summary can show which rules are busy and
// which ones keep failing.
type Metrics struct {
	mu sync.RWMutex

	rules map[string]*ruleMetrics

	totalIssues   int64
	totalChanged  int64
	totalFailed   int64
	totalChanges  int64
	totalFailures int64
}

// ruleMetrics holds counters for a single rule.
type ruleMetrics struct {
	Changes       int64
	Failures      int64
	LastChangeAt  time.Time
	LastFailureAt time.Time
}

// NewMetrics creates an empty metrics instance.
func NewMetrics() *Metrics {
	return &Metrics{
		rules: make(map[string]*ruleMetrics),
	}
}

func (m *Metrics) getOrCreate(rule string) *ruleMetrics {
	if rm, exists := m.rules[rule]; exists {
		return rm
	}
	rm := &ruleMetrics{}
	m.rules[rule] = rm
	return rm
}

// RecordChange records one change applied by rule.
func (m *Metrics) RecordChange(rule string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rm := m.getOrCreate(rule)
	rm.Changes++
	rm.LastChangeAt = time.Now()
	m.totalChanges++
}

// RecordFailure records a failed rule evaluation.
func (m *Metrics) RecordFailure(rule string, iid int, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rm := m.getOrCreate(rule)
	rm.Failures++
	rm.LastFailureAt = time.Now()
	m.totalFailures++

	logging.Warn("Metrics", "Rule %s failed on issue #%d: %s (failures: %d)", rule, iid, reason, rm.Failures)
}

// RecordIssue records a processed issue.
func (m *Metrics) RecordIssue(changed, failed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalIssues++
	if changed {
		m.totalChanged++
	}
	if failed {
		m.totalFailed++
	}
}

// MetricsSummary is a snapshot of the metrics.
type MetricsSummary struct {
	TotalIssues   int64            `json:"totalIssues"`
	TotalChanged  int64            `json:"totalChanged"`
	TotalFailed   int64            `json:"totalFailed"`
	TotalChanges  int64            `json:"totalChanges"`
	TotalFailures int64            `json:"totalFailures"`
	PerRule       []RuleMetricView `json:"perRule"`
}

// RuleMetricView is a read-only view of one rule's counters.
type RuleMetricView struct {
	Rule          string    `json:"rule"`
	Changes       int64     `json:"changes"`
	Failures      int64     `json:"failures"`
	LastChangeAt  time.Time `json:"lastChangeAt,omitempty"`
	LastFailureAt time.Time `json:"lastFailureAt,omitempty"`
}

// GetSummary returns the current metrics, rules sorted by name.
func (m *Metrics) GetSummary() MetricsSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	summary := MetricsSummary{
		TotalIssues:   m.totalIssues,
		TotalChanged:  m.totalChanged,
		TotalFailed:   m.totalFailed,
		TotalChanges:  m.totalChanges,
		TotalFailures: m.totalFailures,
		PerRule:       make([]RuleMetricView, 0, len(m.rules)),
	}
	for name, rm := range m.rules {
		summary.PerRule = append(summary.PerRule, RuleMetricView{
			Rule:          name,
			Changes:       rm.Changes,
			Failures:      rm.Failures,
			LastChangeAt:  rm.LastChangeAt,
			LastFailureAt: rm.LastFailureAt,
		})
	}
	slices.SortFunc(summary.PerRule, func(a, b RuleMetricView) int {
		return strings.Compare(a.Rule, b.Rule)
	})
	return summary
}

// GetRuleMetrics returns the view of a single rule.
func (m *Metrics) GetRuleMetrics(rule string) (RuleMetricView, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rm, ok := m.rules[rule]
	if !ok {
		return RuleMetricView{}, false
	}
	return RuleMetricView{
		Rule:          rule,
		Changes:       rm.Changes,
		Failures:      rm.Failures,
		LastChangeAt:  rm.LastChangeAt,
		LastFailureAt: rm.LastFailureAt,
	}, true
}

// Reset clears all counters.
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rules = make(map[string]*ruleMetrics)
	m.totalIssues = 0
	m.totalChanged = 0
	m.totalFailed = 0
	m.totalChanges = 0
	m.totalFailures = 0
}
