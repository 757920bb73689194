package formatting

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sigs.k8s.io/yaml"

	"github.com/giantswarm/housekeep/internal/events"
	"github.com/giantswarm/housekeep/internal/orchestrator"
	"github.com/giantswarm/housekeep/internal/rules"
)

func sampleSummary() orchestrator.RunSummary {
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	return orchestrator.RunSummary{
		RunID:      "run-1",
		StartedAt:  start,
		FinishedAt: start.Add(2 * time.Second),
		Processed:  3,
		Changed:    1,
		Failed:     1,
		Reports: []orchestrator.Report{
			{IID: 1, Title: "Obsolete thing", Changes: []events.Change{
				{Key: events.KeyState, Value: "closed"},
				{Key: events.KeyDiscussionLocked, Value: "true"},
			}},
			{IID: 2, Title: "Nothing to do"},
			{IID: 3, Title: "Broken", Error: "tracker down"},
		},
		Metrics: orchestrator.MetricsSummary{
			TotalChanges: 2,
			PerRule: []orchestrator.RuleMetricView{
				{Rule: orchestrator.RuleLock, Changes: 1},
				{Rule: orchestrator.RuleObsolete, Changes: 1},
			},
		},
	}
}

func TestFactory_CreateFormatter(t *testing.T) {
	factory := NewFactory()

	tests := []struct {
		format   OutputFormat
		expected Formatter
	}{
		{FormatJSON, &JSONFormatter{}},
		{FormatYAML, &YAMLFormatter{}},
		{FormatConsole, &ConsoleFormatter{}},
		{FormatTable, &TableFormatter{}},
		{"", &TableFormatter{}},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			f := factory.CreateFormatter(Options{Format: tt.format})
			assert.IsType(t, tt.expected, f)
			assert.Equal(t, tt.format, f.GetOptions().Format)
		})
	}
}

func TestParseFormat(t *testing.T) {
	f, ok := ParseFormat("yaml")
	assert.True(t, ok)
	assert.Equal(t, FormatYAML, f)

	_, ok = ParseFormat("xml")
	assert.False(t, ok)
}

func TestConsoleFormatter(t *testing.T) {
	f := NewConsoleFormatter(Options{Format: FormatConsole})

	out := f.FormatRunSummary(sampleSummary())
	assert.Equal(t,
		"#1 state=closed discussion_locked=true\n"+
			"#2 unchanged\n"+
			"#3 error=\"tracker down\"\n"+
			"processed=3 changed=1 failed=1 filtered=0",
		out)

	f.SetOptions(Options{Format: FormatConsole, Quiet: true})
	out = f.FormatRunSummary(sampleSummary())
	assert.NotContains(t, out, "#2")
	assert.Contains(t, out, "#3")
}

func TestConsoleFormatter_FormatRules(t *testing.T) {
	set, err := rules.Parse([]string{"a*,b"}, []string{"bug,type::bug"}, []string{"doing"})
	require.NoError(t, err)

	f := NewConsoleFormatter(Options{})
	assert.Equal(t, "group    a*,b\ncategory bug,type::bug\nclosed   doing", f.FormatRules(set))
	assert.Equal(t, "No label rules configured.", f.FormatRules(rules.Set{}))
}

func TestJSONFormatter_FormatRunSummary(t *testing.T) {
	f := NewJSONFormatter(Options{Format: FormatJSON, Quiet: true})

	var decoded struct {
		RunID   string `json:"runId"`
		Reports []struct {
			IID     int `json:"iid"`
			Changes []struct {
				Key   string `json:"key"`
				Value string `json:"value"`
			} `json:"changes"`
		} `json:"reports"`
	}
	out := f.FormatRunSummary(sampleSummary())
	assert.NotContains(t, out, "\n", "quiet output is compact")
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))

	assert.Equal(t, "run-1", decoded.RunID)
	require.Len(t, decoded.Reports, 2)
	assert.Equal(t, 1, decoded.Reports[0].IID)
	assert.Equal(t, "state", decoded.Reports[0].Changes[0].Key)
	assert.Equal(t, 3, decoded.Reports[1].IID)
}

func TestYAMLFormatter_UsesJSONFieldNames(t *testing.T) {
	f := NewYAMLFormatter(Options{Format: FormatYAML})

	out := f.FormatReport(sampleSummary().Reports[0])
	assert.Contains(t, out, "iid: 1")
	assert.Contains(t, out, "key: discussion_locked")

	var decoded map[string]interface{}
	require.NoError(t, yaml.Unmarshal([]byte(f.FormatRunSummary(orchestrator.RunSummary{})), &decoded))
	assert.Equal(t, []interface{}{}, decoded["reports"])
}

func TestTableFormatter_FormatRunSummary(t *testing.T) {
	f := NewTableFormatter(Options{Format: FormatTable})

	out := f.FormatRunSummary(sampleSummary())
	assert.Contains(t, out, "#1")
	assert.Contains(t, out, "state=closed")
	assert.Contains(t, out, "error: tracker down")
	assert.Contains(t, out, "Run run-1 completed: 3 processed, 1 changed, 1 failed, 0 filtered (2s)")
	assert.Contains(t, out, orchestrator.RuleObsolete)

	f.SetOptions(Options{Format: FormatTable, Quiet: true})
	out = f.FormatRunSummary(orchestrator.RunSummary{Interrupted: true})
	assert.Contains(t, out, "No issues needed changes")
	assert.Contains(t, out, "interrupted")
}

func TestTableFormatter_FormatRules(t *testing.T) {
	set, err := rules.Parse([]string{"public,confidential*+"}, []string{"bug,type::bug"}, []string{"doing"})
	require.NoError(t, err)

	out := NewTableFormatter(Options{}).FormatRules(set)
	assert.Contains(t, out, "public, confidential")
	assert.Contains(t, out, "type::bug")
	assert.Contains(t, out, "Removed on close: doing")
}
