package formatting

import (
	"encoding/json"
	"fmt"

	"github.com/giantswarm/housekeep/internal/orchestrator"
	"github.com/giantswarm/housekeep/internal/rules"
)

// JSONFormatter provides structured JSON output formatting
type JSONFormatter struct {
	options Options
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter(options Options) Formatter {
	return &JSONFormatter{
		options: options,
	}
}

// FormatRunSummary formats the run summary as JSON. Quiet drops unchanged
// issues from the report list.
func (f *JSONFormatter) FormatRunSummary(summary orchestrator.RunSummary) string {
	summary.Reports = visibleReports(summary.Reports, f.options.Quiet)
	if summary.Reports == nil {
		summary.Reports = []orchestrator.Report{}
	}
	return f.marshal(summary)
}

// FormatReport formats a single issue report as JSON
func (f *JSONFormatter) FormatReport(report orchestrator.Report) string {
	return f.marshal(report)
}

// FormatRules formats the label rules as JSON
func (f *JSONFormatter) FormatRules(set rules.Set) string {
	return f.marshal(set)
}

// FormatData formats arbitrary data as JSON
func (f *JSONFormatter) FormatData(data interface{}) string {
	return f.marshal(data)
}

// SetOptions updates the formatter options
func (f *JSONFormatter) SetOptions(options Options) {
	f.options = options
}

// GetOptions returns the current formatter options
func (f *JSONFormatter) GetOptions() Options {
	return f.options
}

// marshal is compact when quiet, indented otherwise
func (f *JSONFormatter) marshal(data interface{}) string {
	if !f.options.Quiet {
		return PrettyJSON(data)
	}
	out, err := json.Marshal(data)
	if err != nil {
		return fmt.Sprintf(`{"error": %q}`, err.Error())
	}
	return string(out)
}
