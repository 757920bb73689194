package formatting

import (
	"fmt"
	"strings"

	"github.com/giantswarm/housekeep/internal/orchestrator"
	"github.com/giantswarm/housekeep/internal/rules"
)

// ConsoleFormatter prints one line per issue, suited for logs and pipes.
type ConsoleFormatter struct {
	options Options
}

// NewConsoleFormatter creates a new console formatter
func NewConsoleFormatter(options Options) Formatter {
	return &ConsoleFormatter{
		options: options,
	}
}

// FormatRunSummary lists every report line followed by a totals line.
func (f *ConsoleFormatter) FormatRunSummary(summary orchestrator.RunSummary) string {
	var lines []string
	for _, r := range visibleReports(summary.Reports, f.options.Quiet) {
		lines = append(lines, f.FormatReport(r))
	}
	total := fmt.Sprintf("processed=%d changed=%d failed=%d filtered=%d",
		summary.Processed, summary.Changed, summary.Failed, summary.Filtered)
	if summary.Interrupted {
		total += " interrupted=true"
	}
	lines = append(lines, total)
	return strings.Join(lines, "\n")
}

// FormatReport renders "#iid key=value ..." or "#iid unchanged".
func (f *ConsoleFormatter) FormatReport(report orchestrator.Report) string {
	parts := []string{fmt.Sprintf("#%d", report.IID)}
	parts = append(parts, report.Strings()...)
	if report.Error != "" {
		parts = append(parts, fmt.Sprintf("error=%q", report.Error))
	} else if !report.Changed() {
		parts = append(parts, "unchanged")
	}
	return strings.Join(parts, " ")
}

// FormatRules renders rules back in their configuration syntax.
func (f *ConsoleFormatter) FormatRules(set rules.Set) string {
	if set.IsEmpty() {
		return "No label rules configured."
	}
	var lines []string
	for _, g := range set.Groups {
		lines = append(lines, "group    "+g.Spec)
	}
	for _, c := range set.Categories {
		lines = append(lines, "category "+c.Spec)
	}
	for _, l := range set.ClosedLabels {
		lines = append(lines, "closed   "+l)
	}
	return strings.Join(lines, "\n")
}

func (f *ConsoleFormatter) FormatData(data interface{}) string {
	if s, ok := data.(fmt.Stringer); ok {
		return s.String()
	}
	return PrettyJSON(data)
}

// SetOptions updates the formatter options
func (f *ConsoleFormatter) SetOptions(options Options) {
	f.options = options
}

// GetOptions returns the current formatter options
func (f *ConsoleFormatter) GetOptions() Options {
	return f.options
}
