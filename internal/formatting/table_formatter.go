package formatting

import (
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/giantswarm/housekeep/internal/orchestrator"
	"github.com/giantswarm/housekeep/internal/rules"
	hkstrings "github.com/giantswarm/housekeep/pkg/strings"
)

// TableFormatter provides rich table output formatting
type TableFormatter struct {
	options Options
}

// NewTableFormatter creates a new table formatter
func NewTableFormatter(options Options) Formatter {
	return &TableFormatter{
		options: options,
	}
}

// FormatRunSummary renders one row per issue followed by the rule counters.
func (f *TableFormatter) FormatRunSummary(summary orchestrator.RunSummary) string {
	var b strings.Builder

	reports := visibleReports(summary.Reports, f.options.Quiet)
	if len(reports) == 0 {
		b.WriteString(f.formatEmptyMessage("✅", "No issues needed changes"))
	} else {
		b.WriteString(f.reportsTable(reports))
	}
	b.WriteString("\n\n")

	status := "completed"
	if summary.Interrupted {
		status = "interrupted"
	}
	b.WriteString(fmt.Sprintf("Run %s %s: %d processed, %d changed, %d failed, %d filtered (%s)\n",
		summary.RunID, status, summary.Processed, summary.Changed, summary.Failed, summary.Filtered,
		summary.FinishedAt.Sub(summary.StartedAt).Round(time.Millisecond)))

	if len(summary.Metrics.PerRule) > 0 {
		b.WriteString("\n")
		b.WriteString(f.metricsTable(summary.Metrics))
	}
	return b.String()
}

// FormatReport renders the changes of a single issue.
func (f *TableFormatter) FormatReport(report orchestrator.Report) string {
	t := f.newTable()
	t.SetTitle(fmt.Sprintf("#%d %s", report.IID, report.Title))
	t.AppendHeader(table.Row{f.header("CHANGE"), f.header("VALUE")})
	for _, c := range report.Changes {
		t.AppendRow(table.Row{string(c.Key), c.Value})
	}
	if report.Error != "" {
		t.AppendFooter(table.Row{"error", f.colorize(report.Error, text.FgRed)})
	} else if !report.Changed() {
		t.AppendFooter(table.Row{"", "no changes"})
	}
	return t.Render()
}

// FormatRules renders label groups, categories and closed labels.
func (f *TableFormatter) FormatRules(set rules.Set) string {
	if set.IsEmpty() {
		return f.formatEmptyMessage("📋", "No label rules configured")
	}

	var sections []string
	if len(set.Groups) > 0 {
		t := f.newTable()
		t.SetTitle("Label groups")
		t.AppendHeader(table.Row{f.header("LABELS"), f.header("DEFAULT"), f.header("KEPT WHEN CLOSED")})
		for _, g := range set.Groups {
			def, _ := g.Default()
			var kept []string
			for _, m := range g.Members {
				if m.IsClosedIncluded {
					kept = append(kept, m.Name)
				}
			}
			t.AppendRow(table.Row{strings.Join(g.Names(), ", "), def, strings.Join(kept, ", ")})
		}
		sections = append(sections, t.Render())
	}
	if len(set.Categories) > 0 {
		t := f.newTable()
		t.SetTitle("Label categories")
		t.AppendHeader(table.Row{f.header("WHEN ANY OF"), f.header("CATEGORY")})
		for _, c := range set.Categories {
			t.AppendRow(table.Row{strings.Join(c.Expected, ", "), c.Category})
		}
		sections = append(sections, t.Render())
	}
	if len(set.ClosedLabels) > 0 {
		sections = append(sections, "Removed on close: "+strings.Join(set.ClosedLabels, ", "))
	}
	return strings.Join(sections, "\n\n")
}

// FormatData falls back to indented JSON for arbitrary values.
func (f *TableFormatter) FormatData(data interface{}) string {
	return PrettyJSON(data)
}

// SetOptions updates the formatter options
func (f *TableFormatter) SetOptions(options Options) {
	f.options = options
}

// GetOptions returns the current formatter options
func (f *TableFormatter) GetOptions() Options {
	return f.options
}

func (f *TableFormatter) reportsTable(reports []orchestrator.Report) string {
	t := f.newTable()
	t.AppendHeader(table.Row{f.header("ISSUE"), f.header("TITLE"), f.header("CHANGES")})
	for _, r := range reports {
		changes := strings.Join(r.Strings(), "\n")
		switch {
		case r.Error != "":
			changes = strings.TrimSpace(changes + "\n" + f.colorize("error: "+r.Error, text.FgRed))
		case !r.Changed():
			changes = f.colorize("-", text.FgHiBlack)
		}
		t.AppendRow(table.Row{fmt.Sprintf("#%d", r.IID), hkstrings.Truncate(r.Title, hkstrings.DefaultTitleMaxLen), changes})
	}
	return t.Render()
}

func (f *TableFormatter) metricsTable(m orchestrator.MetricsSummary) string {
	t := f.newTable()
	t.AppendHeader(table.Row{f.header("RULE"), f.header("CHANGES"), f.header("FAILURES")})
	for _, r := range m.PerRule {
		failures := fmt.Sprintf("%d", r.Failures)
		if r.Failures > 0 {
			failures = f.colorize(failures, text.FgRed)
		}
		t.AppendRow(table.Row{r.Rule, r.Changes, failures})
	}
	t.AppendFooter(table.Row{"total", m.TotalChanges, m.TotalFailures})
	return t.Render()
}

func (f *TableFormatter) newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	if !f.options.Color {
		t.Style().Color = table.ColorOptions{}
	}
	return t
}

func (f *TableFormatter) header(s string) string {
	return f.colorize(s, text.Bold)
}

func (f *TableFormatter) colorize(s string, c text.Color) string {
	if !f.options.Color {
		return s
	}
	return text.Colors{c}.Sprint(s)
}

func (f *TableFormatter) formatEmptyMessage(icon, message string) string {
	return fmt.Sprintf("%s %s", icon, message)
}
