// Package formatting renders run reports and rule sets for the CLI.
//
// Every formatter turns the same data into one output format: a rich table
// for humans, JSON or YAML for scripts, and a plain console listing with one
// line per changed issue.
package formatting

import (
	"github.com/giantswarm/housekeep/internal/orchestrator"
	"github.com/giantswarm/housekeep/internal/rules"
)

// OutputFormat represents the desired output format
type OutputFormat string

const (
	FormatConsole OutputFormat = "console" // One line per issue
	FormatJSON    OutputFormat = "json"    // JSON output
	FormatYAML    OutputFormat = "yaml"    // YAML output
	FormatTable   OutputFormat = "table"   // Rich table output
)

// ParseFormat validates a format name given on the command line.
func ParseFormat(name string) (OutputFormat, bool) {
	switch f := OutputFormat(name); f {
	case FormatConsole, FormatJSON, FormatYAML, FormatTable:
		return f, true
	default:
		return "", false
	}
}

// Options configures the formatter behavior
type Options struct {
	Format OutputFormat
	Quiet  bool // Only list issues that changed or failed
	Color  bool // Enable colored output
}

// Formatter renders housekeep results.
type Formatter interface {
	FormatRunSummary(summary orchestrator.RunSummary) string
	FormatReport(report orchestrator.Report) string
	FormatRules(set rules.Set) string

	// FormatData renders any value; used for ad-hoc command output.
	FormatData(data interface{}) string

	SetOptions(options Options)
	GetOptions() Options
}

// Factory creates formatters for different output formats
type Factory interface {
	CreateFormatter(options Options) Formatter
}

// NewFactory creates a new formatter factory
func NewFactory() Factory {
	return &factory{}
}

// factory implements the Factory interface
type factory struct{}

// CreateFormatter creates the appropriate formatter based on options
func (f *factory) CreateFormatter(options Options) Formatter {
	switch options.Format {
	case FormatJSON:
		return NewJSONFormatter(options)
	case FormatYAML:
		return NewYAMLFormatter(options)
	case FormatConsole:
		return NewConsoleFormatter(options)
	case FormatTable:
		fallthrough
	default:
		return NewTableFormatter(options)
	}
}

// visibleReports applies the quiet filter.
func visibleReports(reports []orchestrator.Report, quiet bool) []orchestrator.Report {
	if !quiet {
		return reports
	}
	var out []orchestrator.Report
	for _, r := range reports {
		if r.Changed() || r.Error != "" {
			out = append(out, r)
		}
	}
	return out
}
