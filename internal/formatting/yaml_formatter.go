package formatting

import (
	"fmt"

	"sigs.k8s.io/yaml"

	"github.com/giantswarm/housekeep/internal/orchestrator"
	"github.com/giantswarm/housekeep/internal/rules"
)

// YAMLFormatter provides YAML output formatting. It goes through the JSON
// tags of the rendered types so both formats share one field naming.
type YAMLFormatter struct {
	options Options
}

// NewYAMLFormatter creates a new YAML formatter
func NewYAMLFormatter(options Options) Formatter {
	return &YAMLFormatter{
		options: options,
	}
}

func (f *YAMLFormatter) FormatRunSummary(summary orchestrator.RunSummary) string {
	summary.Reports = visibleReports(summary.Reports, f.options.Quiet)
	if summary.Reports == nil {
		summary.Reports = []orchestrator.Report{}
	}
	return f.marshal(summary)
}

func (f *YAMLFormatter) FormatReport(report orchestrator.Report) string {
	return f.marshal(report)
}

func (f *YAMLFormatter) FormatRules(set rules.Set) string {
	return f.marshal(set)
}

func (f *YAMLFormatter) FormatData(data interface{}) string {
	return f.marshal(data)
}

// SetOptions updates the formatter options
func (f *YAMLFormatter) SetOptions(options Options) {
	f.options = options
}

// GetOptions returns the current formatter options
func (f *YAMLFormatter) GetOptions() Options {
	return f.options
}

func (f *YAMLFormatter) marshal(data interface{}) string {
	out, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Sprintf("error: %q\n", err.Error())
	}
	return string(out)
}
