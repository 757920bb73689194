package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/giantswarm/housekeep/internal/orchestrator"
	"github.com/giantswarm/housekeep/pkg/logging"
)

var (
	issueStates   = []string{"opened", "closed", "all"}
	logFormats    = []string{"text", "json"}
	requiredField = "is required"
)

// ValidationError is a single problem with one configuration field.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors collects every problem found in one configuration.
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	switch len(ve) {
	case 0:
		return "no validation errors"
	case 1:
		return ve[0].Error()
	}
	parts := make([]string, len(ve))
	for i, e := range ve {
		parts[i] = e.Error()
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add records a problem with field. The optional value is the offending input.
func (ve *ValidationErrors) Add(field, message string, value ...interface{}) {
	e := ValidationError{Field: field, Message: message}
	if len(value) > 0 {
		e.Value = value[0]
	}
	*ve = append(*ve, e)
}

func (ve *ValidationErrors) required(field, value string) {
	if strings.TrimSpace(value) == "" {
		ve.Add(field, requiredField, value)
	}
}

func (ve *ValidationErrors) oneOf(field, value string, allowed []string) {
	if !slices.Contains(allowed, value) {
		ve.Add(field, "must be one of: "+strings.Join(allowed, ", "), value)
	}
}

func (ve *ValidationErrors) nonNegative(field string, value time.Duration) {
	if value < 0 {
		ve.Add(field, "must not be negative", value)
	}
}

// Validate checks cfg and returns ValidationErrors listing every problem, or
// nil. Label rules are not checked here: invalid specs are skipped with a
// warning when the rule set is built.
func Validate(cfg HousekeepConfig) error {
	var errs ValidationErrors

	gl := cfg.GitLab
	errs.required("gitlab.url", gl.URL)
	if gl.URL != "" {
		if u, err := url.Parse(gl.URL); err != nil || u.Scheme == "" || u.Host == "" {
			errs.Add("gitlab.url", "must be an absolute URL", gl.URL)
		}
	}
	errs.required("gitlab.project", gl.Project)
	errs.required("gitlab.tokenEnv", gl.TokenEnv)

	if cfg.Rules.FallbackAssignee < 0 {
		errs.Add("rules.fallbackAssignee", "must be a user ID", cfg.Rules.FallbackAssignee)
	}
	if cfg.Rules.DueMilestone.Enabled {
		errs.required("rules.dueMilestone.titleFormat", cfg.Rules.DueMilestone.TitleFormat)
	}

	run := cfg.Run
	errs.oneOf("run.state", run.State, issueStates)
	for field, d := range map[string]time.Duration{
		"run.minIdle":      run.MinIdle,
		"run.interval":     run.Interval,
		"run.pastDueAfter": run.PastDueAfter,
		"run.noticeTTL":    run.NoticeTTL,
	} {
		errs.nonNegative(field, d)
	}
	if _, err := orchestrator.CompileWhere(run.Where); err != nil {
		errs.Add("run.where", err.Error(), run.Where)
	}

	if cfg.Tasks.CollectionDir != "" {
		errs.required("tasks.label", cfg.Tasks.Label)
	}

	if _, err := logging.ParseLevel(cfg.Logging.Level); err != nil {
		errs.Add("logging.level", err.Error(), cfg.Logging.Level)
	}
	errs.oneOf("logging.format", cfg.Logging.Format, logFormats)

	if !errs.HasErrors() {
		return nil
	}
	slices.SortStableFunc(errs, func(a, b ValidationError) int { return strings.Compare(a.Field, b.Field) })
	return errs
}

// FormatValidationError prefixes err with the configuration path.
func FormatValidationError(path string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("invalid configuration %s: %w", path, err)
}
