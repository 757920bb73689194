package config

import (
	"time"

	"github.com/giantswarm/housekeep/internal/rules"
	"github.com/giantswarm/housekeep/internal/staterules"
	"github.com/giantswarm/housekeep/internal/tracker"
)

// HousekeepConfig is the top-level configuration structure for housekeep.
type HousekeepConfig struct {
	GitLab  GitLabConfig  `yaml:"gitlab"`
	Rules   RulesConfig   `yaml:"rules"`
	Run     RunConfig     `yaml:"run"`
	Tasks   TasksConfig   `yaml:"tasks"`
	Logging LoggingConfig `yaml:"logging"`
}

// GitLabConfig selects the GitLab instance and project.
type GitLabConfig struct {
	URL      string `yaml:"url"`      // Base URL of the GitLab instance
	Project  string `yaml:"project"`  // Project path ("group/project") or numeric ID
	TokenEnv string `yaml:"tokenEnv"` // Environment variable holding the access token
}

// RulesConfig holds all issue rules.
type RulesConfig struct {
	ObsoleteLabel    string             `yaml:"obsoleteLabel"`
	PublicLabel      string             `yaml:"publicLabel"`
	FallbackAssignee int                `yaml:"fallbackAssignee,omitempty"`
	ClosedLabels     []string           `yaml:"closedLabels,omitempty"`
	LabelGroups      []string           `yaml:"labelGroups,omitempty"`
	LabelCategories  []string           `yaml:"labelCategories,omitempty"`
	DueMilestone     DueMilestoneConfig `yaml:"dueMilestone"`
}

// DueMilestoneConfig controls the due-date milestone rule.
type DueMilestoneConfig struct {
	Enabled     bool   `yaml:"enabled"`
	TitleFormat string `yaml:"titleFormat"` // Go time layout used to name milestones
}

// RunConfig controls which issues are processed and how often.
type RunConfig struct {
	MinIdle      time.Duration `yaml:"minIdle"`            // Field rules skip issues updated more recently
	Interval     time.Duration `yaml:"interval,omitempty"` // Daemon pass interval; zero runs once
	State        string        `yaml:"state"`              // opened, closed or all
	Labels       []string      `yaml:"labels,omitempty"`   // Only issues carrying all of these
	Where        string        `yaml:"where,omitempty"`    // expr-lang filter expression
	PastDueAfter time.Duration `yaml:"pastDueAfter"`
	NoticeTTL    time.Duration `yaml:"noticeTTL"`
}

// TasksConfig controls the recurring task collection.
type TasksConfig struct {
	CollectionDir string `yaml:"collectionDir,omitempty"`
	Label         string `yaml:"label"` // Marks task issues
}

// LoggingConfig selects log verbosity and format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// StateConfig converts the rule settings for the state rules.
func (c HousekeepConfig) StateConfig() staterules.Config {
	return staterules.Config{
		ObsoleteLabel:        c.Rules.ObsoleteLabel,
		PublicLabel:          c.Rules.PublicLabel,
		FallbackAssignee:     c.Rules.FallbackAssignee,
		DueMilestone:         c.Rules.DueMilestone.Enabled,
		MilestoneTitleFormat: c.Rules.DueMilestone.TitleFormat,
		PastDueAfter:         c.Run.PastDueAfter,
		NoticeTTL:            c.Run.NoticeTTL,
	}
}

// RuleSet parses the label rules. Invalid specs are left out of the set and
// described by the returned error; the set is usable either way.
func (c HousekeepConfig) RuleSet() (rules.Set, error) {
	return rules.Parse(c.Rules.LabelGroups, c.Rules.LabelCategories, c.Rules.ClosedLabels)
}

// IssueFilter converts the run settings into a tracker filter.
func (c HousekeepConfig) IssueFilter() tracker.IssueFilter {
	return tracker.IssueFilter{
		State:  c.Run.State,
		Labels: append([]string(nil), c.Run.Labels...),
	}
}
