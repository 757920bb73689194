package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() HousekeepConfig {
	cfg := GetDefaultConfig()
	cfg.GitLab.Project = "team/tasks"
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name           string
		mutate         func(*HousekeepConfig)
		expectedFields []string
	}{
		{
			name:   "valid",
			mutate: func(*HousekeepConfig) {},
		},
		{
			name:           "missing project",
			mutate:         func(c *HousekeepConfig) { c.GitLab.Project = "" },
			expectedFields: []string{"gitlab.project"},
		},
		{
			name:           "relative url",
			mutate:         func(c *HousekeepConfig) { c.GitLab.URL = "gitlab.example.com" },
			expectedFields: []string{"gitlab.url"},
		},
		{
			name: "several problems are collected",
			mutate: func(c *HousekeepConfig) {
				c.Run.State = "open"
				c.Run.MinIdle = -time.Minute
				c.Logging.Format = "xml"
				c.Logging.Level = "loud"
			},
			expectedFields: []string{"run.state", "run.minIdle", "logging.level", "logging.format"},
		},
		{
			name:           "bad where expression",
			mutate:         func(c *HousekeepConfig) { c.Run.Where = "state ==" },
			expectedFields: []string{"run.where"},
		},
		{
			name: "milestone format required when enabled",
			mutate: func(c *HousekeepConfig) {
				c.Rules.DueMilestone.TitleFormat = ""
			},
			expectedFields: []string{"rules.dueMilestone.titleFormat"},
		},
		{
			name: "task collection needs a label",
			mutate: func(c *HousekeepConfig) {
				c.Tasks.CollectionDir = "/etc/housekeep/tasks"
				c.Tasks.Label = " "
			},
			expectedFields: []string{"tasks.label"},
		},
		{
			name:           "negative fallback assignee",
			mutate:         func(c *HousekeepConfig) { c.Rules.FallbackAssignee = -1 },
			expectedFields: []string{"rules.fallbackAssignee"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := Validate(cfg)
			if len(tt.expectedFields) == 0 {
				assert.NoError(t, err)
				return
			}

			var errs ValidationErrors
			require.True(t, errors.As(err, &errs))
			var fields []string
			for _, e := range errs {
				fields = append(fields, e.Field)
			}
			assert.ElementsMatch(t, tt.expectedFields, fields)
		})
	}
}

func TestValidationErrors_Error(t *testing.T) {
	var errs ValidationErrors
	assert.Equal(t, "no validation errors", errs.Error())
	assert.False(t, errs.HasErrors())

	errs.Add("a", "is required")
	assert.Equal(t, "field 'a': is required", errs.Error())

	errs.Add("b", "must be one of: x, y", "z")
	assert.Equal(t, "validation failed: field 'a': is required; field 'b': must be one of: x, y", errs.Error())
	assert.Equal(t, "z", errs[1].Value)
}

func TestRuleSet_SkipsInvalidRules(t *testing.T) {
	cfg := validConfig()
	cfg.Rules.LabelGroups = []string{"a*,b*", "c,d"}
	cfg.Rules.LabelCategories = []string{"lonely", "x,y"}

	set, err := cfg.RuleSet()
	require.Error(t, err)
	assert.Len(t, set.Groups, 1)
	assert.Len(t, set.Categories, 1)
	assert.NoError(t, Validate(cfg), "invalid rule specs never fail validation")
}
