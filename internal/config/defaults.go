package config

import (
	"github.com/giantswarm/housekeep/internal/orchestrator"
	"github.com/giantswarm/housekeep/internal/staterules"
	"github.com/giantswarm/housekeep/internal/tasks"
)

const (
	// DefaultGitLabURL is used when no instance is configured.
	DefaultGitLabURL = "https://gitlab.com"

	// DefaultTokenEnv names the environment variable holding the access token.
	DefaultTokenEnv = "HOUSEKEEP_TOKEN"
)

// GetDefaultConfig returns the default configuration.
func GetDefaultConfig() HousekeepConfig {
	state := staterules.DefaultConfig()
	return HousekeepConfig{
		GitLab: GitLabConfig{
			URL:      DefaultGitLabURL,
			TokenEnv: DefaultTokenEnv,
		},
		Rules: RulesConfig{
			ObsoleteLabel: state.ObsoleteLabel,
			PublicLabel:   state.PublicLabel,
			DueMilestone: DueMilestoneConfig{
				Enabled:     state.DueMilestone,
				TitleFormat: state.MilestoneTitleFormat,
			},
		},
		Run: RunConfig{
			MinIdle:      orchestrator.DefaultMinIdle,
			State:        "all",
			PastDueAfter: state.PastDueAfter,
			NoticeTTL:    state.NoticeTTL,
		},
		Tasks: TasksConfig{
			Label: tasks.DefaultLabel,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
