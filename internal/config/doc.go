// Package config loads and validates the housekeep configuration.
//
// Configuration is a single YAML file, by default
// ~/.config/housekeep/config.yaml. Defaults are applied first and the file is
// overlaid on top, so a file only needs the settings that differ:
//
//	gitlab:
//	  url: https://gitlab.example.com
//	  project: team/tasks
//	  tokenEnv: HOUSEKEEP_TOKEN
//	rules:
//	  obsoleteLabel: obsolete
//	  publicLabel: public
//	  fallbackAssignee: 42
//	  closedLabels: [in-progress, public]
//	  labelGroups:
//	    - "prio::high,prio::medium*,prio::low"
//	    - "public,confidential*+"
//	  labelCategories:
//	    - "bug,regression,type::defect"
//	  dueMilestone:
//	    enabled: true
//	    titleFormat: "2006-01"
//	run:
//	  minIdle: 15m
//	  interval: 10m
//	  state: all
//	  where: '"bug" in labels'
//	  pastDueAfter: 24h
//	  noticeTTL: 24h
//	logging:
//	  level: info
//	  format: text
//
// The access token is never stored in the file. It is read from the
// environment variable named by gitlab.tokenEnv.
//
// # Errors
//
// Problems reading or decoding the file are reported as ConfigurationError.
// Validate collects every invalid setting into ValidationErrors. Label rule
// specs that do not parse are skipped with a warning by RuleSet and never
// fail loading.
//
// # Reloading
//
// Watcher observes the configuration file with fsnotify so a long-running
// daemon can pick up rule changes between passes.
package config
