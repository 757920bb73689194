package cmd

import (
	"context"
	"errors"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"github.com/giantswarm/housekeep/internal/config"
	"github.com/giantswarm/housekeep/internal/orchestrator"
	"github.com/giantswarm/housekeep/pkg/logging"
)

type daemonOptions struct {
	pass       *passRunner
	interval   time.Duration
	configPath string

	// notify reports service state to systemd. Tests replace it.
	notify func(state string)
}

func sdNotify(state string) {
	if _, err := daemon.SdNotify(false, state); err != nil {
		logging.Warn("Daemon", "sd_notify %s failed: %v", state, err)
	}
}

// runDaemon runs passes every interval until ctx is cancelled. Pass failures
// are logged and do not stop the loop.
func runDaemon(ctx context.Context, opts *daemonOptions) error {
	notify := opts.notify
	if notify == nil {
		notify = sdNotify
	}

	changes := make(chan config.ChangeEvent, 1)
	if path := resolveConfigPath(opts.configPath); path != "" {
		watcher, err := config.NewWatcher(path, 0)
		if err != nil {
			logging.Warn("Daemon", "Configuration changes will not be picked up: %v", err)
		} else if err := watcher.Start(ctx, changes); err != nil {
			logging.Warn("Daemon", "Configuration changes will not be picked up: %v", err)
		} else {
			defer func() { _ = watcher.Stop() }()
		}
	}

	if wd, err := daemon.SdWatchdogEnabled(false); err == nil && wd > 0 {
		go watchdog(ctx, wd/2, notify)
	}

	notify(daemon.SdNotifyReady)
	logging.Info("Daemon", "Running a pass every %s", opts.interval)

	timer := time.NewTimer(0)
	defer timer.Stop()
	reload := false

	for {
		select {
		case <-ctx.Done():
			notify(daemon.SdNotifyStopping)
			logging.Info("Daemon", "Shutting down")
			return nil

		case ev := <-changes:
			if ev.Removed {
				logging.Warn("Daemon", "Configuration file %s was removed, keeping current rules", ev.FilePath)
				continue
			}
			// Rules are swapped between passes only.
			reload = true

		case <-timer.C:
			if reload {
				reloadRules(opts.pass.orch, opts.configPath)
				reload = false
			}
			opts.pass.orch.BeginPass()
			if err := opts.pass.orch.Milestones().Refresh(ctx); err != nil {
				logging.Warn("Daemon", "Failed to refresh milestones: %v", err)
			}
			if err := opts.pass.run(ctx); err != nil && !errors.Is(err, orchestrator.ErrIssuesFailed) {
				logging.Error("Daemon", err, "Pass failed")
			}
			timer.Reset(opts.interval)
		}
	}
}

func watchdog(ctx context.Context, every time.Duration, notify func(string)) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			notify(daemon.SdNotifyWatchdog)
		}
	}
}

// reloadRules re-reads the label rules. An invalid file keeps the old rules.
func reloadRules(orch *orchestrator.Orchestrator, configPath string) {
	cfg, err := config.LoadConfig(configPath)
	if err == nil {
		err = config.Validate(cfg)
	}
	if err != nil {
		logging.Error("Daemon", err, "Ignoring configuration change")
		return
	}

	set, err := cfg.RuleSet()
	if err != nil {
		logging.Warn("Daemon", "Skipping invalid label rules: %v", err)
	}
	orch.SetRules(set)
	logging.Info("Daemon", "Reloaded label rules: %d groups, %d categories, %d closed labels",
		len(set.Groups), len(set.Categories), len(set.ClosedLabels))
}

func resolveConfigPath(path string) string {
	if path != "" {
		return path
	}
	p, err := config.DefaultConfigPath()
	if err != nil {
		return ""
	}
	return p
}
