package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/giantswarm/housekeep/internal/clock"
	"github.com/giantswarm/housekeep/internal/config"
	"github.com/giantswarm/housekeep/internal/orchestrator"
	"github.com/giantswarm/housekeep/internal/tracker"
	"github.com/giantswarm/housekeep/pkg/logging"
)

// commonOptions are the flags shared by every command talking to GitLab.
type commonOptions struct {
	configPath string
	debug      bool
	dryRun     bool
}

func (o *commonOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.configPath, "config", "", "Configuration file (default is $HOME/.config/housekeep/config.yaml)")
	cmd.Flags().BoolVar(&o.debug, "debug", false, "Enable debug logging")
}

func (o *commonOptions) addDryRunFlag(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&o.dryRun, "dry-run", false, "Report changes without writing to GitLab")
}

// newClient creates the tracker client. Tests replace it.
var newClient = func(cfg config.HousekeepConfig) (tracker.Client, error) {
	token, err := config.Token(cfg)
	if err != nil {
		return nil, err
	}
	return tracker.NewGitLabClient(cfg.GitLab.URL, token, cfg.GitLab.Project)
}

// loadConfig loads the configuration and sets up logging on logOut.
// overrides runs before validation so flags are validated like file values.
func loadConfig(opts *commonOptions, logOut io.Writer, overrides func(*config.HousekeepConfig)) (config.HousekeepConfig, error) {
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return cfg, err
	}
	if overrides != nil {
		overrides(&cfg)
	}
	if opts.debug {
		cfg.Logging.Level = "debug"
	}

	if err := config.Validate(cfg); err != nil {
		path := opts.configPath
		if path == "" {
			path, _ = config.DefaultConfigPath()
		}
		return cfg, config.FormatValidationError(path, err)
	}

	level, _ := logging.ParseLevel(cfg.Logging.Level)
	logging.Init(level, logging.Format(cfg.Logging.Format), logOut)
	return cfg, nil
}

// newOrchestrator wires client, rules and state rules from cfg. In dry-run
// mode the client is wrapped so nothing is written.
func newOrchestrator(cfg config.HousekeepConfig, dryRun bool) (*orchestrator.Orchestrator, error) {
	client, err := newClient(cfg)
	if err != nil {
		return nil, err
	}
	if dryRun {
		client = tracker.NewDryRunClient(client, clock.Real{})
	}

	set, err := cfg.RuleSet()
	if err != nil {
		logging.Warn("CLI", "Skipping invalid label rules: %v", err)
	}

	return orchestrator.New(orchestrator.Config{
		Client:  client,
		Rules:   set,
		State:   cfg.StateConfig(),
		Clock:   clock.Real{},
		MinIdle: cfg.Run.MinIdle,
		Where:   cfg.Run.Where,
		DryRun:  dryRun,
	})
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func parseIID(arg string) (int, error) {
	iid, err := strconv.Atoi(strings.TrimPrefix(arg, "#"))
	if err != nil || iid <= 0 {
		return 0, fmt.Errorf("invalid issue number %q", arg)
	}
	return iid, nil
}
