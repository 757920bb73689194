package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/giantswarm/housekeep/internal/config"
	"github.com/giantswarm/housekeep/internal/formatting"
	"github.com/giantswarm/housekeep/internal/orchestrator"
	"github.com/giantswarm/housekeep/internal/tracker"
)

type runOptions struct {
	commonOptions

	issues       []int
	state        string
	labels       []string
	updatedAfter string
	where        string
	interval     time.Duration
	output       string
	quiet        bool
}

func newRunCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Apply all housekeeping rules to the project's issues",
		Long: `Lists the issues of the configured project and applies every rule to
each of them, one issue at a time.

With --interval (or run.interval in the configuration) housekeep keeps
running and starts a new pass after every interval. Label rule changes in
the configuration file are picked up between passes.

Exit codes: 0 success, 1 error, 2 configuration error, 3 some issues failed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, opts)
		},
	}

	opts.addFlags(cmd)
	opts.addDryRunFlag(cmd)
	cmd.Flags().IntSliceVar(&opts.issues, "issue", nil, "Only process these issue numbers (repeatable)")
	cmd.Flags().StringVar(&opts.state, "state", "", "Issue state to process: opened, closed or all")
	cmd.Flags().StringSliceVar(&opts.labels, "label", nil, "Only process issues carrying all of these labels")
	cmd.Flags().StringVar(&opts.updatedAfter, "updated-after", "", "Only process issues updated after this RFC 3339 time or duration ago (e.g. 72h)")
	cmd.Flags().StringVar(&opts.where, "where", "", "Filter expression evaluated per issue (e.g. 'idleHours > 24')")
	cmd.Flags().DurationVar(&opts.interval, "interval", 0, "Run continuously with this pause between passes")
	cmd.Flags().StringVarP(&opts.output, "output", "o", string(formatting.FormatTable), "Output format: table, json, yaml or console")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "Only list issues that changed or failed")
	return cmd
}

// overrides applies the command line filters on top of the file settings.
func (o *runOptions) overrides(cfg *config.HousekeepConfig) {
	if o.state != "" {
		cfg.Run.State = o.state
	}
	if len(o.labels) > 0 {
		cfg.Run.Labels = o.labels
	}
	if o.where != "" {
		cfg.Run.Where = o.where
	}
	if o.interval > 0 {
		cfg.Run.Interval = o.interval
	}
}

func (o *runOptions) issueFilter(cfg config.HousekeepConfig, now time.Time) (tracker.IssueFilter, error) {
	filter := cfg.IssueFilter()
	filter.IIDs = o.issues
	if o.updatedAfter != "" {
		after, err := parseUpdatedAfter(o.updatedAfter, now)
		if err != nil {
			return filter, err
		}
		filter.UpdatedAfter = &after
	}
	return filter, nil
}

// parseUpdatedAfter accepts an RFC 3339 time or a duration counted back from now.
func parseUpdatedAfter(value string, now time.Time) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		return time.Time{}, fmt.Errorf("invalid --updated-after %q: expected RFC 3339 time or duration", value)
	}
	return now.Add(-d), nil
}

func runRun(cmd *cobra.Command, opts *runOptions) error {
	format, ok := formatting.ParseFormat(opts.output)
	if !ok {
		return fmt.Errorf("unknown output format %q", opts.output)
	}

	cfg, err := loadConfig(&opts.commonOptions, cmd.ErrOrStderr(), opts.overrides)
	if err != nil {
		return err
	}
	filter, err := opts.issueFilter(cfg, time.Now())
	if err != nil {
		return err
	}

	orch, err := newOrchestrator(cfg, opts.dryRun)
	if err != nil {
		return err
	}

	formatter := formatting.NewFactory().CreateFormatter(formatting.Options{
		Format: format,
		Quiet:  opts.quiet,
		Color:  format == formatting.FormatTable && isTerminal(cmd.OutOrStdout()),
	})

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	pass := &passRunner{
		orch:      orch,
		filter:    filter,
		formatter: formatter,
		out:       cmd.OutOrStdout(),
		progress:  !opts.quiet && isTerminal(cmd.ErrOrStderr()),
		errOut:    cmd.ErrOrStderr(),
	}

	if cfg.Run.Interval <= 0 {
		return pass.run(ctx)
	}
	return runDaemon(ctx, &daemonOptions{
		pass:       pass,
		interval:   cfg.Run.Interval,
		configPath: opts.configPath,
	})
}

// passRunner performs one pass over all matching issues and prints the summary.
type passRunner struct {
	orch      *orchestrator.Orchestrator
	filter    tracker.IssueFilter
	formatter formatting.Formatter
	out       io.Writer
	errOut    io.Writer
	progress  bool
}

func (p *passRunner) run(ctx context.Context) error {
	var s *spinner.Spinner
	if p.progress {
		s = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(p.errOut))
		s.Suffix = " Processing issues..."
		s.Start()
	}

	summary, err := p.orch.Run(ctx, p.filter)
	if s != nil {
		s.Stop()
	}

	fmt.Fprintln(p.out, p.formatter.FormatRunSummary(summary))
	if err != nil && !errors.Is(err, orchestrator.ErrIssuesFailed) {
		return fmt.Errorf("run %s failed: %w", summary.RunID, err)
	}
	return err
}
