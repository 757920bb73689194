package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/giantswarm/housekeep/internal/clock"
	"github.com/giantswarm/housekeep/internal/config"
	"github.com/giantswarm/housekeep/internal/formatting"
	"github.com/giantswarm/housekeep/internal/orchestrator"
	"github.com/giantswarm/housekeep/internal/tasks"
	"github.com/giantswarm/housekeep/internal/tracker"
)

type tasksOptions struct {
	commonOptions
	collectionDir string
	label         string
	output        string
}

func (o *tasksOptions) overrides(cfg *config.HousekeepConfig) {
	if o.collectionDir != "" {
		cfg.Tasks.CollectionDir = o.collectionDir
	}
	if o.label != "" {
		cfg.Tasks.Label = o.label
	}
}

func newTasksCmd() *cobra.Command {
	opts := &tasksOptions{}

	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Raise the recurring tasks of a collection",
		Long: `Reads one task per YAML file from the collection directory. A task
without an open issue gets a new one, labelled, assigned and due the given
number of days from now. A task whose issue is still open pings the
assignees again instead and replaces the previous ping.

Schedule the command (cron, systemd timer) at the rate the tasks recur.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTasks(cmd, opts)
		},
	}

	opts.addFlags(cmd)
	opts.addDryRunFlag(cmd)
	cmd.Flags().StringVar(&opts.collectionDir, "collection-dir", "", "Directory holding the task files (overrides tasks.collectionDir)")
	cmd.Flags().StringVar(&opts.label, "label", "", "Label marking task issues (overrides tasks.label)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", string(formatting.FormatConsole), "Output format: table, json, yaml or console")
	return cmd
}

func runTasks(cmd *cobra.Command, opts *tasksOptions) error {
	format, ok := formatting.ParseFormat(opts.output)
	if !ok {
		return fmt.Errorf("unknown output format %q", opts.output)
	}

	cfg, err := loadConfig(&opts.commonOptions, cmd.ErrOrStderr(), opts.overrides)
	if err != nil {
		return err
	}
	if cfg.Tasks.CollectionDir == "" {
		return fmt.Errorf("no task collection: set tasks.collectionDir or pass --collection-dir")
	}

	collection, err := tasks.LoadCollection(cfg.Tasks.CollectionDir)
	if err != nil {
		return err
	}

	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	if opts.dryRun {
		client = tracker.NewDryRunClient(client, clock.Real{})
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	runner := tasks.NewRunner(tasks.Config{Client: client, Label: cfg.Tasks.Label})
	report, err := runner.Run(ctx, collection)
	if err != nil {
		return err
	}

	formatter := formatting.NewFactory().CreateFormatter(formatting.Options{Format: format})
	fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatData(report))
	if report.Failed > 0 {
		return fmt.Errorf("%d of %d tasks: %w", report.Failed, len(report.Results), orchestrator.ErrIssuesFailed)
	}
	return nil
}
