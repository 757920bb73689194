package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/giantswarm/housekeep/internal/mcpserver"
)

func newServeCmd() *cobra.Command {
	opts := &commonOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve housekeep tools over MCP on stdio",
		Long: `Starts a Model Context Protocol server on stdin/stdout so AI assistants
can reconcile single issues, preview ledgers and list the label rules.

Logs are written to stderr; stdout carries the protocol only.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts, cmd.ErrOrStderr(), nil)
			if err != nil {
				return err
			}
			orch, err := newOrchestrator(cfg, opts.dryRun)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()
			return mcpserver.New(orch, GetVersion()).Start(ctx)
		},
	}

	opts.addFlags(cmd)
	opts.addDryRunFlag(cmd)
	return cmd
}
