package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/giantswarm/housekeep/internal/ledger"
)

type ledgerOptions struct {
	commonOptions
	diff bool
}

func newLedgerCmd() *cobra.Command {
	opts := &ledgerOptions{}

	cmd := &cobra.Command{
		Use:   "ledger <issue>",
		Short: "Preview the ledger summary of an issue",
		Long: `Rebuilds the ledger of an issue from its !count, !countunit and
!countgoal directives and prints the summary housekeep would publish.
Nothing is written. With --diff the summary is compared line by line
with the one currently published on the issue.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			iid, err := parseIID(args[0])
			if err != nil {
				return err
			}

			cfg, err := loadConfig(&opts.commonOptions, cmd.ErrOrStderr(), nil)
			if err != nil {
				return err
			}
			orch, err := newOrchestrator(cfg, true)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			rendered, published, _, err := orch.PreviewLedger(ctx, iid)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !opts.diff {
				if rendered == "" {
					fmt.Fprintf(out, "Issue #%d has no ledger entries.\n", iid)
					return nil
				}
				fmt.Fprint(out, rendered)
				return nil
			}

			diff := ledger.DiffSummary(published, rendered)
			if diff == "" {
				fmt.Fprintf(out, "The published summary of issue #%d is up to date.\n", iid)
				return nil
			}
			fmt.Fprint(out, diff)
			return nil
		},
	}

	opts.addFlags(cmd)
	cmd.Flags().BoolVar(&opts.diff, "diff", false, "Show a diff against the published summary")
	return cmd
}
