package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/giantswarm/housekeep/internal/formatting"
)

type rulesOptions struct {
	commonOptions
	output string
}

func newRulesCmd() *cobra.Command {
	opts := &rulesOptions{}

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Validate and print the label rules",
		Long: `Parses the label groups, label categories and closed labels of the
configuration and prints the resulting rules. Invalid rule specs are
reported and left out, exactly as a run would.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, ok := formatting.ParseFormat(opts.output)
			if !ok {
				return fmt.Errorf("unknown output format %q", opts.output)
			}

			cfg, err := loadConfig(&opts.commonOptions, cmd.ErrOrStderr(), nil)
			if err != nil {
				return err
			}

			set, err := cfg.RuleSet()
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Skipped invalid rules:\n%v\n\n", err)
			}

			formatter := formatting.NewFactory().CreateFormatter(formatting.Options{
				Format: format,
				Color:  format == formatting.FormatTable && isTerminal(cmd.OutOrStdout()),
			})
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatRules(set))
			return nil
		},
	}

	opts.addFlags(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", string(formatting.FormatTable), "Output format: table, json, yaml or console")
	return cmd
}
