package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"
)

const githubRepoSlug = "giantswarm/housekeep"

var errDevelopmentBuild = errors.New("cannot self-update a development version")

func newSelfUpdateCmd() *cobra.Command {
	var checkOnly bool

	cmd := &cobra.Command{
		Use:   "self-update",
		Short: "Update housekeep to the latest release",
		Long: `Looks up the latest housekeep release on GitHub and replaces the
running binary when it is newer. With --check only the lookup is done.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return selfUpdate(cmd.Context(), cmd.OutOrStdout(), GetVersion(), checkOnly)
		},
	}
	cmd.Flags().BoolVar(&checkOnly, "check", false, "Only report whether a newer release exists")
	return cmd
}

func selfUpdate(ctx context.Context, out io.Writer, current string, checkOnly bool) error {
	// dev builds carry no semantic version to compare against.
	if current == "" || current == "dev" {
		return errDevelopmentBuild
	}
	if ctx == nil {
		ctx = context.Background()
	}

	updater, err := selfupdate.NewUpdater(selfupdate.Config{})
	if err != nil {
		return fmt.Errorf("failed to create updater: %w", err)
	}

	fmt.Fprintf(out, "Current version: %s\n", current)
	latest, found, err := updater.DetectLatest(ctx, selfupdate.ParseSlug(githubRepoSlug))
	switch {
	case err != nil:
		return fmt.Errorf("error detecting latest version: %w", err)
	case !found:
		return fmt.Errorf("no release of %s found", githubRepoSlug)
	case !latest.GreaterThan(current):
		fmt.Fprintln(out, "housekeep is up to date.")
		return nil
	}

	fmt.Fprintf(out, "Newer release available: %s (published %s)\n", latest.Version(), latest.PublishedAt.Format("2006-01-02"))
	if checkOnly {
		return nil
	}

	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		return fmt.Errorf("could not locate executable path: %w", err)
	}
	if err := updater.UpdateTo(ctx, latest, exe); err != nil {
		return fmt.Errorf("update of %s failed: %w", exe, err)
	}

	fmt.Fprintf(out, "Updated %s to %s\n%s\n", exe, latest.Version(), latest.ReleaseNotes)
	return nil
}
