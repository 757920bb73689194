package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/giantswarm/housekeep/internal/config"
	"github.com/giantswarm/housekeep/internal/orchestrator"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (tracker failure, invalid arguments).
	ExitCodeError = 1
	// ExitCodeConfigError indicates an unreadable or invalid configuration.
	ExitCodeConfigError = 2
	// ExitCodeIssuesFailed indicates that the run finished but some issues failed.
	ExitCodeIssuesFailed = 3
)

// rootCmd represents the base command for the housekeep application.
var rootCmd = &cobra.Command{
	Use:   "housekeep",
	Short: "Keep GitLab issues tidy",
	Long: `housekeep applies housekeeping rules to the issues of a GitLab project.

It closes obsolete issues, keeps confidentiality and discussion locks in line
with the issue state, enforces mutually exclusive label groups and derived
label categories, assigns closers and due-date milestones, posts past-due
reminders and maintains ledgers kept in issue notes. The tasks command
raises recurring tasks from a collection of YAML files.

Every rule is idempotent: running housekeep twice in a row changes nothing
the second time.`,
	// Errors are printed by Execute.
	SilenceUsage:  true,
	SilenceErrors: true,
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application. It is called by
// main.main() and exits with a semantic exit code on error.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "housekeep version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		reportError(os.Stderr, err)
		os.Exit(getExitCode(err))
	}
}

// reportError prints err to w. Configuration errors get the multi-line form
// with file, line and suggestions.
func reportError(w io.Writer, err error) {
	var configErr *config.ConfigurationError
	if errors.As(err, &configErr) {
		fmt.Fprintln(w, configErr.DetailedError())
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
}

// getExitCode determines the appropriate exit code based on the error type.
// This provides semantic exit codes for scripting and automation.
func getExitCode(err error) int {
	if err == nil {
		return ExitCodeSuccess
	}

	var configErr *config.ConfigurationError
	if errors.As(err, &configErr) {
		return ExitCodeConfigError
	}

	var validationErrs config.ValidationErrors
	if errors.As(err, &validationErrs) {
		return ExitCodeConfigError
	}

	if errors.Is(err, orchestrator.ErrIssuesFailed) {
		return ExitCodeIssuesFailed
	}

	return ExitCodeError
}

func init() {
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newRulesCmd())
	rootCmd.AddCommand(newLedgerCmd())
	rootCmd.AddCommand(newTasksCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
}
