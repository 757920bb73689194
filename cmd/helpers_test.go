package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/giantswarm/housekeep/internal/config"
	"github.com/giantswarm/housekeep/internal/testing/mock"
	"github.com/giantswarm/housekeep/internal/tracker"
)

const testConfig = `gitlab:
  project: group/project
rules:
  obsoleteLabel: obsolete
  publicLabel: public
  labelGroups:
    - "public,confidential*+"
  closedLabels:
    - public
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

// useTracker routes every command to tr for the duration of the test.
func useTracker(t *testing.T, tr *mock.Tracker) {
	t.Helper()
	original := newClient
	newClient = func(config.HousekeepConfig) (tracker.Client, error) {
		return tr, nil
	}
	t.Cleanup(func() { newClient = original })
}

func execute(cmd *cobra.Command, args ...string) (stdout, stderr string, err error) {
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func obsoleteIssue(iid int) tracker.Issue {
	return tracker.Issue{
		IID:    iid,
		Title:  "Old request",
		State:  tracker.StateOpened,
		Labels: []string{"obsolete", "public"},
	}
}
