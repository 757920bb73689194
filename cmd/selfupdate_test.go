package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelfUpdate_RejectsDevelopmentBuilds(t *testing.T) {
	for _, v := range []string{"", "dev"} {
		var out bytes.Buffer
		err := selfUpdate(context.Background(), &out, v, true)
		assert.ErrorIs(t, err, errDevelopmentBuild, v)
		assert.Empty(t, out.String(), "nothing is looked up for %q", v)
	}
}

func TestSelfUpdateCmd(t *testing.T) {
	original := GetVersion()
	t.Cleanup(func() { SetVersion(original) })
	SetVersion("dev")

	cmd := newSelfUpdateCmd()
	assert.NotNil(t, cmd.Flags().Lookup("check"))

	_, _, err := execute(cmd, "--check")
	assert.ErrorIs(t, err, errDevelopmentBuild)
}
