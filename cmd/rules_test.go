package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRulesCommand(t *testing.T) {
	path := writeConfig(t, testConfig+`  labelCategories:
    - "bug,regression,type::defect"
    - "lonely"
`)

	out, errOut, err := execute(newRulesCmd(), "--config", path, "-o", "console")
	require.NoError(t, err)

	assert.Equal(t, "group    public,confidential*+\ncategory bug,regression,type::defect\nclosed   public\n", out)
	assert.Contains(t, errOut, "Skipped invalid rules")
	assert.Contains(t, errOut, "lonely")
}

func TestRulesCommand_Table(t *testing.T) {
	out, _, err := execute(newRulesCmd(), "--config", writeConfig(t, testConfig))
	require.NoError(t, err)
	assert.Contains(t, out, "Label groups")
	assert.Contains(t, out, "Removed on close: public")
}
