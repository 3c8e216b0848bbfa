package plan

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/LegacyCodeHQ/pybundle/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runPlanCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewCommand()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func TestPlanCommand_Text(t *testing.T) {
	root := testhelpers.SampleProject(t)

	output, err := runPlanCommand(t, testhelpers.ProjectArgs(root)...)
	require.NoError(t, err)

	g := testhelpers.TextGoldie(t)
	g.Assert(t, t.Name(), []byte(output))
}

func TestPlanCommand_JSON(t *testing.T) {
	root := testhelpers.SampleProject(t)

	args := append(testhelpers.ProjectArgs(root), "-f", "json", "payments")
	output, err := runPlanCommand(t, args...)
	require.NoError(t, err)

	var plans []struct {
		Function     string   `json:"function"`
		Requirements []string `json:"requirements"`
		Files        []struct {
			Dest string `json:"dest"`
		} `json:"files"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &plans))
	require.Len(t, plans, 1)
	assert.Equal(t, "payments", plans[0].Function)
	assert.Equal(t, []string{"boto3", "requests"}, plans[0].Requirements)
	require.Len(t, plans[0].Files, 3)
	assert.Equal(t, "shared/db.py", plans[0].Files[2].Dest)
}

func TestPlanCommand_ShowsMissingModules(t *testing.T) {
	root := testhelpers.WriteProject(t, map[string]string{
		"src/lambdas/orders/handler.py": "import ghost\n",
	})

	output, err := runPlanCommand(t, testhelpers.ProjectArgs(root)...)

	require.NoError(t, err)
	assert.Contains(t, output, "    ghost.py (not found)\n")
	assert.Contains(t, output, "  requirements:\n    (none)\n")
	assert.Contains(t, output, "  unresolved:\n    ghost\n")
}

func TestPlanCommand_UnknownFormat(t *testing.T) {
	root := testhelpers.SampleProject(t)

	args := append(testhelpers.ProjectArgs(root), "-f", "yaml")
	_, err := runPlanCommand(t, args...)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format: yaml")
}
