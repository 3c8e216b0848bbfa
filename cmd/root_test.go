package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/LegacyCodeHQ/pybundle/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_Version(t *testing.T) {
	cmd := NewRootCommand()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetArgs([]string{"--version"})

	require.NoError(t, cmd.Execute())

	assert.Equal(t, "pybundle version dev\nBuild date: unknown\nCommit: unknown\n", stdout.String())
}

func TestRootCommand_WithoutSubcommandGathers(t *testing.T) {
	root := testhelpers.SampleProject(t)
	dist := filepath.Join(root, "dist")

	cmd := NewRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append(testhelpers.ProjectArgs(root), "-d", dist))

	require.NoError(t, cmd.Execute())

	assert.Equal(t, "orders: 2 files, 1 requirements\npayments: 3 files, 2 requirements\n", stdout.String())
	assert.FileExists(t, filepath.Join(dist, "orders", "requirements.txt"))
	assert.Contains(t, stderr.String(), "Bundled")
}

func TestRootCommand_VerboseLogsDebug(t *testing.T) {
	root := testhelpers.SampleProject(t)

	cmd := NewRootCommand()
	var stderr bytes.Buffer
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"plan", "-v"}, testhelpers.ProjectArgs(root)...))

	require.NoError(t, cmd.Execute())

	assert.Contains(t, stderr.String(), "resolved options")
}

func TestRootCommand_ExplicitConfig(t *testing.T) {
	root := testhelpers.SampleProject(t)
	config := filepath.Join(root, "custom.toml")
	content := "src_dir = \"" + filepath.ToSlash(filepath.Join(root, "src", "lambdas")) + "\"\n" +
		"source_root = \"" + filepath.ToSlash(filepath.Join(root, "src")) + "\"\n" +
		"probe = false\n" +
		"package_paths = [\"" + filepath.ToSlash(filepath.Join(root, "site")) + "\"]\n" +
		"third_party = [\"utils\"]\n"
	require.NoError(t, os.WriteFile(config, []byte(content), 0o644))

	cmd := NewRootCommand()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"plan", "--config", config, "orders"})

	require.NoError(t, cmd.Execute())

	assert.Contains(t, stdout.String(), "  requirements:\n    boto3\n    utils\n")
}

func TestRootCommand_RegistersSubcommands(t *testing.T) {
	cmd := NewRootCommand()

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}

	assert.Subset(t, names, []string{"gather", "plan", "graph", "why", "watch"})
}
