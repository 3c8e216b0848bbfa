package classify

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProjectIndex(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "utils.py"), "")
	writeFile(t, filepath.Join(root, "shared", "__init__.py"), "")
	writeFile(t, filepath.Join(root, "shared", "db.py"), "")
	writeFile(t, filepath.Join(root, "nspkg", "tool.py"), "")
	writeFile(t, filepath.Join(root, ".hidden", "secret.py"), "")
	writeFile(t, filepath.Join(root, "__pycache__", "utils.py"), "")
	writeFile(t, filepath.Join(root, "dist", "orders", "utils.py"), "")
	writeFile(t, filepath.Join(root, "README.md"), "")

	idx, err := NewProjectIndex([]string{root}, append(DefaultSkippedDirs, "dist"))
	require.NoError(t, err)

	assert.True(t, idx.HasFile(filepath.Join(root, "utils.py")))
	assert.True(t, idx.HasFile(filepath.Join(root, "shared", "db.py")))
	assert.False(t, idx.HasFile(filepath.Join(root, ".hidden", "secret.py")))
	assert.False(t, idx.HasFile(filepath.Join(root, "__pycache__", "utils.py")))
	assert.False(t, idx.HasFile(filepath.Join(root, "dist", "orders", "utils.py")))
	assert.False(t, idx.HasFile(filepath.Join(root, "README.md")))

	file, ok := idx.ModuleFile(root, "shared")
	assert.True(t, ok)
	assert.Equal(t, filepath.Join(root, "shared", "__init__.py"), file)

	file, ok = idx.ModuleFile(root, "shared.db")
	assert.True(t, ok)
	assert.Equal(t, filepath.Join(root, "shared", "db.py"), file)

	_, ok = idx.ModuleFile(root, "shared.missing")
	assert.False(t, ok)

	assert.True(t, idx.IsNamespacePackage(root, "nspkg"))
	assert.False(t, idx.IsNamespacePackage(root, "absent"))
}

func TestNewProjectIndex_SkipsVirtualenvsByMarker(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "build", "__init__.py"), "")
	writeFile(t, filepath.Join(root, "build", "steps.py"), "")
	writeFile(t, filepath.Join(root, "venv", "helpers.py"), "")
	writeFile(t, filepath.Join(root, "env", "pyvenv.cfg"), "home = /usr/bin\n")
	writeFile(t, filepath.Join(root, "env", "lib", "python3.12", "site-packages", "six.py"), "")
	writeFile(t, filepath.Join(root, "env", "bin", "activate_this.py"), "")

	idx, err := NewProjectIndex([]string{root}, DefaultSkippedDirs)
	require.NoError(t, err)

	assert.True(t, IsFirstParty("build.steps", idx))
	assert.True(t, IsFirstParty("venv.helpers", idx))
	assert.False(t, idx.HasFile(filepath.Join(root, "env", "bin", "activate_this.py")))
	assert.True(t, IsVirtualenv(filepath.Join(root, "env")))
	assert.False(t, IsVirtualenv(filepath.Join(root, "build")))
}

func TestNewProjectIndex_MissingRootFails(t *testing.T) {
	_, err := NewProjectIndex([]string{filepath.Join(t.TempDir(), "absent")}, nil)

	assert.Error(t, err)
}

func TestProjectIndex_ResolveFollowsRootOrder(t *testing.T) {
	entryDir := filepath.Join("/project", "src", "lambdas", "orders")
	sourceRoot := filepath.Join("/project", "src")
	files := []string{
		filepath.Join(entryDir, "handler.py"),
		filepath.Join(entryDir, "utils.py"),
		filepath.Join(sourceRoot, "utils.py"),
		filepath.Join(sourceRoot, "shared", "__init__.py"),
		filepath.Join(sourceRoot, "shared", "models", "order.py"),
	}
	idx := NewProjectIndexFromFiles([]string{sourceRoot}, files)

	root, file, ok := idx.Resolve("utils")
	assert.True(t, ok)
	assert.Equal(t, sourceRoot, root)
	assert.Equal(t, filepath.Join(sourceRoot, "utils.py"), file)

	scoped := idx.WithRoots(entryDir, sourceRoot)
	assert.Equal(t, []string{entryDir, sourceRoot}, scoped.Roots())

	root, file, ok = scoped.Resolve("utils")
	assert.True(t, ok)
	assert.Equal(t, entryDir, root)
	assert.Equal(t, filepath.Join(entryDir, "utils.py"), file)

	root, file, ok = scoped.Resolve("shared.models")
	assert.True(t, ok)
	assert.Equal(t, sourceRoot, root)
	assert.Empty(t, file)

	_, _, ok = scoped.Resolve("billing")
	assert.False(t, ok)
}

func TestIsFirstParty(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "helpers.py"), "")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty"), 0o755))

	idx, err := NewProjectIndex([]string{root}, nil)
	require.NoError(t, err)

	assert.True(t, IsFirstParty("helpers", idx))
	assert.False(t, IsFirstParty("empty", idx))
	assert.False(t, IsFirstParty("boto3", idx))
	assert.False(t, IsFirstParty("helpers", nil))
}
