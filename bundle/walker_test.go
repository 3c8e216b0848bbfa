package bundle

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/LegacyCodeHQ/pybundle/classify"
	"github.com/LegacyCodeHQ/pybundle/internal/logging"
	"github.com/LegacyCodeHQ/pybundle/pyimports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryWalker builds a walker over in-memory sources rooted at /project/src.
func memoryWalker(files map[string]string, packages ...string) (*Walker, string) {
	sourceRoot := filepath.Join(string(filepath.Separator), "project", "src")

	sources := make(map[string][]byte, len(files))
	paths := make([]string, 0, len(files))
	for name, content := range files {
		path := filepath.Join(sourceRoot, filepath.FromSlash(name))
		sources[path] = []byte(content)
		paths = append(paths, path)
	}

	reader := func(path string) ([]byte, error) {
		content, ok := sources[path]
		if !ok {
			return nil, fmt.Errorf("open %s: %w", path, fs.ErrNotExist)
		}
		return content, nil
	}

	project := classify.NewProjectIndexFromFiles([]string{sourceRoot}, paths)
	classifier := classify.New(classify.EmbeddedStdlib(), classify.NewPackageIndexFromNames(packages...), project)

	return NewWalker(classifier, WalkerOptions{
		SourceRoot: sourceRoot,
		Reader:     reader,
		Logger:     logging.Discard(),
	}), sourceRoot
}

func TestWalk_CopiesFirstPartyAndListsThirdParty(t *testing.T) {
	w, sourceRoot := memoryWalker(map[string]string{
		"lambdas/orders/handler.py": "import json\nimport boto3\nfrom utils import format_order\n",
		"utils.py":                  "import logging\n",
	}, "boto3")

	plan, err := w.Walk("orders", filepath.Join(sourceRoot, "lambdas", "orders", "handler.py"))

	require.NoError(t, err)
	assert.Equal(t, "orders", plan.Function)
	assert.Equal(t, []string{"handler.py", "utils.py"}, copyDests(plan))
	assert.Equal(t, []string{"boto3"}, plan.Requirements)
	assert.Empty(t, plan.Unresolved)
	assert.Equal(t, "handler.py", plan.EntryVertex())
}

func TestWalk_CircularImportsTerminate(t *testing.T) {
	w, sourceRoot := memoryWalker(map[string]string{
		"lambdas/orders/handler.py": "import a\n",
		"a.py":                      "import b\nimport requests\n",
		"b.py":                      "import a\nimport boto3\n",
	}, "boto3", "requests")

	plan, err := w.Walk("orders", filepath.Join(sourceRoot, "lambdas", "orders", "handler.py"))

	require.NoError(t, err)
	assert.Equal(t, []string{"a.py", "b.py", "handler.py"}, copyDests(plan))
	assert.Equal(t, []string{"boto3", "requests"}, plan.Requirements)

	edges, err := plan.Edges()
	require.NoError(t, err)
	assert.Equal(t, []string{"b.py", "requests"}, edges["a.py"])
	assert.Equal(t, []string{"a.py", "boto3"}, edges["b.py"])
}

func TestWalk_EntryDirectoryShadowsSourceRoot(t *testing.T) {
	w, sourceRoot := memoryWalker(map[string]string{
		"lambdas/orders/handler.py": "import utils\nimport shared.db\n",
		"lambdas/orders/utils.py":   "",
		"utils.py":                  "import boto3\n",
		"shared/__init__.py":        "",
		"shared/db.py":              "import utils\n",
	}, "boto3")

	plan, err := w.Walk("orders", filepath.Join(sourceRoot, "lambdas", "orders", "handler.py"))

	require.NoError(t, err)
	assert.Equal(t, []string{"handler.py", "shared/__init__.py", "shared/db.py", "utils.py"}, copyDests(plan))
	assert.Empty(t, plan.Requirements)

	for _, c := range plan.Copies {
		if c.Dest == "utils.py" {
			assert.Equal(t, filepath.Join(sourceRoot, "lambdas", "orders", "utils.py"), c.Source)
		}
	}
}

func TestWalk_RelativeImports(t *testing.T) {
	w, sourceRoot := memoryWalker(map[string]string{
		"lambdas/payments/handler.py":       "from . import helpers\nfrom .lib.tax import rate\n",
		"lambdas/payments/helpers.py":       "from .lib import *\n",
		"lambdas/payments/lib/__init__.py":  "",
		"lambdas/payments/lib/tax.py":       "from ..helpers import fmt\n",
		"lambdas/payments/lib/currency.py":  "",
		"lambdas/payments/unused/loader.py": "import requests\n",
	}, "requests")

	plan, err := w.Walk("payments", filepath.Join(sourceRoot, "lambdas", "payments", "handler.py"))

	require.NoError(t, err)
	assert.Equal(t, []string{"handler.py", "helpers.py", "lib/__init__.py", "lib/tax.py"}, copyDests(plan))
	assert.Empty(t, plan.Requirements)
}

func TestWalk_FromImportOfSubmodules(t *testing.T) {
	w, sourceRoot := memoryWalker(map[string]string{
		"lambdas/orders/handler.py": "from shared.models import order, invoice\n",
		"shared/models/order.py":    "",
		"shared/models/invoice.py":  "",
		"shared/models/refund.py":   "",
	})

	plan, err := w.Walk("orders", filepath.Join(sourceRoot, "lambdas", "orders", "handler.py"))

	require.NoError(t, err)
	assert.Equal(t, []string{"handler.py", "shared/models/invoice.py", "shared/models/order.py"}, copyDests(plan))
}

func TestWalk_RelativeImportOutsideEntryDirectory(t *testing.T) {
	w, sourceRoot := memoryWalker(map[string]string{
		"lambdas/orders/handler.py": "from ..common import clock\n",
		"lambdas/common/clock.py":   "",
	})

	plan, err := w.Walk("orders", filepath.Join(sourceRoot, "lambdas", "orders", "handler.py"))

	require.NoError(t, err)
	assert.Equal(t, []string{"handler.py", "lambdas/common/clock.py"}, copyDests(plan))
}

func TestWalk_UnresolvedModuleIsPlannedAsMissing(t *testing.T) {
	w, sourceRoot := memoryWalker(map[string]string{
		"lambdas/orders/handler.py": "import ghost\nimport boto3\n",
	}, "boto3")

	plan, err := w.Walk("orders", filepath.Join(sourceRoot, "lambdas", "orders", "handler.py"))

	require.NoError(t, err)
	assert.Equal(t, []string{"ghost"}, plan.Unresolved)
	assert.Equal(t, []string{"boto3"}, plan.Requirements)
	require.Len(t, plan.Copies, 2)
	assert.Equal(t, Copy{Source: filepath.Join(sourceRoot, "ghost.py"), Dest: "ghost.py", Missing: true}, plan.Copies[0])
	assert.Equal(t, KindMissing, plan.VertexKind("ghost.py"))
}

func TestWalk_ParsesEachFileOnce(t *testing.T) {
	w, sourceRoot := memoryWalker(map[string]string{
		"lambdas/orders/handler.py": "import a\nimport b\nfrom a import b\n",
		"a.py":                      "import b\nimport handler\n",
		"b.py":                      "import a\n",
	})
	reads := make(map[string]int)
	read := w.reader
	w.reader = func(path string) ([]byte, error) {
		reads[path]++
		return read(path)
	}

	_, err := w.Walk("orders", filepath.Join(sourceRoot, "lambdas", "orders", "handler.py"))

	require.NoError(t, err)
	assert.Len(t, reads, 3)
	for path, n := range reads {
		assert.Equal(t, 1, n, path)
	}
}

func TestWalk_RequirementAliases(t *testing.T) {
	w, sourceRoot := memoryWalker(map[string]string{
		"lambdas/orders/handler.py": "import yaml\nimport PIL.Image\n",
	}, "yaml", "PIL")
	w.aliases = map[string]string{"PIL": "Pillow"}

	plan, err := w.Walk("orders", filepath.Join(sourceRoot, "lambdas", "orders", "handler.py"))

	require.NoError(t, err)
	assert.Equal(t, []string{"Pillow", "yaml"}, plan.Requirements)
}

func TestWalk_DestinationConflict(t *testing.T) {
	w, sourceRoot := memoryWalker(map[string]string{
		"lambdas/orders/handler.py":      "import lib\nimport lib.util\n",
		"lambdas/orders/lib/__init__.py": "",
		"lib/__init__.py":                "",
		"lib/util.py":                    "",
	})

	_, err := w.Walk("orders", filepath.Join(sourceRoot, "lambdas", "orders", "handler.py"))

	assert.True(t, errors.Is(err, ErrDestinationConflict))
}

func TestWalk_SyntaxErrorAborts(t *testing.T) {
	w, sourceRoot := memoryWalker(map[string]string{
		"lambdas/orders/handler.py": "import utils\n",
		"utils.py":                  "def broken(:\n",
	})

	_, err := w.Walk("orders", filepath.Join(sourceRoot, "lambdas", "orders", "handler.py"))

	require.Error(t, err)
	assert.True(t, errors.Is(err, pyimports.ErrSyntax))

	var syntaxErr *pyimports.SyntaxError
	require.True(t, errors.As(err, &syntaxErr))
	assert.Equal(t, filepath.Join(sourceRoot, "utils.py"), syntaxErr.File)
}

func TestWalk_MissingEntryFile(t *testing.T) {
	w, sourceRoot := memoryWalker(map[string]string{})

	_, err := w.Walk("orders", filepath.Join(sourceRoot, "lambdas", "orders", "handler.py"))

	assert.True(t, errors.Is(err, ErrMissingSource))
}

func TestPlan_ImportChain(t *testing.T) {
	w, sourceRoot := memoryWalker(map[string]string{
		"lambdas/orders/handler.py": "import service\n",
		"service.py":                "import repository\n",
		"repository.py":             "import boto3\n",
	}, "boto3")

	plan, err := w.Walk("orders", filepath.Join(sourceRoot, "lambdas", "orders", "handler.py"))
	require.NoError(t, err)

	chain, err := plan.ImportChain("boto3")

	require.NoError(t, err)
	assert.Equal(t, []string{"handler.py", "service.py", "repository.py", "boto3"}, chain)
	assert.Equal(t, KindPackage, plan.VertexKind("boto3"))
	assert.Equal(t, KindFile, plan.VertexKind("service.py"))
}
