// Package plantest builds bundle plans from in-memory Python sources.
package plantest

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/LegacyCodeHQ/pybundle/bundle"
	"github.com/LegacyCodeHQ/pybundle/classify"
	"github.com/LegacyCodeHQ/pybundle/internal/logging"
)

// SourceRoot is where Build places the sources.
var SourceRoot = filepath.Join(string(filepath.Separator), "project", "src")

// Build walks lambdas/<function>/handler.py over files, whose keys are
// slash-separated paths relative to SourceRoot. packages are the installed
// third-party module names.
func Build(t *testing.T, function string, files map[string]string, packages ...string) *bundle.Plan {
	t.Helper()

	sources := make(map[string][]byte, len(files))
	paths := make([]string, 0, len(files))
	for name, content := range files {
		path := filepath.Join(SourceRoot, filepath.FromSlash(name))
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

	project := classify.NewProjectIndexFromFiles([]string{SourceRoot}, paths)
	classifier := classify.New(classify.EmbeddedStdlib(), classify.NewPackageIndexFromNames(packages...), project)
	walker := bundle.NewWalker(classifier, bundle.WalkerOptions{
		SourceRoot: SourceRoot,
		Reader:     reader,
		Logger:     logging.Discard(),
	})

	plan, err := walker.Walk(function, filepath.Join(SourceRoot, "lambdas", function, "handler.py"))
	if err != nil {
		t.Fatalf("walk %s: %v", function, err)
	}
	return plan
}

// Orders is a small plan with first-party files, packages and a missing module.
func Orders(t *testing.T) *bundle.Plan {
	t.Helper()
	return Build(t, "orders", map[string]string{
		"lambdas/orders/handler.py": "import boto3\nimport service\nimport ghost\n",
		"service.py":                "import repository\nimport requests\n",
		"repository.py":             "import boto3\n",
	}, "boto3", "requests")
}
