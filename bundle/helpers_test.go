package bundle

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/LegacyCodeHQ/pybundle/internal/logging"
	"github.com/stretchr/testify/require"
)

// sitePackages are the installed packages visible to every test project.
var sitePackages = map[string]string{
	"site/boto3/__init__.py":                    "",
	"site/requests/__init__.py":                 "",
	"site/yaml/__init__.py":                     "",
	"site/PyYAML-6.0.1.dist-info/METADATA":      "Name: PyYAML\nVersion: 6.0.1\n",
	"site/PyYAML-6.0.1.dist-info/top_level.txt": "_yaml\nyaml\n",
}

func withSitePackages(files map[string]string) map[string]string {
	merged := make(map[string]string, len(files)+len(sitePackages))
	for name, content := range sitePackages {
		merged[name] = content
	}
	for name, content := range files {
		merged[name] = content
	}
	return merged
}

func testOptions(root string) Options {
	return Options{
		SrcDir:       filepath.Join(root, "src", "lambdas"),
		SourceRoot:   filepath.Join(root, "src"),
		Handler:      "handler.py",
		DistDir:      filepath.Join(root, "dist"),
		Clean:        true,
		Probe:        false,
		PackagePaths: []string{filepath.Join(root, "site")},
	}
}

func testContext() context.Context {
	return logging.WithLogger(context.Background(), logging.Discard())
}

// readTree returns the content of every file under dir keyed by slash path.
func readTree(t *testing.T, dir string) map[string]string {
	t.Helper()
	tree := make(map[string]string)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		tree[filepath.ToSlash(rel)] = string(content)
		return nil
	})
	require.NoError(t, err)
	return tree
}

func copyDests(plan *Plan) []string {
	dests := make([]string, 0, len(plan.Copies))
	for _, c := range plan.Copies {
		dests = append(dests, c.Dest)
	}
	return dests
}
