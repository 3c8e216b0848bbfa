package testhelpers

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteProject writes files, keyed by slash-separated paths, under a new temp
// dir and returns the dir.
func WriteProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	return root
}

// SampleProject is a two-function layout with an installed boto3 and requests
// under site/.
func SampleProject(t *testing.T) string {
	t.Helper()
	return WriteProject(t, map[string]string{
		"src/lambdas/orders/handler.py":   "import json\nimport boto3\nfrom utils import format_order\n",
		"src/lambdas/payments/handler.py": "import requests\nfrom shared import db\n",
		"src/utils.py":                    "import logging\n",
		"src/shared/__init__.py":          "",
		"src/shared/db.py":                "import boto3\n",
		"site/boto3/__init__.py":          "",
		"site/requests/__init__.py":       "",
	})
}

// ProjectArgs returns the layout flags pointing at a SampleProject root.
func ProjectArgs(root string) []string {
	return []string{
		"--src", filepath.Join(root, "src", "lambdas"),
		"--source-root", filepath.Join(root, "src"),
		"--no-probe",
		"--package-path", filepath.Join(root, "site"),
	}
}
