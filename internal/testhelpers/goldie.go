package testhelpers

import (
	"testing"

	"github.com/sebdah/goldie/v2"
)

// DotGoldie creates a goldie instance for Graphviz DOT output.
func DotGoldie(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t, goldie.WithNameSuffix(".gold.dot"))
}

// MermaidGoldie creates a goldie instance for Mermaid output.
func MermaidGoldie(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t, goldie.WithNameSuffix(".gold.mmd"))
}

// TextGoldie creates a goldie instance for plain text output such as requirements files.
func TextGoldie(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t, goldie.WithNameSuffix(".gold.txt"))
}
