package formatters

import (
	"sort"

	"github.com/LegacyCodeHQ/pybundle/bundle"
)

// RenderOptions contains optional parameters for rendering an import graph.
type RenderOptions struct {
	// Label is an optional title for the graph
	Label string
}

// Formatter renders a function's import graph.
type Formatter interface {
	Format(plan *bundle.Plan, opts RenderOptions) (string, error)
}

// Node is a graph vertex with its kind.
type Node struct {
	Name  string
	Kind  string
	Entry bool
}

// Nodes returns the plan's graph vertices in lexical order.
func Nodes(plan *bundle.Plan, adjacency map[string][]string) []Node {
	entry := plan.EntryVertex()
	names := make([]string, 0, len(adjacency))
	for name := range adjacency {
		names = append(names, name)
	}
	sort.Strings(names)

	nodes := make([]Node, 0, len(names))
	for _, name := range names {
		nodes = append(nodes, Node{Name: name, Kind: plan.VertexKind(name), Entry: name == entry})
	}
	return nodes
}
