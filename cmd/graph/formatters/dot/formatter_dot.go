package dot

import (
	"fmt"
	"strings"

	"github.com/LegacyCodeHQ/pybundle/bundle"
	"github.com/LegacyCodeHQ/pybundle/cmd/graph/formatters"
)

// Formatter formats import graphs as Graphviz DOT.
type Formatter struct{}

// Format converts the plan's import graph to Graphviz DOT format.
func (f *Formatter) Format(plan *bundle.Plan, opts formatters.RenderOptions) (string, error) {
	adjacency, err := plan.Edges()
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("digraph imports {\n")
	sb.WriteString("  rankdir=LR;\n")
	sb.WriteString("  node [shape=box];\n")

	if opts.Label != "" {
		sb.WriteString(fmt.Sprintf("  label=%q;\n", opts.Label))
		sb.WriteString("  labelloc=t;\n")
		sb.WriteString("  labeljust=l;\n")
		sb.WriteString("  fontsize=10;\n")
		sb.WriteString("  fontname=Courier;\n")
	}
	sb.WriteString("\n")

	nodes := formatters.Nodes(plan, adjacency)
	for _, node := range nodes {
		sb.WriteString(fmt.Sprintf("  %q [%s];\n", node.Name, nodeAttributes(node)))
	}
	if len(nodes) > 0 {
		sb.WriteString("\n")
	}

	for _, node := range nodes {
		for _, dep := range adjacency[node.Name] {
			sb.WriteString(fmt.Sprintf("  %q -> %q;\n", node.Name, dep))
		}
	}

	sb.WriteString("}\n")
	return sb.String(), nil
}

func nodeAttributes(node formatters.Node) string {
	switch {
	case node.Kind == bundle.KindPackage:
		return "shape=ellipse, style=filled, fillcolor=lightblue"
	case node.Kind == bundle.KindMissing:
		return `style="filled,dashed", fillcolor=lightcoral`
	case node.Entry:
		return "style=filled, fillcolor=lightyellow, penwidth=2"
	default:
		return "style=filled, fillcolor=white"
	}
}
