package mermaid

import (
	"fmt"
	"strings"

	"github.com/LegacyCodeHQ/pybundle/bundle"
	"github.com/LegacyCodeHQ/pybundle/cmd/graph/formatters"
)

// Formatter formats import graphs as Mermaid.js flowcharts.
type Formatter struct{}

// Format converts the plan's import graph to a Mermaid.js flowchart.
func (f *Formatter) Format(plan *bundle.Plan, opts formatters.RenderOptions) (string, error) {
	adjacency, err := plan.Edges()
	if err != nil {
		return "", err
	}

	var sb strings.Builder

	if opts.Label != "" {
		sb.WriteString("---\n")
		sb.WriteString(fmt.Sprintf("title: %s\n", opts.Label))
		sb.WriteString("---\n")
	}

	sb.WriteString("flowchart LR\n")

	// Mermaid node IDs can't have dots or slashes.
	nodes := formatters.Nodes(plan, adjacency)
	nodeIDs := make(map[string]string, len(nodes))
	for i, node := range nodes {
		nodeIDs[node.Name] = fmt.Sprintf("n%d", i)
	}

	var packages, missing, entries []string
	for _, node := range nodes {
		id := nodeIDs[node.Name]
		sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", id, node.Name))
		switch {
		case node.Kind == bundle.KindPackage:
			packages = append(packages, id)
		case node.Kind == bundle.KindMissing:
			missing = append(missing, id)
		case node.Entry:
			entries = append(entries, id)
		}
	}

	for _, node := range nodes {
		for _, dep := range adjacency[node.Name] {
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", nodeIDs[node.Name], nodeIDs[dep]))
		}
	}

	writeClass(&sb, "entry", "fill:#ffffe0,stroke-width:2px", entries)
	writeClass(&sb, "package", "fill:#add8e6", packages)
	writeClass(&sb, "missing", "fill:#f08080,stroke-dasharray:5 5", missing)

	return sb.String(), nil
}

func writeClass(sb *strings.Builder, name, style string, ids []string) {
	if len(ids) == 0 {
		return
	}
	sb.WriteString(fmt.Sprintf("    classDef %s %s\n", name, style))
	sb.WriteString(fmt.Sprintf("    class %s %s\n", strings.Join(ids, ","), name))
}
