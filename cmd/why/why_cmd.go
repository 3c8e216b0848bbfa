package why

import (
	"fmt"
	"strings"

	"github.com/LegacyCodeHQ/pybundle/bundle"
	"github.com/LegacyCodeHQ/pybundle/cmd/graph"
	"github.com/LegacyCodeHQ/pybundle/cmd/options"
	"github.com/spf13/cobra"
)

// NewCommand returns a new why command instance.
func NewCommand() *cobra.Command {
	flags := &options.BundleFlags{}

	cmd := &cobra.Command{
		Use:   "why <function> <module>",
		Short: "Show the import chain that pulls a module into a bundle.",
		Long: `Show the import chain that pulls a module into a bundle.

The module can be a dotted first-party module (app.models), a bundle path
(app/models.py) or a requirement name (boto3).

Examples:
  pybundle why orders boto3
  pybundle why orders shared.db`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWhy(cmd, flags, args[0], args[1])
		},
	}

	flags.Register(cmd, false)

	return cmd
}

func runWhy(cmd *cobra.Command, flags *options.BundleFlags, function, module string) error {
	plan, err := graph.PlanFunction(cmd, flags, function)
	if err != nil {
		return err
	}

	vertex, ok := findVertex(plan, module)
	if !ok {
		return fmt.Errorf("%s is not imported by %s", module, function)
	}

	chain, err := plan.ImportChain(vertex)
	if err != nil {
		return fmt.Errorf("no import chain from %s to %s: %w", plan.EntryVertex(), vertex, err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), formatChain(function, vertex, chain))
	return err
}

// findVertex maps user input to an import graph vertex.
func findVertex(plan *bundle.Plan, module string) (string, bool) {
	edges, err := plan.Edges()
	if err != nil {
		return "", false
	}

	modulePath := strings.ReplaceAll(module, ".", "/")
	candidates := []string{
		module,
		modulePath + ".py",
		modulePath + "/__init__.py",
	}
	for _, candidate := range candidates {
		if _, ok := edges[candidate]; ok {
			return candidate, true
		}
	}

	// Requirement vertices use distribution names; match case-insensitively.
	for vertex := range edges {
		if plan.VertexKind(vertex) == bundle.KindPackage && strings.EqualFold(vertex, module) {
			return vertex, true
		}
	}
	return "", false
}

func formatChain(function, vertex string, chain []string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s imports %s via:\n", function, vertex))
	for i, step := range chain {
		if i == 0 {
			sb.WriteString("  " + step)
		} else {
			sb.WriteString("\n  -> " + step)
		}
	}
	return sb.String()
}
