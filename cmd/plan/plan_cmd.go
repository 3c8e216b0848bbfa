package plan

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/LegacyCodeHQ/pybundle/bundle"
	"github.com/LegacyCodeHQ/pybundle/cmd/options"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

const (
	formatText = "text"
	formatJSON = "json"
)

type planOptions struct {
	outputFormat string
}

// NewCommand returns a new plan command instance.
func NewCommand() *cobra.Command {
	flags := &options.BundleFlags{}
	opts := &planOptions{outputFormat: formatText}

	cmd := &cobra.Command{
		Use:   "plan [function...]",
		Short: "Show what each bundle would contain without writing anything.",
		Long: `Show what each bundle would contain without writing anything.

Lists, per function, the first-party files that would be copied, the
requirements that would be written, and modules that could not be located.

Examples:
  pybundle plan
  pybundle plan orders payments
  pybundle plan -f json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd, flags, opts, args)
		},
	}

	flags.Register(cmd, false)
	cmd.Flags().StringVarP(&opts.outputFormat, "format", "f", opts.outputFormat, "Output format (text, json)")

	return cmd
}

func runPlan(cmd *cobra.Command, flags *options.BundleFlags, opts *planOptions, functions []string) error {
	if opts.outputFormat != formatText && opts.outputFormat != formatJSON {
		return fmt.Errorf("unknown format: %s (valid options: %s, %s)", opts.outputFormat, formatText, formatJSON)
	}

	bundleOpts, err := flags.Resolve(cmd)
	if err != nil {
		return err
	}
	bundleOpts.Functions = functions

	plans, err := bundle.PlanAll(options.Context(cmd), bundleOpts)
	if err != nil {
		return err
	}

	switch opts.outputFormat {
	case formatJSON:
		return writeJSON(cmd.OutOrStdout(), plans)
	default:
		return writeText(cmd.OutOrStdout(), plans)
	}
}

func writeJSON(w io.Writer, plans []*bundle.Plan) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(plans)
}

func writeText(w io.Writer, plans []*bundle.Plan) error {
	renderer := lipgloss.NewRenderer(w)
	heading := renderer.NewStyle().Bold(true)
	section := renderer.NewStyle().Faint(true)
	missing := renderer.NewStyle().Foreground(lipgloss.Color("9"))

	var sb strings.Builder
	for i, plan := range plans {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(heading.Render(plan.Function))
		sb.WriteString("\n")

		sb.WriteString(section.Render("  files:"))
		sb.WriteString("\n")
		for _, c := range plan.Copies {
			if c.Missing {
				sb.WriteString("    " + missing.Render(c.Dest+" (not found)") + "\n")
				continue
			}
			sb.WriteString("    " + c.Dest + "\n")
		}

		sb.WriteString(section.Render("  requirements:"))
		sb.WriteString("\n")
		if len(plan.Requirements) == 0 {
			sb.WriteString("    (none)\n")
		}
		for _, req := range plan.Requirements {
			sb.WriteString("    " + req + "\n")
		}

		if len(plan.Unresolved) > 0 {
			sb.WriteString(section.Render("  unresolved:"))
			sb.WriteString("\n")
			for _, name := range plan.Unresolved {
				sb.WriteString("    " + missing.Render(name) + "\n")
			}
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}
