package graph

import (
	"fmt"
	"net/url"

	"github.com/LegacyCodeHQ/pybundle/bundle"
	"github.com/LegacyCodeHQ/pybundle/cmd/graph/formatters"
	"github.com/LegacyCodeHQ/pybundle/cmd/options"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
)

type graphOptions struct {
	outputFormat    string
	generateURL     bool
	copyToClipboard bool
}

// NewCommand returns a new graph command instance.
func NewCommand() *cobra.Command {
	flags := &options.BundleFlags{}
	opts := &graphOptions{outputFormat: formatters.OutputFormatDOT.String()}

	cmd := &cobra.Command{
		Use:   "graph <function>",
		Short: "Print the import graph of one function.",
		Long: `Print the import graph of one function, from its handler through every
first-party file it reaches to the third-party packages it needs.

Examples:
  pybundle graph orders
  pybundle graph orders -f mermaid
  pybundle graph orders -u       # generate visualization URL
  pybundle graph orders -b       # copy to clipboard`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraph(cmd, flags, opts, args[0])
		},
	}

	flags.Register(cmd, false)
	cmd.Flags().StringVarP(&opts.outputFormat, "format", "f", opts.outputFormat,
		fmt.Sprintf("Output format (%s)", formatters.SupportedFormats()))
	cmd.Flags().BoolVarP(&opts.generateURL, "url", "u", false, "Generate GraphvizOnline URL for visualization (dot only)")
	cmd.Flags().BoolVarP(&opts.copyToClipboard, "clipboard", "b", false, "Copy output to clipboard")

	return cmd
}

func runGraph(cmd *cobra.Command, flags *options.BundleFlags, opts *graphOptions, function string) error {
	formatter, err := NewFormatter(opts.outputFormat)
	if err != nil {
		return err
	}

	plan, err := PlanFunction(cmd, flags, function)
	if err != nil {
		return err
	}

	output, err := formatter.Format(plan, formatters.RenderOptions{Label: plan.Function})
	if err != nil {
		return fmt.Errorf("failed to render graph: %w", err)
	}

	if opts.generateURL {
		if f, _ := formatters.ParseOutputFormat(opts.outputFormat); f != formatters.OutputFormatDOT {
			return fmt.Errorf("--url is only supported with the dot format")
		}
		output = generateGraphvizOnlineURL(output) + "\n"
	}

	if _, err := fmt.Fprint(cmd.OutOrStdout(), output); err != nil {
		return err
	}

	if opts.copyToClipboard {
		if err := clipboard.WriteAll(output); err != nil {
			return fmt.Errorf("failed to copy to clipboard: %w", err)
		}
		fmt.Fprintln(cmd.ErrOrStderr(), "Content copied to your clipboard.")
	}

	return nil
}

// PlanFunction resolves the plan of a single function.
func PlanFunction(cmd *cobra.Command, flags *options.BundleFlags, function string) (*bundle.Plan, error) {
	bundleOpts, err := flags.Resolve(cmd)
	if err != nil {
		return nil, err
	}
	bundleOpts.Functions = []string{function}

	plans, err := bundle.PlanAll(options.Context(cmd), bundleOpts)
	if err != nil {
		return nil, err
	}
	return plans[0], nil
}

// generateGraphvizOnlineURL creates a URL for GraphvizOnline with the DOT graph embedded
func generateGraphvizOnlineURL(dotGraph string) string {
	// URL encode the DOT graph for use in fragment (spaces as %20, not +)
	encoded := url.PathEscape(dotGraph)
	return fmt.Sprintf("https://dreampuf.github.io/GraphvizOnline/?engine=dot#%s", encoded)
}
