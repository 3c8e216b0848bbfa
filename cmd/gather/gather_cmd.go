package gather

import (
	"fmt"

	"github.com/LegacyCodeHQ/pybundle/bundle"
	"github.com/LegacyCodeHQ/pybundle/cmd/options"
	"github.com/spf13/cobra"
)

// NewCommand returns a new gather command instance.
func NewCommand() *cobra.Command {
	flags := &options.BundleFlags{}

	cmd := &cobra.Command{
		Use:   "gather",
		Short: "Bundle every Lambda function with the files and packages it imports.",
		Long: `Bundle every Lambda function with the files and packages it imports.

Each subdirectory of the source directory is a function whose handler is walked
for imports. Its first-party files are copied into the distribution directory
and the third-party packages it needs are listed in requirements.txt.

Examples:
  pybundle gather
  pybundle gather --src ./functions --dist ./build
  pybundle gather --no-probe --package-path .venv/lib/python3.12/site-packages`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return Run(cmd, flags)
		},
	}

	flags.Register(cmd, true)

	return cmd
}

// Run gathers dependencies for every function and reports the bundles written.
func Run(cmd *cobra.Command, flags *options.BundleFlags) error {
	opts, err := flags.Resolve(cmd)
	if err != nil {
		return err
	}

	plans, err := bundle.Gather(options.Context(cmd), opts)
	if err != nil {
		return err
	}

	for _, plan := range plans {
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s: %d files, %d requirements\n",
			plan.Function, len(plan.Copies), len(plan.Requirements)); err != nil {
			return err
		}
	}
	return nil
}
