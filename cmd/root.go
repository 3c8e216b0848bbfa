package cmd

import (
	"os"

	"github.com/LegacyCodeHQ/pybundle/cmd/gather"
	"github.com/LegacyCodeHQ/pybundle/cmd/graph"
	"github.com/LegacyCodeHQ/pybundle/cmd/options"
	"github.com/LegacyCodeHQ/pybundle/cmd/plan"
	"github.com/LegacyCodeHQ/pybundle/cmd/watch"
	"github.com/LegacyCodeHQ/pybundle/cmd/why"
	"github.com/LegacyCodeHQ/pybundle/internal/logging"
	"github.com/spf13/cobra"
)

// version is set via build-time ldflags
var version = "dev"

// buildDate is set via build-time ldflags
var buildDate = "unknown"

// commit is set via build-time ldflags
var commit = "unknown"

// rootCmd represents the base command when called without any subcommands
var rootCmd = NewRootCommand()

// NewRootCommand builds the pybundle command tree. Run without a subcommand
// it behaves like "pybundle gather".
func NewRootCommand() *cobra.Command {
	flags := &options.BundleFlags{}
	var verbose bool

	cmd := &cobra.Command{
		Use:   "pybundle",
		Short: "Bundle Python Lambda functions with only the code they import",
		Long: `pybundle walks the imports of every Lambda handler under the source
directory and writes one bundle per function: the first-party files the
handler reaches and a requirements.txt of the third-party packages it uses.

Running pybundle with no subcommand gathers every function.

Use 'pybundle --help' to see all available commands, or 'pybundle <command> --help'
for detailed information about a specific command.`,
		Version:      version,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.New(cmd.ErrOrStderr(), verbose)
			cmd.SetContext(logging.WithLogger(options.Context(cmd), logger))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return gather.Run(cmd, flags)
		},
	}

	flags.Register(cmd, true)
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log every resolution step")
	cmd.PersistentFlags().String(options.ConfigFlag, "", "Config file (default: pybundle.toml, pybundle.yaml or pyproject.toml [tool.pybundle])")

	cmd.AddCommand(gather.NewCommand())
	cmd.AddCommand(plan.NewCommand())
	cmd.AddCommand(graph.NewCommand())
	cmd.AddCommand(why.NewCommand())
	cmd.AddCommand(watch.NewCommand())

	// Initialize annotations for version template
	cmd.Annotations = map[string]string{
		"buildDate": buildDate,
		"commit":    commit,
	}

	// Customize version template to show additional build info
	cmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s" .Version}}
Build date: {{printf "%s" (index .Annotations "buildDate")}}
Commit: {{printf "%s" (index .Annotations "commit")}}
`)

	return cmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
