package watch

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/LegacyCodeHQ/pybundle/bundle"
	"github.com/LegacyCodeHQ/pybundle/cmd/options"
	"github.com/LegacyCodeHQ/pybundle/internal/logging"
	"github.com/spf13/cobra"
)

// NewCommand returns a new watch command instance.
func NewCommand() *cobra.Command {
	flags := &options.BundleFlags{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Rebuild the bundles whenever a Python source file changes.",
		Long: `Gather once, then watch the source root and the functions directory and
gather again each time a .py file is written, created, renamed or removed.

Examples:
  pybundle watch
  pybundle watch --src ./functions --dist ./build`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, flags)
		},
	}

	flags.Register(cmd, true)

	return cmd
}

func runWatch(cmd *cobra.Command, flags *options.BundleFlags) error {
	opts, err := flags.Resolve(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(options.Context(cmd), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	logger := logging.FromContext(ctx)

	rebuild := func(ctx context.Context) {
		plans, err := bundle.Gather(ctx, opts)
		if err != nil {
			logger.Error("gather failed", "err", err)
			return
		}
		for _, plan := range plans {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d files, %d requirements\n",
				plan.Function, len(plan.Copies), len(plan.Requirements))
		}
	}

	roots, ignored, err := watchPaths(opts)
	if err != nil {
		return err
	}

	rebuild(ctx)

	for _, root := range roots {
		fmt.Fprintf(cmd.OutOrStdout(), "Watching %s\n", root)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Press Ctrl+C to stop\n")

	return watchAndRebuild(ctx, roots, ignored, rebuild, logger)
}

// watchPaths returns the directories to watch and the dist directory, whose
// writes must never trigger another rebuild.
func watchPaths(opts bundle.Options) (roots []string, ignored []string, err error) {
	sourceRoot, err := filepath.Abs(opts.SourceRoot)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve path %s: %w", opts.SourceRoot, err)
	}
	srcDir, err := filepath.Abs(opts.SrcDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve path %s: %w", opts.SrcDir, err)
	}
	distDir, err := filepath.Abs(opts.DistDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve path %s: %w", opts.DistDir, err)
	}

	roots = []string{sourceRoot}
	if !isIgnored(srcDir, roots) {
		roots = append(roots, srcDir)
	}
	return roots, []string{distDir}, nil
}
