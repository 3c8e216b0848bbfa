// Package options binds the bundle flags shared by gather, plan, graph, why
// and watch, and layers them over the config file.
package options

import (
	"context"

	"github.com/LegacyCodeHQ/pybundle/bundle"
	"github.com/LegacyCodeHQ/pybundle/config"
	"github.com/LegacyCodeHQ/pybundle/internal/logging"
	"github.com/spf13/cobra"
)

// ConfigFlag is the persistent flag naming an explicit config file.
const ConfigFlag = "config"

// BundleFlags holds command-line overrides for the bundle options.
type BundleFlags struct {
	srcDir       string
	sourceRoot   string
	handler      string
	distDir      string
	noClean      bool
	python       string
	noProbe      bool
	packagePaths []string
}

// Register adds the layout and interpreter flags to cmd. withDist adds the
// flags that only matter when bundles are written.
func (f *BundleFlags) Register(cmd *cobra.Command, withDist bool) {
	defaults := config.Default()
	flags := cmd.Flags()
	flags.StringVar(&f.srcDir, "src", defaults.SrcDir, "Directory holding one subdirectory per function")
	flags.StringVar(&f.sourceRoot, "source-root", defaults.SourceRoot, "Directory absolute first-party imports resolve against")
	flags.StringVar(&f.handler, "handler", defaults.Handler, "Entry file name inside each function directory")
	flags.StringVar(&f.python, "python", defaults.Python, "Python interpreter to query for its stdlib and sys.path")
	flags.BoolVar(&f.noProbe, "no-probe", false, "Do not run the interpreter; use the embedded stdlib listing")
	flags.StringSliceVar(&f.packagePaths, "package-path", nil, "Additional installed-package directories (comma-separated)")
	if withDist {
		flags.StringVarP(&f.distDir, "dist", "d", defaults.DistDir, "Distribution directory")
		flags.BoolVar(&f.noClean, "no-clean", false, "Keep existing distribution directory contents")
	}
}

// Resolve loads the config file and applies any flags that were set explicitly.
func (f *BundleFlags) Resolve(cmd *cobra.Command) (bundle.Options, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return bundle.Options{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("src") {
		cfg.SrcDir = f.srcDir
	}
	if flags.Changed("source-root") {
		cfg.SourceRoot = f.sourceRoot
	}
	if flags.Changed("handler") {
		cfg.Handler = f.handler
	}
	if flags.Changed("python") {
		cfg.Python = f.python
	}
	if flags.Changed("no-probe") {
		cfg.Probe = !f.noProbe
	}
	if flags.Changed("package-path") {
		cfg.PackagePaths = append(cfg.PackagePaths, f.packagePaths...)
	}
	if flags.Changed("dist") {
		cfg.DistDir = f.distDir
	}
	if flags.Changed("no-clean") {
		cfg.Clean = !f.noClean
	}

	if err := cfg.Validate(); err != nil {
		return bundle.Options{}, err
	}

	opts := bundle.OptionsFromConfig(cfg)
	logging.FromContext(Context(cmd)).Debug("resolved options", "src", opts.SrcDir, "source_root", opts.SourceRoot, "dist", opts.DistDir)
	return opts, nil
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	if flag := cmd.Flag(ConfigFlag); flag != nil && flag.Value.String() != "" {
		return config.Load(flag.Value.String())
	}

	cfg, path, err := config.Discover(".")
	if err != nil {
		return config.Config{}, err
	}
	if path != "" {
		logging.FromContext(Context(cmd)).Debug("loaded config", "path", path)
	}
	return cfg, nil
}

// Context returns the command's context, or a background context when the
// command runs outside Execute.
func Context(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
