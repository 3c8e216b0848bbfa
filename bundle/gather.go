// Package bundle walks the import closure of each Lambda handler and writes a
// self-contained bundle per function: the first-party files it needs and a
// requirements.txt naming the third-party packages it imports.
package bundle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/LegacyCodeHQ/pybundle/classify"
	"github.com/LegacyCodeHQ/pybundle/config"
	"github.com/LegacyCodeHQ/pybundle/internal/logging"
	"github.com/LegacyCodeHQ/pybundle/interpreter"
	"github.com/LegacyCodeHQ/pybundle/pyimports"
)

// ProbeFunc queries a Python interpreter.
type ProbeFunc func(ctx context.Context, python, dir string) (*interpreter.Info, error)

// Options controls a gather run. Relative paths resolve against the working directory.
type Options struct {
	SrcDir     string
	SourceRoot string
	Handler    string
	DistDir    string
	Clean      bool

	// Functions limits the run to the named function directories.
	Functions []string

	Python       string
	Probe        bool
	PackagePaths []string

	FirstParty []string
	ThirdParty []string
	Aliases    map[string]string
	SkipDirs   []string

	Reader pyimports.ContentReader
	Prober ProbeFunc
}

// OptionsFromConfig copies settings from a loaded config.
func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		SrcDir:       cfg.SrcDir,
		SourceRoot:   cfg.SourceRoot,
		Handler:      cfg.Handler,
		DistDir:      cfg.DistDir,
		Clean:        cfg.Clean,
		Python:       cfg.Python,
		Probe:        cfg.Probe,
		PackagePaths: cfg.PackagePaths,
		FirstParty:   cfg.FirstParty,
		ThirdParty:   cfg.ThirdParty,
		Aliases:      cfg.RequirementAliases,
		SkipDirs:     cfg.SkipDirs,
	}
}

// Function is one Lambda function directory and its entry file.
type Function struct {
	Name  string
	Dir   string
	Entry string
}

var skippedFunctionDirs = map[string]bool{
	"__pycache__": true,
}

// Functions lists the function directories under opts.SrcDir in name order.
// A missing source directory, a requested function that does not exist, or a
// function directory without an entry file is an ErrMissingSource.
func Functions(opts Options) ([]Function, error) {
	srcDir, err := filepath.Abs(opts.SrcDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path %s: %w", opts.SrcDir, err)
	}

	info, err := os.Stat(srcDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s does not exist", ErrMissingSource, opts.SrcDir)
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrMissingSource, opts.SrcDir)
	}

	var names []string
	if len(opts.Functions) > 0 {
		names = append(names, opts.Functions...)
	} else {
		entries, err := os.ReadDir(srcDir)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", opts.SrcDir, err)
		}
		for _, entry := range entries {
			name := entry.Name()
			if !entry.IsDir() || skippedFunctionDirs[name] ||
				strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
				continue
			}
			names = append(names, name)
		}
	}
	sort.Strings(names)

	functions := make([]Function, 0, len(names))
	for _, name := range names {
		dir := filepath.Join(srcDir, name)
		entry := filepath.Join(dir, opts.Handler)
		if _, err := os.Stat(entry); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s", ErrMissingSource, entry)
			}
			return nil, err
		}
		functions = append(functions, Function{Name: name, Dir: dir, Entry: entry})
	}

	return functions, nil
}

// NewClassifier gathers the classification oracles once for the whole run:
// the stdlib listing, the installed package index and the project index.
func NewClassifier(ctx context.Context, opts Options) (*classify.Classifier, error) {
	logger := logging.FromContext(ctx)

	var info *interpreter.Info
	if opts.Probe {
		prober := opts.Prober
		if prober == nil {
			prober = interpreter.Probe
		}
		probed, err := prober(ctx, opts.Python, ".")
		if err != nil {
			logger.Warn("interpreter unavailable, using embedded stdlib listing", "python", opts.Python, "err", err)
		} else {
			info = probed
			logger.Debug("probed interpreter", "python", opts.Python, "version", info.Version)
		}
	}

	stdlib := classify.EmbeddedStdlib()
	var packagePaths []string
	if info != nil {
		if info.HasStdlibListing() {
			stdlib = classify.NewStdlibSet(info.StdlibNames()...)
		} else {
			for _, name := range info.Builtin {
				stdlib[name] = struct{}{}
			}
		}
		packagePaths = classify.PackagePaths(info.Path)
	}
	// Project virtualenvs are indexed even when the probe succeeded.
	packagePaths = appendUniquePaths(packagePaths, classify.DiscoverPackagePaths(".")...)
	packagePaths = appendUniquePaths(packagePaths, opts.PackagePaths...)

	packages := classify.NewPackageIndex(packagePaths)
	for _, dir := range packages.Unreadable() {
		logger.Debug("skipping unreadable package directory", "path", dir)
	}
	logger.Debug("indexed installed packages", "paths", len(packagePaths), "modules", packages.Len())

	sourceRoot, err := filepath.Abs(opts.SourceRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path %s: %w", opts.SourceRoot, err)
	}
	srcDir, err := filepath.Abs(opts.SrcDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path %s: %w", opts.SrcDir, err)
	}

	roots := []string{sourceRoot}
	if !within(srcDir, sourceRoot) {
		roots = append(roots, srcDir)
	}
	skipDirs := append(append([]string(nil), classify.DefaultSkippedDirs...), opts.SkipDirs...)
	if distDir, err := filepath.Abs(opts.DistDir); err == nil && within(distDir, sourceRoot) {
		skipDirs = append(skipDirs, filepath.Base(distDir))
	}

	project, err := classify.NewProjectIndex(existingDirs(roots), skipDirs)
	if err != nil {
		return nil, err
	}

	classifier := classify.New(stdlib, packages, project)
	classifier.Pin(classify.FirstParty, opts.FirstParty...)
	classifier.Pin(classify.ThirdParty, opts.ThirdParty...)
	return classifier, nil
}

// PlanAll resolves every function's plan without writing anything.
func PlanAll(ctx context.Context, opts Options) ([]*Plan, error) {
	logger := logging.FromContext(ctx)

	functions, err := Functions(opts)
	if err != nil {
		return nil, err
	}

	classifier, err := NewClassifier(ctx, opts)
	if err != nil {
		return nil, err
	}

	sourceRoot, err := filepath.Abs(opts.SourceRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path %s: %w", opts.SourceRoot, err)
	}

	walker := NewWalker(classifier, WalkerOptions{
		SourceRoot: sourceRoot,
		Reader:     opts.Reader,
		Aliases:    opts.Aliases,
		Logger:     logger,
	})

	plans := make([]*Plan, 0, len(functions))
	for _, fn := range functions {
		progress := logging.StartProgress(logger)
		plan, err := walker.Walk(fn.Name, fn.Entry)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", fn.Name, err)
		}
		progress.Done("Resolved imports", "function", fn.Name, "files", len(plan.Copies), "requirements", len(plan.Requirements))
		plans = append(plans, plan)
	}

	return plans, nil
}

// Gather plans every function and then writes the bundles under opts.DistDir.
// No output is written unless every plan resolved.
func Gather(ctx context.Context, opts Options) ([]*Plan, error) {
	logger := logging.FromContext(ctx)

	plans, err := PlanAll(ctx, opts)
	if err != nil {
		return nil, err
	}

	if opts.Clean {
		if err := checkCleanable(opts); err != nil {
			return nil, err
		}
		if err := os.RemoveAll(opts.DistDir); err != nil {
			return nil, &CopyError{Dest: opts.DistDir, Err: err}
		}
	}
	if err := os.MkdirAll(opts.DistDir, 0o755); err != nil {
		return nil, &CopyError{Dest: opts.DistDir, Err: err}
	}

	for _, plan := range plans {
		progress := logging.StartProgress(logger)
		if err := Distribute(plan, filepath.Join(opts.DistDir, plan.Function)); err != nil {
			return nil, fmt.Errorf("failed to bundle %s: %w", plan.Function, err)
		}
		progress.Done("Bundled", "function", plan.Function, "dist", filepath.Join(opts.DistDir, plan.Function))
	}

	return plans, nil
}

// checkCleanable refuses to remove a dist directory that holds the sources.
func checkCleanable(opts Options) error {
	distDir, err := filepath.Abs(opts.DistDir)
	if err != nil {
		return fmt.Errorf("failed to resolve path %s: %w", opts.DistDir, err)
	}
	for _, dir := range []string{opts.SourceRoot, opts.SrcDir, "."} {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("failed to resolve path %s: %w", dir, err)
		}
		if within(abs, distDir) {
			return fmt.Errorf("refusing to clean %s: it contains %s", opts.DistDir, dir)
		}
	}
	return nil
}

// appendUniquePaths appends the paths not already in dst, comparing absolute paths.
func appendUniquePaths(dst []string, paths ...string) []string {
	seen := make(map[string]bool, len(dst)+len(paths))
	for _, p := range dst {
		seen[absPath(p)] = true
	}
	for _, p := range paths {
		if abs := absPath(p); !seen[abs] {
			seen[abs] = true
			dst = append(dst, p)
		}
	}
	return dst
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

func existingDirs(dirs []string) []string {
	var existing []string
	for _, dir := range dirs {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			existing = append(existing, dir)
		}
	}
	return existing
}
