// Package interpreter queries a Python interpreter once for the facts the
// classifier needs: its standard-library module names and its sys.path.
package interpreter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const probeTimeout = 10 * time.Second

const probeScript = `import json, sys
print(json.dumps({
    "version": "%d.%d.%d" % sys.version_info[:3],
    "prefix": sys.prefix,
    "stdlib": sorted(getattr(sys, "stdlib_module_names", ())),
    "builtin": sorted(sys.builtin_module_names),
    "path": sys.path,
}))`

// Info is what the interpreter reported about itself.
type Info struct {
	Version string   `json:"version"`
	Prefix  string   `json:"prefix"`
	Stdlib  []string `json:"stdlib"`
	Builtin []string `json:"builtin"`
	Path    []string `json:"path"`
}

// StdlibNames returns the union of standard-library and built-in module names.
func (i *Info) StdlibNames() []string {
	names := make([]string, 0, len(i.Stdlib)+len(i.Builtin))
	names = append(names, i.Stdlib...)
	names = append(names, i.Builtin...)
	return names
}

// HasStdlibListing reports whether the interpreter exposes sys.stdlib_module_names
// (Python 3.10+). Older interpreters only list built-in modules.
func (i *Info) HasStdlibListing() bool {
	return len(i.Stdlib) > 0
}

// Runner executes the interpreter with args from dir and returns its stdout.
type Runner func(ctx context.Context, python, dir string, args ...string) ([]byte, string, error)

// Probe runs python once and decodes what it reports.
func Probe(ctx context.Context, python, dir string) (*Info, error) {
	return ProbeWith(ctx, runPython, python, dir)
}

// ProbeWith is Probe with an injectable runner.
func ProbeWith(ctx context.Context, run Runner, python, dir string) (*Info, error) {
	if python == "" {
		return nil, errors.New("no python interpreter configured")
	}

	stdout, stderr, err := run(ctx, python, dir, "-c", probeScript)
	if err != nil {
		if stderr != "" {
			return nil, fmt.Errorf("probing %s failed: %s", python, stderr)
		}
		return nil, fmt.Errorf("probing %s failed: %w", python, err)
	}

	var info Info
	if err := json.Unmarshal(bytes.TrimSpace(stdout), &info); err != nil {
		return nil, fmt.Errorf("unexpected output from %s: %w", python, err)
	}
	return &info, nil
}

func runPython(ctx context.Context, python, dir string, args ...string) ([]byte, string, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, python, args...)
	cmd.Dir = dir

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		stderrText := strings.TrimSpace(stderr.String())
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, stderrText, fmt.Errorf("%s timed out after %s", python, probeTimeout)
		}
		return nil, stderrText, err
	}

	return stdout.Bytes(), strings.TrimSpace(stderr.String()), nil
}
