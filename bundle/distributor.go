package bundle

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// RequirementsFile is the name of the requirements list written into every bundle.
const RequirementsFile = "requirements.txt"

// Distribute copies a plan's files under bundleDir and then writes its
// requirements file. Copies happen first, so a requirements file implies every
// copy was attempted. Nothing is rolled back on failure.
func Distribute(plan *Plan, bundleDir string) error {
	if err := os.MkdirAll(bundleDir, 0o755); err != nil {
		return &CopyError{Dest: bundleDir, Err: err}
	}

	for _, c := range plan.Copies {
		dest := filepath.Join(bundleDir, filepath.FromSlash(c.Dest))
		if err := CopyFile(c.Source, dest); err != nil {
			return err
		}
	}

	return WriteRequirements(filepath.Join(bundleDir, RequirementsFile), plan.Requirements)
}

// CopyFile copies src to dest verbatim, creating parent directories and
// preserving the source's mode and modification time.
func CopyFile(src, dest string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return &CopyError{Source: src, Dest: dest, Err: err}
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return &CopyError{Source: src, Dest: dest, Err: err}
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return &CopyError{Source: src, Dest: dest, Err: err}
	}

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return &CopyError{Source: src, Dest: dest, Err: err}
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = &CopyError{Source: src, Dest: dest, Err: closeErr}
		}
	}()

	if _, err := io.Copy(out, in); err != nil {
		return &CopyError{Source: src, Dest: dest, Err: err}
	}
	if err := out.Chmod(info.Mode().Perm()); err != nil {
		return &CopyError{Source: src, Dest: dest, Err: err}
	}
	if err := os.Chtimes(dest, info.ModTime(), info.ModTime()); err != nil {
		return &CopyError{Source: src, Dest: dest, Err: err}
	}
	return nil
}

// FormatRequirements renders names one per line, sorted and deduplicated,
// each line newline-terminated.
func FormatRequirements(names []string) string {
	var sb strings.Builder
	for _, name := range dedupeSorted(names) {
		sb.WriteString(name)
		sb.WriteString("\n")
	}
	return sb.String()
}

// WriteRequirements writes FormatRequirements(names) to path.
func WriteRequirements(path string, names []string) error {
	if err := os.WriteFile(path, []byte(FormatRequirements(names)), 0o644); err != nil {
		return &CopyError{Dest: path, Err: fmt.Errorf("writing requirements: %w", err)}
	}
	return nil
}

// dedupeSorted returns the distinct non-empty names in lexical order.
func dedupeSorted(names []string) []string {
	seen := make(map[string]bool, len(names))
	result := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}
