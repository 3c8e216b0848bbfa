package classify

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DefaultSkippedDirs are never scanned for first-party code. Virtualenvs are
// recognised by their pyvenv.cfg whatever they are called.
var DefaultSkippedDirs = []string{
	"__pycache__",
	"node_modules",
	"site-packages",
}

// ProjectIndex is the set of Python files and package directories found under
// a project's search roots. Roots are tried in order, the way sys.path is.
type ProjectIndex struct {
	roots    []string
	files    map[string]bool
	packages map[string]bool
}

// NewProjectIndex walks every root once. Hidden directories and skipDirs are
// not descended into.
func NewProjectIndex(roots []string, skipDirs []string) (*ProjectIndex, error) {
	skipped := make(map[string]bool, len(skipDirs))
	for _, name := range skipDirs {
		skipped[name] = true
	}

	var files []string
	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() {
				if path != root && (skipped[d.Name()] || strings.HasPrefix(d.Name(), ".") || IsVirtualenv(path)) {
					return filepath.SkipDir
				}
				return nil
			}
			if filepath.Ext(path) == ".py" {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to index %s: %w", root, err)
		}
	}

	return NewProjectIndexFromFiles(roots, files), nil
}

// IsVirtualenv reports whether dir holds a pyvenv.cfg.
func IsVirtualenv(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, "pyvenv.cfg"))
	return err == nil
}

// NewProjectIndexFromFiles builds an index from already enumerated file paths.
func NewProjectIndexFromFiles(roots []string, files []string) *ProjectIndex {
	idx := &ProjectIndex{
		roots:    cleanPaths(roots),
		files:    make(map[string]bool, len(files)),
		packages: make(map[string]bool),
	}
	for _, file := range files {
		file = filepath.Clean(file)
		idx.files[file] = true
		for dir := filepath.Dir(file); ; dir = filepath.Dir(dir) {
			if idx.packages[dir] {
				break
			}
			idx.packages[dir] = true
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
		}
	}
	return idx
}

// WithRoots returns a view of the same files searched through different roots.
func (idx *ProjectIndex) WithRoots(roots ...string) *ProjectIndex {
	return &ProjectIndex{
		roots:    cleanPaths(roots),
		files:    idx.files,
		packages: idx.packages,
	}
}

// Roots returns the search roots in lookup order.
func (idx *ProjectIndex) Roots() []string {
	return append([]string(nil), idx.roots...)
}

// HasFile reports whether path is an indexed Python file.
func (idx *ProjectIndex) HasFile(path string) bool {
	return idx.files[filepath.Clean(path)]
}

// ModuleFile returns the file implementing the dotted module relative to base:
// base/a/b.py, or base/a/b/__init__.py for a package.
func (idx *ProjectIndex) ModuleFile(base, dotted string) (string, bool) {
	rel := modulePath(dotted)
	if rel == "" {
		candidate := filepath.Join(base, "__init__.py")
		return candidate, idx.files[candidate]
	}

	fileCandidate := filepath.Join(base, rel) + ".py"
	if idx.files[fileCandidate] {
		return fileCandidate, true
	}

	packageCandidate := filepath.Join(base, rel, "__init__.py")
	if idx.files[packageCandidate] {
		return packageCandidate, true
	}

	return "", false
}

// IsNamespacePackage reports whether the dotted module relative to base is a
// directory holding Python files but no __init__.py.
func (idx *ProjectIndex) IsNamespacePackage(base, dotted string) bool {
	rel := modulePath(dotted)
	if rel == "" {
		return false
	}
	return idx.packages[filepath.Join(base, rel)]
}

// Resolve finds the search root holding the dotted module. The returned file is
// empty when the module is a namespace package.
func (idx *ProjectIndex) Resolve(dotted string) (root string, file string, ok bool) {
	for _, root := range idx.roots {
		if file, ok := idx.ModuleFile(root, dotted); ok {
			return root, file, true
		}
		if idx.IsNamespacePackage(root, dotted) {
			return root, "", true
		}
	}
	return "", "", false
}

// IsFirstParty reports whether a file or package for name exists under any of
// the index's search roots.
func IsFirstParty(name string, project *ProjectIndex) bool {
	if project == nil || name == "" {
		return false
	}
	_, _, ok := project.Resolve(name)
	return ok
}

func modulePath(dotted string) string {
	return strings.ReplaceAll(dotted, ".", string(filepath.Separator))
}

func cleanPaths(paths []string) []string {
	cleaned := make([]string, 0, len(paths))
	for _, p := range paths {
		cleaned = append(cleaned, filepath.Clean(p))
	}
	return cleaned
}
