package bundle

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/LegacyCodeHQ/pybundle/classify"
	"github.com/LegacyCodeHQ/pybundle/pyimports"
	"github.com/charmbracelet/log"
)

// nodeState tracks a first-party file through the walk.
type nodeState int

const (
	statePending nodeState = iota // discovered, waiting in the queue
	stateVisited                  // parsed
	stateDone                     // imports merged into the plan
)

// Walker computes the import closure of an entry file.
type Walker struct {
	classifier *classify.Classifier
	project    *classify.ProjectIndex
	sourceRoot string
	reader     pyimports.ContentReader
	aliases    map[string]string
	logger     *log.Logger
}

// WalkerOptions configures a Walker.
type WalkerOptions struct {
	// SourceRoot is searched after the entry directory for absolute imports.
	SourceRoot string
	Reader     pyimports.ContentReader
	// Aliases maps an import root to the requirement name written for it.
	Aliases map[string]string
	Logger  *log.Logger
}

// NewWalker creates a walker over a classifier whose project index covers the
// source root and every entry directory.
func NewWalker(classifier *classify.Classifier, opts WalkerOptions) *Walker {
	reader := opts.Reader
	if reader == nil {
		reader = pyimports.FilesystemContentReader()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Walker{
		classifier: classifier,
		project:    classifier.Project,
		sourceRoot: filepath.Clean(opts.SourceRoot),
		reader:     reader,
		aliases:    opts.Aliases,
		logger:     logger,
	}
}

// target is a file an import resolved to, with the search root it belongs under.
type target struct {
	path    string
	root    string
	missing bool
}

// walk holds the state of a single entry point's traversal.
type walk struct {
	w          *Walker
	classifier *classify.Classifier
	project    *classify.ProjectIndex

	// states holds every discovered file, so it doubles as the seen set.
	states       map[string]nodeState
	roots        map[string]string
	queue        []string
	copies       map[string]Copy
	requirements map[string]bool
	unresolved   map[string]bool
	ambiguous    map[string]bool
	graph        ImportGraph
}

// Walk parses entryFile and every first-party file it reaches, accumulating
// the files to copy and the third-party requirements. Parse failures abort.
func (w *Walker) Walk(function, entryFile string) (*Plan, error) {
	entryFile = filepath.Clean(entryFile)
	entryDir := filepath.Dir(entryFile)

	project := w.project.WithRoots(entryDir, w.sourceRoot)
	wk := &walk{
		w:            w,
		classifier:   w.classifier.WithProject(project),
		project:      project,
		states:       make(map[string]nodeState),
		roots:        make(map[string]string),
		copies:       make(map[string]Copy),
		requirements: make(map[string]bool),
		unresolved:   make(map[string]bool),
		ambiguous:    make(map[string]bool),
		graph:        newImportGraph(),
	}

	if err := wk.discover(entryFile, entryDir); err != nil {
		return nil, err
	}

	for len(wk.queue) > 0 {
		file := wk.queue[0]
		wk.queue = wk.queue[1:]
		if err := wk.visit(file); err != nil {
			return nil, err
		}
	}

	return wk.plan(function, entryFile), nil
}

// discover records a file as needed and queues it once.
func (wk *walk) discover(file, root string) error {
	if _, seen := wk.states[file]; seen {
		return nil
	}

	dest, err := bundlePath(file, root)
	if err != nil {
		return err
	}
	if existing, ok := wk.copies[dest]; ok && existing.Source != file {
		return fmt.Errorf("%w: %s and %s both map to %s", ErrDestinationConflict, existing.Source, file, dest)
	}

	wk.states[file] = statePending
	wk.roots[file] = root
	wk.copies[dest] = Copy{Source: file, Dest: dest}
	wk.queue = append(wk.queue, file)
	return addVertex(wk.graph, dest, KindFile)
}

func (wk *walk) visit(file string) error {
	if wk.states[file] != statePending {
		return nil
	}

	imports, err := pyimports.ParseFile(file, wk.w.reader)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %v", ErrMissingSource, err)
		}
		return err
	}
	wk.states[file] = stateVisited

	from, err := bundlePath(file, wk.roots[file])
	if err != nil {
		return err
	}

	firstParty, thirdParty := pyimports.Partition(imports, wk.classifier)

	for _, name := range wk.requirementNames(file, imports, thirdParty) {
		wk.requirements[name] = true
		if err := addVertex(wk.graph, name, KindPackage); err != nil {
			return err
		}
		if err := addEdge(wk.graph, from, name); err != nil {
			return err
		}
	}

	for _, imp := range imports {
		if !imp.IsRelative() && !firstParty.Has(imp.Root()) {
			continue
		}

		targets, err := wk.resolve(file, imp)
		if err != nil {
			return err
		}
		for _, t := range targets {
			if err := wk.link(from, t); err != nil {
				return err
			}
		}
	}

	wk.states[file] = stateDone
	return nil
}

func (wk *walk) link(from string, t target) error {
	// Relative imports may climb out of the entry directory into the source root.
	if !within(t.path, t.root) && within(t.path, wk.w.sourceRoot) {
		t.root = wk.w.sourceRoot
	}

	if t.missing {
		dest, err := bundlePath(t.path, t.root)
		if err != nil {
			return err
		}
		wk.copies[dest] = Copy{Source: t.path, Dest: dest, Missing: true}
		if err := addVertex(wk.graph, dest, KindMissing); err != nil {
			return err
		}
		return addEdge(wk.graph, from, dest)
	}

	if err := wk.discover(t.path, t.root); err != nil {
		return err
	}
	dest, err := bundlePath(t.path, wk.roots[t.path])
	if err != nil {
		return err
	}
	return addEdge(wk.graph, from, dest)
}

// resolve maps one first-party import to the files it needs: the module
// itself, any parent package __init__.py, and submodules named in a from-import.
func (wk *walk) resolve(file string, imp pyimports.Import) ([]target, error) {
	if imp.IsRelative() {
		return wk.resolveRelative(file, imp)
	}

	root, _, ok := wk.project.Resolve(imp.Module)
	if !ok {
		if !wk.unresolved[imp.Module] {
			wk.w.logger.Warn("module not found, treating as first-party", "module", imp.Module, "file", file, "line", imp.Line)
		}
		wk.unresolved[imp.Module] = true
		return []target{{
			path:    filepath.Join(wk.w.sourceRoot, modulePath(imp.Module)) + ".py",
			root:    wk.w.sourceRoot,
			missing: true,
		}}, nil
	}

	return wk.moduleTargets(root, root, imp.Module, imp.Names), nil
}

func (wk *walk) resolveRelative(file string, imp pyimports.Import) ([]target, error) {
	base := filepath.Dir(file)
	for i := 1; i < imp.Level; i++ {
		base = filepath.Dir(base)
	}
	root := wk.roots[file]

	if imp.Module == "" {
		var targets []target
		if init, ok := wk.project.ModuleFile(base, ""); ok {
			targets = append(targets, target{path: init, root: root})
		}
		for _, name := range imp.Names {
			if sub, ok := wk.project.ModuleFile(base, name); ok {
				targets = append(targets, target{path: sub, root: root})
			}
		}
		return targets, nil
	}

	if _, ok := wk.project.ModuleFile(base, imp.Module); !ok && !wk.project.IsNamespacePackage(base, imp.Module) {
		wk.unresolved[imp.Path()] = true
		wk.w.logger.Warn("relative module not found", "module", imp.Path(), "file", file, "line", imp.Line)
		return []target{{
			path:    filepath.Join(base, modulePath(imp.Module)) + ".py",
			root:    root,
			missing: true,
		}}, nil
	}

	return wk.moduleTargets(base, root, imp.Module, imp.Names), nil
}

// moduleTargets lists the files of dotted (relative to base) and its parents.
func (wk *walk) moduleTargets(base, root, dotted string, names []string) []target {
	var targets []target

	parts := strings.Split(dotted, ".")
	for i := 1; i <= len(parts); i++ {
		prefix := strings.Join(parts[:i], ".")
		if file, ok := wk.project.ModuleFile(base, prefix); ok {
			targets = append(targets, target{path: file, root: root})
		}
	}

	for _, name := range names {
		if name == "*" {
			continue
		}
		if file, ok := wk.project.ModuleFile(base, dotted+"."+name); ok {
			targets = append(targets, target{path: file, root: root})
		}
	}

	return targets
}

// requirementNames maps the third-party imports of file to requirement names.
// A from-import is looked up through each imported name, so that
// "from google.cloud import storage" resolves to the distribution installing
// google.cloud.storage.
func (wk *walk) requirementNames(file string, imports []pyimports.Import, thirdParty pyimports.ModuleSet) []string {
	names := make(pyimports.ModuleSet)
	for _, imp := range imports {
		if imp.IsRelative() || !thirdParty.Has(imp.Root()) {
			continue
		}
		for _, module := range importedModules(imp) {
			names.Add(wk.requirementName(file, module))
		}
	}
	return names.Sorted()
}

func importedModules(imp pyimports.Import) []string {
	var modules []string
	for _, name := range imp.Names {
		if name != "*" {
			modules = append(modules, imp.Module+"."+name)
		}
	}
	if len(modules) == 0 {
		modules = append(modules, imp.Module)
	}
	return modules
}

func (wk *walk) requirementName(file, module string) string {
	root := pyimports.RootModule(module)
	if alias, ok := wk.w.aliases[root]; ok && alias != "" {
		return alias
	}

	dist, ambiguous := wk.classifier.Packages.LookupDistribution(module)
	if ambiguous && !wk.ambiguous[module] {
		wk.ambiguous[module] = true
		wk.w.logger.Warn("several distributions share this package, using the import name",
			"module", module, "file", file, "distributions", wk.classifier.Packages.Distributions(module))
	}
	return dist
}

func (wk *walk) plan(function, entryFile string) *Plan {
	copies := make([]Copy, 0, len(wk.copies))
	for _, c := range wk.copies {
		copies = append(copies, c)
	}
	sort.Slice(copies, func(i, j int) bool { return copies[i].Dest < copies[j].Dest })

	requirements := make([]string, 0, len(wk.requirements))
	for name := range wk.requirements {
		requirements = append(requirements, name)
	}
	sort.Strings(requirements)

	unresolved := make([]string, 0, len(wk.unresolved))
	for name := range wk.unresolved {
		unresolved = append(unresolved, name)
	}
	sort.Strings(unresolved)

	return &Plan{
		Function:     function,
		EntryFile:    entryFile,
		Copies:       copies,
		Requirements: requirements,
		Unresolved:   unresolved,
		Graph:        wk.graph,
	}
}

// bundlePath re-roots file under its search root, slash-separated.
func bundlePath(file, root string) (string, error) {
	rel, err := filepath.Rel(root, file)
	if err != nil {
		return "", fmt.Errorf("failed to place %s in bundle: %w", file, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("failed to place %s in bundle: outside %s", file, root)
	}
	return filepath.ToSlash(rel), nil
}

func within(path, root string) bool {
	_, err := bundlePath(path, root)
	return err == nil
}

func modulePath(dotted string) string {
	return strings.ReplaceAll(dotted, ".", string(filepath.Separator))
}
