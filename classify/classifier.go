// Package classify decides whether an imported Python module belongs to the
// standard library, the project itself, or an installed third-party package.
//
// Every predicate works on sets enumerated up front (the stdlib listing, the
// package directories and the project tree), so classification never touches
// the filesystem and tests can inject fake sets.
package classify

// Class is the classification of a module name.
type Class int

const (
	Standard Class = iota
	FirstParty
	ThirdParty
)

func (c Class) String() string {
	switch c {
	case Standard:
		return "standard-library"
	case FirstParty:
		return "first-party"
	case ThirdParty:
		return "third-party"
	default:
		return "unknown"
	}
}

// Result is the outcome of classifying one module name.
type Result struct {
	Class Class
	// Confirmed is false when the module matched nothing and fell back to FirstParty.
	Confirmed bool
}

// Classifier applies the classification precedence over fixed oracles:
// pinned names, then standard library, then third-party, then first-party.
// Anything unresolved is treated as first-party.
type Classifier struct {
	Stdlib   StdlibSet
	Packages *PackageIndex
	Project  *ProjectIndex

	pinned map[string]Class
}

// New creates a classifier over the given oracles.
func New(stdlib StdlibSet, packages *PackageIndex, project *ProjectIndex) *Classifier {
	return &Classifier{
		Stdlib:   stdlib,
		Packages: packages,
		Project:  project,
		pinned:   make(map[string]Class),
	}
}

// Pin forces the class of the given root module names.
func (c *Classifier) Pin(class Class, names ...string) {
	for _, name := range names {
		c.pinned[rootModule(name)] = class
	}
}

// WithProject returns a classifier sharing c's oracles and pins but resolving
// first-party modules through project.
func (c *Classifier) WithProject(project *ProjectIndex) *Classifier {
	return &Classifier{
		Stdlib:   c.Stdlib,
		Packages: c.Packages,
		Project:  project,
		pinned:   c.pinned,
	}
}

// Classify labels a module name. It never fails.
func (c *Classifier) Classify(name string) Result {
	if class, ok := c.pinned[rootModule(name)]; ok {
		return Result{Class: class, Confirmed: true}
	}
	if IsStandardLib(name, c.Stdlib) {
		return Result{Class: Standard, Confirmed: true}
	}
	if IsThirdParty(name, c.Packages) {
		return Result{Class: ThirdParty, Confirmed: true}
	}
	if IsFirstParty(name, c.Project) {
		return Result{Class: FirstParty, Confirmed: true}
	}
	return Result{Class: FirstParty, Confirmed: false}
}
