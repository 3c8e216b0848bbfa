package pyimports

import (
	"sort"

	"github.com/LegacyCodeHQ/pybundle/classify"
)

// ModuleClassifier labels a module name.
type ModuleClassifier interface {
	Classify(name string) classify.Result
}

// ModuleSet is an unordered set of module names.
type ModuleSet map[string]struct{}

// Add inserts names into the set.
func (s ModuleSet) Add(names ...string) {
	for _, name := range names {
		s[name] = struct{}{}
	}
}

// Has reports whether name is in the set.
func (s ModuleSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Sorted returns the members in lexical order.
func (s ModuleSet) Sorted() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Partition splits imports into first-party and third-party root module names.
// Standard-library imports are dropped. Relative imports are always first-party
// and are kept with their leading dots, since they only have meaning next to
// the importing file.
func Partition(imports []Import, classifier ModuleClassifier) (firstParty, thirdParty ModuleSet) {
	firstParty = make(ModuleSet)
	thirdParty = make(ModuleSet)

	for _, imp := range imports {
		if imp.IsRelative() {
			firstParty.Add(imp.Path())
			continue
		}

		root := imp.Root()
		if root == "" {
			continue
		}

		switch classifier.Classify(root).Class {
		case classify.Standard:
		case classify.ThirdParty:
			thirdParty.Add(root)
		default:
			firstParty.Add(root)
		}
	}

	return firstParty, thirdParty
}
