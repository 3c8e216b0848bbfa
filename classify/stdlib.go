package classify

import (
	_ "embed"
	"sort"
	"strings"
)

// stdlib.txt is the union of sys.stdlib_module_names for CPython 3.9 through 3.12,
// covering every Python runtime AWS Lambda currently offers.
//
//go:embed stdlib.txt
var rawStdlib string

// StdlibSet is the set of top-level standard-library module names.
type StdlibSet map[string]struct{}

// NewStdlibSet builds a set from module names, ignoring blanks.
func NewStdlibSet(names ...string) StdlibSet {
	set := make(StdlibSet, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name != "" {
			set[name] = struct{}{}
		}
	}
	return set
}

// EmbeddedStdlib returns the standard-library listing compiled into the binary.
func EmbeddedStdlib() StdlibSet {
	return NewStdlibSet(strings.Split(rawStdlib, "\n")...)
}

// Names returns the set members in sorted order.
func (s StdlibSet) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsStandardLib reports whether name, or its root package, ships with Python.
func IsStandardLib(name string, stdlib StdlibSet) bool {
	if name == "" {
		return false
	}
	if _, ok := stdlib[name]; ok {
		return true
	}
	_, ok := stdlib[rootModule(name)]
	return ok
}

func rootModule(name string) string {
	if idx := strings.IndexByte(name, '.'); idx >= 0 {
		return name[:idx]
	}
	return name
}
