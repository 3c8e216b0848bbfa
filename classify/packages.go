package classify

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
)

var packageDirMarkers = []string{"site-packages", "dist-packages"}

// venvPackageGlobs are checked, relative to the project root, when no interpreter
// is available to report its sys.path.
var venvPackageGlobs = []string{
	".venv/lib/python*/site-packages",
	"venv/lib/python*/site-packages",
	".venv/Lib/site-packages",
	"venv/Lib/site-packages",
}

// PackagePaths keeps the sys.path entries that hold installed packages.
func PackagePaths(sysPath []string) []string {
	seen := make(map[string]bool)
	var paths []string
	for _, p := range sysPath {
		if p == "" || seen[p] {
			continue
		}
		for _, marker := range packageDirMarkers {
			if strings.Contains(p, marker) {
				seen[p] = true
				paths = append(paths, p)
				break
			}
		}
	}
	return paths
}

// DiscoverPackagePaths finds virtualenv package directories under projectRoot.
// It returns an empty slice when there are none.
func DiscoverPackagePaths(projectRoot string) []string {
	var paths []string
	for _, pattern := range venvPackageGlobs {
		matches, err := filepath.Glob(filepath.Join(projectRoot, filepath.FromSlash(pattern)))
		if err != nil {
			continue
		}
		for _, match := range matches {
			if info, err := os.Stat(match); err == nil && info.IsDir() {
				paths = append(paths, match)
			}
		}
	}
	sort.Strings(paths)
	return paths
}

// PackageIndex is the set of importable top-level names found in installed
// package directories, with the distribution that provides each one when known.
type PackageIndex struct {
	paths      []string
	modules    map[string]bool
	unreadable []string

	// dists maps an import root to the distributions that claim it.
	dists map[string][]string
	// distModules maps a distribution to the dotted modules its RECORD installs.
	distModules map[string]map[string]bool
}

// NewPackageIndexFromNames builds an index from known module names. Used where
// the package directories have already been enumerated elsewhere.
func NewPackageIndexFromNames(names ...string) *PackageIndex {
	idx := &PackageIndex{
		modules:     make(map[string]bool),
		dists:       make(map[string][]string),
		distModules: make(map[string]map[string]bool),
	}
	for _, name := range names {
		idx.modules[name] = true
	}
	return idx
}

// NewPackageIndex enumerates each package directory once. Directories that
// cannot be read are recorded in Unreadable and otherwise ignored.
func NewPackageIndex(paths []string) *PackageIndex {
	idx := &PackageIndex{
		paths:       append([]string(nil), paths...),
		modules:     make(map[string]bool),
		dists:       make(map[string][]string),
		distModules: make(map[string]map[string]bool),
	}

	for _, dir := range paths {
		entries, err := os.ReadDir(dir)
		if err != nil {
			idx.unreadable = append(idx.unreadable, dir)
			continue
		}
		for _, entry := range entries {
			idx.addEntry(dir, entry)
		}
	}

	return idx
}

func (idx *PackageIndex) addEntry(dir string, entry os.DirEntry) {
	name := entry.Name()

	if entry.IsDir() {
		switch {
		case strings.HasSuffix(name, ".dist-info"):
			idx.addDistribution(filepath.Join(dir, name), strings.TrimSuffix(name, ".dist-info"), "METADATA")
		case strings.HasSuffix(name, ".egg-info"):
			idx.addDistribution(filepath.Join(dir, name), strings.TrimSuffix(name, ".egg-info"), "PKG-INFO")
		case isIdentifier(name):
			idx.modules[name] = true
		}
		return
	}

	if module, ok := moduleNameFromFile(name); ok {
		idx.modules[module] = true
	}
}

// addDistribution maps the import roots a distribution provides to its name
// and records the modules its RECORD lists, which tell apart distributions
// sharing a namespace root such as google or azure.
func (idx *PackageIndex) addDistribution(metaDir, dirStem, metadataFile string) {
	distName := distributionName(metaDir, dirStem, metadataFile)
	record := readRecord(filepath.Join(metaDir, "RECORD"))

	var roots []string
	topLevel, err := os.ReadFile(filepath.Join(metaDir, "top_level.txt"))
	if err == nil {
		for _, line := range strings.Split(string(topLevel), "\n") {
			module := strings.TrimSpace(line)
			if module == "" {
				continue
			}
			// top_level.txt may list nested paths such as "google/protobuf".
			roots = append(roots, strings.SplitN(filepath.ToSlash(module), "/", 2)[0])
		}
	} else {
		roots = recordTopLevel(record)
	}

	for _, root := range roots {
		if !slices.Contains(idx.dists[root], distName) {
			idx.dists[root] = append(idx.dists[root], distName)
		}
	}
	for module := range recordModules(record) {
		if idx.distModules[distName] == nil {
			idx.distModules[distName] = make(map[string]bool)
		}
		idx.distModules[distName][module] = true
	}
}

func distributionName(metaDir, dirStem, metadataFile string) string {
	content, err := os.ReadFile(filepath.Join(metaDir, metadataFile))
	if err == nil {
		scanner := bufio.NewScanner(bytes.NewReader(content))
		for scanner.Scan() {
			line := scanner.Text()
			if line == "" {
				break
			}
			if value, ok := strings.CutPrefix(line, "Name:"); ok {
				if name := strings.TrimSpace(value); name != "" {
					return name
				}
			}
		}
	}
	return strings.SplitN(dirStem, "-", 2)[0]
}

// readRecord returns the installed paths listed in a RECORD file.
func readRecord(recordPath string) []string {
	content, err := os.ReadFile(recordPath)
	if err != nil {
		return nil
	}

	var paths []string
	for _, line := range strings.Split(string(content), "\n") {
		path := strings.SplitN(strings.TrimSpace(line), ",", 2)[0]
		if path == "" || strings.HasPrefix(path, "..") {
			continue
		}
		paths = append(paths, path)
	}
	return paths
}

func recordTopLevel(record []string) []string {
	seen := make(map[string]bool)
	var modules []string
	for _, path := range record {
		first := strings.SplitN(path, "/", 2)[0]
		var module string
		if strings.Contains(path, "/") {
			if !isIdentifier(first) {
				continue
			}
			module = first
		} else {
			var ok bool
			if module, ok = moduleNameFromFile(first); !ok {
				continue
			}
		}
		if module == "__pycache__" || seen[module] {
			continue
		}
		seen[module] = true
		modules = append(modules, module)
	}
	return modules
}

// recordModules lists every dotted package and module a RECORD installs:
// google/cloud/storage/blob.py yields google, google.cloud,
// google.cloud.storage and google.cloud.storage.blob.
func recordModules(record []string) map[string]bool {
	modules := make(map[string]bool)
	for _, path := range record {
		parts := strings.Split(path, "/")
		module, ok := moduleNameFromFile(parts[len(parts)-1])
		if !ok {
			continue
		}
		dirs := parts[:len(parts)-1]
		valid := true
		for _, dir := range dirs {
			if !isIdentifier(dir) || dir == "__pycache__" {
				valid = false
				break
			}
		}
		if !valid {
			continue
		}
		for i := 1; i <= len(dirs); i++ {
			modules[strings.Join(dirs[:i], ".")] = true
		}
		if module != "__init__" {
			modules[strings.Join(append(append([]string(nil), dirs...), module), ".")] = true
		}
	}
	return modules
}

// moduleNameFromFile maps a file in a package directory to the module it provides.
func moduleNameFromFile(fileName string) (string, bool) {
	var stem string
	switch {
	case strings.HasSuffix(fileName, ".py"):
		stem = strings.TrimSuffix(fileName, ".py")
	case strings.HasSuffix(fileName, ".so"), strings.HasSuffix(fileName, ".pyd"):
		// Extension modules carry an ABI tag: name.cpython-312-x86_64-linux-gnu.so
		stem = strings.SplitN(fileName, ".", 2)[0]
	default:
		return "", false
	}
	if !isIdentifier(stem) {
		return "", false
	}
	return stem, true
}

// Has reports whether name's root package is installed.
func (idx *PackageIndex) Has(name string) bool {
	if idx == nil {
		return false
	}
	return idx.modules[rootModule(name)]
}

// Distribution returns the distribution providing name, or name's root
// package when no metadata names one or several distributions share it.
func (idx *PackageIndex) Distribution(name string) string {
	dist, _ := idx.LookupDistribution(name)
	return dist
}

// LookupDistribution is Distribution that also reports whether the answer is
// ambiguous. When several distributions claim name's root, the longest dotted
// prefix of name that exactly one of them installs decides. If none does, the
// root package is returned with ambiguous set.
func (idx *PackageIndex) LookupDistribution(name string) (dist string, ambiguous bool) {
	root := rootModule(name)
	if idx == nil {
		return root, false
	}

	claims := idx.dists[root]
	switch len(claims) {
	case 0:
		return root, false
	case 1:
		return claims[0], false
	}

	parts := strings.Split(name, ".")
	for i := len(parts); i > 1; i-- {
		prefix := strings.Join(parts[:i], ".")
		var matches []string
		for _, candidate := range claims {
			if idx.distModules[candidate][prefix] {
				matches = append(matches, candidate)
			}
		}
		if len(matches) == 1 {
			return matches[0], false
		}
	}
	return root, true
}

// Distributions returns every distribution that claims name's root package.
func (idx *PackageIndex) Distributions(name string) []string {
	if idx == nil {
		return nil
	}
	return append([]string(nil), idx.dists[rootModule(name)]...)
}

// Paths returns the package directories the index was built from.
func (idx *PackageIndex) Paths() []string {
	if idx == nil {
		return nil
	}
	return append([]string(nil), idx.paths...)
}

// Unreadable returns package directories that could not be listed.
func (idx *PackageIndex) Unreadable() []string {
	if idx == nil {
		return nil
	}
	return append([]string(nil), idx.unreadable...)
}

// Len returns the number of importable top-level names.
func (idx *PackageIndex) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.modules)
}

// IsThirdParty reports whether name's root package is in the package index.
func IsThirdParty(name string, packages *PackageIndex) bool {
	return packages.Has(name)
}

func isIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
