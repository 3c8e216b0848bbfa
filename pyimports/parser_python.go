package pyimports

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// ErrSyntax is matched by every *SyntaxError.
var ErrSyntax = errors.New("python syntax error")

// SyntaxError reports the first unparsable location in a Python file.
type SyntaxError struct {
	File   string
	Line   int
	Column int
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d:%d: invalid syntax", e.File, e.Line, e.Column)
}

func (e *SyntaxError) Is(target error) bool {
	return target == ErrSyntax
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ContentReader reads the content of a file given its path.
type ContentReader func(filePath string) ([]byte, error)

// FilesystemContentReader reads files from disk.
func FilesystemContentReader() ContentReader {
	return os.ReadFile
}

// Import is one imported module found in a Python file.
//
// For "import a.b" Module is "a.b" and Names is empty. For
// "from ..pkg import x, y" Module is "pkg", Level is 2 and Names holds x and y.
type Import struct {
	Module string
	Level  int
	Names  []string
	Line   int
}

// IsRelative reports whether the import starts with one or more dots.
func (i Import) IsRelative() bool {
	return i.Level > 0
}

// Root returns the top-level package component of an absolute import.
func (i Import) Root() string {
	return RootModule(i.Module)
}

// Path renders the import the way it was written, including leading dots.
func (i Import) Path() string {
	return strings.Repeat(".", i.Level) + i.Module
}

// RootModule returns the first dotted component of name.
func RootModule(name string) string {
	if idx := strings.IndexByte(name, '.'); idx >= 0 {
		return name[:idx]
	}
	return name
}

// ParseFile reads filePath with reader and returns its module-level imports.
func ParseFile(filePath string, reader ContentReader) ([]Import, error) {
	content, err := reader(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filePath, err)
	}

	imports, err := ParsePythonImports(content)
	if err != nil {
		var syntaxErr *SyntaxError
		if errors.As(err, &syntaxErr) {
			syntaxErr.File = filePath
		}
		return nil, err
	}
	return imports, nil
}

// ParsePythonImports parses Python source code and extracts module-level imports.
// Source that does not parse cleanly yields a *SyntaxError.
func ParsePythonImports(sourceCode []byte) ([]Import, error) {
	sourceCode = bytes.TrimPrefix(sourceCode, utf8BOM)

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(context.Background(), nil, sourceCode)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Python code: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, syntaxErrorAt(root)
	}
	if bad := findInvalidNode(root, false); bad != nil {
		return nil, syntaxErrorAtNode(bad)
	}

	return extractImportsFromModule(root, sourceCode), nil
}

func syntaxErrorAt(root *sitter.Node) *SyntaxError {
	bad := firstErrorNode(root)
	if bad == nil {
		bad = root
	}
	return syntaxErrorAtNode(bad)
}

func syntaxErrorAtNode(bad *sitter.Node) *SyntaxError {
	point := bad.StartPoint()
	return &SyntaxError{Line: int(point.Row) + 1, Column: int(point.Column) + 1}
}

func firstErrorNode(n *sitter.Node) *sitter.Node {
	if n == nil {
		return nil
	}
	if n.IsError() || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if found := firstErrorNode(n.Child(i)); found != nil {
			return found
		}
	}
	return nil
}

// extractImportsFromModule only looks at direct children of the module node.
// Imports guarded by try/if blocks or inside functions are optional at runtime.
func extractImportsFromModule(rootNode *sitter.Node, sourceCode []byte) []Import {
	var imports []Import

	for i := 0; i < int(rootNode.NamedChildCount()); i++ {
		n := rootNode.NamedChild(i)
		if n == nil {
			continue
		}
		line := int(n.StartPoint().Row) + 1

		switch n.Type() {
		case "import_statement":
			for _, module := range extractImportStatementModules(n, sourceCode) {
				imports = append(imports, Import{Module: module, Line: line})
			}
		case "import_from_statement":
			imp := extractImportFrom(n, sourceCode)
			if imp.Module != "" || imp.Level > 0 {
				imp.Line = line
				imports = append(imports, imp)
			}
		case "future_import_statement":
			imports = append(imports, Import{
				Module: "__future__",
				Names:  importedNames(n, sourceCode),
				Line:   line,
			})
		}
	}

	return imports
}

func extractImportStatementModules(node *sitter.Node, sourceCode []byte) []string {
	var modules []string
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child == nil {
			continue
		}
		if module := extractModuleName(child, sourceCode); module != "" {
			modules = append(modules, module)
		}
	}
	return modules
}

func extractImportFrom(node *sitter.Node, sourceCode []byte) Import {
	var imp Import

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		if child.Type() == "import" {
			break
		}
		switch child.Type() {
		case "dotted_name":
			imp.Module = strings.TrimSpace(child.Content(sourceCode))
		case "relative_import":
			imp.Level, imp.Module = splitRelativeImport(child, sourceCode)
		}
	}

	imp.Names = importedNames(node, sourceCode)
	return imp
}

func splitRelativeImport(node *sitter.Node, sourceCode []byte) (int, string) {
	level := 0
	module := ""
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "import_prefix":
			level = strings.Count(child.Content(sourceCode), ".")
		case "dotted_name":
			module = strings.TrimSpace(child.Content(sourceCode))
		}
	}
	return level, module
}

// importedNames returns the names listed after the "import" keyword of a
// from-import. A wildcard import yields "*".
func importedNames(node *sitter.Node, sourceCode []byte) []string {
	var names []string
	afterImport := false

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		if child.Type() == "import" {
			afterImport = true
			continue
		}
		if !afterImport {
			continue
		}
		if child.Type() == "wildcard_import" {
			names = append(names, "*")
			continue
		}
		if name := extractModuleName(child, sourceCode); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func extractModuleName(node *sitter.Node, sourceCode []byte) string {
	switch node.Type() {
	case "dotted_name", "identifier":
		return strings.TrimSpace(node.Content(sourceCode))
	case "aliased_import":
		if name := node.ChildByFieldName("name"); name != nil {
			return strings.TrimSpace(name.Content(sourceCode))
		}
		for i := 0; i < int(node.ChildCount()); i++ {
			child := node.Child(i)
			if child == nil {
				continue
			}
			if child.Type() == "dotted_name" || child.Type() == "identifier" {
				return strings.TrimSpace(child.Content(sourceCode))
			}
		}
	}
	return ""
}
