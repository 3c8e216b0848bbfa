package pyimports

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// findInvalidNode returns the first node the grammar accepts but CPython
// rejects: Python 2 statements, suites without a statement, return outside a
// function, and statements that start a line at the wrong indentation.
func findInvalidNode(n *sitter.Node, inFunction bool) *sitter.Node {
	if n == nil {
		return nil
	}

	switch n.Type() {
	case "print_statement", "exec_statement":
		return n
	case "return_statement":
		if !inFunction {
			return n
		}
	case "except_clause":
		// except ValueError, e:
		if hasChildOfType(n, ",") {
			return n
		}
	case "raise_statement":
		// raise ValueError, "message"
		if hasChildOfType(n, "expression_list") {
			return n
		}
	case "module":
		if bad := misindented(statements(n), 0); bad != nil {
			return bad
		}
	case "block":
		stmts := statements(n)
		if len(stmts) == 0 {
			return n
		}
		if bad := misindented(stmts, stmts[0].StartPoint().Column); bad != nil {
			return bad
		}
	case "function_definition":
		inFunction = true
	case "class_definition":
		inFunction = false
	}

	for i := 0; i < int(n.NamedChildCount()); i++ {
		if bad := findInvalidNode(n.NamedChild(i), inFunction); bad != nil {
			return bad
		}
	}
	return nil
}

// statements returns the named children of a suite, leaving out comments and
// line continuations.
func statements(suite *sitter.Node) []*sitter.Node {
	var stmts []*sitter.Node
	for i := 0; i < int(suite.NamedChildCount()); i++ {
		child := suite.NamedChild(i)
		if child == nil || child.IsExtra() || child.Type() == "comment" {
			continue
		}
		stmts = append(stmts, child)
	}
	return stmts
}

// misindented returns the first statement that begins its own line at a column
// other than want. Statements after a semicolon share the previous line.
func misindented(stmts []*sitter.Node, want uint32) *sitter.Node {
	var prev *sitter.Node
	for _, stmt := range stmts {
		startsLine := prev == nil || stmt.StartPoint().Row > prev.EndPoint().Row
		if startsLine && stmt.StartPoint().Column != want {
			return stmt
		}
		prev = stmt
	}
	return nil
}

func hasChildOfType(n *sitter.Node, nodeType string) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		if child := n.Child(i); child != nil && child.Type() == nodeType {
			return true
		}
	}
	return false
}
