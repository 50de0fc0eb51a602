// Package parser turns source files of several languages into one
// uniform structural tree via tree-sitter grammars.
package parser

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// Parser wraps a tree-sitter parser. A Parser is not safe for concurrent
// use; create one per goroutine.
type Parser struct {
	parser *sitter.Parser
}

// New creates a new parser instance.
func New() *Parser {
	return &Parser{parser: sitter.NewParser()}
}

// Close releases parser resources.
func (p *Parser) Close() {
	p.parser.Close()
}

// Parse parses content with the given grammar and returns the uniform
// tree. Syntactically invalid input yields a best-effort partial tree
// with error nodes marked, or a ParseError when nothing is recognizable.
func (p *Parser) Parse(content []byte, g *Grammar, path string) (*File, error) {
	if g == nil {
		return nil, fmt.Errorf("no grammar for %s", path)
	}

	p.parser.SetLanguage(g.sitterLang)
	tree, err := p.parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, &ParseError{Path: path, Reason: err.Error()}
	}

	root := tree.RootNode()
	if root == nil {
		return nil, &ParseError{Path: path, Reason: "empty parse tree"}
	}
	// tree-sitter recovers from most errors with ERROR nodes in a partial
	// tree, which we keep. A root that is itself an error means nothing
	// was recognizable.
	if root.Type() == "ERROR" {
		return nil, &ParseError{Path: path, Reason: "no recognizable syntax"}
	}

	return &File{
		Path:    path,
		Grammar: g,
		Source:  content,
		Root:    normalize(root, g, content),
	}, nil
}

// normalize converts a raw tree-sitter node into a uniform node,
// recursively.
func normalize(n *sitter.Node, g *Grammar, src []byte) *Node {
	rawType := n.Type()
	u := &Node{
		Type:      rawType,
		StartLine: n.StartPoint().Row + 1,
		EndLine:   n.EndPoint().Row + 1,
	}

	switch {
	case n.IsError() || n.IsMissing():
		u.Kind = KindError
	case !n.IsNamed():
		// Keyword tokens share their parent's type name in several
		// grammars (Ruby's "if" token inside an if node, the JavaScript
		// "function" token); they stay KindOther.
	case g.importTypes[rawType] && g.importPath != nil:
		if path := g.importPath(n, src); path != "" {
			u.Kind = KindImport
			u.Text = path
			if g.importSymbols != nil {
				u.Declared = g.importSymbols(n, src)
			}
		} else {
			u.Kind = g.kinds[rawType]
		}
	case g.identTypes[rawType]:
		u.Kind = KindIdent
		u.Text = nodeText(n, src)
	case g.logicalTypes[rawType] && hasLogicalOperator(n):
		u.Kind = KindLogical
	default:
		u.Kind = g.kinds[rawType]
	}

	if u.Kind == KindFunction {
		u.Name = functionName(n, g, src)
		if u.Name == "" {
			u.Name = fmt.Sprintf("<anonymous@%d>", u.StartLine)
		}
		u.Params = countParameters(n, g, src)
	}

	if g.declTypes[rawType] && u.Kind != KindImport {
		u.Declared = declaredNames(n, src)
	}

	for i := range int(n.ChildCount()) {
		u.Children = append(u.Children, normalize(n.Child(i), g, src))
	}

	return u
}

// hasLogicalOperator reports whether a binary-style node uses a
// short-circuit operator. Python's boolean_operator always does.
func hasLogicalOperator(n *sitter.Node) bool {
	if n.Type() == "boolean_operator" {
		return true
	}
	for i := range int(n.ChildCount()) {
		switch n.Child(i).Type() {
		case "&&", "||", "and", "or":
			return true
		}
	}
	return false
}

func functionName(n *sitter.Node, g *Grammar, src []byte) string {
	for _, field := range g.nameFields {
		if nameNode := n.ChildByFieldName(field); nameNode != nil {
			return nodeText(nameNode, src)
		}
	}
	// Arrow functions and function expressions bound to a variable take
	// the variable's name: const handler = () => {...}
	if parent := n.Parent(); parent != nil {
		switch parent.Type() {
		case "variable_declarator", "assignment", "assignment_expression", "pair":
			for _, field := range []string{"name", "left", "key"} {
				if nameNode := parent.ChildByFieldName(field); nameNode != nil {
					if nameNode.Type() == "identifier" || nameNode.Type() == "property_identifier" {
						return nodeText(nameNode, src)
					}
				}
			}
		}
	}
	return ""
}

// countParameters counts declared parameters for a function node.
func countParameters(n *sitter.Node, g *Grammar, src []byte) int {
	var params *sitter.Node
	for _, field := range g.paramFields {
		if params = n.ChildByFieldName(field); params != nil {
			break
		}
	}
	if params == nil {
		return 0
	}

	count := 0
	for i := range int(params.NamedChildCount()) {
		child := params.NamedChild(i)
		switch child.Type() {
		case "comment", "line_comment", "block_comment":
			continue
		case "parameter_declaration", "variadic_parameter_declaration":
			// Go groups parameters: func f(a, b int) declares two.
			names := 0
			for j := range int(child.NamedChildCount()) {
				if child.NamedChild(j).Type() == "identifier" {
					names++
				}
			}
			if names == 0 {
				names = 1 // unnamed parameter
			}
			count += names
		default:
			count++
		}
	}
	return count
}

// declaredNames collects locally bound identifier names from a
// declaration node.
func declaredNames(n *sitter.Node, src []byte) []string {
	var target *sitter.Node
	for _, field := range []string{"left", "name", "declarator"} {
		if target = n.ChildByFieldName(field); target != nil {
			break
		}
	}
	if target == nil {
		return nil
	}

	if target.Type() == "identifier" {
		return []string{nodeText(target, src)}
	}
	var names []string
	var visit func(node *sitter.Node)
	visit = func(node *sitter.Node) {
		if node.Type() == "identifier" {
			names = append(names, nodeText(node, src))
			return
		}
		// Don't treat the right-hand side of a nested declarator as a binding.
		if value := node.ChildByFieldName("value"); value != nil {
			for i := range int(node.NamedChildCount()) {
				if child := node.NamedChild(i); child != value {
					visit(child)
				}
			}
			return
		}
		for i := range int(node.NamedChildCount()) {
			visit(node.NamedChild(i))
		}
	}
	visit(target)
	return names
}
