package parser

import "fmt"

// Kind is the uniform structural tag assigned to every node so that the
// downstream analyzers never special-case a source language.
type Kind uint8

const (
	KindOther Kind = iota
	KindFunction
	KindConditional
	KindLoop
	KindCase
	KindCatch
	KindTernary
	KindLogical
	KindCall
	KindImport
	KindBlock
	KindIdent
	KindComment
	KindError
)

var kindNames = map[Kind]string{
	KindOther:       "other",
	KindFunction:    "function",
	KindConditional: "conditional",
	KindLoop:        "loop",
	KindCase:        "case",
	KindCatch:       "catch",
	KindTernary:     "ternary",
	KindLogical:     "logical",
	KindCall:        "call",
	KindImport:      "import",
	KindBlock:       "block",
	KindIdent:       "ident",
	KindComment:     "comment",
	KindError:       "error",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "other"
}

// Node is one node of the uniform tree. The tree is immutable after
// construction and owned by its File.
type Node struct {
	Kind      Kind
	Type      string // raw grammar node type
	StartLine uint32
	EndLine   uint32

	// Name and Params are set on function nodes.
	Name   string
	Params int

	// Text carries identifier text on ident nodes and the module/file
	// specifier on import nodes.
	Text string

	// Declared holds locally bound names on declaration nodes and the
	// introduced symbols on import nodes.
	Declared []string

	Children []*Node
}

// Walk traverses the subtree in depth-first order. Returning false from
// the visitor stops descent into that node's children.
func (n *Node) Walk(visitor func(*Node) bool) {
	if n == nil {
		return
	}
	if !visitor(n) {
		return
	}
	for _, child := range n.Children {
		child.Walk(visitor)
	}
}

// Lines returns the line span of the node.
func (n *Node) Lines() int {
	return int(n.EndLine-n.StartLine) + 1
}

// File is the per-file parse result: the uniform tree plus the source it
// was built from.
type File struct {
	Path    string
	Grammar *Grammar
	Source  []byte
	Root    *Node
}

// Language returns the file's language tag.
func (f *File) Language() Language {
	return f.Grammar.Language
}

// Functions returns every function node in the file, including nested
// and anonymous ones, in source order.
func (f *File) Functions() []*Node {
	var fns []*Node
	f.Root.Walk(func(n *Node) bool {
		if n.Kind == KindFunction {
			fns = append(fns, n)
		}
		return true
	})
	return fns
}

// Imports returns every import node in the file in source order.
func (f *File) Imports() []*Node {
	var imports []*Node
	f.Root.Walk(func(n *Node) bool {
		if n.Kind == KindImport {
			imports = append(imports, n)
		}
		return true
	})
	return imports
}

// ParseError reports a file whose grammar matched but whose content
// could not be parsed. It is non-fatal to a scan.
type ParseError struct {
	Path   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %s", e.Path, e.Reason)
}
