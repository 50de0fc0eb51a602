package parser

import (
	"path/filepath"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/ruby"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Language represents a supported programming language.
type Language string

const (
	LangGo         Language = "go"
	LangPython     Language = "python"
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangTSX        Language = "tsx"
	LangJava       Language = "java"
	LangRuby       Language = "ruby"
	LangUnknown    Language = "unknown"
)

// Grammar describes the parsing capability for one language: the
// tree-sitter grammar plus the node-type tables that map the raw tree
// onto the uniform node kinds. Grammars are registered once at startup
// and read-only afterwards.
type Grammar struct {
	Language     Language
	Extensions   []string
	LineComments []string // line-comment prefixes, used for LOC counting

	sitterLang *sitter.Language

	kinds        map[string]Kind // raw node type -> uniform kind
	identTypes   map[string]bool // raw types that carry identifier text
	logicalTypes map[string]bool // raw types checked for &&/||/and/or operators
	declTypes    map[string]bool // local variable declaration node types
	importTypes  map[string]bool // candidate import statement node types

	nameFields  []string
	bodyFields  []string
	paramFields []string

	// importPath extracts the module/file specifier from an import node,
	// or "" when the node is not actually an import (Ruby requires are
	// plain method calls).
	importPath func(n *sitter.Node, src []byte) string
	// importSymbols extracts the local names an import introduces.
	importSymbols func(n *sitter.Node, src []byte) []string
}

// SitterLanguage returns the tree-sitter grammar.
func (g *Grammar) SitterLanguage() *sitter.Language {
	return g.sitterLang
}

var (
	grammars      []*Grammar
	grammarOnce   sync.Once
	extensionOnce sync.Once
	extensionMap  map[string]*Grammar
)

func allGrammars() []*Grammar {
	grammarOnce.Do(func() {
		grammars = []*Grammar{
			goGrammar(),
			pythonGrammar(),
			javascriptGrammar(),
			typescriptGrammar(),
			tsxGrammar(),
			javaGrammar(),
			rubyGrammar(),
		}
	})
	return grammars
}

func getExtensionMap() map[string]*Grammar {
	extensionOnce.Do(func() {
		extensionMap = make(map[string]*Grammar)
		for _, g := range allGrammars() {
			for _, ext := range g.Extensions {
				extensionMap[ext] = g
			}
		}
	})
	return extensionMap
}

// ForPath returns the grammar for a file path, or nil if the extension
// is not supported.
func ForPath(path string) *Grammar {
	return getExtensionMap()[strings.ToLower(filepath.Ext(path))]
}

// ForLanguage returns the grammar for a language tag, or nil.
func ForLanguage(lang Language) *Grammar {
	for _, g := range allGrammars() {
		if g.Language == lang {
			return g
		}
	}
	return nil
}

// DetectLanguage determines the language from a file path.
func DetectLanguage(path string) Language {
	if g := ForPath(path); g != nil {
		return g.Language
	}
	return LangUnknown
}

func makeSet(items ...string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}

func goGrammar() *Grammar {
	return &Grammar{
		Language:     LangGo,
		Extensions:   []string{".go"},
		LineComments: []string{"//"},
		sitterLang:   golang.GetLanguage(),
		kinds: map[string]Kind{
			"function_declaration":        KindFunction,
			"method_declaration":          KindFunction,
			"func_literal":                KindFunction,
			"if_statement":                KindConditional,
			"for_statement":               KindLoop,
			"expression_case":             KindCase,
			"type_case":                   KindCase,
			"communication_case":          KindCase,
			"expression_switch_statement": KindBlock,
			"type_switch_statement":       KindBlock,
			"select_statement":            KindBlock,
			"block":                       KindBlock,
			"call_expression":             KindCall,
			"comment":                     KindComment,
		},
		identTypes:   makeSet("identifier", "package_identifier", "type_identifier", "field_identifier"),
		logicalTypes: makeSet("binary_expression"),
		declTypes:    makeSet("short_var_declaration", "var_spec"),
		importTypes:  makeSet("import_spec"),
		nameFields:   []string{"name"},
		bodyFields:   []string{"body"},
		paramFields:  []string{"parameters"},
		importPath:   quotedFieldPath("path"),
		importSymbols: func(n *sitter.Node, src []byte) []string {
			if nameNode := n.ChildByFieldName("name"); nameNode != nil {
				name := nodeText(nameNode, src)
				if name == "_" || name == "." {
					return nil
				}
				return []string{name}
			}
			path := quotedFieldPath("path")(n, src)
			if path == "" {
				return nil
			}
			if idx := strings.LastIndex(path, "/"); idx >= 0 {
				path = path[idx+1:]
			}
			return []string{path}
		},
	}
}

func pythonGrammar() *Grammar {
	return &Grammar{
		Language:     LangPython,
		Extensions:   []string{".py", ".pyw", ".pyi"},
		LineComments: []string{"#"},
		sitterLang:   python.GetLanguage(),
		kinds: map[string]Kind{
			"function_definition":    KindFunction,
			"lambda":                 KindFunction,
			"if_statement":           KindConditional,
			"elif_clause":            KindConditional,
			"conditional_expression": KindTernary,
			"for_statement":          KindLoop,
			"while_statement":        KindLoop,
			"except_clause":          KindCatch,
			"case_clause":            KindCase,
			"match_statement":        KindBlock,
			"block":                  KindBlock,
			"call":                   KindCall,
			"comment":                KindComment,
		},
		identTypes:   makeSet("identifier"),
		logicalTypes: makeSet("boolean_operator"),
		declTypes:    makeSet("assignment"),
		importTypes:  makeSet("import_statement", "import_from_statement"),
		nameFields:   []string{"name"},
		bodyFields:   []string{"body"},
		paramFields:  []string{"parameters"},
		importPath: func(n *sitter.Node, src []byte) string {
			if modNode := n.ChildByFieldName("module_name"); modNode != nil {
				return nodeText(modNode, src)
			}
			if nameNode := n.ChildByFieldName("name"); nameNode != nil {
				return importedName(nameNode, src)
			}
			return ""
		},
		importSymbols: pythonImportSymbols,
	}
}

func javascriptKinds() map[string]Kind {
	return map[string]Kind{
		"function_declaration":           KindFunction,
		"function_expression":            KindFunction,
		"function":                       KindFunction,
		"generator_function_declaration": KindFunction,
		"arrow_function":                 KindFunction,
		"method_definition":              KindFunction,
		"if_statement":                   KindConditional,
		"ternary_expression":             KindTernary,
		"for_statement":                  KindLoop,
		"for_in_statement":               KindLoop,
		"while_statement":                KindLoop,
		"do_statement":                   KindLoop,
		"catch_clause":                   KindCatch,
		"switch_case":                    KindCase,
		"switch_statement":               KindBlock,
		"statement_block":                KindBlock,
		"call_expression":                KindCall,
		"comment":                        KindComment,
	}
}

func javascriptGrammar() *Grammar {
	g := &Grammar{
		Language:     LangJavaScript,
		Extensions:   []string{".js", ".mjs", ".cjs"},
		LineComments: []string{"//"},
		sitterLang:   javascript.GetLanguage(),
		kinds:        javascriptKinds(),
		identTypes:   makeSet("identifier", "shorthand_property_identifier"),
		logicalTypes: makeSet("binary_expression"),
		declTypes:    makeSet("variable_declarator"),
		importTypes:  makeSet("import_statement"),
		nameFields:   []string{"name"},
		bodyFields:   []string{"body"},
		paramFields:  []string{"parameters"},
		importPath:   quotedFieldPath("source"),
	}
	g.importSymbols = javascriptImportSymbols
	return g
}

func typescriptGrammar() *Grammar {
	g := javascriptGrammar()
	g.Language = LangTypeScript
	g.Extensions = []string{".ts"}
	g.sitterLang = typescript.GetLanguage()
	return g
}

func tsxGrammar() *Grammar {
	g := javascriptGrammar()
	g.Language = LangTSX
	g.Extensions = []string{".tsx", ".jsx"}
	g.sitterLang = tsx.GetLanguage()
	return g
}

func javaGrammar() *Grammar {
	return &Grammar{
		Language:     LangJava,
		Extensions:   []string{".java"},
		LineComments: []string{"//"},
		sitterLang:   java.GetLanguage(),
		kinds: map[string]Kind{
			"method_declaration":           KindFunction,
			"constructor_declaration":      KindFunction,
			"lambda_expression":            KindFunction,
			"if_statement":                 KindConditional,
			"ternary_expression":           KindTernary,
			"for_statement":                KindLoop,
			"enhanced_for_statement":       KindLoop,
			"while_statement":              KindLoop,
			"do_statement":                 KindLoop,
			"catch_clause":                 KindCatch,
			"switch_block_statement_group": KindCase,
			"switch_expression":            KindBlock,
			"block":                        KindBlock,
			"method_invocation":            KindCall,
			"line_comment":                 KindComment,
			"block_comment":                KindComment,
		},
		identTypes:   makeSet("identifier", "type_identifier"),
		logicalTypes: makeSet("binary_expression"),
		declTypes:    makeSet("local_variable_declaration"),
		importTypes:  makeSet("import_declaration"),
		nameFields:   []string{"name"},
		bodyFields:   []string{"body"},
		paramFields:  []string{"parameters"},
		importPath: func(n *sitter.Node, src []byte) string {
			for i := range int(n.ChildCount()) {
				child := n.Child(i)
				if child.Type() == "scoped_identifier" || child.Type() == "identifier" {
					return nodeText(child, src)
				}
			}
			return ""
		},
		importSymbols: func(n *sitter.Node, src []byte) []string {
			// Wildcard imports introduce no nameable symbol.
			for i := range int(n.ChildCount()) {
				if n.Child(i).Type() == "asterisk" {
					return nil
				}
			}
			path := ""
			for i := range int(n.ChildCount()) {
				child := n.Child(i)
				if child.Type() == "scoped_identifier" || child.Type() == "identifier" {
					path = nodeText(child, src)
				}
			}
			if idx := strings.LastIndex(path, "."); idx >= 0 {
				path = path[idx+1:]
			}
			if path == "" {
				return nil
			}
			return []string{path}
		},
	}
}

func rubyGrammar() *Grammar {
	return &Grammar{
		Language:     LangRuby,
		Extensions:   []string{".rb"},
		LineComments: []string{"#"},
		sitterLang:   ruby.GetLanguage(),
		kinds: map[string]Kind{
			"method":           KindFunction,
			"singleton_method": KindFunction,
			"lambda":           KindFunction,
			"if":               KindConditional,
			"elsif":            KindConditional,
			"unless":           KindConditional,
			"conditional":      KindTernary,
			"while":            KindLoop,
			"until":            KindLoop,
			"for":              KindLoop,
			"when":             KindCase,
			"rescue":           KindCatch,
			"case":             KindBlock,
			"body_statement":   KindBlock,
			"call":             KindCall,
			"comment":          KindComment,
		},
		identTypes:   makeSet("identifier", "constant"),
		logicalTypes: makeSet("binary"),
		declTypes:    makeSet("assignment"),
		importTypes:  makeSet("call"),
		nameFields:   []string{"name"},
		bodyFields:   []string{"body", "body_statement"},
		paramFields:  []string{"parameters"},
		importPath: func(n *sitter.Node, src []byte) string {
			methodNode := n.ChildByFieldName("method")
			if methodNode == nil {
				return ""
			}
			method := nodeText(methodNode, src)
			if method != "require" && method != "require_relative" && method != "load" {
				return ""
			}
			argsNode := n.ChildByFieldName("arguments")
			if argsNode == nil {
				return ""
			}
			for i := range int(argsNode.ChildCount()) {
				child := argsNode.Child(i)
				if child.Type() == "string" {
					return stripQuotes(nodeText(child, src))
				}
			}
			return ""
		},
	}
}

// quotedFieldPath extracts a quoted string from a named field and strips
// the quotes.
func quotedFieldPath(field string) func(n *sitter.Node, src []byte) string {
	return func(n *sitter.Node, src []byte) string {
		pathNode := n.ChildByFieldName(field)
		if pathNode == nil {
			return ""
		}
		return stripQuotes(nodeText(pathNode, src))
	}
}

func stripQuotes(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' || first == '\'' || first == '`') && first == last {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// importedName resolves an aliased_import to its alias, a dotted_name to
// its first segment, and a plain identifier to itself.
func importedName(n *sitter.Node, src []byte) string {
	switch n.Type() {
	case "aliased_import":
		if alias := n.ChildByFieldName("alias"); alias != nil {
			return nodeText(alias, src)
		}
	case "dotted_name":
		if n.NamedChildCount() > 0 {
			return nodeText(n.NamedChild(0), src)
		}
	}
	return nodeText(n, src)
}

func pythonImportSymbols(n *sitter.Node, src []byte) []string {
	var symbols []string
	switch n.Type() {
	case "import_statement":
		for i := range int(n.NamedChildCount()) {
			if name := importedName(n.NamedChild(i), src); name != "" {
				symbols = append(symbols, name)
			}
		}
	case "import_from_statement":
		// Skip the module_name field; the remaining names are the
		// imported symbols. "from x import *" introduces none we can track.
		modNode := n.ChildByFieldName("module_name")
		for i := range int(n.NamedChildCount()) {
			child := n.NamedChild(i)
			if child == modNode || child.Type() == "wildcard_import" {
				continue
			}
			if name := importedName(child, src); name != "" {
				symbols = append(symbols, name)
			}
		}
	}
	return symbols
}

func javascriptImportSymbols(n *sitter.Node, src []byte) []string {
	var symbols []string
	var visit func(node *sitter.Node)
	visit = func(node *sitter.Node) {
		switch node.Type() {
		case "import_specifier":
			if alias := node.ChildByFieldName("alias"); alias != nil {
				symbols = append(symbols, nodeText(alias, src))
				return
			}
			if name := node.ChildByFieldName("name"); name != nil {
				symbols = append(symbols, nodeText(name, src))
			}
			return
		case "namespace_import":
			for i := range int(node.NamedChildCount()) {
				if node.NamedChild(i).Type() == "identifier" {
					symbols = append(symbols, nodeText(node.NamedChild(i), src))
				}
			}
			return
		case "identifier":
			symbols = append(symbols, nodeText(node, src))
			return
		}
		for i := range int(node.NamedChildCount()) {
			visit(node.NamedChild(i))
		}
	}
	for i := range int(n.NamedChildCount()) {
		child := n.NamedChild(i)
		if child.Type() == "import_clause" {
			visit(child)
		}
	}
	return symbols
}

func nodeText(n *sitter.Node, src []byte) string {
	if n == nil {
		return ""
	}
	start := n.StartByte()
	end := n.EndByte()
	if start > end || end > uint32(len(src)) {
		return ""
	}
	return string(src[start:end])
}
