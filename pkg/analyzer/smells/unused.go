package smells

import (
	"fmt"
	"strings"

	"github.com/reliclabs/relic/pkg/models"
	"github.com/reliclabs/relic/pkg/parser"
)

// unusedVariables reports locally declared names that never appear
// again inside their function. The check is purely syntactic: a name
// is considered used when its identifier occurs more than once in the
// function subtree (the declaration itself is the first occurrence).
// Names that only escape via reflection or string lookups are beyond
// this check and will be misreported; that trade-off keeps the pass a
// single tree walk.
func unusedVariables(f *parser.File) []models.Smell {
	var found []models.Smell

	for _, fn := range f.Functions() {
		decls := innermostDeclarations(fn)
		if len(decls) == 0 {
			continue
		}

		counts := identCounts(fn)
		for _, decl := range decls {
			for _, name := range decl.Declared {
				if isBlankName(name) {
					continue
				}
				if counts[name] > 1 {
					continue
				}
				found = append(found, models.Smell{
					Kind:      models.SmellUnusedVariable,
					Severity:  models.SeverityWarning,
					File:      f.Path,
					Function:  fn.Name,
					StartLine: decl.StartLine,
					EndLine:   decl.EndLine,
					Message:   fmt.Sprintf("variable %q is declared but never used", name),
				})
			}
		}
	}

	return found
}

// unusedImports reports imported symbols whose name never occurs as an
// identifier outside the import statements themselves.
func unusedImports(f *parser.File) []models.Smell {
	imports := f.Imports()
	if len(imports) == 0 {
		return nil
	}

	counts := make(map[string]int)
	f.Root.Walk(func(n *parser.Node) bool {
		if n.Kind == parser.KindImport {
			return false
		}
		if n.Kind == parser.KindIdent {
			counts[n.Text]++
		}
		return true
	})

	var found []models.Smell
	for _, imp := range imports {
		for _, symbol := range imp.Declared {
			if isBlankName(symbol) {
				continue
			}
			if counts[symbol] > 0 {
				continue
			}
			found = append(found, models.Smell{
				Kind:      models.SmellUnusedImport,
				Severity:  models.SeverityWarning,
				File:      f.Path,
				StartLine: imp.StartLine,
				EndLine:   imp.EndLine,
				Message:   fmt.Sprintf("import %q is never used", symbol),
			})
		}
	}

	return found
}

// innermostDeclarations collects declaration nodes whose nearest
// enclosing function is fn, so nested functions report their own
// declarations exactly once.
func innermostDeclarations(fn *parser.Node) []*parser.Node {
	var decls []*parser.Node
	for _, child := range fn.Children {
		child.Walk(func(n *parser.Node) bool {
			if n.Kind == parser.KindFunction {
				return false
			}
			if len(n.Declared) > 0 {
				decls = append(decls, n)
			}
			return true
		})
	}
	return decls
}

// identCounts counts identifier occurrences across the whole function
// subtree. Nested closures are included: a name captured by an inner
// function counts as used.
func identCounts(fn *parser.Node) map[string]int {
	counts := make(map[string]int)
	fn.Walk(func(n *parser.Node) bool {
		if n.Kind == parser.KindIdent {
			counts[n.Text]++
		}
		return true
	})
	return counts
}

// isBlankName reports conventional throwaway names that must never be
// flagged: "_" and underscore-prefixed identifiers.
func isBlankName(name string) bool {
	return name == "" || name == "_" || strings.HasPrefix(name, "_")
}
