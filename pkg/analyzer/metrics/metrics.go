// Package metrics computes per-function and per-file measurements from
// the uniform tree.
package metrics

import (
	"strings"

	"github.com/reliclabs/relic/pkg/models"
	"github.com/reliclabs/relic/pkg/parser"
)

// FileMetrics holds the measurements for one analyzed file. A file with
// zero functions still yields a record for its LOC.
type FileMetrics struct {
	Path      string
	Language  string
	LOC       int
	Functions []models.FunctionRecord
}

// AnalyzeFile walks the uniform tree once and computes all function
// records plus the file-level LOC.
func AnalyzeFile(f *parser.File) *FileMetrics {
	fm := &FileMetrics{
		Path:     f.Path,
		Language: string(f.Language()),
		LOC:      CountLOC(f.Source, f.Grammar),
	}

	for _, fn := range f.Functions() {
		fm.Functions = append(fm.Functions, models.FunctionRecord{
			File:       f.Path,
			Name:       fn.Name,
			StartLine:  fn.StartLine,
			EndLine:    fn.EndLine,
			Lines:      fn.Lines(),
			Cyclomatic: Cyclomatic(fn),
			MaxNesting: MaxNesting(fn),
			Parameters: fn.Params,
		})
	}

	return fm
}

// Cyclomatic computes cyclomatic complexity for a function node: 1 plus
// the number of decision points in its subtree. Nested function bodies
// are excluded; they get their own count.
func Cyclomatic(fn *parser.Node) int {
	return 1 + countDecisions(fn)
}

func countDecisions(fn *parser.Node) int {
	count := 0
	for _, child := range fn.Children {
		child.Walk(func(n *parser.Node) bool {
			if n.Kind == parser.KindFunction {
				return false
			}
			switch n.Kind {
			case parser.KindConditional, parser.KindLoop, parser.KindCase,
				parser.KindCatch, parser.KindTernary, parser.KindLogical:
				count++
			}
			return true
		})
	}
	return count
}

// MaxNesting computes the maximum depth of nested conditional/loop
// constructs within a function. The root block is depth 0.
func MaxNesting(fn *parser.Node) int {
	max := 0
	for _, child := range fn.Children {
		if d := nestingDepth(child, 0); d > max {
			max = d
		}
	}
	return max
}

func nestingDepth(n *parser.Node, depth int) int {
	if n.Kind == parser.KindFunction {
		return depth
	}

	current := depth
	switch n.Kind {
	case parser.KindConditional, parser.KindLoop, parser.KindCase, parser.KindCatch:
		current++
	}

	max := current
	for _, child := range n.Children {
		if d := nestingDepth(child, current); d > max {
			max = d
		}
	}
	return max
}

// CountLOC counts non-blank, non-comment-only lines.
func CountLOC(source []byte, g *parser.Grammar) int {
	prefixes := commentPrefixes(g)

	count := 0
	for _, line := range strings.Split(string(source), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if hasAnyPrefix(trimmed, prefixes) {
			continue
		}
		count++
	}
	return count
}

func commentPrefixes(g *parser.Grammar) []string {
	prefixes := append([]string(nil), g.LineComments...)
	for _, p := range g.LineComments {
		if p == "//" {
			// C-style languages also carry block comments.
			prefixes = append(prefixes, "/*", "*", "*/")
			break
		}
	}
	return prefixes
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
