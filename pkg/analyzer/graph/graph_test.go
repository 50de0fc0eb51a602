package graph

import (
	"strings"
	"testing"

	"github.com/reliclabs/relic/pkg/models"
	"github.com/reliclabs/relic/pkg/parser"
)

// jsFile builds a parsed-file stand-in with one import node per
// specifier, which is all graph construction reads.
func jsFile(path string, imports ...string) *parser.File {
	root := &parser.Node{Kind: parser.KindBlock}
	for _, spec := range imports {
		root.Children = append(root.Children, &parser.Node{
			Kind: parser.KindImport,
			Text: spec,
		})
	}
	return &parser.File{
		Path:    path,
		Grammar: parser.ForLanguage(parser.LangJavaScript),
		Root:    root,
	}
}

func pyFile(path string, imports ...string) *parser.File {
	f := jsFile(path, imports...)
	f.Grammar = parser.ForLanguage(parser.LangPython)
	return f
}

func findEdge(edges []models.DependencyEdge, from, to string) *models.DependencyEdge {
	for i := range edges {
		if edges[i].From == from && edges[i].To == to {
			return &edges[i]
		}
	}
	return nil
}

func TestBuild_RelativeImportResolves(t *testing.T) {
	g := Build([]*parser.File{
		jsFile("src/app.js", "./util"),
		jsFile("src/util.js"),
	})

	e := findEdge(g.Edges, "src/app.js", "src/util.js")
	if e == nil {
		t.Fatalf("missing edge, got %+v", g.Edges)
	}
	if !e.Resolved {
		t.Error("relative import should be resolved")
	}
}

func TestBuild_ExternalSentinel(t *testing.T) {
	g := Build([]*parser.File{
		jsFile("src/app.js", "lodash"),
	})

	e := findEdge(g.Edges, "src/app.js", "lodash")
	if e == nil {
		t.Fatalf("missing external edge, got %+v", g.Edges)
	}
	if e.Resolved {
		t.Error("external import must not be resolved")
	}

	var sentinel *Node
	for i := range g.Nodes {
		if g.Nodes[i].ID == "lodash" {
			sentinel = &g.Nodes[i]
		}
	}
	if sentinel == nil {
		t.Fatal("external sentinel node missing")
	}
	if !sentinel.External {
		t.Error("sentinel must be marked external")
	}
}

func TestBuild_SelfAndDuplicateEdgesDropped(t *testing.T) {
	g := Build([]*parser.File{
		jsFile("src/app.js", "./app", "./util", "./util.js"),
		jsFile("src/util.js"),
	})

	if len(g.Edges) != 1 {
		t.Fatalf("expected 1 edge after dedup, got %d: %+v", len(g.Edges), g.Edges)
	}
}

func TestBuild_FileWithoutImportsStillANode(t *testing.T) {
	g := Build([]*parser.File{jsFile("src/leaf.js")})

	if len(g.Nodes) != 1 || g.Nodes[0].ID != "src/leaf.js" {
		t.Errorf("nodes = %+v", g.Nodes)
	}
	if len(g.Edges) != 0 {
		t.Errorf("edges = %+v", g.Edges)
	}
}

func TestBuild_PythonDottedModule(t *testing.T) {
	g := Build([]*parser.File{
		pyFile("pkg/app.py", "pkg.helpers", ".sibling"),
		pyFile("pkg/helpers.py"),
		pyFile("pkg/sibling.py"),
	})

	if e := findEdge(g.Edges, "pkg/app.py", "pkg/helpers.py"); e == nil || !e.Resolved {
		t.Errorf("dotted module did not resolve: %+v", g.Edges)
	}
	if e := findEdge(g.Edges, "pkg/app.py", "pkg/sibling.py"); e == nil || !e.Resolved {
		t.Errorf("leading-dot module did not resolve: %+v", g.Edges)
	}
}

func TestBuild_StemPrefersSameDirectory(t *testing.T) {
	g := Build([]*parser.File{
		jsFile("a/config.js"),
		jsFile("b/config.js"),
		jsFile("b/app.js", "config"),
	})

	if e := findEdge(g.Edges, "b/app.js", "b/config.js"); e == nil {
		t.Errorf("stem lookup should prefer the importer's directory: %+v", g.Edges)
	}
}

func TestCycles_NoCycle(t *testing.T) {
	g := Build([]*parser.File{
		jsFile("a.js", "./b"),
		jsFile("b.js", "./c"),
		jsFile("c.js"),
	})

	if cycles := g.Cycles(); len(cycles) != 0 {
		t.Errorf("expected no cycles, got %v", cycles)
	}
}

func TestCycles_IndirectCycle(t *testing.T) {
	g := Build([]*parser.File{
		jsFile("a.js", "./b"),
		jsFile("b.js", "./c"),
		jsFile("c.js", "./a"),
		jsFile("d.js", "./a"),
	})

	cycles := g.Cycles()
	if len(cycles) != 1 {
		t.Fatalf("expected 1 cycle, got %v", cycles)
	}
	want := []string{"a.js", "b.js", "c.js"}
	if len(cycles[0]) != len(want) {
		t.Fatalf("cycle = %v, want %v", cycles[0], want)
	}
	for i := range want {
		if cycles[0][i] != want[i] {
			t.Errorf("cycle members = %v, want sorted %v", cycles[0], want)
		}
	}
}

func TestDegrees(t *testing.T) {
	g := Build([]*parser.File{
		jsFile("a.js", "./shared"),
		jsFile("b.js", "./shared"),
		jsFile("c.js", "./shared", "./a"),
		jsFile("shared.js"),
	})

	in := g.MostDependedUpon(1)
	if len(in) != 1 || in[0].ID != "shared.js" || in[0].Count != 3 {
		t.Errorf("MostDependedUpon = %+v", in)
	}

	out := g.MostDependencies(1)
	if len(out) != 1 || out[0].ID != "c.js" || out[0].Count != 2 {
		t.Errorf("MostDependencies = %+v", out)
	}
}

func TestToMermaid(t *testing.T) {
	g := Build([]*parser.File{
		jsFile("src/app.js", "./util", "react"),
		jsFile("src/util.js"),
	})

	out := g.ToMermaid()
	if !strings.HasPrefix(out, "graph LR\n") {
		t.Errorf("missing header: %q", out)
	}
	if !strings.Contains(out, "n_react((react))") {
		t.Errorf("external node should use circle shape:\n%s", out)
	}
	if !strings.Contains(out, "n_src_app_js[src/app.js]") {
		t.Errorf("internal node should use box shape:\n%s", out)
	}
	if !strings.Contains(out, "n_src_app_js --> n_src_util_js") {
		t.Errorf("missing edge:\n%s", out)
	}
}

func TestToDOT(t *testing.T) {
	g := Build([]*parser.File{
		jsFile("src/app.js", "react"),
	})

	out := g.ToDOT()
	if !strings.HasPrefix(out, "digraph dependencies {") {
		t.Errorf("missing header: %q", out)
	}
	if !strings.Contains(out, `"react" [shape=ellipse, style=dashed];`) {
		t.Errorf("external style missing:\n%s", out)
	}
	if !strings.Contains(out, `"src/app.js" -> "react";`) {
		t.Errorf("missing edge:\n%s", out)
	}
}

func TestBuild_DeterministicOrder(t *testing.T) {
	files := []*parser.File{
		jsFile("z.js", "./a"),
		jsFile("a.js", "./z"),
	}
	first := Build(files)
	second := Build([]*parser.File{files[1], files[0]})

	if len(first.Nodes) != len(second.Nodes) {
		t.Fatal("node counts differ")
	}
	for i := range first.Nodes {
		if first.Nodes[i] != second.Nodes[i] {
			t.Errorf("node order depends on input order: %+v vs %+v", first.Nodes, second.Nodes)
		}
	}
	for i := range first.Edges {
		if first.Edges[i] != second.Edges[i] {
			t.Errorf("edge order depends on input order: %+v vs %+v", first.Edges, second.Edges)
		}
	}
}
