// Package graph builds the file-level dependency graph from parsed
// import statements. Unresolvable targets become external sentinel
// nodes, so the graph always reflects every declared dependency.
package graph

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/reliclabs/relic/pkg/models"
	"github.com/reliclabs/relic/pkg/parser"
)

// Node is one vertex: a scanned file, or an external sentinel for an
// import that resolved to nothing inside the scan root.
type Node struct {
	ID       string `json:"id"`
	External bool   `json:"external"`
}

// Graph is the immutable dependency graph. Cycles are data, not
// errors: construction always succeeds and cycle detection is a query.
type Graph struct {
	Nodes []Node                  `json:"nodes"`
	Edges []models.DependencyEdge `json:"edges"`

	index map[string]int
}

// Build constructs the graph from parsed files. Every file becomes a
// node even when it imports nothing; self-edges are dropped.
func Build(files []*parser.File) *Graph {
	g := &Graph{index: make(map[string]int)}

	resolver := newResolver(files)
	for _, f := range files {
		g.addNode(normalizePath(f.Path), false)
	}

	seen := make(map[string]bool)
	for _, f := range files {
		from := normalizePath(f.Path)
		for _, imp := range f.Imports() {
			target, resolved := resolver.resolve(f, imp.Text)
			if target == "" || target == from {
				continue
			}

			g.addNode(target, !resolved)

			dedup := from + "\x00" + target
			if seen[dedup] {
				continue
			}
			seen[dedup] = true

			g.Edges = append(g.Edges, models.DependencyEdge{
				From:     from,
				To:       target,
				Kind:     "import",
				Resolved: resolved,
			})
		}
	}

	sort.Slice(g.Edges, func(i, j int) bool {
		if g.Edges[i].From != g.Edges[j].From {
			return g.Edges[i].From < g.Edges[j].From
		}
		return g.Edges[i].To < g.Edges[j].To
	})
	sort.Slice(g.Nodes, func(i, j int) bool {
		return g.Nodes[i].ID < g.Nodes[j].ID
	})
	g.index = make(map[string]int, len(g.Nodes))
	for i, n := range g.Nodes {
		g.index[n.ID] = i
	}

	return g
}

func (g *Graph) addNode(id string, external bool) {
	if _, ok := g.index[id]; ok {
		return
	}
	g.index[id] = len(g.Nodes)
	g.Nodes = append(g.Nodes, Node{ID: id, External: external})
}

// Cycles returns the strongly connected components with more than one
// member. Members are sorted within each component and components are
// ordered by their first member, so output is deterministic.
func (g *Graph) Cycles() [][]string {
	directed := simple.NewDirectedGraph()
	for i := range g.Nodes {
		directed.AddNode(simple.Node(i))
	}
	for _, e := range g.Edges {
		from, to := g.index[e.From], g.index[e.To]
		if from == to {
			continue
		}
		directed.SetEdge(simple.Edge{F: simple.Node(from), T: simple.Node(to)})
	}

	var cycles [][]string
	for _, scc := range topo.TarjanSCC(directed) {
		if len(scc) < 2 {
			continue
		}
		members := make([]string, 0, len(scc))
		for _, n := range scc {
			members = append(members, g.Nodes[n.ID()].ID)
		}
		sort.Strings(members)
		cycles = append(cycles, members)
	}

	sort.Slice(cycles, func(i, j int) bool {
		return cycles[i][0] < cycles[j][0]
	})
	return cycles
}

// Degree pairs a node with a dependency count.
type Degree struct {
	ID    string `json:"id"`
	Count int    `json:"count"`
}

// MostDependedUpon returns the top n nodes by incoming edges.
func (g *Graph) MostDependedUpon(n int) []Degree {
	counts := make(map[string]int)
	for _, e := range g.Edges {
		counts[e.To]++
	}
	return topDegrees(counts, n)
}

// MostDependencies returns the top n nodes by outgoing edges.
func (g *Graph) MostDependencies(n int) []Degree {
	counts := make(map[string]int)
	for _, e := range g.Edges {
		counts[e.From]++
	}
	return topDegrees(counts, n)
}

func topDegrees(counts map[string]int, n int) []Degree {
	degrees := make([]Degree, 0, len(counts))
	for id, count := range counts {
		degrees = append(degrees, Degree{ID: id, Count: count})
	}
	sort.Slice(degrees, func(i, j int) bool {
		if degrees[i].Count != degrees[j].Count {
			return degrees[i].Count > degrees[j].Count
		}
		return degrees[i].ID < degrees[j].ID
	})
	if n > 0 && len(degrees) > n {
		degrees = degrees[:n]
	}
	return degrees
}

// ToMermaid renders the graph as a Mermaid flowchart. External nodes
// use the circle shape.
func (g *Graph) ToMermaid() string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")
	for _, n := range g.Nodes {
		if n.External {
			fmt.Fprintf(&sb, "    %s((%s))\n", mermaidID(n.ID), n.ID)
		} else {
			fmt.Fprintf(&sb, "    %s[%s]\n", mermaidID(n.ID), n.ID)
		}
	}
	for _, e := range g.Edges {
		fmt.Fprintf(&sb, "    %s --> %s\n", mermaidID(e.From), mermaidID(e.To))
	}
	return sb.String()
}

// ToDOT renders the graph in Graphviz DOT format.
func (g *Graph) ToDOT() string {
	var sb strings.Builder
	sb.WriteString("digraph dependencies {\n    rankdir=LR;\n")
	for _, n := range g.Nodes {
		if n.External {
			fmt.Fprintf(&sb, "    %q [shape=ellipse, style=dashed];\n", n.ID)
		} else {
			fmt.Fprintf(&sb, "    %q;\n", n.ID)
		}
	}
	for _, e := range g.Edges {
		fmt.Fprintf(&sb, "    %q -> %q;\n", e.From, e.To)
	}
	sb.WriteString("}\n")
	return sb.String()
}

var mermaidReplacer = strings.NewReplacer(
	"/", "_", ".", "_", "-", "_", " ", "_", "@", "_", ":", "_",
)

func mermaidID(id string) string {
	return "n_" + mermaidReplacer.Replace(id)
}

func normalizePath(p string) string {
	return path.Clean(strings.ReplaceAll(p, "\\", "/"))
}
