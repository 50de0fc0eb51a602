package main

import (
	"context"
	"fmt"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/reliclabs/relic/internal/fileproc"
	"github.com/reliclabs/relic/internal/output"
	"github.com/reliclabs/relic/internal/progress"
	"github.com/reliclabs/relic/internal/walker"
	"github.com/reliclabs/relic/pkg/analyzer/graph"
	"github.com/reliclabs/relic/pkg/parser"
	"github.com/reliclabs/relic/pkg/source"
)

func graphCmd() *cli.Command {
	return &cli.Command{
		Name:      "graph",
		Aliases:   []string{"deps"},
		Usage:     "Build the file dependency graph",
		ArgsUsage: "[path]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "cycles",
				Usage: "Report only dependency cycles",
			},
			&cli.BoolFlag{
				Name:  "mermaid",
				Usage: "Emit the graph as a Mermaid flowchart",
			},
			&cli.BoolFlag{
				Name:  "dot",
				Usage: "Emit the graph in Graphviz DOT format",
			},
			&cli.IntFlag{
				Name:  "top",
				Value: 10,
				Usage: "Number of entries in the degree tables",
			},
		},
		Action: runGraphCmd,
	}
}

func runGraphCmd(c *cli.Context) error {
	root := rootArg(c)
	if err := checkRoot(root); err != nil {
		return err
	}

	cfg, err := loadConfig(c, root)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	paths, err := walker.New(cfg).Walk(root)
	if err != nil {
		return fmt.Errorf("walk %s: %w", root, err)
	}
	if len(paths) == 0 {
		color.Yellow("No source files found")
		return nil
	}

	src := source.NewFilesystem(root)
	tracker := progress.NewTracker("Parsing...", len(paths))
	files, _ := fileproc.MapFilesWithContext(ctx, paths, cfg.Scan.Workers,
		func(psr *parser.Parser, path string) (*parser.File, error) {
			g := parser.ForPath(path)
			if g == nil {
				return nil, fmt.Errorf("unsupported language: %s", path)
			}
			content, err := src.Read(path)
			if err != nil {
				return nil, err
			}
			return psr.Parse(content, g, path)
		}, tracker.Tick)
	tracker.FinishSuccess()

	if err := ctx.Err(); err != nil {
		return err
	}

	depGraph := graph.Build(files)

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	switch {
	case c.Bool("mermaid"):
		_, err = fmt.Fprint(formatter.Writer(), depGraph.ToMermaid())
		return err
	case c.Bool("dot"):
		_, err = fmt.Fprint(formatter.Writer(), depGraph.ToDOT())
		return err
	case c.Bool("cycles"):
		return formatter.Output(cycleSection(depGraph.Cycles()))
	default:
		return formatter.Output(graphReport(depGraph, c.Int("top")))
	}
}

func cycleSection(cycles [][]string) *output.Section {
	if len(cycles) == 0 {
		return &output.Section{
			Title:   "Dependency Cycles",
			Content: "No cycles detected",
			Data:    []string{},
		}
	}

	var sb strings.Builder
	for i, cycle := range cycles {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, strings.Join(cycle, " -> "))
	}
	return &output.Section{
		Title:   "Dependency Cycles",
		Content: sb.String(),
		Data:    cycles,
	}
}

func graphReport(depGraph *graph.Graph, top int) *output.Report {
	internal, external := 0, 0
	for _, n := range depGraph.Nodes {
		if n.External {
			external++
		} else {
			internal++
		}
	}

	report := &output.Report{
		Title: "Dependency Graph",
		Data:  depGraph,
	}
	report.Sections = append(report.Sections, output.NewTable("Overview",
		[]string{"Metric", "Value"},
		[][]string{
			{"Files", strconv.Itoa(internal)},
			{"External dependencies", strconv.Itoa(external)},
			{"Edges", strconv.Itoa(len(depGraph.Edges))},
			{"Cycles", strconv.Itoa(len(depGraph.Cycles()))},
		}, nil, nil))

	report.Sections = append(report.Sections,
		degreeTable("Most Depended Upon", depGraph.MostDependedUpon(top)),
		degreeTable("Most Dependencies", depGraph.MostDependencies(top)),
	)
	return report
}

func degreeTable(title string, degrees []graph.Degree) *output.Table {
	rows := make([][]string, 0, len(degrees))
	for _, d := range degrees {
		rows = append(rows, []string{d.ID, strconv.Itoa(d.Count)})
	}
	return output.NewTable(title, []string{"File", "Count"}, rows, nil, degrees)
}
