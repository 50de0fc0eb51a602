package main

import (
	"context"
	"fmt"
	"os/signal"
	"sort"
	"strconv"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/reliclabs/relic/internal/output"
	"github.com/reliclabs/relic/internal/progress"
	"github.com/reliclabs/relic/internal/suggest"
	"github.com/reliclabs/relic/pkg/analyzer/scan"
	"github.com/reliclabs/relic/pkg/models"
	"github.com/reliclabs/relic/pkg/source"
)

func scanCmd() *cli.Command {
	return &cli.Command{
		Name:      "scan",
		Aliases:   []string{"s"},
		Usage:     "Scan a source tree and report metrics, smells, duplicates, and dependencies",
		ArgsUsage: "[path]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "suggest",
				Usage: "Append refactoring suggestions for the worst files",
			},
		},
		Action: runScanCmd,
	}
}

func runScanCmd(c *cli.Context) error {
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

	tracker := progress.NewSpinner("Scanning...")
	scanner, err := scan.New(cfg, scan.WithProgress(tracker.Tick))
	if err != nil {
		return err
	}

	report, err := scanner.Scan(ctx, root)
	if err != nil {
		tracker.FinishError(err)
		return err
	}
	tracker.FinishSuccess()

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	rendered := renderReport(report, cfg.Output.Verbose)
	if c.Bool("suggest") {
		hotspots := (&suggest.Hotspots{}).Suggest(report, suggest.NewReader(source.NewFilesystem(root)))
		if len(hotspots) > 0 {
			section := &output.Section{Title: "Suggestions"}
			for _, h := range hotspots {
				section.Content += h + "\n"
			}
			rendered.Sections = append(rendered.Sections, section)
		}
	}

	return formatter.Output(rendered)
}

// renderReport builds the multi-format view of a scan report. The raw
// report backs the JSON and TOON encodings.
func renderReport(report *models.ScanReport, verbose bool) *output.Report {
	rendered := &output.Report{
		Title: "Scan Report",
		Data:  report,
	}

	rendered.Sections = append(rendered.Sections, summaryTable(report))

	if len(report.Smells) > 0 {
		rendered.Sections = append(rendered.Sections, smellTable(report.Smells))
	}
	if len(report.Duplicates) > 0 {
		rendered.Sections = append(rendered.Sections, duplicateTable(report.Duplicates))
	}
	if verbose && len(report.Skipped) > 0 {
		rendered.Sections = append(rendered.Sections, skippedTable(report.Skipped))
	}

	return rendered
}

func summaryTable(report *models.ScanReport) *output.Table {
	s := report.Summary

	langs := make([]string, 0, len(s.Languages))
	for lang := range s.Languages {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	langSummary := ""
	for i, lang := range langs {
		if i > 0 {
			langSummary += ", "
		}
		langSummary += fmt.Sprintf("%s (%d)", lang, s.Languages[lang])
	}

	rows := [][]string{
		{"Files", strconv.Itoa(s.TotalFiles)},
		{"Lines of code", strconv.Itoa(s.TotalLOC)},
		{"Functions", strconv.Itoa(s.TotalFunctions)},
		{"Languages", langSummary},
		{"Smells", strconv.Itoa(s.TotalSmells)},
		{"Duplicate groups", strconv.Itoa(len(report.Duplicates))},
		{"Complexity p50/p90/max", fmt.Sprintf("%d / %d / %d", s.P50Complexity, s.P90Complexity, s.MaxComplexity)},
	}
	if skipped := s.SkippedUnsupported + s.SkippedParseErrors + s.SkippedIOErrors; skipped > 0 {
		rows = append(rows, []string{"Skipped files", strconv.Itoa(skipped)})
	}

	return output.NewTable("Summary", []string{"Metric", "Value"}, rows, nil, report.Summary)
}

func smellTable(found []models.Smell) *output.Table {
	rows := make([][]string, 0, len(found))
	for _, s := range found {
		location := fmt.Sprintf("%s:%d", s.File, s.StartLine)
		rows = append(rows, []string{
			location,
			string(s.Kind),
			output.SeverityColor(string(s.Severity), string(s.Severity)),
			s.Message,
		})
	}
	return output.NewTable("Smells", []string{"Location", "Kind", "Severity", "Message"}, rows, nil, found)
}

func duplicateTable(groups []models.DuplicateGroup) *output.Table {
	rows := make([][]string, 0, len(groups))
	for _, g := range groups {
		locations := ""
		for i, occ := range g.Occurrences {
			if i > 0 {
				locations += ", "
			}
			locations += fmt.Sprintf("%s:%d-%d", occ.File, occ.StartLine, occ.EndLine)
		}
		rows = append(rows, []string{
			g.Fingerprint[:12],
			strconv.Itoa(g.Lines),
			strconv.Itoa(len(g.Occurrences)),
			locations,
		})
	}
	return output.NewTable("Duplicates", []string{"Fingerprint", "Lines", "Count", "Locations"}, rows, nil, groups)
}

func skippedTable(skipped []models.SkippedFile) *output.Table {
	rows := make([][]string, 0, len(skipped))
	for _, sk := range skipped {
		rows = append(rows, []string{sk.Path, string(sk.Category), sk.Reason})
	}
	return output.NewTable("Skipped Files", []string{"Path", "Category", "Reason"}, rows, nil, skipped)
}
