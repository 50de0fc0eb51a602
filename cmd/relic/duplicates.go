package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/reliclabs/relic/internal/progress"
	"github.com/reliclabs/relic/pkg/analyzer/scan"
)

func duplicatesCmd() *cli.Command {
	return &cli.Command{
		Name:      "duplicates",
		Aliases:   []string{"dup"},
		Usage:     "Detect duplicated code fragments",
		ArgsUsage: "[path]",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "min-lines",
				Usage: "Minimum structural lines for a fragment (overrides config)",
			},
		},
		Action: runDuplicatesCmd,
	}
}

func runDuplicatesCmd(c *cli.Context) error {
	root := rootArg(c)
	if err := checkRoot(root); err != nil {
		return err
	}

	cfg, err := loadConfig(c, root)
	if err != nil {
		return err
	}
	if n := c.Int("min-lines"); n > 0 {
		cfg.Thresholds.DuplicateMinLines = n
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracker := progress.NewSpinner("Detecting duplicates...")
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

	if len(report.Duplicates) == 0 {
		color.Green("No duplicated fragments found")
		return nil
	}

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	return formatter.Output(duplicateTable(report.Duplicates))
}
