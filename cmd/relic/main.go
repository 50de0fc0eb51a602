package main

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
)

var version = "dev"

func main() {
	app := &cli.App{
		Name:     "relic",
		Usage:    "Multi-language static analysis CLI",
		Version:  version,
		Metadata: make(map[string]interface{}),
		Description: `Relic scans a source tree, measures every function, and reports
code smells, duplicated fragments, and the file dependency graph.

Supports: Go, Python, JavaScript, TypeScript, Java, Ruby`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (TOML, YAML, or JSON)",
				EnvVars: []string{"RELIC_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, json, markdown, toon",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write output to file",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable verbose output",
			},
			&cli.StringFlag{
				Name:  "pprof",
				Usage: "Write CPU and memory profiles to <prefix>.cpu.pprof and <prefix>.mem.pprof",
			},
		},
		Before: func(c *cli.Context) error {
			if prefix := c.String("pprof"); prefix != "" {
				cpuFile, err := os.Create(prefix + ".cpu.pprof")
				if err != nil {
					return fmt.Errorf("create CPU profile: %w", err)
				}
				if err := pprof.StartCPUProfile(cpuFile); err != nil {
					cpuFile.Close()
					return fmt.Errorf("start CPU profile: %w", err)
				}
				c.App.Metadata["pprofCPU"] = cpuFile
			}
			return nil
		},
		After: func(c *cli.Context) error {
			if prefix := c.String("pprof"); prefix != "" {
				pprof.StopCPUProfile()
				if cpuFile, ok := c.App.Metadata["pprofCPU"].(*os.File); ok {
					cpuFile.Close()
				}

				memFile, err := os.Create(prefix + ".mem.pprof")
				if err != nil {
					return fmt.Errorf("create memory profile: %w", err)
				}
				defer memFile.Close()

				runtime.GC()
				if err := pprof.WriteHeapProfile(memFile); err != nil {
					return fmt.Errorf("write memory profile: %w", err)
				}
			}
			return nil
		},
		Commands: []*cli.Command{
			scanCmd(),
			duplicatesCmd(),
			graphCmd(),
			initCmd(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}
