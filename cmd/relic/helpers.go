package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/reliclabs/relic/internal/output"
	"github.com/reliclabs/relic/pkg/config"
)

// rootArg returns the scan root from the positional args, defaulting
// to the current directory.
func rootArg(c *cli.Context) string {
	if c.Args().Len() > 0 {
		return c.Args().First()
	}
	return "."
}

// loadConfig resolves configuration for a command: an explicit --config
// path wins, otherwise the standard locations under root are searched.
// Global flags override the file's output settings.
func loadConfig(c *cli.Context, root string) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if path := c.String("config"); path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadOrDefault(root)
	}
	if err != nil {
		return nil, err
	}

	if f := c.String("format"); f != "" {
		cfg.Output.Format = f
	}
	if c.Bool("verbose") {
		cfg.Output.Verbose = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newFormatter builds the output formatter from config plus the
// --output flag. Color is disabled automatically when writing to a
// file or a non-terminal.
func newFormatter(c *cli.Context, cfg *config.Config) (*output.Formatter, error) {
	colored := cfg.Output.Color && isTerminal()
	return output.NewFormatter(output.ParseFormat(cfg.Output.Format), c.String("output"), colored)
}

func isTerminal() bool {
	info, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// checkRoot verifies the scan root exists and is a directory before
// any work starts.
func checkRoot(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("scan root %s: %w", root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("scan root %s is not a directory", root)
	}
	return nil
}
