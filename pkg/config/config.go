// Package config holds scan configuration: smell thresholds, exclusion
// patterns, and scan limits. Configuration is validated at load time;
// an invalid configuration is fatal before any scan starts.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// ConfigurationError reports an invalid threshold or malformed setting.
// Unlike per-file errors it aborts the whole run.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration: " + e.Reason
}

// Config holds all configuration options.
type Config struct {
	Thresholds ThresholdConfig `koanf:"thresholds" toml:"thresholds" json:"thresholds"`
	Exclude    ExcludeConfig   `koanf:"exclude" toml:"exclude" json:"exclude"`
	Scan       ScanConfig      `koanf:"scan" toml:"scan" json:"scan"`
	Output     OutputConfig    `koanf:"output" toml:"output" json:"output"`
}

// ThresholdConfig defines the smell thresholds. All values are
// configurable; the detection algorithms never hardcode them.
type ThresholdConfig struct {
	FunctionLines       int `koanf:"function_lines" toml:"function_lines" json:"function_lines"`
	FunctionLinesSevere int `koanf:"function_lines_severe" toml:"function_lines_severe" json:"function_lines_severe"`
	Complexity          int `koanf:"complexity" toml:"complexity" json:"complexity"`
	FileLines           int `koanf:"file_lines" toml:"file_lines" json:"file_lines"`
	MaxParameters       int `koanf:"max_parameters" toml:"max_parameters" json:"max_parameters"`
	MaxNesting          int `koanf:"max_nesting" toml:"max_nesting" json:"max_nesting"`
	DuplicateMinLines   int `koanf:"duplicate_min_lines" toml:"duplicate_min_lines" json:"duplicate_min_lines"`
}

// ExcludeConfig defines file exclusion patterns (gitignore syntax).
type ExcludeConfig struct {
	Patterns  []string `koanf:"patterns" toml:"patterns" json:"patterns"`
	Dirs      []string `koanf:"dirs" toml:"dirs" json:"dirs"`
	Gitignore bool     `koanf:"gitignore" toml:"gitignore" json:"gitignore"`
}

// ScanConfig controls scan resource limits.
type ScanConfig struct {
	Workers     int   `koanf:"workers" toml:"workers" json:"workers"`
	MaxFileSize int64 `koanf:"max_file_size" toml:"max_file_size" json:"max_file_size"`
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format  string `koanf:"format" toml:"format" json:"format"`
	Color   bool   `koanf:"color" toml:"color" json:"color"`
	Verbose bool   `koanf:"verbose" toml:"verbose" json:"verbose"`
}

// DefaultConfig returns a config with the default thresholds.
func DefaultConfig() *Config {
	return &Config{
		Thresholds: ThresholdConfig{
			FunctionLines:       30,
			FunctionLinesSevere: 200,
			Complexity:          10,
			FileLines:           1000,
			MaxParameters:       7,
			MaxNesting:          5,
			DuplicateMinLines:   5,
		},
		Exclude: ExcludeConfig{
			Patterns: []string{
				"*.min.js",
				"*.min.css",
			},
			Dirs: []string{
				"vendor",
				"node_modules",
				".git",
				"dist",
				"build",
				"__pycache__",
			},
			Gitignore: true,
		},
		Scan: ScanConfig{
			Workers:     0, // 0 = derive from NumCPU
			MaxFileSize: 0, // 0 = no limit
		},
		Output: OutputConfig{
			Format:  "text",
			Color:   true,
			Verbose: false,
		},
	}
}

// Load loads and validates configuration from a file. The parser is
// selected by extension.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		parser = toml.Parser()
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("load %s: %v", path, err)}
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("parse %s: %v", path, err)}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault searches standard locations under root and loads the
// first config file found. A missing config falls back to defaults; a
// config that exists but fails validation is an error.
func LoadOrDefault(root string) (*Config, error) {
	names := []string{
		"relic.toml",
		"relic.yaml",
		"relic.yml",
		"relic.json",
		".relic.toml",
		".relic.yaml",
		".relic.yml",
		".relic.json",
	}

	for _, dir := range []string{root, filepath.Join(root, ".relic")} {
		for _, name := range names {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return Load(path)
			}
		}
	}

	return DefaultConfig(), nil
}

// Validate checks the configuration against the embedded schema plus
// range constraints the schema cannot express.
func (c *Config) Validate() error {
	if err := validateSchema(c); err != nil {
		return err
	}

	t := c.Thresholds
	if t.FunctionLinesSevere <= t.FunctionLines {
		return &ConfigurationError{Reason: fmt.Sprintf(
			"function_lines_severe (%d) must exceed function_lines (%d)",
			t.FunctionLinesSevere, t.FunctionLines)}
	}
	switch c.Output.Format {
	case "text", "json", "markdown", "toon":
	default:
		return &ConfigurationError{Reason: fmt.Sprintf("unknown output format %q", c.Output.Format)}
	}
	for _, p := range c.Exclude.Patterns {
		if strings.TrimSpace(p) == "" {
			return &ConfigurationError{Reason: "empty exclude pattern"}
		}
	}
	return nil
}
