package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 30, cfg.Thresholds.FunctionLines)
	assert.Equal(t, 200, cfg.Thresholds.FunctionLinesSevere)
	assert.Equal(t, 10, cfg.Thresholds.Complexity)
	assert.Equal(t, 1000, cfg.Thresholds.FileLines)
	assert.Equal(t, 7, cfg.Thresholds.MaxParameters)
	assert.Equal(t, 5, cfg.Thresholds.MaxNesting)
	assert.Equal(t, 5, cfg.Thresholds.DuplicateMinLines)
	assert.Contains(t, cfg.Exclude.Dirs, "node_modules")
	assert.True(t, cfg.Exclude.Gitignore)
	assert.Equal(t, "text", cfg.Output.Format)

	require.NoError(t, cfg.Validate())
}

func TestLoad_TOML(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "relic.toml", `
[thresholds]
function_lines = 40
complexity = 15

[exclude]
dirs = ["generated"]

[output]
format = "json"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 40, cfg.Thresholds.FunctionLines)
	assert.Equal(t, 15, cfg.Thresholds.Complexity)
	// Unset keys keep their defaults.
	assert.Equal(t, 200, cfg.Thresholds.FunctionLinesSevere)
	assert.Equal(t, []string{"generated"}, cfg.Exclude.Dirs)
	assert.Equal(t, "json", cfg.Output.Format)
}

func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "relic.yaml", `
thresholds:
  max_nesting: 3
scan:
  workers: 4
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Thresholds.MaxNesting)
	assert.Equal(t, 4, cfg.Scan.Workers)
}

func TestLoad_JSON(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "relic.json", `{
  "thresholds": {"max_parameters": 4},
  "output": {"verbose": true}
}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Thresholds.MaxParameters)
	assert.True(t, cfg.Output.Verbose)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)

	var cfgErr *ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestLoad_InvalidThresholdRejected(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "relic.toml", `
[thresholds]
complexity = 0
`)

	_, err := Load(path)
	require.Error(t, err)

	var cfgErr *ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestLoadOrDefault_NoConfig(t *testing.T) {
	cfg, err := LoadOrDefault(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadOrDefault_FindsProjectConfig(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "relic.toml", `
[thresholds]
file_lines = 500
`)

	cfg, err := LoadOrDefault(dir)
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.Thresholds.FileLines)
}

func TestLoadOrDefault_BrokenConfigIsFatal(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "relic.toml", `
[output]
format = "csv"
`)

	_, err := LoadOrDefault(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "csv")
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid defaults",
			mutate: func(c *Config) {},
		},
		{
			name:    "severe below warning",
			mutate:  func(c *Config) { c.Thresholds.FunctionLinesSevere = 10 },
			wantErr: "must exceed",
		},
		{
			name:    "unknown format",
			mutate:  func(c *Config) { c.Output.Format = "xml" },
			wantErr: "unknown output format",
		},
		{
			name:    "empty exclude pattern",
			mutate:  func(c *Config) { c.Exclude.Patterns = []string{"  "} },
			wantErr: "empty exclude pattern",
		},
		{
			name:    "duplicate min lines below floor",
			mutate:  func(c *Config) { c.Thresholds.DuplicateMinLines = 1 },
			wantErr: "duplicate_min_lines",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)

			err := cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
