package config_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/bonsai/internal/config"
)

func validConfig() config.Config {
	return config.Config{
		Output:  config.OutputConfig{Format: "json"},
		Parse:   config.ParseConfig{Mode: "exec"},
		Resolve: config.ResolveConfig{CacheSize: 16},
		Batch:   config.BatchConfig{Parallel: true},
		Build:   config.BuildConfig{Metadata: true},
		Log:     config.LogConfig{Level: "info", Format: "text"},
	}
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   error
	}{
		{"valid", func(*config.Config) {}, nil},
		{"empty enums mean default", func(c *config.Config) { c.Output.Format = ""; c.Parse.Mode = "" }, nil},
		{"bad format", func(c *config.Config) { c.Output.Format = "xml" }, config.ErrInvalidOutputFormat},
		{"bad mode", func(c *config.Config) { c.Parse.Mode = "compile" }, config.ErrInvalidParseMode},
		{"negative cache", func(c *config.Config) { c.Resolve.CacheSize = -1 }, config.ErrInvalidCacheSize},
		{"negative workers", func(c *config.Config) { c.Batch.Workers = -2 }, config.ErrInvalidWorkers},
		{"bad level", func(c *config.Config) { c.Log.Level = "trace" }, config.ErrInvalidLogLevel},
		{"bad log format", func(c *config.Config) { c.Log.Format = "logfmt" }, config.ErrInvalidLogFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.want == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "empty.yaml", "")

	cfg, err := config.Load(path, writeFile(t, dir, "empty.env", ""))
	require.NoError(t, err)
	assert.Equal(t, config.DefaultOutputFormat, cfg.Output.Format)
	assert.Equal(t, config.DefaultParseMode, cfg.Parse.Mode)
	assert.Equal(t, config.DefaultCacheSize, cfg.Resolve.CacheSize)
	assert.True(t, cfg.Batch.Parallel)
	assert.True(t, cfg.Build.Metadata)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.Resolve.SearchPaths)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "bonsai.yaml", `
output:
  format: binary
  pretty: true
parse:
  mode: eval
resolve:
  search_paths: [/opt/lib, /srv/site]
  cache_size: 8
batch:
  workers: 3
build:
  metadata: false
`)

	cfg, err := config.Load(path, writeFile(t, dir, "empty.env", ""))
	require.NoError(t, err)
	assert.Equal(t, "binary", cfg.Output.Format)
	assert.True(t, cfg.Output.Pretty)
	assert.Equal(t, "eval", cfg.Parse.Mode)
	assert.Equal(t, []string{"/opt/lib", "/srv/site"}, cfg.Resolve.SearchPaths)
	assert.Equal(t, 8, cfg.Resolve.CacheSize)
	assert.Equal(t, 3, cfg.Batch.Workers)
	assert.False(t, cfg.Build.Metadata)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "bonsai.yaml", "parse:\n  mode: eval\n")
	t.Setenv("BONSAI_PARSE_MODE", "single")

	cfg, err := config.Load(path, writeFile(t, dir, "empty.env", ""))
	require.NoError(t, err)
	assert.Equal(t, "single", cfg.Parse.Mode)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "bonsai.yaml", "")
	env := writeFile(t, dir, "test.env", "BONSAI_LOG_LEVEL=debug\n")
	t.Setenv("BONSAI_LOG_LEVEL", "")
	os.Unsetenv("BONSAI_LOG_LEVEL")

	cfg, err := config.Load(path, env)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "bonsai.yaml", "output:\n  format: xml\n")

	_, err := config.Load(path, writeFile(t, dir, "empty.env", ""))
	require.ErrorIs(t, err, config.ErrInvalidOutputFormat)
}

func TestLoad_MissingEnvFile(t *testing.T) {
	_, err := config.Load("", filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
}

func TestLogger(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Log.Format = "json"
	cfg.Log.Level = "warn"

	var buf bytes.Buffer
	logger, closer, err := cfg.Logger(&buf)
	require.NoError(t, err)
	defer closer.Close()

	logger.Info("hidden")
	logger.Warn("shown", "path", "a.py")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"path":"a.py"`)
}

func TestLogger_File(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Log.File = filepath.Join(t.TempDir(), "bonsai.log")

	var buf bytes.Buffer
	logger, closer, err := cfg.Logger(&buf)
	require.NoError(t, err)
	logger.Info("to file")
	require.NoError(t, closer.Close())

	assert.Empty(t, buf.String())
	got, err := os.ReadFile(cfg.Log.File)
	require.NoError(t, err)
	assert.Contains(t, string(got), "to file")
}
