// Package config loads bonsai settings from a YAML file, a .env file and
// BONSAI_* environment variables.
package config

import (
	"errors"
	"slices"
)

// Config is the top-level configuration struct for bonsai.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Output  OutputConfig  `mapstructure:"output"`
	Parse   ParseConfig   `mapstructure:"parse"`
	Resolve ResolveConfig `mapstructure:"resolve"`
	Batch   BatchConfig   `mapstructure:"batch"`
	Build   BuildConfig   `mapstructure:"build"`
	Log     LogConfig     `mapstructure:"log"`
}

// OutputConfig selects how compressed documents are written.
type OutputConfig struct {
	Format string `mapstructure:"format"`
	Pretty bool   `mapstructure:"pretty"`
}

// ParseConfig holds the compile mode of the parser.
type ParseConfig struct {
	Mode string `mapstructure:"mode"`
}

// ResolveConfig holds module resolution settings.
type ResolveConfig struct {
	SearchPaths []string `mapstructure:"search_paths"`
	CacheSize   int      `mapstructure:"cache_size"`
}

// BatchConfig holds dataset run settings. Zero workers means one per CPU.
type BatchConfig struct {
	Parallel bool `mapstructure:"parallel"`
	Workers  int  `mapstructure:"workers"`
}

type BuildConfig struct {
	Metadata bool `mapstructure:"metadata"`
}

// LogConfig selects the slog handler. An empty File logs to the writer
// passed to Logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// Defaults.
const (
	DefaultOutputFormat = "json"
	DefaultParseMode    = "exec"
	DefaultCacheSize    = 4096
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "text"
)

var (
	outputFormats = []string{"json", "binary"}
	parseModes    = []string{"exec", "eval", "single"}
	logLevels     = []string{"debug", "info", "warn", "error"}
	logFormats    = []string{"text", "json"}
)

// Sentinel errors for configuration validation.
var (
	ErrInvalidOutputFormat = errors.New("output.format must be json or binary")
	ErrInvalidParseMode    = errors.New("parse.mode must be exec, eval or single")
	ErrInvalidCacheSize    = errors.New("resolve.cache_size must be positive")
	ErrInvalidWorkers      = errors.New("batch.workers must be non-negative")
	ErrInvalidLogLevel     = errors.New("log.level must be debug, info, warn or error")
	ErrInvalidLogFormat    = errors.New("log.format must be text or json")
)

// Validate checks Config invariants and returns the first error found.
// Empty enum values are accepted and mean the default.
func (c *Config) Validate() error {
	switch {
	case !oneOf(c.Output.Format, outputFormats):
		return ErrInvalidOutputFormat
	case !oneOf(c.Parse.Mode, parseModes):
		return ErrInvalidParseMode
	case c.Resolve.CacheSize < 0:
		return ErrInvalidCacheSize
	case c.Batch.Workers < 0:
		return ErrInvalidWorkers
	case !oneOf(c.Log.Level, logLevels):
		return ErrInvalidLogLevel
	case !oneOf(c.Log.Format, logFormats):
		return ErrInvalidLogFormat
	}
	return nil
}

func oneOf(v string, allowed []string) bool {
	return v == "" || slices.Contains(allowed, v)
}
