package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jward/bonsai"
	"github.com/jward/bonsai/internal/config"
	"github.com/jward/bonsai/internal/parse"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	flagDB       string
	flagFormat   string
	flagConfig   string
	flagLogLevel string
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

// cfg and logger are set up by the root command before any subcommand runs.
var (
	cfg       *config.Config
	logger    = slog.New(slog.DiscardHandler)
	logCloser io.Closer
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "bonsai",
	Short:         "Compress Python syntax trees into semantically grouped trees",
	Long:          "Bonsai parses Python source, prunes its syntax tree into a reduced tree with provenance-tagged identifiers, and reports how much smaller it got.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		errorHandled = false
		if err := validateFormat(flagFormat); err != nil {
			return err
		}
		return setup(cmd)
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if logCloser != nil {
			return logCloser.Close()
		}
		return nil
	},
	// No Run: prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "ledger path (default: .bonsai/ledger.db relative to repo root)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "json", "result format: json|text")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: .bonsai.yaml in the working directory or $HOME)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug|info|warn|error (overrides config)")

	rootCmd.AddCommand(compressCmd)
	rootCmd.AddCommand(datasetCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(failuresCmd)
	rootCmd.AddCommand(importsCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(versionCmd)
}

// setup loads the configuration and builds the logger on stderr.
func setup(cmd *cobra.Command) error {
	c, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	if flagLogLevel != "" {
		c.Log.Level = flagLogLevel
		if err := c.Validate(); err != nil {
			return err
		}
	}

	l, closer, err := c.Logger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	cfg, logger, logCloser = c, l, closer
	return nil
}

// compressorOptions maps the configuration onto pipeline options.
func compressorOptions(mode parse.Mode) []bonsai.Option {
	return []bonsai.Option{
		bonsai.WithLogger(logger),
		bonsai.WithMode(mode),
		bonsai.WithMetadata(cfg.Build.Metadata),
		bonsai.WithSearchPaths(cfg.Resolve.SearchPaths...),
		bonsai.WithCacheSize(cfg.Resolve.CacheSize),
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the bonsai version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return outputResult(cmd, CLIResult{Command: "version", Results: version})
	},
}

// resolveTargetDir returns the absolute path of the directory to compress.
func resolveTargetDir(args []string) (string, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving path %q: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("directory not found: %s", abs)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", abs)
	}
	return abs, nil
}

// resolveFilePath converts a file argument to an absolute path.
func resolveFilePath(file string) (string, error) {
	if filepath.IsAbs(file) {
		return file, nil
	}
	abs, err := filepath.Abs(file)
	if err != nil {
		return "", fmt.Errorf("resolving file path %q: %w", file, err)
	}
	return abs, nil
}

// findRepoRoot walks up from startDir looking for a .git directory.
// Returns the directory containing .git, or startDir if not found.
func findRepoRoot(startDir string) string {
	dir := startDir
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root without finding .git.
			return startDir
		}
		dir = parent
	}
}

// resolveDBPath returns the ledger path from the --db flag or the default.
func resolveDBPath(repoRoot string) string {
	if flagDB != "" {
		if filepath.IsAbs(flagDB) {
			return flagDB
		}
		return filepath.Join(repoRoot, flagDB)
	}
	return filepath.Join(repoRoot, ".bonsai", "ledger.db")
}
