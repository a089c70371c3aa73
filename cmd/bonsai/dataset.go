package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/jward/bonsai"
	"github.com/jward/bonsai/internal/parse"
	"github.com/jward/bonsai/internal/report"
	"github.com/jward/bonsai/internal/sink"
	"github.com/jward/bonsai/scripts"
)

var (
	flagForce      bool
	flagPlot       string
	flagWorkers    int
	flagScriptsDir string
)

var datasetCmd = &cobra.Command{
	Use:   "dataset [dir]",
	Short: "Compress every Python file under a directory into the ledger",
	Long:  "Discovers Python files, compresses each one and records documents, comparisons, imports and failures in the SQLite ledger. Unchanged files are skipped.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDataset,
}

func init() {
	datasetCmd.Flags().BoolVar(&flagForce, "force", false, "delete the ledger and recompress from scratch")
	datasetCmd.Flags().StringVar(&flagPlot, "plot", "", "write the cumulative node and entity chart to this HTML file")
	datasetCmd.Flags().IntVar(&flagWorkers, "workers", -1, "worker pool size, 0 for one per CPU (default from config)")
	datasetCmd.Flags().StringVar(&flagScriptsDir, "scripts-dir", "", "load scripts from disk path instead of embedded")
}

func runDataset(cmd *cobra.Command, args []string) error {
	start := time.Now()

	targetDir, err := resolveTargetDir(args)
	if err != nil {
		return outputError(cmd, "dataset", err)
	}
	dbPath := resolveDBPath(findRepoRoot(targetDir))
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return outputError(cmd, "dataset", fmt.Errorf("creating %s: %w", filepath.Dir(dbPath), err))
	}

	if flagForce {
		if err := removeLedger(dbPath); err != nil {
			return outputError(cmd, "dataset", err)
		}
		logger.Info("cleared ledger", "path", dbPath)
	}

	engine, err := openEngine(dbPath)
	if err != nil {
		return outputError(cmd, "dataset", err)
	}
	if !flagForce && engine.ScriptsChanged() {
		totals, err := engine.Query().Totals()
		if err == nil && totals.Files > 0 {
			logger.Warn("resolution scripts changed, rebuilding ledger", "path", dbPath)
			engine.Close()
			if err := removeLedger(dbPath); err != nil {
				return outputError(cmd, "dataset", err)
			}
			if engine, err = openEngine(dbPath); err != nil {
				return outputError(cmd, "dataset", err)
			}
		}
	}
	defer engine.Close()

	if err := engine.IndexDirectory(context.Background(), targetDir); err != nil {
		return outputError(cmd, "dataset", fmt.Errorf("compressing: %w", err))
	}

	if flagPlot != "" {
		series, err := engine.Query().Series()
		if err != nil {
			return outputError(cmd, "dataset", err)
		}
		if err := sink.WriteFile(flagPlot, func(w io.Writer) error {
			return report.WritePlot(w, series)
		}); err != nil {
			return outputError(cmd, "dataset", fmt.Errorf("writing plot: %w", err))
		}
	}

	totals, err := engine.Query().Totals()
	if err != nil {
		return outputError(cmd, "dataset", err)
	}
	summary := engine.Summary()
	return outputResult(cmd, CLIResult{
		Command: "dataset",
		Results: CLIDatasetSummary{
			Directory: targetDir,
			Database:  dbPath,
			Indexed:   summary.Indexed,
			Skipped:   summary.Skipped,
			Failed:    summary.Failed,
			Totals:    totalsToCLI(totals),
			Plot:      flagPlot,
			Duration:  time.Since(start).Round(time.Millisecond).String(),
		},
	})
}

func openEngine(dbPath string) (*bonsai.Engine, error) {
	mode, err := parse.ParseMode(cfg.Parse.Mode)
	if err != nil {
		return nil, err
	}
	workers := cfg.Batch.Workers
	if flagWorkers >= 0 {
		workers = flagWorkers
	}
	opts := append(compressorOptions(mode),
		bonsai.WithParallel(cfg.Batch.Parallel),
		bonsai.WithWorkers(workers),
	)

	// Script source: --scripts-dir overrides embedded FS.
	scriptsDir := flagScriptsDir
	if scriptsDir == "" {
		opts = append(opts, bonsai.WithScriptsFS(scripts.FS))
	}

	engine, err := bonsai.New(dbPath, scriptsDir, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating engine: %w", err)
	}
	return engine, nil
}

// removeLedger deletes the ledger and its WAL side files.
func removeLedger(dbPath string) error {
	for _, p := range []string{dbPath, dbPath + "-wal", dbPath + "-shm"} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing ledger for --force: %w", err)
		}
	}
	return nil
}
