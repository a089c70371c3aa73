package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jward/bonsai"
	"github.com/jward/bonsai/internal/cast"
	"github.com/jward/bonsai/internal/store"
)

var flagOrigin string

var reportCmd = &cobra.Command{
	Use:   "report [file]",
	Short: "Show stored comparisons",
	Long:  "Prints the node and entity comparison of one file, or of every file in the ledger.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runReport,
}

var failuresCmd = &cobra.Command{
	Use:   "failures",
	Short: "List files that could not be compressed",
	Args:  cobra.NoArgs,
	RunE:  runFailures,
}

var importsCmd = &cobra.Command{
	Use:   "imports",
	Short: "List stored imports by origin",
	Args:  cobra.NoArgs,
	RunE:  runImports,
}

func init() {
	importsCmd.Flags().StringVar(&flagOrigin, "origin", string(cast.OriginSystem), "origin: NATIVE|SYS|USR|UNK")
}

// openStore opens the ledger from the --db flag path (or default).
func openStore() (*store.Store, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting cwd: %w", err)
	}
	dbPath := resolveDBPath(findRepoRoot(cwd))

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("ledger not found: %s (run 'bonsai dataset' first)", dbPath)
	}
	return store.NewStore(dbPath)
}

func runReport(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return outputError(cmd, "report", err)
	}
	defer s.Close()
	qb := bonsai.NewQueryBuilder(s)

	var reports []*bonsai.Report
	if len(args) == 1 {
		path, err := resolveFilePath(args[0])
		if err != nil {
			return outputError(cmd, "report", err)
		}
		r, err := qb.ReportByPath(path)
		if err != nil {
			return outputError(cmd, "report", err)
		}
		if r == nil {
			return outputError(cmd, "report", fmt.Errorf("no report for %s", path))
		}
		reports = []*bonsai.Report{r}
	} else {
		reports, err = qb.Reports()
		if err != nil {
			return outputError(cmd, "report", err)
		}
	}

	rows := make([]CLIComparison, len(reports))
	for i, r := range reports {
		rows[i] = comparisonToCLI(r)
	}
	count := len(rows)
	return outputResult(cmd, CLIResult{
		Command:    "report",
		Results:    rows,
		TotalCount: &count,
	})
}

func runFailures(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return outputError(cmd, "failures", err)
	}
	defer s.Close()

	failures, err := bonsai.NewQueryBuilder(s).Failures()
	if err != nil {
		return outputError(cmd, "failures", err)
	}
	out := make([]CLIFailure, len(failures))
	for i, f := range failures {
		out[i] = CLIFailure{Path: f.Path, Error: f.Error, At: f.At}
	}
	count := len(out)
	return outputResult(cmd, CLIResult{
		Command:    "failures",
		Results:    out,
		TotalCount: &count,
	})
}

func runImports(cmd *cobra.Command, args []string) error {
	origin := cast.Origin(flagOrigin)
	switch origin {
	case cast.OriginNative, cast.OriginSystem, cast.OriginUser, cast.OriginUnknown:
	default:
		return outputError(cmd, "imports", fmt.Errorf("invalid origin %q", flagOrigin))
	}

	s, err := openStore()
	if err != nil {
		return outputError(cmd, "imports", err)
	}
	defer s.Close()

	imports, err := bonsai.NewQueryBuilder(s).ImportsByOrigin(origin)
	if err != nil {
		return outputError(cmd, "imports", err)
	}
	out := make([]CLIImport, len(imports))
	for i, imp := range imports {
		out[i] = CLIImport{FilePath: imp.Path, Name: imp.Name, Alias: imp.Alias, Origin: imp.Origin}
	}
	count := len(out)
	return outputResult(cmd, CLIResult{
		Command:    "imports",
		Results:    out,
		TotalCount: &count,
	})
}
