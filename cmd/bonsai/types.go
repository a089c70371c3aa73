package main

import (
	"time"

	"github.com/jward/bonsai"
	"github.com/jward/bonsai/internal/eval"
	"github.com/jward/bonsai/internal/report"
	"github.com/jward/bonsai/internal/store"
)

// CLIResult is the top-level JSON envelope for all commands.
type CLIResult struct {
	Command    string `json:"command"`
	Results    any    `json:"results"`
	TotalCount *int   `json:"total_count,omitempty"`
	Error      string `json:"error,omitempty"`
}

// CLIDatasetSummary describes one dataset run.
type CLIDatasetSummary struct {
	Directory string    `json:"directory"`
	Database  string    `json:"database"`
	Indexed   int       `json:"indexed"`
	Skipped   int       `json:"skipped"`
	Failed    int       `json:"failed"`
	Totals    CLITotals `json:"totals"`
	Plot      string    `json:"plot,omitempty"`
	Duration  string    `json:"duration"`
}

// CLITotals aggregates the whole ledger.
type CLITotals struct {
	Files            int     `json:"files"`
	Failures         int     `json:"failures"`
	OriginalNodes    int64   `json:"original_nodes"`
	ReducedNodes     int64   `json:"reduced_nodes"`
	OriginalEntities int64   `json:"original_entities"`
	ReducedEntities  int64   `json:"reduced_entities"`
	NodeReduction    float64 `json:"node_reduction"`
	EntityReduction  float64 `json:"entity_reduction"`
}

// CLIComparison is the stored comparison of one file.
type CLIComparison struct {
	Path            string      `json:"path"`
	Original        eval.Report `json:"original"`
	Reduced         eval.Report `json:"reduced"`
	NodeReduction   float64     `json:"node_reduction"`
	EntityReduction float64     `json:"entity_reduction"`
}

type CLIFailure struct {
	Path  string    `json:"path"`
	Error string    `json:"error"`
	At    time.Time `json:"at"`
}

type CLIImport struct {
	FilePath string  `json:"file_path"`
	Name     string  `json:"name"`
	Alias    *string `json:"alias,omitempty"`
	Origin   string  `json:"origin"`
}

// CLIValidation is the outcome of checking one document.
type CLIValidation struct {
	Path     string   `json:"path"`
	Valid    bool     `json:"valid"`
	Problems []string `json:"problems,omitempty"`
}

func totalsToCLI(t store.Totals) CLITotals {
	return CLITotals{
		Files:            t.Files,
		Failures:         t.Failures,
		OriginalNodes:    t.OriginalNodes,
		ReducedNodes:     t.ReducedNodes,
		OriginalEntities: t.OriginalEntities,
		ReducedEntities:  t.ReducedEntities,
		NodeReduction:    report.Reduction(int(t.OriginalNodes), int(t.ReducedNodes)),
		EntityReduction:  report.Reduction(int(t.OriginalEntities), int(t.ReducedEntities)),
	}
}

func comparisonToCLI(r *bonsai.Report) CLIComparison {
	row := bonsai.ReportRow(r)
	c := row.Comparison
	return CLIComparison{
		Path:            row.Path,
		Original:        c.Original,
		Reduced:         c.Reduced,
		NodeReduction:   report.Reduction(c.Original.TotalNodes, c.Reduced.TotalNodes),
		EntityReduction: report.Reduction(c.Original.DistinctEntities, c.Reduced.DistinctEntities),
	}
}

// toRows turns CLI comparisons back into report rows for text rendering.
func toRows(cmps []CLIComparison) []report.Row {
	rows := make([]report.Row, len(cmps))
	for i, c := range cmps {
		rows[i] = report.Row{Path: c.Path, Comparison: eval.Comparison{Original: c.Original, Reduced: c.Reduced}}
	}
	return rows
}
