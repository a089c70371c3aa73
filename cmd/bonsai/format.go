package main

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	json "github.com/goccy/go-json"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jward/bonsai/internal/report"
)

// validFormats lists the accepted --format values.
var validFormats = []string{"json", "text"}

func validateFormat(format string) error {
	if slices.Contains(validFormats, format) {
		return nil
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}

// outputResult writes result to the command's stdout in the selected format.
func outputResult(cmd *cobra.Command, result CLIResult) error {
	w := cmd.OutOrStdout()
	if flagFormat == "text" {
		return outputResultText(w, result)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to stdout as a
// CLIResult envelope. In text mode it goes to stderr.
func outputError(cmd *cobra.Command, command string, err error) error {
	errorHandled = true
	if flagFormat == "text" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", err)
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	_ = enc.Encode(CLIResult{Command: command, Error: err.Error()})
	return err
}

func outputResultText(w io.Writer, result CLIResult) error {
	switch v := result.Results.(type) {
	case []CLIComparison:
		if len(v) == 1 {
			fmt.Fprintln(w, v[0].Path)
			return report.RenderComparison(w, toRows(v)[0].Comparison, false)
		}
		return report.RenderReports(w, toRows(v))
	case []CLIFailure:
		formatFailuresText(w, v)
	case []CLIImport:
		formatImportsText(w, v)
	case CLIDatasetSummary:
		formatDatasetText(w, v)
	case CLIValidation:
		formatValidationText(w, v)
	case string:
		fmt.Fprintln(w, v)
	case nil:
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}
	return nil
}

func newTable(header table.Row) table.Writer {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(header)
	return tbl
}

func formatFailuresText(w io.Writer, failures []CLIFailure) {
	if len(failures) == 0 {
		fmt.Fprintln(w, "No failures")
		return
	}
	tbl := newTable(table.Row{"File", "Error", "When"})
	for _, f := range failures {
		tbl.AppendRow(table.Row{f.Path, f.Error, humanize.Time(f.At)})
	}
	fmt.Fprintln(w, tbl.Render())
}

func formatImportsText(w io.Writer, imports []CLIImport) {
	tbl := newTable(table.Row{"Name", "Alias", "Origin", "File"})
	for _, imp := range imports {
		alias := ""
		if imp.Alias != nil {
			alias = *imp.Alias
		}
		tbl.AppendRow(table.Row{imp.Name, alias, imp.Origin, imp.FilePath})
	}
	tbl.AppendFooter(table.Row{fmt.Sprintf("%d imports", len(imports)), "", "", ""})
	fmt.Fprintln(w, tbl.Render())
}

func formatDatasetText(w io.Writer, s CLIDatasetSummary) {
	fmt.Fprintf(w, "Compressed %s in %s\n", s.Directory, s.Duration)
	fmt.Fprintf(w, "  indexed %d, skipped %d, failed %d\n", s.Indexed, s.Skipped, s.Failed)
	fmt.Fprintf(w, "Ledger %s: %s files\n", s.Database, humanize.Comma(int64(s.Totals.Files)))
	fmt.Fprintf(w, "  nodes    %s -> %s (%.1f%% smaller)\n",
		humanize.Comma(s.Totals.OriginalNodes), humanize.Comma(s.Totals.ReducedNodes), s.Totals.NodeReduction)
	fmt.Fprintf(w, "  entities %s -> %s (%.1f%% smaller)\n",
		humanize.Comma(s.Totals.OriginalEntities), humanize.Comma(s.Totals.ReducedEntities), s.Totals.EntityReduction)
	if s.Plot != "" {
		fmt.Fprintf(w, "Plot written to %s\n", s.Plot)
	}
}

func formatValidationText(w io.Writer, v CLIValidation) {
	if v.Valid {
		fmt.Fprintf(w, "%s: valid\n", v.Path)
		return
	}
	fmt.Fprintf(w, "%s: invalid\n", v.Path)
	for _, p := range v.Problems {
		fmt.Fprintf(w, "  %s\n", p)
	}
}
