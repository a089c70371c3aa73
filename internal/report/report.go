// Package report renders compression comparisons as terminal tables and
// batch runs as cumulative line charts.
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/jward/bonsai/internal/eval"
)

const percentageValue = 100

// Row is the comparison of one file of a batch.
type Row struct {
	Path       string
	Comparison eval.Comparison
}

// Reduction returns how much smaller reduced is than original, in percent.
func Reduction(original, reduced int) float64 {
	if original == 0 {
		return 0
	}
	return percentageValue * float64(original-reduced) / float64(original)
}

func newTable() table.Writer {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	return tbl
}

// RenderComparison writes the node and entity counts of both documents. The
// reduction column is highlighted when colored is set.
func RenderComparison(w io.Writer, cmp eval.Comparison, colored bool) error {
	highlight := color.New(color.FgGreen, color.Bold)
	if colored {
		highlight.EnableColor()
	} else {
		highlight.DisableColor()
	}

	tbl := newTable()
	tbl.AppendHeader(table.Row{"", "Original", "Reduced", "Reduction"})
	tbl.AppendRow(table.Row{
		"Total nodes",
		humanize.Comma(int64(cmp.Original.TotalNodes)),
		humanize.Comma(int64(cmp.Reduced.TotalNodes)),
		highlight.Sprintf("%.1f%%", Reduction(cmp.Original.TotalNodes, cmp.Reduced.TotalNodes)),
	})
	tbl.AppendRow(table.Row{
		"Distinct entities",
		humanize.Comma(int64(cmp.Original.DistinctEntities)),
		humanize.Comma(int64(cmp.Reduced.DistinctEntities)),
		highlight.Sprintf("%.1f%%", Reduction(cmp.Original.DistinctEntities, cmp.Reduced.DistinctEntities)),
	})

	_, err := fmt.Fprintln(w, tbl.Render())
	return err
}

// RenderReports writes one line per file and a footer with the totals.
func RenderReports(w io.Writer, rows []Row) error {
	tbl := newTable()
	tbl.AppendHeader(table.Row{"File", "Nodes", "Reduced nodes", "Entities", "Reduced entities", "Reduction"})

	var origNodes, redNodes int
	for _, r := range rows {
		c := r.Comparison
		origNodes += c.Original.TotalNodes
		redNodes += c.Reduced.TotalNodes
		tbl.AppendRow(table.Row{
			r.Path,
			humanize.Comma(int64(c.Original.TotalNodes)),
			humanize.Comma(int64(c.Reduced.TotalNodes)),
			c.Original.DistinctEntities,
			c.Reduced.DistinctEntities,
			fmt.Sprintf("%.1f%%", Reduction(c.Original.TotalNodes, c.Reduced.TotalNodes)),
		})
	}
	tbl.AppendFooter(table.Row{
		fmt.Sprintf("Total: %d files", len(rows)),
		humanize.Comma(int64(origNodes)),
		humanize.Comma(int64(redNodes)),
		"", "",
		fmt.Sprintf("%.1f%%", Reduction(origNodes, redNodes)),
	})

	_, err := fmt.Fprintln(w, tbl.Render())
	return err
}

// Series holds running totals over the files of a batch, in commit order.
type Series struct {
	OriginalNodes    []int
	ReducedNodes     []int
	OriginalEntities []int
	ReducedEntities  []int
}

// Cumulative accumulates rows into running totals.
func Cumulative(rows []Row) Series {
	s := Series{
		OriginalNodes:    make([]int, len(rows)),
		ReducedNodes:     make([]int, len(rows)),
		OriginalEntities: make([]int, len(rows)),
		ReducedEntities:  make([]int, len(rows)),
	}
	var on, rn, oe, re int
	for i, r := range rows {
		c := r.Comparison
		on += c.Original.TotalNodes
		rn += c.Reduced.TotalNodes
		oe += c.Original.DistinctEntities
		re += c.Reduced.DistinctEntities
		s.OriginalNodes[i], s.ReducedNodes[i] = on, rn
		s.OriginalEntities[i], s.ReducedEntities[i] = oe, re
	}
	return s
}

// Len returns the number of files in the series.
func (s Series) Len() int { return len(s.OriginalNodes) }

// WritePlot renders an HTML page with the cumulative node and entity counts
// against the number of files analysed.
func WritePlot(w io.Writer, s Series) error {
	labels := make([]string, s.Len())
	for i := range labels {
		labels[i] = strconv.Itoa(i + 1)
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "500px", PageTitle: "bonsai"}),
		charts.WithTitleOpts(opts.Title{Title: "Cumulative tree size", Subtitle: "original vs reduced", Left: "center"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "10%", Left: "center"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: percentageValue}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Files analysed"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Count"}),
		charts.WithGridOpts(opts.Grid{Top: "25%", Bottom: "15%", ContainLabel: opts.Bool(true)}),
	)
	line.SetXAxis(labels)

	for _, series := range []struct {
		name   string
		values []int
		dashed bool
	}{
		{"Original nodes", s.OriginalNodes, false},
		{"Reduced nodes", s.ReducedNodes, false},
		{"Original entities", s.OriginalEntities, true},
		{"Reduced entities", s.ReducedEntities, true},
	} {
		data := make([]opts.LineData, len(series.values))
		for i, v := range series.values {
			data[i] = opts.LineData{Value: v}
		}
		style := opts.LineStyle{Width: 2}
		if series.dashed {
			style.Type = "dashed"
		}
		line.AddSeries(series.name, data,
			charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}),
			charts.WithLineStyleOpts(style),
		)
	}

	if err := line.Render(w); err != nil {
		return fmt.Errorf("report: render plot: %w", err)
	}
	return nil
}
