package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/bonsai/internal/eval"
)

func cmp(on, oe, rn, re int) eval.Comparison {
	return eval.Comparison{
		Original: eval.Report{TotalNodes: on, DistinctEntities: oe},
		Reduced:  eval.Report{TotalNodes: rn, DistinctEntities: re},
	}
}

func TestReduction(t *testing.T) {
	t.Parallel()
	assert.InDelta(t, 50.0, Reduction(10, 5), 1e-9)
	assert.InDelta(t, 0.0, Reduction(0, 0), 1e-9)
	assert.InDelta(t, 0.0, Reduction(3, 3), 1e-9)
}

func TestRenderComparison(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, RenderComparison(&buf, cmp(12345, 20, 6000, 12), false))

	out := buf.String()
	assert.Contains(t, out, "Total nodes")
	assert.Contains(t, out, "12,345")
	assert.Contains(t, out, "6,000")
	assert.Contains(t, out, "51.4%")
	assert.Contains(t, out, "40.0%")
	assert.NotContains(t, out, "\x1b[", "no escape codes without color")
}

func TestRenderComparison_Colored(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, RenderComparison(&buf, cmp(10, 5, 5, 4), true))
	assert.Contains(t, buf.String(), "\x1b[")
}

func TestRenderReports(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, RenderReports(&buf, []Row{
		{Path: "a.py", Comparison: cmp(10, 6, 6, 4)},
		{Path: "b.py", Comparison: cmp(1000, 8, 500, 5)},
	}))

	out := buf.String()
	assert.Contains(t, out, "a.py")
	assert.Contains(t, out, "b.py")
	assert.Contains(t, out, "1,010")
	assert.Contains(t, out, "Total: 2 files")
}

func TestCumulative(t *testing.T) {
	t.Parallel()
	s := Cumulative([]Row{
		{Comparison: cmp(10, 6, 6, 4)},
		{Comparison: cmp(5, 3, 3, 2)},
		{Comparison: cmp(1, 1, 1, 1)},
	})
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []int{10, 15, 16}, s.OriginalNodes)
	assert.Equal(t, []int{6, 9, 10}, s.ReducedNodes)
	assert.Equal(t, []int{6, 9, 10}, s.OriginalEntities)
	assert.Equal(t, []int{4, 6, 7}, s.ReducedEntities)

	assert.Zero(t, Cumulative(nil).Len())
}

func TestWritePlot(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, WritePlot(&buf, Cumulative([]Row{
		{Comparison: cmp(10, 6, 6, 4)},
		{Comparison: cmp(5, 3, 3, 2)},
	})))

	html := buf.String()
	assert.Contains(t, html, "<html")
	assert.Contains(t, html, "echarts")
	assert.Contains(t, html, "Original nodes")
	assert.Contains(t, html, "Reduced entities")
}
