package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindRepoRoot_DirectGitDir(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}

	got := findRepoRoot(root)
	assert.Equal(t, root, got)
}

func TestFindRepoRoot_NestedSubdirectory(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}
	deep := filepath.Join(root, "sub", "deep")
	if err := os.MkdirAll(deep, 0o755); err != nil {
		t.Fatal(err)
	}

	got := findRepoRoot(deep)
	assert.Equal(t, root, got)
}

func TestFindRepoRoot_NoGitAncestor(t *testing.T) {
	t.Parallel()
	// TempDir has no .git directory anywhere in its ancestry
	// (unless /tmp itself is a repo, which would be unusual).
	dir := t.TempDir()

	got := findRepoRoot(dir)
	assert.Equal(t, dir, got)
}

func TestValidateFormat(t *testing.T) {
	t.Parallel()
	assert.NoError(t, validateFormat("json"))
	assert.NoError(t, validateFormat("text"))
	assert.Error(t, validateFormat("yaml"))
}

// The tests below drive rootCmd in-process and share its flag state, so
// they do not run in parallel.

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// decode unmarshals a CLIResult envelope with typed results.
func decode[T any](t *testing.T, out string) (T, CLIResult) {
	t.Helper()
	var env struct {
		Command    string `json:"command"`
		Results    T      `json:"results"`
		TotalCount *int   `json:"total_count"`
		Error      string `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &env), out)
	return env.Results, CLIResult{Command: env.Command, TotalCount: env.TotalCount, Error: env.Error}
}

func TestCompress_Stdout(t *testing.T) {
	src := writeFile(t, filepath.Join(t.TempDir(), "a.py"), "import pprint\n")

	out, _, err := execute(t, "compress", src)
	require.NoError(t, err)
	assert.Equal(t,
		`{"CAST_type":"Module","CAST_body":[{"CAST_type":"Import","CAST_body":[{"origin":"SYS"},{"name":"pprint"}]}]}`+"\n",
		out)
}

func TestCompress_WithReportGoesToStderr(t *testing.T) {
	src := writeFile(t, filepath.Join(t.TempDir(), "a.py"), "print('hi')\n")

	out, stderr, err := execute(t, "compress", src, "--with-report")
	require.NoError(t, err)
	assert.Contains(t, out, `"CAST_type":"Module"`)
	assert.NotContains(t, out, "Total nodes")
	assert.Contains(t, stderr, "Total nodes")
}

func TestCompress_BinaryErrors(t *testing.T) {
	src := writeFile(t, filepath.Join(t.TempDir(), "a.py"), "x = 1\n")

	out, _, err := execute(t, "compress", src, "-O", "binary")
	require.ErrorIs(t, err, errBinaryStdout)
	_, env := decode[any](t, out)
	assert.Equal(t, "compress", env.Command)
	assert.Equal(t, errBinaryStdout.Error(), env.Error)

	_, _, err = execute(t, "compress", src, "-O", "binary", "-o", filepath.Join(t.TempDir(), "a.bin"), "--with-report")
	require.ErrorIs(t, err, errBinaryReport)

	_, _, err = execute(t, "compress", src, "-O", "xml")
	require.Error(t, err)
}

func TestCompress_SyntaxError(t *testing.T) {
	src := writeFile(t, filepath.Join(t.TempDir(), "bad.py"), "def (:\n")

	out, _, err := execute(t, "compress", src)
	require.Error(t, err)
	_, env := decode[any](t, out)
	assert.NotEmpty(t, env.Error)
}

func TestCompress_BinaryThenValidate(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, filepath.Join(dir, "a.py"), "import os as o\nwhile o:\n    pass\n")
	bin := filepath.Join(dir, "a.bin")

	_, _, err := execute(t, "compress", src, "-O", "binary", "-o", bin)
	require.NoError(t, err)

	out, _, err := execute(t, "validate", bin)
	require.NoError(t, err)
	v, _ := decode[CLIValidation](t, out)
	assert.True(t, v.Valid)
	assert.Equal(t, bin, v.Path)
}

func TestValidate_JSONFile(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, filepath.Join(dir, "a.py"), "print('hi')\n")
	doc := filepath.Join(dir, "a.json")

	_, _, err := execute(t, "compress", src, "-o", doc, "--pretty")
	require.NoError(t, err)

	out, _, err := execute(t, "validate", doc, "--format", "text")
	require.NoError(t, err)
	assert.Equal(t, doc+": valid\n", out)
}

func TestValidate_Invalid(t *testing.T) {
	doc := writeFile(t, filepath.Join(t.TempDir(), "bad.json"), `{"CAST_type":"Module"}`)

	out, _, err := execute(t, "validate", doc)
	require.ErrorIs(t, err, errInvalidDocument)
	v, _ := decode[CLIValidation](t, out)
	assert.False(t, v.Valid)
	assert.NotEmpty(t, v.Problems)
}

func TestValidate_Stdin(t *testing.T) {
	rootCmd.SetIn(bytes.NewBufferString(`{"CAST_type":"Module","CAST_body":[]}`))
	t.Cleanup(func() { rootCmd.SetIn(nil) })

	out, _, err := execute(t, "validate", "-")
	require.NoError(t, err)
	v, _ := decode[CLIValidation](t, out)
	assert.True(t, v.Valid)
}

func TestDataset_ReportFailuresImports(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.py"), "import os\nos.getcwd()\n")
	writeFile(t, filepath.Join(dir, "pkg", "b.py"), "from collections import OrderedDict as OD\nOD()\n")
	writeFile(t, filepath.Join(dir, "bad.py"), "def (:\n")
	writeFile(t, filepath.Join(dir, ".venv", "c.py"), "import os\n")
	db := filepath.Join(t.TempDir(), "ledger.db")
	plot := filepath.Join(t.TempDir(), "plot.html")

	out, stderr, err := execute(t, "dataset", dir, "--db", db, "--plot", plot)
	require.NoError(t, err, stderr)
	summary, _ := decode[CLIDatasetSummary](t, out)
	assert.Equal(t, 2, summary.Indexed)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 2, summary.Totals.Files)
	assert.Equal(t, 1, summary.Totals.Failures)
	assert.Greater(t, summary.Totals.NodeReduction, 0.0)
	assert.Contains(t, stderr, "skipped file")

	html, err := os.ReadFile(plot)
	require.NoError(t, err)
	assert.Contains(t, string(html), "echarts")

	// A second run skips everything.
	out, _, err = execute(t, "dataset", dir, "--db", db)
	require.NoError(t, err)
	summary, _ = decode[CLIDatasetSummary](t, out)
	assert.Equal(t, 0, summary.Indexed)
	assert.Equal(t, 2, summary.Skipped)

	out, _, err = execute(t, "report", "--db", db)
	require.NoError(t, err)
	rows, env := decode[[]CLIComparison](t, out)
	require.Len(t, rows, 2)
	require.NotNil(t, env.TotalCount)
	assert.Equal(t, 2, *env.TotalCount)
	for _, r := range rows {
		assert.LessOrEqual(t, r.Reduced.TotalNodes, r.Original.TotalNodes)
	}

	out, _, err = execute(t, "report", filepath.Join(dir, "a.py"), "--db", db, "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "Total nodes")

	out, _, err = execute(t, "failures", "--db", db)
	require.NoError(t, err)
	failures, _ := decode[[]CLIFailure](t, out)
	require.Len(t, failures, 1)
	assert.Equal(t, filepath.Join(dir, "bad.py"), failures[0].Path)

	out, _, err = execute(t, "imports", "--db", db, "--origin", "SYS")
	require.NoError(t, err)
	imports, _ := decode[[]CLIImport](t, out)
	require.Len(t, imports, 1)
	assert.Equal(t, "os", imports[0].Name)
	assert.Equal(t, filepath.Join(dir, "a.py"), imports[0].FilePath)

	out, _, err = execute(t, "imports", "--db", db, "--origin", "UNK", "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "collections.OrderedDict")
	assert.Contains(t, out, "OD")

	_, _, err = execute(t, "imports", "--db", db, "--origin", "LOCAL")
	require.Error(t, err)
}

func TestReport_MissingLedger(t *testing.T) {
	out, _, err := execute(t, "report", "--db", filepath.Join(t.TempDir(), "none.db"))
	require.Error(t, err)
	_, env := decode[any](t, out)
	assert.Contains(t, env.Error, "ledger not found")
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	v, env := decode[string](t, out)
	assert.Equal(t, "version", env.Command)
	assert.Equal(t, version, v)
}

func TestInvalidFormat(t *testing.T) {
	_, _, err := execute(t, "version", "--format", "yaml")
	require.Error(t, err)
}
