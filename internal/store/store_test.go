package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { s.Close() })
	return s
}

func ptr[T any](v T) *T { return &v }

// insertTestFile is a helper that inserts a file and returns it with ID set.
func insertTestFile(t *testing.T, s *Store, path string) *File {
	t.Helper()
	f := &File{Path: path, Hash: "abc123", LineCount: 3, LastIndexed: time.Now().Truncate(time.Second)}
	id, err := s.InsertFile(f)
	require.NoError(t, err)
	require.Positive(t, id)
	return f
}

// =============================================================================
// Schema & Lifecycle
// =============================================================================

func TestMigrate_AllTablesExist(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	for _, table := range []string{"files", "documents", "reports", "imports", "failures", "metadata"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.Migrate())
}

func TestMigrate_WALMode(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	var mode string
	err := s.db.QueryRow("PRAGMA journal_mode").Scan(&mode)
	require.NoError(t, err)
	assert.Equal(t, "wal", mode)
}

// =============================================================================
// Files
// =============================================================================

func TestFile_InsertAndRetrieve(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	f := insertTestFile(t, s, "/src/main.py")

	got, err := s.FileByPath("/src/main.py")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, f.ID, got.ID)
	assert.Equal(t, "abc123", got.Hash)
	assert.Equal(t, 3, got.LineCount)
	assert.True(t, f.LastIndexed.Equal(got.LastIndexed))
}

func TestFile_ByPathNotFound(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	got, err := s.FileByPath("/nonexistent")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFile_UniquePath(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	insertTestFile(t, s, "/a.py")
	_, err := s.InsertFile(&File{Path: "/a.py"})
	require.Error(t, err)
}

// =============================================================================
// Documents, reports, imports
// =============================================================================

func TestDocument_ByPath(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "/a.py")

	body := []byte(`{"CAST_type":"Module","CAST_body":[]}`)
	_, err := s.InsertDocument(&Document{FileID: f.ID, Body: body})
	require.NoError(t, err)

	got, err := s.DocumentByPath("/a.py")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, body, got.Body)

	missing, err := s.DocumentByPath("/b.py")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestReport_InsertAndQuery(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	a := insertTestFile(t, s, "/a.py")
	b := insertTestFile(t, s, "/b.py")

	_, err := s.InsertReport(&Report{
		FileID: a.ID, OriginalNodes: 9, OriginalEntities: 6,
		OriginalKinds: []string{"Module", "Expr", "Call", "Name", "Load", "Num"},
		ReducedNodes: 5, ReducedEntities: 4,
		ReducedKinds: []string{"Module", "Expr", "Call", "Name"},
	})
	require.NoError(t, err)
	_, err = s.InsertReport(&Report{FileID: b.ID, OriginalNodes: 1, OriginalEntities: 1, ReducedNodes: 1, ReducedEntities: 1})
	require.NoError(t, err)

	got, err := s.ReportByPath("/a.py")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "/a.py", got.Path)
	assert.Equal(t, 9, got.OriginalNodes)
	assert.Equal(t, 4, got.ReducedEntities)
	assert.Equal(t, []string{"Module", "Expr", "Call", "Name"}, got.ReducedKinds)

	all, err := s.Reports()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "/a.py", all[0].Path)
	assert.Equal(t, "/b.py", all[1].Path)
	assert.Empty(t, all[1].OriginalKinds)

	missing, err := s.ReportByPath("/c.py")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestImport_ByFileAndOrigin(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	a := insertTestFile(t, s, "/a.py")
	b := insertTestFile(t, s, "/b.py")

	for _, imp := range []*Import{
		{FileID: a.ID, Name: "os", Origin: "SYS"},
		{FileID: a.ID, Name: "numpy", Alias: ptr("np"), Origin: "UNK"},
		{FileID: b.ID, Name: "collections.OrderedDict", Origin: "SYS"},
	} {
		_, err := s.InsertImport(imp)
		require.NoError(t, err)
	}

	byFile, err := s.ImportsByFile(a.ID)
	require.NoError(t, err)
	require.Len(t, byFile, 2)
	assert.Nil(t, byFile[0].Alias)
	require.NotNil(t, byFile[1].Alias)
	assert.Equal(t, "np", *byFile[1].Alias)

	sys, err := s.ImportsByOrigin("SYS")
	require.NoError(t, err)
	require.Len(t, sys, 2)
	assert.Equal(t, "/a.py", sys[0].Path)
	assert.Equal(t, "os", sys[0].Name)
	assert.Equal(t, "/b.py", sys[1].Path)

	native, err := s.ImportsByOrigin("NATIVE")
	require.NoError(t, err)
	assert.Empty(t, native)
}

// =============================================================================
// Failures, totals, metadata
// =============================================================================

func TestFailures_ReplacedPerPath(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	at := time.Now().Truncate(time.Second)

	require.NoError(t, s.RecordFailure("/bad.py", errors.New("first"), at))
	require.NoError(t, s.RecordFailure("/bad.py", errors.New("second"), at))
	require.NoError(t, s.RecordFailure("/alsobad.py", errors.New("syntax"), at))

	failures, err := s.Failures()
	require.NoError(t, err)
	require.Len(t, failures, 2)
	assert.Equal(t, "/alsobad.py", failures[0].Path)
	assert.Equal(t, "/bad.py", failures[1].Path)
	assert.Equal(t, "second", failures[1].Error)
}

func TestRecordFailure_RemovesCommittedData(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	f := insertTestFile(t, s, "/a.py")
	_, err := s.InsertDocument(&Document{FileID: f.ID, Body: []byte(`{}`)})
	require.NoError(t, err)
	_, err = s.InsertReport(&Report{FileID: f.ID, OriginalNodes: 8, OriginalEntities: 6, ReducedNodes: 6, ReducedEntities: 5})
	require.NoError(t, err)
	_, err = s.InsertImport(&Import{FileID: f.ID, Name: "os", Origin: "SYS"})
	require.NoError(t, err)
	other := insertTestFile(t, s, "/b.py")

	require.NoError(t, s.RecordFailure("/a.py", errors.New("syntax"), time.Now()))

	got, err := s.FileByPath("/a.py")
	require.NoError(t, err)
	assert.Nil(t, got)
	doc, err := s.DocumentByPath("/a.py")
	require.NoError(t, err)
	assert.Nil(t, doc)
	r, err := s.ReportByPath("/a.py")
	require.NoError(t, err)
	assert.Nil(t, r)
	imports, err := s.ImportsByOrigin("SYS")
	require.NoError(t, err)
	assert.Empty(t, imports)

	totals, err := s.Totals()
	require.NoError(t, err)
	assert.Equal(t, Totals{Failures: 1}, totals)

	kept, err := s.FileByPath("/b.py")
	require.NoError(t, err)
	require.NotNil(t, kept)
	assert.Equal(t, other.ID, kept.ID)
}

func TestTotals(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	empty, err := s.Totals()
	require.NoError(t, err)
	assert.Equal(t, Totals{}, empty)

	a := insertTestFile(t, s, "/a.py")
	b := insertTestFile(t, s, "/b.py")
	_, err = s.InsertReport(&Report{FileID: a.ID, OriginalNodes: 10, OriginalEntities: 5, ReducedNodes: 6, ReducedEntities: 4})
	require.NoError(t, err)
	_, err = s.InsertReport(&Report{FileID: b.ID, OriginalNodes: 4, OriginalEntities: 3, ReducedNodes: 3, ReducedEntities: 3})
	require.NoError(t, err)
	require.NoError(t, s.RecordFailure("/c.py", errors.New("boom"), time.Now()))

	got, err := s.Totals()
	require.NoError(t, err)
	assert.Equal(t, Totals{
		Files: 2, OriginalNodes: 14, ReducedNodes: 9,
		OriginalEntities: 8, ReducedEntities: 7, Failures: 1,
	}, got)
}

func TestMetadata_GetSet(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	v, err := s.GetMetadata("scripts_hash")
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, s.SetMetadata("scripts_hash", "one"))
	require.NoError(t, s.SetMetadata("scripts_hash", "two"))
	v, err = s.GetMetadata("scripts_hash")
	require.NoError(t, err)
	assert.Equal(t, "two", v)
}

// =============================================================================
// Deletion
// =============================================================================

func TestDeleteFileData(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "/a.py")
	_, err := s.InsertDocument(&Document{FileID: f.ID, Body: []byte(`{}`)})
	require.NoError(t, err)
	_, err = s.InsertReport(&Report{FileID: f.ID})
	require.NoError(t, err)
	_, err = s.InsertImport(&Import{FileID: f.ID, Name: "os", Origin: "SYS"})
	require.NoError(t, err)

	other := insertTestFile(t, s, "/b.py")
	_, err = s.InsertImport(&Import{FileID: other.ID, Name: "sys", Origin: "SYS"})
	require.NoError(t, err)

	require.NoError(t, s.DeleteFileData(f.ID))

	got, err := s.FileByPath("/a.py")
	require.NoError(t, err)
	assert.Nil(t, got)

	for _, table := range []string{"documents", "reports", "imports"} {
		var n int
		require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM "+table+" WHERE file_id = ?", f.ID).Scan(&n))
		assert.Zero(t, n, table)
	}

	kept, err := s.ImportsByFile(other.ID)
	require.NoError(t, err)
	assert.Len(t, kept, 1)
}

func TestContentHash(t *testing.T) {
	t.Parallel()
	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		ContentHash(nil))
	assert.NotEqual(t, ContentHash([]byte("a")), ContentHash([]byte("b")))
}

func TestScriptsHash_OrderIndependent(t *testing.T) {
	t.Parallel()
	a := ScriptsHash(map[string]string{"resolve/python.risor": "x", "lib/util.risor": "y"})
	b := ScriptsHash(map[string]string{"lib/util.risor": "y", "resolve/python.risor": "x"})
	assert.Equal(t, a, b)

	c := ScriptsHash(map[string]string{"resolve/python.risor": "x!", "lib/util.risor": "y"})
	assert.NotEqual(t, a, c)
}
