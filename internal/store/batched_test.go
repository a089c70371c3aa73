package store

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fillBatch(t *testing.T, b *Batch, doc string, imports ...string) {
	t.Helper()
	_, err := b.InsertDocument(&Document{Body: []byte(doc)})
	require.NoError(t, err)
	_, err = b.InsertReport(&Report{OriginalNodes: 3, OriginalEntities: 3, ReducedNodes: 2, ReducedEntities: 2})
	require.NoError(t, err)
	for _, name := range imports {
		_, err := b.InsertImport(&Import{Name: name, Origin: "SYS"})
		require.NoError(t, err)
	}
}

func TestBatch_BuffersWithFakeFileID(t *testing.T) {
	t.Parallel()
	b := NewBatch(&File{Path: "/a.py"})

	id, err := b.InsertImport(&Import{Name: "os", Origin: "SYS"})
	require.NoError(t, err)
	assert.Negative(t, id, "batched IDs should be negative")
	require.Len(t, b.Imports, 1)
	assert.Negative(t, b.Imports[0].FileID)
}

func TestCommitBatch_WritesAllRows(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	f := &File{Path: "/a.py", Hash: "h1", LastIndexed: time.Now()}
	b := NewBatch(f)
	fillBatch(t, b, `{"CAST_type":"Module","CAST_body":[]}`, "os", "sys")
	require.NoError(t, s.CommitBatch(b))
	assert.Positive(t, f.ID, "commit assigns the real file ID")

	doc, err := s.DocumentByPath("/a.py")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, f.ID, doc.FileID)

	rep, err := s.ReportByPath("/a.py")
	require.NoError(t, err)
	require.NotNil(t, rep)
	assert.Equal(t, 3, rep.OriginalNodes)

	imports, err := s.ImportsByFile(f.ID)
	require.NoError(t, err)
	assert.Len(t, imports, 2)
}

func TestCommitBatch_ReplacesExistingFile(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	first := NewBatch(&File{Path: "/a.py", Hash: "h1"})
	fillBatch(t, first, `{"v":1}`, "os", "sys")
	require.NoError(t, s.CommitBatch(first))

	second := NewBatch(&File{Path: "/a.py", Hash: "h2"})
	fillBatch(t, second, `{"v":2}`, "json")
	require.NoError(t, s.CommitBatch(second))

	f, err := s.FileByPath("/a.py")
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, "h2", f.Hash)

	doc, err := s.DocumentByPath("/a.py")
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":2}`, string(doc.Body))

	imports, err := s.ImportsByOrigin("SYS")
	require.NoError(t, err)
	require.Len(t, imports, 1)
	assert.Equal(t, "json", imports[0].Name)

	reports, err := s.Reports()
	require.NoError(t, err)
	assert.Len(t, reports, 1)
}

func TestCommitBatch_ClearsFailure(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.RecordFailure("/a.py", errors.New("syntax"), time.Now()))

	b := NewBatch(&File{Path: "/a.py"})
	fillBatch(t, b, `{}`)
	require.NoError(t, s.CommitBatch(b))

	failures, err := s.Failures()
	require.NoError(t, err)
	assert.Empty(t, failures)
}

func TestBatch_ConcurrentInserts(t *testing.T) {
	t.Parallel()
	b := NewBatch(&File{Path: "/a.py"})

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = b.InsertImport(&Import{Name: "os", Origin: "SYS"})
		}()
	}
	wg.Wait()
	assert.Len(t, b.Imports, 16)
}
