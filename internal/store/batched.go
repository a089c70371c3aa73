package store

import "sync"

// Batch buffers one file's ledger rows in memory. The file carries a fake
// (negative) ID until CommitBatch assigns the real one, so workers can fill
// batches without touching SQLite.
//
// Thread safety: the mutex protects slice appends.
type Batch struct {
	File *File

	mu        sync.Mutex
	Documents []Document
	Reports   []Report
	Imports   []Import
}

// Compile-time check: *Batch satisfies DataStore.
var _ DataStore = (*Batch)(nil)

// fakeFileID marks rows that belong to the batch's not yet committed file.
const fakeFileID int64 = -1

// NewBatch creates a Batch for f. f.ID is replaced by a fake ID.
func NewBatch(f *File) *Batch {
	f.ID = fakeFileID
	return &Batch{File: f}
}

func (b *Batch) InsertDocument(doc *Document) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	doc.FileID = b.File.ID
	b.Documents = append(b.Documents, *doc)
	return int64(-len(b.Documents)), nil
}

func (b *Batch) InsertReport(r *Report) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r.FileID = b.File.ID
	b.Reports = append(b.Reports, *r)
	return int64(-len(b.Reports)), nil
}

func (b *Batch) InsertImport(imp *Import) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	imp.FileID = b.File.ID
	b.Imports = append(b.Imports, *imp)
	return int64(-len(b.Imports)), nil
}
