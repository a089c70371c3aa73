package store

// DataStore is the write interface for one file's compression output. Both
// Store (direct SQLite) and Batch (in-memory buffering for parallel runs)
// implement it.
type DataStore interface {
	InsertDocument(doc *Document) (int64, error)
	InsertReport(r *Report) (int64, error)
	InsertImport(imp *Import) (int64, error)
}

// Compile-time check: *Store satisfies DataStore.
var _ DataStore = (*Store)(nil)
