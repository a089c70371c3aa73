package store

import "time"

type File struct {
	ID          int64
	Path        string
	Hash        string
	LineCount   int
	LastIndexed time.Time
}

// Document is the reduced JSON document of a file.
type Document struct {
	ID     int64
	FileID int64
	Body   []byte
}

// Report holds the evaluator counts of both documents of a file. Path is
// filled by queries that join the files table.
type Report struct {
	ID               int64
	FileID           int64
	Path             string
	OriginalNodes    int
	OriginalEntities int
	OriginalKinds    []string
	ReducedNodes     int
	ReducedEntities  int
	ReducedKinds     []string
}

type Import struct {
	ID     int64
	FileID int64
	Path   string
	Name   string
	Alias  *string
	Origin string
}

// Failure is a file that could not be compressed during a batch run.
type Failure struct {
	ID    int64
	Path  string
	Error string
	At    time.Time
}

// Totals aggregates the ledger.
type Totals struct {
	Files            int
	OriginalNodes    int64
	ReducedNodes     int64
	OriginalEntities int64
	ReducedEntities  int64
	Failures         int
}
