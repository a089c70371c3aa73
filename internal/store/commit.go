package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// CommitBatch writes a Batch within a single transaction. A file already
// stored under the same path is replaced together with its rows, and any
// failure recorded for the path is cleared. The fake file ID is remapped
// to the real one.
//
// Insert order respects FK dependencies:
//  1. File
//  2. Documents
//  3. Reports
//  4. Imports
func (s *Store) CommitBatch(batch *Batch) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("commit batch: begin: %w", err)
	}
	defer tx.Rollback()

	f := batch.File
	var existing int64
	err = tx.QueryRow("SELECT id FROM files WHERE path = ?", f.Path).Scan(&existing)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return fmt.Errorf("commit batch: lookup %s: %w", f.Path, err)
	default:
		if err := deleteFileTx(tx, existing); err != nil {
			return fmt.Errorf("commit batch: %w", err)
		}
	}

	// 1. File
	realID, err := insertFileTx(tx, f)
	if err != nil {
		return fmt.Errorf("commit batch: file %q: %w", f.Path, err)
	}
	remap := func(id int64) int64 {
		if id < 0 {
			return realID
		}
		return id
	}

	// 2. Documents
	for _, doc := range batch.Documents {
		doc.FileID = remap(doc.FileID)
		if _, err := tx.Exec("INSERT INTO documents (file_id, body) VALUES (?, ?)", doc.FileID, doc.Body); err != nil {
			return fmt.Errorf("commit batch: document: %w", err)
		}
	}

	// 3. Reports
	for _, r := range batch.Reports {
		r.FileID = remap(r.FileID)
		if err := insertReportTx(tx, &r); err != nil {
			return fmt.Errorf("commit batch: report: %w", err)
		}
	}

	// 4. Imports
	for _, imp := range batch.Imports {
		imp.FileID = remap(imp.FileID)
		if _, err := tx.Exec(
			"INSERT INTO imports (file_id, name, alias, origin) VALUES (?, ?, ?, ?)",
			imp.FileID, imp.Name, imp.Alias, imp.Origin,
		); err != nil {
			return fmt.Errorf("commit batch: import %q: %w", imp.Name, err)
		}
	}

	if _, err := tx.Exec("DELETE FROM failures WHERE path = ?", f.Path); err != nil {
		return fmt.Errorf("commit batch: clear failure: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	f.ID = realID
	return nil
}

// --- Transaction-scoped insert helpers ---

func insertFileTx(tx *sql.Tx, f *File) (int64, error) {
	res, err := tx.Exec(
		"INSERT INTO files (path, hash, line_count, last_indexed) VALUES (?, ?, ?, ?)",
		f.Path, f.Hash, f.LineCount, f.LastIndexed,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func insertReportTx(tx *sql.Tx, r *Report) error {
	_, err := tx.Exec(
		`INSERT INTO reports (file_id, original_nodes, original_entities, original_kinds,
			reduced_nodes, reduced_entities, reduced_kinds)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.FileID, r.OriginalNodes, r.OriginalEntities, marshalKinds(r.OriginalKinds),
		r.ReducedNodes, r.ReducedEntities, marshalKinds(r.ReducedKinds),
	)
	return err
}
