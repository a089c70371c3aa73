package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// --- File operations ---

func (s *Store) InsertFile(f *File) (int64, error) {
	res, err := s.db.Exec(
		"INSERT INTO files (path, hash, line_count, last_indexed) VALUES (?, ?, ?, ?)",
		f.Path, f.Hash, f.LineCount, f.LastIndexed,
	)
	if err != nil {
		return 0, fmt.Errorf("insert file: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	f.ID = id
	return id, nil
}

// FileByPath returns the file stored under path, or nil when there is none.
func (s *Store) FileByPath(path string) (*File, error) {
	f := &File{}
	err := s.db.QueryRow(
		"SELECT id, path, hash, line_count, last_indexed FROM files WHERE path = ?", path,
	).Scan(&f.ID, &f.Path, &f.Hash, &f.LineCount, &f.LastIndexed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file by path: %w", err)
	}
	return f, nil
}

func (s *Store) Files() ([]*File, error) {
	rows, err := s.db.Query("SELECT id, path, hash, line_count, last_indexed FROM files ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("files: %w", err)
	}
	defer rows.Close()
	var files []*File
	for rows.Next() {
		f := &File{}
		if err := rows.Scan(&f.ID, &f.Path, &f.Hash, &f.LineCount, &f.LastIndexed); err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// --- Document operations ---

func (s *Store) InsertDocument(doc *Document) (int64, error) {
	res, err := s.db.Exec("INSERT INTO documents (file_id, body) VALUES (?, ?)", doc.FileID, doc.Body)
	if err != nil {
		return 0, fmt.Errorf("insert document: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	doc.ID = id
	return id, nil
}

// DocumentByPath returns the stored reduced document of path, or nil.
func (s *Store) DocumentByPath(path string) (*Document, error) {
	doc := &Document{}
	err := s.db.QueryRow(
		`SELECT d.id, d.file_id, d.body FROM documents d
		 JOIN files f ON f.id = d.file_id WHERE f.path = ?`, path,
	).Scan(&doc.ID, &doc.FileID, &doc.Body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("document by path: %w", err)
	}
	return doc, nil
}

// --- Report operations ---

func (s *Store) InsertReport(r *Report) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO reports (file_id, original_nodes, original_entities, original_kinds,
			reduced_nodes, reduced_entities, reduced_kinds)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.FileID, r.OriginalNodes, r.OriginalEntities, marshalKinds(r.OriginalKinds),
		r.ReducedNodes, r.ReducedEntities, marshalKinds(r.ReducedKinds),
	)
	if err != nil {
		return 0, fmt.Errorf("insert report: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	r.ID = id
	return id, nil
}

const reportColumns = `r.id, r.file_id, f.path, r.original_nodes, r.original_entities, r.original_kinds,
	r.reduced_nodes, r.reduced_entities, r.reduced_kinds`

func scanReport(sc scanner) (*Report, error) {
	r := &Report{}
	var origKinds, redKinds sql.NullString
	if err := sc.Scan(&r.ID, &r.FileID, &r.Path,
		&r.OriginalNodes, &r.OriginalEntities, &origKinds,
		&r.ReducedNodes, &r.ReducedEntities, &redKinds); err != nil {
		return nil, err
	}
	r.OriginalKinds = unmarshalKinds(origKinds.String)
	r.ReducedKinds = unmarshalKinds(redKinds.String)
	return r, nil
}

// ReportByPath returns the stored report of path, or nil.
func (s *Store) ReportByPath(path string) (*Report, error) {
	r, err := scanReport(s.db.QueryRow(
		"SELECT "+reportColumns+" FROM reports r JOIN files f ON f.id = r.file_id WHERE f.path = ?", path,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("report by path: %w", err)
	}
	return r, nil
}

// Reports returns every stored report in the order files were committed.
func (s *Store) Reports() ([]*Report, error) {
	rows, err := s.db.Query(
		"SELECT " + reportColumns + " FROM reports r JOIN files f ON f.id = r.file_id ORDER BY r.id",
	)
	if err != nil {
		return nil, fmt.Errorf("reports: %w", err)
	}
	defer rows.Close()
	var reports []*Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// --- Import operations ---

func (s *Store) InsertImport(imp *Import) (int64, error) {
	res, err := s.db.Exec(
		"INSERT INTO imports (file_id, name, alias, origin) VALUES (?, ?, ?, ?)",
		imp.FileID, imp.Name, imp.Alias, imp.Origin,
	)
	if err != nil {
		return 0, fmt.Errorf("insert import: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	imp.ID = id
	return id, nil
}

func (s *Store) queryImports(query string, args ...any) ([]*Import, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var imports []*Import
	for rows.Next() {
		imp := &Import{}
		if err := rows.Scan(&imp.ID, &imp.FileID, &imp.Path, &imp.Name, &imp.Alias, &imp.Origin); err != nil {
			return nil, fmt.Errorf("scan import: %w", err)
		}
		imports = append(imports, imp)
	}
	return imports, rows.Err()
}

func (s *Store) ImportsByFile(fileID int64) ([]*Import, error) {
	imports, err := s.queryImports(
		`SELECT i.id, i.file_id, f.path, i.name, i.alias, i.origin
		 FROM imports i JOIN files f ON f.id = i.file_id WHERE i.file_id = ? ORDER BY i.id`, fileID,
	)
	if err != nil {
		return nil, fmt.Errorf("imports by file: %w", err)
	}
	return imports, nil
}

// ImportsByOrigin returns every import classified with origin, across files.
func (s *Store) ImportsByOrigin(origin string) ([]*Import, error) {
	imports, err := s.queryImports(
		`SELECT i.id, i.file_id, f.path, i.name, i.alias, i.origin
		 FROM imports i JOIN files f ON f.id = i.file_id WHERE i.origin = ? ORDER BY f.path, i.id`, origin,
	)
	if err != nil {
		return nil, fmt.Errorf("imports by origin: %w", err)
	}
	return imports, nil
}

// --- Failure operations ---

// RecordFailure stores a failed file. Earlier failures of the same path are
// replaced, and any data committed for the path earlier is removed so the
// file is never both compressed and failed.
func (s *Store) RecordFailure(path string, cause error, at time.Time) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("record failure: begin: %w", err)
	}
	defer tx.Rollback()

	var existing int64
	err = tx.QueryRow("SELECT id FROM files WHERE path = ?", path).Scan(&existing)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return fmt.Errorf("record failure: lookup %s: %w", path, err)
	default:
		if err := deleteFileTx(tx, existing); err != nil {
			return fmt.Errorf("record failure: %w", err)
		}
	}

	if _, err := tx.Exec("DELETE FROM failures WHERE path = ?", path); err != nil {
		return fmt.Errorf("record failure: %w", err)
	}
	if _, err := tx.Exec("INSERT INTO failures (path, error, at) VALUES (?, ?, ?)", path, cause.Error(), at); err != nil {
		return fmt.Errorf("record failure: %w", err)
	}
	return tx.Commit()
}

func (s *Store) Failures() ([]*Failure, error) {
	rows, err := s.db.Query("SELECT id, path, error, at FROM failures ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("failures: %w", err)
	}
	defer rows.Close()
	var failures []*Failure
	for rows.Next() {
		f := &Failure{}
		if err := rows.Scan(&f.ID, &f.Path, &f.Error, &f.At); err != nil {
			return nil, fmt.Errorf("scan failure: %w", err)
		}
		failures = append(failures, f)
	}
	return failures, rows.Err()
}

// --- Aggregates ---

func (s *Store) Totals() (Totals, error) {
	var t Totals
	err := s.db.QueryRow(
		`SELECT COUNT(*), COALESCE(SUM(original_nodes), 0), COALESCE(SUM(reduced_nodes), 0),
			COALESCE(SUM(original_entities), 0), COALESCE(SUM(reduced_entities), 0)
		 FROM reports`,
	).Scan(&t.Files, &t.OriginalNodes, &t.ReducedNodes, &t.OriginalEntities, &t.ReducedEntities)
	if err != nil {
		return Totals{}, fmt.Errorf("totals: %w", err)
	}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM failures").Scan(&t.Failures); err != nil {
		return Totals{}, fmt.Errorf("totals: failures: %w", err)
	}
	return t, nil
}

// --- Metadata ---

// GetMetadata returns the value stored under key, or "" when unset.
func (s *Store) GetMetadata(key string) (string, error) {
	var value sql.NullString
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get metadata %s: %w", key, err)
	}
	return value.String, nil
}

func (s *Store) SetMetadata(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO metadata (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set metadata %s: %w", key, err)
	}
	return nil
}
