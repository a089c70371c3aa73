package bonsai

import (
	"fmt"

	"github.com/jward/bonsai/internal/cast"
	"github.com/jward/bonsai/internal/eval"
	"github.com/jward/bonsai/internal/report"
	"github.com/jward/bonsai/internal/store"
)

// QueryBuilder provides read access to a ledger.
type QueryBuilder struct {
	store *store.Store
}

// NewQueryBuilder creates a QueryBuilder over an open Store, for callers
// that read a ledger without compressing anything.
func NewQueryBuilder(s *Store) *QueryBuilder {
	return &QueryBuilder{store: s}
}

func (q *QueryBuilder) check() error {
	if q.store == nil {
		return ErrNoStore
	}
	return nil
}

// Reports returns every stored report in commit order.
func (q *QueryBuilder) Reports() ([]*Report, error) {
	if err := q.check(); err != nil {
		return nil, err
	}
	reports, err := q.store.Reports()
	if err != nil {
		return nil, fmt.Errorf("reports: %w", err)
	}
	return reports, nil
}

// ReportByPath returns the report of one file, or nil when the file is not
// in the ledger.
func (q *QueryBuilder) ReportByPath(path string) (*Report, error) {
	if err := q.check(); err != nil {
		return nil, err
	}
	r, err := q.store.ReportByPath(path)
	if err != nil {
		return nil, fmt.Errorf("report by path: %w", err)
	}
	return r, nil
}

// DocumentByPath returns the reduced document of one file, or nil when the
// file is not in the ledger.
func (q *QueryBuilder) DocumentByPath(path string) (*Document, error) {
	if err := q.check(); err != nil {
		return nil, err
	}
	doc, err := q.store.DocumentByPath(path)
	if err != nil {
		return nil, fmt.Errorf("document by path: %w", err)
	}
	return doc, nil
}

// Failures returns the files that could not be compressed, ordered by path.
func (q *QueryBuilder) Failures() ([]*Failure, error) {
	if err := q.check(); err != nil {
		return nil, err
	}
	failures, err := q.store.Failures()
	if err != nil {
		return nil, fmt.Errorf("failures: %w", err)
	}
	return failures, nil
}

// ImportsByOrigin returns every stored import classified as origin.
func (q *QueryBuilder) ImportsByOrigin(origin cast.Origin) ([]*Import, error) {
	if err := q.check(); err != nil {
		return nil, err
	}
	imports, err := q.store.ImportsByOrigin(string(origin))
	if err != nil {
		return nil, fmt.Errorf("imports by origin: %w", err)
	}
	return imports, nil
}

// Totals aggregates the ledger.
func (q *QueryBuilder) Totals() (Totals, error) {
	if err := q.check(); err != nil {
		return Totals{}, err
	}
	t, err := q.store.Totals()
	if err != nil {
		return Totals{}, fmt.Errorf("totals: %w", err)
	}
	return t, nil
}

// Rows returns the stored reports as comparison rows for rendering.
func (q *QueryBuilder) Rows() ([]report.Row, error) {
	reports, err := q.Reports()
	if err != nil {
		return nil, err
	}
	rows := make([]report.Row, len(reports))
	for i, r := range reports {
		rows[i] = ReportRow(r)
	}
	return rows, nil
}

// Series returns the cumulative node and entity counts over the files in
// commit order.
func (q *QueryBuilder) Series() (report.Series, error) {
	rows, err := q.Rows()
	if err != nil {
		return report.Series{}, err
	}
	return report.Cumulative(rows), nil
}

// ReportRow converts a stored report back into a comparison row.
func ReportRow(r *Report) report.Row {
	return report.Row{
		Path: r.Path,
		Comparison: eval.Comparison{
			Original: eval.Report{
				DistinctEntities: r.OriginalEntities,
				TotalNodes:       r.OriginalNodes,
				Entities:         r.OriginalKinds,
			},
			Reduced: eval.Report{
				DistinctEntities: r.ReducedEntities,
				TotalNodes:       r.ReducedNodes,
				Entities:         r.ReducedKinds,
			},
		},
	}
}
