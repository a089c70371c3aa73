package store

import (
	json "github.com/goccy/go-json"
)

// marshalKinds converts an entity list to JSON text for storage.
func marshalKinds(kinds []string) string {
	if len(kinds) == 0 {
		return "[]"
	}
	b, _ := json.Marshal(kinds)
	return string(b)
}

// unmarshalKinds converts JSON text back to []string.
func unmarshalKinds(s string) []string {
	if s == "" || s == "null" {
		return nil
	}
	var kinds []string
	_ = json.Unmarshal([]byte(s), &kinds)
	return kinds
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}
