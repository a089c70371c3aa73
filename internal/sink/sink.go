// Package sink writes reduced trees and documents to their output formats:
// JSON documents, compressed binary snapshots, and files written atomically.
package sink

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/xeipuuv/gojsonschema"
)

// Stdout is the path that WriteFile maps to standard output.
const Stdout = "-"

//go:embed schema.json
var schemaJSON []byte

// WriteJSON encodes doc to w, indented when pretty is set.
func WriteJSON(w io.Writer, doc any, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("sink: encode json: %w", err)
	}
	return nil
}

// ReadJSON decodes one document into its generic nested form. Numbers keep
// their literal text.
func ReadJSON(r io.Reader) (any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("sink: decode json: %w", err)
	}
	return doc, nil
}

// WriteFile runs fn against path. Files are written to a temporary sibling
// and renamed into place once fn succeeds. Stdout writes to os.Stdout.
func WriteFile(path string, fn func(io.Writer) error) error {
	if path == Stdout || path == "" {
		return fn(os.Stdout)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("sink: create temp: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := fn(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sink: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("sink: close: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("sink: rename: %w", err)
	}
	return nil
}

// ValidationError lists the schema violations of a document.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "sink: invalid document: " + strings.Join(e.Problems, "; ")
}

// Validate checks a reduced JSON document against the embedded schema.
// Schema violations are returned as a *ValidationError.
func Validate(doc []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaJSON),
		gojsonschema.NewBytesLoader(bytes.TrimSpace(doc)),
	)
	if err != nil {
		return fmt.Errorf("sink: validate: %w", err)
	}
	if result.Valid() {
		return nil
	}
	verr := &ValidationError{}
	for _, re := range result.Errors() {
		verr.Problems = append(verr.Problems, fmt.Sprintf("%s: %s", re.Field(), re.Description()))
	}
	return verr
}

// IsValidationError reports whether err carries schema violations.
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}
