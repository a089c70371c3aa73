package main

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/jward/bonsai/internal/sink"
)

var errInvalidDocument = errors.New("document does not match the reduced tree schema")

var validateCmd = &cobra.Command{
	Use:   "validate <doc.json|snapshot|->",
	Short: "Check a reduced document against the schema",
	Long:  "Validates a JSON document, or the document of a binary snapshot, against the reduced tree schema. Use - to read from stdin.",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	name := args[0]
	var r io.Reader
	if name == sink.Stdout {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(name)
		if err != nil {
			return outputError(cmd, "validate", err)
		}
		defer f.Close()
		r = f
	}

	doc, err := readDocument(r)
	if err != nil {
		return outputError(cmd, "validate", err)
	}

	result := CLIValidation{Path: name, Valid: true}
	if err := sink.Validate(doc); err != nil {
		var verr *sink.ValidationError
		if !errors.As(err, &verr) {
			return outputError(cmd, "validate", err)
		}
		result.Valid = false
		result.Problems = verr.Problems
	}

	if err := outputResult(cmd, CLIResult{Command: "validate", Results: result}); err != nil {
		return err
	}
	if !result.Valid {
		errorHandled = true
		return errInvalidDocument
	}
	return nil
}

// readDocument returns the JSON bytes of a document, decoding binary
// snapshots first.
func readDocument(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(bufio.NewReader(r))
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}
	tree, err := sink.ReadBinary(bytes.NewReader(data))
	if errors.Is(err, sink.ErrMagic) {
		return data, nil
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(tree.Document())
}
