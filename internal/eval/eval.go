// Package eval measures a tree document by the kinds it contains and the
// number of typed nodes, for comparing a source tree against its reduced form.
package eval

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	json "github.com/goccy/go-json"

	"github.com/jward/bonsai/internal/cast"
	"github.com/jward/bonsai/internal/pyast"
)

// ErrEmpty is returned when the input holds no JSON value.
var ErrEmpty = errors.New("eval: empty document")

// Report summarizes one document.
type Report struct {
	DistinctEntities int      `json:"distinct_entities"`
	TotalNodes       int      `json:"total_nodes"`
	Entities         []string `json:"entities"`
}

// Comparison pairs the report of a source tree with that of its reduced tree.
type Comparison struct {
	Original Report `json:"original"`
	Reduced  Report `json:"reduced"`
}

// NodeRatio returns reduced nodes over original nodes, or 0 when the
// original is empty.
func (c Comparison) NodeRatio() float64 {
	if c.Original.TotalNodes == 0 {
		return 0
	}
	return float64(c.Reduced.TotalNodes) / float64(c.Original.TotalNodes)
}

// Analyse tallies an exported source tree and a reduced document.
func Analyse(original, reduced []byte) (Comparison, error) {
	o, err := Tally(bytes.NewReader(original), pyast.TypeKey)
	if err != nil {
		return Comparison{}, fmt.Errorf("original: %w", err)
	}
	r, err := Tally(bytes.NewReader(reduced), cast.TypeKey)
	if err != nil {
		return Comparison{}, fmt.Errorf("reduced: %w", err)
	}
	return Comparison{Original: o, Reduced: r}, nil
}

type frameKind int

const (
	inObject frameKind = iota
	inArray
	skipped
)

type frame struct {
	kind      frameKind
	expectKey bool
	key       string
}

// Tally streams a JSON document and counts every value stored under
// typeKey. Objects are followed through object values and through object
// elements of arrays; arrays nested directly in arrays are skipped.
// Entities are reported in first-seen order.
func Tally(r io.Reader, typeKey string) (Report, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	rep := Report{Entities: []string{}}
	seen := make(map[string]struct{})
	var stack []frame

	count := func(kind string) {
		rep.TotalNodes++
		if _, ok := seen[kind]; !ok {
			seen[kind] = struct{}{}
			rep.Entities = append(rep.Entities, kind)
		}
	}
	// valueDone marks the pending value of the enclosing object as consumed.
	valueDone := func() {
		if n := len(stack); n > 0 && stack[n-1].kind == inObject {
			stack[n-1].expectKey = true
		}
	}

	started := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Report{}, fmt.Errorf("eval: %w", err)
		}
		started = true

		var top *frame
		if n := len(stack); n > 0 {
			top = &stack[n-1]
		}

		switch v := tok.(type) {
		case json.Delim:
			switch v {
			case '{':
				kind := inObject
				if top != nil && top.kind == skipped {
					kind = skipped
				}
				stack = append(stack, frame{kind: kind, expectKey: true})
			case '[':
				kind := inArray
				if top != nil && (top.kind == skipped || top.kind == inArray) {
					kind = skipped
				}
				stack = append(stack, frame{kind: kind})
			case '}', ']':
				stack = stack[:len(stack)-1]
				valueDone()
			}
		case string:
			if top != nil && top.kind == inObject && top.expectKey {
				top.key = v
				top.expectKey = false
				continue
			}
			if top != nil && top.kind == inObject && top.key == typeKey {
				count(v)
			}
			valueDone()
		default:
			if top != nil && top.kind == inObject && top.key == typeKey {
				count(fmt.Sprint(v))
			}
			valueDone()
		}
		if len(stack) == 0 {
			break
		}
	}
	if !started {
		return Report{}, ErrEmpty
	}
	if len(stack) > 0 {
		return Report{}, fmt.Errorf("eval: %w", io.ErrUnexpectedEOF)
	}
	rep.DistinctEntities = len(rep.Entities)
	return rep, nil
}
