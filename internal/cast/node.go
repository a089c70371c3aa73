// Package cast builds the reduced ("compressed") syntax tree.
//
// A [Builder] walks a [pyast.Node] Module and produces a [Tree] whose nodes
// carry a merged category label, either a generic attribute dump (leaves) or
// a short custom record set by a per-kind rule, and their children in source
// order. Identifiers reached through imports and calls are classified as
// builtin, system or unknown.
package cast

import (
	"bytes"

	json "github.com/goccy/go-json"

	"github.com/jward/bonsai/internal/pyast"
)

// Entry is one key of a Record.
type Entry struct {
	Key   string
	Value any
}

// Record is a custom attribute: an object that keeps its key order when
// encoded.
type Record []Entry

// MarshalJSON encodes the record as an object with keys in order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(e.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Get returns the value stored under key.
func (r Record) Get(key string) (any, bool) {
	for _, e := range r {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// Node is a vertex of the reduced tree.
type Node struct {
	Group string
	// Attributes holds the flattened generic dump when IsDefaultAttributes
	// is set, and custom Records otherwise.
	Attributes          []any
	IsDefaultAttributes bool
	// Metadata is the generic dump of the source node as parsed. Dumps of
	// one tree share their nested maps and are read-only.
	Metadata map[string]any
	Children []*Node
	Parent   *Node
	// Source is the node this one was built from. Nil for trees decoded from
	// a binary snapshot.
	Source *pyast.Node
}

func newNode(src *pyast.Node) *Node {
	return &Node{Group: GroupOf(src.Kind), Source: src}
}

// AddChild appends c and sets its parent.
func (n *Node) AddChild(c *Node) {
	c.Parent = n
	n.Children = append(n.Children, c)
}

// IsLeaf reports whether n has no children.
func (n *Node) IsLeaf() bool { return len(n.Children) == 0 }

// Records returns the custom attribute records of n.
func (n *Node) Records() []Record {
	if n.IsDefaultAttributes {
		return nil
	}
	var out []Record
	for _, a := range n.Attributes {
		if r, ok := a.(Record); ok {
			out = append(out, r)
		}
	}
	return out
}
