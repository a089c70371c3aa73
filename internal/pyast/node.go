// Package pyast is a typed model of the Python abstract syntax tree.
//
// Nodes carry an ordered field list described by a per-kind [Schema]
// instead of being introspected at runtime. Field values are child nodes,
// sequences, or scalars kept together with their Python repr.
package pyast

import (
	"strconv"
	"strings"
)

// Value is a field value: *Node, Seq or Scalar.
type Value interface {
	isValue()
}

// Seq is a list-valued field.
type Seq []Value

// Scalar is a non-node field value. Quoted scalars are Python str values and
// render with quotes; the rest render as their text.
type Scalar struct {
	Text   string
	Quoted bool
}

func (*Node) isValue()  {}
func (Seq) isValue()    {}
func (Scalar) isValue() {}

// String returns a str scalar.
func String(s string) Scalar { return Scalar{Text: s, Quoted: true} }

// Raw returns a scalar whose repr is text itself.
func Raw(text string) Scalar { return Scalar{Text: text} }

// Int returns an int scalar.
func Int(n int) Scalar { return Raw(strconv.Itoa(n)) }

var (
	None  = Raw("None")
	True  = Raw("True")
	False = Raw("False")
)

// Repr renders the scalar the way Python's repr would.
func (s Scalar) Repr() string {
	if !s.Quoted {
		return s.Text
	}
	return Quote(s.Text)
}

// IsNone reports whether the scalar is Python's None.
func (s Scalar) IsNone() bool { return !s.Quoted && s.Text == "None" }

// Quote renders s as a Python str literal: single quotes unless the text
// contains a single quote and no double quote.
func Quote(s string) string {
	q := byte('\'')
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		q = '"'
	}
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte(q)
	for _, r := range s {
		switch {
		case r == '\\':
			b.WriteString(`\\`)
		case r == rune(q):
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case r < 0x20 || r == 0x7f:
			b.WriteString(`\x`)
			b.WriteString(strconv.FormatInt(int64(r)+0x100, 16)[1:])
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte(q)
	return b.String()
}

// Node is one vertex of the source tree.
type Node struct {
	Kind Kind
	// Fields is parallel to Schema(Kind). A nil entry is an absent field.
	Fields []Value
	// Line is 1-based, Col is a 0-based byte offset. Zero Line means the
	// node carries no position (contexts, operators, helper nodes).
	Line int
	Col  int
}

// New builds a node with values assigned to the kind's fields in order.
// Missing trailing values are left absent.
func New(kind Kind, values ...Value) *Node {
	n := &Node{Kind: kind, Fields: make([]Value, len(Schema(kind)))}
	copy(n.Fields, values)
	return n
}

// At sets the node position and returns the node.
func (n *Node) At(line, col int) *Node {
	n.Line, n.Col = line, col
	return n
}

// Field returns the named field value, or nil when absent or unknown.
func (n *Node) Field(name string) Value {
	i := fieldIndex(n.Kind, name)
	if i < 0 || i >= len(n.Fields) {
		return nil
	}
	return n.Fields[i]
}

// SetField replaces the named field value. It reports false when the kind
// has no such field.
func (n *Node) SetField(name string, v Value) bool {
	i := fieldIndex(n.Kind, name)
	if i < 0 {
		return false
	}
	for len(n.Fields) <= i {
		n.Fields = append(n.Fields, nil)
	}
	n.Fields[i] = v
	return true
}

// Ident returns the text of a str-valued field.
func (n *Node) Ident(name string) (string, bool) {
	s, ok := n.Field(name).(Scalar)
	if !ok || !s.Quoted {
		return "", false
	}
	return s.Text, true
}

// Child returns a node-valued field.
func (n *Node) Child(name string) *Node {
	c, _ := n.Field(name).(*Node)
	return c
}

// Nodes returns the node elements of a list-valued field.
func (n *Node) Nodes(name string) []*Node {
	seq, _ := n.Field(name).(Seq)
	var out []*Node
	for _, v := range seq {
		if c, ok := v.(*Node); ok {
			out = append(out, c)
		}
	}
	return out
}

// Children returns the direct child nodes of n in field order, flattening
// list fields.
func Children(n *Node) []*Node {
	var out []*Node
	for _, v := range n.Fields {
		switch v := v.(type) {
		case *Node:
			out = append(out, v)
		case Seq:
			for _, e := range v {
				if c, ok := e.(*Node); ok {
					out = append(out, c)
				}
			}
		}
	}
	return out
}

// Walk visits n and its descendants in pre-order using an explicit stack.
// Returning false from fn skips the node's subtree.
func Walk(n *Node, fn func(*Node) bool) {
	stack := []*Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(cur) {
			continue
		}
		kids := Children(cur)
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, kids[i])
		}
	}
}
