package pyast

import (
	"bytes"
	"math"
	"strconv"

	json "github.com/goccy/go-json"
)

// TypeKey is the kind key of exported source documents.
const TypeKey = "_type"

type exportFrame struct {
	node *Node
	seq  Seq
	idx  int
}

// Export renders n as the fully expanded source document: every node
// becomes an object whose first key is "_type", followed by its fields in
// schema order and, for positioned nodes, "lineno" and "col_offset".
// Scalars become native JSON values where Python has one.
func Export(n *Node) ([]byte, error) {
	var buf bytes.Buffer
	openNode(&buf, n)
	stack := []*exportFrame{{node: n}}

	for len(stack) > 0 {
		top := stack[len(stack)-1]

		var next Value
		if top.node != nil {
			schema := Schema(top.node.Kind)
			for top.idx < len(schema) && next == nil {
				i := top.idx
				top.idx++
				if i >= len(top.node.Fields) || top.node.Fields[i] == nil {
					continue
				}
				next = top.node.Fields[i]
				writeKey(&buf, schema[i].Name)
			}
			if next == nil {
				if top.node.Line > 0 {
					buf.WriteString(`,"lineno":`)
					buf.WriteString(strconv.Itoa(top.node.Line))
					buf.WriteString(`,"col_offset":`)
					buf.WriteString(strconv.Itoa(top.node.Col))
				}
				buf.WriteByte('}')
				stack = stack[:len(stack)-1]
				continue
			}
		} else {
			if top.idx >= len(top.seq) {
				buf.WriteByte(']')
				stack = stack[:len(stack)-1]
				continue
			}
			if top.idx > 0 {
				buf.WriteByte(',')
			}
			next = top.seq[top.idx]
			top.idx++
		}

		switch v := next.(type) {
		case Scalar:
			if err := writeScalar(&buf, v); err != nil {
				return nil, err
			}
		case *Node:
			openNode(&buf, v)
			stack = append(stack, &exportFrame{node: v})
		case Seq:
			buf.WriteByte('[')
			stack = append(stack, &exportFrame{seq: v})
		default:
			buf.WriteString("null")
		}
	}
	return buf.Bytes(), nil
}

func openNode(buf *bytes.Buffer, n *Node) {
	buf.WriteString(`{"` + TypeKey + `":`)
	b, _ := json.Marshal(string(n.Kind))
	buf.Write(b)
}

func writeKey(buf *bytes.Buffer, name string) {
	b, _ := json.Marshal(name)
	buf.WriteByte(',')
	buf.Write(b)
	buf.WriteByte(':')
}

func writeScalar(buf *bytes.Buffer, s Scalar) error {
	if !s.Quoted {
		switch s.Text {
		case "None":
			buf.WriteString("null")
			return nil
		case "True":
			buf.WriteString("true")
			return nil
		case "False":
			buf.WriteString("false")
			return nil
		}
		if isJSONNumber(s.Text) {
			buf.WriteString(s.Text)
			return nil
		}
	}
	b, err := json.Marshal(s.Text)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}

func isJSONNumber(text string) bool {
	if text == "" {
		return false
	}
	if _, err := strconv.ParseInt(text, 10, 64); err == nil {
		return true
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return false
	}
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}
