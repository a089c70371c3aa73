package cast

// Keys of the reduced document.
const (
	TypeKey = "CAST_type"
	BodyKey = "CAST_body"
)

// Document is the serialized form of a reduced node.
type Document struct {
	Type string `json:"CAST_type"`
	Body []any  `json:"CAST_body"`
}

// Document folds the tree into nested documents. A default-attribute leaf
// renders its flattened attributes; any other node renders its custom
// records followed by its children in order.
func (t *Tree) Document() *Document {
	if t.Root == nil {
		return nil
	}
	type pending struct {
		node   *Node
		parent *Document
	}

	var root *Document
	stack := []pending{{node: t.Root}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := p.node
		doc := &Document{Type: n.Group, Body: make([]any, 0, len(n.Attributes)+len(n.Children))}
		if p.parent == nil {
			root = doc
		} else {
			p.parent.Body = append(p.parent.Body, doc)
		}

		doc.Body = append(doc.Body, n.Attributes...)
		if n.IsDefaultAttributes && len(n.Attributes) > 0 {
			continue
		}
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, pending{node: n.Children[i], parent: doc})
		}
	}
	return root
}
