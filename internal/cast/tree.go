package cast

import "github.com/jward/bonsai/internal/pyast"

// Tree owns a reduced root and indexes every node by its source node.
type Tree struct {
	Root  *Node
	index map[*pyast.Node]*Node
}

// NewTree wraps root. Nodes are indexed by source identity when they carry
// one.
func NewTree(root *Node) *Tree {
	t := &Tree{Root: root, index: make(map[*pyast.Node]*Node)}
	t.Walk(func(n *Node) bool {
		if n.Source != nil {
			t.index[n.Source] = n
		}
		return true
	})
	return t
}

// Find returns the reduced node built for src, or nil.
func (t *Tree) Find(src *pyast.Node) *Node {
	return t.index[src]
}

// Walk visits every node in pre-order. Returning false skips the subtree.
func (t *Tree) Walk(fn func(*Node) bool) {
	if t.Root == nil {
		return
	}
	stack := []*Node{t.Root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(n) {
			continue
		}
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i])
		}
	}
}

// Len returns the number of nodes in the tree.
func (t *Tree) Len() int {
	count := 0
	t.Walk(func(*Node) bool {
		count++
		return true
	})
	return count
}
