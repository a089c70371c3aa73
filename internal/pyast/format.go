package pyast

// formatFrame accumulates the rendered arguments of a node or list while its
// nested values are being rendered.
type formatFrame struct {
	node    *Node
	seq     Seq
	idx     int
	keyword bool
	wrap    string
	out     []any
}

func (f *formatFrame) result(memo map[*Node]map[string]any) any {
	var r any = f.out
	if f.node != nil {
		dump := map[string]any{string(f.node.Kind): f.out}
		if memo != nil {
			memo[f.node] = dump
		}
		r = dump
	}
	if f.wrap != "" {
		r = map[string]any{f.wrap: r}
	}
	return r
}

// Format returns the generic field dump of n: {Kind: [arg, ...]} where each
// arg is a nested dump, a list of dumps, or a scalar repr. Fields following
// an absent field, and fields tagged Keyword, render as {field: value}.
func Format(n *Node) map[string]any {
	return format(n, nil)
}

// FormatAll returns the dump of every node under n, keyed by node, in one
// pass. A node's dump shares the dumps of its descendants, so the maps must
// not be modified.
func FormatAll(n *Node) map[*Node]map[string]any {
	memo := make(map[*Node]map[string]any)
	format(n, memo)
	return memo
}

func format(n *Node, memo map[*Node]map[string]any) map[string]any {
	root := &formatFrame{node: n, out: []any{}}
	stack := []*formatFrame{root}

	for len(stack) > 0 {
		top := stack[len(stack)-1]

		var (
			v    Value
			wrap string
			done bool
		)
		if top.node != nil {
			schema := Schema(top.node.Kind)
			for top.idx < len(schema) {
				i := top.idx
				top.idx++
				var fv Value
				if i < len(top.node.Fields) {
					fv = top.node.Fields[i]
				}
				if fv == nil {
					top.keyword = true
					continue
				}
				v = fv
				if top.keyword || schema[i].Keyword {
					wrap = schema[i].Name
				}
				break
			}
			done = v == nil
		} else {
			if top.idx < len(top.seq) {
				v = top.seq[top.idx]
				top.idx++
			}
			done = v == nil && top.idx >= len(top.seq)
		}

		if done {
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return root.result(memo).(map[string]any)
			}
			parent := stack[len(stack)-1]
			parent.out = append(parent.out, top.result(memo))
			continue
		}

		switch v := v.(type) {
		case Scalar:
			var r any = v.Repr()
			if wrap != "" {
				r = map[string]any{wrap: r}
			}
			top.out = append(top.out, r)
		case *Node:
			stack = append(stack, &formatFrame{node: v, wrap: wrap, out: []any{}})
		case Seq:
			stack = append(stack, &formatFrame{seq: v, wrap: wrap, out: []any{}})
		}
	}
	return nil
}

// FormatArgs returns the argument list of Format(n), the flattened form
// stored on reduced leaves.
func FormatArgs(n *Node) []any {
	return Format(n)[string(n.Kind)].([]any)
}
