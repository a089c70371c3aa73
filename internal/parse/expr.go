package parse

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/bonsai/internal/pyast"
)

var binaryOps = map[string]pyast.Kind{
	"+":  pyast.Add,
	"-":  pyast.Sub,
	"*":  pyast.Mult,
	"@":  pyast.MatMult,
	"/":  pyast.Div,
	"%":  pyast.Mod,
	"**": pyast.Pow,
	"<<": pyast.LShift,
	">>": pyast.RShift,
	"|":  pyast.BitOr,
	"^":  pyast.BitXor,
	"&":  pyast.BitAnd,
	"//": pyast.FloorDiv,
}

var unaryOps = map[string]pyast.Kind{
	"+": pyast.UAdd,
	"-": pyast.USub,
	"~": pyast.Invert,
}

var compareOps = map[string]pyast.Kind{
	"==":     pyast.Eq,
	"!=":     pyast.NotEq,
	"<>":     pyast.NotEq,
	"<":      pyast.Lt,
	"<=":     pyast.LtE,
	">":      pyast.Gt,
	">=":     pyast.GtE,
	"is":     pyast.Is,
	"is not": pyast.IsNot,
	"in":     pyast.In,
	"not in": pyast.NotIn,
}

// expr lowers an expression in Load context.
func (l *lowerer) expr(n *sitter.Node) *pyast.Node {
	var out *pyast.Node
	switch n.Type() {
	case "identifier", "keyword_identifier":
		out = pyast.New(pyast.Name, pyast.String(l.text(n)), pyast.New(pyast.Load))
	case "integer", "float":
		out = pyast.New(pyast.Num, pyast.Raw(numberRepr(l.text(n))))
	case "string", "concatenated_string":
		out = l.str(n)
	case "true":
		out = pyast.New(pyast.NameConstant, pyast.True)
	case "false":
		out = pyast.New(pyast.NameConstant, pyast.False)
	case "none":
		out = pyast.New(pyast.NameConstant, pyast.None)
	case "ellipsis":
		out = pyast.New(pyast.Ellipsis)
	case "parenthesized_expression", "type":
		return l.expr(named(n)[0])
	case "binary_operator":
		out = pyast.New(pyast.BinOp,
			l.expr(n.ChildByFieldName("left")),
			pyast.New(binaryOps[n.ChildByFieldName("operator").Type()]),
			l.expr(n.ChildByFieldName("right")),
		)
	case "unary_operator":
		out = pyast.New(pyast.UnaryOp,
			pyast.New(unaryOps[n.ChildByFieldName("operator").Type()]),
			l.expr(n.ChildByFieldName("argument")),
		)
	case "not_operator":
		out = pyast.New(pyast.UnaryOp, pyast.New(pyast.Not), l.expr(n.ChildByFieldName("argument")))
	case "boolean_operator":
		out = l.boolOp(n)
	case "comparison_operator":
		out = l.compare(n)
	case "lambda":
		out = pyast.New(pyast.Lambda, l.arguments(n.ChildByFieldName("parameters")), l.expr(n.ChildByFieldName("body")))
	case "conditional_expression":
		kids := named(n)
		out = pyast.New(pyast.IfExp, l.expr(kids[1]), l.expr(kids[0]), l.expr(kids[2]))
	case "named_expression":
		out = pyast.New(pyast.NamedExpr,
			l.target(n.ChildByFieldName("name"), pyast.Store),
			l.expr(n.ChildByFieldName("value")),
		)
	case "call":
		out = l.call(n)
	case "attribute":
		out = pyast.New(pyast.Attribute,
			l.expr(n.ChildByFieldName("object")),
			pyast.String(l.text(n.ChildByFieldName("attribute"))),
			pyast.New(pyast.Load),
		)
	case "subscript":
		out = pyast.New(pyast.Subscript, l.expr(n.ChildByFieldName("value")), l.slice(n), pyast.New(pyast.Load))
	case "list", "list_pattern":
		out = pyast.New(pyast.List, l.elts(n), pyast.New(pyast.Load))
	case "tuple", "tuple_pattern", "expression_list", "pattern_list":
		out = pyast.New(pyast.Tuple, l.elts(n), pyast.New(pyast.Load))
	case "set":
		out = pyast.New(pyast.Set, l.elts(n))
	case "dictionary":
		out = l.dict(n)
	case "list_comprehension":
		out = pyast.New(pyast.ListComp, l.expr(n.ChildByFieldName("body")), l.generators(n))
	case "set_comprehension":
		out = pyast.New(pyast.SetComp, l.expr(n.ChildByFieldName("body")), l.generators(n))
	case "generator_expression":
		out = pyast.New(pyast.GeneratorExp, l.expr(n.ChildByFieldName("body")), l.generators(n))
	case "dictionary_comprehension":
		pair := n.ChildByFieldName("body")
		out = pyast.New(pyast.DictComp,
			l.expr(pair.ChildByFieldName("key")),
			l.expr(pair.ChildByFieldName("value")),
			l.generators(n),
		)
	case "list_splat", "list_splat_pattern":
		out = pyast.New(pyast.Starred, l.expr(named(n)[0]), pyast.New(pyast.Load))
	case "await":
		out = pyast.New(pyast.Await, l.expr(named(n)[0]))
	case "yield":
		out = l.yield(n)
	default:
		return l.fallback(n)
	}
	return at(out, n)
}

// target lowers n and marks every assignable node in it with ctx.
func (l *lowerer) target(n *sitter.Node, ctx pyast.Kind) *pyast.Node {
	out := l.expr(n)
	stack := []*pyast.Node{out}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		switch cur.Kind {
		case pyast.Name, pyast.Attribute, pyast.Subscript:
			cur.SetField("ctx", pyast.New(ctx))
		case pyast.Starred:
			cur.SetField("ctx", pyast.New(ctx))
			if v := cur.Child("value"); v != nil {
				stack = append(stack, v)
			}
		case pyast.List, pyast.Tuple:
			cur.SetField("ctx", pyast.New(ctx))
			stack = append(stack, cur.Nodes("elts")...)
		}
	}
	return out
}

func (l *lowerer) elts(n *sitter.Node) pyast.Seq {
	kids := named(n)
	out := make(pyast.Seq, len(kids))
	for i, c := range kids {
		out[i] = l.expr(c)
	}
	return out
}

// boolOp flattens a left-nested chain of the same operator into one node.
func (l *lowerer) boolOp(n *sitter.Node) *pyast.Node {
	opText := n.ChildByFieldName("operator").Type()
	op := pyast.And
	if opText == "or" {
		op = pyast.Or
	}

	var rights []*sitter.Node
	cur := n
	for {
		rights = append(rights, cur.ChildByFieldName("right"))
		left := cur.ChildByFieldName("left")
		if left.Type() != "boolean_operator" || left.ChildByFieldName("operator").Type() != opText {
			rights = append(rights, left)
			break
		}
		cur = left
	}

	values := make(pyast.Seq, 0, len(rights))
	for i := len(rights) - 1; i >= 0; i-- {
		values = append(values, l.expr(rights[i]))
	}
	return pyast.New(pyast.BoolOp, pyast.New(op), values)
}

// compare reads operands and operator tokens in order. Two-word operators
// arrive either as one aliased token or as two tokens.
func (l *lowerer) compare(n *sitter.Node) *pyast.Node {
	var (
		left        *pyast.Node
		ops, rights = pyast.Seq{}, pyast.Seq{}
		pending     string
	)
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c.IsNamed() {
			if c.Type() == "comment" {
				continue
			}
			if pending != "" {
				ops = append(ops, pyast.New(compareOps[pending]))
				pending = ""
			}
			if left == nil {
				left = l.expr(c)
			} else {
				rights = append(rights, l.expr(c))
			}
			continue
		}
		if pending == "" {
			pending = c.Type()
		} else {
			pending += " " + c.Type()
		}
	}
	return pyast.New(pyast.Compare, left, ops, rights)
}

func (l *lowerer) call(n *sitter.Node) *pyast.Node {
	fn := l.expr(n.ChildByFieldName("function"))
	argNode := n.ChildByFieldName("arguments")
	if argNode.Type() == "generator_expression" {
		return pyast.New(pyast.Call, fn, pyast.Seq{l.expr(argNode)}, pyast.Seq{})
	}
	args, keywords := l.callArgs(argNode)
	return pyast.New(pyast.Call, fn, args, keywords)
}

// callArgs splits an argument_list into positional arguments and keywords.
func (l *lowerer) callArgs(n *sitter.Node) (pyast.Seq, pyast.Seq) {
	args, keywords := pyast.Seq{}, pyast.Seq{}
	for _, c := range named(n) {
		switch c.Type() {
		case "keyword_argument":
			keywords = append(keywords, pyast.New(pyast.Keyword,
				pyast.String(l.text(c.ChildByFieldName("name"))),
				l.expr(c.ChildByFieldName("value")),
			))
		case "dictionary_splat":
			keywords = append(keywords, pyast.New(pyast.Keyword, pyast.None, l.expr(named(c)[0])))
		default:
			args = append(args, l.expr(c))
		}
	}
	return args, keywords
}

func (l *lowerer) dict(n *sitter.Node) *pyast.Node {
	keys, values := pyast.Seq{}, pyast.Seq{}
	for _, c := range named(n) {
		switch c.Type() {
		case "pair":
			keys = append(keys, l.expr(c.ChildByFieldName("key")))
			values = append(values, l.expr(c.ChildByFieldName("value")))
		case "dictionary_splat":
			keys = append(keys, pyast.None)
			values = append(values, l.expr(named(c)[0]))
		}
	}
	return pyast.New(pyast.Dict, keys, values)
}

// generators lowers the for/if clauses of a comprehension. Each if clause
// belongs to the closest preceding for clause.
func (l *lowerer) generators(n *sitter.Node) pyast.Seq {
	out := pyast.Seq{}
	var last *pyast.Node
	for _, c := range named(n) {
		switch c.Type() {
		case "for_in_clause":
			isAsync := 0
			if hasToken(c, "async") {
				isAsync = 1
			}
			last = pyast.New(pyast.Comprehension,
				l.target(c.ChildByFieldName("left"), pyast.Store),
				l.comprehensionIter(c),
				pyast.Seq{},
				pyast.Int(isAsync),
			)
			out = append(out, last)
		case "if_clause":
			if last == nil {
				continue
			}
			ifs, _ := last.Field("ifs").(pyast.Seq)
			last.SetField("ifs", append(ifs, l.expr(named(c)[0])))
		}
	}
	return out
}

// comprehensionIter lowers the iterable of a for clause. Several
// comma-separated iterables form a tuple.
func (l *lowerer) comprehensionIter(c *sitter.Node) *pyast.Node {
	rights := fieldAll(c, "right")
	if len(rights) == 1 {
		return l.expr(rights[0])
	}
	elts := make([]*pyast.Node, len(rights))
	for i, r := range rights {
		elts[i] = l.expr(r)
	}
	return at(pyast.New(pyast.Tuple, nodes(elts), pyast.New(pyast.Load)), rights[0])
}

func (l *lowerer) yield(n *sitter.Node) *pyast.Node {
	kids := named(n)
	if hasToken(n, "from") {
		return pyast.New(pyast.YieldFrom, l.expr(kids[0]))
	}
	var value *pyast.Node
	if len(kids) > 0 {
		value = l.expr(kids[0])
	}
	return pyast.New(pyast.Yield, orNone(value))
}

// slice lowers the subscript list of n to Index, Slice or ExtSlice.
func (l *lowerer) slice(n *sitter.Node) *pyast.Node {
	subs := fieldAll(n, "subscript")
	if len(subs) == 1 {
		return l.dim(subs[0])
	}

	hasSlice := false
	for _, s := range subs {
		if s.Type() == "slice" {
			hasSlice = true
		}
	}
	if hasSlice {
		dims := make(pyast.Seq, len(subs))
		for i, s := range subs {
			dims[i] = l.dim(s)
		}
		return pyast.New(pyast.ExtSlice, dims)
	}
	elts := make([]*pyast.Node, len(subs))
	for i, s := range subs {
		elts[i] = l.expr(s)
	}
	return pyast.New(pyast.Index, at(pyast.New(pyast.Tuple, nodes(elts), pyast.New(pyast.Load)), subs[0]))
}

// dim lowers one subscript element. A slice's bounds are assigned by
// counting the colons that precede them.
func (l *lowerer) dim(n *sitter.Node) *pyast.Node {
	if n.Type() != "slice" {
		return pyast.New(pyast.Index, l.expr(n))
	}
	bounds := [3]pyast.Value{pyast.None, pyast.None, pyast.None}
	part := 0
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if !c.IsNamed() {
			if c.Type() == ":" {
				part++
			}
			continue
		}
		if c.Type() == "comment" || part > 2 {
			continue
		}
		bounds[part] = l.expr(c)
	}
	return pyast.New(pyast.Slice, bounds[0], bounds[1], bounds[2])
}
