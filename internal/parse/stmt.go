package parse

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/bonsai/internal/pyast"
)

var statementTypes = map[string]bool{
	"expression_statement":    true,
	"return_statement":        true,
	"delete_statement":        true,
	"pass_statement":          true,
	"break_statement":         true,
	"continue_statement":      true,
	"raise_statement":         true,
	"global_statement":        true,
	"nonlocal_statement":      true,
	"assert_statement":        true,
	"import_statement":        true,
	"import_from_statement":   true,
	"future_import_statement": true,
	"if_statement":            true,
	"for_statement":           true,
	"while_statement":         true,
	"try_statement":           true,
	"with_statement":          true,
	"function_definition":     true,
	"class_definition":        true,
	"decorated_definition":    true,
	"print_statement":         true,
	"exec_statement":          true,
	"match_statement":         true,
	"type_alias_statement":    true,
}

func isStatement(typ string) bool { return statementTypes[typ] }

// stmts lowers the statements of a module or block.
func (l *lowerer) stmts(n *sitter.Node) pyast.Seq {
	kids := named(n)
	out := make(pyast.Seq, 0, len(kids))
	for _, c := range kids {
		out = append(out, l.stmt(c))
	}
	return out
}

// body lowers the block stored under field, or an empty list.
func (l *lowerer) body(n *sitter.Node, field string) pyast.Seq {
	if b := n.ChildByFieldName(field); b != nil {
		return l.stmts(b)
	}
	return pyast.Seq{}
}

func (l *lowerer) stmt(n *sitter.Node) *pyast.Node {
	var out *pyast.Node
	switch n.Type() {
	case "expression_statement":
		out = l.exprStatement(n)
	case "return_statement":
		var value *pyast.Node
		if kids := named(n); len(kids) > 0 {
			value = l.expr(kids[0])
		}
		out = pyast.New(pyast.Return, orNone(value))
	case "delete_statement":
		out = pyast.New(pyast.Delete, l.deleteTargets(n))
	case "pass_statement":
		out = pyast.New(pyast.Pass)
	case "break_statement":
		out = pyast.New(pyast.Break)
	case "continue_statement":
		out = pyast.New(pyast.Continue)
	case "raise_statement":
		out = l.raise(n)
	case "global_statement", "nonlocal_statement":
		kind := pyast.Global
		if n.Type() == "nonlocal_statement" {
			kind = pyast.Nonlocal
		}
		names := pyast.Seq{}
		for _, c := range named(n) {
			names = append(names, pyast.String(l.text(c)))
		}
		out = pyast.New(kind, names)
	case "assert_statement":
		kids := named(n)
		var msg *pyast.Node
		if len(kids) > 1 {
			msg = l.expr(kids[1])
		}
		out = pyast.New(pyast.Assert, l.expr(kids[0]), orNone(msg))
	case "import_statement":
		out = pyast.New(pyast.Import, l.aliases(fieldAll(n, "name")))
	case "import_from_statement":
		out = l.importFrom(n)
	case "future_import_statement":
		out = pyast.New(pyast.ImportFrom, pyast.String("__future__"), l.aliases(fieldAll(n, "name")), pyast.Int(0))
	case "if_statement":
		out = l.ifStatement(n)
	case "for_statement":
		kind := pyast.For
		if hasToken(n, "async") {
			kind = pyast.AsyncFor
		}
		out = pyast.New(kind,
			l.target(n.ChildByFieldName("left"), pyast.Store),
			l.expr(n.ChildByFieldName("right")),
			l.body(n, "body"),
			l.orelse(n),
		)
	case "while_statement":
		out = pyast.New(pyast.While, l.expr(n.ChildByFieldName("condition")), l.body(n, "body"), l.orelse(n))
	case "try_statement":
		out = l.try(n)
	case "with_statement":
		out = l.with(n)
	case "function_definition":
		out = l.functionDef(n)
	case "class_definition":
		out = l.classDef(n)
	case "decorated_definition":
		out = l.decorated(n)
	default:
		return l.fallback(n)
	}
	return at(out, n)
}

func (l *lowerer) exprStatement(n *sitter.Node) *pyast.Node {
	kids := named(n)
	if len(kids) == 1 {
		switch kids[0].Type() {
		case "assignment":
			return l.assignment(kids[0])
		case "augmented_assignment":
			return l.augAssign(kids[0])
		}
		return pyast.New(pyast.Expr, l.expr(kids[0]))
	}
	elts := make([]*pyast.Node, len(kids))
	for i, c := range kids {
		elts[i] = l.expr(c)
	}
	return pyast.New(pyast.Expr, at(pyast.New(pyast.Tuple, nodes(elts), pyast.New(pyast.Load)), n))
}

// assignment handles plain, chained and annotated assignments.
func (l *lowerer) assignment(n *sitter.Node) *pyast.Node {
	left := n.ChildByFieldName("left")
	if typ := n.ChildByFieldName("type"); typ != nil {
		var value *pyast.Node
		if right := n.ChildByFieldName("right"); right != nil {
			value = l.expr(right)
		}
		simple := 0
		if left.Type() == "identifier" {
			simple = 1
		}
		return pyast.New(pyast.AnnAssign, l.target(left, pyast.Store), l.expr(typ), orNone(value), pyast.Int(simple))
	}

	var targets []*pyast.Node
	cur := n
	for {
		targets = append(targets, l.target(cur.ChildByFieldName("left"), pyast.Store))
		right := cur.ChildByFieldName("right")
		if right != nil && right.Type() == "assignment" && right.ChildByFieldName("type") == nil {
			cur = right
			continue
		}
		return pyast.New(pyast.Assign, nodes(targets), l.expr(right))
	}
}

func (l *lowerer) augAssign(n *sitter.Node) *pyast.Node {
	op := strings.TrimSuffix(n.ChildByFieldName("operator").Type(), "=")
	return pyast.New(pyast.AugAssign,
		l.target(n.ChildByFieldName("left"), pyast.Store),
		pyast.New(binaryOps[op]),
		l.expr(n.ChildByFieldName("right")),
	)
}

func (l *lowerer) deleteTargets(n *sitter.Node) pyast.Seq {
	kids := named(n)
	if len(kids) == 1 && kids[0].Type() == "expression_list" {
		kids = named(kids[0])
	}
	out := make(pyast.Seq, len(kids))
	for i, c := range kids {
		out[i] = l.target(c, pyast.Del)
	}
	return out
}

func (l *lowerer) raise(n *sitter.Node) *pyast.Node {
	cause := n.ChildByFieldName("cause")
	var exc, causeNode *pyast.Node
	for _, c := range named(n) {
		if cause != nil && c.StartByte() == cause.StartByte() {
			continue
		}
		exc = l.expr(c)
		break
	}
	if cause != nil {
		causeNode = l.expr(cause)
	}
	return pyast.New(pyast.Raise, orNone(exc), orNone(causeNode))
}

// aliases lowers dotted_name and aliased_import nodes.
func (l *lowerer) aliases(ns []*sitter.Node) pyast.Seq {
	out := make(pyast.Seq, 0, len(ns))
	for _, c := range ns {
		if c.Type() == "aliased_import" {
			out = append(out, pyast.New(pyast.Alias,
				pyast.String(l.text(c.ChildByFieldName("name"))),
				pyast.String(l.text(c.ChildByFieldName("alias"))),
			))
			continue
		}
		out = append(out, pyast.New(pyast.Alias, pyast.String(l.text(c)), pyast.None))
	}
	return out
}

func (l *lowerer) importFrom(n *sitter.Node) *pyast.Node {
	var module pyast.Value = pyast.None
	level := 0
	if m := n.ChildByFieldName("module_name"); m != nil {
		if m.Type() == "relative_import" {
			for _, c := range named(m) {
				switch c.Type() {
				case "import_prefix":
					level = strings.Count(l.text(c), ".")
				case "dotted_name":
					module = pyast.String(l.text(c))
				}
			}
		} else {
			module = pyast.String(l.text(m))
		}
	}

	names := l.aliases(fieldAll(n, "name"))
	for _, c := range named(n) {
		if c.Type() == "wildcard_import" {
			names = append(names, pyast.New(pyast.Alias, pyast.String("*"), pyast.None))
		}
	}
	return pyast.New(pyast.ImportFrom, module, names, pyast.Int(level))
}

// ifStatement folds elif clauses into nested If nodes in orelse.
func (l *lowerer) ifStatement(n *sitter.Node) *pyast.Node {
	orelse := pyast.Seq{}
	alts := fieldAll(n, "alternative")
	for i := len(alts) - 1; i >= 0; i-- {
		alt := alts[i]
		switch alt.Type() {
		case "else_clause":
			orelse = l.body(alt, "body")
		case "elif_clause":
			elif := at(pyast.New(pyast.If,
				l.expr(alt.ChildByFieldName("condition")),
				l.body(alt, "consequence"),
				orelse,
			), alt)
			orelse = pyast.Seq{elif}
		}
	}
	return pyast.New(pyast.If, l.expr(n.ChildByFieldName("condition")), l.body(n, "consequence"), orelse)
}

// orelse lowers the else clause of a loop.
func (l *lowerer) orelse(n *sitter.Node) pyast.Seq {
	if alt := n.ChildByFieldName("alternative"); alt != nil {
		return l.body(alt, "body")
	}
	return pyast.Seq{}
}

func (l *lowerer) try(n *sitter.Node) *pyast.Node {
	handlers, orelse, final := pyast.Seq{}, pyast.Seq{}, pyast.Seq{}
	for _, c := range named(n) {
		switch c.Type() {
		case "except_clause", "except_group_clause":
			handlers = append(handlers, l.handler(c))
		case "else_clause":
			orelse = l.body(c, "body")
		case "finally_clause":
			for _, b := range named(c) {
				if b.Type() == "block" {
					final = l.stmts(b)
				}
			}
		}
	}
	return pyast.New(pyast.Try, l.body(n, "body"), handlers, orelse, final)
}

// handler lowers both `except E as e` spellings: an as_pattern child, or
// the type and name as sibling expressions.
func (l *lowerer) handler(n *sitter.Node) *pyast.Node {
	var (
		typ   *pyast.Node
		exprs []*sitter.Node
	)
	name, body := pyast.Value(pyast.None), pyast.Seq{}
	for _, c := range named(n) {
		if c.Type() == "block" {
			body = l.stmts(c)
			continue
		}
		exprs = append(exprs, c)
	}
	if len(exprs) > 0 {
		first := exprs[0]
		if first.Type() == "as_pattern" {
			kids := named(first)
			typ = l.expr(kids[0])
			if alias := first.ChildByFieldName("alias"); alias != nil {
				name = pyast.String(l.text(alias))
			}
		} else {
			typ = l.expr(first)
			if len(exprs) > 1 {
				name = pyast.String(l.text(exprs[1]))
			}
		}
	}
	return at(pyast.New(pyast.ExceptHandler, orNone(typ), name, body), n)
}

func (l *lowerer) with(n *sitter.Node) *pyast.Node {
	kind := pyast.With
	if hasToken(n, "async") {
		kind = pyast.AsyncWith
	}
	items := pyast.Seq{}
	for _, c := range named(n) {
		if c.Type() != "with_clause" {
			continue
		}
		for _, item := range named(c) {
			if item.Type() == "with_item" {
				items = append(items, l.withItem(item))
			}
		}
	}
	return pyast.New(kind, items, l.body(n, "body"))
}

func (l *lowerer) withItem(n *sitter.Node) *pyast.Node {
	value := n.ChildByFieldName("value")
	if value == nil {
		value = named(n)[0]
	}
	var vars pyast.Value = pyast.None
	switch {
	case value.Type() == "as_pattern":
		kids := named(value)
		if alias := value.ChildByFieldName("alias"); alias != nil {
			vars = l.asTarget(alias)
		}
		value = kids[0]
	case n.ChildByFieldName("alias") != nil:
		vars = l.target(n.ChildByFieldName("alias"), pyast.Store)
	}
	return pyast.New(pyast.WithItem, l.expr(value), vars)
}

// asTarget lowers the target of an as clause in Store context. The
// as_pattern_target wrapper either holds the expression or is itself the
// identifier.
func (l *lowerer) asTarget(n *sitter.Node) *pyast.Node {
	if n.Type() == "as_pattern_target" {
		kids := named(n)
		if len(kids) == 0 {
			return at(pyast.New(pyast.Name, pyast.String(l.text(n)), pyast.New(pyast.Store)), n)
		}
		n = kids[0]
	}
	return l.target(n, pyast.Store)
}

func (l *lowerer) functionDef(n *sitter.Node) *pyast.Node {
	kind := pyast.FunctionDef
	if hasToken(n, "async") {
		kind = pyast.AsyncFunctionDef
	}
	var returns *pyast.Node
	if r := n.ChildByFieldName("return_type"); r != nil {
		returns = l.expr(r)
	}
	return pyast.New(kind,
		pyast.String(l.text(n.ChildByFieldName("name"))),
		l.arguments(n.ChildByFieldName("parameters")),
		l.defBody(n),
		pyast.Seq{},
		orNone(returns),
	)
}

func (l *lowerer) classDef(n *sitter.Node) *pyast.Node {
	bases, keywords := pyast.Seq{}, pyast.Seq{}
	if sup := n.ChildByFieldName("superclasses"); sup != nil {
		bases, keywords = l.callArgs(sup)
	}
	return pyast.New(pyast.ClassDef,
		pyast.String(l.text(n.ChildByFieldName("name"))),
		bases,
		keywords,
		l.defBody(n),
		pyast.Seq{},
	)
}

// defBody lowers the body of a definition. The definition schema has no
// slot for type parameters, so a bracketed parameter list leads the body as
// a generic TypeParameter node.
func (l *lowerer) defBody(n *sitter.Node) pyast.Seq {
	body := l.body(n, "body")
	tp := n.ChildByFieldName("type_parameters")
	if tp == nil {
		return body
	}
	return append(pyast.Seq{l.fallback(tp)}, body...)
}

// decorated lowers the wrapped definition and attaches its decorators.
func (l *lowerer) decorated(n *sitter.Node) *pyast.Node {
	def := l.stmt(n.ChildByFieldName("definition"))
	decorators := pyast.Seq{}
	for _, c := range named(n) {
		if c.Type() != "decorator" {
			continue
		}
		if kids := named(c); len(kids) > 0 {
			decorators = append(decorators, l.expr(kids[0]))
		}
	}
	def.SetField("decorator_list", decorators)
	return def
}

// arguments lowers parameters or lambda_parameters. A nil node yields an
// empty argument list.
func (l *lowerer) arguments(n *sitter.Node) *pyast.Node {
	args, kwonly, kwDefaults, defaults := pyast.Seq{}, pyast.Seq{}, pyast.Seq{}, pyast.Seq{}
	var vararg, kwarg pyast.Value = pyast.None, pyast.None
	if n == nil {
		return pyast.New(pyast.Arguments, args, vararg, kwonly, kwDefaults, kwarg, defaults)
	}

	afterStar := false
	add := func(a *pyast.Node, def *pyast.Node) {
		if afterStar {
			kwonly = append(kwonly, a)
			kwDefaults = append(kwDefaults, orNone(def))
			return
		}
		args = append(args, a)
		if def != nil {
			defaults = append(defaults, def)
		}
	}

	for _, c := range named(n) {
		switch c.Type() {
		case "identifier":
			add(l.arg(c, nil), nil)
		case "default_parameter":
			add(l.arg(c.ChildByFieldName("name"), nil), l.expr(c.ChildByFieldName("value")))
		case "typed_default_parameter":
			add(l.arg(c.ChildByFieldName("name"), c.ChildByFieldName("type")), l.expr(c.ChildByFieldName("value")))
		case "typed_parameter":
			inner := named(c)[0]
			typ := c.ChildByFieldName("type")
			switch inner.Type() {
			case "list_splat_pattern":
				vararg = l.arg(named(inner)[0], typ)
				afterStar = true
			case "dictionary_splat_pattern":
				kwarg = l.arg(named(inner)[0], typ)
			default:
				add(l.arg(inner, typ), nil)
			}
		case "list_splat_pattern":
			vararg = l.arg(named(c)[0], nil)
			afterStar = true
		case "dictionary_splat_pattern":
			kwarg = l.arg(named(c)[0], nil)
		case "keyword_separator":
			afterStar = true
		}
	}
	return pyast.New(pyast.Arguments, args, vararg, kwonly, kwDefaults, kwarg, defaults)
}

func (l *lowerer) arg(name, typ *sitter.Node) *pyast.Node {
	var annotation *pyast.Node
	if typ != nil {
		annotation = l.expr(typ)
	}
	return at(pyast.New(pyast.Arg, pyast.String(l.text(name)), orNone(annotation)), name)
}
