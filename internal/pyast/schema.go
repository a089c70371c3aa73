package pyast

// Field describes one slot of a node's ordered field list.
//
// An Optional field may be absent from a node. Once an absent field has been
// seen, every following field is formatted keyword-style as {name: value}.
// A Keyword field is always formatted keyword-style.
type Field struct {
	Name     string
	Optional bool
	Keyword  bool
}

// fallbackSchema applies to kinds the grammar table does not know, such as
// constructs lowered generically by the frontend.
var fallbackSchema = []Field{
	{Name: "value", Optional: true},
	{Name: "body", Keyword: true},
}

func fields(names ...string) []Field {
	out := make([]Field, len(names))
	for i, n := range names {
		out[i] = Field{Name: n}
	}
	return out
}

var schemas = map[Kind][]Field{
	Module: fields("body"),

	FunctionDef:      fields("name", "args", "body", "decorator_list", "returns"),
	AsyncFunctionDef: fields("name", "args", "body", "decorator_list", "returns"),
	ClassDef:         fields("name", "bases", "keywords", "body", "decorator_list"),
	Return:           fields("value"),
	Delete:           fields("targets"),
	Assign:           fields("targets", "value"),
	AugAssign:        fields("target", "op", "value"),
	AnnAssign:        fields("target", "annotation", "value", "simple"),
	For:              fields("target", "iter", "body", "orelse"),
	AsyncFor:         fields("target", "iter", "body", "orelse"),
	While:            fields("test", "body", "orelse"),
	If:               fields("test", "body", "orelse"),
	With:             fields("items", "body"),
	AsyncWith:        fields("items", "body"),
	Raise:            fields("exc", "cause"),
	Try:              fields("body", "handlers", "orelse", "finalbody"),
	Assert:           fields("test", "msg"),
	Import:           fields("names"),
	ImportFrom:       fields("module", "names", "level"),
	Global:           fields("names"),
	Nonlocal:         fields("names"),
	Expr:             fields("value"),
	Pass:             nil,
	Break:            nil,
	Continue:         nil,

	BoolOp:         fields("op", "values"),
	BinOp:          fields("left", "op", "right"),
	UnaryOp:        fields("op", "operand"),
	Lambda:         fields("args", "body"),
	IfExp:          fields("test", "body", "orelse"),
	Dict:           fields("keys", "values"),
	Set:            fields("elts"),
	ListComp:       fields("elt", "generators"),
	SetComp:        fields("elt", "generators"),
	DictComp:       fields("key", "value", "generators"),
	GeneratorExp:   fields("elt", "generators"),
	Await:          fields("value"),
	Yield:          fields("value"),
	YieldFrom:      fields("value"),
	Compare:        fields("left", "ops", "comparators"),
	Call:           fields("func", "args", "keywords"),
	Num:            fields("n"),
	Str:            fields("s"),
	FormattedValue: fields("value", "conversion", "format_spec"),
	JoinedStr:      fields("values"),
	Bytes:          fields("s"),
	NameConstant:   fields("value"),
	Ellipsis:       nil,
	Attribute:      fields("value", "attr", "ctx"),
	Subscript:      fields("value", "slice", "ctx"),
	Starred:        fields("value", "ctx"),
	Name:           fields("id", "ctx"),
	List:           fields("elts", "ctx"),
	Tuple:          fields("elts", "ctx"),
	NamedExpr:      fields("target", "value"),

	Slice:    fields("lower", "upper", "step"),
	ExtSlice: fields("dims"),
	Index:    fields("value"),

	Comprehension: fields("target", "iter", "ifs", "is_async"),
	ExceptHandler: fields("type", "name", "body"),
	Arguments:     fields("args", "vararg", "kwonlyargs", "kw_defaults", "kwarg", "defaults"),
	Arg:           fields("arg", "annotation"),
	Keyword:       fields("arg", "value"),
	Alias:         fields("name", "asname"),
	WithItem:      fields("context_expr", "optional_vars"),
}

// field-less kinds: contexts and operators.
func init() {
	for _, k := range []Kind{
		Load, Store, Del, And, Or,
		Add, Sub, Mult, MatMult, Div, Mod, Pow, LShift, RShift, BitOr, BitXor, BitAnd, FloorDiv,
		Invert, Not, UAdd, USub,
		Eq, NotEq, Lt, LtE, Gt, GtE, Is, IsNot, In, NotIn,
	} {
		schemas[k] = nil
	}
}

// Schema returns the ordered field list for kind.
func Schema(kind Kind) []Field {
	if s, ok := schemas[kind]; ok {
		return s
	}
	return fallbackSchema
}

// Known reports whether kind belongs to the grammar table.
func Known(kind Kind) bool {
	_, ok := schemas[kind]
	return ok
}

func fieldIndex(kind Kind, name string) int {
	for i, f := range Schema(kind) {
		if f.Name == name {
			return i
		}
	}
	return -1
}
