package pyast

// Kind names a node type of the Python abstract grammar.
type Kind string

// Module and statements.
const (
	Module           Kind = "Module"
	FunctionDef      Kind = "FunctionDef"
	AsyncFunctionDef Kind = "AsyncFunctionDef"
	ClassDef         Kind = "ClassDef"
	Return           Kind = "Return"
	Delete           Kind = "Delete"
	Assign           Kind = "Assign"
	AugAssign        Kind = "AugAssign"
	AnnAssign        Kind = "AnnAssign"
	For              Kind = "For"
	AsyncFor         Kind = "AsyncFor"
	While            Kind = "While"
	If               Kind = "If"
	With             Kind = "With"
	AsyncWith        Kind = "AsyncWith"
	Raise            Kind = "Raise"
	Try              Kind = "Try"
	Assert           Kind = "Assert"
	Import           Kind = "Import"
	ImportFrom       Kind = "ImportFrom"
	Global           Kind = "Global"
	Nonlocal         Kind = "Nonlocal"
	Expr             Kind = "Expr"
	Pass             Kind = "Pass"
	Break            Kind = "Break"
	Continue         Kind = "Continue"
)

// Expressions.
const (
	BoolOp         Kind = "BoolOp"
	BinOp          Kind = "BinOp"
	UnaryOp        Kind = "UnaryOp"
	Lambda         Kind = "Lambda"
	IfExp          Kind = "IfExp"
	Dict           Kind = "Dict"
	Set            Kind = "Set"
	ListComp       Kind = "ListComp"
	SetComp        Kind = "SetComp"
	DictComp       Kind = "DictComp"
	GeneratorExp   Kind = "GeneratorExp"
	Await          Kind = "Await"
	Yield          Kind = "Yield"
	YieldFrom      Kind = "YieldFrom"
	Compare        Kind = "Compare"
	Call           Kind = "Call"
	Num            Kind = "Num"
	Str            Kind = "Str"
	FormattedValue Kind = "FormattedValue"
	JoinedStr      Kind = "JoinedStr"
	Bytes          Kind = "Bytes"
	NameConstant   Kind = "NameConstant"
	Ellipsis       Kind = "Ellipsis"
	Attribute      Kind = "Attribute"
	Subscript      Kind = "Subscript"
	Starred        Kind = "Starred"
	Name           Kind = "Name"
	List           Kind = "List"
	Tuple          Kind = "Tuple"
	NamedExpr      Kind = "NamedExpr"
)

// Slices, contexts, operators and helper nodes.
const (
	Slice    Kind = "Slice"
	ExtSlice Kind = "ExtSlice"
	Index    Kind = "Index"

	Load  Kind = "Load"
	Store Kind = "Store"
	Del   Kind = "Del"

	And Kind = "And"
	Or  Kind = "Or"

	Add      Kind = "Add"
	Sub      Kind = "Sub"
	Mult     Kind = "Mult"
	MatMult  Kind = "MatMult"
	Div      Kind = "Div"
	Mod      Kind = "Mod"
	Pow      Kind = "Pow"
	LShift   Kind = "LShift"
	RShift   Kind = "RShift"
	BitOr    Kind = "BitOr"
	BitXor   Kind = "BitXor"
	BitAnd   Kind = "BitAnd"
	FloorDiv Kind = "FloorDiv"

	Invert Kind = "Invert"
	Not    Kind = "Not"
	UAdd   Kind = "UAdd"
	USub   Kind = "USub"

	Eq    Kind = "Eq"
	NotEq Kind = "NotEq"
	Lt    Kind = "Lt"
	LtE   Kind = "LtE"
	Gt    Kind = "Gt"
	GtE   Kind = "GtE"
	Is    Kind = "Is"
	IsNot Kind = "IsNot"
	In    Kind = "In"
	NotIn Kind = "NotIn"

	Comprehension Kind = "comprehension"
	ExceptHandler Kind = "ExceptHandler"
	Arguments     Kind = "arguments"
	Arg           Kind = "arg"
	Keyword       Kind = "keyword"
	Alias         Kind = "alias"
	WithItem      Kind = "withitem"
)
