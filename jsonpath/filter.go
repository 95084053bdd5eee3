package jsonpath

// LogicalKind tags the variant of a FilterExpr -- the logical expression
// tree spec §3 describes: "comparison... logical not/and/or; test
// expressions... function calls".
type LogicalKind int

const (
	LogNot LogicalKind = iota
	LogAnd
	LogOr
	LogCompare
	LogTest // existence of a query, or a function call returning LogicalType
)

// CompareOp is one of the six RFC 9535 §2.3.5.2 comparison operators.
type CompareOp int

const (
	OpEQ CompareOp = iota
	OpNE
	OpLT
	OpLE
	OpGT
	OpGE
)

// FilterExpr is a node in the compiled filter-expression tree.
type FilterExpr struct {
	Kind LogicalKind

	// LogNot
	Operand *FilterExpr
	// LogAnd / LogOr
	Left, Right *FilterExpr

	// LogCompare
	Op          CompareOp
	CompareL    *Comparable
	CompareR    *Comparable

	// LogTest
	Test *Comparable // Query or Func, evaluated for existence/truthiness
}

// ComparableKind tags a Comparable's variant.
type ComparableKind int

const (
	CompLiteral ComparableKind = iota
	CompQuery
	CompFunc
)

// Comparable is an operand of a comparison, or the subject of a test
// expression: a literal, a query (relative `@` or absolute `$`), or a
// function call.
type Comparable struct {
	Kind ComparableKind

	Literal *Value

	QueryRoot bool // true: $, false: @
	Query     []Segment

	Func *FuncCall
}

// FuncCall is a compiled call to one of the built-in filter functions.
type FuncCall struct {
	Name string
	Args []*Comparable
	// ReturnType is fixed per function name (length/value -> ValueType,
	// count -> NodesType is the *argument* type, the call itself returns
	// ValueType; match/search -> LogicalType).
	ReturnType ExprType
}
