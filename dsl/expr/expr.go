// Package expr defines the DSL's expression tree: a closed set of 21
// operator tags over immutable nodes. Dispatch on Op is a closed
// function (see dsl/eval), not subclassing — the AST itself carries no
// evaluation behavior.
package expr

import "github.com/xmlvalidate/xmlvalidate/dsl/value"

// Op identifies one of the DSL's 21 operators.
type Op string

const (
	OpLiteral  Op = "literal"
	OpValue    Op = "value"
	OpCount    Op = "count"
	OpSum      Op = "sum"
	OpAverage  Op = "average"
	OpAdd      Op = "add"
	OpSubtract Op = "subtract"
	OpMultiply Op = "multiply"
	OpDivide   Op = "divide"
	OpConcat   Op = "concat"
	OpAnd      Op = "and"
	OpOr       Op = "or"
	OpNot      Op = "not"
	OpIf       Op = "if"
	OpEq       Op = "=="
	OpNeq      Op = "!="
	OpGt       Op = ">"
	OpLt       Op = "<"
	OpGte      Op = ">="
	OpLte      Op = "<="
	OpMap      Op = "map"
)

// DataType is a coercion hint attached to value/range/expressions where
// the DSL or loader needs to know a target scalar kind ahead of time.
type DataType string

const (
	DataTypeString  DataType = "string"
	DataTypeInteger DataType = "integer"
	DataTypeDecimal DataType = "decimal"
	DataTypeDate    DataType = "date"
)

// Expression is an immutable AST node. Only the fields relevant to Op are
// populated; the loader (rule/ruleloader) is responsible for rejecting any
// other combination before an Expression is ever constructed.
type Expression struct {
	Op Op

	// Args holds the ordered operand list for add/subtract/multiply/
	// divide/concat/and/or/not/if/==/!=/>/< />=/<=, and optionally sum/
	// average (when the array-producing form is used instead of XPath).
	Args []*Expression

	// XPath is a static XPath string. Mutually exclusive with
	// XPathExpression; exactly one is required wherever an XPath is
	// needed (value, count, sum, average, map).
	XPath string

	// XPathExpression is a child expression evaluated to a String and
	// used in place of XPath (dynamic XPath construction).
	XPathExpression *Expression

	// InnerExpression is map's per-node body, evaluated with the
	// context node rebound to each node XPath selects.
	InnerExpression *Expression

	// LiteralValue holds the literal op's constant value.
	LiteralValue value.Value

	// DataType is an optional coercion hint used by "value".
	DataType DataType
}

// Literal constructs a literal expression.
func Literal(v value.Value) *Expression {
	return &Expression{Op: OpLiteral, LiteralValue: v}
}

// HasXPath reports whether e carries a static or dynamic XPath.
func (e *Expression) HasXPath() bool {
	return e != nil && (e.XPath != "" || e.XPathExpression != nil)
}
