// Package rule implements the rule engine (spec.md §4.E): six rule kinds
// built on dsl/eval, each producing outcomes for a single XML document. A
// closed Kind variant drives one switch per rule, per spec.md §9
// ("dynamic dispatch on rule kind ... a single match statement").
package rule

import (
	"regexp"

	"github.com/xmlvalidate/xmlvalidate/dsl/expr"
	"github.com/xmlvalidate/xmlvalidate/dsl/value"
)

// Severity is the operator-facing importance of a rule.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Kind identifies one of the six rule kinds spec.md §4.E defines.
type Kind string

const (
	KindExistence          Kind = "existence"
	KindPattern            Kind = "pattern"
	KindRange              Kind = "range"
	KindComparison         Kind = "comparison"
	KindComputedComparison Kind = "computedComparison"
	KindNodeValidation     Kind = "nodeValidation"
)

// ComparisonOp is one of the six relational/equality operators the
// comparison, computedComparison, and nodeValidation kinds use.
type ComparisonOp string

const (
	OpEq  ComparisonOp = "=="
	OpNeq ComparisonOp = "!="
	OpGt  ComparisonOp = ">"
	OpLt  ComparisonOp = "<"
	OpGte ComparisonOp = ">="
	OpLte ComparisonOp = "<="
	// OpBetween is only valid for computedComparison.
	OpBetween ComparisonOp = "between"
)

// Rule is a single validation rule, built once at load time and treated
// as read-only for the remainder of the run (spec.md §3 Lifecycle).
// Exactly one of the kind-specific fields is populated, matching Kind.
type Rule struct {
	ID          string
	Description string
	Kind        Kind
	Severity    Severity
	Conditions  []Condition

	Existence          *ExistenceRule
	Pattern            *PatternRule
	Range              *RangeRule
	Comparison         *ComparisonRule
	ComputedComparison *ComputedComparisonRule
	NodeValidation     *NodeValidationRule
}

// ExistenceRule: pass iff Expression's truthiness is true.
type ExistenceRule struct {
	Expression *expr.Expression
}

// PatternRule: pass iff the compiled Regexp finds a match in Expression's
// string coercion. Anchoring is only applied if the source pattern text
// carried explicit ^ / $ — Go's regexp package already gives that
// behavior for free (an unanchored pattern matches a substring).
type PatternRule struct {
	Expression  *expr.Expression
	Regexp      *regexp.Regexp
	PatternText string
}

// RangeRule: pass iff MinValue <= coerce(Expression, DataType) <= MaxValue,
// inclusive, using chronological ordering for Date.
type RangeRule struct {
	Expression *expr.Expression
	DataType   expr.DataType
	MinValue   value.Value
	MaxValue   value.Value
}

// ComparisonRule: pass iff Operator(Expression, Value) holds. Operator is
// one of the six relational/equality operators (never between).
type ComparisonRule struct {
	Expression *expr.Expression
	Operator   ComparisonOp
	Value      value.Value
}

// ComputedComparisonRule: for the six relational/equality operators,
// compares LeftExpression against RightExpression. For between, requires
// LowerExpression <= LeftExpression <= UpperExpression (inclusive).
type ComputedComparisonRule struct {
	Operator        ComparisonOp
	LeftExpression  *expr.Expression
	RightExpression *expr.Expression
	LowerExpression *expr.Expression
	UpperExpression *expr.Expression
}

// NodeValidationRule: selects a node-set via NodesXPath, and for each
// node (rebinding context) evaluates NodeValueExpression and compares it
// against either the literal Value or ExpectedValueExpression's result
// (evaluated with the same rebound context), applying Operator.
type NodeValidationRule struct {
	NodesXPath              string
	NodeValueExpression     *expr.Expression
	Operator                ComparisonOp
	Value                   *value.Value
	ExpectedValueExpression *expr.Expression
}
