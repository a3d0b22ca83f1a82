// Package eval implements the DSL's tree-walking evaluator: a recursive,
// context-threaded walk over dsl/expr.Expression that invokes
// internal/xpathservice for every xpath/xpathExpression occurrence and
// produces dsl/value.Value results. Dispatch on Expression.Op is a
// single closed switch (spec.md §9: "do not model expressions via
// subclassing").
package eval

import (
	"fmt"

	"github.com/xmlvalidate/xmlvalidate/dsl/expr"
	"github.com/xmlvalidate/xmlvalidate/dsl/value"
	"github.com/xmlvalidate/xmlvalidate/internal/xpathservice"
)

// Context threads the document root and current context node through the
// recursive walk. It is passed by value; map is the only operator that
// produces a new Context (with Node rebound), and it never mutates
// the Expression tree or any shared state.
type Context struct {
	Document xpathservice.Document
	Node     xpathservice.Node
}

// RootContext returns the evaluation context for doc, with Node
// defaulted to the document root.
func RootContext(doc xpathservice.Document) Context {
	return Context{Document: doc, Node: doc.Root()}
}

// WithNode returns a copy of c with its Node rebound to n.
func (c Context) WithNode(n xpathservice.Node) Context {
	return Context{Document: c.Document, Node: n}
}

// Error reports a failure evaluating one expression node. It carries the
// operator so the rule engine can render a diagnostic message without
// re-walking the tree.
type Error struct {
	Op  expr.Op
	Msg string
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

func fail(op expr.Op, msg string, err error) error {
	return &Error{Op: op, Msg: msg, Err: err}
}

// Evaluate recursively walks e under ctx and returns its Value.
func Evaluate(e *expr.Expression, ctx Context) (value.Value, error) {
	if e == nil {
		return value.Null, fail("", "nil expression", nil)
	}

	switch e.Op {
	case expr.OpLiteral:
		return e.LiteralValue, nil

	case expr.OpValue:
		return evalValue(e, ctx)

	case expr.OpCount:
		return evalCount(e, ctx)

	case expr.OpSum:
		return evalAggregate(e, ctx, false)

	case expr.OpAverage:
		return evalAggregate(e, ctx, true)

	case expr.OpAdd, expr.OpSubtract, expr.OpMultiply, expr.OpDivide:
		return evalArithmetic(e, ctx)

	case expr.OpConcat:
		return evalConcat(e, ctx)

	case expr.OpAnd:
		return evalAnd(e, ctx)

	case expr.OpOr:
		return evalOr(e, ctx)

	case expr.OpNot:
		return evalNot(e, ctx)

	case expr.OpIf:
		return evalIf(e, ctx)

	case expr.OpEq, expr.OpNeq:
		return evalEquality(e, ctx)

	case expr.OpGt, expr.OpLt, expr.OpGte, expr.OpLte:
		return evalRelational(e, ctx)

	case expr.OpMap:
		return evalMap(e, ctx)

	default:
		return value.Null, fail(e.Op, fmt.Sprintf("unknown operator %q", e.Op), nil)
	}
}

// resolveXPath implements the dynamic-XPath rule: if XPathExpression is
// present, evaluate it first (under the current context node) and the
// result must coerce to String; otherwise the static XPath is used as-is.
func resolveXPath(e *expr.Expression, ctx Context) (string, error) {
	if e.XPathExpression != nil {
		v, err := Evaluate(e.XPathExpression, ctx)
		if err != nil {
			return "", err
		}
		if v.Kind() != value.KindString {
			return "", fail(e.Op, "xpath_expression must evaluate to a string", nil)
		}
		return v.RawString(), nil
	}
	return e.XPath, nil
}

func runXPath(e *expr.Expression, ctx Context) (xpathservice.Result, error) {
	path, err := resolveXPath(e, ctx)
	if err != nil {
		return xpathservice.Result{}, err
	}
	res, err := xpathservice.Evaluate(ctx.Document, ctx.Node, path)
	if err != nil {
		return xpathservice.Result{}, fail(e.Op, "xpath evaluation failed", err)
	}
	return res, nil
}

func evalValue(e *expr.Expression, ctx Context) (value.Value, error) {
	res, err := runXPath(e, ctx)
	if err != nil {
		return value.Null, err
	}

	var raw string
	switch res.Kind {
	case xpathservice.ResultNodeSet:
		if len(res.Nodes) == 0 {
			return value.Null, nil
		}
		raw = res.Nodes[0].StringValue()
	case xpathservice.ResultString:
		raw = res.Str
	case xpathservice.ResultNumber:
		raw = value.ToString(value.Decimal(res.Num))
	case xpathservice.ResultBoolean:
		raw = value.ToString(value.Boolean(res.Boolean))
	}

	return coerceByDataType(e, raw)
}

func coerceByDataType(e *expr.Expression, raw string) (value.Value, error) {
	switch e.DataType {
	case expr.DataTypeInteger:
		i, err := value.ToInteger(value.String(raw))
		if err != nil {
			return value.Null, fail(e.Op, "coercing value to integer", err)
		}
		return value.Integer(i), nil
	case expr.DataTypeDecimal:
		f, err := value.ToDecimal(value.String(raw))
		if err != nil {
			return value.Null, fail(e.Op, "coercing value to decimal", err)
		}
		return value.Decimal(f), nil
	case expr.DataTypeDate:
		d, err := value.ToDate(value.String(raw))
		if err != nil {
			return value.Null, fail(e.Op, "coercing value to date", err)
		}
		return value.Date(d), nil
	default:
		return value.String(raw), nil
	}
}

func evalCount(e *expr.Expression, ctx Context) (value.Value, error) {
	res, err := runXPath(e, ctx)
	if err != nil {
		return value.Null, err
	}
	switch res.Kind {
	case xpathservice.ResultNodeSet:
		return value.Integer(int64(len(res.Nodes))), nil
	case xpathservice.ResultNumber:
		return value.Integer(int64(res.Num)), nil
	default:
		return value.Null, fail(e.Op, "count requires a node-set", nil)
	}
}

// numericOperands gathers the numeric value of every node an XPath
// selects, or the elements of an Array-producing single argument.
func numericOperands(e *expr.Expression, ctx Context) ([]float64, error) {
	if e.HasXPath() {
		res, err := runXPath(e, ctx)
		if err != nil {
			return nil, err
		}
		if res.Kind != xpathservice.ResultNodeSet {
			return nil, fail(e.Op, "expected a node-set", nil)
		}
		out := make([]float64, len(res.Nodes))
		for i, n := range res.Nodes {
			f, err := value.ToDecimal(value.String(n.StringValue()))
			if err != nil {
				return nil, fail(e.Op, "non-numeric node text", err)
			}
			out[i] = f
		}
		return out, nil
	}

	if len(e.Args) != 1 {
		return nil, fail(e.Op, "requires an xpath or a single array argument", nil)
	}
	arr, err := Evaluate(e.Args[0], ctx)
	if err != nil {
		return nil, err
	}
	if arr.Kind() != value.KindArray {
		return nil, fail(e.Op, "argument must evaluate to an array", nil)
	}
	out := make([]float64, len(arr.Elements()))
	for i, el := range arr.Elements() {
		f, err := value.ToDecimal(el)
		if err != nil {
			return nil, fail(e.Op, "non-numeric array element", err)
		}
		out[i] = f
	}
	return out, nil
}

func evalAggregate(e *expr.Expression, ctx Context, average bool) (value.Value, error) {
	nums, err := numericOperands(e, ctx)
	if err != nil {
		return value.Null, err
	}
	if len(nums) == 0 {
		if average {
			return value.Null, fail(e.Op, "average of an empty selection is a division by zero", nil)
		}
		return value.Decimal(0), nil
	}
	var total float64
	for _, n := range nums {
		total += n
	}
	if average {
		return value.Decimal(total / float64(len(nums))), nil
	}
	return value.Decimal(total), nil
}

func evalArithmetic(e *expr.Expression, ctx Context) (value.Value, error) {
	if len(e.Args) != 2 {
		return value.Null, fail(e.Op, "requires exactly two arguments", nil)
	}
	a, err := Evaluate(e.Args[0], ctx)
	if err != nil {
		return value.Null, err
	}
	b, err := Evaluate(e.Args[1], ctx)
	if err != nil {
		return value.Null, err
	}

	bothInteger := a.Kind() == value.KindInteger && b.Kind() == value.KindInteger

	af, err := value.ToDecimal(a)
	if err != nil {
		return value.Null, fail(e.Op, "left operand is not numeric", err)
	}
	bf, err := value.ToDecimal(b)
	if err != nil {
		return value.Null, fail(e.Op, "right operand is not numeric", err)
	}

	var result float64
	switch e.Op {
	case expr.OpAdd:
		result = af + bf
	case expr.OpSubtract:
		result = af - bf
	case expr.OpMultiply:
		result = af * bf
	case expr.OpDivide:
		if bf == 0 {
			return value.Null, fail(e.Op, "division by zero", nil)
		}
		result = af / bf
		return value.Decimal(result), nil
	}

	if bothInteger {
		return value.Integer(int64(result)), nil
	}
	return value.Decimal(result), nil
}

func evalConcat(e *expr.Expression, ctx Context) (value.Value, error) {
	var sb []byte
	for _, a := range e.Args {
		v, err := Evaluate(a, ctx)
		if err != nil {
			return value.Null, err
		}
		sb = append(sb, value.ToString(v)...)
	}
	return value.String(string(sb)), nil
}

func evalAnd(e *expr.Expression, ctx Context) (value.Value, error) {
	for _, a := range e.Args {
		v, err := Evaluate(a, ctx)
		if err != nil {
			return value.Null, err
		}
		if !value.Truthiness(v) {
			return value.Boolean(false), nil
		}
	}
	return value.Boolean(true), nil
}

func evalOr(e *expr.Expression, ctx Context) (value.Value, error) {
	for _, a := range e.Args {
		v, err := Evaluate(a, ctx)
		if err != nil {
			return value.Null, err
		}
		if value.Truthiness(v) {
			return value.Boolean(true), nil
		}
	}
	return value.Boolean(false), nil
}

func evalNot(e *expr.Expression, ctx Context) (value.Value, error) {
	if len(e.Args) != 1 {
		return value.Null, fail(e.Op, "requires exactly one argument", nil)
	}
	v, err := Evaluate(e.Args[0], ctx)
	if err != nil {
		return value.Null, err
	}
	return value.Boolean(!value.Truthiness(v)), nil
}

func evalIf(e *expr.Expression, ctx Context) (value.Value, error) {
	if len(e.Args) != 3 {
		return value.Null, fail(e.Op, "requires exactly three arguments (cond, then, else)", nil)
	}
	cond, err := Evaluate(e.Args[0], ctx)
	if err != nil {
		return value.Null, err
	}
	if value.Truthiness(cond) {
		return Evaluate(e.Args[1], ctx)
	}
	return Evaluate(e.Args[2], ctx)
}

func evalEquality(e *expr.Expression, ctx Context) (value.Value, error) {
	if len(e.Args) != 2 {
		return value.Null, fail(e.Op, "requires exactly two arguments", nil)
	}
	a, err := Evaluate(e.Args[0], ctx)
	if err != nil {
		return value.Null, err
	}
	b, err := Evaluate(e.Args[1], ctx)
	if err != nil {
		return value.Null, err
	}
	eq := value.Equal(a, b)
	if e.Op == expr.OpNeq {
		eq = !eq
	}
	return value.Boolean(eq), nil
}

func evalRelational(e *expr.Expression, ctx Context) (value.Value, error) {
	if len(e.Args) != 2 {
		return value.Null, fail(e.Op, "requires exactly two arguments", nil)
	}
	a, err := Evaluate(e.Args[0], ctx)
	if err != nil {
		return value.Null, err
	}
	b, err := Evaluate(e.Args[1], ctx)
	if err != nil {
		return value.Null, err
	}
	cmp, err := value.Compare(a, b)
	if err != nil {
		return value.Null, fail(e.Op, "operands are not comparable", err)
	}
	switch e.Op {
	case expr.OpGt:
		return value.Boolean(cmp > 0), nil
	case expr.OpLt:
		return value.Boolean(cmp < 0), nil
	case expr.OpGte:
		return value.Boolean(cmp >= 0), nil
	case expr.OpLte:
		return value.Boolean(cmp <= 0), nil
	default:
		return value.Null, fail(e.Op, "unreachable relational operator", nil)
	}
}

func evalMap(e *expr.Expression, ctx Context) (value.Value, error) {
	if e.InnerExpression == nil {
		return value.Null, fail(e.Op, "map requires an inner_expression", nil)
	}
	res, err := runXPath(e, ctx)
	if err != nil {
		return value.Null, err
	}
	if res.Kind != xpathservice.ResultNodeSet {
		return value.Null, fail(e.Op, "map requires an xpath selecting a node-set", nil)
	}

	out := make([]value.Value, len(res.Nodes))
	for i, n := range res.Nodes {
		nodeCtx := ctx.WithNode(n)
		v, err := Evaluate(e.InnerExpression, nodeCtx)
		if err != nil {
			return value.Null, err
		}
		out[i] = v
	}
	return value.Array(out), nil
}
