package ruleloader

import (
	"fmt"

	"github.com/xmlvalidate/xmlvalidate/dsl/expr"
	"github.com/xmlvalidate/xmlvalidate/dsl/value"
)

// buildExpression compiles a generic expression node into a dsl/expr
// Expression, enforcing spec.md §3's invariant that each op permits only
// the fields listed in §4.D (xpath and xpath_expression are mutually
// exclusive wherever either is allowed).
func buildExpression(raw any) (*expr.Expression, error) {
	m, ok := asMap(raw)
	if !ok {
		// A bare JSON scalar used where an Expression is expected is
		// treated as an implicit literal.
		return expr.Literal(inferLiteral(raw)), nil
	}

	opStr, err := requireString(m, "expression", "op")
	if err != nil {
		return nil, err
	}
	op := expr.Op(opStr)

	xpathStr, _ := field(m, "xpath")
	xpathExprRaw, hasXPathExpr := field(m, "xpath_expression", "xpathExpression")
	if xpathStr != nil && hasXPathExpr {
		return nil, fmt.Errorf("op %q: xpath and xpath_expression are mutually exclusive", op)
	}

	e := &expr.Expression{Op: op}

	if xpathStr != nil {
		s, ok := asString(xpathStr)
		if !ok {
			return nil, fmt.Errorf("op %q: xpath must be a string", op)
		}
		e.XPath = s
	}
	if hasXPathExpr {
		inner, err := buildExpression(xpathExprRaw)
		if err != nil {
			return nil, err
		}
		e.XPathExpression = inner
	}

	if dtRaw, ok := field(m, "data_type", "dataType"); ok {
		dtStr, ok := asString(dtRaw)
		if !ok {
			return nil, fmt.Errorf("op %q: data_type must be a string", op)
		}
		dt, err := parseDataType(dtStr)
		if err != nil {
			return nil, fmt.Errorf("op %q: %v", op, err)
		}
		e.DataType = dt
	}

	if litRaw, ok := field(m, "literal_value", "literalValue"); ok {
		e.LiteralValue = inferLiteral(litRaw)
	}

	if argsRaw, ok := field(m, "args"); ok {
		argsSlice, ok := asSlice(argsRaw)
		if !ok {
			return nil, fmt.Errorf("op %q: args must be an array", op)
		}
		for _, a := range argsSlice {
			ae, err := buildExpression(a)
			if err != nil {
				return nil, err
			}
			e.Args = append(e.Args, ae)
		}
	}

	if innerRaw, ok := field(m, "inner_expression", "innerExpression"); ok {
		inner, err := buildExpression(innerRaw)
		if err != nil {
			return nil, err
		}
		e.InnerExpression = inner
	}

	if err := validateOpShape(e); err != nil {
		return nil, err
	}

	return e, nil
}

// validateOpShape enforces the field combination each op permits,
// rejecting any other combination per spec.md §3 — e.g. a "not" with two
// args, or a "map" with no inner_expression.
func validateOpShape(e *expr.Expression) error {
	needArgs := func(n int) error {
		if len(e.Args) != n {
			return fmt.Errorf("op %q requires exactly %d args, got %d", e.Op, n, len(e.Args))
		}
		return nil
	}
	needXPath := func() error {
		if !e.HasXPath() {
			return fmt.Errorf("op %q requires xpath or xpath_expression", e.Op)
		}
		return nil
	}

	switch e.Op {
	case expr.OpLiteral:
		// literal_value only; nothing else required.
		return nil
	case expr.OpValue:
		return needXPath()
	case expr.OpCount:
		return needXPath()
	case expr.OpSum, expr.OpAverage:
		if e.HasXPath() {
			return nil
		}
		return needArgs(1)
	case expr.OpAdd, expr.OpSubtract, expr.OpMultiply, expr.OpDivide,
		expr.OpEq, expr.OpNeq, expr.OpGt, expr.OpLt, expr.OpGte, expr.OpLte:
		return needArgs(2)
	case expr.OpConcat, expr.OpAnd, expr.OpOr:
		if len(e.Args) == 0 {
			return fmt.Errorf("op %q requires at least one arg", e.Op)
		}
		return nil
	case expr.OpNot:
		return needArgs(1)
	case expr.OpIf:
		return needArgs(3)
	case expr.OpMap:
		if err := needXPath(); err != nil {
			return err
		}
		if e.InnerExpression == nil {
			return fmt.Errorf("op \"map\" requires inner_expression")
		}
		return nil
	default:
		return fmt.Errorf("unknown operator %q", e.Op)
	}
}

func parseDataType(s string) (expr.DataType, error) {
	switch expr.DataType(s) {
	case expr.DataTypeString, expr.DataTypeInteger, expr.DataTypeDecimal, expr.DataTypeDate:
		return expr.DataType(s), nil
	default:
		return "", fmt.Errorf("unknown data_type %q", s)
	}
}

// inferLiteral converts a decoded JSON/YAML scalar into a dsl/value
// Value: string, bool, number (int or float), nil -> Null, or a nested
// array of literals.
func inferLiteral(v any) value.Value {
	switch t := v.(type) {
	case nil:
		return value.Null
	case string:
		return value.String(t)
	case bool:
		return value.Boolean(t)
	case int:
		return value.Integer(int64(t))
	case int64:
		return value.Integer(t)
	case float64:
		if t == float64(int64(t)) {
			return value.Integer(int64(t))
		}
		return value.Decimal(t)
	case []any:
		elems := make([]value.Value, len(t))
		for i, e := range t {
			elems[i] = inferLiteral(e)
		}
		return value.Array(elems)
	default:
		return value.Null
	}
}
