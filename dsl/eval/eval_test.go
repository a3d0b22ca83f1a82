package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xmlvalidate/xmlvalidate/dsl/expr"
	"github.com/xmlvalidate/xmlvalidate/dsl/value"
	"github.com/xmlvalidate/xmlvalidate/internal/xpathservice"
)

func mustLoad(t *testing.T, xml string) xpathservice.Document {
	t.Helper()
	doc, err := xpathservice.LoadBytes("", []byte(xml))
	require.NoError(t, err)
	return doc
}

// Scenario 1 from spec.md §8: aggregation with map.
func TestAggregationWithMap(t *testing.T) {
	doc := mustLoad(t, `<root><Item quantity="3" price="100"/><Item quantity="2" price="150"/></root>`)
	ctx := RootContext(doc)

	inner := &expr.Expression{
		Op: expr.OpMultiply,
		Args: []*expr.Expression{
			{Op: expr.OpValue, XPath: "@quantity", DataType: expr.DataTypeDecimal},
			{Op: expr.OpValue, XPath: "@price", DataType: expr.DataTypeDecimal},
		},
	}
	mapExpr := &expr.Expression{Op: expr.OpMap, XPath: "//Item", InnerExpression: inner}
	sumExpr := &expr.Expression{Op: expr.OpSum, Args: []*expr.Expression{mapExpr}}

	v, err := Evaluate(sumExpr, ctx)
	require.NoError(t, err)
	assert.Equal(t, value.KindDecimal, v.Kind())
	assert.Equal(t, 600.0, v.RawDecimal())
}

// Scenario 2 from spec.md §8: dynamic XPath built via concat(value(...)).
func TestDynamicXPath(t *testing.T) {
	doc := mustLoad(t, `<root category="A"><Item type="A"/><Item type="A"/><Item type="B"/></root>`)
	ctx := RootContext(doc)

	dynamicXPath := &expr.Expression{
		Op: expr.OpConcat,
		Args: []*expr.Expression{
			expr.Literal(value.String("//Item[@type='")),
			{Op: expr.OpValue, XPath: "/root/@category"},
			expr.Literal(value.String("']")),
		},
	}
	countExpr := &expr.Expression{Op: expr.OpCount, XPathExpression: dynamicXPath}

	v, err := Evaluate(countExpr, ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v.RawInteger())
}

func TestMapPreservesDocumentOrderAndLength(t *testing.T) {
	doc := mustLoad(t, `<root><n v="1"/><n v="2"/><n v="3"/></root>`)
	ctx := RootContext(doc)

	mapExpr := &expr.Expression{
		Op:              expr.OpMap,
		XPath:           "//n",
		InnerExpression: &expr.Expression{Op: expr.OpValue, XPath: "@v", DataType: expr.DataTypeInteger},
	}
	v, err := Evaluate(mapExpr, ctx)
	require.NoError(t, err)
	require.Equal(t, value.KindArray, v.Kind())
	require.Len(t, v.Elements(), 3)
	for i, want := range []int64{1, 2, 3} {
		assert.Equal(t, want, v.Elements()[i].RawInteger())
	}
}

func TestValueNoMatchIsNull(t *testing.T) {
	doc := mustLoad(t, `<root/>`)
	ctx := RootContext(doc)
	v, err := Evaluate(&expr.Expression{Op: expr.OpValue, XPath: "//missing"}, ctx)
	require.NoError(t, err)
	assert.True(t, v.IsNull())
}

func TestCountEmptySelection(t *testing.T) {
	doc := mustLoad(t, `<root/>`)
	ctx := RootContext(doc)
	v, err := Evaluate(&expr.Expression{Op: expr.OpCount, XPath: "//missing"}, ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), v.RawInteger())
}

func TestSumEmptySelectionIsZero(t *testing.T) {
	doc := mustLoad(t, `<root/>`)
	ctx := RootContext(doc)
	v, err := Evaluate(&expr.Expression{Op: expr.OpSum, XPath: "//missing"}, ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.0, v.RawDecimal())
}

func TestAverageEmptySelectionFails(t *testing.T) {
	doc := mustLoad(t, `<root/>`)
	ctx := RootContext(doc)
	_, err := Evaluate(&expr.Expression{Op: expr.OpAverage, XPath: "//missing"}, ctx)
	require.Error(t, err)
}

func TestDivideByZeroFails(t *testing.T) {
	doc := mustLoad(t, `<root/>`)
	ctx := RootContext(doc)
	_, err := Evaluate(&expr.Expression{
		Op: expr.OpDivide,
		Args: []*expr.Expression{
			expr.Literal(value.Integer(10)),
			expr.Literal(value.Integer(0)),
		},
	}, ctx)
	require.Error(t, err)
}

func TestIfLazyEvaluation(t *testing.T) {
	doc := mustLoad(t, `<root/>`)
	ctx := RootContext(doc)

	// The else branch divides by zero; it must not be evaluated when cond is true.
	ifExpr := &expr.Expression{
		Op: expr.OpIf,
		Args: []*expr.Expression{
			expr.Literal(value.Boolean(true)),
			expr.Literal(value.String("then")),
			{Op: expr.OpDivide, Args: []*expr.Expression{expr.Literal(value.Integer(1)), expr.Literal(value.Integer(0))}},
		},
	}
	v, err := Evaluate(ifExpr, ctx)
	require.NoError(t, err)
	assert.Equal(t, "then", v.RawString())
}

func TestAndOrShortCircuit(t *testing.T) {
	doc := mustLoad(t, `<root/>`)
	ctx := RootContext(doc)

	boom := &expr.Expression{Op: expr.OpDivide, Args: []*expr.Expression{expr.Literal(value.Integer(1)), expr.Literal(value.Integer(0))}}

	orExpr := &expr.Expression{Op: expr.OpOr, Args: []*expr.Expression{expr.Literal(value.Boolean(true)), boom}}
	v, err := Evaluate(orExpr, ctx)
	require.NoError(t, err)
	assert.True(t, v.RawBoolean())

	andExpr := &expr.Expression{Op: expr.OpAnd, Args: []*expr.Expression{expr.Literal(value.Boolean(false)), boom}}
	v, err = Evaluate(andExpr, ctx)
	require.NoError(t, err)
	assert.False(t, v.RawBoolean())
}

func TestRelationalRejectsNonOrderable(t *testing.T) {
	doc := mustLoad(t, `<root/>`)
	ctx := RootContext(doc)
	_, err := Evaluate(&expr.Expression{
		Op:   expr.OpGt,
		Args: []*expr.Expression{expr.Literal(value.Boolean(true)), expr.Literal(value.Boolean(false))},
	}, ctx)
	require.Error(t, err)
}

func TestDeterminism(t *testing.T) {
	doc := mustLoad(t, `<root><Item quantity="3" price="100"/></root>`)
	e := &expr.Expression{
		Op: expr.OpMultiply,
		Args: []*expr.Expression{
			{Op: expr.OpValue, XPath: "//Item/@quantity", DataType: expr.DataTypeDecimal},
			{Op: expr.OpValue, XPath: "//Item/@price", DataType: expr.DataTypeDecimal},
		},
	}
	v1, err := Evaluate(e, RootContext(doc))
	require.NoError(t, err)
	v2, err := Evaluate(e, RootContext(doc))
	require.NoError(t, err)
	assert.Equal(t, v1.RawDecimal(), v2.RawDecimal())
}
