package rule

import (
	"regexp"
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

// Scenario 3 from spec.md §8: per-node validation.
func TestNodeValidationPerNodeStatuses(t *testing.T) {
	doc := mustLoad(t, `<root><Record n="0"/><Record n="-1"/><Record n="5"/></root>`)
	zero := value.Integer(0)
	r := &Rule{
		ID:   "node-n-nonneg",
		Kind: KindNodeValidation,
		NodeValidation: &NodeValidationRule{
			NodesXPath:          "//Record",
			NodeValueExpression: &expr.Expression{Op: expr.OpValue, XPath: "@n", DataType: expr.DataTypeInteger},
			Operator:            OpGte,
			Value:               &zero,
		},
	}

	o := RunRule(r, doc, "test.xml")
	assert.Equal(t, StatusFail, o.Status)
	require.Len(t, o.NodeResults, 3)
	assert.Equal(t, []Status{StatusPass, StatusFail, StatusPass}, []Status{o.NodeResults[0].Status, o.NodeResults[1].Status, o.NodeResults[2].Status})
	assert.Equal(t, []int{0, 1, 2}, []int{o.NodeResults[0].NodeIndex, o.NodeResults[1].NodeIndex, o.NodeResults[2].NodeIndex})
}

func TestNodeValidationEmptySelectionVacuouslyPasses(t *testing.T) {
	doc := mustLoad(t, `<root/>`)
	zero := value.Integer(0)
	r := &Rule{
		Kind: KindNodeValidation,
		NodeValidation: &NodeValidationRule{
			NodesXPath:          "//Record",
			NodeValueExpression: &expr.Expression{Op: expr.OpValue, XPath: "@n", DataType: expr.DataTypeInteger},
			Operator:            OpGte,
			Value:               &zero,
		},
	}
	o := RunRule(r, doc, "test.xml")
	assert.Equal(t, StatusPass, o.Status)
	assert.Empty(t, o.NodeResults)
}

func TestExistencePassAndFail(t *testing.T) {
	doc := mustLoad(t, `<root><a/></root>`)

	passRule := &Rule{Kind: KindExistence, Existence: &ExistenceRule{
		Expression: &expr.Expression{Op: expr.OpCount, XPath: "//a"},
	}}
	assert.Equal(t, StatusPass, RunRule(passRule, doc, "f").Status)

	failRule := &Rule{Kind: KindExistence, Existence: &ExistenceRule{
		Expression: &expr.Expression{Op: expr.OpCount, XPath: "//missing"},
	}}
	assert.Equal(t, StatusFail, RunRule(failRule, doc, "f").Status)
}

func TestPatternAnchoredVsUnanchored(t *testing.T) {
	doc := mustLoad(t, `<root><code>ABC123</code></root>`)
	valueExpr := &expr.Expression{Op: expr.OpValue, XPath: "//code"}

	substr := &Rule{Kind: KindPattern, Pattern: &PatternRule{
		Expression: valueExpr, Regexp: regexp.MustCompile(`\d+`), PatternText: `\d+`,
	}}
	assert.Equal(t, StatusPass, RunRule(substr, doc, "f").Status)

	anchored := &Rule{Kind: KindPattern, Pattern: &PatternRule{
		Expression: valueExpr, Regexp: regexp.MustCompile(`^\d+$`), PatternText: `^\d+$`,
	}}
	assert.Equal(t, StatusFail, RunRule(anchored, doc, "f").Status)
}

func TestRangeInclusiveBounds(t *testing.T) {
	doc := mustLoad(t, `<root><v>10</v></root>`)
	r := &Rule{Kind: KindRange, Range: &RangeRule{
		Expression: &expr.Expression{Op: expr.OpValue, XPath: "//v"},
		DataType:   expr.DataTypeInteger,
		MinValue:   value.Integer(10),
		MaxValue:   value.Integer(20),
	}}
	assert.Equal(t, StatusPass, RunRule(r, doc, "f").Status)
}

func TestComparisonMissingOnNullExpression(t *testing.T) {
	doc := mustLoad(t, `<root/>`)
	r := &Rule{Kind: KindComparison, Comparison: &ComparisonRule{
		Expression: &expr.Expression{Op: expr.OpValue, XPath: "//missing"},
		Operator:   OpEq,
		Value:      value.String("x"),
	}}
	assert.Equal(t, StatusMissing, RunRule(r, doc, "f").Status)
}

func TestComputedComparisonBetween(t *testing.T) {
	doc := mustLoad(t, `<root/>`)
	r := &Rule{Kind: KindComputedComparison, ComputedComparison: &ComputedComparisonRule{
		Operator:        OpBetween,
		LeftExpression:  expr.Literal(value.Integer(5)),
		LowerExpression: expr.Literal(value.Integer(1)),
		UpperExpression: expr.Literal(value.Integer(10)),
	}}
	assert.Equal(t, StatusPass, RunRule(r, doc, "f").Status)
}

func TestConditionSkipsRuleSilently(t *testing.T) {
	doc := mustLoad(t, `<root/>`)
	r := &Rule{
		ID:   "never-runs",
		Kind: KindExistence,
		Conditions: []Condition{
			{Kind: ConditionExists, XPath: "//never-present"},
		},
		Existence: &ExistenceRule{Expression: expr.Literal(value.Boolean(true))},
	}
	out := RunAll([]*Rule{r}, doc, "f", discardLogger())
	assert.Empty(t, out)
}

func TestRuleOrderPreserved(t *testing.T) {
	doc := mustLoad(t, `<root/>`)
	r1 := &Rule{ID: "a", Kind: KindExistence, Existence: &ExistenceRule{Expression: expr.Literal(value.Boolean(true))}}
	r2 := &Rule{ID: "b", Kind: KindExistence, Existence: &ExistenceRule{Expression: expr.Literal(value.Boolean(true))}}
	out := RunAll([]*Rule{r1, r2}, doc, "f", discardLogger())
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].RuleID)
	assert.Equal(t, "b", out[1].RuleID)
}
