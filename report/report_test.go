package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xmlvalidate/xmlvalidate/dsl/value"
	"github.com/xmlvalidate/xmlvalidate/rule"
)

func TestBuildCountingLaw(t *testing.T) {
	b := NewBuilder("rules.json")
	b.Add("a.xml", []rule.Outcome{
		{RuleID: "r1", Status: rule.StatusPass},
		{RuleID: "r2", Status: rule.StatusFail},
	})
	b.Add("b.xml", []rule.Outcome{
		{RuleID: "r1", Status: rule.StatusMissing},
	})

	rep := b.Build(time.Time{})
	assert.Equal(t, 3, rep.Summary.Total)
	assert.Equal(t, rep.Summary.Total, rep.Summary.Passed+rep.Summary.Failed+rep.Summary.Missing)
	assert.Equal(t, 1, rep.Summary.Passed)
	assert.Equal(t, 1, rep.Summary.Failed)
	assert.Equal(t, 1, rep.Summary.Missing)
	assert.NotEmpty(t, rep.Metadata.RunID)
	assert.Equal(t, []string{"a.xml", "b.xml"}, rep.Metadata.Files)
}

func TestNodeValidationContributesExactlyOneResult(t *testing.T) {
	b := NewBuilder("")
	b.Add("a.xml", []rule.Outcome{
		{
			RuleID: "per-node",
			Status: rule.StatusFail,
			NodeResults: []rule.NodeResult{
				{NodeIndex: 0, Status: rule.StatusPass},
				{NodeIndex: 1, Status: rule.StatusFail},
				{NodeIndex: 2, Status: rule.StatusPass},
			},
		},
	})
	rep := b.Build(time.Time{})
	assert.Equal(t, 1, rep.Summary.Total)
	require.Len(t, rep.Results, 1)
	assert.Len(t, rep.Results[0].NodeResults, 3)
}

func TestRenderProducesValidJSON(t *testing.T) {
	b := NewBuilder("rules.json")
	expected := value.String("x")
	b.Add("a.xml", []rule.Outcome{
		{RuleID: "r1", Status: rule.StatusFail, ReturnedValue: value.Integer(5), ExpectedValue: &expected},
	})
	rep := b.Build(time.Now())
	out, err := Render(rep)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"ruleId": "r1"`)
	assert.Contains(t, string(out), `"returnedValue": 5`)
	assert.Contains(t, string(out), `"expectedValue": "x"`)
}

func TestValueToJSONPreservesArrayShape(t *testing.T) {
	arr := value.Array([]value.Value{value.Integer(1), value.String("a")})
	got := valueToJSON(arr)
	assert.Equal(t, []any{int64(1), "a"}, got)
}
