package rule

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConditionExists(t *testing.T) {
	doc := mustLoad(t, `<root><a/></root>`)
	assert.True(t, Condition{Kind: ConditionExists, XPath: "//a"}.Satisfied(doc))
	assert.False(t, Condition{Kind: ConditionExists, XPath: "//b"}.Satisfied(doc))
}

func TestConditionAttributeEquals(t *testing.T) {
	doc := mustLoad(t, `<root><a type="x"/><a type="y"/></root>`)
	assert.True(t, Condition{Kind: ConditionAttributeEquals, XPath: "//a", Attribute: "type", Value: "y"}.Satisfied(doc))
	assert.False(t, Condition{Kind: ConditionAttributeEquals, XPath: "//a", Attribute: "type", Value: "z"}.Satisfied(doc))
}

func TestAllSatisfiedRequiresEvery(t *testing.T) {
	doc := mustLoad(t, `<root><a/></root>`)
	conds := []Condition{
		{Kind: ConditionExists, XPath: "//a"},
		{Kind: ConditionExists, XPath: "//missing"},
	}
	assert.False(t, AllSatisfied(conds, doc))
}
