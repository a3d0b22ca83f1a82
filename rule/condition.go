package rule

import (
	"github.com/xmlvalidate/xmlvalidate/internal/xpathservice"
)

// ConditionKind distinguishes the two condition variants spec.md §3 names.
type ConditionKind string

const (
	ConditionExists          ConditionKind = "exists"
	ConditionAttributeEquals ConditionKind = "attributeEquals"
)

// Condition gates whether a Rule runs at all. A Rule runs only if every
// one of its Conditions holds against the document, evaluated with root
// context; conditions that error during evaluation are treated as not
// satisfied (spec.md §7), so the rule is silently skipped rather than
// reported as a failure.
type Condition struct {
	Kind      ConditionKind
	XPath     string
	Attribute string // ConditionAttributeEquals only
	Value     string // ConditionAttributeEquals only
}

// Satisfied evaluates c against doc's root context.
func (c Condition) Satisfied(doc xpathservice.Document) bool {
	switch c.Kind {
	case ConditionExists:
		res, err := xpathservice.Evaluate(doc, doc.Root(), c.XPath)
		if err != nil {
			return false
		}
		return res.Kind == xpathservice.ResultNodeSet && len(res.Nodes) > 0
	case ConditionAttributeEquals:
		res, err := xpathservice.Evaluate(doc, doc.Root(), c.XPath)
		if err != nil || res.Kind != xpathservice.ResultNodeSet {
			return false
		}
		for _, n := range res.Nodes {
			attrRes, err := xpathservice.Evaluate(doc, n, "@"+c.Attribute)
			if err != nil || attrRes.Kind != xpathservice.ResultNodeSet || len(attrRes.Nodes) == 0 {
				continue
			}
			if attrRes.Nodes[0].StringValue() == c.Value {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// AllSatisfied reports whether every condition in conds holds against doc.
func AllSatisfied(conds []Condition, doc xpathservice.Document) bool {
	for _, c := range conds {
		if !c.Satisfied(doc) {
			return false
		}
	}
	return true
}
