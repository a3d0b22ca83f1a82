package rule

import "github.com/xmlvalidate/xmlvalidate/dsl/value"

// Status is a simple rule's or node result's pass/fail/missing verdict.
type Status string

const (
	StatusPass    Status = "pass"
	StatusFail    Status = "fail"
	StatusMissing Status = "missing"
)

// Outcome is the record produced for one rule on one file (spec.md §3).
// NodeResults is only populated for nodeValidation; Overall status for
// that kind is pass iff every per-node status is pass.
type Outcome struct {
	RuleID        string
	FilePath      string
	Status        Status
	ReturnedValue value.Value
	ExpectedValue *value.Value
	Message       string
	Severity      Severity
	NodeResults   []NodeResult
}

// NodeResult is one node's outcome within a nodeValidation rule.
type NodeResult struct {
	NodeIndex     int
	NodeXPath     string
	ActualValue   value.Value
	ExpectedValue value.Value
	Status        Status
	Message       string
}

// overallNodeStatus folds NodeResults into the rule-level status: pass
// iff every per-node status is pass, fail otherwise. It never returns
// missing, even when a node's own status is missing; an empty selection
// has no node results and so yields pass.
func overallNodeStatus(results []NodeResult) Status {
	for _, r := range results {
		if r.Status != StatusPass {
			return StatusFail
		}
	}
	return StatusPass
}
