package rule

import (
	"fmt"

	"github.com/pkg/errors"
)

// LoadError reports a malformed rule document; fatal to the load (spec.md
// §7.1). The rule document loader (rule/ruleloader) never produces
// partial results once one of these occurs.
type LoadError struct {
	RuleID string // may be empty if the error predates a specific rule
	Msg    string
	Cause  error
}

func (e *LoadError) Error() string {
	if e.RuleID != "" {
		return fmt.Sprintf("load rule %q: %s", e.RuleID, e.Msg)
	}
	return fmt.Sprintf("load rule document: %s", e.Msg)
}

func (e *LoadError) Unwrap() error { return e.Cause }

// NewLoadError wraps cause (which may be nil) with msg, preserving a
// pkg/errors stack so load failures can be traced back to their origin
// the way open-policy-agent/gatekeeper wraps driver/OPA errors.
func NewLoadError(ruleID, msg string, cause error) *LoadError {
	if cause != nil {
		cause = errors.Wrap(cause, msg)
	}
	return &LoadError{RuleID: ruleID, Msg: msg, Cause: cause}
}

// EvaluationError reports an evaluator failure recovered locally into a
// rule outcome with status fail (spec.md §7.2): XPath syntax, unknown op,
// coercion failure, divide-by-zero, or regex compile failure.
type EvaluationError struct {
	RuleID string
	Cause  error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("rule %q: evaluation failed: %v", e.RuleID, e.Cause)
}

func (e *EvaluationError) Unwrap() error { return e.Cause }

// MissingDataError reports an XPath that was required to return at least
// one node but returned none (spec.md §7.3); surfaces as status missing
// rather than fail, so operators can distinguish absent data from
// incorrect data.
type MissingDataError struct {
	RuleID string
	Detail string
}

func (e *MissingDataError) Error() string {
	return fmt.Sprintf("rule %q: missing data: %s", e.RuleID, e.Detail)
}

// ConfigMismatchError reports a rule document referring to an unknown
// operator or a field combination invalid for its rule kind; always
// caught at load time as a LoadError (spec.md §7.4).
type ConfigMismatchError struct {
	RuleID string
	Detail string
}

func (e *ConfigMismatchError) Error() string {
	return fmt.Sprintf("rule %q: config mismatch: %s", e.RuleID, e.Detail)
}
