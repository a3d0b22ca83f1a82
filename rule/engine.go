package rule

import (
	"errors"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/xmlvalidate/xmlvalidate/dsl/eval"
	"github.com/xmlvalidate/xmlvalidate/dsl/expr"
	"github.com/xmlvalidate/xmlvalidate/dsl/value"
	"github.com/xmlvalidate/xmlvalidate/internal/applog"
	"github.com/xmlvalidate/xmlvalidate/internal/xpathservice"
)

// truthySentinel is the expected-value placeholder existence outcomes
// carry, since existence has no literal expected value of its own.
var truthySentinel = value.String("truthy")

// RunAll evaluates every rule in rules against doc, in rule-document
// order (spec.md §5 ordering guarantee). A rule whose conditions do not
// all hold is skipped and contributes no Outcome. Pass logr.Discard()
// for log when no sink is wired up.
func RunAll(rules []*Rule, doc xpathservice.Document, filePath string, log logr.Logger) []Outcome {
	out := make([]Outcome, 0, len(rules))
	for _, r := range rules {
		if !AllSatisfied(r.Conditions, doc) {
			log.V(applog.DebugLevel).Info("rule skipped: condition not satisfied",
				applog.RuleID, r.ID, applog.RuleKind, string(r.Kind), applog.File, filePath)
			continue
		}
		o := RunRule(r, doc, filePath)
		kv := []any{applog.RuleID, r.ID, applog.RuleKind, string(r.Kind), applog.File, filePath, applog.Status, string(o.Status)}
		if op := primaryOp(r); op != "" {
			kv = append(kv, applog.Op, string(op))
		}
		if o.Status != StatusPass && o.Message != "" {
			kv = append(kv, applog.Cause, o.Message)
		}
		log.V(applog.DebugLevel).Info("rule evaluated", kv...)
		out = append(out, o)
	}
	return out
}

// primaryOp returns the top-level operator of r's main expression, for
// log correlation (spec.md's "op" log key) — the single expression most
// representative of what the rule evaluates, not every operator in its
// tree.
func primaryOp(r *Rule) expr.Op {
	switch r.Kind {
	case KindExistence:
		return r.Existence.Expression.Op
	case KindPattern:
		return r.Pattern.Expression.Op
	case KindRange:
		return r.Range.Expression.Op
	case KindComparison:
		return r.Comparison.Expression.Op
	case KindComputedComparison:
		return r.ComputedComparison.LeftExpression.Op
	case KindNodeValidation:
		return r.NodeValidation.NodeValueExpression.Op
	default:
		return ""
	}
}

// statusForError classifies err into the outcome status it implies,
// using errors.As to distinguish a MissingDataError (status missing)
// from every other evaluation failure (status fail), per spec.md §7.2/
// §7.3. Callers construct the typed error first (wrapEvalError /
// missingData) so this dispatch is real rather than string-matching.
func statusForError(err error) (Status, string) {
	var missing *MissingDataError
	if errors.As(err, &missing) {
		return StatusMissing, missing.Error()
	}
	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		return StatusFail, evalErr.Error()
	}
	return StatusFail, err.Error()
}

// wrapEvalError wraps a raw dsl/eval error as an EvaluationError carrying
// the failing rule's id, so statusForError's errors.As dispatch has a
// typed error to match against instead of a bare error value.
func wrapEvalError(ruleID string, err error) error {
	return &EvaluationError{RuleID: ruleID, Cause: err}
}

// missingData builds the typed error statusForError recognizes as
// status missing: an expression that needed a concrete value but its
// xpath selected no node.
func missingData(ruleID, detail string) error {
	return &MissingDataError{RuleID: ruleID, Detail: detail}
}

// RunRule evaluates a single rule against doc. It never panics or
// propagates an evaluator error: every failure mode becomes a status on
// the returned Outcome (spec.md §4.E "one failing rule never aborts the
// engine").
func RunRule(r *Rule, doc xpathservice.Document, filePath string) Outcome {
	base := Outcome{RuleID: r.ID, FilePath: filePath, Severity: r.Severity}

	switch r.Kind {
	case KindExistence:
		return runExistence(r, doc, base)
	case KindPattern:
		return runPattern(r, doc, base)
	case KindRange:
		return runRange(r, doc, base)
	case KindComparison:
		return runComparison(r, doc, base)
	case KindComputedComparison:
		return runComputedComparison(r, doc, base)
	case KindNodeValidation:
		return runNodeValidation(r, doc, base)
	default:
		base.Status = StatusFail
		base.Message = fmt.Sprintf("unknown rule kind %q", r.Kind)
		return base
	}
}

func runExistence(r *Rule, doc xpathservice.Document, o Outcome) Outcome {
	v, err := eval.Evaluate(r.Existence.Expression, eval.RootContext(doc))
	expected := truthySentinel
	o.ExpectedValue = &expected
	if err != nil {
		o.Status, o.Message = statusForError(wrapEvalError(r.ID, err))
		return o
	}
	o.ReturnedValue = v
	if value.Truthiness(v) {
		o.Status = StatusPass
	} else {
		o.Status = StatusFail
		o.Message = "expression is not truthy"
	}
	return o
}

func runPattern(r *Rule, doc xpathservice.Document, o Outcome) Outcome {
	v, err := eval.Evaluate(r.Pattern.Expression, eval.RootContext(doc))
	expected := value.String(r.Pattern.PatternText)
	o.ExpectedValue = &expected
	if err != nil {
		o.Status, o.Message = statusForError(wrapEvalError(r.ID, err))
		return o
	}
	o.ReturnedValue = v
	s := value.ToString(v)
	if r.Pattern.Regexp.FindStringIndex(s) != nil {
		o.Status = StatusPass
	} else {
		o.Status = StatusFail
		o.Message = fmt.Sprintf("%q does not match pattern %q", s, r.Pattern.PatternText)
	}
	return o
}

func runRange(r *Rule, doc xpathservice.Document, o Outcome) Outcome {
	v, err := eval.Evaluate(r.Range.Expression, eval.RootContext(doc))
	if err != nil {
		o.Status, o.Message = statusForError(wrapEvalError(r.ID, err))
		return o
	}
	if v.IsNull() {
		o.Status, o.Message = statusForError(missingData(r.ID, "expression required a value, xpath returned no node"))
		return o
	}
	coerced, err := coerceToDataType(v, r.Range.DataType)
	if err != nil {
		o.Status, o.Message = statusForError(wrapEvalError(r.ID, err))
		return o
	}
	o.ReturnedValue = coerced

	lowOK, err := value.Compare(r.Range.MinValue, coerced)
	if err != nil {
		o.Status, o.Message = statusForError(wrapEvalError(r.ID, err))
		return o
	}
	highOK, err := value.Compare(coerced, r.Range.MaxValue)
	if err != nil {
		o.Status, o.Message = statusForError(wrapEvalError(r.ID, err))
		return o
	}
	if lowOK <= 0 && highOK <= 0 {
		o.Status = StatusPass
	} else {
		o.Status = StatusFail
		o.Message = fmt.Sprintf("%s is outside [%s, %s]", value.ToString(coerced), value.ToString(r.Range.MinValue), value.ToString(r.Range.MaxValue))
	}
	return o
}

func runComparison(r *Rule, doc xpathservice.Document, o Outcome) Outcome {
	v, err := eval.Evaluate(r.Comparison.Expression, eval.RootContext(doc))
	expected := r.Comparison.Value
	o.ExpectedValue = &expected
	if err != nil {
		o.Status, o.Message = statusForError(wrapEvalError(r.ID, err))
		return o
	}
	if v.IsNull() {
		o.Status, o.Message = statusForError(missingData(r.ID, "expression required a value, xpath returned no node"))
		return o
	}
	o.ReturnedValue = v

	ok, err := applyOperator(r.Comparison.Operator, v, r.Comparison.Value)
	if err != nil {
		o.Status, o.Message = statusForError(wrapEvalError(r.ID, err))
		return o
	}
	if ok {
		o.Status = StatusPass
	} else {
		o.Status = StatusFail
		o.Message = fmt.Sprintf("%s %s %s is false", value.ToString(v), r.Comparison.Operator, value.ToString(r.Comparison.Value))
	}
	return o
}

func runComputedComparison(r *Rule, doc xpathservice.Document, o Outcome) Outcome {
	cc := r.ComputedComparison
	ctx := eval.RootContext(doc)

	if cc.Operator == OpBetween {
		left, err := eval.Evaluate(cc.LeftExpression, ctx)
		if err != nil {
			o.Status, o.Message = statusForError(wrapEvalError(r.ID, err))
			return o
		}
		lower, err := eval.Evaluate(cc.LowerExpression, ctx)
		if err != nil {
			o.Status, o.Message = statusForError(wrapEvalError(r.ID, err))
			return o
		}
		upper, err := eval.Evaluate(cc.UpperExpression, ctx)
		if err != nil {
			o.Status, o.Message = statusForError(wrapEvalError(r.ID, err))
			return o
		}
		if left.IsNull() || lower.IsNull() || upper.IsNull() {
			o.Status, o.Message = statusForError(missingData(r.ID, "between requires a value for left, lower, and upper"))
			return o
		}
		o.ReturnedValue = left
		lowOK, err := value.Compare(lower, left)
		if err != nil {
			o.Status, o.Message = statusForError(wrapEvalError(r.ID, err))
			return o
		}
		highOK, err := value.Compare(left, upper)
		if err != nil {
			o.Status, o.Message = statusForError(wrapEvalError(r.ID, err))
			return o
		}
		if lowOK <= 0 && highOK <= 0 {
			o.Status = StatusPass
		} else {
			o.Status = StatusFail
			o.Message = fmt.Sprintf("%s is not between %s and %s", value.ToString(left), value.ToString(lower), value.ToString(upper))
		}
		return o
	}

	left, err := eval.Evaluate(cc.LeftExpression, ctx)
	if err != nil {
		o.Status, o.Message = statusForError(wrapEvalError(r.ID, err))
		return o
	}
	right, err := eval.Evaluate(cc.RightExpression, ctx)
	if err != nil {
		o.Status, o.Message = statusForError(wrapEvalError(r.ID, err))
		return o
	}
	if left.IsNull() || right.IsNull() {
		o.Status, o.Message = statusForError(missingData(r.ID, "comparison requires a value on both sides"))
		return o
	}
	o.ReturnedValue = left
	o.ExpectedValue = &right

	ok, err := applyOperator(cc.Operator, left, right)
	if err != nil {
		o.Status, o.Message = statusForError(wrapEvalError(r.ID, err))
		return o
	}
	if ok {
		o.Status = StatusPass
	} else {
		o.Status = StatusFail
		o.Message = fmt.Sprintf("%s %s %s is false", value.ToString(left), cc.Operator, value.ToString(right))
	}
	return o
}

func runNodeValidation(r *Rule, doc xpathservice.Document, o Outcome) Outcome {
	nv := r.NodeValidation
	res, err := xpathservice.Evaluate(doc, doc.Root(), nv.NodesXPath)
	if err != nil {
		o.Status, o.Message = statusForError(wrapEvalError(r.ID, err))
		return o
	}
	if res.Kind != xpathservice.ResultNodeSet {
		o.Status, o.Message = statusForError(wrapEvalError(r.ID, fmt.Errorf("nodesXpath did not select a node-set")))
		return o
	}

	results := make([]NodeResult, 0, len(res.Nodes))
	for i, n := range res.Nodes {
		nodeCtx := eval.RootContext(doc).WithNode(n)

		nr := NodeResult{NodeIndex: i, NodeXPath: n.AbsolutePath()}

		actual, err := eval.Evaluate(nv.NodeValueExpression, nodeCtx)
		if err != nil {
			nr.Status, nr.Message = statusForError(wrapEvalError(r.ID, err))
			results = append(results, nr)
			continue
		}
		nr.ActualValue = actual

		var expected value.Value
		if nv.ExpectedValueExpression != nil {
			expected, err = eval.Evaluate(nv.ExpectedValueExpression, nodeCtx)
			if err != nil {
				nr.Status, nr.Message = statusForError(wrapEvalError(r.ID, err))
				results = append(results, nr)
				continue
			}
		} else if nv.Value != nil {
			expected = *nv.Value
		}
		nr.ExpectedValue = expected

		if actual.IsNull() || expected.IsNull() {
			nr.Status, nr.Message = statusForError(missingData(r.ID, fmt.Sprintf("node value required at %s, xpath returned no node", nr.NodeXPath)))
			results = append(results, nr)
			continue
		}

		op := nv.Operator
		if op == "" {
			op = OpEq
		}
		ok, err := applyOperator(op, actual, expected)
		if err != nil {
			nr.Status, nr.Message = statusForError(wrapEvalError(r.ID, err))
		} else if ok {
			nr.Status = StatusPass
		} else {
			nr.Status = StatusFail
			nr.Message = fmt.Sprintf("%s %s %s is false", value.ToString(actual), op, value.ToString(expected))
		}
		results = append(results, nr)
	}

	o.NodeResults = results
	o.Status = overallNodeStatus(results)
	return o
}

// applyOperator implements the six relational/equality operators shared
// by comparison, computedComparison, and nodeValidation.
func applyOperator(op ComparisonOp, left, right value.Value) (bool, error) {
	switch op {
	case OpEq:
		return value.Equal(left, right), nil
	case OpNeq:
		return !value.Equal(left, right), nil
	case OpGt, OpLt, OpGte, OpLte:
		cmp, err := value.Compare(left, right)
		if err != nil {
			return false, err
		}
		switch op {
		case OpGt:
			return cmp > 0, nil
		case OpLt:
			return cmp < 0, nil
		case OpGte:
			return cmp >= 0, nil
		default:
			return cmp <= 0, nil
		}
	default:
		return false, fmt.Errorf("unsupported operator %q", op)
	}
}

// coerceToDataType coerces v to the scalar kind dt names, used by range
// rules where the target type is declared independently of any
// expression's own data_type hint.
func coerceToDataType(v value.Value, dt expr.DataType) (value.Value, error) {
	switch dt {
	case expr.DataTypeInteger:
		i, err := value.ToInteger(v)
		return value.Integer(i), err
	case expr.DataTypeDecimal:
		f, err := value.ToDecimal(v)
		return value.Decimal(f), err
	case expr.DataTypeDate:
		d, err := value.ToDate(v)
		return value.Date(d), err
	default:
		return value.String(value.ToString(v)), nil
	}
}
