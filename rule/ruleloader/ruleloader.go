package ruleloader

import (
	"fmt"
	"regexp"

	"github.com/go-logr/logr"

	"github.com/xmlvalidate/xmlvalidate/dsl/expr"
	"github.com/xmlvalidate/xmlvalidate/dsl/value"
	"github.com/xmlvalidate/xmlvalidate/internal/applog"
	"github.com/xmlvalidate/xmlvalidate/rule"
)

// Document is the compiled form of a rule document: an ordered list of
// rules, ready for rule.RunAll.
type Document struct {
	Rules []*rule.Rule
}

// Load validates raw against the rule-document schema (spec.md §6) and
// compiles it into a Document. raw is the top-level decoded structure —
// typically the result of json.Unmarshal(bytes, &map[string]any{}) or an
// equivalent YAML decode done by the caller; this package never reads a
// file itself (spec.md §1). Load fails the whole document (producing no
// rules at all) on the first malformed rule it encounters, per spec.md
// §4.F/§7.1. Pass applog.Discard() for log when no sink is wired up.
func Load(raw map[string]any, log logr.Logger) (*Document, error) {
	settingsRaw, ok := field(raw, "validationSettings")
	if !ok {
		return nil, logLoadError(log, &rule.LoadError{Msg: "missing required top-level field \"validationSettings\""})
	}
	settings, ok := asSlice(settingsRaw)
	if !ok {
		return nil, logLoadError(log, &rule.LoadError{Msg: "validationSettings must be an array"})
	}

	seen := make(map[string]bool, len(settings))
	rules := make([]*rule.Rule, 0, len(settings))

	for i, entryRaw := range settings {
		entry, ok := asMap(entryRaw)
		if !ok {
			return nil, logLoadError(log, &rule.LoadError{Msg: fmt.Sprintf("validationSettings[%d]: rule must be an object", i)})
		}

		r, err := buildRule(entry, log)
		if err != nil {
			return nil, err
		}

		if seen[r.ID] {
			return nil, logLoadError(log, &rule.LoadError{RuleID: r.ID, Msg: "duplicate rule id"})
		}
		seen[r.ID] = true

		rules = append(rules, r)
	}

	return &Document{Rules: rules}, nil
}

func buildRule(m map[string]any, log logr.Logger) (*rule.Rule, error) {
	id, err := requireString(m, "rule", "id")
	if err != nil {
		return nil, logLoadError(log, &rule.LoadError{Msg: err.Error()})
	}
	ctx := fmt.Sprintf("rule %q", id)

	description, _ := field(m, "description")
	descStr, _ := asString(description)

	kindStr, err := requireString(m, ctx, "type")
	if err != nil {
		return nil, logLoadError(log, &rule.LoadError{RuleID: id, Msg: err.Error()})
	}

	severityStr, _ := field(m, "severity")
	sevStr, _ := asString(severityStr)
	severity, err := parseSeverity(sevStr)
	if err != nil {
		return nil, logLoadError(log, &rule.LoadError{RuleID: id, Msg: err.Error()})
	}

	conditions, err := buildConditions(m, ctx)
	if err != nil {
		return nil, logLoadError(log, wrapLoadError(id, err))
	}

	r := &rule.Rule{
		ID:          id,
		Description: descStr,
		Kind:        rule.Kind(kindStr),
		Severity:    severity,
		Conditions:  conditions,
	}

	switch r.Kind {
	case rule.KindExistence:
		r.Existence, err = buildExistence(m, ctx)
	case rule.KindPattern:
		r.Pattern, err = buildPattern(m, ctx)
	case rule.KindRange:
		r.Range, err = buildRange(m, ctx)
	case rule.KindComparison:
		r.Comparison, err = buildComparison(m, ctx)
	case rule.KindComputedComparison:
		r.ComputedComparison, err = buildComputedComparison(m, ctx)
	case rule.KindNodeValidation:
		r.NodeValidation, err = buildNodeValidation(m, ctx)
	default:
		err = &rule.ConfigMismatchError{RuleID: id, Detail: fmt.Sprintf("unknown rule type %q", kindStr)}
	}
	if err != nil {
		return nil, logLoadError(log, wrapLoadError(id, err))
	}

	return r, nil
}

// logLoadError logs err (a *rule.LoadError, possibly wrapping a
// ConfigMismatchError as its Cause) at V(0)/Error before returning it, per
// SPEC_FULL.md's ambient logging requirement that load failures are never
// silent. It always returns err unchanged so call sites can do
// `return nil, logLoadError(log, err)`.
func logLoadError(log logr.Logger, err *rule.LoadError) *rule.LoadError {
	log.Error(err, "rule document load failed", applog.RuleID, err.RuleID)
	return err
}

// wrapLoadError turns any error a kind-specific builder returns into a
// *rule.LoadError carrying the rule's id, preserving a ConfigMismatchError
// cause via pkg/errors so its stack survives into the wrapped error's
// Unwrap chain.
func wrapLoadError(id string, err error) *rule.LoadError {
	if le, ok := err.(*rule.LoadError); ok {
		if le.RuleID == "" {
			le.RuleID = id
		}
		return le
	}
	return rule.NewLoadError(id, err.Error(), err)
}

func parseSeverity(s string) (rule.Severity, error) {
	switch rule.Severity(s) {
	case rule.SeverityError, rule.SeverityWarning, rule.SeverityInfo:
		return rule.Severity(s), nil
	default:
		return "", fmt.Errorf("unknown severity %q", s)
	}
}

func buildConditions(m map[string]any, ctx string) ([]rule.Condition, error) {
	raw, ok := field(m, "conditions")
	if !ok {
		return nil, nil
	}
	slice, ok := asSlice(raw)
	if !ok {
		return nil, fmt.Errorf("%s: conditions must be an array", ctx)
	}
	out := make([]rule.Condition, 0, len(slice))
	for _, cr := range slice {
		cm, ok := asMap(cr)
		if !ok {
			return nil, fmt.Errorf("%s: each condition must be an object", ctx)
		}
		typeStr, err := requireString(cm, ctx+" condition", "type", "kind")
		if err != nil {
			return nil, err
		}
		switch rule.ConditionKind(typeStr) {
		case rule.ConditionExists:
			xp, err := requireString(cm, ctx+" exists condition", "xpath")
			if err != nil {
				return nil, err
			}
			out = append(out, rule.Condition{Kind: rule.ConditionExists, XPath: xp})
		case rule.ConditionAttributeEquals:
			xp, err := requireString(cm, ctx+" attributeEquals condition", "xpath")
			if err != nil {
				return nil, err
			}
			attr, err := requireString(cm, ctx+" attributeEquals condition", "attribute")
			if err != nil {
				return nil, err
			}
			val, err := requireString(cm, ctx+" attributeEquals condition", "value")
			if err != nil {
				return nil, err
			}
			out = append(out, rule.Condition{Kind: rule.ConditionAttributeEquals, XPath: xp, Attribute: attr, Value: val})
		default:
			return nil, fmt.Errorf("%s: unknown condition type %q", ctx, typeStr)
		}
	}
	return out, nil
}

func buildExistence(m map[string]any, ctx string) (*rule.ExistenceRule, error) {
	exprRaw, err := requireMap(m, ctx, "expression")
	if err != nil {
		return nil, err
	}
	e, err := buildExpression(exprRaw)
	if err != nil {
		return nil, err
	}
	return &rule.ExistenceRule{Expression: e}, nil
}

func buildPattern(m map[string]any, ctx string) (*rule.PatternRule, error) {
	exprRaw, err := requireMap(m, ctx, "expression")
	if err != nil {
		return nil, err
	}
	e, err := buildExpression(exprRaw)
	if err != nil {
		return nil, err
	}
	pattern, err := requireString(m, ctx, "pattern")
	if err != nil {
		return nil, err
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid pattern %q: %v", ctx, pattern, err)
	}
	return &rule.PatternRule{Expression: e, Regexp: re, PatternText: pattern}, nil
}

func buildRange(m map[string]any, ctx string) (*rule.RangeRule, error) {
	exprRaw, err := requireMap(m, ctx, "expression")
	if err != nil {
		return nil, err
	}
	e, err := buildExpression(exprRaw)
	if err != nil {
		return nil, err
	}
	dtStr, err := requireString(m, ctx, "dataType")
	if err != nil {
		return nil, err
	}
	dt, err := parseDataType(dtStr)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", ctx, err)
	}
	minRaw, ok := field(m, "minValue")
	if !ok {
		return nil, fmt.Errorf("%s: missing required field \"minValue\"", ctx)
	}
	maxRaw, ok := field(m, "maxValue")
	if !ok {
		return nil, fmt.Errorf("%s: missing required field \"maxValue\"", ctx)
	}
	minV, err := coerceLiteralToDataType(inferLiteral(minRaw), dt)
	if err != nil {
		return nil, fmt.Errorf("%s: minValue: %v", ctx, err)
	}
	maxV, err := coerceLiteralToDataType(inferLiteral(maxRaw), dt)
	if err != nil {
		return nil, fmt.Errorf("%s: maxValue: %v", ctx, err)
	}
	return &rule.RangeRule{Expression: e, DataType: dt, MinValue: minV, MaxValue: maxV}, nil
}

func coerceLiteralToDataType(v value.Value, dt expr.DataType) (value.Value, error) {
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

func buildComparison(m map[string]any, ctx string) (*rule.ComparisonRule, error) {
	exprRaw, err := requireMap(m, ctx, "expression")
	if err != nil {
		return nil, err
	}
	e, err := buildExpression(exprRaw)
	if err != nil {
		return nil, err
	}
	opStr, err := requireString(m, ctx, "operator")
	if err != nil {
		return nil, err
	}
	op, err := parseComparisonOp(opStr, false)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", ctx, err)
	}
	valRaw, ok := field(m, "value")
	if !ok {
		return nil, fmt.Errorf("%s: missing required field \"value\"", ctx)
	}
	return &rule.ComparisonRule{Expression: e, Operator: op, Value: inferLiteral(valRaw)}, nil
}

func buildComputedComparison(m map[string]any, ctx string) (*rule.ComputedComparisonRule, error) {
	cm, err := requireMap(m, ctx, "comparison")
	if err != nil {
		return nil, err
	}
	opStr, err := requireString(cm, ctx+".comparison", "operator")
	if err != nil {
		return nil, err
	}
	op, err := parseComparisonOp(opStr, true)
	if err != nil {
		return nil, fmt.Errorf("%s.comparison: %v", ctx, err)
	}

	leftRaw, err := requireMap(cm, ctx+".comparison", "leftExpression")
	if err != nil {
		return nil, err
	}
	left, err := buildExpression(leftRaw)
	if err != nil {
		return nil, err
	}

	if op == rule.OpBetween {
		lowerRaw, err := requireMap(cm, ctx+".comparison", "lowerExpression")
		if err != nil {
			return nil, err
		}
		lower, err := buildExpression(lowerRaw)
		if err != nil {
			return nil, err
		}
		upperRaw, err := requireMap(cm, ctx+".comparison", "upperExpression")
		if err != nil {
			return nil, err
		}
		upper, err := buildExpression(upperRaw)
		if err != nil {
			return nil, err
		}
		return &rule.ComputedComparisonRule{
			Operator:        op,
			LeftExpression:  left,
			LowerExpression: lower,
			UpperExpression: upper,
		}, nil
	}

	rightRaw, err := requireMap(cm, ctx+".comparison", "rightExpression")
	if err != nil {
		return nil, err
	}
	right, err := buildExpression(rightRaw)
	if err != nil {
		return nil, err
	}
	return &rule.ComputedComparisonRule{Operator: op, LeftExpression: left, RightExpression: right}, nil
}

func buildNodeValidation(m map[string]any, ctx string) (*rule.NodeValidationRule, error) {
	nodesXPath, err := requireString(m, ctx, "nodesXpath")
	if err != nil {
		return nil, err
	}
	nodeValueRaw, err := requireMap(m, ctx, "nodeValueExpression")
	if err != nil {
		return nil, err
	}
	nodeValueExpr, err := buildExpression(nodeValueRaw)
	if err != nil {
		return nil, err
	}

	op := rule.OpEq
	if opRaw, ok := field(m, "operator"); ok {
		opStr, ok := asString(opRaw)
		if !ok {
			return nil, fmt.Errorf("%s: operator must be a string", ctx)
		}
		op, err = parseComparisonOp(opStr, false)
		if err != nil {
			return nil, fmt.Errorf("%s: %v", ctx, err)
		}
	}

	valueRaw, hasValue := field(m, "value")
	exprRaw, hasExpectedExpr := field(m, "expectedValueExpression")
	if hasValue == hasExpectedExpr {
		return nil, fmt.Errorf("%s: exactly one of value or expectedValueExpression is required", ctx)
	}

	nv := &rule.NodeValidationRule{NodesXPath: nodesXPath, NodeValueExpression: nodeValueExpr, Operator: op}
	if hasValue {
		v := inferLiteral(valueRaw)
		nv.Value = &v
	} else {
		e, err := buildExpression(exprRaw)
		if err != nil {
			return nil, err
		}
		nv.ExpectedValueExpression = e
	}
	return nv, nil
}

func parseComparisonOp(s string, allowBetween bool) (rule.ComparisonOp, error) {
	op := rule.ComparisonOp(s)
	switch op {
	case rule.OpEq, rule.OpNeq, rule.OpGt, rule.OpLt, rule.OpGte, rule.OpLte:
		return op, nil
	case rule.OpBetween:
		if allowBetween {
			return op, nil
		}
	}
	return "", fmt.Errorf("unknown operator %q", s)
}
