// Package ruleloader implements the rule document loader (spec.md §4.F):
// it validates the document schema, rejects malformed rules outright
// (duplicate id, missing/extra fields, bad operator/field combinations),
// compiles each expression sub-tree into dsl/expr.Expression records, and
// compiles pattern-rule regexes at load time. It accepts an already
// decoded generic structure (map[string]any) — decoding rule-document
// bytes (JSON/YAML) from a file is an external concern per spec.md §1/§6.
package ruleloader

import "fmt"

func asMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func asSlice(v any) ([]any, bool) {
	s, ok := v.([]any)
	return s, ok
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// field looks up the first of names present in m.
func field(m map[string]any, names ...string) (any, bool) {
	for _, n := range names {
		if v, ok := m[n]; ok {
			return v, true
		}
	}
	return nil, false
}

func requireString(m map[string]any, errCtx string, names ...string) (string, error) {
	v, ok := field(m, names...)
	if !ok {
		return "", fmt.Errorf("%s: missing required field %q", errCtx, names[0])
	}
	s, ok := asString(v)
	if !ok {
		return "", fmt.Errorf("%s: field %q must be a string", errCtx, names[0])
	}
	return s, nil
}

func requireMap(m map[string]any, errCtx string, names ...string) (map[string]any, error) {
	v, ok := field(m, names...)
	if !ok {
		return nil, fmt.Errorf("%s: missing required field %q", errCtx, names[0])
	}
	sub, ok := asMap(v)
	if !ok {
		return nil, fmt.Errorf("%s: field %q must be an object", errCtx, names[0])
	}
	return sub, nil
}
