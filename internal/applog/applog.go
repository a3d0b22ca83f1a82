// Package applog centralizes the structured log keys and logger
// construction used across the loader and rule engine, mirroring how
// open-policy-agent/gatekeeper's pkg/logging package hands out a single
// logr.Logger and a fixed set of key names rather than ad hoc strings.
package applog

import (
	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
)

// Log keys used throughout the loader and rule engine.
const (
	RuleID   = "rule_id"
	RuleKind = "rule_kind"
	File     = "file"
	Status   = "status"
	Op       = "op"
	Cause    = "cause"

	// DebugLevel is the V() level used for per-rule and per-node tracing,
	// logged as log.V(applog.DebugLevel).Info(...).
	DebugLevel = 1
)

// NewLogger returns a logr.Logger backed by the standard library log
// package, named name. Callers that want a different sink (zap, etc.)
// can construct their own logr.Logger and ignore this constructor; the
// rule engine and loader only depend on the logr.Logger interface.
func NewLogger(name string) logr.Logger {
	std := stdr.New(nil)
	stdr.SetVerbosity(1)
	return std.WithName(name)
}

// Discard returns a logger that drops everything, the default for
// components that receive no logger explicitly.
func Discard() logr.Logger {
	return logr.Discard()
}
