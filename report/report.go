// Package report assembles rule.Outcome records produced across one or
// more files into the validation run's final report (spec.md §4.G): a
// pass/fail/missing summary, the full per-rule result list, and run
// metadata. This is the one place in the module that serializes results
// to an external format — every other package stays format-agnostic.
package report

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/xmlvalidate/xmlvalidate/dsl/value"
	"github.com/xmlvalidate/xmlvalidate/rule"
)

// Summary is the counting-law view of a Report: Total always equals
// Passed+Failed+Missing, regardless of how many rules or files
// contributed, and regardless of nodeValidation's per-node fan-out (a
// nodeValidation rule contributes exactly one to Total, not one per
// node).
type Summary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Missing int `json:"missing"`
}

// Result is the externally-serializable projection of a rule.Outcome.
type Result struct {
	RuleID        string       `json:"ruleId"`
	FilePath      string       `json:"filePath"`
	Status        string       `json:"status"`
	Severity      string       `json:"severity,omitempty"`
	Message       string       `json:"message,omitempty"`
	ReturnedValue any          `json:"returnedValue,omitempty"`
	ExpectedValue any          `json:"expectedValue,omitempty"`
	NodeResults   []NodeResult `json:"nodeResults,omitempty"`
}

// NodeResult is the externally-serializable projection of rule.NodeResult.
type NodeResult struct {
	NodeIndex     int    `json:"nodeIndex"`
	NodeXPath     string `json:"nodeXPath"`
	ActualValue   any    `json:"actualValue,omitempty"`
	ExpectedValue any    `json:"expectedValue,omitempty"`
	Status        string `json:"status"`
	Message       string `json:"message,omitempty"`
}

// Metadata carries information about the run that produced a Report,
// independent of any individual outcome.
type Metadata struct {
	RunID        string    `json:"runId"`
	GeneratedAt  time.Time `json:"generatedAt"`
	Files        []string  `json:"files"`
	RuleDocument string    `json:"ruleDocument,omitempty"`
}

// Report is the complete assembled validation run.
type Report struct {
	Summary  Summary  `json:"summary"`
	Results  []Result `json:"results"`
	Metadata Metadata `json:"metadata"`
}

// Builder accumulates outcomes across however many files a run
// validates, then assembles a single Report. Builder holds no
// concurrency guard of its own — the caller is responsible for
// serializing calls to Add, matching the single-threaded-per-file
// validation model spec.md §5 describes.
type Builder struct {
	files        []string
	ruleDocument string
	results      []Result
}

// NewBuilder starts a Report for the given rule document's path
// (informational only; empty is fine).
func NewBuilder(ruleDocument string) *Builder {
	return &Builder{ruleDocument: ruleDocument}
}

// Add folds one file's outcomes into the report being built.
func (b *Builder) Add(filePath string, outcomes []rule.Outcome) {
	b.files = append(b.files, filePath)
	for _, o := range outcomes {
		b.results = append(b.results, toResult(o))
	}
}

// Build assembles the accumulated results into a final Report, stamped
// with a fresh run ID and the given timestamp (the caller supplies
// "now" so Builder itself never calls time.Now, keeping it
// deterministic and easy to test).
func (b *Builder) Build(generatedAt time.Time) Report {
	summary := Summary{}
	for _, r := range b.results {
		summary.Total++
		switch rule.Status(r.Status) {
		case rule.StatusPass:
			summary.Passed++
		case rule.StatusFail:
			summary.Failed++
		case rule.StatusMissing:
			summary.Missing++
		}
	}
	return Report{
		Summary: summary,
		Results: b.results,
		Metadata: Metadata{
			RunID:        uuid.NewString(),
			GeneratedAt:  generatedAt,
			Files:        b.files,
			RuleDocument: b.ruleDocument,
		},
	}
}

func toResult(o rule.Outcome) Result {
	r := Result{
		RuleID:        o.RuleID,
		FilePath:      o.FilePath,
		Status:        string(o.Status),
		Severity:      string(o.Severity),
		Message:       o.Message,
		ReturnedValue: valueToJSON(o.ReturnedValue),
	}
	if o.ExpectedValue != nil {
		r.ExpectedValue = valueToJSON(*o.ExpectedValue)
	}
	if len(o.NodeResults) > 0 {
		r.NodeResults = make([]NodeResult, len(o.NodeResults))
		for i, nr := range o.NodeResults {
			r.NodeResults[i] = NodeResult{
				NodeIndex:     nr.NodeIndex,
				NodeXPath:     nr.NodeXPath,
				ActualValue:   valueToJSON(nr.ActualValue),
				ExpectedValue: valueToJSON(nr.ExpectedValue),
				Status:        string(nr.Status),
				Message:       nr.Message,
			}
		}
	}
	return r
}

// valueToJSON projects a dsl/value.Value onto a plain any suitable for
// encoding/json, preserving its native shape (number, string, bool,
// array) rather than the DSL's internal structural string form.
func valueToJSON(v value.Value) any {
	switch v.Kind() {
	case value.KindNull:
		return nil
	case value.KindString:
		return v.RawString()
	case value.KindInteger:
		return v.RawInteger()
	case value.KindDecimal:
		return v.RawDecimal()
	case value.KindBoolean:
		return v.RawBoolean()
	case value.KindDate:
		return v.RawDate().Format(value.DateLayout)
	case value.KindArray:
		elems := v.Elements()
		out := make([]any, len(elems))
		for i, e := range elems {
			out[i] = valueToJSON(e)
		}
		return out
	default:
		return nil
	}
}

// Render serializes a Report as indented JSON, the CLI's default output
// format (spec.md §6's report format, rendered here rather than in
// cmd/xmlvalidate so tests can exercise it without a process boundary).
func Render(r Report) ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
