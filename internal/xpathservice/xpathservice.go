// Package xpathservice adapts internal/xmldom (the teacher's DOM4 + XPath
// 1.0 engine) to the abstract "XPath Service" contract spec.md §4.A
// describes: load a document, evaluate an XPath string relative to a
// context node, and compute a deterministic absolute path to a node for
// diagnostics. The evaluator (dsl/eval) only ever talks to this package,
// never to internal/xmldom directly, so the concrete XPath engine stays
// swappable per spec.md §6.
package xpathservice

import (
	"fmt"
	"os"

	"github.com/xmlvalidate/xmlvalidate/internal/xmldom"
)

// Document is an opaque handle to a parsed XML document.
type Document struct {
	doc xmldom.Document
}

// Node is an opaque handle into a Document.
type Node struct {
	node xmldom.Node
}

// IsZero reports whether n is the zero Node (no match).
func (n Node) IsZero() bool { return n.node == nil }

// ParseError wraps a failure to parse an XML document.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("parse: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Load parses the XML file at path into a Document.
func Load(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, &ParseError{Path: path, Err: err}
	}
	return LoadBytes(path, data)
}

// LoadBytes parses raw XML bytes into a Document. path is used only for
// diagnostics and may be empty.
func LoadBytes(path string, data []byte) (Document, error) {
	dec := xmldom.NewDecoderFromBytes(data)
	doc, err := dec.Decode()
	if err != nil {
		return Document{}, &ParseError{Path: path, Err: err}
	}
	return Document{doc: doc}, nil
}

// Root returns the document's root context node (its document element).
func (d Document) Root() Node {
	if d.doc == nil {
		return Node{}
	}
	return Node{node: d.doc.DocumentElement()}
}

// ResultKind tags the shape of an Evaluate result.
type ResultKind uint8

const (
	ResultNodeSet ResultKind = iota
	ResultString
	ResultNumber
	ResultBoolean
)

// Result is the tagged union an XPath evaluation produces.
type Result struct {
	Kind    ResultKind
	Nodes   []Node
	Str     string
	Num     float64
	Boolean bool
}

// EvalError reports a failure to evaluate an XPath expression: invalid
// syntax or an unresolved namespace prefix, both fatal to the enclosing
// expression per spec.md §4.A.
type EvalError struct {
	XPath string
	Err   error
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("evaluate xpath %q: %v", e.XPath, e.Err)
}

func (e *EvalError) Unwrap() error { return e.Err }

// Evaluate runs xpath relative to ctx (a node within doc) and returns a
// tagged Result. The result type is XPATH_ANY_TYPE: the engine infers
// the natural type (node-set, string, number, boolean) of the expression
// rather than forcing a conversion, so that callers can interpret
// node-sets structurally (count, map) or request their string/number
// form via the Result accessors.
func Evaluate(doc Document, ctx Node, xpath string) (Result, error) {
	contextNode := ctx.node
	if contextNode == nil {
		contextNode = doc.doc
	}

	res, err := doc.doc.Evaluate(xpath, contextNode, nil, xmldom.XPATH_ANY_TYPE, nil)
	if err != nil {
		return Result{}, &EvalError{XPath: xpath, Err: err}
	}

	switch res.ResultType() {
	case xmldom.XPATH_NUMBER_TYPE:
		n, err := res.NumberValue()
		if err != nil {
			return Result{}, &EvalError{XPath: xpath, Err: err}
		}
		return Result{Kind: ResultNumber, Num: n}, nil
	case xmldom.XPATH_STRING_TYPE:
		s, err := res.StringValue()
		if err != nil {
			return Result{}, &EvalError{XPath: xpath, Err: err}
		}
		return Result{Kind: ResultString, Str: s}, nil
	case xmldom.XPATH_BOOLEAN_TYPE:
		b, err := res.BooleanValue()
		if err != nil {
			return Result{}, &EvalError{XPath: xpath, Err: err}
		}
		return Result{Kind: ResultBoolean, Boolean: b}, nil
	default:
		// ANY_TYPE resolves node-sets to an iterator result, which does
		// not support indexed access; re-evaluate (the compiled AST is
		// cached by internal/xmldom) requesting an ordered snapshot so
		// callers can index and count document-order-stably.
		snap, err := doc.doc.Evaluate(xpath, contextNode, nil, xmldom.XPATH_ORDERED_NODE_SNAPSHOT_TYPE, nil)
		if err != nil {
			return Result{}, &EvalError{XPath: xpath, Err: err}
		}
		n, err := snap.SnapshotLength()
		if err != nil {
			return Result{}, &EvalError{XPath: xpath, Err: err}
		}
		nodes := make([]Node, 0, n)
		for i := uint32(0); i < n; i++ {
			item, err := snap.SnapshotItem(i)
			if err != nil {
				return Result{}, &EvalError{XPath: xpath, Err: err}
			}
			nodes = append(nodes, Node{node: item})
		}
		return Result{Kind: ResultNodeSet, Nodes: nodes}, nil
	}
}

// StringValue returns the node's text content, the canonical "string
// value" XPath 1.0 defines for evaluate's single-node uses (value/@attr).
func (n Node) StringValue() string {
	if n.node == nil {
		return ""
	}
	return string(n.node.TextContent())
}

// AbsolutePath computes a deterministic, unique-within-document XPath to
// n, for node-level diagnostics in nodeValidation outcomes.
func (n Node) AbsolutePath() string {
	if n.node == nil {
		return ""
	}
	return xmldom.AbsolutePath(n.node)
}
