// File: internal/pysource/pysource.go

// Package pysource wraps the tree-sitter Python grammar behind a small
// parse/inspect surface used by the gate, the analyzer, and the rewriter.
// A parser is cheap to construct, so every Parse call builds its own and
// the package stays safe for concurrent use.
package pysource

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// Guards against pathological input: error collection stops past these.
const (
	maxSyntaxErrors = 50
	maxWalkDepth    = 1000
)

// SyntaxError pinpoints one ERROR or MISSING node in the parse tree.
// Line and Column are 1-based and 0-based respectively, matching the
// positions tree-sitter reports.
type SyntaxError struct {
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Message string `json:"message"`
}

func (e SyntaxError) String() string {
	return fmt.Sprintf("line %d, col %d: %s", e.Line, e.Column, e.Message)
}

// Tree pairs a parsed tree with the source bytes it was parsed from, so
// callers can slice node text without carrying the source separately.
type Tree struct {
	tree   *sitter.Tree
	Source []byte
}

// Parse parses Python source text. Parsing is error-tolerant: a returned
// Tree may still contain ERROR nodes; check Valid or SyntaxErrors.
func Parse(ctx context.Context, source []byte) (*Tree, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parse failed: %w", err)
	}
	return &Tree{tree: tree, Source: source}, nil
}

// Close releases the underlying tree. Safe to call more than once.
func (t *Tree) Close() {
	if t.tree != nil {
		t.tree.Close()
		t.tree = nil
	}
}

// Root returns the module node of the parse tree.
func (t *Tree) Root() *sitter.Node {
	return t.tree.RootNode()
}

// Valid reports whether the tree contains no ERROR or MISSING nodes.
func (t *Tree) Valid() bool {
	return len(t.collectErrors(1)) == 0
}

// SyntaxErrors walks the tree and returns every ERROR and MISSING node
// with its position, capped at maxSyntaxErrors.
func (t *Tree) SyntaxErrors() []SyntaxError {
	return t.collectErrors(maxSyntaxErrors)
}

func (t *Tree) collectErrors(limit int) []SyntaxError {
	var errs []SyntaxError
	var visit func(node *sitter.Node, depth int)
	visit = func(node *sitter.Node, depth int) {
		if depth > maxWalkDepth || len(errs) >= limit {
			return
		}
		if node.IsError() || node.IsMissing() {
			point := node.StartPoint()
			msg := "syntax error"
			if node.IsMissing() {
				msg = fmt.Sprintf("missing %s", node.Type())
			} else if text := t.Content(node); text != "" && len(text) < 60 {
				msg = fmt.Sprintf("unexpected: %s", text)
			}
			errs = append(errs, SyntaxError{
				Line:    int(point.Row) + 1,
				Column:  int(point.Column),
				Message: msg,
			})
		}
		for i := 0; i < int(node.ChildCount()); i++ {
			visit(node.Child(i), depth+1)
		}
	}
	visit(t.Root(), 0)
	return errs
}

// Content returns the source text covered by the node.
func (t *Tree) Content(node *sitter.Node) string {
	return node.Content(t.Source)
}

// Walk performs a depth-first pre-order traversal of the whole tree,
// calling fn on every node (named and anonymous). Returning false from
// fn skips the node's subtree. Depth is capped to guard against
// adversarially nested input.
func (t *Tree) Walk(fn func(node *sitter.Node, depth int) bool) {
	var visit func(node *sitter.Node, depth int)
	visit = func(node *sitter.Node, depth int) {
		if depth > maxWalkDepth {
			return
		}
		if !fn(node, depth) {
			return
		}
		for i := 0; i < int(node.ChildCount()); i++ {
			visit(node.Child(i), depth+1)
		}
	}
	visit(t.Root(), 0)
}

// IsValid parses the source and reports whether it is syntactically valid
// Python. Convenience for callers that only need the verdict.
func IsValid(ctx context.Context, source []byte) bool {
	tree, err := Parse(ctx, source)
	if err != nil {
		return false
	}
	defer tree.Close()
	return tree.Valid()
}
