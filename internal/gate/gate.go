// File: internal/gate/gate.go

// Package gate implements the safety & syntax gate that every submission
// must clear before analysis. Checks run in a fixed order: language
// identity, syntax, then the non-fatal security / runtime-risk /
// readiness scans over a single shared parse tree.
package gate

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"go.uber.org/zap"

	"github.com/xkilldash9x/refine-cli/api/schemas"
	"github.com/xkilldash9x/refine-cli/internal/config"
	"github.com/xkilldash9x/refine-cli/internal/pysource"
)

// foreignSignatures match constructs that are valid or near-valid Python
// to a tolerant parser but betray another language. Checked line by line
// against the raw text before anything else is trusted.
var foreignSignatures = []*regexp.Regexp{
	regexp.MustCompile(`\bfunction\s+\w+\s*\(`),
	regexp.MustCompile(`\bvar\s+\w+\s*=`),
	regexp.MustCompile(`\bconst\s+\w+\s*=`),
	regexp.MustCompile(`\blet\s+\w+\s*=`),
	regexp.MustCompile(`#include\s*<`),
	regexp.MustCompile(`\bpublic\s+static\s+void\b`),
	regexp.MustCompile(`\bint\s+main\s*\(`),
	regexp.MustCompile(`(?m)^\s*\{\s*$`),
	regexp.MustCompile(`=>`),
	regexp.MustCompile(`console\.log\s*\(`),
	regexp.MustCompile(`\bfn\s+\w+\s*\(`),
	regexp.MustCompile(`\bfunc\s+\w+\s*\(`),
}

// forbiddenImports are modules whose mere import fails the security scan.
var forbiddenImports = map[string]struct{}{
	"os": {}, "sys": {}, "subprocess": {}, "shutil": {}, "socket": {}, "ctypes": {},
}

// forbiddenFunctions are bare calls flagged regardless of origin.
var forbiddenFunctions = map[string]struct{}{
	"eval": {}, "exec": {}, "open": {}, "compile": {}, "__import__": {},
}

// unsafeAttributes flag attribute calls on a forbidden module, e.g.
// os.system(...) or subprocess.run(...).
var unsafeAttributes = map[string]struct{}{
	"system": {}, "popen": {}, "run": {}, "call": {}, "Popen": {},
}

// constructTypes are the node kinds that count as a recognizable Python
// construct for the degenerate-input check.
var constructTypes = map[string]struct{}{
	"function_definition":   {},
	"class_definition":      {},
	"import_statement":      {},
	"import_from_statement": {},
	"assignment":            {},
	"return_statement":      {},
	"for_statement":         {},
	"while_statement":       {},
	"if_statement":          {},
	"with_statement":        {},
}

// Gate runs the pre-analysis checks. Safe for concurrent use; all state
// is read-only after construction.
type Gate struct {
	cfg config.GateConfig
	log *zap.Logger
}

// New creates a Gate with the given thresholds.
func New(cfg config.GateConfig, logger *zap.Logger) *Gate {
	return &Gate{cfg: cfg, log: logger.Named("gate")}
}

// Check runs every gate stage against the submission. A non-empty
// Aborted field on the returned report is fatal; the scan slices are
// advisory findings only.
func (g *Gate) Check(ctx context.Context, code string) *schemas.GateReport {
	report := &schemas.GateReport{
		Security:     []string{},
		RuntimeRisks: []string{},
		Optimization: schemas.ReadinessReport{Findings: []schemas.ReadinessFinding{}},
	}

	tree, lang := g.checkLanguage(ctx, code)
	report.Language = lang
	if tree != nil {
		defer tree.Close()
	}
	if !lang.IsPython {
		report.Aborted = "Code rejected: not valid Python."
		g.log.Debug("submission rejected at language gate", zap.String("reason", lang.Reason))
		return report
	}

	// The language gate already parsed successfully, but keep the syntax
	// verdict as its own stage so the report shape stays stable.
	if errs := tree.SyntaxErrors(); len(errs) > 0 {
		report.Syntax = fmt.Sprintf("Syntax Error at line %d: %s", errs[0].Line, errs[0].Message)
		report.Aborted = "Code rejected: syntax errors present."
		return report
	}
	report.Syntax = "OK"

	report.Security = g.scanSecurity(tree)
	report.RuntimeRisks = g.scanRuntimeRisks(tree)
	report.Optimization = g.scanReadiness(tree)
	return report
}

// checkLanguage verifies the submission is Python: it must parse cleanly,
// must not match any foreign-language signature, must survive a defensive
// re-parse, and (when long enough) must contain at least one recognizable
// construct. The parsed tree is returned for reuse by later stages.
func (g *Gate) checkLanguage(ctx context.Context, code string) (*pysource.Tree, schemas.LanguageReport) {
	tree, err := pysource.Parse(ctx, []byte(code))
	if err != nil {
		return nil, schemas.LanguageReport{Reason: fmt.Sprintf("Failed to parse as Python: %v", err)}
	}
	if errs := tree.SyntaxErrors(); len(errs) > 0 {
		return tree, schemas.LanguageReport{
			Reason: fmt.Sprintf("Failed to parse as Python: %s", errs[0]),
		}
	}

	for _, sig := range foreignSignatures {
		if sig.MatchString(code) {
			return tree, schemas.LanguageReport{
				Reason: fmt.Sprintf("Non-Python syntax pattern detected: '%s'", sig.String()),
			}
		}
	}

	// Defensive re-parse of the raw bytes. Catches the rare case where an
	// earlier tolerant parse hid a malformed token stream.
	if !pysource.IsValid(ctx, []byte(code)) {
		return tree, schemas.LanguageReport{Reason: "Tokenization failed: invalid token stream"}
	}

	if len(strings.TrimSpace(code)) > g.cfg.MinConstructLength && !g.hasConstruct(tree) {
		return tree, schemas.LanguageReport{Reason: "No recognizable Python constructs found."}
	}

	return tree, schemas.LanguageReport{IsPython: true, Reason: "Valid Python code confirmed."}
}

func (g *Gate) hasConstruct(tree *pysource.Tree) bool {
	found := false
	tree.Walk(func(node *sitter.Node, depth int) bool {
		if found {
			return false
		}
		if _, ok := constructTypes[node.Type()]; ok {
			found = true
			return false
		}
		return true
	})
	return found
}

// scanSecurity flags forbidden imports and dangerous calls.
func (g *Gate) scanSecurity(tree *pysource.Tree) []string {
	findings := []string{}
	tree.Walk(func(node *sitter.Node, depth int) bool {
		switch node.Type() {
		case "import_statement":
			for _, name := range importedModules(tree, node) {
				if _, bad := forbiddenImports[rootModule(name)]; bad {
					findings = append(findings, fmt.Sprintf("Forbidden import: '%s'", name))
				}
			}
		case "import_from_statement":
			if mod := node.ChildByFieldName("module_name"); mod != nil {
				name := tree.Content(mod)
				if _, bad := forbiddenImports[rootModule(name)]; bad {
					findings = append(findings, fmt.Sprintf("Forbidden import via 'from': '%s'", name))
				}
			}
		case "call":
			fn := node.ChildByFieldName("function")
			if fn == nil {
				return true
			}
			switch fn.Type() {
			case "identifier":
				name := tree.Content(fn)
				if _, bad := forbiddenFunctions[name]; bad {
					findings = append(findings, fmt.Sprintf("Forbidden function call: '%s'", name))
				}
			case "attribute":
				obj := fn.ChildByFieldName("object")
				attr := fn.ChildByFieldName("attribute")
				if obj != nil && attr != nil && obj.Type() == "identifier" {
					base, method := tree.Content(obj), tree.Content(attr)
					_, badBase := forbiddenImports[base]
					_, badAttr := unsafeAttributes[method]
					if badBase && badAttr {
						findings = append(findings, fmt.Sprintf("Unsafe system call: '%s.%s()'", base, method))
					}
				}
			}
		}
		return true
	})
	return findings
}

// scanRuntimeRisks detects probable runtime failures: unguarded infinite
// loops, literal division by zero, base-case-free recursion, and
// unreachable statements after a return.
func (g *Gate) scanRuntimeRisks(tree *pysource.Tree) []string {
	warnings := []string{}
	tree.Walk(func(node *sitter.Node, depth int) bool {
		line := int(node.StartPoint().Row) + 1

		switch node.Type() {
		case "while_statement":
			cond := node.ChildByFieldName("condition")
			if cond != nil && cond.Type() == "true" && !subtreeHas(node, "break_statement") {
				warnings = append(warnings, fmt.Sprintf(
					"Infinite loop risk: 'while True' at line %d has no break statement", line))
			}

		case "binary_operator":
			op := node.ChildByFieldName("operator")
			right := node.ChildByFieldName("right")
			if op != nil && right != nil && tree.Content(op) == "/" && isZeroLiteral(tree, right) {
				warnings = append(warnings, fmt.Sprintf(
					"Division by zero: literal '/ 0' at line %d", line))
			}

		case "function_definition":
			name := node.ChildByFieldName("name")
			body := node.ChildByFieldName("body")
			if name == nil || body == nil {
				return true
			}
			funcName := tree.Content(name)

			if callsFunction(tree, node, funcName) &&
				!subtreeHas(node, "if_statement") && !subtreeHas(node, "assert_statement") {
				warnings = append(warnings, fmt.Sprintf(
					"Possible infinite recursion in '%s' at line %d: recursive call with no conditional base case",
					funcName, line))
			}

			// Only top-level statements before the last one can shadow
			// code; a trailing return is fine.
			count := int(body.NamedChildCount())
			for i := 0; i < count-1; i++ {
				stmt := body.NamedChild(i)
				if stmt.Type() == "return_statement" {
					warnings = append(warnings, fmt.Sprintf(
						"Unreachable code after 'return' in '%s' at line %d",
						funcName, int(stmt.StartPoint().Row)+1))
					break
				}
			}
		}
		return true
	})
	return warnings
}

// scanReadiness identifies structures with optimization potential.
func (g *Gate) scanReadiness(tree *pysource.Tree) schemas.ReadinessReport {
	findings := []schemas.ReadinessFinding{}
	tree.Walk(func(node *sitter.Node, depth int) bool {
		line := int(node.StartPoint().Row) + 1

		switch node.Type() {
		case "for_statement":
			body := node.ChildByFieldName("body")
			if body != nil && (subtreeHas(body, "for_statement") || subtreeHas(body, "while_statement")) {
				findings = append(findings, schemas.ReadinessFinding{
					Type:       "nested_loop",
					Line:       line,
					Suggestion: "Nested loops detected - review for high time complexity (O(n^2) or worse)",
				})
			}

		case "function_definition":
			name := node.ChildByFieldName("name")
			body := node.ChildByFieldName("body")
			if name == nil || body == nil {
				return true
			}
			statements := int(body.NamedChildCount())
			if statements > g.cfg.LargeFunctionThreshold {
				funcName := tree.Content(name)
				findings = append(findings, schemas.ReadinessFinding{
					Type: "large_function",
					Line: line,
					Name: funcName,
					Suggestion: fmt.Sprintf("'%s' has %d statements (threshold: %d) - consider splitting",
						funcName, statements, g.cfg.LargeFunctionThreshold),
				})
			}

		case "binary_operator":
			left := node.ChildByFieldName("left")
			if left != nil && left.Type() == "binary_operator" {
				findings = append(findings, schemas.ReadinessFinding{
					Type:       "nested_binary_operation",
					Line:       line,
					Suggestion: "Chained binary operation - check for redundant repeated computation",
				})
			}
		}
		return true
	})

	return schemas.ReadinessReport{
		Optimizable:  len(findings) > 0,
		FindingCount: len(findings),
		Findings:     findings,
	}
}

// importedModules extracts the dotted module names from an import
// statement, handling both plain and aliased forms.
func importedModules(tree *pysource.Tree, node *sitter.Node) []string {
	var names []string
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "dotted_name":
			names = append(names, tree.Content(child))
		case "aliased_import":
			if name := child.ChildByFieldName("name"); name != nil {
				names = append(names, tree.Content(name))
			}
		}
	}
	return names
}

func rootModule(dotted string) string {
	if i := strings.IndexByte(dotted, '.'); i >= 0 {
		return dotted[:i]
	}
	return dotted
}

// subtreeHas reports whether any descendant of node (inclusive) has the
// given type.
func subtreeHas(node *sitter.Node, nodeType string) bool {
	if node.Type() == nodeType {
		return true
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		if subtreeHas(node.Child(i), nodeType) {
			return true
		}
	}
	return false
}

// callsFunction reports whether the subtree contains a bare call to the
// named function.
func callsFunction(tree *pysource.Tree, node *sitter.Node, funcName string) bool {
	if node.Type() == "call" {
		if fn := node.ChildByFieldName("function"); fn != nil &&
			fn.Type() == "identifier" && tree.Content(fn) == funcName {
			return true
		}
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		if callsFunction(tree, node.Child(i), funcName) {
			return true
		}
	}
	return false
}

func isZeroLiteral(tree *pysource.Tree, node *sitter.Node) bool {
	switch node.Type() {
	case "integer", "float":
		v, err := strconv.ParseFloat(strings.TrimSpace(tree.Content(node)), 64)
		return err == nil && v == 0
	}
	return false
}
