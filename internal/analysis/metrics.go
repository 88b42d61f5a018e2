// File: internal/analysis/metrics.go
package analysis

import (
	"math"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/xkilldash9x/refine-cli/api/schemas"
	"github.com/xkilldash9x/refine-cli/internal/pysource"
)

// operatorNodeTypes are node kinds counted wholesale as one Halstead
// operator occurrence. Expression operators (binary, boolean, unary,
// comparison) are counted by their operator tokens instead.
var operatorNodeTypes = map[string]struct{}{
	"assignment":            {},
	"augmented_assignment":  {},
	"call":                  {},
	"attribute":             {},
	"subscript":             {},
	"if_statement":          {},
	"for_statement":         {},
	"while_statement":       {},
	"return_statement":      {},
	"yield":                 {},
	"import_statement":      {},
	"import_from_statement": {},
}

var literalNodeTypes = map[string]struct{}{
	"integer": {}, "float": {}, "string": {}, "true": {}, "false": {}, "none": {},
}

// branchNodeTypes each add one decision point to McCabe complexity.
// elif clauses count separately because each carries its own predicate.
var branchNodeTypes = map[string]struct{}{
	"if_statement":     {},
	"elif_clause":      {},
	"for_statement":    {},
	"while_statement":  {},
	"except_clause":    {},
	"with_statement":   {},
	"assert_statement": {},
	"for_in_clause":    {},
}

// computeHalstead derives the Halstead estimates from the token stream
// of the given subtree.
func computeHalstead(tree *pysource.Tree, root *sitter.Node) schemas.HalsteadReport {
	var operators, operands []string

	var visit func(node *sitter.Node, depth int)
	visit = func(node *sitter.Node, depth int) {
		if depth > maxWalkDepth {
			return
		}

		nodeType := node.Type()
		switch {
		case nodeType == "binary_operator" || nodeType == "boolean_operator" || nodeType == "unary_operator":
			if op := node.ChildByFieldName("operator"); op != nil {
				operators = append(operators, tree.Content(op))
			}
		case nodeType == "not_operator":
			operators = append(operators, "not")
		case nodeType == "comparison_operator":
			// Operator tokens are the anonymous children between operands.
			for i := 0; i < int(node.ChildCount()); i++ {
				if child := node.Child(i); !child.IsNamed() {
					operators = append(operators, tree.Content(child))
				}
			}
		default:
			if _, ok := operatorNodeTypes[nodeType]; ok {
				operators = append(operators, nodeType)
			}
		}

		if nodeType == "identifier" && !isAttributeName(node) {
			operands = append(operands, tree.Content(node))
		} else if _, ok := literalNodeTypes[nodeType]; ok {
			operands = append(operands, tree.Content(node))
		}

		for i := 0; i < int(node.ChildCount()); i++ {
			visit(node.Child(i), depth+1)
		}
	}
	visit(root, 0)

	n1 := distinct(operators)
	n2 := distinct(operands)
	bigN1 := len(operators)
	bigN2 := len(operands)

	n := n1 + n2
	if n < 1 {
		n = 1
	}
	bigN := float64(bigN1 + bigN2)

	volume := bigN * math.Log2(float64(n))
	difficulty := (float64(n1) / 2) * (float64(bigN2) / float64(max(n2, 1)))
	effort := difficulty * volume

	return schemas.HalsteadReport{
		DistinctOperators: n1,
		DistinctOperands:  n2,
		TotalOperators:    bigN1,
		TotalOperands:     bigN2,
		Volume:            round2(volume),
		Difficulty:        round2(difficulty),
		Effort:            round2(effort),
		TimeToProgram:     round2(effort / 18),
		BugsDelivered:     round4(volume / 3000),
	}
}

// isAttributeName reports whether the identifier is the attribute part
// of an attribute access (obj.attr); those are method/field names, not
// operands.
func isAttributeName(node *sitter.Node) bool {
	parent := node.Parent()
	if parent == nil || parent.Type() != "attribute" {
		return false
	}
	attr := parent.ChildByFieldName("attribute")
	return attr != nil && attr.StartByte() == node.StartByte() && attr.EndByte() == node.EndByte()
}

// cyclomaticComplexity computes the McCabe number for the subtree: one
// plus one per decision point, plus one per boolean operator (tree-sitter
// nests chained and/or pairwise, so each node is one extra path).
func cyclomaticComplexity(node *sitter.Node) int {
	cc := 1
	var visit func(n *sitter.Node, depth int)
	visit = func(n *sitter.Node, depth int) {
		if depth > maxWalkDepth {
			return
		}
		if _, ok := branchNodeTypes[n.Type()]; ok {
			cc++
		} else if n.Type() == "boolean_operator" {
			cc++
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			visit(n.Child(i), depth+1)
		}
	}
	visit(node, 0)
	return cc
}

// countLOC breaks source lines into blank, comment, and code. Code is
// floored at 1 so downstream logarithms stay defined.
func countLOC(source string) schemas.LOCReport {
	lines := strings.Split(source, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	report := schemas.LOCReport{Total: len(lines)}
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			report.Blank++
		case strings.HasPrefix(trimmed, "#"):
			report.Comment++
		}
	}
	report.Code = report.Total - report.Blank - report.Comment
	if report.Code < 1 {
		report.Code = 1
	}
	return report
}

// maintainabilityIndex is the Microsoft MI formula normalised to 0-100.
func maintainabilityIndex(volume float64, cc int, codeLines int) float64 {
	if codeLines <= 0 {
		return 100.0
	}
	raw := 171 -
		5.2*math.Log(math.Max(volume, 1)) -
		0.23*float64(cc) -
		16.2*math.Log(math.Max(float64(codeLines), 1))
	return round2(math.Max(0, math.Min(100, raw*100/171)))
}

func miLabel(mi float64) string {
	switch {
	case mi >= 80:
		return "High"
	case mi >= 65:
		return "Moderate"
	default:
		return "Low"
	}
}

func distinct(items []string) int {
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		seen[item] = struct{}{}
	}
	return len(seen)
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
