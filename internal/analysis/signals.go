// File: internal/analysis/signals.go
package analysis

import (
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/xkilldash9x/refine-cli/api/schemas"
	"github.com/xkilldash9x/refine-cli/internal/pysource"
)

const maxWalkDepth = 1000

// signalWalker extracts the complexity signals from one function scope.
// Counters are scoped to the walked subtree; a fresh walker runs per
// function so signals never bleed between definitions.
type signalWalker struct {
	tree *pysource.Tree
	sig  schemas.Signals

	loopDepth int
	compDepth int
	funcName  string
}

// extractSignals walks a single function definition and returns its
// signal set.
func extractSignals(tree *pysource.Tree, fn *sitter.Node) schemas.Signals {
	w := &signalWalker{tree: tree}
	w.visit(fn, 0)
	return w.sig
}

func (w *signalWalker) visit(node *sitter.Node, depth int) {
	if depth > maxWalkDepth {
		return
	}

	switch node.Type() {
	case "function_definition":
		// Nested definitions rebind the recursion target for their body.
		prev := w.funcName
		if name := node.ChildByFieldName("name"); name != nil {
			w.funcName = w.tree.Content(name)
		}
		w.visitChildren(node, depth)
		w.funcName = prev
		return

	case "for_statement", "while_statement":
		w.loopDepth++
		if w.loopDepth > w.sig.MaxLoopNesting {
			w.sig.MaxLoopNesting = w.loopDepth
		}
		w.visitChildren(node, depth)
		w.loopDepth--
		return

	case "list_comprehension", "dictionary_comprehension":
		w.sig.AllocationCount++
		w.compDepth++
		if w.compDepth > w.sig.MaxComprehensionNesting {
			w.sig.MaxComprehensionNesting = w.compDepth
		}
		w.visitChildren(node, depth)
		w.compDepth--
		return

	case "list", "dictionary":
		w.sig.AllocationCount++

	case "call":
		if fn := node.ChildByFieldName("function"); fn != nil &&
			fn.Type() == "identifier" && w.tree.Content(fn) == w.funcName {
			w.sig.IsRecursive = true
			w.sig.RecursiveCallCount++
			// Two or more self-calls in the same body means the
			// recursion tree branches (fib-style).
			if w.sig.RecursiveCallCount > 1 {
				w.sig.HasBranchingRecursion = true
			}
		}

	case "subscript":
		for i := 0; i < int(node.NamedChildCount()); i++ {
			if node.NamedChild(i).Type() == "slice" {
				w.sig.HasSlicing = true
				break
			}
		}

	case "assignment":
		// Halving assignments like mid = (l + r) // 2 mark a candidate
		// logarithmic loop.
		if right := node.ChildByFieldName("right"); right != nil && isHalvingExpr(w.tree, right) {
			w.sig.HasLogHalvingPattern = true
		}
	}

	w.visitChildren(node, depth)
}

func (w *signalWalker) visitChildren(node *sitter.Node, depth int) {
	for i := 0; i < int(node.ChildCount()); i++ {
		w.visit(node.Child(i), depth+1)
	}
}

func isHalvingExpr(tree *pysource.Tree, node *sitter.Node) bool {
	if node.Type() != "binary_operator" {
		return false
	}
	op := node.ChildByFieldName("operator")
	right := node.ChildByFieldName("right")
	if op == nil || right == nil {
		return false
	}
	switch tree.Content(op) {
	case "/", "//":
	default:
		return false
	}
	switch right.Type() {
	case "integer", "float":
		v, err := strconv.ParseFloat(strings.TrimSpace(tree.Content(right)), 64)
		return err == nil && v == 2
	}
	return false
}

// classifyTime turns the signal set into a Big-O label. The recursion
// branch takes priority, and within it the divide-and-conquer shape
// (branching plus slicing) must be tested before plain branching so a
// merge sort is not misread as exponential.
func classifyTime(sig schemas.Signals) string {
	divide := sig.IsRecursive && sig.HasSlicing

	if sig.IsRecursive {
		if sig.HasBranchingRecursion {
			if divide {
				return "O(n log n)"
			}
			return "O(2^n)"
		}
		if sig.HasSlicing {
			// Each linear-recursion level copies an O(n) slice.
			return "O(n^2)"
		}
		return "O(n)"
	}

	// A halving assignment only implies a logarithmic loop when there is
	// exactly one loop level.
	if sig.HasLogHalvingPattern && sig.MaxLoopNesting == 1 {
		return "O(log n)"
	}

	depth := sig.MaxLoopNesting
	if sig.MaxComprehensionNesting > depth {
		depth = sig.MaxComprehensionNesting
	}
	switch depth {
	case 0:
		return "O(1)"
	case 1:
		return "O(n)"
	case 2:
		return "O(n^2)"
	case 3:
		return "O(n^3)"
	}
	return "O(n^" + strconv.Itoa(depth) + ")"
}

// classifySpace estimates auxiliary space. Recursion dominates: the call
// stack (or per-level scratch for divide-and-conquer) is O(n).
func classifySpace(sig schemas.Signals) string {
	if sig.IsRecursive {
		return "O(n)"
	}
	if sig.AllocationCount > 0 {
		if sig.MaxComprehensionNesting >= 2 {
			return "O(n^" + strconv.Itoa(sig.MaxComprehensionNesting) + ")"
		}
		return "O(n)"
	}
	return "O(1)"
}
