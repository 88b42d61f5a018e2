// File: internal/rewrite/passes.go
package rewrite

import (
	"math"
	"strconv"
	"strings"
)

// transform applies the rewrite rules post-order: children first, then
// the node itself, so a folded subexpression can enable a parent rule
// within the same pass.

func transformModule(m *Module) *Module {
	return &Module{Body: transformBlock(m.Body)}
}

func transformBlock(stmts []Stmt) []Stmt {
	var out []Stmt
	for _, s := range stmts {
		out = append(out, transformStmt(s)...)
	}
	return out
}

// transformStmt returns the statement's replacement, which may be empty
// (statement removed) or several statements (a collapsed branch spliced
// into the parent block).
func transformStmt(s Stmt) []Stmt {
	switch st := s.(type) {
	case *FunctionDef:
		st.Body = nonEmptyBlock(transformBlock(st.Body))
		return []Stmt{st}

	case *ClassDef:
		st.Body = nonEmptyBlock(transformBlock(st.Body))
		return []Stmt{st}

	case *If:
		return transformIf(st)

	case *For:
		st.Iter = transformExpr(st.Iter)
		st.Body = nonEmptyBlock(transformBlock(st.Body))
		st.Else = transformBlock(st.Else)
		if fused := fuseAppendLoop(st); fused != nil {
			return []Stmt{fused}
		}
		return []Stmt{st}

	case *While:
		st.Cond = transformExpr(st.Cond)
		st.Body = nonEmptyBlock(transformBlock(st.Body))
		st.Else = transformBlock(st.Else)
		return []Stmt{st}

	case *Return:
		if st.Value != nil {
			st.Value = transformExpr(st.Value)
		}
		return []Stmt{st}

	case *Assign:
		for i := range st.Targets {
			st.Targets[i] = transformExpr(st.Targets[i])
		}
		st.Value = transformExpr(st.Value)
		if isSelfAssign(st) {
			return nil
		}
		return []Stmt{st}

	case *AugAssign:
		st.Value = transformExpr(st.Value)
		return []Stmt{st}

	case *ExprStmt:
		st.Value = transformExpr(st.Value)
		return []Stmt{st}
	}
	return []Stmt{s}
}

func transformIf(st *If) []Stmt {
	st.Cond = transformExpr(st.Cond)
	st.Body = nonEmptyBlock(transformBlock(st.Body))
	for i := range st.Elifs {
		st.Elifs[i].Cond = transformExpr(st.Elifs[i].Cond)
		st.Elifs[i].Body = nonEmptyBlock(transformBlock(st.Elifs[i].Body))
	}
	st.Else = transformBlock(st.Else)

	// if True: take the branch; if False: promote the next arm.
	if lit, ok := st.Cond.(*BoolLit); ok {
		if lit.Value {
			return st.Body
		}
		if len(st.Elifs) > 0 {
			next := &If{Cond: st.Elifs[0].Cond, Body: st.Elifs[0].Body, Elifs: st.Elifs[1:], Else: st.Else}
			return transformIf(next)
		}
		return st.Else
	}

	// if cond: x = True else: x = False  ->  x = cond
	if len(st.Elifs) == 0 && len(st.Body) == 1 && len(st.Else) == 1 {
		a1, ok1 := st.Body[0].(*Assign)
		a2, ok2 := st.Else[0].(*Assign)
		if ok1 && ok2 && boolLitIs(a1.Value, true) && boolLitIs(a2.Value, false) &&
			sameTargets(a1.Targets, a2.Targets) {
			return []Stmt{&Assign{Targets: a1.Targets, Value: st.Cond}}
		}
	}
	return []Stmt{st}
}

// fuseAppendLoop rewrites a loop whose sole body statement is
// xs.append(expr) into xs = [expr for target in iter].
func fuseAppendLoop(st *For) Stmt {
	if len(st.Body) != 1 || len(st.Else) != 0 {
		return nil
	}
	es, ok := st.Body[0].(*ExprStmt)
	if !ok {
		return nil
	}
	call, ok := es.Value.(*Call)
	if !ok || len(call.Args) != 1 {
		return nil
	}
	attr, ok := call.Func.(*Attribute)
	if !ok || attr.Attr != "append" {
		return nil
	}
	return &Assign{
		Targets: []Expr{attr.Value},
		Value:   &ListComp{Elt: call.Args[0], Target: st.Target, Iter: st.Iter},
	}
}

func transformExpr(e Expr) Expr {
	switch ex := e.(type) {
	case *BinOp:
		ex.Left = transformExpr(ex.Left)
		ex.Right = transformExpr(ex.Right)
		return simplifyBinOp(ex)

	case *UnaryOp:
		ex.Operand = transformExpr(ex.Operand)
		return ex

	case *NotOp:
		ex.Operand = transformExpr(ex.Operand)
		// not not x -> x
		if inner, ok := ex.Operand.(*NotOp); ok {
			return inner.Operand
		}
		return ex

	case *BoolOp:
		for i := range ex.Values {
			ex.Values[i] = transformExpr(ex.Values[i])
		}
		return simplifyBoolOp(ex)

	case *Compare:
		ex.Left = transformExpr(ex.Left)
		for i := range ex.Comparators {
			ex.Comparators[i] = transformExpr(ex.Comparators[i])
		}
		return simplifyCompare(ex)

	case *Call:
		ex.Func = transformExpr(ex.Func)
		for i := range ex.Args {
			ex.Args[i] = transformExpr(ex.Args[i])
		}
		return ex

	case *Attribute:
		ex.Value = transformExpr(ex.Value)
		return ex

	case *ListComp:
		ex.Elt = transformExpr(ex.Elt)
		ex.Iter = transformExpr(ex.Iter)
		return ex
	}
	return e
}

// simplifyBinOp folds constant numeric subexpressions and applies the
// additive/multiplicative identities.
func simplifyBinOp(b *BinOp) Expr {
	if folded := foldConstants(b); folded != nil {
		return folded
	}

	switch b.Op {
	case "+":
		if numberIs(b.Right, 0) {
			return b.Left
		}
		if numberIs(b.Left, 0) {
			return b.Right
		}
	case "*":
		if numberIs(b.Right, 1) {
			return b.Left
		}
		if numberIs(b.Left, 1) {
			return b.Right
		}
		if numberIs(b.Right, 0) || numberIs(b.Left, 0) {
			return intLit(0)
		}
	}
	return b
}

// foldConstants evaluates number-literal operations. Operations whose
// semantics diverge between languages for negative operands (floor
// division, modulo) fold only when both sides are non-negative.
func foldConstants(b *BinOp) Expr {
	left, lok := b.Left.(*NumberLit)
	right, rok := b.Right.(*NumberLit)
	if !lok || !rok {
		return nil
	}

	if left.IsInt && right.IsInt {
		l, r := left.IntVal, right.IntVal
		switch b.Op {
		case "+":
			return intLit(l + r)
		case "-":
			return intLit(l - r)
		case "*":
			return intLit(l * r)
		case "//":
			if r > 0 && l >= 0 {
				return intLit(l / r)
			}
		case "%":
			if r > 0 && l >= 0 {
				return intLit(l % r)
			}
		case "**":
			if r >= 0 && r < 63 {
				if v, ok := intPow(l, r); ok {
					return intLit(v)
				}
			}
		case "/":
			if r != 0 {
				return floatLit(float64(l) / float64(r))
			}
		}
		return nil
	}

	l, r := left.FloatVal, right.FloatVal
	switch b.Op {
	case "+":
		return floatLit(l + r)
	case "-":
		return floatLit(l - r)
	case "*":
		return floatLit(l * r)
	case "/":
		if r != 0 {
			return floatLit(l / r)
		}
	case "**":
		v := math.Pow(l, r)
		if !math.IsInf(v, 0) && !math.IsNaN(v) {
			return floatLit(v)
		}
	}
	return nil
}

func intPow(base, exp int64) (int64, bool) {
	result := int64(1)
	for i := int64(0); i < exp; i++ {
		next := result * base
		if base != 0 && next/base != result {
			return 0, false
		}
		result = next
	}
	return result, true
}

func floatLit(v float64) *NumberLit {
	text := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(text, ".eE") {
		text += ".0"
	}
	return &NumberLit{Text: text, FloatVal: v}
}

func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}

// simplifyBoolOp drops literal-true operands from a conjunction and
// collapses what remains.
func simplifyBoolOp(b *BoolOp) Expr {
	if b.Op != "and" {
		return b
	}
	var kept []Expr
	for _, v := range b.Values {
		if boolLitIs(v, true) {
			continue
		}
		kept = append(kept, v)
	}
	switch len(kept) {
	case 0:
		// Every operand was the literal True.
		return &BoolLit{Value: true}
	case 1:
		return kept[0]
	}
	b.Values = kept
	return b
}

// simplifyCompare substitutes the emptiness idiom: len(x) == 0 -> not x.
func simplifyCompare(c *Compare) Expr {
	if len(c.Ops) != 1 || c.Ops[0] != "==" {
		return c
	}
	call, ok := c.Left.(*Call)
	if !ok || len(call.Args) != 1 {
		return c
	}
	fn, ok := call.Func.(*Name)
	if !ok || fn.ID != "len" {
		return c
	}
	if !numberIs(c.Comparators[0], 0) {
		return c
	}
	return &NotOp{Operand: call.Args[0]}
}

func isSelfAssign(a *Assign) bool {
	if len(a.Targets) != 1 {
		return false
	}
	t, ok1 := a.Targets[0].(*Name)
	v, ok2 := a.Value.(*Name)
	return ok1 && ok2 && t.ID == v.ID
}

func boolLitIs(e Expr, v bool) bool {
	lit, ok := e.(*BoolLit)
	return ok && lit.Value == v
}

func sameTargets(a, b []Expr) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		an, ok1 := a[i].(*Name)
		bn, ok2 := b[i].(*Name)
		if !ok1 || !ok2 || an.ID != bn.ID {
			return false
		}
	}
	return true
}

// nonEmptyBlock guards bodies that rewrote away entirely; Python blocks
// cannot be empty, so substitute a pass.
func nonEmptyBlock(stmts []Stmt) []Stmt {
	if len(stmts) == 0 {
		return []Stmt{&Raw{Text: "pass"}}
	}
	return stmts
}
