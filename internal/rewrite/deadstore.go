// File: internal/rewrite/deadstore.go
package rewrite

import "regexp"

var identPattern = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

// removeDeadStores deletes assignments whose simple-name targets are
// never read anywhere in the module. The load scan is deliberately
// conservative: every identifier inside verbatim Raw text counts as a
// read, so opaque constructs can never be broken by the removal. Runs
// to a fixpoint because deleting one store can orphan another.
func removeDeadStores(m *Module) *Module {
	for i := 0; i < 100; i++ {
		used := map[string]struct{}{}
		collectLoadsBlock(m.Body, used)

		changed := false
		m.Body = filterDead(m.Body, used, &changed)
		if !changed {
			break
		}
	}
	return m
}

func filterDead(stmts []Stmt, used map[string]struct{}, changed *bool) []Stmt {
	var out []Stmt
	for _, s := range stmts {
		switch st := s.(type) {
		case *Assign:
			if allTargetsUnread(st.Targets, used) {
				*changed = true
				continue
			}
		case *FunctionDef:
			st.Body = nonEmptyBlock(filterDead(st.Body, used, changed))
		case *ClassDef:
			st.Body = nonEmptyBlock(filterDead(st.Body, used, changed))
		case *If:
			st.Body = nonEmptyBlock(filterDead(st.Body, used, changed))
			for i := range st.Elifs {
				st.Elifs[i].Body = nonEmptyBlock(filterDead(st.Elifs[i].Body, used, changed))
			}
			st.Else = filterDead(st.Else, used, changed)
		case *For:
			st.Body = nonEmptyBlock(filterDead(st.Body, used, changed))
			st.Else = filterDead(st.Else, used, changed)
		case *While:
			st.Body = nonEmptyBlock(filterDead(st.Body, used, changed))
			st.Else = filterDead(st.Else, used, changed)
		}
		out = append(out, s)
	}
	return out
}

// allTargetsUnread is true only when every target is a plain name with
// no recorded read. Any non-name target keeps the statement.
func allTargetsUnread(targets []Expr, used map[string]struct{}) bool {
	for _, t := range targets {
		name, ok := t.(*Name)
		if !ok {
			return false
		}
		if _, read := used[name.ID]; read {
			return false
		}
	}
	return true
}

func collectLoadsBlock(stmts []Stmt, used map[string]struct{}) {
	for _, s := range stmts {
		collectLoadsStmt(s, used)
	}
}

func collectLoadsStmt(s Stmt, used map[string]struct{}) {
	switch st := s.(type) {
	case *FunctionDef:
		// Parameter defaults and annotations may read module names.
		collectIdentifiers(st.Params, used)
		collectIdentifiers(st.Returns, used)
		collectLoadsBlock(st.Body, used)
	case *ClassDef:
		collectIdentifiers(st.Bases, used)
		collectLoadsBlock(st.Body, used)
	case *If:
		collectLoadsExpr(st.Cond, used)
		collectLoadsBlock(st.Body, used)
		for _, e := range st.Elifs {
			collectLoadsExpr(e.Cond, used)
			collectLoadsBlock(e.Body, used)
		}
		collectLoadsBlock(st.Else, used)
	case *For:
		collectLoadsExpr(st.Iter, used)
		collectLoadsBlock(st.Body, used)
		collectLoadsBlock(st.Else, used)
	case *While:
		collectLoadsExpr(st.Cond, used)
		collectLoadsBlock(st.Body, used)
		collectLoadsBlock(st.Else, used)
	case *Return:
		collectLoadsExpr(st.Value, used)
	case *Assign:
		collectLoadsExpr(st.Value, used)
		// Targets are stores, but a subscript or attribute target reads
		// its base; only skip plain names.
		for _, t := range st.Targets {
			if _, plain := t.(*Name); !plain {
				collectLoadsExpr(t, used)
			}
		}
	case *AugAssign:
		// x += v reads x.
		collectLoadsExpr(st.Target, used)
		collectLoadsExpr(st.Value, used)
	case *ExprStmt:
		collectLoadsExpr(st.Value, used)
	case *Raw:
		collectIdentifiers(st.Text, used)
	}
}

func collectLoadsExpr(e Expr, used map[string]struct{}) {
	switch ex := e.(type) {
	case nil:
	case *Name:
		used[ex.ID] = struct{}{}
	case *BinOp:
		collectLoadsExpr(ex.Left, used)
		collectLoadsExpr(ex.Right, used)
	case *UnaryOp:
		collectLoadsExpr(ex.Operand, used)
	case *NotOp:
		collectLoadsExpr(ex.Operand, used)
	case *BoolOp:
		for _, v := range ex.Values {
			collectLoadsExpr(v, used)
		}
	case *Compare:
		collectLoadsExpr(ex.Left, used)
		for _, c := range ex.Comparators {
			collectLoadsExpr(c, used)
		}
	case *Call:
		collectLoadsExpr(ex.Func, used)
		for _, a := range ex.Args {
			collectLoadsExpr(a, used)
		}
	case *Attribute:
		collectLoadsExpr(ex.Value, used)
	case *ListComp:
		collectLoadsExpr(ex.Elt, used)
		collectLoadsExpr(ex.Iter, used)
		collectIdentifiers(ex.Target, used)
	case *RawExpr:
		collectIdentifiers(ex.Text, used)
	}
}

func collectIdentifiers(text string, used map[string]struct{}) {
	for _, id := range identPattern.FindAllString(text, -1) {
		used[id] = struct{}{}
	}
}
