// File: internal/rewrite/unparse.go
package rewrite

import (
	"strings"
)

// The unparser re-serializes the typed tree in canonical form: four
// space indentation, minimal parentheses by operator precedence, one
// statement per line. Comments and blank lines do not survive the
// round trip; Raw statements are re-indented but otherwise verbatim.

const indentUnit = "    "

// Operator precedence, low to high. An operand is parenthesized when
// its own precedence is below what its position requires.
const (
	precLowest = iota
	precOr
	precAnd
	precNot
	precCompare
	precBitOr
	precBitXor
	precBitAnd
	precShift
	precAdd
	precMul
	precUnary
	precPow
	precAtom
)

var binOpPrec = map[string]int{
	"|": precBitOr, "^": precBitXor, "&": precBitAnd,
	"<<": precShift, ">>": precShift,
	"+": precAdd, "-": precAdd,
	"*": precMul, "/": precMul, "//": precMul, "%": precMul, "@": precMul,
	"**": precPow,
}

func unparseModule(m *Module) string {
	var b strings.Builder
	writeBlock(&b, m.Body, 0)
	return b.String()
}

func writeBlock(b *strings.Builder, stmts []Stmt, indent int) {
	for _, s := range stmts {
		writeStmt(b, s, indent)
	}
}

func writeStmt(b *strings.Builder, s Stmt, indent int) {
	prefix := strings.Repeat(indentUnit, indent)

	switch st := s.(type) {
	case *FunctionDef:
		for _, d := range st.Decorators {
			b.WriteString(prefix + d + "\n")
		}
		b.WriteString(prefix + "def " + st.Name + st.Params)
		if st.Returns != "" {
			b.WriteString(" -> " + st.Returns)
		}
		b.WriteString(":\n")
		writeBlock(b, nonEmptyBlock(st.Body), indent+1)

	case *ClassDef:
		for _, d := range st.Decorators {
			b.WriteString(prefix + d + "\n")
		}
		b.WriteString(prefix + "class " + st.Name + st.Bases + ":\n")
		writeBlock(b, nonEmptyBlock(st.Body), indent+1)

	case *If:
		b.WriteString(prefix + "if " + unparseExpr(st.Cond, precLowest) + ":\n")
		writeBlock(b, nonEmptyBlock(st.Body), indent+1)
		for _, e := range st.Elifs {
			b.WriteString(prefix + "elif " + unparseExpr(e.Cond, precLowest) + ":\n")
			writeBlock(b, nonEmptyBlock(e.Body), indent+1)
		}
		if len(st.Else) > 0 {
			b.WriteString(prefix + "else:\n")
			writeBlock(b, st.Else, indent+1)
		}

	case *For:
		b.WriteString(prefix + "for " + st.Target + " in " + unparseExpr(st.Iter, precLowest) + ":\n")
		writeBlock(b, nonEmptyBlock(st.Body), indent+1)
		if len(st.Else) > 0 {
			b.WriteString(prefix + "else:\n")
			writeBlock(b, st.Else, indent+1)
		}

	case *While:
		b.WriteString(prefix + "while " + unparseExpr(st.Cond, precLowest) + ":\n")
		writeBlock(b, nonEmptyBlock(st.Body), indent+1)
		if len(st.Else) > 0 {
			b.WriteString(prefix + "else:\n")
			writeBlock(b, st.Else, indent+1)
		}

	case *Return:
		if st.Value != nil {
			b.WriteString(prefix + "return " + unparseExpr(st.Value, precLowest) + "\n")
		} else {
			b.WriteString(prefix + "return\n")
		}

	case *Assign:
		var parts []string
		for _, t := range st.Targets {
			parts = append(parts, unparseExpr(t, precLowest))
		}
		b.WriteString(prefix + strings.Join(parts, " = ") + " = " + unparseExpr(st.Value, precLowest) + "\n")

	case *AugAssign:
		b.WriteString(prefix + unparseExpr(st.Target, precLowest) + " " + st.Op + " " +
			unparseExpr(st.Value, precLowest) + "\n")

	case *ExprStmt:
		b.WriteString(prefix + unparseExpr(st.Value, precLowest) + "\n")

	case *Raw:
		writeRaw(b, st, prefix)
	}
}

// writeRaw re-indents a verbatim statement: the first line gets the
// current indent; continuation lines shed the statement's original
// column and take the new base.
func writeRaw(b *strings.Builder, r *Raw, prefix string) {
	lines := strings.Split(r.Text, "\n")
	b.WriteString(prefix + lines[0] + "\n")
	for _, line := range lines[1:] {
		stripped := line
		for i := 0; i < r.Col && len(stripped) > 0 && (stripped[0] == ' ' || stripped[0] == '\t'); i++ {
			stripped = stripped[1:]
		}
		b.WriteString(prefix + stripped + "\n")
	}
}

func unparseExpr(e Expr, minPrec int) string {
	text, prec := renderExpr(e)
	if prec < minPrec {
		return "(" + text + ")"
	}
	return text
}

// renderExpr returns the expression text and its own precedence.
func renderExpr(e Expr) (string, int) {
	switch ex := e.(type) {
	case *Name:
		return ex.ID, precAtom
	case *NumberLit:
		return ex.Text, precAtom
	case *StringLit:
		return ex.Text, precAtom
	case *BoolLit:
		if ex.Value {
			return "True", precAtom
		}
		return "False", precAtom
	case *NoneLit:
		return "None", precAtom

	case *BinOp:
		prec, ok := binOpPrec[ex.Op]
		if !ok {
			prec = precAdd
		}
		// Left associative except **.
		leftMin, rightMin := prec, prec+1
		if ex.Op == "**" {
			leftMin, rightMin = prec+1, prec
		}
		return unparseExpr(ex.Left, leftMin) + " " + ex.Op + " " + unparseExpr(ex.Right, rightMin), prec

	case *UnaryOp:
		return ex.Op + unparseExpr(ex.Operand, precUnary), precUnary

	case *NotOp:
		return "not " + unparseExpr(ex.Operand, precNot), precNot

	case *BoolOp:
		prec := precAnd
		if ex.Op == "or" {
			prec = precOr
		}
		var parts []string
		for _, v := range ex.Values {
			parts = append(parts, unparseExpr(v, prec+1))
		}
		return strings.Join(parts, " "+ex.Op+" "), prec

	case *Compare:
		out := unparseExpr(ex.Left, precCompare+1)
		for i, op := range ex.Ops {
			out += " " + op + " " + unparseExpr(ex.Comparators[i], precCompare+1)
		}
		return out, precCompare

	case *Call:
		var args []string
		for _, a := range ex.Args {
			args = append(args, unparseExpr(a, precLowest))
		}
		return unparseExpr(ex.Func, precAtom) + "(" + strings.Join(args, ", ") + ")", precAtom

	case *Attribute:
		return unparseExpr(ex.Value, precAtom) + "." + ex.Attr, precAtom

	case *ListComp:
		return "[" + unparseExpr(ex.Elt, precLowest) + " for " + ex.Target + " in " +
			unparseExpr(ex.Iter, precLowest) + "]", precAtom

	case *RawExpr:
		return ex.Text, rawExprPrecedence(ex.Text)
	}
	return "", precAtom
}

// rawExprPrecedence guesses whether verbatim expression text is atomic.
// Anything with top-level spaces or operator characters is treated as
// lowest precedence so embedding it always parenthesizes; brackets and
// quotes suppress the scan inside their spans.
func rawExprPrecedence(text string) int {
	depth := 0
	var quote byte
	for i := 0; i < len(text); i++ {
		c := text[i]
		if quote != 0 {
			if c == quote && (i == 0 || text[i-1] != '\\') {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		default:
			if depth == 0 && strings.IndexByte(" \t+-*/%<>=!|&^~,", c) >= 0 {
				return precLowest
			}
		}
	}
	return precAtom
}
