// File: internal/rewrite/ast.go

// Package rewrite implements the deterministic level-one optimizer: a
// fixed sequence of local, semantics-preserving tree rewrites applied to
// a small typed statement/expression tree and re-serialized to text.
// Constructs outside the rewrite rules are carried verbatim through Raw
// nodes so the round trip never loses code it does not understand.
package rewrite

// Stmt is a statement node.
type Stmt interface{ stmtNode() }

// Expr is an expression node.
type Expr interface{ exprNode() }

// Module is the root of a parsed source file.
type Module struct {
	Body []Stmt
}

// FunctionDef keeps the parameter list and return annotation as raw
// text; only the body participates in rewriting.
type FunctionDef struct {
	Decorators []string
	Name       string
	Params     string // raw, including parentheses
	Returns    string // raw annotation, empty when absent
	Body       []Stmt
}

// ClassDef keeps its superclass list raw, same as FunctionDef params.
type ClassDef struct {
	Decorators []string
	Name       string
	Bases      string // raw, including parentheses, empty when absent
	Body       []Stmt
}

// ElifBranch is one elif arm of an If.
type ElifBranch struct {
	Cond Expr
	Body []Stmt
}

type If struct {
	Cond  Expr
	Body  []Stmt
	Elifs []ElifBranch
	Else  []Stmt
}

type For struct {
	Target string // raw target expression(s)
	Iter   Expr
	Body   []Stmt
	Else   []Stmt
}

type While struct {
	Cond Expr
	Body []Stmt
	Else []Stmt
}

type Return struct {
	Value Expr // nil for a bare return
}

// Assign covers chained assignment: a = b = value.
type Assign struct {
	Targets []Expr
	Value   Expr
}

type AugAssign struct {
	Target Expr
	Op     string // "+=", "-=", ...
	Value  Expr
}

type ExprStmt struct {
	Value Expr
}

// Raw is a verbatim statement the rewriter does not model (imports,
// try/except, with, match, ...). Col records the statement's start
// column so multi-line text can be re-indented on output.
type Raw struct {
	Text string
	Col  int
}

func (*FunctionDef) stmtNode() {}
func (*ClassDef) stmtNode()    {}
func (*If) stmtNode()          {}
func (*For) stmtNode()         {}
func (*While) stmtNode()       {}
func (*Return) stmtNode()      {}
func (*Assign) stmtNode()      {}
func (*AugAssign) stmtNode()   {}
func (*ExprStmt) stmtNode()    {}
func (*Raw) stmtNode()         {}

// Name is a simple identifier reference.
type Name struct {
	ID string
}

// NumberLit keeps both the literal text and a parsed value so constant
// folding can do arithmetic without reformatting untouched literals.
type NumberLit struct {
	Text    string
	IsInt   bool
	IntVal  int64
	FloatVal float64
}

type StringLit struct {
	Text string // raw, including quotes
}

type BoolLit struct {
	Value bool
}

type NoneLit struct{}

type BinOp struct {
	Left  Expr
	Op    string
	Right Expr
}

// UnaryOp is an arithmetic/bitwise unary: -, +, ~.
type UnaryOp struct {
	Op      string
	Operand Expr
}

// NotOp is boolean negation, modeled separately because two rewrite
// rules target it directly.
type NotOp struct {
	Operand Expr
}

// BoolOp is a flattened and/or chain: a and b and c has three values.
type BoolOp struct {
	Op     string // "and" or "or"
	Values []Expr
}

type Compare struct {
	Left        Expr
	Ops         []string
	Comparators []Expr
}

type Call struct {
	Func Expr
	Args []Expr
}

type Attribute struct {
	Value Expr
	Attr  string
}

// ListComp models only the single-clause form the append-fusion rule
// produces; anything richer stays a RawExpr.
type ListComp struct {
	Elt    Expr
	Target string // raw loop target
	Iter   Expr
}

// RawExpr is a verbatim expression fallback.
type RawExpr struct {
	Text string
}

func (*Name) exprNode()      {}
func (*NumberLit) exprNode() {}
func (*StringLit) exprNode() {}
func (*BoolLit) exprNode()   {}
func (*NoneLit) exprNode()   {}
func (*BinOp) exprNode()     {}
func (*UnaryOp) exprNode()   {}
func (*NotOp) exprNode()     {}
func (*BoolOp) exprNode()    {}
func (*Compare) exprNode()   {}
func (*Call) exprNode()      {}
func (*Attribute) exprNode() {}
func (*ListComp) exprNode()  {}
func (*RawExpr) exprNode()   {}

// numberZero and numberOne test literal numeric values.
func numberIs(e Expr, v float64) bool {
	n, ok := e.(*NumberLit)
	if !ok {
		return false
	}
	if n.IsInt {
		return float64(n.IntVal) == v
	}
	return n.FloatVal == v
}

func intLit(v int64) *NumberLit {
	return &NumberLit{Text: formatInt(v), IsInt: true, IntVal: v, FloatVal: float64(v)}
}
