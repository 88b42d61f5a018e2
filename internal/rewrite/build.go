// File: internal/rewrite/build.go
package rewrite

import (
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/xkilldash9x/refine-cli/internal/pysource"
)

// builder converts the concrete parse tree into the rewriter's typed
// tree. Anything it does not model becomes Raw / RawExpr, preserving
// the source text byte for byte.
type builder struct {
	tree *pysource.Tree
}

func buildModule(tree *pysource.Tree) *Module {
	b := &builder{tree: tree}
	return &Module{Body: b.buildBlock(tree.Root())}
}

// buildBlock converts the named statement children of a module or block
// node. Comment nodes are dropped, matching canonical re-serialization.
func (b *builder) buildBlock(node *sitter.Node) []Stmt {
	var stmts []Stmt
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() == "comment" {
			continue
		}
		if s := b.buildStmt(child); s != nil {
			stmts = append(stmts, s)
		}
	}
	return stmts
}

func (b *builder) buildStmt(node *sitter.Node) Stmt {
	switch node.Type() {
	case "expression_statement":
		// An expression_statement wraps assignments as well as bare
		// expressions.
		if node.NamedChildCount() == 1 {
			inner := node.NamedChild(0)
			switch inner.Type() {
			case "assignment":
				if s := b.buildAssign(inner); s != nil {
					return s
				}
			case "augmented_assignment":
				if s := b.buildAugAssign(inner); s != nil {
					return s
				}
			default:
				return &ExprStmt{Value: b.buildExpr(inner)}
			}
		}
		return b.raw(node)

	case "if_statement":
		return b.buildIf(node)

	case "for_statement":
		if hasChildToken(node, "async") {
			return b.raw(node)
		}
		left := node.ChildByFieldName("left")
		right := node.ChildByFieldName("right")
		body := node.ChildByFieldName("body")
		if left == nil || right == nil || body == nil {
			return b.raw(node)
		}
		return &For{
			Target: b.tree.Content(left),
			Iter:   b.buildExpr(right),
			Body:   b.buildBlock(body),
			Else:   b.buildElse(node),
		}

	case "while_statement":
		cond := node.ChildByFieldName("condition")
		body := node.ChildByFieldName("body")
		if cond == nil || body == nil {
			return b.raw(node)
		}
		return &While{
			Cond: b.buildExpr(cond),
			Body: b.buildBlock(body),
			Else: b.buildElse(node),
		}

	case "return_statement":
		if node.NamedChildCount() > 0 {
			return &Return{Value: b.buildExpr(node.NamedChild(0))}
		}
		return &Return{}

	case "function_definition":
		return b.buildFunctionDef(node, nil)

	case "class_definition":
		return b.buildClassDef(node, nil)

	case "decorated_definition":
		var decorators []string
		for i := 0; i < int(node.NamedChildCount()); i++ {
			child := node.NamedChild(i)
			if child.Type() == "decorator" {
				decorators = append(decorators, b.tree.Content(child))
			}
		}
		if def := node.ChildByFieldName("definition"); def != nil {
			switch def.Type() {
			case "function_definition":
				return b.buildFunctionDef(def, decorators)
			case "class_definition":
				return b.buildClassDef(def, decorators)
			}
		}
		return b.raw(node)
	}

	return b.raw(node)
}

func (b *builder) buildFunctionDef(node *sitter.Node, decorators []string) Stmt {
	name := node.ChildByFieldName("name")
	params := node.ChildByFieldName("parameters")
	body := node.ChildByFieldName("body")
	if name == nil || params == nil || body == nil {
		return b.raw(node)
	}
	if hasChildToken(node, "async") {
		return b.raw(node)
	}
	fn := &FunctionDef{
		Decorators: decorators,
		Name:       b.tree.Content(name),
		Params:     b.tree.Content(params),
		Body:       b.buildBlock(body),
	}
	if ret := node.ChildByFieldName("return_type"); ret != nil {
		fn.Returns = b.tree.Content(ret)
	}
	return fn
}

func (b *builder) buildClassDef(node *sitter.Node, decorators []string) Stmt {
	name := node.ChildByFieldName("name")
	body := node.ChildByFieldName("body")
	if name == nil || body == nil {
		return b.raw(node)
	}
	cls := &ClassDef{
		Decorators: decorators,
		Name:       b.tree.Content(name),
		Body:       b.buildBlock(body),
	}
	if sup := node.ChildByFieldName("superclasses"); sup != nil {
		cls.Bases = b.tree.Content(sup)
	}
	return cls
}

func (b *builder) buildIf(node *sitter.Node) Stmt {
	cond := node.ChildByFieldName("condition")
	body := node.ChildByFieldName("consequence")
	if cond == nil || body == nil {
		return b.raw(node)
	}
	out := &If{Cond: b.buildExpr(cond), Body: b.buildBlock(body)}

	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "elif_clause":
			ec := child.ChildByFieldName("condition")
			eb := child.ChildByFieldName("consequence")
			if ec == nil || eb == nil {
				return b.raw(node)
			}
			out.Elifs = append(out.Elifs, ElifBranch{Cond: b.buildExpr(ec), Body: b.buildBlock(eb)})
		case "else_clause":
			if eb := child.ChildByFieldName("body"); eb != nil {
				out.Else = b.buildBlock(eb)
			}
		}
	}
	return out
}

func (b *builder) buildElse(node *sitter.Node) []Stmt {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() == "else_clause" {
			if body := child.ChildByFieldName("body"); body != nil {
				return b.buildBlock(body)
			}
		}
	}
	return nil
}

func (b *builder) buildAssign(node *sitter.Node) Stmt {
	left := node.ChildByFieldName("left")
	right := node.ChildByFieldName("right")
	if left == nil || right == nil {
		// Annotated declaration without value: keep raw.
		return nil
	}
	if t := node.ChildByFieldName("type"); t != nil {
		// Annotated assignments stay out of the rewrite rules.
		return nil
	}

	targets := []Expr{b.buildExpr(left)}
	value := right
	// Chained assignment parses as nested assignment nodes on the right.
	for value.Type() == "assignment" {
		l := value.ChildByFieldName("left")
		r := value.ChildByFieldName("right")
		if l == nil || r == nil {
			return nil
		}
		targets = append(targets, b.buildExpr(l))
		value = r
	}
	return &Assign{Targets: targets, Value: b.buildExpr(value)}
}

func (b *builder) buildAugAssign(node *sitter.Node) Stmt {
	left := node.ChildByFieldName("left")
	op := node.ChildByFieldName("operator")
	right := node.ChildByFieldName("right")
	if left == nil || op == nil || right == nil {
		return nil
	}
	return &AugAssign{
		Target: b.buildExpr(left),
		Op:     b.tree.Content(op),
		Value:  b.buildExpr(right),
	}
}

func (b *builder) buildExpr(node *sitter.Node) Expr {
	switch node.Type() {
	case "identifier":
		return &Name{ID: b.tree.Content(node)}

	case "integer":
		text := b.tree.Content(node)
		if v, err := strconv.ParseInt(strings.ReplaceAll(text, "_", ""), 0, 64); err == nil {
			return &NumberLit{Text: text, IsInt: true, IntVal: v, FloatVal: float64(v)}
		}
		return &RawExpr{Text: text}

	case "float":
		text := b.tree.Content(node)
		if v, err := strconv.ParseFloat(strings.ReplaceAll(text, "_", ""), 64); err == nil {
			return &NumberLit{Text: text, FloatVal: v}
		}
		return &RawExpr{Text: text}

	case "string":
		return &StringLit{Text: b.tree.Content(node)}

	case "true":
		return &BoolLit{Value: true}
	case "false":
		return &BoolLit{Value: false}
	case "none":
		return &NoneLit{}

	case "parenthesized_expression":
		if node.NamedChildCount() == 1 {
			return b.buildExpr(node.NamedChild(0))
		}
		return b.rawExpr(node)

	case "binary_operator":
		left := node.ChildByFieldName("left")
		op := node.ChildByFieldName("operator")
		right := node.ChildByFieldName("right")
		if left == nil || op == nil || right == nil {
			return b.rawExpr(node)
		}
		return &BinOp{Left: b.buildExpr(left), Op: b.tree.Content(op), Right: b.buildExpr(right)}

	case "unary_operator":
		op := node.ChildByFieldName("operator")
		arg := node.ChildByFieldName("argument")
		if op == nil || arg == nil {
			return b.rawExpr(node)
		}
		return &UnaryOp{Op: b.tree.Content(op), Operand: b.buildExpr(arg)}

	case "not_operator":
		if arg := node.ChildByFieldName("argument"); arg != nil {
			return &NotOp{Operand: b.buildExpr(arg)}
		}
		return b.rawExpr(node)

	case "boolean_operator":
		return b.buildBoolOp(node)

	case "comparison_operator":
		return b.buildCompare(node)

	case "call":
		fn := node.ChildByFieldName("function")
		args := node.ChildByFieldName("arguments")
		if fn == nil || args == nil || args.Type() != "argument_list" {
			return b.rawExpr(node)
		}
		call := &Call{Func: b.buildExpr(fn)}
		for i := 0; i < int(args.NamedChildCount()); i++ {
			arg := args.NamedChild(i)
			if arg.Type() == "comment" {
				continue
			}
			call.Args = append(call.Args, b.buildExpr(arg))
		}
		return call

	case "attribute":
		obj := node.ChildByFieldName("object")
		attr := node.ChildByFieldName("attribute")
		if obj == nil || attr == nil {
			return b.rawExpr(node)
		}
		return &Attribute{Value: b.buildExpr(obj), Attr: b.tree.Content(attr)}
	}

	return b.rawExpr(node)
}

// buildBoolOp flattens a nested and/or chain of the same operator into
// one node so the simplification rule sees every operand at once.
func (b *builder) buildBoolOp(node *sitter.Node) Expr {
	op := node.ChildByFieldName("operator")
	left := node.ChildByFieldName("left")
	right := node.ChildByFieldName("right")
	if op == nil || left == nil || right == nil {
		return b.rawExpr(node)
	}
	opText := b.tree.Content(op)

	out := &BoolOp{Op: opText}
	var flatten func(n *sitter.Node)
	flatten = func(n *sitter.Node) {
		if n.Type() == "boolean_operator" {
			if o := n.ChildByFieldName("operator"); o != nil && b.tree.Content(o) == opText {
				flatten(n.ChildByFieldName("left"))
				flatten(n.ChildByFieldName("right"))
				return
			}
		}
		out.Values = append(out.Values, b.buildExpr(n))
	}
	flatten(node)
	return out
}

func (b *builder) buildCompare(node *sitter.Node) Expr {
	var operands []Expr
	var ops []string
	pendingOp := ""
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.IsNamed() {
			if child.Type() == "comment" {
				continue
			}
			if pendingOp != "" {
				ops = append(ops, pendingOp)
				pendingOp = ""
			}
			operands = append(operands, b.buildExpr(child))
		} else {
			// "not in" and "is not" arrive as two tokens.
			if pendingOp != "" {
				pendingOp += " " + b.tree.Content(child)
			} else {
				pendingOp = b.tree.Content(child)
			}
		}
	}
	if len(operands) < 2 || len(ops) != len(operands)-1 {
		return b.rawExpr(node)
	}
	return &Compare{Left: operands[0], Ops: ops, Comparators: operands[1:]}
}

func (b *builder) raw(node *sitter.Node) *Raw {
	return &Raw{Text: b.tree.Content(node), Col: int(node.StartPoint().Column)}
}

func (b *builder) rawExpr(node *sitter.Node) *RawExpr {
	return &RawExpr{Text: b.tree.Content(node)}
}

func hasChildToken(node *sitter.Node, token string) bool {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if !child.IsNamed() && child.Type() == token {
			return true
		}
	}
	return false
}
