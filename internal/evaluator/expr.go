package evaluator

import (
	"strings"

	"bennypowers.dev/scssc/internal/ast"
	"bennypowers.dev/scssc/internal/color"
	"bennypowers.dev/scssc/internal/value"
)

func (e *evaluator) eval(expr ast.Expression) (value.Value, error) {
	switch n := expr.(type) {
	case *ast.NumberLit:
		return value.NewNumber(n.Value, n.Unit), nil
	case *ast.StringLit:
		return e.evalString(n)
	case *ast.ColorLit:
		c, err := color.Parse(n.Text)
		if err != nil {
			return nil, errorf(n, "invalid color %s", n.Text)
		}
		return value.Color{RGBA: c, Original: n.Text}, nil
	case *ast.BoolLit:
		return value.Bool(n.Value), nil
	case *ast.NullLit:
		return value.Null, nil
	case *ast.VarRef:
		return e.lookupVariable(n)
	case *ast.FuncCall:
		return e.evalFuncCall(n)
	case *ast.SpecialFunc:
		text, err := e.interpolate(n.Args)
		if err != nil {
			return nil, err
		}
		return value.Unquoted(n.Name + "(" + text + ")"), nil
	case *ast.BinaryOp:
		return e.evalBinary(n)
	case *ast.UnaryOp:
		return e.evalUnary(n)
	case *ast.ListExpr:
		return e.evalList(n)
	case *ast.MapExpr:
		return e.evalMap(n)
	case *ast.ParenExpr:
		v, err := e.eval(n.Inner)
		if err != nil {
			return nil, err
		}
		return value.WithoutSlash(v), nil
	case *ast.ParentSelector:
		return e.parentSelectorValue(), nil
	}
	return nil, errorf(expr, "unexpected expression %T", expr)
}

func (e *evaluator) evalString(n *ast.StringLit) (value.Value, error) {
	text, err := e.interpolate(n.Text)
	if err != nil {
		return nil, err
	}
	if n.Quoted {
		return value.Quoted(text), nil
	}
	if _, plain := n.Text.AsPlain(); plain {
		if c, ok := color.Named(text); ok {
			return value.Color{RGBA: c, Original: text}, nil
		}
	}
	return value.Unquoted(text), nil
}

// interpolate evaluates text with embedded expressions. Strings are
// inserted without their quotes.
func (e *evaluator) interpolate(in *ast.Interpolation) (string, error) {
	if in == nil {
		return "", nil
	}
	var b strings.Builder
	for _, part := range in.Parts {
		switch p := part.(type) {
		case string:
			b.WriteString(p)
		case ast.Expression:
			v, err := e.eval(p)
			if err != nil {
				return "", err
			}
			if s, ok := v.(value.String); ok {
				b.WriteString(s.Text)
				continue
			}
			text, err := v.CSS(false)
			if err != nil {
				return "", e.located(err, p)
			}
			b.WriteString(text)
		}
	}
	return b.String(), nil
}

// slashOperand reports whether an operand of / keeps the slash when both
// sides are numbers: number literals and nested literal divisions
func slashOperand(expr ast.Expression) bool {
	switch n := expr.(type) {
	case *ast.NumberLit:
		return true
	case *ast.BinaryOp:
		return n.Op == ast.OpDiv && slashOperand(n.Left) && slashOperand(n.Right)
	}
	return false
}

func (e *evaluator) evalBinary(n *ast.BinaryOp) (value.Value, error) {
	left, err := e.eval(n.Left)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case ast.OpAnd:
		if !left.Truthy() {
			return left, nil
		}
		return e.eval(n.Right)
	case ast.OpOr:
		if left.Truthy() {
			return left, nil
		}
		return e.eval(n.Right)
	}

	right, err := e.eval(n.Right)
	if err != nil {
		return nil, err
	}

	var out value.Value
	switch n.Op {
	case ast.OpEq:
		return value.BoolOf(value.Equal(left, right)), nil
	case ast.OpNotEq:
		return value.BoolOf(!value.Equal(left, right)), nil
	case ast.OpLt, ast.OpLtEq, ast.OpGt, ast.OpGtEq:
		c, err := value.Compare(left, right)
		if err != nil {
			return nil, e.located(err, n)
		}
		switch n.Op {
		case ast.OpLt:
			return value.BoolOf(c < 0), nil
		case ast.OpLtEq:
			return value.BoolOf(c <= 0), nil
		case ast.OpGt:
			return value.BoolOf(c > 0), nil
		}
		return value.BoolOf(c >= 0), nil
	case ast.OpAdd:
		out, err = value.Add(left, right)
	case ast.OpSub:
		out, err = value.Sub(left, right)
	case ast.OpMul:
		out, err = value.Mul(left, right)
	case ast.OpMod:
		out, err = value.Mod(left, right)
	case ast.OpDiv:
		ln, lok := left.(value.Number)
		rn, rok := right.(value.Number)
		if lok && rok && slashOperand(n.Left) && slashOperand(n.Right) {
			return value.NewSlash(ln, rn), nil
		}
		out, err = value.Div(value.WithoutSlash(left), value.WithoutSlash(right))
	default:
		return nil, errorf(n, "unexpected operator %s", n.Op)
	}
	if err != nil {
		return nil, e.located(err, n)
	}
	return out, nil
}

func (e *evaluator) evalUnary(n *ast.UnaryOp) (value.Value, error) {
	v, err := e.eval(n.Operand)
	if err != nil {
		return nil, err
	}
	var out value.Value
	switch n.Op {
	case ast.OpNot:
		return value.Not(v), nil
	case ast.OpNeg:
		out, err = value.Negate(value.WithoutSlash(v))
	case ast.OpPos:
		out, err = value.Plus(value.WithoutSlash(v))
	default:
		return nil, errorf(n, "unexpected operator %s", n.Op)
	}
	if err != nil {
		return nil, e.located(err, n)
	}
	return out, nil
}

func (e *evaluator) evalList(n *ast.ListExpr) (value.Value, error) {
	items := make([]value.Value, 0, len(n.Items))
	for _, item := range n.Items {
		v, err := e.eval(item)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	return value.List{Items: items, Sep: listSeparator(n.Separator), Bracketed: n.Bracketed}, nil
}

func listSeparator(s ast.Separator) value.Separator {
	switch s {
	case ast.SepSpace:
		return value.SepSpace
	case ast.SepComma:
		return value.SepComma
	case ast.SepSlash:
		return value.SepSlash
	}
	return value.SepUndecided
}

func (e *evaluator) evalMap(n *ast.MapExpr) (value.Value, error) {
	m := value.NewMap()
	for _, pair := range n.Pairs {
		k, err := e.eval(pair.Key)
		if err != nil {
			return nil, err
		}
		if _, dup := m.Get(k); dup {
			return nil, errorf(pair.Key, "Duplicate key.")
		}
		v, err := e.eval(pair.Value)
		if err != nil {
			return nil, err
		}
		m = m.Set(k, v)
	}
	return m, nil
}

// parentSelectorValue is `&` in SassScript: the current selector list as
// a comma list, or null outside style rules
func (e *evaluator) parentSelectorValue() value.Value {
	if e.selectors == nil {
		return value.Null
	}
	items := make([]value.Value, len(e.selectors))
	for i, sel := range e.selectors {
		items[i] = value.Unquoted(sel)
	}
	return value.NewList(value.SepComma, items...)
}

func (e *evaluator) evalFuncCall(n *ast.FuncCall) (value.Value, error) {
	if n.Namespace == "" && normalizeName(n.Name) == "if" {
		return e.evalIf(n)
	}
	fn, ok, err := e.lookupFunction(n.Namespace, n.Name, n)
	if err != nil {
		return nil, err
	}
	args, err := e.evalArgs(n.Args)
	if err != nil {
		return nil, err
	}
	if !ok {
		return e.plainFunction(n.Name, args, n)
	}
	return e.callFunction(fn, args, n)
}

// evalIf implements if($condition, $if-true, $if-false), evaluating only
// the chosen branch
func (e *evaluator) evalIf(n *ast.FuncCall) (value.Value, error) {
	var cond, ifTrue, ifFalse ast.Expression
	if n.Args != nil {
		for i, arg := range n.Args.Args {
			switch {
			case normalizeName(arg.Name) == "condition" || (arg.Name == "" && i == 0):
				cond = arg.Value
			case normalizeName(arg.Name) == "if-true" || (arg.Name == "" && i == 1):
				ifTrue = arg.Value
			case normalizeName(arg.Name) == "if-false" || (arg.Name == "" && i == 2):
				ifFalse = arg.Value
			default:
				return nil, errorf(n, "No argument named $%s.", arg.Name)
			}
		}
	}
	if cond == nil || ifTrue == nil || ifFalse == nil {
		return nil, errorf(n, "Missing argument for if().")
	}
	c, err := e.eval(cond)
	if err != nil {
		return nil, err
	}
	if c.Truthy() {
		return e.eval(ifTrue)
	}
	return e.eval(ifFalse)
}

// plainFunction renders a call to an unknown function as plain CSS
func (e *evaluator) plainFunction(name string, args *callArgs, at ast.Node) (value.Value, error) {
	if len(args.named) > 0 {
		return nil, errorf(at, "Plain CSS functions don't support keyword arguments.")
	}
	parts := make([]string, 0, len(args.positional))
	for _, v := range args.positional {
		text, err := v.CSS(false)
		if err != nil {
			return nil, e.located(err, at)
		}
		parts = append(parts, text)
	}
	return value.Unquoted(name + "(" + strings.Join(parts, ", ") + ")"), nil
}
