package ast

// NumberLit is a number with an optional unit: 10, 1.5em, 50%
type NumberLit struct {
	Value float64
	Unit  string
	Span  Span
}

// StringLit is a quoted or unquoted string, possibly interpolated
type StringLit struct {
	Text   *Interpolation
	Quoted bool
	Span   Span
}

// ColorLit is a hex color literal; named colors are parsed as unquoted
// strings and recognised during evaluation
type ColorLit struct {
	Text string
	Span Span
}

// BoolLit is true or false
type BoolLit struct {
	Value bool
	Span  Span
}

// NullLit is null
type NullLit struct {
	Span Span
}

// VarRef references a variable, optionally through a module namespace
type VarRef struct {
	Namespace string
	Name      string
	Span      Span
}

// FuncCall calls a Sass or plain CSS function
type FuncCall struct {
	Namespace string
	Name      string
	Args      *ArgumentList
	Span      Span
}

// SpecialFunc is a CSS function whose arguments are kept as raw text with
// interpolation, such as calc(), var() or an unquoted url()
type SpecialFunc struct {
	Name string
	Args *Interpolation
	Span Span
}

// Operator is a binary or unary operator
type Operator int

const (
	OpOr Operator = iota
	OpAnd
	OpEq
	OpNotEq
	OpLt
	OpLtEq
	OpGt
	OpGtEq
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpNot
	OpNeg
	OpPos
)

var operatorText = [...]string{
	OpOr:    "or",
	OpAnd:   "and",
	OpEq:    "==",
	OpNotEq: "!=",
	OpLt:    "<",
	OpLtEq:  "<=",
	OpGt:    ">",
	OpGtEq:  ">=",
	OpAdd:   "+",
	OpSub:   "-",
	OpMul:   "*",
	OpDiv:   "/",
	OpMod:   "%",
	OpNot:   "not",
	OpNeg:   "-",
	OpPos:   "+",
}

func (o Operator) String() string {
	if o >= 0 && int(o) < len(operatorText) {
		return operatorText[o]
	}
	return "?"
}

// BinaryOp is a binary operation
type BinaryOp struct {
	Op    Operator
	Left  Expression
	Right Expression
	Span  Span
}

// UnaryOp is a prefix operation: -x, +x, not x
type UnaryOp struct {
	Op      Operator
	Operand Expression
	Span    Span
}

// Separator is the separator of a list
type Separator int

const (
	SepUndecided Separator = iota
	SepSpace
	SepComma
	SepSlash
)

// ListExpr is a space or comma separated list, optionally bracketed
type ListExpr struct {
	Items     []Expression
	Separator Separator
	Bracketed bool
	Span      Span
}

// MapPair is one key: value entry of a map
type MapPair struct {
	Key   Expression
	Value Expression
}

// MapExpr is a map literal: (key: value, ...)
type MapExpr struct {
	Pairs []*MapPair
	Span  Span
}

// ParenExpr is a parenthesized expression. Parentheses turn a slash
// between numbers into division.
type ParenExpr struct {
	Inner Expression
	Span  Span
}

// ParentSelector is `&` used as a value
type ParentSelector struct {
	Span Span
}

func (n *NumberLit) GetSpan() Span      { return n.Span }
func (n *StringLit) GetSpan() Span      { return n.Span }
func (n *ColorLit) GetSpan() Span       { return n.Span }
func (n *BoolLit) GetSpan() Span        { return n.Span }
func (n *NullLit) GetSpan() Span        { return n.Span }
func (n *VarRef) GetSpan() Span         { return n.Span }
func (n *FuncCall) GetSpan() Span       { return n.Span }
func (n *SpecialFunc) GetSpan() Span    { return n.Span }
func (n *BinaryOp) GetSpan() Span       { return n.Span }
func (n *UnaryOp) GetSpan() Span        { return n.Span }
func (n *ListExpr) GetSpan() Span       { return n.Span }
func (n *MapExpr) GetSpan() Span        { return n.Span }
func (n *ParenExpr) GetSpan() Span      { return n.Span }
func (n *ParentSelector) GetSpan() Span { return n.Span }

func (*NumberLit) expressionNode()      {}
func (*StringLit) expressionNode()      {}
func (*ColorLit) expressionNode()       {}
func (*BoolLit) expressionNode()        {}
func (*NullLit) expressionNode()        {}
func (*VarRef) expressionNode()         {}
func (*FuncCall) expressionNode()       {}
func (*SpecialFunc) expressionNode()    {}
func (*BinaryOp) expressionNode()       {}
func (*UnaryOp) expressionNode()        {}
func (*ListExpr) expressionNode()       {}
func (*MapExpr) expressionNode()        {}
func (*ParenExpr) expressionNode()      {}
func (*ParentSelector) expressionNode() {}
