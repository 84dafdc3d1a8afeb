package ast

// StyleRule is a selector with a block: `.a { ... }`
type StyleRule struct {
	Selector *Interpolation
	Children []Statement
	Span     Span
}

// Declaration is a property declaration: `color: red;`
// Nested property blocks (`font: { family: x; }`) are kept in Children.
type Declaration struct {
	Name     *Interpolation
	Value    Expression
	Children []Statement
	// Custom marks a custom property (--name) whose value is raw text
	Custom bool
	Span   Span
}

// VariableDecl assigns a variable: `$x: 1 !default;`
type VariableDecl struct {
	Namespace string
	Name      string
	Value     Expression
	Default   bool
	Global    bool
	Span      Span
}

// MixinDef defines a mixin
type MixinDef struct {
	Name   string
	Params *ParameterList
	Body   []Statement
	// HasContent is true if the body contains @content
	HasContent bool
	Span       Span
}

// FunctionDef defines a function
type FunctionDef struct {
	Name   string
	Params *ParameterList
	Body   []Statement
	Span   Span
}

// ReturnRule returns from a function
type ReturnRule struct {
	Value Expression
	Span  Span
}

// ContentBlock is the block passed to a mixin by @include
type ContentBlock struct {
	Params *ParameterList
	Body   []Statement
	Span   Span
}

// IncludeRule invokes a mixin
type IncludeRule struct {
	Namespace string
	Name      string
	Args      *ArgumentList
	Content   *ContentBlock
	Span      Span
}

// ContentRule emits the content block passed to the enclosing mixin
type ContentRule struct {
	Args *ArgumentList
	Span Span
}

// IfClause is one branch of an @if chain; Condition is nil for @else
type IfClause struct {
	Condition Expression
	Body      []Statement
	Span      Span
}

// IfRule is @if / @else if / @else
type IfRule struct {
	Clauses []*IfClause
	Span    Span
}

// EachRule is @each $a, $b in <list or map>
type EachRule struct {
	Variables []string
	List      Expression
	Body      []Statement
	Span      Span
}

// ForRule is @for $i from a through|to b
type ForRule struct {
	Variable  string
	From      Expression
	To        Expression
	Inclusive bool
	Body      []Statement
	Span      Span
}

// WhileRule is @while <condition>
type WhileRule struct {
	Condition Expression
	Body      []Statement
	Span      Span
}

// Import is one URL of an @import rule
type Import struct {
	URL string
	// Plain imports are emitted as CSS @import instead of being loaded
	Plain bool
	// Raw is the original text of a plain import, including url() and media queries
	Raw  *Interpolation
	Span Span
}

// ImportRule is @import "a", "b";
type ImportRule struct {
	Imports []*Import
	Span    Span
}

// ConfiguredVariable is one entry of a `with (...)` clause
type ConfiguredVariable struct {
	Name    string
	Value   Expression
	Default bool
	Span    Span
}

// UseRule is @use "url" as ns with (...)
type UseRule struct {
	URL string
	// Namespace is "*" for `as *`, otherwise the namespace name
	Namespace string
	Config    []*ConfiguredVariable
	Span      Span
}

// ForwardRule is @forward "url" as prefix-* show/hide ...
type ForwardRule struct {
	URL    string
	Prefix string
	// Show and Hide hold member names; variables keep their leading $
	Show   []string
	Hide   []string
	Config []*ConfiguredVariable
	Span   Span
}

// ExtendRule is @extend <selector> [!optional]
type ExtendRule struct {
	Selector *Interpolation
	Optional bool
	Span     Span
}

// AtRootRule is @at-root [selector] { ... }
type AtRootRule struct {
	Selector *Interpolation
	Body     []Statement
	Span     Span
}

// MediaRule is @media <query> { ... }
type MediaRule struct {
	Query *Interpolation
	Body  []Statement
	Span  Span
}

// SupportsRule is @supports <condition> { ... }
type SupportsRule struct {
	Condition *Interpolation
	Body      []Statement
	Span      Span
}

// AtRule is any other at-rule, passed through to CSS. Body is nil when the
// rule has no block.
type AtRule struct {
	Name   string
	Params *Interpolation
	Body   []Statement
	Span   Span
}

// MessageKind selects between @debug, @warn and @error
type MessageKind int

const (
	MessageDebug MessageKind = iota
	MessageWarn
	MessageError
)

// MessageRule is @debug, @warn or @error
type MessageRule struct {
	Kind  MessageKind
	Value Expression
	Span  Span
}

// Comment is a /* */ comment at statement level
type Comment struct {
	Text string
	// Loud comments (/*! ... */) survive compressed output
	Loud bool
	Span Span
}

func (n *StyleRule) GetSpan() Span    { return n.Span }
func (n *Declaration) GetSpan() Span  { return n.Span }
func (n *VariableDecl) GetSpan() Span { return n.Span }
func (n *MixinDef) GetSpan() Span     { return n.Span }
func (n *FunctionDef) GetSpan() Span  { return n.Span }
func (n *ReturnRule) GetSpan() Span   { return n.Span }
func (n *IncludeRule) GetSpan() Span  { return n.Span }
func (n *ContentRule) GetSpan() Span  { return n.Span }
func (n *IfRule) GetSpan() Span       { return n.Span }
func (n *EachRule) GetSpan() Span     { return n.Span }
func (n *ForRule) GetSpan() Span      { return n.Span }
func (n *WhileRule) GetSpan() Span    { return n.Span }
func (n *ImportRule) GetSpan() Span   { return n.Span }
func (n *UseRule) GetSpan() Span      { return n.Span }
func (n *ForwardRule) GetSpan() Span  { return n.Span }
func (n *ExtendRule) GetSpan() Span   { return n.Span }
func (n *AtRootRule) GetSpan() Span   { return n.Span }
func (n *MediaRule) GetSpan() Span    { return n.Span }
func (n *SupportsRule) GetSpan() Span { return n.Span }
func (n *AtRule) GetSpan() Span       { return n.Span }
func (n *MessageRule) GetSpan() Span  { return n.Span }
func (n *Comment) GetSpan() Span      { return n.Span }

func (*StyleRule) statementNode()    {}
func (*Declaration) statementNode()  {}
func (*VariableDecl) statementNode() {}
func (*MixinDef) statementNode()     {}
func (*FunctionDef) statementNode()  {}
func (*ReturnRule) statementNode()   {}
func (*IncludeRule) statementNode()  {}
func (*ContentRule) statementNode()  {}
func (*IfRule) statementNode()       {}
func (*EachRule) statementNode()     {}
func (*ForRule) statementNode()      {}
func (*WhileRule) statementNode()    {}
func (*ImportRule) statementNode()   {}
func (*UseRule) statementNode()      {}
func (*ForwardRule) statementNode()  {}
func (*ExtendRule) statementNode()   {}
func (*AtRootRule) statementNode()   {}
func (*MediaRule) statementNode()    {}
func (*SupportsRule) statementNode() {}
func (*AtRule) statementNode()       {}
func (*MessageRule) statementNode()  {}
func (*Comment) statementNode()      {}
