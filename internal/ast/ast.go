// Package ast defines the syntax tree produced by the SCSS parser.
//
// Statements and expressions are closed sets of node types distinguished by
// unexported marker methods. A tree owns its children; nodes are never shared
// between parents and are not mutated after parsing.
package ast

import (
	"bennypowers.dev/scssc/internal/diagnostics"
	"bennypowers.dev/scssc/internal/position"
)

// Span is a byte range in a source file
type Span struct {
	File  *position.File
	Start int
	End   int
}

// Location converts the span into a diagnostics location
func (s Span) Location() diagnostics.Location {
	if s.File == nil {
		return diagnostics.Location{Offset: s.Start, End: s.End}
	}
	line, col := s.File.Position(s.Start)
	return diagnostics.Location{
		URL:    s.File.URL,
		Path:   s.File.Path,
		Line:   line,
		Column: col,
		Offset: s.Start,
		End:    s.End,
	}
}

// Text returns the source text covered by the span
func (s Span) Text() string {
	if s.File == nil || s.Start < 0 || s.End > len(s.File.Content) || s.Start > s.End {
		return ""
	}
	return s.File.Content[s.Start:s.End]
}

// Node is implemented by every syntax tree node
type Node interface {
	GetSpan() Span
}

// Statement is a node that may appear in a block
type Statement interface {
	Node
	statementNode()
}

// Expression is a SassScript expression
type Expression interface {
	Node
	expressionNode()
}

// Interpolation is text with embedded expressions, used for selectors,
// property names, at-rule parameters and interpolated strings.
// Each part is either a string or an Expression.
type Interpolation struct {
	Parts []any
	Span  Span
}

func (i *Interpolation) GetSpan() Span { return i.Span }

// AsPlain returns the text if the interpolation has no expressions
func (i *Interpolation) AsPlain() (string, bool) {
	if i == nil {
		return "", true
	}
	text := ""
	for _, p := range i.Parts {
		s, ok := p.(string)
		if !ok {
			return "", false
		}
		text += s
	}
	return text, true
}

// Stylesheet is the root of a parsed file
type Stylesheet struct {
	Children []Statement
	Span     Span
	// Plain is true for .css sources, where Sass features are not evaluated
	Plain bool
}

func (s *Stylesheet) GetSpan() Span { return s.Span }
func (*Stylesheet) statementNode()  {}

// Parameter is one parameter of a mixin or function definition
type Parameter struct {
	Name    string
	Default Expression
	Rest    bool
	Span    Span
}

// ParameterList declares the parameters of a callable
type ParameterList struct {
	Params []*Parameter
	Span   Span
}

// Argument is one argument at a call site
type Argument struct {
	// Name is set for keyword arguments ($name: value)
	Name  string
	Value Expression
	// Rest marks a trailing $args... spread
	Rest bool
}

// ArgumentList is the argument list at a call site
type ArgumentList struct {
	Args []*Argument
	Span Span
}
