// Package cssout is the flattened, fully evaluated CSS tree the evaluator
// produces and the emitter serializes. Style rules never contain other
// style rules; nesting has already been resolved into selector text.
package cssout

import (
	"bennypowers.dev/scssc/internal/ast"
	"bennypowers.dev/scssc/internal/value"
)

// Node is an output node
type Node interface {
	GetSpan() ast.Span
	cssNode()
}

// Parent is a node that holds children
type Parent interface {
	Node
	AddChild(n Node)
}

// Stylesheet is the root of the output tree
type Stylesheet struct {
	Children []Node
}

func (s *Stylesheet) GetSpan() ast.Span { return ast.Span{} }
func (s *Stylesheet) AddChild(n Node)   { s.Children = append(s.Children, n) }

// StyleRule is a selector list with its declarations. Selectors are
// complex selectors in normalized form: single spaces, combinators
// surrounded by spaces.
type StyleRule struct {
	Selectors []string
	Children  []Node
	Span      ast.Span
}

func (r *StyleRule) GetSpan() ast.Span { return r.Span }
func (r *StyleRule) AddChild(n Node)   { r.Children = append(r.Children, n) }

// Declaration is a property and its evaluated value. Custom property
// values are unquoted strings holding the raw source text.
type Declaration struct {
	Name   string
	Value  value.Value
	Custom bool
	Span   ast.Span
}

func (d *Declaration) GetSpan() ast.Span { return d.Span }

// AtRule is a CSS at-rule such as @media, @supports, @font-face or
// @keyframes. HasBlock distinguishes `@x;` from `@x {}`.
type AtRule struct {
	Name     string
	Params   string
	Children []Node
	HasBlock bool
	Span     ast.Span
}

func (r *AtRule) GetSpan() ast.Span { return r.Span }
func (r *AtRule) AddChild(n Node)   { r.Children = append(r.Children, n) }

// Comment is a loud /* */ comment kept in the output
type Comment struct {
	Text string
	Span ast.Span
}

func (c *Comment) GetSpan() ast.Span { return c.Span }

// Preserved reports whether the comment survives compressed output
func (c *Comment) Preserved() bool {
	return len(c.Text) > 2 && c.Text[2] == '!'
}

// Import is a plain CSS @import. Modifiers holds any media or supports
// query after the URL.
type Import struct {
	URL       string
	Modifiers string
	Span      ast.Span
}

func (i *Import) GetSpan() ast.Span { return i.Span }

func (*Stylesheet) cssNode()  {}
func (*StyleRule) cssNode()   {}
func (*Declaration) cssNode() {}
func (*AtRule) cssNode()      {}
func (*Comment) cssNode()     {}
func (*Import) cssNode()      {}

// IsInvisible reports whether n produces no output: style rules without
// declarations and at-rule blocks whose children are all invisible.
// Childless at-rules such as @font-face {} stay visible.
func IsInvisible(n Node) bool {
	switch n := n.(type) {
	case *StyleRule:
		if len(n.Selectors) == 0 {
			return true
		}
		for _, c := range n.Children {
			if !IsInvisible(c) {
				return false
			}
		}
		return true
	case *AtRule:
		if !n.HasBlock || !bubbles(n.Name) {
			return false
		}
		for _, c := range n.Children {
			if !IsInvisible(c) {
				return false
			}
		}
		return true
	}
	return false
}

// bubbles reports whether an at-rule only exists to hold style rules
func bubbles(name string) bool {
	switch name {
	case "media", "supports":
		return true
	}
	return false
}

// Walk visits every node depth first, parents before children. fn returns
// false to skip a node's children.
func Walk(nodes []Node, fn func(Node) bool) {
	for _, n := range nodes {
		if !fn(n) {
			continue
		}
		switch n := n.(type) {
		case *StyleRule:
			Walk(n.Children, fn)
		case *AtRule:
			Walk(n.Children, fn)
		}
	}
}
