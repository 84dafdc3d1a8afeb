package evaluator

import (
	"strings"

	"bennypowers.dev/scssc/internal/value"
)

// Scope is one level of the lexical scope chain. The root of a chain is a
// module's global scope. Flow-control scopes (@if, @each, @for, @while
// bodies) whose ancestors up to the root are all flow-control scopes are
// semi-global: assignments there update existing globals.
type Scope struct {
	vars      map[string]value.Value
	mixins    map[string]*callable
	functions map[string]*callable
	parent    *Scope
	// flow marks an @if/@each/@for/@while body
	flow bool
}

// NewScope creates a global scope
func NewScope() *Scope {
	return newScope(nil, false)
}

func newScope(parent *Scope, flow bool) *Scope {
	return &Scope{
		vars:      map[string]value.Value{},
		mixins:    map[string]*callable{},
		functions: map[string]*callable{},
		parent:    parent,
		flow:      flow,
	}
}

// Child creates a nested lexical scope, as for a style rule or callable body
func (s *Scope) Child() *Scope {
	return newScope(s, false)
}

// FlowChild creates the scope of one flow-control body or loop iteration
func (s *Scope) FlowChild() *Scope {
	return newScope(s, true)
}

// IsGlobal reports whether s is the root of its chain
func (s *Scope) IsGlobal() bool {
	return s.parent == nil
}

// Global returns the root of the chain
func (s *Scope) Global() *Scope {
	for s.parent != nil {
		s = s.parent
	}
	return s
}

// semiGlobal reports whether every scope between s and the root is a
// flow-control scope
func (s *Scope) semiGlobal() bool {
	for ; s.parent != nil; s = s.parent {
		if !s.flow {
			return false
		}
	}
	return true
}

// normalizeName makes - and _ interchangeable in member names
func normalizeName(name string) string {
	return strings.ReplaceAll(name, "_", "-")
}

// Lookup finds a variable, innermost scope first
func (s *Scope) Lookup(name string) (value.Value, bool) {
	name = normalizeName(name)
	for sc := s; sc != nil; sc = sc.parent {
		if v, ok := sc.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Declare binds name in this scope, shadowing outer bindings
func (s *Scope) Declare(name string, v value.Value) {
	s.vars[normalizeName(name)] = v
}

// Assign implements variable assignment. With global set the root scope is
// written. Otherwise the innermost local scope already holding the name is
// updated; failing that the global is updated if it holds the name and s is
// semi-global; otherwise the name is declared in s.
func (s *Scope) Assign(name string, v value.Value, global bool) {
	name = normalizeName(name)
	if global {
		s.Global().vars[name] = v
		return
	}
	for sc := s; sc.parent != nil; sc = sc.parent {
		if _, ok := sc.vars[name]; ok {
			sc.vars[name] = v
			return
		}
	}
	if s.semiGlobal() {
		if g := s.Global(); g != s {
			if _, ok := g.vars[name]; ok {
				g.vars[name] = v
				return
			}
		}
	}
	s.vars[name] = v
}

// Resolve returns the value an assignment to name would overwrite, used
// by !default
func (s *Scope) Resolve(name string, global bool) (value.Value, bool) {
	if global {
		v, ok := s.Global().vars[normalizeName(name)]
		return v, ok
	}
	return s.Lookup(name)
}

func (s *Scope) lookupMixin(name string) (*callable, bool) {
	name = normalizeName(name)
	for sc := s; sc != nil; sc = sc.parent {
		if c, ok := sc.mixins[name]; ok {
			return c, true
		}
	}
	return nil, false
}

func (s *Scope) lookupFunction(name string) (*callable, bool) {
	name = normalizeName(name)
	for sc := s; sc != nil; sc = sc.parent {
		if c, ok := sc.functions[name]; ok {
			return c, true
		}
	}
	return nil, false
}

func (s *Scope) defineMixin(c *callable) {
	s.mixins[normalizeName(c.name)] = c
}

func (s *Scope) defineFunction(c *callable) {
	s.functions[normalizeName(c.name)] = c
}
