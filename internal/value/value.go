// Package value implements SassScript values and the pure operations on
// them. Values are immutable; every operation returns a new value.
package value

import (
	"fmt"

	"bennypowers.dev/scssc/internal/diagnostics"
)

// Value is a SassScript value.
type Value interface {
	// Kind is the name meta.type-of reports for the value
	Kind() string
	// Truthy is false only for false and null
	Truthy() bool
	// CSS serializes the value for output. Values with no CSS
	// representation (maps, numbers with complex units) fail.
	CSS(compressed bool) (string, error)
	// Inspect renders the value as SassScript source, used by @debug
	// and meta.inspect
	Inspect() string
	Equal(other Value) bool
}

// Bool is a SassScript boolean
type Bool bool

const (
	True  Bool = true
	False Bool = false
)

func (b Bool) Kind() string { return "bool" }

func (b Bool) Truthy() bool { return bool(b) }

func (b Bool) CSS(bool) (string, error) { return b.Inspect(), nil }

func (b Bool) Inspect() string {
	if b {
		return "true"
	}
	return "false"
}

func (b Bool) Equal(other Value) bool {
	o, ok := other.(Bool)
	return ok && o == b
}

type null struct{}

// Null is the SassScript null value
var Null Value = null{}

func (null) Kind() string { return "null" }

func (null) Truthy() bool { return false }

func (null) CSS(bool) (string, error) { return "", nil }

func (null) Inspect() string { return "null" }

func (null) Equal(other Value) bool {
	_, ok := other.(null)
	return ok
}

// IsNull reports whether v is null or a Go nil
func IsNull(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(null)
	return ok
}

// Function is a first-class reference to a callable, produced by
// meta.get-function
type Function struct {
	Name     string
	Callable any
}

func (f Function) Kind() string { return "function" }

func (f Function) Truthy() bool { return true }

func (f Function) CSS(bool) (string, error) {
	return "", notCSSError(f)
}

func (f Function) Inspect() string {
	return fmt.Sprintf("get-function(%q)", f.Name)
}

func (f Function) Equal(other Value) bool {
	o, ok := other.(Function)
	return ok && o.Name == f.Name && o.Callable == f.Callable
}

// BoolOf converts a Go bool
func BoolOf(b bool) Value {
	return Bool(b)
}

// MustCSS serializes v, falling back to Inspect for values with no CSS form.
// Used where the text is needed for string building rather than output.
func MustCSS(v Value) string {
	s, err := v.CSS(false)
	if err != nil {
		return v.Inspect()
	}
	return s
}

// Text returns the text of v as used in interpolation and string
// concatenation: quoted strings lose their quotes.
func Text(v Value) string {
	if s, ok := v.(String); ok {
		return s.Text
	}
	if IsNull(v) {
		return ""
	}
	return MustCSS(v)
}

func notCSSError(v Value) error {
	return diagnostics.NewArgumentError("%s isn't a valid CSS value.", v.Inspect())
}
