package value

import (
	"bennypowers.dev/scssc/internal/diagnostics"
)

func undefinedOperation(a Value, op string, b Value) error {
	return diagnostics.NewArgumentError("Undefined operation \"%s %s %s\".", a.Inspect(), op, b.Inspect())
}

// Add implements +. Numbers add with unit conversion; a string on either
// side concatenates, quoted when the left string (or the right when only
// it is a string) is quoted.
func Add(a, b Value) (Value, error) {
	an, aNum := a.(Number)
	bn, bNum := b.(Number)
	if aNum && bNum {
		return addNumbers(an, bn)
	}
	if _, ok := a.(Color); ok {
		return nil, undefinedOperation(a, "+", b)
	}
	if _, ok := b.(Color); ok && aNum {
		return nil, undefinedOperation(a, "+", b)
	}
	return Concat(a, b), nil
}

// Concat joins the text of two values as + does for strings
func Concat(a, b Value) Value {
	if as, ok := a.(String); ok {
		return String{Text: as.Text + Text(b), Quoted: as.Quoted}
	}
	if bs, ok := b.(String); ok {
		return String{Text: Text(a) + bs.Text, Quoted: bs.Quoted}
	}
	return Unquoted(Text(a) + Text(b))
}

// Sub implements -. Non-numeric operands produce the unquoted text "a-b".
func Sub(a, b Value) (Value, error) {
	an, aNum := a.(Number)
	bn, bNum := b.(Number)
	if aNum && bNum {
		return subNumbers(an, bn)
	}
	if _, ok := a.(Color); ok {
		return nil, undefinedOperation(a, "-", b)
	}
	if _, ok := b.(Color); ok && aNum {
		return nil, undefinedOperation(a, "-", b)
	}
	return Unquoted(Text(a) + "-" + Text(b)), nil
}

// Mul implements *. Only numbers can be multiplied.
func Mul(a, b Value) (Value, error) {
	an, aNum := a.(Number)
	bn, bNum := b.(Number)
	if !aNum || !bNum {
		return nil, undefinedOperation(a, "*", b)
	}
	return mulNumbers(an, bn), nil
}

// Div implements / as division. Non-numeric operands produce the unquoted
// text "a/b".
func Div(a, b Value) (Value, error) {
	an, aNum := a.(Number)
	bn, bNum := b.(Number)
	if aNum && bNum {
		return divNumbers(an, bn), nil
	}
	if _, ok := a.(Color); ok {
		return nil, undefinedOperation(a, "/", b)
	}
	if _, ok := b.(Color); ok && aNum {
		return nil, undefinedOperation(a, "/", b)
	}
	return Unquoted(Text(a) + "/" + Text(b)), nil
}

// Mod implements %, taking the sign of the divisor
func Mod(a, b Value) (Value, error) {
	an, aNum := a.(Number)
	bn, bNum := b.(Number)
	if !aNum || !bNum {
		return nil, undefinedOperation(a, "%", b)
	}
	return modNumbers(an, bn)
}

// Compare orders two numbers. Comparing anything else is an error.
func Compare(a, b Value) (int, error) {
	an, aNum := a.(Number)
	bn, bNum := b.(Number)
	if !aNum || !bNum {
		return 0, undefinedOperation(a, "<", b)
	}
	return compareNumbers(an, bn)
}

// Equal implements ==
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return IsNull(a) && IsNull(b)
	}
	return a.Equal(b)
}

// Negate implements unary minus
func Negate(v Value) (Value, error) {
	switch n := v.(type) {
	case Number:
		return n.WithValue(-n.Value), nil
	case Color:
		return nil, diagnostics.NewArgumentError("Undefined operation \"-%s\".", v.Inspect())
	}
	return Unquoted("-" + Text(v)), nil
}

// Plus implements unary plus
func Plus(v Value) (Value, error) {
	switch v.(type) {
	case Number:
		return v, nil
	case Color:
		return nil, diagnostics.NewArgumentError("Undefined operation \"+%s\".", v.Inspect())
	}
	return Unquoted("+" + Text(v)), nil
}

// Not implements the not operator
func Not(v Value) Value {
	return Bool(!v.Truthy())
}
