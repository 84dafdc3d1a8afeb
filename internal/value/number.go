package value

import (
	"math"
	"strconv"
	"strings"

	"bennypowers.dev/scssc/internal/diagnostics"
)

// Precision is the number of decimal digits numbers are rounded to on output
const Precision = 10

// epsilon is the tolerance for numeric equality
const epsilon = 1e-11

// Number is a SassScript number with numerator and denominator units.
type Number struct {
	Value float64
	Numer []string
	Denom []string
	// Slash holds the operands when the number came from a literal `a/b`
	// that may still be plain CSS, as in `font: 12px/1.5`. It is printed
	// as written unless the number is used in a calculation.
	Slash *[2]Number
}

// NewSlash returns the quotient of a and b remembering both operands
func NewSlash(a, b Number) Number {
	q := divNumbers(a.WithoutSlash(), b.WithoutSlash()).(Number)
	q.Slash = &[2]Number{a, b}
	return q
}

// WithoutSlash forgets the slash operands
func (n Number) WithoutSlash() Number {
	n.Slash = nil
	return n
}

// WithoutSlash strips slash operands from a number; other values are
// returned unchanged
func WithoutSlash(v Value) Value {
	if n, ok := v.(Number); ok && n.Slash != nil {
		return n.WithoutSlash()
	}
	return v
}

// NewNumber returns a number with at most one numerator unit
func NewNumber(v float64, unit string) Number {
	if unit == "" {
		return Number{Value: v}
	}
	return Number{Value: v, Numer: []string{unit}}
}

func (n Number) Kind() string { return "number" }

func (n Number) Truthy() bool { return true }

// Unitless reports whether the number has no units
func (n Number) Unitless() bool {
	return len(n.Numer) == 0 && len(n.Denom) == 0
}

// Unit returns the unit string, "" for unitless numbers
func (n Number) Unit() string {
	return unitString(n.Numer, n.Denom)
}

// HasUnit reports whether the number has exactly the single unit u
func (n Number) HasUnit(u string) bool {
	return len(n.Numer) == 1 && len(n.Denom) == 0 && strings.EqualFold(n.Numer[0], u)
}

// IsComplex reports whether the unit cannot be written in CSS
func (n Number) IsComplex() bool {
	return len(n.Numer) > 1 || len(n.Denom) > 0
}

// Compatible reports whether the two numbers can be added or compared
func (n Number) Compatible(o Number) bool {
	if n.Unitless() || o.Unitless() {
		return true
	}
	_, ok := conversionFactor(o.Numer, o.Denom, n.Numer, n.Denom)
	return ok
}

// ConvertTo converts the number into the given units
func (n Number) ConvertTo(numer, denom []string) (Number, error) {
	if n.Unitless() {
		return Number{Value: n.Value, Numer: numer, Denom: denom}, nil
	}
	f, ok := conversionFactor(n.Numer, n.Denom, numer, denom)
	if !ok {
		return Number{}, diagnostics.NewUnitError("Incompatible units %s and %s.", n.Unit(), unitString(numer, denom))
	}
	return Number{Value: n.Value * f, Numer: numer, Denom: denom}, nil
}

// WithValue returns a copy of n with a new magnitude and the same units
func (n Number) WithValue(v float64) Number {
	return Number{Value: v, Numer: n.Numer, Denom: n.Denom}
}

// Int returns the value as an int if it is integral within epsilon
func (n Number) Int() (int, bool) {
	r := math.Round(n.Value)
	if math.Abs(n.Value-r) < epsilon {
		return int(r), true
	}
	return 0, false
}

func (n Number) CSS(compressed bool) (string, error) {
	if n.Slash != nil {
		a, err := n.Slash[0].CSS(compressed)
		if err != nil {
			return "", err
		}
		b, err := n.Slash[1].CSS(compressed)
		if err != nil {
			return "", err
		}
		return a + "/" + b, nil
	}
	if n.IsComplex() {
		return "", diagnostics.NewArgumentError("%s isn't a valid CSS value.", n.Inspect())
	}
	if math.IsInf(n.Value, 0) || math.IsNaN(n.Value) {
		return "", diagnostics.NewArgumentError("%s isn't a valid CSS value.", n.Inspect())
	}
	return FormatNumber(n.Value, compressed) + n.Unit(), nil
}

func (n Number) Inspect() string {
	if n.Slash != nil {
		return n.Slash[0].Inspect() + "/" + n.Slash[1].Inspect()
	}
	return FormatNumber(n.Value, false) + n.Unit()
}

func (n Number) Equal(other Value) bool {
	o, ok := other.(Number)
	if !ok {
		return false
	}
	if n.Unitless() != o.Unitless() {
		return false
	}
	if n.Unitless() {
		return fuzzyEqual(n.Value, o.Value)
	}
	converted, err := o.ConvertTo(n.Numer, n.Denom)
	if err != nil {
		return false
	}
	return fuzzyEqual(n.Value, converted.Value)
}

func fuzzyEqual(a, b float64) bool {
	if math.IsInf(a, 0) || math.IsInf(b, 0) {
		return a == b
	}
	return math.Abs(a-b) < epsilon
}

// FormatNumber renders v rounded to Precision digits with no trailing
// zeros. Compressed output drops the leading zero of fractions.
func FormatNumber(v float64, compressed bool) string {
	switch {
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	case math.IsNaN(v):
		return "NaN"
	}

	if r := math.Round(v); math.Abs(v-r) < epsilon {
		if r == 0 {
			return "0"
		}
		return strconv.FormatFloat(r, 'f', -1, 64)
	}

	s := strconv.FormatFloat(v, 'f', Precision, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" {
		s = "0"
	}
	if compressed {
		if strings.HasPrefix(s, "0.") {
			s = s[1:]
		} else if strings.HasPrefix(s, "-0.") {
			s = "-" + s[2:]
		}
	}
	return s
}

// coerce brings o into n's units for addition and comparison. A unitless
// operand adopts the other operand's units.
func coerce(n, o Number) (Number, Number, error) {
	switch {
	case n.Unitless() && o.Unitless():
		return n, o, nil
	case n.Unitless():
		return n.withUnits(o), o, nil
	case o.Unitless():
		return n, o.withUnits(n), nil
	}
	f, ok := conversionFactor(o.Numer, o.Denom, n.Numer, n.Denom)
	if !ok {
		return n, o, diagnostics.NewUnitError("Incompatible units %s and %s.", n.Unit(), o.Unit())
	}
	return n, Number{Value: o.Value * f, Numer: n.Numer, Denom: n.Denom}, nil
}

func (n Number) withUnits(from Number) Number {
	return Number{Value: n.Value, Numer: from.Numer, Denom: from.Denom}
}

func addNumbers(a, b Number) (Value, error) {
	a, b, err := coerce(a, b)
	if err != nil {
		return nil, err
	}
	return a.WithValue(a.Value + b.Value), nil
}

func subNumbers(a, b Number) (Value, error) {
	a, b, err := coerce(a, b)
	if err != nil {
		return nil, err
	}
	return a.WithValue(a.Value - b.Value), nil
}

func mulNumbers(a, b Number) Value {
	numer := append(append([]string(nil), a.Numer...), b.Numer...)
	denom := append(append([]string(nil), a.Denom...), b.Denom...)
	numer, denom, f := simplifyUnits(numer, denom)
	return Number{Value: a.Value * b.Value * f, Numer: numer, Denom: denom}
}

func divNumbers(a, b Number) Value {
	numer := append(append([]string(nil), a.Numer...), b.Denom...)
	denom := append(append([]string(nil), a.Denom...), b.Numer...)
	numer, denom, f := simplifyUnits(numer, denom)
	return Number{Value: a.Value / b.Value * f, Numer: numer, Denom: denom}
}

// modNumbers follows the sign of the divisor
func modNumbers(a, b Number) (Value, error) {
	a, b, err := coerce(a, b)
	if err != nil {
		return nil, err
	}
	if b.Value == 0 {
		return a.WithValue(math.NaN()), nil
	}
	r := math.Mod(a.Value, b.Value)
	if r != 0 && (r < 0) != (b.Value < 0) {
		r += b.Value
	}
	return a.WithValue(r), nil
}

func compareNumbers(a, b Number) (int, error) {
	a, b, err := coerce(a, b)
	if err != nil {
		return 0, err
	}
	switch {
	case fuzzyEqual(a.Value, b.Value):
		return 0, nil
	case a.Value < b.Value:
		return -1, nil
	}
	return 1, nil
}
