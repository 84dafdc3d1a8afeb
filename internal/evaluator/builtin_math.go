package evaluator

import (
	"math"
	"strings"

	"bennypowers.dev/scssc/internal/value"
)

func mathVariables() map[string]value.Value {
	return map[string]value.Value{
		"pi": value.NewNumber(math.Pi, ""),
		"e":  value.NewNumber(math.E, ""),
	}
}

// rounding applies f to the magnitude of a number, keeping its units
func rounding(f func(float64) float64) func(*evaluator, []value.Value) (value.Value, error) {
	return func(_ *evaluator, args []value.Value) (value.Value, error) {
		n, err := numberArg(args[0], "number")
		if err != nil {
			return nil, err
		}
		return n.WithValue(f(n.Value)), nil
	}
}

// unitlessFn applies f to a unitless number
func unitlessFn(name string, f func(float64) float64) func(*evaluator, []value.Value) (value.Value, error) {
	return func(_ *evaluator, args []value.Value) (value.Value, error) {
		n, err := numberArg(args[0], name)
		if err != nil {
			return nil, err
		}
		if !n.Unitless() {
			return nil, argError(name, "Expected %s to have no units.", n.Inspect())
		}
		return value.NewNumber(f(n.Value), ""), nil
	}
}

// angleFn applies a trigonometric function to an angle in radians or a
// unitless number
func angleFn(f func(float64) float64) func(*evaluator, []value.Value) (value.Value, error) {
	return func(_ *evaluator, args []value.Value) (value.Value, error) {
		n, err := numberArg(args[0], "number")
		if err != nil {
			return nil, err
		}
		if !n.Unitless() {
			rad, err := n.ConvertTo([]string{"rad"}, nil)
			if err != nil {
				return nil, argError("number", "Expected %s to be an angle.", n.Inspect())
			}
			n = rad
		}
		return value.NewNumber(f(n.Value), ""), nil
	}
}

// inverseAngleFn returns the result of f in degrees
func inverseAngleFn(f func(float64) float64) func(*evaluator, []value.Value) (value.Value, error) {
	return func(_ *evaluator, args []value.Value) (value.Value, error) {
		n, err := numberArg(args[0], "number")
		if err != nil {
			return nil, err
		}
		if !n.Unitless() {
			return nil, argError("number", "Expected %s to have no units.", n.Inspect())
		}
		return value.NewNumber(f(n.Value)*180/math.Pi, "deg"), nil
	}
}

// minMax returns the smallest (dir -1) or largest (dir 1) of its
// arguments. Arguments that are not numbers, such as var() or env(),
// make the call plain CSS.
func minMax(name string, v value.Value, dir int) (value.Value, error) {
	items := value.Items(v)
	if len(items) == 0 {
		return nil, argError("numbers", "At least one argument must be passed.")
	}
	for _, item := range items {
		if _, ok := item.(value.Number); !ok {
			parts := make([]string, len(items))
			for i, it := range items {
				parts[i] = value.MustCSS(it)
			}
			return value.Unquoted(name + "(" + strings.Join(parts, ", ") + ")"), nil
		}
	}
	best := items[0].(value.Number)
	for _, item := range items[1:] {
		n := item.(value.Number)
		c, err := value.Compare(n, best)
		if err != nil {
			return nil, err
		}
		if c*dir > 0 {
			best = n
		}
	}
	return best, nil
}

func mathFunctions() map[string]*builtinFunc {
	return named(map[string]*builtinFunc{
		"abs":   declare("$number", rounding(math.Abs)),
		"ceil":  declare("$number", rounding(math.Ceil)),
		"floor": declare("$number", rounding(math.Floor)),
		"round": declare("$number", rounding(func(v float64) float64 {
			return math.Floor(v + 0.5)
		})),
		"max": declare("$numbers...", func(_ *evaluator, args []value.Value) (value.Value, error) {
			return minMax("max", args[0], 1)
		}),
		"min": declare("$numbers...", func(_ *evaluator, args []value.Value) (value.Value, error) {
			return minMax("min", args[0], -1)
		}),
		"clamp": declare("$min, $number, $max", func(_ *evaluator, args []value.Value) (value.Value, error) {
			lo, err := numberArg(args[0], "min")
			if err != nil {
				return nil, err
			}
			n, err := numberArg(args[1], "number")
			if err != nil {
				return nil, err
			}
			hi, err := numberArg(args[2], "max")
			if err != nil {
				return nil, err
			}
			if c, err := value.Compare(n, lo); err != nil {
				return nil, err
			} else if c < 0 {
				return lo, nil
			}
			if c, err := value.Compare(n, hi); err != nil {
				return nil, err
			} else if c > 0 {
				return hi, nil
			}
			return n, nil
		}),
		"percentage": declare("$number", func(_ *evaluator, args []value.Value) (value.Value, error) {
			n, err := numberArg(args[0], "number")
			if err != nil {
				return nil, err
			}
			if !n.Unitless() {
				return nil, argError("number", "Expected %s to have no units.", n.Inspect())
			}
			return value.NewNumber(n.Value*100, "%"), nil
		}),
		"random": declare("$limit: null", func(e *evaluator, args []value.Value) (value.Value, error) {
			if value.IsNull(args[0]) {
				return value.NewNumber(e.rand.Float64(), ""), nil
			}
			limit, err := intArg(args[0], "limit")
			if err != nil {
				return nil, err
			}
			if limit < 1 {
				return nil, argError("limit", "Must be greater than 0, was %d.", limit)
			}
			return value.NewNumber(float64(e.rand.IntN(limit)+1), ""), nil
		}),
		"unit": declare("$number", func(_ *evaluator, args []value.Value) (value.Value, error) {
			n, err := numberArg(args[0], "number")
			if err != nil {
				return nil, err
			}
			return value.Quoted(n.Unit()), nil
		}),
		"is-unitless": declare("$number", func(_ *evaluator, args []value.Value) (value.Value, error) {
			n, err := numberArg(args[0], "number")
			if err != nil {
				return nil, err
			}
			return value.BoolOf(n.Unitless()), nil
		}),
		"compatible": declare("$number1, $number2", func(_ *evaluator, args []value.Value) (value.Value, error) {
			a, err := numberArg(args[0], "number1")
			if err != nil {
				return nil, err
			}
			b, err := numberArg(args[1], "number2")
			if err != nil {
				return nil, err
			}
			return value.BoolOf(a.Compatible(b)), nil
		}),
		"div": declare("$number1, $number2", func(_ *evaluator, args []value.Value) (value.Value, error) {
			return value.Div(args[0], args[1])
		}),
		"sqrt": declare("$number", unitlessFn("number", math.Sqrt)),
		"log": declare("$number, $base: null", func(_ *evaluator, args []value.Value) (value.Value, error) {
			n, err := numberArg(args[0], "number")
			if err != nil {
				return nil, err
			}
			if !n.Unitless() {
				return nil, argError("number", "Expected %s to have no units.", n.Inspect())
			}
			if value.IsNull(args[1]) {
				return value.NewNumber(math.Log(n.Value), ""), nil
			}
			base, err := numberArg(args[1], "base")
			if err != nil {
				return nil, err
			}
			return value.NewNumber(math.Log(n.Value)/math.Log(base.Value), ""), nil
		}),
		"pow": declare("$base, $exponent", func(_ *evaluator, args []value.Value) (value.Value, error) {
			base, err := numberArg(args[0], "base")
			if err != nil {
				return nil, err
			}
			exp, err := numberArg(args[1], "exponent")
			if err != nil {
				return nil, err
			}
			if !base.Unitless() || !exp.Unitless() {
				return nil, argError("base", "Expected %s and %s to have no units.", base.Inspect(), exp.Inspect())
			}
			return value.NewNumber(math.Pow(base.Value, exp.Value), ""), nil
		}),
		"hypot": declare("$numbers...", func(_ *evaluator, args []value.Value) (value.Value, error) {
			items := value.Items(args[0])
			if len(items) == 0 {
				return nil, argError("numbers", "At least one argument must be passed.")
			}
			first, err := numberArg(items[0], "numbers")
			if err != nil {
				return nil, err
			}
			sum := 0.0
			for _, item := range items {
				n, err := numberArg(item, "numbers")
				if err != nil {
					return nil, err
				}
				n, err = n.ConvertTo(first.Numer, first.Denom)
				if err != nil {
					return nil, err
				}
				sum += n.Value * n.Value
			}
			return first.WithValue(math.Sqrt(sum)), nil
		}),
		"sin":  declare("$number", angleFn(math.Sin)),
		"cos":  declare("$number", angleFn(math.Cos)),
		"tan":  declare("$number", angleFn(math.Tan)),
		"asin": declare("$number", inverseAngleFn(math.Asin)),
		"acos": declare("$number", inverseAngleFn(math.Acos)),
		"atan": declare("$number", inverseAngleFn(math.Atan)),
	})
}
