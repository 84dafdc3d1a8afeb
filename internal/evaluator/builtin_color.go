package evaluator

import (
	"fmt"
	"math"
	"strings"

	"bennypowers.dev/scssc/internal/color"
	"bennypowers.dev/scssc/internal/value"
)

// plainCall renders a colour function call as plain CSS text, for
// arguments such as var() that can't be evaluated at compile time
func plainCall(name string, args []value.Value) value.Value {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = value.MustCSS(a)
	}
	return value.Unquoted(name + "(" + strings.Join(parts, ", ") + ")")
}

func hasSpecial(args []value.Value) bool {
	for _, a := range args {
		if s, ok := a.(value.String); ok && !s.Quoted {
			return true
		}
	}
	return false
}

// channelArg reads an RGB channel: 0-255, or a percentage of 255
func channelArg(v value.Value, name string) (float64, error) {
	n, err := numberArg(v, name)
	if err != nil {
		return 0, err
	}
	if n.HasUnit("%") {
		return n.Value * 255 / 100, nil
	}
	return n.Value, nil
}

// alphaArg reads an alpha channel: 0-1, or a percentage
func alphaArg(v value.Value, name string) (float64, error) {
	n, err := numberArg(v, name)
	if err != nil {
		return 0, err
	}
	if n.HasUnit("%") {
		return n.Value / 100, nil
	}
	return n.Value, nil
}

// hueArg reads a hue in degrees from an angle or unitless number
func hueArg(v value.Value, name string) (float64, error) {
	n, err := numberArg(v, name)
	if err != nil {
		return 0, err
	}
	if n.Unitless() || n.HasUnit("deg") {
		return n.Value, nil
	}
	deg, err := n.ConvertTo([]string{"deg"}, nil)
	if err != nil {
		return 0, argError(name, "Expected %s to be an angle.", n.Inspect())
	}
	return deg.Value, nil
}

// channelList splits the one-argument forms rgb(1 2 3) and
// rgb(1 2 3 / 0.5) into their channels
func channelList(v value.Value) ([]value.Value, bool) {
	if l, ok := v.(value.List); ok && l.Sep == value.SepSlash && len(l.Items) == 2 {
		return append(append([]value.Value(nil), value.Items(l.Items[0])...), l.Items[1]), true
	}
	if n, ok := v.(value.Number); ok && n.Slash != nil {
		return nil, false
	}
	items := value.Items(v)
	if len(items) == 3 {
		if l, ok := items[2].(value.Number); ok && l.Slash != nil {
			return []value.Value{items[0], items[1], l.Slash[0], l.Slash[1]}, true
		}
	}
	return items, len(items) >= 3
}

func rgbFunction(name string) *builtinFunc {
	return declare("$channels...", func(_ *evaluator, args []value.Value) (value.Value, error) {
		items := value.Items(args[0])
		if len(items) == 1 {
			if chans, ok := channelList(items[0]); ok {
				items = chans
			}
		}
		if hasSpecial(items) {
			return plainCall(name, items), nil
		}
		switch len(items) {
		case 2:
			c, err := colorArg(items[0], "color")
			if err != nil {
				return nil, err
			}
			a, err := alphaArg(items[1], "alpha")
			if err != nil {
				return nil, err
			}
			c.A = math.Max(0, math.Min(1, a))
			return value.NewColor(c.RGBA), nil
		case 3, 4:
			var ch [3]float64
			for i, n := range []string{"red", "green", "blue"} {
				v, err := channelArg(items[i], n)
				if err != nil {
					return nil, err
				}
				ch[i] = math.Max(0, math.Min(255, v))
			}
			alpha := 1.0
			if len(items) == 4 {
				a, err := alphaArg(items[3], "alpha")
				if err != nil {
					return nil, err
				}
				alpha = math.Max(0, math.Min(1, a))
			}
			return value.NewColor(color.RGBA{R: ch[0], G: ch[1], B: ch[2], A: alpha}), nil
		}
		return nil, argError("channels", "Expected 3 or 4 channels, got %d.", len(items))
	})
}

func hslFunction(name string) *builtinFunc {
	return declare("$channels...", func(_ *evaluator, args []value.Value) (value.Value, error) {
		items := value.Items(args[0])
		if len(items) == 1 {
			if chans, ok := channelList(items[0]); ok {
				items = chans
			}
		}
		if hasSpecial(items) {
			return plainCall(name, items), nil
		}
		if len(items) != 3 && len(items) != 4 {
			return nil, argError("channels", "Expected 3 or 4 channels, got %d.", len(items))
		}
		h, err := hueArg(items[0], "hue")
		if err != nil {
			return nil, err
		}
		s, err := numberArg(items[1], "saturation")
		if err != nil {
			return nil, err
		}
		l, err := numberArg(items[2], "lightness")
		if err != nil {
			return nil, err
		}
		alpha := 1.0
		if len(items) == 4 {
			if alpha, err = alphaArg(items[3], "alpha"); err != nil {
				return nil, err
			}
		}
		return value.NewColor(color.FromHSL(h, s.Value, l.Value, alpha)), nil
	})
}

// hslAdjust builds lighten, darken and friends: f receives the HSL
// channels and the amount and returns the new channels
func hslAdjust(f func(h, s, l, amount float64) (float64, float64, float64)) *builtinFunc {
	return declare("$color, $amount", func(_ *evaluator, args []value.Value) (value.Value, error) {
		c, err := colorArg(args[0], "color")
		if err != nil {
			return nil, err
		}
		n, err := numberArg(args[1], "amount")
		if err != nil {
			return nil, err
		}
		h, s, l := c.HSL()
		h, s, l = f(h, s, l, n.Value)
		return value.NewColor(color.FromHSL(h, clampPct(s), clampPct(l), c.A)), nil
	})
}

func clampPct(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}

func alphaAdjust(sign float64) *builtinFunc {
	return declare("$color, $amount", func(_ *evaluator, args []value.Value) (value.Value, error) {
		c, err := colorArg(args[0], "color")
		if err != nil {
			return nil, err
		}
		n, err := numberArg(args[1], "amount")
		if err != nil {
			return nil, err
		}
		if n.Value < 0 || n.Value > 1 {
			return nil, argError("amount", "Expected %s to be within 0 and 1.", n.Inspect())
		}
		c.A = math.Max(0, math.Min(1, c.A+sign*n.Value))
		return value.NewColor(c.RGBA), nil
	})
}

// colorGetter reads one channel of a colour
func colorGetter(unit string, get func(c value.Color) float64) *builtinFunc {
	return declare("$color", func(_ *evaluator, args []value.Value) (value.Value, error) {
		c, err := colorArg(args[0], "color")
		if err != nil {
			return nil, err
		}
		return value.NewNumber(get(c), unit), nil
	})
}

// channels are the keyword arguments of color.adjust, scale and change
type channels struct {
	red, green, blue, hue, saturation, lightness, whiteness, blackness, alpha *float64
}

func (ch *channels) hsl() bool { return ch.hue != nil || ch.saturation != nil || ch.lightness != nil }

func (ch *channels) hwb() bool { return ch.whiteness != nil || ch.blackness != nil }

func (ch *channels) rgb() bool { return ch.red != nil || ch.green != nil || ch.blue != nil }

func readChannels(kw *value.Map, scale bool) (*channels, error) {
	ch := &channels{}
	keys, vals := kw.Keys(), kw.Values()
	for i, k := range keys {
		name := value.Text(k)
		n, err := numberArg(vals[i], name)
		if err != nil {
			return nil, err
		}
		v := n.Value
		if scale && !n.HasUnit("%") {
			return nil, argError(name, "Expected %s to have unit \"%%\".", n.Inspect())
		}
		switch name {
		case "red":
			ch.red = &v
		case "green":
			ch.green = &v
		case "blue":
			ch.blue = &v
		case "hue":
			ch.hue = &v
		case "saturation":
			ch.saturation = &v
		case "lightness":
			ch.lightness = &v
		case "whiteness":
			ch.whiteness = &v
		case "blackness":
			ch.blackness = &v
		case "alpha":
			if n.HasUnit("%") && !scale {
				v /= 100
			}
			ch.alpha = &v
		default:
			return nil, argError(name, "No argument named $%s.", name)
		}
	}
	if ch.rgb() && (ch.hsl() || ch.hwb()) || ch.hsl() && ch.hwb() {
		return nil, argError("kwargs", "RGB, HSL and HWB parameters may not be mixed.")
	}
	return ch, nil
}

// modifyColor applies op to every channel named in ch. op receives the
// current value, the argument and the channel's maximum.
func modifyColor(c value.Color, ch *channels, op func(cur, arg, max float64) float64) value.Color {
	apply := func(cur float64, arg *float64, max float64) float64 {
		if arg == nil {
			return cur
		}
		return math.Max(0, math.Min(max, op(cur, *arg, max)))
	}
	alpha := apply(c.A, ch.alpha, 1)
	switch {
	case ch.hsl():
		h, s, l := c.HSL()
		if ch.hue != nil {
			h = op(h, *ch.hue, 360)
		}
		return value.NewColor(color.FromHSL(h, apply(s, ch.saturation, 100), apply(l, ch.lightness, 100), alpha))
	case ch.hwb():
		h, w, b := c.HWB()
		return value.NewColor(color.FromHWB(h, apply(w, ch.whiteness, 100), apply(b, ch.blackness, 100), alpha))
	}
	return value.NewColor(color.RGBA{
		R: apply(c.R, ch.red, 255),
		G: apply(c.G, ch.green, 255),
		B: apply(c.B, ch.blue, 255),
		A: alpha,
	})
}

func colorModifier(scale bool, op func(cur, arg, max float64) float64) *builtinFunc {
	return declare("$color, $kwargs...", func(_ *evaluator, args []value.Value) (value.Value, error) {
		c, err := colorArg(args[0], "color")
		if err != nil {
			return nil, err
		}
		rest := args[1].(value.ArgList)
		if len(rest.Items) > 0 {
			return nil, argError("kwargs", "Only one positional argument is allowed. All other arguments must be passed by name.")
		}
		ch, err := readChannels(rest.Keywords, scale)
		if err != nil {
			return nil, err
		}
		return modifyColor(c, ch, op), nil
	})
}

func colorFunctions() map[string]*builtinFunc {
	return named(map[string]*builtinFunc{
		"rgb":  rgbFunction("rgb"),
		"rgba": rgbFunction("rgba"),
		"hsl":  hslFunction("hsl"),
		"hsla": hslFunction("hsla"),
		"hwb": declare("$hue, $whiteness, $blackness, $alpha: 1", func(_ *evaluator, args []value.Value) (value.Value, error) {
			h, err := hueArg(args[0], "hue")
			if err != nil {
				return nil, err
			}
			w, err := numberArg(args[1], "whiteness")
			if err != nil {
				return nil, err
			}
			b, err := numberArg(args[2], "blackness")
			if err != nil {
				return nil, err
			}
			a, err := alphaArg(args[3], "alpha")
			if err != nil {
				return nil, err
			}
			return value.NewColor(color.FromHWB(h, w.Value, b.Value, a)), nil
		}),
		"red": colorGetter("", func(c value.Color) float64 {
			r, _, _ := c.Channels()
			return float64(r)
		}),
		"green": colorGetter("", func(c value.Color) float64 {
			_, g, _ := c.Channels()
			return float64(g)
		}),
		"blue": colorGetter("", func(c value.Color) float64 {
			_, _, b := c.Channels()
			return float64(b)
		}),
		"hue": colorGetter("deg", func(c value.Color) float64 {
			h, _, _ := c.HSL()
			return h
		}),
		"saturation": colorGetter("%", func(c value.Color) float64 {
			_, s, _ := c.HSL()
			return s
		}),
		"lightness": colorGetter("%", func(c value.Color) float64 {
			_, _, l := c.HSL()
			return l
		}),
		"whiteness": colorGetter("%", func(c value.Color) float64 {
			_, w, _ := c.HWB()
			return w
		}),
		"blackness": colorGetter("%", func(c value.Color) float64 {
			_, _, b := c.HWB()
			return b
		}),
		"alpha": colorGetter("", func(c value.Color) float64 { return c.A }),
		"opacity": declare("$color", func(_ *evaluator, args []value.Value) (value.Value, error) {
			if n, ok := args[0].(value.Number); ok {
				return plainCall("opacity", []value.Value{n}), nil
			}
			c, err := colorArg(args[0], "color")
			if err != nil {
				return nil, err
			}
			return value.NewNumber(c.A, ""), nil
		}),
		"lighten": hslAdjust(func(h, s, l, amount float64) (float64, float64, float64) {
			return h, s, l + amount
		}),
		"darken": hslAdjust(func(h, s, l, amount float64) (float64, float64, float64) {
			return h, s, l - amount
		}),
		"saturate": declare("$color, $amount: null", func(_ *evaluator, args []value.Value) (value.Value, error) {
			if n, ok := args[0].(value.Number); ok && value.IsNull(args[1]) {
				return plainCall("saturate", []value.Value{n}), nil
			}
			c, err := colorArg(args[0], "color")
			if err != nil {
				return nil, err
			}
			n, err := numberArg(args[1], "amount")
			if err != nil {
				return nil, err
			}
			h, s, l := c.HSL()
			return value.NewColor(color.FromHSL(h, clampPct(s+n.Value), l, c.A)), nil
		}),
		"desaturate": hslAdjust(func(h, s, l, amount float64) (float64, float64, float64) {
			return h, s - amount, l
		}),
		"adjust-hue": declare("$color, $degrees", func(_ *evaluator, args []value.Value) (value.Value, error) {
			c, err := colorArg(args[0], "color")
			if err != nil {
				return nil, err
			}
			d, err := hueArg(args[1], "degrees")
			if err != nil {
				return nil, err
			}
			h, s, l := c.HSL()
			return value.NewColor(color.FromHSL(h+d, s, l, c.A)), nil
		}),
		"grayscale": declare("$color", func(_ *evaluator, args []value.Value) (value.Value, error) {
			if n, ok := args[0].(value.Number); ok {
				return plainCall("grayscale", []value.Value{n}), nil
			}
			c, err := colorArg(args[0], "color")
			if err != nil {
				return nil, err
			}
			h, _, l := c.HSL()
			return value.NewColor(color.FromHSL(h, 0, l, c.A)), nil
		}),
		"complement": declare("$color", func(_ *evaluator, args []value.Value) (value.Value, error) {
			c, err := colorArg(args[0], "color")
			if err != nil {
				return nil, err
			}
			h, s, l := c.HSL()
			return value.NewColor(color.FromHSL(h+180, s, l, c.A)), nil
		}),
		"invert": declare("$color, $weight: 100%", func(_ *evaluator, args []value.Value) (value.Value, error) {
			if n, ok := args[0].(value.Number); ok {
				return plainCall("invert", []value.Value{n}), nil
			}
			c, err := colorArg(args[0], "color")
			if err != nil {
				return nil, err
			}
			w, err := percentArg(args[1], "weight")
			if err != nil {
				return nil, err
			}
			return value.NewColor(color.Invert(c.RGBA, w)), nil
		}),
		"mix": declare("$color1, $color2, $weight: 50%", func(_ *evaluator, args []value.Value) (value.Value, error) {
			c1, err := colorArg(args[0], "color1")
			if err != nil {
				return nil, err
			}
			c2, err := colorArg(args[1], "color2")
			if err != nil {
				return nil, err
			}
			w, err := percentArg(args[2], "weight")
			if err != nil {
				return nil, err
			}
			return value.NewColor(color.Mix(c1.RGBA, c2.RGBA, w)), nil
		}),
		"opacify":        alphaAdjust(1),
		"transparentize": alphaAdjust(-1),
		"adjust": colorModifier(false, func(cur, arg, _ float64) float64 {
			return cur + arg
		}),
		"change": colorModifier(false, func(_, arg, _ float64) float64 {
			return arg
		}),
		"scale": colorModifier(true, func(cur, arg, max float64) float64 {
			p := arg / 100
			if p > 0 {
				return cur + (max-cur)*p
			}
			return cur + cur*p
		}),
		"ie-hex-str": declare("$color", func(_ *evaluator, args []value.Value) (value.Value, error) {
			c, err := colorArg(args[0], "color")
			if err != nil {
				return nil, err
			}
			r, g, b := c.Channels()
			a := int(math.Round(c.A * 255))
			return value.Unquoted(fmt.Sprintf("#%02X%02X%02X%02X", a, r, g, b)), nil
		}),
	})
}
