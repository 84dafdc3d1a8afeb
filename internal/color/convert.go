// Package color implements sRGB colour math for SassScript colour values:
// parsing, HSL and HWB conversion, mixing and CSS serialization.
package color

import (
	"fmt"
	"math"
	"strings"

	"github.com/mazznoer/csscolorparser"
)

// RGBA is an sRGB colour. Channels are in [0, 255] and may be fractional
// after colour math; alpha is in [0, 1].
type RGBA struct {
	R, G, B float64
	A       float64
}

// Parse parses any CSS colour syntax csscolorparser understands: hex,
// rgb(), hsl(), hwb() and named colours.
func Parse(s string) (RGBA, error) {
	parsed, err := csscolorparser.Parse(strings.TrimSpace(s))
	if err != nil {
		return RGBA{}, fmt.Errorf("unsupported color format: %s", s)
	}
	return fromParsed(parsed), nil
}

// Named looks up a CSS colour keyword such as "rebeccapurple" or
// "transparent". Identifiers made only of hex digits are never colour
// names, even though csscolorparser would accept them as hex codes.
func Named(name string) (RGBA, bool) {
	if name == "" {
		return RGBA{}, false
	}
	allHex := true
	for i := 0; i < len(name); i++ {
		c := name[i] | 0x20
		if c < 'a' || c > 'z' {
			return RGBA{}, false
		}
		if c > 'f' {
			allHex = false
		}
	}
	if allHex {
		return RGBA{}, false
	}
	parsed, err := csscolorparser.Parse(strings.ToLower(name))
	if err != nil {
		return RGBA{}, false
	}
	return fromParsed(parsed), true
}

func fromParsed(c csscolorparser.Color) RGBA {
	return RGBA{R: c.R * 255, G: c.G * 255, B: c.B * 255, A: c.A}
}

// FromHSL builds a colour from hue in degrees and saturation and lightness
// as percentages.
func FromHSL(h, s, l, alpha float64) RGBA {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	h /= 360
	s = clamp(s/100, 0, 1)
	l = clamp(l/100, 0, 1)

	var m2 float64
	if l <= 0.5 {
		m2 = l * (s + 1)
	} else {
		m2 = l + s - l*s
	}
	m1 := l*2 - m2
	return RGBA{
		R: hueToRGB(m1, m2, h+1.0/3) * 255,
		G: hueToRGB(m1, m2, h) * 255,
		B: hueToRGB(m1, m2, h-1.0/3) * 255,
		A: clamp(alpha, 0, 1),
	}
}

func hueToRGB(m1, m2, h float64) float64 {
	if h < 0 {
		h++
	}
	if h > 1 {
		h--
	}
	switch {
	case h < 1.0/6:
		return m1 + (m2-m1)*h*6
	case h < 1.0/2:
		return m2
	case h < 2.0/3:
		return m1 + (m2-m1)*(2.0/3-h)*6
	}
	return m1
}

// HSL returns hue in degrees and saturation and lightness as percentages.
func (c RGBA) HSL() (h, s, l float64) {
	r, g, b := c.R/255, c.G/255, c.B/255
	max := math.Max(r, math.Max(g, b))
	min := math.Min(r, math.Min(g, b))
	delta := max - min

	switch {
	case delta == 0:
		h = 0
	case max == r:
		h = math.Mod(60*(g-b)/delta, 360)
	case max == g:
		h = 60*(b-r)/delta + 120
	default:
		h = 60*(r-g)/delta + 240
	}
	if h < 0 {
		h += 360
	}

	l = (max + min) / 2
	switch {
	case delta == 0:
		s = 0
	case l < 0.5:
		s = delta / (max + min)
	default:
		s = delta / (2 - max - min)
	}
	return h, s * 100, l * 100
}

// FromHWB builds a colour from hue in degrees and whiteness and blackness
// as percentages.
func FromHWB(h, w, b, alpha float64) RGBA {
	w = clamp(w/100, 0, 1)
	b = clamp(b/100, 0, 1)
	if w+b >= 1 {
		gray := w / (w + b) * 255
		return RGBA{R: gray, G: gray, B: gray, A: clamp(alpha, 0, 1)}
	}
	base := FromHSL(h, 100, 50, alpha)
	scale := func(ch float64) float64 {
		return (ch/255*(1-w-b) + w) * 255
	}
	return RGBA{R: scale(base.R), G: scale(base.G), B: scale(base.B), A: base.A}
}

// HWB returns hue in degrees and whiteness and blackness as percentages.
func (c RGBA) HWB() (h, w, b float64) {
	h, _, _ = c.HSL()
	w = math.Min(c.R, math.Min(c.G, c.B)) / 255 * 100
	b = 100 - math.Max(c.R, math.Max(c.G, c.B))/255*100
	return h, w, b
}

// Mix blends two colours. weight is the percentage of c1 in the result;
// alpha differences shift the effective weight toward the more opaque
// colour.
func Mix(c1, c2 RGBA, weight float64) RGBA {
	p := clamp(weight/100, 0, 1)
	normalized := p*2 - 1
	alphaDelta := c1.A - c2.A

	var combined float64
	if normalized*alphaDelta == -1 {
		combined = normalized
	} else {
		combined = (normalized + alphaDelta) / (1 + normalized*alphaDelta)
	}
	w1 := (combined + 1) / 2
	w2 := 1 - w1

	return RGBA{
		R: c1.R*w1 + c2.R*w2,
		G: c1.G*w1 + c2.G*w2,
		B: c1.B*w1 + c2.B*w2,
		A: c1.A*p + c2.A*(1-p),
	}
}

// Invert returns the inverse colour, blended with the original by weight.
func Invert(c RGBA, weight float64) RGBA {
	inverse := RGBA{R: 255 - c.R, G: 255 - c.G, B: 255 - c.B, A: c.A}
	return Mix(inverse, c, weight)
}

// Channels returns the rounded, clamped 8-bit channels
func (c RGBA) Channels() (r, g, b int) {
	return channel(c.R), channel(c.G), channel(c.B)
}

func channel(v float64) int {
	return int(clamp(math.Round(v), 0, 255))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Opaque reports whether alpha is 1 within output precision
func (c RGBA) Opaque() bool {
	return c.A >= 1-1e-11
}

// ToHex formats an opaque colour as #rrggbb
func (c RGBA) ToHex() string {
	r, g, b := c.Channels()
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

// ToCSS serializes the colour: hex when opaque, rgba() otherwise. In
// compressed form the shortest of hex, short hex and colour name is used.
func (c RGBA) ToCSS(compressed bool) string {
	r, g, b := c.Channels()
	if !c.Opaque() {
		if compressed {
			return fmt.Sprintf("rgba(%d,%d,%d,%s)", r, g, b, formatAlpha(c.A, true))
		}
		return fmt.Sprintf("rgba(%d, %d, %d, %s)", r, g, b, formatAlpha(c.A, false))
	}

	hex := c.ToHex()
	if !compressed {
		return hex
	}
	if hex[1] == hex[2] && hex[3] == hex[4] && hex[5] == hex[6] {
		hex = "#" + hex[1:2] + hex[3:4] + hex[5:6]
	}
	if name, ok := shortNames[c.ToHex()]; ok && len(name) < len(hex) {
		return name
	}
	return hex
}

func formatAlpha(a float64, compressed bool) string {
	s := fmt.Sprintf("%.10f", a)
	s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	if compressed && strings.HasPrefix(s, "0.") {
		s = s[1:]
	}
	return s
}

// shortNames maps #rrggbb to colour names that can be shorter than hex
// output. The values are resolved through csscolorparser at init.
var shortNames = func() map[string]string {
	names := []string{
		"red", "tan", "aqua", "blue", "cyan", "gold", "gray", "grey", "lime",
		"navy", "peru", "pink", "plum", "snow", "teal", "azure", "beige",
		"brown", "coral", "green", "ivory", "khaki", "linen", "olive", "wheat",
		"white", "black", "bisque", "indigo", "maroon", "orange", "orchid",
		"purple", "salmon", "sienna", "silver", "tomato", "violet", "yellow",
	}
	out := make(map[string]string, len(names))
	for _, name := range names {
		parsed, err := csscolorparser.Parse(name)
		if err != nil {
			continue
		}
		hex := fromParsed(parsed).ToHex()
		if existing, ok := out[hex]; !ok || len(name) < len(existing) {
			out[hex] = name
		}
	}
	return out
}()
