package value

import (
	"strings"

	"bennypowers.dev/scssc/internal/color"
)

// String is a SassScript string, quoted or unquoted
type String struct {
	Text   string
	Quoted bool
}

// Quoted returns a quoted string
func Quoted(text string) String {
	return String{Text: text, Quoted: true}
}

// Unquoted returns an unquoted string
func Unquoted(text string) String {
	return String{Text: text}
}

func (s String) Kind() string { return "string" }

func (s String) Truthy() bool { return true }

func (s String) CSS(bool) (string, error) {
	return s.Inspect(), nil
}

func (s String) Inspect() string {
	if !s.Quoted {
		return s.Text
	}
	return QuoteString(s.Text)
}

// Equal ignores quoting: "a" == a
func (s String) Equal(other Value) bool {
	o, ok := other.(String)
	return ok && o.Text == s.Text
}

// QuoteString writes text as a CSS string literal. Double quotes are
// preferred unless the text contains a double quote and no single quote.
func QuoteString(text string) string {
	quote := byte('"')
	if strings.ContainsRune(text, '"') && !strings.ContainsRune(text, '\'') {
		quote = '\''
	}

	var b strings.Builder
	b.Grow(len(text) + 2)
	b.WriteByte(quote)
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c == quote || c == '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		case c == '\n':
			b.WriteString(`\a`)
			if i+1 < len(text) && isHexOrSpace(text[i+1]) {
				b.WriteByte(' ')
			}
		case c < 0x20 || c == 0x7f:
			b.WriteByte('\\')
			b.WriteString(strings.ToLower(hexByte(c)))
			b.WriteByte(' ')
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte(quote)
	return b.String()
}

func isHexOrSpace(c byte) bool {
	return c == ' ' || c == '\t' || (c >= '0' && c <= '9') || (c|0x20 >= 'a' && c|0x20 <= 'f')
}

func hexByte(c byte) string {
	const digits = "0123456789abcdef"
	if c < 0x10 {
		return string(digits[c])
	}
	return string([]byte{digits[c>>4], digits[c&0xf]})
}

// Color is a SassScript colour. Original keeps the source text of a literal
// so unmodified colours are written back as authored.
type Color struct {
	color.RGBA
	Original string
}

// NewColor wraps computed channels with no original text
func NewColor(c color.RGBA) Color {
	return Color{RGBA: c}
}

func (c Color) Kind() string { return "color" }

func (c Color) Truthy() bool { return true }

func (c Color) CSS(compressed bool) (string, error) {
	if c.Original != "" && !compressed {
		return c.Original, nil
	}
	return c.RGBA.ToCSS(compressed), nil
}

func (c Color) Inspect() string {
	s, _ := c.CSS(false)
	return s
}

func (c Color) Equal(other Value) bool {
	o, ok := other.(Color)
	if !ok {
		return false
	}
	r1, g1, b1 := c.Channels()
	r2, g2, b2 := o.Channels()
	return r1 == r2 && g1 == g2 && b1 == b2 && fuzzyEqual(c.A, o.A)
}
