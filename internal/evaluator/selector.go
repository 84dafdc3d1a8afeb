package evaluator

import (
	"strings"

	"bennypowers.dev/scssc/internal/diagnostics"
)

// Selectors are handled as text. A selector list is split at top-level
// commas into complex selectors, each normalized to single spaces with
// combinators surrounded by spaces: ".a > .b + .c".
//
// Nesting rule: a child selector containing `&` has every `&` replaced by
// the parent selector text, so `&-x`, `&.x`, `.x &` and `:not(&)` all
// work on the whole parent. A child without `&` is appended to the parent
// as a descendant. With several parents and children the result is parent
// major: parents[0] with every child, then parents[1], and so on.

// scanner walks selector text tracking quotes, brackets and parens
type scanner struct {
	quote  byte
	parens int
	square int
}

// step consumes s[i] and reports whether it is at the top level: outside
// quotes, brackets and parens
func (sc *scanner) step(s string, i int) (topLevel bool) {
	c := s[i]
	if sc.quote != 0 {
		if c == sc.quote && (i == 0 || s[i-1] != '\\') {
			sc.quote = 0
		}
		return false
	}
	switch c {
	case '"', '\'':
		sc.quote = c
		return false
	case '(':
		sc.parens++
		return false
	case ')':
		sc.parens--
		return false
	case '[':
		sc.square++
		return false
	case ']':
		sc.square--
		return false
	}
	return sc.parens == 0 && sc.square == 0
}

// splitSelectorList splits at top-level commas and normalizes each part
func splitSelectorList(text string) []string {
	var out []string
	var sc scanner
	start := 0
	for i := 0; i < len(text); i++ {
		if sc.step(text, i) && text[i] == ',' {
			if sel := normalizeSelector(text[start:i]); sel != "" {
				out = append(out, sel)
			}
			start = i + 1
		}
	}
	if sel := normalizeSelector(text[start:]); sel != "" {
		out = append(out, sel)
	}
	return out
}

func isCombinator(c byte) bool {
	return c == '>' || c == '+' || c == '~'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

// normalizeSelector collapses whitespace and spaces combinators
func normalizeSelector(s string) string {
	var b strings.Builder
	var sc scanner
	pendingSpace := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		wasTop := sc.quote == 0 && sc.parens == 0 && sc.square == 0
		top := sc.step(s, i)
		if sc.quote != 0 || (!wasTop && !top) {
			if isSpace(c) && sc.quote == 0 {
				if b.Len() > 0 && !strings.HasSuffix(b.String(), " ") {
					b.WriteByte(' ')
				}
				continue
			}
			b.WriteByte(c)
			continue
		}
		switch {
		case isSpace(c):
			pendingSpace = true
		case top && isCombinator(c) && !(c == '~' && i+1 < len(s) && s[i+1] == '='):
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteByte(c)
			pendingSpace = true
		default:
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteByte(c)
		}
	}
	return strings.TrimSpace(b.String())
}

// collapseSpace reduces runs of whitespace to one space
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// hasParentRef reports whether sel contains `&` outside strings and
// attribute selectors
func hasParentRef(sel string) bool {
	var sc scanner
	for i := 0; i < len(sel); i++ {
		inAttr := sc.square > 0
		sc.step(sel, i)
		if sel[i] == '&' && sc.quote == 0 && !inAttr {
			return true
		}
	}
	return false
}

func anyParentRef(selectors []string) bool {
	for _, s := range selectors {
		if hasParentRef(s) {
			return true
		}
	}
	return false
}

func replaceParentRef(sel, parent string) string {
	var b strings.Builder
	var sc scanner
	for i := 0; i < len(sel); i++ {
		inAttr := sc.square > 0
		sc.step(sel, i)
		if sel[i] == '&' && sc.quote == 0 && !inAttr {
			b.WriteString(parent)
			continue
		}
		b.WriteByte(sel[i])
	}
	return b.String()
}

// nestSelectors resolves children against the parent selector list. At
// the root (parents == nil) a `&` is an error.
func nestSelectors(parents, children []string) ([]string, error) {
	if parents == nil {
		for _, child := range children {
			if hasParentRef(child) {
				return nil, diagnostics.NewArgumentError("Top-level selectors may not contain the parent selector \"&\".")
			}
		}
		return children, nil
	}
	out := make([]string, 0, len(parents)*len(children))
	for _, parent := range parents {
		for _, child := range children {
			if hasParentRef(child) {
				out = append(out, normalizeSelector(replaceParentRef(child, parent)))
			} else {
				out = append(out, normalizeSelector(parent+" "+child))
			}
		}
	}
	return out, nil
}

// splitComplex splits a normalized complex selector into compound
// selectors and combinators
func splitComplex(sel string) []string {
	var out []string
	var sc scanner
	start := 0
	for i := 0; i < len(sel); i++ {
		if sc.step(sel, i) && sel[i] == ' ' {
			if start < i {
				out = append(out, sel[start:i])
			}
			start = i + 1
		}
	}
	if start < len(sel) {
		out = append(out, sel[start:])
	}
	return out
}

// splitCompound splits a compound selector into simple selectors:
// type or universal, .class, #id, %placeholder, [attr], :pseudo(...)
func splitCompound(compound string) []string {
	var out []string
	var sc scanner
	start := 0
	for i := 0; i < len(compound); i++ {
		c := compound[i]
		wasTop := sc.quote == 0 && sc.parens == 0 && sc.square == 0
		sc.step(compound, i)
		if !wasTop || i == start {
			continue
		}
		switch c {
		case '.', '#', '%', '[':
		case ':':
			if compound[i-1] == ':' {
				continue
			}
		default:
			continue
		}
		out = append(out, compound[start:i])
		start = i
	}
	if start < len(compound) {
		out = append(out, compound[start:])
	}
	return out
}

func isTypeSelector(simple string) bool {
	if simple == "" {
		return false
	}
	switch simple[0] {
	case '.', '#', '%', '[', ':':
		return false
	}
	return true
}

func isPseudoElement(simple string) bool {
	return strings.HasPrefix(simple, "::")
}

// isPlaceholder reports whether a selector contains a %placeholder
func isPlaceholder(sel string) bool {
	var sc scanner
	for i := 0; i < len(sel); i++ {
		top := sc.step(sel, i)
		if top && sel[i] == '%' && i+1 < len(sel) {
			c := sel[i+1]
			if c == '-' || c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
				return true
			}
		}
	}
	return false
}

// splitMediaQueries splits a media query list at top-level commas
func splitMediaQueries(text string) []string {
	var out []string
	var sc scanner
	start := 0
	for i := 0; i < len(text); i++ {
		if sc.step(text, i) && text[i] == ',' {
			out = append(out, collapseSpace(text[start:i]))
			start = i + 1
		}
	}
	out = append(out, collapseSpace(text[start:]))
	return out
}

// mediaQuery is a query split into its type, such as "screen" or
// "not print", and its parenthesized conditions
type mediaQuery struct {
	typ        string
	conditions []string
}

func parseMediaQuery(q string) mediaQuery {
	var mq mediaQuery
	var words []string
	rest := q
	for rest != "" && !strings.HasPrefix(rest, "(") {
		i := strings.IndexByte(rest, ' ')
		if i < 0 {
			words = append(words, rest)
			rest = ""
			break
		}
		word := rest[:i]
		rest = strings.TrimSpace(rest[i+1:])
		if strings.EqualFold(word, "and") {
			break
		}
		words = append(words, word)
	}
	mq.typ = strings.Join(words, " ")
	for rest != "" {
		i := strings.Index(strings.ToLower(rest), " and ")
		if i < 0 {
			mq.conditions = append(mq.conditions, rest)
			break
		}
		mq.conditions = append(mq.conditions, rest[:i])
		rest = strings.TrimSpace(rest[i+5:])
	}
	return mq
}

func (mq mediaQuery) String() string {
	parts := mq.conditions
	if mq.typ != "" {
		parts = append([]string{mq.typ}, parts...)
	}
	return strings.Join(parts, " and ")
}

// mergeMediaQueries combines an outer and an inner query list the way
// nested @media rules intersect. Queries with conflicting media types are
// dropped.
func mergeMediaQueries(outer, inner []string) []string {
	var out []string
	for _, o := range outer {
		for _, i := range inner {
			oq, iq := parseMediaQuery(o), parseMediaQuery(i)
			merged := mediaQuery{typ: oq.typ}
			switch {
			case oq.typ == "":
				merged.typ = iq.typ
			case iq.typ != "" && !strings.EqualFold(oq.typ, iq.typ):
				continue
			}
			merged.conditions = append(append([]string(nil), oq.conditions...), iq.conditions...)
			out = append(out, merged.String())
		}
	}
	return out
}
