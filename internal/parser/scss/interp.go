package scss

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"bennypowers.dev/scssc/internal/ast"
	"bennypowers.dev/scssc/internal/lexer"
)

type interpBuilder struct {
	parts []any
	text  strings.Builder
}

func (b *interpBuilder) addText(s string) {
	b.text.WriteString(s)
}

func (b *interpBuilder) addExpr(e ast.Expression) {
	b.flush()
	b.parts = append(b.parts, e)
}

func (b *interpBuilder) flush() {
	if b.text.Len() > 0 {
		b.parts = append(b.parts, b.text.String())
		b.text.Reset()
	}
}

// build finishes the interpolation. With trim, leading and trailing
// whitespace of the literal text at either end is removed.
func (b *interpBuilder) build(span ast.Span, trim bool) *ast.Interpolation {
	b.flush()
	parts := b.parts
	if trim && len(parts) > 0 {
		if s, ok := parts[0].(string); ok {
			parts[0] = strings.TrimLeft(s, " \t\r\n\f")
		}
		last := len(parts) - 1
		if s, ok := parts[last].(string); ok {
			parts[last] = strings.TrimRight(s, " \t\r\n\f")
		}
		kept := parts[:0]
		for _, part := range parts {
			if s, ok := part.(string); ok && s == "" {
				continue
			}
			kept = append(kept, part)
		}
		parts = kept
	}
	return &ast.Interpolation{Parts: parts, Span: span}
}

type rawOptions struct {
	// vars substitutes $variables, as in media queries and calc()
	vars bool
	// braces tracks {} nesting, as in custom property values
	braces bool
	// comments keeps block comments instead of replacing them with a space
	comments bool
}

func stopAt(kinds ...lexer.Kind) func(lexer.Token) bool {
	return func(t lexer.Token) bool {
		for _, k := range kinds {
			if t.Kind == k {
				return true
			}
		}
		return false
	}
}

// parseRaw collects source text up to a stop token at nesting depth zero,
// parsing `#{}` interpolations. The stop token is not consumed.
func (p *Parser) parseRaw(opts rawOptions, stop func(lexer.Token) bool) (*ast.Interpolation, error) {
	var b interpBuilder
	p.skipTrivia()
	start := p.cur().Offset
	depth := 0
	for {
		t := p.cur()
		if t.Kind == lexer.EOF || (depth == 0 && stop(t)) {
			break
		}
		switch t.Kind {
		case lexer.LParen, lexer.LBracket:
			depth++
		case lexer.RParen, lexer.RBracket:
			depth--
		case lexer.LBrace:
			if opts.braces {
				depth++
			}
		case lexer.RBrace:
			if opts.braces {
				depth--
			}
		case lexer.LineComment:
			p.advance()
			continue
		case lexer.BlockComment:
			p.advance()
			if opts.comments {
				b.addText(t.Text)
			} else {
				b.addText(" ")
			}
			continue
		case lexer.InterpStart:
			expr, err := p.parseInterpolationExpr()
			if err != nil {
				return nil, err
			}
			b.addExpr(expr)
			continue
		case lexer.Variable:
			if opts.vars {
				p.advance()
				b.addExpr(&ast.VarRef{Name: t.Text[1:], Span: p.span(t.Offset, t.End())})
				continue
			}
		case lexer.String:
			if strings.Contains(t.Text, "#{") {
				p.advance()
				interp, err := p.interpolateSource(t.Offset, t.End(), false)
				if err != nil {
					return nil, err
				}
				for _, part := range interp.Parts {
					if s, ok := part.(string); ok {
						b.addText(s)
					} else {
						b.addExpr(part.(ast.Expression))
					}
				}
				continue
			}
		}
		b.addText(t.Text)
		p.advance()
	}
	return b.build(p.spanFrom(start), true), nil
}

// parseInterpolationExpr parses `#{ expression }`.
func (p *Parser) parseInterpolationExpr() (ast.Expression, error) {
	if _, err := p.expect(lexer.InterpStart); err != nil {
		return nil, err
	}
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.InterpEnd); err != nil {
		return nil, err
	}
	return expr, nil
}

// interpolateTokens turns the adjacent tokens from the current position up
// to end into an interpolation, as for property names.
func (p *Parser) interpolateTokens(end int) (*ast.Interpolation, error) {
	var b interpBuilder
	start := p.cur().Offset
	for p.pos < end {
		t := p.cur()
		if t.Kind == lexer.InterpStart {
			expr, err := p.parseInterpolationExpr()
			if err != nil {
				return nil, err
			}
			b.addExpr(expr)
			continue
		}
		b.addText(t.Text)
		p.advance()
	}
	return b.build(p.spanFrom(start), false), nil
}

// interpolateSource splits file content between start and end into text and
// `#{}` expressions. With decode, backslash escapes are decoded as in a
// quoted string body; otherwise text is kept verbatim.
func (p *Parser) interpolateSource(start, end int, decode bool) (*ast.Interpolation, error) {
	var b interpBuilder
	src := p.file.Content
	i := start
	for i < end {
		c := src[i]
		switch {
		case c == '\\' && i+1 < end:
			if !decode {
				_, size := utf8.DecodeRuneInString(src[i+1:])
				b.addText(src[i : i+1+size])
				i += 1 + size
				continue
			}
			r, next := decodeEscape(src, i+1, end)
			if r >= 0 {
				b.addText(string(r))
			}
			i = next
		case c == '#' && i+1 < end && src[i+1] == '{':
			closeAt := matchInterpolation(src, i, end)
			if closeAt < 0 {
				return nil, p.errorf(lexer.Token{Kind: lexer.InterpStart, Text: "#{", Offset: i}, "unterminated interpolation")
			}
			toks, err := lexer.TokenizeRange(p.file, i+2, closeAt)
			if err != nil {
				return nil, err
			}
			sub := p.sub(toks)
			expr, err := sub.parseExpression()
			if err != nil {
				return nil, err
			}
			if t := sub.peek(); t.Kind != lexer.EOF {
				return nil, sub.errorAt(t, `"}"`)
			}
			b.addExpr(expr)
			i = closeAt + 1
		default:
			b.addText(src[i : i+1])
			i++
		}
	}
	return b.build(p.span(start, end), false), nil
}

// decodeEscape decodes the escape whose body starts at i (just after the
// backslash). It returns -1 for an escaped newline, which is a line
// continuation.
func decodeEscape(src string, i, end int) (rune, int) {
	if src[i] == '\n' {
		return -1, i + 1
	}
	j := i
	for j < end && j-i < 6 && isHex(src[j]) {
		j++
	}
	if j > i {
		n, _ := strconv.ParseUint(src[i:j], 16, 32)
		if j < end && (src[j] == ' ' || src[j] == '\t' || src[j] == '\n') {
			j++
		}
		if n == 0 || n > utf8.MaxRune {
			return utf8.RuneError, j
		}
		return rune(n), j
	}
	r, size := utf8.DecodeRuneInString(src[i:])
	return r, i + size
}

// matchInterpolation returns the offset of the `}` closing the `#{` at i,
// skipping nested braces and quoted strings, or -1.
func matchInterpolation(src string, i, end int) int {
	depth := 0
	for j := i + 1; j < end; j++ {
		switch src[j] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return j
			}
		case '"', '\'':
			quote := src[j]
			for j++; j < end && src[j] != quote; j++ {
				if src[j] == '\\' {
					j++
				}
			}
		}
	}
	return -1
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
