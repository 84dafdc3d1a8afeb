// Package lexer turns stylesheet source into a flat slice of tokens.
//
// Whitespace and comments are kept in the stream: selectors, media queries
// and custom property values are reassembled from raw token text, and the
// descendant combinator is significant whitespace.
package lexer

import (
	"fmt"
	"strings"

	"bennypowers.dev/scssc/internal/diagnostics"
	"bennypowers.dev/scssc/internal/position"
)

type brace struct {
	interp bool
	offset int
}

type opener struct {
	ch     byte
	offset int
}

type lexer struct {
	file   *position.File
	src    string
	pos    int
	end    int
	tokens []Token
	braces []brace
	parens []opener
}

// Tokenize splits the whole file into tokens. The last token is always EOF.
func Tokenize(file *position.File) ([]Token, error) {
	return TokenizeRange(file, 0, len(file.Content))
}

// TokenizeRange tokenizes file.Content[start:end]. Token offsets stay
// relative to the whole file so spans remain valid; this is used to parse
// interpolation inside quoted strings and url() tokens.
func TokenizeRange(file *position.File, start, end int) ([]Token, error) {
	l := &lexer{
		file: file,
		src:  file.Content,
		pos:  start,
		end:  end,
	}
	if err := l.run(); err != nil {
		return nil, err
	}
	return l.tokens, nil
}

func (l *lexer) errorf(offset int, format string, args ...any) error {
	line, col := l.file.Position(offset)
	return diagnostics.NewSyntaxError(diagnostics.Location{
		URL:    l.file.URL,
		Path:   l.file.Path,
		Line:   line,
		Column: col,
		Offset: offset,
		End:    offset + 1,
	}, fmt.Sprintf(format, args...))
}

func (l *lexer) peekAt(i int) byte {
	if i < l.end {
		return l.src[i]
	}
	return 0
}

func (l *lexer) emit(kind Kind, start int) {
	l.tokens = append(l.tokens, Token{Kind: kind, Text: l.src[start:l.pos], Offset: start})
}

func (l *lexer) prevSignificant() (Token, bool) {
	for i := len(l.tokens) - 1; i >= 0; i-- {
		if l.tokens[i].Kind != LineComment && l.tokens[i].Kind != BlockComment {
			return l.tokens[i], true
		}
	}
	return Token{}, false
}

func (l *lexer) run() error {
	for l.pos < l.end {
		if err := l.next(); err != nil {
			return err
		}
	}

	for i := len(l.braces) - 1; i >= 0; i-- {
		if l.braces[i].interp {
			return l.errorf(l.braces[i].offset, "unterminated interpolation")
		}
	}
	if len(l.parens) > 0 {
		open := l.parens[len(l.parens)-1]
		return l.errorf(open.offset, "unclosed %q", string(open.ch))
	}

	l.tokens = append(l.tokens, Token{Kind: EOF, Offset: l.end})
	return nil
}

func (l *lexer) next() error {
	start := l.pos
	c := l.src[l.pos]
	n := l.peekAt(l.pos + 1)

	switch {
	case isSpace(c):
		for l.pos < l.end && isSpace(l.src[l.pos]) {
			l.pos++
		}
		l.emit(Whitespace, start)

	case c == '/' && n == '/':
		for l.pos < l.end && l.src[l.pos] != '\n' {
			l.pos++
		}
		l.emit(LineComment, start)

	case c == '/' && n == '*':
		idx := strings.Index(l.src[l.pos+2:l.end], "*/")
		if idx < 0 {
			return l.errorf(start, "unterminated comment")
		}
		l.pos += idx + 4
		l.emit(BlockComment, start)

	case c == '"' || c == '\'':
		return l.lexString()

	case c == '#':
		switch {
		case n == '{':
			l.pos += 2
			l.braces = append(l.braces, brace{interp: true, offset: start})
			l.emit(InterpStart, start)
		case isNameChar(n) || n == '\\':
			l.pos++
			l.consumeName()
			l.emit(Hash, start)
		default:
			return l.errorf(start, "invalid character %q", string(c))
		}

	case c == '$':
		l.pos++
		if l.startsIdent(l.pos) {
			l.consumeName()
			l.emit(Variable, start)
		} else {
			l.emit(Delim, start)
		}

	case c == '@':
		l.pos++
		if !l.startsIdent(l.pos) {
			return l.errorf(start, "expected at-rule name after \"@\"")
		}
		l.consumeName()
		l.emit(AtKeyword, start)

	case c == '%':
		l.pos++
		if l.startsIdent(l.pos) {
			l.consumeName()
			l.emit(Placeholder, start)
		} else {
			l.emit(Percent, start)
		}

	case c == '!':
		if n == '=' {
			l.pos += 2
			l.emit(NotEq, start)
			return nil
		}
		i := l.pos + 1
		for i < l.end && isSpace(l.src[i]) {
			i++
		}
		if !l.startsIdent(i) {
			return l.errorf(start, "expected flag name after \"!\"")
		}
		l.pos = i
		l.consumeName()
		l.emit(Bang, start)

	case isDigit(c) || (c == '.' && isDigit(n)):
		l.lexNumber()

	case c == '+' && (isDigit(n) || (n == '.' && isDigit(l.peekAt(l.pos+2)))) && l.signedNumberContext():
		l.pos++
		l.lexNumberFrom(start)

	case c == '-':
		switch {
		case (isDigit(n) || (n == '.' && isDigit(l.peekAt(l.pos+2)))) && l.signedNumberContext():
			l.pos++
			l.lexNumberFrom(start)
		case l.startsIdent(l.pos):
			l.lexIdent()
		default:
			l.pos++
			l.emit(Minus, start)
		}

	case isNameStart(c) || c == '\\':
		l.lexIdent()

	case c == '{':
		l.pos++
		l.braces = append(l.braces, brace{offset: start})
		l.emit(LBrace, start)

	case c == '}':
		l.pos++
		kind := RBrace
		if len(l.braces) > 0 {
			if l.braces[len(l.braces)-1].interp {
				kind = InterpEnd
			}
			l.braces = l.braces[:len(l.braces)-1]
		}
		l.emit(kind, start)

	case c == '(' || c == '[':
		l.pos++
		l.parens = append(l.parens, opener{ch: c, offset: start})
		if c == '(' {
			l.emit(LParen, start)
		} else {
			l.emit(LBracket, start)
		}

	case c == ')' || c == ']':
		want := byte('(')
		kind := RParen
		if c == ']' {
			want, kind = '[', RBracket
		}
		if len(l.parens) == 0 || l.parens[len(l.parens)-1].ch != want {
			return l.errorf(start, "unmatched %q", string(c))
		}
		l.parens = l.parens[:len(l.parens)-1]
		l.pos++
		l.emit(kind, start)

	case c == '.':
		if n == '.' && l.peekAt(l.pos+2) == '.' {
			l.pos += 3
			l.emit(Ellipsis, start)
		} else {
			l.pos++
			l.emit(Dot, start)
		}

	case c == '=':
		if n == '=' {
			l.pos += 2
			l.emit(Eq, start)
		} else {
			l.pos++
			l.emit(Assign, start)
		}

	case c == '<' || c == '>':
		kind, eqKind := Lt, LtEq
		if c == '>' {
			kind, eqKind = Gt, GtEq
		}
		if n == '=' {
			l.pos += 2
			l.emit(eqKind, start)
		} else {
			l.pos++
			l.emit(kind, start)
		}

	case c < 0x20 || c == 0x7f:
		return l.errorf(start, "invalid character %q", string(c))

	default:
		l.pos++
		l.emit(singleCharKinds[c], start)
	}
	return nil
}

// singleCharKinds maps punctuation to kinds; anything else is a Delim.
var singleCharKinds = func() [128]Kind {
	var kinds [128]Kind
	for i := range kinds {
		kinds[i] = Delim
	}
	kinds[';'] = Semicolon
	kinds[':'] = Colon
	kinds[','] = Comma
	kinds['&'] = Amp
	kinds['+'] = Plus
	kinds['*'] = Star
	kinds['/'] = Slash
	kinds['~'] = Tilde
	kinds['|'] = Pipe
	kinds['^'] = Caret
	return kinds
}()

// signedNumberContext reports whether a sign directly before a digit starts
// a number rather than being a binary operator: `1 -2` is a list of two
// numbers while `1-2` and `1 - 2` are subtractions.
func (l *lexer) signedNumberContext() bool {
	if len(l.tokens) == 0 {
		return true
	}
	last := l.tokens[len(l.tokens)-1]
	if last.Kind == Whitespace {
		// `a - 2`: a sign followed by a space is an operator, handled by the
		// caller only reaching here when a digit follows the sign directly.
		return true
	}
	prev, _ := l.prevSignificant()
	switch prev.Kind {
	case Number, Ident, Variable, String, RParen, RBracket, InterpEnd, Hash, Percent:
		return false
	}
	return true
}

func (l *lexer) startsIdent(i int) bool {
	c := l.peekAt(i)
	if isNameStart(c) || c == '\\' {
		return true
	}
	if c == '-' {
		n := l.peekAt(i + 1)
		return isNameStart(n) || n == '-' || n == '\\'
	}
	return false
}

func (l *lexer) consumeName() {
	for l.pos < l.end {
		c := l.src[l.pos]
		switch {
		case isNameChar(c):
			l.pos++
		case c == '\\' && l.pos+1 < l.end:
			l.consumeEscape()
		default:
			return
		}
	}
}

func (l *lexer) consumeEscape() {
	l.pos++ // backslash
	if isHex(l.src[l.pos]) {
		for i := 0; i < 6 && l.pos < l.end && isHex(l.src[l.pos]); i++ {
			l.pos++
		}
		if l.pos < l.end && isSpace(l.src[l.pos]) {
			l.pos++
		}
		return
	}
	l.pos++
}

func (l *lexer) lexIdent() {
	start := l.pos
	l.consumeName()
	if strings.EqualFold(l.src[start:l.pos], "url") && l.peekAt(l.pos) == '(' {
		if end, ok := l.scanURL(l.pos + 1); ok {
			l.pos = end
			l.emit(URL, start)
			return
		}
	}
	l.emit(Ident, start)
}

// scanURL scans an unquoted url( ... ) body starting after the paren and
// returns the offset after the closing paren. Quoted or variable arguments
// are left to the parser as an ordinary function call.
func (l *lexer) scanURL(i int) (int, bool) {
	for i < l.end && isSpace(l.src[i]) {
		i++
	}
	if c := l.peekAt(i); c == '"' || c == '\'' || c == '$' || c == ')' {
		return 0, false
	}
	for i < l.end {
		c := l.src[i]
		switch {
		case c == ')':
			return i + 1, true
		case c == '\\' && i+1 < l.end:
			i += 2
		case c == '#' && l.peekAt(i+1) == '{':
			end, err := l.skipInterpolation(i)
			if err != nil {
				return 0, false
			}
			i = end
		case c == '"' || c == '\'' || c == '(' || c == '\n':
			return 0, false
		default:
			i++
		}
	}
	return 0, false
}

// skipInterpolation returns the offset after the `}` closing the
// interpolation starting at i, honouring nested braces and strings.
func (l *lexer) skipInterpolation(i int) (int, error) {
	start := i
	i += 2
	depth := 1
	for i < l.end {
		c := l.src[i]
		switch c {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1, nil
			}
		case '"', '\'':
			end, err := l.skipString(i)
			if err != nil {
				return 0, err
			}
			i = end
			continue
		}
		i++
	}
	return 0, l.errorf(start, "unterminated interpolation")
}

func (l *lexer) skipString(i int) (int, error) {
	start := i
	quote := l.src[i]
	i++
	for i < l.end {
		c := l.src[i]
		switch {
		case c == quote:
			return i + 1, nil
		case c == '\\' && i+1 < l.end:
			i += 2
		case c == '#' && l.peekAt(i+1) == '{':
			end, err := l.skipInterpolation(i)
			if err != nil {
				return 0, err
			}
			i = end
		case c == '\n':
			return 0, l.errorf(start, "unterminated string")
		default:
			i++
		}
	}
	return 0, l.errorf(start, "unterminated string")
}

func (l *lexer) lexString() error {
	start := l.pos
	end, err := l.skipString(l.pos)
	if err != nil {
		return err
	}
	l.pos = end
	l.emit(String, start)
	return nil
}

func (l *lexer) lexNumber() {
	l.lexNumberFrom(l.pos)
}

func (l *lexer) lexNumberFrom(start int) {
	for l.pos < l.end && isDigit(l.src[l.pos]) {
		l.pos++
	}
	if l.peekAt(l.pos) == '.' && isDigit(l.peekAt(l.pos+1)) {
		l.pos++
		for l.pos < l.end && isDigit(l.src[l.pos]) {
			l.pos++
		}
	}
	if c := l.peekAt(l.pos); c == 'e' || c == 'E' {
		n := l.peekAt(l.pos + 1)
		if isDigit(n) || ((n == '-' || n == '+') && isDigit(l.peekAt(l.pos+2))) {
			l.pos += 2
			for l.pos < l.end && isDigit(l.src[l.pos]) {
				l.pos++
			}
		}
	}
	switch c := l.peekAt(l.pos); {
	case c == '%':
		l.pos++
	case isLetter(c):
		for l.pos < l.end && (isLetter(l.src[l.pos]) || l.src[l.pos] == '_') {
			l.pos++
		}
	}
	l.emit(Number, start)
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isHex(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNameStart(c byte) bool {
	return isLetter(c) || c == '_' || c >= 0x80
}

func isNameChar(c byte) bool {
	return isNameStart(c) || isDigit(c) || c == '-'
}
