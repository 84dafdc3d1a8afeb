// Package scss parses SCSS and plain CSS sources into syntax trees.
//
// The parser is recursive descent over the token stream produced by the
// lexer. Binary operators use precedence climbing. At-rules dispatch through
// a fixed table keyed by name; names not in the table are generic CSS
// at-rules whose parameters and blocks pass through to the output.
package scss

import (
	"strings"

	"bennypowers.dev/scssc/internal/ast"
	"bennypowers.dev/scssc/internal/diagnostics"
	"bennypowers.dev/scssc/internal/lexer"
	"bennypowers.dev/scssc/internal/position"
)

// Parser holds the state of one parse. It is not safe for concurrent use.
type Parser struct {
	file    *position.File
	toks    []lexer.Token
	pos     int
	prevEnd int

	// plain is set for .css sources, which reject Sass-only constructs
	plain bool

	ruleDepth  int
	mixinDepth int
	inFunction bool
	sawContent bool
	stopWords  map[string]bool
}

// Parse tokenizes and parses an SCSS file.
func Parse(file *position.File) (*ast.Stylesheet, error) {
	toks, err := lexer.Tokenize(file)
	if err != nil {
		return nil, err
	}
	return ParseTokens(file, toks)
}

// ParseCSS parses a plain CSS file. Variables, mixins, control flow and
// module rules are rejected; nesting and interpolation are not evaluated
// differently from SCSS.
func ParseCSS(file *position.File) (*ast.Stylesheet, error) {
	toks, err := lexer.Tokenize(file)
	if err != nil {
		return nil, err
	}
	p := newParser(file, toks)
	p.plain = true
	return p.parseStylesheet()
}

// ParseTokens parses an already tokenized SCSS file.
func ParseTokens(file *position.File, toks []lexer.Token) (*ast.Stylesheet, error) {
	return newParser(file, toks).parseStylesheet()
}

func newParser(file *position.File, toks []lexer.Token) *Parser {
	if len(toks) == 0 || toks[len(toks)-1].Kind != lexer.EOF {
		toks = append(toks, lexer.Token{Kind: lexer.EOF, Offset: len(file.Content)})
	}
	return &Parser{file: file, toks: toks}
}

// sub returns a parser over a sub-range of tokens from the same file, used
// for interpolation inside strings and urls.
func (p *Parser) sub(toks []lexer.Token) *Parser {
	s := newParser(p.file, toks)
	s.plain = p.plain
	s.ruleDepth = p.ruleDepth
	s.mixinDepth = p.mixinDepth
	s.inFunction = p.inFunction
	return s
}

func (p *Parser) parseStylesheet() (*ast.Stylesheet, error) {
	children, err := p.parseStatements(false)
	if err != nil {
		return nil, err
	}
	return &ast.Stylesheet{
		Children: children,
		Span:     p.span(0, len(p.file.Content)),
		Plain:    p.plain,
	}, nil
}

// token navigation

func (p *Parser) cur() lexer.Token {
	return p.toks[p.pos]
}

func (p *Parser) advance() lexer.Token {
	t := p.toks[p.pos]
	if t.Kind != lexer.EOF {
		p.pos++
	}
	if !t.IsTrivia() {
		p.prevEnd = t.End()
	}
	return t
}

func (p *Parser) skipTrivia() {
	for p.toks[p.pos].IsTrivia() {
		p.pos++
	}
}

// significantFrom returns the index of the first non-trivia token at or
// after i.
func (p *Parser) significantFrom(i int) int {
	for i < len(p.toks)-1 && p.toks[i].IsTrivia() {
		i++
	}
	return i
}

func (p *Parser) peek() lexer.Token {
	return p.toks[p.significantFrom(p.pos)]
}

// peekN returns the n-th significant token ahead, peekN(0) == peek().
func (p *Parser) peekN(n int) lexer.Token {
	i := p.significantFrom(p.pos)
	for ; n > 0; n-- {
		i = p.significantFrom(i + 1)
	}
	return p.toks[i]
}

func (p *Parser) next() lexer.Token {
	p.skipTrivia()
	return p.advance()
}

func (p *Parser) at(kind lexer.Kind) bool {
	return p.peek().Kind == kind
}

func (p *Parser) atIdent(word string) bool {
	t := p.peek()
	return t.Kind == lexer.Ident && strings.EqualFold(t.Text, word)
}

func (p *Parser) accept(kind lexer.Kind) bool {
	if p.at(kind) {
		p.next()
		return true
	}
	return false
}

func (p *Parser) acceptIdent(word string) bool {
	if p.atIdent(word) {
		p.next()
		return true
	}
	return false
}

func (p *Parser) expect(kind lexer.Kind) (lexer.Token, error) {
	t := p.peek()
	if t.Kind != kind {
		return t, p.errorAt(t, kind.String())
	}
	return p.next(), nil
}

func (p *Parser) expectIdent(word string) error {
	t := p.peek()
	if t.Kind != lexer.Ident || !strings.EqualFold(t.Text, word) {
		return p.errorAt(t, `"`+word+`"`)
	}
	p.next()
	return nil
}

// errors and spans

func (p *Parser) span(start, end int) ast.Span {
	return ast.Span{File: p.file, Start: start, End: end}
}

func (p *Parser) spanFrom(start int) ast.Span {
	end := p.prevEnd
	if end < start {
		end = start
	}
	return p.span(start, end)
}

func (p *Parser) errorAt(t lexer.Token, expected string) error {
	return diagnostics.NewParseError(p.span(t.Offset, t.End()).Location(), expected, t.Describe())
}

func (p *Parser) errorf(t lexer.Token, format string, args ...any) error {
	return diagnostics.NewParseErrorf(p.span(t.Offset, t.End()).Location(), format, args...)
}

// finishStatement consumes the `;` ending a statement. The semicolon is
// optional before a closing brace or the end of the file.
func (p *Parser) finishStatement() error {
	t := p.peek()
	switch t.Kind {
	case lexer.Semicolon:
		p.next()
		return nil
	case lexer.RBrace, lexer.EOF:
		return nil
	}
	return p.errorAt(t, `";"`)
}

// statements

func (p *Parser) parseStatements(inBlock bool) ([]ast.Statement, error) {
	var out []ast.Statement
	for {
		t := p.cur()
		switch t.Kind {
		case lexer.Whitespace, lexer.LineComment, lexer.Semicolon:
			p.advance()
			continue
		case lexer.BlockComment:
			p.advance()
			out = append(out, &ast.Comment{
				Text: t.Text,
				Loud: strings.HasPrefix(t.Text, "/*!"),
				Span: p.span(t.Offset, t.End()),
			})
			continue
		case lexer.EOF:
			if inBlock {
				return nil, p.errorAt(t, `"}"`)
			}
			return out, nil
		case lexer.RBrace:
			if !inBlock {
				return nil, p.errorf(t, `unexpected "}"`)
			}
			p.advance()
			return out, nil
		}

		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		if stmt != nil {
			out = append(out, stmt)
		}
	}
}

// parseBlock parses `{ statements }`.
func (p *Parser) parseBlock() ([]ast.Statement, error) {
	if _, err := p.expect(lexer.LBrace); err != nil {
		return nil, err
	}
	children, err := p.parseStatements(true)
	if err != nil {
		return nil, err
	}
	if children == nil {
		children = []ast.Statement{}
	}
	return children, nil
}

func (p *Parser) parseStatement() (ast.Statement, error) {
	t := p.cur()
	switch t.Kind {
	case lexer.AtKeyword:
		return p.parseAtRule()
	case lexer.Variable:
		return p.parseVariableDecl()
	case lexer.Ident:
		if p.toks[p.pos+1].Kind == lexer.Dot && p.pos+2 < len(p.toks) && p.toks[p.pos+2].Kind == lexer.Variable {
			return p.parseVariableDecl()
		}
	}
	if p.looksLikeDeclaration() {
		return p.parseDeclaration()
	}
	return p.parseStyleRule()
}

// skipName returns the index after a property name starting at i. A name is
// a run of adjacent identifiers, dashes and interpolations.
func (p *Parser) skipName(i int) int {
	for {
		switch p.toks[i].Kind {
		case lexer.Ident, lexer.Minus:
			i++
		case lexer.Number:
			if i > 0 && p.toks[i-1].Kind == lexer.InterpEnd {
				i++
				continue
			}
			return i
		case lexer.InterpStart:
			depth := 0
			for ; i < len(p.toks)-1; i++ {
				if p.toks[i].Kind == lexer.InterpStart {
					depth++
				} else if p.toks[i].Kind == lexer.InterpEnd {
					depth--
					if depth == 0 {
						break
					}
				}
			}
			i++
		default:
			return i
		}
	}
}

// looksLikeDeclaration decides between a declaration and a style rule with
// fixed lookahead:
//
//   - the statement must start with a name followed by `:`
//   - custom properties (`--x:`) are always declarations
//   - `name: {` opens a nested property block
//   - if the first `;`, `}` or `{` after the colon at nesting depth zero is
//     not `{`, it is a declaration
//   - otherwise a token directly after the colon (`a:hover`, `a::before`,
//     `a:#{$state}`) marks a selector, and whitespace marks a declaration
//     with a nested property block (`font: 12px { family: x; }`)
func (p *Parser) looksLikeDeclaration() bool {
	start := p.pos
	end := p.skipName(start)
	if end == start {
		return false
	}
	colon := p.significantFrom(end)
	if p.toks[colon].Kind != lexer.Colon {
		return false
	}
	if strings.HasPrefix(p.toks[start].Text, "--") {
		return true
	}
	afterColon := p.toks[colon+1]
	first := p.significantFrom(colon + 1)
	if p.toks[first].Kind == lexer.LBrace {
		return true
	}

	depth := 0
	for i := first; i < len(p.toks); i++ {
		switch p.toks[i].Kind {
		case lexer.LParen, lexer.LBracket, lexer.InterpStart:
			depth++
		case lexer.RParen, lexer.RBracket, lexer.InterpEnd:
			depth--
		case lexer.Semicolon, lexer.RBrace, lexer.EOF:
			if depth <= 0 {
				return true
			}
		case lexer.LBrace:
			if depth <= 0 {
				switch afterColon.Kind {
				case lexer.Ident, lexer.Colon, lexer.InterpStart:
					return false
				}
				return true
			}
		}
	}
	return true
}

func (p *Parser) parseDeclaration() (ast.Statement, error) {
	start := p.cur()
	nameEnd := p.skipName(p.pos)
	name, err := p.interpolateTokens(nameEnd)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.Colon); err != nil {
		return nil, err
	}

	decl := &ast.Declaration{Name: name}

	if strings.HasPrefix(start.Text, "--") {
		valueStart := p.peek().Offset
		value, err := p.parseRaw(rawOptions{braces: true, comments: true}, stopAt(lexer.Semicolon, lexer.RBrace))
		if err != nil {
			return nil, err
		}
		decl.Custom = true
		decl.Value = &ast.StringLit{Text: value, Span: p.spanFrom(valueStart)}
		decl.Span = p.spanFrom(start.Offset)
		return decl, p.finishStatement()
	}

	if !p.at(lexer.LBrace) {
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		decl.Value = value
	}
	decl.Span = p.spanFrom(start.Offset)

	if p.at(lexer.LBrace) {
		children, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		decl.Children = children
		return decl, nil
	}
	return decl, p.finishStatement()
}

func (p *Parser) parseStyleRule() (ast.Statement, error) {
	start := p.cur()
	from := p.pos
	selector, err := p.parseRaw(rawOptions{}, stopAt(lexer.LBrace, lexer.Semicolon, lexer.RBrace))
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.Kind != lexer.LBrace {
		if len(selector.Parts) == 0 {
			return nil, p.errorAt(t, "selector")
		}
		return nil, p.errorAt(t, `"{"`)
	}
	if p.ruleDepth == 0 && p.mixinDepth == 0 {
		for _, t := range p.toks[from:p.pos] {
			if t.Kind == lexer.Amp {
				return nil, p.errorf(t, `top-level selectors may not contain the parent selector "&"`)
			}
		}
	}

	p.ruleDepth++
	children, err := p.parseBlock()
	p.ruleDepth--
	if err != nil {
		return nil, err
	}
	return &ast.StyleRule{
		Selector: selector,
		Children: children,
		Span:     p.spanFrom(start.Offset),
	}, nil
}

func (p *Parser) parseVariableDecl() (ast.Statement, error) {
	start := p.cur()
	if p.plain {
		return nil, p.errorf(start, "Sass variables aren't allowed in plain CSS")
	}
	decl := &ast.VariableDecl{}
	if start.Kind == lexer.Ident {
		decl.Namespace = start.Text
		p.advance()
		p.advance()
	}
	v := p.advance()
	decl.Name = v.Text[1:]
	if _, err := p.expect(lexer.Colon); err != nil {
		return nil, err
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	decl.Value = value

	for p.at(lexer.Bang) {
		flag := p.next()
		switch flagName(flag) {
		case "default":
			decl.Default = true
		case "global":
			decl.Global = true
		default:
			return nil, p.errorAt(flag, `"!default" or "!global"`)
		}
	}
	decl.Span = p.spanFrom(start.Offset)
	return decl, p.finishStatement()
}

// flagName returns the lower-cased name of a !flag token
func flagName(t lexer.Token) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(t.Text, "!")))
}
