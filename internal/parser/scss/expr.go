package scss

import (
	"strconv"
	"strings"

	"bennypowers.dev/scssc/internal/ast"
	"bennypowers.dev/scssc/internal/lexer"
)

// Binding powers for binary operators, lowest first.
const (
	precOr = iota + 1
	precAnd
	precEquality
	precRelational
	precAdditive
	precMultiplicative
)

// specialFunctions take their arguments as raw CSS text. Variables and
// interpolation inside them are still substituted.
var specialFunctions = map[string]bool{
	"calc":         true,
	"-webkit-calc": true,
	"-moz-calc":    true,
	"clamp":        true,
	"var":          true,
	"env":          true,
	"url":          true,
	"element":      true,
	"-moz-element": true,
	"expression":   true,
	"progid":       true,
}

// parseExpression parses a comma-separated list, or a single space list.
func (p *Parser) parseExpression() (ast.Expression, error) {
	first, err := p.parseSpaceList()
	if err != nil {
		return nil, err
	}
	if !p.at(lexer.Comma) {
		return first, nil
	}
	items := []ast.Expression{first}
	start := first.GetSpan().Start
	for p.at(lexer.Comma) {
		p.next()
		if !p.startsExpression() {
			break
		}
		item, err := p.parseSpaceList()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return &ast.ListExpr{Items: items, Separator: ast.SepComma, Span: p.spanFrom(start)}, nil
}

func (p *Parser) parseSpaceList() (ast.Expression, error) {
	first, err := p.parseBinary(0)
	if err != nil {
		return nil, err
	}
	if !p.startsExpression() {
		return first, nil
	}
	items := []ast.Expression{first}
	for p.startsExpression() {
		item, err := p.parseBinary(0)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return &ast.ListExpr{Items: items, Separator: ast.SepSpace, Span: p.spanFrom(first.GetSpan().Start)}, nil
}

// startsExpression reports whether the next token can begin a list item.
func (p *Parser) startsExpression() bool {
	t := p.peek()
	switch t.Kind {
	case lexer.Number, lexer.String, lexer.Hash, lexer.Variable, lexer.URL,
		lexer.LParen, lexer.LBracket, lexer.Amp, lexer.InterpStart,
		lexer.Minus, lexer.Plus:
		return true
	case lexer.Ident:
		if t.Text == "and" || t.Text == "or" {
			return false
		}
		return !p.stopWords[strings.ToLower(t.Text)]
	case lexer.Bang:
		return flagName(t) == "important"
	}
	return false
}

// binaryOperator returns the operator at the next token, if any.
func (p *Parser) binaryOperator() (ast.Operator, int, bool) {
	i := p.significantFrom(p.pos)
	t := p.toks[i]
	switch t.Kind {
	case lexer.Ident:
		switch t.Text {
		case "or":
			return ast.OpOr, precOr, true
		case "and":
			return ast.OpAnd, precAnd, true
		}
	case lexer.Eq:
		return ast.OpEq, precEquality, true
	case lexer.NotEq:
		return ast.OpNotEq, precEquality, true
	case lexer.Lt:
		return ast.OpLt, precRelational, true
	case lexer.LtEq:
		return ast.OpLtEq, precRelational, true
	case lexer.Gt:
		return ast.OpGt, precRelational, true
	case lexer.GtEq:
		return ast.OpGtEq, precRelational, true
	case lexer.Plus, lexer.Minus:
		// `a -$b` is a list whose second item is negated
		if i > 0 && p.toks[i-1].Kind == lexer.Whitespace && !p.toks[i+1].IsTrivia() &&
			p.toks[i+1].Kind != lexer.EOF {
			return 0, 0, false
		}
		if t.Kind == lexer.Plus {
			return ast.OpAdd, precAdditive, true
		}
		return ast.OpSub, precAdditive, true
	case lexer.Star:
		return ast.OpMul, precMultiplicative, true
	case lexer.Slash:
		return ast.OpDiv, precMultiplicative, true
	case lexer.Percent:
		return ast.OpMod, precMultiplicative, true
	}
	return 0, 0, false
}

// parseBinary parses operators binding tighter than minPrec.
func (p *Parser) parseBinary(minPrec int) (ast.Expression, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		op, prec, ok := p.binaryOperator()
		if !ok || prec <= minPrec {
			return left, nil
		}
		p.next()
		right, err := p.parseBinary(prec)
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{
			Op:    op,
			Left:  left,
			Right: right,
			Span:  p.span(left.GetSpan().Start, right.GetSpan().End),
		}
	}
}

func (p *Parser) parseUnary() (ast.Expression, error) {
	t := p.peek()
	var op ast.Operator
	switch {
	case t.Kind == lexer.Minus:
		op = ast.OpNeg
	case t.Kind == lexer.Plus:
		op = ast.OpPos
	case t.Kind == lexer.Ident && t.Text == "not":
		op = ast.OpNot
	default:
		return p.parsePrimary()
	}
	p.next()
	operand, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return &ast.UnaryOp{Op: op, Operand: operand, Span: p.span(t.Offset, operand.GetSpan().End)}, nil
}

func (p *Parser) parsePrimary() (ast.Expression, error) {
	p.skipTrivia()
	t := p.cur()
	span := p.span(t.Offset, t.End())
	switch t.Kind {
	case lexer.Number:
		p.advance()
		return p.parseNumber(t, span)

	case lexer.String:
		p.advance()
		text, err := p.interpolateSource(t.Offset+1, t.End()-1, true)
		if err != nil {
			return nil, err
		}
		return &ast.StringLit{Text: text, Quoted: true, Span: span}, nil

	case lexer.Hash:
		p.advance()
		if isHexColor(t.Text[1:]) {
			return &ast.ColorLit{Text: t.Text, Span: span}, nil
		}
		return plainString(t.Text, span), nil

	case lexer.Variable:
		p.advance()
		return &ast.VarRef{Name: t.Text[1:], Span: span}, nil

	case lexer.URL:
		p.advance()
		args, err := p.interpolateSource(t.Offset+4, t.End()-1, false)
		if err != nil {
			return nil, err
		}
		return &ast.SpecialFunc{Name: t.Text[:3], Args: args, Span: span}, nil

	case lexer.LParen:
		return p.parseParen()

	case lexer.LBracket:
		return p.parseBracketList()

	case lexer.Amp:
		p.advance()
		return &ast.ParentSelector{Span: span}, nil

	case lexer.Bang:
		if flagName(t) == "important" {
			p.advance()
			return plainString("!important", span), nil
		}

	case lexer.Ident, lexer.InterpStart:
		return p.parseIdentifierLike()
	}
	return nil, p.errorAt(t, "expression")
}

func plainString(text string, span ast.Span) *ast.StringLit {
	return &ast.StringLit{Text: &ast.Interpolation{Parts: []any{text}, Span: span}, Span: span}
}

func isHexColor(s string) bool {
	switch len(s) {
	case 3, 4, 6, 8:
	default:
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isHex(s[i]) {
			return false
		}
	}
	return true
}

// parseNumber splits a number token into its value and unit.
func (p *Parser) parseNumber(t lexer.Token, span ast.Span) (*ast.NumberLit, error) {
	text := t.Text
	i := 0
	if i < len(text) && (text[i] == '-' || text[i] == '+') {
		i++
	}
	for i < len(text) && (isDigit(text[i]) || text[i] == '.') {
		i++
	}
	if i < len(text) && (text[i] == 'e' || text[i] == 'E') {
		j := i + 1
		if j < len(text) && (text[j] == '-' || text[j] == '+') {
			j++
		}
		if j < len(text) && isDigit(text[j]) {
			for j < len(text) && isDigit(text[j]) {
				j++
			}
			i = j
		}
	}
	value, err := strconv.ParseFloat(text[:i], 64)
	if err != nil {
		return nil, p.errorf(t, "invalid number %q", t.Text)
	}
	return &ast.NumberLit{Value: value, Unit: text[i:], Span: span}, nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// parseIdentifierLike parses keywords, function calls, namespaced members
// and (interpolated) unquoted strings.
func (p *Parser) parseIdentifierLike() (ast.Expression, error) {
	t := p.cur()
	if t.Kind == lexer.Ident {
		next := p.toks[p.pos+1]
		if next.Kind == lexer.Dot && p.pos+2 < len(p.toks) {
			member := p.toks[p.pos+2]
			switch {
			case member.Kind == lexer.Variable:
				p.advance()
				p.advance()
				p.advance()
				return &ast.VarRef{Namespace: t.Text, Name: member.Text[1:], Span: p.span(t.Offset, member.End())}, nil
			case member.Kind == lexer.Ident && p.pos+3 < len(p.toks) && p.toks[p.pos+3].Kind == lexer.LParen:
				p.advance()
				p.advance()
				p.advance()
				args, err := p.parseArgumentList()
				if err != nil {
					return nil, err
				}
				return &ast.FuncCall{Namespace: t.Text, Name: member.Text, Args: args, Span: p.spanFrom(t.Offset)}, nil
			}
		}

		if next.Kind == lexer.LParen {
			if specialFunctions[strings.ToLower(t.Text)] {
				return p.parseSpecialFunction()
			}
			p.advance()
			args, err := p.parseArgumentList()
			if err != nil {
				return nil, err
			}
			return &ast.FuncCall{Name: t.Text, Args: args, Span: p.spanFrom(t.Offset)}, nil
		}

		if next.Kind != lexer.InterpStart {
			span := p.span(t.Offset, t.End())
			switch t.Text {
			case "true", "false":
				p.advance()
				return &ast.BoolLit{Value: t.Text == "true", Span: span}, nil
			case "null":
				p.advance()
				return &ast.NullLit{Span: span}, nil
			}
		}
	}

	var b interpBuilder
	start := t.Offset
	for {
		c := p.cur()
		switch {
		case c.Kind == lexer.Ident:
			b.addText(c.Text)
			p.advance()
			continue
		case c.Kind == lexer.InterpStart:
			expr, err := p.parseInterpolationExpr()
			if err != nil {
				return nil, err
			}
			b.addExpr(expr)
			continue
		case c.Kind == lexer.Number && p.pos > 0 && p.toks[p.pos-1].Kind == lexer.InterpEnd:
			b.addText(c.Text)
			p.advance()
			continue
		case c.Kind == lexer.Minus && p.pos+1 < len(p.toks) &&
			(p.toks[p.pos+1].Kind == lexer.InterpStart || p.toks[p.pos+1].Kind == lexer.Ident):
			b.addText(c.Text)
			p.advance()
			continue
		}
		break
	}
	span := p.spanFrom(start)
	return &ast.StringLit{Text: b.build(span, false), Span: span}, nil
}

// parseSpecialFunction parses calc(), var() and friends, keeping the
// arguments as raw text.
func (p *Parser) parseSpecialFunction() (ast.Expression, error) {
	name := p.advance()
	if _, err := p.expect(lexer.LParen); err != nil {
		return nil, err
	}
	args, err := p.parseRaw(rawOptions{vars: true}, stopAt(lexer.RParen))
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RParen); err != nil {
		return nil, err
	}
	return &ast.SpecialFunc{Name: name.Text, Args: args, Span: p.spanFrom(name.Offset)}, nil
}

// parseParen parses `()`, `(expr)`, `(a, b)` and maps `(k: v, ...)`.
func (p *Parser) parseParen() (ast.Expression, error) {
	open := p.next()
	saved := p.stopWords
	p.stopWords = nil
	defer func() { p.stopWords = saved }()

	if p.at(lexer.RParen) {
		p.next()
		return &ast.ListExpr{Span: p.spanFrom(open.Offset)}, nil
	}
	first, err := p.parseSpaceList()
	if err != nil {
		return nil, err
	}
	if p.at(lexer.Colon) {
		return p.parseMapRest(open, first)
	}

	inner := first
	if p.at(lexer.Comma) {
		items := []ast.Expression{first}
		for p.accept(lexer.Comma) {
			if p.at(lexer.RParen) {
				break
			}
			item, err := p.parseSpaceList()
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		inner = &ast.ListExpr{Items: items, Separator: ast.SepComma, Span: p.spanFrom(first.GetSpan().Start)}
	}
	if _, err := p.expect(lexer.RParen); err != nil {
		return nil, err
	}
	return &ast.ParenExpr{Inner: inner, Span: p.spanFrom(open.Offset)}, nil
}

func (p *Parser) parseMapRest(open lexer.Token, key ast.Expression) (ast.Expression, error) {
	m := &ast.MapExpr{}
	for {
		if _, err := p.expect(lexer.Colon); err != nil {
			return nil, err
		}
		value, err := p.parseSpaceList()
		if err != nil {
			return nil, err
		}
		m.Pairs = append(m.Pairs, &ast.MapPair{Key: key, Value: value})
		if !p.accept(lexer.Comma) || p.at(lexer.RParen) {
			break
		}
		key, err = p.parseSpaceList()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(lexer.RParen); err != nil {
		return nil, err
	}
	m.Span = p.spanFrom(open.Offset)
	return m, nil
}

func (p *Parser) parseBracketList() (ast.Expression, error) {
	open := p.next()
	if p.at(lexer.RBracket) {
		p.next()
		return &ast.ListExpr{Bracketed: true, Span: p.spanFrom(open.Offset)}, nil
	}
	inner, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RBracket); err != nil {
		return nil, err
	}
	if list, ok := inner.(*ast.ListExpr); ok && !list.Bracketed {
		list.Bracketed = true
		list.Span = p.spanFrom(open.Offset)
		return list, nil
	}
	return &ast.ListExpr{Items: []ast.Expression{inner}, Bracketed: true, Span: p.spanFrom(open.Offset)}, nil
}

// parseArgumentList parses `(a, $b: c, $rest...)`.
func (p *Parser) parseArgumentList() (*ast.ArgumentList, error) {
	open, err := p.expect(lexer.LParen)
	if err != nil {
		return nil, err
	}
	saved := p.stopWords
	p.stopWords = nil
	defer func() { p.stopWords = saved }()

	list := &ast.ArgumentList{}
	for !p.at(lexer.RParen) {
		arg := &ast.Argument{}
		if t := p.peek(); t.Kind == lexer.Variable && p.peekN(1).Kind == lexer.Colon {
			p.next()
			p.next()
			arg.Name = t.Text[1:]
		}
		value, err := p.parseSpaceList()
		if err != nil {
			return nil, err
		}
		arg.Value = value
		if p.accept(lexer.Ellipsis) {
			arg.Rest = true
		}
		list.Args = append(list.Args, arg)
		if !p.accept(lexer.Comma) {
			break
		}
	}
	if _, err := p.expect(lexer.RParen); err != nil {
		return nil, err
	}
	list.Span = p.spanFrom(open.Offset)
	return list, nil
}

// parseParameterList parses `($a, $b: default, $rest...)`.
func (p *Parser) parseParameterList() (*ast.ParameterList, error) {
	open, err := p.expect(lexer.LParen)
	if err != nil {
		return nil, err
	}
	list := &ast.ParameterList{}
	for !p.at(lexer.RParen) {
		v, err := p.expect(lexer.Variable)
		if err != nil {
			return nil, err
		}
		param := &ast.Parameter{Name: v.Text[1:]}
		if p.accept(lexer.Colon) {
			param.Default, err = p.parseSpaceList()
			if err != nil {
				return nil, err
			}
		} else if p.accept(lexer.Ellipsis) {
			param.Rest = true
		}
		param.Span = p.spanFrom(v.Offset)
		list.Params = append(list.Params, param)
		if !p.accept(lexer.Comma) {
			break
		}
	}
	if _, err := p.expect(lexer.RParen); err != nil {
		return nil, err
	}
	list.Span = p.spanFrom(open.Offset)
	return list, nil
}
