package scss

import (
	"path"
	"strings"

	"bennypowers.dev/scssc/internal/ast"
	"bennypowers.dev/scssc/internal/lexer"
)

type atRuleParser func(p *Parser, start lexer.Token) (ast.Statement, error)

type atRule struct {
	parse atRuleParser
	// sassOnly rules are rejected in plain CSS
	sassOnly bool
}

// atRules is the closed set of at-rules with their own grammar. Every other
// name is parsed as a generic CSS at-rule.
var atRules map[string]atRule

func init() {
	atRules = map[string]atRule{
		"use":      {(*Parser).parseUse, true},
		"forward":  {(*Parser).parseForward, true},
		"import":   {(*Parser).parseImport, false},
		"mixin":    {(*Parser).parseMixin, true},
		"include":  {(*Parser).parseInclude, true},
		"content":  {(*Parser).parseContent, true},
		"function": {(*Parser).parseFunction, true},
		"return":   {(*Parser).parseReturn, true},
		"if":       {(*Parser).parseIf, true},
		"else":     {(*Parser).parseOrphanElse, true},
		"each":     {(*Parser).parseEach, true},
		"for":      {(*Parser).parseFor, true},
		"while":    {(*Parser).parseWhile, true},
		"extend":   {(*Parser).parseExtend, true},
		"at-root":  {(*Parser).parseAtRoot, true},
		"debug":    {(*Parser).parseMessage, true},
		"warn":     {(*Parser).parseMessage, true},
		"error":    {(*Parser).parseMessage, true},
		"media":    {(*Parser).parseMedia, false},
		"supports": {(*Parser).parseSupports, false},
		"charset":  {(*Parser).parseCharset, false},
	}
}

func (p *Parser) parseAtRule() (ast.Statement, error) {
	start := p.advance()
	name := strings.ToLower(start.Text[1:])
	rule, ok := atRules[name]
	if !ok {
		return p.parseGenericAtRule(start)
	}
	if p.plain && rule.sassOnly {
		return nil, p.errorf(start, "%s isn't allowed in plain CSS", start.Text)
	}
	return rule.parse(p, start)
}

// parseGenericAtRule parses `@name params;` or `@name params { ... }`.
func (p *Parser) parseGenericAtRule(start lexer.Token) (ast.Statement, error) {
	params, err := p.parseRaw(rawOptions{}, stopAt(lexer.LBrace, lexer.Semicolon, lexer.RBrace))
	if err != nil {
		return nil, err
	}
	rule := &ast.AtRule{Name: start.Text[1:], Params: params}
	if p.at(lexer.LBrace) {
		body, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		rule.Body = body
		rule.Span = p.spanFrom(start.Offset)
		return rule, nil
	}
	rule.Span = p.spanFrom(start.Offset)
	return rule, p.finishStatement()
}

func (p *Parser) parseCharset(start lexer.Token) (ast.Statement, error) {
	if _, err := p.expect(lexer.String); err != nil {
		return nil, err
	}
	// the emitter decides whether output needs a charset
	return nil, p.finishStatement()
}

func (p *Parser) parseMedia(start lexer.Token) (ast.Statement, error) {
	query, err := p.parseRaw(rawOptions{vars: true}, stopAt(lexer.LBrace, lexer.Semicolon, lexer.RBrace))
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.MediaRule{Query: query, Body: body, Span: p.spanFrom(start.Offset)}, nil
}

func (p *Parser) parseSupports(start lexer.Token) (ast.Statement, error) {
	cond, err := p.parseRaw(rawOptions{vars: true}, stopAt(lexer.LBrace, lexer.Semicolon, lexer.RBrace))
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.SupportsRule{Condition: cond, Body: body, Span: p.spanFrom(start.Offset)}, nil
}

// parseURLString parses the quoted URL of a module rule. Interpolation is
// not allowed there.
func (p *Parser) parseURLString() (string, error) {
	t, err := p.expect(lexer.String)
	if err != nil {
		return "", err
	}
	interp, err := p.interpolateSource(t.Offset+1, t.End()-1, true)
	if err != nil {
		return "", err
	}
	url, ok := interp.AsPlain()
	if !ok {
		return "", p.errorf(t, "interpolation isn't allowed in module URLs")
	}
	return url, nil
}

// DefaultNamespace returns the namespace @use gives a module when no `as`
// clause is present: the URL's basename without extension or partial
// prefix. For built-in modules it is the name after "sass:".
func DefaultNamespace(url string) string {
	if rest, ok := strings.CutPrefix(url, "sass:"); ok {
		return rest
	}
	base := path.Base(url)
	for _, ext := range []string{".scss", ".css", ".sass"} {
		base = strings.TrimSuffix(base, ext)
	}
	base = strings.TrimPrefix(base, "_")
	if i := strings.IndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	return base
}

func (p *Parser) parseUse(start lexer.Token) (ast.Statement, error) {
	url, err := p.parseURLString()
	if err != nil {
		return nil, err
	}
	rule := &ast.UseRule{URL: url, Namespace: DefaultNamespace(url)}
	if p.acceptIdent("as") {
		t := p.next()
		switch t.Kind {
		case lexer.Star:
			rule.Namespace = "*"
		case lexer.Ident:
			rule.Namespace = t.Text
		default:
			return nil, p.errorAt(t, "namespace")
		}
	}
	if p.acceptIdent("with") {
		rule.Config, err = p.parseConfiguration(false)
		if err != nil {
			return nil, err
		}
	}
	rule.Span = p.spanFrom(start.Offset)
	return rule, p.finishStatement()
}

func (p *Parser) parseForward(start lexer.Token) (ast.Statement, error) {
	url, err := p.parseURLString()
	if err != nil {
		return nil, err
	}
	rule := &ast.ForwardRule{URL: url}
	if p.acceptIdent("as") {
		t, err := p.expect(lexer.Ident)
		if err != nil {
			return nil, err
		}
		if star := p.cur(); star.Kind != lexer.Star {
			return nil, p.errorAt(star, `"*"`)
		}
		p.advance()
		rule.Prefix = t.Text
	}
	switch {
	case p.acceptIdent("show"):
		rule.Show, err = p.parseMemberNames()
	case p.acceptIdent("hide"):
		rule.Hide, err = p.parseMemberNames()
	}
	if err != nil {
		return nil, err
	}
	if p.acceptIdent("with") {
		rule.Config, err = p.parseConfiguration(true)
		if err != nil {
			return nil, err
		}
	}
	rule.Span = p.spanFrom(start.Offset)
	return rule, p.finishStatement()
}

// parseMemberNames parses the names after show/hide. Variables keep their $.
func (p *Parser) parseMemberNames() ([]string, error) {
	var names []string
	for {
		t := p.next()
		if t.Kind != lexer.Ident && t.Kind != lexer.Variable {
			return nil, p.errorAt(t, "member name")
		}
		names = append(names, t.Text)
		if !p.accept(lexer.Comma) {
			return names, nil
		}
	}
}

// parseConfiguration parses `($name: value, ...)` after `with`.
func (p *Parser) parseConfiguration(allowDefault bool) ([]*ast.ConfiguredVariable, error) {
	if _, err := p.expect(lexer.LParen); err != nil {
		return nil, err
	}
	var vars []*ast.ConfiguredVariable
	for !p.at(lexer.RParen) {
		v, err := p.expect(lexer.Variable)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.Colon); err != nil {
			return nil, err
		}
		value, err := p.parseSpaceList()
		if err != nil {
			return nil, err
		}
		cv := &ast.ConfiguredVariable{Name: v.Text[1:], Value: value}
		if p.at(lexer.Bang) {
			flag := p.next()
			if !allowDefault || flagName(flag) != "default" {
				return nil, p.errorAt(flag, `"," or ")"`)
			}
			cv.Default = true
		}
		cv.Span = p.spanFrom(v.Offset)
		vars = append(vars, cv)
		if !p.accept(lexer.Comma) {
			break
		}
	}
	if _, err := p.expect(lexer.RParen); err != nil {
		return nil, err
	}
	return vars, nil
}

// IsPlainImport reports whether an @import URL is emitted as a CSS import
// rather than loaded.
func IsPlainImport(url string) bool {
	return strings.HasSuffix(url, ".css") ||
		strings.HasPrefix(url, "http://") ||
		strings.HasPrefix(url, "https://") ||
		strings.HasPrefix(url, "//")
}

func (p *Parser) parseImport(start lexer.Token) (ast.Statement, error) {
	rule := &ast.ImportRule{}
	for {
		from := p.significantFrom(p.pos)
		t := p.toks[from]
		imp := &ast.Import{}
		switch t.Kind {
		case lexer.String:
			url, err := p.parseURLString()
			if err != nil {
				// interpolated URLs can only be plain CSS imports
				url = ""
			}
			imp.URL = url
			imp.Plain = url == "" || IsPlainImport(url)
		case lexer.URL, lexer.Ident:
			imp.Plain = true
			p.next()
		default:
			return nil, p.errorAt(t, "string")
		}

		// anything but `,` or `;` after the URL is a media or supports query
		if !p.at(lexer.Comma) && !p.at(lexer.Semicolon) && !p.at(lexer.RBrace) && !p.at(lexer.EOF) {
			imp.Plain = true
		}
		if imp.Plain {
			p.pos = from
			stop := stopAt(lexer.Comma, lexer.Semicolon, lexer.RBrace)
			if t.Kind == lexer.Ident || p.hasImportModifiers(from) {
				stop = stopAt(lexer.Semicolon, lexer.RBrace)
			}
			raw, err := p.parseRaw(rawOptions{}, stop)
			if err != nil {
				return nil, err
			}
			imp.Raw = raw
		} else if p.plain {
			return nil, p.errorf(t, "@import of Sass files isn't allowed in plain CSS")
		}
		imp.Span = p.spanFrom(t.Offset)
		rule.Imports = append(rule.Imports, imp)

		if !p.accept(lexer.Comma) {
			break
		}
	}
	rule.Span = p.spanFrom(start.Offset)
	return rule, p.finishStatement()
}

// hasImportModifiers reports whether the import starting at token i is
// followed by a media or supports query.
func (p *Parser) hasImportModifiers(i int) bool {
	next := p.significantFrom(p.significantFrom(i) + 1)
	switch p.toks[next].Kind {
	case lexer.Comma, lexer.Semicolon, lexer.RBrace, lexer.EOF:
		return false
	}
	return true
}

func (p *Parser) parseMixin(start lexer.Token) (ast.Statement, error) {
	name, err := p.expect(lexer.Ident)
	if err != nil {
		return nil, err
	}
	def := &ast.MixinDef{Name: name.Text, Params: &ast.ParameterList{}}
	if p.at(lexer.LParen) {
		if def.Params, err = p.parseParameterList(); err != nil {
			return nil, err
		}
	}

	savedContent := p.sawContent
	p.sawContent = false
	p.mixinDepth++
	body, err := p.parseBlock()
	p.mixinDepth--
	def.HasContent = p.sawContent
	p.sawContent = savedContent
	if err != nil {
		return nil, err
	}
	def.Body = body
	def.Span = p.spanFrom(start.Offset)
	return def, nil
}

func (p *Parser) parseFunction(start lexer.Token) (ast.Statement, error) {
	name, err := p.expect(lexer.Ident)
	if err != nil {
		return nil, err
	}
	params, err := p.parseParameterList()
	if err != nil {
		return nil, err
	}

	saved := p.inFunction
	p.inFunction = true
	p.mixinDepth++
	body, err := p.parseBlock()
	p.mixinDepth--
	p.inFunction = saved
	if err != nil {
		return nil, err
	}
	return &ast.FunctionDef{Name: name.Text, Params: params, Body: body, Span: p.spanFrom(start.Offset)}, nil
}

func (p *Parser) parseReturn(start lexer.Token) (ast.Statement, error) {
	if !p.inFunction {
		return nil, p.errorf(start, "@return may only be used within a function")
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	rule := &ast.ReturnRule{Value: value, Span: p.spanFrom(start.Offset)}
	return rule, p.finishStatement()
}

func (p *Parser) parseInclude(start lexer.Token) (ast.Statement, error) {
	name, err := p.expect(lexer.Ident)
	if err != nil {
		return nil, err
	}
	rule := &ast.IncludeRule{Name: name.Text}
	if p.cur().Kind == lexer.Dot {
		p.advance()
		member := p.cur()
		if member.Kind != lexer.Ident {
			return nil, p.errorAt(member, "mixin name")
		}
		p.advance()
		rule.Namespace, rule.Name = name.Text, member.Text
	}
	if p.at(lexer.LParen) {
		if rule.Args, err = p.parseArgumentList(); err != nil {
			return nil, err
		}
	} else {
		rule.Args = &ast.ArgumentList{}
	}

	var using *ast.ParameterList
	if p.acceptIdent("using") {
		if using, err = p.parseParameterList(); err != nil {
			return nil, err
		}
	}
	if p.at(lexer.LBrace) {
		contentStart := p.peek().Offset
		body, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		if using == nil {
			using = &ast.ParameterList{}
		}
		rule.Content = &ast.ContentBlock{Params: using, Body: body, Span: p.spanFrom(contentStart)}
		rule.Span = p.spanFrom(start.Offset)
		return rule, nil
	}
	if using != nil {
		return nil, p.errorAt(p.peek(), `"{"`)
	}
	rule.Span = p.spanFrom(start.Offset)
	return rule, p.finishStatement()
}

func (p *Parser) parseContent(start lexer.Token) (ast.Statement, error) {
	if p.mixinDepth == 0 || p.inFunction {
		return nil, p.errorf(start, "@content is only allowed within mixin declarations")
	}
	p.sawContent = true
	rule := &ast.ContentRule{Args: &ast.ArgumentList{}}
	if p.at(lexer.LParen) {
		args, err := p.parseArgumentList()
		if err != nil {
			return nil, err
		}
		rule.Args = args
	}
	rule.Span = p.spanFrom(start.Offset)
	return rule, p.finishStatement()
}

func (p *Parser) parseIf(start lexer.Token) (ast.Statement, error) {
	rule := &ast.IfRule{}
	clauseStart := start.Offset
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	for {
		body, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		rule.Clauses = append(rule.Clauses, &ast.IfClause{Condition: cond, Body: body, Span: p.spanFrom(clauseStart)})
		if cond == nil {
			break
		}

		t := p.peek()
		if t.Kind != lexer.AtKeyword {
			break
		}
		name := strings.ToLower(t.Text)
		if name != "@else" && name != "@elseif" {
			break
		}
		p.next()
		clauseStart = t.Offset
		cond = nil
		if name == "@elseif" || p.acceptIdent("if") {
			if cond, err = p.parseExpression(); err != nil {
				return nil, err
			}
		}
	}
	rule.Span = p.spanFrom(start.Offset)
	return rule, nil
}

func (p *Parser) parseOrphanElse(start lexer.Token) (ast.Statement, error) {
	return nil, p.errorf(start, "@else must come after @if")
}

func (p *Parser) parseEach(start lexer.Token) (ast.Statement, error) {
	rule := &ast.EachRule{}
	for {
		v, err := p.expect(lexer.Variable)
		if err != nil {
			return nil, err
		}
		rule.Variables = append(rule.Variables, v.Text[1:])
		if !p.accept(lexer.Comma) {
			break
		}
	}
	if err := p.expectIdent("in"); err != nil {
		return nil, err
	}
	list, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	rule.List = list
	if rule.Body, err = p.parseBlock(); err != nil {
		return nil, err
	}
	rule.Span = p.spanFrom(start.Offset)
	return rule, nil
}

func (p *Parser) parseFor(start lexer.Token) (ast.Statement, error) {
	v, err := p.expect(lexer.Variable)
	if err != nil {
		return nil, err
	}
	if err := p.expectIdent("from"); err != nil {
		return nil, err
	}

	saved := p.stopWords
	p.stopWords = map[string]bool{"through": true, "to": true}
	from, err := p.parseExpression()
	p.stopWords = saved
	if err != nil {
		return nil, err
	}

	rule := &ast.ForRule{Variable: v.Text[1:], From: from}
	switch {
	case p.acceptIdent("through"):
		rule.Inclusive = true
	case p.acceptIdent("to"):
	default:
		return nil, p.errorAt(p.peek(), `"through" or "to"`)
	}
	if rule.To, err = p.parseExpression(); err != nil {
		return nil, err
	}
	if rule.Body, err = p.parseBlock(); err != nil {
		return nil, err
	}
	rule.Span = p.spanFrom(start.Offset)
	return rule, nil
}

func (p *Parser) parseWhile(start lexer.Token) (ast.Statement, error) {
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.WhileRule{Condition: cond, Body: body, Span: p.spanFrom(start.Offset)}, nil
}

func (p *Parser) parseExtend(start lexer.Token) (ast.Statement, error) {
	selector, err := p.parseRaw(rawOptions{}, stopAt(lexer.Semicolon, lexer.RBrace, lexer.Bang))
	if err != nil {
		return nil, err
	}
	if len(selector.Parts) == 0 {
		return nil, p.errorAt(p.peek(), "selector")
	}
	rule := &ast.ExtendRule{Selector: selector}
	if p.at(lexer.Bang) {
		flag := p.next()
		if flagName(flag) != "optional" {
			return nil, p.errorAt(flag, `"!optional"`)
		}
		rule.Optional = true
	}
	rule.Span = p.spanFrom(start.Offset)
	return rule, p.finishStatement()
}

func (p *Parser) parseAtRoot(start lexer.Token) (ast.Statement, error) {
	rule := &ast.AtRootRule{}
	switch {
	case p.at(lexer.LBrace):
	case p.at(lexer.LParen):
		// (with: ...) / (without: ...) queries are accepted and ignored
		if _, err := p.parseRaw(rawOptions{}, stopAt(lexer.LBrace, lexer.Semicolon, lexer.RBrace)); err != nil {
			return nil, err
		}
	default:
		selector, err := p.parseRaw(rawOptions{}, stopAt(lexer.LBrace, lexer.Semicolon, lexer.RBrace))
		if err != nil {
			return nil, err
		}
		rule.Selector = selector
	}

	p.ruleDepth++
	body, err := p.parseBlock()
	p.ruleDepth--
	if err != nil {
		return nil, err
	}
	rule.Body = body
	rule.Span = p.spanFrom(start.Offset)
	return rule, nil
}

func (p *Parser) parseMessage(start lexer.Token) (ast.Statement, error) {
	kind := ast.MessageDebug
	switch strings.ToLower(start.Text) {
	case "@warn":
		kind = ast.MessageWarn
	case "@error":
		kind = ast.MessageError
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	rule := &ast.MessageRule{Kind: kind, Value: value, Span: p.spanFrom(start.Offset)}
	return rule, p.finishStatement()
}
