package scss_test

import (
	"errors"
	"testing"

	"bennypowers.dev/scssc/internal/ast"
	"bennypowers.dev/scssc/internal/diagnostics"
	"bennypowers.dev/scssc/internal/parser/scss"
	"bennypowers.dev/scssc/internal/position"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, src string) *ast.Stylesheet {
	t.Helper()
	sheet, err := scss.Parse(position.NewFile("file:///test.scss", "test.scss", src))
	require.NoError(t, err)
	return sheet
}

func parseErr(t *testing.T, src string) error {
	t.Helper()
	_, err := scss.Parse(position.NewFile("file:///test.scss", "test.scss", src))
	require.Error(t, err)
	return err
}

func plain(t *testing.T, interp *ast.Interpolation) string {
	t.Helper()
	s, ok := interp.AsPlain()
	require.True(t, ok, "expected interpolation without expressions")
	return s
}

func TestParse_StyleRuleWithDeclarations(t *testing.T) {
	sheet := parse(t, ".a { color: red; margin: 0 auto }")
	require.Len(t, sheet.Children, 1)

	rule, ok := sheet.Children[0].(*ast.StyleRule)
	require.True(t, ok)
	assert.Equal(t, ".a", plain(t, rule.Selector))
	require.Len(t, rule.Children, 2)

	color := rule.Children[0].(*ast.Declaration)
	assert.Equal(t, "color", plain(t, color.Name))
	str, ok := color.Value.(*ast.StringLit)
	require.True(t, ok)
	assert.False(t, str.Quoted)

	margin := rule.Children[1].(*ast.Declaration)
	list, ok := margin.Value.(*ast.ListExpr)
	require.True(t, ok)
	assert.Equal(t, ast.SepSpace, list.Separator)
	assert.Len(t, list.Items, 2)
}

func TestParse_SpansCoverSource(t *testing.T) {
	src := ".a {\n  color: red;\n}"
	sheet := parse(t, src)
	rule := sheet.Children[0].(*ast.StyleRule)
	assert.Equal(t, src, rule.Span.Text())

	decl := rule.Children[0].(*ast.Declaration)
	assert.Equal(t, "color: red", decl.Span.Text())
	loc := decl.Span.Location()
	assert.Equal(t, 1, loc.Line)
	assert.Equal(t, 2, loc.Column)
}

func TestParse_DeclarationOrSelector(t *testing.T) {
	tests := []struct {
		name string
		src  string
		decl bool
	}{
		{"pseudo class", "a { b:hover { c: d } }", false},
		{"pseudo element", "a { b::before { c: d } }", false},
		{"pseudo with args", "a { li:not(.x) { c: d } }", false},
		{"declaration without space", "a { color:red; }", true},
		{"declaration at block end", "a { color: red }", true},
		{"nested property block", "a { font: { family: x; } }", true},
		{"value with nested block", "a { font: 12px { family: x; } }", true},
		{"custom property", "a { --x: { a: b }; }", true},
		{"interpolated name", "a { #{$p}-top: 1px; }", true},
		{"descendant selector", "a { b c { d: e } }", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sheet := parse(t, tt.src)
			rule := sheet.Children[0].(*ast.StyleRule)
			require.Len(t, rule.Children, 1)
			_, isDecl := rule.Children[0].(*ast.Declaration)
			assert.Equal(t, tt.decl, isDecl)
		})
	}
}

func TestParse_CustomPropertyIsRaw(t *testing.T) {
	sheet := parse(t, ":root { --gap: calc( 1px  +  #{$x} ); }")
	decl := sheet.Children[0].(*ast.StyleRule).Children[0].(*ast.Declaration)
	assert.True(t, decl.Custom)
	value := decl.Value.(*ast.StringLit)
	require.Len(t, value.Text.Parts, 3)
	assert.Equal(t, "calc( 1px  +  ", value.Text.Parts[0])
	assert.IsType(t, &ast.VarRef{}, value.Text.Parts[1])
	assert.Equal(t, " )", value.Text.Parts[2])
}

func TestParse_VariableDecl(t *testing.T) {
	sheet := parse(t, "$a: 1px !default;\n$b: $a !global;\nlib.$c: 2;")
	require.Len(t, sheet.Children, 3)

	a := sheet.Children[0].(*ast.VariableDecl)
	assert.Equal(t, "a", a.Name)
	assert.True(t, a.Default)
	num := a.Value.(*ast.NumberLit)
	assert.Equal(t, 1.0, num.Value)
	assert.Equal(t, "px", num.Unit)

	b := sheet.Children[1].(*ast.VariableDecl)
	assert.True(t, b.Global)
	assert.Equal(t, "a", b.Value.(*ast.VarRef).Name)

	c := sheet.Children[2].(*ast.VariableDecl)
	assert.Equal(t, "lib", c.Namespace)
	assert.Equal(t, "c", c.Name)
}

func TestParse_OperatorPrecedence(t *testing.T) {
	sheet := parse(t, "$x: 1 + 2 * 3 == 7 and not false;")
	expr := sheet.Children[0].(*ast.VariableDecl).Value

	and := expr.(*ast.BinaryOp)
	assert.Equal(t, ast.OpAnd, and.Op)
	eq := and.Left.(*ast.BinaryOp)
	assert.Equal(t, ast.OpEq, eq.Op)
	add := eq.Left.(*ast.BinaryOp)
	assert.Equal(t, ast.OpAdd, add.Op)
	mul := add.Right.(*ast.BinaryOp)
	assert.Equal(t, ast.OpMul, mul.Op)
	not := and.Right.(*ast.UnaryOp)
	assert.Equal(t, ast.OpNot, not.Op)
}

func TestParse_LeftAssociative(t *testing.T) {
	sheet := parse(t, "$x: 10 - 2 - 3;")
	outer := sheet.Children[0].(*ast.VariableDecl).Value.(*ast.BinaryOp)
	inner, ok := outer.Left.(*ast.BinaryOp)
	require.True(t, ok)
	assert.Equal(t, 10.0, inner.Left.(*ast.NumberLit).Value)
	assert.Equal(t, 3.0, outer.Right.(*ast.NumberLit).Value)
}

func TestParse_Lists(t *testing.T) {
	t.Run("comma list of space lists", func(t *testing.T) {
		sheet := parse(t, "$x: a b, c d;")
		list := sheet.Children[0].(*ast.VariableDecl).Value.(*ast.ListExpr)
		assert.Equal(t, ast.SepComma, list.Separator)
		require.Len(t, list.Items, 2)
		assert.Equal(t, ast.SepSpace, list.Items[0].(*ast.ListExpr).Separator)
	})

	t.Run("negated item in space list", func(t *testing.T) {
		sheet := parse(t, "$x: $a -$b;")
		list := sheet.Children[0].(*ast.VariableDecl).Value.(*ast.ListExpr)
		require.Len(t, list.Items, 2)
		assert.IsType(t, &ast.UnaryOp{}, list.Items[1])
	})

	t.Run("bracketed list", func(t *testing.T) {
		sheet := parse(t, "$x: [a b];")
		list := sheet.Children[0].(*ast.VariableDecl).Value.(*ast.ListExpr)
		assert.True(t, list.Bracketed)
		assert.Len(t, list.Items, 2)
	})

	t.Run("empty list", func(t *testing.T) {
		sheet := parse(t, "$x: ();")
		list := sheet.Children[0].(*ast.VariableDecl).Value.(*ast.ListExpr)
		assert.Empty(t, list.Items)
	})
}

func TestParse_Map(t *testing.T) {
	sheet := parse(t, "$m: (primary: #333, 'accent': (a: 1),);")
	m := sheet.Children[0].(*ast.VariableDecl).Value.(*ast.MapExpr)
	require.Len(t, m.Pairs, 2)
	assert.IsType(t, &ast.ColorLit{}, m.Pairs[0].Value)
	assert.True(t, m.Pairs[1].Key.(*ast.StringLit).Quoted)
	assert.IsType(t, &ast.MapExpr{}, m.Pairs[1].Value)
}

func TestParse_FunctionCalls(t *testing.T) {
	sheet := parse(t, "$x: darken($c, 10%) math.div(1, 2) fn($args...) f($a: 1);")
	list := sheet.Children[0].(*ast.VariableDecl).Value.(*ast.ListExpr)
	require.Len(t, list.Items, 4)

	darken := list.Items[0].(*ast.FuncCall)
	assert.Equal(t, "darken", darken.Name)
	assert.Len(t, darken.Args.Args, 2)

	div := list.Items[1].(*ast.FuncCall)
	assert.Equal(t, "math", div.Namespace)
	assert.Equal(t, "div", div.Name)

	rest := list.Items[2].(*ast.FuncCall)
	assert.True(t, rest.Args.Args[0].Rest)

	kw := list.Items[3].(*ast.FuncCall)
	assert.Equal(t, "a", kw.Args.Args[0].Name)
}

func TestParse_SpecialFunctions(t *testing.T) {
	sheet := parse(t, "a { width: calc(100% - $gap); background: url(img/#{$n}.png); }")
	rule := sheet.Children[0].(*ast.StyleRule)

	calc := rule.Children[0].(*ast.Declaration).Value.(*ast.SpecialFunc)
	assert.Equal(t, "calc", calc.Name)
	require.Len(t, calc.Args.Parts, 2)
	assert.Equal(t, "100% - ", calc.Args.Parts[0])
	assert.Equal(t, "gap", calc.Args.Parts[1].(*ast.VarRef).Name)

	url := rule.Children[1].(*ast.Declaration).Value.(*ast.SpecialFunc)
	assert.Equal(t, "url", url.Name)
	require.Len(t, url.Args.Parts, 3)
	assert.Equal(t, "img/", url.Args.Parts[0])
	assert.Equal(t, ".png", url.Args.Parts[2])
}

func TestParse_QuotedStringInterpolation(t *testing.T) {
	sheet := parse(t, `$x: "a #{$b} \"c\"";`)
	str := sheet.Children[0].(*ast.VariableDecl).Value.(*ast.StringLit)
	assert.True(t, str.Quoted)
	require.Len(t, str.Text.Parts, 3)
	assert.Equal(t, "a ", str.Text.Parts[0])
	assert.Equal(t, "b", str.Text.Parts[1].(*ast.VarRef).Name)
	assert.Equal(t, ` "c"`, str.Text.Parts[2])
}

func TestParse_SlashAndImportant(t *testing.T) {
	sheet := parse(t, "a { font: 12px/1.5 serif !important; }")
	decl := sheet.Children[0].(*ast.StyleRule).Children[0].(*ast.Declaration)
	list := decl.Value.(*ast.ListExpr)
	require.Len(t, list.Items, 3)
	div := list.Items[0].(*ast.BinaryOp)
	assert.Equal(t, ast.OpDiv, div.Op)
	assert.Equal(t, "!important", plain(t, list.Items[2].(*ast.StringLit).Text))
}

func TestParse_MixinAndInclude(t *testing.T) {
	src := `
@mixin button($size: 1em, $args...) {
  font-size: $size;
  @content(2);
}
.b {
  @include button(2em) using ($n) { width: $n; }
  @include lib.reset;
}`
	sheet := parse(t, src)
	require.Len(t, sheet.Children, 2)

	mixin := sheet.Children[0].(*ast.MixinDef)
	assert.Equal(t, "button", mixin.Name)
	require.Len(t, mixin.Params.Params, 2)
	assert.NotNil(t, mixin.Params.Params[0].Default)
	assert.True(t, mixin.Params.Params[1].Rest)
	assert.True(t, mixin.HasContent)

	rule := sheet.Children[1].(*ast.StyleRule)
	include := rule.Children[0].(*ast.IncludeRule)
	assert.Equal(t, "button", include.Name)
	require.NotNil(t, include.Content)
	require.Len(t, include.Content.Params.Params, 1)
	assert.Equal(t, "n", include.Content.Params.Params[0].Name)

	reset := rule.Children[1].(*ast.IncludeRule)
	assert.Equal(t, "lib", reset.Namespace)
	assert.Equal(t, "reset", reset.Name)
	assert.Nil(t, reset.Content)
}

func TestParse_FunctionAndReturn(t *testing.T) {
	sheet := parse(t, "@function double($n) { @return $n * 2; }")
	fn := sheet.Children[0].(*ast.FunctionDef)
	assert.Equal(t, "double", fn.Name)
	ret := fn.Body[0].(*ast.ReturnRule)
	assert.IsType(t, &ast.BinaryOp{}, ret.Value)
}

func TestParse_ControlFlow(t *testing.T) {
	src := `
@if $a == 1 { a: b } @else if $a == 2 { c: d } @else { e: f }
@each $k, $v in $map { x: y }
@for $i from 1 through $n { x: y }
@for $j from 0 to 3 { x: y }
@while $i > 0 { $i: $i - 1; }`
	sheet := parse(t, src)
	require.Len(t, sheet.Children, 5)

	ifRule := sheet.Children[0].(*ast.IfRule)
	require.Len(t, ifRule.Clauses, 3)
	assert.NotNil(t, ifRule.Clauses[1].Condition)
	assert.Nil(t, ifRule.Clauses[2].Condition)

	each := sheet.Children[1].(*ast.EachRule)
	assert.Equal(t, []string{"k", "v"}, each.Variables)

	through := sheet.Children[2].(*ast.ForRule)
	assert.True(t, through.Inclusive)
	assert.Equal(t, 1.0, through.From.(*ast.NumberLit).Value)

	to := sheet.Children[3].(*ast.ForRule)
	assert.False(t, to.Inclusive)

	assert.IsType(t, &ast.WhileRule{}, sheet.Children[4])
}

func TestParse_ModuleRules(t *testing.T) {
	src := `
@use "sass:math";
@use "src/corners" as c;
@use "theme" as * with ($primary: blue);
@forward "src/list" as list-* hide list-reset, $horizontal-list-gap;
@import "a", "b.css", url(c.css), "d" screen;`
	sheet := parse(t, src)
	require.Len(t, sheet.Children, 5)

	math := sheet.Children[0].(*ast.UseRule)
	assert.Equal(t, "sass:math", math.URL)
	assert.Equal(t, "math", math.Namespace)

	corners := sheet.Children[1].(*ast.UseRule)
	assert.Equal(t, "c", corners.Namespace)

	theme := sheet.Children[2].(*ast.UseRule)
	assert.Equal(t, "*", theme.Namespace)
	require.Len(t, theme.Config, 1)
	assert.Equal(t, "primary", theme.Config[0].Name)

	fwd := sheet.Children[3].(*ast.ForwardRule)
	assert.Equal(t, "list-", fwd.Prefix)
	assert.Equal(t, []string{"list-reset", "$horizontal-list-gap"}, fwd.Hide)

	imp := sheet.Children[4].(*ast.ImportRule)
	require.Len(t, imp.Imports, 4)
	assert.Equal(t, "a", imp.Imports[0].URL)
	assert.False(t, imp.Imports[0].Plain)
	assert.True(t, imp.Imports[1].Plain)
	assert.True(t, imp.Imports[2].Plain)
	assert.True(t, imp.Imports[3].Plain)
	assert.Equal(t, `"d" screen`, plain(t, imp.Imports[3].Raw))
}

func TestDefaultNamespace(t *testing.T) {
	tests := map[string]string{
		"sass:math":          "math",
		"src/corners":        "corners",
		"src/_corners.scss":  "corners",
		"theme.css":          "theme",
		"../lib/buttons/all": "all",
	}
	for url, want := range tests {
		assert.Equal(t, want, scss.DefaultNamespace(url), url)
	}
}

func TestParse_AtRules(t *testing.T) {
	src := `
@media screen and (min-width: $bp) { a { b: c } }
@supports (display: grid) { a { b: c } }
@font-face { font-family: x; }
@keyframes spin { from { a: b } 50% { a: c } }
@charset "UTF-8";
.a { @extend %base !optional; @at-root .b { c: d } }
@debug "x";`
	sheet := parse(t, src)
	// @charset is dropped by the parser
	require.Len(t, sheet.Children, 6)

	media := sheet.Children[0].(*ast.MediaRule)
	require.Len(t, media.Query.Parts, 3)
	assert.Equal(t, "screen and (min-width: ", media.Query.Parts[0])
	assert.Equal(t, "bp", media.Query.Parts[1].(*ast.VarRef).Name)

	assert.IsType(t, &ast.SupportsRule{}, sheet.Children[1])

	fontFace := sheet.Children[2].(*ast.AtRule)
	assert.Equal(t, "font-face", fontFace.Name)
	assert.IsType(t, &ast.Declaration{}, fontFace.Body[0])

	keyframes := sheet.Children[3].(*ast.AtRule)
	assert.Equal(t, "spin", plain(t, keyframes.Params))
	require.Len(t, keyframes.Body, 2)
	assert.Equal(t, "50%", plain(t, keyframes.Body[1].(*ast.StyleRule).Selector))

	rule := sheet.Children[4].(*ast.StyleRule)
	extend := rule.Children[0].(*ast.ExtendRule)
	assert.Equal(t, "%base", plain(t, extend.Selector))
	assert.True(t, extend.Optional)
	atRoot := rule.Children[1].(*ast.AtRootRule)
	assert.Equal(t, ".b", plain(t, atRoot.Selector))

	msg := sheet.Children[5].(*ast.MessageRule)
	assert.Equal(t, ast.MessageDebug, msg.Kind)
}

func TestParse_Comments(t *testing.T) {
	sheet := parse(t, "/* keep */\n// drop\n/*! loud */\na { b: c; }")
	require.Len(t, sheet.Children, 3)
	c := sheet.Children[0].(*ast.Comment)
	assert.Equal(t, "/* keep */", c.Text)
	assert.False(t, c.Loud)
	assert.True(t, sheet.Children[1].(*ast.Comment).Loud)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		sentinel error
		message  string
	}{
		{"missing closing brace", "a { b: c;", diagnostics.ErrParse, `expected "}", found end of file`},
		{"missing semicolon", "a { b: c d: e; }", diagnostics.ErrParse, `expected ";"`},
		{"stray closing brace", "}", diagnostics.ErrParse, `unexpected "}"`},
		{"parent selector at root", "& .a { b: c }", diagnostics.ErrParse, "parent selector"},
		{"return outside function", "@return 1;", diagnostics.ErrParse, "@return may only be used"},
		{"content outside mixin", "a { @content; }", diagnostics.ErrParse, "@content is only allowed"},
		{"orphan else", "@else { }", diagnostics.ErrParse, "@else must come after @if"},
		{"bad flag", "$a: 1 !bogus;", diagnostics.ErrParse, `"!default" or "!global"`},
		{"bad for keyword", "@for $i from 1 until 3 {}", diagnostics.ErrParse, `"through" or "to"`},
		{"lexer error surfaces", "a { b: 'c }", diagnostics.ErrSyntax, "unterminated string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := parseErr(t, tt.src)
			assert.True(t, errors.Is(err, tt.sentinel), "got %v", err)
			assert.Contains(t, err.Error(), tt.message)
			_, ok := diagnostics.LocationOf(err)
			assert.True(t, ok)
		})
	}
}

func TestParse_ParseErrorCarriesExpectedAndFound(t *testing.T) {
	err := parseErr(t, "a { b: c d: e; }")
	var perr *diagnostics.ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, `";"`, perr.Expected)
	assert.Equal(t, `":"`, perr.Found)
	assert.Equal(t, 0, perr.Where().Line)
	assert.Equal(t, 10, perr.Where().Column)
}

func TestParseCSS_RejectsSassFeatures(t *testing.T) {
	file := position.NewFile("file:///plain.css", "plain.css", "$a: 1;")
	_, err := scss.ParseCSS(file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "plain CSS")

	file = position.NewFile("file:///plain.css", "plain.css", "@mixin a {}")
	_, err = scss.ParseCSS(file)
	require.Error(t, err)

	file = position.NewFile("file:///plain.css", "plain.css", "a { color: red; }")
	sheet, err := scss.ParseCSS(file)
	require.NoError(t, err)
	assert.True(t, sheet.Plain)
}

func TestWalk_FindsNestedModuleRules(t *testing.T) {
	sheet := parse(t, `@use "a"; .x { @import "b"; } @if true { @import "c"; }`)
	var urls []string
	ast.Walk(sheet.Children, func(s ast.Statement) bool {
		switch n := s.(type) {
		case *ast.UseRule:
			urls = append(urls, n.URL)
		case *ast.ImportRule:
			for _, imp := range n.Imports {
				urls = append(urls, imp.URL)
			}
		}
		return true
	})
	assert.Equal(t, []string{"a", "b", "c"}, urls)
}
