package evaluator_test

import (
	"errors"
	"strings"
	"testing"

	"bennypowers.dev/scssc/internal/cssout"
	"bennypowers.dev/scssc/internal/diagnostics"
	"bennypowers.dev/scssc/internal/evaluator"
	"bennypowers.dev/scssc/internal/resolver"
	"bennypowers.dev/scssc/internal/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type message struct {
	text  string
	stack string
}

// captureLogger records @warn and @debug output
type captureLogger struct {
	warns  []message
	debugs []string
}

func (l *captureLogger) Warn(text string, opts evaluator.WarnOptions) {
	l.warns = append(l.warns, message{text: text, stack: opts.Stack})
}

func (l *captureLogger) Debug(text string, _ evaluator.DebugOptions) {
	l.debugs = append(l.debugs, text)
}

func evaluate(t *testing.T, files map[string]string, opts evaluator.Options, loadPaths ...string) (*cssout.Stylesheet, error) {
	t.Helper()
	graph, err := resolver.Resolve("/src/main.scss", resolver.Options{
		Loader:    resolver.NewMapLoader(files),
		LoadPaths: loadPaths,
	})
	require.NoError(t, err)
	if opts.Logger == nil {
		opts.Logger = &captureLogger{}
	}
	return evaluator.Evaluate(graph, opts)
}

// compile evaluates a single stylesheet and renders the visible output one
// top-level node per line
func compile(t *testing.T, src string) string {
	t.Helper()
	sheet, err := evaluate(t, map[string]string{"/src/main.scss": src}, evaluator.Options{})
	require.NoError(t, err)
	return dump(sheet.Children)
}

func compileErr(t *testing.T, src string) error {
	t.Helper()
	_, err := evaluate(t, map[string]string{"/src/main.scss": src}, evaluator.Options{MaxCallDepth: 10})
	require.Error(t, err)
	return err
}

func dump(nodes []cssout.Node) string {
	var lines []string
	for _, n := range nodes {
		if cssout.IsInvisible(n) {
			continue
		}
		lines = append(lines, render(n))
	}
	return strings.Join(lines, "\n")
}

func render(n cssout.Node) string {
	switch n := n.(type) {
	case *cssout.StyleRule:
		return strings.Join(n.Selectors, ", ") + " { " + renderChildren(n.Children) + "}"
	case *cssout.AtRule:
		head := "@" + n.Name
		if n.Params != "" {
			head += " " + n.Params
		}
		if !n.HasBlock {
			return head + ";"
		}
		return head + " { " + renderChildren(n.Children) + "}"
	case *cssout.Declaration:
		return n.Name + ": " + value.MustCSS(n.Value) + ";"
	case *cssout.Comment:
		return n.Text
	case *cssout.Import:
		return "@import " + n.URL + ";"
	}
	return ""
}

func renderChildren(nodes []cssout.Node) string {
	var b strings.Builder
	for _, c := range nodes {
		if cssout.IsInvisible(c) {
			continue
		}
		b.WriteString(render(c))
		b.WriteByte(' ')
	}
	return b.String()
}

func TestNesting(t *testing.T) {
	got := compile(t, `
.a {
  color: red;
  .b { color: blue; }
  &:hover { color: green; }
  &-suffix { top: 0; }
  > .c { left: 0; }
}`)
	assert.Equal(t, strings.Join([]string{
		".a { color: red; }",
		".a .b { color: blue; }",
		".a:hover { color: green; }",
		".a-suffix { top: 0; }",
		".a > .c { left: 0; }",
	}, "\n"), got)
}

func TestSelectorListNesting(t *testing.T) {
	got := compile(t, `.a, .b { .c, .d { x: y; } }`)
	assert.Equal(t, ".a .c, .a .d, .b .c, .b .d { x: y; }", got)
}

func TestNestedProperties(t *testing.T) {
	got := compile(t, `.a { font: { family: serif; size: 12px; } }`)
	assert.Equal(t, ".a { font-family: serif; font-size: 12px; }", got)
}

func TestVariablesAndArithmetic(t *testing.T) {
	got := compile(t, `
$w: 10px;
$gap: $w / 2;
.a {
  width: $w * 2;
  height: calc(100% - #{$w});
  margin: -$w;
  font: 12px/1.5 serif;
}`)
	assert.Equal(t, ".a { width: 20px; height: calc(100% - 10px); margin: -10px; font: 12px/1.5 serif; }", got)
}

func TestNullDeclarationsOmitted(t *testing.T) {
	got := compile(t, `.a { color: null; top: 0; }`)
	assert.Equal(t, ".a { top: 0; }", got)
}

func TestParentSelectorExpression(t *testing.T) {
	got := compile(t, `.a { content: "#{&}"; }`)
	assert.Equal(t, `.a { content: ".a"; }`, got)
}

func TestControlFlow(t *testing.T) {
	t.Run("for", func(t *testing.T) {
		got := compile(t, `@for $i from 1 through 3 { .m-#{$i} { margin: $i * 4px; } }`)
		assert.Equal(t, ".m-1 { margin: 4px; }\n.m-2 { margin: 8px; }\n.m-3 { margin: 12px; }", got)
	})

	t.Run("for exclusive", func(t *testing.T) {
		got := compile(t, `@for $i from 1 to 3 { .m-#{$i} { x: $i; } }`)
		assert.Equal(t, ".m-1 { x: 1; }\n.m-2 { x: 2; }", got)
	})

	t.Run("each over map", func(t *testing.T) {
		got := compile(t, `@each $name, $size in (sm: 1px, lg: 2px) { .#{$name} { width: $size; } }`)
		assert.Equal(t, ".sm { width: 1px; }\n.lg { width: 2px; }", got)
	})

	t.Run("if else", func(t *testing.T) {
		got := compile(t, `
$mode: dark;
.a {
  @if $mode == light { color: white; }
  @else if $mode == dark { color: black; }
  @else { color: gray; }
}`)
		assert.Equal(t, ".a { color: black; }", got)
	})

	t.Run("while updates globals", func(t *testing.T) {
		got := compile(t, `
$i: 0;
@while $i < 3 { $i: $i + 1; }
.a { width: $i; }`)
		assert.Equal(t, ".a { width: 3; }", got)
	})
}

func TestFlowScopeDoesNotLeak(t *testing.T) {
	err := compileErr(t, `
@if true { $local: 1; }
.a { width: $local; }`)
	assert.True(t, errors.Is(err, diagnostics.ErrUndefinedReference))
	assert.Contains(t, err.Error(), "$local")
}

func TestLoopVariableScoped(t *testing.T) {
	err := compileErr(t, `
@each $x in a b {}
.a { width: $x; }`)
	assert.True(t, errors.Is(err, diagnostics.ErrUndefinedReference))
}

func TestRuleScopeShadowsGlobal(t *testing.T) {
	got := compile(t, `
$x: 1;
.a { $x: 2; width: $x; }
.b { width: $x; }
.c { $x: 3 !global; }
.d { width: $x; }`)
	assert.Equal(t, ".a { width: 2; }\n.b { width: 1; }\n.d { width: 3; }", got)
}

func TestMixins(t *testing.T) {
	got := compile(t, `
@mixin theme($color: blue) {
  color: $color;
  @content;
}
@mixin pad($args...) { padding: $args; }
.a { @include theme { background: red; } }
.b { @include theme(green); }
.c { @include theme($color: white); }
.d { @include pad(1px, 2px); }`)
	assert.Equal(t, strings.Join([]string{
		".a { color: blue; background: red; }",
		".b { color: green; }",
		".c { color: white; }",
		".d { padding: 1px, 2px; }",
	}, "\n"), got)
}

func TestContentArguments(t *testing.T) {
	got := compile(t, `
@mixin each-size { @content(sm); @content(lg); }
@include each-size using ($size) { .#{$size} { x: y; } }`)
	assert.Equal(t, ".sm { x: y; }\n.lg { x: y; }", got)
}

func TestMixinErrors(t *testing.T) {
	t.Run("missing argument", func(t *testing.T) {
		err := compileErr(t, `@mixin m($a) { x: $a; } .a { @include m; }`)
		assert.True(t, errors.Is(err, diagnostics.ErrArgument))
		assert.Contains(t, err.Error(), "Missing argument $a.")
	})

	t.Run("too many arguments", func(t *testing.T) {
		err := compileErr(t, `@mixin m($a) { x: $a; } .a { @include m(1, 2); }`)
		assert.Contains(t, err.Error(), "Only 1 argument allowed, but 2 were passed.")
	})

	t.Run("unknown keyword", func(t *testing.T) {
		err := compileErr(t, `@mixin m($a) { x: $a; } .a { @include m($a: 1, $b: 2); }`)
		assert.Contains(t, err.Error(), "No argument named $b.")
	})

	t.Run("undefined mixin", func(t *testing.T) {
		err := compileErr(t, `.a { @include nope; }`)
		assert.True(t, errors.Is(err, diagnostics.ErrUndefinedReference))
	})
}

func TestFunctions(t *testing.T) {
	got := compile(t, `
@function double($n) { @return $n * 2; }
@function sum($numbers...) {
  $total: 0;
  @each $n in $numbers { $total: $total + $n; }
  @return $total;
}
.a { width: double(5px); height: sum(1px, 2px, 3px); }`)
	assert.Equal(t, ".a { width: 10px; height: 6px; }", got)
}

func TestPlainCSSFunctionsPassThrough(t *testing.T) {
	got := compile(t, `.a { transform: translate(10px, 20px); color: var(--brand); }`)
	assert.Equal(t, ".a { transform: translate(10px, 20px); color: var(--brand); }", got)
}

func TestRecursionLimit(t *testing.T) {
	err := compileErr(t, `
@function loop($n) { @return loop($n + 1); }
.a { width: loop(1); }`)
	assert.True(t, errors.Is(err, diagnostics.ErrRecursionLimit))
}

func TestFunctionWithoutReturn(t *testing.T) {
	err := compileErr(t, `
@function nothing() { $x: 1; }
.a { width: nothing(); }`)
	assert.Contains(t, err.Error(), "Function nothing finished without @return.")
}

func TestMediaBubbling(t *testing.T) {
	t.Run("out of a style rule", func(t *testing.T) {
		got := compile(t, `.a { color: red; @media screen { color: blue; } }`)
		assert.Equal(t, ".a { color: red; }\n@media screen { .a { color: blue; } }", got)
	})

	t.Run("nested queries merge", func(t *testing.T) {
		got := compile(t, `
@media screen {
  .a {
    @media (min-width: 10px) { color: red; }
  }
}`)
		assert.Equal(t, "@media screen and (min-width: 10px) { .a { color: red; } }", got)
	})
}

func TestAtRoot(t *testing.T) {
	got := compile(t, `.a { color: red; @at-root .b { color: blue; } @at-root { .c { x: y; } } }`)
	assert.Equal(t, ".a { color: red; }\n.b { color: blue; }\n.c { x: y; }", got)
}

func TestKeyframesSelectorsNotNested(t *testing.T) {
	got := compile(t, `.a { @keyframes spin { from { x: 0; } to { x: 1; } } }`)
	assert.Equal(t, "@keyframes spin { from { x: 0; } to { x: 1; } }", got)
}

func TestExtend(t *testing.T) {
	t.Run("placeholder", func(t *testing.T) {
		got := compile(t, `
%btn { padding: 1px; }
.primary { @extend %btn; color: red; }`)
		assert.Equal(t, ".primary { padding: 1px; }\n.primary { color: red; }", got)
	})

	t.Run("class", func(t *testing.T) {
		got := compile(t, `
.msg { border: 1px; }
.msg:hover { top: 0; }
.error { @extend .msg; color: red; }`)
		assert.Equal(t, strings.Join([]string{
			".msg, .error { border: 1px; }",
			".msg:hover, .error:hover { top: 0; }",
			".error { color: red; }",
		}, "\n"), got)
	})

	t.Run("missing target", func(t *testing.T) {
		err := compileErr(t, `.a { @extend .missing; }`)
		assert.True(t, errors.Is(err, diagnostics.ErrUndefinedReference))
	})

	t.Run("optional missing target", func(t *testing.T) {
		got := compile(t, `.a { @extend .missing !optional; color: red; }`)
		assert.Equal(t, ".a { color: red; }", got)
	})

	t.Run("outside a rule", func(t *testing.T) {
		err := compileErr(t, `@extend .a;`)
		assert.Contains(t, err.Error(), "@extend may only be used within style rules.")
	})
}

func TestUse(t *testing.T) {
	t.Run("namespace members", func(t *testing.T) {
		sheet, err := evaluate(t, map[string]string{
			"/src/main.scss":   `@use "theme"; .a { color: theme.$primary; width: theme.double(2px); }`,
			"/src/_theme.scss": `$primary: blue; @function double($n) { @return $n * 2; }`,
		}, evaluator.Options{})
		require.NoError(t, err)
		assert.Equal(t, ".a { color: blue; width: 4px; }", dump(sheet.Children))
	})

	t.Run("configuration", func(t *testing.T) {
		sheet, err := evaluate(t, map[string]string{
			"/src/main.scss":   `@use "theme" with ($primary: red); .a { color: theme.$primary; }`,
			"/src/_theme.scss": `$primary: blue !default;`,
		}, evaluator.Options{})
		require.NoError(t, err)
		assert.Equal(t, ".a { color: red; }", dump(sheet.Children))
	})

	t.Run("configuring a non-default variable", func(t *testing.T) {
		_, err := evaluate(t, map[string]string{
			"/src/main.scss":   `@use "theme" with ($primary: red);`,
			"/src/_theme.scss": `$primary: blue;`,
		}, evaluator.Options{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "$primary was not declared with !default in the @used module.")
	})

	t.Run("css emitted once", func(t *testing.T) {
		sheet, err := evaluate(t, map[string]string{
			"/src/main.scss":  `@use "a"; @use "b";`,
			"/src/_a.scss":    `@use "base";`,
			"/src/_b.scss":    `@use "base";`,
			"/src/_base.scss": `.base { x: y; }`,
		}, evaluator.Options{})
		require.NoError(t, err)
		assert.Equal(t, ".base { x: y; }", dump(sheet.Children))
	})

	t.Run("private members hidden", func(t *testing.T) {
		_, err := evaluate(t, map[string]string{
			"/src/main.scss":   `@use "theme"; .a { x: theme.$-secret; }`,
			"/src/_theme.scss": `$-secret: 1;`,
		}, evaluator.Options{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, diagnostics.ErrUndefinedReference))
	})

	t.Run("as star", func(t *testing.T) {
		sheet, err := evaluate(t, map[string]string{
			"/src/main.scss":   `@use "theme" as *; .a { color: $primary; }`,
			"/src/_theme.scss": `$primary: blue;`,
		}, evaluator.Options{})
		require.NoError(t, err)
		assert.Equal(t, ".a { color: blue; }", dump(sheet.Children))
	})

	t.Run("unknown namespace", func(t *testing.T) {
		err := compileErr(t, `.a { x: nope.$y; }`)
		assert.True(t, errors.Is(err, diagnostics.ErrUndefinedReference))
	})
}

func TestForward(t *testing.T) {
	sheet, err := evaluate(t, map[string]string{
		"/src/main.scss":    `@use "lib"; .a { color: lib.$c-red; }`,
		"/src/_lib.scss":    `@forward "colors" as c-*;`,
		"/src/_colors.scss": `$red: #f00;`,
	}, evaluator.Options{})
	require.NoError(t, err)
	assert.Equal(t, ".a { color: #f00; }", dump(sheet.Children))
}

func TestForwardShowHide(t *testing.T) {
	_, err := evaluate(t, map[string]string{
		"/src/main.scss":    `@use "lib"; .a { color: lib.$blue; }`,
		"/src/_lib.scss":    `@forward "colors" hide $blue;`,
		"/src/_colors.scss": `$red: red; $blue: blue;`,
	}, evaluator.Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, diagnostics.ErrUndefinedReference))
}

func TestImport(t *testing.T) {
	sheet, err := evaluate(t, map[string]string{
		"/src/main.scss":  `@import "vars"; @import "print.css"; .a { width: $x; }`,
		"/src/_vars.scss": `$x: 3px;`,
	}, evaluator.Options{})
	require.NoError(t, err)
	assert.Equal(t, "@import \"print.css\";\n.a { width: 3px; }", dump(sheet.Children))
}

func TestBuiltinModules(t *testing.T) {
	got := compile(t, `
@use "sass:math";
@use "sass:map";
@use "sass:string";
.a {
  width: math.div(10px, 4);
  height: math.round(2.5px);
  top: map.get((a: 1px, b: 2px), b);
  content: string.to-upper-case("abc");
  left: math.$pi > 3;
}`)
	assert.Equal(t, `.a { width: 2.5px; height: 3px; top: 2px; content: "ABC"; left: true; }`, got)
}

func TestBuiltinConfigurationRejected(t *testing.T) {
	err := compileErr(t, `@use "sass:math" with ($pi: 3);`)
	assert.Contains(t, err.Error(), "Built-in modules can't be configured.")
}

func TestGlobalFunctions(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{"map-get((a: 1), a)", "1"},
		{"nth(10px 20px, 2)", "20px"},
		{"nth(10px 20px, -1)", "20px"},
		{"length(a b c)", "3"},
		{"join(a b, c d)", "a b c d"},
		{"append(a b, c)", "a b c"},
		{"index(a b c, b)", "2"},
		{`str-slice("hello", 2, 3)`, `"el"`},
		{`str-index("hello", "l")`, "3"},
		{`str-length("hello")`, "5"},
		{`unquote("x")`, "x"},
		{"to-upper-case(abc)", "ABC"},
		{"percentage(0.5)", "50%"},
		{"abs(-3px)", "3px"},
		{"max(1px, 3px, 2px)", "3px"},
		{"min(var(--a), 10px)", "min(var(--a), 10px)"},
		{"lighten(#000, 50%)", "#808080"},
		{"darken(#fff, 100%)", "#000000"},
		{"mix(#fff, #000)", "#808080"},
		{"rgba(#000, 0.5)", "rgba(0, 0, 0, 0.5)"},
		{"rgb(255, 0, 0)", "#ff0000"},
		{"red(#ff8000)", "255"},
		{"alpha(rgba(0, 0, 0, 0.25))", "0.25"},
		{"type-of(1px)", "number"},
		{"type-of((a: 1))", "map"},
		{"if(true, a, b)", "a"},
		{"if(false, a, b)", "b"},
		{"inspect((a: 1))", "(a: 1)"},
		{"map-keys((a: 1, b: 2))", "a, b"},
		{"map-has-key((a: 1), a)", "true"},
		{"unitless(1px)", "false"},
		{"comparable(1px, 1in)", "true"},
		{"feature-exists(at-error)", "true"},
		{"selector-nest('.a', '&:hover')", ".a:hover"},
		{"selector-append('.a', '-b')", ".a-b"},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got := compile(t, ".a { x: "+tt.expr+"; }")
			assert.Equal(t, ".a { x: "+tt.want+"; }", got)
		})
	}
}

func TestMetaFunctions(t *testing.T) {
	got := compile(t, `
@use "sass:meta";
$defined: 1;
@function triple($n) { @return $n * 3; }
@mixin has-content { x: meta.content-exists(); @content; }
.a {
  v: variable-exists(defined);
  g: global-variable-exists(nope);
  f: function-exists(triple);
  c: call(get-function(triple), 2);
  @include has-content;
  @include has-content { }
}`)
	assert.Equal(t, ".a { v: true; g: false; f: true; c: 6; x: false; x: true; }", got)
}

func TestKeywordsOfArgList(t *testing.T) {
	got := compile(t, `
@mixin m($args...) { @each $k, $v in keywords($args) { #{$k}: $v; } }
.a { @include m($top: 1px, $left: 2px); }`)
	assert.Equal(t, ".a { top: 1px; left: 2px; }", got)
}

func TestMessages(t *testing.T) {
	t.Run("warn and debug go to the logger", func(t *testing.T) {
		logger := &captureLogger{}
		_, err := evaluate(t, map[string]string{
			"/src/main.scss": `
@mixin careful { @warn "deprecated #{1 + 1}"; }
.a { @include careful; }
@debug 42px;`,
		}, evaluator.Options{Logger: logger})
		require.NoError(t, err)
		require.Len(t, logger.warns, 1)
		assert.Equal(t, "deprecated 2", logger.warns[0].text)
		assert.Contains(t, logger.warns[0].stack, "careful()")
		assert.Equal(t, []string{"42px"}, logger.debugs)
	})

	t.Run("quiet deps silences load path warnings", func(t *testing.T) {
		files := map[string]string{
			"/src/main.scss": `@use "dep"; @warn "own";`,
			"/lib/_dep.scss": `@warn "from dependency";`,
		}
		logger := &captureLogger{}
		_, err := evaluate(t, files, evaluator.Options{Logger: logger, QuietDeps: true}, "/lib")
		require.NoError(t, err)
		require.Len(t, logger.warns, 1)
		assert.Equal(t, "own", logger.warns[0].text)

		logger = &captureLogger{}
		_, err = evaluate(t, files, evaluator.Options{Logger: logger}, "/lib")
		require.NoError(t, err)
		assert.Len(t, logger.warns, 2)
	})

	t.Run("error aborts", func(t *testing.T) {
		err := compileErr(t, `.a { @error "boom #{1px + 1px}"; }`)
		assert.True(t, errors.Is(err, diagnostics.ErrUser))
		assert.Contains(t, err.Error(), "boom 2px")
		loc, ok := diagnostics.LocationOf(err)
		require.True(t, ok)
		assert.Equal(t, 0, loc.Line)
	})
}

func TestUnitErrorsCarryLocation(t *testing.T) {
	err := compileErr(t, ".a {\n  width: 1px + 1s;\n}")
	assert.True(t, errors.Is(err, diagnostics.ErrUnit))
	loc, ok := diagnostics.LocationOf(err)
	require.True(t, ok)
	assert.Equal(t, 1, loc.Line)
}

func TestDeterministic(t *testing.T) {
	src := `
@use "sass:math";
$sizes: (sm: 1px, md: 2px, lg: 3px);
@each $k, $v in $sizes { .p-#{$k} { padding: $v; } }
.r { width: math.random(10); }`
	first := compile(t, src)
	for range 5 {
		assert.Equal(t, first, compile(t, src))
	}
}
