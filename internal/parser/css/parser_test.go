package css_test

import (
	"testing"

	"bennypowers.dev/scssc/internal/parser/css"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, source string) *css.ParseResult {
	t.Helper()
	parser := css.AcquireParser()
	defer css.ReleaseParser(parser)
	result, err := parser.Parse(source)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func TestParseRules(t *testing.T) {
	result := parse(t, `.a, .b > .c {
  color: red;
  margin: 0 auto !important;
}

@media screen and (min-width: 10px) {
  .d {
    top: 0;
  }
}`)
	require.Len(t, result.Rules, 2)

	first := result.Rules[0]
	assert.Equal(t, []string{".a", ".b > .c"}, first.Selectors)
	require.Len(t, first.Declarations, 2)
	assert.Equal(t, "color", first.Declarations[0].Property)
	assert.Equal(t, "red", first.Declarations[0].Value)
	assert.Equal(t, "margin", first.Declarations[1].Property)
	assert.Equal(t, "0 auto !important", first.Declarations[1].Value)
	assert.Empty(t, first.AtRules)
	assert.Empty(t, result.Issues)

	nested := result.Rules[1]
	assert.Equal(t, []string{".d"}, nested.Selectors)
	assert.Equal(t, []string{"@media"}, nested.AtRules)
	assert.Equal(t, uint32(6), nested.Range.Start.Line)
}

func TestParseCompressedOutput(t *testing.T) {
	result := parse(t, `.a,.b{color:red;top:0}@media print{.c{display:none}}`)
	require.Len(t, result.Rules, 2)
	assert.Equal(t, []string{".a", ".b"}, result.Rules[0].Selectors)
	assert.Len(t, result.Rules[0].Declarations, 2)
	assert.Equal(t, "none", result.Rules[1].Declarations[0].Value)
	assert.Empty(t, result.Issues)
}

func TestParseKeyframes(t *testing.T) {
	result := parse(t, `@keyframes spin {
  from {
    transform: rotate(0deg);
  }
  to {
    transform: rotate(360deg);
  }
}`)
	require.Len(t, result.Rules, 2)
	assert.Equal(t, []string{"from"}, result.Rules[0].Selectors)
	assert.Equal(t, []string{"to"}, result.Rules[1].Selectors)
	assert.Equal(t, "rotate(360deg)", result.Rules[1].Declarations[0].Value)
}

func TestParseCustomProperties(t *testing.T) {
	result := parse(t, `:root {
  --color-primary: #0000ff;
  --spacing-small: 8px;
}`)
	require.Len(t, result.Variables, 2)
	assert.Equal(t, "--color-primary", result.Variables[0].Name)
	assert.Equal(t, "#0000ff", result.Variables[0].Value)
	assert.Equal(t, css.VariableDeclaration, result.Variables[0].Type)
	assert.Equal(t, uint32(1), result.Variables[0].Range.Start.Line)
	assert.Equal(t, uint32(2), result.Variables[0].Range.Start.Character)
}

func TestParseVarCalls(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		want     string
		fallback *string
	}{
		{"plain", `var(--color-primary)`, "--color-primary", nil},
		{"fallback", `var(--color-primary, #000)`, "--color-primary", ptr("#000")},
		{"font list fallback", `var(--font, FooFont, 'Bar Font', sans-serif)`, "--font", ptr("FooFont, 'Bar Font', sans-serif")},
		{"nested commas", `var(--shadow, 1px 2px rgba(0, 0, 0, 0.5))`, "--shadow", ptr("1px 2px rgba(0, 0, 0, 0.5)")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parse(t, `.element { x: `+tt.value+`; }`)
			require.Len(t, result.VarCalls, 1)
			call := result.VarCalls[0]
			assert.Equal(t, tt.want, call.Name)
			assert.Equal(t, css.VarReference, call.Type)
			assert.Equal(t, tt.fallback, call.Fallback)
		})
	}
}

func TestParseNestedVarCalls(t *testing.T) {
	result := parse(t, `.button { color: var(--color-primary, var(--color-base)); }`)
	names := make([]string, 0, len(result.VarCalls))
	for _, call := range result.VarCalls {
		names = append(names, call.Name)
	}
	assert.ElementsMatch(t, []string{"--color-primary", "--color-base"}, names)
}

func TestParseReportsIssues(t *testing.T) {
	result := parse(t, `.a { color: red; } .b { color: }} .c {`)
	require.NotEmpty(t, result.Issues)
	assert.NotEmpty(t, result.Issues[0].String())
}

func TestParseEmpty(t *testing.T) {
	result := parse(t, ``)
	assert.Empty(t, result.Rules)
	assert.Empty(t, result.Variables)
	assert.Empty(t, result.VarCalls)
	assert.Empty(t, result.Issues)
}

func TestValidate(t *testing.T) {
	issues, err := css.Validate(`.a{color:red}`)
	require.NoError(t, err)
	assert.Empty(t, issues)

	issues, err = css.Validate(`.a{color:red`)
	require.NoError(t, err)
	assert.NotEmpty(t, issues)
}

func TestIssueString(t *testing.T) {
	issue := css.Issue{Missing: true, Text: "}", Range: css.Range{Start: css.Position{Line: 2, Character: 4}}}
	assert.Equal(t, `missing "}" at 3:5`, issue.String())

	issue = css.Issue{Text: "}}", Range: css.Range{Start: css.Position{Line: 0, Character: 0}}}
	assert.Equal(t, `unexpected "}}" at 1:1`, issue.String())
}

func ptr(s string) *string {
	return &s
}
