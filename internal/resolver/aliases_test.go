package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokensStylesheet(t *testing.T) {
	t.Run("aliases are declared after their targets", func(t *testing.T) {
		src, err := tokensStylesheet([]designToken{
			{Name: "color-primary", Value: "{color.base}"},
			{Name: "color-base", Value: "#ff6b35"},
			{Name: "font-stack", Value: "Helvetica, sans-serif"},
		}, "")
		require.NoError(t, err)
		assert.Equal(t, `$color-base: #ff6b35 !default;
$color-primary: $color-base !default;
$font-stack: Helvetica, sans-serif !default;
$tokens: (
  "color-primary": $color-primary,
  "color-base": $color-base,
  "font-stack": $font-stack
);
`, src)
	})

	t.Run("prefix and JSON pointer aliases", func(t *testing.T) {
		src, err := tokensStylesheet([]designToken{
			{Name: "space-sm", Value: "4px"},
			{Name: "space-md", Value: "#/space/sm"},
		}, "ds")
		require.NoError(t, err)
		assert.Contains(t, src, "$ds-space-md: $ds-space-sm !default;\n")
	})

	t.Run("embedded references", func(t *testing.T) {
		assert.Equal(t, "calc($a * 2)", tokenExpression("", "calc({a} * 2)"))
	})

	t.Run("unsafe values are quoted", func(t *testing.T) {
		assert.Equal(t, `"a;b"`, tokenExpression("", "a;b"))
		assert.Equal(t, `""`, tokenExpression("", ""))
	})

	t.Run("string tokens are quoted", func(t *testing.T) {
		src, err := tokensStylesheet([]designToken{{Name: "label", Value: "Hello", Type: "string"}}, "")
		require.NoError(t, err)
		assert.Contains(t, src, `$label: "Hello" !default;`)
	})

	t.Run("circular references fail", func(t *testing.T) {
		_, err := tokensStylesheet([]designToken{
			{Name: "a", Value: "{b}"},
			{Name: "b", Value: "{a}"},
		}, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "circular token reference: a → b → a")
	})

	t.Run("missing references fail", func(t *testing.T) {
		_, err := tokensStylesheet([]designToken{{Name: "a", Value: "{missing}"}}, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "non-existent token: missing (used by a)")
	})
}

func TestTokensJSON(t *testing.T) {
	t.Run("yaml", func(t *testing.T) {
		out, err := tokensJSON("tokens.yaml", []byte("color:\n  red:\n    $value: '#f00'\n"))
		require.NoError(t, err)
		assert.JSONEq(t, `{"color":{"red":{"$value":"#f00"}}}`, string(out))
	})

	t.Run("json with comments", func(t *testing.T) {
		out, err := tokensJSON("tokens.json", []byte("{\n// note\n\"a\": 1}"))
		require.NoError(t, err)
		assert.JSONEq(t, `{"a":1}`, string(out))
	})

	t.Run("unsupported", func(t *testing.T) {
		_, err := tokensJSON("tokens.toml", nil)
		assert.Error(t, err)
	})
}
