package evaluator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitSelectorList(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"single", ".a", []string{".a"}},
		{"list", ".a, .b", []string{".a", ".b"}},
		{"whitespace collapsed", "  .a \n  .b  ", []string{".a .b"}},
		{"combinators spaced", ".a>.b+.c~.d", []string{".a > .b + .c ~ .d"}},
		{"comma inside parens", ":is(.a, .b) .c", []string{":is(.a, .b) .c"}},
		{"comma inside attribute", `[data-x="a,b"]`, []string{`[data-x="a,b"]`}},
		{"attribute operator kept", `[class~=x]`, []string{`[class~=x]`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitSelectorList(tt.in))
		})
	}
}

func TestNestSelectors(t *testing.T) {
	tests := []struct {
		name     string
		parents  []string
		children []string
		want     []string
	}{
		{"descendant", []string{".a"}, []string{".b"}, []string{".a .b"}},
		{"suffix", []string{".btn"}, []string{"&-primary"}, []string{".btn-primary"}},
		{"compound", []string{".a"}, []string{"&.b"}, []string{".a.b"}},
		{"pseudo", []string{"a"}, []string{"&:hover"}, []string{"a:hover"}},
		{"parent at end", []string{".a"}, []string{".b &"}, []string{".b .a"}},
		{"parent major order", []string{".a", ".b"}, []string{".x", ".y"}, []string{".a .x", ".a .y", ".b .x", ".b .y"}},
		{"whole parent replaced", []string{".a .b"}, []string{"&-c"}, []string{".a .b-c"}},
		{"combinator child", []string{".a"}, []string{"> .b"}, []string{".a > .b"}},
		{"ampersand in attribute untouched", []string{".a"}, []string{`[href="&"]`}, []string{`.a [href="&"]`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := nestSelectors(tt.parents, tt.children)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNestSelectorsAtRootRejectsParent(t *testing.T) {
	_, err := nestSelectors(nil, []string{"&.a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `Top-level selectors may not contain the parent selector "&".`)
}

func TestIsPlaceholder(t *testing.T) {
	assert.True(t, isPlaceholder("%btn"))
	assert.True(t, isPlaceholder(".a %b"))
	assert.False(t, isPlaceholder(".a"))
	assert.False(t, isPlaceholder(`[width="50%"]`))
	assert.False(t, isPlaceholder(":nth-child(50%)"))
}

func TestMergeMediaQueries(t *testing.T) {
	tests := []struct {
		name         string
		outer, inner []string
		want         []string
	}{
		{"conditions joined", []string{"screen"}, []string{"(min-width: 10px)"}, []string{"screen and (min-width: 10px)"}},
		{"both conditions", []string{"(min-width: 10px)"}, []string{"(max-width: 20px)"}, []string{"(min-width: 10px) and (max-width: 20px)"}},
		{"inner type adopted", []string{"(min-width: 10px)"}, []string{"print"}, []string{"print and (min-width: 10px)"}},
		{"conflicting types dropped", []string{"screen"}, []string{"print"}, nil},
		{"cross product", []string{"screen", "print"}, []string{"(color)"}, []string{"screen and (color)", "print and (color)"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mergeMediaQueries(tt.outer, tt.inner))
		})
	}
}

func TestExtendComplex(t *testing.T) {
	tests := []struct {
		name     string
		sel      string
		target   string
		extender string
		want     string
		ok       bool
	}{
		{"simple", ".a", ".a", ".b", ".b", true},
		{"compound rest kept", ".a.c", ".a", ".b", ".c.b", true},
		{"descendant", ".x .a", ".a", ".b", ".x .b", true},
		{"extender context", ".a", ".a", ".p .b", ".p .b", true},
		{"type unified first", ".a", ".a", "button", "button", true},
		{"type conflict", "a.a", ".a", "button", "", false},
		{"pseudo last", ".a:hover", ".a", ".b", ".b:hover", true},
		{"no match", ".c", ".a", ".b", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extendComplex(tt.sel, splitCompound(tt.target), tt.extender)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
