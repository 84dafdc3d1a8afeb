package resolver_test

import (
	"testing"

	"bennypowers.dev/scssc/internal/resolver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokensImporter(t *testing.T) {
	loader := resolver.NewMapLoader(map[string]string{
		"/tokens/brand.json": `{
			"color": {
				"primary": {"$type": "color", "$value": "#ff0000"}
			}
		}`,
		"/src/main.scss": `@use "tokens:brand";`,
	})
	importer := resolver.NewTokensImporter(loader, resolver.TokensFile{Path: "/tokens/brand.json"})
	assert.Equal(t, []string{"brand"}, importer.Names())

	t.Run("canonicalize", func(t *testing.T) {
		canonical, ok, err := importer.Canonicalize("tokens:brand", false)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "tokens:brand", canonical)

		_, ok, err = importer.Canonicalize("tokens:other", false)
		require.NoError(t, err)
		assert.False(t, ok)

		_, ok, _ = importer.Canonicalize("brand", false)
		assert.False(t, ok)
	})

	t.Run("load", func(t *testing.T) {
		result, err := importer.Load("tokens:brand")
		require.NoError(t, err)
		assert.Equal(t, resolver.SyntaxSCSS, result.Syntax)
		assert.Contains(t, result.Contents, "$color-primary: #ff0000 !default;")
		assert.Contains(t, result.Contents, `"color-primary": $color-primary`)
	})

	t.Run("resolves as a module", func(t *testing.T) {
		graph, err := resolver.Resolve("/src/main.scss", resolver.Options{
			Loader:    loader,
			Importers: []resolver.Importer{importer},
		})
		require.NoError(t, err)
		dep, ok := graph.Lookup(graph.Entry, "tokens:brand")
		require.True(t, ok)
		assert.True(t, dep.FromLoadPath)
	})
}
