package sourcemap_test

import (
	"encoding/json"
	"testing"

	gosourcemap "github.com/go-sourcemap/sourcemap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bennypowers.dev/scssc/internal/sourcemap"
)

// consume decodes b's output with an independent source map reader
func consume(t *testing.T, b *sourcemap.Builder, withContent bool) *gosourcemap.Consumer {
	t.Helper()
	data, err := b.Build(withContent).JSON()
	require.NoError(t, err)
	c, err := gosourcemap.Parse("", data)
	require.NoError(t, err)
	return c
}

func TestBuilderEncodesKnownMappings(t *testing.T) {
	b := sourcemap.NewBuilder("out.css")
	b.Add(sourcemap.Mapping{GenLine: 0, GenColumn: 0, Source: "file:///a.scss", Line: 0, Column: 0})
	b.Add(sourcemap.Mapping{GenLine: 1, GenColumn: 2, Source: "file:///a.scss", Line: 1, Column: 2})

	m := b.Build(false)
	assert.Equal(t, 3, m.Version)
	assert.Equal(t, "out.css", m.File)
	assert.Equal(t, []string{"file:///a.scss"}, m.Sources)
	assert.Equal(t, "AAAA;EACE", m.Mappings)
	assert.Nil(t, m.SourcesContent)
}

func TestNegativeDeltas(t *testing.T) {
	b := sourcemap.NewBuilder("")
	b.Add(sourcemap.Mapping{GenLine: 0, GenColumn: 0, Source: "a", Line: 40, Column: 10})
	b.Add(sourcemap.Mapping{GenLine: 0, GenColumn: 5, Source: "b", Line: 3, Column: 0})
	b.Add(sourcemap.Mapping{GenLine: 1, GenColumn: 300, Source: "a", Line: 1000, Column: 64})
	c := consume(t, b, false)

	source, _, line, col, ok := c.Source(1, 0)
	require.True(t, ok)
	assert.Equal(t, "a", source)
	assert.Equal(t, 41, line)
	assert.Equal(t, 10, col)

	source, _, line, col, ok = c.Source(1, 5)
	require.True(t, ok)
	assert.Equal(t, "b", source)
	assert.Equal(t, 4, line)
	assert.Equal(t, 0, col)

	source, _, line, col, ok = c.Source(2, 300)
	require.True(t, ok)
	assert.Equal(t, "a", source)
	assert.Equal(t, 1001, line)
	assert.Equal(t, 64, col)
}

func TestSourcesContent(t *testing.T) {
	content := ".a { color: red; }"
	b := sourcemap.NewBuilder("out.css")
	b.AddSource("file:///a.scss", &content)
	b.Add(sourcemap.Mapping{Source: "file:///a.scss"})
	b.Add(sourcemap.Mapping{GenColumn: 3, Source: "file:///b.scss", Line: 2})

	m := b.Build(true)
	require.Len(t, m.SourcesContent, 2)
	assert.Equal(t, content, *m.SourcesContent[0])
	assert.Nil(t, m.SourcesContent[1])

	data, err := m.JSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"sourcesContent":[".a { color: red; }",null]`)

	c := consume(t, b, true)
	assert.Equal(t, content, c.SourceContent("file:///a.scss"))
	assert.Empty(t, c.SourceContent("file:///b.scss"))
}

func TestSamePositionReplaced(t *testing.T) {
	b := sourcemap.NewBuilder("")
	b.Add(sourcemap.Mapping{Source: "a", Line: 1})
	b.Add(sourcemap.Mapping{Source: "a", Line: 7})
	assert.Equal(t, 1, b.Len())

	_, _, line, _, ok := consume(t, b, false).Source(1, 0)
	require.True(t, ok)
	assert.Equal(t, 8, line)
}

func TestBuiltMapsDecode(t *testing.T) {
	b := sourcemap.NewBuilder("out.css")
	b.Add(sourcemap.Mapping{GenLine: 0, GenColumn: 0, Source: "a", Line: 0, Column: 0})
	b.Add(sourcemap.Mapping{GenLine: 0, GenColumn: 10, Source: "a", Line: 4, Column: 2})
	b.Add(sourcemap.Mapping{GenLine: 2, GenColumn: 2, Source: "a", Line: 9, Column: 1})
	c := consume(t, b, false)
	assert.Equal(t, "out.css", c.File())

	// lines are 1-based on the reading side
	tests := []struct {
		name      string
		line, col int
		want      int
		ok        bool
	}{
		{"exact start", 1, 0, 1, true},
		{"between segments", 1, 7, 1, true},
		{"second segment", 1, 12, 5, true},
		{"third line", 3, 2, 10, true},
		{"after last", 3, 50, 10, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, line, _, ok := c.Source(tt.line, tt.col)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.want, line)
			}
		})
	}
}

func TestMapJSONShape(t *testing.T) {
	b := sourcemap.NewBuilder("")
	b.Add(sourcemap.Mapping{Source: "a"})
	data, err := b.Build(false).JSON()
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.NotContains(t, raw, "file")
	assert.NotContains(t, raw, "sourcesContent")
	assert.Equal(t, []any{}, raw["names"])
}
