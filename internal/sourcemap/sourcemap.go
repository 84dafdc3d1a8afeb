// Package sourcemap builds version 3 source maps.
//
// Generated and original columns are counted in UTF-16 code units, as
// browsers and the source map format expect. Callers convert from byte
// offsets with the helpers in internal/position.
package sourcemap

import (
	"encoding/json"
	"strings"
)

// Mapping links a generated position to a position in a source
type Mapping struct {
	GenLine   int
	GenColumn int
	Source    string
	Line      int
	Column    int
}

// Map is an encoded version 3 source map
type Map struct {
	Version        int       `json:"version"`
	File           string    `json:"file,omitempty"`
	SourceRoot     string    `json:"sourceRoot,omitempty"`
	Sources        []string  `json:"sources"`
	SourcesContent []*string `json:"sourcesContent,omitempty"`
	Names          []string  `json:"names"`
	Mappings       string    `json:"mappings"`
}

// Builder accumulates mappings in generated order and encodes them
type Builder struct {
	file     string
	sources  []string
	contents []*string
	index    map[string]int
	mappings []Mapping
}

// NewBuilder creates a builder for a map describing the generated file
func NewBuilder(file string) *Builder {
	return &Builder{file: file, index: make(map[string]int)}
}

// AddSource registers a source URL and optionally its content. Registering
// the same URL twice keeps the first entry.
func (b *Builder) AddSource(url string, content *string) int {
	if i, ok := b.index[url]; ok {
		return i
	}
	b.index[url] = len(b.sources)
	b.sources = append(b.sources, url)
	b.contents = append(b.contents, content)
	return len(b.sources) - 1
}

// Add records one mapping. Mappings must be added in generated order;
// a mapping at the same generated position as the previous one replaces it.
func (b *Builder) Add(m Mapping) {
	b.AddSource(m.Source, nil)
	if n := len(b.mappings); n > 0 {
		last := b.mappings[n-1]
		if last.GenLine == m.GenLine && last.GenColumn == m.GenColumn {
			b.mappings[n-1] = m
			return
		}
	}
	b.mappings = append(b.mappings, m)
}

// Len returns the number of recorded mappings
func (b *Builder) Len() int {
	return len(b.mappings)
}

// Build returns the encoded map. sourcesContent is included only when
// withContent is set.
func (b *Builder) Build(withContent bool) *Map {
	m := &Map{
		Version:  3,
		File:     b.file,
		Sources:  append([]string{}, b.sources...),
		Names:    []string{},
		Mappings: b.encode(),
	}
	if withContent {
		m.SourcesContent = append([]*string{}, b.contents...)
	}
	return m
}

func (b *Builder) encode() string {
	var sb strings.Builder
	var prevCol, prevSource, prevLine, prevOrigCol int
	line := 0
	first := true
	for _, m := range b.mappings {
		for line < m.GenLine {
			sb.WriteByte(';')
			line++
			prevCol = 0
			first = true
		}
		if !first {
			sb.WriteByte(',')
		}
		first = false
		src := b.index[m.Source]
		writeVLQ(&sb, m.GenColumn-prevCol)
		writeVLQ(&sb, src-prevSource)
		writeVLQ(&sb, m.Line-prevLine)
		writeVLQ(&sb, m.Column-prevOrigCol)
		prevCol, prevSource, prevLine, prevOrigCol = m.GenColumn, src, m.Line, m.Column
	}
	return sb.String()
}

// JSON encodes the map
func (m *Map) JSON() ([]byte, error) {
	return json.Marshal(m)
}
