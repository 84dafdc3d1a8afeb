// Package emitter serializes the evaluated CSS tree into text, producing a
// source map alongside when asked.
package emitter

import (
	"fmt"
	"strings"

	"bennypowers.dev/scssc/internal/ast"
	"bennypowers.dev/scssc/internal/cssout"
	"bennypowers.dev/scssc/internal/diagnostics"
	"bennypowers.dev/scssc/internal/position"
	"bennypowers.dev/scssc/internal/sourcemap"
)

// Style selects the output format
type Style int

const (
	// Expanded writes one declaration per line with two-space indentation
	Expanded Style = iota
	// Compressed removes every character that is not significant
	Compressed
)

func (s Style) String() string {
	if s == Compressed {
		return "compressed"
	}
	return "expanded"
}

// ParseStyle reads a style name as given on the command line or in config
func ParseStyle(name string) (Style, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "expanded":
		return Expanded, nil
	case "compressed":
		return Compressed, nil
	}
	return Expanded, fmt.Errorf("unknown output style %q: expected expanded or compressed", name)
}

// Options controls serialization
type Options struct {
	Style Style
	// SourceMap enables source map generation
	SourceMap bool
	// IncludeSources embeds each source's text as sourcesContent
	IncludeSources bool
	// Charset adds @charset (expanded) or a byte-order mark (compressed)
	// when the output contains non-ASCII text
	Charset bool
	// File names the generated file in the source map
	File string
}

const bom = "\uFEFF"

// Emit serializes sheet. The returned source map is nil unless
// opts.SourceMap is set.
func Emit(sheet *cssout.Stylesheet, opts Options) (string, []byte, error) {
	w := &writer{compressed: opts.Style == Compressed, maps: opts.SourceMap}
	if err := w.stylesheet(sheet); err != nil {
		return "", nil, err
	}
	css := w.buf.String()

	lineShift := 0
	if opts.Charset && !isASCII(css) {
		if w.compressed {
			css = bom + css
		} else {
			css = "@charset \"UTF-8\";\n" + css
			lineShift = 1
		}
	}

	if !opts.SourceMap {
		return css, nil, nil
	}
	b := sourcemap.NewBuilder(opts.File)
	for _, f := range w.files {
		var content *string
		if opts.IncludeSources {
			text := f.Content
			content = &text
		}
		b.AddSource(f.URL, content)
	}
	for _, m := range w.mappings {
		m.GenLine += lineShift
		b.Add(m)
	}
	data, err := b.Build(opts.IncludeSources).JSON()
	if err != nil {
		return "", nil, fmt.Errorf("failed to encode source map: %w", err)
	}
	return css, data, nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

// writer tracks the generated position in UTF-16 units while it writes
type writer struct {
	buf        strings.Builder
	compressed bool
	maps       bool
	indent     int

	line     int
	column   int
	mappings []sourcemap.Mapping
	files    []*position.File
	seen     map[*position.File]bool
}

func (w *writer) write(s string) {
	w.buf.WriteString(s)
	if !w.maps {
		return
	}
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		w.line += strings.Count(s, "\n")
		w.column = position.StringLengthUTF16(s[i+1:])
		return
	}
	w.column += position.StringLengthUTF16(s)
}

// mark maps the current output position to the start of span
func (w *writer) mark(span ast.Span) {
	if !w.maps || span.File == nil || span.File.URL == "" {
		return
	}
	if w.seen == nil {
		w.seen = make(map[*position.File]bool)
	}
	if !w.seen[span.File] {
		w.seen[span.File] = true
		w.files = append(w.files, span.File)
	}
	line, col := span.File.UTF16Position(span.Start)
	w.mappings = append(w.mappings, sourcemap.Mapping{
		GenLine:   w.line,
		GenColumn: w.column,
		Source:    span.File.URL,
		Line:      line,
		Column:    col,
	})
}

func (w *writer) newline() {
	if !w.compressed {
		w.write("\n")
	}
}

func (w *writer) space() {
	if !w.compressed {
		w.write(" ")
	}
}

func (w *writer) writeIndent() {
	if !w.compressed && w.indent > 0 {
		w.write(strings.Repeat("  ", w.indent))
	}
}

func (w *writer) stylesheet(sheet *cssout.Stylesheet) error {
	first := true
	for _, n := range sheet.Children {
		if w.skip(n) {
			continue
		}
		if !first {
			// blank line between top-level siblings
			w.newline()
			w.newline()
		}
		first = false
		if err := w.node(n); err != nil {
			return err
		}
	}
	return nil
}

// skip reports whether n writes nothing in the current style
func (w *writer) skip(n cssout.Node) bool {
	if cssout.IsInvisible(n) {
		return true
	}
	if c, ok := n.(*cssout.Comment); ok && w.compressed && !c.Preserved() {
		return true
	}
	return false
}

func (w *writer) node(n cssout.Node) error {
	switch n := n.(type) {
	case *cssout.StyleRule:
		return w.styleRule(n)
	case *cssout.AtRule:
		return w.atRule(n)
	case *cssout.Declaration:
		return w.declaration(n)
	case *cssout.Comment:
		w.comment(n)
	case *cssout.Import:
		w.cssImport(n)
	}
	return nil
}

func (w *writer) styleRule(r *cssout.StyleRule) error {
	w.writeIndent()
	w.mark(r.Span)
	sep := ", "
	if w.compressed {
		sep = ","
	}
	sels := make([]string, len(r.Selectors))
	for i, s := range r.Selectors {
		sels[i] = w.selector(s)
	}
	w.write(strings.Join(sels, sep))
	return w.block(r.Children)
}

func (w *writer) atRule(r *cssout.AtRule) error {
	w.writeIndent()
	w.mark(r.Span)
	w.write("@" + r.Name)
	if r.Params != "" {
		w.write(" " + w.params(r.Params))
	}
	if !r.HasBlock {
		w.write(";")
		return nil
	}
	return w.block(r.Children)
}

// block writes `{ children }`. Declarations in compressed output are
// separated by semicolons with none after the last.
func (w *writer) block(children []cssout.Node) error {
	w.space()
	w.write("{")
	visible := make([]cssout.Node, 0, len(children))
	for _, c := range children {
		if !w.skip(c) {
			visible = append(visible, c)
		}
	}
	if len(visible) == 0 {
		w.write("}")
		return nil
	}
	w.indent++
	for i, c := range visible {
		w.newline()
		if err := w.node(c); err != nil {
			return err
		}
		if w.compressed && i < len(visible)-1 && needsSemicolon(c) {
			w.write(";")
		}
	}
	w.indent--
	w.newline()
	w.writeIndent()
	w.write("}")
	return nil
}

// needsSemicolon reports whether compressed output must separate n from
// a following sibling
func needsSemicolon(n cssout.Node) bool {
	_, ok := n.(*cssout.Declaration)
	return ok
}

func (w *writer) declaration(d *cssout.Declaration) error {
	w.writeIndent()
	w.mark(d.Span)
	text, err := d.Value.CSS(w.compressed)
	if err != nil {
		return diagnostics.Locate(err, d.Span)
	}
	if d.Custom && !w.compressed {
		text = reindent(text, w.indent)
	}
	if w.compressed {
		text = collapseWhitespace(text)
	}
	w.write(d.Name + ":")
	if !w.compressed || text == "" {
		w.write(" ")
	}
	w.write(text)
	if !w.compressed {
		w.write(";")
	}
	return nil
}

func (w *writer) comment(c *cssout.Comment) {
	w.writeIndent()
	w.mark(c.Span)
	text := c.Text
	if w.compressed {
		text = collapseWhitespace(text)
	}
	w.write(text)
}

func (w *writer) cssImport(i *cssout.Import) {
	w.writeIndent()
	w.mark(i.Span)
	w.write("@import " + i.URL)
	if i.Modifiers != "" {
		w.write(" " + w.params(i.Modifiers))
	}
	w.write(";")
}

// selector drops the spaces around combinators in compressed output
func (w *writer) selector(s string) string {
	if !w.compressed {
		return s
	}
	var b strings.Builder
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == '\\' && i+1 < len(s) {
				b.WriteByte(c)
				i++
				c = s[i]
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == ' ' && i+2 < len(s) && isCombinator(s[i+1]) && s[i+2] == ' ':
			b.WriteByte(s[i+1])
			i += 2
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

func isCombinator(c byte) bool {
	return c == '>' || c == '+' || c == '~'
}

// params tightens at-rule parameters for compressed output:
// `(min-width: 10px)` becomes `(min-width:10px)`
func (w *writer) params(p string) string {
	if !w.compressed {
		return p
	}
	p = collapseWhitespace(p)
	var b strings.Builder
	var quote byte
	for i := 0; i < len(p); i++ {
		c := p[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == ':' && i+1 < len(p) && p[i+1] == ' ':
			b.WriteByte(c)
			i++
			continue
		case c == ',' && i+1 < len(p) && p[i+1] == ' ':
			b.WriteByte(c)
			i++
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// collapseWhitespace turns every run of whitespace outside quotes into a
// single space
func collapseWhitespace(s string) string {
	var b strings.Builder
	var quote byte
	space := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote == 0 && isSpace(c) {
			space = true
			continue
		}
		if space {
			b.WriteByte(' ')
			space = false
		}
		switch {
		case quote != 0:
			if c == '\\' && i+1 < len(s) {
				b.WriteByte(c)
				i++
				c = s[i]
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		}
		b.WriteByte(c)
	}
	if space {
		b.WriteByte(' ')
	}
	return b.String()
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

// reindent shifts the continuation lines of a multi-line custom property
// value to the declaration's indentation
func reindent(text string, indent int) string {
	if !strings.Contains(text, "\n") {
		return text
	}
	lines := strings.Split(text, "\n")
	pad := strings.Repeat("  ", indent)
	for i := 1; i < len(lines); i++ {
		trimmed := strings.TrimLeft(lines[i], " \t")
		if trimmed == "" {
			lines[i] = ""
			continue
		}
		lines[i] = pad + trimmed
	}
	return strings.Join(lines, "\n")
}
