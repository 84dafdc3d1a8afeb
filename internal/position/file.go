package position

import (
	"sort"
	"sync"
)

// File is a loaded stylesheet source. Offsets used throughout the compiler
// are byte offsets into Content.
type File struct {
	// URL is the canonical URL of the file (file:// URI for files on disk)
	URL string
	// Path is the filesystem path, empty for in-memory sources
	Path string
	// Content is the source text
	Content string

	once       sync.Once
	lineStarts []int
}

// NewFile creates a File for the given canonical URL, path and content.
func NewFile(url, path, content string) *File {
	return &File{URL: url, Path: path, Content: content}
}

// Name returns the path if known, otherwise the URL.
func (f *File) Name() string {
	if f == nil {
		return ""
	}
	if f.Path != "" {
		return f.Path
	}
	return f.URL
}

func (f *File) index() {
	f.once.Do(func() {
		f.lineStarts = []int{0}
		for i := 0; i < len(f.Content); i++ {
			if f.Content[i] == '\n' {
				f.lineStarts = append(f.lineStarts, i+1)
			}
		}
	})
}

// Position returns the 0-based line and 0-based byte column of offset.
func (f *File) Position(offset int) (line, column int) {
	f.index()
	if offset < 0 {
		offset = 0
	}
	if offset > len(f.Content) {
		offset = len(f.Content)
	}
	line = sort.Search(len(f.lineStarts), func(i int) bool {
		return f.lineStarts[i] > offset
	}) - 1
	return line, offset - f.lineStarts[line]
}

// UTF16Position returns the 0-based line and the column of offset in
// UTF-16 code units.
func (f *File) UTF16Position(offset int) (line, column int) {
	line, _ = f.Position(offset)
	start := f.lineStarts[line]
	return line, ByteOffsetToUTF16(f.Content[start:], offset-start)
}

// Offset converts a 0-based line and UTF-16 column back into a byte offset.
// Returns -1 if the line does not exist.
func (f *File) Offset(line, utf16Col int) int {
	f.index()
	if line < 0 || line >= len(f.lineStarts) {
		return -1
	}
	start := f.lineStarts[line]
	end := len(f.Content)
	if line+1 < len(f.lineStarts) {
		end = f.lineStarts[line+1]
	}
	return start + UTF16ToByteOffset(f.Content[start:end], utf16Col)
}

// LineText returns the text of the given 0-based line without its newline.
func (f *File) LineText(line int) string {
	f.index()
	if line < 0 || line >= len(f.lineStarts) {
		return ""
	}
	start := f.lineStarts[line]
	end := len(f.Content)
	if line+1 < len(f.lineStarts) {
		end = f.lineStarts[line+1] - 1
	}
	if end > start && f.Content[end-1] == '\r' {
		end--
	}
	return f.Content[start:end]
}
