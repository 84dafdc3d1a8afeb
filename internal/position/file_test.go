package position_test

import (
	"testing"

	"bennypowers.dev/scssc/internal/position"
	"github.com/stretchr/testify/assert"
)

func TestFilePosition(t *testing.T) {
	f := position.NewFile("file:///a.scss", "/a.scss", "a {\n  b: c;\n}\n")

	t.Run("first line", func(t *testing.T) {
		line, col := f.Position(2)
		assert.Equal(t, 0, line)
		assert.Equal(t, 2, col)
	})

	t.Run("second line", func(t *testing.T) {
		line, col := f.Position(6)
		assert.Equal(t, 1, line)
		assert.Equal(t, 2, col)
	})

	t.Run("offset at end", func(t *testing.T) {
		line, col := f.Position(len(f.Content))
		assert.Equal(t, 3, line)
		assert.Equal(t, 0, col)
	})

	t.Run("line text", func(t *testing.T) {
		assert.Equal(t, "  b: c;", f.LineText(1))
		assert.Equal(t, "", f.LineText(10))
	})
}

func TestFileUTF16RoundTrip(t *testing.T) {
	f := position.NewFile("", "", "/* 👍 */\n.a { content: \"颜\"; b: c; }")

	offset := len("/* 👍 */\n.a { content: \"颜\"; ")
	line, col := f.UTF16Position(offset)
	assert.Equal(t, 1, line)
	assert.Equal(t, 19, col)
	assert.Equal(t, offset, f.Offset(line, col))
	assert.Equal(t, -1, f.Offset(5, 0))
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "/a.scss", position.NewFile("file:///a.scss", "/a.scss", "").Name())
	assert.Equal(t, "memory:x", position.NewFile("memory:x", "", "").Name())
}
