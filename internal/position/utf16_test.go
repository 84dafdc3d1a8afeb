package position

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestByteOffsetToUTF16(t *testing.T) {
	tests := []struct {
		name       string
		s          string
		byteOffset int
		expect     int
	}{
		{name: "empty string", s: "", byteOffset: 0, expect: 0},
		{name: "ASCII only", s: "color: red", byteOffset: 5, expect: 5},
		{name: "beyond end", s: "abc", byteOffset: 100, expect: 3},
		{name: "emoji before offset", s: "/* 👍 */ a", byteOffset: 8, expect: 6},
		{name: "CJK characters", s: "颜色: red", byteOffset: 6, expect: 2},
		{name: "inside multibyte rune", s: "颜色", byteOffset: 4, expect: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, ByteOffsetToUTF16(tt.s, tt.byteOffset))
		})
	}
}

func TestUTF16ToByteOffset(t *testing.T) {
	tests := []struct {
		name     string
		s        string
		utf16Col int
		expect   int
	}{
		{name: "ASCII", s: "hello", utf16Col: 3, expect: 3},
		{name: "emoji", s: "👍 a", utf16Col: 2, expect: 4},
		{name: "inside surrogate pair clamps", s: "👍 a", utf16Col: 1, expect: 0},
		{name: "past end", s: "ab", utf16Col: 10, expect: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, UTF16ToByteOffset(tt.s, tt.utf16Col))
		})
	}
}

func TestStringLengthUTF16(t *testing.T) {
	assert.Equal(t, 0, StringLengthUTF16(""))
	assert.Equal(t, 5, StringLengthUTF16("hello"))
	assert.Equal(t, 2, StringLengthUTF16("👍"))
	assert.Equal(t, 2, StringLengthUTF16("颜色"))
}
