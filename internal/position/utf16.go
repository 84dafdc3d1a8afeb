package position

import (
	"unicode/utf16"
	"unicode/utf8"
)

// ByteOffsetToUTF16 converts a byte offset in s to a UTF-16 code unit offset.
// Source map columns are counted in UTF-16 code units, while Go strings are
// UTF-8 byte sequences. Characters above U+FFFF count as two units.
func ByteOffsetToUTF16(s string, byteOffset int) int {
	if byteOffset <= 0 {
		return 0
	}
	if byteOffset > len(s) {
		byteOffset = len(s)
	}

	units := 0
	offset := 0
	for offset < byteOffset {
		r, size := utf8.DecodeRuneInString(s[offset:])
		if r == utf8.RuneError && size == 0 {
			break
		}
		// Stop if this rune would cross the target offset
		if offset+size > byteOffset {
			break
		}
		if r == utf8.RuneError && size == 1 {
			units++
		} else {
			units += utf16.RuneLen(r)
		}
		offset += size
	}
	return units
}

// UTF16ToByteOffset converts a UTF-16 code unit offset in s to a byte offset.
// An offset that falls inside a surrogate pair is clamped to the start of the rune.
func UTF16ToByteOffset(s string, utf16Col int) int {
	if utf16Col <= 0 {
		return 0
	}

	units := 0
	offset := 0
	for offset < len(s) && units < utf16Col {
		r, size := utf8.DecodeRuneInString(s[offset:])
		if r == utf8.RuneError && size == 1 {
			offset++
			units++
			continue
		}
		n := utf16.RuneLen(r)
		if n == 2 && units+1 == utf16Col {
			break
		}
		units += n
		offset += size
	}
	return offset
}

// StringLengthUTF16 returns the length of s in UTF-16 code units.
func StringLengthUTF16(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}
