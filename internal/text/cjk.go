package text

import (
	"strings"
	"unicode"
)

var cjkTables = []*unicode.RangeTable{unicode.Han, unicode.Hiragana, unicode.Katakana, unicode.Hangul}

// IsCJK reports whether r is a Han, Hiragana, Katakana or Hangul character.
func IsCJK(r rune) bool {
	return unicode.In(r, cjkTables...)
}

// SplitWords pre-segments s for word-level tokenization: every CJK character
// becomes its own word regardless of surrounding whitespace, and the rest is
// split on whitespace.
func SplitWords(s string) []string {
	var sb strings.Builder
	sb.Grow(len(s) + 16)

	for _, r := range s {
		if IsCJK(r) {
			sb.WriteByte(' ')
			sb.WriteRune(r)
			sb.WriteByte(' ')
			continue
		}

		sb.WriteRune(r)
	}

	return strings.Fields(sb.String())
}

// CollapseCJKSpaces removes whitespace runs that touch a CJK character on
// either side, undoing the spacing SplitWords introduced. Whitespace between
// two non-CJK characters is kept.
func CollapseCJKSpaces(s string) string {
	runes := []rune(s)
	out := make([]rune, 0, len(runes))

	for i := 0; i < len(runes); {
		if !unicode.IsSpace(runes[i]) {
			out = append(out, runes[i])
			i++
			continue
		}

		j := i
		for j < len(runes) && unicode.IsSpace(runes[j]) {
			j++
		}

		prevCJK := i > 0 && IsCJK(runes[i-1])
		nextCJK := j < len(runes) && IsCJK(runes[j])
		if !prevCJK && !nextCJK {
			out = append(out, runes[i:j]...)
		}

		i = j
	}

	return string(out)
}
