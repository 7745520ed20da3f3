package cryptoutils

import (
	"strings"
	"unicode"
)

// DefaultArmorWidth is the column width signed envelopes are wrapped at.
const DefaultArmorWidth = 76

// Armor wraps text into lines of at most width characters for display and
// transport. A non-positive width leaves the text on one line.
func Armor(text string, width int) string {
	if width <= 0 || len(text) <= width {
		return text
	}
	var sb strings.Builder
	sb.Grow(len(text) + len(text)/width)
	for start := 0; start < len(text); start += width {
		if start > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(text[start:min(start+width, len(text))])
	}
	return sb.String()
}

// Dearmor removes all whitespace so wrapped text can be parsed. No symbol of
// the envelope alphabet is whitespace.
func Dearmor(text string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, text)
}
