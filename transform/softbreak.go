package transform

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// SoftBreakWidth is the longest run of characters left unbroken.
const SoftBreakWidth = 40

// zeroWidthSpace is inserted between chunks of an over-long word.
const zeroWidthSpace = "​"

// SoftBreak inserts zero-width spaces into whitespace-delimited tokens
// longer than SoftBreakWidth characters, splitting them into chunks of
// exactly SoftBreakWidth characters (the last chunk may be shorter). Runs of
// at most SoftBreakWidth characters are returned unchanged, and whitespace
// is preserved.
func SoftBreak(s string) string {
	if utf8.RuneCountInString(s) <= SoftBreakWidth {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 8)
	var tok []rune
	flush := func() {
		writeChunked(&b, tok)
		tok = tok[:0]
	}
	for _, r := range s {
		if unicode.IsSpace(r) {
			flush()
			b.WriteRune(r)
			continue
		}
		tok = append(tok, r)
	}
	flush()
	return b.String()
}

func writeChunked(b *strings.Builder, tok []rune) {
	if len(tok) <= SoftBreakWidth {
		b.WriteString(string(tok))
		return
	}
	for i := 0; i < len(tok); i += SoftBreakWidth {
		if i > 0 {
			b.WriteString(zeroWidthSpace)
		}
		end := min(i+SoftBreakWidth, len(tok))
		b.WriteString(string(tok[i:end]))
	}
}
