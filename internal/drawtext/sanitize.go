package drawtext

import "strings"

// Escaped forms as they appear inside a single-quoted drawtext option.
// The option parser strips one level of backslashes, then drawtext's own
// text expansion strips the second level from `\\` and `\%`.
const (
	escBackslash = `\\\\`
	escPercent   = `\\\%`
	escColon     = `\:`
)

// Sanitize makes text safe to embed in a quoted drawtext text value.
//
// Backslash and percent are escaped for both the option parser and drawtext
// expansion, colon is escaped for the option parser, quote characters are
// stripped and each run of line breaks becomes one space. Input that
// already holds one of the escaped forms keeps it, so
// Sanitize(Sanitize(s)) == Sanitize(s).
func Sanitize(text string) string {
	runes := []rune(text)

	var b strings.Builder
	b.Grow(len(text))

	inBreak := false
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if isQuote(r) {
			continue
		}
		if r == '\n' || r == '\r' {
			if !inBreak {
				b.WriteByte(' ')
			}
			inBreak = true
			continue
		}
		inBreak = false

		switch r {
		case '\\':
			if esc, ok := escapeAt(runes[i:]); ok {
				b.WriteString(esc)
				i += len(esc) - 1
			} else {
				b.WriteString(escBackslash)
			}
		case '%':
			b.WriteString(escPercent)
		case ':':
			b.WriteString(escColon)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// escapeAt reports the escaped form runes starts with, if any.
func escapeAt(runes []rune) (string, bool) {
	for _, esc := range []string{escBackslash, escPercent, escColon} {
		if len(runes) >= len(esc) && string(runes[:len(esc)]) == esc {
			return esc, true
		}
	}
	return "", false
}

func isQuote(r rune) bool {
	switch r {
	case '\'', '"', '‘', '’', '“', '”':
		return true
	}
	return false
}
