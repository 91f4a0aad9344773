package layout

import (
	"strings"
	"unicode/utf8"
)

// Wrap greedily packs the words of line into sub-lines of at most width
// runes. A word longer than width is never split and gets a line of its own.
func Wrap(line string, width int) []string {
	if width < 1 {
		width = 1
	}

	var (
		wrapped []string
		current strings.Builder
		n       int
	)
	for _, word := range strings.Fields(line) {
		wn := utf8.RuneCountInString(word)
		if n > 0 && n+1+wn > width {
			wrapped = append(wrapped, current.String())
			current.Reset()
			n = 0
		}
		if n > 0 {
			current.WriteByte(' ')
			n++
		}
		current.WriteString(word)
		n += wn
	}
	if n > 0 {
		wrapped = append(wrapped, current.String())
	}
	return wrapped
}
