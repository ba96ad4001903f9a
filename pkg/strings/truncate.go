// Package strings holds the truncation helpers used for table cells, backend
// error bodies and the shell prompt.
package strings

import (
	"strings"
)

// CellMaxLen is the default width of a free-form table cell.
const CellMaxLen = 40

// minTruncateLen leaves room for one character plus the ellipsis.
const minTruncateLen = 4

const ellipsis = "..."

// Truncate collapses s to a single line and cuts it to maxLen runes,
// ending with "..." when cut. maxLen below 4 is treated as 4.
func Truncate(s string, maxLen int) string {
	if maxLen < minTruncateLen {
		maxLen = minTruncateLen
	}

	s = strings.Join(strings.Fields(s), " ")

	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen-len(ellipsis)]) + ellipsis
	}
	return s
}

// TruncateMiddle cuts s to maxLen runes by dropping the middle, keeping
// three fifths of the room for the start. Names and URLs stay recognizable
// that way.
func TruncateMiddle(s string, maxLen int) string {
	if maxLen < minTruncateLen {
		maxLen = minTruncateLen
	}

	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	available := maxLen - len(ellipsis)
	startLen := (available * 3) / 5
	endLen := available - startLen
	return string(runes[:startLen]) + ellipsis + string(runes[len(runes)-endLen:])
}
