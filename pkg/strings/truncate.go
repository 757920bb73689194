// Package strings holds text helpers shared by the output formatters.
package strings

import (
	"strings"
)

// DefaultTitleMaxLen is the width issue titles are cut to in tables.
const DefaultTitleMaxLen = 50

// Truncate collapses all whitespace runs (newlines included) into single
// spaces and cuts the result to at most maxLen runes, ending in "…" when
// cut. maxLen below 2 is treated as 2.
func Truncate(s string, maxLen int) string {
	maxLen = max(maxLen, 2)

	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return strings.TrimRight(string(runes[:maxLen-1]), " ") + "…"
}
