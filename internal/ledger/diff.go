package ledger

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// DiffSummary returns a line diff from the published summary to the
// rendered one, with "- " and "+ " prefixes on changed lines. It is empty
// when both are equal.
func DiffSummary(published, rendered string) string {
	if published == rendered {
		return ""
	}

	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(published, rendered)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var out strings.Builder
	for _, d := range diffs {
		prefix := "  "
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			out.WriteString(prefix)
			out.WriteString(strings.TrimSuffix(line, "\n"))
			out.WriteString("\n")
		}
	}
	return out.String()
}
