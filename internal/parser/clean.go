package parser

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

const softHyphen = "\u00ad"

// CleanLine folds compatibility characters (ligatures such as "ﬁ", full-width
// digits) with NFKC, removes soft hyphens and collapses whitespace.
func CleanLine(s string) string {
	s = norm.NFKC.String(s)
	s = strings.ReplaceAll(s, softHyphen, "")
	return strings.Join(strings.Fields(s), " ")
}

// SplitLines breaks extracted text on line and page breaks and returns the
// cleaned, non-empty lines in order.
func SplitLines(text string) []string {
	raw := strings.FieldsFunc(text, func(r rune) bool {
		return r == '\n' || r == '\r' || r == '\f' || r == '\u2028'
	})
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if c := CleanLine(l); c != "" {
			lines = append(lines, c)
		}
	}
	return lines
}
