package sectioner

import "strings"

// IsEligibleForReview reports whether a section deserves an LLM review.
// Administrative sections (abstract, preamble, references, acknowledgment,
// appendix, declaration) are skipped.
func IsEligibleForReview(title string) bool {
	raw := strings.TrimSpace(strings.ToUpper(title))
	norm := StripNumeralPrefix(raw)
	return !skipTitles[norm] && !skipTitles[raw]
}

var skipTitles = map[string]bool{
	"ABSTRACT":              true,
	"PREAMBLE":              true,
	"PREAMBLE/INTRODUCTION": true,
	"REFERENCES":            true,
	"BIBLIOGRAPHY":          true,
	"ACKNOWLEDGMENT":        true,
	"APPENDIX":              true,
	"DECLARATION":           true,
}
