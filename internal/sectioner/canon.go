package sectioner

import (
	"regexp"
	"strings"
)

// Canonical section names produced by the mapped-title table.
const (
	Abstract       = "ABSTRACT"
	Introduction   = "INTRODUCTION"
	RelatedWork    = "RELATED WORK"
	References     = "REFERENCES"
	Acknowledgment = "ACKNOWLEDGMENT"
	Appendix       = "APPENDIX"
	Declaration    = "DECLARATION"
)

// mappedTitles maps a normalized unnumbered header to its canonical name.
// Lookup is exact; "The Abstract claims..." must not hit ABSTRACT.
var mappedTitles = map[string]string{
	"ABSTRACT":          Abstract,
	"INTRODUCTION":      Introduction,
	"RELATED WORK":      RelatedWork,
	"RELATED WORKS":     RelatedWork,
	"LITERATURE REVIEW": RelatedWork,
	"BACKGROUND":        RelatedWork,
	"REFERENCES":        References,
	"BIBLIOGRAPHY":      References,
	"ACKNOWLEDGMENT":    Acknowledgment,
	"ACKNOWLEDGMENTS":   Acknowledgment,
	"ACKNOWLEDGEMENT":   Acknowledgment,
	"ACKNOWLEDGEMENTS":  Acknowledgment,
	"APPENDIX":          Appendix,
	"APPENDICES":        Appendix,
	"DECLARATION":       Declaration,
}

// NormalizeHeader uppercases a header line, drops trailing colons and
// collapses runs of whitespace.
func NormalizeHeader(line string) string {
	s := strings.ToUpper(strings.TrimSpace(line))
	s = strings.TrimRight(s, ": \t")
	return strings.Join(strings.Fields(s), " ")
}

// LookupMapped returns the canonical name for an unnumbered header line.
func LookupMapped(line string) (string, bool) {
	name, ok := mappedTitles[NormalizeHeader(line)]
	return name, ok
}

// Roman prefixes need the dot so that "CIVIL ENGINEERING" keeps its first word.
var numeralPrefix = regexp.MustCompile(`^(?:\d+\.?|[IVXLCDM]+\.)\s+`)

// StripNumeralPrefix removes a leading "3. " or "IV. " from an uppercased title.
func StripNumeralPrefix(title string) string {
	return strings.TrimSpace(numeralPrefix.ReplaceAllString(title, ""))
}

// CanonicalTitle normalizes a section title for comparison: numeral prefix
// removed, uppercased, and mapped through the header table when it matches.
func CanonicalTitle(title string) string {
	norm := StripNumeralPrefix(NormalizeHeader(title))
	if name, ok := mappedTitles[norm]; ok {
		return name
	}
	return norm
}
