package doctree

import "strings"

// Document is a paper reduced to its linearized text.
type Document struct {
	Title    string    // Document title (from upload form or filename)
	Filename string    // Original upload name
	Lines    []string  // Trimmed, non-empty lines in reading order
	Sections []Section // Filled by the sectioner
}

// SectionKind records how a section's header was recognized.
type SectionKind string

const (
	KindPreamble SectionKind = "preamble"
	KindNumbered SectionKind = "numbered"
	KindMapped   SectionKind = "mapped"
	KindFallback SectionKind = "fallback"
)

// Section is a contiguous span of body text with the header that opened it.
type Section struct {
	Title   string      `json:"title"`
	Content string      `json:"content"`
	Kind    SectionKind `json:"kind"`
	Number  int         `json:"number,omitempty"` // Resolved numeral for numbered sections
}

// Text joins all lines with a single space.
func (d *Document) Text() string {
	return strings.Join(d.Lines, " ")
}
