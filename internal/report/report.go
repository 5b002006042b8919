// Package report turns reviewed documents into text and PDF reports, batch
// CSV summaries and ZIP archives.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/dgallion1/paperreview/internal/doctree"
)

// Decision values beyond the first-pass verdicts.
const (
	DecisionRaw   = "N/A (Raw View)"
	DecisionError = "ERROR"
)

// NotReviewed is the status of a section the review filter skipped.
const NotReviewed = "Not reviewed"

// Report is everything rendered for one document.
type Report struct {
	Filename    string          `json:"filename"`
	Title       string          `json:"title"`
	Decision    string          `json:"decision"`
	FirstPass   string          `json:"first_pass,omitempty"` // Raw first-pass answer
	Notes       string          `json:"notes"`
	Sections    []SectionReport `json:"sections"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// SectionReport is one section's entry, in document order.
type SectionReport struct {
	Title    string   `json:"title"`
	Eligible bool     `json:"eligible"`
	Status   string   `json:"status"`
	Review   string   `json:"review,omitempty"`
	Error    string   `json:"error,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// Options control what the renderers include.
type Options struct {
	OmitSkipped bool // Leave out sections that were not reviewed
}

// Summary returns the batch CSV row for this report.
func (r *Report) Summary() SummaryRow {
	return SummaryRow{Filename: r.Filename, Decision: r.Decision, Notes: r.Notes}
}

// visibleSections applies Options to r.Sections.
func (r *Report) visibleSections(opts Options) []SectionReport {
	if !opts.OmitSkipped {
		return r.Sections
	}
	out := make([]SectionReport, 0, len(r.Sections))
	for _, s := range r.Sections {
		if s.Eligible {
			out = append(out, s)
		}
	}
	return out
}

// RawText renders sectioner output without any review, for checking how a
// paper was split.
func RawText(doc *doctree.Document) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "File: %s\n", doc.Filename)
	fmt.Fprintf(&sb, "Sections: %d\n", len(doc.Sections))
	for _, s := range doc.Sections {
		fmt.Fprintf(&sb, "\n--- SECTION: %s ---\n%s\n", s.Title, s.Content)
	}
	return sb.String()
}
