package report

import (
	"fmt"
	"strings"

	"github.com/dgallion1/paperreview/internal/review"
)

// RenderText renders the report as plain text. Sections appear in document
// order; the output is also the fallback when PDF rendering fails.
func RenderText(r *Report, opts Options) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "File: %s\n", r.Filename)
	if r.Title != "" && r.Title != r.Filename {
		fmt.Fprintf(&sb, "Title: %s\n", r.Title)
	}
	fmt.Fprintf(&sb, "Decision: %s\n", r.Decision)
	if r.Notes != "" {
		fmt.Fprintf(&sb, "Notes: %s\n", r.Notes)
	}

	if r.FirstPass != "" {
		sb.WriteString("\nPass 1: Desk Reject Check\n")
		sb.WriteString(PlainText(r.FirstPass))
		sb.WriteString("\n")
	}

	if r.Decision == review.DecisionReject {
		sb.WriteString("\nSection review skipped due to REJECT decision.\n")
		return sb.String()
	}

	sections := r.visibleSections(opts)
	sb.WriteString("\nPass 2: Section Analysis\n")
	if len(sections) == 0 {
		sb.WriteString("No sections were detected in this document.\n")
		return sb.String()
	}
	for _, s := range sections {
		fmt.Fprintf(&sb, "\n--- SECTION: %s ---\n", s.Title)
		writeSectionBody(&sb, s)
	}
	return sb.String()
}

func writeSectionBody(sb *strings.Builder, s SectionReport) {
	switch {
	case !s.Eligible:
		sb.WriteString(NotReviewed + "\n")
	case s.Error != "":
		fmt.Fprintf(sb, "Review failed: %s\n", s.Error)
	default:
		if s.Status != "" {
			fmt.Fprintf(sb, "Status: %s\n", s.Status)
		}
		sb.WriteString(PlainText(s.Review))
		sb.WriteString("\n")
	}
	for _, w := range s.Warnings {
		fmt.Fprintf(sb, "Warning: %s\n", w)
	}
}
