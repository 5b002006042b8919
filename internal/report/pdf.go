package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/dgallion1/paperreview/internal/review"
	"github.com/go-pdf/fpdf"
	"golang.org/x/text/encoding/charmap"
)

const (
	pdfFont     = "Helvetica"
	bodySize    = 10
	lineHeight  = 5.5
	headingSize = 12
)

// RenderPDF renders the report with the core Helvetica font. Core fonts
// only cover Windows-1252, so text goes through Sanitize first.
func RenderPDF(r *Report, opts Options) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(18, 18, 18)
	pdf.SetAutoPageBreak(true, 18)
	pdf.SetTitle(Sanitize(r.Filename), false)
	pdf.SetCreator("paperreview", false)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont(pdfFont, "I", 8)
		pdf.CellFormat(0, 6, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont(pdfFont, "B", 16)
	pdf.CellFormat(0, 10, "Paper Review Report", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	field := func(label, value string) {
		if value == "" {
			return
		}
		pdf.SetFont(pdfFont, "B", bodySize)
		pdf.CellFormat(24, lineHeight, label, "", 0, "L", false, 0, "")
		pdf.SetFont(pdfFont, "", bodySize)
		pdf.MultiCell(0, lineHeight, Sanitize(value), "", "L", false)
	}
	field("File:", r.Filename)
	if r.Title != r.Filename {
		field("Title:", r.Title)
	}
	field("Decision:", r.Decision)
	field("Notes:", r.Notes)
	if !r.GeneratedAt.IsZero() {
		field("Generated:", r.GeneratedAt.UTC().Format("2006-01-02 15:04 UTC"))
	}

	heading := func(title string) {
		pdf.Ln(4)
		pdf.SetFont(pdfFont, "B", headingSize)
		pdf.MultiCell(0, 7, Sanitize(title), "B", "L", false)
		pdf.Ln(1)
		pdf.SetFont(pdfFont, "", bodySize)
	}
	body := func(text string) {
		pdf.SetFont(pdfFont, "", bodySize)
		pdf.MultiCell(0, lineHeight, Sanitize(text), "", "L", false)
	}

	if r.FirstPass != "" {
		heading("Pass 1: Desk Reject Check")
		body(PlainText(r.FirstPass))
	}

	var sb strings.Builder
	heading("Pass 2: Section Analysis")
	switch sections := r.visibleSections(opts); {
	case r.Decision == review.DecisionReject:
		body("Section review skipped due to REJECT decision.")
	case len(sections) == 0:
		body("No sections were detected in this document.")
	default:
		for _, s := range sections {
			pdf.Ln(2)
			pdf.SetFont(pdfFont, "B", bodySize+1)
			pdf.MultiCell(0, 6, Sanitize(s.Title), "", "L", false)
			sb.Reset()
			writeSectionBody(&sb, s)
			body(strings.TrimRight(sb.String(), "\n"))
		}
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// symbolNames spells out characters outside Windows-1252 that reviews
// commonly contain, before the '?' fallback applies.
var symbolNames = strings.NewReplacer(
	"α", "alpha", "β", "beta", "γ", "gamma", "δ", "delta", "ε", "epsilon",
	"θ", "theta", "λ", "lambda", "μ", "mu", "π", "pi", "ρ", "rho",
	"σ", "sigma", "τ", "tau", "φ", "phi", "ω", "omega",
	"Δ", "Delta", "Σ", "Sigma", "Ω", "Omega",
	"∑", "sum", "∏", "prod", "√", "sqrt", "∞", "inf",
	"≤", "<=", "≥", ">=", "≠", "!=", "≈", "~", "→", "->", "←", "<-",
	"∈", " in ", "∂", "d", "∇", "nabla",
)

// Sanitize converts text to the Windows-1252 bytes fpdf's core fonts
// expect. Known symbols are spelled out; anything else unencodable becomes '?'.
func Sanitize(s string) string {
	s = symbolNames.Replace(s)
	enc := charmap.Windows1252
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if r == '\n' || r == '\t' {
			out = append(out, byte(r))
			continue
		}
		b, ok := enc.EncodeRune(r)
		if !ok {
			b = '?'
		}
		out = append(out, b)
	}
	return string(out)
}
