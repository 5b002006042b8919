package parser

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/dgallion1/paperreview/internal/doctree"
	pdflib "github.com/ledongthuc/pdf"
)

// PDFStrategy is one way of turning a PDF file into text.
type PDFStrategy struct {
	Name    string
	Extract func(path string) (string, error)
}

// PDFParser tries each strategy in order until one yields text.
type PDFParser struct {
	Strategies []PDFStrategy
	Logger     *slog.Logger
}

// NewPDFParser returns a parser that reads with ledongthuc/pdf and, when
// fallback is set, retries with the pdftotext binary.
func NewPDFParser(fallback bool, log *slog.Logger) *PDFParser {
	p := &PDFParser{
		Strategies: []PDFStrategy{{Name: "ledongthuc", Extract: extractPDFText}},
		Logger:     log,
	}
	if fallback {
		p.Strategies = append(p.Strategies, PDFStrategy{Name: "pdftotext", Extract: extractPdftotext})
	}
	return p
}

func (p *PDFParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	// ledongthuc/pdf requires a ReadSeeker+size, so we write to a temp file.
	tmp, err := os.CreateTemp("", "paperreview-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	lines, err := p.extract(tmpPath)
	if err != nil {
		return nil, err
	}
	return newDocument(filename, lines), nil
}

func (p *PDFParser) extract(path string) ([]string, error) {
	log := p.Logger
	if log == nil {
		log = slog.Default()
	}
	if len(p.Strategies) == 0 {
		return nil, errors.New("extract pdf text: no strategies configured")
	}

	var errs []error
	for _, s := range p.Strategies {
		text, err := s.Extract(path)
		if err == nil {
			if lines := SplitLines(text); len(lines) > 0 {
				return lines, nil
			}
			err = ErrNoText
		}
		log.Warn("pdf extraction strategy failed", "strategy", s.Name, "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
	}
	return nil, fmt.Errorf("extract pdf text: %w", errors.Join(errs...))
}

func extractPDFText(path string) (text string, err error) {
	// The reader panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf reader panic: %v", r)
		}
	}()

	f, reader, err := pdflib.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var buf strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if i > 1 {
			buf.WriteString("\f") // Form feed as page separator.
		}
		buf.WriteString(pageText)
	}
	return buf.String(), nil
}

func extractPdftotext(path string) (string, error) {
	cmd := exec.Command("pdftotext", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w", err)
	}
	return string(out), nil
}
