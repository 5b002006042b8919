package parser

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/dgallion1/paperreview/internal/doctree"
)

// ErrNoText is returned when a document opens cleanly but yields no text,
// typically a scanned PDF without a text layer.
var ErrNoText = errors.New("document contains no extractable text")

// Parser converts raw document bytes into an ordered line stream.
type Parser interface {
	Parse(r io.Reader, filename string) (*doctree.Document, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".pdf":      true,
	".docx":     true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".txt":      true,
}

// Options tune the parsers returned by ForFile.
type Options struct {
	PDFFallback bool         // Try pdftotext when the Go PDF reader fails
	Logger      *slog.Logger // Receives per-strategy extraction failures
}

// DefaultOptions enables every extraction strategy.
func DefaultOptions() Options {
	return Options{PDFFallback: true, Logger: slog.Default()}
}

// ForFile returns the appropriate parser for a filename using DefaultOptions.
func ForFile(filename string) (Parser, error) {
	return DefaultOptions().ForFile(filename)
}

// ForFile returns the appropriate parser for a filename.
func (o Options) ForFile(filename string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return NewPDFParser(o.PDFFallback, o.Logger), nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// newDocument builds a Document titled after the filename without its extension.
func newDocument(filename string, lines []string) *doctree.Document {
	return &doctree.Document{
		Title:    strings.TrimSuffix(filename, filepath.Ext(filename)),
		Filename: filename,
		Lines:    lines,
	}
}
