package sectioner

import (
	"strings"
	"unicode"

	"github.com/dgallion1/paperreview/internal/doctree"
)

// PreambleTitle names the implicit section open before the first header.
const PreambleTitle = "Preamble/Introduction"

// Config controls header detection.
type Config struct {
	MaxTitleLen int // A title phrase must be shorter than this many runes.
	StopSlack   int // A stop line may exceed its keyword by fewer than this many characters.
}

// DefaultConfig returns the bounds used across the service.
func DefaultConfig() Config {
	return Config{
		MaxTitleLen: 30,
		StopSlack:   10,
	}
}

func (c Config) withDefaults() Config {
	if c.MaxTitleLen <= 0 {
		c.MaxTitleLen = 30
	}
	if c.StopSlack <= 0 {
		c.StopSlack = 10
	}
	return c
}

// stopKeywords end the scan: nothing from the matching line onward is kept.
var stopKeywords = []string{
	"REFERENCES",
	"BIBLIOGRAPHY",
	"APPENDIX",
	"APPENDICES",
	"ACKNOWLEDGEMENT",
	"ACKNOWLEDGMENT",
}

// IsStopBoundary reports whether a line is substantially just a
// references/appendix/acknowledgment heading, ignoring numerals and
// punctuation ("7. REFERENCES", "Acknowledgments:").
func IsStopBoundary(cfg Config, line string) bool {
	cfg = cfg.withDefaults()
	norm := stripForStop(line)
	if norm == "" {
		return false
	}
	for _, kw := range stopKeywords {
		if strings.Contains(norm, kw) && len(norm) < len(kw)+cfg.StopSlack {
			return true
		}
	}
	return false
}

func stripForStop(line string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(line) {
		if unicode.IsDigit(r) || unicode.IsPunct(r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Assemble walks the line stream and returns the document's top-level
// sections in encounter order. Sections whose body is blank are dropped.
// Numbered headers must count up from 1 without gaps; a header that skips
// ahead is kept as body text of the section before it.
func Assemble(lines []string, cfg Config) []doctree.Section {
	return assemble(lines, cfg.withDefaults(), 1)
}

// assemble runs the scan with the section counter seeded at expected.
func assemble(lines []string, cfg Config, expected int) []doctree.Section {
	var sections []doctree.Section
	current := doctree.Section{Title: PreambleTitle, Kind: doctree.KindPreamble}
	var body strings.Builder

	flush := func() {
		current.Content = strings.TrimSpace(body.String())
		if current.Content != "" {
			sections = append(sections, current)
		}
		body.Reset()
	}

	for i := 0; i < len(lines); {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			i++
			continue
		}
		if IsStopBoundary(cfg, line) {
			break
		}

		next, hasNext := "", i+1 < len(lines)
		if hasNext {
			next = lines[i+1]
		}

		cand, ok := Classify(cfg, line, next, hasNext, expected)
		if !ok {
			body.WriteString(line)
			body.WriteByte(' ')
			i++
			continue
		}

		// "7" followed by "References" is a stop line split in two.
		if cand.Kind == SplitLineNumbered && IsStopBoundary(cfg, cand.Phrase) {
			break
		}

		flush()
		current = doctree.Section{Title: cand.Title(), Kind: doctree.KindMapped}
		if cand.Numbered() {
			current.Kind = doctree.KindNumbered
			current.Number = cand.Number
			expected++
		}
		i += cand.Consumed
	}
	flush()

	return sections
}

// Sectionize fills doc.Sections from doc.Lines.
func Sectionize(doc *doctree.Document, cfg Config) {
	doc.Sections = Assemble(doc.Lines, cfg)
}
