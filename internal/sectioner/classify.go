package sectioner

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MatchKind names the strategy that recognized a header.
type MatchKind int

const (
	SingleLineNumbered MatchKind = iota + 1
	SplitLineNumbered
	MappedTitle
)

func (k MatchKind) String() string {
	switch k {
	case SingleLineNumbered:
		return "single_line_numbered"
	case SplitLineNumbered:
		return "split_line_numbered"
	case MappedTitle:
		return "mapped_title"
	}
	return "unknown"
}

// Candidate is a line (or line pair) accepted as a top-level header.
type Candidate struct {
	Kind     MatchKind
	Numeral  string // Raw numeral token as written; empty for mapped titles
	Number   int    // Resolved numeral value; 0 for mapped titles
	Phrase   string // Title phrase, or the canonical name for mapped titles
	Consumed int    // Lines used by the header: 1, or 2 for split-line headers
}

// Numbered reports whether the candidate carries a section number.
func (c Candidate) Numbered() bool {
	return c.Kind == SingleLineNumbered || c.Kind == SplitLineNumbered
}

// Title renders the section title the candidate opens.
func (c Candidate) Title() string {
	if c.Numbered() {
		return c.Numeral + ". " + c.Phrase
	}
	return c.Phrase
}

// The numeral token never contains an inner dot, so "1.1 Overview" cannot
// split into "1" and ".1 Overview".
var (
	singleLineHeader = regexp.MustCompile(`^(\d+|[IVXLCDM]+)\.?\s+(\p{Lu}.*)$`)
	bareNumeral      = regexp.MustCompile(`^(\d+|[IVXLCDM]+)\.?$`)
)

var captionKeywords = map[string]bool{
	"FIGURE":    true,
	"FIGURES":   true,
	"FIG":       true,
	"TABLE":     true,
	"TABLES":    true,
	"TAB":       true,
	"EQUATION":  true,
	"EQUATIONS": true,
	"EQ":        true,
	"EQN":       true,
	"CHART":     true,
	"CHARTS":    true,
	"DIAGRAM":   true,
	"DIAGRAMS":  true,
}

type matcher struct {
	kind  MatchKind
	match func(cfg Config, cur, next string, hasNext bool, expected int) (Candidate, bool)
}

// matchers run in priority order; the first hit wins.
var matchers = []matcher{
	{SingleLineNumbered, matchSingleLine},
	{SplitLineNumbered, matchSplitLine},
	{MappedTitle, matchMapped},
}

// Classify decides whether cur (with next as lookahead) opens a new
// top-level section. expected is the section number the document must show
// next; Classify never changes it, the caller advances it after accepting a
// numbered candidate.
func Classify(cfg Config, cur, next string, hasNext bool, expected int) (Candidate, bool) {
	cfg = cfg.withDefaults()
	for _, m := range matchers {
		if c, ok := m.match(cfg, cur, next, hasNext, expected); ok {
			c.Kind = m.kind
			return c, true
		}
	}
	return Candidate{}, false
}

func matchSingleLine(cfg Config, cur, _ string, _ bool, expected int) (Candidate, bool) {
	m := singleLineHeader.FindStringSubmatch(strings.TrimSpace(cur))
	if m == nil {
		return Candidate{}, false
	}
	phrase := strings.TrimSpace(m[2])
	n, ok := acceptNumbered(cfg, m[1], phrase, expected)
	if !ok {
		return Candidate{}, false
	}
	return Candidate{
		Numeral:  m[1],
		Number:   n,
		Phrase:   phrase,
		Consumed: 1,
	}, true
}

func matchSplitLine(cfg Config, cur, next string, hasNext bool, expected int) (Candidate, bool) {
	if !hasNext {
		return Candidate{}, false
	}
	m := bareNumeral.FindStringSubmatch(strings.TrimSpace(cur))
	if m == nil {
		return Candidate{}, false
	}
	phrase := strings.TrimSpace(next)
	if phrase == "" || !startsUpper(phrase) {
		return Candidate{}, false
	}
	n, ok := acceptNumbered(cfg, m[1], phrase, expected)
	if !ok {
		return Candidate{}, false
	}
	return Candidate{
		Numeral:  m[1],
		Number:   n,
		Phrase:   phrase,
		Consumed: 2,
	}, true
}

func matchMapped(_ Config, cur, _ string, _ bool, _ int) (Candidate, bool) {
	name, ok := LookupMapped(cur)
	if !ok {
		return Candidate{}, false
	}
	return Candidate{Phrase: name, Consumed: 1}, true
}

// acceptNumbered applies the checks shared by both numbered strategies:
// phrase length bound, caption exclusion, and strict sequence equality.
func acceptNumbered(cfg Config, numeral, phrase string, expected int) (int, bool) {
	if utf8.RuneCountInString(phrase) >= cfg.MaxTitleLen {
		return 0, false
	}
	if IsCaption(phrase) {
		return 0, false
	}
	n, ok := ResolveNumeral(numeral)
	if !ok || n != expected {
		return 0, false
	}
	return n, true
}

// IsCaption reports whether a phrase starts with a figure/table/equation label.
func IsCaption(phrase string) bool {
	fields := strings.Fields(phrase)
	if len(fields) == 0 {
		return false
	}
	word := strings.TrimRightFunc(strings.ToUpper(fields[0]), func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsDigit(r)
	})
	return captionKeywords[word]
}

func startsUpper(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(r)
}
