package chunker

import (
	"strings"
	"unicode/utf8"
)

// DefaultMaxTokens is the prompt budget for one section's text.
const DefaultMaxTokens = 4000

// TruncationNote is appended to text cut down by Fit so the reviewer knows
// the section continues.
const TruncationNote = " [...section truncated...]"

// Fit returns text unchanged when it fits in maxTokens. Otherwise it keeps
// whole sentences from the start until the budget is spent, falling back to
// whole words when the first sentence alone is too long. The bool reports
// whether anything was cut.
func Fit(text string, maxTokens int) (string, bool) {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	text = strings.TrimSpace(text)
	if EstimateTokens(text) <= maxTokens {
		return text, false
	}

	var out strings.Builder
	used := 0
	for _, sent := range splitSentences(text) {
		st := EstimateTokens(sent)
		if used+st > maxTokens {
			break
		}
		if out.Len() > 0 {
			out.WriteByte(' ')
		}
		out.WriteString(sent)
		used += st
	}
	if out.Len() == 0 {
		out.WriteString(fitWords(text, maxTokens))
	}
	return out.String() + TruncationNote, true
}

// fitWords keeps leading words within the budget, cutting a single
// oversized word by characters.
func fitWords(text string, maxTokens int) string {
	var out strings.Builder
	for _, w := range strings.Fields(text) {
		next := w
		if out.Len() > 0 {
			next = out.String() + " " + w
		}
		if EstimateTokens(next) > maxTokens {
			break
		}
		out.Reset()
		out.WriteString(next)
	}
	if out.Len() == 0 {
		return truncateRunes(text, maxTokens*CharsPerToken)
	}
	return out.String()
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// splitSentences does basic sentence splitting.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for i, r := range text {
		current.WriteRune(r)
		if (r == '.' || r == '!' || r == '?') && i+1 < len(text) && text[i+1] == ' ' {
			sentences = append(sentences, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}
	if current.Len() > 0 {
		sentences = append(sentences, strings.TrimSpace(current.String()))
	}

	return sentences
}
