package chunker

import "strings"

// CharsPerToken bounds text with few spaces (tables, URLs, run-together
// OCR output) that the word heuristic would undercount.
const CharsPerToken = 4

// EstimateTokens gives a rough token count: about 1.33 tokens per English
// word, or one token per CharsPerToken characters when that is larger.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	words := len(strings.Fields(text))
	tokens := int(float64(words) * 1.33)
	if byChars := len(text) / CharsPerToken; byChars > tokens {
		tokens = byChars
	}
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}
