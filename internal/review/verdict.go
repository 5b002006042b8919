package review

import (
	"regexp"
	"strings"
)

// First-pass decisions.
const (
	DecisionReject  = "REJECT"
	DecisionProceed = "PROCEED"
)

// Section review statuses.
const (
	StatusAcceptWithSuggestions = "ACCEPT WITH SUGGESTIONS"
	StatusAccept                = "ACCEPT"
	StatusUnknown               = "UNKNOWN"
)

var (
	decisionLine = regexp.MustCompile(`(?i)DECISION\s*:\s*\**\s*(REJECT|PROCEED)`)
	statusLine   = regexp.MustCompile(`(?i)STATUS\s*:\s*\**\s*\[?\s*(ACCEPT\s+WITH\s+SUGGESTIONS|ACCEPT)`)
	rejectWord   = regexp.MustCompile(`\bREJECT\b`)
)

// ParseDecision reads a first-pass answer. An explicit DECISION line wins;
// otherwise any upper-case REJECT in the text counts as a rejection.
func ParseDecision(text string) string {
	if m := decisionLine.FindStringSubmatch(text); m != nil {
		return strings.ToUpper(m[1])
	}
	if rejectWord.MatchString(text) {
		return DecisionReject
	}
	return DecisionProceed
}

// ParseStatus extracts the STATUS line of a section review.
func ParseStatus(text string) string {
	m := statusLine.FindStringSubmatch(text)
	if m == nil {
		return StatusUnknown
	}
	if strings.Contains(strings.ToUpper(m[1]), "WITH") {
		return StatusAcceptWithSuggestions
	}
	return StatusAccept
}

// ReasonLine returns the text after "REASON:" in a first-pass answer.
func ReasonLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) > 7 && strings.EqualFold(line[:7], "REASON:") {
			return strings.TrimSpace(line[7:])
		}
	}
	return ""
}
