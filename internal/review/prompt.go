package review

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/paperreview/internal/sectioner"
)

// MaxAbstractChars caps the text sent to the first-pass check.
const MaxAbstractChars = 4000

const firstPassTemplate = `You are a reviewer assistant for the conference %q.
Paper: %q
Abstract: %q

Task: decide strictly whether the paper is RELEVANT to the conference topic.

Guidelines:
1. Keep a neutral, objective tone.
2. Do not rewrite or correct the abstract.
3. Do not use markdown (no **bold**, no *italics*).

Reject only when the topic is clearly outside the scope of %s.
Ignore novelty and structure for this check.

Answer in exactly one of these forms:

DECISION: REJECT
REASON: The paper is not relevant to the conference theme.

DECISION: PROCEED
REASON: Topic is relevant to the conference.`

// FirstPassPrompt builds the desk-reject relevance check. The abstract is
// cut to MaxAbstractChars.
func FirstPassPrompt(conference, title, abstract string) string {
	return fmt.Sprintf(firstPassTemplate, conference, title, truncateRunes(abstract, MaxAbstractChars), conference)
}

const sectionTemplate = `You are a strictly neutral reviewer assistant.
Paper: %q
Section: %q

Task: identify critical issues that a human expert must verify by hand.%s

Rules:
1. Do not rewrite, fix or modify the data or text. Only review it.
2. Be objective. Do not praise. Only raise verification points.
3. Write mathematical and Greek symbols as symbols (α, β, ∑, σ) and list the ones the section uses.
4. Do not use markdown: no **bold**, no headers.
5. Raise at most 4 critical points.
6. Keep each point short and direct.

Figures and tables:
1. You cannot see images.
2. If the text describing a figure or table is ambiguous, contradictory or missing context, raise a clarification point.

Output format:
STATUS: [ACCEPT / ACCEPT WITH SUGGESTIONS]

FLAGGED ISSUES (max 4):
- [Point 1]
- [Point 2]
- [Point 3]
- [Point 4]
(Leave empty if ACCEPT)

Section content:
%s`

// SectionPrompt builds the per-section review prompt. content should
// already be fitted to the prompt budget.
func SectionPrompt(paperTitle, sectionTitle, focus, content string) string {
	if focus != "" {
		focus = "\n\n" + focus
	}
	return fmt.Sprintf(sectionTemplate, paperTitle, sectionTitle, focus, content)
}

const resultsFocus = `This is a results section. Focus first on:
- Are the results useful and significant?
- Do they clearly show that the proposed method works?
- Are comparisons with baselines fair and convincing?`

const noveltyFocus = `This is the abstract or introduction. Focus first on:
- Is the problem clearly defined and relevant to the conference?
- Is the proposed solution novel compared to existing work?`

// SectionFocus returns extra instructions for result and
// abstract/introduction sections, or "" for everything else.
func SectionFocus(title string) string {
	canon := sectioner.CanonicalTitle(title)
	switch {
	case strings.Contains(canon, "RESULT"):
		return resultsFocus
	case strings.Contains(canon, "ABSTRACT"), strings.Contains(canon, "INTRODUCTION"):
		return noveltyFocus
	}
	return ""
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
