package review

import (
	"strings"
	"testing"
)

func TestFirstPassPrompt(t *testing.T) {
	abstract := strings.Repeat("a", MaxAbstractChars+500)
	p := FirstPassPrompt("ICRA 2026", "Widgets", abstract)

	if !strings.Contains(p, `"ICRA 2026"`) || !strings.Contains(p, `"Widgets"`) {
		t.Errorf("expected conference and title in prompt")
	}
	if strings.Contains(p, strings.Repeat("a", MaxAbstractChars+1)) {
		t.Errorf("expected abstract truncated to %d chars", MaxAbstractChars)
	}
	if !strings.Contains(p, strings.Repeat("a", MaxAbstractChars)) {
		t.Errorf("expected %d abstract chars kept", MaxAbstractChars)
	}
	if !strings.Contains(p, "DECISION: REJECT") || !strings.Contains(p, "DECISION: PROCEED") {
		t.Errorf("expected both decision forms in prompt")
	}
}

func TestSectionPrompt(t *testing.T) {
	p := SectionPrompt("Widgets", "4. Results", resultsFocus, "We measured things.")
	for _, want := range []string{`Paper: "Widgets"`, `Section: "4. Results"`, "at most 4", "Are the results useful", "We measured things."} {
		if !strings.Contains(p, want) {
			t.Errorf("expected prompt to contain %q", want)
		}
	}
	if !strings.HasSuffix(p, "We measured things.") {
		t.Errorf("expected section content last")
	}

	plain := SectionPrompt("Widgets", "3. Method", "", "Body.")
	if strings.Contains(plain, "Focus first on") {
		t.Errorf("expected no focus block without focus")
	}
}

func TestSectionFocus(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"4. Results", resultsFocus},
		{"V. RESULTS AND DISCUSSION", resultsFocus},
		{"Experimental Results", resultsFocus},
		{"ABSTRACT", noveltyFocus},
		{"1. Introduction", noveltyFocus},
		{"3. Methodology", ""},
		{"RELATED WORK", ""},
	}
	for _, tc := range tests {
		if got := SectionFocus(tc.title); got != tc.want {
			t.Errorf("SectionFocus(%q): got %q", tc.title, got)
		}
	}
}
