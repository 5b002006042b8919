package parser

import (
	"strings"
	"testing"
)

func TestTextParser_Lines(t *testing.T) {
	input := "First line.\n  Second   line.  \n\n\nI. INTRODUCTION\r\nBody."
	p := &TextParser{}
	doc, err := p.Parse(strings.NewReader(input), "notes.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if doc.Title != "notes" {
		t.Errorf("expected title %q, got %q", "notes", doc.Title)
	}
	if doc.Filename != "notes.txt" {
		t.Errorf("expected filename %q, got %q", "notes.txt", doc.Filename)
	}
	want := []string{"First line.", "Second line.", "I. INTRODUCTION", "Body."}
	if len(doc.Lines) != len(want) {
		t.Fatalf("expected %d lines, got %d: %q", len(want), len(doc.Lines), doc.Lines)
	}
	for i, w := range want {
		if doc.Lines[i] != w {
			t.Errorf("line[%d]: expected %q, got %q", i, w, doc.Lines[i])
		}
	}
}

func TestTextParser_EmptyInput(t *testing.T) {
	p := &TextParser{}
	doc, err := p.Parse(strings.NewReader(""), "empty.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "empty" {
		t.Errorf("expected title %q, got %q", "empty", doc.Title)
	}
	if len(doc.Lines) != 0 {
		t.Errorf("expected 0 lines for empty input, got %d", len(doc.Lines))
	}
}

func TestTextParser_WhitespaceOnlyLines(t *testing.T) {
	p := &TextParser{}
	doc, err := p.Parse(strings.NewReader("Para one.\n   \n\t\nPara two."), "ws.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(doc.Lines))
	}
}
