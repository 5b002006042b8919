package parser

import (
	"strings"
	"testing"
)

func TestMarkdownParser_HeadingsBecomeLines(t *testing.T) {
	input := `# Widgets at Scale

Jane Doe

## Abstract

We study widgets.

## 1. Introduction

Widgets are *everywhere* today
and matter.

## 2. Method

Code follows.

` + "```\nwidget --fast\n```\n"

	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(input), "paper.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{
		"Widgets at Scale",
		"Jane Doe",
		"Abstract",
		"We study widgets.",
		"1. Introduction",
		"Widgets are everywhere today",
		"and matter.",
		"2. Method",
		"Code follows.",
		"widget --fast",
	}
	if len(doc.Lines) != len(want) {
		t.Fatalf("expected %d lines, got %d: %q", len(want), len(doc.Lines), doc.Lines)
	}
	for i, w := range want {
		if doc.Lines[i] != w {
			t.Errorf("line[%d]: expected %q, got %q", i, w, doc.Lines[i])
		}
	}
}

func TestMarkdownParser_OrderedListKeepsNumbers(t *testing.T) {
	input := "1. Introduction\n\nText here.\n\n3. Results\n"
	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(input), "list.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"1. Introduction", "Text here.", "3. Results"}
	if len(doc.Lines) != len(want) {
		t.Fatalf("expected %q, got %q", want, doc.Lines)
	}
	for i, w := range want {
		if doc.Lines[i] != w {
			t.Errorf("line[%d]: expected %q, got %q", i, w, doc.Lines[i])
		}
	}
}

func TestMarkdownParser_EmptyInput(t *testing.T) {
	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(""), "empty.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Lines) != 0 {
		t.Errorf("expected 0 lines for empty input, got %d", len(doc.Lines))
	}
}

func TestMarkdownParser_TitleStripping(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"readme.md", "readme"},
		{"notes.markdown", "notes"},
		{"paper.v2.md", "paper.v2"},
	}
	p := &MarkdownParser{}
	for _, tt := range tests {
		doc, err := p.Parse(strings.NewReader("text"), tt.filename)
		if err != nil {
			t.Fatalf("unexpected error for %s: %v", tt.filename, err)
		}
		if doc.Title != tt.want {
			t.Errorf("filename=%q: expected title %q, got %q", tt.filename, tt.want, doc.Title)
		}
	}
}
