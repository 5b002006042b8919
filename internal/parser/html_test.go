package parser

import (
	"strings"
	"testing"
)

func TestHTMLParser_Lines(t *testing.T) {
	input := `<html><head><title>Widgets Paper</title><style>p{}</style></head>
<body>
<nav>Home</nav>
<h1>Abstract</h1>
<p>We study   widgets.</p>
<h2>1. Introduction</h2>
<p>First line.<br>Second line.</p>
<script>var x = 1;</script>
<ul><li>Point one</li></ul>
</body></html>`

	p := &HTMLParser{}
	doc, err := p.Parse(strings.NewReader(input), "paper.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "Widgets Paper" {
		t.Errorf("expected title from <title>, got %q", doc.Title)
	}
	want := []string{"Abstract", "We study widgets.", "1. Introduction", "First line.", "Second line.", "Point one"}
	if len(doc.Lines) != len(want) {
		t.Fatalf("expected %q, got %q", want, doc.Lines)
	}
	for i, w := range want {
		if doc.Lines[i] != w {
			t.Errorf("line[%d]: expected %q, got %q", i, w, doc.Lines[i])
		}
	}
}

func TestHTMLParser_NoTitleUsesFilename(t *testing.T) {
	p := &HTMLParser{}
	doc, err := p.Parse(strings.NewReader("<p>hi</p>"), "page.htm")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "page" {
		t.Errorf("expected %q, got %q", "page", doc.Title)
	}
}
