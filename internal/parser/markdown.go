package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/paperreview/internal/doctree"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown files using goldmark. Headings become
// their own lines with the "#" markers removed, so "## 2. Method" reaches
// the sectioner as "2. Method".
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	var lines []string
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			if l := CleanLine(string(node.Text(src))); l != "" {
				lines = append(lines, l)
			}
		case *ast.ThematicBreak:
		case *ast.List:
			lines = append(lines, listLines(node, src)...)
		default:
			lines = append(lines, SplitLines(extractText(n, src))...)
		}
	}

	return newDocument(filename, lines), nil
}

// extractText gets the text content of a goldmark AST node, one source
// line per output line.
func extractText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.Type() == ast.TypeBlock && n.FirstChild() == nil {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(src))
		}
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
			continue
		}
		buf.WriteString(extractText(c, src))
		if c.Type() == ast.TypeBlock {
			buf.WriteByte('\n')
		}
	}
	return strings.TrimSpace(buf.String())
}

// listLines keeps the numbers of ordered list items: goldmark reads a bare
// "1. Introduction" line as a list, and the number is what the sectioner needs.
func listLines(list *ast.List, src []byte) []string {
	var lines []string
	i := 0
	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		itemLines := SplitLines(extractText(item, src))
		if list.IsOrdered() && len(itemLines) > 0 {
			itemLines[0] = fmt.Sprintf("%d. %s", list.Start+i, itemLines[0])
		}
		lines = append(lines, itemLines...)
		i++
	}
	return lines
}
