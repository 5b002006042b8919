package report

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// PlainText flattens the markdown models tend to emit despite being asked
// not to: emphasis markers and heading hashes are dropped, list items keep
// a "- " bullet, block boundaries become line breaks.
func PlainText(md string) string {
	src := []byte(md)
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	var lines []string
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		lines = append(lines, blockLines(n, src, "")...)
	}
	return strings.Join(lines, "\n")
}

func blockLines(n ast.Node, src []byte, indent string) []string {
	switch node := n.(type) {
	case *ast.List:
		var out []string
		for item := node.FirstChild(); item != nil; item = item.NextSibling() {
			first := true
			for c := item.FirstChild(); c != nil; c = c.NextSibling() {
				for _, l := range blockLines(c, src, indent+"  ") {
					if first {
						l = indent + "- " + strings.TrimLeft(l, " ")
						first = false
					}
					out = append(out, l)
				}
			}
		}
		return out
	case *ast.ThematicBreak:
		return nil
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		return rawLines(n, src, indent)
	}

	if n.FirstChild() == nil {
		return rawLines(n, src, indent)
	}
	if n.FirstChild().Type() == ast.TypeBlock {
		var out []string
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			out = append(out, blockLines(c, src, indent)...)
		}
		return out
	}

	var buf bytes.Buffer
	inlineText(n, src, &buf)
	var out []string
	for _, l := range strings.Split(buf.String(), "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, indent+l)
		}
	}
	return out
}

func inlineText(n ast.Node, src []byte, buf *bytes.Buffer) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte('\n')
			}
		case *ast.String:
			buf.Write(t.Value)
		default:
			inlineText(c, src, buf)
		}
	}
}

func rawLines(n ast.Node, src []byte, indent string) []string {
	var out []string
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		if l := strings.TrimRight(string(seg.Value(src)), "\r\n"); strings.TrimSpace(l) != "" {
			out = append(out, indent+l)
		}
	}
	return out
}
