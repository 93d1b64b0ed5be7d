package skills

import (
	"bytes"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.Table))

// AnalyzeBody parses a Markdown body and extracts its outline. firstLine is
// the file line number of the first body line so reported lines point into
// the original file.
func AnalyzeBody(body []byte, firstLine int) *Outline {
	doc := markdown.Parser().Parse(text.NewReader(body))
	lines := NewLineIndex(body, firstLine)
	outline := &Outline{}

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Heading:
			outline.Headings = append(outline.Headings, Heading{
				Level: node.Level,
				Text:  strings.TrimSpace(nodeText(node, body, true)),
				Line:  lines.BlockLine(node),
			})
		case *ast.FencedCodeBlock:
			outline.CodeBlocks = append(outline.CodeBlocks, CodeBlock{
				Language: string(node.Language(body)),
				Line:     fenceLine(node, lines),
			})
			return ast.WalkSkipChildren, nil
		case *ast.CodeBlock, *ast.HTMLBlock:
			return ast.WalkSkipChildren, nil
		case *ast.Link:
			outline.Links = append(outline.Links, Link{
				Destination: string(node.Destination),
				Line:        lines.InlineLine(node),
			})
		}

		if isTextContainer(n) {
			if t := strings.TrimSpace(nodeText(n, body, false)); t != "" {
				outline.Prose = append(outline.Prose, TextBlock{Text: t, Line: lines.BlockLine(n)})
			}
		}
		return ast.WalkContinue, nil
	})

	return outline
}

// CountLines returns the number of lines in b. A trailing newline does not
// start a new line.
func CountLines(b []byte) int {
	if len(b) == 0 {
		return 0
	}
	n := bytes.Count(b, []byte("\n"))
	if b[len(b)-1] != '\n' {
		n++
	}
	return n
}

// isTextContainer reports whether n is a block holding inline content
func isTextContainer(n ast.Node) bool {
	if n.Type() != ast.TypeBlock || !n.HasChildren() {
		return false
	}
	return n.FirstChild().Type() == ast.TypeInline
}

// nodeText concatenates the text under n. Inline code is skipped unless
// withCode is set.
func nodeText(n ast.Node, source []byte, withCode bool) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.CodeSpan:
			if !withCode {
				return ast.WalkSkipChildren, nil
			}
		case *ast.Text:
			b.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}

func fenceLine(n *ast.FencedCodeBlock, lines *LineIndex) int {
	if n.Info != nil {
		return lines.Line(n.Info.Segment.Start)
	}
	if n.Lines().Len() > 0 {
		return lines.Line(n.Lines().At(0).Start) - 1
	}
	return 0
}

// InlineText returns the text under n including inline code
func InlineText(n ast.Node, source []byte) string {
	return strings.TrimSpace(nodeText(n, source, true))
}

// LineIndex maps byte offsets of a parsed source to file line numbers
type LineIndex struct {
	starts    []int
	firstLine int
}

// NewLineIndex indexes source whose first byte sits on line firstLine
func NewLineIndex(source []byte, firstLine int) *LineIndex {
	starts := []int{0}
	for i, c := range source {
		if c == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &LineIndex{starts: starts, firstLine: firstLine}
}

// Line converts a byte offset into a file line number
func (l *LineIndex) Line(offset int) int {
	i := sort.Search(len(l.starts), func(i int) bool { return l.starts[i] > offset })
	return i - 1 + l.firstLine
}

// BlockLine returns the line a block node starts on, 0 when unknown
func (l *LineIndex) BlockLine(n ast.Node) int {
	if n.Lines().Len() > 0 {
		return l.Line(n.Lines().At(0).Start)
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			return l.Line(t.Segment.Start)
		}
	}
	return 0
}

// InlineLine finds the line of an inline node from its first text segment,
// falling back to the enclosing block.
func (l *LineIndex) InlineLine(n ast.Node) int {
	var offset = -1
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if t, ok := c.(*ast.Text); ok && entering {
			offset = t.Segment.Start
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	if offset >= 0 {
		return l.Line(offset)
	}
	for p := n.Parent(); p != nil; p = p.Parent() {
		if p.Type() == ast.TypeBlock && p.Lines().Len() > 0 {
			return l.Line(p.Lines().At(0).Start)
		}
	}
	return 0
}
