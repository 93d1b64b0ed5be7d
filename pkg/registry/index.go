// Package registry loads the two catalogues that enumerate the skill set,
// the Markdown index and the plugin manifest, and cross-references them
// against the skill directories found on disk.
package registry

import (
	"os"
	"regexp"
	"strings"

	"github.com/geoskills/skillcheck/pkg/skills"
	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

var indexMarkdown = goldmark.New(goldmark.WithExtensions(meta.Meta, extension.Table))

// skillColumns are the header names that mark the identifier column of a table
var skillColumns = map[string]bool{
	"skill":   true,
	"skills":  true,
	"name":    true,
	"library": true,
}

var skillPathPattern = regexp.MustCompile(`(?:^|/)skills/([^/#?]+)`)

// Entry is one skill row of the index
type Entry struct {
	Identifier string
	Category   string
	Line       int
}

// Index is the human-facing catalogue of skills
type Index struct {
	Path    string
	Title   string
	Entries []Entry
}

// LoadIndex reads and parses the index document at path
func LoadIndex(path string) (*Index, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read skill index %s", path)
	}
	idx, err := ParseIndex(content)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse skill index %s", path)
	}
	idx.Path = path
	return idx, nil
}

// ParseIndex extracts skill rows from every table in a Markdown document.
// Each row is attributed to the category named by the closest heading above
// its table.
func ParseIndex(source []byte) (*Index, error) {
	pctx := parser.NewContext()
	doc := indexMarkdown.Parser().Parse(text.NewReader(source), parser.WithContext(pctx))

	metadata, err := meta.TryGet(pctx)
	if err != nil {
		return nil, errors.Wrap(err, "invalid frontmatter")
	}

	idx := &Index{}
	if title, ok := metadata["title"].(string); ok {
		idx.Title = title
	}

	lines := skills.NewLineIndex(source, 1)
	category := ""
	tables := 0

	err = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			category = skills.InlineText(node, source)
			return ast.WalkSkipChildren, nil
		case *extast.Table:
			tables++
			idx.Entries = append(idx.Entries, tableEntries(node, source, lines, category)...)
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}
	if tables == 0 {
		return nil, errors.New("no tables found")
	}
	return idx, nil
}

func tableEntries(table *extast.Table, source []byte, lines *skills.LineIndex, category string) []Entry {
	column := 0
	var entries []Entry

	for row := table.FirstChild(); row != nil; row = row.NextSibling() {
		switch row.(type) {
		case *extast.TableHeader:
			for i, cell := 0, row.FirstChild(); cell != nil; i, cell = i+1, cell.NextSibling() {
				if skillColumns[strings.ToLower(skills.InlineText(cell, source))] {
					column = i
					break
				}
			}
		case *extast.TableRow:
			cell := nthChild(row, column)
			if cell == nil {
				continue
			}
			id := cellIdentifier(cell, source)
			if id == "" {
				continue
			}
			line := lines.BlockLine(cell)
			if line == 0 {
				line = lines.InlineLine(cell)
			}
			entries = append(entries, Entry{Identifier: id, Category: category, Line: line})
		}
	}
	return entries
}

// cellIdentifier prefers the skill directory named by a link destination,
// then the link text, then the plain cell text
func cellIdentifier(cell ast.Node, source []byte) string {
	var link *ast.Link
	_ = ast.Walk(cell, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if l, ok := n.(*ast.Link); ok && entering {
			link = l
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})

	if link != nil {
		if m := skillPathPattern.FindStringSubmatch(string(link.Destination)); m != nil {
			return m[1]
		}
		return cleanIdentifier(skills.InlineText(link, source))
	}
	return cleanIdentifier(skills.InlineText(cell, source))
}

func cleanIdentifier(s string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(s), "`*_"))
}

func nthChild(n ast.Node, i int) ast.Node {
	c := n.FirstChild()
	for ; c != nil && i > 0; i-- {
		c = c.NextSibling()
	}
	return c
}
