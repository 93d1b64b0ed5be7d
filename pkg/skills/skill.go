// Package skills discovers skill documents on disk and turns each SKILL.md
// into a read-only SkillDocument: typed frontmatter, the Markdown body and
// the outline (headings, fenced code blocks, links) the rule checkers need.
package skills

// SkillDocument is one skill's primary file as seen by a single validator run.
// It is built once by Discovery.Load and never mutated afterwards.
type SkillDocument struct {
	Identifier string // Directory name, e.g. "xarray"
	Dir        string // Full path to the skill directory
	Path       string // Full path to SKILL.md

	// Frontmatter is nil when FrontmatterErr is set.
	Frontmatter    *Frontmatter
	FrontmatterErr error

	Body          []byte // Everything after the frontmatter block
	BodyStartLine int    // 1-based file line of the first body line
	BodyLineCount int

	Outline *Outline
}

// Outline is the Markdown structure extracted from a document body
type Outline struct {
	Headings   []Heading
	CodeBlocks []CodeBlock
	Links      []Link
	Prose      []TextBlock
}

// Heading is an ATX or setext heading
type Heading struct {
	Level int
	Text  string
	Line  int
}

// CodeBlock is a fenced code block. Language is the first word of the info
// string and is empty when the fence carries no tag.
type CodeBlock struct {
	Language string
	Line     int
}

// Link is an inline or reference-style link destination
type Link struct {
	Destination string
	Line        int
}

// TextBlock is the plain text of one paragraph-like block with inline code removed
type TextBlock struct {
	Text string
	Line int
}
