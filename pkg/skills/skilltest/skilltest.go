// Package skilltest builds skill documents and repository layouts for tests.
// The default document satisfies every rule under the default configuration.
package skilltest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// DefaultBodyLines sits inside the default 200-300 target band
const DefaultBodyLines = 250

// Builder renders a SKILL.md
type Builder struct {
	Name         string
	Description  string
	Version      string
	Author       string
	License      string
	Tags         []string
	Dependencies []string
	// Omit lists frontmatter fields to leave out entirely
	Omit []string
	// BodyLines is the exact number of body lines rendered
	BodyLines int
	// Sections are the level-2 headings written into the body
	Sections []string
	// Extra lines are inserted into the body before the filler
	Extra []string
}

// New returns a builder for a document that passes every default rule
func New(name string) *Builder {
	return &Builder{
		Name:         name,
		Description:  "Work with " + name + " datasets in geoscience workflows",
		Version:      "1.0.0",
		Author:       "Geoscience Skills",
		License:      "MIT",
		Tags:         []string{"geoscience", "python", "raster", "vector", "netcdf", "climate", "analysis"},
		Dependencies: []string{name + ">=1.0", "numpy"},
		BodyLines:    DefaultBodyLines,
		Sections:     []string{"Quick Reference", "When to Use vs Alternatives", "Common Issues"},
	}
}

// Frontmatter renders only the metadata block including delimiters
func (b *Builder) Frontmatter() string {
	omit := make(map[string]bool, len(b.Omit))
	for _, f := range b.Omit {
		omit[f] = true
	}

	var sb strings.Builder
	sb.WriteString("---\n")
	scalar := func(key, value string) {
		if !omit[key] {
			fmt.Fprintf(&sb, "%s: %s\n", key, value)
		}
	}
	list := func(key string, values []string) {
		if omit[key] {
			return
		}
		if len(values) == 0 {
			fmt.Fprintf(&sb, "%s: []\n", key)
			return
		}
		fmt.Fprintf(&sb, "%s:\n", key)
		for _, v := range values {
			fmt.Fprintf(&sb, "  - %q\n", v)
		}
	}

	scalar("name", b.Name)
	scalar("description", b.Description)
	scalar("version", b.Version)
	scalar("author", b.Author)
	scalar("license", b.License)
	list("tags", b.Tags)
	list("dependencies", b.Dependencies)
	sb.WriteString("---\n")
	return sb.String()
}

// BodyText renders exactly BodyLines lines of Markdown. It never produces
// fewer lines than the fixed skeleton needs.
func (b *Builder) BodyText() string {
	lines := []string{"", "# " + b.Name, ""}
	for i, section := range b.Sections {
		lines = append(lines, "## "+section, "")
		if i == 0 {
			lines = append(lines, "```python", "import "+strings.ReplaceAll(b.Name, "-", "_"), "```", "")
		} else {
			lines = append(lines, "Guidance for "+strings.ToLower(section)+".", "")
		}
	}
	lines = append(lines, b.Extra...)

	for n := 1; len(lines) < b.BodyLines; n++ {
		lines = append(lines, fmt.Sprintf("Filler note %d describing the workflow.", n))
	}
	return strings.Join(lines, "\n") + "\n"
}

// String renders the full document
func (b *Builder) String() string {
	return b.Frontmatter() + b.BodyText()
}

// WriteSkill writes content as skillsDir/<id>/SKILL.md and returns the skill directory
func WriteSkill(t testing.TB, skillsDir, id, content string) string {
	t.Helper()
	dir := filepath.Join(skillsDir, id)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "SKILL.md"), []byte(content), 0o644))
	return dir
}

// WriteFile writes content to root/rel, creating parent directories
func WriteFile(t testing.TB, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// Index renders an index document with one table per category
func Index(categories map[string][]string, order ...string) string {
	var sb strings.Builder
	sb.WriteString("# Geoscience Skills\n\n")
	for _, category := range order {
		fmt.Fprintf(&sb, "## %s\n\n| Skill | Description |\n|-------|-------------|\n", category)
		for _, id := range categories[category] {
			fmt.Fprintf(&sb, "| [%s](skills/%s/SKILL.md) | %s skill |\n", id, id, id)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// Manifest renders a marketplace manifest listing plugins and categories
func Manifest(plugins []string, categories map[string][]string) string {
	var sb strings.Builder
	sb.WriteString("{\n  \"name\": \"geoscience-skills\",\n  \"plugins\": [\n")
	for i, id := range plugins {
		sep := ","
		if i == len(plugins)-1 {
			sep = ""
		}
		fmt.Fprintf(&sb, "    {\"name\": %q, \"source\": \"./skills/%s\"}%s\n", id, id, sep)
	}
	sb.WriteString("  ],\n  \"categories\": {\n")
	i := 0
	for name, ids := range categories {
		quoted := make([]string, len(ids))
		for j, id := range ids {
			quoted[j] = fmt.Sprintf("%q", id)
		}
		sep := ","
		if i == len(categories)-1 {
			sep = ""
		}
		fmt.Fprintf(&sb, "    %q: [%s]%s\n", name, strings.Join(quoted, ", "), sep)
		i++
	}
	sb.WriteString("  }\n}\n")
	return sb.String()
}

// RepoFiles returns the files of a consistent repository holding the given
// skills, keyed by slash path relative to the root. All skills share one
// "Data" category.
func RepoFiles(ids ...string) map[string]string {
	files := map[string]string{
		"README.md":                       Index(map[string][]string{"Data": ids}, "Data"),
		".claude-plugin/marketplace.json": Manifest(ids, map[string][]string{"data": ids}),
	}
	for _, id := range ids {
		files["skills/"+id+"/SKILL.md"] = New(id).String()
	}
	return files
}

// Repo writes RepoFiles into a temporary directory and returns it
func Repo(t testing.TB, ids ...string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range RepoFiles(ids...) {
		WriteFile(t, root, rel, content)
	}
	return root
}
