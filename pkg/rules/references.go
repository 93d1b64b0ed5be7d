package rules

import (
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/geoskills/skillcheck/pkg/skills"
)

const referencesPrefix = skills.ReferencesDir + "/"

// CheckReferences enforces the one-level-deep reference layout: every link
// into references/ must name an existing file directly under it, and that
// file must not link on to further local documents.
func (c *Checker) CheckReferences(doc *skills.SkillDocument) []Finding {
	var findings []Finding
	linked := make(map[string]bool)
	checked := make(map[string]bool)

	for _, link := range doc.Outline.Links {
		target, ok := localTarget(link.Destination)
		if !ok || !strings.HasPrefix(target, referencesPrefix) {
			continue
		}
		linked[target] = true

		if strings.Contains(strings.TrimPrefix(target, referencesPrefix), "/") {
			findings = append(findings, fail(doc.Identifier, RuleReferenceDepth, link.Line,
				"%s is nested below %s; reference files must sit directly under it", target, referencesPrefix))
			continue
		}
		if checked[target] {
			continue
		}
		checked[target] = true

		info, err := os.Stat(filepath.Join(doc.Dir, filepath.FromSlash(target)))
		if err != nil || info.IsDir() {
			findings = append(findings, fail(doc.Identifier, RuleReferenceMissing, link.Line,
				"linked reference %s does not exist", target))
			continue
		}

		nested, err := nestedReferences(doc.Dir, target)
		if err != nil {
			findings = append(findings, fail(doc.Identifier, RuleReferenceMissing, link.Line,
				"linked reference %s could not be read: %v", target, err))
			continue
		}
		for _, n := range nested {
			linked[n.target] = true
			findings = append(findings, fail(doc.Identifier, RuleReferenceDepth, link.Line,
				"%s links to %s (line %d); references must be one level deep", target, n.target, n.line))
		}
	}

	findings = append(findings, unlinkedReferences(doc, linked)...)
	return findings
}

type nestedLink struct {
	target string
	line   int
}

// nestedReferences lists the local Markdown documents a reference file links to
func nestedReferences(skillDir, target string) ([]nestedLink, error) {
	content, err := os.ReadFile(filepath.Join(skillDir, filepath.FromSlash(target)))
	if err != nil {
		return nil, err
	}

	_, body, start, err := skills.ParseFrontmatter(content)
	if err != nil {
		// Reference files need no metadata block
		body, start = content, 1
	}

	var nested []nestedLink
	for _, link := range skills.AnalyzeBody(body, start).Links {
		dest, ok := localTarget(link.Destination)
		if !ok {
			continue
		}
		resolved := path.Clean(path.Join(path.Dir(target), dest))
		if resolved == skills.SkillFileName || !strings.EqualFold(path.Ext(resolved), ".md") {
			continue
		}
		nested = append(nested, nestedLink{target: resolved, line: link.Line})
	}
	return nested, nil
}

// unlinkedReferences warns about Markdown files under references/ that no link reaches
func unlinkedReferences(doc *skills.SkillDocument, linked map[string]bool) []Finding {
	matches, err := doublestar.Glob(os.DirFS(doc.Dir), referencesPrefix+"**/*.md", doublestar.WithFilesOnly())
	if err != nil {
		return nil
	}
	sort.Strings(matches)

	var findings []Finding
	for _, m := range matches {
		if !linked[m] {
			findings = append(findings, warn(doc.Identifier, RuleReferenceUnlinked, 0,
				"%s is not linked from %s", m, skills.SkillFileName))
		}
	}
	return findings
}

// localTarget reduces a link destination to a cleaned slash path relative to
// the linking document. URLs, anchors and absolute paths are not local.
func localTarget(dest string) (string, bool) {
	dest = strings.TrimSpace(dest)
	if dest == "" || strings.HasPrefix(dest, "#") || strings.HasPrefix(dest, "/") {
		return "", false
	}
	if strings.Contains(dest, "://") || strings.HasPrefix(dest, "mailto:") {
		return "", false
	}
	if i := strings.IndexAny(dest, "#?"); i >= 0 {
		dest = dest[:i]
	}
	if dest == "" {
		return "", false
	}
	return path.Clean(dest), true
}
