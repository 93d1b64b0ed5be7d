package rules

import (
	"strings"

	"github.com/geoskills/skillcheck/pkg/skills"
)

// CheckStructure applies the document-shape rules to the body: line count,
// required sections, code block languages and narrative voice.
func (c *Checker) CheckStructure(doc *skills.SkillDocument) []Finding {
	var findings []Finding
	findings = append(findings, c.checkLineCount(doc)...)
	findings = append(findings, c.checkSections(doc)...)
	findings = append(findings, c.checkCodeLanguages(doc)...)
	findings = append(findings, c.checkVoice(doc)...)
	return findings
}

// checkLineCount yields at most one finding
func (c *Checker) checkLineCount(doc *skills.SkillDocument) []Finding {
	n, l := doc.BodyLineCount, c.lines

	switch {
	case n > l.Max:
		return []Finding{fail(doc.Identifier, RuleLineCount, 0,
			"body has %d lines, exceeding the maximum of %d", n, l.Max)}
	case n < l.Min:
		return []Finding{warn(doc.Identifier, RuleLineCount, 0,
			"body has %d lines, below the minimum of %d (target %d-%d)", n, l.Min, l.TargetMin, l.TargetMax)}
	case n < l.TargetMin || n > l.TargetMax:
		return []Finding{warn(doc.Identifier, RuleLineCount, 0,
			"body has %d lines, outside the target band %d-%d", n, l.TargetMin, l.TargetMax)}
	}
	return nil
}

func (c *Checker) checkSections(doc *skills.SkillDocument) []Finding {
	present := make(map[string]bool, len(doc.Outline.Headings))
	for _, h := range doc.Outline.Headings {
		present[normalizeHeading(h.Text)] = true
	}

	var findings []Finding
	for _, section := range c.sections {
		if !present[normalizeHeading(section)] {
			findings = append(findings, fail(doc.Identifier, RuleRequiredSection, 0,
				"required section %q is missing", section))
		}
	}
	return findings
}

func normalizeHeading(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func (c *Checker) checkCodeLanguages(doc *skills.SkillDocument) []Finding {
	var findings []Finding
	for _, block := range doc.Outline.CodeBlocks {
		switch {
		case block.Language == "":
			findings = append(findings, fail(doc.Identifier, RuleCodeLanguage, block.Line,
				"code block has no language tag"))
		case !c.languages[strings.ToLower(block.Language)]:
			findings = append(findings, fail(doc.Identifier, RuleCodeLanguage, block.Line,
				"code block language %q is not in the allowed list", block.Language))
		}
	}
	return findings
}

// checkVoice reports each banned phrase once, at its first occurrence
func (c *Checker) checkVoice(doc *skills.SkillDocument) []Finding {
	var findings []Finding
	for _, b := range c.banned {
		for _, block := range doc.Outline.Prose {
			if b.pattern.MatchString(block.Text) {
				findings = append(findings, warn(doc.Identifier, RuleFirstPerson, block.Line,
					"first-person phrase %q; write in an instructional voice", b.phrase))
				break
			}
		}
	}
	return findings
}
