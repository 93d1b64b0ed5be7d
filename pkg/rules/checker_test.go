package rules

import (
	"testing"

	"github.com/geoskills/skillcheck/pkg/config"
	"github.com/geoskills/skillcheck/pkg/skills"
	"github.com/geoskills/skillcheck/pkg/skills/skilltest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newChecker(t *testing.T) *Checker {
	t.Helper()
	c, err := NewChecker(config.Default().Rules)
	require.NoError(t, err)
	return c
}

func document(t *testing.T, b *skilltest.Builder) *skills.SkillDocument {
	t.Helper()
	return skills.NewSkillDocument(b.Name, t.TempDir(), []byte(b.String()))
}

func ruleIDs(findings []Finding) []string {
	ids := make([]string, len(findings))
	for i, f := range findings {
		ids[i] = f.RuleID
	}
	return ids
}

func TestValidDocumentHasNoFindings(t *testing.T) {
	findings := newChecker(t).Check(document(t, skilltest.New("xarray")))
	assert.Empty(t, findings)
	assert.Equal(t, SeverityPass, Worst(findings))
}

func TestFlippingOneRuleAddsExactlyOneFinding(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(b *skilltest.Builder)
		rule     string
		severity Severity
	}{
		{"body above hard maximum", func(b *skilltest.Builder) { b.BodyLines = 600 }, RuleLineCount, SeverityFail},
		{"body outside target band", func(b *skilltest.Builder) { b.BodyLines = 350 }, RuleLineCount, SeverityWarn},
		{"body below minimum", func(b *skilltest.Builder) { b.BodyLines = 100 }, RuleLineCount, SeverityWarn},
		{"missing section", func(b *skilltest.Builder) { b.Sections = b.Sections[:2] }, RuleRequiredSection, SeverityFail},
		{"untagged code block", func(b *skilltest.Builder) { b.Extra = []string{"```", "x = 1", "```"} }, RuleCodeLanguage, SeverityFail},
		{"unlisted language", func(b *skilltest.Builder) { b.Extra = []string{"```cobol", "x", "```"} }, RuleCodeLanguage, SeverityFail},
		{"first person", func(b *skilltest.Builder) { b.Extra = []string{"I recommend chunking large files."} }, RuleFirstPerson, SeverityWarn},
		{"bad version", func(b *skilltest.Builder) { b.Version = "1.0" }, RuleVersion, SeverityFail},
		{"name mismatch", func(b *skilltest.Builder) { b.Name = "other" }, RuleNameMismatch, SeverityFail},
		{"too few tags", func(b *skilltest.Builder) { b.Tags = b.Tags[:3] }, RuleTags, SeverityWarn},
		{"malformed dependency", func(b *skilltest.Builder) { b.Dependencies = []string{"numpy", "xarray >> 2"} }, RuleDependency, SeverityWarn},
		{"empty description", func(b *skilltest.Builder) { b.Description = `""` }, RuleInvalidField, SeverityFail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := skilltest.New("xarray")
			tt.mutate(b)
			doc := skills.NewSkillDocument("xarray", t.TempDir(), []byte(b.String()))

			findings := newChecker(t).Check(doc)
			require.Len(t, findings, 1, "findings: %v", findings)
			assert.Equal(t, tt.rule, findings[0].RuleID)
			assert.Equal(t, tt.severity, findings[0].Severity)
			assert.Equal(t, "xarray", findings[0].Skill)
		})
	}
}

func TestEachMissingFieldIsReportedAlone(t *testing.T) {
	for _, field := range RequiredFields {
		t.Run(field, func(t *testing.T) {
			b := skilltest.New("xarray")
			b.Omit = []string{field}

			findings := newChecker(t).Check(document(t, b))
			require.Len(t, findings, 1, "findings: %v", findings)
			assert.Equal(t, RuleMissingField, findings[0].RuleID)
			assert.Equal(t, SeverityFail, findings[0].Severity)
			assert.Contains(t, findings[0].Message, `"`+field+`"`)
		})
	}
}

func TestFrontmatterParseFailureStillChecksBody(t *testing.T) {
	b := skilltest.New("xarray")
	b.Sections = b.Sections[:1]
	content := "---\nname: [broken\n---\n" + b.BodyText()

	findings := newChecker(t).Check(skills.NewSkillDocument("xarray", t.TempDir(), []byte(content)))

	assert.Equal(t, []string{
		RuleFrontmatterParse,
		RuleRequiredSection,
		RuleRequiredSection,
	}, ruleIDs(findings))
	assert.NotContains(t, ruleIDs(findings), RuleMissingField)
}

func TestInvalidIdentifier(t *testing.T) {
	b := skilltest.New("Xarray")
	findings := newChecker(t).Check(skills.NewSkillDocument("Xarray", t.TempDir(), []byte(b.String())))
	require.Len(t, findings, 1)
	assert.Equal(t, RuleIdentifier, findings[0].RuleID)
}

func TestTagSeverityConfigurable(t *testing.T) {
	cfg := config.Default().Rules
	cfg.Tags.Severity = "fail"
	c, err := NewChecker(cfg)
	require.NoError(t, err)

	b := skilltest.New("xarray")
	b.Tags = []string{"one"}
	findings := c.Check(document(t, b))
	require.Len(t, findings, 1)
	assert.Equal(t, SeverityFail, findings[0].Severity)
	assert.Equal(t, "tags lists 1 entries, at least 7 expected", findings[0].Message)
}

func TestNewCheckerRejectsUnknownSeverity(t *testing.T) {
	cfg := config.Default().Rules
	cfg.Tags.Severity = "loud"
	_, err := NewChecker(cfg)
	assert.Error(t, err)
}

func TestWrongShapes(t *testing.T) {
	content := `---
name: xarray
description:
  nested: true
version: 1.0.0
author: A
license: MIT
tags: geoscience, python
dependencies:
  - numpy
---
`
	doc := skills.NewSkillDocument("xarray", t.TempDir(), []byte(content+skilltest.New("xarray").BodyText()))
	findings := newChecker(t).CheckFrontmatter(doc)

	require.Len(t, findings, 2, "findings: %v", findings)
	assert.Equal(t, RuleInvalidField, findings[0].RuleID)
	assert.Contains(t, findings[0].Message, `"description" must be a string, found mapping`)
	assert.Equal(t, RuleInvalidField, findings[1].RuleID)
	assert.Contains(t, findings[1].Message, `"tags" must be a list of strings, found string`)
}

func TestSeverityText(t *testing.T) {
	for _, s := range []Severity{SeverityPass, SeverityWarn, SeverityFail} {
		text, err := s.MarshalText()
		require.NoError(t, err)

		var parsed Severity
		require.NoError(t, parsed.UnmarshalText(text))
		assert.Equal(t, s, parsed)
	}

	_, err := ParseSeverity("meh")
	assert.Error(t, err)
	parsed, err := ParseSeverity("warn")
	require.NoError(t, err)
	assert.Equal(t, SeverityWarn, parsed)
}

func TestSortOrdersBySkillRuleLine(t *testing.T) {
	findings := []Finding{
		{Skill: "b", RuleID: "a.rule"},
		{Skill: "a", RuleID: "z.rule", Line: 3},
		{Skill: "a", RuleID: "z.rule", Line: 1},
		{Skill: "a", RuleID: "m.rule"},
	}
	Sort(findings)

	assert.Equal(t, []Finding{
		{Skill: "a", RuleID: "m.rule"},
		{Skill: "a", RuleID: "z.rule", Line: 1},
		{Skill: "a", RuleID: "z.rule", Line: 3},
		{Skill: "b", RuleID: "a.rule"},
	}, findings)
}
