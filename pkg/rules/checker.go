package rules

import (
	"regexp"
	"strings"

	"github.com/geoskills/skillcheck/pkg/config"
	"github.com/geoskills/skillcheck/pkg/skills"
	"github.com/pkg/errors"
)

// Check is the signature shared by every document rule
type Check func(doc *skills.SkillDocument) []Finding

// Checker holds the compiled rule configuration. It has no mutable state and
// is safe for concurrent use.
type Checker struct {
	lines        config.LinesConfig
	sections     []string
	languages    map[string]bool
	banned       []bannedPhrase
	tagsMin      int
	tagsSeverity Severity
}

type bannedPhrase struct {
	phrase  string
	pattern *regexp.Regexp
}

// NewChecker compiles the rule configuration
func NewChecker(cfg config.RulesConfig) (*Checker, error) {
	tagsSeverity, err := ParseSeverity(cfg.Tags.Severity)
	if err != nil {
		return nil, errors.Wrap(err, "invalid tags severity")
	}

	c := &Checker{
		lines:        cfg.Lines,
		sections:     cfg.RequiredSections,
		languages:    make(map[string]bool, len(cfg.Languages)),
		tagsMin:      cfg.Tags.Min,
		tagsSeverity: tagsSeverity,
	}
	for _, lang := range cfg.Languages {
		c.languages[strings.ToLower(lang)] = true
	}
	for _, phrase := range cfg.BannedPhrases {
		c.banned = append(c.banned, bannedPhrase{phrase: phrase, pattern: phrasePattern(phrase)})
	}
	return c, nil
}

// phrasePattern matches phrase case-insensitively on word boundaries with
// any run of whitespace between words
func phrasePattern(phrase string) *regexp.Regexp {
	words := strings.Fields(phrase)
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`(?i)(^|[^\pL\pN'])` + strings.Join(words, `\s+`) + `($|[^\pL\pN'])`)
}

// Checks returns every document rule in the order they run
func (c *Checker) Checks() []Check {
	return []Check{
		c.CheckIdentifier,
		c.CheckFrontmatter,
		c.CheckStructure,
		c.CheckReferences,
	}
}

// Check runs every document rule. All rules run even when earlier ones fail.
func (c *Checker) Check(doc *skills.SkillDocument) []Finding {
	var findings []Finding
	for _, check := range c.Checks() {
		findings = append(findings, check(doc)...)
	}
	return findings
}

// CheckFrontmatter reports a parse failure or, on success, runs the metadata schema checks
func (c *Checker) CheckFrontmatter(doc *skills.SkillDocument) []Finding {
	if doc.FrontmatterErr != nil {
		line := 0
		var malformed *skills.MalformedFrontmatterError
		if errors.As(doc.FrontmatterErr, &malformed) {
			line = malformed.Line
		}
		return []Finding{fail(doc.Identifier, RuleFrontmatterParse, line, "%s", doc.FrontmatterErr.Error())}
	}
	return c.CheckMetadata(doc.Identifier, doc.Frontmatter)
}
