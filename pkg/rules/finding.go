// Package rules implements the per-document checks run against every skill
// and the Finding model shared by all checks.
package rules

import (
	"fmt"
	"sort"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
)

// Severity orders findings and statuses: PASS < WARN < FAIL
type Severity int

// Severity levels
const (
	SeverityPass Severity = iota
	SeverityWarn
	SeverityFail
)

var severityNames = []string{"PASS", "WARN", "FAIL"}

func (s Severity) String() string {
	if s < 0 || int(s) >= len(severityNames) {
		return fmt.Sprintf("Severity(%d)", int(s))
	}
	return severityNames[s]
}

// ParseSeverity accepts the level names case-insensitively
func ParseSeverity(s string) (Severity, error) {
	for i, name := range severityNames {
		if strings.EqualFold(s, name) {
			return Severity(i), nil
		}
	}
	return SeverityPass, errors.Errorf("unknown severity %q", s)
}

// MarshalText encodes the severity by name
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a severity name
func (s *Severity) UnmarshalText(b []byte) error {
	parsed, err := ParseSeverity(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// JSONSchema describes the text encoding for report schema generation
func (Severity) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "string",
		Enum: []any{"PASS", "WARN", "FAIL"},
	}
}

// Worst returns the highest severity among the given findings, PASS if none
func Worst(findings []Finding) Severity {
	worst := SeverityPass
	for _, f := range findings {
		if f.Severity > worst {
			worst = f.Severity
		}
	}
	return worst
}

// Rule identifiers
const (
	RuleFrontmatterParse     = "frontmatter.parse"
	RuleMissingField         = "frontmatter.missing_field"
	RuleInvalidField         = "frontmatter.invalid_field"
	RuleVersion              = "frontmatter.version"
	RuleNameMismatch         = "frontmatter.name_mismatch"
	RuleTags                 = "frontmatter.tags"
	RuleDependency           = "frontmatter.dependency"
	RuleIdentifier           = "skill.identifier"
	RuleUnreadable           = "skill.unreadable"
	RuleLineCount            = "structure.line_count"
	RuleRequiredSection      = "structure.required_section"
	RuleCodeLanguage         = "structure.code_language"
	RuleFirstPerson          = "style.first_person"
	RuleReferenceMissing     = "references.missing"
	RuleReferenceDepth       = "references.depth"
	RuleReferenceUnlinked    = "references.unlinked"
	RuleMissingFromIndex     = "registry.missing_from_index"
	RuleMissingFromManifest  = "registry.missing_from_manifest"
	RuleMissingOnDisk        = "registry.missing_on_disk"
	RuleDuplicateIndex       = "registry.duplicate_index"
	RuleDuplicateManifest    = "registry.duplicate_manifest"
	RuleUncategorized        = "registry.uncategorized"
	RuleUnknownCategoryEntry = "registry.unknown_category_entry"
)

// Finding is a single reported issue
type Finding struct {
	Skill    string   `json:"skill"`
	Severity Severity `json:"severity"`
	RuleID   string   `json:"rule_id"`
	Message  string   `json:"message"`
	Line     int      `json:"line,omitempty"`
}

func (f Finding) String() string {
	if f.Line > 0 {
		return fmt.Sprintf("[%s] %s: %s (line %d)", f.Severity, f.RuleID, f.Message, f.Line)
	}
	return fmt.Sprintf("[%s] %s: %s", f.Severity, f.RuleID, f.Message)
}

func fail(skill, rule string, line int, format string, args ...any) Finding {
	return Finding{Skill: skill, Severity: SeverityFail, RuleID: rule, Message: fmt.Sprintf(format, args...), Line: line}
}

func warn(skill, rule string, line int, format string, args ...any) Finding {
	return Finding{Skill: skill, Severity: SeverityWarn, RuleID: rule, Message: fmt.Sprintf(format, args...), Line: line}
}

// Fail builds a FAIL finding without a line number
func Fail(skill, rule, format string, args ...any) Finding {
	return fail(skill, rule, 0, format, args...)
}

// Sort orders findings by skill, rule id, line and message
func Sort(findings []Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if a.Skill != b.Skill {
			return a.Skill < b.Skill
		}
		if a.RuleID != b.RuleID {
			return a.RuleID < b.RuleID
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Message < b.Message
	})
}
