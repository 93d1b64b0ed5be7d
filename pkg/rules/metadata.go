package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/geoskills/skillcheck/pkg/skills"
)

// Mandatory frontmatter fields, in the order findings are reported
var RequiredFields = []string{"name", "description", "version", "author", "license", "tags", "dependencies"}

var listFields = map[string]bool{"tags": true, "dependencies": true}

var (
	identifierPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

	// name[extras] optionally followed by comma-separated version clauses
	dependencyPattern = regexp.MustCompile(
		`^[A-Za-z0-9](?:[A-Za-z0-9._-]*[A-Za-z0-9])?` +
			`(?:\[[A-Za-z0-9._-]+(?:\s*,\s*[A-Za-z0-9._-]+)*\])?` +
			`(?:\s*(?:===|==|>=|<=|~=|!=|<|>)\s*[A-Za-z0-9.*+!-]+` +
			`(?:\s*,\s*(?:===|==|>=|<=|~=|!=|<|>)\s*[A-Za-z0-9.*+!-]+)*)?$`)
)

// CheckIdentifier verifies the skill directory name is lowercase kebab-case
func (c *Checker) CheckIdentifier(doc *skills.SkillDocument) []Finding {
	if identifierPattern.MatchString(doc.Identifier) {
		return nil
	}
	return []Finding{fail(doc.Identifier, RuleIdentifier, 0,
		"directory name %q must be lowercase letters, digits and single hyphens", doc.Identifier)}
}

// CheckMetadata validates a parsed frontmatter block against the mandatory
// field schema. identifier is the containing directory name.
func (c *Checker) CheckMetadata(identifier string, fm *skills.Frontmatter) []Finding {
	var findings []Finding

	for _, field := range RequiredFields {
		v, ok := fm.Get(field)
		if !ok {
			findings = append(findings, fail(identifier, RuleMissingField, 0, "required field %q is missing", field))
			continue
		}
		if f, ok := checkShape(identifier, field, v); !ok {
			findings = append(findings, f)
		}
	}

	if v, ok := fm.Get("name"); ok && v.Kind == skills.KindString && v.Scalar != "" && v.Scalar != identifier {
		findings = append(findings, fail(identifier, RuleNameMismatch, v.Line,
			"name %q does not match directory %q", v.Scalar, identifier))
	}

	if v, ok := fm.Get("version"); ok && v.Kind == skills.KindString && v.Scalar != "" {
		if _, err := skills.ParseVersion(v.Scalar); err != nil {
			findings = append(findings, fail(identifier, RuleVersion, v.Line, "%s", err.Error()))
		}
	}

	if v, ok := fm.Get("tags"); ok && v.Kind == skills.KindList && len(v.List) < c.tagsMin {
		findings = append(findings, Finding{
			Skill:    identifier,
			Severity: c.tagsSeverity,
			RuleID:   RuleTags,
			Message:  fmt.Sprintf("tags lists %d entries, at least %d expected", len(v.List), c.tagsMin),
			Line:     v.Line,
		})
	}

	if v, ok := fm.Get("dependencies"); ok && v.Kind == skills.KindList {
		for _, dep := range v.List {
			if !dependencyPattern.MatchString(strings.TrimSpace(dep)) {
				findings = append(findings, warn(identifier, RuleDependency, v.Line,
					"dependency %q is not of the form name[extras] followed by an optional version constraint", dep))
			}
		}
	}

	return findings
}

// checkShape returns an invalid_field finding when v does not have the kind
// field requires
func checkShape(identifier, field string, v skills.Value) (Finding, bool) {
	wantList := listFields[field]

	switch {
	case v.Kind == skills.KindInvalid:
		want := "a string"
		if wantList {
			want = "a list of strings"
		}
		return fail(identifier, RuleInvalidField, v.Line, "field %q must be %s, found %s", field, want, v.Shape), false
	case wantList && v.Kind != skills.KindList:
		return fail(identifier, RuleInvalidField, v.Line, "field %q must be a list of strings, found %s", field, v.Kind), false
	case !wantList && v.Kind != skills.KindString:
		return fail(identifier, RuleInvalidField, v.Line, "field %q must be a string, found %s", field, v.Kind), false
	case !wantList && strings.TrimSpace(v.Scalar) == "":
		return fail(identifier, RuleInvalidField, v.Line, "field %q must not be empty", field), false
	}
	return Finding{}, true
}
