// Package report aggregates per-skill and registry findings into the
// repository verdict and renders it as text or JSON.
package report

import (
	"bytes"
	"encoding/json"
	"io"
	"sort"

	"github.com/geoskills/skillcheck/pkg/rules"
	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	"github.com/rogpeppe/go-internal/lockedfile"
)

// SkillResult is the raw outcome of checking one skill. Err is set when the
// skill could not be checked at all.
type SkillResult struct {
	Identifier string
	Findings   []rules.Finding
	Err        error
}

// SkillReport is the verdict for one skill
type SkillReport struct {
	Identifier string          `json:"identifier" jsonschema:"description=Skill directory name"`
	Status     rules.Severity  `json:"status"`
	Checked    bool            `json:"checked" jsonschema:"description=False when the skill could not be read"`
	Error      string          `json:"error,omitempty"`
	Findings   []rules.Finding `json:"findings"`
}

// RegistryReport holds the index and manifest cross-reference findings
type RegistryReport struct {
	Status   rules.Severity  `json:"status"`
	Findings []rules.Finding `json:"findings"`
}

// Summary counts skills per status
type Summary struct {
	Skills   int `json:"skills"`
	Passed   int `json:"passed"`
	Warned   int `json:"warned"`
	Failed   int `json:"failed"`
	Findings int `json:"findings"`
}

// Report is the complete result of one validation run
type Report struct {
	Root     string         `json:"root,omitempty"`
	Status   rules.Severity `json:"status"`
	Skills   []SkillReport  `json:"skills"`
	Registry RegistryReport `json:"registry"`
	Summary  Summary        `json:"summary"`
}

// Build folds skill results and registry findings into a report. Skills are
// ordered by identifier and findings by rule id, line and message, so equal
// inputs always give equal reports.
func Build(results []SkillResult, registry []rules.Finding) *Report {
	r := &Report{
		Skills: make([]SkillReport, 0, len(results)),
		Registry: RegistryReport{
			Findings: append([]rules.Finding{}, registry...),
		},
	}

	for _, res := range results {
		sr := SkillReport{
			Identifier: res.Identifier,
			Checked:    res.Err == nil,
			Findings:   append([]rules.Finding{}, res.Findings...),
		}
		if res.Err != nil {
			sr.Error = res.Err.Error()
			sr.Findings = append(sr.Findings, rules.Fail(res.Identifier, rules.RuleUnreadable,
				"skill could not be checked: %v", res.Err))
		}
		rules.Sort(sr.Findings)
		sr.Status = rules.Worst(sr.Findings)
		r.Skills = append(r.Skills, sr)
	}
	sort.SliceStable(r.Skills, func(i, j int) bool {
		return r.Skills[i].Identifier < r.Skills[j].Identifier
	})

	rules.Sort(r.Registry.Findings)
	r.Registry.Status = rules.Worst(r.Registry.Findings)

	// Registry findings stay in the registry section but still decide the
	// status of the skill directory they name.
	for _, f := range r.Registry.Findings {
		if i := r.indexOf(f.Skill); i >= 0 && f.Severity > r.Skills[i].Status {
			r.Skills[i].Status = f.Severity
		}
	}

	r.Status = r.Registry.Status
	r.Summary.Skills = len(r.Skills)
	r.Summary.Findings = len(r.Registry.Findings)
	for _, sr := range r.Skills {
		switch sr.Status {
		case rules.SeverityPass:
			r.Summary.Passed++
		case rules.SeverityWarn:
			r.Summary.Warned++
		default:
			r.Summary.Failed++
		}
		r.Summary.Findings += len(sr.Findings)
		if sr.Status > r.Status {
			r.Status = sr.Status
		}
	}
	return r
}

// Failed reports whether the repository verdict is FAIL
func (r *Report) Failed() bool {
	return r.Status == rules.SeverityFail
}

// Skill looks up the report of one skill
func (r *Report) Skill(identifier string) (SkillReport, bool) {
	if i := r.indexOf(identifier); i >= 0 {
		return r.Skills[i], true
	}
	return SkillReport{}, false
}

// RegistryFindings returns the registry findings naming identifier
func (r *Report) RegistryFindings(identifier string) []rules.Finding {
	var out []rules.Finding
	for _, f := range r.Registry.Findings {
		if f.Skill == identifier {
			out = append(out, f)
		}
	}
	return out
}

func (r *Report) indexOf(identifier string) int {
	i := sort.Search(len(r.Skills), func(i int) bool { return r.Skills[i].Identifier >= identifier })
	if i < len(r.Skills) && r.Skills[i].Identifier == identifier {
		return i
	}
	return -1
}

// WriteJSON writes the report as indented JSON
func WriteJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return errors.Wrap(err, "failed to encode report")
	}
	return nil
}

// Schema returns the JSON Schema describing WriteJSON output
func Schema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	schema := reflector.Reflect(&Report{})
	schema.Title = "skillcheck report"
	return schema
}

// WriteFile stores the JSON report at path under a file lock so concurrent
// readers never observe a partial report
func WriteFile(path string, r *Report) error {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, r); err != nil {
		return err
	}
	if err := lockedfile.Write(path, &buf, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write report to %s", path)
	}
	return nil
}

// ReadFile loads a report previously stored with WriteFile
func ReadFile(path string) (*Report, error) {
	data, err := lockedfile.Read(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read report %s", path)
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, errors.Wrapf(err, "failed to decode report %s", path)
	}
	return &r, nil
}
