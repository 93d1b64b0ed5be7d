package report

import (
	"fmt"

	"github.com/geoskills/skillcheck/pkg/presenter"
	"github.com/geoskills/skillcheck/pkg/rules"
)

// Render prints the report through p. In quiet mode only failing skills,
// failing registry findings and the failure summary are printed.
func Render(p presenter.Presenter, r *Report) {
	p.Section("Skills")
	for _, sr := range r.Skills {
		if p.IsQuiet() && sr.Status != rules.SeverityFail {
			continue
		}
		RenderSkill(p, r, sr)
	}
	p.Info("")

	p.Section("Registry")
	switch r.Registry.Status {
	case rules.SeverityPass:
		p.Success("index and manifest match the skill directories")
	default:
		status(p, r.Registry.Status, fmt.Sprintf("%d registry finding(s)", len(r.Registry.Findings)))
		for _, f := range r.Registry.Findings {
			if p.IsQuiet() && f.Severity != rules.SeverityFail {
				continue
			}
			p.Detail(f.Skill + ": " + f.String())
		}
	}

	p.Separator()
	status(p, r.Status, fmt.Sprintf("%s: %d skills, %d passed, %d warned, %d failed, %d registry finding(s)",
		r.Status, r.Summary.Skills, r.Summary.Passed, r.Summary.Warned, r.Summary.Failed, len(r.Registry.Findings)))
}

// RenderSkill prints the status line of one skill followed by its own
// findings and the registry findings that name it
func RenderSkill(p presenter.Presenter, r *Report, sr SkillReport) {
	status(p, sr.Status, sr.Identifier)
	details(p, sr.Findings, p.IsQuiet())
	details(p, r.RegistryFindings(sr.Identifier), p.IsQuiet())
}

func status(p presenter.Presenter, s rules.Severity, message string) {
	switch s {
	case rules.SeverityPass:
		p.Success(message)
	case rules.SeverityWarn:
		p.Warning(message)
	default:
		p.Fail(message)
	}
}

func details(p presenter.Presenter, findings []rules.Finding, failuresOnly bool) {
	for _, f := range findings {
		if failuresOnly && f.Severity != rules.SeverityFail {
			continue
		}
		p.Detail(f.String())
	}
}
