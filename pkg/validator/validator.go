// Package validator runs every check against a skill repository and folds the
// results into a report.
package validator

import (
	"context"

	"github.com/geoskills/skillcheck/pkg/config"
	"github.com/geoskills/skillcheck/pkg/logger"
	"github.com/geoskills/skillcheck/pkg/registry"
	"github.com/geoskills/skillcheck/pkg/report"
	"github.com/geoskills/skillcheck/pkg/rules"
	"github.com/geoskills/skillcheck/pkg/skills"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Validator checks one repository with a fixed configuration. It is safe to
// call Run repeatedly; each run reads the repository afresh.
type Validator struct {
	cfg       *config.Config
	discovery *skills.Discovery
	checker   *rules.Checker
}

// New builds a validator from a validated configuration
func New(cfg *config.Config) (*Validator, error) {
	discovery, err := skills.NewDiscovery(cfg.SkillsPath(), skills.WithExclude(cfg.Exclude...))
	if err != nil {
		return nil, err
	}
	checker, err := rules.NewChecker(cfg.Rules)
	if err != nil {
		return nil, err
	}
	return &Validator{cfg: cfg, discovery: discovery, checker: checker}, nil
}

// Discovery returns the skill discovery used by the validator
func (v *Validator) Discovery() *skills.Discovery {
	return v.discovery
}

// Run validates the repository. A missing skills directory or an unreadable
// or malformed registry aborts the run with an error; problems confined to
// one skill are reported as findings.
func (v *Validator) Run(ctx context.Context) (*report.Report, error) {
	log := logger.G(ctx).WithField("root", v.cfg.Root)

	ids, err := v.discovery.Identifiers()
	if err != nil {
		return nil, err
	}
	log.WithField("skills", len(ids)).Debug("discovered skills")

	index, err := registry.LoadIndex(v.cfg.IndexFile())
	if err != nil {
		return nil, err
	}
	manifest, err := registry.LoadManifest(v.cfg.ManifestFile())
	if err != nil {
		return nil, err
	}
	log.WithField("index_entries", len(index.Entries)).
		WithField("manifest_plugins", len(manifest.Plugins)).
		Debug("loaded registries")

	results := make([]report.SkillResult, len(ids))
	var registryFindings []rules.Finding

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(v.workers())

	g.Go(func() error {
		registryFindings = registry.CrossReference(ids, index, manifest)
		logger.G(gctx).WithField("findings", len(registryFindings)).Debug("cross-referenced registries")
		return nil
	})
	for i, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = v.checkSkill(gctx, id)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "validation interrupted")
	}

	r := report.Build(results, registryFindings)
	r.Root = v.cfg.Root
	log.WithField("status", r.Status.String()).Debug("validation finished")
	return r, nil
}

// CheckSkill validates a single skill directory without consulting the registries
func (v *Validator) CheckSkill(ctx context.Context, identifier string) report.SkillResult {
	return v.checkSkill(ctx, identifier)
}

func (v *Validator) checkSkill(ctx context.Context, identifier string) report.SkillResult {
	log := logger.G(ctx).WithField("skill", identifier)

	doc, err := v.discovery.Load(identifier)
	if err != nil {
		log.WithError(err).Warn("skill could not be read")
		return report.SkillResult{Identifier: identifier, Err: err}
	}

	var findings []rules.Finding
	for _, check := range v.checker.Checks() {
		findings = append(findings, check(doc)...)
	}
	log.WithField("findings", len(findings)).Debug("checked skill")
	return report.SkillResult{Identifier: identifier, Findings: findings}
}

func (v *Validator) workers() int {
	if v.cfg.Workers < 1 {
		return 1
	}
	return v.cfg.Workers
}
