package skills

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/gobwas/glob"
	"github.com/pkg/errors"
)

// SkillFileName is the primary document inside every skill directory
const SkillFileName = "SKILL.md"

// ReferencesDir is the per-skill directory holding one-level-deep reference files
const ReferencesDir = "references"

// Discovery finds skill directories under a single skills directory
type Discovery struct {
	skillsDir string
	exclude   []glob.Glob
}

// Option is a function that configures a Discovery
type Option func(*Discovery) error

// WithExclude skips directory names matching any of the glob patterns
func WithExclude(patterns ...string) Option {
	return func(d *Discovery) error {
		for _, pattern := range patterns {
			g, err := glob.Compile(pattern)
			if err != nil {
				return errors.Wrapf(err, "invalid exclude pattern %q", pattern)
			}
			d.exclude = append(d.exclude, g)
		}
		return nil
	}
}

// NewDiscovery creates a discovery rooted at skillsDir
func NewDiscovery(skillsDir string, opts ...Option) (*Discovery, error) {
	d := &Discovery{skillsDir: skillsDir}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Dir returns the skills directory being scanned
func (d *Discovery) Dir() string {
	return d.skillsDir
}

// Identifiers lists the skill directories in lexicographic order. A missing
// or unreadable skills directory is an error; everything below it is not.
func (d *Discovery) Identifiers() ([]string, error) {
	entries, err := os.ReadDir(d.skillsDir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read skills directory %s", d.skillsDir)
	}

	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if d.excluded(name) {
			continue
		}

		// Stat follows symlinked skill directories
		info, err := os.Stat(filepath.Join(d.skillsDir, name))
		if err != nil || !info.IsDir() {
			continue
		}
		ids = append(ids, name)
	}

	sort.Strings(ids)
	return ids, nil
}

func (d *Discovery) excluded(name string) bool {
	for _, g := range d.exclude {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// Load reads and parses one skill. Only I/O failures are returned as errors;
// a malformed metadata block is recorded on the document instead so the
// remaining checks can still run.
func (d *Discovery) Load(identifier string) (*SkillDocument, error) {
	dir := filepath.Join(d.skillsDir, identifier)
	path := filepath.Join(dir, SkillFileName)

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}

	return NewSkillDocument(identifier, dir, content), nil
}

// NewSkillDocument builds a document from the raw SKILL.md content
func NewSkillDocument(identifier, dir string, content []byte) *SkillDocument {
	fm, body, bodyStart, err := ParseFrontmatter(content)

	return &SkillDocument{
		Identifier:     identifier,
		Dir:            dir,
		Path:           filepath.Join(dir, SkillFileName),
		Frontmatter:    fm,
		FrontmatterErr: err,
		Body:           body,
		BodyStartLine:  bodyStart,
		BodyLineCount:  CountLines(body),
		Outline:        AnalyzeBody(body, bodyStart),
	}
}
