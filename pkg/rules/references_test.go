package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/geoskills/skillcheck/pkg/skills"
	"github.com/geoskills/skillcheck/pkg/skills/skilltest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// loadWithReferences writes a valid skill whose body carries the given extra
// lines plus the reference files, then loads it from disk
func loadWithReferences(t *testing.T, extra []string, files map[string]string) *skills.SkillDocument {
	t.Helper()
	skillsDir := t.TempDir()
	b := skilltest.New("pyproj")
	b.Extra = extra
	dir := skilltest.WriteSkill(t, skillsDir, "pyproj", b.String())
	for rel, content := range files {
		skilltest.WriteFile(t, dir, rel, content)
	}

	discovery, err := skills.NewDiscovery(skillsDir)
	require.NoError(t, err)
	doc, err := discovery.Load("pyproj")
	require.NoError(t, err)
	return doc
}

func TestFlatReferencesPass(t *testing.T) {
	doc := loadWithReferences(t,
		[]string{"See [CRS notes](references/crs.md) and [datums](./references/datums.md#wgs84).", ""},
		map[string]string{
			"references/crs.md":    "# CRS\n\nBack to [the skill](../SKILL.md) or [EPSG](https://epsg.io).\n",
			"references/datums.md": "# Datums\n\n[Anchor](#wgs84)\n",
		})

	assert.Empty(t, newChecker(t).CheckReferences(doc))
}

func TestReferenceOfReferenceFails(t *testing.T) {
	doc := loadWithReferences(t,
		[]string{"See [topic](references/topic.md).", ""},
		map[string]string{
			"references/topic.md":      "# Topic\n\nMore in [topic2](sub/topic2.md).\n",
			"references/sub/topic2.md": "# Topic 2\n",
		})

	findings := newChecker(t).CheckReferences(doc)
	require.Len(t, findings, 1, "findings: %v", findings)
	assert.Equal(t, RuleReferenceDepth, findings[0].RuleID)
	assert.Equal(t, SeverityFail, findings[0].Severity)
	assert.Contains(t, findings[0].Message, "references/topic.md links to references/sub/topic2.md (line 3)")
}

func TestDirectLinkToNestedReferenceFails(t *testing.T) {
	doc := loadWithReferences(t,
		[]string{"See [deep](references/sub/deep.md).", ""},
		map[string]string{"references/sub/deep.md": "# Deep\n"})

	findings := newChecker(t).CheckReferences(doc)
	require.Len(t, findings, 1, "findings: %v", findings)
	assert.Equal(t, RuleReferenceDepth, findings[0].RuleID)
	assert.Greater(t, findings[0].Line, 0)
}

func TestMissingReference(t *testing.T) {
	doc := loadWithReferences(t, []string{"See [gone](references/gone.md) twice: [again](references/gone.md).", ""}, nil)

	findings := newChecker(t).CheckReferences(doc)
	require.Len(t, findings, 1, "a target is checked once: %v", findings)
	assert.Equal(t, RuleReferenceMissing, findings[0].RuleID)
}

func TestUnlinkedReferenceWarns(t *testing.T) {
	doc := loadWithReferences(t, nil, map[string]string{"references/orphan.md": "# Orphan\n"})

	findings := newChecker(t).CheckReferences(doc)
	require.Len(t, findings, 1)
	assert.Equal(t, RuleReferenceUnlinked, findings[0].RuleID)
	assert.Equal(t, SeverityWarn, findings[0].Severity)
	assert.Contains(t, findings[0].Message, "references/orphan.md")
}

func TestReferenceDirectoryIsNotAFile(t *testing.T) {
	doc := loadWithReferences(t, []string{"See [dir](references/folder.md).", ""}, nil)
	require.NoError(t, os.MkdirAll(filepath.Join(doc.Dir, "references", "folder.md"), 0o755))

	findings := newChecker(t).CheckReferences(doc)
	require.Len(t, findings, 1)
	assert.Equal(t, RuleReferenceMissing, findings[0].RuleID)
}

func TestLocalTarget(t *testing.T) {
	tests := []struct {
		dest  string
		want  string
		local bool
	}{
		{"references/a.md", "references/a.md", true},
		{"./references/a.md#part", "references/a.md", true},
		{"references/a.md?x=1", "references/a.md", true},
		{"https://example.com/a.md", "", false},
		{"mailto:someone@example.com", "", false},
		{"#anchor", "", false},
		{"/abs/path.md", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.dest, func(t *testing.T) {
			got, ok := localTarget(tt.dest)
			assert.Equal(t, tt.local, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
