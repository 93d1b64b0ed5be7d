package registry

import (
	"bytes"
	"encoding/json"
	"os"
	"sort"

	"github.com/pkg/errors"
)

// Plugin is one installable skill entry of the manifest
type Plugin struct {
	Name        string `json:"name"`
	Source      string `json:"source,omitempty"`
	Description string `json:"description,omitempty"`
	Version     string `json:"version,omitempty"`
	Category    string `json:"category,omitempty"`
}

// Manifest is the machine-readable catalogue consumed by plugin installers
type Manifest struct {
	Path       string              `json:"-"`
	Name       string              `json:"name"`
	Plugins    []Plugin            `json:"plugins"`
	Categories map[string][]string `json:"categories,omitempty"`
}

// LoadManifest reads and parses the manifest at path
func LoadManifest(path string) (*Manifest, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read plugin manifest %s", path)
	}
	m, err := ParseManifest(content)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse plugin manifest %s", path)
	}
	m.Path = path
	return m, nil
}

// ParseManifest decodes a manifest document. Unknown top-level keys are
// tolerated; a missing plugin list or an unnamed plugin is an error.
func ParseManifest(content []byte) (*Manifest, error) {
	var m Manifest
	dec := json.NewDecoder(bytes.NewReader(content))
	if err := dec.Decode(&m); err != nil {
		return nil, errors.Wrap(err, "invalid JSON")
	}
	if m.Plugins == nil {
		return nil, errors.New(`missing "plugins" list`)
	}
	for i, p := range m.Plugins {
		if p.Name == "" {
			return nil, errors.Errorf("plugin entry %d has no name", i)
		}
	}
	return &m, nil
}

// PluginNames returns plugin names in manifest order, duplicates included
func (m *Manifest) PluginNames() []string {
	names := make([]string, len(m.Plugins))
	for i, p := range m.Plugins {
		names[i] = p.Name
	}
	return names
}

// CategoryNames returns the category keys sorted
func (m *Manifest) CategoryNames() []string {
	names := make([]string, 0, len(m.Categories))
	for name := range m.Categories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Categorized reports the identifiers placed in at least one category, either
// through the categories map or a plugin's own category field
func (m *Manifest) Categorized() map[string]bool {
	seen := make(map[string]bool)
	for _, ids := range m.Categories {
		for _, id := range ids {
			seen[id] = true
		}
	}
	for _, p := range m.Plugins {
		if p.Category != "" {
			seen[p.Name] = true
		}
	}
	return seen
}
