package registry

import (
	"fmt"
	"sort"
	"strings"

	"github.com/geoskills/skillcheck/pkg/rules"
)

// CrossReference compares the skill directories on disk with the index and
// the manifest. Every difference is a FAIL finding; an identifier listed in a
// registry but absent on disk is reported once, naming each registry that
// lists it.
func CrossReference(onDisk []string, index *Index, manifest *Manifest) []rules.Finding {
	var findings []rules.Finding

	disk := make(map[string]bool, len(onDisk))
	for _, id := range onDisk {
		disk[id] = true
	}

	indexed := make(map[string][]Entry)
	for _, e := range index.Entries {
		indexed[e.Identifier] = append(indexed[e.Identifier], e)
	}
	plugins := make(map[string]int)
	for _, name := range manifest.PluginNames() {
		plugins[name]++
	}

	for _, id := range onDisk {
		if len(indexed[id]) == 0 {
			findings = append(findings, rules.Fail(id, rules.RuleMissingFromIndex,
				"skill directory is not listed in %s", displayPath(index.Path, "the index")))
		}
		if plugins[id] == 0 {
			findings = append(findings, rules.Fail(id, rules.RuleMissingFromManifest,
				"skill directory is not listed in %s", displayPath(manifest.Path, "the manifest")))
		}
	}

	for _, id := range sortedKeys(indexed) {
		if entries := indexed[id]; len(entries) > 1 {
			findings = append(findings, rules.Fail(id, rules.RuleDuplicateIndex,
				"listed %d times in the index (%s)", len(entries), describeEntries(entries)))
		}
	}
	for _, id := range sortedKeys(plugins) {
		if plugins[id] > 1 {
			findings = append(findings, rules.Fail(id, rules.RuleDuplicateManifest,
				"listed %d times in the manifest plugins", plugins[id]))
		}
	}

	registered := make(map[string][]string)
	for id, entries := range indexed {
		if !disk[id] {
			registered[id] = append(registered[id], fmt.Sprintf("index (line %d)", entries[0].Line))
		}
	}
	for id := range plugins {
		if !disk[id] {
			registered[id] = append(registered[id], "manifest")
		}
	}
	for _, id := range sortedKeys(registered) {
		findings = append(findings, rules.Fail(id, rules.RuleMissingOnDisk,
			"listed in %s but has no skill directory", strings.Join(registered[id], " and ")))
	}

	categorized := manifest.Categorized()
	for _, id := range sortedKeys(plugins) {
		if !categorized[id] {
			findings = append(findings, rules.Fail(id, rules.RuleUncategorized,
				"manifest plugin is not assigned to any category"))
		}
	}
	for _, category := range manifest.CategoryNames() {
		for _, id := range manifest.Categories[category] {
			if plugins[id] == 0 {
				findings = append(findings, rules.Fail(id, rules.RuleUnknownCategoryEntry,
					"manifest category %q lists an identifier with no plugin entry", category))
			}
		}
	}

	rules.Sort(findings)
	return findings
}

func describeEntries(entries []Entry) string {
	parts := make([]string, len(entries))
	for i, e := range entries {
		if e.Category != "" {
			parts[i] = fmt.Sprintf("%s, line %d", e.Category, e.Line)
		} else {
			parts[i] = fmt.Sprintf("line %d", e.Line)
		}
	}
	return strings.Join(parts, "; ")
}

func displayPath(path, fallback string) string {
	if path == "" {
		return fallback
	}
	return path
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
