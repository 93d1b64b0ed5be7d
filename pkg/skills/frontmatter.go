package skills

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	frontmatterDelimiter = "---"
	frontmatterEnd       = "..."
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// MalformedFrontmatterError reports a metadata block that could not be
// located or decoded as a key-value mapping.
type MalformedFrontmatterError struct {
	Reason string
	Line   int
}

func (e *MalformedFrontmatterError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("malformed frontmatter at line %d: %s", e.Line, e.Reason)
	}
	return "malformed frontmatter: " + e.Reason
}

// Kind tags the shape of a frontmatter value
type Kind int

// Frontmatter value kinds
const (
	KindInvalid Kind = iota
	KindString
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindList:
		return "list"
	default:
		return "invalid"
	}
}

// Value is a single frontmatter field. Scalar is set for KindString, List for
// KindList and Shape describes what was found for KindInvalid.
type Value struct {
	Kind   Kind
	Scalar string
	List   []string
	Shape  string
	Line   int
}

// Frontmatter is the decoded metadata block
type Frontmatter struct {
	fields map[string]Value
}

// Get returns the value stored under key
func (f *Frontmatter) Get(key string) (Value, bool) {
	v, ok := f.fields[key]
	return v, ok
}

// String returns the scalar stored under key, or "" when it is absent or not a string
func (f *Frontmatter) String(key string) string {
	v, ok := f.fields[key]
	if !ok || v.Kind != KindString {
		return ""
	}
	return v.Scalar
}

// List returns the list stored under key, or nil when it is absent or not a list
func (f *Frontmatter) List(key string) []string {
	v, ok := f.fields[key]
	if !ok || v.Kind != KindList {
		return nil
	}
	return v.List
}

// Version is a MAJOR.MINOR.PATCH triple
type Version struct {
	Major int
	Minor int
	Patch int
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

var versionPattern = regexp.MustCompile(`^(\d+)\.(\d+)\.(\d+)$`)

// ParseVersion parses a MAJOR.MINOR.PATCH string of non-negative integers
func ParseVersion(s string) (Version, error) {
	m := versionPattern.FindStringSubmatch(s)
	if m == nil {
		return Version{}, errors.Errorf("version %q is not MAJOR.MINOR.PATCH", s)
	}

	parts := make([]int, 3)
	for i := range parts {
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return Version{}, errors.Wrapf(err, "version %q component out of range", s)
		}
		parts[i] = n
	}
	return Version{Major: parts[0], Minor: parts[1], Patch: parts[2]}, nil
}

// ParseFrontmatter splits content into the metadata block and the body.
// It returns the decoded frontmatter, the body and the 1-based line of the
// first body line. On failure the error is a *MalformedFrontmatterError and
// the returned body is the best available text for structural checks: the
// text after the closing delimiter when one was found, otherwise the whole
// document.
func ParseFrontmatter(content []byte) (*Frontmatter, []byte, int, error) {
	content = bytes.TrimPrefix(content, utf8BOM)
	content = bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))

	lines := bytes.SplitAfter(content, []byte("\n"))
	if len(lines) == 0 || string(bytes.TrimRight(lines[0], " \t\n")) != frontmatterDelimiter {
		return nil, content, 1, &MalformedFrontmatterError{Reason: "missing opening '---' delimiter", Line: 1}
	}

	closing := -1
	for i := 1; i < len(lines); i++ {
		trimmed := string(bytes.TrimRight(lines[i], " \t\n"))
		if trimmed == frontmatterDelimiter || trimmed == frontmatterEnd {
			closing = i
			break
		}
	}
	if closing == -1 {
		return nil, content, 1, &MalformedFrontmatterError{Reason: "metadata block is not terminated", Line: 1}
	}

	block := bytes.Join(lines[1:closing], nil)
	body := bytes.Join(lines[closing+1:], nil)
	bodyStart := closing + 2

	fm, err := decodeFrontmatter(block)
	if err != nil {
		return nil, body, bodyStart, err
	}
	return fm, body, bodyStart, nil
}

// decodeFrontmatter converts the YAML block into the tagged representation.
// Node line numbers are shifted by one for the opening delimiter.
func decodeFrontmatter(block []byte) (*Frontmatter, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(block, &doc); err != nil {
		return nil, &MalformedFrontmatterError{Reason: err.Error()}
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, &MalformedFrontmatterError{Reason: "metadata block is empty", Line: 2}
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, &MalformedFrontmatterError{
			Reason: fmt.Sprintf("expected a mapping, found %s", describeNode(root)),
			Line:   root.Line + 1,
		}
	}

	fm := &Frontmatter{fields: make(map[string]Value, len(root.Content)/2)}
	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode, valueNode := root.Content[i], root.Content[i+1]
		key := keyNode.Value
		if _, dup := fm.fields[key]; dup {
			return nil, &MalformedFrontmatterError{
				Reason: fmt.Sprintf("duplicate key %q", key),
				Line:   keyNode.Line + 1,
			}
		}
		fm.fields[key] = convertNode(valueNode)
	}
	return fm, nil
}

func convertNode(n *yaml.Node) Value {
	line := n.Line + 1
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return Value{Kind: KindInvalid, Shape: "null", Line: line}
		}
		return Value{Kind: KindString, Scalar: n.Value, Line: line}
	case yaml.SequenceNode:
		list := make([]string, 0, len(n.Content))
		for _, item := range n.Content {
			if item.Kind != yaml.ScalarNode || item.Tag == "!!null" {
				return Value{Kind: KindInvalid, Shape: "list containing " + describeNode(item), Line: line}
			}
			list = append(list, item.Value)
		}
		return Value{Kind: KindList, List: list, Line: line}
	default:
		return Value{Kind: KindInvalid, Shape: describeNode(n), Line: line}
	}
}

func describeNode(n *yaml.Node) string {
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return "null"
		}
		return "scalar"
	case yaml.SequenceNode:
		return "list"
	case yaml.MappingNode:
		return "mapping"
	case yaml.AliasNode:
		return "alias"
	default:
		return "unknown node"
	}
}
