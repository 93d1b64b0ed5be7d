package skills

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFrontmatter(t *testing.T) {
	content := `---
name: xarray
description: Labelled multi-dimensional arrays
version: 1.2.3
tags:
  - netcdf
  - climate
dependencies: []
---

# xarray

Body text.
`
	fm, body, start, err := ParseFrontmatter([]byte(content))
	require.NoError(t, err)
	require.NotNil(t, fm)

	for _, key := range []string{"name", "description", "version", "tags", "dependencies"} {
		_, ok := fm.Get(key)
		assert.True(t, ok, key)
	}
	assert.Equal(t, "xarray", fm.String("name"))
	assert.Equal(t, []string{"netcdf", "climate"}, fm.List("tags"))

	deps, ok := fm.Get("dependencies")
	require.True(t, ok)
	assert.Equal(t, KindList, deps.Kind)
	assert.Empty(t, deps.List)

	version, ok := fm.Get("version")
	require.True(t, ok)
	assert.Equal(t, KindString, version.Kind)
	assert.Equal(t, 4, version.Line)

	assert.Equal(t, 10, start)
	assert.Equal(t, "\n# xarray\n\nBody text.\n", string(body))
}

func TestParseFrontmatterCRLFAndBOM(t *testing.T) {
	content := "\xEF\xBB\xBF---\r\nname: gdal\r\n---\r\nbody\r\n"
	fm, body, start, err := ParseFrontmatter([]byte(content))
	require.NoError(t, err)
	assert.Equal(t, "gdal", fm.String("name"))
	assert.Equal(t, "body\n", string(body))
	assert.Equal(t, 4, start)
}

func TestParseFrontmatterAcceptsDocumentEndMarker(t *testing.T) {
	fm, body, _, err := ParseFrontmatter([]byte("---\nname: obspy\n...\nrest\n"))
	require.NoError(t, err)
	assert.Equal(t, "obspy", fm.String("name"))
	assert.Equal(t, "rest\n", string(body))
}

func TestParseFrontmatterErrors(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		reason   string
		wantBody string
	}{
		{
			name:     "missing opening delimiter",
			content:  "# Title\n\ntext\n",
			reason:   "missing opening",
			wantBody: "# Title\n\ntext\n",
		},
		{
			name:     "unterminated block",
			content:  "---\nname: x\n# Title\n",
			reason:   "not terminated",
			wantBody: "---\nname: x\n# Title\n",
		},
		{
			name:     "yaml syntax error",
			content:  "---\nname: [unclosed\n---\nbody\n",
			reason:   "yaml",
			wantBody: "body\n",
		},
		{
			name:     "not a mapping",
			content:  "---\n- a\n- b\n---\nbody\n",
			reason:   "expected a mapping, found list",
			wantBody: "body\n",
		},
		{
			name:     "empty block",
			content:  "---\n---\nbody\n",
			reason:   "empty",
			wantBody: "body\n",
		},
		{
			name:     "duplicate key",
			content:  "---\nname: a\nname: b\n---\nbody\n",
			reason:   `duplicate key "name"`,
			wantBody: "body\n",
		},
		{
			name:     "empty document",
			content:  "",
			reason:   "missing opening",
			wantBody: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fm, body, _, err := ParseFrontmatter([]byte(tt.content))
			require.Error(t, err)
			assert.Nil(t, fm)

			var malformed *MalformedFrontmatterError
			require.True(t, errors.As(err, &malformed))
			assert.Contains(t, malformed.Error(), tt.reason)
			assert.Equal(t, tt.wantBody, string(body))
		})
	}
}

func TestFrontmatterValueKinds(t *testing.T) {
	content := `---
scalar: text
number: 3
empty:
nested:
  key: value
mixed:
  - ok
  - [inner]
---
`
	fm, _, _, err := ParseFrontmatter([]byte(content))
	require.NoError(t, err)

	tests := []struct {
		key   string
		kind  Kind
		shape string
	}{
		{"scalar", KindString, ""},
		{"number", KindString, ""},
		{"empty", KindInvalid, "null"},
		{"nested", KindInvalid, "mapping"},
		{"mixed", KindInvalid, "list containing list"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			v, ok := fm.Get(tt.key)
			require.True(t, ok)
			assert.Equal(t, tt.kind, v.Kind)
			assert.Equal(t, tt.shape, v.Shape)
		})
	}

	assert.Equal(t, "", fm.String("nested"))
	assert.Nil(t, fm.List("scalar"))
}

func TestParseVersion(t *testing.T) {
	v, err := ParseVersion("2.10.0")
	require.NoError(t, err)
	assert.Equal(t, Version{Major: 2, Minor: 10, Patch: 0}, v)
	assert.Equal(t, "2.10.0", v.String())

	for _, bad := range []string{"1.0", "v1.0.0", "1.0.0-beta", "1.-1.0", "", "1.0.0.0"} {
		_, err := ParseVersion(bad)
		assert.Error(t, err, bad)
	}
}
