package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/geoskills/skillcheck/pkg/skills/skilltest"
	"github.com/rogpeppe/go-internal/testscript"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	testscript.Main(m, map[string]func(){
		"skillcheck": main,
	})
}

func TestScripts(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir: filepath.Join("testdata", "script"),
		Setup: func(env *testscript.Env) error {
			env.Setenv("NO_COLOR", "1")
			return nil
		},
		Cmds: map[string]func(ts *testscript.TestScript, neg bool, args []string){
			"mkrepo":  cmdMkrepo,
			"mkskill": cmdMkskill,
		},
	})
}

// mkrepo dir id...
// writes a consistent repository holding the given skills
func cmdMkrepo(ts *testscript.TestScript, neg bool, args []string) {
	if neg || len(args) < 1 {
		ts.Fatalf("usage: mkrepo dir id...")
	}
	root := ts.MkAbs(args[0])
	for rel, content := range skilltest.RepoFiles(args[1:]...) {
		writeScriptFile(ts, filepath.Join(root, filepath.FromSlash(rel)), content)
	}
}

// mkskill dir id lines
// overwrites one skill with a valid document of the given body length
func cmdMkskill(ts *testscript.TestScript, neg bool, args []string) {
	if neg || len(args) != 3 {
		ts.Fatalf("usage: mkskill dir id lines")
	}
	lines, err := strconv.Atoi(args[2])
	ts.Check(err)

	b := skilltest.New(args[1])
	b.BodyLines = lines
	writeScriptFile(ts, filepath.Join(ts.MkAbs(args[0]), "skills", args[1], "SKILL.md"), b.String())
}

func writeScriptFile(ts *testscript.TestScript, path, content string) {
	ts.Check(os.MkdirAll(filepath.Dir(path), 0o755))
	ts.Check(os.WriteFile(path, []byte(content), 0o644))
}

func TestExecuteExitCodes(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, root string)
		args  []string
		code  int
	}{
		{"consistent repository", func(*testing.T, string) {}, nil, exitOK},
		{"warnings only", func(t *testing.T, root string) {
			b := skilltest.New("xarray")
			b.BodyLines = 350
			skilltest.WriteSkill(t, filepath.Join(root, "skills"), "xarray", b.String())
		}, nil, exitOK},
		{"failing skill", func(t *testing.T, root string) {
			b := skilltest.New("xarray")
			b.BodyLines = 600
			skilltest.WriteSkill(t, filepath.Join(root, "skills"), "xarray", b.String())
		}, nil, exitFailed},
		{"missing manifest", func(t *testing.T, root string) {
			require.NoError(t, os.RemoveAll(filepath.Join(root, ".claude-plugin")))
		}, nil, exitFatal},
		{"invalid format", func(*testing.T, string) {}, []string{"--format", "yaml"}, exitFatal},
		{"unknown flag", func(*testing.T, string) {}, []string{"--no-such-flag"}, exitFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := skilltest.Repo(t, "obspy", "xarray")
			tt.setup(t, root)

			var stdout, stderr bytes.Buffer
			args := append([]string{"validate", root}, tt.args...)
			code := execute(context.Background(), args, &stdout, &stderr)
			assert.Equal(t, tt.code, code, "stdout:\n%s\nstderr:\n%s", stdout.String(), stderr.String())
		})
	}
}

func TestExecuteJSONAndOutputFile(t *testing.T) {
	root := skilltest.Repo(t, "obspy", "xarray")
	out := filepath.Join(t.TempDir(), "report.json")

	var stdout, stderr bytes.Buffer
	code := execute(context.Background(), []string{"--format", "json", "--output", out, root}, &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())

	var printed map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &printed))
	assert.Equal(t, "PASS", printed["status"])

	written, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.JSONEq(t, stdout.String(), string(written))
}

func TestExecuteConfigFile(t *testing.T) {
	root := skilltest.Repo(t, "xarray")
	b := skilltest.New("xarray")
	b.Tags = b.Tags[:2]
	skilltest.WriteSkill(t, filepath.Join(root, "skills"), "xarray", b.String())

	var stdout, stderr bytes.Buffer
	require.Equal(t, exitOK, execute(context.Background(), []string{root}, &stdout, &stderr))

	skilltest.WriteFile(t, root, ".skillcheck.yaml", "rules:\n  tags:\n    severity: fail\n")
	stdout.Reset()
	assert.Equal(t, exitFailed, execute(context.Background(), []string{root}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "frontmatter.tags")
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		limit    int
		expected string
	}{
		{"short", "Work with xarray datasets", 60, "Work with xarray datasets"},
		{"exact", strings.Repeat("a", 10), 10, strings.Repeat("a", 10)},
		{"ascii cut", strings.Repeat("a", 12), 10, strings.Repeat("a", 7) + "..."},
		{"multibyte cut", strings.Repeat("é", 12), 10, strings.Repeat("é", 7) + "..."},
		{"mixed", "Séismes et données géophysiques", 12, "Séismes e..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.input, tt.limit)
			assert.Equal(t, tt.expected, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}
