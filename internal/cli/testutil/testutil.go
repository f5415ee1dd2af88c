// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/leapstack-labs/eachof/internal/cli/output"
)

// ProjectConfig is the eachof.yaml written by SetupTestProject.
const ProjectConfig = `collections:
  - name: pages
  - name: partials
    kind: collection
  - name: nav
    kind: list
    dir: content/nav
`

// SetupTestProject creates a temporary project with three collections:
// pages (views: aaa, bbb, ccc), partials (collection) and nav (list).
func SetupTestProject(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	files := map[string]string{
		"eachof.yaml":              ProjectConfig,
		"pages/aaa.md":             "---\ntitle: Alpha\ntags: [intro]\n---\nthis is aaa",
		"pages/bbb.md":             "---\ntitle: Bravo\n---\nthis is bbb",
		"pages/ccc.md":             "this is ccc",
		"partials/header.hbs":      "<header/>",
		"content/nav/1-home.md":    "---\nkey: home\n---\n",
		"content/nav/2-about.md":   "---\nkey: about\n---\n",
		"scripts/titles.star":      "def each(view, key):\n    return view.data.get(\"title\", key)\n",
		"scripts/skip_bravo.star":  "def each(view, key):\n    if view.data.get(\"title\") == \"Bravo\":\n        return False\n    return key\n",
		"scripts/fail_on_bbb.star": "def each(view, key):\n    if key == \"bbb.md\":\n        fail(\"bbb is broken\")\n    return key\n",
	}

	for rel, content := range files {
		WriteFile(t, filepath.Join(root, filepath.FromSlash(rel)), content)
	}
	return root
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		t.Fatalf("failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// TestRenderer wraps a Renderer for testing with captured output buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a new test renderer with the specified mode and TTY state.
func NewTestRenderer(mode output.OutputMode, isTTY bool) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRendererWithTTY(out, errOut, isTTY, mode),
		Out:      out,
		ErrOut:   errOut,
	}
}

// Output returns the stdout output as a string.
func (tr *TestRenderer) Output() string {
	return tr.Out.String()
}

// ErrorOutput returns the stderr output as a string.
func (tr *TestRenderer) ErrorOutput() string {
	return tr.ErrOut.String()
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// AssertOrder checks that every item of want appears in s, in order.
func AssertOrder(t *testing.T, s string, want ...string) {
	t.Helper()
	pos := 0
	for _, w := range want {
		i := strings.Index(s[pos:], w)
		if i < 0 {
			t.Errorf("expected %q after offset %d in:\n%s", w, pos, s)
			return
		}
		pos += i + len(w)
	}
}
