package starlark

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/eachof/internal/testutil"
	"github.com/leapstack-labs/eachof/pkg/core"
	"github.com/leapstack-labs/eachof/pkg/eachof"
	"github.com/leapstack-labs/eachof/pkg/ordered"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func viewsOf(keys ...string) *ordered.Map[*core.Item] {
	m := ordered.New[*core.Item]()
	for _, k := range keys {
		item := core.NewItem(k, "this is "+k)
		item.Data["title"] = "Title " + k
		m.Set(k, item)
	}
	return m
}

// run iterates views with script and returns the collected results and the
// final callback error.
func run(t *testing.T, s *Script, views *ordered.Map[*core.Item]) ([]Result, error) {
	t.Helper()
	var results []Result
	var final error
	called := 0
	eachof.EachOf(views, s.Iterator(func(r Result) {
		results = append(results, r)
	}), func(err error) {
		called++
		final = err
	})
	require.Equal(t, 1, called, "callback must run exactly once")
	return results, final
}

func TestScript_CollectsInOrder(t *testing.T) {
	s, err := Load("title.star", []byte(`
def each(view, key):
    return key + "=" + view.data["title"]
`))
	require.NoError(t, err)

	results, err := run(t, s, viewsOf("aaa", "bbb", "ccc"))
	require.NoError(t, err)

	require.Len(t, results, 3)
	assert.Equal(t, Result{Key: "aaa", Value: "aaa=Title aaa"}, results[0])
	assert.Equal(t, Result{Key: "bbb", Value: "bbb=Title bbb"}, results[1])
	assert.Equal(t, Result{Key: "ccc", Value: "ccc=Title ccc"}, results[2])
}

func TestScript_FalseSkips(t *testing.T) {
	s, err := Load("skip.star", []byte(`
def each(view, key):
    if key == "bbb":
        return False
    return None
`))
	require.NoError(t, err)

	results, err := run(t, s, viewsOf("aaa", "bbb", "ccc"))
	require.NoError(t, err)

	require.Len(t, results, 3)
	assert.False(t, results[0].Skipped)
	assert.Nil(t, results[0].Value)
	assert.True(t, results[1].Skipped)
	assert.False(t, results[2].Skipped)
}

func TestScript_FailHalts(t *testing.T) {
	s, err := Load("fail.star", []byte(`
def each(view, key):
    if key == "bbb":
        fail("bad view: " + key)
    return key
`))
	require.NoError(t, err)

	results, err := run(t, s, viewsOf("aaa", "bbb", "ccc"))
	require.Error(t, err)

	var se *ScriptError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "bbb", se.Key)
	assert.Equal(t, "fail.star", se.File)
	assert.Contains(t, err.Error(), "bad view: bbb")

	require.Len(t, results, 1, "entries after the failure are never visited")
	assert.Equal(t, "aaa", results[0].Key)
}

func TestScript_RuntimeError(t *testing.T) {
	s, err := Load("div.star", []byte(`
def each(view, key):
    return 1 // 0
`))
	require.NoError(t, err)

	_, err = run(t, s, viewsOf("aaa"))
	assert.ErrorContains(t, err, "division by zero")
}

func TestScript_LoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr string
	}{
		{name: "syntax error", src: "def each(:\n", wantErr: "syntax.star"},
		{name: "missing each", src: "x = 1\n", wantErr: "does not define a callable each"},
		{name: "each not callable", src: "each = 3\n", wantErr: "does not define a callable each"},
		{name: "top level error", src: "fail('boom')\n", wantErr: "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load("syntax.star", []byte(tt.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	_, err := Load("x.star", []byte("x = 1\n"))
	assert.ErrorIs(t, err, ErrNoEntryPoint)
}

func TestScript_Globals(t *testing.T) {
	capture := testutil.NewLogCapture(t)
	s, err := Load("globals.star", []byte(`
def each(view, key):
    log("visiting " + key, level="debug")
    return struct(env=env, site=vars["site"], tags=view.tags)
`), WithEnv("prod"), WithVars(map[string]any{"site": "docs"}), WithLogger(capture.Logger))
	require.NoError(t, err)

	results, err := run(t, s, viewsOf("aaa"))
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, map[string]any{"env": "prod", "site": "docs", "tags": []any{}}, results[0].Value)
	assert.True(t, capture.Contains("visiting aaa"))
}

func TestScript_LogUnknownLevel(t *testing.T) {
	s, err := Load("log.star", []byte(`
def each(view, key):
    log("x", level="loud")
`))
	require.NoError(t, err)

	_, err = run(t, s, viewsOf("aaa"))
	assert.ErrorContains(t, err, `unknown level "loud"`)
}

func TestScript_GlobalsFrozen(t *testing.T) {
	s, err := Load("frozen.star", []byte(`
seen = []
def each(view, key):
    seen.append(key)
`))
	require.NoError(t, err)

	_, err = run(t, s, viewsOf("aaa"))
	assert.ErrorContains(t, err, "frozen")
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "each.star")
	require.NoError(t, os.WriteFile(path, []byte("def each(view, key):\n    return view.content\n"), 0600))

	s, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, s.File())

	v, err := s.Call(core.NewItem("k", "hello"), "k")
	require.NoError(t, err)
	assert.Equal(t, `"hello"`, v.String())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.star"))
	assert.ErrorContains(t, err, "failed to read script")
}
