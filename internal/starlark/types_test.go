package starlark

import (
	"testing"
	"time"

	"github.com/leapstack-labs/eachof/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
)

func TestGoToStarlark(t *testing.T) {
	tests := []struct {
		name    string
		input   any
		wantStr string
	}{
		{name: "string", input: "hello", wantStr: `"hello"`},
		{name: "int", input: 42, wantStr: "42"},
		{name: "int64", input: int64(123456789), wantStr: "123456789"},
		{name: "uint64", input: uint64(7), wantStr: "7"},
		{name: "float64", input: 3.5, wantStr: "3.5"},
		{name: "bool", input: true, wantStr: "True"},
		{name: "nil", input: nil, wantStr: "None"},
		{name: "string slice", input: []string{"a", "b"}, wantStr: `["a", "b"]`},
		{name: "any slice", input: []any{"x", 1, false}, wantStr: `["x", 1, False]`},
		{name: "map sorted", input: map[string]any{"b": 2, "a": 1}, wantStr: `{"a": 1, "b": 2}`},
		{
			name:    "time",
			input:   time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
			wantStr: `"2024-03-01T12:00:00Z"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GoToStarlark(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStr, got.String())
		})
	}
}

func TestGoToStarlark_Unsupported(t *testing.T) {
	_, err := GoToStarlark(map[string]any{"ch": make(chan int)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `dict key "ch"`)
	assert.Contains(t, err.Error(), "unsupported type: chan int")
}

func TestToGo(t *testing.T) {
	dict := starlark.NewDict(2)
	require.NoError(t, dict.SetKey(starlark.String("n"), starlark.MakeInt(3)))
	require.NoError(t, dict.SetKey(starlark.String("list"), starlark.NewList([]starlark.Value{starlark.String("x")})))

	tests := []struct {
		name  string
		input starlark.Value
		want  any
	}{
		{name: "none", input: starlark.None, want: nil},
		{name: "string", input: starlark.String("s"), want: "s"},
		{name: "int", input: starlark.MakeInt(5), want: int64(5)},
		{name: "float", input: starlark.Float(1.5), want: 1.5},
		{name: "bool", input: starlark.True, want: true},
		{name: "tuple", input: starlark.Tuple{starlark.MakeInt(1), starlark.String("a")}, want: []any{int64(1), "a"}},
		{name: "dict", input: dict, want: map[string]any{"n": int64(3), "list": []any{"x"}}},
		{
			name:  "struct",
			input: starlarkstruct.FromStringDict(starlark.String("s"), starlark.StringDict{"a": starlark.String("b")}),
			want:  map[string]any{"a": "b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToGo(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToGo_NonStringKey(t *testing.T) {
	dict := starlark.NewDict(1)
	require.NoError(t, dict.SetKey(starlark.MakeInt(1), starlark.None))

	_, err := ToGo(dict)
	assert.ErrorContains(t, err, "dict key must be string")
}

func TestItemToStarlark(t *testing.T) {
	item := &core.Item{
		Key:     "about",
		Path:    "about.md",
		Content: "body",
		Layout:  "default",
		Tags:    []string{"a"},
		Data:    map[string]any{"title": "About"},
	}

	v, err := ItemToStarlark(item)
	require.NoError(t, err)

	s, ok := v.(*starlarkstruct.Struct)
	require.True(t, ok)

	for field, want := range map[string]string{
		"key":     `"about"`,
		"path":    `"about.md"`,
		"content": `"body"`,
		"layout":  `"default"`,
		"tags":    `["a"]`,
		"data":    `{"title": "About"}`,
	} {
		got, err := s.Attr(field)
		require.NoError(t, err, field)
		assert.Equal(t, want, got.String(), field)
	}
}

func TestItemToStarlark_Empty(t *testing.T) {
	v, err := ItemToStarlark(core.NewItem("k", ""))
	require.NoError(t, err)

	s := v.(*starlarkstruct.Struct)
	data, _ := s.Attr("data")
	tags, _ := s.Attr("tags")
	assert.Equal(t, "{}", data.String())
	assert.Equal(t, "[]", tags.String())

	none, err := ItemToStarlark(nil)
	require.NoError(t, err)
	assert.Equal(t, starlark.None, none)
}
