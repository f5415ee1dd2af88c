package ordered

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMap_InsertionOrder(t *testing.T) {
	m := New[int]()
	m.Set("ccc", 3)
	m.Set("aaa", 1)
	m.Set("bbb", 2)

	assert.Equal(t, []string{"ccc", "aaa", "bbb"}, m.Keys())
	assert.Equal(t, 3, m.Len())

	key, value := m.At(1)
	assert.Equal(t, "aaa", key)
	assert.Equal(t, 1, value)
}

func TestMap_SetExistingKeepsPosition(t *testing.T) {
	m := New[string]()
	m.Set("a", "first")
	m.Set("b", "second")
	m.Set("a", "replaced")

	assert.Equal(t, []string{"a", "b"}, m.Keys())
	got, ok := m.Get("a")
	require.True(t, ok)
	assert.Equal(t, "replaced", got)
}

func TestMap_Delete(t *testing.T) {
	m := New[int]()
	m.Set("a", 1)
	m.Set("b", 2)
	m.Set("c", 3)

	assert.True(t, m.Delete("b"))
	assert.False(t, m.Delete("b"), "second delete should report missing key")
	assert.False(t, m.Has("b"))
	assert.Equal(t, []string{"a", "c"}, m.Keys())
}

func TestMap_KeysIsCopy(t *testing.T) {
	m := New[int]()
	m.Set("a", 1)

	keys := m.Keys()
	keys[0] = "mutated"

	assert.Equal(t, []string{"a"}, m.Keys())
}

func TestMap_Nil(t *testing.T) {
	var m *Map[int]
	assert.Equal(t, 0, m.Len())
	assert.Nil(t, m.Keys())
}
