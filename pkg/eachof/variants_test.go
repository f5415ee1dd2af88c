package eachof

import (
	"errors"
	"testing"

	"github.com/leapstack-labs/eachof/pkg/core"
	"github.com/leapstack-labs/eachof/pkg/ordered"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// install returns the capability for host, failing the test otherwise.
func install(t *testing.T, host Host) Capability[*entry] {
	t.Helper()
	c, err := New[*entry]().Install(host)
	require.NoError(t, err)
	require.NotNil(t, c)
	return c
}

func TestVariants_MissingCallbackPanics(t *testing.T) {
	tests := []struct {
		name string
		host Host
		want string
	}{
		{"app", newTestApp(), "app.eachOf is async and expects a callback function"},
		{"views", newTestViews("pages"), "app.pages.eachOf is async and expects a callback function"},
		{"collection", newTestCollection(), "collection.eachOf is async and expects a callback function"},
		{"list", newTestList(), "list.eachOf is async and expects a callback function"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := install(t, tt.host)
			assert.PanicsWithError(t, tt.want, func() {
				Call(c, "foo", noopIterator, nil)
			})
		})
	}
}

func TestVariants_MissingIteratorReportsThroughCallback(t *testing.T) {
	tests := []struct {
		name string
		host Host
		want string
	}{
		{"app", newTestApp(), "app.eachOf is async and expects an iterator function"},
		{"views", newTestViews("pages"), "app.pages.eachOf is async and expects an iterator function"},
		{"collection", newTestCollection(), "collection.eachOf is async and expects an iterator function"},
		{"list", newTestList(), "list.eachOf is async and expects an iterator function"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := install(t, tt.host)
			rec := &recorder{}

			assert.NotPanics(t, func() {
				Call[*entry](c, "pages", nil, rec.callback)
			})

			assert.Equal(t, 1, rec.calls)
			require.Error(t, rec.err)
			assert.Equal(t, tt.want, rec.err.Error())
			assert.ErrorIs(t, rec.err, ErrMissingIterator)
		})
	}
}

func TestApp_EmptyNameIsLookedUp(t *testing.T) {
	app := install(t, newTestApp()).(*App[*entry])
	rec := &recorder{}
	calls := 0

	app.EachOf("", func(_ *entry, _ string, next Next) {
		calls++
		next(nil)
	}, rec.callback)

	assert.Equal(t, 0, calls)
	assert.Equal(t, 1, rec.calls)
	require.Error(t, rec.err)
	assert.Equal(t, "getViews cannot find collection: ", rec.err.Error())
	assert.NotErrorIs(t, rec.err, ErrInvalidName)
}

func TestApp_IteratorCheckedBeforeName(t *testing.T) {
	app := install(t, newTestApp()).(*App[*entry])
	rec := &recorder{}

	app.EachOf("", nil, rec.callback)

	assert.ErrorIs(t, rec.err, ErrMissingIterator)
}

func TestApp_UnknownCollection(t *testing.T) {
	app := install(t, newTestApp()).(*App[*entry])
	rec := &recorder{}
	calls := 0

	app.EachOf("pages", func(_ *entry, _ string, next Next) {
		calls++
		next(nil)
	}, rec.callback)

	assert.Equal(t, 0, calls)
	assert.Equal(t, 1, rec.calls)
	require.Error(t, rec.err)
	assert.Equal(t, "getViews cannot find collection: pages", rec.err.Error())
}

type panickyApp struct {
	baseHost
	value any
}

func (a *panickyApp) GetViews(string) (*ordered.Map[*entry], error) {
	panic(a.value)
}

func TestApp_LookupPanicIsReported(t *testing.T) {
	boom := errors.New("getViews cannot find collection: posts")

	t.Run("error value", func(t *testing.T) {
		host := &panickyApp{baseHost: newBase(core.Flags{IsApp: true}), value: boom}
		app := install(t, host).(*App[*entry])
		rec := &recorder{}

		assert.NotPanics(t, func() {
			app.EachOf("posts", noopIterator, rec.callback)
		})
		assert.Equal(t, 1, rec.calls)
		assert.Same(t, boom, rec.err)
	})

	t.Run("non-error value", func(t *testing.T) {
		host := &panickyApp{baseHost: newBase(core.Flags{IsApp: true}), value: "no such collection"}
		app := install(t, host).(*App[*entry])
		rec := &recorder{}

		app.EachOf("posts", noopIterator, rec.callback)

		var panicErr *LookupPanicError
		require.ErrorAs(t, rec.err, &panicErr)
		assert.Equal(t, "posts", panicErr.Name)
		assert.Equal(t, "no such collection", panicErr.Value)
	})
}

func TestVariants_IterateInOrder(t *testing.T) {
	keys := []string{"aaa", "bbb", "ccc"}

	appHost := newTestApp()
	appHost.create("pages", keys...)

	tests := []struct {
		name string
		host Host
	}{
		{"app", appHost},
		{"views", newTestViews("pages", keys...)},
		{"collection", newTestCollection(keys...)},
		{"list", newTestList(keys...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := install(t, tt.host)
			rec := &recorder{}
			var visited []string
			count := 0

			Call(c, "pages", func(_ *entry, key string, next Next) {
				count++
				visited = append(visited, key)
				next(nil)
			}, rec.callback)

			assert.Equal(t, 1, rec.calls)
			assert.NoError(t, rec.err)
			assert.Equal(t, 3, count)
			assert.Equal(t, keys, visited)
		})
	}
}

func TestVariants_WorkerErrorHalts(t *testing.T) {
	keys := []string{"aaa", "bbb", "ccc"}
	appHost := newTestApp()
	appHost.create("pages", keys...)

	for _, host := range []Host{appHost, newTestViews("pages", keys...), newTestCollection(keys...), newTestList(keys...)} {
		c := install(t, host)
		boom := errors.New("render failed")
		rec := &recorder{}
		count := 0

		Call(c, "pages", func(_ *entry, _ string, next Next) {
			count++
			if count == 2 {
				next(boom)
				return
			}
			next(nil)
		}, rec.callback)

		assert.Equal(t, 2, count, c.Method())
		assert.Equal(t, 1, rec.calls, c.Method())
		assert.Same(t, boom, rec.err, c.Method())
	}
}

func TestList_PassesSelfKey(t *testing.T) {
	list := newTestList("home.md", "about.md", "contact.md")
	require.Equal(t, []string{"0", "1", "2"}, list.Items().Keys())

	c := install(t, list).(*List[*entry])
	rec := &recorder{}
	var keys []string

	c.EachOf(func(value *entry, key string, next Next) {
		assert.Equal(t, value.id, key)
		keys = append(keys, key)
		next(nil)
	}, rec.callback)

	require.NoError(t, rec.err)
	assert.Equal(t, []string{"home.md", "about.md", "contact.md"}, keys)
}

type stringList struct {
	baseHost
	items *ordered.Map[string]
}

func (l *stringList) Items() *ordered.Map[string] { return l.items }

func TestList_EntryWithoutSelfKey(t *testing.T) {
	items := ordered.New[string]()
	items.Set("0", "plain")
	host := &stringList{baseHost: newBase(core.Flags{IsCollection: true, IsList: true}), items: items}

	c, err := New[string]().InstallList(host)
	require.NoError(t, err)
	require.NotNil(t, c)

	rec := &recorder{}
	calls := 0
	c.EachOf(func(_ string, _ string, next Next) {
		calls++
		next(nil)
	}, rec.callback)

	assert.Equal(t, 0, calls)
	var keyErr *EntryKeyError
	require.ErrorAs(t, rec.err, &keyErr)
	assert.Equal(t, "0", keyErr.StorageKey)
	assert.Equal(t, "string", keyErr.Type)
}

func TestViews_MethodUsesCurrentPlural(t *testing.T) {
	host := newTestViews("pages")
	c := install(t, host)
	assert.Equal(t, "app.pages.eachOf", c.Method())

	host.plural = "posts"
	assert.Equal(t, "app.posts.eachOf", c.Method())
}

func TestUsageError_Is(t *testing.T) {
	err := newUsageError("app.eachOf", MissingCallback)
	assert.ErrorIs(t, err, ErrMissingCallback)
	assert.NotErrorIs(t, err, ErrMissingIterator)
	assert.NotErrorIs(t, err, ErrInvalidName)
}
