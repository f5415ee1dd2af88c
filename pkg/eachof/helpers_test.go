package eachof

import (
	"fmt"

	"github.com/leapstack-labs/eachof/pkg/core"
	"github.com/leapstack-labs/eachof/pkg/ordered"
)

type entry struct {
	id   string
	body string
}

func (e *entry) ItemKey() string { return e.id }

type baseHost struct {
	flags core.Flags
	regs  *core.Registrations
}

func (h *baseHost) Flags() core.Flags                   { return h.flags }
func (h *baseHost) Registrations() *core.Registrations { return h.regs }

func newBase(flags core.Flags) baseHost {
	return baseHost{flags: flags, regs: core.NewRegistrations()}
}

type testApp struct {
	baseHost
	collections map[string]*ordered.Map[*entry]
}

func newTestApp() *testApp {
	return &testApp{
		baseHost:    newBase(core.Flags{IsApp: true}),
		collections: make(map[string]*ordered.Map[*entry]),
	}
}

func (a *testApp) create(name string, keys ...string) {
	views := ordered.New[*entry]()
	for _, k := range keys {
		views.Set(k, &entry{id: k, body: "this is " + k})
	}
	a.collections[name] = views
}

func (a *testApp) GetViews(name string) (*ordered.Map[*entry], error) {
	if views, ok := a.collections[name]; ok {
		return views, nil
	}
	return nil, fmt.Errorf("getViews cannot find collection: %s", name)
}

type testViews struct {
	baseHost
	plural string
	views  *ordered.Map[*entry]
}

func newTestViews(plural string, keys ...string) *testViews {
	v := &testViews{
		baseHost: newBase(core.Flags{IsViews: true, IsCollection: true}),
		plural:   plural,
		views:    ordered.New[*entry](),
	}
	for _, k := range keys {
		v.views.Set(k, &entry{id: k})
	}
	return v
}

func (v *testViews) Views() *ordered.Map[*entry] { return v.views }
func (v *testViews) Plural() string              { return v.plural }

type testItems struct {
	baseHost
	items *ordered.Map[*entry]
}

func newTestCollection(keys ...string) *testItems {
	c := &testItems{
		baseHost: newBase(core.Flags{IsCollection: true}),
		items:    ordered.New[*entry](),
	}
	for _, k := range keys {
		c.items.Set(k, &entry{id: k})
	}
	return c
}

// newTestList stores entries under positional keys "0", "1", ...
func newTestList(ids ...string) *testItems {
	l := &testItems{
		baseHost: newBase(core.Flags{IsCollection: true, IsList: true}),
		items:    ordered.New[*entry](),
	}
	for i, id := range ids {
		l.items.Set(fmt.Sprint(i), &entry{id: id})
	}
	return l
}

func (c *testItems) Items() *ordered.Map[*entry] { return c.items }

// recorder collects every callback invocation.
type recorder struct {
	calls int
	err   error
}

func (r *recorder) callback(err error) {
	r.calls++
	r.err = err
}

func noopIterator(_ *entry, _ string, next Next) { next(nil) }

func mapOf(keys ...string) *ordered.Map[*entry] {
	m := ordered.New[*entry]()
	for _, k := range keys {
		m.Set(k, &entry{id: k})
	}
	return m
}
