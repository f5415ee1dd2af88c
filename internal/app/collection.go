package app

import (
	"strconv"

	"github.com/leapstack-labs/eachof/pkg/core"
	"github.com/leapstack-labs/eachof/pkg/ordered"
)

// Collection is a generic keyed collection of items.
type Collection struct {
	regs  *core.Registrations
	items *ordered.Map[*core.Item]
}

// NewCollection creates an empty collection.
func NewCollection() *Collection {
	return &Collection{
		regs:  core.NewRegistrations(),
		items: ordered.New[*core.Item](),
	}
}

// Flags implements the host surface.
func (c *Collection) Flags() core.Flags { return core.Flags{IsCollection: true} }

// Registrations returns the plugins applied to the collection.
func (c *Collection) Registrations() *core.Registrations { return c.regs }

// AddItem adds item under key. An empty item key is set to key.
func (c *Collection) AddItem(key string, item *core.Item) *core.Item {
	if item == nil {
		item = core.NewItem(key, "")
	}
	if item.Key == "" {
		item.Key = key
	}
	c.items.Set(key, item)
	return item
}

// Items returns the collection's items.
func (c *Collection) Items() *ordered.Map[*core.Item] { return c.items }

// List is an ordered list of items. Items are stored under their position
// ("0", "1", ...) and keep their own Key.
type List struct {
	regs  *core.Registrations
	items *ordered.Map[*core.Item]
}

// NewList creates an empty list.
func NewList() *List {
	return &List{
		regs:  core.NewRegistrations(),
		items: ordered.New[*core.Item](),
	}
}

// Flags implements the host surface.
func (l *List) Flags() core.Flags { return core.Flags{IsCollection: true, IsList: true} }

// Registrations returns the plugins applied to the list.
func (l *List) Registrations() *core.Registrations { return l.regs }

// AddItem appends item. The item must carry its own Key.
func (l *List) AddItem(item *core.Item) {
	l.items.Set(strconv.Itoa(l.items.Len()), item)
}

// AddList appends every view of a collection.
func (l *List) AddList(views *Views) {
	m := views.Views()
	for i := 0; i < m.Len(); i++ {
		_, view := m.At(i)
		l.AddItem(view)
	}
}

// Items returns the list's items keyed by position.
func (l *List) Items() *ordered.Map[*core.Item] { return l.items }

// Leaf wraps a single item or view as a host. Leaves hold nothing to
// iterate over.
type Leaf struct {
	*core.Item
	view bool
	regs *core.Registrations
}

// NewItemHost wraps item as an item host.
func NewItemHost(item *core.Item) *Leaf {
	return &Leaf{Item: item, regs: core.NewRegistrations()}
}

// NewViewHost wraps item as a view host.
func NewViewHost(item *core.Item) *Leaf {
	return &Leaf{Item: item, view: true, regs: core.NewRegistrations()}
}

// Flags implements the host surface.
func (l *Leaf) Flags() core.Flags { return core.Flags{IsItem: true, IsView: l.view} }

// Registrations returns the plugins applied to the leaf.
func (l *Leaf) Registrations() *core.Registrations { return l.regs }
