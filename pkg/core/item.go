package core

// Item is a single named entry of a view collection, generic collection or list.
type Item struct {
	// Key is the item's own identity, e.g. "about.md".
	// Lists may store an item under a different (positional) key.
	Key string

	// Path is the source file the item was loaded from, if any.
	Path string

	// Content is the item body with any frontmatter removed.
	Content string

	// Layout names the layout used to render the item.
	Layout string

	// Tags from frontmatter.
	Tags []string

	// Data holds the remaining frontmatter fields.
	Data map[string]any
}

// NewItem creates an item with the given key and content.
func NewItem(key, content string) *Item {
	return &Item{
		Key:     key,
		Content: content,
		Data:    make(map[string]any),
	}
}

// ItemKey returns the item's self-describing key.
func (i *Item) ItemKey() string { return i.Key }
