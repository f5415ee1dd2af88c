package config

// Default configuration values.
const (
	DefaultCollection  = "pages"
	DefaultConcurrency = 8
)

// DefaultExtensions are loaded when a collection does not list any.
var DefaultExtensions = []string{".md", ".html", ".hbs"}

// ApplyDefaults applies default values to a ProjectConfig.
func ApplyDefaults(c *ProjectConfig) {
	if c == nil {
		return
	}
	if len(c.Collections) == 0 {
		c.Collections = []CollectionConfig{{Name: DefaultCollection}}
	}
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConcurrency
	}
	for i := range c.Collections {
		ApplyCollectionDefaults(&c.Collections[i])
	}
}

// ApplyCollectionDefaults applies default values to a CollectionConfig.
func ApplyCollectionDefaults(c *CollectionConfig) {
	if c == nil {
		return
	}
	if c.Dir == "" {
		c.Dir = c.Name
	}
	if c.Kind == "" {
		c.Kind = KindViews
	}
	if len(c.Extensions) == 0 {
		c.Extensions = append([]string(nil), DefaultExtensions...)
	}
}
