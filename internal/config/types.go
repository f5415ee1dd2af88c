// Package config provides shared configuration types for eachof.
// This package is decoupled from CLI concerns and can be used by the loader
// and other tools that need to read project configuration.
package config

import (
	"fmt"
	"strings"
)

// Collection kinds.
const (
	KindViews      = "views"
	KindCollection = "collection"
	KindList       = "list"
)

// CollectionConfig describes one collection of a project.
type CollectionConfig struct {
	// Name is the plural collection name, e.g. "pages"
	Name string `koanf:"name"`

	// Singular overrides the derived singular name
	Singular string `koanf:"singular"`

	// Dir is the directory holding the collection's files (default: Name)
	Dir string `koanf:"dir"`

	// Kind is one of: views, collection, list (default: views)
	Kind string `koanf:"kind"`

	// Extensions lists the file extensions loaded as items
	Extensions []string `koanf:"extensions"`
}

// Validate checks if the collection configuration is valid.
func (c *CollectionConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("collection name is required")
	}
	switch strings.ToLower(c.Kind) {
	case "", KindViews, KindCollection, KindList:
		return nil
	default:
		return fmt.Errorf("collection %s: invalid kind %q, must be one of: views, collection, list", c.Name, c.Kind)
	}
}

// ProjectConfig holds the project configuration needed by the loader.
// This is a subset of the full CLI Config.
type ProjectConfig struct {
	Collections []CollectionConfig `koanf:"collections"`
	Concurrency int                `koanf:"concurrency"`
}

// Collection returns the configuration of the named collection.
func (c *ProjectConfig) Collection(name string) (*CollectionConfig, bool) {
	for i := range c.Collections {
		if strings.EqualFold(c.Collections[i].Name, name) {
			return &c.Collections[i], true
		}
	}
	return nil, false
}

// Validate checks every collection and rejects duplicate names.
func (c *ProjectConfig) Validate() error {
	seen := make(map[string]bool, len(c.Collections))
	for i := range c.Collections {
		coll := &c.Collections[i]
		if err := coll.Validate(); err != nil {
			return err
		}
		key := strings.ToLower(coll.Name)
		if seen[key] {
			return fmt.Errorf("collection %s is defined more than once", coll.Name)
		}
		seen[key] = true
	}
	return nil
}
