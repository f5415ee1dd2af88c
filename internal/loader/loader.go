package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/leapstack-labs/eachof/internal/app"
	"github.com/leapstack-labs/eachof/internal/config"
	"github.com/leapstack-labs/eachof/pkg/core"
	"github.com/leapstack-labs/eachof/pkg/eachof"
	"golang.org/x/sync/errgroup"
)

// Project is the set of hosts built from a project directory.
type Project struct {
	// App owns every collection of kind "views".
	App *app.App

	hosts map[string]eachof.Host
	dirs  map[string]string
	kinds map[string]string
	names []string
}

// Host returns the host built for the named collection.
func (p *Project) Host(name string) (eachof.Host, error) {
	for _, n := range p.names {
		if strings.EqualFold(n, name) {
			return p.hosts[n], nil
		}
	}
	if views, err := p.App.Collection(name); err == nil {
		return views, nil
	}
	return nil, fmt.Errorf("unknown collection %q", name)
}

// Kind returns the configured kind of the named collection.
func (p *Project) Kind(name string) string {
	for _, n := range p.names {
		if strings.EqualFold(n, name) {
			return p.kinds[n]
		}
	}
	return ""
}

// Dir returns the absolute directory of the named collection.
func (p *Project) Dir(name string) string {
	for _, n := range p.names {
		if strings.EqualFold(n, name) {
			return p.dirs[n]
		}
	}
	return ""
}

// Names returns collection names in configuration order.
func (p *Project) Names() []string {
	return append([]string(nil), p.names...)
}

// Loader reads collections from disk.
type Loader struct {
	root   string
	cfg    *config.ProjectConfig
	logger *slog.Logger
}

// New creates a loader for the project rooted at root.
func New(root string, cfg *config.ProjectConfig, logger *slog.Logger) *Loader {
	if cfg == nil {
		cfg = &config.ProjectConfig{}
	}
	config.ApplyDefaults(cfg)
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loader{root: root, cfg: cfg, logger: logger}
}

// Load builds a Project with every configured collection.
func (l *Loader) Load(ctx context.Context) (*Project, error) {
	if err := l.cfg.Validate(); err != nil {
		return nil, err
	}

	p := &Project{
		App:   app.New(app.WithLogger(l.logger)),
		hosts: make(map[string]eachof.Host),
		dirs:  make(map[string]string),
		kinds: make(map[string]string),
	}

	for i := range l.cfg.Collections {
		cc := &l.cfg.Collections[i]
		items, err := l.LoadItems(ctx, cc)
		if err != nil {
			return nil, err
		}

		host, err := l.buildHost(p.App, cc, items)
		if err != nil {
			return nil, err
		}

		p.hosts[cc.Name] = host
		p.dirs[cc.Name] = l.dir(cc)
		p.kinds[cc.Name] = strings.ToLower(cc.Kind)
		p.names = append(p.names, cc.Name)

		l.logger.Debug("loaded collection", "name", cc.Name, "kind", cc.Kind, "items", len(items))
	}

	return p, nil
}

func (l *Loader) buildHost(a *app.App, cc *config.CollectionConfig, items []*core.Item) (eachof.Host, error) {
	switch strings.ToLower(cc.Kind) {
	case config.KindCollection:
		c := app.NewCollection()
		for _, item := range items {
			c.AddItem(item.Path, item)
		}
		return c, nil
	case config.KindList:
		list := app.NewList()
		for _, item := range items {
			list.AddItem(item)
		}
		return list, nil
	default:
		var opts []app.ViewsOption
		if cc.Singular != "" {
			opts = append(opts, app.WithSingular(cc.Singular))
		}
		views, err := a.Create(cc.Name, opts...)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			views.AddView(item.Path, item)
		}
		return views, nil
	}
}

func (l *Loader) dir(cc *config.CollectionConfig) string {
	if filepath.IsAbs(cc.Dir) {
		return cc.Dir
	}
	return filepath.Join(l.root, cc.Dir)
}

// LoadItems reads every matching file of a collection, sorted by relative
// path. Item.Path is the slash-separated path relative to the collection
// directory. A missing directory yields no items.
func (l *Loader) LoadItems(ctx context.Context, cc *config.CollectionConfig) ([]*core.Item, error) {
	dir := l.dir(cc)

	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			l.logger.Debug("collection directory does not exist", "name", cc.Name, "dir", dir)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to access %s directory: %w", cc.Name, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s path is not a directory: %s", cc.Name, dir)
	}

	paths, err := l.scan(dir, cc.Extensions)
	if err != nil {
		return nil, err
	}

	items := make([]*core.Item, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.cfg.Concurrency)

	for i, rel := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			item, err := readItem(filepath.Join(dir, filepath.FromSlash(rel)), rel)
			if err != nil {
				return err
			}
			items[i] = item
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return items, nil
}

// scan returns matching files below dir as sorted slash-separated paths.
func (l *Loader) scan(dir string, extensions []string) ([]string, error) {
	allowed := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		allowed[strings.ToLower(ext)] = true
	}

	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !allowed[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}

	sort.Strings(paths)
	return paths, nil
}

// readItem reads one file into an item.
func readItem(path, rel string) (*core.Item, error) {
	content, err := os.ReadFile(path) //nolint:gosec // G304: path comes from WalkDir within the collection directory
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", rel, err)
	}

	result, err := ExtractFrontmatter(string(content))
	if err != nil {
		var fpe *FrontmatterParseError
		if errors.As(err, &fpe) {
			fpe.File = rel
		}
		return nil, err
	}

	fm := result.Frontmatter
	item := &core.Item{
		Key:     rel,
		Path:    rel,
		Content: result.Body,
		Layout:  fm.Layout,
		Tags:    fm.Tags,
		Data:    fm.Data,
	}
	if fm.Key != "" {
		item.Key = fm.Key
	}
	return item, nil
}
