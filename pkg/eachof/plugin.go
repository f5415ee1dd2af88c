package eachof

import (
	"errors"
	"fmt"
	"log/slog"
)

// DefaultName is the identity recorded in a host's registrations.
const DefaultName = "templates-each-of"

// ErrNilHost is returned when installing on a nil host.
var ErrNilHost = errors.New("eachof: host is nil")

// Option configures a Plugin.
type Option func(*options)

type options struct {
	name   string
	logger *slog.Logger
}

// WithLogger sets the logger used for install and iteration events.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithName overrides the identity recorded in host registrations.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// Plugin installs the eachOf capability on hosts whose entries are of type V.
type Plugin[V any] struct {
	name   string
	logger *slog.Logger
}

// New creates a plugin.
func New[V any](opts ...Option) *Plugin[V] {
	o := &options{name: DefaultName}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	return &Plugin[V]{name: o.name, logger: o.logger}
}

// Name returns the plugin identity.
func (p *Plugin[V]) Name() string { return p.name }

// Install detects the role of h and returns the matching capability.
//
// It returns nil, nil when the plugin is already registered on h or when
// h is a leaf. Otherwise it returns exactly one of *App, *Views, *Collection
// or *List.
func (p *Plugin[V]) Install(h Host) (Capability[V], error) {
	if h == nil {
		return nil, ErrNilHost
	}
	if !h.Registrations().Register(p.name) {
		p.logger.Debug("plugin already registered", "plugin", p.name, "host", fmt.Sprintf("%T", h))
		return nil, nil
	}

	role := Classify(h.Flags())
	switch role {
	case RoleLeaf:
		p.logger.Debug("skipping leaf host", "plugin", p.name, "host", fmt.Sprintf("%T", h))
		return nil, nil
	case RoleViews:
		c, err := p.views(h)
		if err != nil {
			return nil, err
		}
		return c, nil
	case RoleCollection:
		c, err := p.collection(h)
		if err != nil {
			return nil, err
		}
		return c, nil
	case RoleList:
		c, err := p.list(h)
		if err != nil {
			return nil, err
		}
		return c, nil
	case RoleApp:
		c, err := p.app(h)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("eachof: unhandled role %s", role)
	}
}

// InstallApp installs the application variant if h is flagged as an app.
func (p *Plugin[V]) InstallApp(h Host) (*App[V], error) {
	if !p.claim(h, h != nil && h.Flags().IsApp) {
		return nil, nil
	}
	return p.app(h)
}

// InstallViews installs the view collection variant if h is flagged as views.
func (p *Plugin[V]) InstallViews(h Host) (*Views[V], error) {
	if !p.claim(h, h != nil && h.Flags().IsViews) {
		return nil, nil
	}
	return p.views(h)
}

// InstallCollection installs the collection variant if h is a collection
// that is neither a list nor a view collection.
func (p *Plugin[V]) InstallCollection(h Host) (*Collection[V], error) {
	ok := false
	if h != nil {
		f := h.Flags()
		ok = f.IsCollection && !f.IsList && !f.IsViews
	}
	if !p.claim(h, ok) {
		return nil, nil
	}
	return p.collection(h)
}

// InstallList installs the list variant if h is flagged as a list.
func (p *Plugin[V]) InstallList(h Host) (*List[V], error) {
	if !p.claim(h, h != nil && h.Flags().IsList) {
		return nil, nil
	}
	return p.list(h)
}

// claim registers the plugin on h when the role matches.
func (p *Plugin[V]) claim(h Host, matches bool) bool {
	if !matches {
		return false
	}
	if !h.Registrations().Register(p.name) {
		p.logger.Debug("plugin already registered", "plugin", p.name, "host", fmt.Sprintf("%T", h))
		return false
	}
	return true
}

func (p *Plugin[V]) app(h Host) (*App[V], error) {
	host, ok := h.(AppHost[V])
	if !ok {
		return nil, &HostError{Role: RoleApp, Host: fmt.Sprintf("%T", h), Want: "AppHost"}
	}
	p.installed(h, RoleApp)
	return &App[V]{host: host, logger: p.logger}, nil
}

func (p *Plugin[V]) views(h Host) (*Views[V], error) {
	host, ok := h.(ViewsHost[V])
	if !ok {
		return nil, &HostError{Role: RoleViews, Host: fmt.Sprintf("%T", h), Want: "ViewsHost"}
	}
	p.installed(h, RoleViews)
	return &Views[V]{host: host, logger: p.logger}, nil
}

func (p *Plugin[V]) collection(h Host) (*Collection[V], error) {
	host, ok := h.(ItemsHost[V])
	if !ok {
		return nil, &HostError{Role: RoleCollection, Host: fmt.Sprintf("%T", h), Want: "ItemsHost"}
	}
	p.installed(h, RoleCollection)
	return &Collection[V]{host: host, logger: p.logger}, nil
}

func (p *Plugin[V]) list(h Host) (*List[V], error) {
	host, ok := h.(ItemsHost[V])
	if !ok {
		return nil, &HostError{Role: RoleList, Host: fmt.Sprintf("%T", h), Want: "ItemsHost"}
	}
	p.installed(h, RoleList)
	return &List[V]{host: host, logger: p.logger}, nil
}

func (p *Plugin[V]) installed(h Host, role Role) {
	p.logger.Debug("installed eachOf", "plugin", p.name, "role", role.String(), "host", fmt.Sprintf("%T", h))
}
