package commands

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/eachof/internal/cli/config"
	"github.com/leapstack-labs/eachof/internal/cli/output"
	"github.com/leapstack-labs/eachof/internal/loader"
	"github.com/leapstack-labs/eachof/internal/state"
	"github.com/leapstack-labs/eachof/pkg/core"
	"github.com/leapstack-labs/eachof/pkg/eachof"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Project  *loader.Project
	Renderer *output.Renderer
}

// NewCommandContext loads the project and creates a renderer.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	cc, err := NewCommandContextWithoutProject(cmd)
	if err != nil {
		return nil, err
	}
	if err := cc.Reload(cmd); err != nil {
		return nil, err
	}
	return cc, nil
}

// NewCommandContextWithoutProject creates a CommandContext without reading
// any collection from disk.
func NewCommandContextWithoutProject(cmd *cobra.Command) (*CommandContext, error) {
	cfg, ok := config.FromContext(cmd.Context())
	if !ok {
		var err error
		cfg, err = config.LoadConfig("", nil)
		if err != nil {
			return nil, err
		}
	}

	mode, err := output.ParseMode(cfg.OutputFormat)
	if err != nil {
		return nil, err
	}

	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode),
	}, nil
}

// Reload reads every collection from disk again.
func (c *CommandContext) Reload(cmd *cobra.Command) error {
	p, err := loader.New(c.Cfg.ProjectRoot, c.Cfg.Project(), c.Logger).Load(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load project: %w", err)
	}
	c.Project = p
	return nil
}

// ErrHistoryDisabled is returned by OpenStore when state_path is "off".
var ErrHistoryDisabled = errors.New("run history is disabled (state_path: off)")

// OpenStore opens the run history database.
func (c *CommandContext) OpenStore() (*state.SQLiteStore, error) {
	path := c.Cfg.ResolveStatePath()
	if path == "" {
		return nil, ErrHistoryDisabled
	}
	store := state.NewSQLiteStore(c.Logger)
	if err := store.Open(path); err != nil {
		return nil, fmt.Errorf("failed to open state database %s: %w", path, err)
	}
	return store, nil
}

// Capability installs eachof for the named collection according to the
// configured mode. It returns the capability and the name to pass to
// eachof.Call.
func (c *CommandContext) Capability(name string) (eachof.Capability[*core.Item], string, error) {
	return install(c.Project, name, c.Cfg.Mode, c.Logger)
}

func install(p *loader.Project, name, mode string, logger *slog.Logger) (eachof.Capability[*core.Item], string, error) {
	plugin := eachof.New[*core.Item](eachof.WithLogger(logger))

	if mode == config.ModeApp {
		if _, err := p.App.Collection(name); err != nil {
			return nil, "", fmt.Errorf("mode app requires a views collection: %w", err)
		}
		c, err := plugin.InstallApp(p.App)
		if err != nil {
			return nil, "", err
		}
		if c == nil {
			return nil, "", fmt.Errorf("eachOf is already installed on the app")
		}
		return c, name, nil
	}

	host, err := p.Host(name)
	if err != nil {
		return nil, "", err
	}

	var capability eachof.Capability[*core.Item]
	switch mode {
	case config.ModeViews:
		c, err := plugin.InstallViews(host)
		if err != nil {
			return nil, "", err
		}
		if c != nil {
			capability = c
		}
	case config.ModeCollection:
		c, err := plugin.InstallCollection(host)
		if err != nil {
			return nil, "", err
		}
		if c != nil {
			capability = c
		}
	case config.ModeList:
		c, err := plugin.InstallList(host)
		if err != nil {
			return nil, "", err
		}
		if c != nil {
			capability = c
		}
	default:
		capability, err = plugin.Install(host)
		if err != nil {
			return nil, "", err
		}
	}

	if capability == nil {
		return nil, "", fmt.Errorf("mode %q does not match collection %q (%s)",
			mode, name, eachof.Classify(host.Flags()))
	}
	return capability, name, nil
}

// iterate runs fn over the named collection and returns the callback error.
// Every host in this CLI completes synchronously, so the callback has run
// by the time Call returns.
func iterate(c eachof.Capability[*core.Item], name string, fn eachof.Iterator[*core.Item]) error {
	var result error
	done := false
	eachof.Call(c, name, fn, func(err error) {
		result = err
		done = true
	})
	if !done {
		return fmt.Errorf("%s did not complete", c.Method())
	}
	return result
}
