// Package config provides configuration management for the eachof CLI.
//
// It layers the shared project configuration from internal/config with
// CLI-specific fields: output format, install mode, verbosity and script
// variables.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	sharedcfg "github.com/leapstack-labs/eachof/internal/config"
)

// CollectionConfig is an alias for the shared collection configuration.
type CollectionConfig = sharedcfg.CollectionConfig

// Install modes accepted by --mode.
const (
	ModeAuto       = "auto"
	ModeApp        = "app"
	ModeViews      = "views"
	ModeCollection = "collection"
	ModeList       = "list"
)

// Modes lists the accepted --mode values.
var Modes = []string{ModeAuto, ModeApp, ModeViews, ModeCollection, ModeList}

// Config holds all CLI configuration options.
type Config struct {
	ProjectDir   string             `koanf:"project_dir"`
	Verbose      bool               `koanf:"verbose"`
	OutputFormat string             `koanf:"output"`
	Mode         string             `koanf:"mode"`
	Env          string             `koanf:"env"`
	Concurrency  int                `koanf:"concurrency"`
	Collections  []CollectionConfig `koanf:"collections"`
	Vars         map[string]any     `koanf:"vars"`
	Watch        WatchConfig        `koanf:"watch"`
	StatePath    string             `koanf:"state_path"`
	UI           UIConfig           `koanf:"ui"`

	// ProjectRoot is the resolved absolute project directory.
	ProjectRoot string `koanf:"-"`
}

// WatchConfig configures the watch command.
type WatchConfig struct {
	// DebounceMS delays reruns until changes settle
	DebounceMS int `koanf:"debounce_ms"`
}

// UIConfig configures the ui command.
type UIConfig struct {
	Port          int    `koanf:"port"`
	PollMS        int    `koanf:"poll_ms"`
	SessionSecret string `koanf:"session_secret"`
}

// Default configuration values.
const (
	DefaultEnv        = "dev"
	DefaultOutput     = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultMode       = ModeAuto
	DefaultDebounceMS = 200
	DefaultStateFile  = ".eachof/state.db"
	DefaultUIPort     = 8765
	DefaultUIPollMS   = 1000
)

// StateDisabled as state_path turns off run history.
const StateDisabled = "off"

// Project returns the loader configuration embedded in c.
func (c *Config) Project() *sharedcfg.ProjectConfig {
	pc := &sharedcfg.ProjectConfig{
		Collections: append([]CollectionConfig(nil), c.Collections...),
		Concurrency: c.Concurrency,
	}
	sharedcfg.ApplyDefaults(pc)
	return pc
}

// ResolveStatePath returns the absolute run history database path, or ""
// when history is disabled. Relative paths are resolved against the
// project root.
func (c *Config) ResolveStatePath() string {
	path := c.StatePath
	switch {
	case strings.EqualFold(path, StateDisabled):
		return ""
	case path == "":
		path = DefaultStateFile
	}
	if path == ":memory:" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.ProjectRoot, path)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	mode := strings.ToLower(c.Mode)
	valid := false
	for _, m := range Modes {
		if mode == m {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid mode %q, must be one of: %s", c.Mode, strings.Join(Modes, ", "))
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency must not be negative, got %d", c.Concurrency)
	}
	return c.Project().Validate()
}
