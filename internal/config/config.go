// Package config loads the slidedeck configuration from a YAML file and
// SLIDEDECK_ environment overrides.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/gabrielmiguelok/slidedeck/pkg/core"
	"github.com/gabrielmiguelok/slidedeck/pkg/slides"
)

// EnvPrefix prefixes environment overrides. A double underscore separates
// nesting levels: SLIDEDECK_LOG__LEVEL=debug sets log.level.
const EnvPrefix = "SLIDEDECK_"

// Config is the top-level configuration, corresponding to slidedeck.yml.
type Config struct {
	Server core.Config `koanf:"server"`
	Log    LogConfig   `koanf:"log"`
	Site   SiteConfig  `koanf:"site"`
}

// LogConfig selects the log level and format.
type LogConfig struct {
	Level string `koanf:"level"`
	JSON  bool   `koanf:"json"`
}

// SiteConfig describes the page and its sections.
type SiteConfig struct {
	Title       string          `koanf:"title"`
	Description string          `koanf:"description"`
	Language    string          `koanf:"language"`
	ContentDir  string          `koanf:"content_dir"`
	Default     string          `koanf:"default"`
	Sections    []SectionConfig `koanf:"sections"`

	// MaxRuntimeSections caps the sections one connection may add with
	// the add_section event. Replacing an existing section does not count.
	MaxRuntimeSections int `koanf:"max_runtime_sections"`
}

// Bounds for SiteConfig.MaxRuntimeSections.
const (
	DefaultMaxRuntimeSections = 16
	MaxRuntimeSectionsLimit   = 256
)

// SectionConfig binds a section name to its container id and content file.
type SectionConfig struct {
	Name  string `koanf:"name"`
	ID    string `koanf:"id"`
	Title string `koanf:"title"`
	File  string `koanf:"file"`
}

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("accessing config %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	cfg.applyDefaults()

	return cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Default returns the built-in configuration: the six sections of the
// original page, each read from <id>.md in ./content.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// DefaultSections returns one section per built-in name.
func DefaultSections() []SectionConfig {
	out := make([]SectionConfig, 0, len(slides.DefaultOrder))
	for _, name := range slides.DefaultOrder {
		id := strings.ToLower(name.String())
		out = append(out, SectionConfig{
			Name:  name.String(),
			ID:    id,
			Title: strings.ToUpper(id[:1]) + id[1:],
			File:  id + ".md",
		})
	}
	return out
}

// applyDefaults fills every unset field. Sections are replaced as a whole
// so a file listing two sections does not inherit the other four.
func (c *Config) applyDefaults() {
	def := core.DefaultConfig()
	s := &c.Server
	if s.Address == "" {
		s.Address = def.Address
	}
	if s.MaxMessageSize == 0 {
		s.MaxMessageSize = def.MaxMessageSize
	}
	if s.MaxConnections == 0 {
		s.MaxConnections = def.MaxConnections
	}

	l, dl := &s.Limits, def.Limits
	if l.ConnectionsPerIP == 0 {
		l.ConnectionsPerIP = dl.ConnectionsPerIP
	}
	if l.EventRate == 0 {
		l.EventRate = dl.EventRate
	}
	if l.EventBurst == 0 {
		l.EventBurst = dl.EventBurst
	}

	t, dt := &s.Timeouts, def.Timeouts
	if t.ComponentMount == 0 {
		t.ComponentMount = dt.ComponentMount
	}
	if t.ComponentEvent == 0 {
		t.ComponentEvent = dt.ComponentEvent
	}
	if t.WebSocketRead == 0 {
		t.WebSocketRead = dt.WebSocketRead
	}
	if t.WebSocketWrite == 0 {
		t.WebSocketWrite = dt.WebSocketWrite
	}
	if t.SessionCleanup == 0 {
		t.SessionCleanup = dt.SessionCleanup
	}
	if t.GracefulShutdown == 0 {
		t.GracefulShutdown = dt.GracefulShutdown
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	if c.Site.Title == "" {
		c.Site.Title = "Slidedeck"
	}
	if c.Site.ContentDir == "" {
		c.Site.ContentDir = "content"
	}
	if len(c.Site.Sections) == 0 {
		c.Site.Sections = DefaultSections()
	}
	if c.Site.Default == "" {
		c.Site.Default = slides.DefaultSection.String()
	}
	if c.Site.MaxRuntimeSections == 0 {
		c.Site.MaxRuntimeSections = DefaultMaxRuntimeSections
	}
	for i := range c.Site.Sections {
		sec := &c.Site.Sections[i]
		if sec.ID == "" {
			sec.ID = strings.ToLower(strings.TrimSpace(sec.Name))
		}
		if sec.Title == "" {
			sec.Title = strings.TrimSpace(sec.Name)
		}
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log.level %q: must be one of debug, info, warn, error", c.Log.Level)
	}

	if len(c.Site.Sections) == 0 {
		return ErrNoSections
	}
	if n := c.Site.MaxRuntimeSections; n < 1 || n > MaxRuntimeSectionsLimit {
		return fmt.Errorf("site.max_runtime_sections %d: %w", n, ErrRuntimeSections)
	}

	names := make(map[slides.Name]bool, len(c.Site.Sections))
	ids := make(map[string]bool, len(c.Site.Sections))
	for i, sec := range c.Site.Sections {
		name := slides.Normalize(sec.Name)
		if name == "" {
			return fmt.Errorf("site.sections[%d]: %w", i, ErrSectionName)
		}
		if names[name] {
			return fmt.Errorf("site.sections[%d]: duplicate section %q", i, name)
		}
		if ids[sec.ID] {
			return fmt.Errorf("site.sections[%d]: duplicate id %q", i, sec.ID)
		}
		names[name] = true
		ids[sec.ID] = true
	}

	if !names[slides.Normalize(c.Site.Default)] {
		return fmt.Errorf("site.default %q: %w", c.Site.Default, ErrUnknownDefault)
	}
	return nil
}

// Names returns the configured section names in order.
func (s SiteConfig) Names() []slides.Name {
	out := make([]slides.Name, 0, len(s.Sections))
	for _, sec := range s.Sections {
		out = append(out, slides.Normalize(sec.Name))
	}
	return out
}

// Configuration errors.
var (
	ErrNoSections      = configError("site.sections must not be empty")
	ErrSectionName     = configError("section name is required")
	ErrUnknownDefault  = configError("default section is not declared")
	ErrRuntimeSections = configError(fmt.Sprintf("must be between 1 and %d", MaxRuntimeSectionsLimit))
)

type configError string

func (e configError) Error() string { return string(e) }
