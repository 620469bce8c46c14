// CLAUDE:SUMMARY Defines pagetoc config structs and parses YAML configuration files with defaults.
// Package config handles pagetoc configuration from YAML files.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level pagetoc configuration.
type Config struct {
	Browser BrowserConfig `yaml:"browser"`
	Page    PageConfig    `yaml:"page"`
	Timing  TimingConfig  `yaml:"timing"`
	Overlay OverlayConfig `yaml:"overlay"`
	Prefs   PrefsConfig   `yaml:"prefs"`
	Server  ServerConfig  `yaml:"server"`
}

// BrowserConfig controls Chrome lifecycle.
type BrowserConfig struct {
	Remote  string `yaml:"remote"`  // existing DevTools websocket; empty launches one
	Mode    string `yaml:"mode"`    // headful | headless
	Stealth bool   `yaml:"stealth"` // apply go-rod/stealth evasions
}

// PageConfig defines the document the overlay is attached to.
type PageConfig struct {
	URL         string        `yaml:"url"`
	File        string        `yaml:"file"`
	LoadTimeout time.Duration `yaml:"load_timeout"`
}

// TimingConfig holds the settle and debounce delays of the sync loop.
type TimingConfig struct {
	ScrollDebounce time.Duration `yaml:"scroll_debounce"`
	HashSettle     time.Duration `yaml:"hash_settle"`
	InitialSeed    time.Duration `yaml:"initial_seed"`
	RebuildSettle  time.Duration `yaml:"rebuild_settle"`
}

// OverlayConfig controls presentation details.
type OverlayConfig struct {
	Title string `yaml:"title"`
}

// PrefsConfig selects where corner and collapsed state persist.
type PrefsConfig struct {
	Backend string `yaml:"backend"` // local | sqlite | memory
	DBPath  string `yaml:"db_path"`
	Scope   string `yaml:"scope"` // sqlite only; defaults to the page origin
}

// ServerConfig enables the local control API.
type ServerConfig struct {
	Addr string `yaml:"addr"`
	MCP  bool   `yaml:"mcp"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// LoadFile reads a YAML configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML configuration and applies defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Browser.Mode == "" {
		c.Browser.Mode = "headful"
	}
	if c.Page.LoadTimeout <= 0 {
		c.Page.LoadTimeout = 30 * time.Second
	}
	c.Timing.ApplyDefaults()
	if c.Overlay.Title == "" {
		c.Overlay.Title = "Contents"
	}
	if c.Prefs.Backend == "" {
		c.Prefs.Backend = "local"
	}
	if c.Prefs.Backend == "sqlite" && c.Prefs.DBPath == "" {
		c.Prefs.DBPath = "pagetoc.db"
	}
}

// ApplyDefaults fills unset delays.
func (t *TimingConfig) ApplyDefaults() {
	if t.ScrollDebounce <= 0 {
		t.ScrollDebounce = 50 * time.Millisecond
	}
	if t.HashSettle <= 0 {
		t.HashSettle = 100 * time.Millisecond
	}
	if t.InitialSeed <= 0 {
		t.InitialSeed = 500 * time.Millisecond
	}
	if t.RebuildSettle <= 0 {
		t.RebuildSettle = 100 * time.Millisecond
	}
}

func (c *Config) validate() error {
	switch c.Browser.Mode {
	case "headful", "headless":
	default:
		return fmt.Errorf("config: browser.mode %q: want headful or headless", c.Browser.Mode)
	}
	switch c.Prefs.Backend {
	case "local", "sqlite", "memory":
	default:
		return fmt.Errorf("config: prefs.backend %q: want local, sqlite or memory", c.Prefs.Backend)
	}
	return nil
}
