package tocsync

import (
	"github.com/hazyhaar/pagetoc/tocsync/internal/config"
)

// Config is the top-level pagetoc configuration. Re-exported from internal.
type Config = config.Config

// BrowserConfig controls Chrome lifecycle.
type BrowserConfig = config.BrowserConfig

// PageConfig defines the document the overlay is attached to.
type PageConfig = config.PageConfig

// TimingConfig holds the settle and debounce delays of the sync loop.
type TimingConfig = config.TimingConfig

// OverlayConfig controls presentation details.
type OverlayConfig = config.OverlayConfig

// PrefsConfig selects where corner and collapsed state persist.
type PrefsConfig = config.PrefsConfig

// ServerConfig enables the local control API.
type ServerConfig = config.ServerConfig

// LoadConfigFile reads a YAML configuration file.
func LoadConfigFile(path string) (*Config, error) {
	return config.LoadFile(path)
}

// DefaultConfig returns a configuration with every default applied.
func DefaultConfig() *Config {
	return config.Default()
}
