package viewcap

import (
	"fmt"

	"github.com/hazyhaar/viewcap/viewcap/internal/config"
)

// Config is the top-level viewcap configuration. Re-exported from internal.
type Config = config.Config

// BrowserConfig selects and launches the browser.
type BrowserConfig = config.BrowserConfig

// IdentifierConfig lists the viewer identifiers tried in order.
type IdentifierConfig = config.IdentifierConfig

// CaptureConfig tunes the capture loop.
type CaptureConfig = config.CaptureConfig

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return config.Default()
}

// LoadConfig loads .env, the optional YAML file at path and VIEWCAP_*
// overrides, in that order. Callers apply flags and then Validate.
func LoadConfig(path string) (*Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ValidateConfig checks cfg after flags were applied.
func ValidateConfig(cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("viewcap: %w", err)
	}
	return nil
}
