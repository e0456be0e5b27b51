// Package config holds viewcap configuration: built-in defaults, an
// optional YAML file, then environment overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level viewcap configuration.
type Config struct {
	Browser     BrowserConfig    `yaml:"browser"`
	Identifiers IdentifierConfig `yaml:"identifiers"`
	Capture     CaptureConfig    `yaml:"capture"`
	Output      OutputConfig     `yaml:"output"`
	Journal     JournalConfig    `yaml:"journal"`
	Log         LogConfig        `yaml:"log"`
}

// BrowserConfig selects and launches the browser.
type BrowserConfig struct {
	Name        string `yaml:"name"` // chrome | firefox
	ProfileDir  string `yaml:"profile_dir"`
	ProfileName string `yaml:"profile_name"` // chrome only
	Remote      string `yaml:"remote"`       // DevTools websocket URL, chrome only
	Bin         string `yaml:"bin"`
	XvfbDisplay string `yaml:"xvfb_display"` // run headful inside Xvfb when set
	Headless    bool   `yaml:"headless"`

	NavigateTimeout time.Duration `yaml:"navigate_timeout"`
}

// IdentifierConfig lists, per viewer target, the identifiers to try in
// order. Each list replaces the default list as a whole.
type IdentifierConfig struct {
	TotalPages []string `yaml:"total_pages"`
	FileName   []string `yaml:"file_name"`
	Toolbar    []string `yaml:"toolbar"`
	NextPage   []string `yaml:"next_page"`
}

// CaptureConfig tunes the capture loop.
type CaptureConfig struct {
	StartupDelay   time.Duration   `yaml:"startup_delay"`
	SettleDelay    time.Duration   `yaml:"settle_delay"`
	HideToolbar    bool            `yaml:"hide_toolbar"`
	Surface        string          `yaml:"surface"` // first | scan
	SurfaceTimeout time.Duration   `yaml:"surface_timeout"`
	PollInterval   time.Duration   `yaml:"poll_interval"`
	Normalize      NormalizeConfig `yaml:"normalize"`
	Crop           CropConfig      `yaml:"crop"`
}

// NormalizeConfig pins the surface size during screenshots.
type NormalizeConfig struct {
	Enabled bool `yaml:"enabled"`
	Width   int  `yaml:"width"`
	Height  int  `yaml:"height"`
}

// CropConfig trims background margins from captures.
type CropConfig struct {
	Enabled   bool `yaml:"enabled"`
	Tolerance int  `yaml:"tolerance"`
}

// OutputConfig controls the produced files.
type OutputConfig struct {
	File       string `yaml:"file"`
	KeepImages bool   `yaml:"keep_images"`
}

// JournalConfig points at the SQLite run journal. Empty path disables it.
type JournalConfig struct {
	Path string `yaml:"path"`
}

// LogConfig controls the optional rotating log file.
type LogConfig struct {
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	Format     string `yaml:"format"` // text | json
}

// Default returns the built-in configuration, tuned for the OneDrive viewer.
func Default() *Config {
	return &Config{
		Browser: BrowserConfig{
			Name:            "chrome",
			NavigateTimeout: 60 * time.Second,
		},
		Identifiers: IdentifierConfig{
			TotalPages: []string{"status_5a88b9b2"},
			FileName:   []string{"OneUpNonInteractiveCommandNewDesign_156f96ef"},
			Toolbar:    []string{"root_5a88b9b2"},
			NextPage:   []string{"Vai alla pagina successiva.", "Go to the next page."},
		},
		Capture: CaptureConfig{
			StartupDelay:   2 * time.Second,
			SettleDelay:    5 * time.Second,
			HideToolbar:    true,
			Surface:        "first",
			SurfaceTimeout: 10 * time.Second,
			PollInterval:   250 * time.Millisecond,
			Crop:           CropConfig{Tolerance: 8},
		},
		Log: LogConfig{
			MaxSizeMB:  10,
			MaxBackups: 3,
			Format:     "text",
		},
	}
}

// Load reads a YAML file over the defaults. An empty path returns the
// defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks values Load and ApplyEnv cannot fix up.
func (c *Config) Validate() error {
	switch c.Browser.Name {
	case "chrome", "firefox":
	default:
		return fmt.Errorf("config: browser.name %q: want chrome or firefox", c.Browser.Name)
	}
	if c.Browser.ProfileName != "" && c.Browser.ProfileDir == "" {
		return fmt.Errorf("config: browser.profile_name needs browser.profile_dir")
	}
	if len(c.Identifiers.NextPage) == 0 {
		return fmt.Errorf("config: identifiers.next_page is empty")
	}
	switch c.Capture.Surface {
	case "first", "scan":
	default:
		return fmt.Errorf("config: capture.surface %q: want first or scan", c.Capture.Surface)
	}
	if c.Capture.SettleDelay < 0 || c.Capture.StartupDelay < 0 {
		return fmt.Errorf("config: capture delays must not be negative")
	}
	if c.Capture.Crop.Tolerance < 0 || c.Capture.Crop.Tolerance > 255 {
		return fmt.Errorf("config: capture.crop.tolerance %d: want 0-255", c.Capture.Crop.Tolerance)
	}
	if c.Capture.Normalize.Width < 0 || c.Capture.Normalize.Height < 0 {
		return fmt.Errorf("config: capture.normalize sizes must not be negative")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("config: log.format %q: want text or json", c.Log.Format)
	}
	return nil
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
