// Package browser opens the live browser sessions the capture core drives.
//
// Chrome is driven over DevTools with rod, Firefox through playwright.
// Both are launched headful by default: the operator logs in to the viewer
// in the opened window before the export starts.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hazyhaar/viewcap/viewcap/internal/page"
)

// ErrUnknownBrowser is returned by Open for an unsupported browser name.
var ErrUnknownBrowser = errors.New("browser: unknown browser")

// Session is a live page that can be navigated and closed.
type Session interface {
	page.Driver
	// Navigate loads url and waits for the load event.
	Navigate(ctx context.Context, url string) error
	// Close shuts the browser and any helper process down.
	Close() error
}

// Config configures Open.
type Config struct {
	// Name is "chrome" or "firefox". Default: chrome.
	Name string

	// ProfileDir is the browser user-data directory. Empty uses a fresh
	// temporary profile.
	ProfileDir string
	// ProfileName selects a profile inside ProfileDir. Chrome only.
	ProfileName string

	// RemoteURL is the DevTools WebSocket URL of an already running Chrome.
	// Empty launches a local one. Chrome only.
	RemoteURL string

	// Bin overrides the browser executable.
	Bin string

	// XvfbDisplay runs the browser headful inside an Xvfb display
	// (for example ":99"). Empty uses the current display.
	XvfbDisplay string

	Headless bool

	// NavigateTimeout bounds Navigate. Default: 60s.
	NavigateTimeout time.Duration

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.Name == "" {
		c.Name = "chrome"
	}
	if c.NavigateTimeout <= 0 {
		c.NavigateTimeout = 60 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Open launches the configured browser and returns a session on a blank page.
func Open(ctx context.Context, cfg Config) (Session, error) {
	cfg.defaults()

	var x *xvfb
	if cfg.XvfbDisplay != "" && cfg.RemoteURL == "" {
		x = &xvfb{display: cfg.XvfbDisplay, logger: cfg.Logger}
		if err := x.start(); err != nil {
			return nil, fmt.Errorf("browser: xvfb: %w", err)
		}
	}

	var (
		s   Session
		err error
	)
	switch cfg.Name {
	case "chrome":
		s, err = openChrome(ctx, cfg, x)
	case "firefox":
		s, err = openFirefox(ctx, cfg, x)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownBrowser, cfg.Name)
	}
	if err != nil {
		x.stop()
		return nil, err
	}
	return s, nil
}
