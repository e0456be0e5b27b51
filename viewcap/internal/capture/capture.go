// Package capture rasterizes the page the viewer currently renders.
//
// One Capture call hides the viewer chrome, finds the rendering surface,
// optionally pins it to a fixed pixel size, screenshots it to a PNG file
// and optionally crops the surrounding background away.
package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/tidwall/gjson"

	"github.com/hazyhaar/viewcap/viewcap/internal/locate"
	"github.com/hazyhaar/viewcap/viewcap/internal/page"
)

// ErrCaptureFailed means the rendering surface could not be found or
// captured. The viewer structure has likely changed and the run stops.
var ErrCaptureFailed = errors.New("capture: rendering surface not captured")

// ErrCaptureTimeout is returned by the scanning surface finder when no
// qualifying canvas appears in time. It matches ErrCaptureFailed.
var ErrCaptureTimeout = fmt.Errorf("%w: timed out waiting for a visible surface", ErrCaptureFailed)

// SurfaceMode selects how the rendering surface is found.
type SurfaceMode string

const (
	// SurfaceFirst takes the first canvas in the document.
	SurfaceFirst SurfaceMode = "first"
	// SurfaceScan polls for the first visible, on-screen, non-empty canvas.
	SurfaceScan SurfaceMode = "scan"
)

// Config configures a Capturer.
type Config struct {
	// Toolbar identifies the viewer chrome hidden before each capture.
	Toolbar     locate.IdentifierSet
	HideToolbar bool

	Surface SurfaceMode
	// SurfaceTimeout bounds the scan for a surface. Default: 10s.
	SurfaceTimeout time.Duration
	// PollInterval is the scan period. Default: 250ms.
	PollInterval time.Duration

	// Normalize pins the surface to Width x Height CSS pixels with no
	// transform while the screenshot is taken. Zero sizes use the canvas
	// backing-store size.
	Normalize bool
	Width     int
	Height    int

	// Crop trims background-coloured margins from the PNG.
	Crop          bool
	CropTolerance int

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.Surface == "" {
		c.Surface = SurfaceFirst
	}
	if c.SurfaceTimeout <= 0 {
		c.SurfaceTimeout = 10 * time.Second
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 250 * time.Millisecond
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Capturer captures pages for one traversal run.
type Capturer struct {
	cfg    Config
	logger *slog.Logger

	toolbarWarned bool
}

// New returns a Capturer. Create one per run.
func New(cfg Config) *Capturer {
	cfg.defaults()
	return &Capturer{cfg: cfg, logger: cfg.Logger}
}

// Capture writes the current page as a PNG at path.
func (c *Capturer) Capture(ctx context.Context, drv page.Driver, index int, path string) error {
	if c.cfg.HideToolbar {
		c.hideToolbar(ctx, drv)
	}

	surface, css, err := c.findSurface(ctx, drv)
	if err != nil {
		return fmt.Errorf("page %d: %w", index, err)
	}

	if c.cfg.Normalize {
		restore, err := normalize(ctx, drv, css, c.cfg.Width, c.cfg.Height)
		if err != nil {
			c.logger.Warn("capture: scale normalisation failed, capturing at viewer scale",
				"page", index, "error", err)
		} else {
			defer func() {
				if err := restore(); err != nil {
					c.logger.Warn("capture: restore surface style failed", "page", index, "error", err)
				}
			}()
		}
	}

	data, err := surface.Screenshot(ctx)
	if err != nil {
		return fmt.Errorf("%w: page %d: screenshot: %v", ErrCaptureFailed, index, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: page %d: write %s: %v", ErrCaptureFailed, index, path, err)
	}

	if c.cfg.Crop {
		if err := cropFile(path, c.cfg.CropTolerance); err != nil {
			c.logger.Warn("capture: crop failed, keeping full image", "page", index, "error", err)
		}
	}

	c.logger.Debug("capture: page written", "page", index, "path", path, "bytes", len(data))
	return nil
}

const hideToolbarScript = `(cls) => {
	const el = document.getElementsByClassName(cls)[0];
	if (!el) return false;
	el.style.visibility = 'hidden';
	return true;
}`

// hideToolbar is best effort: a visible toolbar only costs fidelity.
func (c *Capturer) hideToolbar(ctx context.Context, drv page.Driver) {
	for _, cls := range c.cfg.Toolbar {
		res, err := drv.Eval(ctx, hideToolbarScript, cls)
		if err != nil {
			c.logger.Debug("capture: toolbar probe failed", "identifier", cls, "error", err)
			continue
		}
		if gjson.Parse(res).Bool() {
			c.logger.Debug("capture: toolbar hidden", "identifier", cls)
			return
		}
		c.logger.Debug("capture: toolbar not found", "identifier", cls)
	}

	if c.toolbarWarned {
		c.logger.Debug("capture: toolbar still not found")
		return
	}
	c.toolbarWarned = true
	c.logger.Warn("capture: toolbar not found, screenshots may include it; update identifiers.toolbar",
		"identifiers", []string(c.cfg.Toolbar))
}
