package capture

import (
	"context"
	"fmt"
	"time"

	"github.com/tidwall/gjson"

	"github.com/hazyhaar/viewcap/viewcap/internal/page"
)

// surfaceAttr tags the canvas picked by the scan script so it can be
// queried back as an element handle.
const surfaceAttr = "data-viewcap-surface"

const firstSurfaceCSS = "canvas"

const scanSurfaceCSS = "canvas[" + surfaceAttr + "]"

const scanSurfaceScript = `(arg) => {
	const vw = window.innerWidth || document.documentElement.clientWidth;
	const vh = window.innerHeight || document.documentElement.clientHeight;
	const all = Array.from(document.querySelectorAll('canvas'));
	all.forEach((c) => c.removeAttribute(arg.attr));
	for (const c of all) {
		const st = window.getComputedStyle(c);
		if (st.display === 'none' || st.visibility === 'hidden' || parseFloat(st.opacity) === 0) continue;
		const r = c.getBoundingClientRect();
		if (r.width <= 0 || r.height <= 0) continue;
		if (r.bottom <= 0 || r.right <= 0 || r.top >= vh || r.left >= vw) continue;
		c.setAttribute(arg.attr, '1');
		return {found: true, width: Math.round(r.width), height: Math.round(r.height)};
	}
	return {found: false, candidates: all.length};
}`

func (c *Capturer) findSurface(ctx context.Context, drv page.Driver) (page.Element, string, error) {
	if c.cfg.Surface == SurfaceScan {
		if err := c.waitSurface(ctx, drv); err != nil {
			return nil, "", err
		}
		el, err := firstElement(ctx, drv, scanSurfaceCSS)
		return el, scanSurfaceCSS, err
	}
	el, err := firstElement(ctx, drv, firstSurfaceCSS)
	return el, firstSurfaceCSS, err
}

func firstElement(ctx context.Context, drv page.Driver, css string) (page.Element, error) {
	els, err := drv.Query(ctx, page.Selector{By: page.ByCSS, Value: css})
	if err != nil {
		return nil, fmt.Errorf("%w: query %s: %v", ErrCaptureFailed, css, err)
	}
	if len(els) == 0 {
		return nil, fmt.Errorf("%w: no %s in page", ErrCaptureFailed, css)
	}
	return els[0], nil
}

// waitSurface polls the scan script until a canvas qualifies or the
// surface timeout elapses.
func (c *Capturer) waitSurface(ctx context.Context, drv page.Driver) error {
	deadline := time.NewTimer(c.cfg.SurfaceTimeout)
	defer deadline.Stop()
	tick := time.NewTicker(c.cfg.PollInterval)
	defer tick.Stop()

	arg := map[string]any{"attr": surfaceAttr}
	for attempt := 1; ; attempt++ {
		res, err := drv.Eval(ctx, scanSurfaceScript, arg)
		switch {
		case err != nil:
			c.logger.Debug("capture: surface scan failed", "attempt", attempt, "error", err)
		case gjson.Get(res, "found").Bool():
			c.logger.Debug("capture: surface found", "attempt", attempt,
				"width", gjson.Get(res, "width").Int(), "height", gjson.Get(res, "height").Int())
			return nil
		default:
			c.logger.Debug("capture: no qualifying surface yet", "attempt", attempt,
				"candidates", gjson.Get(res, "candidates").Int())
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return fmt.Errorf("%w after %s", ErrCaptureTimeout, c.cfg.SurfaceTimeout)
		case <-tick.C:
		}
	}
}
