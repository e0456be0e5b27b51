package capture

import (
	"context"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/hazyhaar/viewcap/viewcap/internal/page"
)

// styleProps are the inline properties normalisation overrides.
var styleProps = []string{"width", "height", "transform", "position"}

const normalizeScript = `(arg) => {
	const el = document.querySelector(arg.selector);
	if (!el) return null;
	const saved = {};
	for (const p of arg.props) saved[p] = el.style[p] || '';
	const w = arg.width || el.width;
	const h = arg.height || el.height;
	el.style.width = w + 'px';
	el.style.height = h + 'px';
	el.style.transform = 'none';
	el.style.position = 'static';
	return saved;
}`

const restoreScript = `(arg) => {
	const el = document.querySelector(arg.selector);
	if (!el) return false;
	for (const [p, v] of Object.entries(arg.saved)) el.style[p] = v;
	return true;
}`

// normalize pins the surface matched by css to a fixed pixel size and
// returns a func that puts the recorded inline styles back. The restore
// func must run whether or not the capture succeeds.
func normalize(ctx context.Context, drv page.Driver, css string, width, height int) (func() error, error) {
	res, err := drv.Eval(ctx, normalizeScript, map[string]any{
		"selector": css,
		"props":    styleProps,
		"width":    width,
		"height":   height,
	})
	if err != nil {
		return nil, fmt.Errorf("capture: normalize: %w", err)
	}
	parsed := gjson.Parse(res)
	if !parsed.IsObject() {
		return nil, errors.New("capture: normalize: surface vanished")
	}

	saved := make(map[string]string, len(styleProps))
	for _, p := range styleProps {
		saved[p] = parsed.Get(p).String()
	}

	restoreCtx := context.WithoutCancel(ctx)
	return func() error {
		res, err := drv.Eval(restoreCtx, restoreScript, map[string]any{
			"selector": css,
			"saved":    saved,
		})
		if err != nil {
			return fmt.Errorf("capture: restore: %w", err)
		}
		if !gjson.Parse(res).Bool() {
			return errors.New("capture: restore: surface vanished")
		}
		return nil
	}, nil
}
