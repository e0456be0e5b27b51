// Package traverse walks a paginated viewer page by page: capture the
// current page, press the viewer's own next control, repeat until the
// document ends or the viewer stops cooperating.
//
// The loop favours partial results. Running out of next controls ends the
// run early without error; a capture failure ends it with an error, but the
// frames captured before it are still returned.
package traverse

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"time"

	"github.com/hazyhaar/viewcap/viewcap/internal/locate"
	"github.com/hazyhaar/viewcap/viewcap/internal/page"
	"github.com/hazyhaar/viewcap/viewcap/internal/prompt"
)

// Frame is one captured page image.
type Frame struct {
	Index int
	Path  string
}

// StopReason says why a run ended.
type StopReason string

const (
	StopCompleted     StopReason = "completed"
	StopNoMoreAdvance StopReason = "no_more_advance"
	StopCaptureFailed StopReason = "capture_failed"
	StopCancelled     StopReason = "cancelled"
)

// Result is the outcome of a traversal run. Frames are ordered by Index,
// contiguous from 1.
type Result struct {
	Total    int
	Frames   []Frame
	Stop     StopReason
	Advances int
}

// Capturer captures the current page to path.
type Capturer interface {
	Capture(ctx context.Context, drv page.Driver, index int, path string) error
}

// Config configures a Traverser.
type Config struct {
	// Counter identifies the total-page counter (class lookup).
	Counter locate.IdentifierSet
	// NextPage identifies the next-page control (label lookup).
	NextPage locate.IdentifierSet

	// SettleDelay is waited before each capture. The viewer exposes no
	// rendered signal, so this is a fixed, empirically tuned pause.
	SettleDelay time.Duration

	// Prompter answers when the counter cannot be read.
	Prompter prompt.Prompter

	// OnFrame, when set, is called after each captured frame.
	OnFrame func(f Frame, total int)

	Logger *slog.Logger
}

// Traverser runs traversals against one session at a time.
type Traverser struct {
	cfg     Config
	loc     *locate.Locator
	capture Capturer
	logger  *slog.Logger
}

// New returns a Traverser capturing pages with c.
func New(cfg Config, c Capturer) *Traverser {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Traverser{
		cfg:     cfg,
		loc:     locate.New(cfg.Logger),
		capture: c,
		logger:  cfg.Logger,
	}
}

// Run captures up to total pages into dir as <index>.png. The returned
// Result is never nil and holds every frame captured before the stop.
func (t *Traverser) Run(ctx context.Context, drv page.Driver, total int, dir string) (*Result, error) {
	res := &Result{Total: total}
	if total <= 0 {
		return res, fmt.Errorf("traverse: invalid page count %d", total)
	}

	for index := 1; ; {
		if err := Sleep(ctx, t.cfg.SettleDelay); err != nil {
			res.Stop = StopCancelled
			return res, err
		}

		path := filepath.Join(dir, strconv.Itoa(index)+".png")
		if err := t.capture.Capture(ctx, drv, index, path); err != nil {
			if ctx.Err() != nil {
				res.Stop = StopCancelled
				return res, ctx.Err()
			}
			res.Stop = StopCaptureFailed
			t.logger.Error("traverse: capture failed, stopping; frames so far are kept",
				"page", index, "total", total, "captured", len(res.Frames), "error", err)
			return res, fmt.Errorf("traverse: page %d of %d: %w", index, total, err)
		}

		f := Frame{Index: index, Path: path}
		res.Frames = append(res.Frames, f)
		t.logger.Info("traverse: page exported", "page", index, "total", total)
		if t.cfg.OnFrame != nil {
			t.cfg.OnFrame(f, total)
		}

		index++
		if index > total {
			res.Stop = StopCompleted
			return res, nil
		}

		if err := t.Advance(ctx, drv); err != nil {
			if ctx.Err() != nil {
				res.Stop = StopCancelled
				return res, ctx.Err()
			}
			res.Stop = StopNoMoreAdvance
			t.logger.Warn("traverse: next page control unavailable, saving the pages captured so far; "+
				"identifiers.next_page may be stale or the page was slow to render",
				"captured", len(res.Frames), "total", total, "error", err)
			return res, nil
		}
		res.Advances++
	}
}

// Sleep waits for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
