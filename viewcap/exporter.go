// Package viewcap exports view-only paginated documents from a web viewer
// to PDF. It drives a logged-in browser through the viewer one page at a
// time, screenshots each rendered page and assembles the images into a
// single PDF.
//
// viewcap only presses the viewer's own next-page control and reads what
// it renders. It does not fetch document data directly.
package viewcap

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/hazyhaar/viewcap/viewcap/internal/assemble"
	"github.com/hazyhaar/viewcap/viewcap/internal/browser"
	"github.com/hazyhaar/viewcap/viewcap/internal/capture"
	"github.com/hazyhaar/viewcap/viewcap/internal/journal"
	"github.com/hazyhaar/viewcap/viewcap/internal/locate"
	"github.com/hazyhaar/viewcap/viewcap/internal/page"
	"github.com/hazyhaar/viewcap/viewcap/internal/prompt"
	"github.com/hazyhaar/viewcap/viewcap/internal/traverse"
)

const readyMessage = "Log in if needed and wait until the document preview is visible, then press Enter to start."

// Driver is the live page an Exporter works on.
type Driver = page.Driver

// Session is a browser page that can be navigated and closed.
type Session = browser.Session

// StopReason says why a traversal ended.
type StopReason = traverse.StopReason

const (
	StopCompleted     = traverse.StopCompleted
	StopNoMoreAdvance = traverse.StopNoMoreAdvance
	StopCaptureFailed = traverse.StopCaptureFailed
	StopCancelled     = traverse.StopCancelled
)

// Options are the per-run settings that override configuration.
type Options struct {
	// URL is recorded in the journal. Export sets it.
	URL string
	// OutputFile is used unchanged when set. Otherwise the name is read
	// from the viewer or asked for.
	OutputFile string
	// KeepImages also keeps the page images in <output>_images.
	KeepImages bool
}

// Report describes a finished run.
type Report struct {
	RunID     string
	Output    string
	ImagesDir string
	// WorkDir is the per-run temporary directory. It no longer exists when
	// Run returns.
	WorkDir string
	Total   int
	Pages   int
	Stop    StopReason
	// Written reports whether the PDF at Output was produced.
	Written bool
}

// Option customises an Exporter.
type Option func(*Exporter)

// WithPrompter sets who answers operator prompts. Default: the console.
func WithPrompter(p Prompter) Option { return func(e *Exporter) { e.prompter = p } }

// WithJournal records every run in j.
func WithJournal(j *Journal) Option { return func(e *Exporter) { e.journal = j } }

// WithProgress calls fn after each captured page.
func WithProgress(fn func(page, total int)) Option {
	return func(e *Exporter) { e.progress = fn }
}

// withOpener replaces browser.Open, for tests.
func withOpener(fn func(context.Context, browser.Config) (browser.Session, error)) Option {
	return func(e *Exporter) { e.open = fn }
}

// Exporter runs exports with one configuration.
type Exporter struct {
	cfg      *Config
	logger   *slog.Logger
	prompter Prompter
	journal  *Journal
	progress func(page, total int)
	open     func(context.Context, browser.Config) (browser.Session, error)

	loc *locate.Locator
	asm *assemble.Assembler
}

// New returns an Exporter. A nil cfg uses DefaultConfig.
func New(cfg *Config, logger *slog.Logger, opts ...Option) *Exporter {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	e := &Exporter{
		cfg:    cfg,
		logger: logger,
		open:   browser.Open,
		loc:    locate.New(logger),
		asm:    assemble.New(logger),
	}
	for _, o := range opts {
		o(e)
	}
	if e.prompter == nil {
		e.prompter = prompt.NewConsole()
	}
	return e
}

// Export opens the configured browser on url, runs the export and closes
// the browser.
func (e *Exporter) Export(ctx context.Context, url string, opts Options) (*Report, error) {
	b := e.cfg.Browser
	s, err := e.open(ctx, browser.Config{
		Name:            b.Name,
		ProfileDir:      b.ProfileDir,
		ProfileName:     b.ProfileName,
		RemoteURL:       b.Remote,
		Bin:             b.Bin,
		XvfbDisplay:     b.XvfbDisplay,
		Headless:        b.Headless,
		NavigateTimeout: b.NavigateTimeout,
		Logger:          e.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("viewcap: open browser: %w", err)
	}
	defer func() {
		if err := s.Close(); err != nil {
			e.logger.Warn("viewcap: close browser", "error", err)
		}
	}()

	if err := s.Navigate(ctx, url); err != nil {
		return nil, fmt.Errorf("viewcap: %w", err)
	}
	opts.URL = url
	return e.Run(ctx, s, opts)
}

// Run exports the document shown by drv, which must already be on the
// viewer. Pages captured before a failure are still written to the PDF.
// The returned error is the assembly error if any, else the capture error.
func (e *Exporter) Run(ctx context.Context, drv Driver, opts Options) (*Report, error) {
	if err := e.prompter.Confirm(ctx, readyMessage); err != nil {
		return nil, fmt.Errorf("viewcap: confirm: %w", err)
	}
	if err := traverse.Sleep(ctx, e.cfg.Capture.StartupDelay); err != nil {
		return nil, err
	}

	trav := e.traverser()
	total, err := trav.ResolveTotal(ctx, drv)
	if err != nil {
		return nil, fmt.Errorf("viewcap: page count: %w", err)
	}
	out, err := e.ResolveFilename(ctx, drv, opts.OutputFile)
	if err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp("", "viewcap-*")
	if err != nil {
		return nil, fmt.Errorf("viewcap: work dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			e.logger.Warn("viewcap: remove work dir", "dir", dir, "error", err)
		}
	}()

	rep := &Report{Output: out, WorkDir: dir, Total: total}
	rep.RunID = e.beginRun(ctx, opts.URL)
	e.logger.Info("viewcap: export started", "output", out, "total", total, "run", rep.RunID)

	res, capErr := trav.Run(ctx, drv, total, dir)
	rep.Pages = len(res.Frames)
	rep.Stop = res.Stop

	var asmErr error
	if len(res.Frames) > 0 || capErr == nil {
		asmErr = e.asm.Assemble(res.Frames, out)
	}
	if asmErr == nil && len(res.Frames) > 0 {
		rep.Written = true
		e.logger.Info("viewcap: pdf written", "output", out, "pages", len(res.Frames), "total", total)
		if opts.KeepImages || e.cfg.Output.KeepImages {
			kept, err := e.asm.Retain(res.Frames, out)
			if err != nil {
				e.logger.Error("viewcap: keep images", "dir", kept, "error", err)
			} else {
				rep.ImagesDir = kept
			}
		}
	}

	err = asmErr
	if err == nil {
		err = capErr
	}
	e.finishRun(rep, res.Frames, err)
	return rep, err
}

func (e *Exporter) traverser() *traverse.Traverser {
	c := e.cfg.Capture
	capt := capture.New(capture.Config{
		Toolbar:        e.cfg.Identifiers.Toolbar,
		HideToolbar:    c.HideToolbar,
		Surface:        capture.SurfaceMode(c.Surface),
		SurfaceTimeout: c.SurfaceTimeout,
		PollInterval:   c.PollInterval,
		Normalize:      c.Normalize.Enabled,
		Width:          c.Normalize.Width,
		Height:         c.Normalize.Height,
		Crop:           c.Crop.Enabled,
		CropTolerance:  c.Crop.Tolerance,
		Logger:         e.logger,
	})

	var onFrame func(traverse.Frame, int)
	if e.progress != nil {
		onFrame = func(f traverse.Frame, total int) { e.progress(f.Index, total) }
	}
	return traverse.New(traverse.Config{
		Counter:     e.cfg.Identifiers.TotalPages,
		NextPage:    e.cfg.Identifiers.NextPage,
		SettleDelay: c.SettleDelay,
		Prompter:    e.prompter,
		OnFrame:     onFrame,
		Logger:      e.logger,
	}, capt)
}

// beginRun returns "" when no journal is set or it fails. Journal errors
// never fail an export.
func (e *Exporter) beginRun(ctx context.Context, url string) string {
	if e.journal == nil {
		return ""
	}
	id, err := e.journal.Begin(ctx, url, e.cfg.Browser.Name)
	if err != nil {
		e.logger.Warn("viewcap: journal begin", "error", err)
		return ""
	}
	return id
}

func (e *Exporter) finishRun(rep *Report, frames []traverse.Frame, runErr error) {
	if e.journal == nil || rep.RunID == "" {
		return
	}
	recs := make([]journal.Frame, 0, len(frames))
	for _, f := range frames {
		rec, err := frameRecord(f.Path)
		if err != nil {
			e.logger.Warn("viewcap: journal frame", "page", f.Index, "error", err)
		}
		recs = append(recs, rec)
	}
	// Record the outcome even when the run was cancelled.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := e.journal.Finish(ctx, rep.RunID, journal.Outcome{
		Output:    rep.Output,
		ImagesDir: rep.ImagesDir,
		Total:     rep.Total,
		Frames:    recs,
		Stop:      string(rep.Stop),
		Err:       runErr,
	})
	if err != nil {
		e.logger.Warn("viewcap: journal finish", "run", rep.RunID, "error", err)
	}
}

// frameRecord sizes and hashes a frame still in the work dir.
func frameRecord(path string) (journal.Frame, error) {
	rec := journal.Frame{Name: filepath.Base(path)}
	f, err := os.Open(path)
	if err != nil {
		return rec, err
	}
	defer f.Close()
	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return rec, err
	}
	rec.Bytes = n
	rec.SHA256 = hex.EncodeToString(h.Sum(nil))
	return rec, nil
}
