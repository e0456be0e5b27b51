package viewcap

import (
	"github.com/hazyhaar/viewcap/viewcap/internal/assemble"
	"github.com/hazyhaar/viewcap/viewcap/internal/browser"
	"github.com/hazyhaar/viewcap/viewcap/internal/cachescan"
	"github.com/hazyhaar/viewcap/viewcap/internal/capture"
	"github.com/hazyhaar/viewcap/viewcap/internal/journal"
	"github.com/hazyhaar/viewcap/viewcap/internal/locate"
	"github.com/hazyhaar/viewcap/viewcap/internal/prompt"
	"github.com/hazyhaar/viewcap/viewcap/internal/traverse"
)

// Errors returned by an export. Match them with errors.Is.
var (
	ErrElementNotFound = locate.ErrElementNotFound
	ErrCaptureFailed   = capture.ErrCaptureFailed
	ErrCaptureTimeout  = capture.ErrCaptureTimeout
	ErrNoMoreAdvance   = traverse.ErrNoMoreAdvance
	ErrAssemblyFailed  = assemble.ErrAssemblyFailed
	ErrEmptyAnswer     = prompt.ErrEmpty
	ErrUnknownBrowser  = browser.ErrUnknownBrowser
	ErrNoPDF           = cachescan.ErrNoPDF
	ErrUnknownRun      = journal.ErrUnknownRun
)
