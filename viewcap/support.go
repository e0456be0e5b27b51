package viewcap

import (
	"io"
	"log/slog"

	"github.com/hazyhaar/viewcap/viewcap/internal/journal"
	"github.com/hazyhaar/viewcap/viewcap/internal/logging"
	"github.com/hazyhaar/viewcap/viewcap/internal/prompt"
)

// Prompter answers operator prompts.
type Prompter = prompt.Prompter

// NewConsole returns the stdin/stdout prompter.
func NewConsole() Prompter {
	return prompt.NewConsole()
}

// Journal is the SQLite run journal.
type Journal = journal.Journal

// RunRecord is one journaled run.
type RunRecord = journal.Run

// OpenJournal opens the run journal at path.
func OpenJournal(path string) (*Journal, error) {
	return journal.Open(path)
}

// LogOptions configures NewLogger.
type LogOptions = logging.Options

// NewLogger builds the console logger, plus the rotating file sink when
// opts.File is set. Close the returned closer on exit.
func NewLogger(opts LogOptions) (*slog.Logger, io.Closer) {
	return logging.New(opts)
}

// LogLevel returns the level for the debug flag.
func LogLevel(debug bool) slog.Level {
	return logging.ParseLevel(debug)
}
