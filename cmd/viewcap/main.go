// Command viewcap exports a view-only document from a web viewer to PDF.
//
// Usage:
//
//	viewcap https://tenant.sharepoint.com/...          # export with Chrome
//	viewcap export -b firefox -p ~/.mozilla/... URL     # export with a Firefox profile
//	viewcap cache -r ~/.cache/mozilla/.../cache2 -o doc.pdf
//	viewcap runs                                        # list journaled runs
//	viewcap config -c viewcap.yaml                      # print the effective configuration
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hazyhaar/viewcap/viewcap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := &app{logger: slog.Default(), closer: nopCloser{}}
	root := newRootCmd(a)
	err := root.ExecuteContext(ctx)
	a.closer.Close()
	if err != nil {
		a.logger.Error("viewcap: fatal", "error", err)
		os.Exit(1)
	}
}

// app is the state shared by all subcommands.
type app struct {
	configPath string
	debug      bool
	logFormat  string

	cfg    *viewcap.Config
	logger *slog.Logger
	closer io.Closer
}

func newRootCmd(a *app) *cobra.Command {
	ef := &exportFlags{}
	root := &cobra.Command{
		Use:   "viewcap [URL]",
		Short: "Export a view-only paginated document from a web viewer to PDF",
		Long: `viewcap opens the document viewer in a browser, waits for you to log in,
then captures every page as rendered and assembles the images into one PDF.

Given a URL, viewcap runs the export command.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && ef.cacheDir == "" {
				return cmd.Help()
			}
			return runExport(cmd, a, ef, args)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.configPath, "config", "c", "", "path to a viewcap.yaml configuration file")
	pf.BoolVarP(&a.debug, "debug", "d", false, "enable debug logging")
	pf.StringVar(&a.logFormat, "log-format", "", "log format: text or json")

	ef.register(root)
	root.AddCommand(newExportCmd(a), newCacheCmd(a), newRunsCmd(a), newConfigCmd(a))
	return root
}

// setup loads configuration and builds the logger. Flags that need it
// are applied by each command afterwards.
func (a *app) setup() error {
	cfg, err := viewcap.LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}
	a.cfg = cfg

	a.logger, a.closer = viewcap.NewLogger(viewcap.LogOptions{
		Format:     cfg.Log.Format,
		Level:      viewcap.LogLevel(a.debug),
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})
	slog.SetDefault(a.logger)
	return nil
}

// openJournal returns nil when no journal is configured or it cannot be
// opened. The journal never blocks an export.
func (a *app) openJournal() *viewcap.Journal {
	if a.cfg.Journal.Path == "" {
		return nil
	}
	j, err := viewcap.OpenJournal(a.cfg.Journal.Path)
	if err != nil {
		a.logger.Warn("viewcap: journal unavailable", "path", a.cfg.Journal.Path, "error", err)
		return nil
	}
	return j
}

func writeErr(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
