package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/hazyhaar/viewcap/viewcap"
)

// exportFlags are shared by the root command and export.
type exportFlags struct {
	browser     string
	profileDir  string
	profileName string
	keepImages  bool
	outputFile  string
	cacheDir    string
	noProgress  bool
}

func (f *exportFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.browser, "browser", "b", "", "browser to drive: chrome or firefox (default chrome)")
	fl.StringVarP(&f.profileDir, "profile-dir", "p", "", "browser profile directory to reuse a logged-in session")
	fl.StringVarP(&f.profileName, "profile-name", "n", "", "profile name inside the profile directory (chrome only)")
	fl.BoolVarP(&f.keepImages, "keep-imgs", "k", false, "keep the page images next to the PDF")
	fl.StringVarP(&f.outputFile, "output-file", "o", "", "output PDF path, used as given")
	fl.StringVarP(&f.cacheDir, "cache-dir", "r", "", "EXPERIMENTAL, Firefox only: recover the PDF from this browser cache directory instead")
	fl.BoolVar(&f.noProgress, "no-progress", false, "disable the progress bar")
}

// apply copies explicitly set flags over the configuration.
func (f *exportFlags) apply(cmd *cobra.Command, cfg *viewcap.Config) {
	fl := cmd.Flags()
	if fl.Changed("browser") {
		cfg.Browser.Name = f.browser
	}
	if fl.Changed("profile-dir") {
		cfg.Browser.ProfileDir = f.profileDir
	}
	if fl.Changed("profile-name") {
		cfg.Browser.ProfileName = f.profileName
	}
	if fl.Changed("keep-imgs") {
		cfg.Output.KeepImages = f.keepImages
	}
	if fl.Changed("output-file") {
		cfg.Output.File = f.outputFile
	}
}

func newExportCmd(a *app) *cobra.Command {
	ef := &exportFlags{}
	cmd := &cobra.Command{
		Use:   "export URL",
		Short: "Capture every page of the document at URL into a PDF",
		Args: func(cmd *cobra.Command, args []string) error {
			if ef.cacheDir != "" {
				return cobra.MaximumNArgs(1)(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, a, ef, args)
		},
	}
	ef.register(cmd)
	return cmd
}

func runExport(cmd *cobra.Command, a *app, ef *exportFlags, args []string) error {
	ef.apply(cmd, a.cfg)
	if err := viewcap.ValidateConfig(a.cfg); err != nil {
		return err
	}

	if ef.cacheDir != "" {
		_, err := viewcap.RecoverFromCache(ef.cacheDir, a.cfg.Output.File, a.logger)
		return err
	}

	opts := []viewcap.Option{}
	if j := a.openJournal(); j != nil {
		defer j.Close()
		opts = append(opts, viewcap.WithJournal(j))
	}
	if !ef.noProgress {
		opts = append(opts, viewcap.WithProgress(newProgress()))
	}

	exp := viewcap.New(a.cfg, a.logger, opts...)
	rep, err := exp.Export(cmd.Context(), args[0], viewcap.Options{
		OutputFile: a.cfg.Output.File,
		KeepImages: a.cfg.Output.KeepImages,
	})
	printReport(os.Stdout, rep)
	if errors.Is(err, viewcap.ErrCaptureFailed) {
		writeErr("%s the viewer structure may have changed; update the identifiers in the configuration",
			red("capture stopped:"))
	}
	return err
}

// printReport prints where the PDF and images went. Nothing is printed
// when no PDF was written.
func printReport(w io.Writer, rep *viewcap.Report) {
	if rep == nil || !rep.Written {
		return
	}
	fmt.Fprintf(w, "%s %s (%d/%d pages)\n", green("PDF saved:"), rep.Output, rep.Pages, rep.Total)
	if rep.ImagesDir != "" {
		fmt.Fprintf(w, "%s %s\n", green("Images kept in:"), rep.ImagesDir)
	}
}

// newProgress returns a progress hook that creates its bar once the page
// count is known.
func newProgress() func(page, total int) {
	var bar *progressbar.ProgressBar
	return func(page, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionSetDescription("Capturing pages"),
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowCount(),
				progressbar.OptionSetWidth(40),
				progressbar.OptionThrottle(65*time.Millisecond),
				progressbar.OptionOnCompletion(func() {
					fmt.Fprintln(os.Stderr)
				}),
			)
		}
		bar.Set(page)
	}
}
