// Package assemble turns captured page images into the output PDF.
package assemble

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/hazyhaar/viewcap/viewcap/internal/traverse"
)

// ErrAssemblyFailed covers an empty frame sequence, unreadable frames and
// PDF write errors. No output file exists after it.
var ErrAssemblyFailed = errors.New("assemble: output not produced")

// Assembler writes frame sequences as one-image-per-page PDFs.
type Assembler struct {
	logger *slog.Logger
}

// New returns an Assembler. A nil logger uses slog.Default.
func New(logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{logger: logger}
}

// Assemble writes frames, in order, as the pages of the PDF at out. Each
// page is sized to its image. An existing file at out is replaced only
// once the new document is complete.
func (a *Assembler) Assemble(frames []traverse.Frame, out string) error {
	if len(frames) == 0 {
		return fmt.Errorf("%w: no pages captured", ErrAssemblyFailed)
	}

	paths := make([]string, 0, len(frames))
	for _, f := range frames {
		if err := readable(f.Path); err != nil {
			return fmt.Errorf("%w: page %d: %v", ErrAssemblyFailed, f.Index, err)
		}
		paths = append(paths, f.Path)
	}

	dir := filepath.Dir(out)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrAssemblyFailed, err)
	}
	tmp, err := os.CreateTemp(dir, ".viewcap-*.pdf")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAssemblyFailed, err)
	}
	tmpName := tmp.Name()
	tmp.Close()
	// pdfcpu appends to an existing output file, so it gets a fresh path.
	os.Remove(tmpName)

	conf := model.NewDefaultConfiguration()
	if err := api.ImportImagesFile(paths, tmpName, nil, conf); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: import images: %v", ErrAssemblyFailed, err)
	}
	if err := os.Rename(tmpName, out); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrAssemblyFailed, err)
	}

	a.logger.Info("assemble: document saved", "path", out, "pages", len(frames))
	return nil
}

func readable(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	var b [1]byte
	if _, err := f.Read(b[:]); err != nil {
		if err == io.EOF {
			return fmt.Errorf("%s is empty", path)
		}
		return err
	}
	return nil
}
