// Package cachescan recovers a PDF the viewer already downloaded into the
// browser cache. Experimental: only Firefox's cache2 layout, where entries
// are stored as plain files, has been seen to work.
package cachescan

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// ErrNoPDF means no cached file starts with the PDF magic.
var ErrNoPDF = errors.New("cachescan: no PDF in cache")

var pdfMagic = []byte("%PDF")

// Entry is one cached PDF.
type Entry struct {
	Path    string
	ModTime time.Time
	Size    int64
}

// FindLatestPDF walks dir and returns the most recently modified regular
// file whose content starts with %PDF. Unreadable entries are skipped.
func FindLatestPDF(dir string) (Entry, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return Entry{}, fmt.Errorf("cachescan: %w", err)
	}
	if !info.IsDir() {
		return Entry{}, fmt.Errorf("cachescan: %s is not a directory", dir)
	}

	var best Entry
	found := false
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Permission problems on single cache entries are common.
			if d != nil && d.IsDir() && path != dir {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		fi, err := d.Info()
		if err != nil || fi.Size() < int64(len(pdfMagic)) {
			return nil
		}
		if !isPDF(path) {
			return nil
		}
		if !found || fi.ModTime().After(best.ModTime) {
			best = Entry{Path: path, ModTime: fi.ModTime(), Size: fi.Size()}
			found = true
		}
		return nil
	})
	if err != nil {
		return Entry{}, fmt.Errorf("cachescan: walk %s: %w", dir, err)
	}
	if !found {
		return Entry{}, fmt.Errorf("%w: %s", ErrNoPDF, dir)
	}
	return best, nil
}

func isPDF(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	head := make([]byte, len(pdfMagic))
	if _, err := io.ReadFull(f, head); err != nil {
		return false
	}
	return bytes.Equal(head, pdfMagic)
}

// DefaultName is the output name used when the operator gives none.
func DefaultName(now time.Time) string {
	return now.Format("2006-01-02_15-04-05") + ".pdf"
}

// Copy writes the cached entry to out, replacing any existing file.
func Copy(e Entry, out string) error {
	in, err := os.Open(e.Path)
	if err != nil {
		return fmt.Errorf("cachescan: open %s: %w", e.Path, err)
	}
	defer in.Close()

	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("cachescan: %w", err)
		}
	}
	dst, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("cachescan: create %s: %w", out, err)
	}
	if _, err := io.Copy(dst, in); err != nil {
		dst.Close()
		os.Remove(out)
		return fmt.Errorf("cachescan: copy: %w", err)
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("cachescan: close %s: %w", out, err)
	}
	return nil
}
