package assemble

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hazyhaar/viewcap/viewcap/internal/traverse"
)

// ImagesDir is the directory kept images go to for the document at out.
func ImagesDir(out string) string {
	return out + "_images"
}

// Retain copies frames into ImagesDir(out), keeping their file names.
func (a *Assembler) Retain(frames []traverse.Frame, out string) (string, error) {
	dir := ImagesDir(out)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("assemble: retain: %w", err)
	}
	for _, f := range frames {
		dst := filepath.Join(dir, filepath.Base(f.Path))
		if err := copyFile(f.Path, dst); err != nil {
			return dir, fmt.Errorf("assemble: retain page %d: %w", f.Index, err)
		}
	}
	a.logger.Info("assemble: images kept", "dir", dir, "count", len(frames))
	return dir, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
