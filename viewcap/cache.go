package viewcap

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/hazyhaar/viewcap/viewcap/internal/cachescan"
)

// RecoverFromCache copies the newest PDF found in a browser cache
// directory to out, or to a timestamped name when out is empty, and
// returns the path written. Experimental: Firefox cache only.
func RecoverFromCache(cacheDir, out string, logger *slog.Logger) (string, error) {
	if logger == nil {
		logger = slog.Default()
	}
	e, err := cachescan.FindLatestPDF(cacheDir)
	if err != nil {
		return "", fmt.Errorf("viewcap: cache: %w", err)
	}
	if out == "" {
		out = cachescan.DefaultName(time.Now())
		logger.Warn("viewcap: no output file given, using a timestamped name", "output", out)
	}
	if err := cachescan.Copy(e, out); err != nil {
		return "", err
	}
	logger.Info("viewcap: pdf recovered from cache", "source", e.Path, "output", out,
		"size", e.Size, "modified", e.ModTime)
	return out, nil
}
