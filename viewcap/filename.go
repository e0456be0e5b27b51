package viewcap

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/hazyhaar/viewcap/viewcap/internal/locate"
	"github.com/hazyhaar/viewcap/viewcap/internal/prompt"
)

// ResolveFilename picks the output PDF path. explicit is returned as is.
// Otherwise the viewer's document title is used, or the operator is asked;
// either goes through CleanFilename.
func (e *Exporter) ResolveFilename(ctx context.Context, drv Driver, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}

	m, err := e.loc.Locate(ctx, drv, e.cfg.Identifiers.FileName, locate.ByClass)
	if err == nil {
		text, terr := m.Element.Text(ctx)
		if terr == nil {
			if name := CleanFilename(text); name != "" {
				e.logger.Info("viewcap: file name detected", "name", name, "identifier", m.Identifier)
				return name, nil
			}
			terr = fmt.Errorf("title %q has no usable name", text)
		}
		err = terr
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	e.logger.Warn("viewcap: file name not found, asking the operator; identifiers.file_name may be stale",
		"identifiers", e.cfg.Identifiers.FileName, "error", err)
	for {
		ans, err := prompt.AskNonEmpty(ctx, e.prompter, "Output file name", e.logger)
		if err != nil {
			return "", fmt.Errorf("viewcap: file name: %w", err)
		}
		if name := CleanFilename(ans); name != "" {
			return name, nil
		}
		e.logger.Warn("viewcap: file name rejected", "answer", ans)
	}
}

// CleanFilename turns a document title into a file name in the current
// directory: control characters removed, directories dropped, ".pdf"
// appended unless present. It returns "" when nothing usable remains.
func CleanFilename(name string) string {
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)
	name = strings.ReplaceAll(name, `\`, "/")
	name = strings.TrimSpace(filepath.Base(strings.TrimSpace(name)))

	switch name {
	case "", ".", "..", "/":
		return ""
	}
	if !strings.HasSuffix(strings.ToLower(name), ".pdf") {
		name += ".pdf"
	}
	return name
}
