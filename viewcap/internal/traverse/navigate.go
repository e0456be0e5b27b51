package traverse

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hazyhaar/viewcap/viewcap/internal/locate"
	"github.com/hazyhaar/viewcap/viewcap/internal/page"
	"github.com/hazyhaar/viewcap/viewcap/internal/prompt"
)

// ErrNoMoreAdvance means the next-page control is gone or refused to fire.
// The document may have ended, the label may be stale, or the control was
// not rendered yet; the three cannot be told apart, so all stop the run.
var ErrNoMoreAdvance = errors.New("traverse: no further page available")

// Advance presses the viewer's next-page control.
func (t *Traverser) Advance(ctx context.Context, drv page.Driver) error {
	m, err := t.loc.Locate(ctx, drv, t.cfg.NextPage, locate.ByLabel)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrNoMoreAdvance, err)
	}
	if err := m.Element.Activate(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: activate %q: %v", ErrNoMoreAdvance, m.Identifier, err)
	}
	t.logger.Debug("traverse: advanced", "identifier", m.Identifier)
	return nil
}

// ResolveTotal reads the viewer's total-page counter, falling back to the
// operator when the counter is missing or unreadable.
func (t *Traverser) ResolveTotal(ctx context.Context, drv page.Driver) (int, error) {
	m, err := t.loc.Locate(ctx, drv, t.cfg.Counter, locate.ByClass)
	if err == nil {
		text, terr := m.Element.Text(ctx)
		if terr != nil {
			err = terr
		} else if n, perr := ParseCount(text); perr != nil {
			err = perr
		} else {
			t.logger.Info("traverse: total pages detected", "total", n, "identifier", m.Identifier)
			return n, nil
		}
	}
	if ctx.Err() != nil {
		return 0, ctx.Err()
	}

	t.logger.Warn("traverse: page counter not readable, asking the operator; identifiers.total_pages may be stale",
		"identifiers", []string(t.cfg.Counter), "error", err)
	if t.cfg.Prompter == nil {
		return 0, fmt.Errorf("traverse: page count unknown and no operator prompt: %w", err)
	}
	return prompt.AskPositiveInt(ctx, t.cfg.Prompter, "Total number of pages", t.logger)
}

// ParseCount extracts the total from counter text such as "/ 12", "12" or
// "4 / 12": whatever follows the last separator.
func ParseCount(text string) (int, error) {
	if i := strings.LastIndex(text, "/"); i >= 0 {
		text = text[i+1:]
	}
	n, err := prompt.ParsePositiveInt(text)
	if err != nil {
		return 0, fmt.Errorf("traverse: counter text: %w", err)
	}
	return n, nil
}
