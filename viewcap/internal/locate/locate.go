// Package locate resolves logical viewer targets to live elements by trying
// an ordered list of known identifiers. Viewer markup is not a stable
// contract: class names and labels change between deployments, so each
// target carries every identifier seen so far, newest preferred.
package locate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hazyhaar/viewcap/viewcap/internal/page"
)

// ErrElementNotFound is returned once every identifier of a set was tried
// without a match.
var ErrElementNotFound = errors.New("locate: element not found")

// IdentifierSet is an ordered list of candidate identifiers for one target.
type IdentifierSet []string

// Kind selects the lookup strategy.
type Kind int

const (
	// ByClass returns the first element carrying the class.
	ByClass Kind = iota
	// ByLabel returns the last button carrying the aria-label. The viewer
	// can render several controls with the same label and the most recently
	// added one is the live one.
	ByLabel
)

func (k Kind) String() string {
	if k == ByLabel {
		return "label"
	}
	return "class"
}

// Match is a located element and the identifier that found it.
type Match struct {
	Element    page.Element
	Identifier string
}

// Locator looks targets up against a page.Driver.
type Locator struct {
	logger *slog.Logger
}

// New returns a Locator. A nil logger uses slog.Default.
func New(logger *slog.Logger) *Locator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Locator{logger: logger}
}

// Locate tries each identifier of set in order and returns the first hit.
// A driver error on one identifier counts as a miss for that identifier;
// only context cancellation stops the search early.
func (l *Locator) Locate(ctx context.Context, drv page.Driver, set IdentifierSet, kind Kind) (Match, error) {
	for _, id := range set {
		if err := ctx.Err(); err != nil {
			return Match{}, err
		}

		sel := page.Selector{By: page.ByClass, Value: id}
		if kind == ByLabel {
			sel.By = page.ByLabel
		}

		els, err := drv.Query(ctx, sel)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Match{}, ctxErr
			}
			l.logger.Debug("locate: query failed", "by", kind, "identifier", id, "error", err)
			continue
		}
		if len(els) == 0 {
			l.logger.Debug("locate: no match", "by", kind, "identifier", id)
			continue
		}

		el := els[0]
		if kind == ByLabel {
			el = els[len(els)-1]
		}
		l.logger.Debug("locate: found", "by", kind, "identifier", id, "matches", len(els))
		return Match{Element: el, Identifier: id}, nil
	}
	return Match{}, fmt.Errorf("%w: no %s among [%s]", ErrElementNotFound, kind, strings.Join(set, ", "))
}
