// Package page defines the small browser surface the capture core depends on.
// Real sessions live in internal/browser; pagetest provides an in-memory model.
package page

import (
	"context"
	"fmt"
	"strings"
)

// By selects how a Selector value is matched against the live DOM.
type By int

const (
	// ByClass matches elements carrying the value as one of their classes.
	ByClass By = iota
	// ByLabel matches buttons whose aria-label equals the value.
	ByLabel
	// ByCSS uses the value as a raw CSS selector.
	ByCSS
)

func (b By) String() string {
	switch b {
	case ByClass:
		return "class"
	case ByLabel:
		return "label"
	case ByCSS:
		return "css"
	default:
		return fmt.Sprintf("by(%d)", int(b))
	}
}

// Selector is one concrete lookup against the page.
type Selector struct {
	By    By
	Value string
}

func (s Selector) String() string {
	return s.By.String() + "=" + s.Value
}

// CSS renders the selector for engines that take CSS. ByLabel has no CSS
// form that keeps exact-match semantics for arbitrary labels, so callers
// should use XPath for it.
func (s Selector) CSS() string {
	switch s.By {
	case ByClass:
		return "." + escapeIdent(s.Value)
	case ByLabel:
		return `button[aria-label="` + strings.ReplaceAll(s.Value, `"`, `\"`) + `"]`
	default:
		return s.Value
	}
}

// XPath renders a ByLabel selector as an XPath expression.
func (s Selector) XPath() string {
	return "//button[@aria-label=" + xpathLiteral(s.Value) + "]"
}

// Element is a handle on one DOM node of the live page.
type Element interface {
	// Text returns the visible text of the element.
	Text(ctx context.Context) (string, error)
	// Screenshot captures the element's box as PNG bytes.
	Screenshot(ctx context.Context) ([]byte, error)
	// Activate dispatches a click from page script, bypassing overlays
	// that would intercept a native input event.
	Activate(ctx context.Context) error
}

// Driver is the live page as seen by the capture core.
type Driver interface {
	// Query returns every element matching sel in document order.
	// No match is an empty slice and a nil error.
	Query(ctx context.Context, sel Selector) ([]Element, error)
	// Eval runs script, a one-argument JS function, in the page and
	// returns its result encoded as JSON.
	Eval(ctx context.Context, script string, arg any) (string, error)
}

// escapeIdent escapes a CSS identifier. Class names from the viewer are
// plain hashed identifiers, so only the unusual characters need care.
func escapeIdent(s string) string {
	var b strings.Builder
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_', r == '-', r >= 0x80:
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				fmt.Fprintf(&b, `\%x `, r)
			} else {
				b.WriteRune(r)
			}
		default:
			b.WriteByte('\\')
			b.WriteRune(r)
		}
	}
	return b.String()
}

// xpathLiteral quotes s for XPath 1.0, which has no escape syntax.
func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	var b strings.Builder
	b.WriteString("concat(")
	for i, p := range parts {
		if i > 0 {
			b.WriteString(`, "'", `)
		}
		b.WriteString("'" + p + "'")
	}
	b.WriteString(")")
	return b.String()
}
