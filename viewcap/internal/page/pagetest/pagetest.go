// Package pagetest provides in-memory page models implementing page.Driver.
package pagetest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"

	"github.com/hazyhaar/viewcap/viewcap/internal/page"
)

// Element is a scripted page.Element.
type Element struct {
	Name          string
	TextValue     string
	PNG           []byte
	ScreenshotErr error
	ActivateErr   error
	OnActivate    func()

	mu          sync.Mutex
	activations int
}

func (e *Element) Text(ctx context.Context) (string, error) { return e.TextValue, nil }

func (e *Element) Screenshot(ctx context.Context) ([]byte, error) {
	if e.ScreenshotErr != nil {
		return nil, e.ScreenshotErr
	}
	if e.PNG == nil {
		return nil, errors.New("pagetest: element has no image")
	}
	return e.PNG, nil
}

func (e *Element) Activate(ctx context.Context) error {
	if e.ActivateErr != nil {
		return e.ActivateErr
	}
	e.mu.Lock()
	e.activations++
	e.mu.Unlock()
	if e.OnActivate != nil {
		e.OnActivate()
	}
	return nil
}

// Activations reports how many times Activate succeeded.
func (e *Element) Activations() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.activations
}

// Page is a static page model: a fixed set of elements per selector.
//
// Without EvalFunc, Eval answers class probes: a string argument naming a
// registered class yields true, anything else false.
type Page struct {
	EvalFunc func(script string, arg any) (string, error)
	// QueryErr, when set, fails every Query for the listed selector.
	QueryErr map[page.Selector]error

	mu       sync.Mutex
	elements map[page.Selector][]*Element
	queries  []page.Selector
	evals    int
}

// NewPage returns an empty page model.
func NewPage() *Page {
	return &Page{elements: make(map[page.Selector][]*Element)}
}

// Add registers elements for sel, appended in document order.
func (p *Page) Add(sel page.Selector, els ...*Element) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.elements[sel] = append(p.elements[sel], els...)
	return p
}

func (p *Page) Query(ctx context.Context, sel page.Selector) ([]page.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queries = append(p.queries, sel)
	if err := p.QueryErr[sel]; err != nil {
		return nil, err
	}
	out := make([]page.Element, 0, len(p.elements[sel]))
	for _, e := range p.elements[sel] {
		out = append(out, e)
	}
	return out, nil
}

func (p *Page) Eval(ctx context.Context, script string, arg any) (string, error) {
	p.mu.Lock()
	p.evals++
	fn := p.EvalFunc
	p.mu.Unlock()
	if fn != nil {
		return fn(script, arg)
	}
	if name, ok := arg.(string); ok {
		p.mu.Lock()
		defer p.mu.Unlock()
		if len(p.elements[page.Selector{By: page.ByClass, Value: name}]) > 0 {
			return "true", nil
		}
	}
	return "false", nil
}

// Queries returns the selectors queried so far, in order.
func (p *Page) Queries() []page.Selector {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]page.Selector(nil), p.queries...)
}

// Evals returns how many scripts ran.
func (p *Page) Evals() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.evals
}

// PNG encodes a solid w x h image. Distinct sizes make frame order visible
// after assembly.
func PNG(w, h int, c color.Color) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(fmt.Sprintf("pagetest: encode png: %v", err))
	}
	return buf.Bytes()
}

// PageWidth is the width of the image the Viewer renders for page n.
func PageWidth(n int) int { return 100 + 10*n }

// Viewer models a paginated document viewer: a counter, a toolbar, one
// canvas per rendered page, and a next-page button that disappears once
// the allowed number of advances is used up.
type Viewer struct {
	Total        int
	Advances     int
	CounterClass string
	CounterText  string
	ToolbarClass string
	NextLabel    string

	// FileName is the document title shown by the viewer. Empty renders
	// no title element.
	FileNameClass string
	FileName      string

	// NoCanvasAt removes the canvas while that page is current.
	NoCanvasAt int

	mu          sync.Mutex
	current     int
	activations int
	hidden      int
}

// NewViewer returns a viewer of total pages whose next control works
// advances times.
func NewViewer(total, advances int) *Viewer {
	return &Viewer{
		Total:         total,
		Advances:      advances,
		CounterClass:  "status_5a88b9b2",
		CounterText:   fmt.Sprintf("/ %d", total),
		ToolbarClass:  "root_5a88b9b2",
		NextLabel:     "Go to the next page.",
		FileNameClass: "OneUpNonInteractiveCommandNewDesign_156f96ef",
		current:       1,
	}
}

// Current returns the page currently rendered.
func (v *Viewer) Current() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current
}

// Activations returns how many times the real next control fired.
func (v *Viewer) Activations() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.activations
}

// ToolbarHides returns how many times the toolbar hide probe succeeded.
func (v *Viewer) ToolbarHides() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.hidden
}

func (v *Viewer) Query(ctx context.Context, sel page.Selector) ([]page.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v.mu.Lock()
	defer v.mu.Unlock()

	switch {
	case sel.By == page.ByClass && sel.Value == v.CounterClass:
		return []page.Element{&Element{Name: "counter", TextValue: v.CounterText}}, nil
	case sel.By == page.ByClass && sel.Value == v.FileNameClass && v.FileName != "":
		return []page.Element{&Element{Name: "title", TextValue: v.FileName}}, nil
	case sel.By == page.ByClass && sel.Value == v.ToolbarClass:
		return []page.Element{&Element{Name: "toolbar"}}, nil
	case sel.By == page.ByLabel && sel.Value == v.NextLabel:
		if v.activations >= v.Advances {
			return nil, nil
		}
		decoy := &Element{Name: "decoy", ActivateErr: errors.New("pagetest: decoy control")}
		next := &Element{Name: "next", OnActivate: v.advance}
		return []page.Element{decoy, next}, nil
	case sel.By == page.ByCSS && sel.Value == "canvas":
		if v.current == v.NoCanvasAt {
			return nil, nil
		}
		return []page.Element{&Element{
			Name: fmt.Sprintf("canvas-%d", v.current),
			PNG:  PNG(PageWidth(v.current), 60, color.RGBA{R: uint8(v.current * 20), A: 255}),
		}}, nil
	}
	return nil, nil
}

func (v *Viewer) Eval(ctx context.Context, script string, arg any) (string, error) {
	if name, ok := arg.(string); ok {
		v.mu.Lock()
		defer v.mu.Unlock()
		if name == v.ToolbarClass {
			v.hidden++
			return "true", nil
		}
	}
	return "false", nil
}

func (v *Viewer) advance() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.activations++
	if v.current < v.Total {
		v.current++
	}
}
