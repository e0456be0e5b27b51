package capture

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hazyhaar/viewcap/viewcap/internal/locate"
	"github.com/hazyhaar/viewcap/viewcap/internal/page"
	"github.com/hazyhaar/viewcap/viewcap/internal/page/pagetest"
)

func TestCapture_FirstCanvas(t *testing.T) {
	v := pagetest.NewViewer(3, 2)
	c := New(Config{Toolbar: locate.IdentifierSet{"gone_cls", v.ToolbarClass}, HideToolbar: true})

	path := filepath.Join(t.TempDir(), "1.png")
	if err := c.Capture(context.Background(), v, 1, path); err != nil {
		t.Fatalf("capture: %v", err)
	}
	img := decodePNG(t, path)
	if w := img.Bounds().Dx(); w != pagetest.PageWidth(1) {
		t.Errorf("width = %d, want %d", w, pagetest.PageWidth(1))
	}
	if v.ToolbarHides() != 1 {
		t.Errorf("toolbar hides = %d, want 1", v.ToolbarHides())
	}
}

func TestCapture_NoCanvasFails(t *testing.T) {
	// WHAT: A page without a canvas is a capture failure, and nothing is written.
	// WHY: The traversal treats this as a broken viewer premise and stops.
	v := pagetest.NewViewer(3, 2)
	v.NoCanvasAt = 1
	path := filepath.Join(t.TempDir(), "1.png")

	err := New(Config{}).Capture(context.Background(), v, 1, path)
	if !errors.Is(err, ErrCaptureFailed) {
		t.Fatalf("err = %v, want ErrCaptureFailed", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Errorf("expected no file, stat err = %v", statErr)
	}
}

func TestCapture_ToolbarMissingWarnsOnce(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	v := pagetest.NewViewer(3, 2)
	c := New(Config{Toolbar: locate.IdentifierSet{"old_toolbar"}, HideToolbar: true, Logger: logger})

	dir := t.TempDir()
	for i := 1; i <= 3; i++ {
		if err := c.Capture(context.Background(), v, i, filepath.Join(dir, "p.png")); err != nil {
			t.Fatalf("capture %d: %v", i, err)
		}
	}
	if n := strings.Count(buf.String(), "toolbar not found"); n != 1 {
		t.Errorf("toolbar warnings = %d, want 1\n%s", n, buf.String())
	}
}

func TestCapture_ScanFindsSurface(t *testing.T) {
	calls := 0
	p := pagetest.NewPage().Add(page.Selector{By: page.ByCSS, Value: scanSurfaceCSS},
		&pagetest.Element{PNG: pagetest.PNG(40, 30, color.Black)})
	p.EvalFunc = func(script string, arg any) (string, error) {
		calls++
		if calls < 3 {
			return `{"found":false,"candidates":2}`, nil
		}
		return `{"found":true,"width":40,"height":30}`, nil
	}

	c := New(Config{Surface: SurfaceScan, PollInterval: time.Millisecond, SurfaceTimeout: time.Second})
	path := filepath.Join(t.TempDir(), "1.png")
	if err := c.Capture(context.Background(), p, 1, path); err != nil {
		t.Fatalf("capture: %v", err)
	}
	if calls != 3 {
		t.Errorf("scan calls = %d, want 3", calls)
	}
	if got := decodePNG(t, path).Bounds().Dx(); got != 40 {
		t.Errorf("width = %d, want 40", got)
	}
}

func TestCapture_ScanTimeout(t *testing.T) {
	p := pagetest.NewPage()
	p.EvalFunc = func(string, any) (string, error) { return `{"found":false}`, nil }

	c := New(Config{Surface: SurfaceScan, PollInterval: 2 * time.Millisecond, SurfaceTimeout: 20 * time.Millisecond})
	err := c.Capture(context.Background(), p, 4, filepath.Join(t.TempDir(), "4.png"))
	if !errors.Is(err, ErrCaptureTimeout) {
		t.Fatalf("err = %v, want ErrCaptureTimeout", err)
	}
	if !errors.Is(err, ErrCaptureFailed) {
		t.Fatalf("ErrCaptureTimeout must match ErrCaptureFailed, got %v", err)
	}
}

func TestCapture_NormalizeRestoresOnFailure(t *testing.T) {
	// WHAT: Inline styles are put back even when the screenshot fails.
	// WHY: A viewer left with forced sizes renders the next page wrong.
	var mu sync.Mutex
	var restored map[string]string
	p := pagetest.NewPage().Add(page.Selector{By: page.ByCSS, Value: firstSurfaceCSS},
		&pagetest.Element{ScreenshotErr: errors.New("target closed")})
	p.EvalFunc = func(script string, arg any) (string, error) {
		switch script {
		case normalizeScript:
			return `{"width":"50px","height":"","transform":"scale(2)","position":"absolute"}`, nil
		case restoreScript:
			raw, _ := json.Marshal(arg)
			var got struct {
				Selector string            `json:"selector"`
				Saved    map[string]string `json:"saved"`
			}
			json.Unmarshal(raw, &got)
			mu.Lock()
			restored = got.Saved
			mu.Unlock()
			return "true", nil
		}
		return "false", nil
	}

	err := New(Config{Normalize: true, Width: 1200}).Capture(context.Background(), p, 1, filepath.Join(t.TempDir(), "1.png"))
	if !errors.Is(err, ErrCaptureFailed) {
		t.Fatalf("err = %v, want ErrCaptureFailed", err)
	}
	mu.Lock()
	defer mu.Unlock()
	want := map[string]string{"width": "50px", "height": "", "transform": "scale(2)", "position": "absolute"}
	if len(restored) != len(want) {
		t.Fatalf("restored = %v, want %v", restored, want)
	}
	for k, v := range want {
		if restored[k] != v {
			t.Errorf("restored[%s] = %q, want %q", k, restored[k], v)
		}
	}
}

func TestCapture_CropErrorKeepsImage(t *testing.T) {
	raw := []byte("not a png at all")
	p := pagetest.NewPage().Add(page.Selector{By: page.ByCSS, Value: firstSurfaceCSS}, &pagetest.Element{PNG: raw})
	path := filepath.Join(t.TempDir(), "1.png")

	if err := New(Config{Crop: true}).Capture(context.Background(), p, 1, path); err != nil {
		t.Fatalf("crop errors must not fail the capture: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, raw) {
		t.Error("uncropped image was not kept")
	}
}

func TestCropFile_TrimsBackground(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 50, 40))
	for y := 0; y < 40; y++ {
		for x := 0; x < 50; x++ {
			img.Set(x, y, color.White)
		}
	}
	for y := 5; y < 15; y++ {
		for x := 10; x < 30; x++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	// Near-white noise within tolerance.
	img.Set(45, 35, color.RGBA{R: 250, G: 250, B: 250, A: 255})

	path := filepath.Join(t.TempDir(), "page.png")
	writePNG(t, path, img)

	if err := cropFile(path, 8); err != nil {
		t.Fatalf("crop: %v", err)
	}
	if b := decodePNG(t, path).Bounds(); b.Dx() != 20 || b.Dy() != 10 {
		t.Errorf("cropped size = %dx%d, want 20x10", b.Dx(), b.Dy())
	}
}

func TestCropFile_BlankImageUntouched(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blank.png")
	if err := os.WriteFile(path, pagetest.PNG(30, 20, color.White), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := cropFile(path, 0); err != nil {
		t.Fatalf("crop: %v", err)
	}
	if b := decodePNG(t, path).Bounds(); b.Dx() != 30 || b.Dy() != 20 {
		t.Errorf("size = %dx%d, want 30x20", b.Dx(), b.Dy())
	}
}

func decodePNG(t *testing.T, path string) image.Image {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return img
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}
