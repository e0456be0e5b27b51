package browser

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/launcher/flags"
)

func TestOpen_UnknownBrowser(t *testing.T) {
	_, err := Open(context.Background(), Config{Name: "safari"})
	if !errors.Is(err, ErrUnknownBrowser) {
		t.Fatalf("err = %v, want ErrUnknownBrowser", err)
	}
}

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.defaults()
	if cfg.Name != "chrome" || cfg.NavigateTimeout != 60*time.Second || cfg.Logger == nil {
		t.Errorf("defaults = %+v", cfg)
	}
}

func TestChromeLauncher_ProfileFlags(t *testing.T) {
	// WHAT: Profile directory and profile name reach Chrome's command line.
	// WHY: The operator's logged-in session lives in that profile.
	l := chromeLauncher(Config{ProfileDir: "/home/op/.config/chrome", ProfileName: "Profile 1"}, nil)

	if v := l.Get(flags.UserDataDir); v != "/home/op/.config/chrome" {
		t.Errorf("user-data-dir = %q", v)
	}
	if v := l.Get(flags.ProfileDir); v != "Profile 1" {
		t.Errorf("profile-directory = %q", v)
	}
	if v := l.Get("disable-blink-features"); v != "AutomationControlled" {
		t.Errorf("disable-blink-features = %q", v)
	}
	if l.Has(flags.Headless) {
		t.Error("headless set, want a visible window")
	}
}

func TestChromeLauncher_Headless(t *testing.T) {
	l := chromeLauncher(Config{Headless: true}, nil)
	if !l.Has(flags.Headless) {
		t.Error("headless not set")
	}
}

func TestFirefoxOptions(t *testing.T) {
	// WHAT: Under Xvfb, Firefox sees DISPLAY plus the inherited environment.
	// WHY: playwright's Env replaces the whole process environment.
	t.Setenv("VIEWCAP_TEST_INHERITED", "kept")
	t.Setenv("DISPLAY", ":0")
	x := &xvfb{display: ":42"}
	cfg := Config{Bin: "/opt/firefox/firefox"}

	p := firefoxPersistentOptions(cfg, x)
	if p.Headless == nil || *p.Headless {
		t.Errorf("persistent headless = %v", p.Headless)
	}
	if p.ExecutablePath == nil || *p.ExecutablePath != cfg.Bin {
		t.Errorf("persistent executable = %v", p.ExecutablePath)
	}
	if p.Env["DISPLAY"] != ":42" {
		t.Errorf("persistent DISPLAY = %q", p.Env["DISPLAY"])
	}
	if p.Env["VIEWCAP_TEST_INHERITED"] != "kept" {
		t.Errorf("inherited variable lost: %v", p.Env)
	}
	if f := firefoxLaunchOptions(cfg, x); f.Env["DISPLAY"] != ":42" || f.Env["VIEWCAP_TEST_INHERITED"] != "kept" {
		t.Errorf("launch env = %v", f.Env)
	}

	l := firefoxLaunchOptions(Config{}, nil)
	if l.ExecutablePath != nil || l.Env != nil {
		t.Errorf("launch options = %+v", l)
	}
}

func TestInContext_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	_, err := inContext(ctx, func() (int, error) { called = true; return 1, nil })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	if called {
		t.Error("call ran on a done context")
	}
}

func TestInContext_Blocked(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	release := make(chan struct{})
	defer close(release)

	_, err := inContext(ctx, func() (int, error) { <-release; return 1, nil })
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v", err)
	}
}

func TestXvfbNilSafe(t *testing.T) {
	var x *xvfb
	x.stop()
	if x.env() != nil {
		t.Error("nil xvfb has env")
	}
}
