package browser

import (
	"context"
	"fmt"
	"os"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/hazyhaar/viewcap/viewcap/internal/page"
)

// chromeSession is a rod-driven Chrome tab with stealth applied.
type chromeSession struct {
	cfg     Config
	browser *rod.Browser
	page    *rod.Page
	lnch    *launcher.Launcher
	xvfb    *xvfb
}

// chromeLauncher builds the local Chrome launcher for cfg.
func chromeLauncher(cfg Config, x *xvfb) *launcher.Launcher {
	l := launcher.New().Headless(cfg.Headless)

	// Anti-detection flags.
	l = l.Set("disable-blink-features", "AutomationControlled")

	if cfg.Bin != "" {
		l = l.Bin(cfg.Bin)
	}
	if cfg.ProfileDir != "" {
		l = l.UserDataDir(cfg.ProfileDir)
	}
	if cfg.ProfileName != "" {
		l = l.ProfileDir(cfg.ProfileName)
	}
	if x != nil {
		l = l.Env(append(os.Environ(), "DISPLAY="+x.display)...)
	}
	return l
}

func openChrome(ctx context.Context, cfg Config, x *xvfb) (*chromeSession, error) {
	log := cfg.Logger
	s := &chromeSession{cfg: cfg, xvfb: x}

	var wsURL string
	if cfg.RemoteURL != "" {
		wsURL = cfg.RemoteURL
		log.Info("browser: connecting to remote chrome", "url", wsURL)
	} else {
		l := chromeLauncher(cfg, x)
		u, err := l.Context(ctx).Launch()
		if err != nil {
			return nil, fmt.Errorf("browser: launch chrome: %w", err)
		}
		wsURL = u
		s.lnch = l
		log.Info("browser: launched local chrome", "url", wsURL, "profile", cfg.ProfileDir)
	}

	b := rod.New().ControlURL(wsURL).Context(ctx)
	if err := b.Connect(); err != nil {
		s.kill()
		return nil, fmt.Errorf("browser: connect: %w", err)
	}
	// Detach the browser from the launch context.
	s.browser = b.Context(context.Background())

	p, err := stealth.Page(s.browser)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}
	s.page = p
	return s, nil
}

func (s *chromeSession) Navigate(ctx context.Context, url string) error {
	navCtx, cancel := context.WithTimeout(ctx, s.cfg.NavigateTimeout)
	defer cancel()

	p := s.page.Context(navCtx)
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("browser: navigate %s: %w", url, err)
	}
	if err := p.WaitLoad(); err != nil {
		s.cfg.Logger.Warn("browser: wait load timeout", "url", url, "error", err)
	}
	return nil
}

func (s *chromeSession) Query(ctx context.Context, sel page.Selector) ([]page.Element, error) {
	p := s.page.Context(ctx)

	var (
		els rod.Elements
		err error
	)
	if sel.By == page.ByLabel {
		els, err = p.ElementsX(sel.XPath())
	} else {
		els, err = p.Elements(sel.CSS())
	}
	if err != nil {
		return nil, fmt.Errorf("browser: query %s: %w", sel, err)
	}

	out := make([]page.Element, 0, len(els))
	for _, el := range els {
		out = append(out, chromeElement{el: el})
	}
	return out, nil
}

func (s *chromeSession) Eval(ctx context.Context, script string, arg any) (string, error) {
	res, err := s.page.Context(ctx).Eval(script, arg)
	if err != nil {
		return "", fmt.Errorf("browser: eval: %w", err)
	}
	return res.Value.JSON("", ""), nil
}

// Close closes the tab. A launched Chrome is shut down as well; a remote
// one is left running.
func (s *chromeSession) Close() error {
	if s.page != nil {
		s.page.Close()
		s.page = nil
	}
	if s.lnch != nil && s.browser != nil {
		s.browser.Close()
	}
	s.browser = nil
	s.kill()
	return nil
}

func (s *chromeSession) kill() {
	if s.lnch != nil {
		if s.cfg.ProfileDir != "" {
			// Cleanup would delete the operator's profile directory.
			s.lnch.Kill()
		} else {
			s.lnch.Cleanup()
		}
		s.lnch = nil
	}
	s.xvfb.stop()
}

type chromeElement struct {
	el *rod.Element
}

func (e chromeElement) Text(ctx context.Context) (string, error) {
	return e.el.Context(ctx).Text()
}

func (e chromeElement) Screenshot(ctx context.Context) ([]byte, error) {
	return e.el.Context(ctx).Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
}

func (e chromeElement) Activate(ctx context.Context) error {
	_, err := e.el.Context(ctx).Eval(`() => this.click()`)
	return err
}
