package browser

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/playwright-community/playwright-go"

	"github.com/hazyhaar/viewcap/viewcap/internal/page"
)

// firefoxSession is a playwright-driven Firefox page.
type firefoxSession struct {
	cfg     Config
	pw      *playwright.Playwright
	browser playwright.Browser
	bctx    playwright.BrowserContext
	page    playwright.Page
	xvfb    *xvfb
}

func firefoxPersistentOptions(cfg Config, x *xvfb) playwright.BrowserTypeLaunchPersistentContextOptions {
	opts := playwright.BrowserTypeLaunchPersistentContextOptions{
		Headless: playwright.Bool(cfg.Headless),
	}
	if cfg.Bin != "" {
		opts.ExecutablePath = playwright.String(cfg.Bin)
	}
	if env := x.env(); env != nil {
		opts.Env = env
	}
	return opts
}

func firefoxLaunchOptions(cfg Config, x *xvfb) playwright.BrowserTypeLaunchOptions {
	opts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Headless),
	}
	if cfg.Bin != "" {
		opts.ExecutablePath = playwright.String(cfg.Bin)
	}
	if env := x.env(); env != nil {
		opts.Env = env
	}
	return opts
}

func openFirefox(ctx context.Context, cfg Config, x *xvfb) (*firefoxSession, error) {
	if cfg.RemoteURL != "" {
		cfg.Logger.Warn("browser: remote url is chrome only, ignored", "url", cfg.RemoteURL)
	}
	if cfg.ProfileName != "" {
		cfg.Logger.Warn("browser: profile name is chrome only, ignored", "profile_name", cfg.ProfileName)
	}

	pw, err := inContext(ctx, func() (*playwright.Playwright, error) { return playwright.Run() })
	if err != nil {
		return nil, fmt.Errorf("browser: start playwright: %w", err)
	}
	s := &firefoxSession{cfg: cfg, pw: pw, xvfb: x}

	if cfg.ProfileDir != "" {
		bctx, err := pw.Firefox.LaunchPersistentContext(cfg.ProfileDir, firefoxPersistentOptions(cfg, x))
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("browser: launch firefox: %w", err)
		}
		s.bctx = bctx
		if pages := bctx.Pages(); len(pages) > 0 {
			s.page = pages[0]
		} else if s.page, err = bctx.NewPage(); err != nil {
			s.Close()
			return nil, fmt.Errorf("browser: create tab: %w", err)
		}
	} else {
		b, err := pw.Firefox.Launch(firefoxLaunchOptions(cfg, x))
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("browser: launch firefox: %w", err)
		}
		s.browser = b
		if s.page, err = b.NewPage(); err != nil {
			s.Close()
			return nil, fmt.Errorf("browser: create tab: %w", err)
		}
	}

	cfg.Logger.Info("browser: launched firefox", "profile", cfg.ProfileDir)
	return s, nil
}

func (s *firefoxSession) Navigate(ctx context.Context, url string) error {
	navCtx, cancel := context.WithTimeout(ctx, s.cfg.NavigateTimeout)
	defer cancel()

	_, err := inContext(navCtx, func() (playwright.Response, error) {
		return s.page.Goto(url, playwright.PageGotoOptions{
			WaitUntil: playwright.WaitUntilStateLoad,
			Timeout:   playwright.Float(float64(s.cfg.NavigateTimeout.Milliseconds())),
		})
	})
	if err != nil {
		return fmt.Errorf("browser: navigate %s: %w", url, err)
	}
	return nil
}

func (s *firefoxSession) Query(ctx context.Context, sel page.Selector) ([]page.Element, error) {
	selector := sel.CSS()
	if sel.By == page.ByLabel {
		selector = "xpath=" + sel.XPath()
	}
	els, err := inContext(ctx, func() ([]playwright.ElementHandle, error) {
		return s.page.QuerySelectorAll(selector)
	})
	if err != nil {
		return nil, fmt.Errorf("browser: query %s: %w", sel, err)
	}

	out := make([]page.Element, 0, len(els))
	for _, el := range els {
		out = append(out, firefoxElement{el: el})
	}
	return out, nil
}

func (s *firefoxSession) Eval(ctx context.Context, script string, arg any) (string, error) {
	v, err := inContext(ctx, func() (any, error) { return s.page.Evaluate(script, arg) })
	if err != nil {
		return "", fmt.Errorf("browser: eval: %w", err)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("browser: eval result: %w", err)
	}
	return string(data), nil
}

func (s *firefoxSession) Close() error {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.bctx != nil {
		keep(s.bctx.Close())
		s.bctx = nil
	}
	if s.browser != nil {
		keep(s.browser.Close())
		s.browser = nil
	}
	if s.pw != nil {
		keep(s.pw.Stop())
		s.pw = nil
	}
	s.xvfb.stop()
	if firstErr != nil {
		return fmt.Errorf("browser: close firefox: %w", firstErr)
	}
	return nil
}

type firefoxElement struct {
	el playwright.ElementHandle
}

func (e firefoxElement) Text(ctx context.Context) (string, error) {
	return inContext(ctx, e.el.InnerText)
}

func (e firefoxElement) Screenshot(ctx context.Context) ([]byte, error) {
	return inContext(ctx, func() ([]byte, error) { return e.el.Screenshot() })
}

func (e firefoxElement) Activate(ctx context.Context) error {
	_, err := inContext(ctx, func() (any, error) { return e.el.Evaluate("el => el.click()") })
	return err
}

// inContext runs a blocking playwright call and gives up when ctx is done.
// The call itself keeps running; playwright has no cancellation hook.
func inContext[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn()
		ch <- result{v, err}
	}()
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case r := <-ch:
		return r.v, r.err
	}
}
