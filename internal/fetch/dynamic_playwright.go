package fetch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/multierr"

	"lpforge/internal/lperr"
)

// Lazy loaders only fill media once it nears the viewport, so a rendered
// page is scrolled in viewport-sized steps before capture.
const (
	lazyScrollSteps = 8
	lazyScrollPause = 250 * time.Millisecond
)

// browserSession is one rendered tab. Close releases the tab, the browser
// and the driver behind it.
type browserSession interface {
	Open(url string, timeout time.Duration) error
	WaitFor(selector string, timeout time.Duration) error
	ScrollViewport() (atBottom bool, err error)
	HTML() (string, error)
	Close() error
}

type sessionLauncher func(headless bool, userAgent string) (browserSession, error)

var launchBrowser sessionLauncher = launchPlaywright

func fetchDynamic(ctx context.Context, opts Options) (string, error) {
	return renderPage(ctx, opts, launchBrowser)
}

func renderPage(ctx context.Context, opts Options, launch sessionLauncher) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	session, err := launch(opts.Headless, opts.UserAgent)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = session.Close()
	}()

	if err := session.Open(opts.URL, opts.Timeout); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", lperr.NewTimeout("dynamic fetch", opts.Timeout.String(), err)
		}
		return "", err
	}
	if opts.WaitForSelector != "" {
		if err := session.WaitFor(opts.WaitForSelector, opts.Timeout); err != nil {
			return "", lperr.NewTimeout("wait-for "+opts.WaitForSelector, opts.Timeout.String(), err)
		}
	}
	if err := scrollThrough(ctx, session); err != nil {
		return "", err
	}
	return session.HTML()
}

func scrollThrough(ctx context.Context, session browserSession) error {
	for i := 0; i < lazyScrollSteps; i++ {
		atBottom, err := session.ScrollViewport()
		if err != nil {
			return fmt.Errorf("scroll page: %w", err)
		}
		if atBottom {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(lazyScrollPause):
		}
	}
	return nil
}

type playwrightSession struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page
}

func launchPlaywright(headless bool, userAgent string) (browserSession, error) {
	if err := playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}}); err != nil {
		return nil, fmt.Errorf("install playwright: %w", err)
	}
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}
	s := &playwrightSession{pw: pw}
	s.browser, err = pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(headless),
	})
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("launch chromium: %w", err)
	}
	s.page, err = s.browser.NewPage(playwright.BrowserNewPageOptions{
		UserAgent: playwright.String(userAgent),
	})
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("open tab: %w", err)
	}
	return s, nil
}

func (s *playwrightSession) Open(url string, timeout time.Duration) error {
	_, err := s.page.Goto(url, playwright.PageGotoOptions{
		Timeout:   playwright.Float(float64(timeout.Milliseconds())),
		WaitUntil: playwright.WaitUntilStateNetworkidle,
	})
	return err
}

func (s *playwrightSession) WaitFor(selector string, timeout time.Duration) error {
	return s.page.Locator(selector).WaitFor(playwright.LocatorWaitForOptions{
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
}

const scrollScript = `() => {
	window.scrollBy(0, window.innerHeight);
	return window.innerHeight + window.scrollY >= document.body.scrollHeight;
}`

func (s *playwrightSession) ScrollViewport() (bool, error) {
	v, err := s.page.Evaluate(scrollScript)
	if err != nil {
		return false, err
	}
	atBottom, _ := v.(bool)
	return atBottom, nil
}

func (s *playwrightSession) HTML() (string, error) {
	return s.page.Content()
}

func (s *playwrightSession) Close() error {
	var err error
	if s.page != nil {
		err = multierr.Append(err, s.page.Close())
	}
	if s.browser != nil {
		err = multierr.Append(err, s.browser.Close())
	}
	return multierr.Append(err, s.pw.Stop())
}
