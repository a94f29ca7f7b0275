// Package browser owns the one automated browser session the pipeline runs
// against. The session is configured to minimize automation fingerprints and
// to present a plausible geolocation before navigation.
package browser

import (
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
)

// ErrLaunch marks session initialization failures. They are fatal to the
// run: no partial output is attempted without a browser.
var ErrLaunch = errors.New("browser session launch failed")

const (
	searchBaseURL       = "https://www.google.com/maps/search/"
	defaultNavTimeout   = 30 * time.Second
	geolocationAccuracy = 25
)

type Config struct {
	Query       string
	LangCode    string
	Headless    bool
	Geolocation *Geolocation
	UserAgent   string
	NavTimeout  time.Duration
}

// Session is the exclusive handle to the browser context. It is owned by the
// sequential crawl path and never aliased into the enrichment stage.
type Session struct {
	pw        *playwright.Playwright
	browser   playwright.Browser
	context   playwright.BrowserContext
	page      playwright.Page
	closeOnce sync.Once
	closeErr  error
}

// Open launches the browser, applies the stealth profile and navigates to
// the map search results for cfg.Query. On any failure the partially
// acquired resources are released before returning.
func Open(cfg Config) (*Session, error) {
	if cfg.NavTimeout <= 0 {
		cfg.NavTimeout = defaultNavTimeout
	}

	if cfg.LangCode == "" {
		cfg.LangCode = "en"
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLaunch, err)
	}

	s := &Session{pw: pw}

	if err := s.open(cfg); err != nil {
		_ = s.Close()

		return nil, fmt.Errorf("%w: %v", ErrLaunch, err)
	}

	return s, nil
}

func (s *Session) open(cfg Config) error {
	browser, err := s.pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Headless),
		Args:     launchArgs(),
	})
	if err != nil {
		return err
	}

	s.browser = browser

	ctxOpts := playwright.BrowserNewContextOptions{
		UserAgent: playwright.String(userAgent(cfg.UserAgent)),
		Locale:    playwright.String(cfg.LangCode),
		Viewport:  &playwright.Size{Width: 1280, Height: 800},
	}

	if cfg.Geolocation != nil {
		ctxOpts.Geolocation = &playwright.Geolocation{
			Latitude:  cfg.Geolocation.Latitude,
			Longitude: cfg.Geolocation.Longitude,
			Accuracy:  playwright.Float(geolocationAccuracy),
		}
		ctxOpts.Permissions = []string{"geolocation"}
	}

	context, err := browser.NewContext(ctxOpts)
	if err != nil {
		return err
	}

	s.context = context

	// The mask must be registered before any navigation so that detection
	// scripts running at document_start already see the patched values.
	if err := context.AddInitScript(playwright.Script{
		Content: playwright.String(stealthScript(cfg.LangCode)),
	}); err != nil {
		return err
	}

	page, err := context.NewPage()
	if err != nil {
		return err
	}

	s.page = page
	page.SetDefaultTimeout(float64(cfg.NavTimeout.Milliseconds()))

	_, err = page.Goto(searchURL(cfg.Query, cfg.LangCode), playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(cfg.NavTimeout.Milliseconds())),
	})

	return err
}

// Page exposes the single page of the session to the sequential pipeline
// stages (consent resolver, crawler).
func (s *Session) Page() playwright.Page {
	return s.page
}

// Close terminates the browser process. Safe to call on every exit path and
// more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		var errs []error

		if s.context != nil {
			if err := s.context.Close(); err != nil {
				errs = append(errs, err)
			}
		}

		if s.browser != nil {
			if err := s.browser.Close(); err != nil {
				errs = append(errs, err)
			}
		}

		if s.pw != nil {
			if err := s.pw.Stop(); err != nil {
				errs = append(errs, err)
			}
		}

		s.closeErr = errors.Join(errs...)
	})

	return s.closeErr
}

func searchURL(query, langCode string) string {
	return searchBaseURL + url.QueryEscape(query) + "?hl=" + url.QueryEscape(langCode)
}

func userAgent(override string) string {
	if override != "" {
		return override
	}

	// Headless Chromium advertises "HeadlessChrome" in its default UA.
	return "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
}

func launchArgs() []string {
	return []string{
		"--disable-blink-features=AutomationControlled",
		"--no-first-run",
		"--no-default-browser-check",
		"--disable-infobars",
		"--disable-dev-shm-usage",
	}
}
