package crawler

import (
	"context"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Panel abstracts the scrollable results panel so the convergence state
// machine can be exercised without a browser.
type Panel interface {
	// WaitReady blocks until the results panel is rendered or the bounded
	// wait elapses.
	WaitReady(ctx context.Context) error
	// Scroll pushes the panel to its current bottom and waits for new
	// content to load.
	Scroll(ctx context.Context) error
	// HTML returns a snapshot of the rendered page.
	HTML(ctx context.Context) (string, error)
}

const (
	feedSelector     = `div[role='feed']`
	feedReadyTimeout = 8 * time.Second
)

// scrollJS scrolls the feed container to the bottom and resolves after the
// given settle time, mirroring how the results list loads more items only
// once the existing ones are in view.
const scrollJS = `async () => {
	const el = document.querySelector("div[role='feed']");
	if (!el) return -1;

	el.scrollTop = el.scrollHeight;

	return new Promise((resolve) => {
		setTimeout(() => {
			resolve(el.scrollHeight);
		}, %d);
	});
}`

type pagePanel struct {
	page       playwright.Page
	scrollWait time.Duration
}

func NewPanel(page playwright.Page, scrollWait time.Duration) Panel {
	if scrollWait <= 0 {
		scrollWait = 1800 * time.Millisecond
	}

	return &pagePanel{page: page, scrollWait: scrollWait}
}

func (p *pagePanel) WaitReady(_ context.Context) error {
	//nolint:staticcheck // TODO replace with the new playwright locator API
	_, err := p.page.WaitForSelector(feedSelector, playwright.PageWaitForSelectorOptions{
		Timeout: playwright.Float(float64(feedReadyTimeout.Milliseconds())),
	})
	if err != nil {
		return fmt.Errorf("results panel %q not found: %w", feedSelector, err)
	}

	return nil
}

func (p *pagePanel) Scroll(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	height, err := p.page.Evaluate(fmt.Sprintf(scrollJS, p.scrollWait.Milliseconds()))
	if err != nil {
		return err
	}

	if h, ok := height.(float64); ok && h == -1 {
		return fmt.Errorf("scroll element %q not found", feedSelector)
	}

	if h, ok := height.(int); ok && h == -1 {
		return fmt.Errorf("scroll element %q not found", feedSelector)
	}

	return nil
}

func (p *pagePanel) HTML(_ context.Context) (string, error) {
	return p.page.Content()
}
