// Package consent detects and dismisses the localized consent and cookie
// walls Google puts in front of unauthenticated sessions. Everything here is
// best effort: the common case for an unchallenged session is that nothing
// matches within the bounded wait, and that is not an error.
package consent

import (
	"fmt"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
)

// FormSelector matches the reject button of the top-level consent form.
// Exported so deployments can adjust it when the markup changes, which it
// does a few times a year.
var FormSelector = `form[action="https://consent.google.com/save"]:first-of-type button:first-of-type`

// ButtonLabels are the "Reject all" equivalents for the locales this system
// targets, tried verbatim against aria-labels and button text on the top
// page and inside embedded consent frames. Overridable for the same reason
// as FormSelector.
var ButtonLabels = []string{
	"Reject all",
	"Rechazar todo",
	"Rebutja-ho tot",
	"Alle ablehnen",
	"Tout refuser",
	"Rifiuta tutto",
	"Recusar tudo",
	"Alles afwijzen",
	"Odrzuć wszystko",
}

const perAttemptTimeout = 500 * time.Millisecond

// Resolve dismisses a consent overlay if one is present and reports whether
// anything was clicked. Idempotent: calling it again on a clean page is a
// cheap no-op after the bounded wait.
func Resolve(page playwright.Page, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)

	if clickSelector(page, FormSelector) {
		return true
	}

	for {
		for _, label := range ButtonLabels {
			if clickSelector(page, labelSelector(label)) {
				return true
			}

			if clickInConsentFrames(page, label) {
				return true
			}
		}

		if time.Now().After(deadline) {
			return false
		}

		//nolint:staticcheck // fixed pacing between sweeps is intentional here
		page.WaitForTimeout(float64(perAttemptTimeout.Milliseconds()))
	}
}

// labelSelector matches a button either by accessible name or by text.
func labelSelector(label string) string {
	return fmt.Sprintf(`button[aria-label=%q], button:has-text(%q)`, label, label)
}

func clickSelector(page playwright.Page, selector string) bool {
	//nolint:staticcheck // TODO replace with the new playwright locator API
	el, err := page.WaitForSelector(selector, playwright.PageWaitForSelectorOptions{
		Timeout: playwright.Float(float64(perAttemptTimeout.Milliseconds())),
	})
	if err != nil || el == nil {
		return false
	}

	//nolint:staticcheck // TODO replace with the new playwright locator API
	return el.Click() == nil
}

// clickInConsentFrames scans embedded frames. The consent prompt is often an
// isolated iframe served from consent.google.com, invisible to top-level
// selectors.
func clickInConsentFrames(page playwright.Page, label string) bool {
	for _, frame := range page.Frames() {
		if !strings.Contains(frame.URL(), "consent.") {
			continue
		}

		//nolint:staticcheck // TODO replace with the new playwright locator API
		el, err := frame.WaitForSelector(labelSelector(label), playwright.FrameWaitForSelectorOptions{
			Timeout: playwright.Float(float64(perAttemptTimeout.Milliseconds())),
		})
		if err != nil || el == nil {
			continue
		}

		//nolint:staticcheck // TODO replace with the new playwright locator API
		if el.Click() == nil {
			return true
		}
	}

	return false
}
