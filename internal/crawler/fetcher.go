package crawler

import (
	"context"
	"fmt"

	"github.com/crawlkit/shopscraper/internal/browser"
	"github.com/crawlkit/shopscraper/internal/dom"
)

const navigationRetries = 3

// BrowserFetcher opens a fresh playwright page per task. Pages are not
// reused between tasks so one crashed page cannot poison the next.
type BrowserFetcher struct {
	browser *browser.Browser
}

func NewBrowserFetcher(b *browser.Browser) *BrowserFetcher {
	return &BrowserFetcher{browser: b}
}

func (f *BrowserFetcher) Fetch(ctx context.Context, url string) (dom.Page, func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	page, err := f.browser.NewPage()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open page: %w", err)
	}

	release := func() {
		// Page may already be gone; nothing left to release then.
		_ = page.Close()
	}

	if err := f.browser.NavigateWithRetry(page, url, navigationRetries); err != nil {
		release()
		return nil, nil, fmt.Errorf("failed to navigate to %s: %w", url, err)
	}

	return dom.NewPage(page), release, nil
}
