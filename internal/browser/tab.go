package browser

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// Tab is one stealth page. It satisfies serp.Page.
type Tab struct {
	page    *rod.Page
	router  *rod.HijackRouter
	timeout time.Duration
	logger  *slog.Logger
	once    sync.Once
	err     error
}

// Navigate loads pageURL and waits for the load event. A load wait
// timeout is logged, not returned: the result list is usually rendered
// before slow third-party resources finish.
func (t *Tab) Navigate(ctx context.Context, pageURL string) error {
	navCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	p := t.page.Context(navCtx)
	if err := p.Navigate(pageURL); err != nil {
		return fmt.Errorf("browser: navigate %s: %w", pageURL, err)
	}
	if err := p.WaitLoad(); err != nil {
		t.logger.Warn("browser: wait load timeout", "url", pageURL, "error", err)
	}
	return nil
}

// HTML returns the rendered document as outer HTML.
func (t *Tab) HTML(ctx context.Context) (string, error) {
	html, err := t.page.Context(ctx).HTML()
	if err != nil {
		return "", fmt.Errorf("browser: get DOM: %w", err)
	}
	return html, nil
}

// ClickNext clicks the first element matching selector and waits for the
// resulting navigation. ok is false when nothing matches.
func (t *Tab) ClickNext(ctx context.Context, selector string) (bool, error) {
	navCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	p := t.page.Context(navCtx)
	has, el, err := p.Has(selector)
	if err != nil {
		return false, fmt.Errorf("browser: find %s: %w", selector, err)
	}
	if !has {
		return false, nil
	}

	wait := p.WaitNavigation(proto.PageLifecycleEventNameLoad)
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return false, fmt.Errorf("browser: click %s: %w", selector, err)
	}
	wait()
	return true, nil
}

// Close stops request interception and closes the page.
func (t *Tab) Close() error {
	t.once.Do(func() {
		if t.router != nil {
			if err := t.router.Stop(); err != nil {
				t.logger.Debug("browser: stop hijack router", "error", err)
			}
		}
		if t.page != nil {
			if err := t.page.Close(); err != nil {
				t.err = fmt.Errorf("browser: close tab: %w", err)
			}
		}
	})
	return t.err
}
