package serp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hazyhaar/kabar/record"
	"github.com/hazyhaar/kabar/window"
)

// Fetcher collects one window from the news result pages of a single tab.
// The tab is reused across windows; the caller owns its lifetime.
type Fetcher struct {
	page   Page
	cfg    Config
	logger *slog.Logger
	sleep  func(context.Context, time.Duration) error
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) { f.logger = l }
}

// WithSleep replaces the settle wait. Tests use it to skip delays.
func WithSleep(fn func(context.Context, time.Duration) error) Option {
	return func(f *Fetcher) { f.sleep = fn }
}

// NewFetcher creates a Fetcher driving page.
func NewFetcher(page Page, cfg Config, opts ...Option) (*Fetcher, error) {
	if page == nil {
		return nil, ErrNoBrowser
	}
	cfg.defaults()
	f := &Fetcher{page: page, cfg: cfg, logger: slog.Default(), sleep: sleepCtx}
	for _, o := range opts {
		o(f)
	}
	return f, nil
}

// Name implements collect.Fetcher.
func (f *Fetcher) Name() string { return "news" }

// URL returns the first result page URL for query within w.
func (f *Fetcher) URL(query string, w window.Window) string {
	return BuildURL(f.cfg.BaseURL, query, w, f.cfg.Params)
}

// Fetch loads the result pages for w and parses every block. Pagination
// stops on a page without blocks, when no next control remains, or after
// MaxPages. Any navigation or read failure skips the whole window.
func (f *Fetcher) Fetch(ctx context.Context, query string, w window.Window) (record.Batch, error) {
	u := f.URL(query, w)
	if err := f.page.Navigate(ctx, u); err != nil {
		return record.Batch{}, fmt.Errorf("serp: navigate %s: %w", w, err)
	}
	if err := f.sleep(ctx, f.cfg.LoadDelay); err != nil {
		return record.Batch{}, err
	}

	var b record.Batch
	for n := 1; ; n++ {
		html, err := f.page.HTML(ctx)
		if err != nil {
			return record.Batch{}, fmt.Errorf("serp: read page %d of %s: %w", n, w, err)
		}
		p, err := Parse(html, f.cfg.Selectors, f.cfg.BaseURL)
		if err != nil {
			return record.Batch{}, err
		}
		b.Pages = n
		if p.Blocks == 0 {
			f.logger.Debug("serp: no results on page", "window", w, "page", n)
			break
		}
		for _, r := range p.Records {
			b.Add(r, w)
		}
		for _, s := range p.Skips {
			b.Skip(s.Reason, fmt.Sprintf("page %d %s", n, s.Hint))
		}
		f.logger.Debug("serp: page parsed", "window", w, "page", n, "blocks", p.Blocks, "records", len(p.Records))

		if n >= f.cfg.MaxPages {
			f.logger.Info("serp: page cap reached", "window", w, "max_pages", f.cfg.MaxPages)
			break
		}
		ok, err := f.page.ClickNext(ctx, f.cfg.Selectors.Next)
		if err != nil {
			return record.Batch{}, fmt.Errorf("serp: next page %d of %s: %w", n+1, w, err)
		}
		if !ok {
			break
		}
		if err := f.sleep(ctx, f.cfg.PageDelay); err != nil {
			return record.Batch{}, err
		}
	}
	return b, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
