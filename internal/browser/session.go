// CLAUDE:SUMMARY Chrome session for one run: launch or connect once, open stealth tabs, release on every exit path.
// Package browser owns the Chrome process used by the news scraper. A
// Session is acquired once per run, hands out stealth tabs, and is
// released exactly once by Close whatever the run outcome.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// Config configures the browser session.
type Config struct {
	// RemoteURL is the WebSocket URL of an external Chrome instance.
	// Empty = launch a local Chrome via launcher.
	RemoteURL string `yaml:"remote_url"`

	// Bin is the Chrome binary. Empty = launcher's lookup or download.
	Bin string `yaml:"bin"`

	// Headful shows the browser window. Default: headless.
	Headful bool `yaml:"headful"`

	// Sandbox keeps the Chrome sandbox on. Off by default, as most
	// containers cannot provide it.
	Sandbox bool `yaml:"sandbox"`

	// UserAgent overrides the tab's user agent when set.
	UserAgent string `yaml:"user_agent"`

	// ResourceBlocking lists resource types to block (images, fonts, media, stylesheets).
	ResourceBlocking []string `yaml:"resource_blocking"`

	// NavTimeout bounds one navigation. Default: 30s.
	NavTimeout time.Duration `yaml:"nav_timeout"`

	Logger *slog.Logger `yaml:"-"`
}

func (c *Config) defaults() {
	if c.NavTimeout <= 0 {
		c.NavTimeout = 30 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// ErrClosed is returned by OpenTab after Close.
var ErrClosed = errors.New("browser: session closed")

// Session is one Chrome process (or remote connection) for a run.
type Session struct {
	cfg     Config
	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
	tabs    []*Tab
	closed  bool
}

// Launch starts Chrome, or connects to RemoteURL, and returns the session.
// On error nothing is left running.
func Launch(ctx context.Context, cfg Config) (*Session, error) {
	cfg.defaults()
	log := cfg.Logger
	s := &Session{cfg: cfg}

	var wsURL string
	if cfg.RemoteURL != "" {
		wsURL = cfg.RemoteURL
		log.Info("browser: connecting to remote", "url", wsURL)
	} else {
		l := launcher.New().
			Headless(!cfg.Headful).
			NoSandbox(!cfg.Sandbox).
			Set("disable-gpu").
			Set("disable-dev-shm-usage").
			// Anti-detection flags.
			Set("disable-blink-features", "AutomationControlled")
		if cfg.Bin != "" {
			l = l.Bin(cfg.Bin)
		}
		u, err := l.Launch()
		if err != nil {
			l.Cleanup()
			return nil, fmt.Errorf("browser: launch: %w", err)
		}
		wsURL = u
		s.lnch = l
		log.Info("browser: launched local chrome", "url", wsURL, "headful", cfg.Headful)
	}

	b := rod.New().ControlURL(wsURL).Context(context.WithoutCancel(ctx))
	if err := b.Connect(); err != nil {
		s.Close()
		return nil, fmt.Errorf("browser: connect: %w", err)
	}
	s.browser = b
	return s, nil
}

// OpenTab creates a stealth tab with resource blocking applied.
func (s *Session) OpenTab(ctx context.Context) (*Tab, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.browser == nil {
		return nil, ErrClosed
	}

	page, err := stealth.Page(s.browser)
	if err != nil {
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}
	if s.cfg.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: s.cfg.UserAgent}); err != nil {
			s.cfg.Logger.Warn("browser: user agent override failed", "error", err)
		}
	}
	var router *rod.HijackRouter
	if len(s.cfg.ResourceBlocking) > 0 {
		router = applyResourceBlocking(page, s.cfg.ResourceBlocking)
	}

	t := &Tab{page: page, router: router, timeout: s.cfg.NavTimeout, logger: s.cfg.Logger}
	s.tabs = append(s.tabs, t)
	return t, nil
}

// Close closes every tab and the browser, then removes the launched
// process. Safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	for _, t := range s.tabs {
		if err := t.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.tabs = nil
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("browser: close: %w", err))
		}
		s.browser = nil
	}
	if s.lnch != nil {
		s.lnch.Cleanup()
		s.lnch = nil
	}
	s.cfg.Logger.Info("browser: session closed")
	return errors.Join(errs...)
}
