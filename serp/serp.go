// CLAUDE:SUMMARY Search-engine news scraper: date-filtered result URL per window, rendered-page pagination, result block parsing.
// Package serp collects news results from a search engine's result page
// rendered in a browser. For each window it loads a URL carrying the query
// and a cd_min/cd_max date filter, parses the visible result blocks, and
// follows the "next page" control until it disappears or a page is empty.
//
// The page is reached through the Page interface; browser.Tab is the
// production implementation.
package serp

import (
	"context"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/hazyhaar/kabar/window"
)

// Page is a rendered browser tab.
type Page interface {
	// Navigate loads url and waits for the load event.
	Navigate(ctx context.Context, url string) error
	// HTML returns the current rendered document.
	HTML(ctx context.Context) (string, error)
	// ClickNext clicks the element matching selector. ok is false when no
	// such element exists.
	ClickNext(ctx context.Context, selector string) (ok bool, err error)
}

// Selectors locate the parts of a result page. The result page markup is
// owned by the search engine and changes without notice, so every
// selector is configurable.
type Selectors struct {
	ResultItem string `yaml:"result_item"`
	Title      string `yaml:"title"`
	Link       string `yaml:"link"`
	Source     string `yaml:"source"`
	Snippet    string `yaml:"snippet"`
	Date       string `yaml:"date"`
	Next       string `yaml:"next"`
}

// DefaultSelectors match the news tab markup at the time of writing.
var DefaultSelectors = Selectors{
	ResultItem: "div.SoaBEf",
	Title:      "div.n0jPhd",
	Link:       "a.WlydOe",
	Source:     "span",
	Snippet:    "div.GI74Re",
	Date:       "div.OSrXXb",
	Next:       "#pnnext",
}

func (s *Selectors) defaults() {
	d := DefaultSelectors
	for _, p := range []struct {
		dst *string
		def string
	}{
		{&s.ResultItem, d.ResultItem},
		{&s.Title, d.Title},
		{&s.Link, d.Link},
		{&s.Source, d.Source},
		{&s.Snippet, d.Snippet},
		{&s.Date, d.Date},
		{&s.Next, d.Next},
	} {
		if *p.dst == "" {
			*p.dst = p.def
		}
	}
}

// Config configures the news scraper.
type Config struct {
	// BaseURL of the search endpoint. Default: https://www.google.com/search.
	BaseURL string
	// Params are extra query parameters (e.g. hl, gl) added to every URL.
	Params map[string]string
	// LoadDelay is the settle time after the first page of a window. Default: 2s.
	LoadDelay time.Duration
	// PageDelay is the settle time after clicking "next". Default: 3s.
	PageDelay time.Duration
	// MaxPages caps pages per window. Default: 50.
	MaxPages  int
	Selectors Selectors
}

func (c *Config) defaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://www.google.com/search"
	}
	if c.LoadDelay <= 0 {
		c.LoadDelay = 2 * time.Second
	}
	if c.PageDelay <= 0 {
		c.PageDelay = 3 * time.Second
	}
	if c.MaxPages <= 0 {
		c.MaxPages = 50
	}
	c.Selectors.defaults()
}

// DateLayout is the cd_min/cd_max format.
const DateLayout = "01/02/2006"

// BuildURL returns the result page URL for query restricted to w. The
// date filter is inclusive, so cd_max is the window's last day. Double
// quotes are dropped from the query before encoding.
func BuildURL(base, query string, w window.Window, params map[string]string) string {
	q := strings.TrimSpace(strings.ReplaceAll(query, `"`, ""))
	tbs := "cdr:1,cd_min:" + w.Start.Format(DateLayout) +
		",cd_max:" + w.LastDay().Format(DateLayout) + ",sbd:1"

	var sb strings.Builder
	sb.WriteString(base)
	sb.WriteString("?q=")
	sb.WriteString(url.QueryEscape(q))
	sb.WriteString("&tbs=")
	sb.WriteString(tbs)
	sb.WriteString("&tbm=nws")

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		sb.WriteByte('&')
		sb.WriteString(url.QueryEscape(k))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(params[k]))
	}
	return sb.String()
}
