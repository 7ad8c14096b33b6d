package serp

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/hazyhaar/kabar/record"
)

// Parsed is the result of parsing one result page.
type Parsed struct {
	Records []record.Record
	Skips   []record.Skip
	// Blocks counts result blocks found, parsed or not. Zero ends pagination.
	Blocks int
}

// Parse extracts result blocks from a rendered page. base resolves
// relative links. A block missing its title or link is skipped with a
// reason; Parse itself only fails when the document cannot be read.
func Parse(html string, sel Selectors, base string) (Parsed, error) {
	sel.defaults()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Parsed{}, fmt.Errorf("serp: parse html: %w", err)
	}

	baseURL, _ := url.Parse(base)
	var p Parsed
	doc.Find(sel.ResultItem).Each(func(i int, s *goquery.Selection) {
		p.Blocks++
		r, reason := parseBlock(s, sel, baseURL)
		if reason != "" {
			p.Skips = append(p.Skips, record.Skip{Reason: reason, Hint: fmt.Sprintf("block %d", i)})
			return
		}
		p.Records = append(p.Records, r)
	})
	return p, nil
}

// parseBlock never panics past its boundary; a malformed block is a skip.
func parseBlock(s *goquery.Selection, sel Selectors, base *url.URL) (r record.Record, reason string) {
	defer func() {
		if rec := recover(); rec != nil {
			r, reason = record.Record{}, fmt.Sprintf("parse panic: %v", rec)
		}
	}()

	title := text(s.Find(sel.Title).First())
	if title == "" {
		return record.Record{}, "missing title"
	}

	linkSel := s.Find(sel.Link).First()
	if linkSel.Length() == 0 && goquery.NodeName(s) == "a" {
		linkSel = s
	}
	href, _ := linkSel.Attr("href")
	link := resolveLink(strings.TrimSpace(href), base)
	if link == "" {
		return record.Record{}, "missing link"
	}

	return record.Record{
		Title:       title,
		Description: text(s.Find(sel.Snippet).First()),
		Link:        link,
		Source:      text(s.Find(sel.Source).First()),
		DateString:  text(s.Find(sel.Date).First()),
	}, ""
}

func text(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}

// resolveLink makes href absolute and unwraps redirect links of the form
// /url?q=<target>.
func resolveLink(href string, base *url.URL) string {
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if u.Path == "/url" {
		for _, key := range []string{"q", "url"} {
			if target := u.Query().Get(key); strings.HasPrefix(target, "http") {
				return target
			}
		}
	}
	if u.IsAbs() {
		return u.String()
	}
	if base == nil {
		return ""
	}
	return base.ResolveReference(u).String()
}
