package actor

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/hazyhaar/kabar/record"
	"github.com/hazyhaar/kabar/window"
)

// BoundLayout is the window-bound format the tweet actor expects.
const BoundLayout = "2006-01-02_00:00:00_UTC"

// Fields maps record fields to dot-notation paths inside a dataset item.
type Fields struct {
	Text         string `yaml:"text"`
	Timestamp    string `yaml:"timestamp"`
	Source       string `yaml:"source"`
	Link         string `yaml:"link"`
	FallbackLink string `yaml:"fallback_link"`
	ID           string `yaml:"id"`
}

// DefaultFields matches the tweet scraper's dataset schema.
var DefaultFields = Fields{
	Text:         "text",
	Timestamp:    "createdAt",
	Source:       "author.userName",
	Link:         "url",
	FallbackLink: "twitterUrl",
	ID:           "id",
}

// FetcherConfig configures the per-window actor call.
type FetcherConfig struct {
	ActorID   string
	MaxItems  int
	Lang      string
	QueryType string
	// Extra input keys merged into every run input.
	Extra  map[string]any
	Fields Fields
	// TitleWidth bounds the display width of the derived title. Default: 100.
	TitleWidth int
}

// Fetcher collects one window by running the actor for that window.
type Fetcher struct {
	client *Client
	cfg    FetcherConfig
	logger *slog.Logger
}

// NewFetcher creates a Fetcher over client.
func NewFetcher(client *Client, cfg FetcherConfig) *Fetcher {
	if cfg.Fields == (Fields{}) {
		cfg.Fields = DefaultFields
	}
	if cfg.TitleWidth <= 0 {
		cfg.TitleWidth = 100
	}
	return &Fetcher{client: client, cfg: cfg, logger: client.cfg.Logger}
}

// Name implements collect.Fetcher.
func (f *Fetcher) Name() string { return "actor" }

// Input builds the run input for one window.
func (f *Fetcher) Input(query string, w window.Window) map[string]any {
	in := make(map[string]any, 6+len(f.cfg.Extra))
	maps.Copy(in, f.cfg.Extra)
	in["twitterContent"] = query
	in["since"] = w.Start.Format(BoundLayout)
	in["until"] = w.End.Format(BoundLayout)
	if f.cfg.MaxItems > 0 {
		in["maxItems"] = f.cfg.MaxItems
	}
	if f.cfg.Lang != "" {
		in["lang"] = f.cfg.Lang
	}
	if f.cfg.QueryType != "" {
		in["queryType"] = f.cfg.QueryType
	}
	return in
}

// Fetch runs the actor for w and maps every dataset item to a record.
// A failed run or a dataset read error skips the whole window.
func (f *Fetcher) Fetch(ctx context.Context, query string, w window.Window) (record.Batch, error) {
	run, err := f.client.Call(ctx, f.cfg.ActorID, f.Input(query, w))
	if err != nil {
		return record.Batch{}, err
	}
	f.logger.Debug("actor: run finished", "run_id", run.ID, "dataset", run.DefaultDatasetID, "window", w)

	var b record.Batch
	for page, err := range f.client.Pages(ctx, run.DefaultDatasetID) {
		if err != nil {
			return record.Batch{}, fmt.Errorf("actor: window %s: %w", w, err)
		}
		b.Pages++
		for _, item := range page {
			r, reason := f.toRecord(item)
			if reason != "" {
				b.Skip(reason, asString(lookup(item, f.cfg.Fields.ID)))
				continue
			}
			b.Add(r, w)
		}
	}
	return b, nil
}

func (f *Fetcher) toRecord(item Item) (record.Record, string) {
	fl := f.cfg.Fields
	link := asString(lookup(item, fl.Link))
	if link == "" && fl.FallbackLink != "" {
		link = asString(lookup(item, fl.FallbackLink))
	}
	if link == "" {
		return record.Record{}, "missing link"
	}
	text := Sanitize(asString(lookup(item, fl.Text)))
	return record.Record{
		Title:       f.title(text),
		Description: text,
		Link:        link,
		Source:      asString(lookup(item, fl.Source)),
		DateString:  asString(lookup(item, fl.Timestamp)),
	}, ""
}

// title is the first non-empty line of text, truncated to TitleWidth cells.
func (f *Fetcher) title(text string) string {
	for line := range strings.Lines(text) {
		if line = strings.TrimSpace(line); line != "" {
			return runewidth.Truncate(line, f.cfg.TitleWidth, "…")
		}
	}
	return ""
}

// lookup walks a dot-notation path through nested objects.
func lookup(obj map[string]any, path string) any {
	if path == "" {
		return nil
	}
	var cur any = obj
	for part := range strings.SplitSeq(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[part]
	}
	return cur
}

func asString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		if s == float64(int64(s)) {
			return fmt.Sprintf("%d", int64(s))
		}
	}
	return fmt.Sprintf("%v", v)
}
