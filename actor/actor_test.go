package actor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/go-cmp/cmp"

	"github.com/hazyhaar/kabar/window"
)

// fakeAPI mimics the run / poll / dataset endpoints.
type fakeAPI struct {
	mu         sync.Mutex
	polls      int
	pollsUntil int    // RUNNING for this many polls, then final
	final      string // final status
	items      []Item
	inputs     []map[string]any
	auth       string
	limits     []int
	noDataset  bool
	datasetErr bool
}

func (f *fakeAPI) router() http.Handler {
	r := chi.NewRouter()
	r.Post("/v2/acts/{actorID}/runs", func(w http.ResponseWriter, req *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.auth = req.Header.Get("Authorization")
		body, _ := io.ReadAll(req.Body)
		var in map[string]any
		json.Unmarshal(body, &in)
		f.inputs = append(f.inputs, in)
		f.writeRun(w, "run-"+strconv.Itoa(len(f.inputs)), StatusRunning)
	})
	r.Get("/v2/actor-runs/{runID}", func(w http.ResponseWriter, req *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.polls++
		status := StatusRunning
		if f.polls > f.pollsUntil {
			status = f.final
		}
		f.writeRun(w, chi.URLParam(req, "runID"), status)
	})
	r.Get("/v2/datasets/{datasetID}/items", func(w http.ResponseWriter, req *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.datasetErr {
			http.Error(w, `{"error":{"type":"record-not-found"}}`, http.StatusNotFound)
			return
		}
		offset, _ := strconv.Atoi(req.URL.Query().Get("offset"))
		limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
		f.limits = append(f.limits, limit)
		end := min(offset+limit, len(f.items))
		page := []Item{}
		if offset < len(f.items) {
			page = f.items[offset:end]
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(page)
	})
	return r
}

func (f *fakeAPI) writeRun(w http.ResponseWriter, id, status string) {
	ds := "ds-" + id
	if f.noDataset {
		ds = ""
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{
		"id": id, "status": status, "defaultDatasetId": ds,
	}})
}

func newTestClient(t *testing.T, api *fakeAPI, pageSize int) *Client {
	t.Helper()
	srv := httptest.NewServer(api.router())
	t.Cleanup(srv.Close)
	return NewClient(ClientConfig{
		BaseURL:      srv.URL,
		Token:        "secret-token",
		PollInterval: time.Millisecond,
		PageSize:     pageSize,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func tweets(n int) []Item {
	out := make([]Item, n)
	for i := range out {
		out[i] = Item{
			"id":        fmt.Sprintf("%d", 1000+i),
			"text":      fmt.Sprintf("tweet &amp; <b>%d</b>\nsecond line", i),
			"createdAt": "Tue May 14 10:22:11 +0000 2024",
			"url":       fmt.Sprintf("https://x.com/u/status/%d", 1000+i),
			"author":    map[string]any{"userName": "warga"},
		}
	}
	return out
}

var may = window.Window{
	Start: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	End:   time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
}

func TestCall_WaitsUntilTerminal(t *testing.T) {
	// WHAT: Call polls until the run leaves RUNNING.
	// WHY: The collector blocks on the remote job before reading results.
	api := &fakeAPI{pollsUntil: 2, final: StatusSucceeded}
	c := newTestClient(t, api, 10)
	run, err := c.Call(context.Background(), "actor-1", map[string]any{"x": 1})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if run.Status != StatusSucceeded || api.polls != 3 {
		t.Errorf("status=%s polls=%d", run.Status, api.polls)
	}
	if api.auth != "Bearer secret-token" {
		t.Errorf("auth header: got %q", api.auth)
	}
}

func TestCall_FailedRunIsTyped(t *testing.T) {
	// WHAT: A FAILED run surfaces as *RunError.
	// WHY: Callers distinguish remote job failure from transport errors.
	api := &fakeAPI{final: StatusFailed}
	c := newTestClient(t, api, 10)
	_, err := c.Call(context.Background(), "actor-1", nil)
	var re *RunError
	if !errors.As(err, &re) {
		t.Fatalf("err: got %v, want *RunError", err)
	}
	if re.Status != StatusFailed {
		t.Errorf("status: got %s", re.Status)
	}
}

func TestCall_NoDataset(t *testing.T) {
	api := &fakeAPI{final: StatusSucceeded, noDataset: true}
	c := newTestClient(t, api, 10)
	if _, err := c.Call(context.Background(), "a", nil); !errors.Is(err, ErrNoDataset) {
		t.Errorf("err: got %v, want ErrNoDataset", err)
	}
}

func TestCall_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota", http.StatusPaymentRequired)
	}))
	defer srv.Close()
	c := NewClient(ClientConfig{BaseURL: srv.URL})
	_, err := c.Call(context.Background(), "a", nil)
	var ae *APIError
	if !errors.As(err, &ae) || ae.StatusCode != http.StatusPaymentRequired {
		t.Errorf("err: got %v", err)
	}
}

func TestItems_Pages(t *testing.T) {
	// WHAT: Items pages with offset/limit and stops on a short page.
	// WHY: Datasets hold up to maxItems entries, beyond one response.
	api := &fakeAPI{final: StatusSucceeded, items: tweets(25)}
	c := newTestClient(t, api, 10)
	n := 0
	for _, err := range c.Items(context.Background(), "ds-1") {
		if err != nil {
			t.Fatalf("items: %v", err)
		}
		n++
	}
	if n != 25 {
		t.Errorf("items: got %d, want 25", n)
	}
	if diff := cmp.Diff([]int{10, 10, 10}, api.limits); diff != "" {
		t.Errorf("page requests (-want +got):\n%s", diff)
	}
}

func TestItems_ExactMultipleEndsWithEmptyPage(t *testing.T) {
	api := &fakeAPI{items: tweets(20)}
	c := newTestClient(t, api, 10)
	n := 0
	for _, err := range c.Items(context.Background(), "ds") {
		if err != nil {
			t.Fatal(err)
		}
		n++
	}
	if n != 20 || len(api.limits) != 3 {
		t.Errorf("items=%d requests=%d", n, len(api.limits))
	}
}

func TestFetcher_Input(t *testing.T) {
	// WHAT: Window bounds use the actor's YYYY-MM-DD_00:00:00_UTC layout.
	// WHY: The actor rejects any other date format.
	f := NewFetcher(NewClient(ClientConfig{}), FetcherConfig{
		MaxItems: 5000, Lang: "in", QueryType: "Latest",
		Extra: map[string]any{"includeReplies": false},
	})
	got := f.Input("RUU Penyiaran", may)
	want := map[string]any{
		"twitterContent": "RUU Penyiaran",
		"since":          "2024-05-01_00:00:00_UTC",
		"until":          "2024-06-01_00:00:00_UTC",
		"maxItems":       5000,
		"lang":           "in",
		"queryType":      "Latest",
		"includeReplies": false,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("input (-want +got):\n%s", diff)
	}
}

func TestFetcher_Fetch(t *testing.T) {
	// WHAT: One window runs the actor and maps items into records.
	// WHY: End-to-end contract of the remote-actor variant.
	items := tweets(3)
	items = append(items, Item{"id": "bad", "text": "no link here"})
	items = append(items, Item{"id": "fb", "text": "fallback", "twitterUrl": "https://twitter.com/u/status/9"})
	api := &fakeAPI{final: StatusSucceeded, items: items}
	f := NewFetcher(newTestClient(t, api, 100), FetcherConfig{ActorID: "CJdippxWmn9uRfooo"})

	b, err := f.Fetch(context.Background(), "RUU Penyiaran", may)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(b.Records) != 4 || len(b.Skips) != 1 {
		t.Fatalf("records=%d skips=%d", len(b.Records), len(b.Skips))
	}
	if b.Skips[0].Hint != "bad" || b.Skips[0].Reason != "missing link" {
		t.Errorf("skip: %+v", b.Skips[0])
	}

	r := b.Records[0]
	if r.Title != "tweet & 0" {
		t.Errorf("title: got %q", r.Title)
	}
	if r.Description != "tweet & 0\nsecond line" {
		t.Errorf("description: got %q", r.Description)
	}
	if r.Source != "warga" || r.Link != "https://x.com/u/status/1000" || r.Window != may {
		t.Errorf("record: %+v", r)
	}
	if r.DateString != "Tue May 14 10:22:11 +0000 2024" {
		t.Errorf("date string: got %q", r.DateString)
	}
	if b.Records[3].Link != "https://twitter.com/u/status/9" {
		t.Errorf("fallback link: got %q", b.Records[3].Link)
	}
	if api.inputs[0]["twitterContent"] != "RUU Penyiaran" {
		t.Errorf("input: %v", api.inputs[0])
	}
}

func TestFetcher_CountsDatasetPages(t *testing.T) {
	// WHAT: Batch.Pages is the number of dataset pages read for the window.
	// WHY: The run log stores pages per window; large datasets span several.
	for _, tc := range []struct {
		items, pageSize, want int
	}{
		{25, 10, 3},
		{20, 10, 2},
		{3, 10, 1},
		{0, 10, 1},
	} {
		api := &fakeAPI{final: StatusSucceeded, items: tweets(tc.items)}
		f := NewFetcher(newTestClient(t, api, tc.pageSize), FetcherConfig{ActorID: "a"})
		b, err := f.Fetch(context.Background(), "q", may)
		if err != nil {
			t.Fatalf("fetch %d items: %v", tc.items, err)
		}
		if b.Pages != tc.want || len(b.Records) != tc.items {
			t.Errorf("%d items by %d: pages=%d records=%d, want pages=%d",
				tc.items, tc.pageSize, b.Pages, len(b.Records), tc.want)
		}
	}
}

func TestFetcher_DatasetErrorSkipsWindow(t *testing.T) {
	// WHAT: A dataset read failure returns an error and no partial records.
	// WHY: A window either yields its records or is skipped as a whole.
	api := &fakeAPI{final: StatusSucceeded, datasetErr: true}
	f := NewFetcher(newTestClient(t, api, 10), FetcherConfig{ActorID: "a"})
	b, err := f.Fetch(context.Background(), "q", may)
	if err == nil {
		t.Fatal("expected error")
	}
	if len(b.Records) != 0 {
		t.Errorf("records: got %d, want 0", len(b.Records))
	}
}

func TestLookup(t *testing.T) {
	obj := map[string]any{"a": map[string]any{"b": "deep"}, "n": float64(42)}
	if got := asString(lookup(obj, "a.b")); got != "deep" {
		t.Errorf("a.b: got %q", got)
	}
	if got := lookup(obj, "a.b.c"); got != nil {
		t.Errorf("a.b.c: got %v", got)
	}
	if got := asString(lookup(obj, "n")); got != "42" {
		t.Errorf("n: got %q", got)
	}
}

func TestSanitize(t *testing.T) {
	cases := map[string]string{
		"<p>Halo <a href='x'>dunia</a></p>": "Halo dunia",
		"a &lt; b &amp; c":                  "a < b & c",
		"  plain  ":                         "plain",
		"":                                  "",
	}
	for in, want := range cases {
		if got := Sanitize(in); got != want {
			t.Errorf("Sanitize(%q): got %q, want %q", in, got, want)
		}
	}
}
