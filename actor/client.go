// CLAUDE:SUMMARY Remote-actor API client: start a run, block until it reaches a terminal status, page its dataset items.
// Package actor talks to a hosted scraping-actor API (Apify v2 wire format):
// a job ("run") is started with an input document, the client blocks until
// the run finishes, then the run's default dataset is paged item by item.
package actor

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

// Run is the subset of the run object the collector needs.
type Run struct {
	ID               string `json:"id"`
	ActID            string `json:"actId"`
	Status           string `json:"status"`
	StatusMessage    string `json:"statusMessage"`
	DefaultDatasetID string `json:"defaultDatasetId"`
}

// Terminal reports whether the run will not change status anymore.
func (r *Run) Terminal() bool {
	switch r.Status {
	case StatusSucceeded, StatusFailed, StatusTimedOut, StatusAborted:
		return true
	}
	return false
}

// Run statuses.
const (
	StatusReady     = "READY"
	StatusRunning   = "RUNNING"
	StatusSucceeded = "SUCCEEDED"
	StatusFailed    = "FAILED"
	StatusTimedOut  = "TIMED-OUT"
	StatusAborted   = "ABORTED"
)

type runEnvelope struct {
	Data Run `json:"data"`
}

// Item is one dataset entry; its schema belongs to the actor.
type Item = map[string]any

// ClientConfig configures a Client.
type ClientConfig struct {
	// BaseURL of the API. Default: https://api.apify.com.
	BaseURL string
	// Token is sent as a bearer credential.
	Token string
	// WaitSeconds is the server-side long-poll per request (max 60). Default: 60.
	WaitSeconds int
	// PollInterval is the pause between status polls that return early. Default: 2s.
	PollInterval time.Duration
	// MaxWait bounds the total wait for one run. Default: 30m.
	MaxWait time.Duration
	// PageSize is the dataset page size. Default: 1000.
	PageSize int
	// Timeout per HTTP request. Default: 90s (longer than WaitSeconds).
	Timeout time.Duration

	Logger *slog.Logger
}

func (c *ClientConfig) defaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.apify.com"
	}
	if c.WaitSeconds <= 0 || c.WaitSeconds > 60 {
		c.WaitSeconds = 60
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 2 * time.Second
	}
	if c.MaxWait <= 0 {
		c.MaxWait = 30 * time.Minute
	}
	if c.PageSize <= 0 {
		c.PageSize = 1000
	}
	if c.Timeout <= 0 {
		c.Timeout = 90 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Client is a synchronous actor API client.
type Client struct {
	http *resty.Client
	cfg  ClientConfig
}

// NewClient creates a Client.
func NewClient(cfg ClientConfig) *Client {
	cfg.defaults()
	h := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")
	if cfg.Token != "" {
		h.SetAuthToken(cfg.Token)
	}
	return &Client{http: h, cfg: cfg}
}

// Call starts actorID with input and blocks until the run is terminal.
// A run that ends in any status but SUCCEEDED is returned as *RunError.
func (c *Client) Call(ctx context.Context, actorID string, input any) (*Run, error) {
	run, err := c.start(ctx, actorID, input)
	if err != nil {
		return nil, err
	}
	c.cfg.Logger.Debug("actor: run started", "actor", actorID, "run_id", run.ID, "status", run.Status)

	run, err = c.wait(ctx, run)
	if err != nil {
		return nil, err
	}
	if run.Status != StatusSucceeded {
		return run, &RunError{RunID: run.ID, Status: run.Status, Message: run.StatusMessage}
	}
	if run.DefaultDatasetID == "" {
		return run, fmt.Errorf("%w: run %s", ErrNoDataset, run.ID)
	}
	return run, nil
}

func (c *Client) start(ctx context.Context, actorID string, input any) (*Run, error) {
	var env runEnvelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("actorID", actorID).
		SetQueryParam("waitForFinish", strconv.Itoa(c.cfg.WaitSeconds)).
		SetBody(input).
		SetResult(&env).
		Post("/v2/acts/{actorID}/runs")
	if err != nil {
		return nil, fmt.Errorf("actor: start %s: %w", actorID, err)
	}
	if resp.IsError() {
		return nil, apiError("start "+actorID, resp)
	}
	return &env.Data, nil
}

func (c *Client) wait(ctx context.Context, run *Run) (*Run, error) {
	deadline := time.Now().Add(c.cfg.MaxWait)
	for !run.Terminal() {
		if time.Now().After(deadline) {
			return run, fmt.Errorf("%w: run %s still %s after %s", ErrWaitTimeout, run.ID, run.Status, c.cfg.MaxWait)
		}

		var env runEnvelope
		resp, err := c.http.R().
			SetContext(ctx).
			SetPathParam("runID", run.ID).
			SetQueryParam("waitForFinish", strconv.Itoa(c.cfg.WaitSeconds)).
			SetResult(&env).
			Get("/v2/actor-runs/{runID}")
		if err != nil {
			return run, fmt.Errorf("actor: poll %s: %w", run.ID, err)
		}
		if resp.IsError() {
			return run, apiError("poll "+run.ID, resp)
		}
		run = &env.Data

		if !run.Terminal() {
			t := time.NewTimer(c.cfg.PollInterval)
			select {
			case <-ctx.Done():
				t.Stop()
				return run, ctx.Err()
			case <-t.C:
			}
		}
	}
	return run, nil
}

// Pages reads a dataset one page at a time, stopping after a short page.
// The empty page that ends a dataset of exactly PageSize multiples is not
// yielded, except as the first page of an empty dataset. Iteration stops
// at the first error, which is yielded with a nil page.
func (c *Client) Pages(ctx context.Context, datasetID string) iter.Seq2[[]Item, error] {
	return func(yield func([]Item, error) bool) {
		for offset := 0; ; {
			var page []Item
			resp, err := c.http.R().
				SetContext(ctx).
				SetPathParam("datasetID", datasetID).
				SetQueryParams(map[string]string{
					"format": "json",
					"clean":  "true",
					"offset": strconv.Itoa(offset),
					"limit":  strconv.Itoa(c.cfg.PageSize),
				}).
				Get("/v2/datasets/{datasetID}/items")
			if err != nil {
				yield(nil, fmt.Errorf("actor: dataset %s: %w", datasetID, err))
				return
			}
			if resp.IsError() {
				yield(nil, apiError("dataset "+datasetID, resp))
				return
			}
			if err := json.Unmarshal(resp.Body(), &page); err != nil {
				yield(nil, fmt.Errorf("actor: dataset %s: decode: %w", datasetID, err))
				return
			}
			if len(page) > 0 || offset == 0 {
				if !yield(page, nil) {
					return
				}
			}
			if len(page) < c.cfg.PageSize {
				return
			}
			offset += len(page)
		}
	}
}

// Items flattens Pages into single items.
func (c *Client) Items(ctx context.Context, datasetID string) iter.Seq2[Item, error] {
	return func(yield func(Item, error) bool) {
		for page, err := range c.Pages(ctx, datasetID) {
			if err != nil {
				yield(nil, err)
				return
			}
			for _, it := range page {
				if !yield(it, nil) {
					return
				}
			}
		}
	}
}

func apiError(op string, resp *resty.Response) error {
	body := resp.String()
	if len(body) > 512 {
		body = body[:512]
	}
	return &APIError{Op: op, StatusCode: resp.StatusCode(), Body: body}
}
