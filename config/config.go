// CLAUDE:SUMMARY Defines kabar config structs, loads YAML with a .local override, expands ${ENV}, merges defaults and validates.
// Package config handles kabar configuration from YAML files.
//
// Load reads <name>.yaml, merges <name>.local.yaml over it when present,
// expands ${ENV} references in credentials and URLs, then fills every
// unset field from Defaults. Command-line flags are applied by the caller
// before Validate.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/kabar/actor"
	"github.com/hazyhaar/kabar/internal/browser"
	"github.com/hazyhaar/kabar/serp"
)

// Config is the top-level kabar configuration.
type Config struct {
	Query  string `yaml:"query"`
	Start  Date   `yaml:"start"`
	End    Date   `yaml:"end"`
	Output string `yaml:"output"`
	// Timezone of the date range and of relative timestamps. Default: UTC.
	Timezone string `yaml:"timezone"`
	// Pace is the minimum interval between window fetches. 0 = unlimited.
	Pace time.Duration `yaml:"pace"`

	RunLog  RunLogConfig   `yaml:"runlog"`
	Actor   ActorConfig    `yaml:"actor"`
	News    NewsConfig     `yaml:"news"`
	Browser browser.Config `yaml:"browser"`
}

// RunLogConfig locates the SQLite run log. Empty path disables it.
type RunLogConfig struct {
	Path string `yaml:"path"`
}

// ActorConfig configures the remote-actor API.
type ActorConfig struct {
	BaseURL string `yaml:"base_url"`
	// Token supports ${ENV} expansion.
	Token        string         `yaml:"token"`
	ActorID      string         `yaml:"actor_id"`
	MaxItems     int            `yaml:"max_items"`
	Lang         string         `yaml:"lang"`
	QueryType    string         `yaml:"query_type"`
	Extra        map[string]any `yaml:"extra"`
	Fields       actor.Fields   `yaml:"fields"`
	WaitSeconds  int            `yaml:"wait_seconds"`
	PollInterval time.Duration  `yaml:"poll_interval"`
	MaxWait      time.Duration  `yaml:"max_wait"`
	PageSize     int            `yaml:"page_size"`
	Timeout      time.Duration  `yaml:"timeout"`
	TitleWidth   int            `yaml:"title_width"`
}

// NewsConfig configures the news result scraper.
type NewsConfig struct {
	BaseURL   string            `yaml:"base_url"`
	Params    map[string]string `yaml:"params"`
	LoadDelay time.Duration     `yaml:"load_delay"`
	PageDelay time.Duration     `yaml:"page_delay"`
	MaxPages  int               `yaml:"max_pages"`
	Selectors serp.Selectors    `yaml:"selectors"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Query:    "RUU Penyiaran",
		Start:    NewDate(2024, time.May, 1),
		End:      NewDate(2025, time.May, 30),
		Timezone: "UTC",
		Actor: ActorConfig{
			BaseURL:      "https://api.apify.com",
			Token:        "${APIFY_TOKEN}",
			ActorID:      "CJdippxWmn9uRfooo",
			MaxItems:     5000,
			Lang:         "in",
			QueryType:    "Latest",
			Fields:       actor.DefaultFields,
			WaitSeconds:  60,
			PollInterval: 2 * time.Second,
			MaxWait:      30 * time.Minute,
			PageSize:     1000,
			Timeout:      90 * time.Second,
			TitleWidth:   100,
		},
		News: NewsConfig{
			BaseURL:   "https://www.google.com/search",
			LoadDelay: 2 * time.Second,
			PageDelay: 3 * time.Second,
			MaxPages:  50,
			Selectors: serp.DefaultSelectors,
		},
		Browser: browser.Config{
			ResourceBlocking: []string{"images", "fonts", "media"},
			NavTimeout:       30 * time.Second,
		},
	}
}

// Load reads the configuration file at path. An empty path yields Defaults
// with ${ENV} expansion applied.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		if err := decodeFile(path, &cfg, false); err != nil {
			return nil, err
		}
		local := LocalPath(path)
		var override Config
		err := decodeFile(local, &override, true)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			if err := mergo.Merge(&cfg, override, mergo.WithOverride,
				mergo.WithTransformers(dateTransformer{override: true})); err != nil {
				return nil, fmt.Errorf("config: merge %s: %w", local, err)
			}
		}
	}

	if err := cfg.ApplyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults expands ${ENV} references and fills unset fields.
func (c *Config) ApplyDefaults() error {
	c.Actor.Token = expand(c.Actor.Token)
	c.Actor.BaseURL = expand(c.Actor.BaseURL)
	c.Browser.RemoteURL = expand(c.Browser.RemoteURL)

	d := Defaults()
	d.Actor.Token = expand(d.Actor.Token)
	if err := mergo.Merge(c, d, mergo.WithTransformers(dateTransformer{})); err != nil {
		return fmt.Errorf("config: defaults: %w", err)
	}
	return nil
}

// LocalPath returns the override file for path: kabar.yaml → kabar.local.yaml.
func LocalPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".local" + ext
}

func decodeFile(path string, dst *Config, missingOK bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if missingOK {
			return err
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %s: %v", ErrInvalid, path, err)
	}
	return nil
}

// expand resolves ${VAR} and $VAR against the environment.
func expand(s string) string {
	if !strings.Contains(s, "$") {
		return s
	}
	return os.Expand(s, os.Getenv)
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %v", ErrInvalid, c.Timezone, err)
	}
	return loc, nil
}

// Range returns [Start, End) as midnights in the configured timezone.
func (c *Config) Range() (start, end time.Time, err error) {
	loc, err := c.Location()
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return c.Start.Midnight(loc), c.End.Midnight(loc), nil
}

// Validate checks the fields shared by every command.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Query) == "" {
		errs = append(errs, errors.New("query is empty"))
	}
	if c.Start.IsZero() || c.End.IsZero() {
		errs = append(errs, errors.New("start and end are required"))
	} else if !c.Start.Before(c.End.Time) {
		errs = append(errs, fmt.Errorf("start %s is not before end %s", c.Start, c.End))
	}
	if c.Pace < 0 {
		errs = append(errs, fmt.Errorf("pace %s is negative", c.Pace))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone %q: %v", c.Timezone, err))
	}
	if c.News.MaxPages < 0 {
		errs = append(errs, fmt.Errorf("news.max_pages %d is negative", c.News.MaxPages))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// ValidateActor checks what the posts command needs on top of Validate.
func (c *Config) ValidateActor() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Actor.Token == "" {
		return fmt.Errorf("%w: actor.token is empty (set APIFY_TOKEN or actor.token)", ErrInvalid)
	}
	if c.Actor.ActorID == "" {
		return fmt.Errorf("%w: actor.actor_id is empty", ErrInvalid)
	}
	return nil
}

// DefaultOutput derives an output file name from the query and the kind
// of records, e.g. "ruu_penyiaran_tweets.csv".
func DefaultOutput(query, kind string) string {
	var sb strings.Builder
	underscore := false
	for _, r := range strings.ToLower(strings.ReplaceAll(query, `"`, "")) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			sb.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && sb.Len() > 0 {
			sb.WriteByte('_')
			underscore = true
		}
	}
	slug := strings.TrimSuffix(sb.String(), "_")
	if slug == "" {
		return kind + ".csv"
	}
	return slug + "_" + kind + ".csv"
}

// dateTransformer merges Date values, which mergo cannot see into.
type dateTransformer struct{ override bool }

func (t dateTransformer) Transformer(typ reflect.Type) func(dst, src reflect.Value) error {
	if typ != reflect.TypeOf(Date{}) {
		return nil
	}
	return func(dst, src reflect.Value) error {
		s := src.Interface().(Date)
		if !dst.CanSet() || s.IsZero() {
			return nil
		}
		if t.override || dst.Interface().(Date).IsZero() {
			dst.Set(src)
		}
		return nil
	}
}
