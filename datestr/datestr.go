// CLAUDE:SUMMARY Converts scraped timestamp text (relative "3 jam yang lalu", localized "20 Mei 2024", machine formats) to absolute times.
// Package datestr normalizes the timestamp strings found on result pages
// and in API payloads.
//
// Three families are understood:
//   - relative phrases in Indonesian or English ("3 jam yang lalu", "2 days ago"),
//     resolved against a reference time;
//   - absolute dates with Indonesian or English month names ("20 Mei 2024"),
//     rewritten through a month-name table before parsing;
//   - machine formats (RFC 3339, the Twitter created_at layout, and whatever
//     dateparse recognizes).
//
// Anything else is reported as unrecognized; callers store a null timestamp.
package datestr

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Parser resolves timestamp strings. The zero value is not usable; use New.
type Parser struct {
	loc *time.Location
	now func() time.Time
}

// Option configures a Parser.
type Option func(*Parser)

// WithLocation sets the location for dates that carry no zone. Default: UTC.
func WithLocation(loc *time.Location) Option {
	return func(p *Parser) {
		if loc != nil {
			p.loc = loc
		}
	}
}

// WithClock sets the reference clock for relative phrases. Default: time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Parser) {
		if now != nil {
			p.now = now
		}
	}
}

// New creates a Parser.
func New(opts ...Option) *Parser {
	p := &Parser{loc: time.UTC, now: time.Now}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Parse converts s to an absolute time. ok is false when s matches no
// known format.
func (p *Parser) Parse(s string) (t time.Time, ok bool) {
	return p.ParseAt(s, p.now())
}

// ParseAt is Parse with an explicit reference time for relative phrases.
func (p *Parser) ParseAt(s string, ref time.Time) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	lower := strings.ToLower(s)

	if t, ok, matched := parseRelative(lower, ref); matched {
		return t, ok
	}
	if t, ok := p.parseLocalized(lower); ok {
		return t, true
	}
	if t, ok := p.parseMachine(s); ok {
		return t, true
	}
	return time.Time{}, false
}

var (
	relativeID = regexp.MustCompile(`^(\d+)\s+(detik|menit|jam|hari|minggu|bulan|tahun)\s+(?:yang\s+)?lalu$`)
	relativeEN = regexp.MustCompile(`^(\d+)\s+(sec|second|min|minute|hour|day|week|month|year)s?\s+ago$`)
)

// parseRelative reports matched when lower has the shape of a relative
// phrase; ok is false when its count is out of range.
func parseRelative(lower string, ref time.Time) (t time.Time, ok, matched bool) {
	var count, unit string
	if m := relativeID.FindStringSubmatch(lower); m != nil {
		count, unit = m[1], indonesianUnits[m[2]]
	} else if m := relativeEN.FindStringSubmatch(lower); m != nil {
		count, unit = m[1], m[2]
	} else {
		return time.Time{}, false, false
	}
	n, err := strconv.Atoi(count)
	if err != nil || n > int(maxAgo/unitSpan[unit]) {
		return time.Time{}, false, true
	}

	switch unit {
	case "sec", "second", "min", "minute", "hour":
		t = ref.Add(-time.Duration(n) * unitSpan[unit])
	case "day":
		t = ref.AddDate(0, 0, -n)
	case "week":
		t = ref.AddDate(0, 0, -7*n)
	case "month":
		t = ref.AddDate(0, -n, 0)
	case "year":
		t = ref.AddDate(-n, 0, 0)
	}
	return t, true, true
}

// maxAgo bounds relative phrases well inside time.Duration's range.
const maxAgo = 200 * 366 * 24 * time.Hour

// unitSpan holds the longest length of each unit.
var unitSpan = map[string]time.Duration{
	"sec":    time.Second,
	"second": time.Second,
	"min":    time.Minute,
	"minute": time.Minute,
	"hour":   time.Hour,
	"day":    24 * time.Hour,
	"week":   7 * 24 * time.Hour,
	"month":  31 * 24 * time.Hour,
	"year":   366 * 24 * time.Hour,
}

var indonesianUnits = map[string]string{
	"detik":  "second",
	"menit":  "minute",
	"jam":    "hour",
	"hari":   "day",
	"minggu": "week",
	"bulan":  "month",
	"tahun":  "year",
}

// monthNames maps lowercase Indonesian and English month tokens to the
// English short names understood by time.Parse.
var monthNames = map[string]string{
	"jan": "Jan", "januari": "Jan", "january": "Jan",
	"feb": "Feb", "februari": "Feb", "february": "Feb",
	"mar": "Mar", "maret": "Mar", "march": "Mar",
	"apr": "Apr", "april": "Apr",
	"mei": "May", "may": "May",
	"jun": "Jun", "juni": "Jun", "june": "Jun",
	"jul": "Jul", "juli": "Jul", "july": "Jul",
	"agu": "Aug", "agt": "Aug", "agustus": "Aug", "aug": "Aug", "august": "Aug",
	"sep": "Sep", "sept": "Sep", "september": "Sep",
	"okt": "Oct", "oktober": "Oct", "oct": "Oct", "october": "Oct",
	"nov": "Nov", "november": "Nov",
	"des": "Dec", "desember": "Dec", "dec": "Dec", "december": "Dec",
}

var localizedLayouts = []string{
	"2 Jan 2006",
	"Jan 2 2006",
	"2 Jan 2006 15:04",
}

// parseLocalized handles "20 Jun 2024", "20 Mei 2024", "Jun 20, 2024".
// Month tokens are substituted word by word, not by substring, so "mei"
// inside another word is left alone.
func (p *Parser) parseLocalized(lower string) (time.Time, bool) {
	fields := strings.Fields(strings.NewReplacer(",", " ", ".", " ").Replace(lower))
	if len(fields) < 3 || len(fields) > 4 {
		return time.Time{}, false
	}
	replaced := false
	for i, f := range fields {
		if en, ok := monthNames[f]; ok {
			fields[i] = en
			replaced = true
		}
	}
	if !replaced {
		return time.Time{}, false
	}
	normalized := strings.Join(fields, " ")
	for _, layout := range localizedLayouts {
		if t, err := time.ParseInLocation(layout, normalized, p.loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

var machineLayouts = []string{
	time.RFC3339Nano,
	time.RubyDate, // Twitter created_at: "Tue May 14 10:22:11 +0000 2024"
	"2006-01-02 15:04:05",
	time.DateOnly,
}

func (p *Parser) parseMachine(s string) (time.Time, bool) {
	for _, layout := range machineLayouts {
		if t, err := time.ParseInLocation(layout, s, p.loc); err == nil {
			return t, true
		}
	}
	// dateparse guesses aggressively; require a digit run long enough to
	// hold a year so bare counts like "5" are not taken as dates.
	if !hasYear.MatchString(s) {
		return time.Time{}, false
	}
	t, err := dateparse.ParseIn(s, p.loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

var hasYear = regexp.MustCompile(`\d{4}`)
