package datestr

import (
	"testing"
	"time"
)

var ref = time.Date(2025, 7, 1, 12, 30, 0, 0, time.UTC)

func fixed() time.Time { return ref }

func TestParse_RelativeIndonesian(t *testing.T) {
	// WHAT: Indonesian "N <unit> yang lalu" phrases subtract from the reference time.
	// WHY: The news page renders recent results with relative timestamps.
	p := New(WithClock(fixed))
	cases := []struct {
		in   string
		want time.Time
	}{
		{"3 jam yang lalu", ref.Add(-3 * time.Hour)},
		{"45 menit yang lalu", ref.Add(-45 * time.Minute)},
		{"2 hari yang lalu", ref.AddDate(0, 0, -2)},
		{"2 hari lalu", ref.AddDate(0, 0, -2)},
		{"1 minggu yang lalu", ref.AddDate(0, 0, -7)},
		{"3 minggu lalu", ref.AddDate(0, 0, -21)},
		{"1 bulan yang lalu", ref.AddDate(0, -1, 0)},
		{"  5 Jam Yang Lalu ", ref.Add(-5 * time.Hour)},
	}
	for _, tc := range cases {
		got, ok := p.Parse(tc.in)
		if !ok {
			t.Errorf("Parse(%q): not recognized", tc.in)
			continue
		}
		if d := got.Sub(tc.want); d < -time.Second || d > time.Second {
			t.Errorf("Parse(%q): got %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestParse_RelativeEnglish(t *testing.T) {
	// WHAT: English "N units ago" phrases are understood too.
	// WHY: The page language follows the browser locale.
	p := New(WithClock(fixed))
	cases := map[string]time.Time{
		"3 hours ago": ref.Add(-3 * time.Hour),
		"1 hour ago":  ref.Add(-time.Hour),
		"10 mins ago": ref.Add(-10 * time.Minute),
		"4 days ago":  ref.AddDate(0, 0, -4),
		"2 weeks ago": ref.AddDate(0, 0, -14),
	}
	for in, want := range cases {
		got, ok := p.Parse(in)
		if !ok || !got.Equal(want) {
			t.Errorf("Parse(%q): got %s ok=%v, want %s", in, got, ok, want)
		}
	}
}

func TestParse_AbsoluteIgnoresReference(t *testing.T) {
	// WHAT: "20 Jun 2024" is 2024-06-20 whatever the reference time.
	// WHY: Only relative phrases depend on collection time.
	for _, now := range []time.Time{ref, ref.AddDate(3, 0, 0), time.Unix(0, 0)} {
		got, ok := New().ParseAt("20 Jun 2024", now)
		if !ok {
			t.Fatal("20 Jun 2024: not recognized")
		}
		if y, m, d := got.Date(); y != 2024 || m != time.June || d != 20 {
			t.Errorf("ParseAt(ref=%s): got %s", now, got)
		}
	}
}

func TestParse_LocalizedMonths(t *testing.T) {
	// WHAT: Indonesian month names go through the substitution table.
	// WHY: "Mei", "Agu", "Okt", "Des" are not Go month abbreviations.
	p := New()
	cases := map[string]time.Time{
		"20 Mei 2024":      time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC),
		"3 Agu 2024":       time.Date(2024, 8, 3, 0, 0, 0, 0, time.UTC),
		"15 Okt 2023":      time.Date(2023, 10, 15, 0, 0, 0, 0, time.UTC),
		"1 Des 2024":       time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
		"17 Agustus 2024":  time.Date(2024, 8, 17, 0, 0, 0, 0, time.UTC),
		"Jun 20, 2024":     time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC),
		"9 Januari 2025":   time.Date(2025, 1, 9, 0, 0, 0, 0, time.UTC),
		"28 Februari 2025": time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC),
	}
	for in, want := range cases {
		got, ok := p.Parse(in)
		if !ok || !got.Equal(want) {
			t.Errorf("Parse(%q): got %s ok=%v, want %s", in, got, ok, want)
		}
	}
}

func TestParse_Location(t *testing.T) {
	// WHAT: Zone-less dates are interpreted in the configured location.
	// WHY: A date shown to an Indonesian reader is a Jakarta calendar day.
	wib := time.FixedZone("WIB", 7*3600)
	got, ok := New(WithLocation(wib)).Parse("20 Jun 2024")
	if !ok {
		t.Fatal("not recognized")
	}
	if got.Location() != wib {
		t.Errorf("location: got %s", got.Location())
	}
}

func TestParse_MachineFormats(t *testing.T) {
	// WHAT: API timestamps parse without the month table.
	// WHY: The actor dataset delivers created_at in Twitter's layout.
	p := New()
	cases := map[string]time.Time{
		"Tue May 14 10:22:11 +0000 2024": time.Date(2024, 5, 14, 10, 22, 11, 0, time.UTC),
		"2024-05-14T10:22:11Z":           time.Date(2024, 5, 14, 10, 22, 11, 0, time.UTC),
		"2024-05-14":                     time.Date(2024, 5, 14, 0, 0, 0, 0, time.UTC),
	}
	for in, want := range cases {
		got, ok := p.Parse(in)
		if !ok || !got.Equal(want) {
			t.Errorf("Parse(%q): got %s ok=%v, want %s", in, got, ok, want)
		}
	}
}

func TestParse_Unrecognized(t *testing.T) {
	// WHAT: Unknown formats return ok=false instead of failing.
	// WHY: A bad timestamp nulls the field, it never drops the record.
	p := New(WithClock(fixed))
	for _, in := range []string{"", "   ", "kemarin", "baru saja", "5", "beberapa jam yang lalu"} {
		if got, ok := p.Parse(in); ok {
			t.Errorf("Parse(%q): got %s, want unrecognized", in, got)
		}
	}
}

func TestParse_RelativeCountOutOfRange(t *testing.T) {
	// WHAT: Counts that overflow int or time.Duration, or span centuries, are unrecognized.
	// WHY: An "ago" phrase must never resolve to a time after the reference.
	p := New(WithClock(fixed))
	for _, in := range []string{
		"99999999999999999999 jam yang lalu",
		"9999999999999 jam yang lalu",
		"99999999999999999999 hours ago",
		"9223372036854775807 detik lalu",
		"500 tahun yang lalu",
	} {
		if got, ok := p.Parse(in); ok {
			t.Errorf("Parse(%q): got %s, want unrecognized", in, got)
		}
	}
}

func TestParse_RelativeLargeButValid(t *testing.T) {
	p := New(WithClock(fixed))
	got, ok := p.Parse("50 tahun yang lalu")
	if !ok || !got.Equal(ref.AddDate(-50, 0, 0)) {
		t.Errorf("got %s ok=%v", got, ok)
	}
}
