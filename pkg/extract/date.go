package extract

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Feed dates show up in RFC1123-style pubDate form, ISO-8601 Atom form, and a
// handful of sloppy variants in between. The explicit layouts cover the
// common cases; dateparse picks up the stragglers.
var dateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02 Jan 2006 15:04:05 -0700",
	"02 Jan 2006 15:04:05 MST",
}

// ParseDate parses calendar-date text in common feed formats and returns the
// timestamp, or an error if the text is unparseable (including out-of-range
// days and unrecognized month names).
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date string")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// ParseDateOrNow is the lenient variant: unparseable input yields the current
// time instead of an error.
func ParseDateOrNow(s string) time.Time {
	t, err := ParseDate(s)
	if err != nil {
		return time.Now().UTC()
	}
	return t
}
