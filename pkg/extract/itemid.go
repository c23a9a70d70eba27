package extract

import "regexp"

// DefaultItemIDPattern captures the numeric "p" query parameter WordPress
// feeds use as the post id.
var DefaultItemIDPattern = regexp.MustCompile(`[?&]p=(\d+)`)

// ItemID applies a single-capture-group pattern to rawURL and returns the
// first capture group's text. No match, no capture group, or an empty capture
// all yield "". A nil pattern falls back to DefaultItemIDPattern.
func ItemID(rawURL string, pattern *regexp.Regexp) string {
	if rawURL == "" {
		return ""
	}
	if pattern == nil {
		pattern = DefaultItemIDPattern
	}
	m := pattern.FindStringSubmatch(rawURL)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// ValidLink reports whether rawURL matches the given validation pattern.
// Validation is opt-in: a nil pattern accepts everything non-empty.
func ValidLink(rawURL string, pattern *regexp.Regexp) bool {
	if rawURL == "" {
		return false
	}
	if pattern == nil {
		return true
	}
	return pattern.MatchString(rawURL)
}
