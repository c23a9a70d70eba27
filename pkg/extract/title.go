// Package extract provides the stateless field extractors used by the feed
// pipeline: title cleaning, link enumeration, item-id capture and date parsing.
package extract

import (
	"regexp"
	"strings"
)

var whitespaceRuns = regexp.MustCompile(`\s+`)

// CleanTitle strips an optional prefix pattern, then an optional suffix
// pattern, then collapses whitespace runs to single spaces and trims the ends.
// A nil pattern is skipped. Empty input yields empty output.
func CleanTitle(title string, prefix, suffix *regexp.Regexp) string {
	if title == "" {
		return ""
	}
	if prefix != nil {
		title = prefix.ReplaceAllString(title, "")
	}
	if suffix != nil {
		title = suffix.ReplaceAllString(title, "")
	}
	title = whitespaceRuns.ReplaceAllString(title, " ")
	return strings.TrimSpace(title)
}
