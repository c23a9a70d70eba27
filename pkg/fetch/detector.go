package fetch

import (
	"bytes"
)

// Script-shell signals: markup that means the server answered with an app
// shell or an interstitial instead of the feed document.
var defaultShellKeywords = []string{
	"__NEXT_DATA__",
	"data-reactroot",
	"challenge-platform",
	"enable javascript",
	"checking your browser",
}

const defaultMinFeedBytes = 256

// Detector decides whether a statically fetched body still needs the
// browser to render.
type Detector struct {
	minBytes int
	keywords [][]byte
}

// NewDetector builds a Detector. Zero minBytes and nil keywords select the
// defaults.
func NewDetector(minBytes int, keywords []string) *Detector {
	if minBytes <= 0 {
		minBytes = defaultMinFeedBytes
	}
	if keywords == nil {
		keywords = defaultShellKeywords
	}
	lowered := make([][]byte, 0, len(keywords))
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		lowered = append(lowered, bytes.ToLower([]byte(kw)))
	}
	return &Detector{minBytes: minBytes, keywords: lowered}
}

// NeedsBrowser reports whether the static body is not a usable feed
// document: too small, carrying script-shell markers, or missing any feed
// root element.
func (d *Detector) NeedsBrowser(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) < d.minBytes {
		return true
	}
	lower := bytes.ToLower(trimmed)
	for _, kw := range d.keywords {
		if bytes.Contains(lower, kw) {
			return true
		}
	}
	return !looksLikeFeed(lower)
}

func looksLikeFeed(lowerBody []byte) bool {
	head := lowerBody
	if len(head) > 2048 {
		head = head[:2048]
	}
	switch {
	case bytes.Contains(head, []byte("<rss")):
		return true
	case bytes.Contains(head, []byte("<feed")):
		return true
	case bytes.Contains(head, []byte("<rdf:rdf")):
		return true
	default:
		return false
	}
}
