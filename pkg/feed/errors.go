package feed

import "fmt"

// InvalidFeedError reports a document that fetched fine but is not a
// parseable RSS/Atom structure.
type InvalidFeedError struct {
	URL string
	Err error
}

func (e *InvalidFeedError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("invalid feed structure at %s", e.URL)
	}
	return fmt.Sprintf("invalid feed structure at %s: %v", e.URL, e.Err)
}

func (e *InvalidFeedError) Unwrap() error { return e.Err }

// ItemParseError reports one entry that failed assembly or validation. These
// are collected per feed, not fatal to the batch, unless every entry fails.
type ItemParseError struct {
	FeedURL   string
	ItemTitle string
	Err       error
}

func (e *ItemParseError) Error() string {
	title := e.ItemTitle
	if title == "" {
		title = "<unknown>"
	}
	if e.Err == nil {
		return fmt.Sprintf("parse item %q from %s failed", title, e.FeedURL)
	}
	return fmt.Sprintf("parse item %q from %s failed: %v", title, e.FeedURL, e.Err)
}

func (e *ItemParseError) Unwrap() error { return e.Err }
