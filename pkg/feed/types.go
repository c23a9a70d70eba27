// Package feed turns rendered feed documents into normalized feeds: it
// coordinates the retry-wrapped fetch, the gofeed parse, per-entry assembly
// and validation, and link-based deduplication.
package feed

import (
	"time"
)

// Feed is one fetched and parsed feed. Immutable after construction.
type Feed struct {
	Title       string    `json:"title"`
	SourceURL   string    `json:"source_url"`
	Description string    `json:"description,omitempty"`
	Items       []Item    `json:"items"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// Item is one normalized feed entry.
type Item struct {
	Title       string            `json:"title"`
	Link        string            `json:"link"`
	PublishedAt time.Time         `json:"published_at"`
	Links       []string          `json:"links"`
	ItemID      string            `json:"item_id,omitempty"`
	RawContent  string            `json:"raw_content,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// RawEntry is the transient per-entry view handed to the assembler, consumed
// once. Extras carries entry fields outside the standard set verbatim.
type RawEntry struct {
	Title       string
	Link        string
	Published   string
	Content     string
	Description string
	GUID        string
	Extras      map[string]string
}
