package feed

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/avasile/renderfeed/pkg/extract"
	"github.com/avasile/renderfeed/pkg/metrics"
)

// assembler runs the per-entry pipeline: clean the title, extract links from
// the richest content field available, capture the item id, and carry
// non-standard fields over as metadata.
type assembler struct {
	titlePrefix *regexp.Regexp
	titleSuffix *regexp.Regexp
	itemID      *regexp.Regexp
	linkFilter  *regexp.Regexp
	logger      *zap.Logger
}

func (a *assembler) assemble(entry RawEntry, feedURL string) (Item, error) {
	cleaned := extract.CleanTitle(entry.Title, a.titlePrefix, a.titleSuffix)

	if strings.TrimSpace(entry.Title) == "" {
		return Item{}, &ItemParseError{FeedURL: feedURL, Err: errors.New("entry is missing title")}
	}
	link := strings.TrimSpace(entry.Link)
	if link == "" {
		return Item{}, &ItemParseError{FeedURL: feedURL, ItemTitle: cleaned, Err: errors.New("entry is missing link")}
	}
	if strings.TrimSpace(entry.Published) == "" {
		return Item{}, &ItemParseError{FeedURL: feedURL, ItemTitle: cleaned, Err: errors.New("entry is missing publish date")}
	}

	publishedAt, err := extract.ParseDate(entry.Published)
	if err != nil {
		return Item{}, &ItemParseError{FeedURL: feedURL, ItemTitle: cleaned, Err: err}
	}

	if a.linkFilter != nil && !extract.ValidLink(link, a.linkFilter) {
		return Item{}, &ItemParseError{
			FeedURL:   feedURL,
			ItemTitle: cleaned,
			Err:       fmt.Errorf("link %q does not match the validation pattern", link),
		}
	}

	// Rich content wins over the plain description for link scanning.
	content := entry.Content
	if content == "" {
		content = entry.Description
	}
	links := extract.Links(content)
	if len(links) == 0 {
		metrics.IncItemWithoutLinks()
		a.logger.Info("entry content carries no links", zap.String("title", cleaned))
	}

	var metadata map[string]string
	if len(entry.Extras) > 0 || entry.GUID != "" {
		metadata = make(map[string]string, len(entry.Extras)+1)
		for k, v := range entry.Extras {
			metadata[k] = v
		}
		if entry.GUID != "" {
			metadata["guid"] = entry.GUID
		}
	}

	return Item{
		Title:       cleaned,
		Link:        link,
		PublishedAt: publishedAt,
		Links:       links,
		ItemID:      extract.ItemID(link, a.itemID),
		RawContent:  content,
		Metadata:    metadata,
	}, nil
}

// validateItem is the structural contract check every assembled item passes
// before joining a feed.
func validateItem(item Item, feedURL string) error {
	if strings.TrimSpace(item.Title) == "" {
		return &ItemParseError{FeedURL: feedURL, ItemTitle: item.Title, Err: errors.New(`item field "title" must be a non-empty string`)}
	}
	if strings.TrimSpace(item.Link) == "" {
		return &ItemParseError{FeedURL: feedURL, ItemTitle: item.Title, Err: errors.New(`item field "link" must be a non-empty string`)}
	}
	if item.PublishedAt.IsZero() {
		return &ItemParseError{FeedURL: feedURL, ItemTitle: item.Title, Err: errors.New(`item field "published_at" must be a valid timestamp`)}
	}
	for i, link := range item.Links {
		if strings.TrimSpace(link) == "" {
			return &ItemParseError{
				FeedURL:   feedURL,
				ItemTitle: item.Title,
				Err:       fmt.Errorf(`item field "links" contains an empty element at index %d`, i),
			}
		}
	}
	return nil
}
