package feed

import (
	"strings"

	"github.com/mmcdole/gofeed"
)

// Entry fields the pipeline consumes directly; everything else is preserved
// verbatim as item metadata.
func rawEntryFrom(item *gofeed.Item) RawEntry {
	extras := make(map[string]string)
	for key, value := range item.Custom {
		extras[key] = value
	}
	for namespace, fields := range item.Extensions {
		for name, values := range fields {
			if len(values) == 0 {
				continue
			}
			extras[namespace+":"+name] = values[0].Value
		}
	}
	if len(item.Categories) > 0 {
		extras["categories"] = strings.Join(item.Categories, ", ")
	}
	if item.Author != nil && item.Author.Name != "" {
		extras["author"] = item.Author.Name
	}
	if len(item.Enclosures) > 0 && item.Enclosures[0] != nil && item.Enclosures[0].URL != "" {
		extras["enclosure"] = item.Enclosures[0].URL
	}

	// Atom entries often carry only an updated timestamp.
	published := item.Published
	if published == "" {
		published = item.Updated
	}

	return RawEntry{
		Title:       item.Title,
		Link:        item.Link,
		Published:   published,
		Content:     item.Content,
		Description: item.Description,
		GUID:        item.GUID,
		Extras:      extras,
	}
}
