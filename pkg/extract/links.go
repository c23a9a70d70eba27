package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// LinkGroups partitions discovered links by scheme.
type LinkGroups struct {
	HTTP   []string
	Magnet []string
	Other  []string
}

// Links enumerates every anchor href in the given HTML fragment, trims each
// value, drops empties and removes duplicates while preserving first-seen
// order. Malformed HTML never fails; the worst case is an empty slice.
func Links(html string) []string {
	if strings.TrimSpace(html) == "" {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	var links []string
	seen := make(map[string]struct{})
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}
		if _, dup := seen[href]; dup {
			return
		}
		seen[href] = struct{}{}
		links = append(links, href)
	})
	return links
}

// HTTPLinks returns only the http(s) subset of Links.
func HTTPLinks(html string) []string {
	return filterLinks(Links(html), isHTTP)
}

// MagnetLinks returns only the magnet-URI subset of Links.
func MagnetLinks(html string) []string {
	return filterLinks(Links(html), isMagnet)
}

// CategorizeLinks splits the links found in html into http, magnet and other
// groups, each preserving first-seen order.
func CategorizeLinks(html string) LinkGroups {
	var groups LinkGroups
	for _, link := range Links(html) {
		switch {
		case isHTTP(link):
			groups.HTTP = append(groups.HTTP, link)
		case isMagnet(link):
			groups.Magnet = append(groups.Magnet, link)
		default:
			groups.Other = append(groups.Other, link)
		}
	}
	return groups
}

func filterLinks(links []string, keep func(string) bool) []string {
	var out []string
	for _, link := range links {
		if keep(link) {
			out = append(out, link)
		}
	}
	return out
}

func isHTTP(link string) bool {
	lower := strings.ToLower(link)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func isMagnet(link string) bool {
	return strings.HasPrefix(strings.ToLower(link), "magnet:")
}
