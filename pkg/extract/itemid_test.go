package extract

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestItemID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		url     string
		pattern *regexp.Regexp
		want    string
	}{
		{name: "default pattern question mark", url: "https://x.example/?p=98765", want: "98765"},
		{name: "default pattern ampersand", url: "https://x.example/?feed=rss&p=42", want: "42"},
		{name: "no matching parameter", url: "https://x.example/post/slug", want: ""},
		{name: "empty url", url: "", want: ""},
		{name: "custom pattern", url: "https://x.example/item/777/view", pattern: regexp.MustCompile(`/item/(\d+)/`), want: "777"},
		{name: "pattern without capture group", url: "https://x.example/?p=5", pattern: regexp.MustCompile(`p=\d+`), want: ""},
		{name: "empty capture", url: "https://x.example/id-", pattern: regexp.MustCompile(`id-(\d*)$`), want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ItemID(tt.url, tt.pattern))
		})
	}
}

func TestValidLink(t *testing.T) {
	t.Parallel()

	pattern := regexp.MustCompile(`^https://allowed\.example/`)
	assert.True(t, ValidLink("https://anything.example/x", nil))
	assert.False(t, ValidLink("", nil))
	assert.True(t, ValidLink("https://allowed.example/post", pattern))
	assert.False(t, ValidLink("https://other.example/post", pattern))
}
