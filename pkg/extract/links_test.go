package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		html string
		want []string
	}{
		{
			name: "duplicates removed order preserved",
			html: `<p><a href="https://a.example/one">x</a>` +
				`<a href="https://a.example/one">y</a>` +
				`<a href="https://b.example/two">z</a></p>`,
			want: []string{"https://a.example/one", "https://b.example/two"},
		},
		{
			name: "magnet and http mixed",
			html: `<a href="magnet:?xt=urn:btih:abc">m</a><a href="http://x.example">h</a>`,
			want: []string{"magnet:?xt=urn:btih:abc", "http://x.example"},
		},
		{
			name: "hrefs trimmed and empties dropped",
			html: `<a href="  https://x.example/p  ">a</a><a href="   ">b</a><a>c</a>`,
			want: []string{"https://x.example/p"},
		},
		{name: "empty input", html: "", want: nil},
		{name: "no anchors", html: "<div>nothing here</div>", want: nil},
		{
			name: "malformed html still yields links",
			html: `<div><a href="https://x.example/1">one<div></a><a href="https://x.example/2">`,
			want: []string{"https://x.example/1", "https://x.example/2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Links(tt.html))
		})
	}
}

func TestCategorizeLinks(t *testing.T) {
	t.Parallel()

	html := `<a href="https://x.example/p">h</a>` +
		`<a href="magnet:?xt=urn:btih:abc">m</a>` +
		`<a href="ftp://files.example/f">o</a>` +
		`<a href="HTTP://UPPER.example">h2</a>`

	groups := CategorizeLinks(html)
	require.Equal(t, []string{"https://x.example/p", "HTTP://UPPER.example"}, groups.HTTP)
	require.Equal(t, []string{"magnet:?xt=urn:btih:abc"}, groups.Magnet)
	require.Equal(t, []string{"ftp://files.example/f"}, groups.Other)
}

func TestLinkSubsets(t *testing.T) {
	t.Parallel()

	html := `<a href="https://x.example/p">h</a><a href="magnet:?xt=urn:btih:abc">m</a>`
	assert.Equal(t, []string{"https://x.example/p"}, HTTPLinks(html))
	assert.Equal(t, []string{"magnet:?xt=urn:btih:abc"}, MagnetLinks(html))
}
