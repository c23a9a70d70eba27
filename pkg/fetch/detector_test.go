package fetch

import (
	"strings"
	"testing"
)

func TestDetector_NeedsBrowser(t *testing.T) {
	t.Parallel()

	d := NewDetector(0, nil)
	padding := strings.Repeat("<item><title>entry</title></item>", 20)

	tests := []struct {
		name string
		body string
		want bool
	}{
		{name: "tiny body", body: "<html></html>", want: true},
		{
			name: "rss document passes",
			body: `<?xml version="1.0"?><rss version="2.0"><channel>` + padding + `</channel></rss>`,
			want: false,
		},
		{
			name: "atom document passes",
			body: `<?xml version="1.0"?><feed xmlns="http://www.w3.org/2005/Atom">` + padding + `</feed>`,
			want: false,
		},
		{
			name: "cloudflare interstitial",
			body: `<html><body>Checking your browser before accessing</body>` + padding + `</html>`,
			want: true,
		},
		{
			name: "spa shell",
			body: `<html><script id="__NEXT_DATA__">{}</script>` + padding + `</html>`,
			want: true,
		},
		{
			name: "plain html page",
			body: `<html><body><h1>Not a feed</h1>` + padding + `</body></html>`,
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := d.NeedsBrowser([]byte(tt.body)); got != tt.want {
				t.Fatalf("NeedsBrowser = %v, want %v", got, tt.want)
			}
		})
	}
}
