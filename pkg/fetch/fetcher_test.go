package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/avasile/renderfeed/pkg/browser"
)

func TestFetcher_RejectsBadSchemes(t *testing.T) {
	t.Parallel()

	// The pool is deliberately uninitialized: scheme validation must fail
	// fast without consuming a pool resource.
	pool := browser.NewPool(browser.PoolConfig{Size: 1}, nil, zap.NewNop())
	f := NewFetcher(pool, time.Second, zap.NewNop())

	for _, rawURL := range []string{
		"ftp://files.example/feed.xml",
		"magnet:?xt=urn:btih:abc",
		"file:///etc/passwd",
		"://not a url",
	} {
		_, err := f.Fetch(context.Background(), rawURL)
		require.Error(t, err, rawURL)
		var fetchErr *FetchError
		require.ErrorAs(t, err, &fetchErr, "bad scheme must be a fetch error, not a pool error: %s", rawURL)
		assert.Equal(t, rawURL, fetchErr.URL)
	}
}

func TestFetcher_PoolErrorPropagates(t *testing.T) {
	t.Parallel()

	pool := browser.NewPool(browser.PoolConfig{Size: 1}, nil, zap.NewNop())
	f := NewFetcher(pool, time.Second, zap.NewNop())

	_, err := f.Fetch(context.Background(), "https://feeds.example/rss")
	require.Error(t, err)
	var resErr *browser.ResourceError
	require.ErrorAs(t, err, &resErr, "uninitialized pool must surface a resource error unchanged")
	assert.Equal(t, "acquire", resErr.Op)
}

func TestCheckStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		ok     bool
	}{
		{"success", 200, true},
		{"redirect", 301, true},
		{"last accepted", 399, true},
		{"client error", 404, false},
		{"server error", 503, false},
		{"below range", 199, false},
		{"no document response captured", 0, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := checkStatus(tc.status)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestProbe_Fetch(t *testing.T) {
	t.Parallel()

	const body = `<?xml version="1.0"?><rss version="2.0"><channel></channel></rss>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	p := NewProbe(5*time.Second, "renderfeed-test/1.0", zap.NewNop())
	status, got, err := p.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, body, string(got))
}

func TestProbe_FetchServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewProbe(5*time.Second, "", zap.NewNop())
	status, _, err := p.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, status)
}

func TestProbe_FetchContextCancellation(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
		_, _ = w.Write([]byte("late"))
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	p := NewProbe(30*time.Second, "", zap.NewNop())
	start := time.Now()
	_, _, err := p.Fetch(ctx, srv.URL)
	require.Error(t, err, "a canceled context must abort the probe")
	assert.Less(t, time.Since(start), 5*time.Second, "the probe must not wait out the stalled server")
}

func TestFetchError_Unwrap(t *testing.T) {
	t.Parallel()

	inner := &FetchError{URL: "https://x.example", Err: context.DeadlineExceeded}
	assert.ErrorIs(t, inner, context.DeadlineExceeded)
	assert.Contains(t, inner.Error(), "https://x.example")
}
