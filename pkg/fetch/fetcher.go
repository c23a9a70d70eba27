// Package fetch drives a single feed retrieval through a pooled browser
// handle, with an optional static-probe fast path for feeds that turn out
// not to need script execution.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/avasile/renderfeed/pkg/browser"
	"github.com/avasile/renderfeed/pkg/metrics"
)

// FetchError reports a failed feed retrieval: bad scheme, navigation failure,
// unacceptable status, or empty body.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("fetch %s failed", e.URL)
	}
	return fmt.Sprintf("fetch %s failed: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Fetcher retrieves fully rendered feed documents via the browser pool.
type Fetcher struct {
	pool    *browser.Pool
	timeout time.Duration
	logger  *zap.Logger
}

// NewFetcher builds a Fetcher on top of an initialized pool.
func NewFetcher(pool *browser.Pool, timeout time.Duration, logger *zap.Logger) *Fetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{pool: pool, timeout: timeout, logger: logger}
}

// Fetch acquires one handle, navigates it to the feed URL and returns the
// response text. The tab and the handle are always released, success or not.
// Non-http(s) URLs fail fast without consuming a pool resource.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", &FetchError{URL: rawURL, Err: fmt.Errorf("parse url: %w", err)}
	}
	switch parsed.Scheme {
	case "http", "https":
	default:
		return "", &FetchError{URL: rawURL, Err: fmt.Errorf("unsupported scheme %q", parsed.Scheme)}
	}

	requestID := uuid.NewString()
	start := time.Now()
	logger := f.logger.With(zap.String("request_id", requestID), zap.String("url", rawURL))

	handle, err := f.pool.Acquire(ctx)
	if err != nil {
		metrics.ObserveFetch("pool_error", time.Since(start))
		return "", err
	}
	defer func() {
		if relErr := f.pool.Release(handle); relErr != nil {
			logger.Error("release browser handle", zap.Error(relErr))
		}
	}()

	session := handle.Session()
	if session == nil {
		metrics.ObserveFetch("pool_error", time.Since(start))
		return "", &browser.ResourceError{Op: "acquire", Err: fmt.Errorf("acquired handle has no session")}
	}

	tabCtx, cancelTab := session.NewContext()
	defer cancelTab()
	runCtx, cancelRun := context.WithTimeout(tabCtx, f.timeout)
	defer cancelRun()
	stopForward := forwardCancel(ctx, cancelRun)
	defer stopForward()

	meta := newDocMeta()
	chromedp.ListenTarget(runCtx, meta.captureEvent)

	if err := chromedp.Run(runCtx,
		network.Enable(),
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		metrics.ObserveFetch("navigation_error", time.Since(start))
		return "", &FetchError{URL: rawURL, Err: fmt.Errorf("navigate: %w", err)}
	}

	status, docRequest := meta.snapshot()
	if err := checkStatus(status); err != nil {
		metrics.ObserveFetch("bad_status", time.Since(start))
		return "", &FetchError{URL: rawURL, Err: err}
	}

	body, err := f.readBody(runCtx, docRequest)
	if err != nil {
		metrics.ObserveFetch("read_error", time.Since(start))
		return "", &FetchError{URL: rawURL, Err: err}
	}
	if strings.TrimSpace(body) == "" {
		metrics.ObserveFetch("empty_body", time.Since(start))
		return "", &FetchError{URL: rawURL, Err: fmt.Errorf("empty response body")}
	}

	metrics.ObserveFetch("success", time.Since(start))
	logger.Debug("feed fetched",
		zap.Int("status", status),
		zap.Int("bytes", len(body)),
		zap.Duration("duration", time.Since(start)),
	)
	return body, nil
}

// readBody pulls the raw document response when the request id is known;
// Chrome's XML viewer mangles the DOM, so the network-level body is the
// trustworthy source. The rendered DOM is the fallback.
func (f *Fetcher) readBody(runCtx context.Context, docRequest network.RequestID) (string, error) {
	if docRequest != "" {
		var body string
		err := chromedp.Run(runCtx, chromedp.ActionFunc(func(ctx context.Context) error {
			raw, bodyErr := network.GetResponseBody(docRequest).Do(ctx)
			if bodyErr != nil {
				return bodyErr
			}
			body = string(raw)
			return nil
		}))
		if err == nil && body != "" {
			return body, nil
		}
		f.logger.Debug("raw response body unavailable, reading DOM", zap.Error(err))
	}

	var html string
	if err := chromedp.Run(runCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	return html, nil
}

// checkStatus gates the document response status. A zero status means no
// document response event was ever captured, which is as much a failed fetch
// as an explicit error status.
func checkStatus(status int) error {
	if status == 0 {
		return errors.New("no document response captured")
	}
	if status < 200 || status >= 400 {
		return fmt.Errorf("unexpected status %d", status)
	}
	return nil
}

type docMeta struct {
	mu        sync.Mutex
	status    int
	requestID network.RequestID
}

func newDocMeta() *docMeta {
	return &docMeta{}
}

func (m *docMeta) captureEvent(ev any) {
	resp, ok := ev.(*network.EventResponseReceived)
	if !ok || resp.Type != network.ResourceTypeDocument || resp.Response == nil {
		return
	}
	m.mu.Lock()
	if m.requestID == "" {
		m.status = int(resp.Response.Status)
		m.requestID = resp.RequestID
	}
	m.mu.Unlock()
}

func (m *docMeta) snapshot() (int, network.RequestID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status, m.requestID
}

// forwardCancel propagates cancellation of the caller's context into the tab
// context, which chromedp derives from the browser, not the caller.
func forwardCancel(parent context.Context, cancel context.CancelFunc) func() {
	done := make(chan struct{})
	go func() {
		select {
		case <-parent.Done():
			cancel()
		case <-done:
		}
	}()
	return func() { close(done) }
}
