package fetch

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

// Probe performs a plain HTTP GET ahead of the browser. Feeds that render
// fine without script execution skip the pool entirely.
type Probe struct {
	base   *colly.Collector
	logger *zap.Logger
}

// NewProbe builds a colly-backed static fetcher.
func NewProbe(timeout time.Duration, userAgent string, logger *zap.Logger) *Probe {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := []colly.CollectorOption{}
	if userAgent != "" {
		opts = append(opts, colly.UserAgent(userAgent))
	}
	base := colly.NewCollector(opts...)
	base.AllowURLRevisit = true
	base.WithTransport(&http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          16,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
	})
	base.SetRequestTimeout(timeout)
	return &Probe{base: base, logger: logger}
}

type probeResult struct {
	status int
	body   []byte
	err    error
}

// Fetch GETs rawURL and returns the status and body. Transport errors come
// back as errors; HTTP-level failures come back as the status code. Canceling
// ctx aborts the underlying request and unblocks the caller.
func (p *Probe) Fetch(ctx context.Context, rawURL string) (int, []byte, error) {
	collector := p.base.Clone()
	collector.Context = ctx

	resultCh := make(chan probeResult, 1)
	var once sync.Once
	send := func(res probeResult) {
		once.Do(func() { resultCh <- res })
	}

	collector.OnResponse(func(r *colly.Response) {
		send(probeResult{status: r.StatusCode, body: append([]byte(nil), r.Body...)})
	})
	collector.OnError(func(r *colly.Response, err error) {
		if err == nil {
			err = errors.New("unknown colly error")
		}
		status := 0
		if r != nil {
			status = r.StatusCode
		}
		send(probeResult{status: status, err: err})
	})

	done := make(chan error, 1)
	go func() {
		if err := collector.Visit(rawURL); err != nil {
			done <- err
			return
		}
		collector.Wait()
		done <- nil
	}()

	select {
	case <-ctx.Done():
		return 0, nil, ctx.Err()
	case err := <-done:
		if err != nil {
			return 0, nil, err
		}
	}

	select {
	case res := <-resultCh:
		return res.status, res.body, res.err
	default:
		return 0, nil, errors.New("probe produced no result")
	}
}
