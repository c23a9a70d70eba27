package feed

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"

	"github.com/avasile/renderfeed/pkg/browser"
	"github.com/avasile/renderfeed/pkg/extract"
	"github.com/avasile/renderfeed/pkg/fetch"
	"github.com/avasile/renderfeed/pkg/metrics"
	"github.com/avasile/renderfeed/pkg/retry"
)

// PlaceholderTitle stands in for feeds that carry no title of their own.
const PlaceholderTitle = "Untitled feed"

// Options configures a Client. The zero value is usable; every knob has a
// default.
type Options struct {
	PoolSize        int
	AcquireTimeout  time.Duration
	RecoveryRetries int
	RetryAttempts   int
	FetchTimeout    time.Duration
	BackoffInitial  time.Duration
	BackoffMax      time.Duration
	BackoffFactor   float64
	UserAgent       string

	// DisableSandbox must stay false unless the process runs inside a
	// container that provides its own isolation.
	DisableSandbox bool

	// ProbeFirst tries a plain HTTP GET before spending a browser handle.
	ProbeFirst bool

	TitlePrefixPattern *regexp.Regexp
	TitleSuffixPattern *regexp.Regexp
	ItemIDPattern      *regexp.Regexp
	LinkPattern        *regexp.Regexp

	// Diagnostics, when set, receives every collected per-item parse failure
	// that was not fatal to the batch.
	Diagnostics func(error)
}

func (o *Options) fillDefaults() {
	if o.PoolSize < 1 {
		o.PoolSize = 2
	}
	if o.RetryAttempts < 1 {
		o.RetryAttempts = 3
	}
	if o.FetchTimeout <= 0 {
		o.FetchTimeout = 30 * time.Second
	}
	if o.ItemIDPattern == nil {
		o.ItemIDPattern = extract.DefaultItemIDPattern
	}
}

// textFetcher retrieves the raw text of a feed document.
type textFetcher interface {
	Fetch(ctx context.Context, rawURL string) (string, error)
}

type staticProber interface {
	Fetch(ctx context.Context, rawURL string) (int, []byte, error)
}

// Client is the public entry point: a browser pool plus the parsing pipeline.
type Client struct {
	opts     Options
	pool     *browser.Pool
	fetcher  textFetcher
	probe    staticProber
	detector *fetch.Detector
	retrier  *retry.Retrier
	parser   *gofeed.Parser
	asm      assembler
	logger   *zap.Logger
}

// New builds a Client. The pool is not started until Initialize.
func New(opts Options, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts.fillDefaults()

	launcher := browser.NewChromeLauncher(browser.LaunchConfig{
		UserAgent:      opts.UserAgent,
		DisableSandbox: opts.DisableSandbox,
	})
	pool := browser.NewPool(browser.PoolConfig{
		Size:            opts.PoolSize,
		AcquireTimeout:  opts.AcquireTimeout,
		RecoveryRetries: opts.RecoveryRetries,
	}, launcher, logger)

	c := &Client{
		opts:    opts,
		pool:    pool,
		fetcher: fetch.NewFetcher(pool, opts.FetchTimeout, logger),
		retrier: retry.New(opts.BackoffInitial, opts.BackoffMax, opts.BackoffFactor, logger),
		parser:  gofeed.NewParser(),
		asm: assembler{
			titlePrefix: opts.TitlePrefixPattern,
			titleSuffix: opts.TitleSuffixPattern,
			itemID:      opts.ItemIDPattern,
			linkFilter:  opts.LinkPattern,
			logger:      logger,
		},
		logger: logger,
	}
	if opts.ProbeFirst {
		c.probe = fetch.NewProbe(opts.FetchTimeout, opts.UserAgent, logger)
		c.detector = fetch.NewDetector(0, nil)
	}
	return c
}

// Initialize launches the browser pool. Idempotent.
func (c *Client) Initialize(ctx context.Context) error {
	return c.pool.Initialize(ctx)
}

// Close tears the pool down. Safe to call repeatedly.
func (c *Client) Close(ctx context.Context) error {
	return c.pool.Close(ctx)
}

// PoolStats snapshots current pool occupancy.
func (c *Client) PoolStats() browser.PoolStats {
	return c.pool.Stats()
}

// Initialized reports whether the pool is ready.
func (c *Client) Initialized() bool {
	return c.pool.Initialized()
}

// FetchAndParse retrieves the feed at rawURL and runs the full pipeline:
// retry-wrapped fetch, structural parse, per-entry assembly and validation
// with failures collected rather than fatal, and deduplication by canonical
// link keeping the first occurrence.
func (c *Client) FetchAndParse(ctx context.Context, rawURL string) (*Feed, error) {
	var body string
	err := c.retrier.Do(ctx, "fetch "+rawURL, c.opts.RetryAttempts, func(ctx context.Context) error {
		text, fetchErr := c.retrieve(ctx, rawURL)
		if fetchErr != nil {
			return fetchErr
		}
		body = text
		return nil
	})
	if err != nil {
		return nil, err
	}

	parsed, err := c.parser.ParseString(body)
	if err != nil {
		return nil, &InvalidFeedError{URL: rawURL, Err: err}
	}

	title := parsed.Title
	if title == "" {
		title = PlaceholderTitle
	}
	if len(parsed.Items) == 0 {
		return nil, &InvalidFeedError{URL: rawURL, Err: errors.New("feed has no entries")}
	}

	// Entries run sequentially so output order matches input order.
	items := make([]Item, 0, len(parsed.Items))
	var failures []error
	for _, raw := range parsed.Items {
		item, itemErr := c.buildItem(raw, rawURL)
		if itemErr != nil {
			failures = append(failures, itemErr)
			metrics.IncItemFailed()
			c.logger.Warn("feed entry dropped", zap.String("feed", rawURL), zap.Error(itemErr))
			if c.opts.Diagnostics != nil {
				c.opts.Diagnostics(itemErr)
			}
			continue
		}
		metrics.IncItemParsed()
		items = append(items, item)
	}
	if len(items) == 0 && len(failures) > 0 {
		return nil, failures[0]
	}

	return &Feed{
		Title:       title,
		SourceURL:   rawURL,
		Description: parsed.Description,
		Items:       dedupeByLink(items),
		FetchedAt:   time.Now().UTC(),
	}, nil
}

func (c *Client) buildItem(raw *gofeed.Item, feedURL string) (Item, error) {
	item, err := c.asm.assemble(rawEntryFrom(raw), feedURL)
	if err != nil {
		return Item{}, err
	}
	if err := validateItem(item, feedURL); err != nil {
		return Item{}, err
	}
	return item, nil
}

// retrieve goes through the static probe when enabled and the body passes
// the shell detector; otherwise it spends a browser handle.
func (c *Client) retrieve(ctx context.Context, rawURL string) (string, error) {
	if c.probe != nil {
		status, probeBody, probeErr := c.probe.Fetch(ctx, rawURL)
		switch {
		case probeErr != nil:
			c.logger.Debug("static probe failed, using browser", zap.String("url", rawURL), zap.Error(probeErr))
		case status < 200 || status >= 400:
			c.logger.Debug("static probe got bad status, using browser", zap.String("url", rawURL), zap.Int("status", status))
		case c.detector.NeedsBrowser(probeBody):
			c.logger.Debug("static body looks like a script shell, using browser", zap.String("url", rawURL))
		default:
			c.logger.Debug("static probe satisfied fetch", zap.String("url", rawURL))
			return string(probeBody), nil
		}
	}
	return c.fetcher.Fetch(ctx, rawURL)
}

func dedupeByLink(items []Item) []Item {
	seen := make(map[string]struct{}, len(items))
	out := items[:0]
	for _, item := range items {
		if _, dup := seen[item.Link]; dup {
			continue
		}
		seen[item.Link] = struct{}{}
		out = append(out, item)
	}
	return out
}

// ExtractLinks, ExtractItemID, CleanTitle and ValidateLink from pkg/extract
// are the stateless utility entry points; they need no Client. This var
// block keeps them discoverable from the package most callers import.
var (
	ExtractLinks    = extract.Links
	ExtractItemID   = extract.ItemID
	CleanTitle      = extract.CleanTitle
	ValidateLink    = extract.ValidLink
	CategorizeLinks = extract.CategorizeLinks
)
