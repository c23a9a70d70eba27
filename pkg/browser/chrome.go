package browser

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"
)

// LaunchConfig controls how Chrome processes are started.
type LaunchConfig struct {
	UserAgent string
	// DisableSandbox removes Chrome's process-isolation sandbox. Only set
	// this when running inside a container that already provides isolation.
	DisableSandbox bool
}

type chromeLauncher struct {
	cfg LaunchConfig
}

// NewChromeLauncher returns a Launcher backed by chromedp and headless Chrome.
func NewChromeLauncher(cfg LaunchConfig) Launcher {
	return &chromeLauncher{cfg: cfg}
}

func (l *chromeLauncher) Launch(_ context.Context) (Session, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("enable-automation", false),
	)
	if l.cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(l.cfg.UserAgent))
	}
	if l.cfg.DisableSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("chromedp warmup: %w", err)
	}

	return &chromeSession{
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		allocCancel:   allocCancel,
	}, nil
}

type chromeSession struct {
	browserCtx    context.Context
	browserCancel context.CancelFunc
	allocCancel   context.CancelFunc
}

// Alive reports browser liveness. chromedp cancels the browser context when
// the Chrome process exits or the devtools connection drops, so a non-done
// context means the process is still reachable.
func (s *chromeSession) Alive() bool {
	return s.browserCtx.Err() == nil
}

func (s *chromeSession) NewContext() (context.Context, context.CancelFunc) {
	return chromedp.NewContext(s.browserCtx)
}

func (s *chromeSession) Close(ctx context.Context) error {
	done := make(chan error, 1)
	go func() {
		done <- chromedp.Cancel(s.browserCtx)
	}()
	select {
	case err := <-done:
		s.allocCancel()
		if err != nil {
			return fmt.Errorf("close browser: %w", err)
		}
		return nil
	case <-ctx.Done():
		s.Kill()
		return fmt.Errorf("close browser: %w", ctx.Err())
	}
}

func (s *chromeSession) Kill() {
	s.browserCancel()
	s.allocCancel()
}
