package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/avasile/renderfeed/pkg/metrics"
)

// PoolStats is a point-in-time snapshot of pool occupancy.
type PoolStats struct {
	Total     int `json:"total"`
	Available int `json:"available"`
	InUse     int `json:"in_use"`
}

// PoolConfig sizes the pool and bounds its waiting/recovery behavior.
type PoolConfig struct {
	Size            int
	AcquireTimeout  time.Duration
	RecoveryRetries int
}

const (
	defaultAcquireTimeout  = 60 * time.Second
	defaultRecoveryRetries = 3
)

type handoff struct {
	handle *Handle
	err    error
}

type waiter struct {
	ch chan handoff
}

// Pool owns a fixed set of browser handles and hands them out one caller at
// a time. Waiters are served strictly FIFO. All mutable state (available,
// in-use, waiters) is guarded by a single mutex; a handle is never tracked in
// two collections at once, and a handle undergoing liveness recovery is
// tracked in neither until recovery resolves.
type Pool struct {
	mu          sync.Mutex
	initMu      sync.Mutex
	cfg         PoolConfig
	launcher    Launcher
	logger      *zap.Logger
	handles     []*Handle
	available   []*Handle
	inUse       map[*Handle]struct{}
	waiters     []*waiter
	initialized bool
}

// NewPool builds an uninitialized pool.
func NewPool(cfg PoolConfig, launcher Launcher, logger *zap.Logger) *Pool {
	if cfg.Size < 1 {
		cfg.Size = 1
	}
	if cfg.AcquireTimeout <= 0 {
		cfg.AcquireTimeout = defaultAcquireTimeout
	}
	if cfg.RecoveryRetries < 1 {
		cfg.RecoveryRetries = defaultRecoveryRetries
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pool{
		cfg:      cfg,
		launcher: launcher,
		logger:   logger,
	}
}

// Initialize launches all handles concurrently. A second call while already
// initialized is a no-op. On partial failure every handle that did launch is
// torn down before the error is returned.
func (p *Pool) Initialize(ctx context.Context) error {
	p.initMu.Lock()
	defer p.initMu.Unlock()

	if p.Initialized() {
		return nil
	}

	handles := make([]*Handle, p.cfg.Size)
	launchErrs := make([]error, p.cfg.Size)
	var wg sync.WaitGroup
	for i := range handles {
		handles[i] = NewHandle(p.launcher, p.logger)
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			launchErrs[i] = handles[i].Launch(ctx)
		}(i)
	}
	wg.Wait()

	var firstErr error
	for _, err := range launchErrs {
		if err != nil {
			firstErr = err
			break
		}
	}
	if firstErr != nil {
		for i, h := range handles {
			if launchErrs[i] == nil {
				if err := h.Close(ctx); err != nil {
					p.logger.Warn("cleanup of partially initialized pool", zap.Error(err))
				}
			}
		}
		return &ResourceError{Op: "initialize", Err: firstErr}
	}

	p.mu.Lock()
	p.handles = handles
	p.available = append([]*Handle(nil), handles...)
	p.inUse = make(map[*Handle]struct{}, len(handles))
	p.waiters = nil
	p.initialized = true
	p.publishStatsLocked()
	p.mu.Unlock()

	p.logger.Info("browser pool initialized", zap.Int("size", p.cfg.Size))
	return nil
}

// Acquire returns an available handle, restarting it first if it died. When
// the pool is exhausted the caller queues FIFO and resumes on the next
// release, or fails with a timeout after the configured wait.
func (p *Pool) Acquire(ctx context.Context) (*Handle, error) {
	p.mu.Lock()
	if !p.initialized {
		p.mu.Unlock()
		return nil, &ResourceError{Op: "acquire", Err: errors.New("pool is not initialized")}
	}

	if len(p.available) > 0 {
		h := p.available[0]
		p.available = p.available[1:]
		p.publishStatsLocked()
		p.mu.Unlock()

		if err := p.ensureAlive(ctx, h); err != nil {
			p.requeue(h)
			return nil, err
		}

		p.mu.Lock()
		// The pool may have closed while the lock was dropped for the
		// liveness check; its maps are gone, so the handle must not be
		// tracked, only torn down.
		if !p.initialized {
			p.mu.Unlock()
			h.Kill()
			return nil, &ResourceError{Op: "acquire", Err: errors.New("pool closed while acquiring")}
		}
		p.inUse[h] = struct{}{}
		p.publishStatsLocked()
		p.mu.Unlock()
		return h, nil
	}

	w := &waiter{ch: make(chan handoff, 1)}
	p.waiters = append(p.waiters, w)
	p.mu.Unlock()

	timer := time.NewTimer(p.cfg.AcquireTimeout)
	defer timer.Stop()

	select {
	case hd := <-w.ch:
		return hd.handle, hd.err
	case <-timer.C:
		p.abandonWaiter(w)
		return nil, &ResourceError{
			Op:  "acquire",
			Err: fmt.Errorf("timed out after %s waiting for a browser handle", p.cfg.AcquireTimeout),
		}
	case <-ctx.Done():
		p.abandonWaiter(w)
		return nil, &ResourceError{Op: "acquire", Err: ctx.Err()}
	}
}

// abandonWaiter removes w from the queue. If a release dequeued w first, the
// hand-off is already in flight; the handle it carries is put back into
// circulation.
func (p *Pool) abandonWaiter(w *waiter) {
	p.mu.Lock()
	for i, queued := range p.waiters {
		if queued == w {
			p.waiters = append(p.waiters[:i], p.waiters[i+1:]...)
			p.mu.Unlock()
			return
		}
	}
	p.mu.Unlock()

	hd := <-w.ch
	if hd.handle != nil {
		p.mu.Lock()
		if !p.initialized {
			p.mu.Unlock()
			hd.handle.Kill()
			return
		}
		delete(p.inUse, hd.handle)
		p.publishStatsLocked()
		p.mu.Unlock()
		p.requeue(hd.handle)
	}
}

// Release returns a handle to the pool. It fails when the pool is not
// initialized and when the handle is not currently tracked as in-use, which
// covers both double releases and handles from another pool.
func (p *Pool) Release(h *Handle) error {
	p.mu.Lock()
	if !p.initialized {
		p.mu.Unlock()
		return &ResourceError{Op: "release", Err: errors.New("pool is not initialized")}
	}
	if _, ok := p.inUse[h]; !ok {
		p.mu.Unlock()
		return &ResourceError{Op: "release", Err: errors.New("handle is not checked out from this pool")}
	}
	// Take the handle out of in-use tracking before anything else so a
	// concurrent double release fails immediately.
	delete(p.inUse, h)
	p.publishStatsLocked()
	p.mu.Unlock()

	p.requeue(h)
	return nil
}

// requeue puts a handle that is tracked in neither collection back into
// circulation: hand it to the longest waiter after the same liveness check a
// direct acquire gets, or park it in the available set when nobody is
// waiting. A failed recovery is delivered to the longest waiter rather than
// leaving it to wait out its timeout on a handle that cannot serve it; the
// next waiter gets a fresh recovery attempt. When the pool closed in the
// meantime its maps are gone, so the handle is torn down instead of tracked.
func (p *Pool) requeue(h *Handle) {
	for {
		p.mu.Lock()
		if !p.initialized {
			p.mu.Unlock()
			h.Kill()
			return
		}
		if len(p.waiters) == 0 {
			p.available = append(p.available, h)
			p.publishStatsLocked()
			p.mu.Unlock()
			return
		}
		p.mu.Unlock()

		// Liveness check outside the lock. The handle is tracked in neither
		// collection while it recovers.
		recoverErr := p.ensureAlive(context.Background(), h)

		p.mu.Lock()
		if !p.initialized {
			p.mu.Unlock()
			h.Kill()
			return
		}
		if len(p.waiters) == 0 {
			// The waiter timed out during recovery; loop to park the handle.
			p.mu.Unlock()
			continue
		}
		w := p.waiters[0]
		p.waiters = p.waiters[1:]
		if recoverErr != nil {
			w.ch <- handoff{err: recoverErr}
			p.mu.Unlock()
			continue
		}
		p.inUse[h] = struct{}{}
		w.ch <- handoff{handle: h}
		p.publishStatsLocked()
		p.mu.Unlock()
		return
	}
}

// ensureAlive restarts a dead handle in place, bounded by the recovery
// budget. Liveness is only ever checked here, synchronously at acquire and
// hand-off time; the pool never polls in the background.
func (p *Pool) ensureAlive(ctx context.Context, h *Handle) error {
	if h.Alive() {
		return nil
	}
	var lastErr error
	for attempt := 1; attempt <= p.cfg.RecoveryRetries; attempt++ {
		metrics.IncRecovery()
		p.logger.Warn("browser handle dead, restarting",
			zap.Int("attempt", attempt),
			zap.Int("budget", p.cfg.RecoveryRetries),
		)
		if err := h.Restart(ctx); err != nil {
			lastErr = err
			continue
		}
		if h.Alive() {
			return nil
		}
		lastErr = errors.New("handle still dead after restart")
	}
	return &ResourceError{Op: "recover", Err: lastErr}
}

// Close tears down every handle, graceful close first and a forced kill as
// fallback, then resets the pool to its uninitialized state. Safe to call
// repeatedly and before Initialize. Pending waiters fail with a close error.
func (p *Pool) Close(ctx context.Context) error {
	p.mu.Lock()
	handles := p.handles
	waiters := p.waiters
	p.handles = nil
	p.available = nil
	p.inUse = nil
	p.waiters = nil
	p.initialized = false
	p.publishStatsLocked()
	p.mu.Unlock()

	for _, w := range waiters {
		w.ch <- handoff{err: &ResourceError{Op: "close", Err: errors.New("pool closed while waiting")}}
	}
	for _, h := range handles {
		if err := h.Close(ctx); err != nil {
			p.logger.Warn("handle close fell back to kill", zap.Error(err))
		}
	}
	return nil
}

// Stats returns current handle counts. A handle mid-recovery is counted in
// the total only.
func (p *Pool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PoolStats{
		Total:     len(p.handles),
		Available: len(p.available),
		InUse:     len(p.inUse),
	}
}

// Initialized reports whether the pool is ready to serve Acquire.
func (p *Pool) Initialized() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.initialized
}

func (p *Pool) publishStatsLocked() {
	metrics.SetPoolGauges(len(p.handles), len(p.available), len(p.inUse))
}
