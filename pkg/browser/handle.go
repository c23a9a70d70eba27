package browser

import (
	"context"

	"go.uber.org/zap"
)

// Handle owns exactly one browser session and serializes its lifecycle.
type Handle struct {
	// mu makes Launch reentrant-safe: a concurrent call blocks until the
	// in-flight launch finishes, then sees the live session and returns.
	mu       chan struct{}
	launcher Launcher
	session  Session
	logger   *zap.Logger
}

// NewHandle builds an unlaunched Handle.
func NewHandle(launcher Launcher, logger *zap.Logger) *Handle {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handle{
		mu:       make(chan struct{}, 1),
		launcher: launcher,
		logger:   logger,
	}
}

func (h *Handle) lock()   { h.mu <- struct{}{} }
func (h *Handle) unlock() { <-h.mu }

// Launch starts the browser if it is not already running. A live session is
// returned unchanged.
func (h *Handle) Launch(ctx context.Context) error {
	h.lock()
	defer h.unlock()
	return h.launchLocked(ctx)
}

func (h *Handle) launchLocked(ctx context.Context) error {
	if h.session != nil && h.session.Alive() {
		return nil
	}
	session, err := h.launcher.Launch(ctx)
	if err != nil {
		return &ResourceError{Op: "launch", Err: err}
	}
	h.session = session
	return nil
}

// Alive reports whether the handle currently holds a live session.
func (h *Handle) Alive() bool {
	h.lock()
	defer h.unlock()
	return h.session != nil && h.session.Alive()
}

// Session returns the current session, or nil before launch.
func (h *Handle) Session() Session {
	h.lock()
	defer h.unlock()
	return h.session
}

// Restart closes the current session, ignoring close errors, then relaunches.
func (h *Handle) Restart(ctx context.Context) error {
	h.lock()
	defer h.unlock()
	if h.session != nil {
		if err := h.session.Close(ctx); err != nil {
			h.logger.Debug("graceful close before restart failed, killing", zap.Error(err))
			h.session.Kill()
		}
		h.session = nil
	}
	return h.launchLocked(ctx)
}

// Close shuts the session down, falling back to a forced kill when the
// graceful path fails. The session is gone either way; the graceful error is
// returned for logging.
func (h *Handle) Close(ctx context.Context) error {
	h.lock()
	defer h.unlock()
	if h.session == nil {
		return nil
	}
	err := h.session.Close(ctx)
	if err != nil {
		h.session.Kill()
	}
	h.session = nil
	if err != nil {
		return &ResourceError{Op: "close", Err: err}
	}
	return nil
}

// Kill force-terminates the session without a graceful close attempt.
func (h *Handle) Kill() {
	h.lock()
	defer h.unlock()
	if h.session != nil {
		h.session.Kill()
		h.session = nil
	}
}
