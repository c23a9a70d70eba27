// Package browser manages the pool of headless-browser handles the fetch
// pipeline renders feeds with. Handles are expensive to launch and can die
// mid-use, so the pool owns their full lifecycle: concurrent launch at
// initialization, FIFO acquire/release with timeout, synchronous recovery of
// dead handles, and forced teardown on close.
package browser

import (
	"context"
	"fmt"
)

// Session is one live browser process.
type Session interface {
	// Alive reports whether the underlying browser is still usable.
	Alive() bool
	// NewContext opens a fresh navigable tab context. The caller must cancel it.
	NewContext() (context.Context, context.CancelFunc)
	// Close shuts the browser down gracefully.
	Close(ctx context.Context) error
	// Kill terminates the browser without waiting.
	Kill()
}

// Launcher starts browser sessions.
type Launcher interface {
	Launch(ctx context.Context) (Session, error)
}

// ResourceError reports a failed browser-resource operation. Op is one of
// initialize, acquire, release, recover, launch, close.
type ResourceError struct {
	Op  string
	Err error
}

func (e *ResourceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("browser resource %s failed", e.Op)
	}
	return fmt.Sprintf("browser resource %s failed: %v", e.Op, e.Err)
}

func (e *ResourceError) Unwrap() error { return e.Err }
