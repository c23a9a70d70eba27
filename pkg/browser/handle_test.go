package browser

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHandle_LaunchIsReentrant(t *testing.T) {
	t.Parallel()

	launcher := &fakeLauncher{}
	h := NewHandle(launcher, zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, h.Launch(context.Background()))
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, launcher.launchCount(), "concurrent launches must share one browser")
	assert.True(t, h.Alive())

	// A live handle is returned unchanged.
	require.NoError(t, h.Launch(context.Background()))
	assert.Equal(t, 1, launcher.launchCount())
}

func TestHandle_LaunchFailure(t *testing.T) {
	t.Parallel()

	launcher := &fakeLauncher{failFrom: 1}
	h := NewHandle(launcher, zap.NewNop())

	err := h.Launch(context.Background())
	require.Error(t, err)
	var resErr *ResourceError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, "launch", resErr.Op)
	assert.False(t, h.Alive())
}

func TestHandle_Restart(t *testing.T) {
	t.Parallel()

	launcher := &fakeLauncher{}
	h := NewHandle(launcher, zap.NewNop())
	require.NoError(t, h.Launch(context.Background()))
	first := h.Session()

	require.NoError(t, h.Restart(context.Background()))
	assert.Equal(t, 2, launcher.launchCount())
	assert.NotSame(t, first, h.Session())
	assert.True(t, launcher.session(0).closed)
}

func TestHandle_RestartIgnoresCloseError(t *testing.T) {
	t.Parallel()

	launcher := &fakeLauncher{}
	h := NewHandle(launcher, zap.NewNop())
	require.NoError(t, h.Launch(context.Background()))
	launcher.session(0).closeErr = errors.New("close hung")

	require.NoError(t, h.Restart(context.Background()))
	assert.True(t, launcher.session(0).killed, "failed graceful close must fall back to kill")
	assert.True(t, h.Alive())
}

func TestHandle_CloseFallsBackToKill(t *testing.T) {
	t.Parallel()

	launcher := &fakeLauncher{}
	h := NewHandle(launcher, zap.NewNop())
	require.NoError(t, h.Launch(context.Background()))
	s := launcher.session(0)
	s.closeErr = errors.New("close hung")

	err := h.Close(context.Background())
	require.Error(t, err)
	assert.True(t, s.killed)
	assert.False(t, h.Alive())
	assert.Nil(t, h.Session())

	// Close on an already-closed handle is a no-op.
	require.NoError(t, h.Close(context.Background()))
}

func TestHandle_Kill(t *testing.T) {
	t.Parallel()

	launcher := &fakeLauncher{}
	h := NewHandle(launcher, zap.NewNop())
	require.NoError(t, h.Launch(context.Background()))

	h.Kill()
	assert.True(t, launcher.session(0).killed)
	assert.False(t, h.Alive())
}
