package view

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wait(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("load did not settle")
	}
}

func TestLoader_SettlesLoadedOrFailed(t *testing.T) {
	l := NewLoader[int]()
	assert.Equal(t, StateIdle, l.State())

	wait(t, l.Load(context.Background(), func(context.Context) (int, error) { return 42, nil }))
	state, v, err := l.Snapshot()
	assert.Equal(t, StateLoaded, state)
	assert.Equal(t, 42, v)
	assert.NoError(t, err)

	boom := errors.New("boom")
	wait(t, l.Load(context.Background(), func(context.Context) (int, error) { return 0, boom }))
	state, _, err = l.Snapshot()
	assert.Equal(t, StateFailed, state)
	assert.ErrorIs(t, err, boom)
}

func TestLoader_LatestLoadWins(t *testing.T) {
	l := NewLoader[string]()
	release := make(chan struct{})
	cancelled := make(chan struct{})

	first := l.Load(context.Background(), func(ctx context.Context) (string, error) {
		select {
		case <-ctx.Done():
			close(cancelled)
		case <-release:
		}
		return "stale", nil
	})
	assert.Equal(t, StateLoading, l.State())

	second := l.Load(context.Background(), func(context.Context) (string, error) { return "fresh", nil })
	wait(t, second)
	wait(t, first)

	select {
	case <-cancelled:
	default:
		t.Fatal("superseded load was not cancelled")
	}
	_, v, _ := l.Snapshot()
	assert.Equal(t, "fresh", v)
	assert.Equal(t, StateLoaded, l.State())
}

func TestLoader_PatchDiscardsInFlight(t *testing.T) {
	l := NewLoader[string]()
	started := make(chan struct{})
	done := l.Load(context.Background(), func(ctx context.Context) (string, error) {
		close(started)
		<-ctx.Done()
		return "", ctx.Err()
	})
	<-started

	l.Patch("local")
	wait(t, done)

	state, v, err := l.Snapshot()
	assert.Equal(t, StateLoaded, state)
	assert.Equal(t, "local", v)
	assert.NoError(t, err, "the cancelled fetch must not overwrite the patch")
}

func TestLoader_CloseStopsEverything(t *testing.T) {
	l := NewLoader[int]()
	started := make(chan struct{})
	done := l.Load(context.Background(), func(ctx context.Context) (int, error) {
		close(started)
		<-ctx.Done()
		return 0, ctx.Err()
	})
	<-started
	l.Close()
	wait(t, done)
	assert.Equal(t, StateLoading, l.State(), "nothing settles after close")

	called := false
	wait(t, l.Load(context.Background(), func(context.Context) (int, error) {
		called = true
		return 1, nil
	}))
	assert.False(t, called)

	l.Patch(7)
	_, v, _ := l.Snapshot()
	assert.Zero(t, v)
}

func TestLoadState_String(t *testing.T) {
	require.Equal(t, "idle", StateIdle.String())
	require.Equal(t, "loading", StateLoading.String())
	require.Equal(t, "loaded", StateLoaded.String())
	require.Equal(t, "failed", StateFailed.String())
}
