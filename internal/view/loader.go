// Package view holds the per-screen client logic: load state, local
// filtering, form assembly and modal transitions. It renders nothing; a UI
// layer reads the derived state it exposes.
package view

import (
	"context"
	"sync"
)

// LoadState is the lifecycle of one view's remote data.
type LoadState int

const (
	StateIdle LoadState = iota
	StateLoading
	StateLoaded
	StateFailed
)

func (s LoadState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// FetchFunc performs one remote read. It must honor ctx.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Loader runs idle → loading → {loaded | failed}. Only the most recent load
// may settle: starting another load, patching or closing cancels the one in
// flight and discards its result.
type Loader[T any] struct {
	mu     sync.Mutex
	state  LoadState
	value  T
	err    error
	gen    uint64
	cancel context.CancelFunc
	closed bool
}

// NewLoader returns an idle loader.
func NewLoader[T any]() *Loader[T] {
	return &Loader[T]{}
}

// Load starts fetch and returns a channel that closes once it has settled
// or been discarded.
func (l *Loader[T]) Load(ctx context.Context, fetch FetchFunc[T]) <-chan struct{} {
	done := make(chan struct{})

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		close(done)
		return done
	}
	l.supersedeLocked()
	gen := l.gen
	loadCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.state = StateLoading
	l.err = nil
	l.mu.Unlock()

	go func() {
		defer close(done)
		defer cancel()

		value, err := fetch(loadCtx)

		l.mu.Lock()
		defer l.mu.Unlock()
		if l.closed || gen != l.gen {
			return
		}
		l.cancel = nil
		if err != nil {
			l.state, l.err = StateFailed, err
			return
		}
		l.state, l.value = StateLoaded, value
	}()
	return done
}

// Patch replaces the loaded value locally, e.g. after a successful write.
func (l *Loader[T]) Patch(value T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.supersedeLocked()
	l.cancel = nil
	l.state, l.value, l.err = StateLoaded, value, nil
}

// Snapshot returns the current state, value and error together.
func (l *Loader[T]) Snapshot() (LoadState, T, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state, l.value, l.err
}

// State returns the current state.
func (l *Loader[T]) State() LoadState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Close cancels any load in flight. Nothing settles afterwards.
func (l *Loader[T]) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.supersedeLocked()
	l.closed = true
}

func (l *Loader[T]) supersedeLocked() {
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.gen++
}
