package events

import (
	"context"
	"sync"

	"github.com/localnerve/callcard/internal/callcard"
	"go.uber.org/zap"
)

// Async hands events to a worker goroutine so that slow sinks do not hold
// up requests. Events are dropped when the buffer is full.
type Async struct {
	next callcard.Emitter
	log  *zap.Logger
	ch   chan callcard.Event

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewAsync starts the worker. Close stops it after draining the buffer.
func NewAsync(next callcard.Emitter, buffer int, log *zap.Logger) *Async {
	a := &Async{
		next: next,
		log:  log,
		ch:   make(chan callcard.Event, buffer),
		done: make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *Async) run() {
	defer close(a.done)
	for e := range a.ch {
		a.next.Emit(context.Background(), e)
	}
}

func (a *Async) Emit(_ context.Context, e callcard.Event) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return
	}
	select {
	case a.ch <- e:
	default:
		a.log.Warn("event buffer full, dropping event", zap.Stringer("kind", e.Kind))
	}
}

// Close stops accepting events and waits for the buffered ones, or for ctx.
func (a *Async) Close(ctx context.Context) error {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.ch)
	}
	a.mu.Unlock()

	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
