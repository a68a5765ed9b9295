package state

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// Executor runs functions on the application-state execution context. Post never blocks on the
// function running.
type Executor interface {
	Post(fn func())
}

// Immediate runs posted functions inline on the caller's goroutine.
type Immediate struct{}

func (Immediate) Post(fn func()) {
	fn()
}

// Loop is an Executor backed by a single goroutine running Run. Functions run one at a time, in
// the order they were posted. The queue is unbounded so that BLE callbacks posting state updates
// are never held up by a slow consumer.
type Loop struct {
	mu      sync.Mutex
	pending []func()
	closed  bool

	wake chan struct{}
}

func NewLoop() *Loop {
	return &Loop{
		wake: make(chan struct{}, 1),
	}
}

func (l *Loop) Post(fn func()) {
	l.mu.Lock()

	if l.closed {
		l.mu.Unlock()
		log.Trace().Msg("state: dropping work posted to stopped loop")
		return
	}

	l.pending = append(l.pending, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *Loop) take() []func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	work := l.pending
	l.pending = nil

	return work
}

// Run executes posted work until ctx is canceled. Work still queued at that point is run before
// Run returns; anything posted afterwards is dropped.
func (l *Loop) Run(ctx context.Context) error {
	log.Debug().Msg("state: loop started")

	for {
		select {
		case <-ctx.Done():
			l.mu.Lock()
			l.closed = true
			l.mu.Unlock()

			for _, fn := range l.take() {
				fn()
			}

			log.Debug().Msg("state: loop stopped")
			return nil
		case <-l.wake:
			for _, fn := range l.take() {
				fn()
			}
		}
	}
}

// Sync blocks until everything posted before the call has run.
func (l *Loop) Sync(ctx context.Context) error {
	done := make(chan struct{})
	l.Post(func() { close(done) })

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
