// Package session tracks which stylus the application is bound to and makes sure only
// notifications from that stylus reach the decoder.
package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robertof/go-stylus-bridge/device"
	"github.com/robertof/go-stylus-bridge/device/stylus"
	"github.com/rs/zerolog/log"
)

// Subscription is a live notification stream from one device.
type Subscription interface {
	Unsubscribe(ctx context.Context) error
}

// Subscriber is the BLE collaborator. onNotification may be called from any goroutine until the
// returned subscription is torn down.
type Subscriber interface {
	Subscribe(ctx context.Context, id device.ID, onNotification func(payload []byte)) (Subscription, error)
}

// DefaultRestoreTimeout bounds the re-subscription of the previous device after a failed rebind.
const DefaultRestoreTimeout = 10 * time.Second

// binding is the bound device. sub is nil when its stream was lost and could not be restored.
type binding struct {
	id  device.ID
	sub Subscription
}

type Session struct {
	subscriber     Subscriber
	onResult       ResultHandler
	restoreTimeout time.Duration

	// serializes Bind and Unbind, held across subscriber calls.
	mu sync.Mutex

	// read without taking mu so that notifications never wait on a rebind.
	current atomic.Pointer[binding]
}

type Option func(*Session)

// WithRestoreTimeout sets how long a failed rebind may spend re-subscribing the previous device.
func WithRestoreTimeout(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.restoreTimeout = d
		}
	}
}

func New(subscriber Subscriber, onResult ResultHandler, opts ...Option) *Session {
	if onResult == nil {
		onResult = func(device.ID, []byte, Result) {}
	}

	s := &Session{
		subscriber:     subscriber,
		onResult:       onResult,
		restoreTimeout: DefaultRestoreTimeout,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Current returns the bound device, if any.
func (s *Session) Current() (device.ID, bool) {
	if b := s.current.Load(); b != nil {
		return b.id, true
	}

	return "", false
}

// Subscribed reports whether id is bound with a live notification stream.
func (s *Session) Subscribed(id device.ID) bool {
	b := s.current.Load()

	return b != nil && b.id == id && b.sub != nil
}

// Bind switches the session to the given device. Binding the already bound device is a no-op,
// unless its stream was lost, in which case it is subscribed again.
//
// Either the new device ends up bound and subscribed, or a *BindError is returned and the
// previous binding stays in place. Its subscription is live unless restoring it failed too, in
// which case both errors are returned.
func (s *Session) Bind(ctx context.Context, id device.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.current.Load()

	if prev != nil && prev.id == id && prev.sub != nil {
		log.Trace().Stringer("Device", id).Msg("session: device already bound, nothing to do")
		return nil
	}

	if prev != nil && prev.sub != nil {
		if err := prev.sub.Unsubscribe(ctx); err != nil {
			return &BindError{Op: BindOpUnsubscribe, Device: prev.id, Err: err}
		}

		log.Debug().Stringer("Device", prev.id).Msg("session: unsubscribed from previous device")
	}

	sub, err := s.subscribe(ctx, id)

	if err != nil {
		bindErr := &BindError{Op: BindOpSubscribe, Device: id, Err: err}

		if prev != nil && prev.sub != nil {
			if restoreErr := s.restore(ctx, prev); restoreErr != nil {
				return errors.Join(bindErr, restoreErr)
			}
		}

		return bindErr
	}

	s.current.Store(&binding{id: id, sub: sub})

	log.Info().Stringer("Device", id).Msg("session: bound to device")

	return nil
}

// restore re-establishes the subscription of a binding whose stream was torn down by a failed
// rebind. It is not canceled with ctx but gives up after the restore timeout; on failure the
// binding is kept without a subscription so that the next Bind or Unbind does not touch the
// torn down stream.
func (s *Session) restore(ctx context.Context, b *binding) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.restoreTimeout)
	defer cancel()

	sub, err := s.subscribe(ctx, b.id)

	if err != nil {
		s.current.Store(&binding{id: b.id})

		log.Error().
			Err(err).
			Stringer("Device", b.id).
			Msg("session: failed to restore subscription of previous device")

		return &BindError{Op: BindOpSubscribe, Device: b.id, Err: err}
	}

	s.current.Store(&binding{id: b.id, sub: sub})

	log.Warn().Stringer("Device", b.id).Msg("session: rebind failed, restored previous device")

	return nil
}

func (s *Session) subscribe(ctx context.Context, id device.ID) (Subscription, error) {
	return s.subscriber.Subscribe(ctx, id, func(payload []byte) {
		if r, ok := s.OnNotification(id, payload); ok {
			s.onResult(id, payload, r)
		}
	})
}

// Unbind tears down the active subscription, if any.
func (s *Session) Unbind(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.current.Load()

	if prev == nil {
		return nil
	}

	if prev.sub != nil {
		if err := prev.sub.Unsubscribe(ctx); err != nil {
			return &BindError{Op: BindOpUnsubscribe, Device: prev.id, Err: err}
		}
	}

	s.current.Store(nil)

	log.Info().Stringer("Device", prev.id).Msg("session: unbound from device")

	return nil
}

// Close ends the session.
func (s *Session) Close(ctx context.Context) error {
	return s.Unbind(ctx)
}

// OnNotification decodes a payload coming from src. It reports false, without decoding, when src
// is not the bound device; this drops events that arrive late after a device switch.
func (s *Session) OnNotification(src device.ID, payload []byte) (Result, bool) {
	b := s.current.Load()

	if b == nil || b.id != src {
		log.Trace().
			Stringer("Source", src).
			Hex("Payload", payload).
			Msg("session: dropping notification from device that is not bound")

		return Result{}, false
	}

	ev, err := stylus.Decode(payload)

	return Result{Event: ev, Error: err}, true
}
