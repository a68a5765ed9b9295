// Package sink turns decoded stylus results into application state updates.
package sink

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/robertof/go-stylus-bridge/device"
	"github.com/robertof/go-stylus-bridge/session"
	"github.com/robertof/go-stylus-bridge/state"
	"github.com/rs/zerolog/log"
)

// StatePublisher is the part of the application state the sink writes to.
type StatePublisher interface {
	SetMessage(msg string)
	SetRawData(raw string)
	CopyToClipboard() bool
}

type Clipboard interface {
	SetText(text string) error
}

// Observer is notified of every handled event and error.
type Observer interface {
	ObserveEvent(ev device.Event)
	ObserveError(err error)
}

type Option func(*Sink)

// WithClipboardExecutor sets where clipboard writes are requested. Defaults to running them
// inline.
func WithClipboardExecutor(e state.Executor) Option {
	return func(s *Sink) {
		s.clipboardExecutor = e
	}
}

func WithObserver(o Observer) Option {
	return func(s *Sink) {
		s.observer = o
	}
}

type Sink struct {
	state             StatePublisher
	clipboard         Clipboard
	clipboardExecutor state.Executor
	observer          Observer
}

func New(publisher StatePublisher, clipboard Clipboard, opts ...Option) *Sink {
	s := &Sink{
		state:             publisher,
		clipboard:         clipboard,
		clipboardExecutor: state.Immediate{},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// HandleResult publishes the raw payload, then the event or the decode failure.
func (s *Sink) HandleResult(payload []byte, r session.Result) {
	s.state.SetRawData(FormatRawData(payload))

	if r.Error != nil {
		s.HandleError(r.Error)
		return
	}

	s.Handle(r.Event)
}

func (s *Sink) Handle(ev device.Event) {
	if s.observer != nil {
		s.observer.ObserveEvent(ev)
	}

	switch ev := ev.(type) {
	case device.ButtonEvent:
		s.state.SetMessage(fmt.Sprintf("Stylus button event %v %v", ev.Button, ev.Phase))
	case device.ScanEvent:
		s.state.SetMessage(fmt.Sprintf("Stylus scanned value %d", ev.Value))

		if s.state.CopyToClipboard() && s.clipboard != nil {
			s.copyToClipboard(strconv.FormatUint(uint64(ev.Value), 10))
		}
	default:
		log.Warn().Str("Event", fmt.Sprintf("%#v", ev)).Msg("sink: ignoring unknown event")
	}
}

func (s *Sink) copyToClipboard(text string) {
	clip := s.clipboard

	s.clipboardExecutor.Post(func() {
		if err := clip.SetText(text); err != nil {
			log.Warn().Err(err).Str("Text", text).Msg("sink: failed to copy scanned value to clipboard")
			return
		}

		log.Debug().Str("Text", text).Msg("sink: copied scanned value to clipboard")
	})
}

func (s *Sink) HandleError(err error) {
	if s.observer != nil {
		s.observer.ObserveError(err)
	}

	log.Warn().Err(err).Msg("sink: failed to decode stylus notification")

	var decodeErr *device.DecodeError

	if errors.As(err, &decodeErr) {
		s.state.SetMessage(fmt.Sprintf("Stylus sent invalid data (%v): %v", decodeErr.Kind, decodeErr))
		return
	}

	s.state.SetMessage(fmt.Sprintf("Stylus error: %v", err))
}

// FormatRawData renders a payload as its comma separated decimal byte values.
func FormatRawData(payload []byte) string {
	parts := make([]string, len(payload))

	for i, b := range payload {
		parts[i] = strconv.Itoa(int(b))
	}

	return strings.Join(parts, ", ")
}
