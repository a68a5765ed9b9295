// Package state holds the externally observable application state and notifies interested
// parties of every change.
package state

import (
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const InitialMessage = "Select a stylus to continue"

// Snapshot is a copy of the application state at one point in time.
type Snapshot struct {
	Devices         []string `json:"devices"`
	SelectedDevice  string   `json:"selected_device"`
	Message         string   `json:"message"`
	RawData         string   `json:"raw_data"`
	CopyToClipboard bool     `json:"copy_to_clipboard"`
}

// Store owns the application state. Setters may be called from any goroutine: the mutation is
// posted to the executor and the publisher is called from there.
type Store struct {
	executor  Executor
	publisher Publisher

	mu   sync.RWMutex
	snap Snapshot

	now func() time.Time
}

func NewStore(executor Executor, publisher Publisher) *Store {
	if publisher == nil {
		publisher = Publishers(nil)
	}

	return &Store{
		executor:  executor,
		publisher: publisher,
		snap:      Snapshot{Message: InitialMessage},
		now:       time.Now,
	}
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snap
	snap.Devices = slices.Clone(s.snap.Devices)

	return snap
}

func (s *Store) CopyToClipboard() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.snap.CopyToClipboard
}

func (s *Store) SetDevices(devices []string) {
	devices = slices.Clone(devices)

	s.executor.Post(func() {
		s.mu.Lock()
		changed := !slices.Equal(s.snap.Devices, devices)
		if changed {
			s.snap.Devices = devices
		}
		s.mu.Unlock()

		if changed {
			s.publish(PropertyDevices, slices.Clone(devices))
		}
	})
}

func (s *Store) SetSelectedDevice(id string) {
	s.setString(PropertySelectedDevice, &s.snap.SelectedDevice, id)
}

func (s *Store) SetMessage(msg string) {
	s.setString(PropertyMessage, &s.snap.Message, msg)
}

func (s *Store) SetRawData(raw string) {
	s.setString(PropertyRawData, &s.snap.RawData, raw)
}

func (s *Store) SetCopyToClipboard(enabled bool) {
	s.executor.Post(func() {
		s.mu.Lock()
		changed := s.snap.CopyToClipboard != enabled
		s.snap.CopyToClipboard = enabled
		s.mu.Unlock()

		if changed {
			s.publish(PropertyCopyToClipboard, enabled)
		}
	})
}

func (s *Store) setString(p Property, field *string, value string) {
	s.executor.Post(func() {
		s.mu.Lock()
		changed := *field != value
		*field = value
		s.mu.Unlock()

		if changed {
			s.publish(p, value)
		}
	})
}

func (s *Store) publish(p Property, value any) {
	c := Change{Property: p, Value: value, At: s.now()}

	log.Trace().Stringer("Change", c).Msg("state: property changed")

	s.publisher.Publish(c)
}
