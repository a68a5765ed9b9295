package state

import (
	"fmt"
	"time"
)

type Property string

const (
	PropertyDevices         Property = "Devices"
	PropertySelectedDevice  Property = "SelectedDevice"
	PropertyMessage         Property = "Message"
	PropertyRawData         Property = "RawData"
	PropertyCopyToClipboard Property = "CopyToClipboard"
)

// Change notifies that a property now holds Value. Value is a string for every property except
// Devices ([]string) and CopyToClipboard (bool).
type Change struct {
	Property Property
	Value    any
	At       time.Time
}

func (c Change) String() string {
	return fmt.Sprintf("%s=%v", c.Property, c.Value)
}

type Publisher interface {
	Publish(c Change)
}

type PublisherFunc func(c Change)

func (f PublisherFunc) Publish(c Change) {
	f(c)
}

// Publishers forwards every change to each publisher in order.
type Publishers []Publisher

func (p Publishers) Publish(c Change) {
	for _, pub := range p {
		pub.Publish(c)
	}
}

// ChanPublisher delivers changes on C. Changes are dropped, not queued, when C is full.
type ChanPublisher struct {
	C chan Change
}

func NewChanPublisher(size int) *ChanPublisher {
	return &ChanPublisher{C: make(chan Change, size)}
}

func (p *ChanPublisher) Publish(c Change) {
	select {
	case p.C <- c:
	default:
	}
}
