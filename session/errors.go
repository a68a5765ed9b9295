package session

import (
	"fmt"

	"github.com/robertof/go-stylus-bridge/device"
)

type BindOp string

const (
	BindOpSubscribe   BindOp = "subscribe"
	BindOpUnsubscribe BindOp = "unsubscribe"
)

// BindError reports a failed interaction with the BLE collaborator. The session binding is
// unchanged when one is returned.
type BindError struct {
	Op     BindOp
	Device device.ID
	Err    error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("failed to %s device %v: %v", e.Op, e.Device, e.Err)
}

func (e *BindError) Unwrap() error {
	return e.Err
}
