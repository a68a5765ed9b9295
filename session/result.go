package session

import (
	"fmt"

	"github.com/robertof/go-stylus-bridge/device"
)

// Result is the outcome of decoding a single notification.
type Result struct {
	Event device.Event
	Error error
}

func (r Result) String() string {
	if r.Error != nil {
		return fmt.Sprintf("result:error(%v)", r.Error)
	} else {
		return fmt.Sprintf("result:success(%v)", r.Event)
	}
}

// ResultHandler receives every result accepted by the session, along with the raw payload it
// was decoded from.
type ResultHandler func(src device.ID, payload []byte, r Result)
