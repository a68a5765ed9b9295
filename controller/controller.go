// Package controller applies UI requests (device selection, options) to the session and the
// application state.
package controller

import (
	"context"
	"fmt"

	"github.com/robertof/go-stylus-bridge/device"
	"github.com/robertof/go-stylus-bridge/session"
	"github.com/robertof/go-stylus-bridge/state"
	"github.com/rs/zerolog/log"
)

const ConnectedMessage = "Press a stylus button or scan a game object to continue"

type Session interface {
	Bind(ctx context.Context, id device.ID) error
	Unbind(ctx context.Context) error
	Current() (device.ID, bool)
	Subscribed(id device.ID) bool
}

// State is the part of the store the controller writes to.
type State interface {
	SetDevices(devices []string)
	SetSelectedDevice(id string)
	SetMessage(msg string)
	SetCopyToClipboard(enabled bool)
}

type ResultSink interface {
	HandleResult(payload []byte, r session.Result)
}

type Controller struct {
	session Session
	state   State
	sink    ResultSink
}

func New(sess Session, st State, sink ResultSink) *Controller {
	return &Controller{session: sess, state: st, sink: sink}
}

// Select binds the session to id. On failure the previous selection is kept and the error is
// shown to the user as well as returned.
//
// Selecting the already subscribed device changes nothing, so the last event message stays
// visible.
func (c *Controller) Select(ctx context.Context, id device.ID) error {
	if c.session.Subscribed(id) {
		log.Trace().Stringer("Device", id).Msg("controller: stylus already selected")
		return nil
	}

	if err := c.session.Bind(ctx, id); err != nil {
		log.Error().Err(err).Stringer("Device", id).Msg("controller: failed to select stylus")
		c.state.SetMessage(fmt.Sprintf("Failed to connect to stylus %s: %v", id, err))
		return err
	}

	c.state.SetSelectedDevice(id.String())
	c.state.SetMessage(ConnectedMessage)

	return nil
}

func (c *Controller) Deselect(ctx context.Context) error {
	prev, bound := c.session.Current()

	if err := c.session.Unbind(ctx); err != nil {
		log.Error().Err(err).Stringer("Device", prev).Msg("controller: failed to deselect stylus")
		c.state.SetMessage(fmt.Sprintf("Failed to disconnect from stylus %s: %v", prev, err))
		return err
	}

	if bound {
		log.Debug().Stringer("Device", prev).Msg("controller: stylus deselected")
	}

	c.state.SetSelectedDevice("")
	c.state.SetMessage(state.InitialMessage)

	return nil
}

func (c *Controller) SetCopyToClipboard(enabled bool) {
	c.state.SetCopyToClipboard(enabled)
}

func (c *Controller) SetDevices(devices []device.Device) {
	ids := make([]string, 0, len(devices))

	for _, d := range devices {
		ids = append(ids, d.ID.String())
	}

	c.state.SetDevices(ids)
}

// HandleResult is a session.ResultHandler.
func (c *Controller) HandleResult(src device.ID, payload []byte, r session.Result) {
	log.Debug().Stringer("Device", src).Stringer("Result", r).Msg("controller: stylus notification")
	c.sink.HandleResult(payload, r)
}
