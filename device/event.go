package device

import (
  "fmt"
  "strconv"
)

// ButtonID identifies which stylus button(s) an event refers to. The numeric values are the
// on-wire tags.
type ButtonID uint8

const (
  ButtonSecondary ButtonID = 1
  ButtonPrimary ButtonID = 2
  ButtonBoth ButtonID = 3
)

// ParseButtonID converts a wire tag, failing for anything outside the known set.
func ParseButtonID(tag byte) (ButtonID, error) {
  switch b := ButtonID(tag); b {
  case ButtonSecondary, ButtonPrimary, ButtonBoth:
    return b, nil
  }

  return 0, &DecodeError{Kind: DecodeErrorInvalidEnumTag, Field: "button", Value: tag}
}

func (b ButtonID) String() string {
  switch b {
  case ButtonPrimary:
    return "Primary"
  case ButtonSecondary:
    return "Secondary"
  case ButtonBoth:
    return "Both"
  default:
    return "ButtonID(" + strconv.Itoa(int(b)) + ")"
  }
}

type ButtonPhase uint8

const (
  PhasePress ButtonPhase = 1
  PhaseLongPress ButtonPhase = 2
  PhaseRelease ButtonPhase = 3
)

func ParseButtonPhase(tag byte) (ButtonPhase, error) {
  switch p := ButtonPhase(tag); p {
  case PhasePress, PhaseLongPress, PhaseRelease:
    return p, nil
  }

  return 0, &DecodeError{Kind: DecodeErrorInvalidEnumTag, Field: "phase", Value: tag}
}

func (p ButtonPhase) String() string {
  switch p {
  case PhasePress:
    return "Press"
  case PhaseLongPress:
    return "LongPress"
  case PhaseRelease:
    return "Release"
  default:
    return "ButtonPhase(" + strconv.Itoa(int(p)) + ")"
  }
}

// Event is a decoded stylus notification. The only implementations are ButtonEvent and
// ScanEvent.
type Event interface {
  fmt.Stringer
  isEvent()
}

type ButtonEvent struct {
  Button ButtonID
  Phase ButtonPhase
}

func (ButtonEvent) isEvent() {}

func (e ButtonEvent) String() string {
  return fmt.Sprintf("button[%v,%v]", e.Button, e.Phase)
}

// ScanEvent carries an identifier read by the stylus. Identifiers are opaque: every value is
// legal.
type ScanEvent struct {
  Value uint32
}

func (ScanEvent) isEvent() {}

func (e ScanEvent) String() string {
  return fmt.Sprintf("scan[%d]", e.Value)
}
