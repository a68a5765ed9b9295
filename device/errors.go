package device

import (
  "fmt"
  "strconv"
)

type DecodeErrorKind uint8

const (
  // A known packet shape carried a field value with no enumerated meaning.
  DecodeErrorInvalidEnumTag DecodeErrorKind = iota + 1
  // The packet shape itself is unknown.
  DecodeErrorUnrecognizedLength
)

func (k DecodeErrorKind) String() string {
  switch k {
  case DecodeErrorInvalidEnumTag:
    return "invalid enum tag"
  case DecodeErrorUnrecognizedLength:
    return "unrecognized length"
  default:
    return "DecodeErrorKind(" + strconv.Itoa(int(k)) + ")"
  }
}

// DecodeError is returned for payloads that cannot be turned into an Event. It always wraps
// ErrInvalidData.
type DecodeError struct {
  Kind DecodeErrorKind

  // set for DecodeErrorInvalidEnumTag
  Field string
  Value byte

  // set for DecodeErrorUnrecognizedLength
  Length int
}

func (e *DecodeError) Error() string {
  switch e.Kind {
  case DecodeErrorInvalidEnumTag:
    return fmt.Sprintf("invalid %s tag %d", e.Field, e.Value)
  case DecodeErrorUnrecognizedLength:
    return fmt.Sprintf("unrecognized %d length data packet", e.Length)
  default:
    return fmt.Sprintf("decode error (%v)", e.Kind)
  }
}

func (e *DecodeError) Unwrap() error {
  return ErrInvalidData
}
