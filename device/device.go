package device

import (
  "errors"
  "fmt"
  "net"
  "strings"
)

var (
  ErrInvalidData = errors.New("invalid data")
  ErrInvalidID = errors.New("invalid device id")
)

// ID is the opaque identity of a peripheral. On Linux this is the MAC address in lower-case
// colon notation.
type ID string

func ParseID(s string) (ID, error) {
  s = strings.TrimSpace(s)

  if s == "" {
    return "", ErrInvalidID
  }

  if _, err := net.ParseMAC(s); err != nil {
    return "", fmt.Errorf("%w: %q: %v", ErrInvalidID, s, err)
  }

  return ID(strings.ToLower(s)), nil
}

func (id ID) String() string {
  return string(id)
}

func (id ID) Addr() (net.HardwareAddr, error) {
  return net.ParseMAC(string(id))
}

type Device struct {
  ID ID
  Name string
}

func (d Device) String() string {
  if d.Name == "" {
    return d.ID.String()
  }

  return fmt.Sprintf("%s[addr=%v]", d.Name, d.ID)
}
