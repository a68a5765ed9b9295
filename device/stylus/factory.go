package stylus

import (
  "fmt"
  "strings"

  "github.com/robertof/go-stylus-bridge/device"
)

type Factory struct{}

func (f *Factory) FromSpec(spec device.DeviceSpec) (device.Device, error) {
  id, err := spec.ID()
  if err != nil {
    return device.Device{}, fmt.Errorf("invalid addr: %w", err)
  }

  d := device.Device{ID: id, Name: spec.Name()}

  if d.Name == "" {
    d.Name = "stylus-" + strings.ReplaceAll(id.String(), ":", "")
  }

  return d, nil
}

func (f *Factory) Help() string {
  return `Supported parameters:
addr (string, required): MAC address of the stylus to connect to on startup
name (string): Display name of the stylus`
}
