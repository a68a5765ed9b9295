package device

import (
  "strings"

  "github.com/rs/zerolog/log"
)

// DeviceSpec is the `key=value,key=value` form used on the command line to describe a device.
type DeviceSpec map[string]string

const (
  DeviceSpecFieldName = "name"
  DeviceSpecFieldAddress = "addr"
)

func NewDeviceSpec(s string) DeviceSpec {
  spec := DeviceSpec{}

  for _, entry := range strings.Split(s, ",") {
    if strings.TrimSpace(entry) == "" {
      continue
    }

    key, value, ok := strings.Cut(entry, "=")

    if !ok {
      // a bare address is accepted as a shorthand for `addr=<address>`.
      if _, err := ParseID(entry); err == nil {
        spec[DeviceSpecFieldAddress] = strings.TrimSpace(entry)
        continue
      }

      log.Warn().Str("Entry", entry).Msg("Skipping invalid device spec entry")
      continue
    }

    spec[strings.TrimSpace(key)] = strings.TrimSpace(value)
  }

  return spec
}

func (ds DeviceSpec) Name() string {
  return ds[DeviceSpecFieldName]
}

func (ds DeviceSpec) ID() (ID, error) {
  return ParseID(ds[DeviceSpecFieldAddress])
}
