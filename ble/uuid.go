package ble

import "strings"

const bluetoothBaseUUIDSuffix = "00001000800000805f9b34fb"

// normalizeUUID returns the 128-bit lower-case undashed form of u, expanding 16 and 32-bit
// UUIDs against the Bluetooth base UUID.
func normalizeUUID(u UUID) string {
  s := strings.ToLower(strings.ReplaceAll(u.String(), "-", ""))

  switch len(s) {
  case 4:
    return "0000" + s + bluetoothBaseUUIDSuffix
  case 8:
    return s + bluetoothBaseUUIDSuffix
  default:
    return s
  }
}

// uuidEqual compares UUIDs regardless of the width they were received in.
func uuidEqual(a, b UUID) bool {
  return normalizeUUID(a) == normalizeUUID(b)
}
