package stylus

import (
  "encoding/binary"

  "github.com/robertof/go-stylus-bridge/device"
  "github.com/robertof/go-stylus-bridge/utils"
)

const (
  buttonPacketLength = 3
  scanPacketLength = 4
)

// Decode classifies a raw notification payload and extracts the event it carries.
//
// Button packets are `[?, button, phase]`. The first byte has always been observed to be 1 but
// its meaning is unknown, so it is ignored rather than validated.
func Decode(payload []byte) (device.Event, error) {
  switch len(payload) {
  case buttonPacketLength:
    button, err := device.ParseButtonID(payload[1])
    if err != nil {
      return nil, err
    }

    phase, err := device.ParseButtonPhase(payload[2])
    if err != nil {
      return nil, err
    }

    return device.ButtonEvent{Button: button, Phase: phase}, nil
  case scanPacketLength:
    return device.ScanEvent{Value: decodeScanValue(payload, binary.NativeEndian)}, nil
  default:
    return nil, &device.DecodeError{
      Kind: device.DecodeErrorUnrecognizedLength,
      Length: len(payload),
    }
  }
}

// decodeScanValue reads the little-endian scan identifier. The bytes are brought into host order
// first, so the same wire bytes yield the same value on every host.
func decodeScanValue(b []byte, host binary.ByteOrder) uint32 {
  b = b[:scanPacketLength]

  if !isLittleEndian(host) {
    b = utils.Reverse(b)
  }

  return host.Uint32(b)
}

func isLittleEndian(bo binary.ByteOrder) bool {
  return bo.Uint16([]byte{0x01, 0x00}) == 0x0001
}
