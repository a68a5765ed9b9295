package ble

import (
  "context"
  "fmt"
  "slices"
  "strings"
  "sync"

  "github.com/go-ble/ble"
  "github.com/rs/zerolog/log"

  "github.com/robertof/go-stylus-bridge/utils"
)

func WrapContextWithSigHandler(ctx context.Context, cancel func()) context.Context {
  return ble.WithSigHandler(ctx, cancel)
}

// Found is a peripheral seen during a scan, merged over all of its advertisements.
type Found struct {
  Addr string
  Name string
  Connectable bool
  Services []string
  RSSI int
}

// ScanDevices scans until ctx is done and returns each device seen, in the order it was first
// seen. When filter is not nil only devices advertising it are kept; devices that never put
// their services in an advertisement are then missed, so callers may want to scan without it.
func (h *Handle) ScanDevices(ctx context.Context, filter UUID) ([]Found, error) {
  var mu sync.Mutex
  var order []string
  found := make(map[string]*Found)

  err := h.dev.Scan(ctx, true, func(a Advertisement) {
    if filter != nil && !advertises(a, filter) {
      return
    }

    addr := strings.ToLower(a.Addr().String())

    mu.Lock()
    defer mu.Unlock()

    f, ok := found[addr]

    if !ok {
      f = &Found{Addr: addr}
      found[addr] = f
      order = append(order, addr)

      log.Debug().
        Str("Addr", addr).
        Str("Name", a.LocalName()).
        Int("RSSI", a.RSSI()).
        Msg("ble: found device")
    }

    mergeAdvertisement(f, a)
  })

  // the scan always ends by the context expiring.
  if err != nil && !utils.ErrorIsAnyOf(err, context.Canceled, context.DeadlineExceeded) {
    return nil, fmt.Errorf("failed to initiate scan: %w", err)
  }

  mu.Lock()
  defer mu.Unlock()

  out := make([]Found, 0, len(order))

  for _, addr := range order {
    out = append(out, *found[addr])
  }

  return out, nil
}

func advertises(a Advertisement, service UUID) bool {
  for _, u := range a.Services() {
    if uuidEqual(u, service) {
      return true
    }
  }

  return false
}

func mergeAdvertisement(f *Found, a Advertisement) {
  if f.Name == "" {
    f.Name = a.LocalName()
  }

  f.Connectable = f.Connectable || a.Connectable()
  f.RSSI = a.RSSI()

  for _, u := range a.Services() {
    if s := u.String(); !slices.Contains(f.Services, s) {
      f.Services = append(f.Services, s)
    }
  }
}
