package main

import (
	"context"
	"slices"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/maps"

	"github.com/robertof/go-stylus-bridge/ble"
	"github.com/robertof/go-stylus-bridge/device"
)

func doDeviceDiscovery(cfg config) {
  log.Info().
    Dur("TimeoutSec", cfg.DiscoveryTimeout).
    Msg("Starting in device discovery mode - collecting devices...")

  handle, err := ble.Init(cfg.BluetoothDeviceId, ble.FlagScanTypeActive)

  if err != nil {
    log.Fatal().Err(err).Msg("Failed to initialize Bluetooth device")
  }

  defer handle.Stop()

  ctx := ble.WrapContextWithSigHandler(
    context.WithTimeout(
      context.Background(),
      cfg.DiscoveryTimeout,
    ),
  )

  found, err := handle.ScanDevices(ctx, nil)

  if err != nil {
    log.Fatal().Err(err).Msg("Failed to initiate scan")
  }

  log.Info().Int("Found", len(found)).Msg("Finished device discovery")

  advertisedBy := make(map[string]int)

  for _, f := range found {
    for _, s := range f.Services {
      advertisedBy[s]++
    }

    log.Info().
      Str("Addr", f.Addr).
      Str("Name", f.Name).
      Bool("Connectable", f.Connectable).
      Int("RSSI", f.RSSI).
      Strs("Services", f.Services).
      Msg("Found device")
  }

  services := maps.Keys(advertisedBy)
  slices.Sort(services)

  for _, s := range services {
    log.Debug().Str("Service", s).Int("Devices", advertisedBy[s]).Msg("Advertised service")
  }
}

// discoverDevices scans for timeout and returns the connectable devices found.
func discoverDevices(ctx context.Context, handle *ble.Handle, timeout time.Duration) ([]device.Device, error) {
  ctx, cancel := context.WithTimeout(ctx, timeout)
  defer cancel()

  found, err := handle.ScanDevices(ctx, nil)

  if err != nil {
    return nil, err
  }

  return toDevices(found), nil
}

func toDevices(found []ble.Found) []device.Device {
  devices := make([]device.Device, 0, len(found))

  for _, f := range found {
    if !f.Connectable {
      continue
    }

    id, err := device.ParseID(f.Addr)

    if err != nil {
      log.Warn().Err(err).Str("Addr", f.Addr).Msg("Skipping device with invalid address")
      continue
    }

    devices = append(devices, device.Device{ID: id, Name: f.Name})
  }

  return devices
}
