package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/robertof/go-stylus-bridge/ble"
	"github.com/robertof/go-stylus-bridge/clipboard"
	"github.com/robertof/go-stylus-bridge/controller"
	"github.com/robertof/go-stylus-bridge/device"
	"github.com/robertof/go-stylus-bridge/httpapi"
	"github.com/robertof/go-stylus-bridge/metrics"
	"github.com/robertof/go-stylus-bridge/mqtt"
	"github.com/robertof/go-stylus-bridge/session"
	"github.com/robertof/go-stylus-bridge/sink"
	"github.com/robertof/go-stylus-bridge/state"
	"github.com/robertof/go-stylus-bridge/utils"
)

func main() {
  zerolog.DurationFieldUnit = time.Second
  zerolog.TimeFieldFormat = time.RFC3339Nano

  log.Logger = log.Output(zerolog.ConsoleWriter{
    Out: os.Stderr,
    TimeFormat: "15:04:05.000",
  })

  cfg := ParseArgs()

  if cfg.Trace || os.Getenv("TRACE") != "" {
      zerolog.SetGlobalLevel(zerolog.TraceLevel)
  } else if cfg.Debug || os.Getenv("DEBUG") != "" {
      zerolog.SetGlobalLevel(zerolog.DebugLevel)
  } else {
      zerolog.SetGlobalLevel(zerolog.InfoLevel)
  }

  if cfg.DiscoverDevices {
    doDeviceDiscovery(cfg)
    return
  }

  log.Info().
    Str("BindAddr", cfg.BindAddress).
    Stringer("Stylus", &cfg.Stylus).
    Int("BluetoothDeviceID", cfg.BluetoothDeviceId).
    Bool("CopyToClipboard", cfg.CopyToClipboard).
    Str("MQTTBroker", cfg.MQTTBroker).
    Msg("Starting with the specified configuration")

  ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
  defer stop()

  registry := prometheus.NewRegistry()

  if cfg.EnableMetamonitoring {
    ble.RegisterMetrics(registry)
    registry.MustRegister(
      collectors.NewGoCollector(),
      collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
    )
  }

  bleHandle := initBle(cfg)
  defer bleHandle.Stop()

  subscriber, err := bleHandle.NotificationSubscriber(cfg.ServiceUUID, cfg.CharacteristicUUID)

  if err != nil {
    log.Fatal().Err(err).Msg("Invalid GATT identifiers")
  }

  loop := state.NewLoop()
  // clipboard writes spawn a helper process, so they get their own loop.
  clipboardLoop := state.NewLoop()
  hub := httpapi.NewHub()
  defer hub.Close()

  publishers := state.Publishers{
    state.PublisherFunc(func(c state.Change) {
      log.Debug().Stringer("Change", c).Msg("State changed")
    }),
    hub,
  }

  if cfg.MQTTBroker != "" {
    client, err := mqtt.Connect(cfg.MQTTBroker, cfg.MQTTClientID, cfg.ConnectTimeout)

    if err != nil {
      log.Fatal().Err(err).Msg("Failed to connect to MQTT broker")
    }

    defer client.Close()

    pub := mqtt.NewPublisher(client, cfg.MQTTTopicPrefix, 64)
    defer pub.Close()

    publishers = append(publishers, pub)
  }

  store := state.NewStore(loop, publishers)
  store.SetCopyToClipboard(cfg.CopyToClipboard)

  metrics.RegisterCollector(store.Snapshot, registry)

  var clip sink.Clipboard = clipboard.System{}

  if cfg.DisableClipboard {
    clip = clipboard.Discard{}
  }

  eventSink := sink.New(
    store,
    clip,
    sink.WithClipboardExecutor(clipboardLoop),
    sink.WithObserver(metrics.NewEvents(registry)),
  )

  var ctrl *controller.Controller

  sess := session.New(subscriber, func(src device.ID, payload []byte, r session.Result) {
    ctrl.HandleResult(src, payload, r)
  }, session.WithRestoreTimeout(cfg.ConnectTimeout))

  ctrl = controller.New(sess, store, eventSink)

  server := &http.Server{
    Addr: cfg.BindAddress,
    Handler: httpapi.NewServer(
      store,
      ctrl,
      httpapi.WithHub(hub),
      httpapi.WithMetrics(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})),
    ).Handler(),
    ReadHeaderTimeout: 5 * time.Second,
  }

  g, gctx := errgroup.WithContext(ctx)

  g.Go(func() error {
    return loop.Run(gctx)
  })

  g.Go(func() error {
    return clipboardLoop.Run(gctx)
  })

  g.Go(func() error {
    log.Info().Str("ListenAddress", cfg.BindAddress).Msg("Starting HTTP server")

    if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
      return err
    }

    return nil
  })

  g.Go(func() error {
    <-gctx.Done()

    shutdownCtx, cancel := context.WithTimeout(context.Background(), 5 * time.Second)
    defer cancel()

    if err := sess.Close(shutdownCtx); err != nil {
      log.Warn().Err(err).Msg("Failed to unsubscribe from stylus on shutdown")
    }

    return server.Shutdown(shutdownCtx)
  })

  g.Go(func() error {
    startSession(gctx, cfg, bleHandle, ctrl)
    return nil
  })

  if err := g.Wait(); err != nil {
    log.Fatal().Err(err).Msg("Stopped with an error")
  }

  log.Info().Msg("Bye")
}

func initBle(cfg config) *ble.Handle {
  bleFlags := ble.FlagScanTypeActive

  if cfg.PersistConnections {
    bleFlags |= ble.FlagPersistConnections
  }

  bleHandle, err := ble.InitWithConnParams(cfg.BluetoothDeviceId, cfg.BluetoothConnParams, bleFlags)

  if err != nil {
    log.Fatal().Err(err).Msg("Failed to initialize Bluetooth device")
  }

  return bleHandle
}

// startSession populates the device list and selects the configured stylus, if any. Failures
// are reported through the application state, so they are not fatal.
func startSession(ctx context.Context, cfg config, bleHandle *ble.Handle, ctrl *controller.Controller) {
  log.Info().
    Dur("TimeoutSec", cfg.DiscoveryTimeout).
    Msg("Discovering nearby devices")

  devices, err := discoverDevices(ctx, bleHandle, cfg.DiscoveryTimeout)

  if utils.ErrorIsAnyOf(err, context.Canceled) {
    return
  }

  if err != nil {
    log.Error().Err(err).Msg("Failed to discover devices")
  } else {
    log.Info().
      Array("Devices", utils.ToZeroLogArray(devices)).
      Msg("Finished device discovery")
  }

  if stylus := cfg.Stylus.Device; stylus != nil {
    if !containsDevice(devices, stylus.ID) {
      devices = append(devices, *stylus)
    }

    ctrl.SetDevices(devices)

    connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
    defer cancel()

    if err := ctrl.Select(connectCtx, stylus.ID); err == nil {
      log.Info().Stringer("Stylus", stylus).Msg("Selected configured stylus")
    }

    return
  }

  ctrl.SetDevices(devices)
}

func containsDevice(devices []device.Device, id device.ID) bool {
  for _, d := range devices {
    if d.ID == id {
      return true
    }
  }

  return false
}
