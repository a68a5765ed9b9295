package metrics

import (
  "errors"

  "github.com/prometheus/client_golang/prometheus"
  "github.com/robertof/go-stylus-bridge/device"
  "github.com/robertof/go-stylus-bridge/state"
)

var (
  descBound = prometheus.NewDesc(
    "stylus_bridge_bound_info",
    "Stylus the bridge is currently bound to. Absent when no stylus is selected.",
    []string{"device"},
    nil,
  )

  descDevices = prometheus.NewDesc(
    "stylus_bridge_discovered_devices",
    "Number of devices found by the last discovery.",
    nil,
    nil,
  )

  descCopyToClipboard = prometheus.NewDesc(
    "stylus_bridge_copy_to_clipboard_enabled",
    "Whether scanned values are copied to the clipboard. 0 = disabled, 1 = enabled.",
    nil,
    nil,
  )
)

type CollectFunc func() state.Snapshot

type collector struct {
  CollectFunc
}

func (c *collector) Describe(ch chan<- *prometheus.Desc) {
  prometheus.DescribeByCollect(c, ch)
}

func (c *collector) Collect(ch chan<- prometheus.Metric) {
  snap := c.CollectFunc()

  if snap.SelectedDevice != "" {
    ch <- prometheus.MustNewConstMetric(descBound, prometheus.GaugeValue, 1, snap.SelectedDevice)
  }

  ch <- prometheus.MustNewConstMetric(descDevices, prometheus.GaugeValue, float64(len(snap.Devices)))

  var copyEnabled float64
  if snap.CopyToClipboard {
    copyEnabled = 1
  }

  ch <- prometheus.MustNewConstMetric(descCopyToClipboard, prometheus.GaugeValue, copyEnabled)
}

func RegisterCollector(f CollectFunc, reg prometheus.Registerer) {
  c := &collector{f}

  reg.MustRegister(c)
}

// Events counts decoded events and decode failures. It is a sink.Observer.
type Events struct {
  buttons *prometheus.CounterVec
  scans prometheus.Counter
  errors *prometheus.CounterVec
}

func NewEvents(reg prometheus.Registerer) *Events {
  e := &Events{
    buttons: prometheus.NewCounterVec(prometheus.CounterOpts{
      Name: "stylus_bridge_button_events_total",
      Help: "Button events received from the stylus.",
    }, []string{"button", "phase"}),
    scans: prometheus.NewCounter(prometheus.CounterOpts{
      Name: "stylus_bridge_scan_events_total",
      Help: "Scan events received from the stylus.",
    }),
    errors: prometheus.NewCounterVec(prometheus.CounterOpts{
      Name: "stylus_bridge_decode_errors_total",
      Help: "Notifications that could not be decoded, by failure kind.",
    }, []string{"kind"}),
  }

  reg.MustRegister(e.buttons, e.scans, e.errors)

  return e
}

func (e *Events) ObserveEvent(ev device.Event) {
  switch ev := ev.(type) {
  case device.ButtonEvent:
    e.buttons.WithLabelValues(ev.Button.String(), ev.Phase.String()).Inc()
  case device.ScanEvent:
    e.scans.Inc()
  }
}

func (e *Events) ObserveError(err error) {
  kind := "other"

  var decodeErr *device.DecodeError

  if errors.As(err, &decodeErr) {
    kind = decodeErr.Kind.String()
  }

  e.errors.WithLabelValues(kind).Inc()
}
