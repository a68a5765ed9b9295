package main

import (
	"reflect"
	"testing"

	"github.com/robertof/go-stylus-bridge/ble"
	"github.com/robertof/go-stylus-bridge/device"
)

func TestToDevices(t *testing.T) {
  found := []ble.Found{
    {Addr: "aa:bb:cc:dd:ee:01", Name: "Stylus", Connectable: true},
    {Addr: "aa:bb:cc:dd:ee:02", Name: "Beacon", Connectable: false},
    {Addr: "garbage", Connectable: true},
    {Addr: "AA:BB:CC:DD:EE:03", Connectable: true},
  }

  expected := []device.Device{
    {ID: "aa:bb:cc:dd:ee:01", Name: "Stylus"},
    {ID: "aa:bb:cc:dd:ee:03"},
  }

  if actual := toDevices(found); !reflect.DeepEqual(actual, expected) {
    t.Fatalf("expected %v, got %v", expected, actual)
  }
}
