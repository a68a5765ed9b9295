package ble

import (
  "reflect"
  "testing"

  ble_mod "github.com/go-ble/ble"
)

func TestMergeAdvertisement(t *testing.T) {
  stylusService := ble_mod.MustParse("0000fff0-0000-1000-8000-00805f9b34fb")
  batteryService := ble_mod.UUID16(0x180f)

  f := &Found{Addr: "aa:bb:cc:dd:ee:01"}

  mergeAdvertisement(f, FakeAdvertisement{
    services: []ble_mod.UUID{stylusService},
    rssi: -70,
  })
  mergeAdvertisement(f, FakeAdvertisement{
    name: "Stylus",
    connectable: true,
    services: []ble_mod.UUID{stylusService, batteryService},
    rssi: -60,
  })
  mergeAdvertisement(f, FakeAdvertisement{
    name: "ignored, name already known",
    rssi: -65,
  })

  want := &Found{
    Addr: "aa:bb:cc:dd:ee:01",
    Name: "Stylus",
    Connectable: true,
    Services: []string{stylusService.String(), batteryService.String()},
    RSSI: -65,
  }

  if !reflect.DeepEqual(f, want) {
    t.Fatalf("mergeAdvertisement: got %+#v, wanted %+#v", f, want)
  }
}

func TestAdvertises(t *testing.T) {
  stylusService := ble_mod.MustParse("fff0")
  a := FakeAdvertisement{
    services: []ble_mod.UUID{ble_mod.MustParse("0000fff0-0000-1000-8000-00805f9b34fb")},
  }

  if advertises(a, ble_mod.UUID16(0x180f)) {
    t.Fatalf("advertises() matched an unrelated service")
  }

  if !advertises(a, stylusService) {
    t.Fatalf("advertises() did not match the 16-bit form of an advertised 128-bit service UUID")
  }
}

type FakeAdvertisement struct {
  name string
  manufacturerData []byte
  services []ble_mod.UUID
  connectable bool
  rssi int
  addr ble_mod.Addr
}

func (f FakeAdvertisement) LocalName() string {
  return f.name
}

func (f FakeAdvertisement) ManufacturerData() []byte {
  return f.manufacturerData
}

func (f FakeAdvertisement) ServiceData() []ble_mod.ServiceData {
  return nil
}

func (f FakeAdvertisement) Services() []ble_mod.UUID {
  return f.services
}

func (f FakeAdvertisement) OverflowService() []ble_mod.UUID {
  return nil
}

func (f FakeAdvertisement) TxPowerLevel() int {
  return 0
}

func (f FakeAdvertisement) Connectable() bool {
  return f.connectable
}

func (f FakeAdvertisement) SolicitedService() []ble_mod.UUID {
  return nil
}

func (f FakeAdvertisement) RSSI() int {
  return f.rssi
}

func (f FakeAdvertisement) Addr() ble_mod.Addr {
  return f.addr
}
