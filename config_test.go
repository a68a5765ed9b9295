package main

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robertof/go-stylus-bridge/ble"
	"github.com/robertof/go-stylus-bridge/device"
	"github.com/robertof/go-stylus-bridge/device/stylus"
)

func TestParseArgs_Defaults(t *testing.T) {
	cfg, err := parseArgs(nil, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, "localhost:9103", cfg.BindAddress)
	assert.Equal(t, ble.ConnParamsDefault, cfg.BluetoothConnParams)
	assert.Equal(t, stylus.DataServiceUUID, cfg.ServiceUUID)
	assert.Equal(t, stylus.DataInCharacteristicUUID, cfg.CharacteristicUUID)
	assert.True(t, cfg.PersistConnections)
	assert.False(t, cfg.CopyToClipboard)
	assert.Nil(t, cfg.Stylus.Device)
}

func TestParseArgs_Flags(t *testing.T) {
	cfg, err := parseArgs([]string{
		"-bind", ":8080",
		"-bluetooth-connection-params", "low-latency",
		"-copy-to-clipboard",
		"-stylus", "addr=AA:BB:CC:DD:EE:01,name=desk",
	}, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.BindAddress)
	assert.Equal(t, ble.ConnParamsLowLatency, cfg.BluetoothConnParams)
	assert.True(t, cfg.CopyToClipboard)
	require.NotNil(t, cfg.Stylus.Device)
	assert.Equal(t, device.Device{ID: "aa:bb:cc:dd:ee:01", Name: "desk"}, *cfg.Stylus.Device)
}

func TestParseArgs_ConfigFileWithOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
bind: "0.0.0.0:9200"
discovery_timeout: 12s
bluetooth_connection_params: power-saving
copy_to_clipboard: true
mqtt_broker: mqtt://localhost:1883
stylus: aa:bb:cc:dd:ee:02
`), 0o600))

	cfg, err := parseArgs([]string{"-config", path, "-bind", "localhost:1"}, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, "localhost:1", cfg.BindAddress)
	assert.Equal(t, 12*time.Second, cfg.DiscoveryTimeout)
	assert.Equal(t, ble.ConnParamsPowerSaving, cfg.BluetoothConnParams)
	assert.True(t, cfg.CopyToClipboard)
	assert.Equal(t, "mqtt://localhost:1883", cfg.MQTTBroker)
	require.NotNil(t, cfg.Stylus.Device)
	assert.Equal(t, device.ID("aa:bb:cc:dd:ee:02"), cfg.Stylus.Device.ID)
	assert.Equal(t, "stylus-aabbccddee02", cfg.Stylus.Device.Name)
}

func TestParseArgs_Errors(t *testing.T) {
	tests := map[string][]string{
		"unknown flag":       {"-nope"},
		"invalid stylus":     {"-stylus", "name=desk"},
		"invalid params":     {"-bluetooth-connection-params", "turbo"},
		"invalid uuid":       {"-service-uuid", "xyz"},
		"negative timeout":   {"-discovery-timeout", "-1s"},
		"missing config":     {"-config", filepath.Join(t.TempDir(), "missing.yaml")},
		"zero connect limit": {"-connect-timeout", "0s"},
	}

	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := parseArgs(args, io.Discard)
			assert.Error(t, err)
		})
	}
}
