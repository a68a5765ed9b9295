package stylus

// GATT identifiers of the stylus data stream, in the standard 128-bit Bluetooth UUID form.
const (
	DataServiceUUID          = "0000fff0-0000-1000-8000-00805f9b34fb"
	DataInCharacteristicUUID = "0000fff4-0000-1000-8000-00805f9b34fb"
)
