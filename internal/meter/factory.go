package meter

import (
	"go.bug.st/serial"
)

// Open opens the K204 at its fixed line settings (9600 8N1) and wraps
// it in a MeterPort with default timing.
func Open(path string) (*MeterPort, error) {
	mode := &serial.Mode{
		BaudRate: 9600,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, mapPortError(err)
	}

	return NewMeterPort(port), nil
}

// ListPorts enumerates the serial ports visible on this host, for the
// "which port is the meter on" prompt at startup.
func ListPorts() ([]string, error) {
	return serial.GetPortsList()
}
