package meter

import (
	"io"
	"time"
)

// SerialPorter is the minimal interface the meter needs from a serial
// port. The abstraction enables unit testing without real hardware.
type SerialPorter interface {
	io.ReadWriter
	io.Closer
}

// TimeoutSerialPorter extends SerialPorter with a read timeout. Real
// ports implement it; mocks may not.
type TimeoutSerialPorter interface {
	SerialPorter
	SetReadTimeout(timeout time.Duration) error
}

// BufferResetter is implemented by ports that can discard pending
// input/output. The meter flushes both before each query so a stale
// partial frame can't be glued onto a fresh one.
type BufferResetter interface {
	ResetInputBuffer() error
	ResetOutputBuffer() error
}
