// Package meter drives the K204 thermometer over its serial link: one
// query byte out, one fixed-size frame back. Frame decoding lives in
// internal/k204; this package only moves bytes.
package meter

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/banshee-data/thermo.report/internal/k204"
)

const (
	// DefaultSettle is how long the meter needs after the query byte
	// before it starts transmitting the frame.
	DefaultSettle = 500 * time.Millisecond

	// DefaultReadTimeout bounds the wait for a complete frame. A
	// timeout is not an error; it yields a short frame the decoder
	// reports as unrecognized.
	DefaultReadTimeout = 3 * time.Second
)

// MeterPort owns one serial connection to the thermometer and knows
// how to request a single raw frame from it.
type MeterPort struct {
	port        SerialPorter
	settle      time.Duration
	readTimeout time.Duration
}

// NewMeterPort wraps an already-open serial port with default timing.
func NewMeterPort(port SerialPorter) *MeterPort {
	return &MeterPort{
		port:        port,
		settle:      DefaultSettle,
		readTimeout: DefaultReadTimeout,
	}
}

// SetTiming overrides the settle delay and read timeout. Zero values
// keep the current setting.
func (m *MeterPort) SetTiming(settle, readTimeout time.Duration) {
	if settle > 0 {
		m.settle = settle
	}
	if readTimeout > 0 {
		m.readTimeout = readTimeout
	}
}

// QueryFrame writes the wake byte and collects up to one frame's worth
// of bytes within the read timeout. It returns whatever arrived: short
// reads are routine under timeout/noise and are the decoder's problem,
// not a transport error.
func (m *MeterPort) QueryFrame(ctx context.Context) ([]byte, error) {
	if r, ok := m.port.(BufferResetter); ok {
		if err := r.ResetInputBuffer(); err != nil {
			return nil, mapPortError(err)
		}
		if err := r.ResetOutputBuffer(); err != nil {
			return nil, mapPortError(err)
		}
	}

	if _, err := m.port.Write([]byte{k204.QueryByte}); err != nil {
		return nil, mapPortError(err)
	}

	// The meter needs a beat to assemble the frame before it answers.
	select {
	case <-time.After(m.settle):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if tp, ok := m.port.(TimeoutSerialPorter); ok {
		if err := tp.SetReadTimeout(m.readTimeout); err != nil {
			return nil, mapPortError(err)
		}
	}

	deadline := time.Now().Add(m.readTimeout)
	frame := make([]byte, 0, k204.FrameLen)
	chunk := make([]byte, k204.FrameLen)
	for len(frame) < k204.FrameLen {
		if err := ctx.Err(); err != nil {
			return frame, err
		}
		n, err := m.port.Read(chunk)
		if n > 0 {
			frame = append(frame, chunk[:n]...)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return frame, mapPortError(err)
		}
		if n == 0 || time.Now().After(deadline) {
			// zero-byte read is the port's timeout signal
			break
		}
	}
	return frame, nil
}

// Close closes the underlying serial port.
func (m *MeterPort) Close() error {
	return m.port.Close()
}
