// Package k204 decodes the 45-byte telemetry frame emitted by the
// Voltcraft K204 / HH309 four-channel thermometer.
//
// Decode is a pure function over the frame bytes: no I/O, no state. A
// malformed frame is an expected outcome of a timeout-prone serial
// link and is reported through ErrUnrecognized, never a panic.
package k204

import (
	"errors"
	"fmt"
	"strconv"
)

// Frame layout constants. Bytes not named here are reserved.
const (
	FrameLen = 45

	startMarker = 0x02
	endMarker   = 0x03

	statusOffset     = 1  // bit7: unit (1=°C, 0=°F)
	valuesOffset     = 7  // 4x int16 big-endian, T1..T4
	overLimitOffset  = 39 // bit i: channel i over limit
	resolutionOffset = 43 // bit i: channel i value already in tenths
)

// QueryByte is the single wake byte the host writes to trigger one
// frame transmission.
const QueryByte = 0x41

// NumChannels is the number of temperature channels in every frame.
const NumChannels = 4

// ErrUnrecognized is the common sentinel for every malformed-frame
// case. Callers should treat errors.Is(err, ErrUnrecognized) as "no
// valid reading this cycle" and keep going.
var ErrUnrecognized = errors.New("unrecognized frame")

var (
	// ErrShortFrame reports fewer than FrameLen bytes of input.
	ErrShortFrame = fmt.Errorf("short frame: %w", ErrUnrecognized)
	// ErrFraming reports missing start/end markers.
	ErrFraming = fmt.Errorf("framing mismatch: %w", ErrUnrecognized)
)

// Unit is the temperature unit the meter is currently reporting in.
type Unit int

const (
	Fahrenheit Unit = iota
	Celsius
)

func (u Unit) String() string {
	if u == Celsius {
		return "°C"
	}
	return "°F"
}

// Value is one channel's decoded result: either a temperature in the
// reading's unit or the over-limit sentinel. A legitimate 0.0 reading
// and an over-limit channel are distinct values.
type Value struct {
	OverLimit bool
	Temp      float64
}

// OL is the over-limit sentinel value.
func OL() Value { return Value{OverLimit: true} }

// Temp constructs a numeric channel value.
func Temp(t float64) Value { return Value{Temp: t} }

func (v Value) String() string {
	if v.OverLimit {
		return "OL"
	}
	return strconv.FormatFloat(v.Temp, 'f', 1, 64)
}

// Reading is one decoded frame: the active unit and all four channel
// values in T1..T4 order. Disconnected probes show up as over-limit,
// never as missing entries.
type Reading struct {
	Unit     Unit
	Channels [NumChannels]Value
}

// ChannelLabel returns the display label for channel index i (T1..T4).
func ChannelLabel(i int) string {
	return "T" + strconv.Itoa(i+1)
}
