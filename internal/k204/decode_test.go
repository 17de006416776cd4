package k204

import (
	"encoding/binary"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildFrame constructs a well-formed 45-byte frame with the given
// status byte, raw channel values, over-limit bits and resolution bits.
// Reserved bytes are left zero.
func buildFrame(status byte, raw [4]int16, olBits, resBits byte) []byte {
	frame := make([]byte, FrameLen)
	frame[0] = startMarker
	frame[statusOffset] = status
	for i, v := range raw {
		binary.BigEndian.PutUint16(frame[valuesOffset+2*i:], uint16(v))
	}
	frame[overLimitOffset] = olBits
	frame[resolutionOffset] = resBits
	frame[FrameLen-1] = endMarker
	return frame
}

func TestDecodeShortFrame(t *testing.T) {
	for _, n := range []int{0, 1, 7, 44} {
		_, err := Decode(make([]byte, n))
		assert.ErrorIs(t, err, ErrShortFrame, "length %d", n)
		assert.ErrorIs(t, err, ErrUnrecognized, "length %d", n)
	}
}

func TestDecodeFramingMismatch(t *testing.T) {
	tests := []struct {
		name string
		mut  func([]byte)
	}{
		{"bad start marker", func(f []byte) { f[0] = 0x00 }},
		{"bad end marker", func(f []byte) { f[44] = 0x00 }},
		{"both markers wrong", func(f []byte) { f[0], f[44] = 0xff, 0xff }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := buildFrame(0x80, [4]int16{}, 0, 0)
			tt.mut(frame)
			_, err := Decode(frame)
			assert.ErrorIs(t, err, ErrFraming)
			assert.ErrorIs(t, err, ErrUnrecognized)
		})
	}
}

func TestDecodeUnitBit(t *testing.T) {
	r, err := Decode(buildFrame(0x80, [4]int16{}, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, Celsius, r.Unit)

	// Other status bits are reserved and must not affect the unit.
	r, err = Decode(buildFrame(0x7f, [4]int16{}, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, Fahrenheit, r.Unit)
}

func TestDecodeResolutionScaling(t *testing.T) {
	// Bit set: raw value is already in tenths, divisor 1.
	r, err := Decode(buildFrame(0x80, [4]int16{235, 235, 235, 235}, 0, 0b0001))
	require.NoError(t, err)
	assert.Equal(t, Temp(235.0), r.Channels[0])
	// Bit clear: divide by 10, real division, no truncation.
	assert.Equal(t, Temp(23.5), r.Channels[1])
	assert.Equal(t, Temp(23.5), r.Channels[2])
	assert.Equal(t, Temp(23.5), r.Channels[3])
}

func TestDecodeOverLimitPrecedence(t *testing.T) {
	// OL wins over any raw content, including a raw zero.
	r, err := Decode(buildFrame(0x80, [4]int16{0, 9999, -42, 1}, 0b1111, 0))
	require.NoError(t, err)
	for i, v := range r.Channels {
		assert.True(t, v.OverLimit, "channel %s", ChannelLabel(i))
	}
}

func TestDecodeNegativeValues(t *testing.T) {
	r, err := Decode(buildFrame(0x00, [4]int16{-50, -1, -32768, 32767}, 0, 0))
	require.NoError(t, err)
	want := Reading{
		Unit:     Fahrenheit,
		Channels: [4]Value{Temp(-5.0), Temp(-0.1), Temp(-3276.8), Temp(3276.7)},
	}
	if diff := cmp.Diff(want, r); diff != "" {
		t.Errorf("reading mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeEndToEnd(t *testing.T) {
	// T1 raw 235 with its resolution bit set (already tenths), T2 raw
	// -50 scaled by 10, T3 flagged over limit, T4 raw 1000 scaled.
	frame := buildFrame(0x80, [4]int16{235, -50, 0, 1000}, 0b0100, 0b0001)
	r, err := Decode(frame)
	require.NoError(t, err)

	want := Reading{
		Unit:     Celsius,
		Channels: [4]Value{Temp(235.0), Temp(-5.0), OL(), Temp(100.0)},
	}
	if diff := cmp.Diff(want, r); diff != "" {
		t.Errorf("reading mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeIdempotent(t *testing.T) {
	frame := buildFrame(0x80, [4]int16{123, -456, 789, 0}, 0b0010, 0b1000)
	first, err := Decode(frame)
	require.NoError(t, err)
	second, err := Decode(frame)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDecodeAlwaysFourChannels(t *testing.T) {
	r, err := Decode(buildFrame(0x80, [4]int16{}, 0b1010, 0))
	require.NoError(t, err)
	assert.Len(t, r.Channels, NumChannels)
	assert.Equal(t, [4]Value{Temp(0), OL(), Temp(0), OL()}, r.Channels)
}

func TestValueString(t *testing.T) {
	assert.Equal(t, "OL", OL().String())
	assert.Equal(t, "23.5", Temp(23.5).String())
	assert.Equal(t, "-5.0", Temp(-5).String())
	assert.Equal(t, "0.0", Temp(0).String())
}

func TestUnitString(t *testing.T) {
	assert.Equal(t, "°C", Celsius.String())
	assert.Equal(t, "°F", Fahrenheit.String())
}

func TestChannelLabel(t *testing.T) {
	assert.Equal(t, "T1", ChannelLabel(0))
	assert.Equal(t, "T4", ChannelLabel(3))
}

func TestDecodeExtraTrailingBytesIgnored(t *testing.T) {
	// Anything past byte 44 is not part of the frame; markers are
	// checked at the fixed offsets.
	frame := append(buildFrame(0x80, [4]int16{100, 0, 0, 0}, 0, 0), 0xde, 0xad)
	r, err := Decode(frame)
	require.NoError(t, err)
	assert.Equal(t, Temp(10.0), r.Channels[0])
}
