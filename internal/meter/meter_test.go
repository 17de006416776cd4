package meter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/thermo.report/internal/k204"
)

func fastMeter(port SerialPorter) *MeterPort {
	m := NewMeterPort(port)
	m.SetTiming(time.Millisecond, 50*time.Millisecond)
	return m
}

func TestQueryFrameWritesWakeByte(t *testing.T) {
	port := NewTestablePort()
	port.AddReadData(k204.EncodeFrame(k204.Celsius, [4]int16{235, 0, 0, 0}, 0, 0))

	frame, err := fastMeter(port).QueryFrame(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []byte{k204.QueryByte}, port.GetWrittenData())
	assert.Len(t, frame, k204.FrameLen)
	assert.Equal(t, 2, port.ResetCalls, "both buffers reset before the query")
	assert.Equal(t, 50*time.Millisecond, port.ReadTimeout)
}

func TestQueryFrameDecodesEndToEnd(t *testing.T) {
	port := NewTestablePort()
	port.AddReadData(k204.EncodeFrame(k204.Fahrenheit, [4]int16{-50, 1000, 0, 0}, 0b0100, 0))

	frame, err := fastMeter(port).QueryFrame(context.Background())
	require.NoError(t, err)

	r, err := k204.Decode(frame)
	require.NoError(t, err)
	assert.Equal(t, k204.Fahrenheit, r.Unit)
	assert.Equal(t, k204.Temp(-5.0), r.Channels[0])
	assert.Equal(t, k204.Temp(100.0), r.Channels[1])
	assert.Equal(t, k204.OL(), r.Channels[2])
}

func TestQueryFrameShortReadIsNotAnError(t *testing.T) {
	port := NewTestablePort()
	port.AddReadData([]byte{0x02, 0x80, 0x00}) // frame truncated by the device

	frame, err := fastMeter(port).QueryFrame(context.Background())
	require.NoError(t, err)
	assert.Len(t, frame, 3)

	_, err = k204.Decode(frame)
	assert.ErrorIs(t, err, k204.ErrUnrecognized)
}

func TestQueryFrameNoDataTimesOutEmpty(t *testing.T) {
	port := NewTestablePort()

	frame, err := fastMeter(port).QueryFrame(context.Background())
	require.NoError(t, err)
	assert.Empty(t, frame)
}

func TestQueryFrameWriteError(t *testing.T) {
	port := NewTestablePort()
	port.WriteError = errors.New("unplugged")

	_, err := fastMeter(port).QueryFrame(context.Background())
	assert.ErrorContains(t, err, "unplugged")
}

func TestQueryFrameReadError(t *testing.T) {
	port := NewTestablePort()
	port.ReadError = errors.New("unplugged")

	_, err := fastMeter(port).QueryFrame(context.Background())
	assert.ErrorContains(t, err, "unplugged")
}

func TestQueryFrameContextCancelled(t *testing.T) {
	port := NewTestablePort()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fastMeter(port).QueryFrame(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestQueryFrameAssemblesChunkedReads(t *testing.T) {
	port := NewTestablePort()
	port.ChunkSize = 7 // force partial reads
	full := k204.EncodeFrame(k204.Celsius, [4]int16{123, 0, 0, 0}, 0, 0)
	port.AddReadData(full)

	frame, err := fastMeter(port).QueryFrame(context.Background())
	require.NoError(t, err)
	assert.Equal(t, full, frame)
}

func TestSimulatedPortProducesDecodableFrames(t *testing.T) {
	port := NewSimulatedPort()
	m := fastMeter(port)

	for i := 0; i < 3; i++ {
		frame, err := m.QueryFrame(context.Background())
		require.NoError(t, err)
		r, err := k204.Decode(frame)
		require.NoError(t, err)
		assert.Equal(t, k204.Celsius, r.Unit)
		assert.True(t, r.Channels[3].OverLimit, "T4 has no probe in the simulation")
		assert.False(t, r.Channels[0].OverLimit)
	}
}

func TestMeterPortClose(t *testing.T) {
	port := NewTestablePort()
	m := NewMeterPort(port)
	require.NoError(t, m.Close())
	assert.True(t, port.Closed)
}

func TestMapPortError(t *testing.T) {
	plain := errors.New("something else")
	assert.Equal(t, plain, mapPortError(plain))
}
