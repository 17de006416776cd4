package meter

import (
	"bytes"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/banshee-data/thermo.report/internal/k204"
)

// TestablePort implements SerialPorter with configurable behaviour for
// testing: pre-loaded read data, captured writes, injectable errors.
type TestablePort struct {
	mu sync.Mutex

	// ReadBuffer holds data to be returned by Read calls.
	ReadBuffer *bytes.Buffer

	// WriteBuffer captures data written to the port.
	WriteBuffer *bytes.Buffer

	// ReadError is returned by the next Read call if set.
	ReadError error

	// WriteError is returned by the next Write call if set.
	WriteError error

	// CloseError is returned by Close if set.
	CloseError error

	// Closed indicates whether Close was called.
	Closed bool

	// ReadTimeout records the last SetReadTimeout value.
	ReadTimeout time.Duration

	// ChunkSize caps the bytes returned per Read call when positive,
	// to exercise frame reassembly across partial reads.
	ChunkSize int

	// ResetCalls counts ResetInputBuffer/ResetOutputBuffer calls.
	ResetCalls int
}

// NewTestablePort creates an empty TestablePort.
func NewTestablePort() *TestablePort {
	return &TestablePort{
		ReadBuffer:  bytes.NewBuffer(nil),
		WriteBuffer: bytes.NewBuffer(nil),
	}
}

func (t *TestablePort) Read(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.Closed {
		return 0, errors.New("serial port closed")
	}
	if t.ReadError != nil {
		err := t.ReadError
		t.ReadError = nil
		return 0, err
	}
	if t.ReadBuffer.Len() == 0 {
		// empty buffer behaves like a read timeout
		return 0, nil
	}
	if t.ChunkSize > 0 && len(p) > t.ChunkSize {
		p = p[:t.ChunkSize]
	}
	return t.ReadBuffer.Read(p)
}

func (t *TestablePort) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.Closed {
		return 0, errors.New("serial port closed")
	}
	if t.WriteError != nil {
		err := t.WriteError
		t.WriteError = nil
		return 0, err
	}
	return t.WriteBuffer.Write(p)
}

func (t *TestablePort) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Closed = true
	return t.CloseError
}

// SetReadTimeout implements TimeoutSerialPorter.
func (t *TestablePort) SetReadTimeout(timeout time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ReadTimeout = timeout
	return nil
}

// ResetInputBuffer implements BufferResetter.
func (t *TestablePort) ResetInputBuffer() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ResetCalls++
	return nil
}

// ResetOutputBuffer implements BufferResetter.
func (t *TestablePort) ResetOutputBuffer() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ResetCalls++
	return nil
}

// AddReadData queues data for subsequent Read calls.
func (t *TestablePort) AddReadData(data []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ReadBuffer.Write(data)
}

// GetWrittenData returns everything written to the port.
func (t *TestablePort) GetWrittenData() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.WriteBuffer.Bytes()
}

// SimulatedPort is a SerialPorter that behaves like a K204 with four
// probes attached: every query byte queues one synthetic frame with
// slowly wandering temperatures. Backs the -dev flag so the whole
// pipeline can run without hardware.
type SimulatedPort struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	step   int
	closed bool
}

// NewSimulatedPort creates a simulator reporting in Celsius.
func NewSimulatedPort() *SimulatedPort {
	return &SimulatedPort{}
}

func (s *SimulatedPort) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, errors.New("serial port closed")
	}
	for _, b := range p {
		if b == k204.QueryByte {
			s.buf.Write(s.nextFrame())
		}
	}
	return len(p), nil
}

func (s *SimulatedPort) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, errors.New("serial port closed")
	}
	if s.buf.Len() == 0 {
		return 0, nil
	}
	return s.buf.Read(p)
}

func (s *SimulatedPort) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// nextFrame synthesizes one frame: T1..T3 drift on offset sine waves
// around room temperature, T4 reads over limit (no probe).
func (s *SimulatedPort) nextFrame() []byte {
	s.step++
	var raw [k204.NumChannels]int16
	for i := 0; i < 3; i++ {
		phase := float64(s.step)/10 + float64(i)*2
		raw[i] = int16(math.Round((21.0 + 3.0*math.Sin(phase) + float64(i)) * 10))
	}
	return k204.EncodeFrame(k204.Celsius, raw, 0b1000, 0)
}
