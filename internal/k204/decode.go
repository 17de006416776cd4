package k204

import "encoding/binary"

// Decode parses one raw frame into a Reading.
//
// Validation order: length, then start/end markers. Both failures wrap
// ErrUnrecognized; short and garbled frames are routine on this link
// and the caller should skip the cycle rather than abort.
func Decode(frame []byte) (Reading, error) {
	if len(frame) < FrameLen {
		return Reading{}, ErrShortFrame
	}
	if frame[0] != startMarker || frame[FrameLen-1] != endMarker {
		return Reading{}, ErrFraming
	}

	var r Reading
	if frame[statusOffset]&0x80 != 0 {
		r.Unit = Celsius
	} else {
		r.Unit = Fahrenheit
	}

	raw := frame[valuesOffset : valuesOffset+2*NumChannels]
	if len(raw) != 2*NumChannels {
		// Unreachable after the length check, kept so a future layout
		// change cannot turn into an out-of-bounds read.
		return Reading{}, ErrUnrecognized
	}

	olBits := frame[overLimitOffset]
	resBits := frame[resolutionOffset]

	for i := 0; i < NumChannels; i++ {
		if olBits&(1<<i) != 0 {
			r.Channels[i] = OL()
			continue
		}
		v := int16(binary.BigEndian.Uint16(raw[2*i:]))
		// Resolution bit set means the raw integer is already in
		// tenths of a degree; clear means it is degrees x10.
		divisor := 10.0
		if resBits&(1<<i) != 0 {
			divisor = 1.0
		}
		r.Channels[i] = Temp(float64(v) / divisor)
	}

	return r, nil
}
