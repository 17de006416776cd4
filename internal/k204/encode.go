package k204

import "encoding/binary"

// EncodeFrame assembles a wire frame from its parts: the inverse of
// Decode for the fields Decode consumes. Reserved bytes are zero. Used
// by the dev-mode simulator and by tests.
func EncodeFrame(unit Unit, raw [NumChannels]int16, olBits, resBits byte) []byte {
	frame := make([]byte, FrameLen)
	frame[0] = startMarker
	if unit == Celsius {
		frame[statusOffset] = 0x80
	}
	for i, v := range raw {
		binary.BigEndian.PutUint16(frame[valuesOffset+2*i:], uint16(v))
	}
	frame[overLimitOffset] = olBits
	frame[resolutionOffset] = resBits
	frame[FrameLen-1] = endMarker
	return frame
}
