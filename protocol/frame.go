package protocol

import "errors"

// ErrFrameTooLong means the payload does not fit in one frame.
var ErrFrameTooLong = errors.New("payload exceeds frame size")

// EncodeFrame wraps a payload into a wire frame with the given sequence
// byte.
func EncodeFrame(seq uint8, payload []byte) ([]byte, error) {
	n := FrameHeaderSize + len(payload) + FrameTrailerSize
	if n > FrameLengthMax {
		return nil, ErrFrameTooLong
	}
	frame := make([]byte, 0, n)
	frame = append(frame, byte(n), seq)
	frame = append(frame, payload...)
	crc := CRC16(frame)
	frame = append(frame, byte(crc>>8), byte(crc), FrameSync)
	return frame, nil
}

// Decoder reassembles frames from a raw byte stream. Corrupt input drops
// the decoder out of sync; it then discards bytes until the next sync byte
// and resumes, so a glitched serial link only loses the frames it mangled.
type Decoder struct {
	buf    []byte
	synced bool
}

// NewDecoder returns a decoder that assumes the stream starts on a frame
// boundary.
func NewDecoder() *Decoder {
	return &Decoder{synced: true}
}

// Write feeds raw bytes into the decoder.
func (d *Decoder) Write(p []byte) {
	d.buf = append(d.buf, p...)
}

// Next returns the next complete frame, or false when more bytes are
// needed.
func (d *Decoder) Next() (Frame, bool) {
	for {
		if !d.synced {
			i := indexByte(d.buf, FrameSync)
			if i < 0 {
				d.buf = d.buf[:0]
				return Frame{}, false
			}
			d.buf = d.buf[i+1:]
			d.synced = true
		}

		// Skip idle sync bytes between frames.
		for len(d.buf) > 0 && d.buf[0] == FrameSync {
			d.buf = d.buf[1:]
		}
		if len(d.buf) < FrameLengthMin {
			return Frame{}, false
		}

		n := int(d.buf[0])
		if n < FrameLengthMin || n > FrameLengthMax {
			d.synced = false
			continue
		}
		if len(d.buf) < n {
			return Frame{}, false
		}
		if d.buf[n-1] != FrameSync {
			d.synced = false
			continue
		}
		wantCRC := uint16(d.buf[n-3])<<8 | uint16(d.buf[n-2])
		if CRC16(d.buf[:n-FrameTrailerSize]) != wantCRC {
			d.synced = false
			continue
		}

		payload := make([]byte, n-FrameHeaderSize-FrameTrailerSize)
		copy(payload, d.buf[FrameHeaderSize:n-FrameTrailerSize])
		f := Frame{Seq: d.buf[1], Payload: payload}
		d.buf = d.buf[n:]
		return f, true
	}
}

func indexByte(p []byte, c byte) int {
	for i, b := range p {
		if b == c {
			return i
		}
	}
	return -1
}
