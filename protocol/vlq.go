package protocol

import "errors"

var (
	// ErrTruncated means the buffer ended inside a value.
	ErrTruncated = errors.New("truncated VLQ value")
	// ErrOverlong means a value did not terminate within 5 bytes.
	ErrOverlong = errors.New("overlong VLQ value")
)

// Integers travel as VLQ: 7-bit groups, most significant group first, the
// high bit of each byte flagging a continuation. Small values, which
// dominate this protocol (channel indexes, masks, duty counts), take one
// byte.

// AppendUint appends the VLQ encoding of v to dst.
func AppendUint(dst []byte, v uint32) []byte {
	switch {
	case v >= 1<<28:
		dst = append(dst, byte(v>>28)|0x80)
		fallthrough
	case v >= 1<<21:
		dst = append(dst, byte(v>>21)&0x7F|0x80)
		fallthrough
	case v >= 1<<14:
		dst = append(dst, byte(v>>14)&0x7F|0x80)
		fallthrough
	case v >= 1<<7:
		dst = append(dst, byte(v>>7)&0x7F|0x80)
	}
	return append(dst, byte(v)&0x7F)
}

// ReadUint decodes one VLQ value from *data, advancing the slice past the
// consumed bytes.
func ReadUint(data *[]byte) (uint32, error) {
	var v uint32
	for i := 0; ; i++ {
		if len(*data) == 0 {
			return 0, ErrTruncated
		}
		if i == 5 {
			return 0, ErrOverlong
		}
		b := (*data)[0]
		*data = (*data)[1:]
		v = v<<7 | uint32(b&0x7F)
		if b&0x80 == 0 {
			return v, nil
		}
	}
}
