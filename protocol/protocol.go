// Package protocol implements the compact framed control protocol spoken
// between the host tooling and the PWM firmware: VLQ-coded integers inside
// CRC-protected frames, and the command set for driving the peripheral
// remotely.
package protocol

// Version identifies the firmware protocol revision.
const Version = "0.1.0"

// Frame layout: [length][sequence][payload...][crc hi][crc lo][sync]
const (
	FrameSync        = 0x7E
	FrameHeaderSize  = 2
	FrameTrailerSize = 3
	FrameLengthMin   = FrameHeaderSize + FrameTrailerSize
	FrameLengthMax   = 64

	// Sequence numbers occupy the low nibble and wrap within it; the high
	// nibble marks the direction of travel.
	SeqMask  = 0x0F
	SeqHost  = 0x10 // host -> firmware
	SeqBoard = 0x20 // firmware -> host
)

// Frame is one decoded protocol frame.
type Frame struct {
	Seq     uint8
	Payload []byte
}
