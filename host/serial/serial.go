// Package serial abstracts the byte stream between host tools and the
// board so the same protocol client runs over a real port or a test
// double.
package serial

import "io"

// Port is the byte stream carrying protocol frames.
type Port interface {
	io.ReadWriteCloser

	// Flush discards buffered input so a session starts frame-aligned.
	Flush() error
}

// Config holds serial port configuration.
type Config struct {
	// Device path (e.g. "/dev/ttyACM0", "COM3").
	Device string

	// Baud rate. The Due's native USB CDC port ignores this; the
	// programming port runs at whatever the firmware UART is set to.
	Baud int

	// Read timeout in milliseconds. Keep it short: the protocol client
	// polls the port, so this bounds response latency jitter.
	ReadTimeout int
}

// DefaultConfig returns the configuration matching the firmware UART.
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        115200,
		ReadTimeout: 50,
	}
}
