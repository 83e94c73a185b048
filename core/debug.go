package core

// DebugWriter is a function type for writing warning and debug messages.
// Platform code redirects it to UART or USB; the host simulator points it
// at its logger. No-op by default so the control logic never blocks on I/O.
type DebugWriter func(string)

var debugPrintln DebugWriter = func(string) {}

// SetDebugWriter installs the platform-specific debug output function.
func SetDebugWriter(w DebugWriter) {
	if w == nil {
		w = func(string) {}
	}
	debugPrintln = w
}

func warn(msg string) {
	debugPrintln("[pwm] " + msg)
}

// utoa converts an unsigned integer to a string without pulling fmt into
// the firmware image.
func utoa(n uint32) string {
	if n == 0 {
		return "0"
	}
	var buf [10]byte
	pos := len(buf)
	for n > 0 {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[pos:])
}
