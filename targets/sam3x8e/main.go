//go:build sam3x8e

// Firmware for the Arduino Due's PWM controller: answers protocol frames
// on the programming-port UART and drives the PWM macrocell.
package main

import (
	"duepwm/core"
	"duepwm/protocol"
)

const uartBaud = 115200

func main() {
	uartInit(uartBaud)

	pwm := core.NewPeripheral(hwRegisters{}, pmcGate{})
	if err := pwm.InitDefault(); err != nil {
		// The PMC gate cannot fail on this chip; if it ever does there is
		// nothing useful to run.
		for {
		}
	}

	srv := protocol.NewServer(pwm)
	dec := protocol.NewDecoder()

	var rx [1]byte
	for {
		b, ok := uartReadByte()
		if !ok {
			continue
		}
		rx[0] = b
		dec.Write(rx[:])

		for {
			f, ok := dec.Next()
			if !ok {
				break
			}
			resp := srv.Handle(f.Payload)
			frame, err := protocol.EncodeFrame(protocol.SeqBoard|f.Seq&protocol.SeqMask, resp)
			if err != nil {
				continue
			}
			uartWrite(frame)
		}
	}
}
