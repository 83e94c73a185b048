//go:build sam3x8e

package main

import (
	"runtime/volatile"
	"unsafe"

	"duepwm/core"
)

// UART at 0x400E0800, wired to the Due's programming port through PA8/PA9
// on peripheral A.
type uartRegs struct {
	cr   volatile.Register32 // 0x00 control, write-only
	mr   volatile.Register32 // 0x04 mode
	ier  volatile.Register32 // 0x08
	idr  volatile.Register32 // 0x0C
	imr  volatile.Register32 // 0x10
	sr   volatile.Register32 // 0x14 status, read-only
	rhr  volatile.Register32 // 0x18 receive, read-only
	thr  volatile.Register32 // 0x1C transmit, write-only
	brgr volatile.Register32 // 0x20 baud rate generator
}

// Parallel I/O controller A at 0x400E0E00. Only the pin assignment
// registers matter here.
type pioRegs struct {
	per volatile.Register32 // 0x00 PIO enable
	pdr volatile.Register32 // 0x04 PIO disable (hand pin to peripheral)
	psr volatile.Register32 // 0x08
	_   volatile.Register32
	oer volatile.Register32 // 0x10
	odr volatile.Register32 // 0x14
	osr volatile.Register32 // 0x18
	_   [21]volatile.Register32
	absr volatile.Register32 // 0x70 peripheral A/B select
}

var (
	uartHW = (*uartRegs)(unsafe.Pointer(uintptr(0x400E0800)))
	pioaHW = (*pioRegs)(unsafe.Pointer(uintptr(0x400E0E00)))
)

const (
	periphIDUART = 8
	periphIDPIOA = 11

	uartPins = 1<<8 | 1<<9 // PA8 RXD, PA9 TXD

	uartCRRstRx  = 1 << 2
	uartCRRstTx  = 1 << 3
	uartCRRxEn   = 1 << 4
	uartCRRxDis  = 1 << 5
	uartCRTxEn   = 1 << 6
	uartCRTxDis  = 1 << 7
	uartCRRstSta = 1 << 8

	uartMRParNone = 0x4 << 9

	uartSRRxRdy = 1 << 0
	uartSRTxRdy = 1 << 1
)

// uartInit brings up the programming-port UART at the given baud rate.
func uartInit(baud uint32) {
	gate := pmcGate{}
	gate.EnablePeripheralClock(periphIDPIOA)
	gate.EnablePeripheralClock(periphIDUART)

	pioaHW.pdr.Set(uartPins)
	pioaHW.absr.ClearBits(uartPins)

	uartHW.cr.Set(uartCRRstRx | uartCRRstTx | uartCRRxDis | uartCRTxDis | uartCRRstSta)
	uartHW.mr.Set(uartMRParNone)
	uartHW.brgr.Set(core.DefaultSystemClockHz / (16 * baud))
	uartHW.cr.Set(uartCRRxEn | uartCRTxEn)
}

// uartReadByte returns the next received byte without blocking.
func uartReadByte() (byte, bool) {
	if uartHW.sr.Get()&uartSRRxRdy == 0 {
		return 0, false
	}
	return byte(uartHW.rhr.Get()), true
}

// uartWrite sends bytes, blocking on the transmitter.
func uartWrite(p []byte) {
	for _, b := range p {
		for uartHW.sr.Get()&uartSRTxRdy == 0 {
		}
		uartHW.thr.Set(uint32(b))
	}
}
