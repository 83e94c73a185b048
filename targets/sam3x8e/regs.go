//go:build sam3x8e

package main

import (
	"runtime/volatile"
	"unsafe"

	"duepwm/core"
)

// PWM macrocell register bank at 0x40094000. Channel register groups start
// at offset 0x200, one 0x20 stride per channel.
type pwmChannelRegs struct {
	cmr     volatile.Register32 // 0x00 mode
	cdty    volatile.Register32 // 0x04 duty
	cdtyupd volatile.Register32 // 0x08 duty update (takes effect at period boundary)
	cprd    volatile.Register32 // 0x0C period
	cprdupd volatile.Register32 // 0x10 period update
	ccnt    volatile.Register32 // 0x14 counter, read-only
	_       [2]volatile.Register32
}

type pwmRegs struct {
	clk volatile.Register32 // 0x00 clock configuration
	ena volatile.Register32 // 0x04 enable, write-only
	dis volatile.Register32 // 0x08 disable, write-only
	sr  volatile.Register32 // 0x0C status, read-only
	_   [124]volatile.Register32
	ch  [core.NumChannels]pwmChannelRegs // 0x200
}

var pwmHW = (*pwmRegs)(unsafe.Pointer(uintptr(0x40094000)))

// hwRegisters adapts the memory-mapped bank to the core register seam.
// Duty and period writes go through the update registers when the channel
// is running, so they take effect cleanly at the next period boundary; a
// stopped channel takes direct writes, which is the only way to program it
// at all since the update registers require a running counter.
type hwRegisters struct{}

func (hwRegisters) ClockConfig() uint32     { return pwmHW.clk.Get() }
func (hwRegisters) SetClockConfig(v uint32) { pwmHW.clk.Set(v) }

func (hwRegisters) EnableChannels(mask uint8)  { pwmHW.ena.Set(uint32(mask)) }
func (hwRegisters) DisableChannels(mask uint8) { pwmHW.dis.Set(uint32(mask)) }
func (hwRegisters) ChannelStatus() uint8       { return uint8(pwmHW.sr.Get()) }

func (hwRegisters) ChannelMode(ch uint8) uint32       { return pwmHW.ch[ch].cmr.Get() }
func (hwRegisters) SetChannelMode(ch uint8, v uint32) { pwmHW.ch[ch].cmr.Set(v) }

func (hwRegisters) ChannelDuty(ch uint8) uint32 { return pwmHW.ch[ch].cdty.Get() }

func (r hwRegisters) SetChannelDuty(ch uint8, v uint32) {
	if r.ChannelStatus()&core.ChannelMask(ch) != 0 {
		pwmHW.ch[ch].cdtyupd.Set(v)
	} else {
		pwmHW.ch[ch].cdty.Set(v)
	}
}

func (hwRegisters) ChannelPeriod(ch uint8) uint32 { return pwmHW.ch[ch].cprd.Get() }

func (r hwRegisters) SetChannelPeriod(ch uint8, v uint32) {
	if r.ChannelStatus()&core.ChannelMask(ch) != 0 {
		pwmHW.ch[ch].cprdupd.Set(v)
	} else {
		pwmHW.ch[ch].cprd.Set(v)
	}
}

func (hwRegisters) ChannelCounter(ch uint8) uint32 { return pwmHW.ch[ch].ccnt.Get() }
