//go:build sam3x8e

package main

import (
	"runtime/volatile"
	"unsafe"
)

// Power management controller at 0x400E0600. Peripheral clock enable,
// disable and status are split across two banks of 32 IDs each.
type pmcRegs struct {
	scer  volatile.Register32 // 0x000
	scdr  volatile.Register32 // 0x004
	scsr  volatile.Register32 // 0x008
	_     volatile.Register32
	pcer0 volatile.Register32 // 0x010 enable IDs 0-31, write-only
	pcdr0 volatile.Register32 // 0x014 disable IDs 0-31, write-only
	pcsr0 volatile.Register32 // 0x018 status IDs 0-31, read-only
	_     [57]volatile.Register32
	pcer1 volatile.Register32 // 0x100 enable IDs 32-44, write-only
	pcdr1 volatile.Register32 // 0x104 disable IDs 32-44
	pcsr1 volatile.Register32 // 0x108 status IDs 32-44
}

var pmcHW = (*pmcRegs)(unsafe.Pointer(uintptr(0x400E0600)))

// pmcGate implements the core clock gate over the PMC.
type pmcGate struct{}

func (pmcGate) EnablePeripheralClock(id uint8) error {
	if id >= 32 {
		pmcHW.pcer1.Set(1 << (id - 32))
	} else {
		pmcHW.pcer0.Set(1 << id)
	}
	return nil
}

func (pmcGate) DisablePeripheralClock(id uint8) error {
	if id >= 32 {
		pmcHW.pcdr1.Set(1 << (id - 32))
	} else {
		pmcHW.pcdr0.Set(1 << id)
	}
	return nil
}

func (pmcGate) PeripheralClockEnabled(id uint8) bool {
	if id >= 32 {
		return pmcHW.pcsr1.Get()&(1<<(id-32)) != 0
	}
	return pmcHW.pcsr0.Get()&(1<<id) != 0
}
