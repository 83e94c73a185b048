// Package core implements the PWM channel and clock configuration logic for
// the SAM3X8E PWM macrocell: auxiliary clock derivation, per-channel
// frequency solving, safe channel reconfiguration and peripheral lifecycle.
// All hardware access goes through the Registers seam so the same logic runs
// against the memory-mapped peripheral and against an in-memory bank.
package core

// DefaultSystemClockHz is the SAM3X8E master clock the prescalers divide.
const DefaultSystemClockHz = 84_000_000

// PeripheralIDPWM is the PWM macrocell's identifier in the power management
// controller's peripheral clock registers.
const PeripheralIDPWM = 36

// ClockGate is the external collaborator that gates the bus clock feeding
// the peripheral. Registers are only accessible while the clock is enabled,
// but their contents survive a disable/enable cycle.
type ClockGate interface {
	EnablePeripheralClock(id uint8) error
	DisablePeripheralClock(id uint8) error
	PeripheralClockEnabled(id uint8) bool
}

// ClockSetting holds the prescaler and divisor of one auxiliary clock.
// Divisor 0 means the clock is off and supersedes the prescaler.
type ClockSetting struct {
	Prescaler uint8
	Divisor   uint8
}

// Peripheral owns the aggregate state of all eight channels and both
// auxiliary clocks. Every other component operates on it by reference;
// nothing here is a package-level singleton, so tests can run independent
// simulated instances side by side.
//
// All methods are synchronous read-modify-write sequences with no internal
// locking. Callers running from multiple execution contexts (tasks,
// interrupt handlers) are responsible for mutual exclusion.
type Peripheral struct {
	regs Registers
	gate ClockGate

	periphID   uint8
	sysClockHz uint32

	// freqDerived marks channels whose period came from a frequency
	// derivation, so a later alignment change can be flagged (it silently
	// halves or doubles the output frequency; see SetChannelAlignment).
	freqDerived [NumChannels]bool
}

// NewPeripheral wires the controller to a register bank and a clock gate.
// The system clock defaults to the 84 MHz SAM3X8E master clock.
func NewPeripheral(regs Registers, gate ClockGate) *Peripheral {
	return &Peripheral{
		regs:       regs,
		gate:       gate,
		periphID:   PeripheralIDPWM,
		sysClockHz: DefaultSystemClockHz,
	}
}

// SetSystemClock overrides the assumed system clock frequency. Only useful
// when the master clock is configured differently or in simulation.
func (p *Peripheral) SetSystemClock(hz uint32) {
	if hz != 0 {
		p.sysClockHz = hz
	}
}

// SystemClock returns the system clock frequency the derivations assume.
func (p *Peripheral) SystemClock() uint32 {
	return p.sysClockHz
}

// InitDefault powers the peripheral through the clock gate and issues a
// full reset: every channel disabled, both auxiliary clocks off. No channel
// or auxiliary clock is configured.
func (p *Peripheral) InitDefault() error {
	if err := p.gate.EnablePeripheralClock(p.periphID); err != nil {
		return err
	}
	p.Reset()
	return nil
}

// InitWithClocks initializes the peripheral and then programs both
// auxiliary clocks. A setting with divisor 0 leaves that clock off.
func (p *Peripheral) InitWithClocks(clkA, clkB ClockSetting) error {
	if err := p.InitDefault(); err != nil {
		return err
	}
	if clkA.Divisor != 0 {
		if err := p.SetAuxClock(ClockA, clkA.Prescaler, clkA.Divisor); err != nil {
			return err
		}
	}
	if clkB.Divisor != 0 {
		if err := p.SetAuxClock(ClockB, clkB.Prescaler, clkB.Divisor); err != nil {
			return err
		}
	}
	return nil
}

// Reset disables all channels and clears every channel register and both
// auxiliary clocks. The bus clock gate is not touched.
func (p *Peripheral) Reset() {
	p.regs.DisableChannels(AllChannelsMask)
	p.regs.SetClockConfig(0)
	for ch := uint8(0); ch < NumChannels; ch++ {
		p.regs.SetChannelMode(ch, 0)
		p.regs.SetChannelDuty(ch, 0)
		p.regs.SetChannelPeriod(ch, 0)
		p.freqDerived[ch] = false
	}
}

// Shutdown resets the peripheral and gates off its bus clock.
func (p *Peripheral) Shutdown() error {
	p.Reset()
	return p.gate.DisablePeripheralClock(p.periphID)
}

// PowerOff gates off the bus clock without resetting anything. Register
// contents are retained by the hardware, so re-enabling the gate resumes
// operation with the prior configuration intact.
func (p *Peripheral) PowerOff() error {
	return p.gate.DisablePeripheralClock(p.periphID)
}

// Powered reports whether the peripheral's bus clock is currently enabled.
func (p *Peripheral) Powered() bool {
	return p.gate.PeripheralClockEnabled(p.periphID)
}
