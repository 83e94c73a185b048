package core

// NumChannels is the number of PWM channels in the macrocell.
const NumChannels = 8

// Prescaler selectors for the channel mode register and the auxiliary
// clock fields. Values 0 through 10 select fixed power-of-two dividers of
// the system clock; 11 and 12 select the shared auxiliary clocks.
const (
	PrescalerDiv1 uint8 = iota
	PrescalerDiv2
	PrescalerDiv4
	PrescalerDiv8
	PrescalerDiv16
	PrescalerDiv32
	PrescalerDiv64
	PrescalerDiv128
	PrescalerDiv256
	PrescalerDiv512
	PrescalerDiv1024
	PrescalerClockA
	PrescalerClockB
)

const numFixedPrescalers = 11

// Clock configuration register layout: divisor and prescaler fields for
// both auxiliary clocks packed into one 32-bit word.
const (
	clkDivAMask  = 0x000000FF
	clkPreAMask  = 0x00000F00
	clkPreAShift = 8
	clkDivBMask  = 0x00FF0000
	clkDivBShift = 16
	clkPreBMask  = 0x0F000000
	clkPreBShift = 24
)

// Channel mode register layout.
const (
	cmrPrescalerMask = 0x0000000F
	cmrAlignCenter   = 1 << 8
	cmrPolarityHigh  = 1 << 9
)

// MaxPeriod is the largest value the 16-bit period and duty counters hold.
const MaxPeriod = 0xFFFF

// MaxDivisor is the largest auxiliary clock linear divisor.
const MaxDivisor = 255

// ChannelMask returns the enable/disable/status bit for one channel.
func ChannelMask(ch uint8) uint8 {
	return 1 << ch
}

// AllChannelsMask covers every channel.
const AllChannelsMask = 0xFF

// Registers is the seam between the configuration logic and the hardware.
// The firmware target implements it over the memory-mapped peripheral;
// SimRegisters implements it over plain memory for hosts and tests.
//
// Enable and disable are separate write-only operations and status is a
// separate read, mirroring the hardware's ENA/DIS/SR split: there is no
// way to atomically read-modify-write the enable state.
type Registers interface {
	ClockConfig() uint32
	SetClockConfig(v uint32)

	EnableChannels(mask uint8)
	DisableChannels(mask uint8)
	ChannelStatus() uint8

	ChannelMode(ch uint8) uint32
	SetChannelMode(ch uint8, v uint32)
	ChannelDuty(ch uint8) uint32
	SetChannelDuty(ch uint8, v uint32)
	ChannelPeriod(ch uint8) uint32
	SetChannelPeriod(ch uint8, v uint32)
	ChannelCounter(ch uint8) uint32
}

// prescalerDivider maps a fixed prescaler selector to its divider value.
func prescalerDivider(sel uint8) uint32 {
	return 1 << sel
}
