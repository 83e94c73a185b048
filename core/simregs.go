package core

// SimRegisters is an in-memory register bank with the same semantics as
// the hardware: set/clear enable writes, a separate status read, and
// plain storage for everything else. It backs tests and pwmctl's
// simulation mode.
type SimRegisters struct {
	clock   uint32
	status  uint8
	mode    [NumChannels]uint32
	duty    [NumChannels]uint32
	period  [NumChannels]uint32
	counter [NumChannels]uint32
}

// NewSimRegisters returns a zeroed register bank.
func NewSimRegisters() *SimRegisters {
	return &SimRegisters{}
}

func (r *SimRegisters) ClockConfig() uint32     { return r.clock }
func (r *SimRegisters) SetClockConfig(v uint32) { r.clock = v }

func (r *SimRegisters) EnableChannels(mask uint8)  { r.status |= mask }
func (r *SimRegisters) DisableChannels(mask uint8) { r.status &^= mask }
func (r *SimRegisters) ChannelStatus() uint8       { return r.status }

func (r *SimRegisters) ChannelMode(ch uint8) uint32       { return r.mode[ch] }
func (r *SimRegisters) SetChannelMode(ch uint8, v uint32) { r.mode[ch] = v }

func (r *SimRegisters) ChannelDuty(ch uint8) uint32       { return r.duty[ch] }
func (r *SimRegisters) SetChannelDuty(ch uint8, v uint32) { r.duty[ch] = v }

func (r *SimRegisters) ChannelPeriod(ch uint8) uint32       { return r.period[ch] }
func (r *SimRegisters) SetChannelPeriod(ch uint8, v uint32) { r.period[ch] = v }

func (r *SimRegisters) ChannelCounter(ch uint8) uint32 { return r.counter[ch] }

// SetChannelCounter seeds the read-only counter register for tests.
func (r *SimRegisters) SetChannelCounter(ch uint8, v uint32) { r.counter[ch] = v }
