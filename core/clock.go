package core

// ClockID identifies one of the two shared auxiliary clocks.
type ClockID uint8

const (
	ClockA ClockID = iota
	ClockB
)

func (id ClockID) String() string {
	switch id {
	case ClockA:
		return "clkA"
	case ClockB:
		return "clkB"
	}
	return "clk?"
}

// SetAuxClock programs the prescaler and divisor of one auxiliary clock.
// The write replaces only the selected clock's sub-fields of the shared
// configuration word; the other clock's bits are preserved. A divisor of 0
// turns the clock off regardless of the prescaler.
//
// Reconfiguring a clock retroactively changes the effective frequency of
// every channel currently bound to it. That is the intended shared-resource
// semantics, not an isolation bug.
func (p *Peripheral) SetAuxClock(id ClockID, prescaler, divisor uint8) error {
	cfg := p.regs.ClockConfig()
	switch id {
	case ClockA:
		cfg &^= clkDivAMask | clkPreAMask
		cfg |= uint32(divisor) | uint32(prescaler&0x0F)<<clkPreAShift
	case ClockB:
		cfg &^= clkDivBMask | clkPreBMask
		cfg |= uint32(divisor)<<clkDivBShift | uint32(prescaler&0x0F)<<clkPreBShift
	default:
		return ErrInvalidClock
	}
	p.regs.SetClockConfig(cfg)
	return nil
}

// TurnOffAuxClock stops an auxiliary clock by zeroing both of its
// sub-fields. No frequency memory is kept; a later derive call is required
// to reuse the clock.
func (p *Peripheral) TurnOffAuxClock(id ClockID) error {
	return p.SetAuxClock(id, 0, 0)
}

// AuxClockSetting reads back one auxiliary clock's current configuration.
func (p *Peripheral) AuxClockSetting(id ClockID) (ClockSetting, error) {
	cfg := p.regs.ClockConfig()
	switch id {
	case ClockA:
		return ClockSetting{
			Prescaler: uint8((cfg & clkPreAMask) >> clkPreAShift),
			Divisor:   uint8(cfg & clkDivAMask),
		}, nil
	case ClockB:
		return ClockSetting{
			Prescaler: uint8((cfg & clkPreBMask) >> clkPreBShift),
			Divisor:   uint8((cfg & clkDivBMask) >> clkDivBShift),
		}, nil
	}
	return ClockSetting{}, ErrInvalidClock
}

// AuxClockFrequency returns the effective output frequency of an auxiliary
// clock in Hz, or 0 when the clock is off.
func (p *Peripheral) AuxClockFrequency(id ClockID) (uint32, error) {
	s, err := p.AuxClockSetting(id)
	if err != nil {
		return 0, err
	}
	if s.Divisor == 0 {
		return 0, nil
	}
	return p.sysClockHz / (prescalerDivider(s.Prescaler) * uint32(s.Divisor)), nil
}

// DeriveAuxClock searches the full prescaler/divisor space for the
// combination whose output frequency is closest to targetHz. All 11 fixed
// prescalers are evaluated in ascending order against every divisor in
// 1..255; ties keep the first candidate found. The search only fails for
// targets outside [sysclk/(1024*255), sysclk], in which case no register is
// touched by callers that apply the result.
func (p *Peripheral) DeriveAuxClock(targetHz uint32) (prescaler, divisor uint8, err error) {
	if targetHz == 0 || targetHz > p.sysClockHz ||
		targetHz < p.sysClockHz/(1024*MaxDivisor) {
		return 0, 0, ErrInvalidFrequency
	}

	// The candidate with divider d produces sysclk/d Hz, so its error is
	// |sysclk - target*d| / d. Cross-multiplying keeps the comparison in
	// integer arithmetic: worst case |sysclk - target*d| * d' is below
	// 84e6*1024*255 * 1024*255 < 2^63.
	var (
		found    bool
		bestNum  uint64 // |sysclk - target*d| of the best candidate
		bestDiv  uint64 // divider d of the best candidate
		bestPre  uint8
		bestDivN uint8
	)
	for pre := uint8(0); pre < numFixedPrescalers; pre++ {
		for div := uint32(1); div <= MaxDivisor; div++ {
			d := uint64(prescalerDivider(pre)) * uint64(div)
			num := absDiff(uint64(p.sysClockHz), uint64(targetHz)*d)
			if !found || num*bestDiv < bestNum*d {
				found = true
				bestNum, bestDiv = num, d
				bestPre, bestDivN = pre, uint8(div)
			}
		}
	}
	if !found {
		return 0, 0, ErrNoConfiguration
	}
	return bestPre, bestDivN, nil
}

// SetAuxClockFrequency derives the nearest achievable configuration for
// targetHz and applies it to the selected clock. On failure no register is
// modified. The resulting frequency is an approximation; channels that need
// an exact rate should use the direct prescaler path instead.
func (p *Peripheral) SetAuxClockFrequency(id ClockID, targetHz uint32) error {
	if id != ClockA && id != ClockB {
		return ErrInvalidClock
	}
	pre, div, err := p.DeriveAuxClock(targetHz)
	if err != nil {
		return err
	}
	return p.SetAuxClock(id, pre, div)
}

func absDiff(a, b uint64) uint64 {
	if a > b {
		return a - b
	}
	return b - a
}
