package core

// Polarity selects the output level during the duty-cycle portion of the
// waveform.
type Polarity uint8

const (
	PolarityLow Polarity = iota
	PolarityHigh
)

// Alignment selects whether the waveform counter counts up only (left) or
// up and down (center) within a period.
type Alignment uint8

const (
	AlignLeft Alignment = iota
	AlignCenter
)

// ChannelConfig holds the settings applied by ConfigureChannel.
//
// With UseAuxClock unset, FrequencyHz is the desired channel output
// frequency and the period is derived for maximum duty resolution.
//
// With UseAuxClock set, the channel binds to AuxClock and FrequencyHz is
// the desired counter clock rate (the auxiliary clock itself, not the
// channel output); the channel output is that clock divided by Period.
// A FrequencyHz of 0 binds to the clock as currently programmed.
type ChannelConfig struct {
	Polarity  Polarity
	Alignment Alignment

	UseAuxClock bool
	AuxClock    ClockID

	FrequencyHz uint32
	Period      uint32 // auxiliary path only, 1..65535
	DutyCycle   uint32
}

// ConfigureChannel applies a full channel configuration. The hardware
// ignores period and prescaler writes on a running channel, so the sequence
// is: remember the enabled state, disable, apply polarity and alignment,
// derive and write the clock selection and period, write the duty cycle,
// and re-enable only if the channel was enabled to begin with.
//
// Any failure after the disable leaves the channel disabled even when it
// was previously running: a misconfigured channel must not silently resume
// driving its output.
func (p *Peripheral) ConfigureChannel(ch uint8, cfg ChannelConfig) error {
	if ch >= NumChannels {
		return ErrInvalidChannel
	}
	if cfg.UseAuxClock && cfg.AuxClock != ClockA && cfg.AuxClock != ClockB {
		return ErrInvalidClock
	}

	wasEnabled := p.ChannelEnabled(ch)
	p.regs.DisableChannels(ChannelMask(ch))

	mode := p.regs.ChannelMode(ch)
	mode &^= cmrAlignCenter | cmrPolarityHigh
	if cfg.Alignment == AlignCenter {
		mode |= cmrAlignCenter
	}
	if cfg.Polarity == PolarityHigh {
		mode |= cmrPolarityHigh
	}
	p.regs.SetChannelMode(ch, mode)

	var sel uint8
	var period uint32
	if cfg.UseAuxClock {
		if cfg.Period < 1 || cfg.Period > MaxPeriod {
			return ErrNoConfiguration
		}
		if cfg.FrequencyHz != 0 {
			if err := p.SetAuxClockFrequency(cfg.AuxClock, cfg.FrequencyHz); err != nil {
				return err
			}
		}
		sel = auxPrescalerSelector(cfg.AuxClock)
		period = cfg.Period
	} else {
		var err error
		sel, period, err = p.DeriveChannelFrequency(cfg.FrequencyHz, cfg.Alignment)
		if err != nil {
			return err
		}
	}

	p.regs.SetChannelMode(ch, mode&^cmrPrescalerMask|uint32(sel))
	p.regs.SetChannelPeriod(ch, period)
	p.freqDerived[ch] = true

	if cfg.DutyCycle > period {
		return ErrDutyCycleExceedsPeriod
	}
	p.regs.SetChannelDuty(ch, cfg.DutyCycle)

	if wasEnabled {
		p.regs.EnableChannels(ChannelMask(ch))
	}
	return nil
}

// SetDutyCycle writes a new duty cycle immediately. Duty cycle is the one
// channel parameter that is safe to change while the channel is running, so
// there is no disable/enable cycling. Values above the stored period are
// rejected without modifying the register.
func (p *Peripheral) SetDutyCycle(ch uint8, duty uint32) error {
	if ch >= NumChannels {
		return ErrInvalidChannel
	}
	if duty > p.regs.ChannelPeriod(ch)&MaxPeriod {
		return ErrDutyCycleExceedsPeriod
	}
	p.regs.SetChannelDuty(ch, duty)
	return nil
}

// ReadDutyCycle returns the duty cycle previously written to the channel.
func (p *Peripheral) ReadDutyCycle(ch uint8) (uint32, error) {
	if ch >= NumChannels {
		return 0, ErrInvalidChannel
	}
	return p.regs.ChannelDuty(ch) & MaxPeriod, nil
}

// EnableChannels starts every channel selected by mask in one register
// write. Enabling an already running channel is a no-op.
func (p *Peripheral) EnableChannels(mask uint8) {
	p.regs.EnableChannels(mask)
}

// DisableChannels stops every channel selected by mask in one register write.
func (p *Peripheral) DisableChannels(mask uint8) {
	p.regs.DisableChannels(mask)
}

// ChannelEnabled reads the live hardware status bitmask, never a cached
// value; ConfigureChannel's re-enable sequencing depends on this being the
// true channel state.
func (p *Peripheral) ChannelEnabled(ch uint8) bool {
	return p.regs.ChannelStatus()&ChannelMask(ch) != 0
}

// ChannelStatus returns the live status bitmask for all eight channels.
func (p *Peripheral) ChannelStatus() uint8 {
	return p.regs.ChannelStatus()
}

// SetChannelPolarity changes a channel's polarity in isolation, cycling the
// channel off for the mode register write and restoring its prior state.
func (p *Peripheral) SetChannelPolarity(ch uint8, pol Polarity) error {
	return p.updateMode(ch, func(mode uint32) uint32 {
		if pol == PolarityHigh {
			return mode | cmrPolarityHigh
		}
		return mode &^ cmrPolarityHigh
	})
}

// SetChannelAlignment changes a channel's alignment in isolation.
//
// Alignment scales the effective output frequency: going left to center
// halves it, center to left doubles it. The driver deliberately does not
// re-derive the period, because existing firmware relies on the hardware
// timing of that quirk; it only emits a warning through the debug writer
// when the channel's frequency was previously derived. Re-run the frequency
// derivation to restore the original output rate.
func (p *Peripheral) SetChannelAlignment(ch uint8, align Alignment) error {
	if ch >= NumChannels {
		return ErrInvalidChannel
	}
	prev := p.regs.ChannelMode(ch)&cmrAlignCenter != 0
	next := align == AlignCenter
	if p.freqDerived[ch] && prev != next {
		if next {
			warn("channel " + utoa(uint32(ch)) + ": left->center alignment halves the derived output frequency")
		} else {
			warn("channel " + utoa(uint32(ch)) + ": center->left alignment doubles the derived output frequency")
		}
	}
	return p.updateMode(ch, func(mode uint32) uint32 {
		if next {
			return mode | cmrAlignCenter
		}
		return mode &^ cmrAlignCenter
	})
}

// SetChannelPrescaler selects a channel's clock source directly: one of the
// 11 fixed dividers, or Clock A/B via PrescalerClockA/PrescalerClockB.
func (p *Peripheral) SetChannelPrescaler(ch uint8, sel uint8) error {
	if sel > PrescalerClockB {
		return ErrNoConfiguration
	}
	return p.updateMode(ch, func(mode uint32) uint32 {
		return mode&^cmrPrescalerMask | uint32(sel)
	})
}

// SetChannelPeriod writes a channel period directly, cycling the channel
// off for the write. The duty cycle is clamped down to the new period so
// the duty <= period invariant holds.
func (p *Peripheral) SetChannelPeriod(ch uint8, period uint32) error {
	if ch >= NumChannels {
		return ErrInvalidChannel
	}
	if period > MaxPeriod {
		return ErrNoConfiguration
	}
	wasEnabled := p.ChannelEnabled(ch)
	p.regs.DisableChannels(ChannelMask(ch))
	p.regs.SetChannelPeriod(ch, period)
	if p.regs.ChannelDuty(ch)&MaxPeriod > period {
		p.regs.SetChannelDuty(ch, period)
	}
	if wasEnabled {
		p.regs.EnableChannels(ChannelMask(ch))
	}
	return nil
}

// SetChannelFrequency re-derives a channel's prescaler and period for a new
// direct target frequency, keeping the current alignment and polarity. The
// duty cycle is clamped down if the new period is smaller. On derivation
// failure the channel is left disabled (see ConfigureChannel).
func (p *Peripheral) SetChannelFrequency(ch uint8, targetHz uint32) error {
	if ch >= NumChannels {
		return ErrInvalidChannel
	}
	align, err := p.ChannelAlignment(ch)
	if err != nil {
		return err
	}
	wasEnabled := p.ChannelEnabled(ch)
	p.regs.DisableChannels(ChannelMask(ch))

	sel, period, err := p.DeriveChannelFrequency(targetHz, align)
	if err != nil {
		return err
	}
	p.regs.SetChannelMode(ch, p.regs.ChannelMode(ch)&^cmrPrescalerMask|uint32(sel))
	p.regs.SetChannelPeriod(ch, period)
	p.freqDerived[ch] = true
	if p.regs.ChannelDuty(ch)&MaxPeriod > period {
		p.regs.SetChannelDuty(ch, period)
	}

	if wasEnabled {
		p.regs.EnableChannels(ChannelMask(ch))
	}
	return nil
}

// ChannelPeriod returns a channel's period, which is also the largest duty
// cycle the channel accepts.
func (p *Peripheral) ChannelPeriod(ch uint8) (uint32, error) {
	if ch >= NumChannels {
		return 0, ErrInvalidChannel
	}
	return p.regs.ChannelPeriod(ch) & MaxPeriod, nil
}

// ChannelAlignment returns a channel's current alignment.
func (p *Peripheral) ChannelAlignment(ch uint8) (Alignment, error) {
	if ch >= NumChannels {
		return AlignLeft, ErrInvalidChannel
	}
	if p.regs.ChannelMode(ch)&cmrAlignCenter != 0 {
		return AlignCenter, nil
	}
	return AlignLeft, nil
}

// ChannelCounter reads the channel's free-running waveform counter.
func (p *Peripheral) ChannelCounter(ch uint8) (uint32, error) {
	if ch >= NumChannels {
		return 0, ErrInvalidChannel
	}
	return p.regs.ChannelCounter(ch), nil
}

// ChannelFrequency computes a channel's effective output frequency from its
// current register state: counter clock divided by period, halved again for
// center alignment. Returns 0 for a period of 0 or an auxiliary clock that
// is off.
func (p *Peripheral) ChannelFrequency(ch uint8) (uint32, error) {
	if ch >= NumChannels {
		return 0, ErrInvalidChannel
	}
	period := p.regs.ChannelPeriod(ch) & MaxPeriod
	if period == 0 {
		return 0, nil
	}

	var counterHz uint32
	sel := uint8(p.regs.ChannelMode(ch) & cmrPrescalerMask)
	switch sel {
	case PrescalerClockA:
		hz, err := p.AuxClockFrequency(ClockA)
		if err != nil {
			return 0, err
		}
		counterHz = hz
	case PrescalerClockB:
		hz, err := p.AuxClockFrequency(ClockB)
		if err != nil {
			return 0, err
		}
		counterHz = hz
	default:
		counterHz = p.sysClockHz / prescalerDivider(sel)
	}

	hz := counterHz / period
	if p.regs.ChannelMode(ch)&cmrAlignCenter != 0 {
		hz /= 2
	}
	return hz, nil
}

// updateMode rewrites a channel's mode register with the channel cycled
// off, restoring the prior enabled state afterwards.
func (p *Peripheral) updateMode(ch uint8, f func(uint32) uint32) error {
	if ch >= NumChannels {
		return ErrInvalidChannel
	}
	wasEnabled := p.ChannelEnabled(ch)
	p.regs.DisableChannels(ChannelMask(ch))
	p.regs.SetChannelMode(ch, f(p.regs.ChannelMode(ch)))
	if wasEnabled {
		p.regs.EnableChannels(ChannelMask(ch))
	}
	return nil
}

func auxPrescalerSelector(id ClockID) uint8 {
	if id == ClockB {
		return PrescalerClockB
	}
	return PrescalerClockA
}
