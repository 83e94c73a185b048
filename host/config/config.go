// Package config loads JSON channel plans for pwmctl: the clock setup and
// per-channel settings a board should be programmed with.
package config

import (
	"encoding/json"
	"fmt"

	"duepwm/core"
	"duepwm/protocol"
)

// ClockSpec configures one auxiliary clock. Either FrequencyHz alone (the
// setting is derived) or Prescaler and Divisor explicitly.
type ClockSpec struct {
	FrequencyHz uint32 `json:"frequency_hz,omitempty"`
	Prescaler   uint8  `json:"prescaler,omitempty"`
	Divisor     uint8  `json:"divisor,omitempty"`
}

// ChannelSpec configures one PWM channel.
type ChannelSpec struct {
	Channel     uint8  `json:"channel"`
	Polarity    string `json:"polarity,omitempty"`  // "high" or "low"
	Alignment   string `json:"alignment,omitempty"` // "left" or "center"
	Clock       string `json:"clock,omitempty"`     // "direct", "a" or "b"
	FrequencyHz uint32 `json:"frequency_hz,omitempty"`
	Period      uint32 `json:"period,omitempty"`
	DutyCycle   uint32 `json:"duty_cycle"`
	Enabled     *bool  `json:"enabled,omitempty"`
}

// Plan is a full board setup.
type Plan struct {
	SystemClockHz uint32        `json:"system_clock_hz,omitempty"`
	ClockA        *ClockSpec    `json:"clock_a,omitempty"`
	ClockB        *ClockSpec    `json:"clock_b,omitempty"`
	Channels      []ChannelSpec `json:"channels"`
}

// Load parses a JSON plan, fills defaults and validates it.
func Load(jsonData []byte) (*Plan, error) {
	var plan Plan
	if err := json.Unmarshal(jsonData, &plan); err != nil {
		return nil, err
	}
	applyDefaults(&plan)
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	return &plan, nil
}

func applyDefaults(plan *Plan) {
	if plan.SystemClockHz == 0 {
		plan.SystemClockHz = core.DefaultSystemClockHz
	}
	for i := range plan.Channels {
		ch := &plan.Channels[i]
		if ch.Polarity == "" {
			ch.Polarity = "low"
		}
		if ch.Alignment == "" {
			ch.Alignment = "left"
		}
		if ch.Clock == "" {
			ch.Clock = "direct"
		}
		if ch.Enabled == nil {
			enabled := true
			ch.Enabled = &enabled
		}
	}
}

// Validate rejects plans the firmware would refuse, so mistakes surface
// before any register is touched.
func (p *Plan) Validate() error {
	seen := make(map[uint8]bool)
	for i, ch := range p.Channels {
		if ch.Channel >= core.NumChannels {
			return fmt.Errorf("channels[%d]: channel %d out of range", i, ch.Channel)
		}
		if seen[ch.Channel] {
			return fmt.Errorf("channels[%d]: channel %d configured twice", i, ch.Channel)
		}
		seen[ch.Channel] = true

		switch ch.Polarity {
		case "low", "high":
		default:
			return fmt.Errorf("channels[%d]: polarity %q (want low or high)", i, ch.Polarity)
		}
		switch ch.Alignment {
		case "left", "center":
		default:
			return fmt.Errorf("channels[%d]: alignment %q (want left or center)", i, ch.Alignment)
		}

		switch ch.Clock {
		case "direct":
			if ch.FrequencyHz == 0 {
				return fmt.Errorf("channels[%d]: frequency_hz required", i)
			}
		case "a", "b":
			if ch.Period == 0 || ch.Period > core.MaxPeriod {
				return fmt.Errorf("channels[%d]: period %d out of range on clock %s", i, ch.Period, ch.Clock)
			}
			if ch.Clock == "a" && p.ClockA == nil && ch.FrequencyHz == 0 {
				return fmt.Errorf("channels[%d]: clock a is never configured", i)
			}
			if ch.Clock == "b" && p.ClockB == nil && ch.FrequencyHz == 0 {
				return fmt.Errorf("channels[%d]: clock b is never configured", i)
			}
		default:
			return fmt.Errorf("channels[%d]: clock %q (want direct, a or b)", i, ch.Clock)
		}
	}

	for _, c := range []struct {
		name string
		spec *ClockSpec
	}{{"clock_a", p.ClockA}, {"clock_b", p.ClockB}} {
		if c.spec == nil {
			continue
		}
		if c.spec.FrequencyHz != 0 && c.spec.Divisor != 0 {
			return fmt.Errorf("%s: frequency_hz and prescaler/divisor are mutually exclusive", c.name)
		}
		if c.spec.FrequencyHz == 0 && c.spec.Divisor == 0 {
			return fmt.Errorf("%s: needs frequency_hz or prescaler/divisor", c.name)
		}
		if c.spec.Prescaler > uint8(core.PrescalerDiv1024) {
			return fmt.Errorf("%s: prescaler %d out of range", c.name, c.spec.Prescaler)
		}
	}
	return nil
}

// CoreConfig translates one channel spec into the firmware configuration.
func (ch *ChannelSpec) CoreConfig() core.ChannelConfig {
	cfg := core.ChannelConfig{
		FrequencyHz: ch.FrequencyHz,
		Period:      ch.Period,
		DutyCycle:   ch.DutyCycle,
	}
	if ch.Polarity == "high" {
		cfg.Polarity = core.PolarityHigh
	}
	if ch.Alignment == "center" {
		cfg.Alignment = core.AlignCenter
	}
	switch ch.Clock {
	case "a":
		cfg.UseAuxClock = true
		cfg.AuxClock = core.ClockA
	case "b":
		cfg.UseAuxClock = true
		cfg.AuxClock = core.ClockB
	}
	return cfg
}

// Apply programs a peripheral with the plan. Works against the real board
// through the protocol client's peripheral mirror or against a simulated
// one directly.
func (p *Plan) Apply(pwm *core.Peripheral) error {
	pwm.SetSystemClock(p.SystemClockHz)
	for _, c := range []struct {
		id   core.ClockID
		spec *ClockSpec
	}{{core.ClockA, p.ClockA}, {core.ClockB, p.ClockB}} {
		if c.spec == nil {
			continue
		}
		var err error
		if c.spec.FrequencyHz != 0 {
			err = pwm.SetAuxClockFrequency(c.id, c.spec.FrequencyHz)
		} else {
			err = pwm.SetAuxClock(c.id, c.spec.Prescaler, c.spec.Divisor)
		}
		if err != nil {
			return fmt.Errorf("clock %s: %w", c.id, err)
		}
	}

	for _, ch := range p.Channels {
		if err := pwm.ConfigureChannel(ch.Channel, ch.CoreConfig()); err != nil {
			return fmt.Errorf("channel %d: %w", ch.Channel, err)
		}
		if ch.Enabled == nil || *ch.Enabled {
			pwm.EnableChannels(core.ChannelMask(ch.Channel))
		} else {
			pwm.DisableChannels(core.ChannelMask(ch.Channel))
		}
	}
	return nil
}

// ApplyRemote programs a board over the protocol link. The board's system
// clock is fixed by its crystal, so SystemClockHz only affects local
// validation.
func (p *Plan) ApplyRemote(c *protocol.Client) error {
	for _, clk := range []struct {
		id   core.ClockID
		spec *ClockSpec
	}{{core.ClockA, p.ClockA}, {core.ClockB, p.ClockB}} {
		if clk.spec == nil {
			continue
		}
		var err error
		if clk.spec.FrequencyHz != 0 {
			_, err = c.SetAuxClockFrequency(clk.id, clk.spec.FrequencyHz)
		} else {
			err = c.SetAuxClock(clk.id, clk.spec.Prescaler, clk.spec.Divisor)
		}
		if err != nil {
			return fmt.Errorf("clock %s: %w", clk.id, err)
		}
	}

	var enable, disable uint8
	for _, ch := range p.Channels {
		if _, err := c.ConfigureChannel(ch.Channel, ch.CoreConfig()); err != nil {
			return fmt.Errorf("channel %d: %w", ch.Channel, err)
		}
		if ch.Enabled == nil || *ch.Enabled {
			enable |= core.ChannelMask(ch.Channel)
		} else {
			disable |= core.ChannelMask(ch.Channel)
		}
	}
	if enable != 0 {
		if err := c.EnableChannels(enable); err != nil {
			return err
		}
	}
	if disable != 0 {
		if err := c.DisableChannels(disable); err != nil {
			return err
		}
	}
	return nil
}
