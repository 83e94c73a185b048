package config

import (
	"errors"
	"strings"
	"testing"

	"duepwm/core"
)

type nopGate struct{ enabled bool }

func (g *nopGate) EnablePeripheralClock(id uint8) error  { g.enabled = true; return nil }
func (g *nopGate) DisablePeripheralClock(id uint8) error { g.enabled = false; return nil }
func (g *nopGate) PeripheralClockEnabled(id uint8) bool  { return g.enabled }

const samplePlan = `{
	"clock_a": {"frequency_hz": 100000},
	"channels": [
		{"channel": 0, "frequency_hz": 1000, "duty_cycle": 21000, "polarity": "high"},
		{"channel": 3, "clock": "a", "period": 100, "duty_cycle": 50, "alignment": "center"},
		{"channel": 5, "frequency_hz": 50, "duty_cycle": 0, "enabled": false}
	]
}`

func TestLoadDefaults(t *testing.T) {
	plan, err := Load([]byte(samplePlan))
	if err != nil {
		t.Fatal(err)
	}
	if plan.SystemClockHz != core.DefaultSystemClockHz {
		t.Errorf("system clock %d", plan.SystemClockHz)
	}
	ch := plan.Channels[0]
	if ch.Polarity != "high" || ch.Alignment != "left" || ch.Clock != "direct" {
		t.Errorf("channel 0 defaults: %+v", ch)
	}
	if ch.Enabled == nil || !*ch.Enabled {
		t.Error("channel 0 should default to enabled")
	}
	if plan.Channels[2].Enabled == nil || *plan.Channels[2].Enabled {
		t.Error("channel 5 should stay disabled")
	}
}

func TestLoadRejectsBadPlans(t *testing.T) {
	cases := []struct {
		name string
		json string
		want string
	}{
		{
			"channel out of range",
			`{"channels": [{"channel": 8, "frequency_hz": 1000}]}`,
			"out of range",
		},
		{
			"duplicate channel",
			`{"channels": [{"channel": 1, "frequency_hz": 1000}, {"channel": 1, "frequency_hz": 2000}]}`,
			"configured twice",
		},
		{
			"missing frequency",
			`{"channels": [{"channel": 0}]}`,
			"frequency_hz required",
		},
		{
			"bad polarity",
			`{"channels": [{"channel": 0, "frequency_hz": 1000, "polarity": "up"}]}`,
			"polarity",
		},
		{
			"aux channel without clock",
			`{"channels": [{"channel": 0, "clock": "b", "period": 100}]}`,
			"never configured",
		},
		{
			"aux channel without period",
			`{"clock_a": {"divisor": 42}, "channels": [{"channel": 0, "clock": "a"}]}`,
			"period",
		},
		{
			"overconstrained clock",
			`{"clock_a": {"frequency_hz": 1000, "divisor": 3}, "channels": []}`,
			"mutually exclusive",
		},
		{
			"empty clock",
			`{"clock_b": {}, "channels": []}`,
			"needs frequency_hz",
		},
	}
	for _, c := range cases {
		_, err := Load([]byte(c.json))
		if err == nil {
			t.Errorf("%s: accepted", c.name)
			continue
		}
		if !strings.Contains(err.Error(), c.want) {
			t.Errorf("%s: error %q does not mention %q", c.name, err, c.want)
		}
	}
}

func TestCoreConfig(t *testing.T) {
	plan, err := Load([]byte(samplePlan))
	if err != nil {
		t.Fatal(err)
	}

	cfg := plan.Channels[0].CoreConfig()
	if cfg.Polarity != core.PolarityHigh || cfg.Alignment != core.AlignLeft {
		t.Errorf("channel 0: %+v", cfg)
	}
	if cfg.UseAuxClock || cfg.FrequencyHz != 1000 || cfg.DutyCycle != 21000 {
		t.Errorf("channel 0: %+v", cfg)
	}

	cfg = plan.Channels[1].CoreConfig()
	if !cfg.UseAuxClock || cfg.AuxClock != core.ClockA {
		t.Errorf("channel 3 clock: %+v", cfg)
	}
	if cfg.Alignment != core.AlignCenter || cfg.Period != 100 || cfg.DutyCycle != 50 {
		t.Errorf("channel 3: %+v", cfg)
	}
}

func TestApply(t *testing.T) {
	plan, err := Load([]byte(samplePlan))
	if err != nil {
		t.Fatal(err)
	}

	pwm := core.NewPeripheral(core.NewSimRegisters(), &nopGate{})
	if err := pwm.InitDefault(); err != nil {
		t.Fatal(err)
	}
	if err := plan.Apply(pwm); err != nil {
		t.Fatal(err)
	}

	if hz, _ := pwm.AuxClockFrequency(core.ClockA); hz != 100000 {
		t.Errorf("clock A = %d Hz", hz)
	}
	if !pwm.ChannelEnabled(0) || !pwm.ChannelEnabled(3) {
		t.Error("configured channels not enabled")
	}
	if pwm.ChannelEnabled(5) {
		t.Error("channel 5 enabled despite enabled:false")
	}
	if period, _ := pwm.ChannelPeriod(5); period == 0 {
		t.Error("channel 5 left unconfigured")
	}
	if duty, _ := pwm.ReadDutyCycle(0); duty != 21000 {
		t.Errorf("channel 0 duty %d", duty)
	}
	if period, _ := pwm.ChannelPeriod(3); period != 100 {
		t.Errorf("channel 3 period %d", period)
	}
}

func TestApplyReportsFirmwareErrors(t *testing.T) {
	plan, err := Load([]byte(`{"channels": [{"channel": 0, "frequency_hz": 1000, "duty_cycle": 60000}]}`))
	if err != nil {
		t.Fatal(err)
	}

	pwm := core.NewPeripheral(core.NewSimRegisters(), &nopGate{})
	if err := pwm.InitDefault(); err != nil {
		t.Fatal(err)
	}
	err = plan.Apply(pwm)
	if !errors.Is(err, core.ErrDutyCycleExceedsPeriod) {
		t.Errorf("err = %v", err)
	}
}
