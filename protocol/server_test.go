package protocol

import (
	"errors"
	"io"
	"testing"

	"duepwm/core"
)

type stubGate struct{ enabled bool }

func (g *stubGate) EnablePeripheralClock(id uint8) error  { g.enabled = true; return nil }
func (g *stubGate) DisablePeripheralClock(id uint8) error { g.enabled = false; return nil }
func (g *stubGate) PeripheralClockEnabled(id uint8) bool  { return g.enabled }

func newTestServer(t *testing.T) (*Server, *core.Peripheral, *core.SimRegisters) {
	t.Helper()
	regs := core.NewSimRegisters()
	pwm := core.NewPeripheral(regs, &stubGate{})
	if err := pwm.InitDefault(); err != nil {
		t.Fatal(err)
	}
	return NewServer(pwm), pwm, regs
}

// call runs one request through the server and decodes the response.
func call(t *testing.T, s *Server, request []byte) (status uint32, values []uint32) {
	t.Helper()
	resp := s.Handle(request)

	wantCmd := request
	cmd, err := ReadUint(&wantCmd)
	if err != nil {
		t.Fatal(err)
	}
	gotCmd, err := ReadUint(&resp)
	if err != nil {
		t.Fatal(err)
	}
	if gotCmd != cmd {
		t.Fatalf("response command %d, want %d", gotCmd, cmd)
	}
	status, err = ReadUint(&resp)
	if err != nil {
		t.Fatal(err)
	}
	for len(resp) > 0 {
		v, err := ReadUint(&resp)
		if err != nil {
			t.Fatal(err)
		}
		values = append(values, v)
	}
	return status, values
}

func TestServerPing(t *testing.T) {
	s, _, _ := newTestServer(t)
	status, values := call(t, s, AppendUint(nil, CmdPing))
	if status != StatusOK || len(values) != 0 {
		t.Errorf("ping: status %d values %v", status, values)
	}
}

func TestServerConfigChannel(t *testing.T) {
	s, pwm, _ := newTestServer(t)

	cfg := core.ChannelConfig{FrequencyHz: 1000, DutyCycle: 21}
	status, values := call(t, s, AppendConfigChannel(nil, 2, cfg))
	if status != StatusOK {
		t.Fatalf("status %d", status)
	}
	if len(values) != 1 || values[0] != 84000/2 {
		// 84 MHz / 1 kHz needs prescaler /2 with a 42000 count period.
		t.Errorf("derived period %v, want 42000", values)
	}
	if pwm.ChannelEnabled(2) {
		t.Error("channel 2 enabled without an enable command")
	}
	if status, _ := call(t, s, AppendUint(AppendUint(nil, CmdEnable), uint32(core.ChannelMask(2)))); status != StatusOK {
		t.Fatal("enable failed")
	}
	if !pwm.ChannelEnabled(2) {
		t.Error("channel 2 not enabled")
	}
	duty, err := pwm.ReadDutyCycle(2)
	if err != nil || duty != 21 {
		t.Errorf("duty = %d, %v", duty, err)
	}
}

func TestServerConfigChannelErrors(t *testing.T) {
	s, _, _ := newTestServer(t)

	cases := []struct {
		name string
		ch   uint8
		cfg  core.ChannelConfig
		want uint32
	}{
		{"bad channel", 8, core.ChannelConfig{FrequencyHz: 1000}, StatusInvalidChannel},
		{"zero frequency", 0, core.ChannelConfig{}, StatusInvalidFrequency},
		{"too slow", 0, core.ChannelConfig{FrequencyHz: 1}, StatusNoConfiguration},
		{"duty over period", 0, core.ChannelConfig{FrequencyHz: 1000, DutyCycle: 70000}, StatusDutyExceedsPeriod},
	}
	for _, c := range cases {
		status, _ := call(t, s, AppendConfigChannel(nil, c.ch, c.cfg))
		if status != c.want {
			t.Errorf("%s: status %d, want %d", c.name, status, c.want)
		}
	}
}

func TestServerDutyAndInfo(t *testing.T) {
	s, _, _ := newTestServer(t)

	if status, _ := call(t, s, AppendConfigChannel(nil, 1, core.ChannelConfig{FrequencyHz: 1000})); status != StatusOK {
		t.Fatalf("configure status %d", status)
	}

	if status, _ := call(t, s, AppendUint(AppendUint(nil, CmdEnable), uint32(core.ChannelMask(1)))); status != StatusOK {
		t.Fatal("enable failed")
	}

	req := AppendUint(nil, CmdSetDuty)
	req = AppendUint(req, 1)
	req = AppendUint(req, 1000)
	if status, _ := call(t, s, req); status != StatusOK {
		t.Fatalf("set duty status %d", status)
	}

	req = AppendUint(nil, CmdChannelInfo)
	req = AppendUint(req, 1)
	status, values := call(t, s, req)
	if status != StatusOK {
		t.Fatalf("info status %d", status)
	}
	if len(values) != 4 {
		t.Fatalf("info values %v", values)
	}
	if values[0] != 1 {
		t.Error("channel reported disabled")
	}
	if values[1] != 42000 {
		t.Errorf("period %d, want 42000", values[1])
	}
	if values[2] != 1000 {
		t.Errorf("duty %d, want 1000", values[2])
	}
	if values[3] != 1000 {
		t.Errorf("frequency %d, want 1000", values[3])
	}
}

func TestServerEnableDisableStatus(t *testing.T) {
	s, _, _ := newTestServer(t)

	if status, _ := call(t, s, AppendUint(AppendUint(nil, CmdEnable), 0x05)); status != StatusOK {
		t.Fatal("enable failed")
	}
	status, values := call(t, s, AppendUint(nil, CmdStatus))
	if status != StatusOK || len(values) != 1 || values[0] != 0x05 {
		t.Errorf("status after enable: %d %v", status, values)
	}

	if status, _ := call(t, s, AppendUint(AppendUint(nil, CmdDisable), 0x01)); status != StatusOK {
		t.Fatal("disable failed")
	}
	_, values = call(t, s, AppendUint(nil, CmdStatus))
	if len(values) != 1 || values[0] != 0x04 {
		t.Errorf("status after disable: %v", values)
	}
}

func TestServerClockCommands(t *testing.T) {
	s, pwm, _ := newTestServer(t)

	req := AppendUint(nil, CmdSetClockFreq)
	req = AppendUint(req, uint32(core.ClockA))
	req = AppendUint(req, 42_000_000)
	status, values := call(t, s, req)
	if status != StatusOK {
		t.Fatalf("set clock freq status %d", status)
	}
	if len(values) != 2 || values[0] != uint32(core.PrescalerDiv1) || values[1] != 2 {
		t.Errorf("derived setting %v, want [0 2]", values)
	}

	req = AppendUint(nil, CmdSetClock)
	req = AppendUint(req, uint32(core.ClockB))
	req = AppendUint(req, uint32(core.PrescalerDiv8))
	req = AppendUint(req, 100)
	if status, _ := call(t, s, req); status != StatusOK {
		t.Fatalf("set clock status %d", status)
	}
	hz, err := pwm.AuxClockFrequency(core.ClockB)
	if err != nil || hz != 84_000_000/(8*100) {
		t.Errorf("clock B = %d Hz, %v", hz, err)
	}

	if status, _ := call(t, s, AppendUint(AppendUint(nil, CmdClockOff), uint32(core.ClockB))); status != StatusOK {
		t.Fatal("clock off failed")
	}
	if hz, _ := pwm.AuxClockFrequency(core.ClockB); hz != 0 {
		t.Errorf("clock B still running at %d Hz", hz)
	}

	req = AppendUint(nil, CmdSetClockFreq)
	req = AppendUint(req, 9)
	req = AppendUint(req, 1000)
	if status, _ := call(t, s, req); status != StatusInvalidClock {
		t.Errorf("bad clock id: status %d", status)
	}
}

func TestServerReset(t *testing.T) {
	s, pwm, _ := newTestServer(t)

	if status, _ := call(t, s, AppendConfigChannel(nil, 0, core.ChannelConfig{FrequencyHz: 1000})); status != StatusOK {
		t.Fatal("configure failed")
	}
	if status, _ := call(t, s, AppendUint(nil, CmdReset)); status != StatusOK {
		t.Fatal("reset failed")
	}
	if pwm.ChannelStatus() != 0 {
		t.Error("channels still enabled after reset")
	}
	if period, _ := pwm.ChannelPeriod(0); period != 0 {
		t.Errorf("period %d after reset", period)
	}
}

func TestServerBadRequests(t *testing.T) {
	s, _, _ := newTestServer(t)

	cases := []struct {
		name string
		req  []byte
		want uint32
	}{
		{"empty payload", nil, StatusBadRequest},
		{"unknown command", AppendUint(nil, 99), StatusUnknownCommand},
		{"truncated args", AppendUint(nil, CmdSetDuty), StatusBadRequest},
	}
	for _, c := range cases {
		resp := s.Handle(c.req)
		if _, err := ReadUint(&resp); err != nil {
			t.Fatalf("%s: %v", c.name, err)
		}
		status, err := ReadUint(&resp)
		if err != nil {
			t.Fatalf("%s: %v", c.name, err)
		}
		if status != c.want {
			t.Errorf("%s: status %d, want %d", c.name, status, c.want)
		}
	}
}

// loopback runs the server behind the framed transport so the client can
// be exercised end to end without hardware.
type loopback struct {
	srv *Server
	dec *Decoder
	out []byte
}

func (l *loopback) Write(p []byte) (int, error) {
	l.dec.Write(p)
	for {
		f, ok := l.dec.Next()
		if !ok {
			return len(p), nil
		}
		resp := l.srv.Handle(f.Payload)
		frame, err := EncodeFrame(SeqBoard|f.Seq&SeqMask, resp)
		if err != nil {
			return len(p), err
		}
		l.out = append(l.out, frame...)
	}
}

func (l *loopback) Read(p []byte) (int, error) {
	if len(l.out) == 0 {
		return 0, io.EOF
	}
	n := copy(p, l.out)
	l.out = l.out[n:]
	return n, nil
}

func TestClientAgainstLoopback(t *testing.T) {
	srv, pwm, _ := newTestServer(t)
	c := NewClient(&loopback{srv: srv, dec: NewDecoder()}, 0)

	if err := c.Ping(); err != nil {
		t.Fatalf("ping: %v", err)
	}

	period, err := c.ConfigureChannel(3, core.ChannelConfig{FrequencyHz: 1000, DutyCycle: 100})
	if err != nil {
		t.Fatalf("configure: %v", err)
	}
	if period != 42000 {
		t.Errorf("period %d, want 42000", period)
	}

	if err := c.EnableChannels(1 << 3); err != nil {
		t.Fatalf("enable: %v", err)
	}
	if err := c.SetDutyCycle(3, 21000); err != nil {
		t.Fatalf("set duty: %v", err)
	}
	info, err := c.ChannelInfo(3)
	if err != nil {
		t.Fatalf("channel info: %v", err)
	}
	if !info.Enabled || info.Period != 42000 || info.DutyCycle != 21000 || info.FrequencyHz != 1000 {
		t.Errorf("info = %+v", info)
	}

	mask, err := c.ChannelStatus()
	if err != nil || mask != 1<<3 {
		t.Errorf("status mask %#02x, %v", mask, err)
	}

	setting, err := c.SetAuxClockFrequency(core.ClockA, 1_000_000)
	if err != nil {
		t.Fatalf("set clock frequency: %v", err)
	}
	if setting.Prescaler != uint8(core.PrescalerDiv1) || setting.Divisor != 84 {
		t.Errorf("setting = %+v, want /1 div 84", setting)
	}
	if hz, _ := pwm.AuxClockFrequency(core.ClockA); hz != 1_000_000 {
		t.Errorf("clock A = %d Hz", hz)
	}

	if err := c.SetDutyCycle(3, 50000); !errors.Is(err, core.ErrDutyCycleExceedsPeriod) {
		t.Errorf("oversized duty: %v", err)
	}

	if err := c.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if pwm.ChannelStatus() != 0 {
		t.Error("channels enabled after reset")
	}
}
