package protocol

import "duepwm/core"

// Server executes decoded command payloads against a peripheral. It is
// transport-agnostic: the firmware main loop feeds it frames from the
// serial link, and pwmctl's simulation mode calls it directly.
type Server struct {
	pwm *core.Peripheral
}

// NewServer returns a server driving the given peripheral.
func NewServer(p *core.Peripheral) *Server {
	return &Server{pwm: p}
}

// Handle executes one request payload and returns the response payload.
// Malformed requests yield a StatusBadRequest response rather than an
// error, so the link never goes silent.
func (s *Server) Handle(payload []byte) []byte {
	data := payload
	cmd, err := ReadUint(&data)
	if err != nil {
		return respond(0, StatusBadRequest)
	}

	switch cmd {
	case CmdPing:
		return respond(cmd, StatusOK)

	case CmdReset:
		s.pwm.Reset()
		return respond(cmd, StatusOK)

	case CmdConfigChannel:
		ch, cfg, err := ReadConfigChannel(&data)
		if err != nil {
			return respond(cmd, StatusBadRequest)
		}
		if err := s.pwm.ConfigureChannel(ch, cfg); err != nil {
			return respond(cmd, StatusCode(err))
		}
		period, err := s.pwm.ChannelPeriod(ch)
		if err != nil {
			return respond(cmd, StatusCode(err))
		}
		return respond(cmd, StatusOK, period)

	case CmdSetDuty:
		ch, err := ReadUint(&data)
		if err != nil {
			return respond(cmd, StatusBadRequest)
		}
		duty, err := ReadUint(&data)
		if err != nil {
			return respond(cmd, StatusBadRequest)
		}
		return respond(cmd, StatusCode(s.pwm.SetDutyCycle(uint8(ch), duty)))

	case CmdEnable:
		mask, err := ReadUint(&data)
		if err != nil {
			return respond(cmd, StatusBadRequest)
		}
		s.pwm.EnableChannels(uint8(mask))
		return respond(cmd, StatusOK)

	case CmdDisable:
		mask, err := ReadUint(&data)
		if err != nil {
			return respond(cmd, StatusBadRequest)
		}
		s.pwm.DisableChannels(uint8(mask))
		return respond(cmd, StatusOK)

	case CmdStatus:
		return respond(cmd, StatusOK, uint32(s.pwm.ChannelStatus()))

	case CmdChannelInfo:
		ch, err := ReadUint(&data)
		if err != nil {
			return respond(cmd, StatusBadRequest)
		}
		period, err := s.pwm.ChannelPeriod(uint8(ch))
		if err != nil {
			return respond(cmd, StatusCode(err))
		}
		duty, _ := s.pwm.ReadDutyCycle(uint8(ch))
		hz, _ := s.pwm.ChannelFrequency(uint8(ch))
		enabled := uint32(0)
		if s.pwm.ChannelEnabled(uint8(ch)) {
			enabled = 1
		}
		return respond(cmd, StatusOK, enabled, period, duty, hz)

	case CmdSetClock:
		args, err := readUints(&data, 3)
		if err != nil {
			return respond(cmd, StatusBadRequest)
		}
		err = s.pwm.SetAuxClock(core.ClockID(args[0]), uint8(args[1]), uint8(args[2]))
		return respond(cmd, StatusCode(err))

	case CmdSetClockFreq:
		args, err := readUints(&data, 2)
		if err != nil {
			return respond(cmd, StatusBadRequest)
		}
		id := core.ClockID(args[0])
		if err := s.pwm.SetAuxClockFrequency(id, args[1]); err != nil {
			return respond(cmd, StatusCode(err))
		}
		setting, err := s.pwm.AuxClockSetting(id)
		if err != nil {
			return respond(cmd, StatusCode(err))
		}
		return respond(cmd, StatusOK, uint32(setting.Prescaler), uint32(setting.Divisor))

	case CmdClockOff:
		id, err := ReadUint(&data)
		if err != nil {
			return respond(cmd, StatusBadRequest)
		}
		return respond(cmd, StatusCode(s.pwm.TurnOffAuxClock(core.ClockID(id))))
	}

	return respond(cmd, StatusUnknownCommand)
}

func respond(cmd, status uint32, values ...uint32) []byte {
	out := AppendUint(nil, cmd)
	out = AppendUint(out, status)
	for _, v := range values {
		out = AppendUint(out, v)
	}
	return out
}

func readUints(data *[]byte, n int) ([]uint32, error) {
	out := make([]uint32, n)
	for i := range out {
		v, err := ReadUint(data)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
