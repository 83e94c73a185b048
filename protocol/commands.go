package protocol

import (
	"errors"

	"duepwm/core"
)

// Command identifiers. A request payload is [command][args...]; the
// response echoes the command followed by a status code and any result
// values.
const (
	CmdPing uint32 = iota + 1
	CmdReset
	CmdConfigChannel
	CmdSetDuty
	CmdEnable
	CmdDisable
	CmdStatus
	CmdChannelInfo
	CmdSetClock
	CmdSetClockFreq
	CmdClockOff
)

// Status codes carried in responses.
const (
	StatusOK uint32 = iota
	StatusInvalidFrequency
	StatusDutyExceedsPeriod
	StatusInvalidClock
	StatusInvalidChannel
	StatusNoConfiguration
	StatusBadRequest
	StatusUnknownCommand
)

// ErrRemote wraps a non-OK status reported by the firmware.
var ErrRemote = errors.New("remote command failed")

// Clock source selectors in CmdConfigChannel requests.
const (
	SourceDirect uint32 = iota
	SourceClockA
	SourceClockB
)

// StatusCode maps a core error to its wire status.
func StatusCode(err error) uint32 {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, core.ErrInvalidFrequency):
		return StatusInvalidFrequency
	case errors.Is(err, core.ErrDutyCycleExceedsPeriod):
		return StatusDutyExceedsPeriod
	case errors.Is(err, core.ErrInvalidClock):
		return StatusInvalidClock
	case errors.Is(err, core.ErrInvalidChannel):
		return StatusInvalidChannel
	case errors.Is(err, core.ErrNoConfiguration):
		return StatusNoConfiguration
	default:
		return StatusBadRequest
	}
}

// StatusError maps a wire status back to an error on the host side.
func StatusError(code uint32) error {
	switch code {
	case StatusOK:
		return nil
	case StatusInvalidFrequency:
		return core.ErrInvalidFrequency
	case StatusDutyExceedsPeriod:
		return core.ErrDutyCycleExceedsPeriod
	case StatusInvalidClock:
		return core.ErrInvalidClock
	case StatusInvalidChannel:
		return core.ErrInvalidChannel
	case StatusNoConfiguration:
		return core.ErrNoConfiguration
	default:
		return ErrRemote
	}
}

// AppendConfigChannel encodes a CmdConfigChannel request.
func AppendConfigChannel(dst []byte, ch uint8, cfg core.ChannelConfig) []byte {
	dst = AppendUint(dst, CmdConfigChannel)
	dst = AppendUint(dst, uint32(ch))
	dst = AppendUint(dst, uint32(cfg.Polarity))
	dst = AppendUint(dst, uint32(cfg.Alignment))
	source := SourceDirect
	if cfg.UseAuxClock {
		source = SourceClockA
		if cfg.AuxClock == core.ClockB {
			source = SourceClockB
		}
	}
	dst = AppendUint(dst, source)
	dst = AppendUint(dst, cfg.FrequencyHz)
	dst = AppendUint(dst, cfg.Period)
	return AppendUint(dst, cfg.DutyCycle)
}

// ReadConfigChannel decodes the arguments of a CmdConfigChannel request.
func ReadConfigChannel(data *[]byte) (ch uint8, cfg core.ChannelConfig, err error) {
	fields := make([]uint32, 7)
	for i := range fields {
		if fields[i], err = ReadUint(data); err != nil {
			return 0, cfg, err
		}
	}
	ch = uint8(fields[0])
	cfg.Polarity = core.Polarity(fields[1])
	cfg.Alignment = core.Alignment(fields[2])
	switch fields[3] {
	case SourceClockA:
		cfg.UseAuxClock = true
		cfg.AuxClock = core.ClockA
	case SourceClockB:
		cfg.UseAuxClock = true
		cfg.AuxClock = core.ClockB
	}
	cfg.FrequencyHz = fields[4]
	cfg.Period = fields[5]
	cfg.DutyCycle = fields[6]
	return ch, cfg, nil
}

// ChannelInfo is the decoded response of CmdChannelInfo.
type ChannelInfo struct {
	Enabled     bool
	Period      uint32
	DutyCycle   uint32
	FrequencyHz uint32
}
