package core

import "errors"

var (
	// ErrInvalidFrequency means the requested frequency is zero or outside
	// what the hardware can reach at the current system clock.
	ErrInvalidFrequency = errors.New("frequency out of achievable range")

	// ErrDutyCycleExceedsPeriod means the duty cycle count is larger than
	// the channel's period count.
	ErrDutyCycleExceedsPeriod = errors.New("duty cycle exceeds period")

	// ErrInvalidClock means the auxiliary clock identifier is not ClockA
	// or ClockB.
	ErrInvalidClock = errors.New("invalid auxiliary clock")

	// ErrInvalidChannel means the channel index is out of range.
	ErrInvalidChannel = errors.New("invalid channel")

	// ErrNoConfiguration means no prescaler and counter combination can
	// produce the requested timing.
	ErrNoConfiguration = errors.New("no achievable configuration")
)
