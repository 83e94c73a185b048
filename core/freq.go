package core

// DeriveChannelFrequency computes the prescaler selector and period for a
// channel's private frequency generator, without involving Clock A or B.
//
// The fixed prescalers are tried from least to most division; the first one
// whose rounded period fits in 1..65535 wins, because a smaller divider
// leaves more period counts for duty cycle resolution. The result is exact
// up to integer rounding of the period, unlike the auxiliary clock path
// which yields a nearest approximation.
//
// Center alignment doubles the counter traversal (up then down), halving
// the achievable range; the period is scaled accordingly.
func (p *Peripheral) DeriveChannelFrequency(targetHz uint32, alignment Alignment) (prescaler uint8, period uint32, err error) {
	if targetHz == 0 || targetHz > p.sysClockHz {
		return 0, 0, ErrInvalidFrequency
	}
	alignScale := uint64(1)
	if alignment == AlignCenter {
		alignScale = 2
	}
	for pre := uint8(0); pre < numFixedPrescalers; pre++ {
		div := uint64(prescalerDivider(pre)) * alignScale * uint64(targetHz)
		per := (uint64(p.sysClockHz) + div/2) / div // round to nearest
		if per >= 1 && per <= MaxPeriod {
			return pre, uint32(per), nil
		}
	}
	// Every prescaler produced a period of 0 (target too high for the
	// alignment) or above 65535 (target too low without an auxiliary clock).
	return 0, 0, ErrNoConfiguration
}
