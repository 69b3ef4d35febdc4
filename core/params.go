package core

// SubPolarity selects the PWM sense of sub-channel pins. It applies to the
// output stage as a whole, so solenoid rest and assert levels flip with it.
type SubPolarity uint8

const (
	// PolarityInverted rests at full level; driving reduces the level.
	PolarityInverted SubPolarity = iota
	// PolarityDirect rests at zero; driving raises the level.
	PolarityDirect
)

// DriveParams is the calibration shared by every actuator on a board.
type DriveParams struct {
	DutyMax      int32       // Full-scale duty magnitude
	DutyDiffMax  int32       // Largest duty change per cycle
	Steps        uint16      // PWM levels per period (wrap + 1)
	FrequencyHz  uint32      // PWM carrier frequency
	VMin         float32     // Nominal (floor) supply voltage
	SubPolarity  SubPolarity // Sub-channel PWM sense
	SolenoidTime uint64      // Minimum dwell between solenoid transitions (µs)
}

// compensatedFraction is |duty|/DutyMax scaled by VMin/volt.
// volt is floored at VMin so compensation never inflates the level.
func (p *DriveParams) compensatedFraction(duty int16, volt float32) float32 {
	if volt < p.VMin {
		volt = p.VMin
	}
	mag := float32(Abs(int32(duty)))
	return mag / float32(p.DutyMax) * p.VMin / volt
}

// directLevel is the main-channel level formula.
func (p *DriveParams) directLevel(duty int16, volt float32) PWMLevel {
	return roundLevel(float32(p.Steps)*p.compensatedFraction(duty, volt), p.Steps)
}

// invertedLevel drives by pulling a full-level pin down.
func (p *DriveParams) invertedLevel(duty int16, volt float32) PWMLevel {
	return roundLevel(float32(p.Steps)*(1-p.compensatedFraction(duty, volt)), p.Steps)
}

// subLevel applies the configured sub-channel polarity.
func (p *DriveParams) subLevel(duty int16, volt float32) PWMLevel {
	if p.SubPolarity == PolarityDirect {
		return p.directLevel(duty, volt)
	}
	return p.invertedLevel(duty, volt)
}

// restLevel is the neutral level of an idle sub-channel pin.
func (p *DriveParams) restLevel() PWMLevel {
	if p.SubPolarity == PolarityDirect {
		return 0
	}
	return PWMLevel(p.Steps)
}

// assertLevel is the level opposite rest.
func (p *DriveParams) assertLevel() PWMLevel {
	return PWMLevel(p.Steps) - p.restLevel()
}
