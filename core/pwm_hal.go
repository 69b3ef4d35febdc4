package core

// PWMPin identifies a hardware pin capable of PWM output
type PWMPin uint8

// PWMLevel is a period-relative output level in [0, steps], where steps is the
// resolution the pin was configured with. A level equal to steps holds the
// output asserted for the whole period.
type PWMLevel uint16

// PWMDriver is the abstract PWM interface that core code uses.
// Platform-specific implementations handle actual hardware control.
type PWMDriver interface {
	// ConfigurePWM configures a pin for hardware PWM output at freqHz with
	// steps discrete levels per period.
	ConfigurePWM(pin PWMPin, freqHz uint32, steps uint16) error

	// SetLevel sets the period-relative level for a pin.
	// The new level takes effect no later than the next control cycle.
	SetLevel(pin PWMPin, level PWMLevel) error
}
