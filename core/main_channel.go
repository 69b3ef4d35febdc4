package core

// MainPins is the pin assignment of a single-direction-pin motor channel
type MainPins struct {
	PWM       PWMPin
	Dir       GPIOPin
	InvertDir bool // Swap direction polarity for reversed wiring
}

// MainChannel drives a DC motor through one PWM pin and one direction pin.
// Its state is owned by the instance and changed only by Drive.
type MainChannel struct {
	pwm    PWMDriver
	gpio   GPIODriver
	pins   MainPins
	params *DriveParams

	dutyPrev int16
	level    PWMLevel
	dir      bool
}

// NewMainChannel creates a channel. Call Configure once before Drive.
func NewMainChannel(pwm PWMDriver, gpio GPIODriver, pins MainPins, params *DriveParams) *MainChannel {
	return &MainChannel{
		pwm:    pwm,
		gpio:   gpio,
		pins:   pins,
		params: params,
	}
}

// Configure sets up both pins and parks the motor at level 0.
func (m *MainChannel) Configure() error {
	if err := m.pwm.ConfigurePWM(m.pins.PWM, m.params.FrequencyHz, m.params.Steps); err != nil {
		return err
	}
	if err := m.pwm.SetLevel(m.pins.PWM, 0); err != nil {
		return err
	}
	if err := m.gpio.ConfigureOutput(m.pins.Dir); err != nil {
		return err
	}
	m.dir = m.pins.InvertDir
	if err := m.gpio.SetPin(m.pins.Dir, m.dir); err != nil {
		return err
	}
	m.dutyPrev = 0
	m.level = 0
	return nil
}

// Drive applies a slew-limited, voltage-compensated duty.
// An unchanged duty leaves the outputs untouched.
func (m *MainChannel) Drive(duty int16, volt float32) error {
	d := SlewLimit(duty, m.dutyPrev, m.params.DutyDiffMax)
	if d == m.dutyPrev {
		return nil
	}

	level := m.params.directLevel(d, volt)
	if err := m.pwm.SetLevel(m.pins.PWM, level); err != nil {
		return err
	}
	m.level = level

	dir := (d < 0) != m.pins.InvertDir
	if err := m.gpio.SetPin(m.pins.Dir, dir); err != nil {
		return err
	}
	m.dir = dir

	m.dutyPrev = d
	return nil
}

// Duty returns the last applied duty
func (m *MainChannel) Duty() int16 { return m.dutyPrev }

// Level returns the last written PWM level
func (m *MainChannel) Level() PWMLevel { return m.level }

// Direction returns the last written direction pin state
func (m *MainChannel) Direction() bool { return m.dir }
