package core

import "errors"

var errMockWrite = errors.New("mock write failure")

// MockPWMDriver is a test implementation of PWMDriver
type MockPWMDriver struct {
	levels     map[PWMPin]PWMLevel
	configured map[PWMPin]uint16
	writes     int
	failPin    *PWMPin
	onSet      func(pin PWMPin, level PWMLevel)
}

func NewMockPWMDriver() *MockPWMDriver {
	return &MockPWMDriver{
		levels:     make(map[PWMPin]PWMLevel),
		configured: make(map[PWMPin]uint16),
	}
}

func (m *MockPWMDriver) ConfigurePWM(pin PWMPin, freqHz uint32, steps uint16) error {
	m.configured[pin] = steps
	return nil
}

func (m *MockPWMDriver) SetLevel(pin PWMPin, level PWMLevel) error {
	if m.failPin != nil && *m.failPin == pin {
		return errMockWrite
	}
	m.levels[pin] = level
	m.writes++
	if m.onSet != nil {
		m.onSet(pin, level)
	}
	return nil
}

// MockGPIODriver is a test implementation of GPIODriver
type MockGPIODriver struct {
	pins       map[GPIOPin]bool
	configured map[GPIOPin]bool
	writes     int
}

func NewMockGPIODriver() *MockGPIODriver {
	return &MockGPIODriver{
		pins:       make(map[GPIOPin]bool),
		configured: make(map[GPIOPin]bool),
	}
}

func (m *MockGPIODriver) ConfigureOutput(pin GPIOPin) error {
	m.configured[pin] = true
	m.pins[pin] = false
	return nil
}

func (m *MockGPIODriver) SetPin(pin GPIOPin, value bool) error {
	m.pins[pin] = value
	m.writes++
	return nil
}

// FakeClock is a manually advanced Clock
type FakeClock struct {
	now uint64
}

func (c *FakeClock) NowMicros() uint64 { return c.now }

func (c *FakeClock) Advance(us uint64) { c.now += us }

// mockSampler returns a fixed raw value or error
type mockSampler struct {
	raw ADCValue
	err error
}

func (s *mockSampler) ReadRaw() (ADCValue, error) {
	return s.raw, s.err
}

// testParams matches the reference board calibration used in the examples
func testParams() *DriveParams {
	return &DriveParams{
		DutyMax:      32766,
		DutyDiffMax:  70,
		Steps:        125,
		FrequencyHz:  20000,
		VMin:         22.8,
		SubPolarity:  PolarityInverted,
		SolenoidTime: 10000,
	}
}
