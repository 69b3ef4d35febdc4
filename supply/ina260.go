// Package supply provides secondary supply-voltage sources used to gate
// the power stage at startup.
package supply

import (
	"errors"

	"cubicdrive/core"

	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/ina260"
)

// INA260Scale converts INA260 readings (millivolts) to volts
const INA260Scale = 0.001

var ErrNotFound = errors.New("ina260 not responding")

// INA260 reads bus voltage from a TI INA260 power monitor.
// It implements core.RawSampler with one count per millivolt.
type INA260 struct {
	dev ina260.Device
}

// NewINA260 creates a sampler on bus. addr 0 keeps the driver default.
// The device is left in its power-on continuous conversion mode.
func NewINA260(bus drivers.I2C, addr uint16) *INA260 {
	dev := ina260.New(bus)
	if addr != 0 {
		dev.Address = addr
	}
	return &INA260{dev: dev}
}

// Probe checks that the device answers with the expected ID
func (s *INA260) Probe() error {
	if !s.dev.Connected() {
		return ErrNotFound
	}
	return nil
}

// ReadRaw returns the bus voltage in millivolts
func (s *INA260) ReadRaw() (core.ADCValue, error) {
	uv := s.dev.Voltage()
	mv := core.Clamp(uv/1000, 0, 0xFFFF)
	return core.ADCValue(mv), nil
}
