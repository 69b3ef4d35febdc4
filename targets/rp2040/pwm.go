//go:build rp2040

package main

import (
	"errors"

	"cubicdrive/core"
	"machine"
)

var (
	ErrPWMNotConfigured = errors.New("pwm pin not configured")
	ErrSliceConflict    = errors.New("pwm slice already running at another frequency")
)

// pwmPeripheral is an interface for PWM hardware peripherals
// This abstracts over TinyGo's unexported *pwmGroup type
type pwmPeripheral interface {
	Configure(config machine.PWMConfig) error
	Channel(pin machine.Pin) (uint8, error)
	Top() uint32
	Set(channel uint8, value uint32)
}

type pwmOutput struct {
	slice   uint8
	channel uint8
	steps   uint16
}

// RP2040PWMDriver implements core.PWMDriver on the RP2040's 8 PWM slices.
// Both channels of a slice share one counter, so pins on the same slice
// must use the same frequency.
type RP2040PWMDriver struct {
	// Key: slice number (0-7), Value: configured period in nanoseconds
	periods map[uint8]uint64

	// Key: slice number (0-7), Value: PWM peripheral
	peripherals map[uint8]pwmPeripheral

	outputs map[core.PWMPin]pwmOutput
}

// NewRP2040PWMDriver creates a new RP2040 PWM driver
func NewRP2040PWMDriver() *RP2040PWMDriver {
	return &RP2040PWMDriver{
		periods:     make(map[uint8]uint64),
		peripherals: make(map[uint8]pwmPeripheral),
		outputs:     make(map[core.PWMPin]pwmOutput),
	}
}

// ConfigurePWM sets up a pin for hardware PWM at freqHz with the given
// number of levels per period.
func (d *RP2040PWMDriver) ConfigurePWM(pin core.PWMPin, freqHz uint32, steps uint16) error {
	// RP2040: GPIO pin N maps to:
	//   Slice: (N >> 1) & 0x7  (divide by 2, mod 8)
	//   Channel: N & 1          (even=A, odd=B)
	sliceNum := uint8((uint32(pin) >> 1) & 0x7)
	period := uint64(1000000000) / uint64(freqHz)

	pwm, exists := d.peripherals[sliceNum]
	if !exists {
		pwm = getPWMPeripheral(sliceNum)
		d.peripherals[sliceNum] = pwm
	}

	if existing, ok := d.periods[sliceNum]; ok {
		if existing != period {
			return ErrSliceConflict
		}
	} else {
		// Configuring restarts the counter, so only do it once per slice
		if err := pwm.Configure(machine.PWMConfig{Period: period}); err != nil {
			return err
		}
		d.periods[sliceNum] = period
	}

	channel, err := pwm.Channel(machine.Pin(pin))
	if err != nil {
		return err
	}

	d.outputs[pin] = pwmOutput{slice: sliceNum, channel: channel, steps: steps}
	return nil
}

// SetLevel sets the pin to level/steps of the period
func (d *RP2040PWMDriver) SetLevel(pin core.PWMPin, level core.PWMLevel) error {
	out, exists := d.outputs[pin]
	if !exists {
		return ErrPWMNotConfigured
	}
	pwm := d.peripherals[out.slice]

	// Scale level (0..steps) to the hardware compare range (0..Top)
	top := pwm.Top()
	pwm.Set(out.channel, uint32(level)*top/uint32(out.steps))
	return nil
}

// getPWMPeripheral returns the PWM peripheral for a given slice number
func getPWMPeripheral(sliceNum uint8) pwmPeripheral {
	switch sliceNum {
	case 0:
		return machine.PWM0
	case 1:
		return machine.PWM1
	case 2:
		return machine.PWM2
	case 3:
		return machine.PWM3
	case 4:
		return machine.PWM4
	case 5:
		return machine.PWM5
	case 6:
		return machine.PWM6
	default:
		return machine.PWM7
	}
}
