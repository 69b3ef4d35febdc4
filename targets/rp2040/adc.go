//go:build rp2040

package main

import (
	"errors"

	"cubicdrive/core"
	"machine"
)

var ErrADCChannel = errors.New("unsupported ADC channel")

// RpAdcDriver implements core.ADCDriver using TinyGo's machine.ADC.
// Channels 0-3 are GPIO26-GPIO29.
type RpAdcDriver struct {
	channels map[core.ADCChannelID]*machine.ADC
}

// NewRPAdcDriver initialises the ADC block
func NewRPAdcDriver() *RpAdcDriver {
	machine.InitADC()
	return &RpAdcDriver{
		channels: make(map[core.ADCChannelID]*machine.ADC),
	}
}

// ADCChannelForPin returns the ADC input wired to a GPIO
func ADCChannelForPin(gpio uint8) core.ADCChannelID {
	return core.ADCChannelID(gpio - 26)
}

// ConfigureChannel sets up the pin mux for a channel
func (d *RpAdcDriver) ConfigureChannel(ch core.ADCChannelID) error {
	if _, ok := d.channels[ch]; ok {
		return nil
	}

	var adc machine.ADC
	switch ch {
	case 0:
		adc = machine.ADC{Pin: machine.ADC0}
	case 1:
		adc = machine.ADC{Pin: machine.ADC1}
	case 2:
		adc = machine.ADC{Pin: machine.ADC2}
	case 3:
		adc = machine.ADC{Pin: machine.ADC3}
	default:
		return ErrADCChannel
	}

	if err := adc.Configure(machine.ADCConfig{}); err != nil {
		return err
	}

	d.channels[ch] = &adc
	return nil
}

// ReadRaw returns a raw 12-bit ADC value (0-4095) from a channel.
func (d *RpAdcDriver) ReadRaw(ch core.ADCChannelID) (core.ADCValue, error) {
	adc, ok := d.channels[ch]
	if !ok {
		return 0, ErrADCChannel
	}

	// machine.ADC.Get scales to 16 bits; the supply calibration is in
	// 12-bit counts
	return core.ADCValue(adc.Get() >> 4), nil
}
