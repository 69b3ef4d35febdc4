//go:build rp2040

package main

import (
	"machine"
)

// configureI2C brings up the I2C block that owns sda/scl.
// On RP2040, GPIO n belongs to I2C0 when (n/2) is even and I2C1 otherwise.
func configureI2C(sda, scl uint8, frequencyHz uint32) (*machine.I2C, error) {
	i2c := machine.I2C0
	if (sda/2)%2 == 1 {
		i2c = machine.I2C1
	}

	err := i2c.Configure(machine.I2CConfig{
		Frequency: frequencyHz,
		SDA:       machine.Pin(sda),
		SCL:       machine.Pin(scl),
	})
	if err != nil {
		return nil, err
	}
	return i2c, nil
}
