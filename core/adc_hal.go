package core

// ADCChannelID identifies a logical ADC channel.
type ADCChannelID uint8

// ADCValue is the raw ADC reading as seen by the rest of the firmware.
type ADCValue uint16

// ADCDriver is the abstract ADC interface that core code uses.
type ADCDriver interface {
	// ConfigureChannel prepares a channel for analog input.
	ConfigureChannel(ch ADCChannelID) error

	// ReadRaw performs a one-shot sample from the given channel.
	ReadRaw(ch ADCChannelID) (ADCValue, error)
}

// RawSampler produces one raw conversion from a fixed source.
type RawSampler interface {
	ReadRaw() (ADCValue, error)
}

// ADCChannel binds an ADCDriver to one channel.
type ADCChannel struct {
	Driver  ADCDriver
	Channel ADCChannelID
}

// Configure prepares the bound channel
func (c ADCChannel) Configure() error {
	return c.Driver.ConfigureChannel(c.Channel)
}

// ReadRaw samples the bound channel
func (c ADCChannel) ReadRaw() (ADCValue, error) {
	return c.Driver.ReadRaw(c.Channel)
}
