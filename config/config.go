// Package config holds the board description: pin map, PWM carrier,
// calibration and startup behaviour. It is loaded from JSON on the host and
// compiled in as DefaultBoardConfig on the firmware.
package config

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"cubicdrive/core"
	"cubicdrive/protocol"
)

// Sub-channel polarity names
const (
	PolarityInverted = "inverted"
	PolarityDirect   = "direct"
)

// Power gate sources
const (
	GateNone   = "none"   // Assert after the startup delay only
	GateSupply = "supply" // Wait on the main supply ADC
	GateINA260 = "ina260" // Wait on an INA260 bus-voltage reading
)

// PWMConfig is the carrier shared by every PWM output
type PWMConfig struct {
	FrequencyHz uint32 `json:"frequency_hz"`
	Steps       uint16 `json:"steps"` // Levels per period (wrap + 1)
}

// DriveConfig holds duty scaling and slew
type DriveConfig struct {
	DutyMax     int32  `json:"duty_max"`
	DutyDiffMax int32  `json:"duty_diff_max"`
	SubPolarity string `json:"sub_polarity"`
}

// VoltageConfig describes the supply sense divider
type VoltageConfig struct {
	ADCPin         uint8   `json:"adc_pin"`
	FullScaleVolts float32 `json:"full_scale_volts"` // Supply voltage at ADC full scale
	ADCFullScale   float32 `json:"adc_full_scale"`
	VMin           float32 `json:"v_min"`
	Retention      float32 `json:"retention"`    // EMA weight of the previous filtered sample
	FilterEvery    uint32  `json:"filter_every"` // Cycles between filtered samples
}

// SolenoidConfig holds solenoid timing
type SolenoidConfig struct {
	DwellMicros uint64 `json:"dwell_us"`
}

// CycleConfig holds control loop timing
type CycleConfig struct {
	PeriodMs uint32 `json:"period_ms"`
}

// PowerGateConfig controls the power-stage enable output
type PowerGateConfig struct {
	Pin            uint8   `json:"pin"`
	StartupDelayMs uint32  `json:"startup_delay_ms"`
	Source         string  `json:"source"`
	Threshold      float32 `json:"threshold"`
	PollMs         uint32  `json:"poll_ms"`
	I2CAddress     uint16  `json:"i2c_address"` // INA260 only, 0 selects the driver default
	SDA            uint8   `json:"sda"`         // INA260 only
	SCL            uint8   `json:"scl"`         // INA260 only
}

// SPIConfig is the command link pin set
type SPIConfig struct {
	SIMO uint8 `json:"simo"`
	SS   uint8 `json:"ss"`
	SCLK uint8 `json:"sclk"`
	SOMI uint8 `json:"somi"`
}

// MainChannelConfig is one PWM + direction motor output
type MainChannelConfig struct {
	PWM       uint8 `json:"pwm"`
	Dir       uint8 `json:"dir"`
	InvertDir bool  `json:"invert_dir"`
}

// SubChannelConfig is one dual-PWM output
type SubChannelConfig struct {
	A uint8 `json:"a"`
	B uint8 `json:"b"`
}

// BoardConfig is the complete board description
type BoardConfig struct {
	PWM       PWMConfig           `json:"pwm"`
	Drive     DriveConfig         `json:"drive"`
	Voltage   VoltageConfig       `json:"voltage"`
	Solenoid  SolenoidConfig      `json:"solenoid"`
	Cycle     CycleConfig         `json:"cycle"`
	PowerGate PowerGateConfig     `json:"power_gate"`
	SPI       SPIConfig           `json:"spi"`
	USBLink   bool                `json:"usb_link"`
	Main      []MainChannelConfig `json:"main"`
	Sub       []SubChannelConfig  `json:"sub"`
	Debug     bool                `json:"debug"`
}

var (
	ErrDutyMax      = errors.New("duty_max must be in [1, 32766]")
	ErrChannelCount = errors.New("channel count out of range")
	ErrPinConflict  = errors.New("pin assigned twice")
)

// FieldError reports an invalid configuration value
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return "config: " + e.Field + ": " + e.Reason
}

// PinConflictError reports a GPIO claimed by two functions
type PinConflictError struct {
	Pin   uint8
	Field string
	Owner string
}

func (e *PinConflictError) Error() string {
	return "config: " + e.Field + ": GPIO" + strconv.Itoa(int(e.Pin)) + " already used by " + e.Owner
}

func (e *PinConflictError) Unwrap() error { return ErrPinConflict }

// LoadConfig parses a JSON configuration and applies defaults.
// Omitted channel lists fall back to the reference board pin map.
func LoadConfig(jsonData []byte) (*BoardConfig, error) {
	var config BoardConfig

	err := json.Unmarshal(jsonData, &config)
	if err != nil {
		return nil, err
	}

	applyDefaults(&config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// applyDefaults fills in missing configuration values
func applyDefaults(config *BoardConfig) {
	def := DefaultBoardConfig()

	if config.PWM.FrequencyHz == 0 {
		config.PWM.FrequencyHz = def.PWM.FrequencyHz
	}
	if config.PWM.Steps == 0 {
		config.PWM.Steps = def.PWM.Steps
	}

	if config.Drive.DutyMax == 0 {
		config.Drive.DutyMax = def.Drive.DutyMax
	}
	if config.Drive.DutyDiffMax == 0 {
		config.Drive.DutyDiffMax = def.Drive.DutyDiffMax
	}
	if config.Drive.SubPolarity == "" {
		config.Drive.SubPolarity = def.Drive.SubPolarity
	}

	if config.Voltage.ADCPin == 0 {
		config.Voltage.ADCPin = def.Voltage.ADCPin
	}
	if config.Voltage.FullScaleVolts == 0 {
		config.Voltage.FullScaleVolts = def.Voltage.FullScaleVolts
	}
	if config.Voltage.ADCFullScale == 0 {
		config.Voltage.ADCFullScale = def.Voltage.ADCFullScale
	}
	if config.Voltage.VMin == 0 {
		config.Voltage.VMin = def.Voltage.VMin
	}
	if config.Voltage.Retention == 0 {
		config.Voltage.Retention = def.Voltage.Retention
	}
	if config.Voltage.FilterEvery == 0 {
		config.Voltage.FilterEvery = def.Voltage.FilterEvery
	}

	if config.Solenoid.DwellMicros == 0 {
		config.Solenoid.DwellMicros = def.Solenoid.DwellMicros
	}
	if config.Cycle.PeriodMs == 0 {
		config.Cycle.PeriodMs = def.Cycle.PeriodMs
	}

	if config.PowerGate.Pin == 0 {
		config.PowerGate.Pin = def.PowerGate.Pin
	}
	if config.PowerGate.StartupDelayMs == 0 {
		config.PowerGate.StartupDelayMs = def.PowerGate.StartupDelayMs
	}
	if config.PowerGate.Source == "" {
		config.PowerGate.Source = GateNone
	}
	if config.PowerGate.Threshold == 0 {
		config.PowerGate.Threshold = config.Voltage.VMin
	}
	if config.PowerGate.PollMs == 0 {
		config.PowerGate.PollMs = def.PowerGate.PollMs
	}

	// An all-zero SPI block is never valid, treat it as omitted
	if config.SPI == (SPIConfig{}) {
		config.SPI = def.SPI
	}

	if config.Main == nil && config.Sub == nil {
		config.Main = def.Main
		config.Sub = def.Sub
	}
}

// DefaultBoardConfig returns the reference board: 8 main channels, 4 sub
// channels, supply sense on GPIO29, power enable on GPIO28, SPI on GPIO0-3.
func DefaultBoardConfig() *BoardConfig {
	return &BoardConfig{
		PWM: PWMConfig{
			FrequencyHz: 20000, // 125 MHz / 50 / 125
			Steps:       125,
		},
		Drive: DriveConfig{
			DutyMax:     protocol.DefaultDutyMax,
			DutyDiffMax: 70,
			SubPolarity: PolarityInverted,
		},
		Voltage: VoltageConfig{
			ADCPin:         29,
			FullScaleVolts: 36.3,
			ADCFullScale:   4095,
			VMin:           23.75,
			Retention:      0.99,
			FilterEvery:    10,
		},
		Solenoid: SolenoidConfig{
			DwellMicros: 10000,
		},
		Cycle: CycleConfig{
			PeriodMs: 1,
		},
		PowerGate: PowerGateConfig{
			Pin:            28,
			StartupDelayMs: 1000,
			Source:         GateNone,
			Threshold:      23.75,
			PollMs:         10,
		},
		SPI: SPIConfig{SIMO: 0, SS: 1, SCLK: 2, SOMI: 3},
		USBLink: true,
		Main: []MainChannelConfig{
			{PWM: 16, Dir: 25},
			{PWM: 17, Dir: 24},
			{PWM: 21, Dir: 22},
			{PWM: 20, Dir: 23},
			{PWM: 15, Dir: 10},
			{PWM: 14, Dir: 11},
			{PWM: 9, Dir: 4},
			{PWM: 8, Dir: 5},
		},
		Sub: []SubChannelConfig{
			{A: 26, B: 27},
			{A: 19, B: 18},
			{A: 13, B: 12},
			{A: 7, B: 6},
		},
	}
}

// Validate checks ranges and pin conflicts
func (c *BoardConfig) Validate() error {
	if c.Drive.DutyMax < 1 || c.Drive.DutyMax > protocol.DefaultDutyMax {
		return ErrDutyMax
	}
	if c.Drive.DutyDiffMax <= 0 {
		return &FieldError{"drive.duty_diff_max", "must be positive"}
	}
	if c.Drive.SubPolarity != PolarityInverted && c.Drive.SubPolarity != PolarityDirect {
		return &FieldError{"drive.sub_polarity", "unknown polarity " + strconv.Quote(c.Drive.SubPolarity)}
	}
	if c.PWM.FrequencyHz == 0 || c.PWM.Steps == 0 {
		return &FieldError{"pwm", "frequency and steps must be non-zero"}
	}
	if c.Voltage.ADCPin < 26 || c.Voltage.ADCPin > 29 {
		return &FieldError{"voltage.adc_pin", "GPIO" + strconv.Itoa(int(c.Voltage.ADCPin)) + " has no ADC input"}
	}
	if c.Voltage.FullScaleVolts <= 0 || c.Voltage.ADCFullScale <= 0 || c.Voltage.VMin <= 0 {
		return &FieldError{"voltage", "scale and v_min must be positive"}
	}
	if c.Voltage.Retention < 0 || c.Voltage.Retention >= 1 {
		return &FieldError{"voltage.retention", "must be in [0, 1)"}
	}
	if c.Cycle.PeriodMs == 0 {
		return &FieldError{"cycle.period_ms", "must be non-zero"}
	}
	switch c.PowerGate.Source {
	case GateNone, GateSupply, GateINA260:
	default:
		return &FieldError{"power_gate.source", "unknown source " + strconv.Quote(c.PowerGate.Source)}
	}

	n := len(c.Main) + len(c.Sub)
	if n == 0 || n > protocol.MaxChannels {
		return ErrChannelCount
	}

	return c.checkPins()
}

type pinClaim struct {
	pin  uint8
	name string
}

// checkPins rejects any GPIO used by more than one function
func (c *BoardConfig) checkPins() error {
	claims := []pinClaim{
		{c.SPI.SIMO, "spi.simo"},
		{c.SPI.SS, "spi.ss"},
		{c.SPI.SCLK, "spi.sclk"},
		{c.SPI.SOMI, "spi.somi"},
		{c.Voltage.ADCPin, "voltage.adc_pin"},
		{c.PowerGate.Pin, "power_gate.pin"},
	}
	if c.PowerGate.Source == GateINA260 {
		claims = append(claims,
			pinClaim{c.PowerGate.SDA, "power_gate.sda"},
			pinClaim{c.PowerGate.SCL, "power_gate.scl"})
	}
	for i, m := range c.Main {
		idx := strconv.Itoa(i)
		claims = append(claims,
			pinClaim{m.PWM, "main[" + idx + "].pwm"},
			pinClaim{m.Dir, "main[" + idx + "].dir"})
	}
	for i, s := range c.Sub {
		idx := strconv.Itoa(i)
		claims = append(claims,
			pinClaim{s.A, "sub[" + idx + "].a"},
			pinClaim{s.B, "sub[" + idx + "].b"})
	}

	used := make(map[uint8]string)
	for _, cl := range claims {
		if prev, ok := used[cl.pin]; ok {
			return &PinConflictError{Pin: cl.pin, Field: cl.name, Owner: prev}
		}
		used[cl.pin] = cl.name
	}
	return nil
}

// VScale returns volts per raw ADC count
func (c *BoardConfig) VScale() float32 {
	return c.Voltage.FullScaleVolts / c.Voltage.ADCFullScale
}

// DriveParams converts the calibration into actuator parameters
func (c *BoardConfig) DriveParams() *core.DriveParams {
	polarity := core.PolarityInverted
	if c.Drive.SubPolarity == PolarityDirect {
		polarity = core.PolarityDirect
	}
	return &core.DriveParams{
		DutyMax:      c.Drive.DutyMax,
		DutyDiffMax:  c.Drive.DutyDiffMax,
		Steps:        c.PWM.Steps,
		FrequencyHz:  c.PWM.FrequencyHz,
		VMin:         c.Voltage.VMin,
		SubPolarity:  polarity,
		SolenoidTime: c.Solenoid.DwellMicros,
	}
}

// CycleConfig converts loop timing for the controller
func (c *BoardConfig) CycleConfig() core.CycleConfig {
	return core.CycleConfig{
		Period:      time.Duration(c.Cycle.PeriodMs) * time.Millisecond,
		FilterEvery: c.Voltage.FilterEvery,
		DutyMax:     c.Drive.DutyMax,
	}
}

// MainPins returns the main channel pin assignments in wire order
func (c *BoardConfig) MainPins() []core.MainPins {
	pins := make([]core.MainPins, len(c.Main))
	for i, m := range c.Main {
		pins[i] = core.MainPins{
			PWM:       core.PWMPin(m.PWM),
			Dir:       core.GPIOPin(m.Dir),
			InvertDir: m.InvertDir,
		}
	}
	return pins
}

// SubPins returns the sub channel pin assignments in wire order
func (c *BoardConfig) SubPins() []core.SubPins {
	pins := make([]core.SubPins, len(c.Sub))
	for i, s := range c.Sub {
		pins[i] = core.SubPins{A: core.PWMPin(s.A), B: core.PWMPin(s.B)}
	}
	return pins
}

// Decoder returns a frame decoder for this board's channel topology
func (c *BoardConfig) Decoder() protocol.Decoder {
	return protocol.NewDecoder(len(c.Main), len(c.Sub), c.Drive.DutyMax)
}

// StartupDelay returns the wait before the power gate is considered
func (c *BoardConfig) StartupDelay() time.Duration {
	return time.Duration(c.PowerGate.StartupDelayMs) * time.Millisecond
}

// PollInterval returns the power gate polling period
func (c *BoardConfig) PollInterval() time.Duration {
	return time.Duration(c.PowerGate.PollMs) * time.Millisecond
}
