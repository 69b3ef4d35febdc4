//go:build rp2040

package main

import (
	"context"
	"machine"
	"time"

	"cubicdrive/config"
	"cubicdrive/core"
	"cubicdrive/supply"
)

const (
	spiPIO = 0
	spiSM  = 0

	ina260BusHz = 400000
)

func main() {
	// CRITICAL: Disable watchdog on boot to clear any previous state
	err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})
	if err != nil {
		return
	}

	InitUSB()

	cfg := config.DefaultBoardConfig()
	if err := cfg.Validate(); err != nil {
		fatal("config", err)
	}

	core.SetDebugEnabled(cfg.Debug)
	if cfg.Debug {
		core.SetDebugWriter(usbDebugWriter)
		core.InitAsyncDebug()
	}

	clock := HardwareClock{}
	pwm := NewRP2040PWMDriver()
	gpio := NewRPGPIODriver()
	adc := NewRPAdcDriver()
	params := cfg.DriveParams()

	supplyADC := core.ADCChannel{Driver: adc, Channel: ADCChannelForPin(cfg.Voltage.ADCPin)}
	if err := supplyADC.Configure(); err != nil {
		fatal("adc", err)
	}
	volt := core.NewVoltageMonitor(supplyADC, cfg.VScale(), cfg.Voltage.VMin, cfg.Voltage.Retention)

	var mains []*core.MainChannel
	for _, pins := range cfg.MainPins() {
		mains = append(mains, core.NewMainChannel(pwm, gpio, pins, params))
	}
	var subs []*core.SubChannel
	for i, pins := range cfg.SubPins() {
		subs = append(subs, core.NewSubChannel(uint8(len(mains)+i), pwm, clock, pins, params))
	}

	frames := core.NewFrameBuffer(cfg.Decoder().Size())
	ctrl := core.NewController(cfg.CycleConfig(), volt, mains, subs, frames, clock)
	if err := ctrl.Configure(); err != nil {
		fatal("actuators", err)
	}

	gate := newPowerGate(cfg, gpio, supplyADC)
	if err := gate.Configure(); err != nil {
		fatal("power gate", err)
	}

	// Start receiving before the startup delay so the first frame is
	// already waiting when the loop starts
	rx := NewSPIReceiver(spiPIO, spiSM, cfg.SPI, frames.Size())
	if err := rx.Init(); err != nil {
		fatal("spi", err)
	}
	go rx.Run(frames)

	if cfg.USBLink {
		go usbLinkLoop(frames)
	}

	// Let the bulk capacitors charge
	time.Sleep(cfg.StartupDelay())

	if err := gate.Open(context.Background()); err != nil {
		fatal("power gate", err)
	}
	core.DebugPrintln("cubicdrive: running, frame=" + core.Itoa(frames.Size()) + " bytes")

	if cfg.Debug {
		go statsLoop(ctrl, rx)
	}

	for {
		runControl(ctrl)
	}
}

// newPowerGate picks the gate's voltage source from the configuration
func newPowerGate(cfg *config.BoardConfig, gpio core.GPIODriver, supplyADC core.ADCChannel) *core.PowerGate {
	var mon *core.VoltageMonitor

	switch cfg.PowerGate.Source {
	case config.GateSupply:
		mon = core.NewVoltageMonitor(supplyADC, cfg.VScale(), 0, 0)

	case config.GateINA260:
		bus, err := configureI2C(cfg.PowerGate.SDA, cfg.PowerGate.SCL, ina260BusHz)
		if err != nil {
			fatal("i2c", err)
		}
		sensor := supply.NewINA260(bus, cfg.PowerGate.I2CAddress)
		if err := sensor.Probe(); err != nil {
			fatal("ina260", err)
		}
		mon = core.NewVoltageMonitor(sensor, supply.INA260Scale, 0, 0)
	}

	return core.NewPowerGate(gpio, core.GPIOPin(cfg.PowerGate.Pin), mon, cfg.PowerGate.Threshold, cfg.PollInterval())
}

// runControl runs the control loop, recovering from panics so the board
// keeps actuating on the last frame
func runControl(ctrl *core.Controller) {
	defer func() {
		if r := recover(); r != nil {
			core.DebugPrintln("control loop panic, restarting")
			core.DumpEventRing()
		}
	}()
	ctrl.Run(context.Background())
}

// statsLoop reports loop counters once a second
func statsLoop(ctrl *core.Controller, rx *SPIReceiver) {
	var faults uint32
	for {
		time.Sleep(time.Second)
		st := ctrl.Stats()
		core.DebugAsync(st.String() +
			" spi=" + core.Utoa(rx.Frames) +
			" partial=" + core.Utoa(rx.Partial) +
			" usb=" + core.Utoa(usbErrors))
		if st.WriteFaults != faults {
			faults = st.WriteFaults
			core.DumpEventRing()
		}
	}
}

// fatal reports a startup failure and resets through the watchdog.
// The power stage stays disabled.
func fatal(stage string, err error) {
	core.SetDebugWriter(usbDebugWriter)
	core.SetDebugEnabled(true)
	core.DebugPrintln("cubicdrive: " + stage + ": " + err.Error())
	time.Sleep(time.Second)

	// Use watchdog reset instead of ARM SYSRESETREQ
	// This is more reliable on RP2040 and handles USB re-enumeration better
	if err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 1}); err != nil {
		return
	}
	if err := machine.Watchdog.Start(); err != nil {
		return
	}
	for {
		time.Sleep(1 * time.Millisecond)
	}
}
