package core

import (
	"context"
	"time"
)

// PowerGate withholds the power-stage enable output until a secondary
// supply reading exceeds a threshold, so motors restarting into a sagging
// supply cannot re-trigger a brownout. The output is asserted once.
type PowerGate struct {
	gpio      GPIODriver
	pin       GPIOPin
	monitor   *VoltageMonitor // nil asserts without waiting
	threshold float32
	poll      time.Duration

	open bool
	last float32
}

// NewPowerGate creates a gate. A nil monitor disables the voltage check.
func NewPowerGate(gpio GPIODriver, pin GPIOPin, monitor *VoltageMonitor, threshold float32, poll time.Duration) *PowerGate {
	return &PowerGate{
		gpio:      gpio,
		pin:       pin,
		monitor:   monitor,
		threshold: threshold,
		poll:      poll,
	}
}

// Configure drives the enable output low.
func (g *PowerGate) Configure() error {
	if err := g.gpio.ConfigureOutput(g.pin); err != nil {
		return err
	}
	return g.gpio.SetPin(g.pin, false)
}

// Open blocks until the supply is above the threshold, then asserts the
// enable output. Calling Open again after success does nothing.
func (g *PowerGate) Open(ctx context.Context) error {
	if g.open {
		return nil
	}

	if g.monitor != nil {
		ticker := time.NewTicker(g.poll)
		defer ticker.Stop()

		for {
			g.last = g.monitor.Sample(false)
			if g.last > g.threshold {
				break
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		}
		DebugPrintln("power gate: supply=" + Ftoa(g.last))
	}

	if err := g.gpio.SetPin(g.pin, true); err != nil {
		return err
	}
	g.open = true
	return nil
}

// IsOpen reports whether the enable output has been asserted
func (g *PowerGate) IsOpen() bool {
	return g.open
}

// LastReading returns the last voltage seen while waiting
func (g *PowerGate) LastReading() float32 {
	return g.last
}
