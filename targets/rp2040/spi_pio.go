//go:build rp2040

package main

// SPI slave receiver on PIO.
// TinyGo's machine.SPI only runs as master, and the RP2040 hardware SPI in
// slave mode drives SOMI low even while SS is high, so command frames are
// shifted in by a PIO state machine instead.

import (
	"machine"
	"time"

	"cubicdrive/config"
	"cubicdrive/core"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"
)

// WAIT instruction fields, encoded by hand because the pin indices are only
// known at runtime
const (
	pioWait         = 0x2000
	pioWaitPolarity = 0x0080 // wait for 1 instead of 0
	pioWaitSrcGPIO  = 0x0000 // absolute GPIO number
)

func waitGPIO(high bool, pin uint8) uint16 {
	instr := uint16(pioWait | pioWaitSrcGPIO | uint16(pin&0x1F))
	if high {
		instr |= pioWaitPolarity
	}
	return instr
}

// buildSPIRxProgram samples SIMO on each rising SCLK edge while SS is low
// (SPI mode 0). Autopush delivers one byte per RX FIFO entry.
func buildSPIRxProgram(ss, sclk uint8) []uint16 {
	asm := rp2pio.AssemblerV0{SidesetBits: 0}
	return []uint16{
		// .wrap_target
		waitGPIO(false, ss),                  // 0: wait 0 gpio ss
		waitGPIO(false, sclk),                // 1: wait 0 gpio sclk
		waitGPIO(true, sclk),                 // 2: wait 1 gpio sclk
		asm.In(rp2pio.InSrcPins, 1).Encode(), // 3: in pins, 1
		// .wrap
	}
}

const spiRxOrigin = 0

// SPIReceiver assembles fixed-size command frames from the PIO RX FIFO and
// publishes each complete frame. A transfer that ends early is discarded.
type SPIReceiver struct {
	pio  *rp2pio.PIO
	sm   rp2pio.StateMachine
	simo machine.Pin
	ss   machine.Pin
	sclk machine.Pin
	somi machine.Pin

	buf []byte
	n   int

	Frames  uint32
	Partial uint32
}

// NewSPIReceiver creates a receiver on PIO pioNum, state machine smNum
func NewSPIReceiver(pioNum, smNum uint8, pins config.SPIConfig, frameSize int) *SPIReceiver {
	pioHW := rp2pio.PIO0
	if pioNum != 0 {
		pioHW = rp2pio.PIO1
	}
	return &SPIReceiver{
		pio:  pioHW,
		sm:   pioHW.StateMachine(smNum),
		simo: machine.Pin(pins.SIMO),
		ss:   machine.Pin(pins.SS),
		sclk: machine.Pin(pins.SCLK),
		somi: machine.Pin(pins.SOMI),
		buf:  make([]byte, frameSize),
	}
}

// Init loads the program and starts the state machine
func (r *SPIReceiver) Init() error {
	r.sm.TryClaim()

	program := buildSPIRxProgram(uint8(r.ss), uint8(r.sclk))
	offset, err := r.pio.AddProgram(program, spiRxOrigin)
	if err != nil {
		return err
	}

	// PIO reads pad inputs regardless of pin function, so plain inputs do.
	// SOMI stays high impedance; the board never answers.
	r.simo.Configure(machine.PinConfig{Mode: machine.PinInput})
	r.sclk.Configure(machine.PinConfig{Mode: machine.PinInput})
	r.ss.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	r.somi.Configure(machine.PinConfig{Mode: machine.PinInput})

	cfg := rp2pio.DefaultStateMachineConfig()
	cfg.SetInPins(r.simo)

	// Shift left so the first bit ends up as the MSB, push every 8 bits
	cfg.SetInShift(false, true, 8)
	cfg.SetWrap(offset+uint8(len(program))-1, offset)
	cfg.SetClkDivIntFrac(1, 0)

	r.sm.Init(offset, cfg)
	r.sm.SetEnabled(true)
	return nil
}

func (r *SPIReceiver) drain(frames *core.FrameBuffer) {
	for !r.sm.IsRxFIFOEmpty() {
		r.buf[r.n] = byte(r.sm.RxGet())
		r.n++
		if r.n == len(r.buf) {
			frames.Publish(r.buf)
			r.Frames++
			r.n = 0
		}
	}
}

// Poll moves received bytes into frames. It must be called faster than the
// RX FIFO (4 bytes) fills at the master's clock rate.
func (r *SPIReceiver) Poll(frames *core.FrameBuffer) {
	r.drain(frames)

	if r.n == 0 || !r.ss.Get() {
		return
	}

	// Deselected mid-frame: collect anything pushed before SS rose, then
	// drop the remainder and realign the shift counter.
	r.drain(frames)
	if r.n != 0 {
		r.Partial++
		r.n = 0
		r.resync()
	}
}

func (r *SPIReceiver) resync() {
	r.sm.SetEnabled(false)
	r.sm.ClearFIFOs()
	r.sm.Restart()
	r.sm.SetEnabled(true)
}

// Run polls forever
func (r *SPIReceiver) Run(frames *core.FrameBuffer) {
	for {
		r.Poll(frames)
		time.Sleep(20 * time.Microsecond)
	}
}
