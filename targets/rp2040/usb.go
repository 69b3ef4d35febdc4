//go:build rp2040

package main

import (
	"machine"
	"time"

	"cubicdrive/core"
	"cubicdrive/protocol"
)

var (
	linkReader *protocol.LinkReader
	usbErrors  uint32
)

// InitUSB initializes USB serial communication
// On RP2040, machine.Serial is USB CDC, not UART
func InitUSB() {
	err := machine.Serial.Configure(machine.UARTConfig{})
	if err != nil {
		return
	}
}

// usbLinkLoop feeds bench-link frames from USB into the frame buffer.
// It runs alongside the SPI receiver; whichever delivered last wins.
func usbLinkLoop(frames *core.FrameBuffer) {
	// Recover from panics to prevent a firmware crash
	defer func() {
		if r := recover(); r != nil {
			usbErrors++
			time.Sleep(100 * time.Millisecond)
			go usbLinkLoop(frames)
		}
	}()

	if linkReader == nil {
		linkReader = protocol.NewLinkReader(frames.Size())
	}
	linkReader.Reset()

	for {
		for machine.Serial.Buffered() > 0 {
			b, err := machine.Serial.ReadByte()
			if err != nil {
				usbErrors++
				break
			}
			if payload, ok := linkReader.Feed(b); ok {
				frames.Publish(payload)
			}
		}
		// Yield to avoid a busy loop
		time.Sleep(100 * time.Microsecond)
	}
}

// usbDebugWriter sends debug lines over USB CDC
func usbDebugWriter(s string) {
	machine.Serial.Write([]byte(s))
	machine.Serial.Write([]byte("\r\n"))
}
