//go:build rp2040

package main

import (
	"runtime/volatile"
	"unsafe"
)

// Raw (non-latching) views of the 1 MHz system timer
var (
	timerRawHigh = (*volatile.Register32)(unsafe.Pointer(uintptr(0x40054024)))
	timerRawLow  = (*volatile.Register32)(unsafe.Pointer(uintptr(0x40054028)))
)

// HardwareClock is the monotonic clock used for solenoid dwell. The timer
// counts from reset and does not stop during sleeps.
type HardwareClock struct{}

// NowMicros returns microseconds since reset. The high word is sampled on
// both sides of the low word; a mismatch means the low word wrapped.
func (HardwareClock) NowMicros() uint64 {
	hi := timerRawHigh.Get()
	for {
		lo := timerRawLow.Get()
		next := timerRawHigh.Get()
		if next == hi {
			return uint64(hi)<<32 | uint64(lo)
		}
		hi = next
	}
}
