//go:build tinygo

package core

import "runtime/interrupt"

// disableInterrupts masks interrupts so an IRQ-driven frame producer cannot
// flip the handoff slots mid-copy. Returns the previous state.
func disableInterrupts() interrupt.State {
	return interrupt.Disable()
}

// restoreInterrupts restores the interrupt state
func restoreInterrupts(state interrupt.State) {
	interrupt.Restore(state)
}
