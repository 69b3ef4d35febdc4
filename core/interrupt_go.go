//go:build !tinygo

package core

import "sync"

// State is a placeholder for interrupt state on regular Go
type State uintptr

// irqMu stands in for the interrupt mask when running on a host, where
// frame producers are ordinary goroutines.
var irqMu sync.Mutex

// disableInterrupts enters the critical section
func disableInterrupts() State {
	irqMu.Lock()
	return 0
}

// restoreInterrupts leaves the critical section
func restoreInterrupts(state State) {
	irqMu.Unlock()
}
