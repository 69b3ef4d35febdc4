package serial

import "io"

// Port carries bench-link frames to a board and its debug text back.
// NativePort talks to a real device; MemPort stays in memory.
type Port interface {
	io.ReadWriteCloser

	// Flush drops input the board sent before we were listening
	Flush() error
}

// Config selects a device and its read behaviour
type Config struct {
	Device      string // e.g. /dev/ttyACM0 or COM3
	Baud        int    // ignored by USB CDC, kept for USB-UART bridges
	ReadTimeout int    // milliseconds; 0 blocks
}

// DefaultConfig returns settings for the board's USB CDC link
func DefaultConfig(device string) *Config {
	return &Config{Device: device, Baud: 115200, ReadTimeout: 100}
}
