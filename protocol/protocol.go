// Package protocol implements the command frame layout shared by the board
// firmware and its host tools, plus the USB bench-link framing.
package protocol

// Version represents the cubicdrive firmware version
const Version = "0.3.0"

// Frame constants
const (
	BytesPerChannel = 2     // Each channel is one little-endian int16
	DefaultDutyMax  = 32766 // Full-scale duty magnitude of the reference board
	MaxChannels     = 32    // Upper bound used to size fixed buffers
)

// Bench-link constants
const (
	LinkSync       = 0x7E                            // Start-of-frame marker
	LinkHeader     = 2                               // sync + length
	LinkTrailer    = 2                               // CRC16, low byte first
	LinkMaxPayload = MaxChannels * BytesPerChannel   // Largest command frame
	LinkMax        = LinkHeader + LinkMaxPayload + LinkTrailer
)
