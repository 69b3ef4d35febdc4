package protocol

import "errors"

// Bench-link frame layout:
//
//	0x7E | len | payload[len] | crc16 lo | crc16 hi
//
// The CRC covers len and payload. The link only exists so a PC can stand in
// for the SPI master; the SPI path carries bare payloads.

var (
	ErrPayloadTooLarge = errors.New("link payload too large")
	ErrBufferTooSmall  = errors.New("link buffer too small")
)

// EncodeLink wraps payload into dst and returns the number of bytes written.
func EncodeLink(dst []byte, payload []byte) (int, error) {
	if len(payload) > LinkMaxPayload {
		return 0, ErrPayloadTooLarge
	}
	n := LinkHeader + len(payload) + LinkTrailer
	if len(dst) < n {
		return 0, ErrBufferTooSmall
	}
	dst[0] = LinkSync
	dst[1] = byte(len(payload))
	copy(dst[LinkHeader:], payload)
	crc := CRC16(dst[1 : LinkHeader+len(payload)])
	dst[n-2] = byte(crc & 0xFF)
	dst[n-1] = byte(crc >> 8)
	return n, nil
}

// AppendLink appends a wrapped payload to dst.
func AppendLink(dst []byte, payload []byte) ([]byte, error) {
	var tmp [LinkMax]byte
	n, err := EncodeLink(tmp[:], payload)
	if err != nil {
		return dst, err
	}
	return append(dst, tmp[:n]...), nil
}

// Link reader states
const (
	linkWaitSync = iota
	linkWaitLen
	linkPayload
	linkCRCLow
	linkCRCHigh
)

// LinkReader reassembles bench-link frames from a byte stream.
// It resynchronises on the next sync byte after any CRC or length error.
type LinkReader struct {
	state    uint8
	length   int
	pos      int
	crcLow   byte
	buf      [LinkMaxPayload]byte
	expected int // required payload length, 0 accepts any

	Frames   uint32 // Frames accepted
	CRCFails uint32 // Frames dropped on CRC mismatch
	LenFails uint32 // Frames dropped on length mismatch
}

// NewLinkReader creates a reader. A non-zero expected length rejects frames
// whose payload is not exactly that size.
func NewLinkReader(expected int) *LinkReader {
	return &LinkReader{expected: expected}
}

// Reset drops any partially received frame
func (r *LinkReader) Reset() {
	r.state = linkWaitSync
	r.length = 0
	r.pos = 0
}

// Feed consumes one byte. When a complete, valid frame ends on this byte it
// returns the payload, which stays valid until the next call to Feed.
func (r *LinkReader) Feed(b byte) ([]byte, bool) {
	switch r.state {
	case linkWaitSync:
		if b == LinkSync {
			r.state = linkWaitLen
		}

	case linkWaitLen:
		n := int(b)
		if n > LinkMaxPayload || (r.expected != 0 && n != r.expected) {
			r.LenFails++
			r.Reset()
			if b == LinkSync {
				r.state = linkWaitLen
			}
			return nil, false
		}
		r.length = n
		r.pos = 0
		if n == 0 {
			r.state = linkCRCLow
		} else {
			r.state = linkPayload
		}

	case linkPayload:
		r.buf[r.pos] = b
		r.pos++
		if r.pos == r.length {
			r.state = linkCRCLow
		}

	case linkCRCLow:
		r.crcLow = b
		r.state = linkCRCHigh

	case linkCRCHigh:
		got := uint16(b)<<8 | uint16(r.crcLow)
		r.state = linkWaitSync
		if got != r.crc() {
			r.CRCFails++
			return nil, false
		}
		r.Frames++
		return r.buf[:r.length], true
	}
	return nil, false
}

func (r *LinkReader) crc() uint16 {
	var tmp [1 + LinkMaxPayload]byte
	tmp[0] = byte(r.length)
	copy(tmp[1:], r.buf[:r.length])
	return CRC16(tmp[:1+r.length])
}
