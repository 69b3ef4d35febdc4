package core

// FrameSource yields the newest complete command frame.
type FrameSource interface {
	// Latest copies the newest frame into dst and returns its sequence
	// number. ok is false until the first frame has been published.
	Latest(dst []byte) (seq uint32, ok bool)
}

// FrameBuffer is a double-buffered, latest-wins handoff between frame
// producers (SPI and USB receivers, possibly interrupt driven) and the
// control loop. A producer fills the back slot and flips the front index
// inside one critical section; the reader copies the front slot inside the
// same critical section, so it never observes a torn frame.
type FrameBuffer struct {
	slots [2][]byte
	front uint8
	seq   uint32
	drops uint32
}

// NewFrameBuffer creates a handoff for frames of exactly size bytes
func NewFrameBuffer(size int) *FrameBuffer {
	return &FrameBuffer{
		slots: [2][]byte{make([]byte, size), make([]byte, size)},
	}
}

// Size returns the frame length accepted by Publish
func (b *FrameBuffer) Size() int {
	return len(b.slots[0])
}

// Publish makes frame the newest frame. Any number of producers may call
// Publish concurrently. Frames of the wrong length are counted and dropped.
func (b *FrameBuffer) Publish(frame []byte) bool {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	if len(frame) != len(b.slots[0]) {
		b.drops++
		return false
	}

	// Frames are at most 64 bytes; the copy stays inside the mask
	back := 1 - b.front
	copy(b.slots[back], frame)
	b.front = back
	b.seq++
	return true
}

// Latest implements FrameSource
func (b *FrameBuffer) Latest(dst []byte) (uint32, bool) {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	if b.seq == 0 {
		return 0, false
	}
	copy(dst, b.slots[b.front])
	return b.seq, true
}

// Drops returns the number of rejected frames
func (b *FrameBuffer) Drops() uint32 {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	return b.drops
}
