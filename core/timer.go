package core

import "time"

// Clock is a monotonic microsecond time source.
type Clock interface {
	NowMicros() uint64
}

// SystemClock measures microseconds since it was created.
type SystemClock struct {
	boot time.Time
}

// NewSystemClock starts a clock at zero
func NewSystemClock() *SystemClock {
	return &SystemClock{boot: time.Now()}
}

// NowMicros returns microseconds since the clock was created
func (c *SystemClock) NowMicros() uint64 {
	return uint64(time.Since(c.boot) / time.Microsecond)
}
