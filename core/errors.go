package core

import "errors"

var (
	ErrFrameSize  = errors.New("frame size mismatch")
	ErrNoChannels = errors.New("no channels configured")
)

// ChannelError reports a HAL failure on one channel.
type ChannelError struct {
	Channel int
	Op      string
	Err     error
}

func (e *ChannelError) Error() string {
	return "ch" + Itoa(e.Channel) + " " + e.Op + ": " + e.Err.Error()
}

func (e *ChannelError) Unwrap() error { return e.Err }
