// Package board is the host side of the bench link: it keeps the frame the
// board should be executing and sends it, wrapped for the USB link, whenever
// a channel changes.
package board

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"cubicdrive/host/serial"
	"cubicdrive/protocol"
)

var (
	ErrChannel = errors.New("channel index out of range")
	ErrDuty    = errors.New("duty out of range")
)

// Board holds the commanded state of every channel
type Board struct {
	mu    sync.Mutex
	port  serial.Port
	dec   protocol.Decoder
	frame protocol.Frame
	out   []byte

	sent uint32
}

// New creates a client on an open port. All channels start at duty 0.
func New(port serial.Port, dec protocol.Decoder) *Board {
	return &Board{
		port:  port,
		dec:   dec,
		frame: dec.NewFrame(),
		out:   make([]byte, 0, protocol.LinkMax),
	}
}

// Connect opens device and creates a client for it
func Connect(device string, dec protocol.Decoder) (*Board, error) {
	port, err := serial.Open(serial.DefaultConfig(device))
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	if err := port.Flush(); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to flush %s: %w", device, err)
	}
	return New(port, dec), nil
}

// Close closes the port
func (b *Board) Close() error {
	return b.port.Close()
}

// Port returns the underlying port, for reading board debug output
func (b *Board) Port() serial.Port {
	return b.port
}

// Decoder returns the channel topology
func (b *Board) Decoder() protocol.Decoder {
	return b.dec
}

// Sent returns the number of frames written
func (b *Board) Sent() uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sent
}

// Frame returns a copy of the commanded frame
func (b *Board) Frame() protocol.Frame {
	b.mu.Lock()
	defer b.mu.Unlock()

	f := b.dec.NewFrame()
	copy(f.Main, b.frame.Main)
	copy(f.Sub, b.frame.Sub)
	return f
}

func (b *Board) checkDuty(duty int16) error {
	if int32(duty) > b.dec.DutyMax || int32(duty) < -b.dec.DutyMax {
		return fmt.Errorf("%w: %d exceeds ±%d", ErrDuty, duty, b.dec.DutyMax)
	}
	return nil
}

// SetMain sets main channel ch and sends the frame
func (b *Board) SetMain(ch int, duty int16) error {
	if ch < 0 || ch >= b.dec.MainChannels {
		return fmt.Errorf("%w: main %d", ErrChannel, ch)
	}
	if err := b.checkDuty(duty); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.frame.Main[ch] = duty
	return b.sendLocked()
}

// SetSub puts sub channel ch in motor mode at duty and sends the frame
func (b *Board) SetSub(ch int, duty int16) error {
	if ch < 0 || ch >= b.dec.SubChannels {
		return fmt.Errorf("%w: sub %d", ErrChannel, ch)
	}
	if err := b.checkDuty(duty); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.frame.Sub[ch] = protocol.MotorTarget(duty)
	return b.sendLocked()
}

// SetSolenoid puts sub channel ch in solenoid mode and sends the frame
func (b *Board) SetSolenoid(ch int, on bool) error {
	if ch < 0 || ch >= b.dec.SubChannels {
		return fmt.Errorf("%w: sub %d", ErrChannel, ch)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.frame.Sub[ch] = protocol.SolenoidTarget(on)
	return b.sendLocked()
}

// Stop sets every motor to duty 0. Solenoids keep their commanded state.
func (b *Board) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range b.frame.Main {
		b.frame.Main[i] = 0
	}
	for i, c := range b.frame.Sub {
		if c.Kind == protocol.SubMotor {
			b.frame.Sub[i] = protocol.MotorTarget(0)
		}
	}
	return b.sendLocked()
}

// SendDuties sends raw wire values for every channel, mains first. Values
// are not range checked so the sentinel can be sent directly.
func (b *Board) SendDuties(duties []int16) error {
	n := b.dec.MainChannels + b.dec.SubChannels
	if len(duties) != n {
		return fmt.Errorf("%w: got %d values, board has %d channels", ErrChannel, len(duties), n)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.dec.Decode(protocol.EncodeDuties(duties), &b.frame)
	return b.sendLocked()
}

// Resend writes the current frame again
func (b *Board) Resend() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sendLocked()
}

func (b *Board) sendLocked() error {
	out, err := protocol.AppendLink(b.out[:0], b.dec.Encode(b.frame))
	if err != nil {
		return err
	}
	b.out = out
	if _, err := b.port.Write(out); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	b.sent++
	return nil
}

// Ramp moves a channel linearly to target, sending one frame per period.
// set is SetMain or SetSub.
func (b *Board) Ramp(ctx context.Context, set func(int, int16) error, ch int, from, to int16, step int16, period time.Duration) error {
	if step <= 0 {
		return fmt.Errorf("%w: ramp step must be positive", ErrDuty)
	}

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	cur := int32(from)
	for {
		if err := set(ch, int16(cur)); err != nil {
			return err
		}
		if cur == int32(to) {
			return nil
		}
		if cur < int32(to) {
			cur = min(cur+int32(step), int32(to))
		} else {
			cur = max(cur-int32(step), int32(to))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
