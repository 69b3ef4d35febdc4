package serial

import (
	"bytes"
	"errors"
	"sync"
)

var ErrClosed = errors.New("serial: port closed")

// MemPort is an in-memory Port used by tests and the host tool's dry-run
// mode. Writes are recorded; reads return bytes queued with Inject.
type MemPort struct {
	mu     sync.Mutex
	tx     bytes.Buffer
	rx     bytes.Buffer
	closed bool

	// WriteErr, when set, fails every Write
	WriteErr error
}

// NewMemPort creates an open in-memory port
func NewMemPort() *MemPort {
	return &MemPort{}
}

// Read returns injected bytes. It returns 0, nil when nothing is queued,
// like a serial read timing out.
func (p *MemPort) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, ErrClosed
	}
	if p.rx.Len() == 0 {
		return 0, nil
	}
	return p.rx.Read(b)
}

// Write records b
func (p *MemPort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, ErrClosed
	}
	if p.WriteErr != nil {
		return 0, p.WriteErr
	}
	return p.tx.Write(b)
}

// Close marks the port closed
func (p *MemPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// Flush drops queued input
func (p *MemPort) Flush() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rx.Reset()
	return nil
}

// Inject queues bytes for Read
func (p *MemPort) Inject(b []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rx.Write(b)
}

// Written returns a copy of everything written so far
func (p *MemPort) Written() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]byte(nil), p.tx.Bytes()...)
}

// TakeWritten returns and clears everything written so far
func (p *MemPort) TakeWritten() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := append([]byte(nil), p.tx.Bytes()...)
	p.tx.Reset()
	return out
}

// Closed reports whether Close was called
func (p *MemPort) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}
