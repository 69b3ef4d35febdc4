package serial

import (
	"bytes"
	"errors"
	"testing"
)

func TestMemPortReadWrite(t *testing.T) {
	p := NewMemPort()

	p.Write([]byte{1, 2})
	p.Write([]byte{3})
	if !bytes.Equal(p.Written(), []byte{1, 2, 3}) {
		t.Errorf("Unexpected written bytes: %v", p.Written())
	}

	buf := make([]byte, 4)
	if n, err := p.Read(buf); n != 0 || err != nil {
		t.Errorf("Expected empty read, got %d, %v", n, err)
	}

	p.Inject([]byte("ok\n"))
	n, _ := p.Read(buf)
	if string(buf[:n]) != "ok\n" {
		t.Errorf("Expected injected bytes, got %q", buf[:n])
	}

	if got := p.TakeWritten(); len(got) != 3 || len(p.Written()) != 0 {
		t.Errorf("TakeWritten did not clear the buffer")
	}
}

func TestMemPortFlushAndClose(t *testing.T) {
	p := NewMemPort()
	p.Inject([]byte("stale"))
	p.Flush()

	if n, _ := p.Read(make([]byte, 8)); n != 0 {
		t.Errorf("Expected flushed input, got %d bytes", n)
	}

	p.Close()
	if _, err := p.Write([]byte{1}); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
	if !p.Closed() {
		t.Error("Expected Closed() true")
	}
}

func TestOpenNilConfig(t *testing.T) {
	if _, err := Open(nil); !errors.Is(err, ErrNilConfig) {
		t.Errorf("Expected ErrNilConfig, got %v", err)
	}
}
