package core

import (
	"sync"
	"testing"
)

func TestFrameBufferEmpty(t *testing.T) {
	fb := NewFrameBuffer(4)
	dst := make([]byte, 4)

	if _, ok := fb.Latest(dst); ok {
		t.Error("Expected no frame before first publish")
	}
}

func TestFrameBufferLatestWins(t *testing.T) {
	fb := NewFrameBuffer(4)
	dst := make([]byte, 4)

	fb.Publish([]byte{1, 1, 1, 1})
	fb.Publish([]byte{2, 2, 2, 2})

	seq, ok := fb.Latest(dst)
	if !ok {
		t.Fatal("Expected a frame")
	}
	if seq != 2 {
		t.Errorf("Expected seq 2, got %d", seq)
	}
	if dst[0] != 2 || dst[3] != 2 {
		t.Errorf("Expected newest frame, got %v", dst)
	}

	// Reading again returns the same frame and sequence
	seq2, _ := fb.Latest(dst)
	if seq2 != seq {
		t.Errorf("Sequence changed without publish: %d -> %d", seq, seq2)
	}
}

func TestFrameBufferCopiesInput(t *testing.T) {
	fb := NewFrameBuffer(2)
	src := []byte{5, 6}
	fb.Publish(src)
	src[0] = 99

	dst := make([]byte, 2)
	fb.Latest(dst)
	if dst[0] != 5 {
		t.Errorf("Published frame aliased caller buffer: %v", dst)
	}
}

func TestFrameBufferRejectsWrongSize(t *testing.T) {
	fb := NewFrameBuffer(4)

	if fb.Publish([]byte{1, 2, 3}) {
		t.Error("Expected short frame to be rejected")
	}
	if fb.Publish([]byte{1, 2, 3, 4, 5}) {
		t.Error("Expected long frame to be rejected")
	}
	if fb.Drops() != 2 {
		t.Errorf("Expected 2 drops, got %d", fb.Drops())
	}
	if _, ok := fb.Latest(make([]byte, 4)); ok {
		t.Error("Rejected frames must not become visible")
	}
}

func TestFrameBufferNoTornFrames(t *testing.T) {
	const size = 64
	const rounds = 5000

	fb := NewFrameBuffer(size)
	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()
		frame := make([]byte, size)
		for k := 0; k < rounds; k++ {
			for i := range frame {
				frame[i] = byte(k)
			}
			fb.Publish(frame)
		}
	}()

	dst := make([]byte, size)
	var lastSeq uint32
	for i := 0; i < rounds; i++ {
		seq, ok := fb.Latest(dst)
		if !ok {
			continue
		}
		if seq < lastSeq {
			t.Fatalf("Sequence went backwards: %d -> %d", lastSeq, seq)
		}
		lastSeq = seq
		for j := 1; j < size; j++ {
			if dst[j] != dst[0] {
				t.Fatalf("Torn frame at byte %d: %d vs %d", j, dst[j], dst[0])
			}
		}
	}
	wg.Wait()
}

func TestFrameBufferTwoProducers(t *testing.T) {
	const size = 24
	const rounds = 5000

	fb := NewFrameBuffer(size)
	var wg sync.WaitGroup

	// SPI and USB receivers publish into the same buffer
	for p := 0; p < 2; p++ {
		wg.Add(1)
		go func(base byte) {
			defer wg.Done()
			frame := make([]byte, size)
			for k := 0; k < rounds; k++ {
				for i := range frame {
					frame[i] = base + byte(k%100)
				}
				fb.Publish(frame)
			}
		}(byte(p * 100))
	}

	dst := make([]byte, size)
	for i := 0; i < rounds; i++ {
		if _, ok := fb.Latest(dst); !ok {
			continue
		}
		for j := 1; j < size; j++ {
			if dst[j] != dst[0] {
				t.Fatalf("Torn frame at byte %d: %d vs %d", j, dst[j], dst[0])
			}
		}
	}
	wg.Wait()

	seq, _ := fb.Latest(dst)
	if seq != 2*rounds {
		t.Errorf("Expected seq %d, got %d", 2*rounds, seq)
	}
}
