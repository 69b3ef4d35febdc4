package protocol

import "testing"

func feedAll(r *LinkReader, data []byte) [][]byte {
	var frames [][]byte
	for _, b := range data {
		if payload, ok := r.Feed(b); ok {
			frames = append(frames, append([]byte(nil), payload...))
		}
	}
	return frames
}

func TestLinkRoundTrip(t *testing.T) {
	payload := EncodeDuties([]int16{100, -100, 32767})

	wire, err := AppendLink(nil, payload)
	if err != nil {
		t.Fatalf("AppendLink failed: %v", err)
	}
	if len(wire) != LinkHeader+len(payload)+LinkTrailer {
		t.Fatalf("Unexpected wire length %d", len(wire))
	}
	if wire[0] != LinkSync || int(wire[1]) != len(payload) {
		t.Errorf("Bad header: %v", wire[:2])
	}

	r := NewLinkReader(len(payload))
	frames := feedAll(r, wire)
	if len(frames) != 1 {
		t.Fatalf("Expected 1 frame, got %d", len(frames))
	}
	if string(frames[0]) != string(payload) {
		t.Errorf("Payload mismatch: %v vs %v", frames[0], payload)
	}
}

func TestLinkResyncAfterGarbage(t *testing.T) {
	payload := []byte{1, 2, 3, 4}
	wire, _ := AppendLink(nil, payload)

	stream := append([]byte{0x00, 0x13, 0x37}, wire...)
	stream = append(stream, wire...)

	r := NewLinkReader(0)
	frames := feedAll(r, stream)
	if len(frames) != 2 {
		t.Fatalf("Expected 2 frames, got %d", len(frames))
	}
}

func TestLinkCRCMismatch(t *testing.T) {
	payload := []byte{9, 8, 7, 6}
	wire, _ := AppendLink(nil, payload)
	wire[3] ^= 0x01

	r := NewLinkReader(0)
	if frames := feedAll(r, wire); len(frames) != 0 {
		t.Fatalf("Corrupt frame accepted: %v", frames)
	}
	if r.CRCFails != 1 {
		t.Errorf("Expected 1 CRC failure, got %d", r.CRCFails)
	}

	// Reader must recover for the next good frame
	good, _ := AppendLink(nil, payload)
	if frames := feedAll(r, good); len(frames) != 1 {
		t.Errorf("Expected recovery, got %d frames", len(frames))
	}
}

func TestLinkRejectsUnexpectedLength(t *testing.T) {
	wire, _ := AppendLink(nil, []byte{1, 2})

	r := NewLinkReader(4)
	if frames := feedAll(r, wire); len(frames) != 0 {
		t.Fatalf("Short frame accepted")
	}
	if r.LenFails != 1 {
		t.Errorf("Expected 1 length failure, got %d", r.LenFails)
	}
}

func TestEncodeLinkErrors(t *testing.T) {
	if _, err := EncodeLink(make([]byte, LinkMax), make([]byte, LinkMaxPayload+1)); err != ErrPayloadTooLarge {
		t.Errorf("Expected ErrPayloadTooLarge, got %v", err)
	}
	if _, err := EncodeLink(make([]byte, 3), []byte{1, 2}); err != ErrBufferTooSmall {
		t.Errorf("Expected ErrBufferTooSmall, got %v", err)
	}
}
