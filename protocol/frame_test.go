package protocol

import "testing"

func TestDutyRoundTripAllValues(t *testing.T) {
	buf := make([]byte, 2)
	for v := -32768; v <= 32767; v++ {
		buf[0] = byte(v & 0xFF)
		buf[1] = byte((v >> 8) & 0xFF)
		if got := DutyAt(buf, 0); int(got) != v {
			t.Fatalf("DutyAt(%v) = %d, expected %d", buf, got, v)
		}
	}
}

func TestDutyAtByteOrder(t *testing.T) {
	// Low byte first, high byte second
	buf := []byte{0x34, 0x12, 0xFF, 0xFF, 0x00, 0x80}

	expected := []int16{0x1234, -1, -32768}
	out := make([]int16, 3)
	DecodeDuties(buf, out)

	for i := range expected {
		if out[i] != expected[i] {
			t.Errorf("Channel %d: expected %d, got %d", i, expected[i], out[i])
		}
	}
}

func TestEncodeDecodeDuties(t *testing.T) {
	duties := []int16{0, 1, -1, 5000, -5000, 32766, -32766, 32767, -32768}
	buf := EncodeDuties(duties)

	if len(buf) != FrameSize(len(duties)) {
		t.Fatalf("Expected %d bytes, got %d", FrameSize(len(duties)), len(buf))
	}

	out := make([]int16, len(duties))
	DecodeDuties(buf, out)
	for i := range duties {
		if out[i] != duties[i] {
			t.Errorf("Channel %d: expected %d, got %d", i, duties[i], out[i])
		}
	}
}

func TestClassifySub(t *testing.T) {
	testCases := []struct {
		name    string
		value   int16
		dutyMax int32
		kind    SubKind
		on      bool
	}{
		{"zero", 0, 32766, SubMotor, false},
		{"full forward", 32766, 32766, SubMotor, false},
		{"full reverse", -32766, 32766, SubMotor, false},
		{"sentinel on", 32767, 32766, SubSolenoid, true},
		{"sentinel off", -32767, 32766, SubSolenoid, false},
		{"below sentinel", 32765, 32766, SubMotor, false},
		{"most negative", -32768, 32766, SubMotor, false},
		{"small duty max", 1001, 1000, SubSolenoid, true},
		{"small duty max motor", 1002, 1000, SubMotor, false},
	}

	for _, tc := range testCases {
		cmd := ClassifySub(tc.value, tc.dutyMax)
		if cmd.Kind != tc.kind {
			t.Errorf("%s: expected kind %s, got %s", tc.name, tc.kind, cmd.Kind)
			continue
		}
		if cmd.Kind == SubSolenoid && cmd.On != tc.on {
			t.Errorf("%s: expected on=%v, got %v", tc.name, tc.on, cmd.On)
		}
		if cmd.Kind == SubMotor && cmd.Duty != tc.value {
			t.Errorf("%s: expected duty %d, got %d", tc.name, tc.value, cmd.Duty)
		}
	}
}

func TestDecoderFrame(t *testing.T) {
	dec := NewDecoder(2, 3, DefaultDutyMax)
	if dec.Size() != 10 {
		t.Fatalf("Expected frame size 10, got %d", dec.Size())
	}

	in := Frame{
		Main: []int16{1200, -700},
		Sub: []SubCommand{
			MotorTarget(-3000),
			SolenoidTarget(true),
			SolenoidTarget(false),
		},
	}
	buf := dec.Encode(in)

	// Sub channels follow the main channels on the wire
	if got := DutyAt(buf, 3); got != 32767 {
		t.Errorf("Expected solenoid-on sentinel 32767 at channel 3, got %d", got)
	}
	if got := DutyAt(buf, 4); got != -32767 {
		t.Errorf("Expected solenoid-off sentinel -32767 at channel 4, got %d", got)
	}

	out := dec.NewFrame()
	dec.Decode(buf, &out)

	for i := range in.Main {
		if out.Main[i] != in.Main[i] {
			t.Errorf("Main %d: expected %d, got %d", i, in.Main[i], out.Main[i])
		}
	}
	for i := range in.Sub {
		if out.Sub[i] != in.Sub[i] {
			t.Errorf("Sub %d: expected %+v, got %+v", i, in.Sub[i], out.Sub[i])
		}
	}
}

func TestDecoderIgnoresTrailingBytes(t *testing.T) {
	dec := NewDecoder(1, 0, DefaultDutyMax)
	out := dec.NewFrame()
	dec.Decode([]byte{0x10, 0x00, 0xAA, 0xBB}, &out)
	if out.Main[0] != 16 {
		t.Errorf("Expected 16, got %d", out.Main[0])
	}
}
