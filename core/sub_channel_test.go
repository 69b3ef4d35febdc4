package core

import (
	"testing"

	"cubicdrive/protocol"
)

const (
	pinA = PWMPin(26)
	pinB = PWMPin(27)
)

type subFixture struct {
	sub   *SubChannel
	pwm   *MockPWMDriver
	clock *FakeClock
}

// newTestSub builds a sub channel whose mock driver fails the test if both
// pins are ever away from rest at the same time.
func newTestSub(t *testing.T, p *DriveParams) *subFixture {
	t.Helper()
	f := &subFixture{pwm: NewMockPWMDriver(), clock: &FakeClock{now: 1000000}}
	f.sub = NewSubChannel(8, f.pwm, f.clock, SubPins{A: pinA, B: pinB}, p)
	if err := f.sub.Configure(); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}
	rest := f.sub.RestLevel()
	f.pwm.onSet = func(pin PWMPin, level PWMLevel) {
		if f.pwm.levels[pinA] != rest && f.pwm.levels[pinB] != rest {
			t.Fatalf("Both pins away from rest: A=%d B=%d", f.pwm.levels[pinA], f.pwm.levels[pinB])
		}
	}
	return f
}

func TestSubChannelConfigureRests(t *testing.T) {
	f := newTestSub(t, testParams())

	if f.pwm.levels[pinA] != 125 || f.pwm.levels[pinB] != 125 {
		t.Errorf("Expected both pins at rest 125, got A=%d B=%d", f.pwm.levels[pinA], f.pwm.levels[pinB])
	}
	if f.sub.State() != SolenoidUninit {
		t.Errorf("Expected uninit solenoid state, got %s", f.sub.State())
	}
}

func TestSubMotorInvertedLevel(t *testing.T) {
	p := testParams()
	// Wide enough for a full reversal in one step
	p.DutyDiffMax = 65535
	f := newTestSub(t, p)

	if err := f.sub.MotorDrive(16383, 22.8); err != nil {
		t.Fatalf("MotorDrive failed: %v", err)
	}
	if f.sub.ActiveSide() != SideA {
		t.Errorf("Expected active side A for positive duty, got %s", f.sub.ActiveSide())
	}
	// 125 * (1 - 0.5) = 62.5 rounds to 63
	if f.pwm.levels[pinA] != 63 {
		t.Errorf("Expected A level 63, got %d", f.pwm.levels[pinA])
	}
	if f.pwm.levels[pinB] != 125 {
		t.Errorf("Expected B at rest, got %d", f.pwm.levels[pinB])
	}

	if err := f.sub.MotorDrive(-32766, 22.8); err != nil {
		t.Fatalf("MotorDrive failed: %v", err)
	}
	if f.sub.ActiveSide() != SideB {
		t.Errorf("Expected active side B for negative duty")
	}
	if f.pwm.levels[pinA] != 125 || f.pwm.levels[pinB] != 0 {
		t.Errorf("Expected A rest / B 0, got A=%d B=%d", f.pwm.levels[pinA], f.pwm.levels[pinB])
	}
}

func TestSubMotorDirectPolarity(t *testing.T) {
	p := testParams()
	p.DutyDiffMax = 40000
	p.SubPolarity = PolarityDirect
	f := newTestSub(t, p)

	if f.sub.RestLevel() != 0 {
		t.Fatalf("Expected direct rest level 0, got %d", f.sub.RestLevel())
	}
	f.sub.MotorDrive(32766, 22.8)
	if f.pwm.levels[pinA] != 125 || f.pwm.levels[pinB] != 0 {
		t.Errorf("Expected A=125 B=0, got A=%d B=%d", f.pwm.levels[pinA], f.pwm.levels[pinB])
	}
}

func TestSolenoidDirectPolarity(t *testing.T) {
	p := testParams()
	p.SubPolarity = PolarityDirect
	f := newTestSub(t, p)

	if f.pwm.levels[pinA] != 0 || f.pwm.levels[pinB] != 0 {
		t.Fatalf("Expected both pins at direct rest 0, got A=%d B=%d", f.pwm.levels[pinA], f.pwm.levels[pinB])
	}

	// On drives B to full level and keeps A at rest
	f.sub.SolenoidSwitch(true)
	if f.pwm.levels[pinA] != 0 || f.pwm.levels[pinB] != 125 {
		t.Errorf("Expected A=0 B=125 for on, got A=%d B=%d", f.pwm.levels[pinA], f.pwm.levels[pinB])
	}

	f.clock.Advance(10000)
	f.sub.SolenoidSwitch(false)
	if f.pwm.levels[pinA] != 125 || f.pwm.levels[pinB] != 0 {
		t.Errorf("Expected A=125 B=0 for off, got A=%d B=%d", f.pwm.levels[pinA], f.pwm.levels[pinB])
	}
}

func TestSubMotorReversalMutualExclusion(t *testing.T) {
	f := newTestSub(t, testParams())

	// Sweep forward, reverse, forward with slew limiting in effect;
	// the onSet hook checks exclusion after every single write.
	targets := []int16{3000, -3000, 2000, 0, -500}
	for _, target := range targets {
		for i := 0; i < 200; i++ {
			if err := f.sub.MotorDrive(target, 24.0); err != nil {
				t.Fatalf("MotorDrive failed: %v", err)
			}
		}
		if f.sub.Duty() != target {
			t.Errorf("Expected duty %d, got %d", target, f.sub.Duty())
		}
	}
}

func TestSubMotorIdempotent(t *testing.T) {
	p := testParams()
	p.DutyDiffMax = 40000
	f := newTestSub(t, p)

	f.sub.MotorDrive(1000, 24)
	writes := f.pwm.writes
	f.sub.MotorDrive(1000, 24)
	if f.pwm.writes != writes {
		t.Errorf("Expected no writes on repeated duty, got %d", f.pwm.writes-writes)
	}
}

func TestSolenoidDebounce(t *testing.T) {
	f := newTestSub(t, testParams())

	// First request from uninit is applied immediately
	if err := f.sub.SolenoidSwitch(true); err != nil {
		t.Fatalf("SolenoidSwitch failed: %v", err)
	}
	if f.sub.State() != SolenoidOn {
		t.Fatalf("Expected on, got %s", f.sub.State())
	}
	if f.pwm.levels[pinA] != 125 || f.pwm.levels[pinB] != 0 {
		t.Errorf("Expected on pattern A rest / B low, got A=%d B=%d", f.pwm.levels[pinA], f.pwm.levels[pinB])
	}

	// A different request inside the dwell window is dropped
	f.clock.Advance(9999)
	f.sub.SolenoidSwitch(false)
	if f.sub.State() != SolenoidOn {
		t.Errorf("Request inside dwell must be dropped, state=%s", f.sub.State())
	}
	if f.pwm.levels[pinB] != 0 {
		t.Errorf("Dropped request must not touch outputs")
	}

	// After the dwell the request is applied
	f.clock.Advance(1)
	f.sub.SolenoidSwitch(false)
	if f.sub.State() != SolenoidOff {
		t.Errorf("Expected off after dwell, got %s", f.sub.State())
	}
	if f.pwm.levels[pinA] != 0 || f.pwm.levels[pinB] != 125 {
		t.Errorf("Expected off pattern A low / B rest, got A=%d B=%d", f.pwm.levels[pinA], f.pwm.levels[pinB])
	}
}

func TestSolenoidSameStateRestsWithoutResettingTimer(t *testing.T) {
	f := newTestSub(t, testParams())

	f.sub.SolenoidSwitch(true)
	f.clock.Advance(10000)

	// Same state: both pins back to rest
	f.sub.SolenoidSwitch(true)
	if f.pwm.levels[pinA] != 125 || f.pwm.levels[pinB] != 125 {
		t.Errorf("Expected both at rest, got A=%d B=%d", f.pwm.levels[pinA], f.pwm.levels[pinB])
	}

	// The refresh did not restart the dwell, so a change is accepted now
	f.sub.SolenoidSwitch(false)
	if f.sub.State() != SolenoidOff {
		t.Errorf("Expected off, got %s", f.sub.State())
	}
}

func TestSubModeHandOver(t *testing.T) {
	p := testParams()
	p.DutyDiffMax = 40000
	f := newTestSub(t, p)

	f.sub.MotorDrive(-20000, 24)
	if f.pwm.levels[pinB] == 125 {
		t.Fatalf("Expected B driven")
	}

	// Switching to solenoid restores the motor pin first
	f.sub.Apply(protocol.SolenoidTarget(true), 24)
	if f.sub.State() != SolenoidOn {
		t.Errorf("Expected on, got %s", f.sub.State())
	}
	if f.sub.Duty() != 0 {
		t.Errorf("Expected motor duty reset, got %d", f.sub.Duty())
	}

	// Back to motor: pins parked before driving
	f.sub.Apply(protocol.MotorTarget(5000), 24)
	if f.sub.ActiveSide() != SideA {
		t.Errorf("Expected active side A")
	}
	if f.pwm.levels[pinB] != 125 {
		t.Errorf("Expected B at rest, got %d", f.pwm.levels[pinB])
	}
	if f.sub.State() != SolenoidOn {
		t.Errorf("Solenoid state must survive motor use, got %s", f.sub.State())
	}
}
