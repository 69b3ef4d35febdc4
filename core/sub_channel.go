package core

import "cubicdrive/protocol"

// Side names one of the two PWM pins of a sub channel
type Side uint8

const (
	SideA Side = iota
	SideB
)

func (s Side) String() string {
	if s == SideA {
		return "A"
	}
	return "B"
}

// SolenoidState is the last accepted solenoid state
type SolenoidState uint8

const (
	SolenoidUninit SolenoidState = iota
	SolenoidOff
	SolenoidOn
)

func (s SolenoidState) String() string {
	switch s {
	case SolenoidOff:
		return "off"
	case SolenoidOn:
		return "on"
	default:
		return "uninit"
	}
}

type subMode uint8

const (
	subIdle subMode = iota
	subMotor
	subSolenoid
)

// SubPins is the pin assignment of a dual-PWM sub channel
type SubPins struct {
	A PWMPin
	B PWMPin
}

// SubChannel drives two PWM pins either as a bidirectional motor or as a
// debounced two-state solenoid. At most one pin is away from its rest level
// at any instant.
type SubChannel struct {
	index  uint8 // Frame channel index, for event records
	pwm    PWMDriver
	clock  Clock
	pins   SubPins
	params *DriveParams

	mode   subMode
	levels [2]PWMLevel

	// Motor state
	dutyPrev int16
	active   Side

	// Solenoid state
	state      SolenoidState
	dwellStart uint64
}

// NewSubChannel creates a sub channel. Call Configure once before use.
func NewSubChannel(index uint8, pwm PWMDriver, clock Clock, pins SubPins, params *DriveParams) *SubChannel {
	return &SubChannel{
		index:  index,
		pwm:    pwm,
		clock:  clock,
		pins:   pins,
		params: params,
		active: SideB,
	}
}

func (s *SubChannel) pin(side Side) PWMPin {
	if side == SideA {
		return s.pins.A
	}
	return s.pins.B
}

func (s *SubChannel) setLevel(side Side, level PWMLevel) error {
	if err := s.pwm.SetLevel(s.pin(side), level); err != nil {
		return err
	}
	s.levels[side] = level
	return nil
}

// restBoth parks both pins, A first.
func (s *SubChannel) restBoth() error {
	rest := s.params.restLevel()
	if err := s.setLevel(SideA, rest); err != nil {
		return err
	}
	return s.setLevel(SideB, rest)
}

// Configure sets up both pins at rest.
func (s *SubChannel) Configure() error {
	for _, side := range []Side{SideA, SideB} {
		if err := s.pwm.ConfigurePWM(s.pin(side), s.params.FrequencyHz, s.params.Steps); err != nil {
			return err
		}
	}
	if err := s.restBoth(); err != nil {
		return err
	}
	s.mode = subIdle
	s.dutyPrev = 0
	s.active = SideB
	s.state = SolenoidUninit
	return nil
}

// enterMotor hands the pins over from solenoid use. The solenoid keeps its
// last state and dwell timer; it is latched mechanically.
func (s *SubChannel) enterMotor() error {
	if s.mode == subSolenoid {
		if err := s.restBoth(); err != nil {
			return err
		}
	}
	s.mode = subMotor
	return nil
}

// enterSolenoid hands the pins over from motor use.
func (s *SubChannel) enterSolenoid() error {
	if s.mode == subMotor {
		if err := s.setLevel(s.active, s.params.restLevel()); err != nil {
			return err
		}
		s.dutyPrev = 0
		s.active = SideB
	}
	s.mode = subSolenoid
	return nil
}

// MotorDrive applies a slew-limited, voltage-compensated duty.
//
// Positive duty modulates pin A, negative duty pin B. On any sign change the
// outgoing pin is restored to rest before the new pin is selected.
func (s *SubChannel) MotorDrive(duty int16, volt float32) error {
	if err := s.enterMotor(); err != nil {
		return err
	}

	d := SlewLimit(duty, s.dutyPrev, s.params.DutyDiffMax)
	if d == s.dutyPrev {
		return nil
	}

	if Sign(d) != Sign(s.dutyPrev) {
		if err := s.setLevel(s.active, s.params.restLevel()); err != nil {
			return err
		}
		prev := s.active
		if d > 0 {
			s.active = SideA
		} else {
			s.active = SideB
		}
		if prev != s.active {
			RecordEvent(EvtReversal, s.index, s.clock.NowMicros(), int32(s.dutyPrev), int32(d))
		}
	}

	if err := s.setLevel(s.active, s.params.subLevel(d, volt)); err != nil {
		return err
	}
	s.dutyPrev = d
	return nil
}

// SolenoidSwitch requests a solenoid state.
//
// Requests arriving within SolenoidTime of the last accepted transition are
// dropped; the next cycle's request is evaluated afresh. A request for the
// current state parks both pins at rest without touching the dwell timer.
func (s *SubChannel) SolenoidSwitch(on bool) error {
	if err := s.enterSolenoid(); err != nil {
		return err
	}

	now := s.clock.NowMicros()
	if s.state != SolenoidUninit && now-s.dwellStart < s.params.SolenoidTime {
		RecordEvent(EvtSolenoidDropped, s.index, now, int32(s.state), boolToInt32(on))
		return nil
	}

	target := SolenoidOff
	if on {
		target = SolenoidOn
	}
	if target == s.state {
		return s.restBoth()
	}

	// Rest side first so both pins are never asserted together
	rest, drive := SideB, SideA
	if on {
		rest, drive = SideA, SideB
	}
	if err := s.setLevel(rest, s.params.restLevel()); err != nil {
		return err
	}
	if err := s.setLevel(drive, s.params.assertLevel()); err != nil {
		return err
	}

	s.state = target
	s.dwellStart = now
	RecordEvent(EvtSolenoidApplied, s.index, now, int32(target), 0)
	return nil
}

// Apply dispatches a decoded sub-channel command
func (s *SubChannel) Apply(cmd protocol.SubCommand, volt float32) error {
	if cmd.Kind == protocol.SubSolenoid {
		return s.SolenoidSwitch(cmd.On)
	}
	return s.MotorDrive(cmd.Duty, volt)
}

// Duty returns the last applied motor duty
func (s *SubChannel) Duty() int16 { return s.dutyPrev }

// ActiveSide returns the pin carrying the motor waveform
func (s *SubChannel) ActiveSide() Side { return s.active }

// State returns the last accepted solenoid state
func (s *SubChannel) State() SolenoidState { return s.state }

// Levels returns the last written levels of pins A and B
func (s *SubChannel) Levels() [2]PWMLevel { return s.levels }

// RestLevel returns the neutral level of an idle pin
func (s *SubChannel) RestLevel() PWMLevel { return s.params.restLevel() }

func boolToInt32(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
