package core

import (
	"context"
	"time"

	"cubicdrive/protocol"
)

// CycleConfig holds the timing of the control loop
type CycleConfig struct {
	Period      time.Duration // Fixed loop period
	FilterEvery uint32        // Take a filtered voltage sample every Nth cycle (0 disables)
	DutyMax     int32         // Used to recognise the solenoid sentinel
}

// Stats are counters maintained by the control loop
type Stats struct {
	Cycles       uint32
	Frames       uint32 // Distinct frames observed
	WriteFaults  uint32
	UnderVoltage uint32 // Entries into the undervoltage state
	LastVolts    float32
	LastFiltered float32
}

// String renders the counters for the debug side channel
func (s Stats) String() string {
	return "cycles=" + Utoa(s.Cycles) +
		" frames=" + Utoa(s.Frames) +
		" faults=" + Utoa(s.WriteFaults) +
		" uv=" + Utoa(s.UnderVoltage) +
		" volts=" + Ftoa(s.LastVolts) +
		" filtered=" + Ftoa(s.LastFiltered)
}

// Controller runs the fixed-period control cycle: sample voltage once,
// fetch the newest frame, and dispatch every channel against that sample.
type Controller struct {
	cfg     CycleConfig
	volt    *VoltageMonitor
	mains   []*MainChannel
	subs    []*SubChannel
	source  FrameSource
	clock   Clock
	decoder protocol.Decoder

	buf      []byte
	frame    protocol.Frame
	haveData bool
	lastSeq  uint32
	under    bool
	stats    Stats
}

// NewController wires a control loop. Channel order on the wire is mains
// then subs.
func NewController(cfg CycleConfig, volt *VoltageMonitor, mains []*MainChannel, subs []*SubChannel, source FrameSource, clock Clock) *Controller {
	dec := protocol.NewDecoder(len(mains), len(subs), cfg.DutyMax)
	return &Controller{
		cfg:     cfg,
		volt:    volt,
		mains:   mains,
		subs:    subs,
		source:  source,
		clock:   clock,
		decoder: dec,
		buf:     make([]byte, dec.Size()),
		frame:   dec.NewFrame(),
	}
}

// FrameSize returns the command frame length this controller expects
func (c *Controller) FrameSize() int {
	return c.decoder.Size()
}

// Configure performs the one-time pin setup of every actuator.
func (c *Controller) Configure() error {
	if len(c.mains)+len(c.subs) == 0 {
		return ErrNoChannels
	}
	if sized, ok := c.source.(interface{ Size() int }); ok && sized.Size() != c.decoder.Size() {
		return ErrFrameSize
	}
	for i, m := range c.mains {
		if err := m.Configure(); err != nil {
			return &ChannelError{Channel: i, Op: "configure", Err: err}
		}
	}
	for i, s := range c.subs {
		if err := s.Configure(); err != nil {
			return &ChannelError{Channel: len(c.mains) + i, Op: "configure", Err: err}
		}
	}
	return nil
}

// Step runs one control cycle.
//
// The last frame is re-dispatched every cycle until a newer one arrives, so
// slew-limited channels keep converging and solenoid requests are
// re-evaluated after their dwell. Before the first frame outputs stay parked.
func (c *Controller) Step() {
	c.stats.Cycles++

	volt := c.volt.Sample(false)
	c.stats.LastVolts = volt

	if c.cfg.FilterEvery != 0 && c.stats.Cycles%c.cfg.FilterEvery == 0 {
		c.checkTrend()
	}

	if seq, ok := c.source.Latest(c.buf); ok {
		if !c.haveData || seq != c.lastSeq {
			c.stats.Frames++
			c.lastSeq = seq
		}
		c.haveData = true
		c.decoder.Decode(c.buf, &c.frame)
	}
	if !c.haveData {
		return
	}

	for i, m := range c.mains {
		if err := m.Drive(c.frame.Main[i], volt); err != nil {
			c.fault(i, "drive", err)
		}
	}
	for i, s := range c.subs {
		if err := s.Apply(c.frame.Sub[i], volt); err != nil {
			c.fault(len(c.mains)+i, "sub", err)
		}
	}
}

// checkTrend updates the undervoltage detector from a filtered sample.
func (c *Controller) checkTrend() {
	v := c.volt.Sample(true)
	c.stats.LastFiltered = v

	under := v <= c.volt.Floor()
	if under == c.under {
		return
	}
	c.under = under
	now := c.clock.NowMicros()
	if under {
		c.stats.UnderVoltage++
		RecordEvent(EvtUnderVoltage, 0xFF, now, int32(v*100), 0)
		DebugAsync("undervoltage: filtered=" + Ftoa(v))
	} else {
		RecordEvent(EvtVoltageRestored, 0xFF, now, int32(v*100), 0)
		DebugAsync("supply restored: filtered=" + Ftoa(v))
	}
}

func (c *Controller) fault(ch int, op string, err error) {
	c.stats.WriteFaults++
	RecordEvent(EvtWriteFault, uint8(ch), c.clock.NowMicros(), 0, 0)
	DebugAsync((&ChannelError{Channel: ch, Op: op, Err: err}).Error())
}

// Run repeats Step every Period until ctx is cancelled.
func (c *Controller) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.cfg.Period)
	defer ticker.Stop()

	for {
		c.Step()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Stats returns a snapshot of the loop counters
func (c *Controller) Stats() Stats {
	return c.stats
}

// UnderVoltage reports whether the filtered supply is at the floor
func (c *Controller) UnderVoltage() bool {
	return c.under
}

// Main returns main channel i
func (c *Controller) Main(i int) *MainChannel { return c.mains[i] }

// Sub returns sub channel i
func (c *Controller) Sub(i int) *SubChannel { return c.subs[i] }
