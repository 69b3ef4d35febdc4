package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// ActuatorEvent captures an actuator decision for post-mortem analysis
type ActuatorEvent struct {
	EventType uint8  // Event type code
	Channel   uint8  // Channel index (main channels first, then sub)
	Micros    uint64 // Clock at event
	Value1    int32  // Context-dependent value
	Value2    int32  // Context-dependent value
}

// Event type codes
const (
	EvtReversal        = 1 // Sub-channel active side changed
	EvtSolenoidApplied = 2 // Solenoid transition accepted
	EvtSolenoidDropped = 3 // Solenoid request inside dwell window
	EvtWriteFault      = 4 // HAL write failed
	EvtUnderVoltage    = 5 // Filtered supply reached the floor
	EvtVoltageRestored = 6 // Filtered supply left the floor
)

const (
	EventRingSize = 32 // Keep last 32 events for post-mortem
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active
	debugEnabled bool = false

	// Event capture ring buffer (non-blocking, for post-mortem)
	eventRing     [EventRingSize]ActuatorEvent
	eventRingHead uint8
	eventsEnabled bool = true

	// Async debug output channel
	debugChan chan string
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, USB, etc.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// InitAsyncDebug starts the async debug output goroutine
// Call this from main() after SetDebugWriter
func InitAsyncDebug() {
	debugChan = make(chan string, 16)
	go debugOutputWorker()
}

func debugOutputWorker() {
	for msg := range debugChan {
		if debugPrintln != nil {
			debugPrintln(msg)
		}
	}
}

// DebugPrintln writes a debug message using the platform-specific writer
// Blocks if debug is enabled (use DebugAsync from the control loop)
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// DebugAsync queues a debug message for async output (non-blocking)
// Drops the message if the channel is full or async output is not running.
func DebugAsync(msg string) {
	if !debugEnabled || debugChan == nil {
		return
	}
	select {
	case debugChan <- msg:
	default:
	}
}

// RecordEvent captures an actuator event in the ring buffer
func RecordEvent(eventType, channel uint8, micros uint64, value1, value2 int32) {
	if !eventsEnabled {
		return
	}
	idx := eventRingHead
	eventRing[idx] = ActuatorEvent{
		EventType: eventType,
		Channel:   channel,
		Micros:    micros,
		Value1:    value1,
		Value2:    value2,
	}
	eventRingHead = (idx + 1) % EventRingSize
}

// RecentEvents returns the captured events, oldest first
func RecentEvents() []ActuatorEvent {
	out := make([]ActuatorEvent, 0, EventRingSize)
	start := eventRingHead
	for i := uint8(0); i < EventRingSize; i++ {
		evt := eventRing[(start+i)%EventRingSize]
		if evt.EventType == 0 {
			continue
		}
		out = append(out, evt)
	}
	return out
}

func eventName(t uint8) string {
	switch t {
	case EvtReversal:
		return "REVERSAL"
	case EvtSolenoidApplied:
		return "SOL_APPLY"
	case EvtSolenoidDropped:
		return "SOL_DROP"
	case EvtWriteFault:
		return "WRITE_FAULT!"
	case EvtUnderVoltage:
		return "UNDERVOLT!"
	case EvtVoltageRestored:
		return "VOLT_OK"
	default:
		return "UNKNOWN"
	}
}

// DumpEventRing outputs the event ring buffer
func DumpEventRing() {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[EVENT] === Event Ring Dump ===")
	for _, evt := range RecentEvents() {
		debugPrintln("[EVENT] " + eventName(evt.EventType) +
			" ch=" + Itoa(int(evt.Channel)) +
			" us=" + Utoa(uint32(evt.Micros)) +
			" v1=" + Itoa(int(evt.Value1)) +
			" v2=" + Itoa(int(evt.Value2)))
	}
	debugPrintln("[EVENT] === End Dump ===")
}

// ClearEventRing clears the event buffer
func ClearEventRing() {
	for i := range eventRing {
		eventRing[i] = ActuatorEvent{}
	}
	eventRingHead = 0
}
