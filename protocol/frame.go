package protocol

// FrameSize returns the wire length of a frame carrying n channels.
//
// Decoding routines require buffers of exactly this length (or longer; extra
// bytes are ignored). The transport guarantees fixed-length delivery, so a
// short buffer is a caller bug and is not checked per cycle.
func FrameSize(n int) int {
	return n * BytesPerChannel
}

// DutyAt decodes channel i of buf.
// The low byte arrives first, the high byte second.
func DutyAt(buf []byte, i int) int16 {
	return int16(uint16(buf[2*i+1])<<8 | uint16(buf[2*i]))
}

// PutDuty encodes v as channel i of buf.
func PutDuty(buf []byte, i int, v int16) {
	buf[2*i] = byte(uint16(v) & 0xFF)
	buf[2*i+1] = byte(uint16(v) >> 8)
}

// DecodeDuties decodes len(out) channels from buf into out.
func DecodeDuties(buf []byte, out []int16) {
	for i := range out {
		out[i] = DutyAt(buf, i)
	}
}

// EncodeDuties encodes duties into a newly allocated frame.
func EncodeDuties(duties []int16) []byte {
	buf := make([]byte, FrameSize(len(duties)))
	for i, v := range duties {
		PutDuty(buf, i, v)
	}
	return buf
}

// SubKind selects how a sub channel interprets its command
type SubKind uint8

const (
	SubMotor    SubKind = iota // Bidirectional motor drive
	SubSolenoid                // Two-state debounced solenoid
)

func (k SubKind) String() string {
	switch k {
	case SubMotor:
		return "motor"
	case SubSolenoid:
		return "solenoid"
	default:
		return "unknown"
	}
}

// SubCommand is the decoded command for one sub channel.
// Duty is meaningful for SubMotor, On for SubSolenoid.
type SubCommand struct {
	Kind SubKind
	Duty int16
	On   bool
}

// MotorTarget builds a motor-mode sub command
func MotorTarget(duty int16) SubCommand {
	return SubCommand{Kind: SubMotor, Duty: duty}
}

// SolenoidTarget builds a solenoid-mode sub command
func SolenoidTarget(on bool) SubCommand {
	return SubCommand{Kind: SubSolenoid, On: on}
}

// SolenoidSentinel returns the reserved magnitude that selects solenoid mode.
func SolenoidSentinel(dutyMax int32) int32 {
	return dutyMax + 1
}

// SolenoidDuty returns the wire value requesting solenoid state on.
func SolenoidDuty(on bool, dutyMax int32) int16 {
	s := SolenoidSentinel(dutyMax)
	if on {
		return int16(s)
	}
	return int16(-s)
}

// ClassifySub turns a raw sub-channel value into a tagged command.
// Only a magnitude of exactly dutyMax+1 selects solenoid mode.
func ClassifySub(v int16, dutyMax int32) SubCommand {
	mag := int32(v)
	if mag < 0 {
		mag = -mag
	}
	if mag == SolenoidSentinel(dutyMax) {
		return SolenoidTarget(v > 0)
	}
	return MotorTarget(v)
}

// Frame is one decoded command frame.
// Main channels come first on the wire, then sub channels.
type Frame struct {
	Main []int16
	Sub  []SubCommand
}

// Decoder decodes frames for a fixed channel topology.
type Decoder struct {
	MainChannels int
	SubChannels  int
	DutyMax      int32
}

// NewDecoder creates a decoder for the given topology
func NewDecoder(mainChannels, subChannels int, dutyMax int32) Decoder {
	return Decoder{
		MainChannels: mainChannels,
		SubChannels:  subChannels,
		DutyMax:      dutyMax,
	}
}

// Size returns the expected frame length in bytes
func (d Decoder) Size() int {
	return FrameSize(d.MainChannels + d.SubChannels)
}

// NewFrame allocates a Frame sized for this decoder so Decode can reuse it
// every cycle without allocating.
func (d Decoder) NewFrame() Frame {
	return Frame{
		Main: make([]int16, d.MainChannels),
		Sub:  make([]SubCommand, d.SubChannels),
	}
}

// Decode fills f from buf. f must come from NewFrame.
func (d Decoder) Decode(buf []byte, f *Frame) {
	for i := 0; i < d.MainChannels; i++ {
		f.Main[i] = DutyAt(buf, i)
	}
	for i := 0; i < d.SubChannels; i++ {
		f.Sub[i] = ClassifySub(DutyAt(buf, d.MainChannels+i), d.DutyMax)
	}
}

// Encode is the inverse of Decode, used by host tools.
func (d Decoder) Encode(f Frame) []byte {
	buf := make([]byte, d.Size())
	for i := 0; i < d.MainChannels && i < len(f.Main); i++ {
		PutDuty(buf, i, f.Main[i])
	}
	for i := 0; i < d.SubChannels && i < len(f.Sub); i++ {
		c := f.Sub[i]
		v := c.Duty
		if c.Kind == SubSolenoid {
			v = SolenoidDuty(c.On, d.DutyMax)
		}
		PutDuty(buf, d.MainChannels+i, v)
	}
	return buf
}
