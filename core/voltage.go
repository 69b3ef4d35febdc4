package core

// VoltageMonitor converts raw supply samples into volts.
type VoltageMonitor struct {
	source    RawSampler
	scale     float32 // volts per raw count
	floor     float32
	retention float32 // EMA weight kept from the previous filtered value

	filtered float32
	seeded   bool
	faults   uint32
}

// NewVoltageMonitor creates a monitor.
// scale is V_ref_max / adc_full_scale; floor is V_MIN.
func NewVoltageMonitor(source RawSampler, scale, floor, retention float32) *VoltageMonitor {
	return &VoltageMonitor{
		source:    source,
		scale:     scale,
		floor:     floor,
		retention: retention,
	}
}

// Sample reads the supply and returns volts, never below the floor.
//
// Unfiltered samples are used on the hot path. Filtered samples blend into an
// exponential moving average seeded by the first filtered read; only filtered
// calls update it. A failed read degrades to the floor.
func (m *VoltageMonitor) Sample(filtered bool) float32 {
	raw, err := m.source.ReadRaw()
	if err != nil {
		m.faults++
		return m.floor
	}
	v := float32(raw) * m.scale

	if filtered {
		if !m.seeded {
			m.filtered = v
			m.seeded = true
		} else {
			m.filtered = m.filtered*m.retention + v*(1-m.retention)
		}
		v = m.filtered
	}

	if v < m.floor {
		return m.floor
	}
	return v
}

// Floor returns the clamp value
func (m *VoltageMonitor) Floor() float32 {
	return m.floor
}

// Faults returns the number of failed reads
func (m *VoltageMonitor) Faults() uint32 {
	return m.faults
}
