package core

// SlewLimit bounds the per-cycle change from previous toward requested.
//
// If requested equals previous the result is previous, and callers treat
// that as "do nothing": no output writes, no timer side effects.
func SlewLimit(requested, previous int16, maxStep int32) int16 {
	if requested == previous {
		return previous
	}
	if maxStep < 0 {
		maxStep = 0
	}
	diff := int32(requested) - int32(previous)
	if Abs(diff) > maxStep {
		return int16(int32(previous) + int32(Sign(diff))*maxStep)
	}
	return requested
}
