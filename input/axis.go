package input

// Raw sample domain. Center is the nominal stick rest position; samples
// within Deadzone of it map to zero motion to absorb sensor noise.
const (
	AxisMax  = 4095
	Center   = 2048
	Deadzone = 100
)

// MapAxis converts one raw axis sample into a signed delta in [-127, 127].
// Deviation beyond the deadzone is rescaled linearly over the remaining
// travel on that side; integer division truncates toward zero. Both axes use
// the same mapping; any directional inversion is a wiring property, not
// handled here.
func MapAxis(v uint16) int8 {
	raw := int(v)
	var d int
	switch {
	case raw > Center+Deadzone:
		d = (raw - Center - Deadzone) * 127 / (AxisMax - Center - Deadzone)
	case raw < Center-Deadzone:
		d = (raw - Center + Deadzone) * 127 / (Center - Deadzone)
	default:
		return 0
	}
	if d > 127 {
		d = 127
	}
	if d < -127 {
		d = -127
	}
	return int8(d)
}
