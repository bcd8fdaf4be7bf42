// Package input converts raw two-axis joystick samples into scaled mouse
// motion: deadzone + linear rescale per axis, then an adjustable sensitivity
// divisor driven by button long presses.
package input

// Source is the raw input collaborator: two analog axis samples in the
// 0-4095 ADC domain plus one button level. Reads are synchronous and return
// the most recent converted sample without blocking.
type Source interface {
	SampleAxes() (x, y uint16)
	ReadButton() bool
}

// Fixed is a Source pinned to a constant sample. The zero value is unusable;
// use Centered for an idle stick.
type Fixed struct {
	X, Y   uint16
	Button bool
}

// Centered returns a Source that always reads an idle, centered stick.
func Centered() *Fixed {
	return &Fixed{X: Center, Y: Center}
}

func (f *Fixed) SampleAxes() (uint16, uint16) { return f.X, f.Y }

func (f *Fixed) ReadButton() bool { return f.Button }
