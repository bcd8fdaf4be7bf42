package input

import "time"

// LongPress is how long the button must be held to cycle the sensitivity
// level. At most one cycle happens per continuous press.
const LongPress = time.Second

// Levels is the number of sensitivity levels; level 1 is the most sensitive.
const Levels = 3

// DefaultLevel is the medium sensitivity the gadget boots with.
const DefaultLevel = 2

// Per-level delta divisors; a larger divisor means less motion per
// deflection.
var divisors = [Levels]int{5, 10, 30}

// Sensitivity tracks button edges and the active sensitivity level. It is
// not safe for concurrent use; the control loop owns it.
type Sensitivity struct {
	level      int
	pressStart time.Time
	converted  bool
	lastButton bool
}

// NewSensitivity returns a state machine at DefaultLevel.
func NewSensitivity() *Sensitivity {
	return &Sensitivity{level: DefaultLevel}
}

// Level returns the active level in [1, Levels].
func (s *Sensitivity) Level() int { return s.level }

// Converted reports whether the current (or most recent) press already
// triggered its level change. A press that converted never also emits a
// click.
func (s *Sensitivity) Converted() bool { return s.converted }

// Observe processes one button sample. On a press edge it starts the hold
// timer; once the hold reaches LongPress it cycles the level exactly once
// for that press and returns true at that instant.
func (s *Sensitivity) Observe(pressed bool, now time.Time) (changed bool) {
	switch {
	case pressed && !s.lastButton:
		s.pressStart = now
		s.converted = false
	case pressed && !s.converted && now.Sub(s.pressStart) >= LongPress:
		s.level = s.level%Levels + 1
		s.converted = true
		changed = true
	}
	s.lastButton = pressed
	return changed
}

// Scale divides mapped deltas by the active divisor. Vertical sensitivity is
// reduced fourfold at levels 1 and 2; at level 3 both axes share the
// divisor. Division truncates toward zero.
func (s *Sensitivity) Scale(dx, dy int8) (int8, int8) {
	div := divisors[s.level-1]
	ydiv := div
	if s.level < Levels {
		ydiv = div * 4
	}
	return int8(int(dx) / div), int8(int(dy) / ydiv)
}
