package input_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/GeorgeZeng997/pico-mouse/input"
)

func TestSensitivityLongPressCycles(t *testing.T) {
	s := input.NewSensitivity()
	assert.Equal(t, input.DefaultLevel, s.Level())

	t0 := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	// Press edge starts the hold timer, no change yet.
	assert.False(t, s.Observe(true, t0))
	assert.False(t, s.Observe(true, t0.Add(999*time.Millisecond)))
	assert.Equal(t, 2, s.Level())

	// Exactly at the threshold the level cycles once.
	assert.True(t, s.Observe(true, t0.Add(time.Second)))
	assert.Equal(t, 3, s.Level())
	assert.True(t, s.Converted())

	// Holding longer never cycles again within the same press.
	assert.False(t, s.Observe(true, t0.Add(5*time.Second)))
	assert.Equal(t, 3, s.Level())

	// Release, then a second long press wraps 3 -> 1.
	assert.False(t, s.Observe(false, t0.Add(6*time.Second)))
	assert.False(t, s.Observe(true, t0.Add(7*time.Second)))
	assert.False(t, s.Converted())
	assert.True(t, s.Observe(true, t0.Add(8*time.Second)))
	assert.Equal(t, 1, s.Level())

	// And once more, 1 -> 2.
	assert.False(t, s.Observe(false, t0.Add(9*time.Second)))
	assert.False(t, s.Observe(true, t0.Add(10*time.Second)))
	assert.True(t, s.Observe(true, t0.Add(11*time.Second)))
	assert.Equal(t, 2, s.Level())
}

func TestSensitivityShortPressNeverConverts(t *testing.T) {
	s := input.NewSensitivity()
	t0 := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	assert.False(t, s.Observe(true, t0))
	assert.False(t, s.Observe(false, t0.Add(200*time.Millisecond)))
	assert.Equal(t, input.DefaultLevel, s.Level())
	assert.False(t, s.Converted())

	// A slow sequence of short presses accumulates no hold time.
	for i := 0; i < 10; i++ {
		base := t0.Add(time.Duration(i) * 2 * time.Second)
		assert.False(t, s.Observe(true, base))
		assert.False(t, s.Observe(false, base.Add(500*time.Millisecond)))
	}
	assert.Equal(t, input.DefaultLevel, s.Level())
}

func TestSensitivityScale(t *testing.T) {
	type testCase struct {
		name   string
		level  int
		dx, dy int8
		wantX  int8
		wantY  int8
	}

	cases := []testCase{
		{name: "level 1 divides by 5, y by 20", level: 1, dx: 127, dy: 127, wantX: 25, wantY: 6},
		{name: "level 2 divides by 10, y by 40", level: 2, dx: 127, dy: 127, wantX: 12, wantY: 3},
		{name: "level 3 divides both by 30", level: 3, dx: 127, dy: 127, wantX: 4, wantY: 4},
		{name: "negative deltas truncate toward zero", level: 2, dx: -127, dy: -127, wantX: -12, wantY: -3},
		{name: "small deltas vanish", level: 3, dx: 29, dy: -29, wantX: 0, wantY: 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := input.NewSensitivity()
			cycleTo(t, s, tc.level)
			gx, gy := s.Scale(tc.dx, tc.dy)
			assert.Equal(t, tc.wantX, gx)
			assert.Equal(t, tc.wantY, gy)
		})
	}
}

// cycleTo drives the state machine with synthetic long presses until the
// requested level is active.
func cycleTo(t *testing.T, s *input.Sensitivity, level int) {
	t.Helper()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; s.Level() != level; i++ {
		if i > input.Levels {
			t.Fatalf("could not reach level %d", level)
		}
		s.Observe(true, now)
		s.Observe(true, now.Add(input.LongPress))
		s.Observe(false, now.Add(input.LongPress+time.Millisecond))
		now = now.Add(time.Minute)
	}
}
