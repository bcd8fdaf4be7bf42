package input_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/GeorgeZeng997/pico-mouse/input"
)

func TestMapAxis(t *testing.T) {
	type testCase struct {
		name string
		raw  uint16
		want int8
	}

	cases := []testCase{
		{name: "center", raw: input.Center, want: 0},
		{name: "upper deadzone edge", raw: input.Center + input.Deadzone, want: 0},
		{name: "lower deadzone edge", raw: input.Center - input.Deadzone, want: 0},
		{name: "just above deadzone", raw: input.Center + input.Deadzone + 1, want: 0},
		{name: "full positive travel", raw: input.AxisMax, want: 127},
		{name: "full negative travel", raw: 0, want: -127},
		{name: "positive midrange", raw: 3000, want: 55},
		{name: "negative midrange", raw: 1000, want: -61},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, input.MapAxis(tc.raw))
		})
	}
}

func TestMapAxisMonotonic(t *testing.T) {
	prev := input.MapAxis(0)
	for raw := 1; raw <= input.AxisMax; raw++ {
		cur := input.MapAxis(uint16(raw))
		assert.GreaterOrEqual(t, cur, prev, "raw=%d", raw)
		prev = cur
	}
}
