package protocol_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/GeorgeZeng997/pico-mouse/protocol"
)

func TestParse(t *testing.T) {
	type testCase struct {
		name    string
		line    string
		want    protocol.MotionCommand
		wantErr error
	}

	cases := []testCase{
		{
			name: "valid line",
			line: "55 1 10 -5 0 0 6",
			want: protocol.MotionCommand{Buttons: 1, DX: 10, DY: -5},
		},
		{
			name: "extra whitespace tolerated",
			line: "  55   1  10  -5  0  0  6 ",
			want: protocol.MotionCommand{Buttons: 1, DX: 10, DY: -5},
		},
		{
			name: "zero motion",
			line: "55 0 0 0 0 0 0",
			want: protocol.MotionCommand{},
		},
		{
			name: "wheel and pan",
			line: "55 0 0 0 3 -2 1",
			want: protocol.MotionCommand{Wheel: 3, Pan: -2},
		},
		{
			name: "out of range dx wraps",
			line: "55 0 200 0 0 0 200",
			want: protocol.MotionCommand{DX: -56},
		},
		{
			name: "negative out of range dx wraps",
			line: "55 0 -200 0 0 0 -200",
			want: protocol.MotionCommand{DX: 56},
		},
		{
			name:    "wrong checksum",
			line:    "55 1 10 -5 0 0 7",
			wantErr: protocol.ErrProtocol,
		},
		{
			name:    "wrong header",
			line:    "54 1 10 -5 0 0 6",
			wantErr: protocol.ErrProtocol,
		},
		{
			name:    "too few fields",
			line:    "55 1 10 -5 0 0",
			wantErr: protocol.ErrFormat,
		},
		{
			name:    "too many fields",
			line:    "55 1 10 -5 0 0 6 9",
			wantErr: protocol.ErrFormat,
		},
		{
			name:    "non-integer field",
			line:    "55 a 10 -5 0 0 6",
			wantErr: protocol.ErrFormat,
		},
		{
			name:    "empty line",
			line:    "",
			wantErr: protocol.ErrFormat,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := protocol.Parse([]byte(tc.line))
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestAck(t *testing.T) {
	assert.Equal(t, protocol.AckOK, protocol.Ack(nil))
	assert.Equal(t, protocol.AckProtocol, protocol.Ack(protocol.ErrProtocol))
	assert.Equal(t, protocol.AckFormat, protocol.Ack(protocol.ErrFormat))
}

func TestEncode(t *testing.T) {
	line := protocol.Encode(1, 10, -5, 0, 0)
	assert.Equal(t, "55 1 10 -5 0 0 6\n", line)

	cmd, err := protocol.Parse([]byte(line))
	assert.NoError(t, err)
	assert.Equal(t, protocol.MotionCommand{Buttons: 1, DX: 10, DY: -5}, cmd)
}
