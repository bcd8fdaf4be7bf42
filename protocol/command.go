// Package protocol implements the line-oriented serial motion-command
// protocol: seven whitespace-separated decimal integers of the form
//
//	head btn dx dy wheel pan checksum
//
// where head is always 55 and checksum is the plain signed sum of the five
// payload fields.
package protocol

import "fmt"

// Header is the fixed first field of every valid command line.
const Header = 55

// MotionCommand is one decoded motion command from the serial channel.
// Fields are already narrowed to their 8-bit wire ranges.
type MotionCommand struct {
	Buttons uint8
	DX      int8
	DY      int8
	Wheel   int8
	Pan     int8
}

// Checksum computes the expected checksum field for a command line built
// from the given (untruncated) payload values.
func Checksum(btn, dx, dy, wheel, pan int) int {
	return btn + dx + dy + wheel + pan
}

// Encode renders a complete command line, header and checksum included,
// terminated with a newline.
func Encode(btn, dx, dy, wheel, pan int) string {
	return fmt.Sprintf("%d %d %d %d %d %d %d\n",
		Header, btn, dx, dy, wheel, pan, Checksum(btn, dx, dy, wheel, pan))
}
