//go:build !linux

package input

import "errors"

// Joystick is only implemented on Linux; other platforms run with a Fixed
// source or the terminal simulator.
type Joystick struct{}

func OpenJoystick(index int) (*Joystick, error) {
	return nil, errors.New("joystick input requires linux")
}

func (j *Joystick) Name() string { return "" }

func (j *Joystick) SampleAxes() (uint16, uint16) { return Center, Center }

func (j *Joystick) ReadButton() bool { return false }

func (j *Joystick) Close() error { return nil }
