//go:build linux

package input

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Joystick adapts a Linux joystick device (/dev/input/jsN) to the Source
// interface. Axis 0/1 int16 values are rescaled into the 0-4095 raw sample
// domain; button 0 is the gadget button. A background reader keeps the last
// seen sample; SampleAxes and ReadButton never block.
type Joystick struct {
	f    *os.File
	name string

	mu     sync.Mutex
	x, y   uint16
	button bool
}

const (
	jsEventButton = 0x01
	jsEventAxis   = 0x02
	jsEventInit   = 0x80

	jsiocgname = 0x80ff6a13 // JSIOCGNAME(255)
)

// OpenJoystick opens /dev/input/js<index> and starts the reader.
func OpenJoystick(index int) (*Joystick, error) {
	f, err := os.OpenFile(fmt.Sprintf("/dev/input/js%d", index), os.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("open joystick: %w", err)
	}
	j := &Joystick{f: f, x: Center, y: Center}
	j.name = deviceName(f)
	go j.readLoop()
	return j, nil
}

// Name returns the kernel-reported device name, or "" if unavailable.
func (j *Joystick) Name() string { return j.name }

func (j *Joystick) SampleAxes() (uint16, uint16) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.x, j.y
}

func (j *Joystick) ReadButton() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.button
}

// Close stops the reader by closing the device.
func (j *Joystick) Close() error { return j.f.Close() }

func (j *Joystick) readLoop() {
	var buf [8]byte
	for {
		if _, err := io.ReadFull(j.f, buf[:]); err != nil {
			return
		}
		value := int16(binary.LittleEndian.Uint16(buf[4:6]))
		typ := buf[6] &^ jsEventInit
		number := buf[7]

		j.mu.Lock()
		switch typ {
		case jsEventAxis:
			// int16 -32768..32767 -> 0..4095
			v := uint16((int(value) + 32768) >> 4)
			if number == 0 {
				j.x = v
			} else if number == 1 {
				j.y = v
			}
		case jsEventButton:
			if number == 0 {
				j.button = value != 0
			}
		}
		j.mu.Unlock()
	}
}

func deviceName(f *os.File) string {
	var buf [256]byte
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, f.Fd(), uintptr(jsiocgname), uintptr(unsafe.Pointer(&buf[0])))
	if errno != 0 {
		return ""
	}
	if pos := bytes.IndexByte(buf[:], 0); pos >= 0 {
		return string(buf[:pos])
	}
	return string(buf[:])
}
