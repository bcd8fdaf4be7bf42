package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"golang.org/x/term"

	"github.com/GeorgeZeng997/pico-mouse/gadget"
	"github.com/GeorgeZeng997/pico-mouse/hid"
	"github.com/GeorgeZeng997/pico-mouse/input"
	"github.com/GeorgeZeng997/pico-mouse/serial"
)

// Sim runs the control loop without a USB host: the keyboard stands in for
// the joystick and reports are printed to the terminal. The command channel
// still listens on TCP so a console client can exercise the serial path.
type Sim struct {
	SerialAddr string        `help:"Command channel TCP listen address" default:"localhost:3250" env:"PICOMOUSE_SIM_SERIAL_ADDR"`
	Tick       time.Duration `help:"Control loop tick interval" default:"10ms" env:"PICOMOUSE_SIM_TICK"`
	Step       uint16        `help:"Axis deflection per keypress" default:"800"`
}

// Run is called by kong when the sim command is executed.
func (s *Sim) Run(logger *slog.Logger) error {
	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("raw mode: %w", err)
	}
	defer func() { _ = term.Restore(fd, oldState) }()

	fmt.Print("keys: h/j/k/l move, space click, b hold button, q quit\r\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := newKeySource(s.Step)
	go src.readKeys(os.Stdin, cancel)

	port, err := serial.ListenTCP(s.SerialAddr, logger)
	if err != nil {
		return err
	}
	defer func() { _ = port.Close() }()

	engine := gadget.New(gadget.Config{
		Port:   port,
		Source: src,
		HID:    termTransport{},
		Logger: logger,
	})
	if err := engine.Run(ctx, s.Tick); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// keySource turns keypresses into one-shot axis deflections and a momentary
// button. Deflections are consumed by the next sample; the button stays
// pressed for a few samples per tap so a click registers, or latches while
// hold mode is on.
type keySource struct {
	step uint16

	mu         sync.Mutex
	x, y       uint16
	pressTicks int
	hold       bool
}

func newKeySource(step uint16) *keySource {
	return &keySource{step: step, x: input.Center, y: input.Center}
}

func (k *keySource) SampleAxes() (uint16, uint16) {
	k.mu.Lock()
	defer k.mu.Unlock()
	x, y := k.x, k.y
	k.x, k.y = input.Center, input.Center
	return x, y
}

func (k *keySource) ReadButton() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.hold {
		return true
	}
	if k.pressTicks > 0 {
		k.pressTicks--
		return true
	}
	return false
}

func (k *keySource) readKeys(r io.Reader, cancel context.CancelFunc) {
	var buf [1]byte
	for {
		if _, err := r.Read(buf[:]); err != nil {
			cancel()
			return
		}
		k.mu.Lock()
		switch buf[0] {
		case 'h':
			k.x = clampAxis(int(input.Center) - int(k.step))
		case 'l':
			k.x = clampAxis(int(input.Center) + int(k.step))
		case 'k':
			k.y = clampAxis(int(input.Center) - int(k.step))
		case 'j':
			k.y = clampAxis(int(input.Center) + int(k.step))
		case ' ':
			k.pressTicks = 3
		case 'b':
			k.hold = !k.hold
		case 'q', 0x03: // ctrl-c
			k.mu.Unlock()
			cancel()
			return
		}
		k.mu.Unlock()
	}
}

func clampAxis(v int) uint16 {
	if v < 0 {
		return 0
	}
	if v > input.AxisMax {
		return input.AxisMax
	}
	return uint16(v)
}

// termTransport prints reports instead of delivering them to a host.
type termTransport struct{}

func (termTransport) Ready() bool { return true }

func (termTransport) SendReport(_ uint8, r hid.Report) error {
	fmt.Printf("report buttons=%#02x dx=%+d dy=%+d wheel=%+d pan=%+d\r\n",
		r.Buttons, r.DX, r.DY, r.Wheel, r.Pan)
	return nil
}
