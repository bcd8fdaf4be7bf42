// Package gadget fuses two input sources, a serial motion-command channel
// and a local analog joystick, into a single stream of relative HID mouse
// reports. Serial commands pre-empt the joystick for a bounded window; the
// joystick path applies deadzone mapping, adjustable sensitivity and
// long-press level cycling.
package gadget

import (
	"bytes"
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/GeorgeZeng997/pico-mouse/hid"
	"github.com/GeorgeZeng997/pico-mouse/input"
	"github.com/GeorgeZeng997/pico-mouse/protocol"
	"github.com/GeorgeZeng997/pico-mouse/serial"
)

// BlockTimeout is the arbitration window: after a serial command is
// accepted, the whole joystick path (including the sensitivity button) is
// skipped until this much time has passed since acceptance.
const BlockTimeout = 500 * time.Millisecond

// DefaultTick is the minimum interval between report ticks.
const DefaultTick = time.Millisecond

// Events receives engine notifications. Implementations must return
// quickly; they run on the control-loop goroutine.
type Events interface {
	CommandAccepted(cmd protocol.MotionCommand)
	CommandRejected(err error)
	SensitivityChanged(level int)
}

// NopEvents discards all notifications.
type NopEvents struct{}

func (NopEvents) CommandAccepted(protocol.MotionCommand) {}
func (NopEvents) CommandRejected(error)                  {}
func (NopEvents) SensitivityChanged(int)                 {}

// Config wires an Engine. Port, Source, HID and Logger are required; Clock,
// Rand and Events fall back to real implementations when nil.
type Config struct {
	Port   serial.Port
	Source input.Source
	HID    hid.Transport
	Clock  Clock
	Rand   RandSource
	Events Events
	Logger *slog.Logger
}

// Engine owns all arbitration state. It is single-goroutine by design: Run
// (or a caller driving PollSerial/Tick directly) is the only permitted
// mutator.
type Engine struct {
	port   serial.Port
	source input.Source
	hid    hid.Transport
	clock  Clock
	rand   RandSource
	events Events
	logger *slog.Logger

	pending    protocol.MotionCommand
	hasPending bool
	cmdTime    time.Time
	sens       *input.Sensitivity

	readBuf [serial.ReadBufSize]byte
}

// New builds an Engine from cfg.
func New(cfg Config) *Engine {
	e := &Engine{
		port:   cfg.Port,
		source: cfg.Source,
		hid:    cfg.HID,
		clock:  cfg.Clock,
		rand:   cfg.Rand,
		events: cfg.Events,
		logger: cfg.Logger,
		sens:   input.NewSensitivity(),
	}
	if e.clock == nil {
		e.clock = SystemClock()
	}
	if e.rand == nil {
		e.rand = NewRand()
	}
	if e.events == nil {
		e.events = NopEvents{}
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// SensitivityLevel returns the active sensitivity level.
func (e *Engine) SensitivityLevel() int { return e.sens.Level() }

// PollSerial drains at most one chunk from the command channel, parses it
// and acknowledges the result. A valid command replaces any unconsumed
// pending command and refreshes the arbitration window. Never blocks.
func (e *Engine) PollSerial() {
	if e.port == nil || !e.port.Available() {
		return
	}
	n, err := e.port.Read(e.readBuf[:])
	if err != nil {
		e.logger.Debug("serial read failed", "error", err)
		return
	}
	if n == 0 {
		return
	}
	line := e.readBuf[:n]
	cmd, perr := protocol.Parse(line)
	if perr != nil {
		e.logger.Debug("command rejected", "error", perr, "line", string(bytes.TrimSpace(line)))
		e.events.CommandRejected(perr)
	} else {
		e.pending, e.hasPending = cmd, true
		e.cmdTime = e.clock.Now()
		e.events.CommandAccepted(cmd)
	}
	if err := e.port.WriteString(protocol.Ack(perr)); err != nil {
		e.logger.Debug("ack write failed", "error", err)
	}
	_ = e.port.Flush()
}

// Tick runs one arbitration step and emits at most one report. Order:
//  1. Transport not ready: do nothing (a pending command stays pending).
//  2. Pending command: consume it once and emit it with jitter.
//  3. Inside the arbitration window: skip the joystick path entirely.
//  4. Joystick path: sensitivity button handling, axis mapping, then either
//     a movement report, a short-press left click, or nothing.
func (e *Engine) Tick() {
	if !e.hid.Ready() {
		return
	}
	now := e.clock.Now()

	if e.hasPending {
		e.hasPending = false
		e.send(e.synthesize(e.pending))
		return
	}
	if !e.cmdTime.IsZero() && now.Sub(e.cmdTime) < BlockTimeout {
		return
	}

	x, y := e.source.SampleAxes()
	pressed := e.source.ReadButton()
	if e.sens.Observe(pressed, now) {
		e.logger.Info("sensitivity level changed", "level", e.sens.Level())
		e.events.SensitivityChanged(e.sens.Level())
	}
	dx, dy := e.sens.Scale(input.MapAxis(x), input.MapAxis(y))
	switch {
	case dx != 0 || dy != 0:
		e.send(hid.Report{DX: dx, DY: dy})
	case pressed && !e.sens.Converted():
		e.send(hid.Report{Buttons: hid.ButtonLeft})
	}
}

// Run drives the cooperative loop until ctx is done: one serial poll and one
// report tick per interval.
func (e *Engine) Run(ctx context.Context, tick time.Duration) error {
	if tick <= 0 {
		tick = DefaultTick
	}
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			e.PollSerial()
			e.Tick()
		}
	}
}

// synthesize builds the report for a command, adding jitter to dx/dy only.
// Buttons, wheel and pan pass through unchanged.
func (e *Engine) synthesize(cmd protocol.MotionCommand) hid.Report {
	return hid.Report{
		Buttons: cmd.Buttons,
		DX:      cmd.DX + e.jitter(cmd.DX),
		DY:      cmd.DY + e.jitter(cmd.DY),
		Wheel:   cmd.Wheel,
		Pan:     cmd.Pan,
	}
}

// jitter emulates organic mouse motion on the command path: a uniform value
// in {0,1} minus 2, plus floor(delta*0.03). The range is intentionally
// asymmetric (roughly -2..-1 for small deltas).
func (e *Engine) jitter(delta int8) int8 {
	return int8(e.rand.Intn(2) - 2 + int(math.Floor(float64(delta)*0.03)))
}

func (e *Engine) send(r hid.Report) {
	if err := e.hid.SendReport(hid.ReportIDMouse, r); err != nil {
		e.logger.Debug("report dropped", "error", err)
	}
}
