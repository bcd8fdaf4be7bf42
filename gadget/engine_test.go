package gadget_test

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GeorgeZeng997/pico-mouse/gadget"
	"github.com/GeorgeZeng997/pico-mouse/hid"
	"github.com/GeorgeZeng997/pico-mouse/input"
	picotesting "github.com/GeorgeZeng997/pico-mouse/internal/testing"
	"github.com/GeorgeZeng997/pico-mouse/protocol"
	"github.com/GeorgeZeng997/pico-mouse/serial"
)

type fixture struct {
	engine *gadget.Engine
	port   *serial.Loopback
	source *picotesting.FakeSource
	hid    *picotesting.FakeTransport
	clock  *picotesting.FakeClock
	events *eventRecorder
}

type eventRecorder struct {
	accepted []protocol.MotionCommand
	rejected []error
	levels   []int
}

func (e *eventRecorder) CommandAccepted(cmd protocol.MotionCommand) {
	e.accepted = append(e.accepted, cmd)
}
func (e *eventRecorder) CommandRejected(err error)  { e.rejected = append(e.rejected, err) }
func (e *eventRecorder) SensitivityChanged(lvl int) { e.levels = append(e.levels, lvl) }

func newFixture(randSeq ...int) *fixture {
	f := &fixture{
		port:   &serial.Loopback{},
		source: &picotesting.FakeSource{X: input.Center, Y: input.Center},
		hid:    &picotesting.FakeTransport{},
		clock:  picotesting.NewFakeClock(),
		events: &eventRecorder{},
	}
	f.engine = gadget.New(gadget.Config{
		Port:   f.port,
		Source: f.source,
		HID:    f.hid,
		Clock:  f.clock,
		Rand:   &picotesting.FakeRand{Seq: randSeq},
		Events: f.events,
		Logger: slog.Default(),
	})
	return f
}

func (f *fixture) step() {
	f.engine.PollSerial()
	f.engine.Tick()
}

func TestCommandEmittedOnceWithJitter(t *testing.T) {
	f := newFixture(0, 1)
	f.port.Push("55 0 100 0 0 0 100")

	f.step()

	require.Len(t, f.hid.Sent, 1)
	// dx: 100 + (0 - 2 + floor(100*0.03)) = 101
	// dy:   0 + (1 - 2 + floor(0*0.03))   = -1
	assert.Equal(t, hid.Report{DX: 101, DY: -1}, f.hid.Sent[0])
	assert.Equal(t, []string{protocol.AckOK}, f.port.Acks())
	require.Len(t, f.events.accepted, 1)
	assert.Equal(t, protocol.MotionCommand{DX: 100}, f.events.accepted[0])

	// The command was consumed; further ticks inside the window send nothing.
	f.step()
	f.step()
	assert.Len(t, f.hid.Sent, 1)
}

func TestJitterPassthroughFields(t *testing.T) {
	f := newFixture(1, 1)
	f.port.Push(protocol.Encode(3, 0, 0, 2, -1))

	f.step()

	require.Len(t, f.hid.Sent, 1)
	r := f.hid.Sent[0]
	// Buttons, wheel and pan are untouched; only dx/dy carry jitter.
	assert.Equal(t, uint8(3), r.Buttons)
	assert.Equal(t, int8(2), r.Wheel)
	assert.Equal(t, int8(-1), r.Pan)
	assert.Equal(t, int8(-1), r.DX)
	assert.Equal(t, int8(-1), r.DY)
}

func TestRejectedCommandAcknowledgedAndDropped(t *testing.T) {
	f := newFixture(0)

	f.port.Push("55 1 10 -5 0 0 7")
	f.step()
	f.port.Push("not a command")
	f.step()

	assert.Empty(t, f.hid.Sent)
	assert.Equal(t, []string{protocol.AckProtocol, protocol.AckFormat}, f.port.Acks())
	require.Len(t, f.events.rejected, 2)
	assert.ErrorIs(t, f.events.rejected[0], protocol.ErrProtocol)
	assert.ErrorIs(t, f.events.rejected[1], protocol.ErrFormat)
}

func TestSerialBlocksJoystick(t *testing.T) {
	f := newFixture(0, 0)
	f.port.Push("55 0 10 0 0 0 10")
	f.step()
	require.Len(t, f.hid.Sent, 1)

	// Deflect the stick fully; inside the window the joystick path is dead.
	f.source.X = input.AxisMax
	f.clock.Advance(gadget.BlockTimeout - time.Millisecond)
	f.step()
	assert.Len(t, f.hid.Sent, 1)

	// Once the window elapses the joystick takes over again.
	f.clock.Advance(time.Millisecond)
	f.step()
	require.Len(t, f.hid.Sent, 2)
	// MapAxis(4095)=127, default level 2 divisor 10.
	assert.Equal(t, hid.Report{DX: 12}, f.hid.Sent[1])
}

func TestNewCommandRefreshesWindow(t *testing.T) {
	f := newFixture(0, 0)
	f.source.X = input.AxisMax

	f.port.Push("55 0 10 0 0 0 10")
	f.step()
	f.clock.Advance(400 * time.Millisecond)

	f.port.Push("55 0 20 0 0 0 20")
	f.step()
	require.Len(t, f.hid.Sent, 2)

	// 400ms after the second command the original window would have expired,
	// but the refresh keeps the joystick suppressed.
	f.clock.Advance(400 * time.Millisecond)
	f.step()
	assert.Len(t, f.hid.Sent, 2)
}

func TestPendingSurvivesNotReady(t *testing.T) {
	f := newFixture(0, 0)
	f.hid.NotReady = true

	f.port.Push("55 0 50 0 0 0 50")
	f.step()
	f.step()
	assert.Empty(t, f.hid.Sent)

	f.hid.NotReady = false
	f.engine.Tick()
	require.Len(t, f.hid.Sent, 1)
	// dx: 50 + (0 - 2 + floor(50*0.03)) = 49
	assert.Equal(t, int8(49), f.hid.Sent[0].DX)
}

func TestPendingOverwritten(t *testing.T) {
	f := newFixture(0, 0)
	f.hid.NotReady = true

	f.port.Push("55 0 10 0 0 0 10")
	f.engine.PollSerial()
	f.port.Push("55 0 20 0 0 0 20")
	f.engine.PollSerial()

	f.hid.NotReady = false
	f.engine.Tick()
	require.Len(t, f.hid.Sent, 1)
	// Only the later command is emitted: 20 + (0 - 2 + 0) = 18.
	assert.Equal(t, int8(18), f.hid.Sent[0].DX)
	assert.Equal(t, []string{protocol.AckOK, protocol.AckOK}, f.port.Acks())
}

func TestJoystickMovement(t *testing.T) {
	f := newFixture(0)
	f.source.X = input.AxisMax
	f.source.Y = 0

	f.engine.Tick()
	require.Len(t, f.hid.Sent, 1)
	// Level 2: dx 127/10, dy -127/40.
	assert.Equal(t, hid.Report{DX: 12, DY: -3}, f.hid.Sent[0])
}

func TestShortPressClicks(t *testing.T) {
	f := newFixture(0)
	f.source.Button = true

	f.engine.Tick()
	require.Len(t, f.hid.Sent, 1)
	assert.Equal(t, hid.Report{Buttons: hid.ButtonLeft}, f.hid.Sent[0])

	f.source.Button = false
	f.engine.Tick()
	assert.Len(t, f.hid.Sent, 1)
}

func TestLongPressCyclesWithoutClick(t *testing.T) {
	f := newFixture(0)
	f.source.Button = true

	f.engine.Tick() // press edge, clicks while unconverted
	sentBefore := len(f.hid.Sent)

	f.clock.Advance(input.LongPress)
	f.engine.Tick()
	assert.Equal(t, 3, f.engine.SensitivityLevel())
	assert.Equal(t, []int{3}, f.events.levels)
	// The conversion tick emits nothing.
	assert.Len(t, f.hid.Sent, sentBefore)

	// Holding on after conversion stays silent too.
	f.clock.Advance(time.Second)
	f.engine.Tick()
	assert.Len(t, f.hid.Sent, sentBefore)
}

func TestBootWithoutCommandsUsesJoystickImmediately(t *testing.T) {
	f := newFixture(0)
	f.source.X = input.AxisMax

	// No command was ever received, so no arbitration window exists.
	f.engine.Tick()
	assert.Len(t, f.hid.Sent, 1)
}
