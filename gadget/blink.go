package gadget

import (
	"context"
	"log/slog"
	"time"
)

// Status indicator intervals per attach state.
const (
	BlinkDetached  = 250 * time.Millisecond
	BlinkAttached  = 1000 * time.Millisecond
	BlinkSuspended = 2500 * time.Millisecond
)

// StatusSink receives indicator level changes.
type StatusSink interface {
	Set(on bool)
}

// LogStatus returns a StatusSink that records transitions at debug level.
func LogStatus(logger *slog.Logger) StatusSink {
	return logSink{logger: logger}
}

type logSink struct{ logger *slog.Logger }

func (l logSink) Set(on bool) { l.logger.Debug("status indicator", "on", on) }

// Blinker toggles a status sink at an interval derived from the transport's
// attach state: fast while detached, slow while a host is attached.
type Blinker struct {
	Sink     StatusSink
	Attached func() bool
}

// Run toggles the sink until ctx is done.
func (b *Blinker) Run(ctx context.Context) {
	on := false
	for {
		interval := BlinkDetached
		if b.Attached() {
			interval = BlinkAttached
		}
		select {
		case <-ctx.Done():
			b.Sink.Set(false)
			return
		case <-time.After(interval):
			on = !on
			b.Sink.Set(on)
		}
	}
}
