// Package testing holds test doubles shared by the engine and server tests.
package testing

import (
	"sync"
	"time"

	"github.com/GeorgeZeng997/pico-mouse/hid"
)

// FakeClock is a manually advanced clock.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFakeClock starts at a fixed, arbitrary instant.
func NewFakeClock() *FakeClock {
	return &FakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// FakeRand replays a fixed sequence, repeating the last value when drained.
type FakeRand struct {
	Seq []int
	pos int
}

func (r *FakeRand) Intn(int) int {
	if len(r.Seq) == 0 {
		return 0
	}
	v := r.Seq[r.pos]
	if r.pos < len(r.Seq)-1 {
		r.pos++
	}
	return v
}

// FakeTransport records every delivered report.
type FakeTransport struct {
	NotReady bool
	Err      error
	Sent     []hid.Report
}

func (t *FakeTransport) Ready() bool { return !t.NotReady }

func (t *FakeTransport) SendReport(_ uint8, r hid.Report) error {
	if t.Err != nil {
		return t.Err
	}
	t.Sent = append(t.Sent, r)
	return nil
}

// Last returns the most recent report; the zero report when none were sent.
func (t *FakeTransport) Last() hid.Report {
	if len(t.Sent) == 0 {
		return hid.Report{}
	}
	return t.Sent[len(t.Sent)-1]
}

// FakeSource returns settable axis and button values.
type FakeSource struct {
	X, Y   uint16
	Button bool
}

func (s *FakeSource) SampleAxes() (uint16, uint16) { return s.X, s.Y }

func (s *FakeSource) ReadButton() bool { return s.Button }
