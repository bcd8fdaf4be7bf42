package serial

import "sync"

// Loopback is an in-memory Port for tests and the simulator: lines pushed
// with Push come back from Read, acknowledgements are captured in order.
type Loopback struct {
	mu    sync.Mutex
	lines [][]byte
	acks  []string
}

// Push queues one received line.
func (l *Loopback) Push(line string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, []byte(line))
}

// Acks returns a copy of all acknowledgements written so far.
func (l *Loopback) Acks() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.acks...)
}

func (l *Loopback) Available() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.lines) > 0
}

func (l *Loopback) Read(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.lines) == 0 {
		return 0, nil
	}
	line := l.lines[0]
	l.lines = l.lines[1:]
	return copy(p, line), nil
}

func (l *Loopback) WriteString(s string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.acks = append(l.acks, s)
	return nil
}

func (l *Loopback) Flush() error { return nil }

func (l *Loopback) Close() error { return nil }
