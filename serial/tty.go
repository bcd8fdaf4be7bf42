package serial

import (
	"fmt"
	"time"

	tty "go.bug.st/serial"
)

// TTYPort runs the command channel over a real serial device, for
// deployments where the gadget sits behind an actual UART or USB-CDC link.
// Reads use a short timeout so the control loop never stalls for long; a
// chunk may split across reads exactly as it may on the CDC endpoint.
type TTYPort struct {
	p tty.Port
}

// OpenTTY opens the serial device at the given baud rate (8N1).
func OpenTTY(device string, baud int) (*TTYPort, error) {
	p, err := tty.Open(device, &tty.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", device, err)
	}
	if err := p.SetReadTimeout(time.Millisecond); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("set read timeout: %w", err)
	}
	return &TTYPort{p: p}, nil
}

// Available always reports true; the read itself is timeout-bounded and
// returns 0 bytes when the line is idle.
func (t *TTYPort) Available() bool { return true }

func (t *TTYPort) Read(p []byte) (int, error) { return t.p.Read(p) }

func (t *TTYPort) WriteString(s string) error {
	_, err := t.p.Write([]byte(s))
	return err
}

func (t *TTYPort) Flush() error { return t.p.Drain() }

func (t *TTYPort) Close() error { return t.p.Close() }
