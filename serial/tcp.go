package serial

import (
	"bufio"
	"errors"
	"log/slog"
	"net"
	"sync"
)

// TCPPort serves the command channel over a TCP listener. One client is
// connected at a time; a new connection replaces the previous one. Each
// received line is queued as one chunk for the control loop to drain.
type TCPPort struct {
	ln     net.Listener
	logger *slog.Logger

	mu    sync.Mutex
	conn  net.Conn
	lines [][]byte
}

// ListenTCP binds the command channel listener and starts accepting clients.
func ListenTCP(addr string, logger *slog.Logger) (*TCPPort, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	p := &TCPPort{ln: ln, logger: logger}
	go p.acceptLoop()
	logger.Info("command channel listening", "addr", ln.Addr().String())
	return p, nil
}

// Addr returns the bound listener address.
func (p *TCPPort) Addr() net.Addr { return p.ln.Addr() }

func (p *TCPPort) acceptLoop() {
	for {
		c, err := p.ln.Accept()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				p.logger.Error("command channel accept", "error", err)
			}
			return
		}
		p.mu.Lock()
		if p.conn != nil {
			p.logger.Info("command client replaced", "remote", c.RemoteAddr())
			_ = p.conn.Close()
		} else {
			p.logger.Info("command client connected", "remote", c.RemoteAddr())
		}
		p.conn = c
		p.mu.Unlock()
		go p.readLoop(c)
	}
}

func (p *TCPPort) readLoop(c net.Conn) {
	sc := bufio.NewScanner(c)
	sc.Buffer(make([]byte, 512), 4096)
	for sc.Scan() {
		line := append([]byte(nil), sc.Bytes()...)
		p.mu.Lock()
		p.lines = append(p.lines, line)
		p.mu.Unlock()
	}
	p.mu.Lock()
	if p.conn == c {
		p.conn = nil
		p.logger.Info("command client disconnected")
	}
	p.mu.Unlock()
	_ = c.Close()
}

func (p *TCPPort) Available() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.lines) > 0
}

// Read pops one queued line into buf. Bytes beyond len(buf) are discarded,
// implementing the bounded-read truncation contract.
func (p *TCPPort) Read(buf []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.lines) == 0 {
		return 0, nil
	}
	line := p.lines[0]
	p.lines = p.lines[1:]
	return copy(buf, line), nil
}

func (p *TCPPort) WriteString(s string) error {
	p.mu.Lock()
	c := p.conn
	p.mu.Unlock()
	if c == nil {
		return nil
	}
	_, err := c.Write([]byte(s))
	return err
}

// Flush is a no-op; net.Conn writes are unbuffered.
func (p *TCPPort) Flush() error { return nil }

func (p *TCPPort) Close() error {
	p.mu.Lock()
	c := p.conn
	p.conn = nil
	p.mu.Unlock()
	if c != nil {
		_ = c.Close()
	}
	return p.ln.Close()
}
