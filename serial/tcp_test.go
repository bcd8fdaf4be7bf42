package serial_test

import (
	"bufio"
	"log/slog"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GeorgeZeng997/pico-mouse/serial"
)

func dialPort(t *testing.T, p *serial.TCPPort) net.Conn {
	t.Helper()
	c, err := net.Dial("tcp", p.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestTCPPortLineRoundtrip(t *testing.T) {
	p, err := serial.ListenTCP("127.0.0.1:0", slog.Default())
	require.NoError(t, err)
	defer func() { _ = p.Close() }()

	c := dialPort(t, p)
	_, err = c.Write([]byte("55 0 0 0 0 0 0\n"))
	require.NoError(t, err)

	assert.Eventually(t, p.Available, time.Second, time.Millisecond)

	buf := make([]byte, serial.ReadBufSize)
	n, err := p.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "55 0 0 0 0 0 0", string(buf[:n]))
	assert.False(t, p.Available())

	// Acknowledgements travel back to the connected client.
	require.NoError(t, p.WriteString("ok\n"))
	require.NoError(t, p.Flush())
	line, err := bufio.NewReader(c).ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "ok\n", line)
}

func TestTCPPortQueuesLines(t *testing.T) {
	p, err := serial.ListenTCP("127.0.0.1:0", slog.Default())
	require.NoError(t, err)
	defer func() { _ = p.Close() }()

	c := dialPort(t, p)
	_, err = c.Write([]byte("first\nsecond\n"))
	require.NoError(t, err)

	assert.Eventually(t, p.Available, time.Second, time.Millisecond)

	buf := make([]byte, serial.ReadBufSize)
	n, _ := p.Read(buf)
	assert.Equal(t, "first", string(buf[:n]))

	assert.Eventually(t, p.Available, time.Second, time.Millisecond)
	n, _ = p.Read(buf)
	assert.Equal(t, "second", string(buf[:n]))
}

func TestTCPPortTruncatesLongLines(t *testing.T) {
	p, err := serial.ListenTCP("127.0.0.1:0", slog.Default())
	require.NoError(t, err)
	defer func() { _ = p.Close() }()

	c := dialPort(t, p)
	long := strings.Repeat("9", 100)
	_, err = c.Write([]byte(long + "\n"))
	require.NoError(t, err)

	assert.Eventually(t, p.Available, time.Second, time.Millisecond)

	// Bytes beyond the read buffer are dropped, not queued.
	buf := make([]byte, serial.ReadBufSize)
	n, err := p.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, serial.ReadBufSize, n)
	assert.Equal(t, long[:serial.ReadBufSize], string(buf[:n]))
	assert.False(t, p.Available())
}

func TestTCPPortEmptyRead(t *testing.T) {
	p, err := serial.ListenTCP("127.0.0.1:0", slog.Default())
	require.NoError(t, err)
	defer func() { _ = p.Close() }()

	assert.False(t, p.Available())
	buf := make([]byte, serial.ReadBufSize)
	n, err := p.Read(buf)
	assert.NoError(t, err)
	assert.Zero(t, n)

	// Writing an ack with no client connected is a silent no-op.
	assert.NoError(t, p.WriteString("ok\n"))
}

func TestLoopback(t *testing.T) {
	l := &serial.Loopback{}
	assert.False(t, l.Available())

	l.Push("55 0 0 0 0 0 0")
	assert.True(t, l.Available())

	buf := make([]byte, serial.ReadBufSize)
	n, err := l.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "55 0 0 0 0 0 0", string(buf[:n]))

	require.NoError(t, l.WriteString("ok\n"))
	assert.Equal(t, []string{"ok\n"}, l.Acks())
}
