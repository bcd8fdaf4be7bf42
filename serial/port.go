// Package serial provides the command-channel transports the gadget polls
// for motion-command lines.
package serial

// ReadBufSize bounds one command read. A received line longer than this is
// delivered truncated and the remainder is lost; this is a documented
// contract of the channel, not a defect.
const ReadBufSize = 64

// Port is the byte-level command channel. All calls are best-effort and
// non-blocking from the control loop's point of view: Read returns whatever
// is buffered (possibly nothing), writes go to the currently connected peer.
type Port interface {
	// Available reports whether a Read would return data.
	Available() bool
	// Read fills p with at most one received chunk.
	Read(p []byte) (int, error)
	// WriteString sends an acknowledgement line to the peer.
	WriteString(s string) error
	// Flush pushes buffered writes to the peer.
	Flush() error
	// Close releases the underlying transport.
	Close() error
}
