// Package hid defines the mouse report shape and the transport boundary the
// gadget engine emits into.
package hid

// ReportIDMouse identifies the mouse report to transports that multiplex
// several report types. The exported boot-style gadget carries a single
// report and ignores the ID on the wire.
const ReportIDMouse = 1

// ButtonLeft is bit 0 of the button bitfield (1=Right, 2=Middle, 3=Back,
// 4=Forward).
const ButtonLeft uint8 = 1 << 0

// ReportLen is the wire size of one mouse report.
const ReportLen = 5

// Report is one relative mouse motion report.
type Report struct {
	Buttons uint8
	DX      int8
	DY      int8
	Wheel   int8
	Pan     int8
}

// IsZero reports whether sending this report would be a no-op for the host.
func (r Report) IsZero() bool {
	return r == Report{}
}

// Bytes encodes the report for the boot-style descriptor: button bitfield
// (upper 3 bits masked), then dx, dy, wheel, pan as signed bytes.
func (r Report) Bytes() []byte {
	return []byte{r.Buttons & 0x1f, byte(r.DX), byte(r.DY), byte(r.Wheel), byte(r.Pan)}
}
