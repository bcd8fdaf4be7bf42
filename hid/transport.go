package hid

// Transport delivers reports to the host. Implementations own any buffering
// between the engine's tick cadence and the host's poll cadence.
type Transport interface {
	// Ready reports whether the transport can currently deliver reports.
	// The engine skips the whole tick while the transport is not ready.
	Ready() bool
	// SendReport hands one report to the transport. id is ReportIDMouse for
	// every report the engine produces.
	SendReport(id uint8, r Report) error
}
