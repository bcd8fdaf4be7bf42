package gadget

import "time"

// Clock abstracts monotonic time so arbitration and long-press timing can be
// tested deterministically.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by the runtime monotonic clock.
func SystemClock() Clock { return systemClock{} }
