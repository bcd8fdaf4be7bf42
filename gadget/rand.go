package gadget

import (
	"math/rand"
	"time"
)

// RandSource supplies the jitter randomness. Tests inject a fixed sequence
// to make synthesized reports deterministic.
type RandSource interface {
	Intn(n int) int
}

// NewRand returns a time-seeded RandSource.
func NewRand() RandSource {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}
