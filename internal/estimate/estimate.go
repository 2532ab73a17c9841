// Package estimate computes the manufacturing-time figure the secondary
// service returns for a finalized configuration. The formula is a
// placeholder heuristic over accessory name lengths; only its input
// contract (validated configuration plus verified qualification flag)
// matters to the rest of the system.
package estimate

import (
	"math/rand"
	"strings"
	"sync"
)

const (
	charWeight = 3

	offsetSpan  = 89 // uniform offset in [1, 90)
	offsetBase  = 1
	divisorSpan = 2 // qualified divisor in [2, 4)
	divisorBase = 2
)

// Estimator draws from one shared randomness source; the mutex keeps it
// safe under gin's concurrent request handling, since *rand.Rand is not.
type Estimator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New builds an estimator over the given randomness source. Tests inject a
// seeded source for reproducible bounds.
func New(rng *rand.Rand) *Estimator {
	return &Estimator{rng: rng}
}

// ManufacturingTime weighs each accessory name at three units per
// character (surrounding whitespace ignored), adds a uniform offset, and
// halves-to-quarters the total for qualified subjects.
func (e *Estimator) ManufacturingTime(accessoryNames []string, qualified bool) int {
	base := 0
	for _, name := range accessoryNames {
		base += len(strings.TrimSpace(name)) * charWeight
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	t := float64(base) + e.rng.Float64()*offsetSpan + offsetBase
	result := int(t + 0.5)

	if qualified {
		divisor := e.rng.Float64()*divisorSpan + divisorBase
		result = int(float64(result)/divisor + 0.5)
	}
	return result
}
