package job

import "math/rand/v2"

// Roller draws the failure roll assigned to a job at submission.
// Implementations must return values in [0,1).
type Roller interface {
	Roll() float64
}

// RollerFunc adapts a function to the Roller interface.
type RollerFunc func() float64

// Roll implements Roller.
func (f RollerFunc) Roll() float64 { return f() }

// RandomRoller draws uniformly from the runtime's auto-seeded generator.
type RandomRoller struct{}

// Roll implements Roller.
func (RandomRoller) Roll() float64 { return rand.Float64() } //nolint:gosec // not security sensitive

// FixedRoller always returns the same value.
type FixedRoller float64

// Roll implements Roller.
func (f FixedRoller) Roll() float64 { return float64(f) }
