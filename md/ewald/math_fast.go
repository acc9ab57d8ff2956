//go:build fastmath

package ewald

import (
	"github.com/meko-christian/algo-approx"
)

// mathExp computes e^x using fast approximation. The reciprocal-space
// Gaussian damping tolerates the reduced precision; the spline table and
// erfc approximant are unaffected by this switch.
func mathExp(x float64) float64 {
	return approx.FastExp(x)
}
