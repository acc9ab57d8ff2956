package nonbonded

import (
	"math"

	"github.com/cwbudde/algo-md/md/ewald"
	"github.com/cwbudde/algo-md/md/units"
)

// correctExclusions subtracts the direct-space Coulomb interaction of every
// excluded pair under Ewald damping. The reciprocal sum has no notion of
// exclusions, so each excluded pair contributes its full smeared-charge
// interaction there; removing the complement 1-erfc(alpha*r) of the
// real-space term cancels it exactly. Displacements are taken without
// minimum-image wrapping: excluded pairs are bonded neighbors and must never
// straddle half a box.
func (e *Engine) correctExclusions(threadIndex, numThreads int, forces []float32, energy *float64) {
	if e.exclusions == nil {
		return
	}
	for i := threadIndex; i < e.numAtoms; i += numThreads {
		for _, partner := range e.exclusions[i] {
			j := int(partner)
			if j <= i {
				continue
			}
			dx := e.posq[4*i] - e.posq[4*j]
			dy := e.posq[4*i+1] - e.posq[4*j+1]
			dz := e.posq[4*i+2] - e.posq[4*j+2]
			r2 := dx*dx + dy*dy + dz*dz
			r := float32(math.Sqrt(float64(r2)))
			inverseR := 1 / r
			chargeProd := units.One4PiEps0 * e.posq[4*i+3] * e.posq[4*j+3]
			alphaR := e.alpha * r
			erfcAlphaR := ewald.Erfc(alphaR)
			dEdR := chargeProd * inverseR * inverseR * inverseR
			dEdR *= 1 - erfcAlphaR - ewald.TwoOverSqrtPi*alphaR*float32(math.Exp(float64(-alphaR*alphaR)))

			forces[4*i] -= dx * dEdR
			forces[4*i+1] -= dy * dEdR
			forces[4*i+2] -= dz * dEdR
			forces[4*j] += dx * dEdR
			forces[4*j+1] += dy * dEdR
			forces[4*j+2] += dz * dEdR
			if energy != nil {
				*energy -= float64(chargeProd * inverseR * (1 - erfcAlphaR))
			}
		}
	}
}
