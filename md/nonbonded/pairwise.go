package nonbonded

import (
	"math"

	"github.com/cwbudde/algo-md/md/units"
)

// pairInteraction evaluates one atom pair with scalar arithmetic. The
// brute-force path without a neighbor list runs entirely through it.
func (e *Engine) pairInteraction(i, j int, forces []float32, energy *float64) {
	dx := e.posq[4*i] - e.posq[4*j]
	dy := e.posq[4*i+1] - e.posq[4*j+1]
	dz := e.posq[4*i+2] - e.posq[4*j+2]
	if e.periodic {
		dx, dy, dz = e.bx.MinimumImage(dx, dy, dz)
	}
	r2 := dx*dx + dy*dy + dz*dz
	hasCutoff := e.method == coulombReactionField
	if hasCutoff && r2 >= e.cutoff*e.cutoff {
		return
	}
	r := float32(math.Sqrt(float64(r2)))
	inverseR := 1 / r

	switchValue, switchDeriv := float32(1), float32(0)
	if e.useSwitch && r > e.switchDist {
		t := (r - e.switchDist) / (e.cutoff - e.switchDist)
		switchValue = 1 + t*t*t*(-10+t*(15-t*6))
		switchDeriv = t * t * (-30 + t*(60-t*30)) / (e.cutoff - e.switchDist)
	}

	sig := e.params[i].Sigma + e.params[j].Sigma
	sig2 := inverseR * sig
	sig2 *= sig2
	sig6 := sig2 * sig2 * sig2
	eps := e.params[i].Epsilon * e.params[j].Epsilon
	dEdR := switchValue * eps * (12*sig6 - 6) * sig6
	chargeProd := units.One4PiEps0 * e.posq[4*i+3] * e.posq[4*j+3]
	if hasCutoff {
		dEdR += chargeProd * (inverseR - 2*e.krf*r2)
	} else {
		dEdR += chargeProd * inverseR
	}
	dEdR *= inverseR * inverseR
	pairEnergy := eps * (sig6 - 1) * sig6
	if e.useSwitch {
		dEdR -= pairEnergy * switchDeriv * inverseR
		pairEnergy *= switchValue
	}

	if energy != nil {
		if hasCutoff {
			pairEnergy += chargeProd * (inverseR + e.krf*r2 - e.crf)
		} else {
			pairEnergy += chargeProd * inverseR
		}
		*energy += float64(pairEnergy)
	}

	forces[4*i] += dx * dEdR
	forces[4*i+1] += dy * dEdR
	forces[4*i+2] += dz * dEdR
	forces[4*j] -= dx * dEdR
	forces[4*j+1] -= dy * dEdR
	forces[4*j+2] -= dz * dEdR
}
