package ewald

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-md/md/box"
	"github.com/cwbudde/algo-md/md/units"
)

// Reciprocal performs the reciprocal-space Ewald summation by direct
// structure-factor evaluation. Kmax holds the number of wave vectors per
// axis. Execution is single-threaded by design: the k-loop is short and the
// direct-space workers own the thread pool during the same step.
type Reciprocal struct {
	Alpha float32
	Kmax  [3]int
}

// Execute adds the reciprocal-space forces into forces (4 floats per atom)
// and, when energy is non-nil, accumulates the reciprocal-space energy.
// posq holds x, y, z, charge per atom.
func (rc *Reciprocal) Execute(posq []float32, bx box.Box, forces []float32, energy *float64) {
	n := len(posq) / 4
	if n == 0 {
		return
	}
	kmax := rc.Kmax[0]
	for _, k := range rc.Kmax {
		if k < 1 {
			panic(fmt.Sprintf("ewald: kmax must be at least 1 per axis, got %v", rc.Kmax))
		}
		if k > kmax {
			kmax = k
		}
	}

	recip := [3]float64{
		2 * math.Pi / float64(bx.Size(0)),
		2 * math.Pi / float64(bx.Size(1)),
		2 * math.Pi / float64(bx.Size(2)),
	}
	alpha := float64(rc.Alpha)
	factor := -1 / (4 * alpha * alpha)
	coeff := units.One4PiEps0 * 4 * math.Pi / bx.Volume()

	// Per-atom phase factors e^{i k r} for k = 0..kmax-1 along each axis,
	// built by incremental complex multiplication instead of per-k trig.
	rows := kmax
	if rows < 2 {
		rows = 2
	}
	eirRe := make([]float64, rows*n*3)
	eirIm := make([]float64, rows*n*3)
	at := func(k, i, m int) int { return (k*n+i)*3 + m }
	for i := 0; i < n; i++ {
		for m := 0; m < 3; m++ {
			eirRe[at(0, i, m)] = 1
			phase := float64(posq[4*i+m]) * recip[m]
			eirRe[at(1, i, m)] = math.Cos(phase)
			eirIm[at(1, i, m)] = math.Sin(phase)
		}
	}
	for k := 2; k < rows; k++ {
		for i := 0; i < n; i++ {
			for m := 0; m < 3; m++ {
				prevRe, prevIm := eirRe[at(k-1, i, m)], eirIm[at(k-1, i, m)]
				oneRe, oneIm := eirRe[at(1, i, m)], eirIm[at(1, i, m)]
				eirRe[at(k, i, m)] = prevRe*oneRe - prevIm*oneIm
				eirIm[at(k, i, m)] = prevRe*oneIm + prevIm*oneRe
			}
		}
	}

	charges := make([]float64, n)
	for i := 0; i < n; i++ {
		charges[i] = float64(posq[4*i+3])
	}
	tabRe := make([]float64, n)
	tabIm := make([]float64, n)
	phRe := make([]float64, n)
	phIm := make([]float64, n)

	// Enumerate the non-redundant half-space of k vectors. The running
	// lowry/lowrz offsets fold the conjugate-symmetric half in after the
	// first pass along each inner axis.
	lowry := 0
	lowrz := 1
	for rx := 0; rx < rc.Kmax[0]; rx++ {
		kx := float64(rx) * recip[0]
		for ry := lowry; ry < rc.Kmax[1]; ry++ {
			ky := float64(ry) * recip[1]
			if ry >= 0 {
				for i := 0; i < n; i++ {
					yRe, yIm := eirRe[at(ry, i, 1)], eirIm[at(ry, i, 1)]
					xRe, xIm := eirRe[at(rx, i, 0)], eirIm[at(rx, i, 0)]
					tabRe[i] = xRe*yRe - xIm*yIm
					tabIm[i] = xRe*yIm + xIm*yRe
				}
			} else {
				for i := 0; i < n; i++ {
					yRe, yIm := eirRe[at(-ry, i, 1)], -eirIm[at(-ry, i, 1)]
					xRe, xIm := eirRe[at(rx, i, 0)], eirIm[at(rx, i, 0)]
					tabRe[i] = xRe*yRe - xIm*yIm
					tabIm[i] = xRe*yIm + xIm*yRe
				}
			}
			for rz := lowrz; rz < rc.Kmax[2]; rz++ {
				if rz >= 0 {
					for i := 0; i < n; i++ {
						zRe, zIm := eirRe[at(rz, i, 2)], eirIm[at(rz, i, 2)]
						phRe[i] = tabRe[i]*zRe - tabIm[i]*zIm
						phIm[i] = tabRe[i]*zIm + tabIm[i]*zRe
					}
				} else {
					for i := 0; i < n; i++ {
						zRe, zIm := eirRe[at(-rz, i, 2)], -eirIm[at(-rz, i, 2)]
						phRe[i] = tabRe[i]*zRe - tabIm[i]*zIm
						phIm[i] = tabRe[i]*zIm + tabIm[i]*zRe
					}
				}

				// Structure factor S(k) = sum q_i e^{i k r_i}.
				cs := vecmath.DotProduct(charges, phRe)
				ss := vecmath.DotProduct(charges, phIm)

				kz := float64(rz) * recip[2]
				k2 := kx*kx + ky*ky + kz*kz
				ak := mathExp(k2*factor) / k2

				for i := 0; i < n; i++ {
					f := 2 * coeff * ak * charges[i] * (cs*phIm[i] - ss*phRe[i])
					forces[4*i] += float32(f * kx)
					forces[4*i+1] += float32(f * ky)
					forces[4*i+2] += float32(f * kz)
				}
				if energy != nil {
					*energy += coeff * ak * (cs*cs + ss*ss)
				}
				lowrz = 1 - rc.Kmax[2]
			}
			lowry = 1 - rc.Kmax[1]
		}
	}
}

// SelfEnergy returns the Ewald self-interaction term -a/sqrt(pi) * sum q^2
// (in energy units), which the reciprocal sum implicitly includes for each
// charge interacting with its own screening Gaussian. Callers that want the
// physical lattice energy subtract it once per evaluation.
func (rc *Reciprocal) SelfEnergy(posq []float32) float64 {
	var q2 float64
	for i := 0; i+3 < len(posq); i += 4 {
		q := float64(posq[i+3])
		q2 += q * q
	}
	return -units.One4PiEps0 * float64(rc.Alpha) / math.Sqrt(math.Pi) * q2
}
