package nonbonded

import (
	"math"
	"math/rand"

	"github.com/cwbudde/algo-md/md/box"
	"github.com/cwbudde/algo-md/md/units"
)

// refSettings mirrors the engine configuration for the float64 reference
// evaluator the tests compare against.
type refSettings struct {
	cutoff     float64 // 0 means no cutoff
	krf, crf   float64
	useSwitch  bool
	switchDist float64
	bx         *box.Box
}

func rfConstants(cutoff, dielectric float64) (krf, crf float64) {
	krf = (dielectric - 1) / ((2*dielectric + 1) * cutoff * cutoff * cutoff)
	crf = 3 * dielectric / ((2*dielectric + 1) * cutoff)
	return
}

// referenceDirect evaluates the direct-space sum pair by pair in float64.
func referenceDirect(posq []float32, params []LJParam, exclusions [][]int32, set refSettings) (float64, []float64) {
	n := len(params)
	forces := make([]float64, 3*n)
	var energy float64

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if isExcludedPair(exclusions, i, j) {
				continue
			}
			dx := float64(posq[4*i] - posq[4*j])
			dy := float64(posq[4*i+1] - posq[4*j+1])
			dz := float64(posq[4*i+2] - posq[4*j+2])
			if set.bx != nil {
				fx, fy, fz := set.bx.MinimumImage(float32(dx), float32(dy), float32(dz))
				dx, dy, dz = float64(fx), float64(fy), float64(fz)
			}
			r2 := dx*dx + dy*dy + dz*dz
			if set.cutoff > 0 && r2 >= set.cutoff*set.cutoff {
				continue
			}
			r := math.Sqrt(r2)
			invR := 1 / r

			switchValue, switchDeriv := 1.0, 0.0
			if set.useSwitch && r > set.switchDist {
				t := (r - set.switchDist) / (set.cutoff - set.switchDist)
				switchValue = 1 + t*t*t*(-10+t*(15-t*6))
				switchDeriv = t * t * (-30 + t*(60-t*30)) / (set.cutoff - set.switchDist)
			}

			sig := float64(params[i].Sigma + params[j].Sigma)
			sig2 := invR * sig
			sig2 *= sig2
			sig6 := sig2 * sig2 * sig2
			eps := float64(params[i].Epsilon) * float64(params[j].Epsilon)
			dEdR := switchValue * eps * (12*sig6 - 6) * sig6
			chargeProd := units.One4PiEps0 * float64(posq[4*i+3]) * float64(posq[4*j+3])
			if set.cutoff > 0 {
				dEdR += chargeProd * (invR - 2*set.krf*r2)
			} else {
				dEdR += chargeProd * invR
			}
			dEdR *= invR * invR
			pair := eps * (sig6 - 1) * sig6
			if set.useSwitch {
				dEdR -= pair * switchDeriv * invR
				pair *= switchValue
			}
			if set.cutoff > 0 {
				pair += chargeProd * (invR + set.krf*r2 - set.crf)
			} else {
				pair += chargeProd * invR
			}
			energy += pair

			forces[3*i] += dx * dEdR
			forces[3*i+1] += dy * dEdR
			forces[3*i+2] += dz * dEdR
			forces[3*j] -= dx * dEdR
			forces[3*j+1] -= dy * dEdR
			forces[3*j+2] -= dz * dEdR
		}
	}
	return energy, forces
}

func isExcludedPair(exclusions [][]int32, i, j int) bool {
	if exclusions == nil {
		return false
	}
	for _, e := range exclusions[i] {
		if int(e) == j {
			return true
		}
	}
	return false
}

// symmetricExclusions builds an exclusion table from unordered pairs.
func symmetricExclusions(n int, pairs ...[2]int) [][]int32 {
	ex := make([][]int32, n)
	for _, p := range pairs {
		ex[p[0]] = append(ex[p[0]], int32(p[1]))
		ex[p[1]] = append(ex[p[1]], int32(p[0]))
	}
	return ex
}

// randomSystem places n atoms in the box with small neutralized charges and
// modest Lennard-Jones parameters. Placements keep a minimum separation so
// the repulsive core never blows the float32 force range.
func randomSystem(rng *rand.Rand, n int, bx box.Box) ([]float32, []LJParam) {
	const minDist = 0.25
	posq := make([]float32, 4*n)
	params := make([]LJParam, n)
	var net float32
	for i := 0; i < n; i++ {
	place:
		for {
			x := rng.Float32() * bx.Size(0)
			y := rng.Float32() * bx.Size(1)
			z := rng.Float32() * bx.Size(2)
			for j := 0; j < i; j++ {
				dx, dy, dz := bx.MinimumImage(x-posq[4*j], y-posq[4*j+1], z-posq[4*j+2])
				if dx*dx+dy*dy+dz*dz < minDist*minDist {
					continue place
				}
			}
			posq[4*i], posq[4*i+1], posq[4*i+2] = x, y, z
			break
		}
		q := 0.4 * (rng.Float32() - 0.5)
		posq[4*i+3] = q
		net += q
		params[i] = LJParam{
			Sigma:   0.05 + 0.05*rng.Float32(),
			Epsilon: 0.3 + 0.4*rng.Float32(),
		}
	}
	posq[4*(n-1)+3] -= net
	return posq, params
}

func maxAbs(forces []float64) float64 {
	var m float64
	for _, f := range forces {
		if a := math.Abs(f); a > m {
			m = a
		}
	}
	return m
}
