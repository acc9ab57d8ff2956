package pme

import (
	"fmt"
	"math"

	algofft "github.com/cwbudde/algo-fft"
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-md/md/box"
	"github.com/cwbudde/algo-md/md/units"
)

// Solver is a smooth particle-mesh Ewald solver sized for a fixed atom
// count, mesh and interpolation order. It is not safe for concurrent use.
type Solver struct {
	alpha    float64
	numAtoms int
	mesh     [3]int
	order    int

	plans [3]*algofft.Plan[complex128]

	grid []complex128 // x-major: index (x*mesh[1]+y)*mesh[2]+z
	line []complex128 // scratch row for strided axis transforms

	moduli [3][]float64

	// Influence function and k components, cached per box (and alpha).
	influence []float64
	kvec      [3][]float64
	cachedBox box.Box
	haveCache bool

	theta  [3][]float64
	dtheta [3][]float64
	home   [][3]int

	re, im, power []float64

	virial [3][3]float64
}

// New creates a solver for numAtoms particles on the given mesh. order is
// the B-spline interpolation order (>= 3; 5 is the standard choice). Mesh
// dimensions must be at least the order and supported by the FFT backend.
func New(alpha float64, numAtoms int, mesh [3]int, order int) (*Solver, error) {
	if alpha <= 0 {
		return nil, fmt.Errorf("pme: alpha must be positive, got %v", alpha)
	}
	if numAtoms < 1 {
		return nil, fmt.Errorf("pme: need at least one atom, got %d", numAtoms)
	}
	if order < 3 {
		return nil, fmt.Errorf("pme: interpolation order must be at least 3, got %d", order)
	}
	for _, k := range mesh {
		if k < order {
			return nil, fmt.Errorf("pme: mesh dimension %d smaller than order %d", k, order)
		}
	}

	s := &Solver{
		alpha:    alpha,
		numAtoms: numAtoms,
		mesh:     mesh,
		order:    order,
	}
	maxDim := 0
	for axis, k := range mesh {
		plan, err := algofft.NewPlan64(k)
		if err != nil {
			return nil, fmt.Errorf("pme: failed to create FFT plan for mesh dimension %d: %w", k, err)
		}
		s.plans[axis] = plan
		s.moduli[axis] = bsplineModuli(order, k)
		if k > maxDim {
			maxDim = k
		}
	}

	total := mesh[0] * mesh[1] * mesh[2]
	s.grid = make([]complex128, total)
	s.line = make([]complex128, maxDim)
	s.influence = make([]float64, total)
	for axis := range s.kvec {
		s.kvec[axis] = make([]float64, mesh[axis])
	}
	for axis := range s.theta {
		s.theta[axis] = make([]float64, numAtoms*order)
		s.dtheta[axis] = make([]float64, numAtoms*order)
	}
	s.home = make([][3]int, numAtoms)
	s.re = make([]float64, total)
	s.im = make([]float64, total)
	s.power = make([]float64, total)
	return s, nil
}

// Execute computes the reciprocal-space energy and forces for the current
// positions and charges. posq holds x, y, z, charge per atom and must match
// the atom count the solver was built for. Forces are added into forces
// (4 floats per atom); the energy is accumulated into energy when non-nil.
// The virial of this evaluation is available from Virial afterwards.
func (s *Solver) Execute(posq []float32, bx box.Box, forces []float32, energy *float64) {
	if len(posq) != 4*s.numAtoms {
		panic(fmt.Sprintf("pme: solver built for %d atoms, got posq for %d", s.numAtoms, len(posq)/4))
	}
	if len(forces) < 4*s.numAtoms {
		panic("pme: forces buffer too short")
	}

	s.ensureInfluence(bx)
	s.spreadCharges(posq, bx)
	s.transform(forward)
	e := s.convolve()
	if energy != nil {
		*energy += e
	}
	s.transform(inverse)
	s.gatherForces(posq, bx, forces)
}

// Virial returns the reciprocal-space virial tensor of the last Execute.
func (s *Solver) Virial() [3][3]float64 {
	return s.virial
}

// ensureInfluence rebuilds the cached influence function when the box (or
// nothing yet) changed. influence(m) folds together the Ewald Gaussian, the
// 1/k^2 Green function, the B-spline moduli and the Coulomb prefactor; the
// m = 0 entry is zero (tinfoil boundary).
func (s *Solver) ensureInfluence(bx box.Box) {
	if s.haveCache && bx == s.cachedBox {
		return
	}
	s.cachedBox = bx
	s.haveCache = true

	for axis := 0; axis < 3; axis++ {
		k := s.mesh[axis]
		scale := 2 * math.Pi / float64(bx.Size(axis))
		for m := 0; m < k; m++ {
			freq := m
			if m > k/2 {
				freq = m - k
			}
			s.kvec[axis][m] = scale * float64(freq)
		}
	}

	coeff := units.One4PiEps0 * 4 * math.Pi / bx.Volume()
	factor := -1 / (4 * s.alpha * s.alpha)
	idx := 0
	for mx := 0; mx < s.mesh[0]; mx++ {
		kx2 := s.kvec[0][mx] * s.kvec[0][mx]
		modX := s.moduli[0][mx]
		for my := 0; my < s.mesh[1]; my++ {
			ky2 := s.kvec[1][my] * s.kvec[1][my]
			modXY := modX * s.moduli[1][my]
			for mz := 0; mz < s.mesh[2]; mz++ {
				if mx == 0 && my == 0 && mz == 0 {
					s.influence[idx] = 0
					idx++
					continue
				}
				k2 := kx2 + ky2 + s.kvec[2][mz]*s.kvec[2][mz]
				denom := modXY * s.moduli[2][mz]
				s.influence[idx] = coeff * math.Exp(k2*factor) / (k2 * denom)
				idx++
			}
		}
	}
}

// spreadCharges interpolates every charge onto the mesh with B-spline
// weights and records the weights for the force gather.
func (s *Solver) spreadCharges(posq []float32, bx box.Box) {
	for i := range s.grid {
		s.grid[i] = 0
	}

	ky, kz := s.mesh[1], s.mesh[2]
	for i := 0; i < s.numAtoms; i++ {
		q := float64(posq[4*i+3])
		for axis := 0; axis < 3; axis++ {
			k := s.mesh[axis]
			u := float64(posq[4*i+axis]) / float64(bx.Size(axis)) * float64(k)
			u -= math.Floor(u/float64(k)) * float64(k)
			cell := int(math.Floor(u))
			if cell >= k { // guards the u == k edge after rounding
				cell -= k
			}
			w := u - float64(cell)
			bsplineWeights(
				s.theta[axis][i*s.order:(i+1)*s.order],
				s.dtheta[axis][i*s.order:(i+1)*s.order],
				w, s.order,
			)
			home := cell - s.order + 1
			if home < 0 {
				home += k
			}
			s.home[i][axis] = home
		}

		tx := s.theta[0][i*s.order : (i+1)*s.order]
		ty := s.theta[1][i*s.order : (i+1)*s.order]
		tz := s.theta[2][i*s.order : (i+1)*s.order]
		for jx := 0; jx < s.order; jx++ {
			gx := s.home[i][0] + jx
			if gx >= s.mesh[0] {
				gx -= s.mesh[0]
			}
			qx := q * tx[jx]
			for jy := 0; jy < s.order; jy++ {
				gy := s.home[i][1] + jy
				if gy >= ky {
					gy -= ky
				}
				qxy := qx * ty[jy]
				base := (gx*ky + gy) * kz
				for jz := 0; jz < s.order; jz++ {
					gz := s.home[i][2] + jz
					if gz >= kz {
						gz -= kz
					}
					s.grid[base+gz] += complex(qxy*tz[jz], 0)
				}
			}
		}
	}
}

type direction int

const (
	forward direction = iota
	inverse
)

// transform runs the 3D FFT as three axis passes. The z axis is contiguous;
// the other two gather and scatter through the line scratch buffer.
func (s *Solver) transform(dir direction) {
	kx, ky, kz := s.mesh[0], s.mesh[1], s.mesh[2]

	run := func(axis int, data []complex128) {
		var err error
		if dir == forward {
			err = s.plans[axis].Forward(data, data)
		} else {
			err = s.plans[axis].Inverse(data, data)
		}
		if err != nil {
			// Plan creation fixed the size; a length mismatch here is a bug.
			panic(fmt.Sprintf("pme: FFT failed: %v", err))
		}
	}

	for x := 0; x < kx; x++ {
		for y := 0; y < ky; y++ {
			row := s.grid[(x*ky+y)*kz : (x*ky+y+1)*kz]
			run(2, row)
		}
	}

	line := s.line
	for x := 0; x < kx; x++ {
		for z := 0; z < kz; z++ {
			for y := 0; y < ky; y++ {
				line[y] = s.grid[(x*ky+y)*kz+z]
			}
			run(1, line[:ky])
			for y := 0; y < ky; y++ {
				s.grid[(x*ky+y)*kz+z] = line[y]
			}
		}
	}

	for y := 0; y < ky; y++ {
		for z := 0; z < kz; z++ {
			for x := 0; x < kx; x++ {
				line[x] = s.grid[(x*ky+y)*kz+z]
			}
			run(0, line[:kx])
			for x := 0; x < kx; x++ {
				s.grid[(x*ky+y)*kz+z] = line[x]
			}
		}
	}
}

// convolve multiplies the transformed mesh by the influence function,
// returning the reciprocal-space energy and accumulating the virial. The
// mesh is left scaled for the inverse transform so that the gathered
// potential is the true convolution (the backend's inverse normalizes by
// the transform length).
func (s *Solver) convolve() float64 {
	total := float64(s.mesh[0] * s.mesh[1] * s.mesh[2])

	for i, g := range s.grid {
		s.re[i] = real(g)
		s.im[i] = imag(g)
	}
	vecmath.Power(s.power, s.re, s.im)
	energy := 0.5 * vecmath.DotProduct(s.power, s.influence)

	var vir [3][3]float64
	selfTerm := 1 / (4 * s.alpha * s.alpha)
	idx := 0
	for mx := 0; mx < s.mesh[0]; mx++ {
		for my := 0; my < s.mesh[1]; my++ {
			for mz := 0; mz < s.mesh[2]; mz++ {
				g := s.influence[idx]
				if g != 0 {
					kv := [3]float64{s.kvec[0][mx], s.kvec[1][my], s.kvec[2][mz]}
					k2 := kv[0]*kv[0] + kv[1]*kv[1] + kv[2]*kv[2]
					em := 0.5 * g * s.power[idx]
					struc := 2 * (1/k2 + selfTerm)
					for a := 0; a < 3; a++ {
						for b := 0; b < 3; b++ {
							if a == b {
								vir[a][b] += em * (1 - struc*kv[a]*kv[b])
							} else {
								vir[a][b] -= em * struc * kv[a] * kv[b]
							}
						}
					}
					s.grid[idx] *= complex(g*total, 0)
				} else {
					s.grid[idx] = 0
				}
				idx++
			}
		}
	}
	s.virial = vir
	return energy
}

// gatherForces differentiates the interpolated potential through the
// recorded spline weights.
func (s *Solver) gatherForces(posq []float32, bx box.Box, forces []float32) {
	ky, kz := s.mesh[1], s.mesh[2]
	scale := [3]float64{
		float64(s.mesh[0]) / float64(bx.Size(0)),
		float64(s.mesh[1]) / float64(bx.Size(1)),
		float64(s.mesh[2]) / float64(bx.Size(2)),
	}

	for i := 0; i < s.numAtoms; i++ {
		q := float64(posq[4*i+3])
		tx := s.theta[0][i*s.order : (i+1)*s.order]
		ty := s.theta[1][i*s.order : (i+1)*s.order]
		tz := s.theta[2][i*s.order : (i+1)*s.order]
		dx := s.dtheta[0][i*s.order : (i+1)*s.order]
		dy := s.dtheta[1][i*s.order : (i+1)*s.order]
		dz := s.dtheta[2][i*s.order : (i+1)*s.order]

		var fx, fy, fz float64
		for jx := 0; jx < s.order; jx++ {
			gx := s.home[i][0] + jx
			if gx >= s.mesh[0] {
				gx -= s.mesh[0]
			}
			for jy := 0; jy < s.order; jy++ {
				gy := s.home[i][1] + jy
				if gy >= ky {
					gy -= ky
				}
				base := (gx*ky + gy) * kz
				for jz := 0; jz < s.order; jz++ {
					gz := s.home[i][2] + jz
					if gz >= kz {
						gz -= kz
					}
					c := real(s.grid[base+gz])
					fx += c * dx[jx] * ty[jy] * tz[jz]
					fy += c * tx[jx] * dy[jy] * tz[jz]
					fz += c * tx[jx] * ty[jy] * dz[jz]
				}
			}
		}
		forces[4*i] -= float32(q * fx * scale[0])
		forces[4*i+1] -= float32(q * fy * scale[1])
		forces[4*i+2] -= float32(q * fz * scale[2])
	}
}
