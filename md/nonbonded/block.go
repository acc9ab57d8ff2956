package nonbonded

import (
	"github.com/cwbudde/algo-md/internal/fvec"
	"github.com/cwbudde/algo-md/md/ewald"
	"github.com/cwbudde/algo-md/md/units"
)

// blockState gathers one neighbor-list block into lane-transposed vectors.
type blockState struct {
	atoms        []int32
	x, y, z      fvec.Float4
	charge       fvec.Float4 // pre-scaled by the Coulomb constant
	sigma        fvec.Float4
	epsilon      fvec.Float4
	force        [4]fvec.Float4
	needPeriodic bool
}

func (e *Engine) loadBlock(blockIndex int, s *blockState) {
	s.atoms = e.neighbors.BlockAtoms(blockIndex)
	var posq [4]fvec.Float4
	for l, a := range s.atoms {
		posq[l] = fvec.Load(e.posq[4*a : 4*a+4])
		s.force[l] = fvec.Float4{}
	}
	s.x = fvec.New(posq[0][0], posq[1][0], posq[2][0], posq[3][0])
	s.y = fvec.New(posq[0][1], posq[1][1], posq[2][1], posq[3][1])
	s.z = fvec.New(posq[0][2], posq[1][2], posq[2][2], posq[3][2])
	s.charge = fvec.New(posq[0][3], posq[1][3], posq[2][3], posq[3][3]).Scale(units.One4PiEps0)
	s.sigma = fvec.New(
		e.params[s.atoms[0]].Sigma, e.params[s.atoms[1]].Sigma,
		e.params[s.atoms[2]].Sigma, e.params[s.atoms[3]].Sigma)
	s.epsilon = fvec.New(
		e.params[s.atoms[0]].Epsilon, e.params[s.atoms[1]].Epsilon,
		e.params[s.atoms[2]].Epsilon, e.params[s.atoms[3]].Epsilon)

	// Wrapping is only needed when some block atom sits within a cutoff of
	// a box face; interior blocks skip the minimum-image arithmetic.
	s.needPeriodic = false
	if e.periodic {
		for l := 0; l < 4 && !s.needPeriodic; l++ {
			s.needPeriodic = e.bx.NearEdge(posq[l][0], posq[l][1], posq[l][2], e.cutoff)
		}
	}
}

// deltaToBlock computes the lanewise displacement from the neighbor atom to
// the four block atoms and its squared length.
func (e *Engine) deltaToBlock(s *blockState, atom int32) (dx, dy, dz, r2 fvec.Float4) {
	jx := e.posq[4*atom]
	jy := e.posq[4*atom+1]
	jz := e.posq[4*atom+2]
	dx = s.x.SubScalar(jx)
	dy = s.y.SubScalar(jy)
	dz = s.z.SubScalar(jz)
	if s.needPeriodic {
		dx, dy, dz = e.bx.MinimumImage4(dx, dy, dz)
	}
	r2 = dx.Mul(dx).Add(dy.Mul(dy)).Add(dz.Mul(dz))
	return
}

// switchFactors evaluates the quintic switching taper for four distances.
// Lanes below the switching distance get value 1 and derivative 0.
func (e *Engine) switchFactors(r fvec.Float4) (value, deriv fvec.Float4) {
	invWidth := 1 / (e.cutoff - e.switchDist)
	t := fvec.Blend(
		r.Greater(fvec.Broadcast(e.switchDist)),
		r.SubScalar(e.switchDist).Scale(invWidth),
		fvec.Float4{},
	)
	t3 := t.Mul(t).Mul(t)
	value = t3.Mul(t.Scale(-6).AddScalar(15).Mul(t).AddScalar(-10)).AddScalar(1)
	deriv = t.Mul(t).Mul(t.Scale(-30).AddScalar(60).Mul(t).AddScalar(-30)).Scale(invWidth)
	return
}

// applyPairForces scatters the lanewise force vector onto the block
// accumulators and the neighbor atom, honoring the inclusion mask.
func applyPairForces(s *blockState, forces []float32, atom int32, include [4]bool, dx, dy, dz, dEdR fvec.Float4) {
	fx := dx.Mul(dEdR)
	fy := dy.Mul(dEdR)
	fz := dz.Mul(dEdR)
	var fw fvec.Float4
	fvec.Transpose(&fx, &fy, &fz, &fw)
	result := [4]fvec.Float4{fx, fy, fz, fw}

	atomForce := fvec.Load(forces[4*atom : 4*atom+4])
	for l := 0; l < 4; l++ {
		if include[l] {
			s.force[l] = s.force[l].Add(result[l])
			atomForce = atomForce.Sub(result[l])
		}
	}
	atomForce.Store(forces[4*atom : 4*atom+4])
}

// blockInteractions evaluates one block against its neighbors with
// reaction-field electrostatics.
func (e *Engine) blockInteractions(blockIndex int, forces []float32, energy *float64) {
	var s blockState
	e.loadBlock(blockIndex, &s)
	cutoff2 := e.cutoff * e.cutoff

	neighbors := e.neighbors.Neighbors(blockIndex)
	masks := e.neighbors.ExclusionMasks(blockIndex)
	for ni, atom := range neighbors {
		dx, dy, dz, r2 := e.deltaToBlock(&s, atom)

		var include [4]bool
		any := false
		for l := 0; l < 4; l++ {
			include[l] = (masks[ni]>>l)&1 == 0 && r2[l] < cutoff2
			any = any || include[l]
		}
		if !any {
			continue
		}

		r := r2.Sqrt()
		inverseR := fvec.Broadcast(1).Div(r)
		switchValue := fvec.Broadcast(1)
		var switchDeriv fvec.Float4
		if e.useSwitch {
			switchValue, switchDeriv = e.switchFactors(r)
		}

		sig := s.sigma.AddScalar(e.params[atom].Sigma)
		sig2 := inverseR.Mul(sig)
		sig2 = sig2.Mul(sig2)
		sig6 := sig2.Mul(sig2).Mul(sig2)
		eps := s.epsilon.Scale(e.params[atom].Epsilon)
		dEdR := switchValue.Mul(eps).Mul(sig6.Scale(12).AddScalar(-6)).Mul(sig6)
		chargeProd := s.charge.Scale(e.posq[4*atom+3])
		dEdR = dEdR.Add(chargeProd.Mul(inverseR.Sub(r2.Scale(2 * e.krf))))
		dEdR = dEdR.Mul(inverseR).Mul(inverseR)
		pairEnergy := eps.Mul(sig6.AddScalar(-1)).Mul(sig6)
		if e.useSwitch {
			dEdR = dEdR.Sub(pairEnergy.Mul(switchDeriv).Mul(inverseR))
			pairEnergy = pairEnergy.Mul(switchValue)
		}

		if energy != nil {
			pairEnergy = pairEnergy.Add(chargeProd.Mul(inverseR.Add(r2.Scale(e.krf)).SubScalar(e.crf)))
			for l := 0; l < 4; l++ {
				if include[l] {
					*energy += float64(pairEnergy[l])
				}
			}
		}

		applyPairForces(&s, forces, atom, include, dx, dy, dz, dEdR)
	}

	for l, a := range s.atoms {
		fvec.Load(forces[4*a : 4*a+4]).Add(s.force[l]).Store(forces[4*a : 4*a+4])
	}
}

// blockEwaldInteractions is the Ewald/PME variant of the block kernel: the
// Coulomb term is damped by the tabulated real-space scale factor, and the
// reaction-field terms are absent.
func (e *Engine) blockEwaldInteractions(blockIndex int, forces []float32, energy *float64) {
	var s blockState
	e.loadBlock(blockIndex, &s)
	cutoff2 := e.cutoff * e.cutoff

	neighbors := e.neighbors.Neighbors(blockIndex)
	masks := e.neighbors.ExclusionMasks(blockIndex)
	for ni, atom := range neighbors {
		dx, dy, dz, r2 := e.deltaToBlock(&s, atom)

		var include [4]bool
		any := false
		for l := 0; l < 4; l++ {
			include[l] = (masks[ni]>>l)&1 == 0 && r2[l] < cutoff2
			any = any || include[l]
		}
		if !any {
			continue
		}

		r := r2.Sqrt()
		inverseR := fvec.Broadcast(1).Div(r)
		switchValue := fvec.Broadcast(1)
		var switchDeriv fvec.Float4
		if e.useSwitch {
			switchValue, switchDeriv = e.switchFactors(r)
		}

		chargeProd := s.charge.Scale(e.posq[4*atom+3])
		dEdR := chargeProd.Mul(inverseR).Mul(e.table.Scale(r))
		sig := s.sigma.AddScalar(e.params[atom].Sigma)
		sig2 := inverseR.Mul(sig)
		sig2 = sig2.Mul(sig2)
		sig6 := sig2.Mul(sig2).Mul(sig2)
		eps := s.epsilon.Scale(e.params[atom].Epsilon)
		dEdR = dEdR.Add(switchValue.Mul(eps).Mul(sig6.Scale(12).AddScalar(-6)).Mul(sig6))
		dEdR = dEdR.Mul(inverseR).Mul(inverseR)
		pairEnergy := eps.Mul(sig6.AddScalar(-1)).Mul(sig6)
		if e.useSwitch {
			dEdR = dEdR.Sub(pairEnergy.Mul(switchDeriv).Mul(inverseR))
			pairEnergy = pairEnergy.Mul(switchValue)
		}

		if energy != nil {
			pairEnergy = pairEnergy.Add(chargeProd.Mul(inverseR).Mul(ewald.ErfcApprox(r.Scale(e.alpha))))
			for l := 0; l < 4; l++ {
				if include[l] {
					*energy += float64(pairEnergy[l])
				}
			}
		}

		applyPairForces(&s, forces, atom, include, dx, dy, dz, dEdR)
	}

	for l, a := range s.atoms {
		fvec.Load(forces[4*a : 4*a+4]).Add(s.force[l]).Store(forces[4*a : 4*a+4])
	}
}
