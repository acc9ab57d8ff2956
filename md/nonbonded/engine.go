package nonbonded

import (
	"fmt"

	"github.com/cwbudde/algo-md/internal/fvec"
	"github.com/cwbudde/algo-md/internal/parallel"
	"github.com/cwbudde/algo-md/md/box"
	"github.com/cwbudde/algo-md/md/ewald"
	"github.com/cwbudde/algo-md/md/neighbor"
	"github.com/cwbudde/algo-md/md/pme"
)

// LJParam holds the per-atom Lennard-Jones parameters in pre-combined form:
// Sigma is half the atom's sigma and Epsilon the square root of its well
// depth, so that a pair combines as sigma_i+sigma_j and epsilon_i*epsilon_j.
type LJParam struct {
	Sigma   float32
	Epsilon float32
}

// coulombMethod selects how the Coulomb interaction is evaluated. Exactly
// one method is active at a time.
type coulombMethod int

const (
	// Plain 1/r Coulomb over all pairs, no cutoff.
	coulombNoCutoff coulombMethod = iota
	// Cutoff with a reaction-field correction for the implicit solvent
	// beyond it.
	coulombReactionField
	// Ewald summation: tabulated erfc in direct space plus an explicit
	// reciprocal lattice sum.
	coulombEwald
	// Particle-mesh Ewald: same direct space, mesh-based reciprocal part.
	coulombPME
)

// Engine computes nonbonded forces and energies. Configure it with the
// setters, then call Evaluate once per step. The zero value evaluates plain
// Coulomb plus Lennard-Jones over all pairs; use New.
//
// An Engine is not safe for concurrent use, but a single Evaluate
// parallelizes internally over the supplied worker pool.
type Engine struct {
	method     coulombMethod
	cutoff     float32
	neighbors  *neighbor.List
	krf, crf   float32
	useSwitch  bool
	switchDist float32
	periodic   bool
	bx         box.Box

	alpha float32
	kmax  [3]int
	mesh  [3]int
	table *ewald.Table

	pmeSolver *pme.Solver
	pmeAtoms  int

	// Per-Evaluate state shared with the pool workers.
	numAtoms      int
	posq          []float32
	params        []LJParam
	exclusions    [][]int32
	includeEnergy bool
	threadEnergy  []float64
	threadForce   [][]float32
}

// New returns an engine with no cutoff configured.
func New() *Engine {
	return &Engine{}
}

// SetCutoff truncates direct-space interactions at the given distance and
// supplies the neighbor list to enumerate them from. solventDielectric sets
// the reaction-field constants for the medium beyond the cutoff; pass 1 for
// a plain truncated Coulomb. Panics if distance is not positive or neighbors
// is nil.
func (e *Engine) SetCutoff(distance float32, neighbors *neighbor.List, solventDielectric float32) {
	if distance <= 0 {
		panic(fmt.Sprintf("nonbonded: cutoff distance must be positive, got %v", distance))
	}
	if neighbors == nil {
		panic("nonbonded: nil neighbor list")
	}
	if e.method == coulombNoCutoff {
		e.method = coulombReactionField
	}
	e.cutoff = distance
	e.neighbors = neighbors
	e.krf = (solventDielectric - 1) / ((2*solventDielectric + 1) * distance * distance * distance)
	e.crf = 3 * solventDielectric / ((2*solventDielectric + 1) * distance)
	if e.table != nil {
		e.table = ewald.NewTable(e.alpha, e.cutoff)
	}
}

// SetSwitching tapers the Lennard-Jones interaction smoothly to zero between
// the given distance and the cutoff. Panics if no cutoff is set or the
// distance does not lie below it.
func (e *Engine) SetSwitching(distance float32) {
	if e.cutoff == 0 {
		panic("nonbonded: switching requires a cutoff")
	}
	if distance <= 0 || distance >= e.cutoff {
		panic(fmt.Sprintf("nonbonded: switching distance %v must lie in (0, cutoff)", distance))
	}
	e.useSwitch = true
	e.switchDist = distance
}

// SetPeriodic wraps interactions through the minimum image of the given box.
// Panics if no cutoff is set or any box edge is shorter than twice the
// cutoff, which would make the minimum image ambiguous within range.
func (e *Engine) SetPeriodic(bx box.Box) {
	if e.cutoff == 0 {
		panic("nonbonded: periodic boundaries require a cutoff")
	}
	for axis := 0; axis < 3; axis++ {
		if bx.Size(axis) < 2*e.cutoff {
			panic(fmt.Sprintf("nonbonded: box edge %v on axis %d is shorter than twice the cutoff %v",
				bx.Size(axis), axis, e.cutoff))
		}
	}
	e.periodic = true
	e.bx = bx
}

// SetEwald switches the Coulomb interaction to Ewald summation with the
// given separation parameter and per-axis wave vector counts. Requires a
// cutoff; mutually exclusive with SetPME.
func (e *Engine) SetEwald(alpha float32, kx, ky, kz int) {
	if e.cutoff == 0 {
		panic("nonbonded: Ewald requires a cutoff")
	}
	if e.method == coulombPME {
		panic("nonbonded: Ewald and PME are mutually exclusive")
	}
	if alpha <= 0 || kx < 1 || ky < 1 || kz < 1 {
		panic(fmt.Sprintf("nonbonded: invalid Ewald parameters alpha=%v kmax=(%d,%d,%d)", alpha, kx, ky, kz))
	}
	e.method = coulombEwald
	e.alpha = alpha
	e.kmax = [3]int{kx, ky, kz}
	e.table = ewald.NewTable(alpha, e.cutoff)
}

// SetPME switches the Coulomb interaction to particle-mesh Ewald with the
// given separation parameter and mesh dimensions. Requires a cutoff;
// mutually exclusive with SetEwald.
func (e *Engine) SetPME(alpha float32, mesh [3]int) {
	if e.cutoff == 0 {
		panic("nonbonded: PME requires a cutoff")
	}
	if e.method == coulombEwald {
		panic("nonbonded: Ewald and PME are mutually exclusive")
	}
	if alpha <= 0 {
		panic(fmt.Sprintf("nonbonded: invalid PME alpha %v", alpha))
	}
	e.method = coulombPME
	e.alpha = alpha
	e.mesh = mesh
	e.table = ewald.NewTable(alpha, e.cutoff)
	e.pmeSolver = nil
}

// Evaluate accumulates the nonbonded forces into forces (4 floats per atom,
// layout matching posq) and, when energy is non-nil, adds the total energy.
// posq holds x, y, z, charge per atom; params one LJParam per atom;
// exclusions lists per atom the partner indices whose direct-space
// interaction is skipped (nil for none). Direct-space work is forked across
// pool and reduced deterministically.
func (e *Engine) Evaluate(posq []float32, params []LJParam, exclusions [][]int32,
	forces []float32, energy *float64, pool *parallel.Pool) error {

	n := len(params)
	if n == 0 {
		return fmt.Errorf("nonbonded: no atoms")
	}
	if len(posq) != 4*n {
		return fmt.Errorf("nonbonded: posq holds %d values, want %d for %d atoms", len(posq), 4*n, n)
	}
	if len(forces) < 4*n {
		return fmt.Errorf("nonbonded: forces buffer holds %d values, want at least %d", len(forces), 4*n)
	}
	if exclusions != nil && len(exclusions) != n {
		return fmt.Errorf("nonbonded: exclusion list covers %d atoms, want %d", len(exclusions), n)
	}
	if pool == nil {
		return fmt.Errorf("nonbonded: nil worker pool")
	}
	if (e.method == coulombEwald || e.method == coulombPME) && !e.periodic {
		return fmt.Errorf("nonbonded: Ewald summation requires periodic boundaries")
	}

	e.numAtoms = n
	e.posq = posq
	e.params = params
	e.exclusions = exclusions
	e.includeEnergy = energy != nil

	numThreads := pool.NumThreads()
	if cap(e.threadEnergy) < numThreads {
		e.threadEnergy = make([]float64, numThreads)
		e.threadForce = make([][]float32, numThreads)
	}
	e.threadEnergy = e.threadEnergy[:numThreads]
	e.threadForce = e.threadForce[:numThreads]

	pool.Run(e.computeDirect)

	var directEnergy float64
	for _, te := range e.threadEnergy {
		directEnergy += te
	}
	for i := 0; i < n; i++ {
		f := fvec.Load(forces[4*i : 4*i+4])
		for t := 0; t < numThreads; t++ {
			f = f.Add(fvec.Load(e.threadForce[t][4*i : 4*i+4]))
		}
		f.Store(forces[4*i : 4*i+4])
	}
	if energy != nil {
		*energy += directEnergy
	}

	switch e.method {
	case coulombEwald:
		rc := &ewald.Reciprocal{Alpha: e.alpha, Kmax: e.kmax}
		rc.Execute(posq, e.bx, forces, energy)
	case coulombPME:
		if e.pmeSolver == nil || e.pmeAtoms != n {
			solver, err := pme.New(float64(e.alpha), n, e.mesh, 5)
			if err != nil {
				return fmt.Errorf("nonbonded: %w", err)
			}
			e.pmeSolver = solver
			e.pmeAtoms = n
		}
		e.pmeSolver.Execute(posq, e.bx, forces, energy)
	}
	return nil
}

// computeDirect is the per-worker task: it evaluates this thread's stripe of
// the direct-space sum into a thread-private force buffer.
func (e *Engine) computeDirect(threadIndex int) {
	numThreads := len(e.threadForce)
	if len(e.threadForce[threadIndex]) < 4*e.numAtoms {
		e.threadForce[threadIndex] = make([]float32, 4*e.numAtoms)
	}
	forces := e.threadForce[threadIndex][:4*e.numAtoms]
	for i := range forces {
		forces[i] = 0
	}
	e.threadEnergy[threadIndex] = 0
	var energy *float64
	if e.includeEnergy {
		energy = &e.threadEnergy[threadIndex]
	}

	switch e.method {
	case coulombEwald, coulombPME:
		for b := threadIndex; b < e.neighbors.NumBlocks(); b += numThreads {
			e.blockEwaldInteractions(b, forces, energy)
		}
		// The reciprocal sum implicitly includes every pair, so the
		// excluded ones must be subtracted back out.
		e.correctExclusions(threadIndex, numThreads, forces, energy)
	case coulombReactionField:
		for b := threadIndex; b < e.neighbors.NumBlocks(); b += numThreads {
			e.blockInteractions(b, forces, energy)
		}
	default:
		for i := threadIndex; i < e.numAtoms; i += numThreads {
			for j := i + 1; j < e.numAtoms; j++ {
				if !e.excluded(j, i) {
					e.pairInteraction(i, j, forces, energy)
				}
			}
		}
	}
}

// excluded reports whether partner appears in atom's exclusion set.
func (e *Engine) excluded(atom, partner int) bool {
	if e.exclusions == nil {
		return false
	}
	for _, x := range e.exclusions[atom] {
		if int(x) == partner {
			return true
		}
	}
	return false
}
