package nonbonded

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-md/internal/parallel"
	"github.com/cwbudde/algo-md/internal/testutil"
	"github.com/cwbudde/algo-md/md/box"
	"github.com/cwbudde/algo-md/md/neighbor"
	"github.com/cwbudde/algo-md/md/units"
)

func evaluate(t *testing.T, e *Engine, posq []float32, params []LJParam, exclusions [][]int32, threads int) (float64, []float32) {
	t.Helper()
	pool := parallel.NewPool(threads)
	defer pool.Close()
	forces := make([]float32, len(posq))
	var energy float64
	require.NoError(t, e.Evaluate(posq, params, exclusions, forces, &energy, pool))
	return energy, forces
}

func TestTwoAtomLennardJones(t *testing.T) {
	const r = 0.33
	posq := []float32{0, 0, 0, 0, r, 0, 0, 0}
	sqrtEps := float32(math.Sqrt(0.5))
	params := []LJParam{{0.15, sqrtEps}, {0.15, sqrtEps}} // sigma 0.3, epsilon 0.5 combined

	e := New()
	energy, forces := evaluate(t, e, posq, params, nil, 1)

	sig6 := math.Pow(0.3/r, 6)
	wantEnergy := 0.5 * (sig6 - 1) * sig6
	wantDEdR := 0.5 * (12*sig6 - 6) * sig6 / (r * r)
	require.InDelta(t, wantEnergy, energy, 1e-6*math.Abs(wantEnergy))
	// deltaR points from atom 1 to atom 0, so atom 0 feels -r*dEdR along x.
	require.InDelta(t, -r*wantDEdR, float64(forces[0]), 1e-4*math.Abs(r*wantDEdR))
	require.InDelta(t, r*wantDEdR, float64(forces[4]), 1e-4*math.Abs(r*wantDEdR))
	require.Zero(t, forces[1])
	require.Zero(t, forces[2])
}

func TestForceIsNegativeEnergyGradient(t *testing.T) {
	rng := rand.New(rand.NewSource(21))
	const n = 6
	bx := box.New(1, 1, 1) // placement region only; no periodicity
	posq, params := randomSystem(rng, n, bx)

	e := New()
	pool := parallel.NewPool(2)
	defer pool.Close()

	forces := make([]float32, 4*n)
	var energy float64
	require.NoError(t, e.Evaluate(posq, params, nil, forces, &energy, pool))

	energyAt := func(p []float32) float64 {
		var out float64
		scratch := make([]float32, 4*n)
		require.NoError(t, e.Evaluate(p, params, nil, scratch, &out, pool))
		return out
	}

	var maxF float64
	for i := 0; i < n; i++ {
		for m := 0; m < 3; m++ {
			if a := math.Abs(float64(forces[4*i+m])); a > maxF {
				maxF = a
			}
		}
	}

	const h = 1e-3
	for i := 0; i < n; i++ {
		for m := 0; m < 3; m++ {
			shifted := append([]float32(nil), posq...)
			shifted[4*i+m] = posq[4*i+m] + h
			up := energyAt(shifted)
			shifted[4*i+m] = posq[4*i+m] - h
			down := energyAt(shifted)
			grad := (up - down) / (2 * h)
			require.InDeltaf(t, -grad, float64(forces[4*i+m]), 0.02*maxF,
				"atom %d axis %d", i, m)
		}
	}
}

func TestTranslationInvariance(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	const n = 8
	bx := box.New(1, 1, 1)
	posq, params := randomSystem(rng, n, bx)

	e := New()
	energy, forces := evaluate(t, e, posq, params, nil, 2)

	shifted := append([]float32(nil), posq...)
	for i := 0; i < n; i++ {
		shifted[4*i] += 0.13
		shifted[4*i+1] -= 0.07
		shifted[4*i+2] += 0.21
	}
	energy2, forces2 := evaluate(t, e, shifted, params, nil, 2)

	var maxF float32
	for i := range forces {
		if a := float32(math.Abs(float64(forces[i]))); a > maxF {
			maxF = a
		}
	}
	testutil.RequireRelNear(t, energy2, energy, 1e-5)
	testutil.RequireSliceNear32(t, forces2, forces, 1e-3*maxF)
}

func TestBlockedKernelMatchesReference(t *testing.T) {
	rng := rand.New(rand.NewSource(31))
	const n = 83
	const cutoff = 0.9
	const dielectric = 78.3
	bx := box.New(2, 2.2, 1.9)
	posq, params := randomSystem(rng, n, bx)
	exclusions := symmetricExclusions(n, [2]int{3, 7}, [2]int{10, 11}, [2]int{40, 2})

	list := neighbor.Build(posq, n, cutoff, &bx, exclusions)
	e := New()
	e.SetCutoff(cutoff, list, dielectric)
	e.SetPeriodic(bx)
	energy, forces := evaluate(t, e, posq, params, exclusions, 3)

	krf, crf := rfConstants(cutoff, dielectric)
	refEnergy, refForces := referenceDirect(posq, params, exclusions, refSettings{
		cutoff: cutoff, krf: krf, crf: crf, bx: &bx,
	})

	maxF := maxAbs(refForces)
	require.InDelta(t, refEnergy, energy, 1e-4*math.Abs(refEnergy)+1e-6)
	for i := 0; i < n; i++ {
		for m := 0; m < 3; m++ {
			require.InDeltaf(t, refForces[3*i+m], float64(forces[4*i+m]),
				2e-4*maxF, "atom %d axis %d", i, m)
		}
	}
}

func TestSwitchedKernelMatchesReference(t *testing.T) {
	rng := rand.New(rand.NewSource(37))
	const n = 50
	const cutoff = 0.9
	const switchDist = 0.7
	bx := box.New(2, 2, 2)
	posq, params := randomSystem(rng, n, bx)

	list := neighbor.Build(posq, n, cutoff, &bx, nil)
	e := New()
	e.SetCutoff(cutoff, list, 1)
	e.SetPeriodic(bx)
	e.SetSwitching(switchDist)
	energy, forces := evaluate(t, e, posq, params, nil, 2)

	krf, crf := rfConstants(cutoff, 1)
	refEnergy, refForces := referenceDirect(posq, params, nil, refSettings{
		cutoff: cutoff, krf: krf, crf: crf,
		useSwitch: true, switchDist: switchDist, bx: &bx,
	})

	maxF := maxAbs(refForces)
	require.InDelta(t, refEnergy, energy, 1e-4*math.Abs(refEnergy)+1e-6)
	for i := 0; i < n; i++ {
		for m := 0; m < 3; m++ {
			require.InDeltaf(t, refForces[3*i+m], float64(forces[4*i+m]),
				2e-4*maxF, "atom %d axis %d", i, m)
		}
	}
}

// evalPairAt evaluates a two-atom system at the given separation with the
// provided engine configurator and returns the energy.
func evalPairAt(t *testing.T, r float32, q0, q1 float32, params []LJParam, configure func(*Engine, *neighbor.List)) float64 {
	t.Helper()
	posq := []float32{0.95, 1, 1, q0, 0.95 + r, 1, 1, q1}
	bx := box.New(4, 4, 4)
	list := neighbor.Build(posq, 2, 2, &bx, nil)
	e := New()
	configure(e, list)
	energy, _ := evaluate(t, e, posq, params, nil, 1)
	return energy
}

func TestSwitchingContinuity(t *testing.T) {
	const cutoff, switchDist = 1.0, 0.8
	params := []LJParam{{0.15, 1}, {0.15, 1}}
	configure := func(e *Engine, list *neighbor.List) {
		e.SetCutoff(cutoff, list, 1)
		e.SetSwitching(switchDist)
	}

	// Continuous across the switching distance.
	below := evalPairAt(t, switchDist-1e-5, 0, 0, params, configure)
	above := evalPairAt(t, switchDist+1e-5, 0, 0, params, configure)
	require.InDelta(t, below, above, 2e-6)

	// Tapers to zero at the cutoff.
	nearCut := evalPairAt(t, cutoff-1e-3, 0, 0, params, configure)
	mid := evalPairAt(t, 0.5, 0, 0, params, configure)
	require.Less(t, math.Abs(nearCut), 1e-6*math.Abs(mid))
}

// The switch-region force picks up the taper derivative term; check it
// against the energy slope directly rather than against a shared formula.
func TestSwitchedForceMatchesEnergySlope(t *testing.T) {
	const cutoff, switchDist = 1.0, 0.8
	params := []LJParam{{0.15, 1}, {0.15, 1}}
	bx := box.New(4, 4, 4)
	pool := parallel.NewPool(1)
	defer pool.Close()

	evalAt := func(r float32) (float64, []float32) {
		posq := []float32{1, 1, 1, 0.5, 1 + r, 1, 1, -0.5}
		list := neighbor.Build(posq, 2, 2, &bx, nil)
		e := New()
		e.SetCutoff(cutoff, list, 78.3)
		e.SetSwitching(switchDist)
		forces := make([]float32, 8)
		var energy float64
		require.NoError(t, e.Evaluate(posq, params, nil, forces, &energy, pool))
		return energy, forces
	}

	const r, h = 0.85, 1e-3
	_, forces := evalAt(r)
	up, _ := evalAt(r + h)
	down, _ := evalAt(r - h)
	// Only atom 1 moves, so the slope equals minus its x force.
	grad := (up - down) / (2 * h)
	require.InDelta(t, -grad, float64(forces[4]), 0.01*math.Abs(grad)+1e-4)
}

func TestReactionFieldEnergyVanishesAtCutoff(t *testing.T) {
	const cutoff = 1.0
	params := []LJParam{{0.1, 0}, {0.1, 0}}
	configure := func(e *Engine, list *neighbor.List) {
		e.SetCutoff(cutoff, list, 78.3)
	}

	nearCut := evalPairAt(t, cutoff-1e-3, 1, -1, params, configure)
	mid := evalPairAt(t, 0.5, 1, -1, params, configure)
	require.Less(t, math.Abs(nearCut), 1e-3*math.Abs(mid))
	// Beyond the cutoff there is no interaction at all.
	require.Zero(t, evalPairAt(t, cutoff+1e-3, 1, -1, params, configure))
}

func TestExcludedPairContributesNothing(t *testing.T) {
	posq := []float32{1, 1, 1, 1, 1.3, 1, 1, -1}
	params := []LJParam{{0.15, 0.7}, {0.15, 0.7}}
	exclusions := symmetricExclusions(2, [2]int{0, 1})

	// No cutoff: brute-force path.
	e := New()
	energy, forces := evaluate(t, e, posq, params, exclusions, 1)
	require.Zero(t, energy)
	for _, f := range forces {
		require.Zero(t, f)
	}

	// Reaction field: blocked path, exclusion carried by the list mask.
	bx := box.New(4, 4, 4)
	list := neighbor.Build(posq, 2, 2, &bx, exclusions)
	e = New()
	e.SetCutoff(2, list, 78.3)
	energy, forces = evaluate(t, e, posq, params, exclusions, 1)
	require.Zero(t, energy)
	for _, f := range forces {
		require.Zero(t, f)
	}
}

func TestThreadCountInvariance(t *testing.T) {
	rng := rand.New(rand.NewSource(41))
	const n = 35
	const cutoff = 0.9
	bx := box.New(2, 2, 2)
	posq, params := randomSystem(rng, n, bx)

	list := neighbor.Build(posq, n, cutoff, &bx, nil)
	newEngine := func() *Engine {
		e := New()
		e.SetCutoff(cutoff, list, 78.3)
		e.SetPeriodic(bx)
		return e
	}

	energy1, forces1 := evaluate(t, newEngine(), posq, params, nil, 1)
	energy4, forces4 := evaluate(t, newEngine(), posq, params, nil, 4)

	require.InDelta(t, energy1, energy4, 1e-9*math.Abs(energy1)+1e-6)
	for i := range forces1 {
		require.InDelta(t, float64(forces1[i]), float64(forces4[i]),
			1e-4*(1+math.Abs(float64(forces1[i]))))
	}
}

func TestEvaluateWithoutEnergy(t *testing.T) {
	posq := []float32{0, 0, 0, 1, 0.4, 0, 0, -1}
	params := []LJParam{{0.1, 0.5}, {0.1, 0.5}}

	e := New()
	pool := parallel.NewPool(1)
	defer pool.Close()
	forces := make([]float32, 8)
	require.NoError(t, e.Evaluate(posq, params, nil, forces, nil, pool))
	require.NotZero(t, forces[0])
}

func TestEvaluateArgumentErrors(t *testing.T) {
	e := New()
	pool := parallel.NewPool(1)
	defer pool.Close()
	params := []LJParam{{0.1, 0.5}, {0.1, 0.5}}

	require.Error(t, e.Evaluate(nil, nil, nil, nil, nil, pool))
	require.Error(t, e.Evaluate(make([]float32, 7), params, nil, make([]float32, 8), nil, pool))
	require.Error(t, e.Evaluate(make([]float32, 8), params, nil, make([]float32, 4), nil, pool))
	require.Error(t, e.Evaluate(make([]float32, 8), params, make([][]int32, 1), make([]float32, 8), nil, pool))
	require.Error(t, e.Evaluate(make([]float32, 8), params, nil, make([]float32, 8), nil, nil))

	// Ewald without a periodic box is a setup error.
	posq := []float32{1, 1, 1, 1, 1.3, 1, 1, -1}
	bx := box.New(4, 4, 4)
	list := neighbor.Build(posq, 2, 1, &bx, nil)
	e = New()
	e.SetCutoff(1, list, 1)
	e.SetEwald(3, 5, 5, 5)
	require.Error(t, e.Evaluate(posq, params, nil, make([]float32, 8), nil, pool))
}

func TestSetterContracts(t *testing.T) {
	require.Panics(t, func() { New().SetSwitching(0.5) })
	require.Panics(t, func() { New().SetPeriodic(box.New(2, 2, 2)) })
	require.Panics(t, func() { New().SetEwald(3, 5, 5, 5) })
	require.Panics(t, func() { New().SetPME(3, [3]int{16, 16, 16}) })
	require.Panics(t, func() { New().SetCutoff(0, nil, 1) })

	posq := []float32{1, 1, 1, 1, 1.3, 1, 1, -1}
	bx := box.New(4, 4, 4)
	list := neighbor.Build(posq, 2, 1, &bx, nil)

	e := New()
	e.SetCutoff(1, list, 1)
	require.Panics(t, func() { e.SetSwitching(1.5) })
	require.Panics(t, func() { e.SetPeriodic(box.New(1.5, 4, 4)) })

	e.SetEwald(3, 5, 5, 5)
	require.Panics(t, func() { e.SetPME(3, [3]int{16, 16, 16}) })

	e2 := New()
	e2.SetCutoff(1, list, 1)
	e2.SetPME(3, [3]int{16, 16, 16})
	require.Panics(t, func() { e2.SetEwald(3, 5, 5, 5) })
}

func TestMinimumImageBound(t *testing.T) {
	bx := box.New(2, 3, 4)
	rng := rand.New(rand.NewSource(51))
	for k := 0; k < 200; k++ {
		dx, dy, dz := bx.MinimumImage(
			20*(rng.Float32()-0.5), 20*(rng.Float32()-0.5), 20*(rng.Float32()-0.5))
		require.LessOrEqual(t, math.Abs(float64(dx)), 1.0+1e-5)
		require.LessOrEqual(t, math.Abs(float64(dy)), 1.5+1e-5)
		require.LessOrEqual(t, math.Abs(float64(dz)), 2.0+1e-5)
	}
}

func TestPlainCoulombPairEnergy(t *testing.T) {
	const r = 0.4
	posq := []float32{0, 0, 0, 1, r, 0, 0, -1}
	params := []LJParam{{0, 0}, {0, 0}}

	e := New()
	energy, _ := evaluate(t, e, posq, params, nil, 1)
	want := -units.One4PiEps0 / r
	require.InDelta(t, want, energy, 1e-4*math.Abs(want))
}
