package nonbonded

import (
	"math/rand"
	"testing"

	"github.com/cwbudde/algo-md/internal/parallel"
	"github.com/cwbudde/algo-md/md/box"
	"github.com/cwbudde/algo-md/md/neighbor"
)

func benchmarkDirect(b *testing.B, threads int) {
	rng := rand.New(rand.NewSource(1))
	const n = 1000
	const cutoff = 0.9
	bx := box.New(4, 4, 4)
	posq, params := randomSystem(rng, n, bx)

	list := neighbor.Build(posq, n, cutoff, &bx, nil)
	e := New()
	e.SetCutoff(cutoff, list, 78.3)
	e.SetPeriodic(bx)

	pool := parallel.NewPool(threads)
	defer pool.Close()
	forces := make([]float32, 4*n)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var energy float64
		if err := e.Evaluate(posq, params, nil, forces, &energy, pool); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkEvaluateReactionField1(b *testing.B) { benchmarkDirect(b, 1) }
func BenchmarkEvaluateReactionField4(b *testing.B) { benchmarkDirect(b, 4) }

func BenchmarkEvaluateEwald(b *testing.B) {
	rng := rand.New(rand.NewSource(2))
	const n = 200
	const cutoff = 0.9
	bx := box.New(2, 2, 2)
	posq, params := randomSystem(rng, n, bx)

	list := neighbor.Build(posq, n, cutoff, &bx, nil)
	e := New()
	e.SetCutoff(cutoff, list, 1)
	e.SetPeriodic(bx)
	e.SetEwald(3.0, 8, 8, 8)

	pool := parallel.NewPool(4)
	defer pool.Close()
	forces := make([]float32, 4*n)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var energy float64
		if err := e.Evaluate(posq, params, nil, forces, &energy, pool); err != nil {
			b.Fatal(err)
		}
	}
}
