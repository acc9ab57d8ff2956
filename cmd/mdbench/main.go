// Command mdbench times nonbonded force evaluation on a synthetic particle
// system.
//
// Usage:
//
//	mdbench [flags]
//	mdbench -scenario system.yaml
//
// It fills a periodic box with randomly placed, charge-neutral atoms, builds
// the block neighbor list, evaluates the configured electrostatics method for
// a number of steps and prints timing and energy figures.
//
// Examples:
//
//	mdbench -atoms 4000 -method rf
//	mdbench -method ewald -alpha 3 -kmax 9
//	mdbench -method pme -alpha 3 -mesh 32 -threads 8
package main

import (
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-md/internal/parallel"
	"github.com/cwbudde/algo-md/md/box"
	"github.com/cwbudde/algo-md/md/neighbor"
	"github.com/cwbudde/algo-md/md/nonbonded"
)

// scenario bundles every benchmark parameter so a full run can be described
// by one YAML file.
type scenario struct {
	Atoms      int        `yaml:"atoms"`
	Box        [3]float32 `yaml:"box"`
	Cutoff     float32    `yaml:"cutoff"`
	Method     string     `yaml:"method"` // none, rf, ewald, pme
	Dielectric float32    `yaml:"dielectric"`
	Switching  float32    `yaml:"switching"` // 0 disables
	Alpha      float32    `yaml:"alpha"`
	Kmax       int        `yaml:"kmax"`
	Mesh       [3]int     `yaml:"mesh"`
	Steps      int        `yaml:"steps"`
	Threads    int        `yaml:"threads"`
	Seed       int64      `yaml:"seed"`
}

func defaultScenario() scenario {
	return scenario{
		Atoms:      2000,
		Box:        [3]float32{4, 4, 4},
		Cutoff:     0.9,
		Method:     "rf",
		Dielectric: 78.3,
		Alpha:      3.0,
		Kmax:       8,
		Mesh:       [3]int{32, 32, 32},
		Steps:      20,
		Threads:    0, // GOMAXPROCS
		Seed:       1,
	}
}

func main() {
	sc := defaultScenario()
	scenarioFile := flag.String("scenario", "", "YAML file describing the run (flags override it)")
	atoms := flag.Int("atoms", sc.Atoms, "number of atoms")
	boxEdge := flag.Float64("box", float64(sc.Box[0]), "cubic box edge length (nm)")
	cutoff := flag.Float64("cutoff", float64(sc.Cutoff), "cutoff distance (nm)")
	method := flag.String("method", sc.Method, "electrostatics method: none, rf, ewald, pme")
	dielectric := flag.Float64("dielectric", float64(sc.Dielectric), "reaction-field solvent dielectric")
	switching := flag.Float64("switch", float64(sc.Switching), "LJ switching distance, 0 to disable")
	alpha := flag.Float64("alpha", float64(sc.Alpha), "Ewald separation parameter")
	kmax := flag.Int("kmax", sc.Kmax, "Ewald wave vectors per axis")
	mesh := flag.Int("mesh", sc.Mesh[0], "PME mesh points per axis")
	steps := flag.Int("steps", sc.Steps, "number of force evaluations")
	threads := flag.Int("threads", sc.Threads, "worker threads, 0 for GOMAXPROCS")
	seed := flag.Int64("seed", sc.Seed, "random seed")
	flag.Parse()

	if *scenarioFile != "" {
		data, err := os.ReadFile(*scenarioFile)
		if err != nil {
			fatalf("reading scenario: %v", err)
		}
		if err := yaml.Unmarshal(data, &sc); err != nil {
			fatalf("parsing scenario: %v", err)
		}
	}
	// Explicitly set flags win over the scenario file; unset flags carry
	// the same defaults as the scenario, so one pass covers both cases.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "atoms":
			sc.Atoms = *atoms
		case "box":
			sc.Box = [3]float32{float32(*boxEdge), float32(*boxEdge), float32(*boxEdge)}
		case "cutoff":
			sc.Cutoff = float32(*cutoff)
		case "method":
			sc.Method = *method
		case "dielectric":
			sc.Dielectric = float32(*dielectric)
		case "switch":
			sc.Switching = float32(*switching)
		case "alpha":
			sc.Alpha = float32(*alpha)
		case "kmax":
			sc.Kmax = *kmax
		case "mesh":
			sc.Mesh = [3]int{*mesh, *mesh, *mesh}
		case "steps":
			sc.Steps = *steps
		case "threads":
			sc.Threads = *threads
		case "seed":
			sc.Seed = *seed
		}
	})

	if err := run(sc); err != nil {
		fatalf("%v", err)
	}
}

func run(sc scenario) error {
	if sc.Atoms < 2 {
		return fmt.Errorf("need at least 2 atoms, got %d", sc.Atoms)
	}
	if sc.Steps < 1 {
		return fmt.Errorf("need at least 1 step, got %d", sc.Steps)
	}

	bx := box.New(sc.Box[0], sc.Box[1], sc.Box[2])
	posq, params := buildSystem(sc.Atoms, bx, sc.Seed)

	engine := nonbonded.New()
	needsList := sc.Method != "none"
	var list *neighbor.List
	if needsList {
		list = neighbor.Build(posq, sc.Atoms, sc.Cutoff, &bx, nil)
		engine.SetCutoff(sc.Cutoff, list, sc.Dielectric)
		engine.SetPeriodic(bx)
		if sc.Switching > 0 {
			engine.SetSwitching(sc.Switching)
		}
	}
	switch sc.Method {
	case "none", "rf":
	case "ewald":
		engine.SetEwald(sc.Alpha, sc.Kmax, sc.Kmax, sc.Kmax)
	case "pme":
		engine.SetPME(sc.Alpha, sc.Mesh)
	default:
		return fmt.Errorf("unknown method %q (want none, rf, ewald or pme)", sc.Method)
	}

	pool := parallel.NewPool(sc.Threads)
	defer pool.Close()

	forces := make([]float32, 4*sc.Atoms)
	var energy float64
	var best, total time.Duration
	for step := 0; step < sc.Steps; step++ {
		for i := range forces {
			forces[i] = 0
		}
		energy = 0
		start := time.Now()
		if err := engine.Evaluate(posq, params, nil, forces, &energy, pool); err != nil {
			return err
		}
		elapsed := time.Since(start)
		total += elapsed
		if best == 0 || elapsed < best {
			best = elapsed
		}
	}

	var maxForce float64
	for i := 0; i < sc.Atoms; i++ {
		for m := 0; m < 3; m++ {
			if f := math.Abs(float64(forces[4*i+m])); f > maxForce {
				maxForce = f
			}
		}
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "atoms\t%d\n", sc.Atoms)
	fmt.Fprintf(w, "method\t%s\n", sc.Method)
	fmt.Fprintf(w, "box\t%.3g x %.3g x %.3g nm\n", sc.Box[0], sc.Box[1], sc.Box[2])
	if needsList {
		fmt.Fprintf(w, "cutoff\t%.3g nm\n", sc.Cutoff)
		fmt.Fprintf(w, "blocks\t%d\n", list.NumBlocks())
	}
	fmt.Fprintf(w, "threads\t%d\n", pool.NumThreads())
	fmt.Fprintf(w, "steps\t%d\n", sc.Steps)
	fmt.Fprintf(w, "energy\t%.6g kJ/mol\n", energy)
	fmt.Fprintf(w, "max |F|\t%.6g kJ/mol/nm\n", maxForce)
	fmt.Fprintf(w, "mean step\t%v\n", total/time.Duration(sc.Steps))
	fmt.Fprintf(w, "best step\t%v\n", best)
	return w.Flush()
}

// buildSystem scatters charge-neutral atoms with a minimum separation so the
// Lennard-Jones core stays in a sane range.
func buildSystem(n int, bx box.Box, seed int64) ([]float32, []nonbonded.LJParam) {
	const minDist = 0.2
	rng := rand.New(rand.NewSource(seed))
	posq := make([]float32, 4*n)
	params := make([]nonbonded.LJParam, n)
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
		q := 0.5 * (rng.Float32() - 0.5)
		posq[4*i+3] = q
		net += q
		params[i] = nonbonded.LJParam{Sigma: 0.08, Epsilon: 0.6}
	}
	posq[4*(n-1)+3] -= net
	return posq, params
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "mdbench: "+format+"\n", args...)
	os.Exit(1)
}
