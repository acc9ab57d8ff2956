// Package nonbonded evaluates Lennard-Jones and Coulomb interactions for a
// particle system: the pairwise direct-space sum with optional cutoff,
// switching function, periodic boundary conditions and reaction-field or
// Ewald electrostatics, plus the reciprocal-space completion for the Ewald
// and particle-mesh Ewald methods.
//
// The cutoff paths run over a block-of-4 neighbor list with 4-lane vector
// arithmetic from internal/fvec; without a cutoff every pair is visited by a
// scalar loop. Direct-space work is forked across a parallel.Pool with
// per-thread force accumulators that are reduced additively, so results are
// independent of the worker count.
package nonbonded
