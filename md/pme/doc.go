// Package pme implements a smooth particle-mesh Ewald solver for the
// reciprocal-space part of Coulomb electrostatics.
//
// Charges are spread onto a regular mesh with cardinal B-splines, the mesh
// is convolved with the Ewald influence function in reciprocal space via
// FFTs, and per-atom forces are gathered back through the spline
// derivatives. Accuracy is controlled by the mesh resolution and the
// interpolation order; order 5 matches the upstream reference.
//
// The solver replaces the O(N*K^3) direct lattice summation in md/ewald
// with an O(K^3 log K + N) transform-based evaluation. The force engine
// treats it as an opaque delegate: positions and charges in, forces, energy
// and virial out.
package pme
