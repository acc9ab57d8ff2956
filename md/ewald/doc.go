// Package ewald implements the real-space scale-factor tabulation and the
// reciprocal-space lattice summation for Ewald electrostatics.
//
// The real-space complement erfc(a*r) + (2/sqrt(pi))*a*r*exp(-(a*r)^2) is
// expensive to evaluate per pair, so Table fits it once with a natural cubic
// spline on a uniform grid and the kernels look it up per lane. Energy
// corrections use ErfcApprox, a rational approximant with max error ~3e-7,
// rather than the table.
//
// Reciprocal computes the long-range part by direct structure-factor
// summation over the non-redundant half-space of reciprocal lattice vectors.
// It is single-threaded; for large systems the mesh-based solver in md/pme
// replaces it.
package ewald
