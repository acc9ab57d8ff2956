// Package fvec provides a fixed-width 4-lane float32 vector type used by the
// blocked nonbonded kernels.
//
// Float4 models one SIMD register holding four independent scalar lanes.
// All arithmetic is elementwise; comparisons produce a Mask4 that selects
// lanes via Blend. Transpose converts four lane-parallel component vectors
// into four per-lane triples, which is how the kernels turn (fx, fy, fz)
// lane sets into per-atom force vectors.
//
// The implementation is pure Go. A hardware-specific backend would have to
// be bit-identical up to floating-point reassociation, so the scalar form
// doubles as the reference semantics.
package fvec
