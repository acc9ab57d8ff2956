// Package box implements minimum-image geometry for an orthorhombic
// periodic simulation box.
package box

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-md/internal/fvec"
)

// Box is an orthorhombic periodic box. The zero value is not valid; use New.
type Box struct {
	size [3]float32
	inv  [3]float32
}

// New returns a box with the given edge lengths. Panics if any dimension is
// not positive.
func New(x, y, z float32) Box {
	if x <= 0 || y <= 0 || z <= 0 {
		panic(fmt.Sprintf("box: dimensions must be positive, got (%v, %v, %v)", x, y, z))
	}
	return Box{
		size: [3]float32{x, y, z},
		inv:  [3]float32{1 / x, 1 / y, 1 / z},
	}
}

// Size returns the edge length along the given axis (0, 1 or 2).
func (b Box) Size(axis int) float32 {
	return b.size[axis]
}

// Volume returns the box volume.
func (b Box) Volume() float64 {
	return float64(b.size[0]) * float64(b.size[1]) * float64(b.size[2])
}

// MinimumImage maps a displacement onto its nearest periodic image. Each
// returned component has magnitude at most half the box edge on that axis.
func (b Box) MinimumImage(dx, dy, dz float32) (float32, float32, float32) {
	dx -= float32(math.Round(float64(dx*b.inv[0]))) * b.size[0]
	dy -= float32(math.Round(float64(dy*b.inv[1]))) * b.size[1]
	dz -= float32(math.Round(float64(dz*b.inv[2]))) * b.size[2]
	return dx, dy, dz
}

// MinimumImage4 is the 4-lane form of MinimumImage: each lane of dx, dy, dz
// holds one displacement and is wrapped independently.
func (b Box) MinimumImage4(dx, dy, dz fvec.Float4) (fvec.Float4, fvec.Float4, fvec.Float4) {
	dx = dx.Sub(dx.Scale(b.inv[0]).Round().Scale(b.size[0]))
	dy = dy.Sub(dy.Scale(b.inv[1]).Round().Scale(b.size[1]))
	dz = dz.Sub(dz.Scale(b.inv[2]).Round().Scale(b.size[2]))
	return dx, dy, dz
}

// NearEdge reports whether the point lies within margin of any box face,
// assuming coordinates in [0, size). The blocked kernels use this to decide
// per block whether wrapping can be skipped.
func (b Box) NearEdge(x, y, z, margin float32) bool {
	return x-margin < 0 || x+margin > b.size[0] ||
		y-margin < 0 || y+margin > b.size[1] ||
		z-margin < 0 || z+margin > b.size[2]
}
