package fvec

import "math"

// Float4 is a 4-lane float32 vector.
type Float4 [4]float32

// Mask4 is the result of a lanewise comparison.
type Mask4 [4]bool

// New builds a Float4 from four scalars.
func New(a, b, c, d float32) Float4 {
	return Float4{a, b, c, d}
}

// Broadcast returns a Float4 with v in every lane.
func Broadcast(v float32) Float4 {
	return Float4{v, v, v, v}
}

// Load reads the first four elements of s. Panics if len(s) < 4.
func Load(s []float32) Float4 {
	if len(s) < 4 {
		panic("fvec: slice shorter than 4")
	}
	return Float4{s[0], s[1], s[2], s[3]}
}

// Store writes the four lanes into the first four elements of dst.
// Panics if len(dst) < 4.
func (v Float4) Store(dst []float32) {
	if len(dst) < 4 {
		panic("fvec: slice shorter than 4")
	}
	dst[0], dst[1], dst[2], dst[3] = v[0], v[1], v[2], v[3]
}

// Add returns v + o elementwise.
func (v Float4) Add(o Float4) Float4 {
	return Float4{v[0] + o[0], v[1] + o[1], v[2] + o[2], v[3] + o[3]}
}

// Sub returns v - o elementwise.
func (v Float4) Sub(o Float4) Float4 {
	return Float4{v[0] - o[0], v[1] - o[1], v[2] - o[2], v[3] - o[3]}
}

// Mul returns v * o elementwise.
func (v Float4) Mul(o Float4) Float4 {
	return Float4{v[0] * o[0], v[1] * o[1], v[2] * o[2], v[3] * o[3]}
}

// Div returns v / o elementwise.
func (v Float4) Div(o Float4) Float4 {
	return Float4{v[0] / o[0], v[1] / o[1], v[2] / o[2], v[3] / o[3]}
}

// Scale returns v * s in every lane.
func (v Float4) Scale(s float32) Float4 {
	return Float4{v[0] * s, v[1] * s, v[2] * s, v[3] * s}
}

// AddScalar returns v + s in every lane.
func (v Float4) AddScalar(s float32) Float4 {
	return Float4{v[0] + s, v[1] + s, v[2] + s, v[3] + s}
}

// SubScalar returns v - s in every lane.
func (v Float4) SubScalar(s float32) Float4 {
	return Float4{v[0] - s, v[1] - s, v[2] - s, v[3] - s}
}

// Sqrt returns the lanewise square root.
func (v Float4) Sqrt() Float4 {
	return Float4{
		float32(math.Sqrt(float64(v[0]))),
		float32(math.Sqrt(float64(v[1]))),
		float32(math.Sqrt(float64(v[2]))),
		float32(math.Sqrt(float64(v[3]))),
	}
}

// Round returns the lanewise nearest integer, halves rounded away from zero.
func (v Float4) Round() Float4 {
	return Float4{
		float32(math.Round(float64(v[0]))),
		float32(math.Round(float64(v[1]))),
		float32(math.Round(float64(v[2]))),
		float32(math.Round(float64(v[3]))),
	}
}

// Greater returns the lanewise v > o mask.
func (v Float4) Greater(o Float4) Mask4 {
	return Mask4{v[0] > o[0], v[1] > o[1], v[2] > o[2], v[3] > o[3]}
}

// Blend selects onTrue lanes where the mask is set and onFalse elsewhere.
func Blend(m Mask4, onTrue, onFalse Float4) Float4 {
	var out Float4
	for i := range out {
		if m[i] {
			out[i] = onTrue[i]
		} else {
			out[i] = onFalse[i]
		}
	}
	return out
}

// Transpose treats a, b, c, d as the rows of a 4x4 matrix and transposes it
// in place. After the call, each argument holds one former column.
func Transpose(a, b, c, d *Float4) {
	a[1], b[0] = b[0], a[1]
	a[2], c[0] = c[0], a[2]
	a[3], d[0] = d[0], a[3]
	b[2], c[1] = c[1], b[2]
	b[3], d[1] = d[1], b[3]
	c[3], d[2] = d[2], c[3]
}
