package ewald

import (
	"math"

	"github.com/cwbudde/algo-md/internal/fvec"
	"github.com/cwbudde/algo-md/internal/spline"
)

// NumTablePoints is the number of spline buckets in the real-space scale
// table. The sample grid runs two steps past the cutoff so the natural
// spline stays well conditioned at the last bucket a kernel can hit.
const NumTablePoints = 1025

// Table is the cubic-spline lookup for the Ewald real-space scale factor
// erfc(a*r) + (2/sqrt(pi))*a*r*exp(-(a*r)^2). It depends only on alpha and
// the cutoff; the engine rebuilds it whenever either changes.
type Table struct {
	step    float32
	invStep float32
	// Four coefficients per bucket: value left, value right, and the two
	// second derivatives pre-scaled by step^2/6.
	coeffs []float32
}

// NewTable fits the scale-factor spline for the given Ewald separation
// parameter and cutoff distance.
func NewTable(alpha, cutoff float32) *Table {
	step := float64(cutoff) / (NumTablePoints - 2)
	xs := make([]float64, NumTablePoints+1)
	ys := make([]float64, NumTablePoints+1)
	for i := range xs {
		r := float64(i) * step
		alphaR := float64(alpha) * r
		xs[i] = r
		ys[i] = math.Erfc(alphaR) + TwoOverSqrtPi*alphaR*math.Exp(-alphaR*alphaR)
	}
	deriv := spline.SecondDerivs(xs, ys)

	t := &Table{
		step:    float32(step),
		invStep: float32(1 / step),
		coeffs:  make([]float32, 4*NumTablePoints),
	}
	scale := step * step / 6
	for i := 0; i < NumTablePoints; i++ {
		t.coeffs[4*i] = float32(ys[i])
		t.coeffs[4*i+1] = float32(ys[i+1])
		t.coeffs[4*i+2] = float32(deriv[i] * scale)
		t.coeffs[4*i+3] = float32(deriv[i+1] * scale)
	}
	return t
}

// Scale looks up the tabulated scale factor for four distances at once.
// Lanes may fall in different buckets. A lane beyond the tabulated range is
// left at zero; the cutoff inclusion mask upstream guarantees such lanes
// never reach force accumulation.
func (t *Table) Scale(r fvec.Float4) fvec.Float4 {
	var out fvec.Float4
	for i := 0; i < 4; i++ {
		x := r[i] * t.invStep
		idx := int(x)
		if idx < 0 || idx >= NumTablePoints {
			continue
		}
		u := x - float32(idx)
		l := 1 - u
		c := t.coeffs[4*idx : 4*idx+4]
		out[i] = l*c[0] + u*c[1] + (l*l*l-l)*c[2] + (u*u*u-u)*c[3]
	}
	return out
}
