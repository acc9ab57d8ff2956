// Package spline fits natural cubic splines to sampled curves. Only the
// second-derivative solve is exposed; callers assemble whatever coefficient
// form their lookup needs.
package spline

// SecondDerivs returns the second derivative of the natural cubic spline
// through (xs[i], ys[i]) at every sample point. The boundary second
// derivatives are zero. xs must be strictly increasing and the slices must
// have equal length of at least two.
func SecondDerivs(xs, ys []float64) []float64 {
	n := len(xs)
	if len(ys) != n {
		panic("spline: xs and ys length mismatch")
	}
	if n < 2 {
		panic("spline: need at least two samples")
	}

	y2 := make([]float64, n)
	if n == 2 {
		return y2
	}

	// Interior equations form a tridiagonal system; solve with the Thomas
	// algorithm. Row i corresponds to sample i+1.
	m := n - 2
	cp := make([]float64, m)
	rp := make([]float64, m)
	for i := 0; i < m; i++ {
		j := i + 1
		a := (xs[j] - xs[j-1]) / 6
		b := (xs[j+1] - xs[j-1]) / 3
		c := (xs[j+1] - xs[j]) / 6
		r := (ys[j+1]-ys[j])/(xs[j+1]-xs[j]) - (ys[j]-ys[j-1])/(xs[j]-xs[j-1])

		if i == 0 {
			cp[i] = c / b
			rp[i] = r / b
			continue
		}
		denom := b - a*cp[i-1]
		cp[i] = c / denom
		rp[i] = (r - a*rp[i-1]) / denom
	}

	y2[m] = rp[m-1]
	for i := m - 2; i >= 0; i-- {
		y2[i+1] = rp[i] - cp[i]*y2[i+2]
	}
	return y2
}
