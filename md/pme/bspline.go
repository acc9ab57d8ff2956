package pme

import "math"

// bsplineWeights fills theta with the cardinal B-spline values
// M_order(w+order-1-j) for j = 0..order-1, i.e. the spreading weight of grid
// point (floor(u) - order + 1 + j) for a particle at fractional offset w.
// When dtheta is non-nil it receives the derivatives dM/du at the same
// points.
func bsplineWeights(theta, dtheta []float64, w float64, order int) {
	theta[order-1] = 0 // scratch may be reused; the derivative pass reads it
	theta[0] = 1 - w
	theta[1] = w
	for k := 3; k < order; k++ {
		iterateBspline(theta, w, k)
	}

	if dtheta != nil {
		// dM_k(u)/du = M_{k-1}(u) - M_{k-1}(u-1), evaluated from the
		// order-1 values before the final iteration.
		dtheta[0] = -theta[0]
		for j := 1; j < order; j++ {
			dtheta[j] = theta[j-1] - theta[j]
		}
	}

	iterateBspline(theta, w, order)
}

// iterateBspline raises the spline order from k-1 to k in place.
func iterateBspline(theta []float64, w float64, k int) {
	div := 1 / float64(k-1)
	theta[k-1] = div * w * theta[k-2]
	for j := 1; j < k-1; j++ {
		theta[k-1-j] = div * ((w+float64(j))*theta[k-2-j] + (float64(k-j)-w)*theta[k-1-j])
	}
	theta[0] = div * (1 - w) * theta[0]
}

// bsplineModuli returns |B(m)|^2 for one mesh axis of size k: the squared
// modulus of the discrete Fourier transform of the B-spline sampled at its
// integer support points. Near-zero entries (which occur at the Nyquist
// frequency for even orders) are replaced by the mean of their neighbors so
// the influence function stays finite.
func bsplineModuli(order, k int) []float64 {
	theta := make([]float64, order)
	bsplineWeights(theta, nil, 0, order)

	data := make([]float64, order-1)
	for j := range data {
		data[j] = theta[order-2-j] // M_order(j+1)
	}

	mod := make([]float64, k)
	for m := 0; m < k; m++ {
		var sumRe, sumIm float64
		for j, d := range data {
			arg := 2 * math.Pi * float64(m) * float64(j) / float64(k)
			sumRe += d * math.Cos(arg)
			sumIm += d * math.Sin(arg)
		}
		mod[m] = sumRe*sumRe + sumIm*sumIm
	}

	const eps = 1e-7
	for m := 0; m < k; m++ {
		if mod[m] < eps {
			mod[m] = (mod[(m+k-1)%k] + mod[(m+1)%k]) / 2
			if mod[m] < eps {
				mod[m] = eps
			}
		}
	}
	return mod
}
