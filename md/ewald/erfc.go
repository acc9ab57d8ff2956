package ewald

import "github.com/cwbudde/algo-md/internal/fvec"

// TwoOverSqrtPi is 2/sqrt(pi).
const TwoOverSqrtPi = 1.1283791670955126

// ErfcApprox evaluates the complementary error function lanewise using the
// rational approximation from Abramowitz and Stegun (1964) p. 299, after
// C. Hastings, Jr. (1955). Maximum error is about 3e-7 for x >= 0.
func ErfcApprox(x fvec.Float4) fvec.Float4 {
	t := x.Scale(0.0000430638).AddScalar(0.0002765672)
	t = t.Mul(x).AddScalar(0.0001520143)
	t = t.Mul(x).AddScalar(0.0092705272)
	t = t.Mul(x).AddScalar(0.0422820123)
	t = t.Mul(x).AddScalar(0.0705230784)
	t = t.Mul(x).AddScalar(1)
	t = t.Mul(t)
	t = t.Mul(t)
	t = t.Mul(t)
	return fvec.Broadcast(1).Div(t.Mul(t))
}

// Erfc is the scalar form of ErfcApprox.
func Erfc(x float32) float32 {
	t := 1 + (0.0705230784+(0.0422820123+(0.0092705272+(0.0001520143+(0.0002765672+0.0000430638*x)*x)*x)*x)*x)*x
	t *= t
	t *= t
	t *= t
	return 1 / (t * t)
}
