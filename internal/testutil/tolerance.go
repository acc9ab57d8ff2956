// Package testutil provides numeric assertion helpers shared by the force
// engine tests.
package testutil

import (
	"math"
	"testing"
)

// RequireNear fails t if |got-want| exceeds eps.
func RequireNear(t *testing.T, got, want, eps float64) {
	t.Helper()
	if math.Abs(got-want) > eps {
		t.Fatalf("got %v, want %v (diff %v > eps %v)", got, want, math.Abs(got-want), eps)
	}
}

// RequireRelNear fails t if got and want differ by more than rel relative to
// want. Falls back to an absolute comparison when want is tiny.
func RequireRelNear(t *testing.T, got, want, rel float64) {
	t.Helper()
	scale := math.Abs(want)
	if scale < 1e-10 {
		scale = 1
	}
	if math.Abs(got-want) > rel*scale {
		t.Fatalf("got %v, want %v (rel diff %v > %v)", got, want, math.Abs(got-want)/scale, rel)
	}
}

// RequireSliceNear32 fails t if got and want differ in length or any element
// pair exceeds eps (absolute tolerance).
func RequireSliceNear32(t *testing.T, got, want []float32, eps float32) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}
	for i := range got {
		diff := float32(math.Abs(float64(got[i] - want[i])))
		if diff > eps {
			t.Fatalf("index %d: got %v, want %v (diff %v > eps %v)", i, got[i], want[i], diff, eps)
		}
	}
}

// RequireFinite32 fails t if any element is NaN or Inf.
func RequireFinite32(t *testing.T, data []float32) {
	t.Helper()
	for i, v := range data {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			t.Fatalf("index %d: non-finite value %v", i, v)
		}
	}
}

// MaxAbsDiff32 returns the maximum absolute difference between two slices.
// The slices must have equal length.
func MaxAbsDiff32(t *testing.T, a, b []float32) float32 {
	t.Helper()
	if len(a) != len(b) {
		t.Fatalf("length mismatch: %d vs %d", len(a), len(b))
	}
	var maxDiff float32
	for i := range a {
		d := float32(math.Abs(float64(a[i] - b[i])))
		if d > maxDiff {
			maxDiff = d
		}
	}
	return maxDiff
}
