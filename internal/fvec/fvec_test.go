package fvec

import (
	"math"
	"testing"
)

func TestArithmetic(t *testing.T) {
	a := New(1, 2, 3, 4)
	b := New(4, 3, 2, 1)

	if got := a.Add(b); got != New(5, 5, 5, 5) {
		t.Fatalf("Add = %v", got)
	}
	if got := a.Sub(b); got != New(-3, -1, 1, 3) {
		t.Fatalf("Sub = %v", got)
	}
	if got := a.Mul(b); got != New(4, 6, 6, 4) {
		t.Fatalf("Mul = %v", got)
	}
	if got := a.Div(Broadcast(2)); got != New(0.5, 1, 1.5, 2) {
		t.Fatalf("Div = %v", got)
	}
	if got := a.Scale(2); got != New(2, 4, 6, 8) {
		t.Fatalf("Scale = %v", got)
	}
	if got := a.SubScalar(1); got != New(0, 1, 2, 3) {
		t.Fatalf("SubScalar = %v", got)
	}
}

func TestSqrtRound(t *testing.T) {
	v := New(1, 4, 9, 16).Sqrt()
	want := New(1, 2, 3, 4)
	for i := range v {
		if math.Abs(float64(v[i]-want[i])) > 1e-6 {
			t.Fatalf("Sqrt lane %d = %v, want %v", i, v[i], want[i])
		}
	}

	r := New(-1.5, -0.4, 0.5, 1.6).Round()
	if r != New(-2, 0, 1, 2) {
		t.Fatalf("Round = %v", r)
	}
}

func TestMaskBlend(t *testing.T) {
	a := New(1, 5, 3, 7)
	b := Broadcast(4)

	m := a.Greater(b)
	if m != (Mask4{false, true, false, true}) {
		t.Fatalf("Greater = %v", m)
	}
	if got := Blend(m, a, b); got != New(4, 5, 4, 7) {
		t.Fatalf("Blend = %v", got)
	}
}

func TestTranspose(t *testing.T) {
	a := New(0, 1, 2, 3)
	b := New(10, 11, 12, 13)
	c := New(20, 21, 22, 23)
	d := New(30, 31, 32, 33)

	Transpose(&a, &b, &c, &d)

	if a != New(0, 10, 20, 30) || b != New(1, 11, 21, 31) ||
		c != New(2, 12, 22, 32) || d != New(3, 13, 23, 33) {
		t.Fatalf("Transpose = %v %v %v %v", a, b, c, d)
	}
}

func TestLoadStore(t *testing.T) {
	buf := []float32{1, 2, 3, 4, 5}
	v := Load(buf)
	if v != New(1, 2, 3, 4) {
		t.Fatalf("Load = %v", v)
	}

	dst := make([]float32, 4)
	v.Scale(2).Store(dst)
	if dst[0] != 2 || dst[3] != 8 {
		t.Fatalf("Store = %v", dst)
	}
}
