package stats

import (
	"math"
	"testing"
)

func absDiff(a, b float32) float64 {
	return math.Abs(float64(a) - float64(b))
}

func TestMedMad(t *testing.T) {
	t.Parallel()

	const tol = 1e-6
	tests := []struct {
		name   string
		xs     []float32
		factor float32
		med    float32
		mad    float32
	}{
		{name: "odd length", xs: []float32{5, 1, 3, 2, 4}, med: 3, mad: MadScale},
		{name: "even length", xs: []float32{1, 2, 3, 4}, med: 2.5, mad: MadScale},
		{name: "unit factor", xs: []float32{5, 1, 3, 2, 4}, factor: 1, med: 3, mad: 1},
		{name: "constant", xs: []float32{7, 7, 7}, med: 7, mad: 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			med, mad := MedMad(tc.xs, tc.factor)
			if absDiff(med, tc.med) > tol || absDiff(mad, tc.mad) > tol {
				t.Fatalf("MedMad(%v, %v) = %v,%v want %v,%v", tc.xs, tc.factor, med, mad, tc.med, tc.mad)
			}
		})
	}

	med, mad := MedMad(nil, 0)
	if !math.IsNaN(float64(med)) || !math.IsNaN(float64(mad)) {
		t.Fatalf("MedMad(nil) = %v,%v want NaN,NaN", med, mad)
	}

	if got := Mad([]float32{1, 2, 3, 4}, 1); absDiff(got, 1) > tol {
		t.Fatalf("Mad = %v want 1", got)
	}
}

func TestMedMadLeavesInputUntouched(t *testing.T) {
	t.Parallel()

	xs := []float32{4, 1, 3, 2}
	MedMad(xs, 0)
	want := []float32{4, 1, 3, 2}
	for i := range xs {
		if xs[i] != want[i] {
			t.Fatalf("input mutated: %v", xs)
		}
	}
}

func TestStudentise(t *testing.T) {
	t.Parallel()

	xs := []float32{1, 2, 3, 4}
	Studentise(xs)

	var sum, sq float64
	for _, v := range xs {
		sum += float64(v)
		sq += float64(v) * float64(v)
	}
	mean := sum / float64(len(xs))
	std := math.Sqrt(sq/float64(len(xs)) - mean*mean)
	if math.Abs(mean) > 1e-6 {
		t.Fatalf("mean after studentise = %v want 0", mean)
	}
	if math.Abs(std-1) > 1e-5 {
		t.Fatalf("std after studentise = %v want 1", std)
	}
}

func TestStudentiseConstant(t *testing.T) {
	t.Parallel()

	xs := []float32{5, 5, 5}
	Studentise(xs)
	for i, v := range xs {
		if v != 0 {
			t.Fatalf("studentised constant[%d] = %v want 0", i, v)
		}
	}
}

func TestGeometricPrior(t *testing.T) {
	t.Parallel()

	const tol = 1e-6
	prior := GeometricPrior(4, 1, false)
	logHalf := float32(math.Log(0.5))
	for i, v := range prior {
		want := float32(i+1) * logHalf
		if absDiff(v, want) > tol {
			t.Fatalf("prior[%d] = %v want %v", i, v, want)
		}
	}

	rev := GeometricPrior(4, 1, true)
	for i := range rev {
		if rev[i] != prior[len(prior)-1-i] {
			t.Fatalf("reversed prior mismatch at %d: %v vs %v", i, rev, prior)
		}
	}

	// Truncated tail keeps total mass at or below 1.
	var mass float64
	for _, v := range GeometricPrior(50, 3.5, false) {
		mass += math.Exp(float64(v))
	}
	if mass > 1+1e-6 {
		t.Fatalf("prior mass = %v want <= 1", mass)
	}
}
