package core

import (
	"math"
	"testing"
)

func TestMedian(t *testing.T) {
	cases := []struct {
		name string
		in   []float64
		want float64
	}{
		{"even", []float64{1, 2, 3, 4}, 2.5},
		{"odd", []float64{1, 2, 3}, 2},
		{"single", []float64{7}, 7},
		{"unsorted even", []float64{4, 1, 3, 2}, 2.5},
		{"descending odd", []float64{9, 5, 1}, 5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Median(tc.in)
			if !ok || got != tc.want {
				t.Fatalf("Median(%v) = %v, %v; want %v", tc.in, got, ok, tc.want)
			}
		})
	}
}

func TestMedianDoesNotMutateInput(t *testing.T) {
	in := []float64{3, 1, 2}
	Median(in)
	if in[0] != 3 || in[1] != 1 || in[2] != 2 {
		t.Fatalf("input mutated: %v", in)
	}
}

func TestMedianSymmetric(t *testing.T) {
	a, _ := Median([]float64{0.7, 0.9, 0.8, 1.0, 0.6, 0.85})
	b, _ := Median([]float64{1.0, 0.9, 0.85, 0.8, 0.7, 0.6})
	if a != b {
		t.Fatalf("median depends on input order: %v vs %v", a, b)
	}
}

func TestEmptySeries(t *testing.T) {
	if _, ok := Mean(nil); ok {
		t.Fatal("mean of empty series must be absent")
	}
	if _, ok := Median([]float64{}); ok {
		t.Fatal("median of empty series must be absent")
	}
}

func TestMean(t *testing.T) {
	got, ok := Mean([]float64{1, 2, 3, 4})
	if !ok || got != 2.5 {
		t.Fatalf("Mean = %v, %v", got, ok)
	}
}

func TestDiscrepancy(t *testing.T) {
	if d := Discrepancy(10, 9); d > 20 || math.Abs(d-11.111) > 0.01 {
		t.Fatalf("Discrepancy(10, 9) = %v", d)
	}
	if d := Discrepancy(10, 7); d <= 20 || math.Abs(d-42.857) > 0.01 {
		t.Fatalf("Discrepancy(10, 7) = %v", d)
	}
	if !math.IsInf(Discrepancy(1, 0), 1) {
		t.Fatal("zero median must be infinite discrepancy")
	}
}
