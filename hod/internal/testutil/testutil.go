// Package testutil provides shared assertion helpers for the mock
// pipeline test packages under hod/ and its subpackages.
package testutil

import (
	"math"
	"testing"
)

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}

// AssertWithinSigma checks that got lies within n standard errors of want.
// Intended for statistical expectations over fixed-seed draws.
func AssertWithinSigma(t *testing.T, name string, want, got, stderr, n float64) {
	t.Helper()
	if math.Abs(got-want) > n*stderr {
		t.Errorf("%s: got %v, want %v within %v", name, got, want, n*stderr)
	}
}
