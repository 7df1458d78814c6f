package hod

import (
	"math"
	"testing"

	"github.com/halomock/halomock/hod/internal/testutil"
)

func TestNCenLRG_AtCutMass_IsHalf(t *testing.T) {
	got := NCenLRG(math.Pow(10, 13.3), 13.3, 0.3)
	testutil.AssertFloat64Equal(t, "NCenLRG at cut", 0.5, got, 1e-12)
}

func TestNCenLRG_SymmetricAroundCut(t *testing.T) {
	for _, d := range []float64{0.1, 0.5, 1.0} {
		above := NCenLRG(math.Pow(10, 13.3+d), 13.3, 0.3)
		below := NCenLRG(math.Pow(10, 13.3-d), 13.3, 0.3)
		testutil.AssertFloat64Equal(t, "erfc symmetry", 1.0, above+below, 1e-12)
	}
}

func TestNCenLRG_Limits(t *testing.T) {
	if got := NCenLRG(1e10, 13.3, 0.3); got > 1e-10 {
		t.Errorf("low-mass tail should vanish, got %v", got)
	}
	got := NCenLRG(1e16, 13.3, 0.3)
	if got < 1-1e-10 || got > 1 {
		t.Errorf("high-mass limit should saturate at 1, got %v", got)
	}
}

func TestNSatLRG_BelowKappaCut_IsZero(t *testing.T) {
	mCut := math.Pow(10, 13.3)
	for _, m := range []float64{1e12, 0.4 * mCut} {
		if got := NSatLRG(m, 13.3, mCut, math.Pow(10, 14.3), 0.3, 1.0, 0.4); got != 0 {
			t.Errorf("NSatLRG(%g) = %v, want 0", m, got)
		}
	}
}

// At m = kappa*M_cut + M1 the power-law base is exactly one, so the
// expectation reduces to the central shape alone.
func TestNSatLRG_AtUnitBase_MatchesCentralShape(t *testing.T) {
	mCut := math.Pow(10, 13.3)
	m1 := math.Pow(10, 14.3)
	m := 0.4*mCut + m1
	got := NSatLRG(m, 13.3, mCut, m1, 0.3, 0.8, 0.4)
	testutil.AssertFloat64Equal(t, "NSatLRG at unit base", NCenLRG(m, 13.3, 0.3), got, 1e-12)
}

func TestNSatLRG_GoldenValue(t *testing.T) {
	got := NSatLRG(1e14, 13.3, math.Pow(10, 13.3), math.Pow(10, 14.3), 0.3, 1.0, 0.4)
	testutil.AssertFloat64Equal(t, "NSatLRG", 0.45666, got, 1e-3)
}

func TestNSatGeneric_BelowKappaCut_IsZero(t *testing.T) {
	mCut := math.Pow(10, 11.7)
	if got := NSatGeneric(0.9*mCut, mCut, 1.0, math.Pow(10, 13.5), 1.0, 0.1); got != 0 {
		t.Errorf("got %v, want 0", got)
	}
}

func TestNSatGeneric_AtUnitBase_EqualsAmplitude(t *testing.T) {
	mCut := math.Pow(10, 11.7)
	m1 := math.Pow(10, 13.5)
	m := 1.0*mCut + m1
	for _, alpha := range []float64{0.5, 1.0, 1.7} {
		got := NSatGeneric(m, mCut, 1.0, m1, alpha, 0.41)
		testutil.AssertFloat64Equal(t, "NSatGeneric at unit base", 0.41, got, 1e-12)
	}
}

func TestNSatGeneric_ScalesWithAmplitude(t *testing.T) {
	mCut := math.Pow(10, 11.7)
	one := NSatGeneric(1e13, mCut, 1.0, math.Pow(10, 13.5), 1.0, 1.0)
	two := NSatGeneric(1e13, mCut, 1.0, math.Pow(10, 13.5), 1.0, 2.0)
	testutil.AssertFloat64Equal(t, "amplitude scaling", 2*one, two, 1e-12)
}

// Far above the cut the Gaussian peak has decayed and the step factor has
// saturated, leaving the 1/Q plateau.
func TestNCenELG_PlateauAboveCut(t *testing.T) {
	got := NCenELG(1e15, 0.33, 100, 11.75, 0.58, 4.0)
	testutil.AssertFloat64Equal(t, "ELG plateau", 0.01, got, 1e-4)
}

func TestNCenELG_VanishesFarBelowCut(t *testing.T) {
	if got := NCenELG(1e10, 0.33, 100, 11.75, 0.58, 4.0); got > 1e-12 {
		t.Errorf("got %v, want ~0", got)
	}
}

func TestNCenELG_PeakValueAtCut(t *testing.T) {
	// 2*(p_max-1/Q)*phi(0)*0.5 + 0.5/Q, with phi(0) = 1/(sqrt(2 pi)*sigma).
	got := NCenELG(math.Pow(10, 11.75), 0.33, 100, 11.75, 0.58, 4.0)
	testutil.AssertFloat64Equal(t, "ELG at cut", 0.225106, got, 1e-3)
}

func TestNCenQSO_AtCut_IsHalfPMax(t *testing.T) {
	got := NCenQSO(math.Pow(10, 14.1), 0.33, 14.1, 0.74)
	testutil.AssertFloat64Equal(t, "QSO at cut", 0.165, got, 1e-12)
}

func TestNCenQSO_Saturation(t *testing.T) {
	got := NCenQSO(1e18, 0.4, 12.0, 0.5)
	testutil.AssertFloat64Equal(t, "QSO saturation", 0.4, got, 1e-9)
	if low := NCenQSO(1e8, 0.4, 12.0, 0.5); low > 1e-10 {
		t.Errorf("low-mass tail should vanish, got %v", low)
	}
}

func TestWrap_PeriodicBoundary(t *testing.T) {
	const l = 2000.0
	cases := []struct {
		x, want float64
	}{
		{0, 0},
		{999, 999},
		{1000, -1000},
		{1300, -700},
		{-1000, -1000},
		{-1100, 900},
	}
	for _, c := range cases {
		if got := wrap(c.x, l); got != c.want {
			t.Errorf("wrap(%v) = %v, want %v", c.x, got, c.want)
		}
	}
}
