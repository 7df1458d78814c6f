package prepare

import (
	"math"
	"testing"

	"github.com/halomock/halomock/hod/internal/testutil"
)

func TestSubsampleHalos_AtCurveCenter_MatchesClosedForm(t *testing.T) {
	// At the logistic midpoint the exponential term is 1.
	testutil.AssertFloat64Equal(t, "LRG halos at 10^13.3",
		1/1.1, SubsampleHalos(math.Pow(10, 13.3), false), 1e-12)
	testutil.AssertFloat64Equal(t, "multi-tracer halos at 10^11.2",
		1.0/11, SubsampleHalos(math.Pow(10, 11.2), true), 1e-12)
}

func TestSubsampleHalos_MassiveHalos_AlwaysKept(t *testing.T) {
	for _, mt := range []bool{false, true} {
		if p := SubsampleHalos(1e16, mt); p < 0.999 {
			t.Errorf("multiTracer=%v: keep probability %v at 1e16 Msun/h, want ~1", mt, p)
		}
	}
}

func TestSubsampleHalos_MultiTracer_ReachesLowerMasses(t *testing.T) {
	lrg := SubsampleHalos(1e12, false)
	mt := SubsampleHalos(1e12, true)
	if mt <= lrg {
		t.Errorf("at 1e12 Msun/h multi-tracer keeps %v, LRG-only keeps %v; want multi-tracer higher", mt, lrg)
	}
	if mt < 0.99 {
		t.Errorf("multi-tracer keep probability %v at 1e12 Msun/h, want ~1", mt)
	}
}

func TestSubsampleParticles_AtCurveCenter_MatchesClosedForm(t *testing.T) {
	testutil.AssertFloat64Equal(t, "multi-tracer particles at 10^13.2",
		4.0/201, SubsampleParticles(math.Pow(10, 13.2), true), 1e-12)
	testutil.AssertFloat64Equal(t, "LRG particles at 10^13.7",
		4.0/201, SubsampleParticles(math.Pow(10, 13.7), false), 1e-12)
}

func TestSubsampleParticles_SaturatesAtTwoPercent(t *testing.T) {
	for _, mt := range []bool{false, true} {
		testutil.AssertFloat64Equal(t, "particle keep ceiling",
			0.02, SubsampleParticles(1e16, mt), 1e-6)
	}
}

func TestSubsampleCurves_MonotoneInMass(t *testing.T) {
	for _, mt := range []bool{false, true} {
		prevH, prevP := 0.0, 0.0
		for logM := 10.0; logM <= 16.0; logM += 0.1 {
			m := math.Pow(10, logM)
			h, p := SubsampleHalos(m, mt), SubsampleParticles(m, mt)
			if h < prevH || p < prevP {
				t.Fatalf("keep probability decreased at logM=%.1f (multiTracer=%v)", logM, mt)
			}
			prevH, prevP = h, p
		}
	}
}
