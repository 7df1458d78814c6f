package prepare

import "math"

// Subsampling keep probabilities as a function of halo mass (Msun/h).
// The curves track the low-mass falloff of the LRG HOD (arXiv:2001.06018
// fig. 13); the multi-tracer variants keep lighter halos because ELG and
// QSO hosts reach further down the mass function.

// SubsampleHalos is the halo keep probability.
func SubsampleHalos(m float64, multiTracer bool) float64 {
	x := math.Log10(m)
	if multiTracer {
		return 1 / (1 + 10*math.Exp(-(x-11.2)*25))
	}
	return 1 / (1 + 0.1*math.Exp(-(x-13.3)*5))
}

// SubsampleParticles is the per-particle keep probability within a kept
// halo. At most 2% of a halo's subsample particles survive; satellite
// weights undo the thinning in expectation.
func SubsampleParticles(m float64, multiTracer bool) float64 {
	x := math.Log10(m)
	if multiTracer {
		return 4 / (200 + math.Exp(-(x-13.2)*6))
	}
	return 4 / (200 + math.Exp(-(x-13.7)*8))
}
