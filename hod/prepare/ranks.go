package prepare

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

const (
	numMassBins   = 100
	massBinMin    = 3e10
	massBinMaxLog = 15.5
)

// massBinEdges returns the 101 logarithmic bin edges shared by the
// environment and concentration rankings.
func massBinEdges() []float64 {
	return floats.LogSpan(make([]float64, numMassBins+1), massBinMin, math.Pow(10, massBinMaxLog))
}

// argsortRanks returns each element's position in the ascending order of
// vals, ties broken by index.
func argsortRanks(vals []float64) []int {
	order := make([]int, len(vals))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return vals[order[a]] < vals[order[b]] })
	ranks := make([]int, len(vals))
	for r, idx := range order {
		ranks[idx] = r
	}
	return ranks
}

// binnedCenteredRanks ranks vals among halos of comparable mass and maps
// the ranks to [-0.5, 0.5]. Halos in a singleton bin, or sitting exactly
// on a bin edge, rank 0.
func binnedCenteredRanks(masses []float32, vals []float64) []float32 {
	edges := massBinEdges()
	members := make([][]int, numMassBins)
	for i, m := range masses {
		if b := findMassBin(edges, float64(m)); b >= 0 {
			members[b] = append(members[b], i)
		}
	}
	out := make([]float32, len(vals))
	for _, ids := range members {
		if len(ids) < 2 {
			continue
		}
		binVals := make([]float64, len(ids))
		for k, id := range ids {
			binVals[k] = vals[id]
		}
		ranks := argsortRanks(binVals)
		scale := 1 / float64(len(ids)-1)
		for k, id := range ids {
			out[id] = float32(float64(ranks[k])*scale - 0.5)
		}
	}
	return out
}

// findMassBin locates the bin with edges[b] < m < edges[b+1], or -1.
func findMassBin(edges []float64, m float64) int {
	b := sort.SearchFloat64s(edges, m) - 1
	if b < 0 || b >= len(edges)-1 {
		return -1
	}
	if m <= edges[b] || m >= edges[b+1] {
		return -1
	}
	return b
}

// centeredRanks maps the argsort ranks of vals to mean-relative form
// (r - mean)/mean. Callers guarantee len(vals) >= 2.
func centeredRanks(vals []float64) []float64 {
	ranks := argsortRanks(vals)
	mean := float64(len(vals)-1) / 2
	out := make([]float64, len(vals))
	for i, r := range ranks {
		out[i] = (float64(r) - mean) / mean
	}
	return out
}

// perihelionDist2 estimates, per particle, the squared perihelion radius
// (kpc^2) of its orbit in the host's NFW potential. Angular-momentum
// conservation gives a fixed-point equation for x = r_p/r_0, iterated
// from the instantaneous tangential fraction; orbits where the iteration
// diverges clamp to the current radius. haloMass is Msun/h, radii Mpc/h,
// velocities km/s.
func perihelionDist2(vtan2, vrad2, r0 []float64, haloMass, r25, r90, h float64) []float64 {
	c := r90 / r25
	// G*M in SI with the NFW profile normalization, then scaled so the
	// ratio against (km/s)^2 per kpc comes out dimensionless.
	gm := 1 / (math.Log(1+c) - c/(1+c)) * 2 * 6.67e-11 * (haloMass / h) * 2e30
	out := make([]float64, len(r0))
	for i := range out {
		r0kpc := r0[i] * 1000
		alpha := gm / r0kpc / 3.086e19 / 1e6
		factorA := vtan2[i] + vrad2[i]
		factorB := math.Log(1 + r0kpc/r25)
		x2 := vtan2[i] / factorA
		for it := 0; it < 20; it++ {
			oldx := math.Sqrt(x2)
			x2 = vtan2[i] / (factorA + alpha*(math.Log(1+oldx*r0kpc/r25)/oldx-factorB))
		}
		if math.IsNaN(x2) {
			x2 = 1
		}
		out[i] = r0kpc * r0kpc * x2
	}
	return out
}
