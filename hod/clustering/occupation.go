package clustering

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/halomock/halomock/hod"
)

// OccupationProfile is the measured mean central and satellite occupation
// per log10-mass bin. Bins holding no halo weight report NaN means.
type OccupationProfile struct {
	LogMassEdges   []float64
	LogMassMid     []float64
	HaloWeight     []float64
	MeanCentrals   []float64
	MeanSatellites []float64
}

// MeanOccupation measures the occupation of one generated tracer against
// the staged halo catalog it was drawn from. Each subsample halo counts
// with its 1/p multiplicity so thinned mass bins are not undercounted;
// each galaxy counts once, since the generation draw already folds the
// multiplicity in.
func MeanOccupation(halos *hod.HaloCatalog, gals *hod.Galaxies, logMin, logMax float64, nbins int) (*OccupationProfile, error) {
	if nbins < 1 {
		return nil, fmt.Errorf("nbins must be at least 1, got %d", nbins)
	}
	if logMin >= logMax {
		return nil, fmt.Errorf("logmin (%v) must be less than logmax (%v)", logMin, logMax)
	}

	edges := floats.Span(make([]float64, nbins+1), logMin, logMax)

	haloM := make([]float64, halos.Len())
	haloW := make([]float64, halos.Len())
	for i := range haloM {
		haloM[i] = math.Log10(float64(halos.Mass[i]))
		haloW[i] = float64(halos.Multi[i])
	}
	cenM := make([]float64, gals.NCent)
	for i := range cenM {
		cenM[i] = math.Log10(float64(gals.Mass[i]))
	}
	satM := make([]float64, len(gals.Mass)-gals.NCent)
	for i := range satM {
		satM[i] = math.Log10(float64(gals.Mass[gals.NCent+i]))
	}

	p := &OccupationProfile{
		LogMassEdges:   edges,
		LogMassMid:     make([]float64, nbins),
		HaloWeight:     binWeights(edges, haloM, haloW),
		MeanCentrals:   binWeights(edges, cenM, nil),
		MeanSatellites: binWeights(edges, satM, nil),
	}
	for i := 0; i < nbins; i++ {
		p.LogMassMid[i] = (edges[i] + edges[i+1]) / 2
		if p.HaloWeight[i] == 0 {
			p.MeanCentrals[i] = math.NaN()
			p.MeanSatellites[i] = math.NaN()
			continue
		}
		p.MeanCentrals[i] /= p.HaloWeight[i]
		p.MeanSatellites[i] /= p.HaloWeight[i]
	}
	return p, nil
}

// Print writes the profile as a table, skipping bins with no halos.
func (p *OccupationProfile) Print() {
	fmt.Printf("%-10s %14s %12s %12s\n", "log10(M)", "halo weight", "<N_cen>", "<N_sat>")
	for i := range p.LogMassMid {
		if p.HaloWeight[i] == 0 {
			continue
		}
		fmt.Printf("%-10.3f %14.1f %12.6f %12.6f\n",
			p.LogMassMid[i], p.HaloWeight[i], p.MeanCentrals[i], p.MeanSatellites[i])
	}
}

// binWeights histograms x into the bin edges. Samples outside the edge
// range are dropped; the rest are sorted first, as stat.Histogram
// requires ascending input. A nil weight slice counts each sample once.
func binWeights(edges, x, weights []float64) []float64 {
	type sample struct{ x, w float64 }
	kept := make([]sample, 0, len(x))
	for i, v := range x {
		if v < edges[0] || v >= edges[len(edges)-1] {
			continue
		}
		w := 1.0
		if weights != nil {
			w = weights[i]
		}
		kept = append(kept, sample{v, w})
	}
	sort.Slice(kept, func(a, b int) bool { return kept[a].x < kept[b].x })

	sx := make([]float64, len(kept))
	sw := make([]float64, len(kept))
	for i, s := range kept {
		sx[i], sw[i] = s.x, s.w
	}
	return stat.Histogram(make([]float64, len(edges)-1), edges, sx, sw)
}
