// Package clustering defines the separation binning for the two-point
// statistics the mock catalogs are measured with, and occupation summaries
// of a generated tracer population.
package clustering

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/halomock/halomock/hod/config"
)

// Binning holds the bin edges for one clustering statistic: transverse
// separation edges in Mpc/h and line-of-sight edges up to pimax.
type Binning struct {
	RP []float64
	Pi []float64
}

// NewBinning derives the separation bin edges for the configured
// statistic. The projected correlation function integrates to pimax in
// unit steps; xirppi uses the configured line-of-sight bin size.
func NewBinning(p config.ClusteringParams) (*Binning, error) {
	rp, err := RPBins(p.BinParams)
	if err != nil {
		return nil, err
	}
	step := p.PiBinSize
	if p.ClusteringType == config.ClusteringTypeWp {
		step = 1
	}
	pi, err := PiBins(p.PiMax, step)
	if err != nil {
		return nil, err
	}
	return &Binning{RP: rp, Pi: pi}, nil
}

// RPBins returns nbins logarithmically spaced transverse separation
// values from 10^logmin to 10^logmax, both endpoints included.
func RPBins(p config.BinParams) ([]float64, error) {
	if p.NBins < 1 {
		return nil, fmt.Errorf("nbins must be at least 1, got %d", p.NBins)
	}
	if p.LogMin >= p.LogMax {
		return nil, fmt.Errorf("logmin (%v) must be less than logmax (%v)", p.LogMin, p.LogMax)
	}
	if p.NBins == 1 {
		return []float64{math.Pow(10, p.LogMin)}, nil
	}
	return floats.LogSpan(make([]float64, p.NBins),
		math.Pow(10, p.LogMin), math.Pow(10, p.LogMax)), nil
}

// PiBins returns the line-of-sight bin edges 0, step, ..., pimax.
func PiBins(pimax, step float64) ([]float64, error) {
	if pimax <= 0 {
		return nil, fmt.Errorf("pimax must be positive, got %v", pimax)
	}
	if step <= 0 {
		return nil, fmt.Errorf("pi_bin_size must be positive, got %v", step)
	}
	ratio := pimax / step
	n := math.Round(ratio)
	if math.Abs(ratio-n) > 1e-9 {
		return nil, fmt.Errorf("pimax (%v) must be an integer multiple of pi_bin_size (%v)", pimax, step)
	}
	edges := make([]float64, int(n)+1)
	for i := range edges {
		edges[i] = float64(i) * step
	}
	return edges, nil
}
