package prepare

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/halomock/halomock/hod/catalog"
	"github.com/halomock/halomock/hod/config"
)

// DensityField is the smoothed matter overdensity delta = D/D_avg - 1 on
// an NDim^3 grid over the centered periodic box. Cells are stored
// flattened in x-major order.
type DensityField struct {
	NDim    int
	BoxSize float64
	Delta   []float32
}

// At returns the overdensity of cell (ix, iy, iz).
func (d *DensityField) At(ix, iy, iz int) float32 {
	return d.Delta[(ix*d.NDim+iy)*d.NDim+iz]
}

// AtPosition samples the cell containing a position in [-L/2, L/2).
func (d *DensityField) AtPosition(x, y, z float64) float32 {
	return d.At(
		gridCell(x, d.BoxSize, d.NDim),
		gridCell(y, d.BoxSize, d.NDim),
		gridCell(z, d.BoxSize, d.NDim),
	)
}

// gridCell maps a coordinate to its cell index, wrapping out-of-box
// positions periodically.
func gridCell(x, box float64, ndim int) int {
	i := int(math.Floor((x + box/2) / (box / float64(ndim))))
	return ((i % ndim) + ndim) % ndim
}

// ComputeDensityField histograms halo positions weighted by particle
// count N over the grid, accumulating every raw chunk, then applies
// periodic Gaussian smoothing and normalizes to overdensity.
func ComputeDensityField(cfg *config.Config) (*DensityField, error) {
	numChunks := CountRawChunks(cfg)
	if numChunks == 0 {
		return nil, fmt.Errorf("no raw catalog chunks under %s", cfg.HaloInfoDir())
	}
	ndim := cfg.HODParams.NDim
	grid := make([]float64, ndim*ndim*ndim)
	var box float64

	for i := 0; i < numChunks; i++ {
		tab, err := catalog.Read(cfg.HaloInfoPath(i), "n", "x", "y", "z")
		if err != nil {
			return nil, fmt.Errorf("density accumulation: %w", err)
		}
		if i == 0 {
			box = tab.Header.BoxSize
		} else if tab.Header.BoxSize != box {
			return nil, fmt.Errorf("chunk %d box size %v disagrees with chunk 0 (%v)",
				i, tab.Header.BoxSize, box)
		}
		n, err := tab.Int64("n")
		if err != nil {
			return nil, err
		}
		x, _ := tab.Float32("x")
		y, _ := tab.Float32("y")
		z, _ := tab.Float32("z")
		for j := range n {
			ix := gridCell(float64(x[j]), box, ndim)
			iy := gridCell(float64(y[j]), box, ndim)
			iz := gridCell(float64(z[j]), box, ndim)
			grid[(ix*ndim+iy)*ndim+iz] += float64(n[j])
		}
		logrus.Debugf("Accumulated density from chunk %d (%d halos)", i, len(n))
	}

	smoothWrap(grid, ndim, cfg.HODParams.DensitySigma)

	var total float64
	for _, v := range grid {
		total += v
	}
	avg := total / float64(len(grid))
	if avg == 0 {
		return nil, fmt.Errorf("density grid is empty: raw chunks carry no halos")
	}
	delta := make([]float32, len(grid))
	for i, v := range grid {
		delta[i] = float32(v/avg - 1)
	}
	return &DensityField{NDim: ndim, BoxSize: box, Delta: delta}, nil
}

// smoothWrap convolves the grid with a Gaussian of the given width (in
// cells) along each axis in turn, wrapping at the boundaries. The kernel
// is truncated at 4 sigma.
func smoothWrap(grid []float64, ndim int, sigma float64) {
	radius := int(4*sigma + 0.5)
	if radius < 1 {
		return
	}
	kernel := make([]float64, 2*radius+1)
	var norm float64
	for j := -radius; j <= radius; j++ {
		k := math.Exp(-float64(j*j) / (2 * sigma * sigma))
		kernel[j+radius] = k
		norm += k
	}
	for j := range kernel {
		kernel[j] /= norm
	}

	line := make([]float64, ndim)
	smoothAxis := func(stride, strideA, strideB int) {
		for a := 0; a < ndim; a++ {
			for b := 0; b < ndim; b++ {
				base := a*strideA + b*strideB
				for i := 0; i < ndim; i++ {
					var acc float64
					for j := -radius; j <= radius; j++ {
						idx := ((i+j)%ndim + ndim) % ndim
						acc += kernel[j+radius] * grid[base+idx*stride]
					}
					line[i] = acc
				}
				for i := 0; i < ndim; i++ {
					grid[base+i*stride] = line[i]
				}
			}
		}
	}
	smoothAxis(1, ndim*ndim, ndim) // z lines
	smoothAxis(ndim, ndim*ndim, 1) // y lines
	smoothAxis(ndim*ndim, ndim, 1) // x lines
}

// Save writes the field as a single-column container file.
func (d *DensityField) Save(path string) error {
	tab := catalog.NewTable(catalog.Header{BoxSize: d.BoxSize})
	tab.AddFloat32("delta", d.Delta)
	return catalog.Write(path, tab)
}

// LoadDensityField reads a cached field, recovering the grid dimension
// from the cell count.
func LoadDensityField(path string) (*DensityField, error) {
	tab, err := catalog.Read(path, "delta")
	if err != nil {
		return nil, err
	}
	delta, err := tab.Float32("delta")
	if err != nil {
		return nil, err
	}
	ndim := int(math.Round(math.Cbrt(float64(len(delta)))))
	if ndim*ndim*ndim != len(delta) {
		return nil, fmt.Errorf("density field %s has %d cells, not a cubic grid", path, len(delta))
	}
	return &DensityField{NDim: ndim, BoxSize: tab.Header.BoxSize, Delta: delta}, nil
}
