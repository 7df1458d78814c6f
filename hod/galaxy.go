package hod

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
	"github.com/sirupsen/logrus"
)

// Galaxies is a column-oriented galaxy set for one tracer. The first
// NCent rows are centrals, the rest satellites. Mass and HaloID are the
// host halo's, for satellites too.
type Galaxies struct {
	X, Y, Z    []float32
	VX, VY, VZ []float32
	Mass       []float32
	HaloID     []int64

	NCent int
}

func newGalaxies(n int) *Galaxies {
	return &Galaxies{
		X:      make([]float32, n),
		Y:      make([]float32, n),
		Z:      make([]float32, n),
		VX:     make([]float32, n),
		VY:     make([]float32, n),
		VZ:     make([]float32, n),
		Mass:   make([]float32, n),
		HaloID: make([]int64, n),
	}
}

// Len returns the total galaxy count.
func (g *Galaxies) Len() int { return len(g.X) }

// NSat returns the satellite count.
func (g *Galaxies) NSat() int { return g.Len() - g.NCent }

func (g *Galaxies) set(j int, x, y, z, vx, vy, vz float64, mass float32, id int64) {
	g.X[j] = float32(x)
	g.Y[j] = float32(y)
	g.Z[j] = float32(z)
	g.VX[j] = float32(vx)
	g.VY[j] = float32(vy)
	g.VZ[j] = float32(vz)
	g.Mass[j] = mass
	g.HaloID[j] = id
}

// mergeGalaxies concatenates centrals and satellites, centrals first.
func mergeGalaxies(cent, sat *Galaxies) *Galaxies {
	return &Galaxies{
		X:      append(cent.X, sat.X...),
		Y:      append(cent.Y, sat.Y...),
		Z:      append(cent.Z, sat.Z...),
		VX:     append(cent.VX, sat.VX...),
		VY:     append(cent.VY, sat.VY...),
		VZ:     append(cent.VZ, sat.VZ...),
		Mass:   append(cent.Mass, sat.Mass...),
		HaloID: append(cent.HaloID, sat.HaloID...),
		NCent:  cent.Len(),
	}
}

const mockHeader = "x_gal y_gal z_gal vx_gal vy_gal vz_gal mass_halo id_halo"

// WriteMock writes every tracer's galaxies as whitespace-delimited text
// under dir, one <tracer>s.dat file per tracer, replacing any previous
// mock atomically.
func WriteMock(dir string, mock MockDict) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating mock directory: %w", err)
	}
	for tracer, g := range mock {
		path := filepath.Join(dir, tracer+"s.dat")
		if err := writeGalaxies(path, g); err != nil {
			return fmt.Errorf("writing %s mock: %w", tracer, err)
		}
		logrus.Infof("Wrote %d %s galaxies (%d centrals) to %s", g.Len(), tracer, g.NCent, path)
	}
	return nil
}

func writeGalaxies(path string, g *Galaxies) error {
	pending, err := renameio.NewPendingFile(path)
	if err != nil {
		return err
	}
	defer pending.Cleanup()

	w := bufio.NewWriter(pending)
	if _, err := fmt.Fprintln(w, mockHeader); err != nil {
		return err
	}
	for i := 0; i < g.Len(); i++ {
		_, err := fmt.Fprintf(w, "%g %g %g %g %g %g %g %d\n",
			g.X[i], g.Y[i], g.Z[i], g.VX[i], g.VY[i], g.VZ[i], g.Mass[i], g.HaloID[i])
		if err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return pending.CloseAtomicallyReplace()
}
