package hod

import (
	"fmt"
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/halomock/halomock/hod/catalog"
	"github.com/halomock/halomock/hod/config"
)

// Tracer markers stored in the keep array during the counting pass.
const (
	keepNone int8 = iota
	keepLRG
	keepELG
	keepQSO
)

var keepTracer = map[int8]string{
	keepLRG: config.TracerLRG,
	keepELG: config.TracerELG,
	keepQSO: config.TracerQSO,
}

// Model bundles the per-tracer occupation parameters and switches the
// generation kernel consumes.
type Model struct {
	WantLRG     bool
	WantELG     bool
	WantQSO     bool
	EnableRanks bool
	LRG         config.LRGParams
	ELG         config.ELGParams
	QSO         config.QSOParams
}

// NewModel extracts the kernel parameters from a configuration document.
func NewModel(p config.HODParams) Model {
	return Model{
		WantLRG:     p.TracerFlags.LRG,
		WantELG:     p.TracerFlags.ELG,
		WantQSO:     p.TracerFlags.QSO,
		EnableRanks: p.WantRanks,
		LRG:         p.LRG,
		ELG:         p.ELG,
		QSO:         p.QSO,
	}
}

// Engine populates staged catalogs with mock galaxies. A run is a pure
// function of the catalogs and the model: the stochastic inputs (uniform
// markers, velocity deviates) are columns attached at prepare time, so the
// output is identical for any NThread.
type Engine struct {
	Model     Model
	LBox      float64
	VelZToKMS float64
	RSD       bool

	// NThread is the shard count for the generation passes; zero or
	// negative means GOMAXPROCS.
	NThread int
}

// NewEngine builds an engine from the model, the catalog header's box
// geometry, and the redshift-space flag.
func NewEngine(m Model, header catalog.Header, rsd bool) *Engine {
	return &Engine{
		Model:     m,
		LBox:      header.BoxSize,
		VelZToKMS: header.VelZToKMS,
		RSD:       rsd,
	}
}

// MockDict maps tracer names to their generated galaxies.
type MockDict map[string]*Galaxies

// Run generates centrals from the halo catalog and satellites from the
// particle catalog, returning one merged galaxy set per enabled tracer
// with centrals first.
func (e *Engine) Run(halos *HaloCatalog, parts *ParticleCatalog) (MockDict, error) {
	if e.VelZToKMS <= 0 && e.RSD {
		return nil, fmt.Errorf("redshift-space run needs a positive velz2kms, got %v", e.VelZToKMS)
	}
	if e.LBox <= 0 {
		return nil, fmt.Errorf("box size must be positive, got %v", e.LBox)
	}
	if e.Model.EnableRanks && !parts.HasRanks() {
		return nil, fmt.Errorf("rank decorations requested but particle catalog has no rank columns")
	}

	start := time.Now()
	cents := e.generateCentrals(halos)
	logrus.Infof("Generated %d centrals in %v",
		cents[0].Len()+cents[1].Len()+cents[2].Len(), time.Since(start).Round(time.Millisecond))

	start = time.Now()
	sats := e.generateSatellites(parts)
	logrus.Infof("Generated %d satellites in %v",
		sats[0].Len()+sats[1].Len()+sats[2].Len(), time.Since(start).Round(time.Millisecond))

	out := MockDict{}
	for k, name := range keepTracer {
		if !e.wantTracer(k) {
			continue
		}
		out[name] = mergeGalaxies(cents[k-1], sats[k-1])
	}
	return out, nil
}

func (e *Engine) wantTracer(k int8) bool {
	switch k {
	case keepLRG:
		return e.Model.WantLRG
	case keepELG:
		return e.Model.WantELG
	case keepQSO:
		return e.Model.WantQSO
	}
	return false
}

// alphaC returns the central velocity bias for a tracer marker.
func (e *Engine) alphaC(k int8) float64 {
	switch k {
	case keepLRG:
		return e.Model.LRG.AlphaC
	case keepELG:
		return e.Model.ELG.AlphaC
	case keepQSO:
		return e.Model.QSO.AlphaC
	}
	return 0
}

// alphaS returns the satellite velocity bias for a tracer marker.
func (e *Engine) alphaS(k int8) float64 {
	switch k {
	case keepLRG:
		return e.Model.LRG.AlphaS
	case keepELG:
		return e.Model.ELG.AlphaS
	case keepQSO:
		return e.Model.QSO.AlphaS
	}
	return 0
}

func (e *Engine) threads() int {
	if e.NThread > 0 {
		return e.NThread
	}
	return runtime.GOMAXPROCS(0)
}

// classifyCentral assigns halo i to a tracer, or none. The enabled
// tracers stack their occupation probabilities into consecutive intervals
// of the halo's uniform marker, so a single draw serves all three.
func (e *Engine) classifyCentral(h *HaloCatalog, i int) int8 {
	m := float64(h.Mass[i])
	r := float64(h.Randoms[i])

	lrg := 0.0
	if e.Model.WantLRG {
		p := &e.Model.LRG
		logMCut := p.LogMCut + p.ACent*float64(h.DeltacRank[i]) + p.BCent*float64(h.FenvRank[i])
		lrg = NCenLRG(m, logMCut, p.Sigma) * p.IC * float64(h.Multi[i])
	}
	elg := lrg
	if e.Model.WantELG {
		p := &e.Model.ELG
		elg += NCenELG(m, p.PMax, p.Q, p.LogMCut, p.Sigma, p.Gamma) * float64(h.Multi[i])
	}
	qso := elg
	if e.Model.WantQSO {
		p := &e.Model.QSO
		qso += NCenQSO(m, p.PMax, p.LogMCut, p.Sigma)
	}

	switch {
	case e.Model.WantLRG && r <= lrg:
		return keepLRG
	case e.Model.WantELG && r <= elg:
		return keepELG
	case e.Model.WantQSO && r <= qso:
		return keepQSO
	}
	return keepNone
}

// satDerived caches the mass-scale constants of the undecorated tracers.
type satDerived struct {
	elgMCut, elgM1 float64
	qsoMCut, qsoM1 float64
}

func (e *Engine) deriveSat() satDerived {
	return satDerived{
		elgMCut: math.Pow(10, e.Model.ELG.LogMCut),
		elgM1:   math.Pow(10, e.Model.ELG.LogM1),
		qsoMCut: math.Pow(10, e.Model.QSO.LogMCut),
		qsoM1:   math.Pow(10, e.Model.QSO.LogM1),
	}
}

// classifySatellite assigns particle i to a tracer, or none. The particle
// weight undoes the halo and particle subsampling so the expected
// satellite count per halo matches the occupation function. Only the LRG
// expectation carries assembly bias and profile rank decorations.
func (e *Engine) classifySatellite(p *ParticleCatalog, i int, d *satDerived) int8 {
	m := float64(p.HMass[i])
	w := float64(p.Weight[i])
	r := float64(p.Randoms[i])

	lrg := 0.0
	if e.Model.WantLRG {
		q := &e.Model.LRG
		dc := float64(p.DeltacRank[i])
		fe := float64(p.FenvRank[i])
		m1 := math.Pow(10, q.LogM1+q.ASat*dc+q.BSat*fe)
		logMCut := q.LogMCut + q.ACent*dc + q.BCent*fe
		lrg = NSatLRG(m, logMCut, math.Pow(10, logMCut), m1, q.Sigma, q.Alpha, q.Kappa) * w * q.IC
		if e.Model.EnableRanks {
			lrg *= 1 + q.S*float64(p.Rank[i]) + q.SV*float64(p.RankV[i]) +
				q.SP*float64(p.RankP[i]) + q.SR*float64(p.RankR[i])
		}
	}
	elg := lrg
	if e.Model.WantELG {
		q := &e.Model.ELG
		elg += NSatGeneric(m, d.elgMCut, q.Kappa, d.elgM1, q.Alpha, q.AS) * w
	}
	qso := elg
	if e.Model.WantQSO {
		q := &e.Model.QSO
		qso += NSatGeneric(m, d.qsoMCut, q.Kappa, d.qsoM1, q.Alpha, q.AS) * w
	}

	switch {
	case e.Model.WantLRG && r <= lrg:
		return keepLRG
	case e.Model.WantELG && r <= elg:
		return keepELG
	case e.Model.WantQSO && r <= qso:
		return keepQSO
	}
	return keepNone
}

// generateCentrals runs the two-pass kernel over halos: a counting pass
// marks each halo's tracer and sizes the output, a fill pass writes
// galaxies at precomputed offsets. Shards cover contiguous halo ranges,
// so the concatenated output is in halo order whatever the shard count.
func (e *Engine) generateCentrals(h *HaloCatalog) [3]*Galaxies {
	n := h.Len()
	nt := e.threads()
	bounds := shardBounds(n, nt)
	keep := make([]int8, n)
	counts := make([][3]int, nt)

	var wg sync.WaitGroup
	for t := 0; t < nt; t++ {
		t := t
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := bounds[t]; i < bounds[t+1]; i++ {
				k := e.classifyCentral(h, i)
				keep[i] = k
				if k != keepNone {
					counts[t][k-1]++
				}
			}
		}()
	}
	wg.Wait()

	starts, totals := shardOffsets(counts)
	var out [3]*Galaxies
	for tr := 0; tr < 3; tr++ {
		out[tr] = newGalaxies(totals[tr])
	}

	for t := 0; t < nt; t++ {
		t := t
		wg.Add(1)
		go func() {
			defer wg.Done()
			j := starts[t]
			for i := bounds[t]; i < bounds[t+1]; i++ {
				k := keep[i]
				if k == keepNone {
					continue
				}
				aC := e.alphaC(k)
				vdev := float64(h.VDev[i])
				vx := float64(h.VX[i]) + aC*vdev
				vy := float64(h.VY[i]) + aC*vdev
				vz := float64(h.VZ[i]) + aC*vdev
				z := float64(h.Z[i])
				if e.RSD {
					z = wrap(z+vz/e.VelZToKMS, e.LBox)
				}
				out[k-1].set(j[k-1], float64(h.X[i]), float64(h.Y[i]), z,
					vx, vy, vz, h.Mass[i], h.ID[i])
				j[k-1]++
			}
		}()
	}
	wg.Wait()
	return out
}

// generateSatellites mirrors generateCentrals over the particle catalog.
// A satellite sits at its particle's position; its velocity interpolates
// between the halo bulk velocity and the particle velocity by the
// tracer's alpha_s.
func (e *Engine) generateSatellites(p *ParticleCatalog) [3]*Galaxies {
	n := p.Len()
	nt := e.threads()
	bounds := shardBounds(n, nt)
	keep := make([]int8, n)
	counts := make([][3]int, nt)
	derived := e.deriveSat()

	var wg sync.WaitGroup
	for t := 0; t < nt; t++ {
		t := t
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := bounds[t]; i < bounds[t+1]; i++ {
				k := e.classifySatellite(p, i, &derived)
				keep[i] = k
				if k != keepNone {
					counts[t][k-1]++
				}
			}
		}()
	}
	wg.Wait()

	starts, totals := shardOffsets(counts)
	var out [3]*Galaxies
	for tr := 0; tr < 3; tr++ {
		out[tr] = newGalaxies(totals[tr])
	}

	for t := 0; t < nt; t++ {
		t := t
		wg.Add(1)
		go func() {
			defer wg.Done()
			j := starts[t]
			for i := bounds[t]; i < bounds[t+1]; i++ {
				k := keep[i]
				if k == keepNone {
					continue
				}
				aS := e.alphaS(k)
				vx := float64(p.HVX[i]) + aS*(float64(p.VX[i])-float64(p.HVX[i]))
				vy := float64(p.HVY[i]) + aS*(float64(p.VY[i])-float64(p.HVY[i]))
				vz := float64(p.HVZ[i]) + aS*(float64(p.VZ[i])-float64(p.HVZ[i]))
				z := float64(p.Z[i])
				if e.RSD {
					z = wrap(z+vz/e.VelZToKMS, e.LBox)
				}
				out[k-1].set(j[k-1], float64(p.X[i]), float64(p.Y[i]), z,
					vx, vy, vz, p.HMass[i], p.HID[i])
				j[k-1]++
			}
		}()
	}
	wg.Wait()
	return out
}

// shardBounds splits n items into contiguous shards with
// rounded-linspace boundaries.
func shardBounds(n, shards int) []int {
	b := make([]int, shards+1)
	for i := range b {
		b[i] = int(math.RoundToEven(float64(i) * float64(n) / float64(shards)))
	}
	return b
}

// shardOffsets turns per-shard tracer counts into per-shard write offsets
// (exclusive prefix sums) and per-tracer totals.
func shardOffsets(counts [][3]int) ([][3]int, [3]int) {
	starts := make([][3]int, len(counts))
	var totals [3]int
	for t := range counts {
		starts[t] = totals
		for tr := 0; tr < 3; tr++ {
			totals[tr] += counts[t][tr]
		}
	}
	return starts, totals
}
