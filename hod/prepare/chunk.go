package prepare

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/halomock/halomock/cosmo"
	"github.com/halomock/halomock/hod/catalog"
	"github.com/halomock/halomock/hod/config"
)

// haloOut accumulates the kept-halo rows of one chunk.
type haloOut struct {
	x, y, z, vx, vy, vz  []float32
	mass                 []float32
	id                   []int64
	multi, randoms, vdev []float32
	deltacRank, fenvRank []float32
}

// particleOut accumulates the kept-particle rows of one chunk. Each row
// carries its host halo's velocity, mass, id, ranks and subsample factors
// so the generation stage never needs the halo table.
type particleOut struct {
	x, y, z, vx, vy, vz       []float32
	hvx, hvy, hvz             []float32
	hmass                     []float32
	hid, np                   []int64
	downsample, randoms       []float32
	deltacRank, fenvRank      []float32
	rank, rankv, rankp, rankr []float32
}

// prepareChunk subsamples one raw chunk and writes the halo/particle
// subsample pair. Chunks whose outputs both exist are skipped, so a
// partial run resumes where it stopped.
func prepareChunk(cfg *config.Config, dens *DensityField, chunk, numChunks int, rng *rand.Rand) error {
	haloPath := cfg.HaloSubsamplePath(chunk)
	partPath := cfg.ParticleSubsamplePath(chunk)
	if fileExists(haloPath) && fileExists(partPath) {
		logrus.Infof("Chunk %d already prepared, skipping", chunk)
		return nil
	}

	ht, err := catalog.Read(cfg.HaloInfoPath(chunk))
	if err != nil {
		return err
	}
	pt, err := catalog.Read(cfg.ParticlePath(chunk))
	if err != nil {
		return err
	}
	header := ht.Header
	if header.ParticleMass <= 0 {
		return fmt.Errorf("chunk %d: header particle mass is %v", chunk, header.ParticleMass)
	}
	if header.BoxSize != dens.BoxSize {
		return fmt.Errorf("chunk %d: box size %v does not match density field (%v); stale %s?",
			chunk, header.BoxSize, dens.BoxSize, cfg.DensityFieldPath())
	}

	var colErr error
	hcol := func(name string) []float32 {
		data, err := ht.Float32(name)
		if err != nil && colErr == nil {
			colErr = fmt.Errorf("chunk %d halos: %w", chunk, err)
		}
		return data
	}
	icol := func(name string) []int64 {
		data, err := ht.Int64(name)
		if err != nil && colErr == nil {
			colErr = fmt.Errorf("chunk %d halos: %w", chunk, err)
		}
		return data
	}
	pcol := func(name string) []float32 {
		data, err := pt.Float32(name)
		if err != nil && colErr == nil {
			colErr = fmt.Errorf("chunk %d particles: %w", chunk, err)
		}
		return data
	}
	hx, hy, hz := hcol("x"), hcol("y"), hcol("z")
	hvx, hvy, hvz := hcol("vx"), hcol("vy"), hcol("vz")
	r25, r90, sigmav3d := hcol("r25"), hcol("r90"), hcol("sigmav3d")
	n, id := icol("n"), icol("id")
	npstart, npout := icol("npstart"), icol("npout")
	px, py, pz := pcol("x"), pcol("y"), pcol("z")
	pvx, pvy, pvz := pcol("vx"), pcol("vy"), pcol("vz")
	if colErr != nil {
		return colErr
	}

	numHalos := len(n)
	mt := cfg.MultiTracer()
	wantRanks := cfg.HODParams.WantRanks
	hubble := header.H0 / 100

	masses := make([]float32, numHalos)
	for j := range masses {
		masses[j] = float32(float64(n[j]) * header.ParticleMass)
	}

	// One uniform per halo decides the keep mask.
	pHalos := make([]float64, numHalos)
	keep := make([]bool, numHalos)
	kept := 0
	for j := range pHalos {
		pHalos[j] = SubsampleHalos(float64(masses[j]), mt)
		keep[j] = rng.Float64() < pHalos[j]
		if keep[j] {
			kept++
		}
	}

	// Environment and concentration ranks are computed over the full
	// chunk so dropped halos still shape their mass bin.
	fenv := make([]float64, numHalos)
	conc := make([]float64, numHalos)
	for j := range fenv {
		fenv[j] = float64(dens.AtPosition(float64(hx[j]), float64(hy[j]), float64(hz[j])))
		conc[j] = float64(r90[j] / r25[j])
	}
	fenvRank := binnedCenteredRanks(masses, fenv)
	deltacRank := binnedCenteredRanks(masses, conc)

	po := &particleOut{}
	var keptIdx []int
	for j := 0; j < numHalos; j++ {
		if !keep[j] {
			continue
		}
		m := float64(masses[j])
		pKeep := SubsampleParticles(m, mt)
		start, count := npstart[j], npout[j]
		if start < 0 || start+count > int64(len(px)) {
			return fmt.Errorf("chunk %d: halo %d particle range [%d,%d) outside %d rows",
				chunk, j, start, start+count, len(px))
		}
		keptIdx = keptIdx[:0]
		for p := start; p < start+count; p++ {
			if rng.Float64() < pKeep {
				keptIdx = append(keptIdx, int(p))
			}
		}
		np := len(keptIdx)
		for _, p := range keptIdx {
			po.x = append(po.x, px[p])
			po.y = append(po.y, py[p])
			po.z = append(po.z, pz[p])
			po.vx = append(po.vx, pvx[p])
			po.vy = append(po.vy, pvy[p])
			po.vz = append(po.vz, pvz[p])
			po.hvx = append(po.hvx, hvx[j])
			po.hvy = append(po.hvy, hvy[j])
			po.hvz = append(po.hvz, hvz[j])
			po.hmass = append(po.hmass, masses[j])
			po.hid = append(po.hid, id[j])
			po.np = append(po.np, int64(np))
			po.downsample = append(po.downsample, float32(pHalos[j]))
			po.deltacRank = append(po.deltacRank, deltacRank[j])
			po.fenvRank = append(po.fenvRank, fenvRank[j])
		}
		if wantRanks {
			appendRanks(po, keptIdx, px, py, pz, pvx, pvy, pvz,
				float64(hx[j]), float64(hy[j]), float64(hz[j]),
				float64(hvx[j]), float64(hvy[j]), float64(hvz[j]),
				m, float64(r25[j]), float64(r90[j]), hubble)
		}
	}

	// Attach the random columns after subsampling: the uniform central
	// marker and Gaussian velocity deviate per kept halo, then the
	// uniform satellite marker per kept particle.
	ho := &haloOut{}
	for j := 0; j < numHalos; j++ {
		if !keep[j] {
			continue
		}
		ho.x = append(ho.x, hx[j])
		ho.y = append(ho.y, hy[j])
		ho.z = append(ho.z, hz[j])
		ho.vx = append(ho.vx, hvx[j])
		ho.vy = append(ho.vy, hvy[j])
		ho.vz = append(ho.vz, hvz[j])
		ho.mass = append(ho.mass, masses[j])
		ho.id = append(ho.id, id[j])
		ho.multi = append(ho.multi, float32(1/pHalos[j]))
		ho.deltacRank = append(ho.deltacRank, deltacRank[j])
		ho.fenvRank = append(ho.fenvRank, fenvRank[j])
	}
	for range ho.id {
		ho.randoms = append(ho.randoms, float32(rng.Float64()))
	}
	sqrt3 := math.Sqrt(3)
	for j := 0; j < numHalos; j++ {
		if keep[j] {
			ho.vdev = append(ho.vdev, float32(rng.NormFloat64()*float64(sigmav3d[j])/sqrt3))
		}
	}
	for range po.hid {
		po.randoms = append(po.randoms, float32(rng.Float64()))
	}

	outHeader := header
	outHeader.Chunk = chunk
	outHeader.NumChunks = numChunks
	if outHeader.VelZToKMS == 0 {
		outHeader.VelZToKMS = cosmo.VelZToKMS(header.OmegaM, header.OmegaL, header.Redshift)
	}

	hTab := catalog.NewTable(outHeader)
	hTab.AddFloat32("x", ho.x)
	hTab.AddFloat32("y", ho.y)
	hTab.AddFloat32("z", ho.z)
	hTab.AddFloat32("vx", ho.vx)
	hTab.AddFloat32("vy", ho.vy)
	hTab.AddFloat32("vz", ho.vz)
	hTab.AddFloat32("mass", ho.mass)
	hTab.AddInt64("id", ho.id)
	hTab.AddFloat32("multi", ho.multi)
	hTab.AddFloat32("randoms", ho.randoms)
	hTab.AddFloat32("vdev", ho.vdev)
	hTab.AddFloat32("deltac_rank", ho.deltacRank)
	hTab.AddFloat32("fenv_rank", ho.fenvRank)
	if err := catalog.Write(haloPath, hTab); err != nil {
		return fmt.Errorf("chunk %d: %w", chunk, err)
	}

	pTab := catalog.NewTable(outHeader)
	pTab.AddFloat32("x", po.x)
	pTab.AddFloat32("y", po.y)
	pTab.AddFloat32("z", po.z)
	pTab.AddFloat32("vx", po.vx)
	pTab.AddFloat32("vy", po.vy)
	pTab.AddFloat32("vz", po.vz)
	pTab.AddFloat32("hvx", po.hvx)
	pTab.AddFloat32("hvy", po.hvy)
	pTab.AddFloat32("hvz", po.hvz)
	pTab.AddFloat32("hmass", po.hmass)
	pTab.AddInt64("hid", po.hid)
	pTab.AddInt64("np", po.np)
	pTab.AddFloat32("downsample", po.downsample)
	pTab.AddFloat32("randoms", po.randoms)
	pTab.AddFloat32("deltac_rank", po.deltacRank)
	pTab.AddFloat32("fenv_rank", po.fenvRank)
	if wantRanks {
		pTab.AddFloat32("rank", po.rank)
		pTab.AddFloat32("rankv", po.rankv)
		pTab.AddFloat32("rankp", po.rankp)
		pTab.AddFloat32("rankr", po.rankr)
	}
	if err := catalog.Write(partPath, pTab); err != nil {
		return fmt.Errorf("chunk %d: %w", chunk, err)
	}

	logrus.Infof("Chunk %d: kept %d/%d halos, %d/%d particles",
		chunk, kept, numHalos, len(po.hid), len(px))
	return nil
}

// appendRanks computes the four profile ranks for one halo's kept
// particles and appends them to the output, aligned with the rows already
// appended for the same halo. A lone particle ranks 0 in everything.
func appendRanks(po *particleOut, keptIdx []int,
	px, py, pz, pvx, pvy, pvz []float32,
	hx, hy, hz, hvx, hvy, hvz, mass, r25, r90, hubble float64) {

	np := len(keptIdx)
	switch {
	case np == 0:
		return
	case np == 1:
		po.rank = append(po.rank, 0)
		po.rankv = append(po.rankv, 0)
		po.rankp = append(po.rankp, 0)
		po.rankr = append(po.rankr, 0)
		return
	}

	dist2 := make([]float64, np)
	v2 := make([]float64, np)
	vrad := make([]float64, np)
	vtan2 := make([]float64, np)
	vrad2 := make([]float64, np)
	r0 := make([]float64, np)
	for k, p := range keptIdx {
		dx := float64(px[p]) - hx
		dy := float64(py[p]) - hy
		dz := float64(pz[p]) - hz
		dist2[k] = dx*dx + dy*dy + dz*dz
		r0[k] = math.Sqrt(dist2[k])

		wx := float64(pvx[p]) - hvx
		wy := float64(pvy[p]) - hvy
		wz := float64(pvz[p]) - hvz
		v2[k] = wx*wx + wy*wy + wz*wz
		vrad[k] = (wx*dx + wy*dy + wz*dz) / r0[k]
		vrad2[k] = vrad[k] * vrad[k]
		vtan2[k] = v2[k] - vrad2[k]
	}
	rp2 := perihelionDist2(vtan2, vrad2, r0, mass, r25, r90, hubble)

	for _, v := range centeredRanks(dist2) {
		po.rank = append(po.rank, float32(v))
	}
	for _, v := range centeredRanks(v2) {
		po.rankv = append(po.rankv, float32(v))
	}
	for _, v := range centeredRanks(rp2) {
		po.rankp = append(po.rankp, float32(v))
	}
	for _, v := range centeredRanks(vrad) {
		po.rankr = append(po.rankr, float32(v))
	}
}
