package hod

import (
	"fmt"

	"github.com/halomock/halomock/hod/catalog"
)

// HaloCatalog holds the staged halo columns the generation kernel reads.
// All slices share one length. Multi is the inverse halo subsampling
// probability, Randoms the uniform central marker, VDev the Gaussian
// line-of-sight velocity deviate drawn at prepare time.
type HaloCatalog struct {
	X, Y, Z    []float32
	VX, VY, VZ []float32
	Mass       []float32
	ID         []int64
	Multi      []float32
	Randoms    []float32
	VDev       []float32
	DeltacRank []float32
	FenvRank   []float32
}

// Len returns the number of halos.
func (h *HaloCatalog) Len() int { return len(h.Mass) }

// ParticleCatalog holds the staged particle columns. Each particle carries
// its host halo's velocity, mass, id and environment ranks so the
// satellite kernel never chases indices. Weight is the inverse of the
// combined halo and particle subsampling, Randoms the uniform satellite
// marker. The four profile rank columns are nil unless the catalogs were
// prepared with ranks.
type ParticleCatalog struct {
	X, Y, Z       []float32
	VX, VY, VZ    []float32
	HVX, HVY, HVZ []float32
	HMass         []float32
	HID           []int64
	Weight        []float32
	Randoms       []float32
	DeltacRank    []float32
	FenvRank      []float32

	Rank  []float32
	RankV []float32
	RankP []float32
	RankR []float32
}

// Len returns the number of particles.
func (p *ParticleCatalog) Len() int { return len(p.HMass) }

// HasRanks reports whether the profile rank columns are present.
func (p *ParticleCatalog) HasRanks() bool { return p.Rank != nil }

// haloColumns and particleColumns are the subsample container field names
// in staging order.
var haloColumns = []string{
	"x", "y", "z", "vx", "vy", "vz", "mass", "id",
	"multi", "randoms", "vdev", "deltac_rank", "fenv_rank",
}

var particleColumns = []string{
	"x", "y", "z", "vx", "vy", "vz",
	"hvx", "hvy", "hvz", "hmass", "hid",
	"np", "downsample", "randoms", "deltac_rank", "fenv_rank",
}

var particleRankColumns = []string{"rank", "rankv", "rankp", "rankr"}

// stageHalos converts one decoded halo subsample table into staged arrays.
func stageHalos(t *catalog.Table) (*HaloCatalog, error) {
	cols := make(map[string][]float32, len(haloColumns))
	for _, name := range haloColumns {
		if name == "id" {
			continue
		}
		data, err := t.Float32(name)
		if err != nil {
			return nil, fmt.Errorf("staging halos: %w", err)
		}
		cols[name] = data
	}
	ids, err := t.Int64("id")
	if err != nil {
		return nil, fmt.Errorf("staging halos: %w", err)
	}
	return &HaloCatalog{
		X: cols["x"], Y: cols["y"], Z: cols["z"],
		VX: cols["vx"], VY: cols["vy"], VZ: cols["vz"],
		Mass:    cols["mass"],
		ID:      ids,
		Multi:   cols["multi"],
		Randoms: cols["randoms"],
		VDev:    cols["vdev"],

		DeltacRank: cols["deltac_rank"],
		FenvRank:   cols["fenv_rank"],
	}, nil
}

// stageParticles converts one decoded particle subsample table into staged
// arrays, combining the stored halo and particle subsampling factors into
// a single selection weight.
func stageParticles(t *catalog.Table) (*ParticleCatalog, error) {
	cols := make(map[string][]float32, len(particleColumns))
	for _, name := range particleColumns {
		switch name {
		case "hid", "np":
			continue
		}
		data, err := t.Float32(name)
		if err != nil {
			return nil, fmt.Errorf("staging particles: %w", err)
		}
		cols[name] = data
	}
	hid, err := t.Int64("hid")
	if err != nil {
		return nil, fmt.Errorf("staging particles: %w", err)
	}
	np, err := t.Int64("np")
	if err != nil {
		return nil, fmt.Errorf("staging particles: %w", err)
	}

	downsample := cols["downsample"]
	weight := make([]float32, len(downsample))
	for i := range weight {
		if np[i] <= 0 || downsample[i] <= 0 {
			return nil, fmt.Errorf("staging particles: row %d has np=%d downsample=%v",
				i, np[i], downsample[i])
		}
		weight[i] = 1 / (downsample[i] * float32(np[i]))
	}

	p := &ParticleCatalog{
		X: cols["x"], Y: cols["y"], Z: cols["z"],
		VX: cols["vx"], VY: cols["vy"], VZ: cols["vz"],
		HVX: cols["hvx"], HVY: cols["hvy"], HVZ: cols["hvz"],
		HMass:      cols["hmass"],
		HID:        hid,
		Weight:     weight,
		Randoms:    cols["randoms"],
		DeltacRank: cols["deltac_rank"],
		FenvRank:   cols["fenv_rank"],
	}

	if t.Has("rank") {
		ranks := make(map[string][]float32, len(particleRankColumns))
		for _, name := range particleRankColumns {
			data, err := t.Float32(name)
			if err != nil {
				return nil, fmt.Errorf("staging particles: %w", err)
			}
			ranks[name] = data
		}
		p.Rank = ranks["rank"]
		p.RankV = ranks["rankv"]
		p.RankP = ranks["rankp"]
		p.RankR = ranks["rankr"]
	}
	return p, nil
}

// appendHalos concatenates src onto dst in chunk order.
func appendHalos(dst, src *HaloCatalog) {
	dst.X = append(dst.X, src.X...)
	dst.Y = append(dst.Y, src.Y...)
	dst.Z = append(dst.Z, src.Z...)
	dst.VX = append(dst.VX, src.VX...)
	dst.VY = append(dst.VY, src.VY...)
	dst.VZ = append(dst.VZ, src.VZ...)
	dst.Mass = append(dst.Mass, src.Mass...)
	dst.ID = append(dst.ID, src.ID...)
	dst.Multi = append(dst.Multi, src.Multi...)
	dst.Randoms = append(dst.Randoms, src.Randoms...)
	dst.VDev = append(dst.VDev, src.VDev...)
	dst.DeltacRank = append(dst.DeltacRank, src.DeltacRank...)
	dst.FenvRank = append(dst.FenvRank, src.FenvRank...)
}

func appendParticles(dst, src *ParticleCatalog) {
	dst.X = append(dst.X, src.X...)
	dst.Y = append(dst.Y, src.Y...)
	dst.Z = append(dst.Z, src.Z...)
	dst.VX = append(dst.VX, src.VX...)
	dst.VY = append(dst.VY, src.VY...)
	dst.VZ = append(dst.VZ, src.VZ...)
	dst.HVX = append(dst.HVX, src.HVX...)
	dst.HVY = append(dst.HVY, src.HVY...)
	dst.HVZ = append(dst.HVZ, src.HVZ...)
	dst.HMass = append(dst.HMass, src.HMass...)
	dst.HID = append(dst.HID, src.HID...)
	dst.Weight = append(dst.Weight, src.Weight...)
	dst.Randoms = append(dst.Randoms, src.Randoms...)
	dst.DeltacRank = append(dst.DeltacRank, src.DeltacRank...)
	dst.FenvRank = append(dst.FenvRank, src.FenvRank...)
	if src.Rank != nil {
		dst.Rank = append(dst.Rank, src.Rank...)
		dst.RankV = append(dst.RankV, src.RankV...)
		dst.RankP = append(dst.RankP, src.RankP...)
		dst.RankR = append(dst.RankR, src.RankR...)
	}
}
