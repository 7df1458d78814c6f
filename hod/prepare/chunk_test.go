package prepare

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halomock/halomock/hod/catalog"
	"github.com/halomock/halomock/hod/config"
)

// flatDensity returns a zero-overdensity field matching the config grid.
func flatDensity(cfg *config.Config, header catalog.Header) *DensityField {
	ndim := cfg.HODParams.NDim
	return &DensityField{
		NDim:    ndim,
		BoxSize: header.BoxSize,
		Delta:   make([]float32, ndim*ndim*ndim),
	}
}

func TestPrepareChunk_BoxMismatchWithDensityField_ReturnsError(t *testing.T) {
	cfg := prepareConfig(t)
	header := rawHeader()
	writeRawChunk(t, cfg, 0, header, fixtureHalos(1, 0, 0))
	dens := flatDensity(cfg, header)
	dens.BoxSize = 2 * header.BoxSize

	err := prepareChunk(cfg, dens, 0, 1, rand.New(rand.NewSource(1)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match density field")
}

func TestPrepareChunk_ParticleRangeOverrun_ReturnsError(t *testing.T) {
	cfg := prepareConfig(t)
	header := rawHeader()
	// Build a chunk by hand whose npout points past the particle table.
	halos := fixtureHalos(1, 0, 0)
	writeRawChunk(t, cfg, 0, header, halos)
	ht, err := catalog.Read(cfg.HaloInfoPath(0))
	require.NoError(t, err)
	for i, f := range ht.Fields {
		if f.Name == "npout" {
			ht.Fields[i].I64 = []int64{5}
		}
	}
	require.NoError(t, catalog.Write(cfg.HaloInfoPath(0), ht))

	err = prepareChunk(cfg, flatDensity(cfg, header), 0, 1, rand.New(rand.NewSource(1)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "particle range")
}

func TestPrepareChunk_MissingHaloColumn_ReturnsError(t *testing.T) {
	cfg := prepareConfig(t)
	header := rawHeader()
	writeRawChunk(t, cfg, 0, header, fixtureHalos(1, 0, 0))
	ht, err := catalog.Read(cfg.HaloInfoPath(0))
	require.NoError(t, err)
	kept := ht.Fields[:0]
	for _, f := range ht.Fields {
		if f.Name != "sigmav3d" {
			kept = append(kept, f)
		}
	}
	ht.Fields = kept
	require.NoError(t, catalog.Write(cfg.HaloInfoPath(0), ht))

	err = prepareChunk(cfg, flatDensity(cfg, header), 0, 1, rand.New(rand.NewSource(1)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "halos")
}

func TestPrepareChunk_MissingParticleMass_ReturnsError(t *testing.T) {
	cfg := prepareConfig(t)
	header := rawHeader()
	header.ParticleMass = 0
	writeRawChunk(t, cfg, 0, header, fixtureHalos(1, 0, 0))

	err := prepareChunk(cfg, flatDensity(cfg, rawHeader()), 0, 1, rand.New(rand.NewSource(1)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "particle mass")
}
