package hod

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halomock/halomock/hod/catalog"
	"github.com/halomock/halomock/hod/config"
)

func subsampleConfig(t *testing.T) *config.Config {
	t.Helper()
	base := t.TempDir()
	cfg := &config.Config{
		SimParams: config.SimParams{
			SimName:      "AbacusSummit_base_c000_ph006",
			SimDir:       filepath.Join(base, "sims"),
			ScratchDir:   filepath.Join(base, "scratch"),
			SubsampleDir: filepath.Join(base, "subsamples"),
			ZMock:        0.5,
			NthreadLoad:  2,
			Seed:         600,
		},
		HODParams: config.HODParams{TracerFlags: config.TracerFlags{LRG: true}},
	}
	require.NoError(t, os.MkdirAll(cfg.SubsampleDir(), 0o755))
	return cfg
}

func writeHaloChunk(t *testing.T, path string, ids []int64, boxSize float64) {
	t.Helper()
	tab := catalog.NewTable(catalog.Header{BoxSize: boxSize, VelZToKMS: 85})
	for _, name := range []string{
		"x", "y", "z", "vx", "vy", "vz", "mass",
		"multi", "randoms", "vdev", "deltac_rank", "fenv_rank",
	} {
		col := make([]float32, len(ids))
		for j := range col {
			col[j] = float32(j + 1)
		}
		tab.AddFloat32(name, col)
	}
	tab.AddInt64("id", ids)
	require.NoError(t, catalog.Write(path, tab))
}

func writeParticleChunk(t *testing.T, path string, hids []int64, withRanks bool) {
	t.Helper()
	tab := catalog.NewTable(catalog.Header{BoxSize: 2000, VelZToKMS: 85})
	for _, name := range []string{
		"x", "y", "z", "vx", "vy", "vz", "hvx", "hvy", "hvz", "hmass",
		"downsample", "randoms", "deltac_rank", "fenv_rank",
	} {
		col := make([]float32, len(hids))
		for j := range col {
			col[j] = 0.5
		}
		tab.AddFloat32(name, col)
	}
	tab.AddInt64("hid", hids)
	np := make([]int64, len(hids))
	for j := range np {
		np[j] = 2
	}
	tab.AddInt64("np", np)
	if withRanks {
		for _, name := range []string{"rank", "rankv", "rankp", "rankr"} {
			col := make([]float32, len(hids))
			for j := range col {
				col[j] = 0.1 * float32(j)
			}
			tab.AddFloat32(name, col)
		}
	}
	require.NoError(t, catalog.Write(path, tab))
}

func writeChunkPair(t *testing.T, cfg *config.Config, chunk int, ids []int64, withRanks bool) {
	t.Helper()
	writeHaloChunk(t, cfg.HaloSubsamplePath(chunk), ids, 2000)
	writeParticleChunk(t, cfg.ParticleSubsamplePath(chunk), ids, withRanks)
}

func TestCountSubsampleChunks_StopsAtFirstGap(t *testing.T) {
	cfg := subsampleConfig(t)
	writeChunkPair(t, cfg, 0, []int64{1}, false)
	writeChunkPair(t, cfg, 1, []int64{2}, false)
	// Chunk 2 has only the particle half, chunk 3 is complete but
	// unreachable past the gap.
	writeParticleChunk(t, cfg.ParticleSubsamplePath(2), []int64{3}, false)
	writeChunkPair(t, cfg, 3, []int64{4}, false)

	assert.Equal(t, 2, CountSubsampleChunks(cfg))
}

func TestLoadSubsamples_ConcatenatesInChunkOrder(t *testing.T) {
	cfg := subsampleConfig(t)
	writeChunkPair(t, cfg, 0, []int64{0, 1, 2}, false)
	writeChunkPair(t, cfg, 1, []int64{100, 101}, false)

	halos, parts, header, err := LoadSubsamples(cfg)
	require.NoError(t, err)

	assert.Equal(t, []int64{0, 1, 2, 100, 101}, halos.ID)
	assert.Equal(t, []int64{0, 1, 2, 100, 101}, parts.HID)
	assert.Equal(t, int64(5), header.NumRows)
	assert.Equal(t, 2000.0, header.BoxSize)
	assert.Equal(t, 85.0, header.VelZToKMS)
	// downsample 0.5 and np 2 combine into unit weight.
	for i, w := range parts.Weight {
		assert.Equal(t, float32(1), w, "weight %d", i)
	}
	assert.False(t, parts.HasRanks())
}

func TestLoadSubsamples_NoChunks_ReturnsError(t *testing.T) {
	cfg := subsampleConfig(t)
	_, _, _, err := LoadSubsamples(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no prepared subsamples")
}

func TestLoadSubsamples_WantRanksWithoutRankColumns_ReturnsError(t *testing.T) {
	cfg := subsampleConfig(t)
	cfg.HODParams.WantRanks = true
	writeChunkPair(t, cfg, 0, []int64{1, 2}, false)

	_, _, _, err := LoadSubsamples(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rank")
}

func TestLoadSubsamples_RankColumnsStaged(t *testing.T) {
	cfg := subsampleConfig(t)
	cfg.HODParams.WantRanks = true
	writeChunkPair(t, cfg, 0, []int64{1, 2}, true)

	_, parts, _, err := LoadSubsamples(cfg)
	require.NoError(t, err)
	require.True(t, parts.HasRanks())
	assert.Equal(t, []float32{0, 0.1}, parts.Rank)
	assert.Len(t, parts.RankV, 2)
	assert.Len(t, parts.RankP, 2)
	assert.Len(t, parts.RankR, 2)
}

func TestLoadSubsamples_MismatchedChunkHeaders_ReturnsError(t *testing.T) {
	cfg := subsampleConfig(t)
	writeChunkPair(t, cfg, 0, []int64{1}, false)
	writeHaloChunk(t, cfg.HaloSubsamplePath(1), []int64{2}, 1000)
	writeParticleChunk(t, cfg.ParticleSubsamplePath(1), []int64{2}, false)

	_, _, _, err := LoadSubsamples(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disagrees")
}

func TestStageParticles_InvalidSubsampleFactors_ReturnsError(t *testing.T) {
	tab := catalog.NewTable(catalog.Header{BoxSize: 2000})
	for _, name := range []string{
		"x", "y", "z", "vx", "vy", "vz", "hvx", "hvy", "hvz", "hmass",
		"downsample", "randoms", "deltac_rank", "fenv_rank",
	} {
		tab.AddFloat32(name, []float32{0.5})
	}
	tab.AddInt64("hid", []int64{1})
	tab.AddInt64("np", []int64{0})

	_, err := stageParticles(tab)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "np=0")
}
