package clustering

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halomock/halomock/hod/config"
)

func TestRPBins_LogSpacedEndToEnd(t *testing.T) {
	got, err := RPBins(config.BinParams{LogMin: -1, LogMax: 1.5, NBins: 6})
	require.NoError(t, err)

	want := []float64{0.1, math.Pow(10, -0.5), 1, math.Pow(10, 0.5), 10, math.Pow(10, 1.5)}
	require.Len(t, got, 6)
	for i := range want {
		assert.InEpsilon(t, want[i], got[i], 1e-12, "edge %d", i)
	}
}

func TestRPBins_SingleBin_ReturnsLowerEdge(t *testing.T) {
	got, err := RPBins(config.BinParams{LogMin: -0.5, LogMax: 1, NBins: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.InEpsilon(t, math.Pow(10, -0.5), got[0], 1e-12)
}

func TestRPBins_InvalidParams_ReturnsError(t *testing.T) {
	_, err := RPBins(config.BinParams{LogMin: -1, LogMax: 1, NBins: 0})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nbins")

	_, err = RPBins(config.BinParams{LogMin: 1, LogMax: 1, NBins: 5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logmin")
}

func TestPiBins_StepsToPiMaxInclusive(t *testing.T) {
	got, err := PiBins(30, 5)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 5, 10, 15, 20, 25, 30}, got)

	got, err = PiBins(30, 1)
	require.NoError(t, err)
	require.Len(t, got, 31)
	assert.Equal(t, 0.0, got[0])
	assert.Equal(t, 30.0, got[30])
}

func TestPiBins_InvalidParams_ReturnsError(t *testing.T) {
	_, err := PiBins(0, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pimax")

	_, err = PiBins(30, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pi_bin_size")

	_, err = PiBins(30, 7)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "integer multiple")
}

func TestNewBinning_XirppiUsesConfiguredPiStep(t *testing.T) {
	b, err := NewBinning(config.ClusteringParams{
		ClusteringType: config.ClusteringTypeXirppi,
		BinParams:      config.BinParams{LogMin: -1, LogMax: 1.5, NBins: 8},
		PiMax:          30,
		PiBinSize:      5,
	})
	require.NoError(t, err)
	assert.Len(t, b.RP, 8)
	assert.Equal(t, []float64{0, 5, 10, 15, 20, 25, 30}, b.Pi)
}

func TestNewBinning_WpAlwaysUnitPiStep(t *testing.T) {
	b, err := NewBinning(config.ClusteringParams{
		ClusteringType: config.ClusteringTypeWp,
		BinParams:      config.BinParams{LogMin: -1, LogMax: 1.5, NBins: 8},
		PiMax:          3,
	})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 2, 3}, b.Pi)
}
