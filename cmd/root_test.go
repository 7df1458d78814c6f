package cmd

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeValidConfig(t *testing.T) string {
	t.Helper()
	doc := `sim_params:
  sim_name: AbacusSummit_base_c000_ph006
  sim_dir: /data/sims
  scratch_dir: /data/scratch
  subsample_dir: /data/subsamples
  z_mock: 0.5
HOD_params:
  want_ranks: false
  density_sigma: 3
  Ndim: 1024
  tracer_flags:
    LRG: true
    ELG: false
    QSO: false
  want_rsd: true
  write_to_disk: false
  LRG_params:
    logM_cut: 13.3
    logM1: 14.3
    sigma: 0.3
    alpha: 1.0
    kappa: 0.4
    ic: 0.97
clustering_params:
  clustering_type: xirppi
  bin_params:
    logmin: -0.77
    logmax: 1.4
    nbins: 8
  pimax: 30
  pi_bin_size: 5
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w
	fn()
	_ = w.Close()
	os.Stdout = old
	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

func TestValidateCommand_ValidDocument_ReportsTracers(t *testing.T) {
	path := writeValidConfig(t)
	out := captureStdout(t, func() {
		rootCmd.SetArgs([]string{"validate", "--config", path})
		require.NoError(t, rootCmd.Execute())
	})
	assert.Contains(t, out, "valid")
	assert.Contains(t, out, "LRG")
}

func TestShowCommand_RoundTripsDocumentWithDerivedValues(t *testing.T) {
	path := writeValidConfig(t)
	out := captureStdout(t, func() {
		rootCmd.SetArgs([]string{"show", "--config", path})
		require.NoError(t, rootCmd.Execute())
	})
	assert.Contains(t, out, "sim_name: AbacusSummit_base_c000_ph006")
	assert.Contains(t, out, "# derived")
	assert.Contains(t, out, "z0.500")
	assert.Contains(t, out, "rp edges:")
	assert.Contains(t, out, "pi edges:")
}

func TestFormatEdges_CompactRepresentation(t *testing.T) {
	assert.Equal(t, "0.1 1 10", formatEdges([]float64{0.1, 1, 10}))
}
