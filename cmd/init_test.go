package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halomock/halomock/hod/config"
)

func TestInitCommand_WritesValidStarterConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	out := captureStdout(t, func() {
		rootCmd.SetArgs([]string{"init", "--out", path})
		require.NoError(t, rootCmd.Execute())
	})
	assert.Contains(t, out, "Wrote")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.HODParams.TracerFlags.LRG)
	assert.False(t, cfg.HODParams.TracerFlags.ELG)
	assert.EqualValues(t, config.DefaultSeed, cfg.SimParams.Seed)
	assert.Equal(t, 4, cfg.SimParams.NthreadLoad)
}

func TestWriteStarterConfig_RefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("keep me"), 0o644))

	err := writeStarterConfig(path, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "keep me", string(data))

	require.NoError(t, writeStarterConfig(path, true))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "sim_params:")
}
