// Package prepare turns raw simulation catalogs into the seeded subsample
// catalogs consumed by the generation stage. For each raw chunk it keeps a
// mass-dependent fraction of halos and of their member particles, attaches
// the environment, concentration and orbit ranks, and pre-draws every
// random number generation will need, so the mock pipeline downstream is
// fully deterministic.
package prepare

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/halomock/halomock/hod/config"
)

// Run executes the prepare stage: it ensures the smoothed density field
// exists, then subsamples every raw chunk with bounded parallelism.
// Chunks already on disk are skipped, so an interrupted run resumes.
func Run(cfg *config.Config) error {
	start := time.Now()
	if err := os.MkdirAll(cfg.SubsampleDir(), 0o755); err != nil {
		return err
	}
	numChunks := CountRawChunks(cfg)
	if numChunks == 0 {
		return fmt.Errorf("no raw catalog chunks under %s", cfg.HaloInfoDir())
	}
	dens, err := ensureDensityField(cfg)
	if err != nil {
		return err
	}

	key := NewCatalogKey(cfg.SimParams.Seed)
	logrus.Infof("Preparing %d chunks with %d workers (seed %d)",
		numChunks, cfg.SimParams.NthreadLoad, cfg.SimParams.Seed)

	var g errgroup.Group
	g.SetLimit(cfg.SimParams.NthreadLoad)
	for chunk := 0; chunk < numChunks; chunk++ {
		chunk := chunk
		g.Go(func() error {
			// Each chunk derives its own stream so regenerating one
			// chunk reproduces exactly the values it had before.
			rng := NewPartitionedRNG(key).ForChunk(chunk)
			return prepareChunk(cfg, dens, chunk, numChunks, rng)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	logrus.Infof("Prepared %d chunks in %v", numChunks, time.Since(start))
	return nil
}

// CountRawChunks reports how many consecutive raw chunk pairs exist,
// starting at chunk 0. A gap ends the count: chunk files are numbered
// densely by the catalog converter.
func CountRawChunks(cfg *config.Config) int {
	n := 0
	for {
		if !fileExists(cfg.HaloInfoPath(n)) || !fileExists(cfg.ParticlePath(n)) {
			return n
		}
		n++
	}
}

// ensureDensityField loads the cached density grid when present, computing
// and saving it otherwise. A cached grid whose resolution no longer
// matches the config is rejected rather than silently reused.
func ensureDensityField(cfg *config.Config) (*DensityField, error) {
	path := cfg.DensityFieldPath()
	if fileExists(path) {
		dens, err := LoadDensityField(path)
		if err != nil {
			return nil, err
		}
		if dens.NDim != cfg.HODParams.NDim {
			return nil, fmt.Errorf("cached density field %s has Ndim=%d but config wants %d; delete it to recompute",
				path, dens.NDim, cfg.HODParams.NDim)
		}
		logrus.Infof("Loaded cached density field from %s", path)
		return dens, nil
	}

	logrus.Infof("Computing %d^3 density field (sigma=%v)",
		cfg.HODParams.NDim, cfg.HODParams.DensitySigma)
	dens, err := ComputeDensityField(cfg)
	if err != nil {
		return nil, err
	}
	if err := dens.Save(path); err != nil {
		return nil, fmt.Errorf("caching density field: %w", err)
	}
	return dens, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
