package hod

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/halomock/halomock/hod/catalog"
	"github.com/halomock/halomock/hod/config"
)

// CountSubsampleChunks returns how many consecutive prepared chunk pairs
// exist for the configuration, starting at chunk 0.
func CountSubsampleChunks(cfg *config.Config) int {
	n := 0
	for {
		if !fileExists(cfg.HaloSubsamplePath(n)) || !fileExists(cfg.ParticleSubsamplePath(n)) {
			return n
		}
		n++
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// LoadSubsamples stages every prepared chunk into flat halo and particle
// arrays, loading at most Nthread_load chunks concurrently. The returned
// header carries the box geometry and velocity conversion shared by all
// chunks; its row count is the staged halo total.
func LoadSubsamples(cfg *config.Config) (*HaloCatalog, *ParticleCatalog, catalog.Header, error) {
	numChunks := CountSubsampleChunks(cfg)
	if numChunks == 0 {
		return nil, nil, catalog.Header{},
			fmt.Errorf("no prepared subsamples under %s (run prepare first)", cfg.SubsampleDir())
	}
	logrus.Infof("Staging %d subsample chunks from %s", numChunks, cfg.SubsampleDir())

	halosByChunk := make([]*HaloCatalog, numChunks)
	partsByChunk := make([]*ParticleCatalog, numChunks)
	headers := make([]catalog.Header, numChunks)

	var g errgroup.Group
	g.SetLimit(cfg.SimParams.NthreadLoad)
	for i := 0; i < numChunks; i++ {
		i := i
		g.Go(func() error {
			ht, err := catalog.Read(cfg.HaloSubsamplePath(i))
			if err != nil {
				return err
			}
			halos, err := stageHalos(ht)
			if err != nil {
				return fmt.Errorf("chunk %d: %w", i, err)
			}
			pt, err := catalog.Read(cfg.ParticleSubsamplePath(i))
			if err != nil {
				return err
			}
			parts, err := stageParticles(pt)
			if err != nil {
				return fmt.Errorf("chunk %d: %w", i, err)
			}
			halosByChunk[i] = halos
			partsByChunk[i] = parts
			headers[i] = ht.Header
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, catalog.Header{}, err
	}

	header := headers[0]
	for i := 1; i < numChunks; i++ {
		if headers[i].BoxSize != header.BoxSize || headers[i].VelZToKMS != header.VelZToKMS {
			return nil, nil, catalog.Header{},
				fmt.Errorf("chunk %d header disagrees with chunk 0 (box %v vs %v, velz2kms %v vs %v)",
					i, headers[i].BoxSize, header.BoxSize, headers[i].VelZToKMS, header.VelZToKMS)
		}
	}

	allHalos := &HaloCatalog{}
	allParts := &ParticleCatalog{}
	for i := 0; i < numChunks; i++ {
		appendHalos(allHalos, halosByChunk[i])
		appendParticles(allParts, partsByChunk[i])
	}

	if cfg.HODParams.WantRanks && !allParts.HasRanks() {
		return nil, nil, catalog.Header{},
			fmt.Errorf("want_ranks is set but %s has no rank columns", cfg.ParticleSubsamplePath(0))
	}

	header.NumRows = int64(allHalos.Len())
	logrus.Infof("Staged %d halos and %d particles", allHalos.Len(), allParts.Len())
	return allHalos, allParts, header, nil
}
